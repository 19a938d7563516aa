package airtable

import (
	"fmt"
	"strings"

	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/recordstore"
)

// Formula renders a filter as an Airtable filterByFormula expression. OpAll renders as "".
func Formula(f recordstore.Filter) string {
	switch f.Op {
	case recordstore.OpEqualFold:
		return fmt.Sprintf("LOWER({%s})='%s'", f.Field, quote(strings.ToLower(f.Value)))
	case recordstore.OpEquals:
		return fmt.Sprintf("{%s}='%s'", f.Field, quote(f.Value))
	case recordstore.OpNotEquals:
		return fmt.Sprintf("NOT({%s}='%s')", f.Field, quote(f.Value))
	default:
		return ""
	}
}

func quote(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}
