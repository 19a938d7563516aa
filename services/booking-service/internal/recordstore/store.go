// Package recordstore is the tabular record store the booking engine reads and writes.
package recordstore

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Fields map[string]any

// String returns the field as text; missing or null fields are "".
func (f Fields) String(key string) string {
	v, ok := f[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

type Record struct {
	ID        string
	Fields    Fields
	CreatedAt time.Time
}

type Store interface {
	// FetchAll returns every record in table matching filter, exhausting pagination.
	FetchAll(ctx context.Context, table string, filter Filter) ([]Record, error)
	CreateRecord(ctx context.Context, table string, fields Fields) (Record, error)
}

type Op int

const (
	OpAll Op = iota
	OpEqualFold
	OpEquals
	OpNotEquals
)

// Filter is one of the predicates every store implementation can express.
type Filter struct {
	Op    Op
	Field string
	Value string
}

func All() Filter { return Filter{Op: OpAll} }

// EmailEquals matches the Email column case-insensitively.
func EmailEquals(email string) Filter {
	return Filter{Op: OpEqualFold, Field: "Email", Value: strings.ToLower(strings.TrimSpace(email))}
}

func FieldEquals(field, value string) Filter {
	return Filter{Op: OpEquals, Field: field, Value: value}
}

func FieldNotEquals(field, value string) Filter {
	return Filter{Op: OpNotEquals, Field: field, Value: value}
}

func (f Filter) Match(fields Fields) bool {
	switch f.Op {
	case OpAll:
		return true
	case OpEqualFold:
		return strings.ToLower(fields.String(f.Field)) == f.Value
	case OpEquals:
		return fields.String(f.Field) == f.Value
	case OpNotEquals:
		return fields.String(f.Field) != f.Value
	default:
		return false
	}
}
