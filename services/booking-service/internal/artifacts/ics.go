// Package artifacts renders the calendar invite and email bodies that follow a decision.
package artifacts

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/model"
)

const (
	icsLayout   = "20060102T150405Z"
	uidDomain   = "booking-assistant"
	maxLineOcts = 75
)

type Event struct {
	BookingID  string
	Stamp      time.Time
	Start      time.Time
	End        time.Time
	ClientName string
	Reason     string
}

// FormatICSTime renders t in iCalendar basic UTC form, e.g. 20260302T090000Z.
func FormatICSTime(t time.Time) string {
	return t.UTC().Format(icsLayout)
}

// UID falls back to the stamp in unix millis when the booking has no id.
func (e Event) UID() string {
	id := e.BookingID
	if id == "" {
		id = strconv.FormatInt(e.Stamp.UnixMilli(), 10)
	}
	return id + "@" + uidDomain
}

// BuildICS renders a single-event VCALENDAR with CRLF line endings.
func BuildICS(e Event) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Booking Assistant//EN",
		"BEGIN:VEVENT",
		"UID:" + e.UID(),
		"DTSTAMP:" + FormatICSTime(e.Stamp),
		"DTSTART:" + FormatICSTime(e.Start),
		"DTEND:" + FormatICSTime(e.End),
		"SUMMARY:" + escapeText("Session with "+e.ClientName),
		"DESCRIPTION:" + escapeText("Reason: "+e.Reason),
		"END:VEVENT",
		"END:VCALENDAR",
	}
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(fold(l))
		b.WriteString("\r\n")
	}
	return b.String()
}

func CalendarAttachment(ics string) model.Attachment {
	return model.Attachment{
		FileName: "booking.ics",
		MimeType: "text/calendar; charset=utf-8",
		Data:     base64.StdEncoding.EncodeToString([]byte(ics)),
	}
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	";", `\;`,
	",", `\,`,
	"\r\n", `\n`,
	"\n", `\n`,
	"\r", `\n`,
)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

// fold splits content lines longer than 75 octets without breaking a UTF-8 sequence.
func fold(line string) string {
	if len(line) <= maxLineOcts {
		return line
	}
	var b strings.Builder
	limit := maxLineOcts
	width := 0
	for _, r := range line {
		n := len(string(r))
		if width+n > limit {
			b.WriteString("\r\n ")
			width = 0
			limit = maxLineOcts - 1
		}
		b.WriteRune(r)
		width += n
	}
	return b.String()
}
