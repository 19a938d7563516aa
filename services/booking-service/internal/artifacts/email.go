package artifacts

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/model"
)

type Details struct {
	Name   string
	Email  string
	Start  time.Time
	End    time.Time
	Reason string
}

func ClientConfirmation(d Details) model.EmailPayload {
	return model.EmailPayload{
		To:      d.Email,
		Subject: "Booking confirmed",
		Text: fmt.Sprintf(
			"Hi %s,\n\nYour session is confirmed from %s to %s.\n\nReason: %s\n\nYou can add the attached calendar invite to your preferred calendar.\n\nRegards,\nProvider",
			d.Name, availability.FormatISO(d.Start), availability.FormatISO(d.End), d.Reason,
		),
	}
}

// ProviderAlert tells the provider about an accepted or pending booking.
func ProviderAlert(to string, d Details, status model.BookingStatus) model.EmailPayload {
	subject := "Booking request pending review"
	if status == model.BookingStatusAccepted {
		subject = "New confirmed booking"
	}
	return model.EmailPayload{
		To:      to,
		Subject: subject,
		Text: fmt.Sprintf(
			"Client: %s\nEmail: %s\nStart: %s\nEnd: %s\nReason: %s\nStatus: %s",
			d.Name, d.Email, availability.FormatISO(d.Start), availability.FormatISO(d.End), d.Reason, status,
		),
	}
}
