// Package events holds the Kafka payloads exchanged between services.
package events

import (
	"encoding/base64"
	"fmt"

	"github.com/md-rashed-zaman/bookingassistant/libs/mailx"
)

const (
	TopicNotificationRequested = "booking.notification.requested.v1"

	KindClientConfirmation = "client_confirmation"
	KindProviderAlert      = "provider_alert"
)

type Attachment struct {
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	// Data is base64 encoded.
	Data string `json:"data"`
}

// NotificationRequested asks the notification service to deliver one email.
type NotificationRequested struct {
	EventID     string      `json:"event_id"`
	Kind        string      `json:"kind"`
	BookingID   string      `json:"booking_id,omitempty"`
	To          string      `json:"to"`
	Subject     string      `json:"subject"`
	Text        string      `json:"text"`
	Attachment  *Attachment `json:"attachment,omitempty"`
	Traceparent string      `json:"traceparent,omitempty"`
	Tracestate  string      `json:"tracestate,omitempty"`
}

// MailMessage decodes the event into a message ready for SMTP delivery.
func (n NotificationRequested) MailMessage() (mailx.Message, error) {
	msg := mailx.Message{To: n.To, Subject: n.Subject, Text: n.Text}
	if n.Attachment != nil {
		data, err := base64.StdEncoding.DecodeString(n.Attachment.Data)
		if err != nil {
			return mailx.Message{}, fmt.Errorf("decode attachment: %w", err)
		}
		msg.Attachment = &mailx.Attachment{
			FileName:    n.Attachment.FileName,
			ContentType: n.Attachment.MimeType,
			Data:        data,
		}
	}
	return msg, nil
}
