// Package notify hands decision emails to a delivery transport.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/bookingassistant/libs/events"
	"github.com/md-rashed-zaman/bookingassistant/libs/kafkax"
	"github.com/md-rashed-zaman/bookingassistant/libs/mailx"
	otelx "github.com/md-rashed-zaman/bookingassistant/libs/otel"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/model"
	"github.com/segmentio/kafka-go"
)

// Dispatcher delivers the emails attached to a decision. Errors never unwind the booking.
type Dispatcher interface {
	Dispatch(ctx context.Context, d model.Decision) error
}

// Requests converts a decision into one notification event per email.
// The calendar attachment rides on the client confirmation only.
func Requests(d model.Decision) []events.NotificationRequested {
	var out []events.NotificationRequested
	if d.ClientEmail != nil {
		ev := newRequest(events.KindClientConfirmation, d.Records.BookingRecordID, *d.ClientEmail)
		if d.CalendarAttachment != nil {
			ev.Attachment = &events.Attachment{
				FileName: d.CalendarAttachment.FileName,
				MimeType: d.CalendarAttachment.MimeType,
				Data:     d.CalendarAttachment.Data,
			}
		}
		out = append(out, ev)
	}
	if d.ProviderEmail != nil {
		out = append(out, newRequest(events.KindProviderAlert, d.Records.BookingRecordID, *d.ProviderEmail))
	}
	return out
}

func newRequest(kind, bookingID string, e model.EmailPayload) events.NotificationRequested {
	return events.NotificationRequested{
		EventID:   uuid.NewString(),
		Kind:      kind,
		BookingID: bookingID,
		To:        e.To,
		Subject:   e.Subject,
		Text:      e.Text,
	}
}

type Noop struct{}

func (Noop) Dispatch(context.Context, model.Decision) error { return nil }

// MessageWriter is the subset of *kafka.Writer used here.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaDispatcher struct {
	writer MessageWriter
	topic  string
}

func NewKafkaDispatcher(writer MessageWriter, topic string) *KafkaDispatcher {
	if topic == "" {
		topic = events.TopicNotificationRequested
	}
	return &KafkaDispatcher{writer: writer, topic: topic}
}

func (k *KafkaDispatcher) Dispatch(ctx context.Context, d model.Decision) error {
	reqs := Requests(d)
	if len(reqs) == 0 {
		return nil
	}
	tf := otelx.CaptureTrace(ctx)
	msgs := make([]kafka.Message, 0, len(reqs))
	for _, ev := range reqs {
		ev.Traceparent, ev.Tracestate = tf.Traceparent, tf.Tracestate
		payload, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		meta := kafkax.EventMeta{EventID: ev.EventID, EventType: k.topic}
		msgs = append(msgs, kafka.Message{
			Topic:   k.topic,
			Key:     []byte(ev.BookingID),
			Value:   payload,
			Headers: kafkax.InjectTraceHeaders(ctx, meta.Headers()),
		})
	}
	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish notifications: %w", err)
	}
	return nil
}

// SMTPDispatcher sends directly, for deployments without Kafka.
type SMTPDispatcher struct {
	sender mailx.Sender
	logger *slog.Logger
}

func NewSMTPDispatcher(sender mailx.Sender, logger *slog.Logger) *SMTPDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPDispatcher{sender: sender, logger: logger}
}

func (s *SMTPDispatcher) Dispatch(ctx context.Context, d model.Decision) error {
	var errs []error
	for _, ev := range Requests(d) {
		msg, err := ev.MailMessage()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.sender.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("send %s to %s: %w", ev.Kind, ev.To, err))
			continue
		}
		s.logger.Info("notification sent", "kind", ev.Kind, "booking_id", ev.BookingID)
	}
	return errors.Join(errs...)
}
