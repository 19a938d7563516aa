// Package delivery turns notification events into SMTP sends.
package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/md-rashed-zaman/bookingassistant/libs/events"
	"github.com/md-rashed-zaman/bookingassistant/libs/mailx"
	otelx "github.com/md-rashed-zaman/bookingassistant/libs/otel"
	"github.com/segmentio/kafka-go"
)

type Mailer struct {
	sender mailx.Sender
	logger *slog.Logger
	// failSuffix simulates delivery failures for recipients ending with it.
	failSuffix string
}

func NewMailer(sender mailx.Sender, logger *slog.Logger, failSuffix string) *Mailer {
	return &Mailer{sender: sender, logger: logger, failSuffix: failSuffix}
}

// Handle decodes one message and sends it. Malformed payloads are logged and
// dropped so they never block the partition.
func (m *Mailer) Handle(ctx context.Context, msg kafka.Message) error {
	var ev events.NotificationRequested
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		m.logger.Error("invalid notification payload", "err", err)
		return nil
	}
	if missing := missingFields(ev); len(missing) > 0 {
		m.logger.Error("missing notification fields", "fields", missing, "event_id", ev.EventID)
		return nil
	}
	ctx = otelx.TraceFields{Traceparent: ev.Traceparent, Tracestate: ev.Tracestate}.Restore(ctx)

	mail, err := ev.MailMessage()
	if err != nil {
		m.logger.Error("invalid notification attachment", "err", err, "event_id", ev.EventID)
		return nil
	}

	if m.failSuffix != "" && strings.HasSuffix(ev.To, m.failSuffix) {
		return fmt.Errorf("send %s: simulated failure", ev.Kind)
	}
	if err := m.sender.Send(ctx, mail); err != nil {
		return fmt.Errorf("send %s: %w", ev.Kind, err)
	}
	m.logger.Info("notification sent", "kind", ev.Kind, "booking_id", ev.BookingID, "event_id", ev.EventID)
	return nil
}

func missingFields(ev events.NotificationRequested) []string {
	var missing []string
	if strings.TrimSpace(ev.To) == "" {
		missing = append(missing, "to")
	}
	if strings.TrimSpace(ev.Subject) == "" {
		missing = append(missing, "subject")
	}
	if ev.Kind != events.KindClientConfirmation && ev.Kind != events.KindProviderAlert {
		missing = append(missing, "kind")
	}
	return missing
}
