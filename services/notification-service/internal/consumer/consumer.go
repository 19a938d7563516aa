package consumer

import (
	"context"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/bookingassistant/libs/kafkax"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Handler func(ctx context.Context, msg kafka.Message) error

// Reader is the subset of *kafka.Reader the consumer needs.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Deduper reports whether an event id is seen for the first time.
type Deduper interface {
	First(ctx context.Context, eventID string) (bool, error)
}

type Consumer struct {
	reader  Reader
	logger  *slog.Logger
	dedup   Deduper
	handler Handler
	backoff time.Duration
}

type Config struct {
	Brokers []string
	GroupID string
	Topic   string
}

func NewReader(cfg Config) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

// New builds a consumer. dedup may be nil, in which case every delivery is handled.
func New(logger *slog.Logger, reader Reader, dedup Deduper, handler Handler) *Consumer {
	return &Consumer{
		reader:  reader,
		logger:  logger,
		dedup:   dedup,
		handler: handler,
		backoff: time.Second,
	}
}

func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka read error", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.backoff):
			}
			continue
		}
		c.process(ctx, msg)
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	ctxMsg := kafkax.ExtractTraceContext(ctx, msg)
	ctxSpan, span := otel.Tracer("kafka").Start(ctxMsg, "kafka.consume",
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
		),
	)
	defer span.End()

	meta := kafkax.ExtractEventMeta(msg)

	if c.dedup != nil && meta.EventID != "" {
		first, err := c.dedup.First(ctxSpan, meta.EventID)
		if err != nil {
			c.logger.Warn("dedup check failed", "err", err, "event_id", meta.EventID)
		} else if !first {
			c.logger.Info("duplicate event ignored", "event_id", meta.EventID, "event_type", meta.EventType)
			return
		}
	}

	if err := c.handler(ctxSpan, msg); err != nil {
		c.logger.Error("handler error", "err", err, "event_id", meta.EventID)
		span.RecordError(err)
	}
}
