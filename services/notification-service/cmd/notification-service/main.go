package main

import (
	"context"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/bookingassistant/libs/config"
	"github.com/md-rashed-zaman/bookingassistant/libs/events"
	"github.com/md-rashed-zaman/bookingassistant/libs/httpx"
	"github.com/md-rashed-zaman/bookingassistant/libs/kafkax"
	"github.com/md-rashed-zaman/bookingassistant/libs/mailx"
	otelx "github.com/md-rashed-zaman/bookingassistant/libs/otel"
	"github.com/md-rashed-zaman/bookingassistant/libs/runtime"
	"github.com/md-rashed-zaman/bookingassistant/services/notification-service/internal/consumer"
	"github.com/md-rashed-zaman/bookingassistant/services/notification-service/internal/delivery"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8085")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service, config.String("LOG_LEVEL", "info"))

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	brokers := kafkax.SplitBrokers(config.String("KAFKA_BROKERS", ""))
	checks := []runtime.ReadyCheck{{Name: "kafka", Check: kafkax.ReadyCheck(brokers)}}

	var dedup consumer.Deduper
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		defer func() { _ = rdb.Close() }()
		ttl, err := config.Duration("NOTIFICATION_DEDUP_TTL", 24*time.Hour)
		if err != nil {
			panic(err)
		}
		dedup = consumer.NewRedisDeduper(rdb, "notify:seen:", ttl)
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

	sender := mailx.NewSMTPSender(mailx.SMTPConfig{
		Host:     config.String("SMTP_HOST", "mailpit"),
		Port:     config.String("SMTP_PORT", "1025"),
		From:     config.String("SMTP_FROM", "no-reply@booking.local"),
		Username: config.String("SMTP_USERNAME", ""),
		Password: config.String("SMTP_PASSWORD", ""),
	})
	mailer := delivery.NewMailer(sender, logger, config.String("NOTIFICATION_FAIL_SUFFIX", ""))

	reader := consumer.NewReader(consumer.Config{
		Brokers: brokers,
		GroupID: config.String("KAFKA_GROUP_ID", "notification-service"),
		Topic:   config.String("KAFKA_CONSUME_TOPIC", events.TopicNotificationRequested),
	})
	go consumer.New(logger, reader, dedup, mailer.Handle).Run(ctx)

	mux := runtime.NewBaseMuxWithReady(checks...)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	runtime.ServeHTTP(ctx, srv, logger, 10*time.Second)
}
