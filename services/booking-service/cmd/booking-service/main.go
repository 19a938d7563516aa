package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/md-rashed-zaman/bookingassistant/libs/db"
	"github.com/md-rashed-zaman/bookingassistant/libs/grpcx"
	"github.com/md-rashed-zaman/bookingassistant/libs/httpx"
	"github.com/md-rashed-zaman/bookingassistant/libs/kafkax"
	"github.com/md-rashed-zaman/bookingassistant/libs/mailx"
	otelx "github.com/md-rashed-zaman/bookingassistant/libs/otel"
	"github.com/md-rashed-zaman/bookingassistant/libs/runtime"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/config"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/lock"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/notify"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/recordstore"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/recordstore/airtable"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/recordstore/pgstore"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.Service, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.Service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	var checks []runtime.ReadyCheck

	store, handle, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("record store init failed", "err", err)
		os.Exit(1)
	}
	defer handle.close()
	if handle.pool != nil {
		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(handle.pool)})
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = rdb.Close() }()
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

	dispatcher, closeDispatcher := newDispatcher(cfg, logger)
	defer closeDispatcher()
	if cfg.Notifier == config.NotifierKafka {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)})
	}

	clock := runtime.SystemClock()
	repo := storage.NewRepository(store, cfg.Tables, logger)

	var bookingHandler *handlers.BookingHandler
	if cfg.UseStub {
		logger.Warn("stub mode enabled: booking requests use synthetic data")
		bookingHandler = handlers.NewBookingHandler(nil, &handlers.StubMode{
			Config: cfg.EngineConfig(),
			Tables: cfg.Tables,
			Clock:  clock,
			Logger: logger,
		}, dispatcher, logger)
	} else {
		opts := []booking.Option{booking.WithLogger(logger)}
		if cfg.LockEnabled {
			opts = append(opts, booking.WithSerializer(lock.NewRedisSerializer(rdb, lock.Options{
				TTL:  cfg.LockTTL,
				Wait: cfg.LockWait,
			})))
		} else {
			logger.Info("booking lock disabled: concurrent requests for one slot may both be accepted")
		}
		engine, err := booking.NewEngine(cfg.EngineConfig(), repo, clock, opts...)
		if err != nil {
			logger.Error("booking engine init failed", "err", err)
			os.Exit(1)
		}
		bookingHandler = handlers.NewBookingHandler(engine, nil, dispatcher, logger)
	}

	slots, err := booking.NewAvailability(repo, clock, availability.DefaultOptions())
	if err != nil {
		logger.Error("availability init failed", "err", err)
		os.Exit(1)
	}
	availabilityHandler := handlers.NewAvailabilityHandler(slots, logger)

	var limiter httpx.Limiter = httpx.NewMemoryRateLimiter(cfg.RateLimit, cfg.RateLimitWindow)
	if rdb != nil {
		limiter = httpx.NewRedisRateLimiter(rdb, cfg.RateLimit, cfg.RateLimitWindow, "booking:rl")
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.Handle("/api/v1/booking-request", httpx.Chain(
		http.HandlerFunc(bookingHandler.Create),
		httpx.RateLimit(limiter, logger, true),
		httpx.WithBodyLimit(64<<10),
	))
	mux.HandleFunc("/api/v1/availability", availabilityHandler.List)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithRecover(logger),
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.PublicFormPolicy(cfg.CORSOrigins)),
		httpx.WithTimeout(cfg.RequestTimeout),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.Error("grpc listen failed", "err", err)
		os.Exit(1)
	}
	grpcx.NewHealthServer(cfg.Service).Serve(ctx, lis, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	runtime.ServeHTTP(ctx, srv, logger, cfg.ShutdownGrace)
}

// storeHandle owns whatever connection backs the record store.
type storeHandle struct {
	close func()
	pool  *db.Pool
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (recordstore.Store, storeHandle, error) {
	noop := storeHandle{close: func() {}}
	switch cfg.RecordStore {
	case config.StoreMemory:
		mem := recordstore.NewMemory("rec")
		if cfg.StubFixturePath != "" {
			f, err := os.Open(cfg.StubFixturePath)
			if err != nil {
				return nil, noop, err
			}
			defer f.Close()
			if err := recordstore.LoadFixture(f, mem); err != nil {
				return nil, noop, err
			}
			logger.Info("stub fixture loaded", "path", cfg.StubFixturePath)
		}
		return mem, noop, nil
	case config.StorePostgres:
		pool, err := db.Open(ctx, cfg.DatabaseURL, db.Options{})
		if err != nil {
			return nil, noop, err
		}
		store := pgstore.New(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		return store, storeHandle{close: pool.Close, pool: pool}, nil
	case config.StoreAirtable:
		return airtable.New(airtable.Config{
			BaseURL: cfg.AirtableBaseURL,
			BaseID:  cfg.AirtableBaseID,
			Token:   cfg.AirtableToken,
		}), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown record store %q", cfg.RecordStore)
	}
}

func newDispatcher(cfg config.Config, logger *slog.Logger) (notify.Dispatcher, func()) {
	switch cfg.Notifier {
	case config.NotifierKafka:
		writer := kafkax.NewWriter(cfg.KafkaBrokers)
		return notify.NewKafkaDispatcher(writer, cfg.NotificationTopic), func() { _ = writer.Close() }
	case config.NotifierSMTP:
		return notify.NewSMTPDispatcher(mailx.NewSMTPSender(cfg.SMTP), logger), func() {}
	default:
		return notify.Noop{}, func() {}
	}
}
