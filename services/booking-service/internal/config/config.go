// Package config loads booking-service settings from the environment once at startup.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	libconfig "github.com/md-rashed-zaman/bookingassistant/libs/config"
	"github.com/md-rashed-zaman/bookingassistant/libs/events"
	"github.com/md-rashed-zaman/bookingassistant/libs/mailx"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/storage"
)

const (
	StoreAirtable = "airtable"
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	NotifierKafka = "kafka"
	NotifierSMTP  = "smtp"
	NotifierNone  = "none"

	stubProviderEmail = "provider@example.com"
)

type Config struct {
	Service  string
	Port     string
	GRPCPort string
	LogLevel string

	UseStub         bool
	RecordStore     string
	StubFixturePath string

	AirtableToken   string
	AirtableBaseID  string
	AirtableBaseURL string
	Tables          storage.Tables
	DatabaseURL     string

	ProviderAlertEmail string
	Source             string

	RedisAddr       string
	LockEnabled     bool
	LockWait        time.Duration
	LockTTL         time.Duration
	RateLimit       int
	RateLimitWindow time.Duration

	Notifier          string
	KafkaBrokers      []string
	NotificationTopic string
	SMTP              mailx.SMTPConfig

	CORSOrigins    []string
	RequestTimeout time.Duration
	ShutdownGrace  time.Duration
}

// Load reads the environment, after merging an optional .env file. It only fails on
// malformed values; call Validate for missing ones.
func Load() (Config, error) {
	_ = godotenv.Load()

	var errs []error
	port, err := libconfig.Port("PORT", "8080")
	errs = append(errs, err)
	grpcPort, err := libconfig.Port("GRPC_PORT", "9090")
	errs = append(errs, err)
	lockWait, err := libconfig.Duration("BOOKING_LOCK_WAIT", 3*time.Second)
	errs = append(errs, err)
	lockTTL, err := libconfig.Duration("BOOKING_LOCK_TTL", 15*time.Second)
	errs = append(errs, err)
	rateLimit, err := libconfig.Int("RATE_LIMIT_PER_WINDOW", 30)
	errs = append(errs, err)
	rateWindow, err := libconfig.Duration("RATE_LIMIT_WINDOW", time.Minute)
	errs = append(errs, err)
	reqTimeout, err := libconfig.Duration("REQUEST_TIMEOUT", 20*time.Second)
	errs = append(errs, err)
	grace, err := libconfig.Duration("SHUTDOWN_GRACE", 10*time.Second)
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Service:  libconfig.String("SERVICE_NAME", "booking-service"),
		Port:     port,
		GRPCPort: grpcPort,
		LogLevel: libconfig.String("LOG_LEVEL", "info"),

		UseStub:         libconfig.Bool("AIRTABLE_USE_STUB", false),
		RecordStore:     strings.ToLower(libconfig.String("RECORD_STORE", StoreAirtable)),
		StubFixturePath: libconfig.String("STUB_FIXTURE_PATH", ""),

		AirtableToken:   libconfig.String("AIRTABLE_PAT", ""),
		AirtableBaseID:  libconfig.String("AIRTABLE_BASE_ID", ""),
		AirtableBaseURL: libconfig.String("AIRTABLE_API_URL", ""),
		Tables: storage.Tables{
			Clients:      libconfig.String("AIRTABLE_TABLE_CLIENTS", ""),
			Availability: libconfig.String("AIRTABLE_TABLE_AVAILABILITY", ""),
			Bookings:     libconfig.String("AIRTABLE_TABLE_BOOKINGS", ""),
		},
		DatabaseURL: libconfig.String("DATABASE_URL", ""),

		ProviderAlertEmail: libconfig.String("PROVIDER_ALERT_EMAIL", ""),
		Source:             libconfig.String("BOOKING_SOURCE", booking.DefaultSource),

		RedisAddr:       libconfig.String("REDIS_ADDR", ""),
		LockEnabled:     libconfig.Bool("BOOKING_LOCK_ENABLED", false),
		LockWait:        lockWait,
		LockTTL:         lockTTL,
		RateLimit:       rateLimit,
		RateLimitWindow: rateWindow,

		Notifier:          strings.ToLower(libconfig.String("NOTIFIER", "")),
		KafkaBrokers:      libconfig.List("KAFKA_BROKERS"),
		NotificationTopic: libconfig.String("NOTIFICATION_TOPIC", events.TopicNotificationRequested),
		SMTP: mailx.SMTPConfig{
			Host:     libconfig.String("SMTP_HOST", ""),
			Port:     libconfig.String("SMTP_PORT", "1025"),
			From:     libconfig.String("SMTP_FROM", "no-reply@booking.local"),
			Username: libconfig.String("SMTP_USERNAME", ""),
			Password: libconfig.String("SMTP_PASSWORD", ""),
		},

		CORSOrigins:    libconfig.List("CORS_ALLOWED_ORIGINS"),
		RequestTimeout: reqTimeout,
		ShutdownGrace:  grace,
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.UseStub {
		c.RecordStore = StoreMemory
		if c.ProviderAlertEmail == "" {
			c.ProviderAlertEmail = stubProviderEmail
		}
	}
	if c.RecordStore != StoreAirtable {
		if c.Tables.Clients == "" {
			c.Tables.Clients = "Clients"
		}
		if c.Tables.Availability == "" {
			c.Tables.Availability = "Availability"
		}
		if c.Tables.Bookings == "" {
			c.Tables.Bookings = "Bookings"
		}
	}
	if c.Notifier == "" {
		switch {
		case len(c.KafkaBrokers) > 0:
			c.Notifier = NotifierKafka
		case c.SMTP.Host != "":
			c.Notifier = NotifierSMTP
		default:
			c.Notifier = NotifierNone
		}
	}
}

// Validate reports every missing required key at once.
func (c Config) Validate() error {
	var missing []string
	need := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}

	switch c.RecordStore {
	case StoreMemory:
	case StoreAirtable:
		need("AIRTABLE_PAT", c.AirtableToken)
		need("AIRTABLE_BASE_ID", c.AirtableBaseID)
		need("AIRTABLE_TABLE_AVAILABILITY", c.Tables.Availability)
		need("AIRTABLE_TABLE_BOOKINGS", c.Tables.Bookings)
		need("AIRTABLE_TABLE_CLIENTS", c.Tables.Clients)
	case StorePostgres:
		need("DATABASE_URL", c.DatabaseURL)
	default:
		missing = append(missing, "RECORD_STORE (airtable|postgres)")
	}
	need("PROVIDER_ALERT_EMAIL", c.ProviderAlertEmail)
	if c.LockEnabled {
		need("REDIS_ADDR", c.RedisAddr)
	}
	switch c.Notifier {
	case NotifierKafka:
		if len(c.KafkaBrokers) == 0 {
			missing = append(missing, "KAFKA_BROKERS")
		}
	case NotifierSMTP:
		need("SMTP_HOST", c.SMTP.Host)
	case NotifierNone:
	default:
		missing = append(missing, "NOTIFIER (kafka|smtp|none)")
	}

	if len(missing) > 0 {
		return &booking.ConfigurationError{Missing: missing}
	}
	return nil
}

func (c Config) EngineConfig() booking.Config {
	return booking.Config{ProviderAlertEmail: c.ProviderAlertEmail, Source: c.Source}
}
