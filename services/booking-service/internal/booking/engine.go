// Package booking decides a single booking request against availability, existing
// bookings and the client's trust status.
package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/md-rashed-zaman/bookingassistant/libs/runtime"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/artifacts"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	msgOutsideHours = "Requested slot does not fall within available working hours."
	msgTaken        = "Requested slot is no longer available. Please select another time."
	msgAccepted     = "Booking confirmed."
	msgPending      = "Request submitted and awaiting provider review."

	DefaultSource = "Squarespace"
)

// Store is the read/write surface the engine needs; storage.Repository satisfies it.
type Store interface {
	FindClientByEmail(ctx context.Context, email string) (model.Client, bool, error)
	CreateClient(ctx context.Context, name, email, reason string) (model.Client, error)
	ListAvailability(ctx context.Context) ([]availability.Interval, error)
	ListOpenBookings(ctx context.Context) ([]model.Booking, error)
	ListAcceptedBookings(ctx context.Context) ([]model.Booking, error)
	CreateBooking(ctx context.Context, b model.Booking) (model.Booking, error)
}

// Serializer optionally guards the check-then-write sequence for an interval.
// Without one, two concurrent requests for the same slot can both be accepted.
type Serializer interface {
	Lock(ctx context.Context, slot availability.Interval) (func(context.Context), error)
}

type Config struct {
	ProviderAlertEmail string
	Source             string
}

func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.ProviderAlertEmail) == "" {
		missing = append(missing, "PROVIDER_ALERT_EMAIL")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

type Engine struct {
	cfg        Config
	store      Store
	clock      runtime.Clock
	serializer Serializer
	logger     *slog.Logger
	tracer     trace.Tracer
}

type Option func(*Engine)

func WithSerializer(s Serializer) Option {
	return func(e *Engine) { e.serializer = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func NewEngine(cfg Config, store Store, clock runtime.Clock, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, &ConfigurationError{Missing: []string{"record store"}}
	}
	if cfg.Source == "" {
		cfg.Source = DefaultSource
	}
	if clock == nil {
		clock = runtime.SystemClock()
	}
	e := &Engine{
		cfg:    cfg,
		store:  store,
		clock:  clock,
		logger: slog.Default(),
		tracer: otel.Tracer("booking-service/booking"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Decide runs one request to a terminal outcome. Soft outcomes (error, unavailable,
// pending, accepted) return a nil error; store and lock failures are returned as errors
// and leave nothing written.
func (e *Engine) Decide(ctx context.Context, req model.BookingRequest) (model.Decision, error) {
	ctx, span := e.tracer.Start(ctx, "booking.decide")
	defer span.End()

	d, err := e.decide(ctx, trimRequest(req))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Error("booking decision failed", "err", err)
		return model.Decision{}, err
	}

	span.SetAttributes(
		attribute.String("booking.outcome", string(d.Outcome)),
		attribute.String("booking.client_status", string(d.ClientStatus)),
		attribute.Bool("booking.availability_matched", d.AvailabilityMatched),
		attribute.Bool("booking.overlaps_existing", d.OverlapsExisting),
	)
	e.logger.Info("booking decided",
		"outcome", d.Outcome,
		"client_status", d.ClientStatus,
		"availability_matched", d.AvailabilityMatched,
		"overlaps_existing", d.OverlapsExisting,
		"booking_id", d.Records.BookingRecordID,
	)
	return d, nil
}

func (e *Engine) decide(ctx context.Context, req model.BookingRequest) (model.Decision, error) {
	now := e.clock.Now().UTC()

	slot, verr := Validate(req)
	if verr != nil {
		return model.Decision{Outcome: model.OutcomeError, Message: verr.Message, DecidedAt: now}, nil
	}

	if e.serializer != nil {
		release, err := e.serializer.Lock(ctx, slot)
		if err != nil {
			return model.Decision{}, fmt.Errorf("serialize booking: %w", err)
		}
		defer release(context.WithoutCancel(ctx))
	}

	client, err := e.classify(ctx, req)
	if err != nil {
		return model.Decision{}, err
	}

	windows, err := e.store.ListAvailability(ctx)
	if err != nil {
		return model.Decision{}, upstream("list availability", err)
	}
	bookings, err := e.store.ListOpenBookings(ctx)
	if err != nil {
		return model.Decision{}, upstream("list bookings", err)
	}

	d := model.Decision{
		ClientStatus:        client.Status,
		Client:              model.Client{ID: client.ID, Name: req.Name, Email: req.Email, Status: client.Status},
		BookingReason:       req.BookingReason,
		Slot:                model.Slot{Start: slot.Start, End: slot.End},
		AvailabilityMatched: withinAvailability(windows, slot),
		OverlapsExisting:    overlapsAccepted(bookings, slot),
		Records:             model.RecordIDs{ClientRecordID: client.ID},
		DecidedAt:           now,
	}

	switch {
	case !d.AvailabilityMatched:
		d.Outcome, d.Message = model.OutcomeUnavailable, msgOutsideHours
		return d, nil
	case d.OverlapsExisting:
		d.Outcome, d.Message = model.OutcomeUnavailable, msgTaken
		return d, nil
	}

	status := model.BookingStatusPendingReview
	if client.Status.Trusted() {
		status = model.BookingStatusAccepted
	}
	created, err := e.store.CreateBooking(ctx, model.Booking{
		ClientName:   req.Name,
		Email:        req.Email,
		Start:        slot.Start,
		End:          slot.End,
		Reason:       req.BookingReason,
		ClientStatus: client.Status,
		Source:       e.cfg.Source,
		Status:       status,
		DecidedAt:    now,
	})
	if err != nil {
		return model.Decision{}, upstream("create booking", err)
	}
	d.Records.BookingRecordID = created.ID

	details := artifacts.Details{
		Name:   req.Name,
		Email:  req.Email,
		Start:  slot.Start,
		End:    slot.End,
		Reason: req.BookingReason,
	}
	alert := artifacts.ProviderAlert(e.cfg.ProviderAlertEmail, details, status)
	d.ProviderEmail = &alert

	if status != model.BookingStatusAccepted {
		d.Outcome, d.Message = model.OutcomePending, msgPending
		return d, nil
	}

	d.Outcome, d.Message = model.OutcomeAccepted, msgAccepted
	confirmation := artifacts.ClientConfirmation(details)
	d.ClientEmail = &confirmation
	d.ICS = artifacts.BuildICS(artifacts.Event{
		BookingID:  created.ID,
		Stamp:      now,
		Start:      slot.Start,
		End:        slot.End,
		ClientName: req.Name,
		Reason:     req.BookingReason,
	})
	att := artifacts.CalendarAttachment(d.ICS)
	d.CalendarAttachment = &att
	return d, nil
}

// classify looks the client up by email and creates an Unknown record on first sighting.
func (e *Engine) classify(ctx context.Context, req model.BookingRequest) (model.Client, error) {
	client, ok, err := e.store.FindClientByEmail(ctx, req.Email)
	if err != nil {
		return model.Client{}, upstream("find client", err)
	}
	if ok {
		return client, nil
	}
	client, err = e.store.CreateClient(ctx, req.Name, req.Email, req.BookingReason)
	if err != nil {
		return model.Client{}, upstream("create client", err)
	}
	return client, nil
}

func withinAvailability(windows []availability.Interval, slot availability.Interval) bool {
	for _, w := range windows {
		if availability.Contains(w, slot) {
			return true
		}
	}
	return false
}

// overlapsAccepted ignores pending bookings: only accepted ones block a slot.
func overlapsAccepted(bookings []model.Booking, slot availability.Interval) bool {
	for _, b := range bookings {
		if b.Status != model.BookingStatusAccepted {
			continue
		}
		if availability.Overlaps(slot, availability.Interval{Start: b.Start, End: b.End}) {
			return true
		}
	}
	return false
}
