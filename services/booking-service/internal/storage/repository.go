package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/recordstore"
)

// Column names shared by every store backend.
const (
	colName         = "Name"
	colEmail        = "Email"
	colStatus       = "Status"
	colLatestReason = "Latest Reason"
	colStart        = "Start"
	colEnd          = "End"
	colClientName   = "Client Name"
	colReason       = "Booking Reason"
	colClientStatus = "Client Status"
	colSource       = "Source"
	colDecidedAt    = "Decision Timestamp"
)

type Tables struct {
	Clients      string
	Availability string
	Bookings     string
}

// Repository maps record-store rows onto booking domain types.
type Repository struct {
	store  recordstore.Store
	tables Tables
	logger *slog.Logger
}

func NewRepository(store recordstore.Store, tables Tables, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{store: store, tables: tables, logger: logger}
}

// FindClientByEmail returns the first client whose email matches case-insensitively.
func (r *Repository) FindClientByEmail(ctx context.Context, email string) (model.Client, bool, error) {
	recs, err := r.store.FetchAll(ctx, r.tables.Clients, recordstore.EmailEquals(email))
	if err != nil {
		return model.Client{}, false, err
	}
	if len(recs) == 0 {
		return model.Client{}, false, nil
	}
	return clientFromRecord(recs[0]), true, nil
}

// CreateClient records a first sighting; new clients are always Unknown.
func (r *Repository) CreateClient(ctx context.Context, name, email, reason string) (model.Client, error) {
	fields := recordstore.Fields{
		colName:         name,
		colEmail:        email,
		colStatus:       model.ClientStatusUnknown.Label(),
		colLatestReason: reason,
	}
	rec, err := r.store.CreateRecord(ctx, r.tables.Clients, fields)
	if err != nil {
		return model.Client{}, err
	}
	return model.Client{ID: rec.ID, Name: name, Email: email, Status: model.ClientStatusUnknown}, nil
}

// ListAvailability skips rows with missing or unparsable bounds.
func (r *Repository) ListAvailability(ctx context.Context) ([]availability.Interval, error) {
	recs, err := r.store.FetchAll(ctx, r.tables.Availability, recordstore.All())
	if err != nil {
		return nil, err
	}
	out := make([]availability.Interval, 0, len(recs))
	for _, rec := range recs {
		iv, err := intervalFromRecord(rec)
		if err != nil {
			r.logger.Debug("skipping availability row", "record_id", rec.ID, "err", err)
			continue
		}
		out = append(out, iv)
	}
	return out, nil
}

// ListOpenBookings returns every booking not marked Cancelled.
func (r *Repository) ListOpenBookings(ctx context.Context) ([]model.Booking, error) {
	return r.listBookings(ctx, recordstore.FieldNotEquals(colStatus, model.BookingStatusCancelled.String()))
}

func (r *Repository) ListAcceptedBookings(ctx context.Context) ([]model.Booking, error) {
	return r.listBookings(ctx, recordstore.FieldEquals(colStatus, model.BookingStatusAccepted.String()))
}

func (r *Repository) listBookings(ctx context.Context, filter recordstore.Filter) ([]model.Booking, error) {
	recs, err := r.store.FetchAll(ctx, r.tables.Bookings, filter)
	if err != nil {
		return nil, err
	}
	out := make([]model.Booking, 0, len(recs))
	for _, rec := range recs {
		iv, err := intervalFromRecord(rec)
		if err != nil {
			r.logger.Debug("skipping booking row", "record_id", rec.ID, "err", err)
			continue
		}
		out = append(out, model.Booking{
			ID:           rec.ID,
			ClientName:   rec.Fields.String(colClientName),
			Email:        rec.Fields.String(colEmail),
			Start:        iv.Start,
			End:          iv.End,
			Reason:       rec.Fields.String(colReason),
			ClientStatus: model.ParseClientStatus(rec.Fields.String(colClientStatus)),
			Source:       rec.Fields.String(colSource),
			Status:       model.ParseBookingStatus(rec.Fields.String(colStatus)),
			CreatedAt:    rec.CreatedAt,
		})
	}
	return out, nil
}

// CreateBooking writes b and returns it with the store-assigned id.
// The decision timestamp is only written for accepted bookings.
func (r *Repository) CreateBooking(ctx context.Context, b model.Booking) (model.Booking, error) {
	fields := recordstore.Fields{
		colClientName:   b.ClientName,
		colEmail:        b.Email,
		colStart:        availability.FormatISO(b.Start),
		colEnd:          availability.FormatISO(b.End),
		colReason:       b.Reason,
		colClientStatus: b.ClientStatus.Label(),
		colSource:       b.Source,
		colStatus:       b.Status.String(),
	}
	if b.Status == model.BookingStatusAccepted && !b.DecidedAt.IsZero() {
		fields[colDecidedAt] = availability.FormatISO(b.DecidedAt)
	}
	rec, err := r.store.CreateRecord(ctx, r.tables.Bookings, fields)
	if err != nil {
		return model.Booking{}, err
	}
	b.ID = rec.ID
	b.CreatedAt = rec.CreatedAt
	return b, nil
}

func clientFromRecord(rec recordstore.Record) model.Client {
	return model.Client{
		ID:     rec.ID,
		Name:   rec.Fields.String(colName),
		Email:  rec.Fields.String(colEmail),
		Status: model.ParseClientStatus(rec.Fields.String(colStatus)),
	}
}

func intervalFromRecord(rec recordstore.Record) (availability.Interval, error) {
	start, err := parseField(rec, colStart)
	if err != nil {
		return availability.Interval{}, err
	}
	end, err := parseField(rec, colEnd)
	if err != nil {
		return availability.Interval{}, err
	}
	return availability.NewInterval(start, end)
}

func parseField(rec recordstore.Record, col string) (time.Time, error) {
	raw := rec.Fields.String(col)
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing %s", col)
	}
	return availability.ParseInstant(raw)
}
