package booking

import (
	"context"

	"github.com/md-rashed-zaman/bookingassistant/libs/runtime"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/model"
)

type SlotStore interface {
	ListAvailability(ctx context.Context) ([]availability.Interval, error)
	ListAcceptedBookings(ctx context.Context) ([]model.Booking, error)
}

// Availability serves the bookable-slot listing.
type Availability struct {
	store SlotStore
	clock runtime.Clock
	opts  availability.Options
}

func NewAvailability(store SlotStore, clock runtime.Clock, opts availability.Options) (*Availability, error) {
	if store == nil {
		return nil, &ConfigurationError{Missing: []string{"record store"}}
	}
	if clock == nil {
		clock = runtime.SystemClock()
	}
	return &Availability{store: store, clock: clock, opts: opts}, nil
}

func (a *Availability) Slots(ctx context.Context) ([]availability.Slot, error) {
	windows, err := a.store.ListAvailability(ctx)
	if err != nil {
		return nil, upstream("list availability", err)
	}
	bookings, err := a.store.ListAcceptedBookings(ctx)
	if err != nil {
		return nil, upstream("list bookings", err)
	}
	booked := make([]availability.Interval, 0, len(bookings))
	for _, b := range bookings {
		booked = append(booked, availability.Interval{Start: b.Start, End: b.End})
	}
	slots := availability.Enumerate(windows, booked, a.clock.Now(), a.opts)
	if slots == nil {
		slots = []availability.Slot{}
	}
	return slots, nil
}
