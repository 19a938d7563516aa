package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/md-rashed-zaman/bookingassistant/libs/runtime"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/recordstore"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/storage"
)

// StubMode answers each request from an in-memory store built from the request's
// stub fields, so the funnel can be exercised without a real record store.
type StubMode struct {
	Config booking.Config
	Tables storage.Tables
	Clock  runtime.Clock
	Logger *slog.Logger
}

// Engine seeds a fresh store: the requesting client (default Active), one window
// (default the requested slot) and any listed bookings (default Accepted).
func (s *StubMode) Engine(_ context.Context, req bookingRequest) (*booking.Engine, error) {
	mem := recordstore.NewMemory("stub-booking")

	status := strings.TrimSpace(req.StubClientStatus)
	if status == "" {
		status = "Active"
	}
	mem.Insert(s.Tables.Clients, "stub-client", recordstore.Fields{
		"Name":   req.Name,
		"Email":  strings.TrimSpace(req.Email),
		"Status": model.ParseClientStatus(status).Label(),
	})

	start := firstNonEmpty(req.StubAvailabilityStart, req.RequestedStart)
	end := firstNonEmpty(req.StubAvailabilityEnd, req.RequestedEnd)
	mem.Insert(s.Tables.Availability, "stub-availability", recordstore.Fields{"Start": start, "End": end})

	for i, b := range req.StubExistingBookings {
		mem.Insert(s.Tables.Bookings, fmt.Sprintf("stub-booking-%d", i), recordstore.Fields{
			"Status": firstNonEmpty(b.Status, model.BookingStatusAccepted.String()),
			"Start":  b.Start,
			"End":    b.End,
		})
	}

	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	repo := storage.NewRepository(mem, s.Tables, logger)
	return booking.NewEngine(s.Config, repo, s.Clock, booking.WithLogger(logger))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
