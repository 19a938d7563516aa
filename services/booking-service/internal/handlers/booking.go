package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/bookingassistant/libs/httpx"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/lock"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/notify"
)

type Decider interface {
	Decide(ctx context.Context, req model.BookingRequest) (model.Decision, error)
}

type BookingHandler struct {
	decider    Decider
	stub       *StubMode
	dispatcher notify.Dispatcher
	logger     *slog.Logger
}

// NewBookingHandler serves booking requests with decider, or with a per-request
// synthetic store when stub is non-nil.
func NewBookingHandler(decider Decider, stub *StubMode, dispatcher notify.Dispatcher, logger *slog.Logger) *BookingHandler {
	if dispatcher == nil {
		dispatcher = notify.Noop{}
	}
	return &BookingHandler{decider: decider, stub: stub, dispatcher: dispatcher, logger: logger}
}

type bookingRequest struct {
	model.BookingRequest
	StubClientStatus      string        `json:"stubClientStatus"`
	StubAvailabilityStart string        `json:"stubAvailabilityStart"`
	StubAvailabilityEnd   string        `json:"stubAvailabilityEnd"`
	StubExistingBookings  []stubBooking `json:"stubExistingBookings"`
}

type stubBooking struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Status string `json:"status"`
}

type slotJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type recordsJSON struct {
	ClientRecordID  *string `json:"clientRecordId"`
	BookingRecordID *string `json:"bookingRecordId"`
}

type clientJSON struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type decisionResponse struct {
	Status              model.Outcome       `json:"status"`
	Message             string              `json:"message"`
	ClientStatus        model.ClientStatus  `json:"clientStatus,omitempty"`
	Slot                *slotJSON           `json:"slot,omitempty"`
	AvailabilityMatched *bool               `json:"availabilityMatched,omitempty"`
	OverlapsExisting    *bool               `json:"overlapsExisting,omitempty"`
	Records             *recordsJSON        `json:"records,omitempty"`
	Client              *clientJSON         `json:"client,omitempty"`
	BookingReason       string              `json:"bookingReason,omitempty"`
	ClientEmail         *model.EmailPayload `json:"clientEmail,omitempty"`
	ProviderEmail       *model.EmailPayload `json:"providerEmail,omitempty"`
	CalendarAttachment  *model.Attachment   `json:"calendarAttachment,omitempty"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	decider := h.decider
	if h.stub != nil {
		engine, err := h.stub.Engine(r.Context(), req)
		if err != nil {
			h.writeFailure(w, err)
			return
		}
		decider = engine
	}
	if decider == nil {
		h.writeFailure(w, &booking.ConfigurationError{Missing: []string{"record store"}})
		return
	}

	d, err := decider.Decide(r.Context(), req.BookingRequest)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	if d.Outcome == model.OutcomeAccepted || d.Outcome == model.OutcomePending {
		if err := h.dispatcher.Dispatch(r.Context(), d); err != nil {
			h.logger.Error("notification dispatch failed", "err", err, "booking_id", d.Records.BookingRecordID)
		}
	}

	httpx.WriteJSON(w, statusFor(d.Outcome), toResponse(d))
}

func statusFor(o model.Outcome) int {
	switch o {
	case model.OutcomeAccepted:
		return http.StatusCreated
	case model.OutcomePending:
		return http.StatusAccepted
	case model.OutcomeUnavailable:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func (h *BookingHandler) writeFailure(w http.ResponseWriter, err error) {
	var cfgErr *booking.ConfigurationError
	var upErr *booking.UpstreamError
	switch {
	case errors.As(err, &cfgErr):
		h.logger.Error("booking service misconfigured", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		httpx.WriteError(w, http.StatusGatewayTimeout, "booking decision timed out")
	case errors.As(err, &upErr):
		httpx.WriteError(w, http.StatusBadGateway, "record store unavailable")
	case errors.Is(err, lock.ErrContended):
		httpx.WriteError(w, http.StatusServiceUnavailable, "another booking for this day is in progress, please retry")
	default:
		h.logger.Error("booking request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func toResponse(d model.Decision) decisionResponse {
	resp := decisionResponse{Status: d.Outcome, Message: d.Message}
	if d.Outcome == model.OutcomeError {
		return resp
	}
	resp.ClientStatus = d.ClientStatus
	resp.Slot = &slotJSON{Start: availability.FormatISO(d.Slot.Start), End: availability.FormatISO(d.Slot.End)}
	resp.AvailabilityMatched = &d.AvailabilityMatched
	resp.OverlapsExisting = &d.OverlapsExisting
	resp.Records = &recordsJSON{
		ClientRecordID:  optional(d.Records.ClientRecordID),
		BookingRecordID: optional(d.Records.BookingRecordID),
	}
	resp.Client = &clientJSON{Name: d.Client.Name, Email: d.Client.Email}
	resp.BookingReason = d.BookingReason
	resp.ClientEmail = d.ClientEmail
	resp.ProviderEmail = d.ProviderEmail
	resp.CalendarAttachment = d.CalendarAttachment
	return resp
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
