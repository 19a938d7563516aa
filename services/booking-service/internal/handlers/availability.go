package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/bookingassistant/libs/httpx"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/booking"
)

type SlotLister interface {
	Slots(ctx context.Context) ([]availability.Slot, error)
}

type AvailabilityHandler struct {
	slots  SlotLister
	logger *slog.Logger
}

func NewAvailabilityHandler(slots SlotLister, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{slots: slots, logger: logger}
}

type slotItem struct {
	Start      string `json:"start"`
	End        string `json:"end"`
	StartLocal string `json:"startLocal"`
}

type slotsResponse struct {
	Slots []slotItem `json:"slots"`
	Count int        `json:"count"`
}

func (h *AvailabilityHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	slots, err := h.slots.Slots(r.Context())
	if err != nil {
		var upErr *booking.UpstreamError
		if errors.As(err, &upErr) {
			httpx.WriteError(w, http.StatusBadGateway, "record store unavailable")
			return
		}
		h.logger.Error("list slots failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	items := make([]slotItem, 0, len(slots))
	for _, s := range slots {
		items = append(items, slotItem{
			Start:      availability.FormatISO(s.Start),
			End:        availability.FormatISO(s.End),
			StartLocal: s.StartLocal,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, slotsResponse{Slots: items, Count: len(items)})
}
