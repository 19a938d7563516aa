package model

import (
	"strings"
	"time"
)

type BookingStatus int

const (
	BookingStatusUnknown BookingStatus = iota
	BookingStatusAccepted
	BookingStatusPendingReview
	BookingStatusCancelled
)

// ParseBookingStatus normalises the store's free-text status column.
func ParseBookingStatus(raw string) BookingStatus {
	switch strings.ToLower(strings.Join(strings.Fields(raw), " ")) {
	case "accepted":
		return BookingStatusAccepted
	case "pending review", "pending_review", "pendingreview", "pending":
		return BookingStatusPendingReview
	case "cancelled", "canceled":
		return BookingStatusCancelled
	default:
		return BookingStatusUnknown
	}
}

// String returns the store representation.
func (s BookingStatus) String() string {
	switch s {
	case BookingStatusAccepted:
		return "Accepted"
	case BookingStatusPendingReview:
		return "Pending Review"
	case BookingStatusCancelled:
		return "Cancelled"
	default:
		return ""
	}
}

type Booking struct {
	ID           string
	ClientName   string
	Email        string
	Start        time.Time
	End          time.Time
	Reason       string
	ClientStatus ClientStatus
	Source       string
	Status       BookingStatus
	DecidedAt    time.Time
	CreatedAt    time.Time
}
