package model

import "time"

// BookingRequest is the inbound payload, trimmed but otherwise unparsed.
type BookingRequest struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required"`
	BookingReason  string `json:"bookingReason" validate:"required"`
	RequestedStart string `json:"requestedStart" validate:"required"`
	RequestedEnd   string `json:"requestedEnd" validate:"required"`
}

type Outcome string

const (
	OutcomeError       Outcome = "error"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomePending     Outcome = "pending"
	OutcomeAccepted    Outcome = "accepted"
)

type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

type Attachment struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type Slot struct {
	Start time.Time
	End   time.Time
}

type RecordIDs struct {
	ClientRecordID  string
	BookingRecordID string
}

// Decision is produced once per request and never persisted on its own.
type Decision struct {
	Outcome             Outcome
	Message             string
	ClientStatus        ClientStatus
	Client              Client
	BookingReason       string
	Slot                Slot
	AvailabilityMatched bool
	OverlapsExisting    bool
	Records             RecordIDs
	DecidedAt           time.Time

	ClientEmail        *EmailPayload
	ProviderEmail      *EmailPayload
	ICS                string
	CalendarAttachment *Attachment
}

// Emails returns the payloads that still need delivering, client first.
func (d Decision) Emails() []EmailPayload {
	var out []EmailPayload
	if d.ClientEmail != nil {
		out = append(out, *d.ClientEmail)
	}
	if d.ProviderEmail != nil {
		out = append(out, *d.ProviderEmail)
	}
	return out
}
