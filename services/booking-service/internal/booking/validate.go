package booking

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/model"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

func trimRequest(req model.BookingRequest) model.BookingRequest {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.BookingReason = strings.TrimSpace(req.BookingReason)
	req.RequestedStart = strings.TrimSpace(req.RequestedStart)
	req.RequestedEnd = strings.TrimSpace(req.RequestedEnd)
	return req
}

// Validate checks required fields, parses both bounds and returns the requested slot.
// req must already be trimmed.
func Validate(req model.BookingRequest) (availability.Interval, *ValidationError) {
	if err := requestValidator().Struct(req); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return availability.Interval{}, &ValidationError{Message: err.Error()}
		}
		missing := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			missing = append(missing, fe.Field())
		}
		return availability.Interval{}, &ValidationError{
			Message: "Missing fields: " + strings.Join(missing, ", "),
			Fields:  missing,
		}
	}

	start, err := availability.ParseInstant(req.RequestedStart)
	if err != nil {
		return availability.Interval{}, &ValidationError{
			Message: "Invalid date value: " + req.RequestedStart,
			Fields:  []string{"requestedStart"},
		}
	}
	end, err := availability.ParseInstant(req.RequestedEnd)
	if err != nil {
		return availability.Interval{}, &ValidationError{
			Message: "Invalid date value: " + req.RequestedEnd,
			Fields:  []string{"requestedEnd"},
		}
	}
	slot, err := availability.NewInterval(start, end)
	if err != nil {
		return availability.Interval{}, &ValidationError{
			Message: "requestedEnd must be after requestedStart",
			Fields:  []string{"requestedEnd"},
		}
	}
	return slot, nil
}
