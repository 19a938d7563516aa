package booking

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/md-rashed-zaman/bookingassistant/libs/runtime"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/recordstore"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/storage"
)

var (
	testNow    = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	testTables = storage.Tables{Clients: "Clients", Availability: "Availability", Bookings: "Bookings"}
)

type fixture struct {
	mem    *recordstore.Memory
	engine *Engine
}

func newTestEngine(t *testing.T, store recordstore.Store, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(
		Config{ProviderAlertEmail: "provider@example.com"},
		storage.NewRepository(store, testTables, nil),
		runtime.FixedClock{At: testNow},
		opts...,
	)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func seeded(t *testing.T) fixture {
	t.Helper()
	mem := recordstore.NewMemory("rec")
	mem.Insert("Availability", "a1", recordstore.Fields{"Start": "2026-03-02T09:00:00.000Z", "End": "2026-03-02T17:00:00.000Z"})
	mem.Insert("Clients", "c-active", recordstore.Fields{"Name": "Ada", "Email": "ada@example.com", "Status": "Active"})
	mem.Insert("Bookings", "b-accepted", recordstore.Fields{"Status": "Accepted", "Start": "2026-03-02T10:00:00.000Z", "End": "2026-03-02T10:50:00.000Z"})
	mem.Insert("Bookings", "b-pending", recordstore.Fields{"Status": "Pending Review", "Start": "2026-03-02T11:00:00.000Z", "End": "2026-03-02T11:50:00.000Z"})
	mem.Insert("Bookings", "b-cancelled", recordstore.Fields{"Status": "Cancelled", "Start": "2026-03-02T12:00:00.000Z", "End": "2026-03-02T12:50:00.000Z"})
	return fixture{mem: mem, engine: newTestEngine(t, mem)}
}

func request(email, start, end string) model.BookingRequest {
	return model.BookingRequest{
		Name:           "Ada",
		Email:          email,
		BookingReason:  "Check-in",
		RequestedStart: start,
		RequestedEnd:   end,
	}
}

func bookingRows(t *testing.T, mem *recordstore.Memory) []recordstore.Record {
	t.Helper()
	recs, err := mem.FetchAll(context.Background(), "Bookings", recordstore.All())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	return recs
}

func TestDecideEndBeforeStart(t *testing.T) {
	f := seeded(t)
	d, err := f.engine.Decide(context.Background(), request("ada@example.com", "2026-03-02T10:00:00Z", "2026-03-02T09:00:00Z"))
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.Outcome != model.OutcomeError || !strings.Contains(d.Message, "after") {
		t.Fatalf("unexpected decision %+v", d)
	}
	if f.mem.Creates() != 0 {
		t.Fatalf("validation failures must not write")
	}
}

func TestDecideMissingFields(t *testing.T) {
	f := seeded(t)
	d, err := f.engine.Decide(context.Background(), model.BookingRequest{Name: "Ada", Email: "  ", RequestedStart: "2026-03-02T09:00:00Z"})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.Outcome != model.OutcomeError || d.Message != "Missing fields: email, bookingReason, requestedEnd" {
		t.Fatalf("unexpected decision %+v", d)
	}
}

func TestDecideInvalidDate(t *testing.T) {
	f := seeded(t)
	d, err := f.engine.Decide(context.Background(), request("ada@example.com", "next tuesday", "2026-03-02T09:50:00Z"))
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.Outcome != model.OutcomeError || d.Message != "Invalid date value: next tuesday" {
		t.Fatalf("unexpected decision %+v", d)
	}
}

func TestDecideOutsideAvailability(t *testing.T) {
	f := seeded(t)
	d, err := f.engine.Decide(context.Background(), request("ada@example.com", "2026-03-02T16:30:00Z", "2026-03-02T17:20:00Z"))
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.Outcome != model.OutcomeUnavailable || d.AvailabilityMatched {
		t.Fatalf("unexpected decision %+v", d)
	}
	if d.Message != msgOutsideHours {
		t.Fatalf("unexpected message %q", d.Message)
	}
	if len(bookingRows(t, f.mem)) != 3 {
		t.Fatalf("unavailable outcome must not write a booking")
	}
}

func TestDecideOverlapsAcceptedBooking(t *testing.T) {
	f := seeded(t)
	d, err := f.engine.Decide(context.Background(), request("ada@example.com", "2026-03-02T10:00:00Z", "2026-03-02T10:50:00Z"))
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.Outcome != model.OutcomeUnavailable || !d.OverlapsExisting || !d.AvailabilityMatched {
		t.Fatalf("unexpected decision %+v", d)
	}
	if d.Message != msgTaken {
		t.Fatalf("unexpected message %q", d.Message)
	}
	if d.Records.BookingRecordID != "" {
		t.Fatalf("no booking should be created")
	}
}

func TestDecidePendingAndCancelledDoNotBlock(t *testing.T) {
	f := seeded(t)
	for _, start := range []string{"2026-03-02T11:00:00Z", "2026-03-02T12:00:00Z"} {
		end := strings.Replace(start, ":00:00Z", ":50:00Z", 1)
		d, err := f.engine.Decide(context.Background(), request("ada@example.com", start, end))
		if err != nil {
			t.Fatalf("Decide: %v", err)
		}
		if d.Outcome != model.OutcomeAccepted || d.OverlapsExisting {
			t.Fatalf("%s: unexpected decision %+v", start, d)
		}
	}
}

func TestDecideNewClientIsPending(t *testing.T) {
	f := seeded(t)
	d, err := f.engine.Decide(context.Background(), request("New@Example.com", "2026-03-02T13:00:00Z", "2026-03-02T13:50:00Z"))
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.Outcome != model.OutcomePending || d.Message != msgPending {
		t.Fatalf("unexpected decision %+v", d)
	}
	if d.ClientStatus != model.ClientStatusUnknown || d.Records.ClientRecordID == "" {
		t.Fatalf("expected a new unknown client, got %+v", d)
	}

	clients, _ := f.mem.FetchAll(context.Background(), "Clients", recordstore.EmailEquals("new@example.com"))
	if len(clients) != 1 || clients[0].Fields.String("Status") != "Unknown" {
		t.Fatalf("unexpected client rows %+v", clients)
	}
	rows := bookingRows(t, f.mem)
	if len(rows) != 4 {
		t.Fatalf("expected one new booking, have %d rows", len(rows))
	}
	created := rows[3]
	if created.ID != d.Records.BookingRecordID || created.Fields.String("Status") != "Pending Review" {
		t.Fatalf("unexpected booking row %+v", created)
	}

	if d.ProviderEmail == nil || d.ProviderEmail.Subject != "Booking request pending review" || d.ProviderEmail.To != "provider@example.com" {
		t.Fatalf("expected provider alert, got %+v", d.ProviderEmail)
	}
	if d.ClientEmail != nil || d.CalendarAttachment != nil || d.ICS != "" {
		t.Fatalf("pending decisions carry no client artifacts")
	}
}

func TestDecideActiveClientIsAccepted(t *testing.T) {
	f := seeded(t)
	d, err := f.engine.Decide(context.Background(), request("ADA@example.com", "2026-03-02T14:00:00Z", "2026-03-02T14:50:00Z"))
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.Outcome != model.OutcomeAccepted || d.Message != msgAccepted || d.ClientStatus != model.ClientStatusActive {
		t.Fatalf("unexpected decision %+v", d)
	}
	if d.Records.ClientRecordID != "c-active" {
		t.Fatalf("expected existing client id, got %q", d.Records.ClientRecordID)
	}

	rows := bookingRows(t, f.mem)
	created := rows[len(rows)-1]
	if created.Fields.String("Status") != "Accepted" || created.Fields.String("Decision Timestamp") != "2026-03-01T08:00:00.000Z" {
		t.Fatalf("unexpected booking row %+v", created.Fields)
	}
	if created.Fields.String("Source") != DefaultSource || created.Fields.String("Client Status") != "Active" {
		t.Fatalf("unexpected booking row %+v", created.Fields)
	}

	if !strings.Contains(d.ICS, "DTSTART:20260302T140000Z\r\n") || !strings.Contains(d.ICS, "DTEND:20260302T145000Z\r\n") {
		t.Fatalf("unexpected ics %q", d.ICS)
	}
	if !strings.Contains(d.ICS, "UID:"+d.Records.BookingRecordID+"@booking-assistant") {
		t.Fatalf("ics uid should derive from the booking id")
	}
	if d.CalendarAttachment == nil || d.CalendarAttachment.FileName != "booking.ics" {
		t.Fatalf("missing calendar attachment")
	}
	if d.ClientEmail == nil || d.ClientEmail.To != "ADA@example.com" {
		t.Fatalf("missing client email %+v", d.ClientEmail)
	}
	if d.ProviderEmail == nil || d.ProviderEmail.Subject != "New confirmed booking" {
		t.Fatalf("missing provider email %+v", d.ProviderEmail)
	}
	if len(d.Emails()) != 2 {
		t.Fatalf("expected two emails")
	}
}

func TestDecideIsDeterministic(t *testing.T) {
	a, b := seeded(t), seeded(t)
	req := request("ada@example.com", "2026-03-02T10:30:00Z", "2026-03-02T11:20:00Z")
	da, err := a.engine.Decide(context.Background(), req)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	db, err := b.engine.Decide(context.Background(), req)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if da.Outcome != db.Outcome || da.OverlapsExisting != db.OverlapsExisting {
		t.Fatalf("same snapshot produced %s and %s", da.Outcome, db.Outcome)
	}
}

func TestDecideIsNotIdempotent(t *testing.T) {
	f := seeded(t)
	req := model.BookingRequest{Name: "Bo", Email: "bo@example.com", BookingReason: "Intro", RequestedStart: "2026-03-02T15:00:00Z", RequestedEnd: "2026-03-02T15:50:00Z"}
	for i := 0; i < 2; i++ {
		d, err := f.engine.Decide(context.Background(), req)
		if err != nil || d.Outcome != model.OutcomePending {
			t.Fatalf("attempt %d: %+v err=%v", i, d, err)
		}
	}
	if got := len(bookingRows(t, f.mem)); got != 5 {
		t.Fatalf("expected two pending bookings to be written, have %d rows", got)
	}
}

type failingStore struct {
	failTable string
	creates   int
}

func (s *failingStore) FetchAll(_ context.Context, table string, _ recordstore.Filter) ([]recordstore.Record, error) {
	if table == s.failTable {
		return nil, errors.New("connection reset")
	}
	if table == "Clients" {
		return []recordstore.Record{{ID: "c1", Fields: recordstore.Fields{"Status": "Active"}}}, nil
	}
	return nil, nil
}

func (s *failingStore) CreateRecord(_ context.Context, _ string, fields recordstore.Fields) (recordstore.Record, error) {
	s.creates++
	return recordstore.Record{ID: "x", Fields: fields}, nil
}

func TestDecideUpstreamFailureIsHard(t *testing.T) {
	store := &failingStore{failTable: "Bookings"}
	e := newTestEngine(t, store)
	_, err := e.Decide(context.Background(), request("ada@example.com", "2026-03-02T09:00:00Z", "2026-03-02T09:50:00Z"))
	var up *UpstreamError
	if !errors.As(err, &up) || up.Op != "list bookings" {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if store.creates != 0 {
		t.Fatalf("read failures must leave nothing written")
	}
}

func TestNewEngineRequiresProviderEmail(t *testing.T) {
	_, err := NewEngine(Config{}, storage.NewRepository(recordstore.NewMemory(""), testTables, nil), nil)
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Missing[0] != "PROVIDER_ALERT_EMAIL" {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

type recordingSerializer struct {
	locked   []availability.Interval
	released int
	err      error
}

func (s *recordingSerializer) Lock(_ context.Context, slot availability.Interval) (func(context.Context), error) {
	if s.err != nil {
		return nil, s.err
	}
	s.locked = append(s.locked, slot)
	return func(context.Context) { s.released++ }, nil
}

func TestDecideHoldsSerializer(t *testing.T) {
	f := seeded(t)
	ser := &recordingSerializer{}
	e := newTestEngine(t, f.mem, WithSerializer(ser))
	if _, err := e.Decide(context.Background(), request("ada@example.com", "2026-03-02T15:00:00Z", "2026-03-02T15:50:00Z")); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if len(ser.locked) != 1 || ser.released != 1 {
		t.Fatalf("expected one lock/release, got %d/%d", len(ser.locked), ser.released)
	}

	busy := errors.New("contended")
	e = newTestEngine(t, f.mem, WithSerializer(&recordingSerializer{err: busy}))
	if _, err := e.Decide(context.Background(), request("ada@example.com", "2026-03-02T16:00:00Z", "2026-03-02T16:50:00Z")); !errors.Is(err, busy) {
		t.Fatalf("expected lock error, got %v", err)
	}
}
