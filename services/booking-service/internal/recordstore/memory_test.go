package recordstore

import (
	"context"
	"strings"
	"testing"
)

func TestMemoryFilters(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("")
	m.Insert("Bookings", "b1", Fields{"Status": "Accepted", "Email": "A@Example.com"})
	m.Insert("Bookings", "b2", Fields{"Status": "Cancelled", "Email": "b@example.com"})
	m.Insert("Bookings", "b3", Fields{"Status": "Pending Review"})

	all, err := m.FetchAll(ctx, "Bookings", All())
	if err != nil || len(all) != 3 {
		t.Fatalf("All: got %d err=%v", len(all), err)
	}
	open, _ := m.FetchAll(ctx, "Bookings", FieldNotEquals("Status", "Cancelled"))
	if len(open) != 2 {
		t.Fatalf("NotEquals: expected 2, got %d", len(open))
	}
	accepted, _ := m.FetchAll(ctx, "Bookings", FieldEquals("Status", "Accepted"))
	if len(accepted) != 1 || accepted[0].ID != "b1" {
		t.Fatalf("Equals: unexpected %+v", accepted)
	}
	byEmail, _ := m.FetchAll(ctx, "Bookings", EmailEquals("  a@EXAMPLE.com "))
	if len(byEmail) != 1 || byEmail[0].ID != "b1" {
		t.Fatalf("EmailEquals: unexpected %+v", byEmail)
	}
	if none, _ := m.FetchAll(ctx, "Missing", All()); len(none) != 0 {
		t.Fatalf("expected empty table, got %d", len(none))
	}
}

func TestMemoryCreateRecord(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("stub-booking")
	fields := Fields{"Status": "Accepted"}
	rec, err := m.CreateRecord(ctx, "Bookings", fields)
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	if !strings.HasPrefix(rec.ID, "stub-booking-") {
		t.Fatalf("unexpected id %q", rec.ID)
	}
	fields["Status"] = "Cancelled"
	got, _ := m.FetchAll(ctx, "Bookings", All())
	if len(got) != 1 || got[0].Fields.String("Status") != "Accepted" {
		t.Fatalf("stored record aliased caller map: %+v", got)
	}
	if m.Creates() != 1 {
		t.Fatalf("expected 1 create, got %d", m.Creates())
	}
}

func TestFieldsString(t *testing.T) {
	f := Fields{"n": 3, "s": "x", "nil": nil}
	if f.String("n") != "3" || f.String("s") != "x" || f.String("nil") != "" || f.String("missing") != "" {
		t.Fatalf("unexpected conversions")
	}
}

func TestLoadFixture(t *testing.T) {
	m := NewMemory("")
	err := LoadFixture(strings.NewReader(`{
		"Availability": [{"fields": {"Start": "2026-03-02T09:00:00Z", "End": "2026-03-02T17:00:00Z"}}],
		"Clients": [{"id": "c1", "fields": {"Email": "ada@example.com", "Status": "Active"}}]
	}`), m)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	avail, _ := m.FetchAll(context.Background(), "Availability", All())
	if len(avail) != 1 || avail[0].ID != "Availability-0" {
		t.Fatalf("unexpected availability %+v", avail)
	}
	clients, _ := m.FetchAll(context.Background(), "Clients", EmailEquals("ADA@example.com"))
	if len(clients) != 1 || clients[0].ID != "c1" {
		t.Fatalf("unexpected clients %+v", clients)
	}
	if err := LoadFixture(strings.NewReader(`[`), m); err == nil {
		t.Fatalf("expected decode error")
	}
}
