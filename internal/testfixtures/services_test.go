package testfixtures

import (
	"testing"
	"time"
)

func TestNewServiceFactory_Defaults(t *testing.T) {
	t.Parallel()

	factory := NewServiceFactory()

	if got := factory.Clock().Now(); !got.Equal(ReferenceTime()) {
		t.Fatalf("expected reference time, got %v", got)
	}
}

func TestNewServiceFactory_Overrides(t *testing.T) {
	t.Parallel()

	start := ReferenceTime().Add(48 * time.Hour)
	clock := NewClock(start)
	generator := NewIDGenerator("fixture")

	factory := NewServiceFactory(WithClock(clock), WithIDGenerator(generator))

	if got := factory.Clock().Now(); !got.Equal(start) {
		t.Fatalf("expected overridden clock time, got %v", got)
	}
	if got := factory.generator.Next(); got != "fixture-1" {
		t.Fatalf("expected fixture-1, got %q", got)
	}
}

func TestFixtureConversionsRoundTrip(t *testing.T) {
	t.Parallel()

	reservation := NewReservationFixture(
		WithReservationID("res-7"),
		WithReservationAttendees("alice@example.com", "bob@example.com"),
	)

	record := reservation.Persistence()
	if record.ID != "res-7" || len(record.Attendees) != 2 {
		t.Fatalf("unexpected persistence record: %+v", record)
	}

	model := reservation.Application()
	if model.Status != record.Status || !model.Start.Equal(record.Start) {
		t.Fatalf("application and persistence views diverge: %+v vs %+v", model, record)
	}

	admin := NewUserFixture(WithUserAdmin())
	if !admin.Principal().IsAdmin {
		t.Fatal("expected admin principal")
	}
}
