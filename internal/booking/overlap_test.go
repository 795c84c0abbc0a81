package booking

import (
	"testing"
	"time"
)

func jstTime(t *testing.T, hour, minute int) time.Time {
	t.Helper()
	loc := time.FixedZone("JST", 9*60*60)
	return time.Date(2024, 3, 14, hour, minute, 0, 0, loc)
}

func TestOverlaps(t *testing.T) {
	t.Run("partial intersection conflicts", func(t *testing.T) {
		if !Overlaps(jstTime(t, 9, 30), jstTime(t, 10, 30), jstTime(t, 9, 0), jstTime(t, 10, 0)) {
			t.Fatal("expected 09:30-10:30 to conflict with 09:00-10:00")
		}
	})

	t.Run("containment conflicts", func(t *testing.T) {
		if !Overlaps(jstTime(t, 9, 0), jstTime(t, 12, 0), jstTime(t, 10, 0), jstTime(t, 11, 0)) {
			t.Fatal("expected containing interval to conflict")
		}
	})

	t.Run("shared end boundary conflicts", func(t *testing.T) {
		if !Overlaps(jstTime(t, 10, 30), jstTime(t, 11, 0), jstTime(t, 9, 0), jstTime(t, 11, 0)) {
			t.Fatal("expected shared end instant to conflict")
		}
	})

	t.Run("shared start boundary conflicts", func(t *testing.T) {
		if !Overlaps(jstTime(t, 9, 0), jstTime(t, 9, 30), jstTime(t, 9, 0), jstTime(t, 10, 0)) {
			t.Fatal("expected shared start instant to conflict")
		}
	})

	t.Run("back to back bookings conflict", func(t *testing.T) {
		// A booking ending at 10:00 blocks a candidate starting at 10:00.
		if !Overlaps(jstTime(t, 10, 0), jstTime(t, 11, 0), jstTime(t, 9, 0), jstTime(t, 10, 0)) {
			t.Fatal("expected candidate starting at an existing end instant to conflict")
		}
		if !Overlaps(jstTime(t, 8, 0), jstTime(t, 9, 0), jstTime(t, 9, 0), jstTime(t, 10, 0)) {
			t.Fatal("expected candidate ending at an existing start instant to conflict")
		}
	})

	t.Run("disjoint intervals do not conflict", func(t *testing.T) {
		if Overlaps(jstTime(t, 10, 30), jstTime(t, 11, 30), jstTime(t, 9, 0), jstTime(t, 10, 0)) {
			t.Fatal("expected 10:30-11:30 not to conflict with 09:00-10:00")
		}
	})
}
