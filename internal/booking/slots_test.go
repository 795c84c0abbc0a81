package booking

import (
	"testing"
	"time"
)

func TestSlots(t *testing.T) {
	slots := Slots()

	if len(slots) == 0 {
		t.Fatal("expected slot grid to be non-empty")
	}
	if slots[0] != "08:00" {
		t.Fatalf("expected first slot 08:00, got %s", slots[0])
	}
	if slots[len(slots)-1] != "18:00" {
		t.Fatalf("expected last slot 18:00, got %s", slots[len(slots)-1])
	}
	if len(slots) != 21 {
		t.Fatalf("expected 21 slots between 08:00 and 18:00, got %d", len(slots))
	}

	seen := make(map[string]struct{}, len(slots))
	for i, slot := range slots {
		if _, dup := seen[slot]; dup {
			t.Fatalf("duplicate slot %s", slot)
		}
		seen[slot] = struct{}{}
		if i > 0 && slots[i-1] >= slot {
			t.Fatalf("slots not strictly increasing: %s then %s", slots[i-1], slot)
		}
		if slot > "18:00" {
			t.Fatalf("slot %s past closing", slot)
		}
	}
}

func TestParseSlot(t *testing.T) {
	t.Run("accepts grid boundaries", func(t *testing.T) {
		hour, minute, err := ParseSlot("09:30")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hour != 9 || minute != 30 {
			t.Fatalf("expected 9:30, got %d:%d", hour, minute)
		}
	})

	t.Run("rejects off-grid minutes", func(t *testing.T) {
		if _, _, err := ParseSlot("09:15"); err == nil {
			t.Fatal("expected error for 09:15")
		}
	})

	t.Run("rejects labels outside business hours", func(t *testing.T) {
		for _, label := range []string{"07:30", "18:30", "19:00"} {
			if _, _, err := ParseSlot(label); err == nil {
				t.Fatalf("expected error for %s", label)
			}
		}
	})

	t.Run("rejects malformed labels", func(t *testing.T) {
		if _, _, err := ParseSlot("nine"); err == nil {
			t.Fatal("expected error for malformed label")
		}
	})
}

func TestSlotInstant(t *testing.T) {
	loc := time.FixedZone("JST", 9*60*60)
	date := time.Date(2024, 3, 14, 0, 0, 0, 0, loc)

	instant, err := SlotInstant(date, "09:30", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2024, 3, 14, 9, 30, 0, 0, loc)
	if !instant.Equal(want) {
		t.Fatalf("expected %v, got %v", want, instant)
	}
	if !instant.UTC().Equal(time.Date(2024, 3, 14, 0, 30, 0, 0, time.UTC)) {
		t.Fatalf("expected 00:30 UTC, got %v", instant.UTC())
	}
}

func TestDefaultEnd(t *testing.T) {
	cases := []struct {
		start string
		want  string
	}{
		{"09:00", "10:00"},
		{"09:30", "10:30"},
		{"17:00", "18:00"},
		{"17:30", "18:00"}, // +1h would pass closing; clamp
	}

	for _, tc := range cases {
		got, err := DefaultEnd(tc.start)
		if err != nil {
			t.Fatalf("DefaultEnd(%s): unexpected error: %v", tc.start, err)
		}
		if got != tc.want {
			t.Fatalf("DefaultEnd(%s) = %s, want %s", tc.start, got, tc.want)
		}
	}

	if _, err := DefaultEnd("18:30"); err == nil {
		t.Fatal("expected error for start outside business hours")
	}
}

func TestNextBookableSlot(t *testing.T) {
	loc := time.FixedZone("JST", 9*60*60)
	at := func(hour, minute int) time.Time {
		return time.Date(2024, 3, 14, hour, minute, 0, 0, loc)
	}

	cases := []struct {
		name string
		now  time.Time
		want string
	}{
		{"mid morning rounds up", at(9, 10), "10:30"},
		{"exact boundary keeps plus one hour", at(9, 30), "10:30"},
		{"just past half hour rounds to next hour", at(9, 40), "11:00"},
		{"before opening clamps to opening", at(5, 0), "08:00"},
		{"too late rolls to next grid", at(17, 30), "08:00"},
		{"after closing rolls to next grid", at(20, 0), "08:00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NextBookableSlot(tc.now); got != tc.want {
				t.Fatalf("NextBookableSlot(%v) = %s, want %s", tc.now, got, tc.want)
			}
		})
	}
}
