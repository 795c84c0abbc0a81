package booking

import (
	"fmt"
	"time"
)

// Business-day bounds for bookable slots. The grid opens at 08:00 and the
// last selectable boundary is exactly 18:00.
const (
	OpeningHour = 8
	ClosingHour = 18
	// SlotStep is the granularity of the booking grid.
	SlotStep = 30 * time.Minute
)

// Slots returns the ordered sequence of valid HH:MM boundaries for a business
// day, from 08:00 to 18:00 inclusive at 30-minute steps.
func Slots() []string {
	slots := make([]string, 0, (ClosingHour-OpeningHour)*2+1)
	for hour := OpeningHour; hour <= ClosingHour; hour++ {
		for minute := 0; minute < 60; minute += 30 {
			if hour == ClosingHour && minute > 0 {
				continue
			}
			slots = append(slots, fmt.Sprintf("%02d:%02d", hour, minute))
		}
	}
	return slots
}

// ParseSlot validates an HH:MM label against the booking grid and returns its
// hour and minute components.
func ParseSlot(label string) (hour, minute int, err error) {
	if _, err := fmt.Sscanf(label, "%02d:%02d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("booking: malformed slot label %q", label)
	}
	if minute != 0 && minute != 30 {
		return 0, 0, fmt.Errorf("booking: slot label %q is off the 30-minute grid", label)
	}
	if hour < OpeningHour || hour > ClosingHour || (hour == ClosingHour && minute > 0) {
		return 0, 0, fmt.Errorf("booking: slot label %q is outside business hours", label)
	}
	return hour, minute, nil
}

// SlotInstant combines a calendar date with a slot label into an absolute
// instant in the supplied location. All zone handling happens here, at the
// boundary; the overlap and availability predicates only ever see instants.
func SlotInstant(date time.Time, label string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	hour, minute, err := ParseSlot(label)
	if err != nil {
		return time.Time{}, err
	}
	d := date.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc), nil
}

// DefaultEnd returns the slot one hour after start, clamped so the result
// never passes 18:00. A start whose +1h boundary would leave the day yields
// the closing slot instead of an invalid label.
func DefaultEnd(start string) (string, error) {
	hour, minute, err := ParseSlot(start)
	if err != nil {
		return "", err
	}
	hour++
	if hour > ClosingHour || (hour == ClosingHour && minute > 0) {
		return fmt.Sprintf("%02d:00", ClosingHour), nil
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// OnGrid reports whether the instant sits exactly on a grid boundary of a
// business day when viewed in loc.
func OnGrid(t time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	if local.Second() != 0 || local.Nanosecond() != 0 {
		return false
	}
	if local.Minute() != 0 && local.Minute() != 30 {
		return false
	}
	hour, minute := local.Hour(), local.Minute()
	if hour < OpeningHour || hour > ClosingHour {
		return false
	}
	return hour != ClosingHour || minute == 0
}

// NextBookableSlot returns the first grid boundary at least one hour after
// now, clamped to business hours. A reference before the day opens rolls
// forward to 08:00; one too late to leave room for a booking rolls to the
// opening slot of the next day's grid.
func NextBookableSlot(now time.Time) string {
	earliest := now.Add(time.Hour)

	hour, minute := earliest.Hour(), earliest.Minute()
	onBoundary := (minute == 0 || minute == 30) && earliest.Second() == 0 && earliest.Nanosecond() == 0
	if !onBoundary {
		if minute < 30 {
			minute = 30
		} else {
			minute = 0
			hour++
		}
	}

	if hour < OpeningHour {
		return fmt.Sprintf("%02d:00", OpeningHour)
	}
	// The closing boundary cannot start a booking; roll to the next day's grid.
	if hour >= ClosingHour {
		return fmt.Sprintf("%02d:00", OpeningHour)
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}
