package booking

import "time"

// Booking is the minimal view of a persisted reservation that availability
// decisions need. The caller hands in a freshly fetched snapshot; this
// package never caches state across calls.
type Booking struct {
	ID     string
	RoomID string
	Start  time.Time
	End    time.Time
}

// Interval is a candidate window a caller wants to check or book.
type Interval struct {
	Start time.Time
	End   time.Time
}

// IsAvailable reports whether the candidate interval is free against the
// supplied reservations. An empty snapshot is always available. Every entry
// is considered; a single conflict disqualifies the window.
func IsAvailable(candidate Interval, existing []Booking) bool {
	if len(existing) == 0 {
		return true
	}
	for _, b := range existing {
		if Overlaps(candidate.Start, candidate.End, b.Start, b.End) {
			return false
		}
	}
	return true
}

// Conflicts returns every reservation in the snapshot that overlaps the
// candidate interval, preserving snapshot order.
func Conflicts(candidate Interval, existing []Booking) []Booking {
	var conflicts []Booking
	for _, b := range existing {
		if Overlaps(candidate.Start, candidate.End, b.Start, b.End) {
			conflicts = append(conflicts, b)
		}
	}
	return conflicts
}

// Excluding filters one reservation out of a snapshot, used when re-checking
// an edit so a reservation does not conflict with itself.
func Excluding(existing []Booking, id string) []Booking {
	if id == "" {
		return existing
	}
	filtered := make([]Booking, 0, len(existing))
	for _, b := range existing {
		if b.ID == id {
			continue
		}
		filtered = append(filtered, b)
	}
	return filtered
}
