package booking

import "time"

// Overlaps reports whether two intervals conflict under the booking policy.
//
// Intervals conflict when they genuinely intersect (aStart < bEnd and
// aEnd > bStart) and additionally when they merely touch: a reservation
// ending at 10:00 blocks a candidate starting at 10:00. The comparisons are
// boundary-inclusive, mirroring the inclusive range predicates the stored
// data was written against; back-to-back bookings that share an instant are
// rejected rather than treated as adjacent. This deliberately conservative
// rule must be preserved for compatibility.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}
