package booking

import (
	"time"

	"homelet/internal/domain/shared/daterange"
)

// ComputeOccupancy derives the per-day concurrent reservation count for an
// inventory unit over the requested range. Only capacity-occupying bookings
// contribute; the checkout day of each booking is free. The map is
// request-scoped and carries no hidden state so it can be tested against
// synthetic booking sets.
func ComputeOccupancy(bookings []*Booking, r daterange.DateRange, exclude BookingID) map[time.Time]int {
	counts := make(map[time.Time]int)
	for _, b := range bookings {
		if b.ID == exclude || !b.OccupiesCapacity() {
			continue
		}
		overlap, ok := b.Range.Intersect(r)
		if !ok {
			continue
		}
		overlap.EachDay(func(day time.Time) {
			counts[day]++
		})
	}
	return counts
}

// IsRangeAvailable reports whether a new reservation over r would keep every
// covered day strictly under the unit's capacity.
func IsRangeAvailable(bookings []*Booking, r daterange.DateRange, capacity int, exclude BookingID) bool {
	if capacity < 1 {
		return false
	}
	for _, count := range ComputeOccupancy(bookings, r, exclude) {
		if count >= capacity {
			return false
		}
	}
	return true
}
