package booking

import (
	"testing"
	"time"

	"homelet/internal/domain/shared/daterange"
)

func mustRange(t *testing.T, start, end string) daterange.DateRange {
	t.Helper()
	s, err := time.Parse("2006-01-02", start)
	if err != nil {
		t.Fatalf("bad start %q: %v", start, err)
	}
	e, err := time.Parse("2006-01-02", end)
	if err != nil {
		t.Fatalf("bad end %q: %v", end, err)
	}
	dr, err := daterange.New(s, e)
	if err != nil {
		t.Fatalf("bad range [%s, %s): %v", start, end, err)
	}
	return dr
}

func occupyingBooking(t *testing.T, id, start, end string) *Booking {
	t.Helper()
	return &Booking{
		ID:            BookingID(id),
		Range:         mustRange(t, start, end),
		Status:        StatusConfirmed,
		PaymentStatus: PaymentPaid,
	}
}

func TestCapacityOneRejectsOverlap(t *testing.T) {
	existing := []*Booking{occupyingBooking(t, "b1", "2025-06-01", "2025-06-10")}
	requested := mustRange(t, "2025-06-05", "2025-06-12")
	if IsRangeAvailable(existing, requested, 1, "") {
		t.Error("overlapping request on a capacity-1 unit must be rejected")
	}
}

func TestCapacityTwoAllowsTwoThenRejectsThird(t *testing.T) {
	requested := mustRange(t, "2025-06-01", "2025-06-05")

	var existing []*Booking
	if !IsRangeAvailable(existing, requested, 2, "") {
		t.Fatal("first booking on an empty capacity-2 unit must fit")
	}
	existing = append(existing, occupyingBooking(t, "b1", "2025-06-01", "2025-06-05"))
	if !IsRangeAvailable(existing, requested, 2, "") {
		t.Fatal("second booking on a capacity-2 unit must fit")
	}
	existing = append(existing, occupyingBooking(t, "b2", "2025-06-01", "2025-06-05"))
	if IsRangeAvailable(existing, requested, 2, "") {
		t.Error("third overlapping booking on a capacity-2 unit must be rejected")
	}
}

func TestCheckoutDayFreesCapacity(t *testing.T) {
	existing := []*Booking{occupyingBooking(t, "b1", "2025-06-01", "2025-06-10")}
	backToBack := mustRange(t, "2025-06-10", "2025-06-15")
	if !IsRangeAvailable(existing, backToBack, 1, "") {
		t.Error("a booking starting on the previous checkout day must fit")
	}
}

func TestCancelledBookingsDoNotOccupy(t *testing.T) {
	cancelled := occupyingBooking(t, "b1", "2025-06-01", "2025-06-10")
	cancelled.Status = StatusCancelled
	requested := mustRange(t, "2025-06-01", "2025-06-10")
	if !IsRangeAvailable([]*Booking{cancelled}, requested, 1, "") {
		t.Error("cancelled bookings must not count against capacity")
	}
}

func TestComputeOccupancyCounts(t *testing.T) {
	bookings := []*Booking{
		occupyingBooking(t, "b1", "2025-06-01", "2025-06-03"),
		occupyingBooking(t, "b2", "2025-06-02", "2025-06-04"),
	}
	counts := ComputeOccupancy(bookings, mustRange(t, "2025-06-01", "2025-06-05"), "")

	day := func(s string) time.Time {
		d, _ := time.Parse("2006-01-02", s)
		return daterange.Day(d)
	}
	if counts[day("2025-06-01")] != 1 {
		t.Errorf("june 1 count = %d, want 1", counts[day("2025-06-01")])
	}
	if counts[day("2025-06-02")] != 2 {
		t.Errorf("june 2 count = %d, want 2", counts[day("2025-06-02")])
	}
	if counts[day("2025-06-03")] != 1 {
		t.Errorf("june 3 count = %d, want 1", counts[day("2025-06-03")])
	}
	if got, ok := counts[day("2025-06-04")]; ok && got != 0 {
		t.Errorf("june 4 count = %d, want 0", got)
	}
}

func TestComputeOccupancyExcludesBooking(t *testing.T) {
	bookings := []*Booking{occupyingBooking(t, "b1", "2025-06-01", "2025-06-05")}
	counts := ComputeOccupancy(bookings, mustRange(t, "2025-06-01", "2025-06-05"), "b1")
	if len(counts) != 0 {
		t.Errorf("excluded booking still counted: %v", counts)
	}
}
