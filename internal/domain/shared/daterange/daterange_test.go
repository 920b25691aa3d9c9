package daterange

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewTruncatesToUTCMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	start := time.Date(2025, 6, 1, 14, 30, 0, 0, loc)
	end := time.Date(2025, 6, 10, 2, 0, 0, 0, loc)
	dr, err := New(start, end)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if !dr.Start.Equal(date(2025, 6, 1)) {
		t.Errorf("start = %s, want 2025-06-01T00:00:00Z", dr.Start)
	}
	if !dr.End.Equal(date(2025, 6, 9)) {
		t.Errorf("end = %s, want 2025-06-09T00:00:00Z", dr.End)
	}
}

func TestNewRejectsEmptyRange(t *testing.T) {
	if _, err := New(date(2025, 6, 10), date(2025, 6, 10)); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("same-day range error = %v, want ErrInvalidRange", err)
	}
	if _, err := New(date(2025, 6, 10), date(2025, 6, 1)); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("inverted range error = %v, want ErrInvalidRange", err)
	}
}

func TestFromMonths(t *testing.T) {
	dr, err := FromMonths(date(2025, 6, 1), 6)
	if err != nil {
		t.Fatalf("FromMonths failed: %v", err)
	}
	if !dr.End.Equal(date(2025, 12, 1)) {
		t.Errorf("end = %s, want 2025-12-01", dr.End)
	}
	if _, err := FromMonths(date(2025, 6, 1), 0); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("zero months error = %v, want ErrInvalidRange", err)
	}
}

func TestHalfOpenOverlap(t *testing.T) {
	a := DateRange{Start: date(2025, 6, 1), End: date(2025, 6, 10)}
	b := DateRange{Start: date(2025, 6, 10), End: date(2025, 6, 15)}
	if a.Overlaps(b) {
		t.Error("ranges meeting at a checkout day must not overlap")
	}
	c := DateRange{Start: date(2025, 6, 9), End: date(2025, 6, 15)}
	if !a.Overlaps(c) {
		t.Error("ranges sharing an occupied night must overlap")
	}
}

func TestIntersectClips(t *testing.T) {
	a := DateRange{Start: date(2025, 6, 1), End: date(2025, 6, 10)}
	b := DateRange{Start: date(2025, 6, 5), End: date(2025, 6, 20)}
	got, ok := a.Intersect(b)
	if !ok {
		t.Fatal("expected overlap")
	}
	if !got.Start.Equal(date(2025, 6, 5)) || !got.End.Equal(date(2025, 6, 10)) {
		t.Errorf("intersection = [%s, %s)", got.Start, got.End)
	}
	if _, ok := a.Intersect(DateRange{Start: date(2025, 7, 1), End: date(2025, 7, 5)}); ok {
		t.Error("disjoint ranges must not intersect")
	}
}

func TestContainsDayExcludesCheckout(t *testing.T) {
	dr := DateRange{Start: date(2025, 6, 1), End: date(2025, 6, 10)}
	if !dr.ContainsDay(date(2025, 6, 1)) {
		t.Error("check-in day is an occupied night")
	}
	if !dr.ContainsDay(date(2025, 6, 9)) {
		t.Error("last night is occupied")
	}
	if dr.ContainsDay(date(2025, 6, 10)) {
		t.Error("checkout day is not an occupied night")
	}
}

func TestDaysAndDaysUntil(t *testing.T) {
	dr := DateRange{Start: date(2025, 6, 1), End: date(2025, 6, 10)}
	if dr.Days() != 9 {
		t.Errorf("Days = %d, want 9", dr.Days())
	}
	now := time.Date(2025, 6, 5, 23, 59, 0, 0, time.UTC)
	if got := DaysUntil(date(2025, 6, 10), now); got != 5 {
		t.Errorf("DaysUntil = %d, want 5", got)
	}
	if got := DaysUntil(date(2025, 6, 1), now); got != -4 {
		t.Errorf("DaysUntil past = %d, want -4", got)
	}
}
