package daterange

import (
	"errors"
	"time"
)

var ErrInvalidRange = errors.New("daterange: end must be after start")

// DateRange represents a half-open interval [Start, End). The end day is the
// checkout day and is never an occupied night.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// New builds a range from calendar days, truncating both bounds to UTC midnight.
func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: Day(start), End: Day(end)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// FromMonths derives the exclusive end date for a stay of whole months.
func FromMonths(start time.Time, months int) (DateRange, error) {
	if months <= 0 {
		return DateRange{}, ErrInvalidRange
	}
	s := Day(start)
	return DateRange{Start: s, End: s.AddDate(0, months, 0)}, nil
}

func (dr DateRange) Validate() error {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ErrInvalidRange
	}
	if !dr.End.After(dr.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Days counts the covered nights.
func (dr DateRange) Days() int {
	return int(dr.End.Sub(dr.Start).Hours() / 24)
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.Start.Before(other.End) && other.Start.Before(dr.End)
}

// Intersect clips the receiver against other. ok is false when they are disjoint.
func (dr DateRange) Intersect(other DateRange) (DateRange, bool) {
	if !dr.Overlaps(other) {
		return DateRange{}, false
	}
	start := dr.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := dr.End
	if other.End.Before(end) {
		end = other.End
	}
	return DateRange{Start: start, End: end}, true
}

// ContainsDay reports whether the given day is an occupied night of the range.
func (dr DateRange) ContainsDay(t time.Time) bool {
	d := Day(t)
	return !d.Before(dr.Start) && d.Before(dr.End)
}

// EachDay visits every covered night in ascending order.
func (dr DateRange) EachDay(fn func(day time.Time)) {
	for d := dr.Start; d.Before(dr.End); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

// Day truncates a timestamp to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysUntil counts whole calendar days from now's day to the target day.
// Negative when the target is already past.
func DaysUntil(target, now time.Time) int {
	return int(Day(target).Sub(Day(now)).Hours() / 24)
}
