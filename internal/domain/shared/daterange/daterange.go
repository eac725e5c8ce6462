package daterange

import (
	"errors"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
)

// DateRange represents a half-open interval [checkIn, checkOut) of whole
// calendar days. A checkout on another booking's check-in day does not
// overlap it, which allows same-day turnover.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// New builds a range from the provided instants, truncated to UTC midnight.
func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Day truncates an instant to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

// Nights is the number of nights spanned by the range.
func (dr DateRange) Nights() int {
	return int(dr.CheckOut.Sub(dr.CheckIn).Hours() / 24)
}

// Overlaps reports whether two half-open ranges share at least one night.
func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

// ContainsDate reports whether the day t falls inside the range.
func (dr DateRange) ContainsDate(t time.Time) bool {
	t = Day(t)
	return !t.Before(dr.CheckIn) && t.Before(dr.CheckOut)
}

// DaysUntil returns the whole days between now and the range's check-in day.
// Negative values mean check-in has passed.
func (dr DateRange) DaysUntil(now time.Time) int {
	return int(dr.CheckIn.Sub(Day(now)).Hours() / 24)
}
