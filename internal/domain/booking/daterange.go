package booking

import (
	"errors"
	"time"

	"stayfinder/internal/domain/shared/daterange"
)

var ErrCheckInNotFuture = errors.New("booking: check-in date must be in the future")

// ValidateCheckIn enforces that check-in is strictly after today, comparing
// calendar days only. Booking for the current day is rejected.
func ValidateCheckIn(dr daterange.DateRange, now time.Time) error {
	today := daterange.Day(now)
	if !daterange.Day(dr.CheckIn).After(today) {
		return ErrCheckInNotFuture
	}
	return nil
}
