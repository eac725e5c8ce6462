package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewTruncatesToCalendarDays(t *testing.T) {
	in := time.Date(2026, time.September, 10, 15, 4, 5, 0, time.UTC)
	out := time.Date(2026, time.September, 14, 9, 30, 0, 0, time.UTC)

	dr, err := New(in, out)
	require.NoError(t, err)
	assert.Equal(t, day(2026, time.September, 10), dr.CheckIn)
	assert.Equal(t, day(2026, time.September, 14), dr.CheckOut)
	assert.Equal(t, 4, dr.Nights())
}

func TestNewRejectsInvertedRange(t *testing.T) {
	_, err := New(day(2026, time.September, 14), day(2026, time.September, 10))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(day(2026, time.September, 10), day(2026, time.September, 10))
	assert.ErrorIs(t, err, ErrInvalidRange, "zero-night stay")
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	a := DateRange{CheckIn: day(2026, time.June, 1), CheckOut: day(2026, time.June, 5)}

	backToBack := DateRange{CheckIn: day(2026, time.June, 5), CheckOut: day(2026, time.June, 8)}
	assert.False(t, a.Overlaps(backToBack), "checkout day may be another booking's check-in")
	assert.False(t, backToBack.Overlaps(a))

	overlapping := DateRange{CheckIn: day(2026, time.June, 4), CheckOut: day(2026, time.June, 8)}
	assert.True(t, a.Overlaps(overlapping))
	assert.True(t, overlapping.Overlaps(a))

	contained := DateRange{CheckIn: day(2026, time.June, 2), CheckOut: day(2026, time.June, 3)}
	assert.True(t, a.Overlaps(contained))
}

func TestDaysUntilUsesCalendarDays(t *testing.T) {
	dr := DateRange{CheckIn: day(2026, time.June, 10), CheckOut: day(2026, time.June, 12)}

	lateEvening := time.Date(2026, time.June, 5, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, 5, dr.DaysUntil(lateEvening), "time of day does not shrink the distance")
	assert.Equal(t, 0, dr.DaysUntil(day(2026, time.June, 10)))
	assert.Equal(t, -2, dr.DaysUntil(day(2026, time.June, 12)))
}

func TestContainsDate(t *testing.T) {
	dr := DateRange{CheckIn: day(2026, time.June, 1), CheckOut: day(2026, time.June, 5)}
	assert.True(t, dr.ContainsDate(day(2026, time.June, 1)))
	assert.True(t, dr.ContainsDate(time.Date(2026, time.June, 4, 18, 0, 0, 0, time.UTC)))
	assert.False(t, dr.ContainsDate(day(2026, time.June, 5)), "checkout day is outside")
}
