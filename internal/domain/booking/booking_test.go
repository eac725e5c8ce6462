package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayfinder/internal/domain/listings"
	"stayfinder/internal/domain/shared/daterange"
	"stayfinder/internal/domain/shared/money"
)

var testNow = time.Date(2026, time.May, 1, 10, 0, 0, 0, time.UTC)

func testListing() *listings.Listing {
	return &listings.Listing{
		ID:   "lst-1",
		Host: "host-1",
		Pricing: listings.PricingRules{
			BasePrice:   money.Cents(10000),
			CleaningFee: money.Cents(2000),
		},
		Capacity:           listings.Capacity{Guests: 4},
		CancellationPolicy: listings.PolicyModerate,
		Status:             listings.StatusActive,
	}
}

func futureRange(fromDays, nights int) daterange.DateRange {
	checkIn := daterange.Day(testNow).AddDate(0, 0, fromDays)
	return daterange.DateRange{CheckIn: checkIn, CheckOut: checkIn.AddDate(0, 0, nights)}
}

func validParams() CreateParams {
	return CreateParams{
		ID:      "bkg-1",
		Listing: testListing(),
		GuestID: "guest-1",
		Range:   futureRange(10, 3),
		Guests:  GuestCounts{Adults: 2},
		Now:     testNow,
	}
}

func mustBooking(t *testing.T) *Booking {
	t.Helper()
	b, err := NewBooking(validParams())
	require.NoError(t, err)
	return b
}

func TestNewBookingComputesSnapshot(t *testing.T) {
	b := mustBooking(t)

	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, PaymentPending, b.PaymentStatus)
	assert.Equal(t, listings.HostID("host-1"), b.HostID)
	assert.Equal(t, 3, b.Nights)
	assert.Equal(t, int64(40304), b.Price.Total.Amount)
	assert.Equal(t, "USD", b.Payment.Currency)

	events := b.PendingEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "booking.requested", events[0].EventName())
}

func TestNewBookingPreconditions(t *testing.T) {
	t.Run("missing listing", func(t *testing.T) {
		p := validParams()
		p.Listing = nil
		_, err := NewBooking(p)
		assert.ErrorIs(t, err, listings.ErrListingNotFound)
	})

	t.Run("inactive listing", func(t *testing.T) {
		p := validParams()
		p.Listing.Status = listings.StatusInactive
		_, err := NewBooking(p)
		assert.ErrorIs(t, err, listings.ErrNotBookable)
	})

	t.Run("check-in today", func(t *testing.T) {
		p := validParams()
		p.Range = futureRange(0, 3)
		_, err := NewBooking(p)
		assert.ErrorIs(t, err, ErrCheckInNotFuture)
	})

	t.Run("inverted range", func(t *testing.T) {
		p := validParams()
		checkIn := daterange.Day(testNow).AddDate(0, 0, 5)
		p.Range = daterange.DateRange{CheckIn: checkIn, CheckOut: checkIn}
		_, err := NewBooking(p)
		assert.ErrorIs(t, err, daterange.ErrInvalidRange)
	})

	t.Run("host books own listing", func(t *testing.T) {
		p := validParams()
		p.GuestID = "host-1"
		_, err := NewBooking(p)
		assert.ErrorIs(t, err, ErrOwnListing)
	})

	t.Run("no adults", func(t *testing.T) {
		p := validParams()
		p.Guests = GuestCounts{Children: 2}
		_, err := NewBooking(p)
		assert.ErrorIs(t, err, ErrInvalidGuests)
	})

	t.Run("infants count toward capacity", func(t *testing.T) {
		p := validParams()
		p.Guests = GuestCounts{Adults: 3, Children: 1, Infants: 1}
		_, err := NewBooking(p)
		assert.ErrorIs(t, err, ErrCapacityExceeded)
	})
}

func TestConfirmAndComplete(t *testing.T) {
	b := mustBooking(t)

	require.NoError(t, b.Confirm(testNow))
	assert.Equal(t, StatusConfirmed, b.Status)

	require.NoError(t, b.Complete(testNow.AddDate(0, 0, 14)))
	assert.Equal(t, StatusCompleted, b.Status)

	assert.ErrorIs(t, b.Confirm(testNow), ErrBookingClosed)
}

func TestCompleteRequiresConfirmed(t *testing.T) {
	b := mustBooking(t)
	assert.ErrorIs(t, b.Complete(testNow), ErrInvalidTransition)
}

func TestDeclineLandsInCancelledWithoutRefund(t *testing.T) {
	b := mustBooking(t)

	require.NoError(t, b.Decline("dates blocked for maintenance", testNow))
	assert.Equal(t, StatusCancelled, b.Status)
	require.NotNil(t, b.Cancellation)
	assert.Equal(t, PartyHost, b.Cancellation.CancelledBy)
	assert.True(t, b.Cancellation.RefundAmount.IsZero())
	assert.Equal(t, "USD", b.Cancellation.RefundAmount.Currency)

	assert.ErrorIs(t, b.Decline("again", testNow), ErrBookingClosed)
}

func TestCancelComputesRefundFromPolicy(t *testing.T) {
	b := mustBooking(t)

	// 10 days ahead of check-in on a moderate policy: full refund.
	refund, err := b.Cancel(PartyGuest, "change of plans", listings.PolicyModerate, testNow)
	require.NoError(t, err)
	assert.Equal(t, b.Price.Total.Amount, refund.Amount)
	assert.Equal(t, StatusCancelled, b.Status)
	require.NotNil(t, b.Cancellation)
	assert.Equal(t, PartyGuest, b.Cancellation.CancelledBy)

	_, err = b.Cancel(PartyGuest, "again", listings.PolicyModerate, testNow)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestCancelCloseToCheckIn(t *testing.T) {
	b := mustBooking(t)

	// 4 days before check-in: moderate drops to 50%.
	refund, err := b.Cancel(PartyGuest, "", listings.PolicyModerate, testNow.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.Equal(t, b.Price.Total.Amount/2, refund.Amount)
}

func TestPaymentLifecycle(t *testing.T) {
	b := mustBooking(t)

	require.NoError(t, b.AttachPaymentIntent("pi_1", testNow))
	require.NoError(t, b.MarkPaid("ch_1", "card", testNow))
	assert.Equal(t, PaymentPaid, b.PaymentStatus)
	assert.Equal(t, StatusConfirmed, b.Status, "payment confirms the booking")
	assert.Equal(t, "ch_1", b.Payment.ChargeID)

	assert.ErrorIs(t, b.MarkPaid("ch_2", "card", testNow), ErrAlreadyPaid)
	assert.Equal(t, "ch_1", b.Payment.ChargeID, "double capture leaves the first charge")

	assert.ErrorIs(t, b.MarkPaymentFailed(testNow), ErrAlreadyPaid)

	_, err := b.Cancel(PartyGuest, "", listings.PolicyModerate, testNow)
	require.NoError(t, err)
	require.NoError(t, b.MarkRefunded(money.Cents(20152), testNow))
	assert.Equal(t, PaymentRefunded, b.PaymentStatus)
	assert.Equal(t, int64(20152), b.Cancellation.RefundAmount.Amount)
}

func TestCancelRejectedOnCompletedBooking(t *testing.T) {
	b := mustBooking(t)
	require.NoError(t, b.Confirm(testNow))
	require.NoError(t, b.Complete(testNow.AddDate(0, 0, 14)))

	_, err := b.Cancel(PartyHost, "", listings.PolicyModerate, testNow)
	assert.ErrorIs(t, err, ErrBookingClosed)
	assert.Equal(t, StatusCompleted, b.Status)
}

func TestMarkPaidRejectedAfterCancellation(t *testing.T) {
	b := mustBooking(t)
	require.NoError(t, b.AttachPaymentIntent("pi_1", testNow))
	_, err := b.Cancel(PartyGuest, "", listings.PolicyModerate, testNow)
	require.NoError(t, err)

	assert.ErrorIs(t, b.MarkPaid("ch_1", "card", testNow), ErrBookingClosed)
	assert.Equal(t, StatusCancelled, b.Status, "a late capture does not reopen the booking")
	assert.Equal(t, PaymentPending, b.PaymentStatus)
}

func TestPaymentFailureKeepsBookingOpen(t *testing.T) {
	b := mustBooking(t)
	require.NoError(t, b.AttachPaymentIntent("pi_1", testNow))

	require.NoError(t, b.MarkPaymentFailed(testNow))
	assert.Equal(t, PaymentFailed, b.PaymentStatus)
	assert.Equal(t, StatusPending, b.Status, "failed charge does not cancel")
}

func TestMarkRefundedNeedsIntent(t *testing.T) {
	b := mustBooking(t)
	assert.ErrorIs(t, b.MarkRefunded(money.Cents(100), testNow), ErrNoPaymentIntent)
}

func TestIsParticipant(t *testing.T) {
	b := mustBooking(t)
	assert.True(t, b.IsParticipant("guest-1"))
	assert.True(t, b.IsParticipant("host-1"))
	assert.False(t, b.IsParticipant("stranger"))
}
