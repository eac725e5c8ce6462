package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayfinder/internal/app/uow"
	domainbooking "stayfinder/internal/domain/booking"
)

// withUnit runs fn inside a write unit of work, the way the transaction
// middleware does for dispatched commands.
func withUnit(t *testing.T, env *testEnv, fn func(ctx context.Context)) {
	t.Helper()
	unit, err := env.factory.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	ctx := uow.ContextWithUnitOfWork(context.Background(), unit)
	defer func() { require.NoError(t, unit.Commit(ctx)) }()
	fn(ctx)
}

func seedBooking(t *testing.T, env *testEnv, id, guestID string) *domainbooking.Booking {
	t.Helper()
	h := &RequestBookingHandler{UoWFactory: env.factory, Outbox: env.outbox, Clock: fixedClock}
	_, err := h.Handle(context.Background(), requestCmd(id, "lst-1", guestID, 10, 3))
	require.NoError(t, err)
	stored, err := env.bookings.ByID(context.Background(), domainbooking.BookingID(id))
	require.NoError(t, err)
	return stored
}

func TestUpdateStatusConfirm(t *testing.T) {
	env := newTestEnv()
	env.seedListing("lst-1", "host-1")
	seedBooking(t, env, "bkg-1", "guest-1")
	h := &UpdateStatusHandler{Outbox: env.outbox, Clock: fixedClock}

	withUnit(t, env, func(ctx context.Context) {
		result, err := h.Handle(ctx, UpdateStatusCommand{BookingID: "bkg-1", ActorID: "host-1", NewStatus: "confirmed"})
		require.NoError(t, err)
		assert.Equal(t, "confirmed", result.Booking.Status)
	})

	stored, err := env.bookings.ByID(context.Background(), "bkg-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusConfirmed, stored.Status)
}

func TestUpdateStatusGuestForbidden(t *testing.T) {
	env := newTestEnv()
	env.seedListing("lst-1", "host-1")
	seedBooking(t, env, "bkg-1", "guest-1")
	h := &UpdateStatusHandler{Outbox: env.outbox, Clock: fixedClock}

	withUnit(t, env, func(ctx context.Context) {
		_, err := h.Handle(ctx, UpdateStatusCommand{BookingID: "bkg-1", ActorID: "guest-1", NewStatus: "confirmed"})
		assert.ErrorIs(t, err, ErrNotHost)
	})
}

func TestUpdateStatusDeclinedMapsToCancelled(t *testing.T) {
	env := newTestEnv()
	env.seedListing("lst-1", "host-1")
	seedBooking(t, env, "bkg-1", "guest-1")
	h := &UpdateStatusHandler{Outbox: env.outbox, Clock: fixedClock}

	withUnit(t, env, func(ctx context.Context) {
		result, err := h.Handle(ctx, UpdateStatusCommand{BookingID: "bkg-1", ActorID: "host-1", NewStatus: "declined"})
		require.NoError(t, err)
		assert.Equal(t, "cancelled", result.Booking.Status)
		require.NotNil(t, result.Booking.Cancellation)
		assert.Equal(t, "host", result.Booking.Cancellation.CancelledBy)
		assert.Zero(t, result.Booking.Cancellation.RefundAmount.Amount, "declined requests refund nothing")
	})
}

func TestUpdateStatusUnknownValue(t *testing.T) {
	env := newTestEnv()
	env.seedListing("lst-1", "host-1")
	seedBooking(t, env, "bkg-1", "guest-1")
	h := &UpdateStatusHandler{Outbox: env.outbox, Clock: fixedClock}

	withUnit(t, env, func(ctx context.Context) {
		_, err := h.Handle(ctx, UpdateStatusCommand{BookingID: "bkg-1", ActorID: "host-1", NewStatus: "archived"})
		assert.ErrorIs(t, err, ErrUnknownStatus)
	})
}

func TestUpdateStatusOnClosedBooking(t *testing.T) {
	env := newTestEnv()
	env.seedListing("lst-1", "host-1")
	h := &UpdateStatusHandler{Outbox: env.outbox, Clock: fixedClock}

	completed := seedBooking(t, env, "bkg-1", "guest-1")
	require.NoError(t, completed.Confirm(testNow))
	require.NoError(t, completed.Complete(testNow.AddDate(0, 0, 14)))
	require.NoError(t, env.bookings.Save(context.Background(), completed))

	withUnit(t, env, func(ctx context.Context) {
		_, err := h.Handle(ctx, UpdateStatusCommand{BookingID: "bkg-1", ActorID: "host-1", NewStatus: "cancelled"})
		assert.ErrorIs(t, err, domainbooking.ErrBookingClosed)
		_, err = h.Handle(ctx, UpdateStatusCommand{BookingID: "bkg-1", ActorID: "host-1", NewStatus: "confirmed"})
		assert.ErrorIs(t, err, domainbooking.ErrBookingClosed)
	})

	stored, err := env.bookings.ByID(context.Background(), "bkg-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusCompleted, stored.Status)
}

func TestCancelBookingByGuest(t *testing.T) {
	env := newTestEnv()
	env.seedListing("lst-1", "host-1")
	seedBooking(t, env, "bkg-1", "guest-1")
	h := &CancelBookingHandler{Outbox: env.outbox, Clock: fixedClock}

	withUnit(t, env, func(ctx context.Context) {
		result, err := h.Handle(ctx, CancelBookingCommand{BookingID: "bkg-1", ActorID: "guest-1", Reason: "plans changed"})
		require.NoError(t, err)
		assert.Equal(t, "cancelled", result.Booking.Status)
		// Ten days out on a moderate policy refunds the full total.
		assert.Equal(t, result.Booking.Pricing.Total.Amount, result.RefundAmount.Amount)
	})
}

func TestCancelBookingStrangerForbidden(t *testing.T) {
	env := newTestEnv()
	env.seedListing("lst-1", "host-1")
	seedBooking(t, env, "bkg-1", "guest-1")
	h := &CancelBookingHandler{Outbox: env.outbox, Clock: fixedClock}

	withUnit(t, env, func(ctx context.Context) {
		_, err := h.Handle(ctx, CancelBookingCommand{BookingID: "bkg-1", ActorID: "guest-2"})
		assert.ErrorIs(t, err, ErrNotParticipant)
	})
}

func TestCancelBookingTwice(t *testing.T) {
	env := newTestEnv()
	env.seedListing("lst-1", "host-1")
	seedBooking(t, env, "bkg-1", "guest-1")
	h := &CancelBookingHandler{Outbox: env.outbox, Clock: fixedClock}

	withUnit(t, env, func(ctx context.Context) {
		_, err := h.Handle(ctx, CancelBookingCommand{BookingID: "bkg-1", ActorID: "guest-1"})
		require.NoError(t, err)
	})
	withUnit(t, env, func(ctx context.Context) {
		_, err := h.Handle(ctx, CancelBookingCommand{BookingID: "bkg-1", ActorID: "guest-1"})
		assert.ErrorIs(t, err, domainbooking.ErrAlreadyCancelled)
	})
}
