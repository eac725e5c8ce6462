package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBookingAuthorization(t *testing.T) {
	env := newTestEnv()
	env.seedListing("lst-1", "host-1")
	seedBooking(t, env, "bkg-1", "guest-1")
	h := &GetBookingHandler{UoWFactory: env.factory}

	for _, actor := range []string{"guest-1", "host-1"} {
		result, err := h.Handle(context.Background(), GetBookingQuery{BookingID: "bkg-1", ActorID: actor})
		require.NoError(t, err, "actor %s", actor)
		assert.Equal(t, "bkg-1", result.ID)
		assert.Equal(t, "Listing lst-1", result.Listing.Title)
	}

	_, err := h.Handle(context.Background(), GetBookingQuery{BookingID: "bkg-1", ActorID: "stranger"})
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestListBookingsByGuestAndHost(t *testing.T) {
	env := newTestEnv()
	env.seedListing("lst-1", "host-1")
	env.seedListing("lst-2", "host-2")

	reqHandler := &RequestBookingHandler{UoWFactory: env.factory, Outbox: env.outbox, Clock: fixedClock}
	_, err := reqHandler.Handle(context.Background(), requestCmd("bkg-1", "lst-1", "guest-1", 10, 3))
	require.NoError(t, err)
	_, err = reqHandler.Handle(context.Background(), requestCmd("bkg-2", "lst-2", "guest-1", 20, 3))
	require.NoError(t, err)
	_, err = reqHandler.Handle(context.Background(), requestCmd("bkg-3", "lst-1", "guest-2", 30, 3))
	require.NoError(t, err)

	h := &ListBookingsHandler{UoWFactory: env.factory}

	asGuest, err := h.Handle(context.Background(), ListBookingsQuery{ActorID: "guest-1", View: ViewGuest})
	require.NoError(t, err)
	assert.Len(t, asGuest.Items, 2)
	assert.Equal(t, 2, asGuest.Pagination.TotalItems)

	asHost, err := h.Handle(context.Background(), ListBookingsQuery{ActorID: "host-1", View: ViewHost})
	require.NoError(t, err)
	assert.Len(t, asHost.Items, 2, "both bookings on host-1's listing")

	empty, err := h.Handle(context.Background(), ListBookingsQuery{ActorID: "guest-3", View: ViewGuest})
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
	assert.Equal(t, 0, empty.Pagination.TotalItems)
}

func TestListBookingsStatusFilterAndPaging(t *testing.T) {
	env := newTestEnv()
	env.seedListing("lst-1", "host-1")

	reqHandler := &RequestBookingHandler{UoWFactory: env.factory, Outbox: env.outbox, Clock: fixedClock}
	for i, id := range []string{"bkg-1", "bkg-2", "bkg-3"} {
		_, err := reqHandler.Handle(context.Background(), requestCmd(id, "lst-1", "guest-1", 10+i*7, 3))
		require.NoError(t, err)
	}
	statusHandler := &UpdateStatusHandler{Outbox: env.outbox, Clock: fixedClock}
	withUnit(t, env, func(ctx context.Context) {
		_, err := statusHandler.Handle(ctx, UpdateStatusCommand{BookingID: "bkg-2", ActorID: "host-1", NewStatus: "confirmed"})
		require.NoError(t, err)
	})

	h := &ListBookingsHandler{UoWFactory: env.factory}

	confirmed, err := h.Handle(context.Background(), ListBookingsQuery{ActorID: "guest-1", Status: "confirmed"})
	require.NoError(t, err)
	require.Len(t, confirmed.Items, 1)
	assert.Equal(t, "bkg-2", confirmed.Items[0].ID)

	page, err := h.Handle(context.Background(), ListBookingsQuery{ActorID: "guest-1", Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 3, page.Pagination.TotalItems)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.Equal(t, 2, page.Pagination.CurrentPage)
}
