package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "stayfinder/internal/domain/booking"
	domainlistings "stayfinder/internal/domain/listings"
	"stayfinder/internal/domain/shared/money"
	"stayfinder/internal/infra/storage/memory"
)

var testNow = time.Date(2026, time.May, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type testEnv struct {
	listings *memory.ListingDirectory
	bookings *memory.BookingRepository
	factory  *memory.Factory
	outbox   *memory.Outbox
}

func newTestEnv() *testEnv {
	listings := memory.NewListingDirectory()
	bookings := memory.NewBookingRepository()
	return &testEnv{
		listings: listings,
		bookings: bookings,
		factory:  memory.NewFactory(listings, bookings),
		outbox:   memory.NewOutbox(),
	}
}

func (e *testEnv) seedListing(id, host string) {
	e.listings.Put(&domainlistings.Listing{
		ID:    domainlistings.ListingID(id),
		Host:  domainlistings.HostID(host),
		Title: "Listing " + id,
		Pricing: domainlistings.PricingRules{
			BasePrice:   money.Cents(10000),
			CleaningFee: money.Cents(2000),
		},
		Capacity:           domainlistings.Capacity{Guests: 4},
		CancellationPolicy: domainlistings.PolicyModerate,
		Status:             domainlistings.StatusActive,
	})
}

func requestCmd(id, listingID, guestID string, fromDays, nights int) RequestBookingCommand {
	checkIn := testNow.AddDate(0, 0, fromDays)
	return RequestBookingCommand{
		CommandID: id,
		ListingID: listingID,
		GuestID:   guestID,
		CheckIn:   checkIn,
		CheckOut:  checkIn.AddDate(0, 0, nights),
		Guests:    domainbooking.GuestCounts{Adults: 2},
	}
}

func TestRequestBookingCommandValidate(t *testing.T) {
	cmd := requestCmd("bkg-1", "lst-1", "guest-1", 10, 3)
	require.NoError(t, cmd.Validate())

	cmd.ListingID = ""
	assert.ErrorIs(t, cmd.Validate(), ErrMissingInput)
}

func TestRequestBookingHappyPath(t *testing.T) {
	env := newTestEnv()
	env.seedListing("lst-1", "host-1")
	h := &RequestBookingHandler{UoWFactory: env.factory, Outbox: env.outbox, Clock: fixedClock}

	result, err := h.Handle(context.Background(), requestCmd("bkg-1", "lst-1", "guest-1", 10, 3))
	require.NoError(t, err)
	assert.Equal(t, "bkg-1", result.Booking.ID)
	assert.Equal(t, "pending", result.Booking.Status)
	assert.Equal(t, int64(40304), result.Booking.Pricing.Total.Amount)
	assert.Equal(t, "host-1", result.Booking.HostID)

	stored, err := env.bookings.ByID(context.Background(), "bkg-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusPending, stored.Status)

	records := env.outbox.Pending()
	require.Len(t, records, 1)
	assert.Equal(t, "booking.requested", records[0].Name)
}

func TestRequestBookingRejectsOverlap(t *testing.T) {
	env := newTestEnv()
	env.seedListing("lst-1", "host-1")
	h := &RequestBookingHandler{UoWFactory: env.factory, Outbox: env.outbox, Clock: fixedClock}

	_, err := h.Handle(context.Background(), requestCmd("bkg-1", "lst-1", "guest-1", 10, 4))
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), requestCmd("bkg-2", "lst-1", "guest-2", 12, 4))
	assert.ErrorIs(t, err, ErrDatesUnavailable)

	// Back-to-back stays share a boundary day without conflict.
	_, err = h.Handle(context.Background(), requestCmd("bkg-3", "lst-1", "guest-2", 14, 3))
	assert.NoError(t, err)
}

func TestRequestBookingCancelledDatesFreeUp(t *testing.T) {
	env := newTestEnv()
	env.seedListing("lst-1", "host-1")
	h := &RequestBookingHandler{UoWFactory: env.factory, Outbox: env.outbox, Clock: fixedClock}

	first, err := h.Handle(context.Background(), requestCmd("bkg-1", "lst-1", "guest-1", 10, 4))
	require.NoError(t, err)

	stored, err := env.bookings.ByID(context.Background(), domainbooking.BookingID(first.Booking.ID))
	require.NoError(t, err)
	_, err = stored.Cancel(domainbooking.PartyGuest, "", domainlistings.PolicyModerate, testNow)
	require.NoError(t, err)
	require.NoError(t, env.bookings.Save(context.Background(), stored))

	_, err = h.Handle(context.Background(), requestCmd("bkg-2", "lst-1", "guest-2", 10, 4))
	assert.NoError(t, err, "cancelled bookings no longer block the calendar")
}

func TestRequestBookingPreconditions(t *testing.T) {
	env := newTestEnv()
	env.seedListing("lst-1", "host-1")
	h := &RequestBookingHandler{UoWFactory: env.factory, Outbox: env.outbox, Clock: fixedClock}

	t.Run("unknown listing", func(t *testing.T) {
		_, err := h.Handle(context.Background(), requestCmd("bkg-1", "lst-404", "guest-1", 10, 3))
		assert.ErrorIs(t, err, domainlistings.ErrListingNotFound)
	})

	t.Run("own listing", func(t *testing.T) {
		_, err := h.Handle(context.Background(), requestCmd("bkg-2", "lst-1", "host-1", 10, 3))
		assert.ErrorIs(t, err, domainbooking.ErrOwnListing)
	})

	t.Run("check-in today", func(t *testing.T) {
		_, err := h.Handle(context.Background(), requestCmd("bkg-3", "lst-1", "guest-1", 0, 3))
		assert.ErrorIs(t, err, domainbooking.ErrCheckInNotFuture)
	})

	t.Run("capacity", func(t *testing.T) {
		cmd := requestCmd("bkg-4", "lst-1", "guest-1", 10, 3)
		cmd.Guests = domainbooking.GuestCounts{Adults: 3, Children: 1, Infants: 1}
		_, err := h.Handle(context.Background(), cmd)
		assert.ErrorIs(t, err, domainbooking.ErrCapacityExceeded)
	})

	t.Run("nothing persisted on failure", func(t *testing.T) {
		_, err := env.bookings.ByID(context.Background(), "bkg-3")
		assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
	})
}
