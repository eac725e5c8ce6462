package payments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayfinder/internal/app/policies"
	"stayfinder/internal/app/uow"
	domainbooking "stayfinder/internal/domain/booking"
	domainlistings "stayfinder/internal/domain/listings"
	domainrange "stayfinder/internal/domain/shared/daterange"
	"stayfinder/internal/domain/shared/money"
	infrapayments "stayfinder/internal/infra/payments"
	"stayfinder/internal/infra/storage/memory"
)

var testNow = time.Date(2026, time.May, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type testEnv struct {
	listings *memory.ListingDirectory
	bookings *memory.BookingRepository
	factory  *memory.Factory
	outbox   *memory.Outbox
	gateway  *infrapayments.FakeGateway
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		listings: memory.NewListingDirectory(),
		bookings: memory.NewBookingRepository(),
		outbox:   memory.NewOutbox(),
		gateway:  infrapayments.NewFakeGateway(),
	}
	env.factory = memory.NewFactory(env.listings, env.bookings)

	listing := &domainlistings.Listing{
		ID:   "lst-1",
		Host: "host-1",
		Pricing: domainlistings.PricingRules{
			BasePrice:   money.Cents(10000),
			CleaningFee: money.Cents(2000),
		},
		Capacity:           domainlistings.Capacity{Guests: 4},
		CancellationPolicy: domainlistings.PolicyModerate,
		Status:             domainlistings.StatusActive,
	}
	env.listings.Put(listing)

	checkIn := domainrange.Day(testNow).AddDate(0, 0, 10)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:      "bkg-1",
		Listing: listing,
		GuestID: "guest-1",
		Range:   domainrange.DateRange{CheckIn: checkIn, CheckOut: checkIn.AddDate(0, 0, 3)},
		Guests:  domainbooking.GuestCounts{Adults: 2},
		Now:     testNow,
	})
	require.NoError(t, err)
	b.ClearEvents()
	require.NoError(t, env.bookings.Save(context.Background(), b))
	return env
}

func (e *testEnv) withUnit(t *testing.T, fn func(ctx context.Context)) {
	t.Helper()
	unit, err := e.factory.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	ctx := uow.ContextWithUnitOfWork(context.Background(), unit)
	defer func() { require.NoError(t, unit.Commit(ctx)) }()
	fn(ctx)
}

func (e *testEnv) booking(t *testing.T) *domainbooking.Booking {
	t.Helper()
	b, err := e.bookings.ByID(context.Background(), "bkg-1")
	require.NoError(t, err)
	return b
}

func (e *testEnv) createIntent(t *testing.T) string {
	t.Helper()
	h := &CreateIntentHandler{Payments: e.gateway, Clock: fixedClock}
	var intentID string
	e.withUnit(t, func(ctx context.Context) {
		result, err := h.Handle(ctx, CreateIntentCommand{BookingID: "bkg-1", ActorID: "guest-1"})
		require.NoError(t, err)
		intentID = result.IntentID
	})
	return intentID
}

func TestCreateIntent(t *testing.T) {
	env := newTestEnv(t)
	h := &CreateIntentHandler{Payments: env.gateway, Clock: fixedClock}

	env.withUnit(t, func(ctx context.Context) {
		result, err := h.Handle(ctx, CreateIntentCommand{BookingID: "bkg-1", ActorID: "guest-1"})
		require.NoError(t, err)
		assert.NotEmpty(t, result.IntentID)
		assert.NotEmpty(t, result.ClientSecret)
		assert.Equal(t, int64(40304), result.Amount.Amount, "intent sized to the booking total")
	})

	assert.NotEmpty(t, env.booking(t).Payment.IntentID)
}

func TestCreateIntentGuestOnly(t *testing.T) {
	env := newTestEnv(t)
	h := &CreateIntentHandler{Payments: env.gateway, Clock: fixedClock}

	env.withUnit(t, func(ctx context.Context) {
		_, err := h.Handle(ctx, CreateIntentCommand{BookingID: "bkg-1", ActorID: "host-1"})
		assert.ErrorIs(t, err, ErrNotGuest)
	})
}

func TestConfirmPaymentRequiresSucceededIntent(t *testing.T) {
	env := newTestEnv(t)
	intentID := env.createIntent(t)
	h := &ConfirmPaymentHandler{Payments: env.gateway, Outbox: env.outbox, Clock: fixedClock}

	env.withUnit(t, func(ctx context.Context) {
		_, err := h.Handle(ctx, ConfirmPaymentCommand{BookingID: "bkg-1", ActorID: "guest-1"})
		assert.ErrorIs(t, err, ErrPaymentNotSucceeded)
	})
	assert.Equal(t, domainbooking.PaymentPending, env.booking(t).PaymentStatus, "unsucceeded intent changes nothing")

	env.gateway.SucceedIntent(intentID, "card")
	env.withUnit(t, func(ctx context.Context) {
		result, err := h.Handle(ctx, ConfirmPaymentCommand{BookingID: "bkg-1", ActorID: "guest-1"})
		require.NoError(t, err)
		assert.Equal(t, "paid", result.Booking.PaymentStatus)
		assert.Equal(t, "confirmed", result.Booking.Status)
	})
}

func TestConfirmPaymentWithoutIntent(t *testing.T) {
	env := newTestEnv(t)
	h := &ConfirmPaymentHandler{Payments: env.gateway, Outbox: env.outbox, Clock: fixedClock}

	env.withUnit(t, func(ctx context.Context) {
		_, err := h.Handle(ctx, ConfirmPaymentCommand{BookingID: "bkg-1", ActorID: "guest-1"})
		assert.ErrorIs(t, err, domainbooking.ErrNoPaymentIntent)
	})
}

func TestWebhookMarksPaidOnce(t *testing.T) {
	env := newTestEnv(t)
	intentID := env.createIntent(t)
	h := &WebhookHandler{Outbox: env.outbox, Clock: fixedClock}

	env.withUnit(t, func(ctx context.Context) {
		result, err := h.Handle(ctx, WebhookCommand{EventType: EventIntentSucceeded, IntentID: intentID, ChargeID: "ch_1", Method: "card"})
		require.NoError(t, err)
		assert.True(t, result.Handled)
	})
	b := env.booking(t)
	assert.Equal(t, domainbooking.PaymentPaid, b.PaymentStatus)
	assert.Equal(t, domainbooking.StatusConfirmed, b.Status)
	assert.Equal(t, "ch_1", b.Payment.ChargeID)

	// Redelivery of the same event acknowledges without touching the booking.
	env.withUnit(t, func(ctx context.Context) {
		result, err := h.Handle(ctx, WebhookCommand{EventType: EventIntentSucceeded, IntentID: intentID, ChargeID: "ch_2", Method: "card"})
		require.NoError(t, err)
		assert.False(t, result.Handled)
	})
	assert.Equal(t, "ch_1", env.booking(t).Payment.ChargeID)
}

func TestWebhookFailureKeepsBookingOpen(t *testing.T) {
	env := newTestEnv(t)
	intentID := env.createIntent(t)
	h := &WebhookHandler{Outbox: env.outbox, Clock: fixedClock}

	env.withUnit(t, func(ctx context.Context) {
		result, err := h.Handle(ctx, WebhookCommand{EventType: EventIntentFailed, IntentID: intentID})
		require.NoError(t, err)
		assert.True(t, result.Handled)
	})
	b := env.booking(t)
	assert.Equal(t, domainbooking.PaymentFailed, b.PaymentStatus)
	assert.Equal(t, domainbooking.StatusPending, b.Status)
}

func TestWebhookSuccessAfterCancellation(t *testing.T) {
	env := newTestEnv(t)
	intentID := env.createIntent(t)
	h := &WebhookHandler{Outbox: env.outbox, Clock: fixedClock}

	b := env.booking(t)
	_, err := b.Cancel(domainbooking.PartyGuest, "", domainlistings.PolicyModerate, testNow)
	require.NoError(t, err)
	require.NoError(t, env.bookings.Save(context.Background(), b))

	env.withUnit(t, func(ctx context.Context) {
		result, err := h.Handle(ctx, WebhookCommand{EventType: EventIntentSucceeded, IntentID: intentID, ChargeID: "ch_1", Method: "card"})
		require.NoError(t, err)
		assert.False(t, result.Handled, "a late capture must not reopen the booking")
	})
	after := env.booking(t)
	assert.Equal(t, domainbooking.StatusCancelled, after.Status)
	assert.Equal(t, domainbooking.PaymentPending, after.PaymentStatus)
}

func TestWebhookIgnoresUnknownEventsAndIntents(t *testing.T) {
	env := newTestEnv(t)
	h := &WebhookHandler{Outbox: env.outbox, Clock: fixedClock}

	env.withUnit(t, func(ctx context.Context) {
		result, err := h.Handle(ctx, WebhookCommand{EventType: "customer.updated", IntentID: "pi_x"})
		require.NoError(t, err)
		assert.False(t, result.Handled)

		result, err = h.Handle(ctx, WebhookCommand{EventType: EventIntentSucceeded, IntentID: "pi_unknown"})
		require.NoError(t, err)
		assert.False(t, result.Handled)
	})
}

func TestRefundFlow(t *testing.T) {
	env := newTestEnv(t)
	intentID := env.createIntent(t)
	env.gateway.SucceedIntent(intentID, "card")

	confirm := &ConfirmPaymentHandler{Payments: env.gateway, Outbox: env.outbox, Clock: fixedClock}
	env.withUnit(t, func(ctx context.Context) {
		_, err := confirm.Handle(ctx, ConfirmPaymentCommand{BookingID: "bkg-1", ActorID: "guest-1"})
		require.NoError(t, err)
	})

	// Guest cancels four days out: moderate policy halves the refund.
	b := env.booking(t)
	fourDaysOut := testNow.AddDate(0, 0, 6)
	_, err := b.Cancel(domainbooking.PartyGuest, "", domainlistings.PolicyModerate, fourDaysOut)
	require.NoError(t, err)
	require.NoError(t, env.bookings.Save(context.Background(), b))

	refund := &RefundHandler{Payments: env.gateway, Outbox: env.outbox, Clock: fixedClock}
	env.withUnit(t, func(ctx context.Context) {
		result, err := refund.Handle(ctx, RefundCommand{BookingID: "bkg-1", Actor: policies.Principal{UserID: "host-1"}})
		require.NoError(t, err)
		assert.Equal(t, int64(20152), result.Amount.Amount)
	})
	assert.Equal(t, domainbooking.PaymentRefunded, env.booking(t).PaymentStatus)
}

func TestRefundAuthorization(t *testing.T) {
	env := newTestEnv(t)
	refund := &RefundHandler{Payments: env.gateway, Outbox: env.outbox, Clock: fixedClock}

	env.withUnit(t, func(ctx context.Context) {
		_, err := refund.Handle(ctx, RefundCommand{BookingID: "bkg-1", Actor: policies.Principal{UserID: "guest-1"}})
		assert.ErrorIs(t, err, ErrRefundForbidden)
	})

	env.withUnit(t, func(ctx context.Context) {
		_, err := refund.Handle(ctx, RefundCommand{BookingID: "bkg-1", Actor: policies.Principal{UserID: "host-1"}})
		assert.ErrorIs(t, err, domainbooking.ErrNoPaymentIntent)
	})
}

func TestRefundRequiresCapturedPayment(t *testing.T) {
	env := newTestEnv(t)
	env.createIntent(t)
	refund := &RefundHandler{Payments: env.gateway, Outbox: env.outbox, Clock: fixedClock}

	env.withUnit(t, func(ctx context.Context) {
		_, err := refund.Handle(ctx, RefundCommand{BookingID: "bkg-1", Actor: policies.Principal{UserID: "host-1"}})
		assert.ErrorIs(t, err, domainbooking.ErrNotPaid)
	})
}
