package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stayfinder/internal/app/commands"
	"stayfinder/internal/app/dto"
	"stayfinder/internal/app/policies"
	"stayfinder/internal/app/uow"
	domainbooking "stayfinder/internal/domain/booking"
)

const createIntentKey = "payments.create_intent"

var (
	// ErrNotGuest guards payment operations open to the booking's guest only.
	ErrNotGuest = errors.New("payments: only the guest can pay for a booking")
	// ErrBookingClosed rejects payment on cancelled or completed bookings.
	ErrBookingClosed = errors.New("payments: booking is no longer payable")
	// ErrMissingInput is returned by command validation before a handler runs.
	ErrMissingInput = errors.New("payments: required request fields missing")
)

type CreateIntentCommand struct {
	BookingID string
	ActorID   string
}

func (c CreateIntentCommand) Key() string { return createIntentKey }

func (c CreateIntentCommand) Validate() error {
	switch {
	case c.BookingID == "":
		return fmt.Errorf("%w: booking id", ErrMissingInput)
	case c.ActorID == "":
		return fmt.Errorf("%w: actor id", ErrMissingInput)
	}
	return nil
}

type CreateIntentResult struct {
	IntentID     string       `json:"intent_id"`
	ClientSecret string       `json:"client_secret"`
	Amount       dto.MoneyDTO `json:"amount"`
}

// CreateIntentHandler asks the payment collaborator for an intent sized to
// the booking's total and stores the intent handle on the booking.
type CreateIntentHandler struct {
	Payments policies.PaymentsPort
	Logger   *slog.Logger
	Clock    func() time.Time
}

func (h *CreateIntentHandler) Handle(ctx context.Context, cmd CreateIntentCommand) (*CreateIntentResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	if cmd.ActorID != string(b.GuestID) {
		return nil, ErrNotGuest
	}
	if b.Status.Terminal() {
		return nil, ErrBookingClosed
	}
	if b.PaymentStatus == domainbooking.PaymentPaid {
		return nil, domainbooking.ErrAlreadyPaid
	}

	intent, err := h.Payments.CreateIntent(ctx, policies.IntentParams{
		BookingID:   string(b.ID),
		Amount:      b.Price.Total,
		Description: "stay booking " + string(b.ID),
		Metadata: map[string]string{
			"booking_id": string(b.ID),
			"listing_id": string(b.ListingID),
		},
	})
	if err != nil {
		return nil, err
	}

	if err := b.AttachPaymentIntent(intent.ID, h.now()); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("payment intent created", "booking_id", b.ID, "intent_id", intent.ID, "amount_cents", b.Price.Total.Amount)
	}
	return &CreateIntentResult{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       dto.MapMoney(b.Price.Total),
	}, nil
}

func (h *CreateIntentHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[CreateIntentCommand, *CreateIntentResult] = (*CreateIntentHandler)(nil)
