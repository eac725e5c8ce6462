package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stayfinder/internal/app/commands"
	"stayfinder/internal/app/dto"
	"stayfinder/internal/app/outbox"
	"stayfinder/internal/app/policies"
	"stayfinder/internal/app/uow"
	domainbooking "stayfinder/internal/domain/booking"
)

const confirmPaymentKey = "payments.confirm"

// ErrPaymentNotSucceeded means the collaborator has not captured the charge
// yet; the booking stays pending and the guest can retry.
var ErrPaymentNotSucceeded = errors.New("payments: intent has not succeeded")

type ConfirmPaymentCommand struct {
	BookingID string
	ActorID   string
}

func (c ConfirmPaymentCommand) Key() string { return confirmPaymentKey }

func (c ConfirmPaymentCommand) Validate() error {
	switch {
	case c.BookingID == "":
		return fmt.Errorf("%w: booking id", ErrMissingInput)
	case c.ActorID == "":
		return fmt.Errorf("%w: actor id", ErrMissingInput)
	}
	return nil
}

type ConfirmPaymentResult struct {
	Booking dto.BookingDTO `json:"booking"`
}

// ConfirmPaymentHandler verifies the intent's state with the collaborator
// rather than trusting the client. Only a succeeded intent marks the booking
// paid and confirmed.
type ConfirmPaymentHandler struct {
	Payments policies.PaymentsPort
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
	Clock    func() time.Time
}

func (h *ConfirmPaymentHandler) Handle(ctx context.Context, cmd ConfirmPaymentCommand) (*ConfirmPaymentResult, error) {
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
	if b.Payment.IntentID == "" {
		return nil, domainbooking.ErrNoPaymentIntent
	}

	intent, err := h.Payments.RetrieveIntent(ctx, b.Payment.IntentID)
	if err != nil {
		return nil, err
	}
	if intent.Status != policies.IntentSucceeded {
		return nil, ErrPaymentNotSucceeded
	}

	if err := b.MarkPaid(intent.ChargeID, intent.PaymentMethod, h.now()); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}

	pending := b.PendingEvents()
	b.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("payment confirmed", "booking_id", b.ID, "intent_id", b.Payment.IntentID, "charge_id", b.Payment.ChargeID)
	}
	return &ConfirmPaymentResult{Booking: dto.MapBooking(b, nil)}, nil
}

func (h *ConfirmPaymentHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *ConfirmPaymentHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[ConfirmPaymentCommand, *ConfirmPaymentResult] = (*ConfirmPaymentHandler)(nil)
