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
	"stayfinder/internal/domain/shared/money"
)

const refundKey = "payments.refund"

var (
	// ErrRefundForbidden guards refund issuing to the host or an admin.
	ErrRefundForbidden = errors.New("payments: only the host or an admin can issue a refund")
	// ErrNothingToRefund means the policy yielded a zero refund.
	ErrNothingToRefund = errors.New("payments: refund amount is zero")
)

type RefundCommand struct {
	BookingID string
	Actor     policies.Principal
	// AmountCents overrides the recorded refund when positive. Admin only.
	AmountCents int64
}

func (c RefundCommand) Key() string { return refundKey }

func (c RefundCommand) Validate() error {
	switch {
	case c.BookingID == "":
		return fmt.Errorf("%w: booking id", ErrMissingInput)
	case c.Actor.UserID == "":
		return fmt.Errorf("%w: actor id", ErrMissingInput)
	case c.AmountCents < 0:
		return fmt.Errorf("%w: refund amount must not be negative", ErrMissingInput)
	}
	return nil
}

type RefundResult struct {
	RefundID string       `json:"refund_id"`
	Amount   dto.MoneyDTO `json:"amount"`
}

// RefundHandler executes a previously recorded refund against the payment
// collaborator. The amount defaults to what the cancellation policy yielded
// at cancellation time.
type RefundHandler struct {
	Payments policies.PaymentsPort
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
	Clock    func() time.Time
}

func (h *RefundHandler) Handle(ctx context.Context, cmd RefundCommand) (*RefundResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	if cmd.Actor.UserID != string(b.HostID) && !cmd.Actor.IsAdmin() {
		return nil, ErrRefundForbidden
	}
	if b.Payment.IntentID == "" {
		return nil, domainbooking.ErrNoPaymentIntent
	}
	if b.PaymentStatus != domainbooking.PaymentPaid {
		return nil, domainbooking.ErrNotPaid
	}

	amount := h.resolveAmount(b, cmd)
	if !amount.IsPositive() {
		return nil, ErrNothingToRefund
	}

	refund, err := h.Payments.CreateRefund(ctx, policies.RefundParams{
		IntentID:  b.Payment.IntentID,
		BookingID: string(b.ID),
		Amount:    amount,
	})
	if err != nil {
		return nil, err
	}

	if err := b.MarkRefunded(refund.Amount, h.now()); err != nil {
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
		h.Logger.Info("refund issued", "booking_id", b.ID, "refund_id", refund.ID, "amount_cents", refund.Amount.Amount)
	}
	return &RefundResult{RefundID: refund.ID, Amount: dto.MapMoney(refund.Amount)}, nil
}

// resolveAmount prefers an explicit admin override, then the cancellation
// record, then the full total for bookings refunded without a cancellation.
func (h *RefundHandler) resolveAmount(b *domainbooking.Booking, cmd RefundCommand) money.Money {
	if cmd.AmountCents > 0 && cmd.Actor.IsAdmin() {
		return money.Money{Amount: cmd.AmountCents, Currency: b.Price.Total.Currency}
	}
	if b.Cancellation != nil {
		return b.Cancellation.RefundAmount
	}
	return b.Price.Total
}

func (h *RefundHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *RefundHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[RefundCommand, *RefundResult] = (*RefundHandler)(nil)
