package policies

import (
	"context"
	"errors"

	"stayfinder/internal/domain/shared/money"
)

// ErrPaymentUnavailable wraps transport failures from the payment
// collaborator. Callers surface a generic message and log the cause.
var ErrPaymentUnavailable = errors.New("payments: collaborator unavailable")

// IntentSucceeded is the collaborator's terminal success state for an intent.
const IntentSucceeded = "succeeded"

// PaymentIntent is the collaborator's handle for an authorized charge.
// ClientSecret is opaque to the core and passed through to the client.
type PaymentIntent struct {
	ID            string
	ClientSecret  string
	Status        string
	ChargeID      string
	PaymentMethod string
}

type IntentParams struct {
	BookingID   string
	Amount      money.Money
	Description string
	Metadata    map[string]string
}

type RefundParams struct {
	IntentID  string
	BookingID string
	Amount    money.Money
}

type Refund struct {
	ID     string
	Amount money.Money
}

// PaymentsPort is the only view the core has of the payment gateway:
// create an intent sized to a booking total, look an intent up, refund.
type PaymentsPort interface {
	CreateIntent(ctx context.Context, params IntentParams) (PaymentIntent, error)
	RetrieveIntent(ctx context.Context, intentID string) (PaymentIntent, error)
	CreateRefund(ctx context.Context, params RefundParams) (Refund, error)
}
