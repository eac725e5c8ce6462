package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stayfinder/internal/app/commands"
	"stayfinder/internal/app/outbox"
	"stayfinder/internal/app/uow"
	domainbooking "stayfinder/internal/domain/booking"
)

const webhookKey = "payments.webhook"

// Collaborator event types the core reacts to. Anything else is acknowledged
// and dropped so the collaborator does not retry forever.
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

type WebhookCommand struct {
	EventType string
	IntentID  string
	ChargeID  string
	Method    string
}

func (c WebhookCommand) Key() string { return webhookKey }

func (c WebhookCommand) Validate() error {
	if c.EventType == "" {
		return fmt.Errorf("%w: event type", ErrMissingInput)
	}
	return nil
}

type WebhookResult struct {
	Handled bool `json:"handled"`
}

// WebhookHandler applies collaborator notifications keyed by intent id.
// Deliveries are at-least-once, so a success event for an already paid
// booking, or one that has since been cancelled or completed, is a no-op,
// not an error.
type WebhookHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
	Clock   func() time.Time
}

func (h *WebhookHandler) Handle(ctx context.Context, cmd WebhookCommand) (*WebhookResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	if cmd.EventType != EventIntentSucceeded && cmd.EventType != EventIntentFailed {
		if h.Logger != nil {
			h.Logger.Debug("ignoring webhook event", "event_type", cmd.EventType)
		}
		return &WebhookResult{Handled: false}, nil
	}

	b, err := unit.Bookings().ByIntentID(ctx, cmd.IntentID)
	if err != nil {
		if errors.Is(err, domainbooking.ErrBookingNotFound) {
			if h.Logger != nil {
				h.Logger.Warn("webhook for unknown intent", "intent_id", cmd.IntentID, "event_type", cmd.EventType)
			}
			return &WebhookResult{Handled: false}, nil
		}
		return nil, err
	}

	now := h.now()
	switch cmd.EventType {
	case EventIntentSucceeded:
		if err := b.MarkPaid(cmd.ChargeID, cmd.Method, now); err != nil {
			if errors.Is(err, domainbooking.ErrAlreadyPaid) || errors.Is(err, domainbooking.ErrBookingClosed) {
				return &WebhookResult{Handled: false}, nil
			}
			return nil, err
		}
	case EventIntentFailed:
		if err := b.MarkPaymentFailed(now); err != nil {
			if errors.Is(err, domainbooking.ErrAlreadyPaid) {
				return &WebhookResult{Handled: false}, nil
			}
			return nil, err
		}
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
		h.Logger.Info("webhook applied", "booking_id", b.ID, "event_type", cmd.EventType, "payment_status", b.PaymentStatus)
	}
	return &WebhookResult{Handled: true}, nil
}

func (h *WebhookHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *WebhookHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[WebhookCommand, *WebhookResult] = (*WebhookHandler)(nil)
