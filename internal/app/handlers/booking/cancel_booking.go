package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stayfinder/internal/app/commands"
	"stayfinder/internal/app/dto"
	"stayfinder/internal/app/outbox"
	"stayfinder/internal/app/uow"
	domainbooking "stayfinder/internal/domain/booking"
)

const cancelBookingKey = "booking.cancel"

// ErrNotParticipant guards operations open to the booking's guest or host only.
var ErrNotParticipant = errors.New("booking: caller is neither guest nor host")

type CancelBookingCommand struct {
	BookingID string
	ActorID   string
	Reason    string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

func (c CancelBookingCommand) Validate() error {
	switch {
	case c.BookingID == "":
		return fmt.Errorf("%w: booking id", ErrMissingInput)
	case c.ActorID == "":
		return fmt.Errorf("%w: actor id", ErrMissingInput)
	}
	return nil
}

type CancelBookingResult struct {
	Booking      dto.BookingDTO `json:"booking"`
	RefundAmount dto.MoneyDTO   `json:"refund_amount"`
}

// CancelBookingHandler ends a booking on behalf of its guest or host. The
// refund comes from the listing's current policy; execution against the
// payment collaborator is the separate refund operation.
type CancelBookingHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
	Clock   func() time.Time
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*CancelBookingResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}

	var by domainbooking.Party
	switch cmd.ActorID {
	case string(b.GuestID):
		by = domainbooking.PartyGuest
	case string(b.HostID):
		by = domainbooking.PartyHost
	default:
		return nil, ErrNotParticipant
	}

	listing, err := unit.Listings().ByID(ctx, b.ListingID)
	if err != nil {
		return nil, err
	}

	refund, err := b.Cancel(by, cmd.Reason, listing.CancellationPolicy, h.now())
	if err != nil {
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
		h.Logger.Info("booking cancelled", "booking_id", b.ID, "cancelled_by", by, "refund_cents", refund.Amount)
	}
	return &CancelBookingResult{
		Booking:      dto.MapBooking(b, listing),
		RefundAmount: dto.MapMoney(refund),
	}, nil
}

func (h *CancelBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *CancelBookingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[CancelBookingCommand, *CancelBookingResult] = (*CancelBookingHandler)(nil)
