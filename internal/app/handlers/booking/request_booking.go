package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stayfinder/internal/app/commands"
	"stayfinder/internal/app/dto"
	"stayfinder/internal/app/middleware"
	"stayfinder/internal/app/outbox"
	"stayfinder/internal/app/uow"
	domainbooking "stayfinder/internal/domain/booking"
	domainlistings "stayfinder/internal/domain/listings"
	domainrange "stayfinder/internal/domain/shared/daterange"
)

const requestBookingKey = "booking.request"

// ErrDatesUnavailable means another pending or confirmed booking holds at
// least one night of the requested range.
var ErrDatesUnavailable = errors.New("booking: listing is not available for the selected dates")

var ErrUnitOfWorkRequired = errors.New("booking: unit of work required")

// ErrMissingInput is returned by command validation before a handler runs.
var ErrMissingInput = errors.New("booking: required request fields missing")

type RequestBookingCommand struct {
	CommandID       string
	ListingID       string
	GuestID         string
	CheckIn         time.Time
	CheckOut        time.Time
	Guests          domainbooking.GuestCounts
	SpecialRequests string
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) Validate() error {
	switch {
	case c.CommandID == "":
		return fmt.Errorf("%w: command id", ErrMissingInput)
	case c.ListingID == "":
		return fmt.Errorf("%w: listing id", ErrMissingInput)
	case c.GuestID == "":
		return fmt.Errorf("%w: guest id", ErrMissingInput)
	case c.CheckIn.IsZero() || c.CheckOut.IsZero():
		return fmt.Errorf("%w: check-in and check-out dates", ErrMissingInput)
	}
	return nil
}

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

type RequestBookingResult struct {
	Booking dto.BookingDTO `json:"booking"`
}

// RequestBookingHandler runs the creation precondition chain and persists the
// booking. The availability check and the insert share one unit of work, so
// of two concurrent requests for overlapping dates exactly one can commit.
type RequestBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}

	// The aggregate validates the range itself; building it unvalidated
	// keeps the precondition order (check-in guard before range guard).
	dr := domainrange.DateRange{CheckIn: domainrange.Day(cmd.CheckIn), CheckOut: domainrange.Day(cmd.CheckOut)}

	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:              domainbooking.BookingID(cmd.CommandID),
		Listing:         listing,
		GuestID:         domainbooking.GuestID(cmd.GuestID),
		Range:           dr,
		Guests:          cmd.Guests,
		SpecialRequests: cmd.SpecialRequests,
		Now:             h.now(),
	})
	if err != nil {
		return nil, err
	}

	conflict, err := unit.Bookings().HasBlockingOverlap(ctx, listing.ID, dr)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, ErrDatesUnavailable
	}

	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}

	pending := b.PendingEvents()
	b.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	return &RequestBookingResult{Booking: dto.MapBooking(b, listing)}, nil
}

func (h *RequestBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *RequestBookingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestBookingCommand)(nil)
