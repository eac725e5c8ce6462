package booking

import (
	"context"
	"errors"
	"fmt"

	"stayfinder/internal/app/dto"
	handlersupport "stayfinder/internal/app/handlers/support"
	"stayfinder/internal/app/queries"
	"stayfinder/internal/app/uow"
	domainbooking "stayfinder/internal/domain/booking"
	domainlistings "stayfinder/internal/domain/listings"
)

const getBookingKey = "booking.get"

type GetBookingQuery struct {
	BookingID string
	ActorID   string
}

func (q GetBookingQuery) Key() string { return getBookingKey }

func (q GetBookingQuery) Validate() error {
	switch {
	case q.BookingID == "":
		return fmt.Errorf("%w: booking id", ErrMissingInput)
	case q.ActorID == "":
		return fmt.Errorf("%w: actor id", ErrMissingInput)
	}
	return nil
}

type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.BookingDTO, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingDTO{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	b, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.BookingDTO{}, err
	}
	if !b.IsParticipant(q.ActorID) {
		return dto.BookingDTO{}, ErrNotParticipant
	}

	listing, err := unit.Listings().ByID(execCtx, b.ListingID)
	if err != nil && !errors.Is(err, domainlistings.ErrListingNotFound) {
		return dto.BookingDTO{}, err
	}

	return dto.MapBooking(b, listing), nil
}

var _ queries.Handler[GetBookingQuery, dto.BookingDTO] = (*GetBookingHandler)(nil)
