package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"stayfinder/internal/app/dto"
	handlersupport "stayfinder/internal/app/handlers/support"
	"stayfinder/internal/app/queries"
	"stayfinder/internal/app/uow"
	domainbooking "stayfinder/internal/domain/booking"
	domainlistings "stayfinder/internal/domain/listings"
)

const listBookingsKey = "booking.list"

// ViewType selects which side of the marketplace the caller wants to see.
const (
	ViewGuest = "guest"
	ViewHost  = "host"
)

type ListBookingsQuery struct {
	ActorID string
	View    string
	Status  string
	Page    int
	Limit   int
}

func (q ListBookingsQuery) Key() string { return listBookingsKey }

func (q ListBookingsQuery) Validate() error {
	if strings.TrimSpace(q.ActorID) == "" {
		return fmt.Errorf("%w: actor id", ErrMissingInput)
	}
	return nil
}

type ListBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListBookingsHandler) Handle(ctx context.Context, q ListBookingsQuery) (dto.BookingCollection, error) {
	actorID := strings.TrimSpace(q.ActorID)
	if actorID == "" {
		return dto.BookingCollection{}, fmt.Errorf("%w: actor id", ErrMissingInput)
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	filter := domainbooking.ListFilter{
		Status: domainbooking.Status(strings.TrimSpace(q.Status)),
		Page:   q.Page,
		Limit:  q.Limit,
	}.Normalized()

	var page domainbooking.PageResult
	switch q.View {
	case ViewHost:
		page, err = unit.Bookings().ListByHost(execCtx, domainlistings.HostID(actorID), filter)
	default:
		page, err = unit.Bookings().ListByGuest(execCtx, domainbooking.GuestID(actorID), filter)
	}
	if err != nil {
		return dto.BookingCollection{}, err
	}

	listingCache := make(map[domainlistings.ListingID]*domainlistings.Listing)
	items := make([]dto.BookingDTO, 0, len(page.Items))
	for _, b := range page.Items {
		listing, ok := listingCache[b.ListingID]
		if !ok {
			listing, err = unit.Listings().ByID(execCtx, b.ListingID)
			if err != nil {
				if !errors.Is(err, domainlistings.ErrListingNotFound) && h.Logger != nil {
					h.Logger.Warn("listing lookup failed for booking", "booking_id", b.ID, "listing_id", b.ListingID, "error", err)
				}
				listing = nil
			}
			listingCache[b.ListingID] = listing
		}
		items = append(items, dto.MapBooking(b, listing))
	}

	return dto.BookingCollection{
		Items:      items,
		Pagination: dto.MapPagination(filter.Page, filter.Limit, page.Total),
	}, nil
}

var _ queries.Handler[ListBookingsQuery, dto.BookingCollection] = (*ListBookingsHandler)(nil)
