package booking

import (
	"context"

	"stayfinder/internal/domain/listings"
	"stayfinder/internal/domain/shared/daterange"
)

// ListFilter narrows and pages booking listings.
type ListFilter struct {
	Status Status
	Page   int
	Limit  int
}

func (f ListFilter) Normalized() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	return f
}

// PageResult is one page of bookings plus the unpaged total.
type PageResult struct {
	Items []*Booking
	Total int
}

// Repository persists booking aggregates. HasBlockingOverlap and Save must be
// executed inside the same unit of work so that two concurrent requests for
// overlapping dates cannot both pass the availability check.
type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	ByIntentID(ctx context.Context, intentID string) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	HasBlockingOverlap(ctx context.Context, listingID listings.ListingID, dr daterange.DateRange) (bool, error)
	ListByGuest(ctx context.Context, guestID GuestID, filter ListFilter) (PageResult, error)
	ListByHost(ctx context.Context, hostID listings.HostID, filter ListFilter) (PageResult, error)
}
