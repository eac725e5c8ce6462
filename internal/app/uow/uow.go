package uow

import (
	"context"

	domainbooking "stayfinder/internal/domain/booking"
	domainlistings "stayfinder/internal/domain/listings"
)

// UnitOfWork scopes repository access to a transaction boundary. The
// availability check and the booking insert run against the same unit, which
// is what rules out the double-booking race.
type UnitOfWork interface {
	Listings() domainlistings.Directory
	Bookings() domainbooking.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
