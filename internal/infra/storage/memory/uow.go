package memory

import (
	"context"
	"errors"
	"sync"

	"stayfinder/internal/app/uow"
	domainbooking "stayfinder/internal/domain/booking"
	domainlistings "stayfinder/internal/domain/listings"
)

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Factory wires in-memory repositories into a unit-of-work boundary. Write
// units take a process-wide lock so the availability check and the insert of
// concurrent booking requests are serialized, and snapshot the booking store
// so Rollback discards saves made inside the unit, mirroring what a database
// transaction gives the mongo implementation.
type Factory struct {
	Listings *ListingDirectory
	Bookings *BookingRepository

	writeMu sync.Mutex
}

func NewFactory(listings *ListingDirectory, bookings *BookingRepository) *Factory {
	return &Factory{Listings: listings, Bookings: bookings}
}

func (f *Factory) Begin(_ context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Listings == nil || f.Bookings == nil {
		return nil, ErrFactoryMisconfigured
	}
	unit := &Unit{listings: f.Listings, bookings: f.Bookings}
	if !opts.ReadOnly {
		f.writeMu.Lock()
		unit.unlock = f.writeMu.Unlock
		unit.undo = f.Bookings.snapshot()
	}
	return unit, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	listings *ListingDirectory
	bookings *BookingRepository

	mu     sync.Mutex
	unlock func()
	undo   map[domainbooking.BookingID]*domainbooking.Booking
	done   bool
}

func (u *Unit) Listings() domainlistings.Directory { return u.listings }
func (u *Unit) Bookings() domainbooking.Repository { return u.bookings }
func (u *Unit) Commit(context.Context) error       { u.finish(false); return nil }
func (u *Unit) Rollback(context.Context) error     { u.finish(true); return nil }

func (u *Unit) finish(rollback bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return
	}
	u.done = true
	if rollback && u.undo != nil {
		u.bookings.restore(u.undo)
	}
	u.undo = nil
	if u.unlock != nil {
		u.unlock()
	}
}

var _ uow.UoWFactory = (*Factory)(nil)
var _ uow.UnitOfWork = (*Unit)(nil)
