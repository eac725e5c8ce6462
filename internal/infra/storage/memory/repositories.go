package memory

import (
	"context"
	"sort"
	"sync"

	domainbooking "stayfinder/internal/domain/booking"
	domainlistings "stayfinder/internal/domain/listings"
	domainrange "stayfinder/internal/domain/shared/daterange"
)

// ListingDirectory is an in-memory listing catalog for tests and demo runs.
type ListingDirectory struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

func NewListingDirectory() *ListingDirectory {
	return &ListingDirectory{items: make(map[domainlistings.ListingID]*domainlistings.Listing)}
}

func (d *ListingDirectory) ByID(_ context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	listing, ok := d.items[id]
	if !ok {
		return nil, domainlistings.ErrListingNotFound
	}
	clone := *listing
	return &clone, nil
}

// Put seeds or updates a catalog entry.
func (d *ListingDirectory) Put(listing *domainlistings.Listing) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items[listing.ID] = listing
}

var _ domainlistings.Directory = (*ListingDirectory)(nil)

// BookingRepository stores bookings in memory. All methods copy aggregates in
// and out so callers never share state with the store.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(_ context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return clone(b), nil
}

func (r *BookingRepository) ByIntentID(_ context.Context, intentID string) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if intentID == "" {
		return nil, domainbooking.ErrBookingNotFound
	}
	for _, b := range r.items {
		if b.Payment.IntentID == intentID {
			return clone(b), nil
		}
	}
	return nil, domainbooking.ErrBookingNotFound
}

func (r *BookingRepository) Save(_ context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking.Version++
	r.items[booking.ID] = clone(booking)
	return nil
}

func (r *BookingRepository) HasBlockingOverlap(_ context.Context, listingID domainlistings.ListingID, dr domainrange.DateRange) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.items {
		if b.ListingID != listingID || !b.Status.Blocking() {
			continue
		}
		if b.Range.Overlaps(dr) {
			return true, nil
		}
	}
	return false, nil
}

func (r *BookingRepository) ListByGuest(_ context.Context, guestID domainbooking.GuestID, filter domainbooking.ListFilter) (domainbooking.PageResult, error) {
	return r.list(filter, func(b *domainbooking.Booking) bool { return b.GuestID == guestID })
}

func (r *BookingRepository) ListByHost(_ context.Context, hostID domainlistings.HostID, filter domainbooking.ListFilter) (domainbooking.PageResult, error) {
	return r.list(filter, func(b *domainbooking.Booking) bool { return b.HostID == hostID })
}

func (r *BookingRepository) list(filter domainbooking.ListFilter, match func(*domainbooking.Booking) bool) (domainbooking.PageResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filter = filter.Normalized()
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if !match(b) {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		matches = append(matches, b)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	total := len(matches)
	start := (filter.Page - 1) * filter.Limit
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}

	items := make([]*domainbooking.Booking, 0, end-start)
	for _, b := range matches[start:end] {
		items = append(items, clone(b))
	}
	return domainbooking.PageResult{Items: items, Total: total}, nil
}

// snapshot copies the whole store so a unit of work can restore it on
// rollback.
func (r *BookingRepository) snapshot() map[domainbooking.BookingID]*domainbooking.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make(map[domainbooking.BookingID]*domainbooking.Booking, len(r.items))
	for id, b := range r.items {
		items[id] = clone(b)
	}
	return items
}

func (r *BookingRepository) restore(items map[domainbooking.BookingID]*domainbooking.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = items
}

func clone(b *domainbooking.Booking) *domainbooking.Booking {
	copied := *b
	if b.Cancellation != nil {
		c := *b.Cancellation
		copied.Cancellation = &c
	}
	copied.ClearEvents()
	return &copied
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
