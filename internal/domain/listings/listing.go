package listings

import (
	"context"
	"errors"

	"stayfinder/internal/domain/shared/money"
)

var (
	ErrListingNotFound = errors.New("listings: not found")
	ErrNotBookable     = errors.New("listings: listing is not active")
)

type ListingID string
type HostID string

// Status mirrors the catalog's lifecycle; only active listings accept bookings.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

// CancellationPolicy is the refund schedule attached to a listing.
type CancellationPolicy string

const (
	PolicyFlexible    CancellationPolicy = "flexible"
	PolicyModerate    CancellationPolicy = "moderate"
	PolicyStrict      CancellationPolicy = "strict"
	PolicySuperStrict CancellationPolicy = "super-strict"
)

func (p CancellationPolicy) Valid() bool {
	switch p {
	case PolicyFlexible, PolicyModerate, PolicyStrict, PolicySuperStrict:
		return true
	}
	return false
}

// PricingRules are the listing's published rates. Percentages are whole
// numbers (a weekly discount of 10 means 10%).
type PricingRules struct {
	BasePrice          money.Money
	WeeklyDiscountPct  int
	MonthlyDiscountPct int
	CleaningFee        money.Money
}

type Capacity struct {
	Guests int
}

type Location struct {
	Address string
	City    string
	Country string
}

// Listing is a read model of the external listing catalog. The booking core
// never mutates it; the catalog service owns writes.
type Listing struct {
	ID                 ListingID
	Host               HostID
	Title              string
	Location           Location
	Pricing            PricingRules
	Capacity           Capacity
	CancellationPolicy CancellationPolicy
	Status             Status
}

// Bookable reports whether the listing currently accepts reservations.
func (l *Listing) Bookable() bool {
	return l.Status == StatusActive
}

// Directory is the read-only port to the listing catalog.
type Directory interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
}
