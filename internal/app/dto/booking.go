package dto

import (
	"time"

	domainbooking "stayfinder/internal/domain/booking"
	domainlistings "stayfinder/internal/domain/listings"
	domainpricing "stayfinder/internal/domain/pricing"
	"stayfinder/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type GuestsDTO struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
	Total    int `json:"total"`
}

type DiscountsDTO struct {
	Weekly  MoneyDTO `json:"weekly"`
	Monthly MoneyDTO `json:"monthly"`
}

type PriceBreakdownDTO struct {
	BasePrice   MoneyDTO     `json:"base_price"`
	Nights      int          `json:"nights"`
	Subtotal    MoneyDTO     `json:"subtotal"`
	CleaningFee MoneyDTO     `json:"cleaning_fee"`
	ServiceFee  MoneyDTO     `json:"service_fee"`
	Taxes       MoneyDTO     `json:"taxes"`
	Discounts   DiscountsDTO `json:"discounts"`
	Total       MoneyDTO     `json:"total"`
}

type ListingSnapshotDTO struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

type CancellationDTO struct {
	CancelledBy  string    `json:"cancelled_by"`
	CancelledAt  time.Time `json:"cancelled_at"`
	Reason       string    `json:"reason,omitempty"`
	RefundAmount MoneyDTO  `json:"refund_amount"`
}

type BookingDTO struct {
	ID              string             `json:"id"`
	Listing         ListingSnapshotDTO `json:"listing"`
	GuestID         string             `json:"guest_id"`
	HostID          string             `json:"host_id"`
	CheckIn         time.Time          `json:"check_in"`
	CheckOut        time.Time          `json:"check_out"`
	Nights          int                `json:"nights"`
	Guests          GuestsDTO          `json:"guests"`
	Pricing         PriceBreakdownDTO  `json:"pricing"`
	Status          string             `json:"status"`
	PaymentStatus   string             `json:"payment_status"`
	SpecialRequests string             `json:"special_requests,omitempty"`
	Cancellation    *CancellationDTO   `json:"cancellation,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

type PaginationDTO struct {
	CurrentPage  int `json:"current_page"`
	TotalPages   int `json:"total_pages"`
	TotalItems   int `json:"total_items"`
	ItemsPerPage int `json:"items_per_page"`
}

type BookingCollection struct {
	Items      []BookingDTO  `json:"items"`
	Pagination PaginationDTO `json:"pagination"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{Amount: value.Amount, Currency: value.Currency}
}

func MapBreakdown(p domainpricing.Breakdown) PriceBreakdownDTO {
	return PriceBreakdownDTO{
		BasePrice:   MapMoney(p.BasePrice),
		Nights:      p.Nights,
		Subtotal:    MapMoney(p.Subtotal),
		CleaningFee: MapMoney(p.CleaningFee),
		ServiceFee:  MapMoney(p.ServiceFee),
		Taxes:       MapMoney(p.Taxes),
		Discounts: DiscountsDTO{
			Weekly:  MapMoney(p.Discounts.Weekly),
			Monthly: MapMoney(p.Discounts.Monthly),
		},
		Total: MapMoney(p.Total),
	}
}

// MapBooking renders a booking; listing may be nil when the catalog no longer
// resolves the reference.
func MapBooking(b *domainbooking.Booking, listing *domainlistings.Listing) BookingDTO {
	snapshot := ListingSnapshotDTO{ID: string(b.ListingID)}
	if listing != nil {
		snapshot.Title = listing.Title
		snapshot.City = listing.Location.City
		snapshot.Country = listing.Location.Country
	}
	out := BookingDTO{
		ID:              string(b.ID),
		Listing:         snapshot,
		GuestID:         string(b.GuestID),
		HostID:          string(b.HostID),
		CheckIn:         b.Range.CheckIn,
		CheckOut:        b.Range.CheckOut,
		Nights:          b.Nights,
		Guests: GuestsDTO{
			Adults:   b.Guests.Adults,
			Children: b.Guests.Children,
			Infants:  b.Guests.Infants,
			Total:    b.Guests.Total(),
		},
		Pricing:         MapBreakdown(b.Price),
		Status:          string(b.Status),
		PaymentStatus:   string(b.PaymentStatus),
		SpecialRequests: b.SpecialRequests,
		CreatedAt:       b.CreatedAt,
	}
	if b.Cancellation != nil {
		out.Cancellation = &CancellationDTO{
			CancelledBy:  string(b.Cancellation.CancelledBy),
			CancelledAt:  b.Cancellation.CancelledAt,
			Reason:       b.Cancellation.Reason,
			RefundAmount: MapMoney(b.Cancellation.RefundAmount),
		}
	}
	return out
}

// MapPagination builds the page envelope the original list endpoint exposes.
func MapPagination(page, limit, total int) PaginationDTO {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return PaginationDTO{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
	}
}
