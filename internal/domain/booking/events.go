package booking

import (
	"time"

	"stayfinder/internal/domain/listings"
	"stayfinder/internal/domain/shared/daterange"
	"stayfinder/internal/domain/shared/money"
)

type BookingRequested struct {
	BookingID BookingID
	ListingID listings.ListingID
	GuestID   GuestID
	HostID    listings.HostID
	Range     daterange.DateRange
	Guests    int
	Total     money.Money
	At        time.Time
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	BookingID BookingID
	ListingID listings.ListingID
	Range     daterange.DateRange
	Total     money.Money
	At        time.Time
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingDeclined struct {
	BookingID BookingID
	ListingID listings.ListingID
	Reason    string
	At        time.Time
}

func (e BookingDeclined) EventName() string     { return "booking.declined" }
func (e BookingDeclined) AggregateID() string   { return string(e.BookingID) }
func (e BookingDeclined) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID   BookingID
	ListingID   listings.ListingID
	CancelledBy Party
	Refund      money.Money
	Reason      string
	At          time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type BookingCompleted struct {
	BookingID BookingID
	ListingID listings.ListingID
	At        time.Time
}

func (e BookingCompleted) EventName() string     { return "booking.completed" }
func (e BookingCompleted) AggregateID() string   { return string(e.BookingID) }
func (e BookingCompleted) OccurredAt() time.Time { return e.At }

type PaymentCaptured struct {
	BookingID BookingID
	IntentID  string
	ChargeID  string
	Amount    money.Money
	At        time.Time
}

func (e PaymentCaptured) EventName() string     { return "booking.payment_captured" }
func (e PaymentCaptured) AggregateID() string   { return string(e.BookingID) }
func (e PaymentCaptured) OccurredAt() time.Time { return e.At }

type ChargeFailed struct {
	BookingID BookingID
	IntentID  string
	At        time.Time
}

func (e ChargeFailed) EventName() string     { return "booking.payment_failed" }
func (e ChargeFailed) AggregateID() string   { return string(e.BookingID) }
func (e ChargeFailed) OccurredAt() time.Time { return e.At }

type RefundIssued struct {
	BookingID BookingID
	IntentID  string
	Amount    money.Money
	At        time.Time
}

func (e RefundIssued) EventName() string     { return "booking.refund_issued" }
func (e RefundIssued) AggregateID() string   { return string(e.BookingID) }
func (e RefundIssued) OccurredAt() time.Time { return e.At }
