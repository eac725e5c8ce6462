package booking

import (
	"errors"
	"time"

	"stayfinder/internal/domain/listings"
	"stayfinder/internal/domain/pricing"
	"stayfinder/internal/domain/shared/daterange"
	"stayfinder/internal/domain/shared/events"
	"stayfinder/internal/domain/shared/money"
)

var (
	ErrInvalidGuests     = errors.New("booking: at least one adult guest required")
	ErrCapacityExceeded  = errors.New("booking: guest count exceeds listing capacity")
	ErrOwnListing        = errors.New("booking: hosts cannot book their own listing")
	ErrBookingClosed     = errors.New("booking: booking is completed or cancelled")
	ErrAlreadyCancelled  = errors.New("booking: already cancelled")
	ErrInvalidTransition = errors.New("booking: invalid state transition")
	ErrAlreadyPaid       = errors.New("booking: already paid")
	ErrNotPaid           = errors.New("booking: no captured payment")
	ErrNoPaymentIntent   = errors.New("booking: no payment intent on record")
	ErrBookingNotFound   = errors.New("booking: not found")
)

type BookingID string
type GuestID string

// Status is the reservation lifecycle. Pending and confirmed bookings block
// the listing's calendar; cancelled and completed are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Blocking reports whether a booking in this status holds the dates.
func (s Status) Blocking() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// PaymentStatus tracks the charge axis independently from Status.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

// Party identifies who performed a cancellation.
type Party string

const (
	PartyGuest Party = "guest"
	PartyHost  Party = "host"
	PartyAdmin Party = "admin"
)

// GuestCounts splits the party by age group. Infants still count toward the
// listing's capacity limit.
type GuestCounts struct {
	Adults   int
	Children int
	Infants  int
}

func (g GuestCounts) Total() int {
	return g.Adults + g.Children + g.Infants
}

func (g GuestCounts) Validate() error {
	if g.Adults < 1 || g.Children < 0 || g.Infants < 0 {
		return ErrInvalidGuests
	}
	return nil
}

// PaymentDetails carries the external payment collaborator's handles.
type PaymentDetails struct {
	IntentID string
	ChargeID string
	Method   string
	Currency string
}

// Cancellation records how a booking was cancelled and what refund the
// policy yielded at that moment.
type Cancellation struct {
	CancelledBy  Party
	CancelledAt  time.Time
	Reason       string
	RefundAmount money.Money
}

// Booking is the aggregate root of the reservation lifecycle. The host
// reference and price breakdown are copied from the listing at creation time
// and never re-read from the catalog afterwards.
type Booking struct {
	ID              BookingID
	ListingID       listings.ListingID
	GuestID         GuestID
	HostID          listings.HostID
	Range           daterange.DateRange
	Guests          GuestCounts
	Nights          int
	Price           pricing.Breakdown
	Status          Status
	PaymentStatus   PaymentStatus
	Payment         PaymentDetails
	SpecialRequests string
	Cancellation    *Cancellation
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
	events.EventRecorder
}

type CreateParams struct {
	ID              BookingID
	Listing         *listings.Listing
	GuestID         GuestID
	Range           daterange.DateRange
	Guests          GuestCounts
	SpecialRequests string
	Now             time.Time
}

// NewBooking runs the creation precondition chain in order: listing bookable,
// check-in strictly in the future, valid range, guest is not the host,
// capacity respected. Availability is the repository's concern and is checked
// by the application layer inside the same transaction as the insert.
func NewBooking(params CreateParams) (*Booking, error) {
	listing := params.Listing
	if listing == nil {
		return nil, listings.ErrListingNotFound
	}
	if !listing.Bookable() {
		return nil, listings.ErrNotBookable
	}
	now := params.Now.UTC()
	if err := ValidateCheckIn(params.Range, now); err != nil {
		return nil, err
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if string(params.GuestID) == string(listing.Host) {
		return nil, ErrOwnListing
	}
	if err := params.Guests.Validate(); err != nil {
		return nil, err
	}
	if params.Guests.Total() > listing.Capacity.Guests {
		return nil, ErrCapacityExceeded
	}

	nights := params.Range.Nights()
	price, err := pricing.Quote(listing.Pricing, nights)
	if err != nil {
		return nil, err
	}

	b := &Booking{
		ID:              params.ID,
		ListingID:       listing.ID,
		GuestID:         params.GuestID,
		HostID:          listing.Host,
		Range:           params.Range,
		Guests:          params.Guests,
		Nights:          nights,
		Price:           price,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		Payment:         PaymentDetails{Currency: price.Total.Currency},
		SpecialRequests: params.SpecialRequests,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.Record(BookingRequested{
		BookingID: b.ID,
		ListingID: b.ListingID,
		GuestID:   b.GuestID,
		HostID:    b.HostID,
		Range:     b.Range,
		Guests:    b.Guests.Total(),
		Total:     b.Price.Total,
		At:        now,
	})
	return b, nil
}

// Confirm is the host accepting a pending request.
func (b *Booking) Confirm(now time.Time) error {
	if b.Status.Terminal() {
		return ErrBookingClosed
	}
	b.Status = StatusConfirmed
	b.UpdatedAt = now.UTC()
	b.Record(BookingConfirmed{BookingID: b.ID, ListingID: b.ListingID, Range: b.Range, Total: b.Price.Total, At: b.UpdatedAt})
	return nil
}

// Decline is the host rejecting a request. There is no declined status in
// storage: the booking lands in cancelled with the host on record, which also
// frees the dates for other guests.
func (b *Booking) Decline(reason string, now time.Time) error {
	if b.Status.Terminal() {
		return ErrBookingClosed
	}
	now = now.UTC()
	b.Status = StatusCancelled
	b.Cancellation = &Cancellation{
		CancelledBy:  PartyHost,
		CancelledAt:  now,
		Reason:       reason,
		RefundAmount: money.Money{Currency: b.Price.Total.Currency},
	}
	b.UpdatedAt = now
	b.Record(BookingDeclined{BookingID: b.ID, ListingID: b.ListingID, Reason: reason, At: now})
	return nil
}

// Cancel ends the booking and computes the refund from the listing's current
// cancellation policy. The refund is recorded, not executed; issuing it
// against the payment collaborator is a separate explicit operation.
func (b *Booking) Cancel(by Party, reason string, policy listings.CancellationPolicy, now time.Time) (money.Money, error) {
	if b.Status == StatusCancelled {
		return money.Money{}, ErrAlreadyCancelled
	}
	if b.Status.Terminal() {
		return money.Money{}, ErrBookingClosed
	}
	now = now.UTC()
	refund := RefundAmount(policy, b.Price.Total, b.Range.DaysUntil(now))
	b.Status = StatusCancelled
	b.Cancellation = &Cancellation{
		CancelledBy:  by,
		CancelledAt:  now,
		Reason:       reason,
		RefundAmount: refund,
	}
	b.UpdatedAt = now
	b.Record(BookingCancelled{BookingID: b.ID, ListingID: b.ListingID, CancelledBy: by, Refund: refund, Reason: reason, At: now})
	return refund, nil
}

// Complete marks a confirmed stay as finished after checkout.
func (b *Booking) Complete(now time.Time) error {
	if b.Status != StatusConfirmed {
		return ErrInvalidTransition
	}
	b.Status = StatusCompleted
	b.UpdatedAt = now.UTC()
	b.Record(BookingCompleted{BookingID: b.ID, ListingID: b.ListingID, At: b.UpdatedAt})
	return nil
}

// AttachPaymentIntent stores the collaborator's charge-intent handle.
func (b *Booking) AttachPaymentIntent(intentID string, now time.Time) error {
	if b.PaymentStatus == PaymentPaid {
		return ErrAlreadyPaid
	}
	b.Payment.IntentID = intentID
	b.UpdatedAt = now.UTC()
	return nil
}

// MarkPaid records a captured charge. Payment success also confirms the
// booking. Calling it twice is rejected so a double capture can never be
// recorded, and a charge landing on a cancelled or completed booking is
// rejected rather than reopening it.
func (b *Booking) MarkPaid(chargeID, method string, now time.Time) error {
	if b.PaymentStatus == PaymentPaid {
		return ErrAlreadyPaid
	}
	if b.Status.Terminal() {
		return ErrBookingClosed
	}
	now = now.UTC()
	b.PaymentStatus = PaymentPaid
	b.Payment.ChargeID = chargeID
	if method != "" {
		b.Payment.Method = method
	}
	b.Status = StatusConfirmed
	b.UpdatedAt = now
	b.Record(PaymentCaptured{BookingID: b.ID, IntentID: b.Payment.IntentID, ChargeID: chargeID, Amount: b.Price.Total, At: now})
	return nil
}

// MarkPaymentFailed flags the charge axis only. A failed charge does not
// cancel the booking; the guest may retry.
func (b *Booking) MarkPaymentFailed(now time.Time) error {
	if b.PaymentStatus == PaymentPaid {
		return ErrAlreadyPaid
	}
	b.PaymentStatus = PaymentFailed
	b.UpdatedAt = now.UTC()
	b.Record(ChargeFailed{BookingID: b.ID, IntentID: b.Payment.IntentID, At: b.UpdatedAt})
	return nil
}

// MarkRefunded records an executed refund and mirrors the amount into the
// cancellation record when one exists.
func (b *Booking) MarkRefunded(amount money.Money, now time.Time) error {
	if b.Payment.IntentID == "" {
		return ErrNoPaymentIntent
	}
	now = now.UTC()
	b.PaymentStatus = PaymentRefunded
	if b.Cancellation != nil {
		b.Cancellation.RefundAmount = amount
	}
	b.UpdatedAt = now
	b.Record(RefundIssued{BookingID: b.ID, IntentID: b.Payment.IntentID, Amount: amount, At: now})
	return nil
}

// IsParticipant reports whether the user is the guest or the host.
func (b *Booking) IsParticipant(userID string) bool {
	return userID == string(b.GuestID) || userID == string(b.HostID)
}
