package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"stayfinder/internal/app/commands"
	"stayfinder/internal/app/dto"
	"stayfinder/internal/app/outbox"
	"stayfinder/internal/app/uow"
	domainbooking "stayfinder/internal/domain/booking"
	domainlistings "stayfinder/internal/domain/listings"
)

const updateStatusKey = "booking.update_status"

var (
	// ErrNotHost guards the host-only status endpoint.
	ErrNotHost = errors.New("booking: only the host can update booking status")
	// ErrUnknownStatus rejects status values outside confirmed/declined/cancelled.
	ErrUnknownStatus = errors.New("booking: unsupported status value")
)

// Requested status values. "declined" is accepted on the wire but persisted
// as cancelled with the host on record; the stored enum has no declined state.
const (
	RequestedConfirmed = "confirmed"
	RequestedDeclined  = "declined"
	RequestedCancelled = "cancelled"
)

type UpdateStatusCommand struct {
	BookingID string
	ActorID   string
	NewStatus string
	Reason    string
}

func (c UpdateStatusCommand) Key() string { return updateStatusKey }

func (c UpdateStatusCommand) Validate() error {
	switch {
	case c.BookingID == "":
		return fmt.Errorf("%w: booking id", ErrMissingInput)
	case c.ActorID == "":
		return fmt.Errorf("%w: actor id", ErrMissingInput)
	case strings.TrimSpace(c.NewStatus) == "":
		return fmt.Errorf("%w: status", ErrMissingInput)
	}
	return nil
}

type UpdateStatusResult struct {
	Booking dto.BookingDTO `json:"booking"`
}

type UpdateStatusHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
	Clock   func() time.Time
}

func (h *UpdateStatusHandler) Handle(ctx context.Context, cmd UpdateStatusCommand) (*UpdateStatusResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	if cmd.ActorID != string(b.HostID) {
		return nil, ErrNotHost
	}
	if b.Status.Terminal() {
		return nil, domainbooking.ErrBookingClosed
	}

	now := h.now()
	switch strings.ToLower(strings.TrimSpace(cmd.NewStatus)) {
	case RequestedConfirmed:
		err = b.Confirm(now)
	case RequestedDeclined:
		reason := strings.TrimSpace(cmd.Reason)
		if reason == "" {
			reason = "declined by host"
		}
		err = b.Decline(reason, now)
	case RequestedCancelled:
		var listing *domainlistings.Listing
		listing, err = unit.Listings().ByID(ctx, b.ListingID)
		if err != nil {
			return nil, err
		}
		_, err = b.Cancel(domainbooking.PartyHost, cmd.Reason, listing.CancellationPolicy, now)
	default:
		return nil, ErrUnknownStatus
	}
	if err != nil {
		return nil, err
	}

	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}

	pending := b.PendingEvents()
	b.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("booking status updated", "booking_id", b.ID, "host_id", b.HostID, "status", b.Status)
	}
	return &UpdateStatusResult{Booking: dto.MapBooking(b, nil)}, nil
}

func (h *UpdateStatusHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *UpdateStatusHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[UpdateStatusCommand, *UpdateStatusResult] = (*UpdateStatusHandler)(nil)
