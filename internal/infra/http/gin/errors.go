package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	bookingapp "stayfinder/internal/app/handlers/booking"
	paymentsapp "stayfinder/internal/app/handlers/payments"
	"stayfinder/internal/app/policies"
	domainbooking "stayfinder/internal/domain/booking"
	domainlistings "stayfinder/internal/domain/listings"
	domainpricing "stayfinder/internal/domain/pricing"
	domainrange "stayfinder/internal/domain/shared/daterange"
)

// respondError translates domain and application errors into the API's
// status codes. Unrecognized errors become opaque 500s.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainlistings.ErrListingNotFound),
		errors.Is(err, domainbooking.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, bookingapp.ErrNotHost),
		errors.Is(err, bookingapp.ErrNotParticipant),
		errors.Is(err, domainbooking.ErrOwnListing),
		errors.Is(err, paymentsapp.ErrNotGuest),
		errors.Is(err, paymentsapp.ErrRefundForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})

	case errors.Is(err, bookingapp.ErrDatesUnavailable),
		errors.Is(err, domainbooking.ErrAlreadyCancelled),
		errors.Is(err, domainbooking.ErrBookingClosed),
		errors.Is(err, domainbooking.ErrInvalidTransition),
		errors.Is(err, domainbooking.ErrAlreadyPaid),
		errors.Is(err, paymentsapp.ErrBookingClosed),
		errors.Is(err, paymentsapp.ErrPaymentNotSucceeded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, domainrange.ErrInvalidRange),
		errors.Is(err, domainbooking.ErrCheckInNotFuture),
		errors.Is(err, domainbooking.ErrInvalidGuests),
		errors.Is(err, domainbooking.ErrCapacityExceeded),
		errors.Is(err, domainbooking.ErrNoPaymentIntent),
		errors.Is(err, domainbooking.ErrNotPaid),
		errors.Is(err, domainlistings.ErrNotBookable),
		errors.Is(err, bookingapp.ErrUnknownStatus),
		errors.Is(err, bookingapp.ErrMissingInput),
		errors.Is(err, paymentsapp.ErrNothingToRefund),
		errors.Is(err, paymentsapp.ErrMissingInput),
		errors.Is(err, domainpricing.ErrNoNights):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, policies.ErrInvalidCredential):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

	case errors.Is(err, policies.ErrPaymentUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment provider unavailable"})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
