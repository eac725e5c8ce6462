package ginserver

import (
	"net/http"
	"strconv"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stayfinder/internal/app/commands"
	"stayfinder/internal/app/dto"
	bookingapp "stayfinder/internal/app/handlers/booking"
	"stayfinder/internal/app/queries"
	domainbooking "stayfinder/internal/domain/booking"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type guestsRequest struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

type createBookingRequest struct {
	ListingID       string        `json:"listing_id" binding:"required"`
	CheckIn         time.Time     `json:"check_in" binding:"required"`
	CheckOut        time.Time     `json:"check_out" binding:"required"`
	Guests          guestsRequest `json:"guests"`
	SpecialRequests string        `json:"special_requests"`
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		CommandID: uuid.NewString(),
		ListingID: req.ListingID,
		GuestID:   user.UserID,
		CheckIn:   req.CheckIn,
		CheckOut:  req.CheckOut,
		Guests: domainbooking.GuestCounts{
			Adults:   req.Guests.Adults,
			Children: req.Guests.Children,
			Infants:  req.Guests.Infants,
		},
		SpecialRequests: req.SpecialRequests,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	q := bookingapp.GetBookingQuery{BookingID: c.Param("id"), ActorID: user.UserID}
	result, err := queries.Ask[bookingapp.GetBookingQuery, dto.BookingDTO](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": result})
}

func (h BookingHandler) ListMine(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	q := bookingapp.ListBookingsQuery{
		ActorID: user.UserID,
		View:    c.DefaultQuery("type", bookingapp.ViewGuest),
		Status:  c.Query("status"),
		Page:    intQuery(c, "page", 1),
		Limit:   intQuery(c, "limit", 10),
	}
	result, err := queries.Ask[bookingapp.ListBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": result.Items, "pagination": result.Pagination})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

func (h BookingHandler) UpdateStatus(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookingapp.UpdateStatusCommand{
		BookingID: c.Param("id"),
		ActorID:   user.UserID,
		NewStatus: req.Status,
		Reason:    req.Reason,
	}
	result, err := commands.Dispatch[bookingapp.UpdateStatusCommand, *bookingapp.UpdateStatusResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Cancel(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req cancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	cmd := bookingapp.CancelBookingCommand{
		BookingID: c.Param("id"),
		ActorID:   user.UserID,
		Reason:    req.Reason,
	}
	result, err := commands.Dispatch[bookingapp.CancelBookingCommand, *bookingapp.CancelBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func intQuery(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
