package ginserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"stayfinder/internal/app/commands"
	paymentsapp "stayfinder/internal/app/handlers/payments"
	"stayfinder/internal/infra/security"
)

type PaymentHandler struct {
	Commands commands.Bus
	Webhooks security.WebhookVerifier
	Logger   *slog.Logger
}

func (h PaymentHandler) CreateIntent(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	cmd := paymentsapp.CreateIntentCommand{
		BookingID: c.Param("id"),
		ActorID:   user.UserID,
	}
	result, err := commands.Dispatch[paymentsapp.CreateIntentCommand, *paymentsapp.CreateIntentResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h PaymentHandler) Confirm(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	cmd := paymentsapp.ConfirmPaymentCommand{
		BookingID: c.Param("id"),
		ActorID:   user.UserID,
	}
	result, err := commands.Dispatch[paymentsapp.ConfirmPaymentCommand, *paymentsapp.ConfirmPaymentResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type refundRequest struct {
	AmountCents int64 `json:"amount_cents"`
}

func (h PaymentHandler) Refund(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req refundRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	cmd := paymentsapp.RefundCommand{
		BookingID:   c.Param("id"),
		Actor:       user,
		AmountCents: req.AmountCents,
	}
	result, err := commands.Dispatch[paymentsapp.RefundCommand, *paymentsapp.RefundResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type webhookEnvelope struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID            string `json:"id"`
			ChargeID      string `json:"charge_id"`
			PaymentMethod string `json:"payment_method"`
		} `json:"object"`
	} `json:"data"`
}

// Webhook accepts collaborator notifications. The HMAC signature replaces
// bearer authentication; the raw body is read before decoding so the
// signature covers exactly what was sent.
func (h PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	if err := h.Webhooks.Verify(body, c.GetHeader("X-Webhook-Signature")); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("webhook signature rejected", "error", err)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
		return
	}

	cmd := paymentsapp.WebhookCommand{
		EventType: envelope.Type,
		IntentID:  envelope.Data.Object.ID,
		ChargeID:  envelope.Data.Object.ChargeID,
		Method:    envelope.Data.Object.PaymentMethod,
	}
	result, err := commands.Dispatch[paymentsapp.WebhookCommand, *paymentsapp.WebhookResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "handled": result.Handled})
}
