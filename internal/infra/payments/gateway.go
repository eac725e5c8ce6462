package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"stayfinder/internal/app/policies"
	"stayfinder/internal/domain/shared/money"
)

// Gateway talks to the external payment collaborator over HTTP. Amounts cross
// the wire in minor units, same as they are stored.
type Gateway struct {
	Client  *http.Client
	BaseURL string
	APIKey  string
	Logger  *slog.Logger
}

type intentRequest struct {
	AmountCents int64             `json:"amount_cents"`
	Currency    string            `json:"currency"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type intentResponse struct {
	ID            string `json:"id"`
	ClientSecret  string `json:"client_secret"`
	Status        string `json:"status"`
	ChargeID      string `json:"charge_id"`
	PaymentMethod string `json:"payment_method"`
}

type refundRequest struct {
	IntentID    string `json:"intent_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Reference   string `json:"reference,omitempty"`
}

type refundResponse struct {
	ID          string `json:"id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

func (g *Gateway) CreateIntent(ctx context.Context, params policies.IntentParams) (policies.PaymentIntent, error) {
	var out intentResponse
	err := g.do(ctx, http.MethodPost, "/v1/payment_intents", intentRequest{
		AmountCents: params.Amount.Amount,
		Currency:    params.Amount.Currency,
		Description: params.Description,
		Metadata:    params.Metadata,
	}, &out)
	if err != nil {
		return policies.PaymentIntent{}, err
	}
	return mapIntent(out), nil
}

func (g *Gateway) RetrieveIntent(ctx context.Context, intentID string) (policies.PaymentIntent, error) {
	var out intentResponse
	if err := g.do(ctx, http.MethodGet, "/v1/payment_intents/"+intentID, nil, &out); err != nil {
		return policies.PaymentIntent{}, err
	}
	return mapIntent(out), nil
}

func (g *Gateway) CreateRefund(ctx context.Context, params policies.RefundParams) (policies.Refund, error) {
	var out refundResponse
	err := g.do(ctx, http.MethodPost, "/v1/refunds", refundRequest{
		IntentID:    params.IntentID,
		AmountCents: params.Amount.Amount,
		Currency:    params.Amount.Currency,
		Reference:   params.BookingID,
	}, &out)
	if err != nil {
		return policies.Refund{}, err
	}
	currency := out.Currency
	if currency == "" {
		currency = params.Amount.Currency
	}
	return policies.Refund{ID: out.ID, Amount: money.Money{Amount: out.AmountCents, Currency: currency}}, nil
}

func (g *Gateway) do(ctx context.Context, method, path string, payload, out any) error {
	if g == nil || g.Client == nil {
		return errors.New("payments: http client not configured")
	}
	if g.BaseURL == "" {
		return errors.New("payments: gateway url not configured")
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	request, err := http.NewRequestWithContext(ctx, method, g.BaseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if g.APIKey != "" {
		request.Header.Set("Authorization", "Bearer "+g.APIKey)
	}

	resp, err := g.Client.Do(request)
	if err != nil {
		g.logError("payment gateway request failed", path, err)
		return fmt.Errorf("%w: %v", policies.ErrPaymentUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("%w: status %d: %s", policies.ErrPaymentUnavailable, resp.StatusCode, string(snippet))
		g.logError("payment gateway unavailable", path, err)
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("payments: gateway returned status %d: %s", resp.StatusCode, string(snippet))
		g.logError("payment gateway rejected request", path, err)
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		g.logError("payment gateway decode failed", path, err)
		return err
	}
	return nil
}

func (g *Gateway) logError(msg, path string, err error) {
	if g.Logger == nil {
		return
	}
	g.Logger.Error(msg, "path", path, "error", err)
}

func mapIntent(in intentResponse) policies.PaymentIntent {
	return policies.PaymentIntent{
		ID:            in.ID,
		ClientSecret:  in.ClientSecret,
		Status:        in.Status,
		ChargeID:      in.ChargeID,
		PaymentMethod: in.PaymentMethod,
	}
}

var _ policies.PaymentsPort = (*Gateway)(nil)
