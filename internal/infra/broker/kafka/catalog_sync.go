package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/IBM/sarama"

	"stayfinder/internal/domain/listings"
	"stayfinder/internal/domain/shared/money"
)

// CatalogSink receives listing snapshots decoded from catalog events.
type CatalogSink interface {
	Put(listing *listings.Listing)
}

// CatalogSync keeps a local listing directory in step with the catalog
// service's event stream. Events arrive as CloudEvents envelopes; unknown
// types are skipped so the consumer group keeps advancing.
type CatalogSync struct {
	Sink   CatalogSink
	Logger *slog.Logger
}

type catalogEnvelope struct {
	Type string             `json:"type"`
	Data catalogListingData `json:"data"`
}

type catalogListingData struct {
	ListingID          string `json:"listing_id"`
	HostID             string `json:"host_id"`
	Title              string `json:"title"`
	Address            string `json:"address"`
	City               string `json:"city"`
	Country            string `json:"country"`
	BasePriceCents     int64  `json:"base_price_cents"`
	Currency           string `json:"currency"`
	WeeklyDiscountPct  int    `json:"weekly_discount_pct"`
	MonthlyDiscountPct int    `json:"monthly_discount_pct"`
	CleaningFeeCents   int64  `json:"cleaning_fee_cents"`
	MaxGuests          int    `json:"max_guests"`
	CancellationPolicy string `json:"cancellation_policy"`
	Status             string `json:"status"`
}

func (s *CatalogSync) Handle(_ context.Context, msg *sarama.ConsumerMessage) error {
	if s.Sink == nil {
		return nil
	}
	var envelope catalogEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		if s.Logger != nil {
			s.Logger.Warn("catalog event undecodable", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		}
		return nil
	}
	data := envelope.Data
	if data.ListingID == "" {
		return nil
	}
	currency := data.Currency
	if currency == "" {
		currency = money.DefaultCurrency
	}
	s.Sink.Put(&listings.Listing{
		ID:    listings.ListingID(data.ListingID),
		Host:  listings.HostID(data.HostID),
		Title: data.Title,
		Location: listings.Location{
			Address: data.Address,
			City:    data.City,
			Country: data.Country,
		},
		Pricing: listings.PricingRules{
			BasePrice:          money.Money{Amount: data.BasePriceCents, Currency: currency},
			WeeklyDiscountPct:  data.WeeklyDiscountPct,
			MonthlyDiscountPct: data.MonthlyDiscountPct,
			CleaningFee:        money.Money{Amount: data.CleaningFeeCents, Currency: currency},
		},
		Capacity:           listings.Capacity{Guests: data.MaxGuests},
		CancellationPolicy: listings.CancellationPolicy(data.CancellationPolicy),
		Status:             listings.Status(data.Status),
	})
	if s.Logger != nil {
		s.Logger.Debug("catalog listing synced", "listing_id", data.ListingID, "status", data.Status)
	}
	return nil
}

var _ MessageHandler = (*CatalogSync)(nil)
