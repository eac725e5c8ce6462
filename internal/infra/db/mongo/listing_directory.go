package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"stayfinder/internal/domain/listings"
	"stayfinder/internal/domain/shared/money"
)

// ListingDirectory reads the catalog collection the listing service maintains.
// The booking core never writes to it.
type ListingDirectory struct {
	col *mongo.Collection
}

func NewListingDirectory(db *mongo.Database) *ListingDirectory {
	return &ListingDirectory{col: db.Collection("catalog_listings")}
}

func (d *ListingDirectory) ByID(ctx context.Context, id listings.ListingID) (*listings.Listing, error) {
	var doc listingDocument
	if err := d.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, listings.ErrListingNotFound
		}
		return nil, err
	}
	return doc.toListing(), nil
}

type listingDocument struct {
	ID                 string        `bson:"_id"`
	HostID             string        `bson:"host_id"`
	Title              string        `bson:"title"`
	Address            string        `bson:"address,omitempty"`
	City               string        `bson:"city,omitempty"`
	Country            string        `bson:"country,omitempty"`
	BasePrice          moneyDocument `bson:"base_price"`
	WeeklyDiscountPct  int           `bson:"weekly_discount_pct"`
	MonthlyDiscountPct int           `bson:"monthly_discount_pct"`
	CleaningFee        moneyDocument `bson:"cleaning_fee"`
	MaxGuests          int           `bson:"max_guests"`
	CancellationPolicy string        `bson:"cancellation_policy"`
	Status             string        `bson:"status"`
}

func (d listingDocument) toListing() *listings.Listing {
	cleaning := fromMoneyDoc(d.CleaningFee)
	if cleaning.Currency == "" {
		cleaning = money.Money{Currency: d.BasePrice.Currency}
	}
	return &listings.Listing{
		ID:    listings.ListingID(d.ID),
		Host:  listings.HostID(d.HostID),
		Title: d.Title,
		Location: listings.Location{
			Address: d.Address,
			City:    d.City,
			Country: d.Country,
		},
		Pricing: listings.PricingRules{
			BasePrice:          fromMoneyDoc(d.BasePrice),
			WeeklyDiscountPct:  d.WeeklyDiscountPct,
			MonthlyDiscountPct: d.MonthlyDiscountPct,
			CleaningFee:        cleaning,
		},
		Capacity:           listings.Capacity{Guests: d.MaxGuests},
		CancellationPolicy: listings.CancellationPolicy(d.CancellationPolicy),
		Status:             listings.Status(d.Status),
	}
}

var _ listings.Directory = (*ListingDirectory)(nil)
