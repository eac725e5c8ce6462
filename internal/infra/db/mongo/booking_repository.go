package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "stayfinder/internal/domain/booking"
	"stayfinder/internal/domain/listings"
	domainpricing "stayfinder/internal/domain/pricing"
	domainrange "stayfinder/internal/domain/shared/daterange"
	"stayfinder/internal/domain/shared/money"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	col := db.Collection("agg_booking")
	// Overlap queries scan per listing; the partial shape keeps the index small.
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "range.check_in", Value: 1}},
	})
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "payment.intent_id", Value: 1}},
		Options: options.Index().SetSparse(true),
	})
	return &BookingRepository{col: col}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) ByIntentID(ctx context.Context, intentID string) (*domainbooking.Booking, error) {
	if intentID == "" {
		return nil, domainbooking.ErrBookingNotFound
	}
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"payment.intent_id": intentID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

// HasBlockingOverlap uses the half-open interval test: an existing booking
// conflicts when its check-in is before the candidate's check-out and its
// check-out is after the candidate's check-in.
func (r *BookingRepository) HasBlockingOverlap(ctx context.Context, listingID listings.ListingID, dr domainrange.DateRange) (bool, error) {
	filter := bson.M{
		"listing_id":      string(listingID),
		"status":          bson.M{"$in": []string{string(domainbooking.StatusPending), string(domainbooking.StatusConfirmed)}},
		"range.check_in":  bson.M{"$lt": dr.CheckOut.UnixMilli()},
		"range.check_out": bson.M{"$gt": dr.CheckIn.UnixMilli()},
	}
	count, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID domainbooking.GuestID, filter domainbooking.ListFilter) (domainbooking.PageResult, error) {
	return r.list(ctx, bson.M{"guest_id": string(guestID)}, filter)
}

func (r *BookingRepository) ListByHost(ctx context.Context, hostID listings.HostID, filter domainbooking.ListFilter) (domainbooking.PageResult, error) {
	return r.list(ctx, bson.M{"host_id": string(hostID)}, filter)
}

func (r *BookingRepository) list(ctx context.Context, match bson.M, filter domainbooking.ListFilter) (domainbooking.PageResult, error) {
	filter = filter.Normalized()
	if filter.Status != "" {
		match["status"] = string(filter.Status)
	}

	total, err := r.col.CountDocuments(ctx, match)
	if err != nil {
		return domainbooking.PageResult{}, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))
	cursor, err := r.col.Find(ctx, match, opts)
	if err != nil {
		return domainbooking.PageResult{}, err
	}
	defer cursor.Close(ctx)

	items := make([]*domainbooking.Booking, 0, filter.Limit)
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return domainbooking.PageResult{}, err
		}
		items = append(items, doc.toAggregate())
	}
	if err := cursor.Err(); err != nil {
		return domainbooking.PageResult{}, err
	}
	return domainbooking.PageResult{Items: items, Total: int(total)}, nil
}

type bookingDocument struct {
	ID              string                `bson:"_id"`
	ListingID       string                `bson:"listing_id"`
	GuestID         string                `bson:"guest_id"`
	HostID          string                `bson:"host_id"`
	Range           rangeDocument         `bson:"range"`
	Guests          guestsDocument        `bson:"guests"`
	Nights          int                   `bson:"nights"`
	Price           priceDocument         `bson:"price"`
	Status          string                `bson:"status"`
	PaymentStatus   string                `bson:"payment_status"`
	Payment         paymentDocument       `bson:"payment"`
	SpecialRequests string                `bson:"special_requests,omitempty"`
	Cancellation    *cancellationDocument `bson:"cancellation,omitempty"`
	CreatedAt       int64                 `bson:"created_at"`
	UpdatedAt       int64                 `bson:"updated_at"`
	Version         int64                 `bson:"version"`
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

type guestsDocument struct {
	Adults   int `bson:"adults"`
	Children int `bson:"children"`
	Infants  int `bson:"infants"`
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

type priceDocument struct {
	BasePrice       moneyDocument `bson:"base_price"`
	Nights          int           `bson:"nights"`
	Subtotal        moneyDocument `bson:"subtotal"`
	CleaningFee     moneyDocument `bson:"cleaning_fee"`
	ServiceFee      moneyDocument `bson:"service_fee"`
	Taxes           moneyDocument `bson:"taxes"`
	WeeklyDiscount  moneyDocument `bson:"weekly_discount"`
	MonthlyDiscount moneyDocument `bson:"monthly_discount"`
	Total           moneyDocument `bson:"total"`
}

type paymentDocument struct {
	IntentID string `bson:"intent_id,omitempty"`
	ChargeID string `bson:"charge_id,omitempty"`
	Method   string `bson:"method,omitempty"`
	Currency string `bson:"currency,omitempty"`
}

type cancellationDocument struct {
	CancelledBy  string        `bson:"cancelled_by"`
	CancelledAt  int64         `bson:"cancelled_at"`
	Reason       string        `bson:"reason,omitempty"`
	RefundAmount moneyDocument `bson:"refund_amount"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:        string(b.ID),
		ListingID: string(b.ListingID),
		GuestID:   string(b.GuestID),
		HostID:    string(b.HostID),
		Range:     rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
		Guests:    guestsDocument{Adults: b.Guests.Adults, Children: b.Guests.Children, Infants: b.Guests.Infants},
		Nights:    b.Nights,
		Price: priceDocument{
			BasePrice:       toMoneyDoc(b.Price.BasePrice),
			Nights:          b.Price.Nights,
			Subtotal:        toMoneyDoc(b.Price.Subtotal),
			CleaningFee:     toMoneyDoc(b.Price.CleaningFee),
			ServiceFee:      toMoneyDoc(b.Price.ServiceFee),
			Taxes:           toMoneyDoc(b.Price.Taxes),
			WeeklyDiscount:  toMoneyDoc(b.Price.Discounts.Weekly),
			MonthlyDiscount: toMoneyDoc(b.Price.Discounts.Monthly),
			Total:           toMoneyDoc(b.Price.Total),
		},
		Status:          string(b.Status),
		PaymentStatus:   string(b.PaymentStatus),
		Payment:         paymentDocument{IntentID: b.Payment.IntentID, ChargeID: b.Payment.ChargeID, Method: b.Payment.Method, Currency: b.Payment.Currency},
		SpecialRequests: b.SpecialRequests,
		CreatedAt:       b.CreatedAt.UnixMilli(),
		UpdatedAt:       b.UpdatedAt.UnixMilli(),
		Version:         b.Version,
	}
	if b.Cancellation != nil {
		doc.Cancellation = &cancellationDocument{
			CancelledBy:  string(b.Cancellation.CancelledBy),
			CancelledAt:  b.Cancellation.CancelledAt.UnixMilli(),
			Reason:       b.Cancellation.Reason,
			RefundAmount: toMoneyDoc(b.Cancellation.RefundAmount),
		}
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	b := &domainbooking.Booking{
		ID:        domainbooking.BookingID(d.ID),
		ListingID: listings.ListingID(d.ListingID),
		GuestID:   domainbooking.GuestID(d.GuestID),
		HostID:    listings.HostID(d.HostID),
		Range:     domainrange.DateRange{CheckIn: timestampToTime(d.Range.CheckIn), CheckOut: timestampToTime(d.Range.CheckOut)},
		Guests:    domainbooking.GuestCounts{Adults: d.Guests.Adults, Children: d.Guests.Children, Infants: d.Guests.Infants},
		Nights:    d.Nights,
		Price: domainpricing.Breakdown{
			BasePrice:   fromMoneyDoc(d.Price.BasePrice),
			Nights:      d.Price.Nights,
			Subtotal:    fromMoneyDoc(d.Price.Subtotal),
			CleaningFee: fromMoneyDoc(d.Price.CleaningFee),
			ServiceFee:  fromMoneyDoc(d.Price.ServiceFee),
			Taxes:       fromMoneyDoc(d.Price.Taxes),
			Discounts: domainpricing.Discounts{
				Weekly:  fromMoneyDoc(d.Price.WeeklyDiscount),
				Monthly: fromMoneyDoc(d.Price.MonthlyDiscount),
			},
			Total: fromMoneyDoc(d.Price.Total),
		},
		Status:          domainbooking.Status(d.Status),
		PaymentStatus:   domainbooking.PaymentStatus(d.PaymentStatus),
		Payment:         domainbooking.PaymentDetails{IntentID: d.Payment.IntentID, ChargeID: d.Payment.ChargeID, Method: d.Payment.Method, Currency: d.Payment.Currency},
		SpecialRequests: d.SpecialRequests,
		CreatedAt:       timestampToTime(d.CreatedAt),
		UpdatedAt:       timestampToTime(d.UpdatedAt),
		Version:         d.Version,
	}
	if d.Cancellation != nil {
		b.Cancellation = &domainbooking.Cancellation{
			CancelledBy:  domainbooking.Party(d.Cancellation.CancelledBy),
			CancelledAt:  timestampToTime(d.Cancellation.CancelledAt),
			Reason:       d.Cancellation.Reason,
			RefundAmount: fromMoneyDoc(d.Cancellation.RefundAmount),
		}
	}
	return b
}

func toMoneyDoc(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func fromMoneyDoc(d moneyDocument) money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
