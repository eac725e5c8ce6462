package pricing

import (
	"errors"

	"stayfinder/internal/domain/listings"
	"stayfinder/internal/domain/shared/money"
)

var (
	ErrNoNights      = errors.New("pricing: nights must be positive")
	ErrCurrencyUnset = errors.New("pricing: currency must be defined")
	ErrTotalMismatch = errors.New("pricing: total does not match components")
)

const (
	// ServiceFeePercent is charged on the undiscounted subtotal.
	ServiceFeePercent = 14
	// TaxPercent applies to the discounted subtotal plus service fee.
	TaxPercent = 12

	weeklyDiscountMinNights  = 7
	monthlyDiscountMinNights = 28
)

// Discounts are the long-stay reductions. Weekly and monthly apply
// independently when both thresholds are met.
type Discounts struct {
	Weekly  money.Money
	Monthly money.Money
}

// Breakdown is the itemized price of a stay. It is computed once per booking
// and snapshotted; later catalog price changes never alter it.
type Breakdown struct {
	BasePrice   money.Money
	Nights      int
	Subtotal    money.Money
	CleaningFee money.Money
	ServiceFee  money.Money
	Taxes       money.Money
	Discounts   Discounts
	Total       money.Money
}

// Quote computes the deterministic price of a stay from the listing's
// published rules. Pure: no clock, no I/O.
//
// The service fee is 14% of the subtotal before discounts, rounded to the
// minor unit. Taxes are 12% of (subtotal - discounts + service fee), rounded
// the same way. The total is the exact sum of the components.
func Quote(rules listings.PricingRules, nights int) (Breakdown, error) {
	if nights <= 0 {
		return Breakdown{}, ErrNoNights
	}
	if rules.BasePrice.Currency == "" {
		return Breakdown{}, ErrCurrencyUnset
	}

	subtotal := rules.BasePrice.Multiply(int64(nights))

	var weekly, monthly money.Money
	weekly = money.Money{Currency: subtotal.Currency}
	monthly = money.Money{Currency: subtotal.Currency}
	if nights >= weeklyDiscountMinNights && rules.WeeklyDiscountPct > 0 {
		weekly = subtotal.Percent(rules.WeeklyDiscountPct)
	}
	if nights >= monthlyDiscountMinNights && rules.MonthlyDiscountPct > 0 {
		monthly = subtotal.Percent(rules.MonthlyDiscountPct)
	}

	cleaning := rules.CleaningFee
	if cleaning.Currency == "" {
		cleaning = money.Money{Currency: subtotal.Currency}
	}

	service := subtotal.PercentRounded(ServiceFeePercent)

	taxable := subtotal
	taxable, err := taxable.Sub(weekly)
	if err != nil {
		return Breakdown{}, err
	}
	taxable, err = taxable.Sub(monthly)
	if err != nil {
		return Breakdown{}, err
	}
	taxable, err = taxable.Add(service)
	if err != nil {
		return Breakdown{}, err
	}
	taxes := taxable.PercentRounded(TaxPercent)

	total, err := taxable.Add(cleaning)
	if err != nil {
		return Breakdown{}, err
	}
	total, err = total.Add(taxes)
	if err != nil {
		return Breakdown{}, err
	}

	return Breakdown{
		BasePrice:   rules.BasePrice,
		Nights:      nights,
		Subtotal:    subtotal,
		CleaningFee: cleaning,
		ServiceFee:  service,
		Taxes:       taxes,
		Discounts:   Discounts{Weekly: weekly, Monthly: monthly},
		Total:       total,
	}, nil
}

// Verify recomputes the total from the stored components and reports a
// mismatch. Used when rehydrating snapshots from storage.
func (b Breakdown) Verify() error {
	if b.Nights <= 0 {
		return ErrNoNights
	}
	if b.Subtotal.Currency == "" {
		return ErrCurrencyUnset
	}
	sum := b.Subtotal.Amount -
		b.Discounts.Weekly.Amount -
		b.Discounts.Monthly.Amount +
		b.CleaningFee.Amount +
		b.ServiceFee.Amount +
		b.Taxes.Amount
	if sum != b.Total.Amount {
		return ErrTotalMismatch
	}
	return nil
}
