package booking

import (
	"stayfinder/internal/domain/listings"
	"stayfinder/internal/domain/shared/money"
)

// RefundAmount applies the listing's refund schedule to the booked total.
// daysUntilCheckIn counts whole days from the cancellation day to check-in;
// all thresholds are inclusive.
//
//	flexible:     >= 1 day  -> 5%
//	moderate:     >= 5 days -> 100%, >= 1 day -> 50%
//	strict:       >= 7 days -> 40%
//	super-strict: >= 30 days -> 20%
//
// Anything later refunds nothing.
func RefundAmount(policy listings.CancellationPolicy, total money.Money, daysUntilCheckIn int) money.Money {
	zero := money.Money{Currency: total.Currency}
	switch policy {
	case listings.PolicyFlexible:
		if daysUntilCheckIn >= 1 {
			return total.Percent(5)
		}
	case listings.PolicyModerate:
		if daysUntilCheckIn >= 5 {
			return total
		}
		if daysUntilCheckIn >= 1 {
			return total.Percent(50)
		}
	case listings.PolicyStrict:
		if daysUntilCheckIn >= 7 {
			return total.Percent(40)
		}
	case listings.PolicySuperStrict:
		if daysUntilCheckIn >= 30 {
			return total.Percent(20)
		}
	}
	return zero
}
