package booking

import "homelet/internal/domain/shared/money"

type RefundStatus string

const (
	RefundNone    RefundStatus = "NONE"
	RefundPending RefundStatus = "PENDING"
)

// Refund is the computed cancellation outcome: an amount owed back to the
// renter and whether external settlement is still due.
type Refund struct {
	Amount money.Money
	Status RefundStatus
}

// RefundFor applies the cancellation tiers. A landlord cancelling always owes
// the full amount back. A renter's refund depends on how many whole days
// remain until check-in: 30 or more days 100%, 7-29 days 70%, 3-6 days 50%,
// under 3 days nothing.
func RefundFor(actor Actor, total money.Money, daysUntilCheckIn int) Refund {
	percent := int64(0)
	switch {
	case actor == ActorLandlord:
		percent = 100
	case daysUntilCheckIn >= 30:
		percent = 100
	case daysUntilCheckIn >= 7:
		percent = 70
	case daysUntilCheckIn >= 3:
		percent = 50
	}
	amount := total.PercentRound(percent)
	status := RefundNone
	if amount.IsPositive() {
		status = RefundPending
	}
	return Refund{Amount: amount, Status: status}
}
