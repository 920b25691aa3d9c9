package booking

import (
	"errors"
	"testing"
	"time"

	"homelet/internal/domain/property"
	"homelet/internal/domain/shared/money"
)

func newTestBooking(t *testing.T) *Booking {
	t.Helper()
	total := money.Must(20000, "USD")
	fees, err := SplitFees(total, false)
	if err != nil {
		t.Fatalf("SplitFees failed: %v", err)
	}
	b, err := NewBooking(CreateParams{
		ID:         "bkg-1",
		PropertyID: property.PropertyID("prop-1"),
		Renter:     "renter@example.com",
		Landlord:   "landlord@example.com",
		Range:      mustRange(t, "2025-06-10", "2025-06-20"),
		TotalPaid:  total,
		Fees:       fees,
		Payment:    PaymentReference{OrderID: "ord-1", PaymentID: "pay-1"},
		CreatedAt:  time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("NewBooking failed: %v", err)
	}
	return b
}

func TestNewBookingBornConfirmedAndPaid(t *testing.T) {
	b := newTestBooking(t)
	if b.Status != StatusConfirmed {
		t.Errorf("status = %s, want %s", b.Status, StatusConfirmed)
	}
	if b.PaymentStatus != PaymentPaid {
		t.Errorf("payment status = %s, want %s", b.PaymentStatus, PaymentPaid)
	}
	if b.PayoutStatus != PayoutHeld {
		t.Errorf("payout status = %s, want %s", b.PayoutStatus, PayoutHeld)
	}
	events := b.PendingEvents()
	if len(events) != 1 || events[0].EventName() != "booking.created" {
		t.Errorf("pending events = %v, want single booking.created", events)
	}
}

func TestNewBookingRequiresPaymentReference(t *testing.T) {
	total := money.Must(20000, "USD")
	_, err := NewBooking(CreateParams{
		ID:        "bkg-1",
		Renter:    "renter@example.com",
		Landlord:  "landlord@example.com",
		Range:     mustRange(t, "2025-06-10", "2025-06-20"),
		TotalPaid: total,
		CreatedAt: time.Now(),
	})
	if !errors.Is(err, ErrPaymentRequired) {
		t.Errorf("error = %v, want ErrPaymentRequired", err)
	}
}

func TestAuthorizeActor(t *testing.T) {
	b := newTestBooking(t)
	if actor, err := b.AuthorizeActor("renter@example.com"); err != nil || actor != ActorRenter {
		t.Errorf("renter email mapped to (%s, %v)", actor, err)
	}
	if actor, err := b.AuthorizeActor("landlord@example.com"); err != nil || actor != ActorLandlord {
		t.Errorf("landlord email mapped to (%s, %v)", actor, err)
	}
	if _, err := b.AuthorizeActor("stranger@example.com"); !errors.Is(err, ErrActorNotAllowed) {
		t.Errorf("stranger error = %v, want ErrActorNotAllowed", err)
	}
}

func TestCancelFiveDaysBeforeCheckIn(t *testing.T) {
	b := newTestBooking(t)
	b.ClearEvents()
	now := time.Date(2025, 6, 5, 9, 30, 0, 0, time.UTC)
	refund, err := b.Cancel(ActorRenter, "plans changed", now)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if refund.Amount.Amount != 10000 {
		t.Errorf("refund = %d, want 10000", refund.Amount.Amount)
	}
	if refund.Status != RefundPending {
		t.Errorf("refund status = %s, want %s", refund.Status, RefundPending)
	}
	if b.Status != StatusCancelled {
		t.Errorf("status = %s, want %s", b.Status, StatusCancelled)
	}
	if b.Cancellation == nil || b.Cancellation.Actor != ActorRenter {
		t.Errorf("cancellation record = %+v", b.Cancellation)
	}
	events := b.PendingEvents()
	if len(events) != 1 || events[0].EventName() != "booking.cancelled" {
		t.Errorf("pending events = %v, want single booking.cancelled", events)
	}
}

func TestCancelIsNotRepeatable(t *testing.T) {
	b := newTestBooking(t)
	now := time.Date(2025, 6, 5, 9, 30, 0, 0, time.UTC)
	if _, err := b.Cancel(ActorRenter, "", now); err != nil {
		t.Fatalf("first cancel failed: %v", err)
	}
	if _, err := b.Cancel(ActorRenter, "", now); !errors.Is(err, ErrAlreadyCancelled) {
		t.Errorf("second cancel error = %v, want ErrAlreadyCancelled", err)
	}
}

func TestMarkPayoutPaidOnce(t *testing.T) {
	b := newTestBooking(t)
	now := time.Now()
	if err := b.MarkPayoutPaid(now); err != nil {
		t.Fatalf("MarkPayoutPaid failed: %v", err)
	}
	if b.PayoutStatus != PayoutPaid {
		t.Errorf("payout status = %s, want %s", b.PayoutStatus, PayoutPaid)
	}
	if err := b.MarkPayoutPaid(now); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second MarkPayoutPaid error = %v, want ErrInvalidState", err)
	}
}

func TestAccumulatePlatformFee(t *testing.T) {
	b := newTestBooking(t)
	before := b.PlatformFeeTotal.Amount
	if err := b.AccumulatePlatformFee(money.Must(300, "USD"), time.Now()); err != nil {
		t.Fatalf("AccumulatePlatformFee failed: %v", err)
	}
	if b.PlatformFeeTotal.Amount != before+300 {
		t.Errorf("platform fee total = %d, want %d", b.PlatformFeeTotal.Amount, before+300)
	}
	if err := b.AccumulatePlatformFee(money.Must(300, "EUR"), time.Now()); err == nil {
		t.Error("mixing currencies must fail")
	}
}
