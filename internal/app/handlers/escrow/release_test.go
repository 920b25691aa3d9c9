package escrow

import (
	"context"
	"errors"
	"testing"
	"time"

	"homelet/internal/app/policies"
	domainbooking "homelet/internal/domain/booking"
	domainescrow "homelet/internal/domain/escrow"
	domainrange "homelet/internal/domain/shared/daterange"
	"homelet/internal/domain/shared/money"
	"homelet/internal/infra/security"
	"homelet/internal/infra/storage/memory"
)

var (
	testSecret = []byte("test-payment-secret")
	testMoveIn = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
)

func seedEscrowBooking(t *testing.T, factory *memory.Factory) *domainbooking.Booking {
	t.Helper()
	ctx := context.Background()
	total := money.Must(10800, "USD")
	fees, err := domainbooking.SplitFees(total, true)
	if err != nil {
		t.Fatalf("SplitFees failed: %v", err)
	}
	bkg, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:           "bkg-1",
		PropertyID:   "prop-1",
		Renter:       "renter@example.com",
		Landlord:     "landlord@example.com",
		Range:        mustMonths(t, testMoveIn, 6),
		Months:       6,
		TotalPaid:    total,
		Fees:         fees,
		EscrowBacked: true,
		Payment:      domainbooking.PaymentReference{OrderID: "ord-1", PaymentID: "pay-1"},
		CreatedAt:    testMoveIn.AddDate(0, 0, -10),
	})
	if err != nil {
		t.Fatalf("NewBooking failed: %v", err)
	}
	bkg.ClearEvents()
	if err := factory.Bookings.Save(ctx, bkg); err != nil {
		t.Fatalf("booking save failed: %v", err)
	}
	contract, err := domainescrow.NewContract(bkg.ID, money.Must(10000, "USD"), 6, testMoveIn, bkg.CreatedAt)
	if err != nil {
		t.Fatalf("NewContract failed: %v", err)
	}
	contract.ClearEvents()
	if err := factory.Escrows.Save(ctx, contract); err != nil {
		t.Fatalf("contract save failed: %v", err)
	}
	return bkg
}

func mustMonths(t *testing.T, start time.Time, months int) domainrange.DateRange {
	t.Helper()
	dr, err := domainrange.FromMonths(start, months)
	if err != nil {
		t.Fatalf("FromMonths failed: %v", err)
	}
	return dr
}

func TestConfirmMoveInReleasesRentAndKeepsPayoutHeld(t *testing.T) {
	factory := memory.NewFactory()
	box := memory.NewOutbox(nil)
	seedEscrowBooking(t, factory)

	handler := &ConfirmMoveInHandler{
		UoWFactory: factory,
		Outbox:     box,
		Now:        func() time.Time { return testMoveIn.Add(3 * time.Hour) },
	}

	if _, err := handler.Handle(context.Background(), ConfirmMoveInCommand{
		BookingID: "bkg-1",
		Actor:     "landlord@example.com",
	}); !errors.Is(err, domainbooking.ErrActorNotAllowed) {
		t.Fatalf("landlord move-in error = %v, want ErrActorNotAllowed", err)
	}

	result, err := handler.Handle(context.Background(), ConfirmMoveInCommand{
		BookingID: "bkg-1",
		Actor:     "renter@example.com",
	})
	if err != nil {
		t.Fatalf("confirm move-in failed: %v", err)
	}
	if result.PayoutStatus != string(domainbooking.PayoutHeld) {
		t.Errorf("payout = %s, deposit still held so payout must stay %s", result.PayoutStatus, domainbooking.PayoutHeld)
	}

	contract, err := factory.Escrows.ByBooking(context.Background(), "bkg-1")
	if err != nil {
		t.Fatalf("contract load failed: %v", err)
	}
	if contract.FirstMonthStatus != domainescrow.HoldReleasedToLandlord {
		t.Errorf("first month status = %s, want released to landlord", contract.FirstMonthStatus)
	}

	names := map[string]bool{}
	for _, rec := range box.Drain() {
		names[rec.Name] = true
	}
	if !names["escrow.move_in_confirmed"] || !names["escrow.rent_released"] {
		t.Errorf("outbox events = %v", names)
	}
}

func TestReleaseDepositFlipsPayoutWhenSettled(t *testing.T) {
	factory := memory.NewFactory()
	box := memory.NewOutbox(nil)
	seedEscrowBooking(t, factory)

	now := func() time.Time { return testMoveIn.AddDate(0, 6, 1) }
	release := &ReleaseHandler{UoWFactory: factory, Outbox: box, Now: now}

	result, err := release.Handle(context.Background(), ReleaseCommand{BookingID: "bkg-1", Action: ReleaseRent})
	if err != nil {
		t.Fatalf("release rent failed: %v", err)
	}
	if result.PayoutStatus != string(domainbooking.PayoutHeld) {
		t.Errorf("payout after rent release = %s, want %s", result.PayoutStatus, domainbooking.PayoutHeld)
	}

	if _, err := release.Handle(context.Background(), ReleaseCommand{BookingID: "bkg-1", Action: ReleaseRent}); !errors.Is(err, domainescrow.ErrAlreadyReleased) {
		t.Fatalf("double rent release error = %v, want ErrAlreadyReleased", err)
	}

	if _, err := release.Handle(context.Background(), ReleaseCommand{BookingID: "bkg-1", Action: DisputeDeposit}); err != nil {
		t.Fatalf("dispute failed: %v", err)
	}

	result, err = release.Handle(context.Background(), ReleaseCommand{BookingID: "bkg-1", Action: ReleaseDepositToLandlord})
	if err != nil {
		t.Fatalf("deposit release failed: %v", err)
	}
	if result.PayoutStatus != string(domainbooking.PayoutPaid) {
		t.Errorf("payout after full settlement = %s, want %s", result.PayoutStatus, domainbooking.PayoutPaid)
	}

	bkg, err := factory.Bookings.ByID(context.Background(), "bkg-1")
	if err != nil {
		t.Fatalf("booking load failed: %v", err)
	}
	if bkg.PayoutStatus != domainbooking.PayoutPaid {
		t.Errorf("persisted payout = %s, want %s", bkg.PayoutStatus, domainbooking.PayoutPaid)
	}

	names := map[string]bool{}
	for _, rec := range box.Drain() {
		names[rec.Name] = true
	}
	if !names["booking.payout_completed"] || !names["escrow.deposit_released"] {
		t.Errorf("outbox events = %v", names)
	}

	if _, err := release.Handle(context.Background(), ReleaseCommand{BookingID: "bkg-1", Action: ReleaseAction("RELEASE_EVERYTHING")}); !errors.Is(err, ErrUnknownReleaseAction) {
		t.Errorf("unknown action error = %v, want ErrUnknownReleaseAction", err)
	}
}

func TestPayInstallmentAccumulatesPlatformFee(t *testing.T) {
	factory := memory.NewFactory()
	box := memory.NewOutbox(nil)
	seedEscrowBooking(t, factory)

	pay := &PayInstallmentHandler{
		UoWFactory: factory,
		Payments:   security.HMACPaymentVerifier{Secret: testSecret},
		Outbox:     box,
		Now:        func() time.Time { return testMoveIn.AddDate(0, 1, 0) },
	}

	cmd := PayInstallmentCommand{
		BookingID:   "bkg-1",
		Actor:       "renter@example.com",
		MonthNumber: 2,
		Payment: policies.PaymentConfirmation{
			OrderID:   "ord-m2",
			PaymentID: "pay-m2",
			Signature: security.Sign(testSecret, "ord-m2", "pay-m2"),
		},
	}
	result, err := pay.Handle(context.Background(), cmd)
	if err != nil {
		t.Fatalf("pay installment failed: %v", err)
	}
	if result.HostFee != 300 {
		t.Errorf("host fee = %d, want 300", result.HostFee)
	}
	// 1100 from the upfront split plus 300 for month 2.
	if result.PlatformFeeTotal != 1400 {
		t.Errorf("platform fee total = %d, want 1400", result.PlatformFeeTotal)
	}

	if _, err := pay.Handle(context.Background(), cmd); !errors.Is(err, domainescrow.ErrEntryAlreadyPaid) {
		t.Fatalf("double pay error = %v, want ErrEntryAlreadyPaid", err)
	}

	transfer := &MarkInstallmentTransferredHandler{UoWFactory: factory, Outbox: box}
	if _, err := transfer.Handle(context.Background(), MarkInstallmentTransferredCommand{BookingID: "bkg-1", MonthNumber: 2}); err != nil {
		t.Fatalf("mark transferred failed: %v", err)
	}
	contract, err := factory.Escrows.ByBooking(context.Background(), "bkg-1")
	if err != nil {
		t.Fatalf("contract load failed: %v", err)
	}
	if contract.Schedule[0].Status != domainescrow.EntryPaid {
		t.Errorf("entry status = %s, want %s", contract.Schedule[0].Status, domainescrow.EntryPaid)
	}
}

func TestScheduleQueryDerivesOverdue(t *testing.T) {
	factory := memory.NewFactory()
	seedEscrowBooking(t, factory)

	handler := &GetScheduleHandler{
		UoWFactory: factory,
		Now:        func() time.Time { return testMoveIn.AddDate(0, 2, 5) },
	}
	view, err := handler.Handle(context.Background(), GetScheduleQuery{BookingID: "bkg-1"})
	if err != nil {
		t.Fatalf("schedule query failed: %v", err)
	}
	if len(view.Schedule) != 5 {
		t.Fatalf("schedule has %d entries, want 5", len(view.Schedule))
	}
	// months 2 and 3 are past due at move-in + 2 months 5 days
	if view.Schedule[0].Status != string(domainescrow.EntryOverdue) {
		t.Errorf("month 2 status = %s, want %s", view.Schedule[0].Status, domainescrow.EntryOverdue)
	}
	if view.Schedule[1].Status != string(domainescrow.EntryOverdue) {
		t.Errorf("month 3 status = %s, want %s", view.Schedule[1].Status, domainescrow.EntryOverdue)
	}
	if view.Schedule[2].Status != string(domainescrow.EntryPending) {
		t.Errorf("month 4 status = %s, want %s", view.Schedule[2].Status, domainescrow.EntryPending)
	}
}
