package escrow

import (
	"errors"
	"testing"
	"time"

	"homelet/internal/domain/booking"
	"homelet/internal/domain/shared/money"
)

var (
	moveIn  = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	created = time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
)

func newSixMonthContract(t *testing.T) *Contract {
	t.Helper()
	c, err := NewContract(booking.BookingID("bkg-1"), money.Must(10000, "USD"), 6, moveIn, created)
	if err != nil {
		t.Fatalf("NewContract failed: %v", err)
	}
	return c
}

func TestNewContractBuildsSchedule(t *testing.T) {
	c := newSixMonthContract(t)
	if c.DepositAmount.Amount != 10000 {
		t.Errorf("deposit = %d, want 10000", c.DepositAmount.Amount)
	}
	if c.FirstMonthRent.Amount != 10000 {
		t.Errorf("first month rent = %d, want 10000", c.FirstMonthRent.Amount)
	}
	if c.DepositStatus != HoldHeld || c.FirstMonthStatus != HoldHeld {
		t.Errorf("holds = (%s, %s), want both held", c.DepositStatus, c.FirstMonthStatus)
	}
	if len(c.Schedule) != 5 {
		t.Fatalf("schedule has %d entries, want 5 for months 2-6", len(c.Schedule))
	}
	for i, entry := range c.Schedule {
		wantMonth := i + 2
		if entry.MonthNumber != wantMonth {
			t.Errorf("entry %d month = %d, want %d", i, entry.MonthNumber, wantMonth)
		}
		if entry.Amount.Amount != 10000 {
			t.Errorf("entry %d amount = %d, want 10000", i, entry.Amount.Amount)
		}
		if entry.Status != EntryPending {
			t.Errorf("entry %d status = %s, want %s", i, entry.Status, EntryPending)
		}
		wantDue := moveIn.AddDate(0, wantMonth-1, 0)
		if !entry.DueDate.Equal(wantDue) {
			t.Errorf("entry %d due = %s, want %s", i, entry.DueDate, wantDue)
		}
	}
}

func TestNewContractRejectsShortTerm(t *testing.T) {
	if _, err := NewContract("bkg-1", money.Must(10000, "USD"), 2, moveIn, created); !errors.Is(err, ErrTermTooShort) {
		t.Errorf("error = %v, want ErrTermTooShort", err)
	}
}

func TestConfirmMoveInReleasesFirstMonth(t *testing.T) {
	c := newSixMonthContract(t)
	now := moveIn.Add(6 * time.Hour)
	if err := c.ConfirmMoveIn(now); err != nil {
		t.Fatalf("ConfirmMoveIn failed: %v", err)
	}
	if !c.MoveInConfirmed {
		t.Error("move-in flag not set")
	}
	if c.FirstMonthStatus != HoldReleasedToLandlord {
		t.Errorf("first month status = %s, want %s", c.FirstMonthStatus, HoldReleasedToLandlord)
	}
	if err := c.ConfirmMoveIn(now); !errors.Is(err, ErrMoveInAlreadyConfirmed) {
		t.Errorf("second confirm error = %v, want ErrMoveInAlreadyConfirmed", err)
	}
}

func TestConfirmMoveInToleratesPriorAdminRelease(t *testing.T) {
	c := newSixMonthContract(t)
	if err := c.ReleaseFirstMonth(moveIn); err != nil {
		t.Fatalf("ReleaseFirstMonth failed: %v", err)
	}
	if err := c.ConfirmMoveIn(moveIn.Add(time.Hour)); err != nil {
		t.Fatalf("ConfirmMoveIn after admin release failed: %v", err)
	}
}

func TestReleaseIsMonotone(t *testing.T) {
	c := newSixMonthContract(t)
	if err := c.ReleaseFirstMonth(moveIn); err != nil {
		t.Fatalf("ReleaseFirstMonth failed: %v", err)
	}
	if err := c.ReleaseFirstMonth(moveIn); !errors.Is(err, ErrAlreadyReleased) {
		t.Errorf("second release error = %v, want ErrAlreadyReleased", err)
	}
	if c.FirstMonthStatus != HoldReleasedToLandlord {
		t.Errorf("first month status regressed to %s", c.FirstMonthStatus)
	}

	if err := c.ReleaseDeposit(ToRenter, moveIn); err != nil {
		t.Fatalf("ReleaseDeposit failed: %v", err)
	}
	if err := c.ReleaseDeposit(ToLandlord, moveIn); !errors.Is(err, ErrAlreadyReleased) {
		t.Errorf("re-release error = %v, want ErrAlreadyReleased", err)
	}
	if c.DepositStatus != HoldReleasedToRenter {
		t.Errorf("deposit status regressed to %s", c.DepositStatus)
	}
}

func TestDisputedDepositStaysReleasable(t *testing.T) {
	c := newSixMonthContract(t)
	if err := c.DisputeDeposit(moveIn); err != nil {
		t.Fatalf("DisputeDeposit failed: %v", err)
	}
	if c.DepositStatus != HoldDisputed {
		t.Errorf("deposit status = %s, want %s", c.DepositStatus, HoldDisputed)
	}
	if c.Settled() {
		t.Error("disputed deposit must still count as held")
	}
	if err := c.ReleaseDeposit(ToLandlord, moveIn); err != nil {
		t.Fatalf("releasing a disputed deposit failed: %v", err)
	}
	if err := c.DisputeDeposit(moveIn); !errors.Is(err, ErrDepositNotHeld) {
		t.Errorf("disputing a released deposit error = %v, want ErrDepositNotHeld", err)
	}
}

func TestSettledAfterBothHoldsReleased(t *testing.T) {
	c := newSixMonthContract(t)
	if c.Settled() {
		t.Fatal("fresh contract must not be settled")
	}
	if err := c.ConfirmMoveIn(moveIn); err != nil {
		t.Fatalf("ConfirmMoveIn failed: %v", err)
	}
	if c.Settled() {
		t.Fatal("deposit still held, contract cannot be settled")
	}
	if err := c.ReleaseDeposit(ToRenter, moveIn.AddDate(0, 6, 0)); err != nil {
		t.Fatalf("ReleaseDeposit failed: %v", err)
	}
	if !c.Settled() {
		t.Error("contract with both holds released must be settled")
	}
}

func TestPayInstallmentLifecycle(t *testing.T) {
	c := newSixMonthContract(t)
	paidAt := moveIn.AddDate(0, 1, 2)

	if err := c.MarkInstallmentTransferred(2, paidAt); !errors.Is(err, ErrEntryNotAwaitingPayout) {
		t.Errorf("transfer before payment error = %v, want ErrEntryNotAwaitingPayout", err)
	}

	hostFee, err := c.PayInstallment(2, "pay-77", paidAt)
	if err != nil {
		t.Fatalf("PayInstallment failed: %v", err)
	}
	if hostFee.Amount != 300 {
		t.Errorf("host fee = %d, want 300", hostFee.Amount)
	}
	entry := c.Schedule[0]
	if entry.Status != EntryAwaitingPayout {
		t.Errorf("entry status = %s, want %s", entry.Status, EntryAwaitingPayout)
	}
	if entry.PaymentID != "pay-77" || entry.PaidDate.IsZero() {
		t.Errorf("payment reference not recorded: %+v", entry)
	}

	if _, err := c.PayInstallment(2, "pay-78", paidAt); !errors.Is(err, ErrEntryAlreadyPaid) {
		t.Errorf("double pay error = %v, want ErrEntryAlreadyPaid", err)
	}
	if _, err := c.PayInstallment(9, "pay-79", paidAt); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("unknown month error = %v, want ErrEntryNotFound", err)
	}

	if err := c.MarkInstallmentTransferred(2, paidAt.Add(time.Hour)); err != nil {
		t.Fatalf("MarkInstallmentTransferred failed: %v", err)
	}
	if c.Schedule[0].Status != EntryPaid {
		t.Errorf("entry status = %s, want %s", c.Schedule[0].Status, EntryPaid)
	}
	if err := c.MarkInstallmentTransferred(2, paidAt); !errors.Is(err, ErrEntryNotAwaitingPayout) {
		t.Errorf("double transfer error = %v, want ErrEntryNotAwaitingPayout", err)
	}
}

func TestEffectiveStatusDerivesOverdue(t *testing.T) {
	c := newSixMonthContract(t)
	entry := c.Schedule[0] // month 2, due moveIn+1 month

	if got := entry.EffectiveStatus(entry.DueDate.Add(-time.Hour)); got != EntryPending {
		t.Errorf("before due date status = %s, want %s", got, EntryPending)
	}
	if got := entry.EffectiveStatus(entry.DueDate.Add(time.Hour)); got != EntryOverdue {
		t.Errorf("past due date status = %s, want %s", got, EntryOverdue)
	}
	if entry.Status != EntryPending {
		t.Errorf("stored status mutated to %s", entry.Status)
	}

	if _, err := c.PayInstallment(2, "pay-1", entry.DueDate.AddDate(0, 0, 3)); err != nil {
		t.Fatalf("PayInstallment failed: %v", err)
	}
	if got := c.Schedule[0].EffectiveStatus(entry.DueDate.AddDate(0, 0, 4)); got != EntryAwaitingPayout {
		t.Errorf("paid entry reads %s, want %s", got, EntryAwaitingPayout)
	}
}
