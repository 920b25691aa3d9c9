package escrow

import (
	"context"
	"errors"
	"time"

	"homelet/internal/domain/booking"
	"homelet/internal/domain/shared/events"
	"homelet/internal/domain/shared/money"
)

var (
	ErrContractNotFound       = errors.New("escrow: contract not found")
	ErrTermTooShort           = errors.New("escrow: contract requires at least 3 months")
	ErrRentRequired           = errors.New("escrow: monthly rent must be positive")
	ErrAlreadyReleased        = errors.New("escrow: value already released")
	ErrMoveInAlreadyConfirmed = errors.New("escrow: move-in already confirmed")
	ErrDepositNotHeld         = errors.New("escrow: deposit is not held")
	ErrEntryNotFound          = errors.New("escrow: schedule entry not found")
	ErrEntryAlreadyPaid       = errors.New("escrow: schedule entry already paid")
	ErrEntryNotAwaitingPayout = errors.New("escrow: schedule entry not awaiting payout")
)

// MinTermMonths is the shortest rental term that gets an escrow contract.
const MinTermMonths = 3

// HoldStatus tracks one escrowed value. Release states are terminal; DISPUTED
// is an intermediate hold flag, not a terminal state.
type HoldStatus string

const (
	HoldHeld               HoldStatus = "HELD"
	HoldDisputed           HoldStatus = "DISPUTED"
	HoldReleasedToRenter   HoldStatus = "RELEASED_TO_RENTER"
	HoldReleasedToLandlord HoldStatus = "RELEASED_TO_LANDLORD"
)

func (s HoldStatus) held() bool {
	return s == HoldHeld || s == HoldDisputed
}

// Beneficiary selects who a deposit release pays.
type Beneficiary string

const (
	ToRenter   Beneficiary = "RENTER"
	ToLandlord Beneficiary = "LANDLORD"
)

// EntryStatus tracks one monthly installment. Entries never regress.
type EntryStatus string

const (
	EntryPending EntryStatus = "PENDING"
	// EntryAwaitingPayout means the renter paid; an explicit admin action marks
	// the final landlord transfer.
	EntryAwaitingPayout EntryStatus = "PENDING_PAYOUT_TO_LANDLORD"
	EntryPaid           EntryStatus = "PAID"
	// EntryOverdue is derived at read time, never stored.
	EntryOverdue EntryStatus = "OVERDUE"
)

// ScheduleEntry is one forward installment for months 2..N.
type ScheduleEntry struct {
	MonthNumber int
	DueDate     time.Time
	Amount      money.Money
	Status      EntryStatus
	HostFee     money.Money
	PaymentID   string
	PaidDate    time.Time
}

// EffectiveStatus derives the read-time status: a pending entry past its due
// date reads as overdue without any scheduled job flipping it.
func (e ScheduleEntry) EffectiveStatus(now time.Time) EntryStatus {
	if e.Status == EntryPending && e.DueDate.Before(now.UTC()) {
		return EntryOverdue
	}
	return e.Status
}

// Contract is the escrow side-ledger of one long-term booking. It owns the
// deposit, the first month rent and the forward payment schedule; it is
// created once with the booking and destroyed only with it.
type Contract struct {
	BookingID      booking.BookingID
	MonthlyRent    money.Money
	DepositAmount  money.Money
	FirstMonthRent money.Money

	DepositStatus    HoldStatus
	FirstMonthStatus HoldStatus
	MoveInConfirmed  bool
	MoveInAt         time.Time

	Schedule []ScheduleEntry

	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	events.EventRecorder
}

type Repository interface {
	ByBooking(ctx context.Context, id booking.BookingID) (*Contract, error)
	Save(ctx context.Context, c *Contract) error
	Delete(ctx context.Context, id booking.BookingID) error
}

// NewContract opens escrow for a stay of the given whole months starting at
// moveIn. Deposit and first month each equal one month's rent; the schedule
// holds months 2..N due on the monthly anniversary of move-in. The schedule is
// generated here exactly once and never rebuilt.
func NewContract(bookingID booking.BookingID, monthlyRent money.Money, months int, moveIn, now time.Time) (*Contract, error) {
	if months < MinTermMonths {
		return nil, ErrTermTooShort
	}
	if !monthlyRent.IsPositive() {
		return nil, ErrRentRequired
	}
	created := now.UTC()
	c := &Contract{
		BookingID:        bookingID,
		MonthlyRent:      monthlyRent,
		DepositAmount:    monthlyRent,
		FirstMonthRent:   monthlyRent,
		DepositStatus:    HoldHeld,
		FirstMonthStatus: HoldHeld,
		CreatedAt:        created,
		UpdatedAt:        created,
	}
	start := moveIn.UTC()
	for month := 2; month <= months; month++ {
		c.Schedule = append(c.Schedule, ScheduleEntry{
			MonthNumber: month,
			DueDate:     start.AddDate(0, month-1, 0),
			Amount:      monthlyRent,
			Status:      EntryPending,
		})
	}
	c.Record(ContractOpened{BookingID: bookingID, Deposit: c.DepositAmount, Months: months, At: created})
	return c, nil
}

// ConfirmMoveIn is the renter's explicit check-in confirmation. It is
// irreversible and releases the first month rent to the landlord unless an
// administrative release already did.
func (c *Contract) ConfirmMoveIn(now time.Time) error {
	if c.MoveInConfirmed {
		return ErrMoveInAlreadyConfirmed
	}
	c.MoveInConfirmed = true
	c.MoveInAt = now.UTC()
	c.UpdatedAt = c.MoveInAt
	c.Record(MoveInConfirmed{BookingID: c.BookingID, At: c.MoveInAt})
	if c.FirstMonthStatus.held() {
		return c.ReleaseFirstMonth(now)
	}
	return nil
}

// ReleaseFirstMonth pays the held first month rent out to the landlord.
func (c *Contract) ReleaseFirstMonth(now time.Time) error {
	if !c.FirstMonthStatus.held() {
		return ErrAlreadyReleased
	}
	c.FirstMonthStatus = HoldReleasedToLandlord
	c.UpdatedAt = now.UTC()
	c.Record(RentReleased{BookingID: c.BookingID, Amount: c.FirstMonthRent, At: c.UpdatedAt})
	return nil
}

// ReleaseDeposit pays the held deposit to the chosen side. Dispute verdicts
// reach escrow funds only through this transition.
func (c *Contract) ReleaseDeposit(to Beneficiary, now time.Time) error {
	if !c.DepositStatus.held() {
		return ErrAlreadyReleased
	}
	switch to {
	case ToRenter:
		c.DepositStatus = HoldReleasedToRenter
	case ToLandlord:
		c.DepositStatus = HoldReleasedToLandlord
	default:
		return errors.New("escrow: unknown beneficiary")
	}
	c.UpdatedAt = now.UTC()
	c.Record(DepositReleased{BookingID: c.BookingID, To: to, Amount: c.DepositAmount, At: c.UpdatedAt})
	return nil
}

// DisputeDeposit flags the held deposit pending an external verdict.
func (c *Contract) DisputeDeposit(now time.Time) error {
	if !c.DepositStatus.held() {
		return ErrDepositNotHeld
	}
	c.DepositStatus = HoldDisputed
	c.UpdatedAt = now.UTC()
	c.Record(DepositDisputed{BookingID: c.BookingID, At: c.UpdatedAt})
	return nil
}

// PayInstallment records a verified renter payment for the given month. The
// entry moves straight to awaiting landlord payout and the host processing fee
// for that month is returned so the caller can grow the booking's running
// platform fee. No guest service fee is re-levied on installments.
func (c *Contract) PayInstallment(monthNumber int, paymentID string, now time.Time) (money.Money, error) {
	entry := c.entry(monthNumber)
	if entry == nil {
		return money.Money{}, ErrEntryNotFound
	}
	if entry.Status != EntryPending {
		return money.Money{}, ErrEntryAlreadyPaid
	}
	hostFee := booking.MonthlyHostFee(entry.Amount)
	entry.Status = EntryAwaitingPayout
	entry.HostFee = hostFee
	entry.PaymentID = paymentID
	entry.PaidDate = now.UTC()
	c.UpdatedAt = entry.PaidDate
	c.Record(InstallmentPaid{
		BookingID:   c.BookingID,
		MonthNumber: monthNumber,
		Amount:      entry.Amount,
		HostFee:     hostFee,
		At:          c.UpdatedAt,
	})
	return hostFee, nil
}

// MarkInstallmentTransferred is the explicit admin action closing an
// installment after the landlord transfer happened.
func (c *Contract) MarkInstallmentTransferred(monthNumber int, now time.Time) error {
	entry := c.entry(monthNumber)
	if entry == nil {
		return ErrEntryNotFound
	}
	if entry.Status != EntryAwaitingPayout {
		return ErrEntryNotAwaitingPayout
	}
	entry.Status = EntryPaid
	c.UpdatedAt = now.UTC()
	c.Record(InstallmentTransferred{BookingID: c.BookingID, MonthNumber: monthNumber, Amount: entry.Amount, At: c.UpdatedAt})
	return nil
}

// Settled reports whether both upfront holds have left escrow, which is when
// the parent booking's payout flips to paid.
func (c *Contract) Settled() bool {
	return !c.DepositStatus.held() && !c.FirstMonthStatus.held()
}

func (c *Contract) entry(monthNumber int) *ScheduleEntry {
	for i := range c.Schedule {
		if c.Schedule[i].MonthNumber == monthNumber {
			return &c.Schedule[i]
		}
	}
	return nil
}
