package escrow

import (
	"time"

	"homelet/internal/domain/booking"
	"homelet/internal/domain/shared/money"
)

type ContractOpened struct {
	BookingID booking.BookingID
	Deposit   money.Money
	Months    int
	At        time.Time
}

func (e ContractOpened) EventName() string     { return "escrow.contract_opened" }
func (e ContractOpened) AggregateID() string   { return string(e.BookingID) }
func (e ContractOpened) OccurredAt() time.Time { return e.At }

type MoveInConfirmed struct {
	BookingID booking.BookingID
	At        time.Time
}

func (e MoveInConfirmed) EventName() string     { return "escrow.move_in_confirmed" }
func (e MoveInConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e MoveInConfirmed) OccurredAt() time.Time { return e.At }

type RentReleased struct {
	BookingID booking.BookingID
	Amount    money.Money
	At        time.Time
}

func (e RentReleased) EventName() string     { return "escrow.rent_released" }
func (e RentReleased) AggregateID() string   { return string(e.BookingID) }
func (e RentReleased) OccurredAt() time.Time { return e.At }

type DepositReleased struct {
	BookingID booking.BookingID
	To        Beneficiary
	Amount    money.Money
	At        time.Time
}

func (e DepositReleased) EventName() string     { return "escrow.deposit_released" }
func (e DepositReleased) AggregateID() string   { return string(e.BookingID) }
func (e DepositReleased) OccurredAt() time.Time { return e.At }

type DepositDisputed struct {
	BookingID booking.BookingID
	At        time.Time
}

func (e DepositDisputed) EventName() string     { return "escrow.deposit_disputed" }
func (e DepositDisputed) AggregateID() string   { return string(e.BookingID) }
func (e DepositDisputed) OccurredAt() time.Time { return e.At }

type InstallmentPaid struct {
	BookingID   booking.BookingID
	MonthNumber int
	Amount      money.Money
	HostFee     money.Money
	At          time.Time
}

func (e InstallmentPaid) EventName() string     { return "escrow.installment_paid" }
func (e InstallmentPaid) AggregateID() string   { return string(e.BookingID) }
func (e InstallmentPaid) OccurredAt() time.Time { return e.At }

type InstallmentTransferred struct {
	BookingID   booking.BookingID
	MonthNumber int
	Amount      money.Money
	At          time.Time
}

func (e InstallmentTransferred) EventName() string     { return "escrow.installment_transferred" }
func (e InstallmentTransferred) AggregateID() string   { return string(e.BookingID) }
func (e InstallmentTransferred) OccurredAt() time.Time { return e.At }
