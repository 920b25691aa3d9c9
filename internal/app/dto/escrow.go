package dto

import (
	"time"

	domainescrow "homelet/internal/domain/escrow"
)

// EscrowView exposes the contract ledger including the schedule with its
// read-time overdue derivation.
type EscrowView struct {
	BookingID        string              `json:"booking_id"`
	MonthlyRent      int64               `json:"monthly_rent"`
	DepositAmount    int64               `json:"deposit_amount"`
	FirstMonthRent   int64               `json:"first_month_rent"`
	DepositStatus    string              `json:"deposit_status"`
	FirstMonthStatus string              `json:"first_month_rent_status"`
	MoveInConfirmed  bool                `json:"move_in_confirmed"`
	MoveInAt         *time.Time          `json:"move_in_at,omitempty"`
	Schedule         []ScheduleEntryView `json:"payment_schedule"`
}

type ScheduleEntryView struct {
	MonthNumber int        `json:"month_number"`
	DueDate     time.Time  `json:"due_date"`
	Amount      int64      `json:"amount"`
	Status      string     `json:"status"`
	HostFee     int64      `json:"host_processing_fee,omitempty"`
	PaymentID   string     `json:"payment_id,omitempty"`
	PaidDate    *time.Time `json:"paid_date,omitempty"`
}

func NewEscrowView(c *domainescrow.Contract, now time.Time) EscrowView {
	view := EscrowView{
		BookingID:        string(c.BookingID),
		MonthlyRent:      c.MonthlyRent.Amount,
		DepositAmount:    c.DepositAmount.Amount,
		FirstMonthRent:   c.FirstMonthRent.Amount,
		DepositStatus:    string(c.DepositStatus),
		FirstMonthStatus: string(c.FirstMonthStatus),
		MoveInConfirmed:  c.MoveInConfirmed,
	}
	if c.MoveInConfirmed {
		at := c.MoveInAt
		view.MoveInAt = &at
	}
	for _, entry := range c.Schedule {
		item := ScheduleEntryView{
			MonthNumber: entry.MonthNumber,
			DueDate:     entry.DueDate,
			Amount:      entry.Amount.Amount,
			Status:      string(entry.EffectiveStatus(now)),
			HostFee:     entry.HostFee.Amount,
			PaymentID:   entry.PaymentID,
		}
		if !entry.PaidDate.IsZero() {
			paid := entry.PaidDate
			item.PaidDate = &paid
		}
		view.Schedule = append(view.Schedule, item)
	}
	return view
}
