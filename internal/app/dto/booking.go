package dto

import (
	"time"

	domainbooking "homelet/internal/domain/booking"
)

// BookingView is the read model served to dashboards and clients.
type BookingView struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"property_id"`
	RoomID     string    `json:"room_id,omitempty"`
	Renter     string    `json:"renter"`
	Landlord   string    `json:"landlord"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Months     int       `json:"months,omitempty"`

	TotalPaid         int64  `json:"total_paid"`
	Currency          string `json:"currency"`
	BaseRent          int64  `json:"base_rent"`
	GuestServiceFee   int64  `json:"guest_service_fee"`
	HostProcessingFee int64  `json:"host_processing_fee"`
	PlatformFee       int64  `json:"platform_fee"`
	LandlordPayout    int64  `json:"landlord_payout"`

	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	PayoutStatus  string `json:"payout_status"`
	EscrowBacked  bool   `json:"escrow_backed"`

	Cancellation *CancellationView `json:"cancellation,omitempty"`
	Escrow       *EscrowView       `json:"escrow,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CancellationView struct {
	Actor        string    `json:"actor"`
	Reason       string    `json:"reason,omitempty"`
	RefundAmount int64     `json:"refund_amount"`
	RefundStatus string    `json:"refund_status"`
	At           time.Time `json:"at"`
}

func NewBookingView(b *domainbooking.Booking) BookingView {
	view := BookingView{
		ID:                string(b.ID),
		PropertyID:        string(b.PropertyID),
		RoomID:            b.RoomID,
		Renter:            b.Renter,
		Landlord:          b.Landlord,
		StartDate:         b.Range.Start,
		EndDate:           b.Range.End,
		Months:            b.Months,
		TotalPaid:         b.TotalPaid.Amount,
		Currency:          b.TotalPaid.Currency,
		BaseRent:          b.Fees.BaseRent.Amount,
		GuestServiceFee:   b.Fees.GuestServiceFee.Amount,
		HostProcessingFee: b.Fees.HostProcessingFee.Amount,
		PlatformFee:       b.PlatformFeeTotal.Amount,
		LandlordPayout:    b.Fees.LandlordPayout.Amount,
		Status:            string(b.Status),
		PaymentStatus:     string(b.PaymentStatus),
		PayoutStatus:      string(b.PayoutStatus),
		EscrowBacked:      b.EscrowBacked,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
	if b.Cancellation != nil {
		view.Cancellation = &CancellationView{
			Actor:        string(b.Cancellation.Actor),
			Reason:       b.Cancellation.Reason,
			RefundAmount: b.Cancellation.RefundAmount.Amount,
			RefundStatus: string(b.Cancellation.RefundStatus),
			At:           b.Cancellation.At,
		}
	}
	return view
}
