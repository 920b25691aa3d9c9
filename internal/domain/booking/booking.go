package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"homelet/internal/domain/property"
	"homelet/internal/domain/shared/daterange"
	"homelet/internal/domain/shared/events"
	"homelet/internal/domain/shared/money"
)

var (
	ErrBookingNotFound  = errors.New("booking: not found")
	ErrRenterRequired   = errors.New("booking: renter is required")
	ErrLandlordRequired = errors.New("booking: landlord is required")
	ErrTotalRequired    = errors.New("booking: total paid must be positive")
	ErrPaymentRequired  = errors.New("booking: verified payment reference required")
	ErrInvalidState     = errors.New("booking: invalid state transition")
	ErrFullyBooked      = errors.New("booking: inventory fully booked for requested range")
	ErrAlreadyCancelled = errors.New("booking: already cancelled")
	ErrActorNotAllowed  = errors.New("booking: actor not allowed")
)

type BookingID string

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

type PayoutStatus string

const (
	PayoutHeld    PayoutStatus = "HELD"
	PayoutPending PayoutStatus = "PENDING"
	PayoutPaid    PayoutStatus = "PAID"
	PayoutFailed  PayoutStatus = "FAILED"
)

// Actor identifies who performs a booking mutation.
type Actor string

const (
	ActorRenter   Actor = "RENTER"
	ActorLandlord Actor = "LANDLORD"
)

// PaymentReference is the verified processor reference a booking was paid with.
type PaymentReference struct {
	OrderID   string
	PaymentID string
}

// Cancellation records cancellation intent; settlement happens externally.
type Cancellation struct {
	Actor        Actor
	Reason       string
	RefundAmount money.Money
	RefundStatus RefundStatus
	At           time.Time
}

// Booking is one reservation. It only exists once payment is verified, so it
// is born CONFIRMED/PAID with the payout held.
type Booking struct {
	ID         BookingID
	PropertyID property.PropertyID
	RoomID     string
	Renter     string
	Landlord   string
	Range      daterange.DateRange
	Months     int

	TotalPaid        money.Money
	Fees             FeeBreakdown
	PlatformFeeTotal money.Money

	Status        Status
	PaymentStatus PaymentStatus
	PayoutStatus  PayoutStatus
	EscrowBacked  bool
	Payment       PaymentReference
	Cancellation  *Cancellation

	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, b *Booking) error
	ListByRenter(ctx context.Context, renter string) ([]*Booking, error)
	// ListForUnit returns the non-cancelled, payment-confirmed bookings of an
	// inventory unit that intersect the given range.
	ListForUnit(ctx context.Context, propertyID property.PropertyID, roomID string, r daterange.DateRange) ([]*Booking, error)
	ListAll(ctx context.Context) ([]*Booking, error)
	Delete(ctx context.Context, id BookingID) error
}

type CreateParams struct {
	ID           BookingID
	PropertyID   property.PropertyID
	RoomID       string
	Renter       string
	Landlord     string
	Range        daterange.DateRange
	Months       int
	TotalPaid    money.Money
	Fees         FeeBreakdown
	EscrowBacked bool
	Payment      PaymentReference
	CreatedAt    time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(params.Renter) == "" {
		return nil, ErrRenterRequired
	}
	if strings.TrimSpace(params.Landlord) == "" {
		return nil, ErrLandlordRequired
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if !params.TotalPaid.IsPositive() {
		return nil, ErrTotalRequired
	}
	if params.Payment.OrderID == "" || params.Payment.PaymentID == "" {
		return nil, ErrPaymentRequired
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:               params.ID,
		PropertyID:       params.PropertyID,
		RoomID:           params.RoomID,
		Renter:           params.Renter,
		Landlord:         params.Landlord,
		Range:            params.Range,
		Months:           params.Months,
		TotalPaid:        params.TotalPaid,
		Fees:             params.Fees,
		PlatformFeeTotal: params.Fees.PlatformFee,
		Status:           StatusConfirmed,
		PaymentStatus:    PaymentPaid,
		PayoutStatus:     PayoutHeld,
		EscrowBacked:     params.EscrowBacked,
		Payment:          params.Payment,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	b.Record(BookingCreated{
		BookingID:  b.ID,
		PropertyID: b.PropertyID,
		RoomID:     b.RoomID,
		Renter:     b.Renter,
		Landlord:   b.Landlord,
		Range:      b.Range,
		Total:      b.TotalPaid,
		Escrow:     b.EscrowBacked,
		At:         now,
	})
	return b, nil
}

// OccupiesCapacity reports whether the booking counts against inventory.
func (b *Booking) OccupiesCapacity() bool {
	switch b.Status {
	case StatusConfirmed, StatusActive:
		return b.PaymentStatus == PaymentPaid
	default:
		return false
	}
}

// AuthorizeActor maps an acting email to a booking role.
func (b *Booking) AuthorizeActor(email string) (Actor, error) {
	switch email {
	case b.Renter:
		return ActorRenter, nil
	case b.Landlord:
		return ActorLandlord, nil
	default:
		return "", ErrActorNotAllowed
	}
}

// Cancel transitions the booking to cancelled recording refund intent per the
// policy tiers. It never moves money.
func (b *Booking) Cancel(actor Actor, reason string, now time.Time) (Refund, error) {
	if b.Status == StatusCancelled {
		return Refund{}, ErrAlreadyCancelled
	}
	switch b.Status {
	case StatusPending, StatusConfirmed, StatusActive:
	default:
		return Refund{}, ErrInvalidState
	}
	refund := RefundFor(actor, b.TotalPaid, daterange.DaysUntil(b.Range.Start, now))
	b.Status = StatusCancelled
	b.Cancellation = &Cancellation{
		Actor:        actor,
		Reason:       reason,
		RefundAmount: refund.Amount,
		RefundStatus: refund.Status,
		At:           now.UTC(),
	}
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{
		BookingID: b.ID,
		Actor:     actor,
		Reason:    reason,
		Refund:    refund.Amount,
		At:        b.UpdatedAt,
	})
	return refund, nil
}

// AccumulatePlatformFee adds a newly levied fee to the running platform total.
func (b *Booking) AccumulatePlatformFee(fee money.Money, now time.Time) error {
	total, err := b.PlatformFeeTotal.Add(fee)
	if err != nil {
		return err
	}
	b.PlatformFeeTotal = total
	b.UpdatedAt = now.UTC()
	return nil
}

// MarkPayoutPaid flips the payout state once every escrow hold is released.
func (b *Booking) MarkPayoutPaid(now time.Time) error {
	if b.PayoutStatus == PayoutPaid {
		return ErrInvalidState
	}
	b.PayoutStatus = PayoutPaid
	b.UpdatedAt = now.UTC()
	b.Record(PayoutCompleted{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}
