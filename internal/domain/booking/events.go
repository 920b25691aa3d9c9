package booking

import (
	"time"

	"homelet/internal/domain/property"
	"homelet/internal/domain/shared/daterange"
	"homelet/internal/domain/shared/money"
)

type BookingCreated struct {
	BookingID  BookingID
	PropertyID property.PropertyID
	RoomID     string
	Renter     string
	Landlord   string
	Range      daterange.DateRange
	Total      money.Money
	Escrow     bool
	At         time.Time
}

func (e BookingCreated) EventName() string     { return "booking.created" }
func (e BookingCreated) AggregateID() string   { return string(e.BookingID) }
func (e BookingCreated) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID
	Actor     Actor
	Reason    string
	Refund    money.Money
	At        time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type PayoutCompleted struct {
	BookingID BookingID
	At        time.Time
}

func (e PayoutCompleted) EventName() string     { return "booking.payout_completed" }
func (e PayoutCompleted) AggregateID() string   { return string(e.BookingID) }
func (e PayoutCompleted) OccurredAt() time.Time { return e.At }
