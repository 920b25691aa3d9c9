package property

import (
	"context"
	"errors"
	"strings"
	"time"

	"homelet/internal/domain/shared/money"
)

var (
	ErrPropertyNotFound = errors.New("property: not found")
	ErrRoomRequired     = errors.New("property: room selection required")
	ErrRoomInvalid      = errors.New("property: unknown room")
	ErrTitleRequired    = errors.New("property: title is required")
	ErrLandlordRequired = errors.New("property: landlord is required")
	ErrRoomCount        = errors.New("property: room count must be at least 1")
)

type PropertyID string

// Room is a bookable room type inside a property. Count is the number of
// identical rooms of this type, i.e. the daily capacity of the unit.
type Room struct {
	ID    string
	Name  string
	Count int
}

// Property is the inventory aggregate. BookingVersion is a monotone fence:
// every reservation attempt advances it, and the repository rejects writes
// based on a stale read, which serializes contending reservations.
type Property struct {
	ID          PropertyID
	Landlord    string
	Title       string
	City        string
	MonthlyRent money.Money
	NightlyRate money.Money
	Rooms       []Room

	BookingVersion int64
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Repository interface {
	ByID(ctx context.Context, id PropertyID) (*Property, error)
	Save(ctx context.Context, p *Property) error
}

type CreateParams struct {
	ID          PropertyID
	Landlord    string
	Title       string
	City        string
	MonthlyRent money.Money
	NightlyRate money.Money
	Rooms       []Room
	CreatedAt   time.Time
}

func New(params CreateParams) (*Property, error) {
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if strings.TrimSpace(params.Landlord) == "" {
		return nil, ErrLandlordRequired
	}
	for _, room := range params.Rooms {
		if room.Count < 1 {
			return nil, ErrRoomCount
		}
	}
	now := params.CreatedAt.UTC()
	return &Property{
		ID:          params.ID,
		Landlord:    params.Landlord,
		Title:       params.Title,
		City:        params.City,
		MonthlyRent: params.MonthlyRent,
		NightlyRate: params.NightlyRate,
		Rooms:       append([]Room(nil), params.Rooms...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// InventoryUnit is the resolved bookable thing: either the whole property
// (capacity 1) or one room type (capacity = room count).
type InventoryUnit struct {
	PropertyID PropertyID
	RoomID     string
	Capacity   int
}

// ResolveUnit picks the inventory unit a reservation targets. Properties with
// room types require an explicit room choice.
func (p *Property) ResolveUnit(roomID string) (InventoryUnit, error) {
	roomID = strings.TrimSpace(roomID)
	if len(p.Rooms) == 0 {
		if roomID != "" {
			return InventoryUnit{}, ErrRoomInvalid
		}
		return InventoryUnit{PropertyID: p.ID, Capacity: 1}, nil
	}
	if roomID == "" {
		return InventoryUnit{}, ErrRoomRequired
	}
	for _, room := range p.Rooms {
		if room.ID == roomID {
			return InventoryUnit{PropertyID: p.ID, RoomID: room.ID, Capacity: room.Count}, nil
		}
	}
	return InventoryUnit{}, ErrRoomInvalid
}

// AdvanceBookingFence bumps the reservation fence. The caller must persist the
// property in the same transaction as the new booking so a concurrent
// reservation on the same property fails its optimistic write.
func (p *Property) AdvanceBookingFence(now time.Time) {
	p.BookingVersion++
	p.UpdatedAt = now.UTC()
}
