package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	domainbooking "homelet/internal/domain/booking"
	domainescrow "homelet/internal/domain/escrow"
	domainproperty "homelet/internal/domain/property"
	domainrange "homelet/internal/domain/shared/daterange"
)

// ErrConcurrentUpdate is returned when a save is based on a stale read. The
// in-memory store enforces the same compare-and-swap contract as the Mongo
// repositories so optimistic-lock behavior is testable without a database.
var ErrConcurrentUpdate = errors.New("memory: concurrent update detected")

// PropertyRepository keeps properties in memory.
type PropertyRepository struct {
	mu    sync.RWMutex
	items map[domainproperty.PropertyID]*domainproperty.Property
}

func NewPropertyRepository() *PropertyRepository {
	return &PropertyRepository{items: make(map[domainproperty.PropertyID]*domainproperty.Property)}
}

func (r *PropertyRepository) ByID(ctx context.Context, id domainproperty.PropertyID) (*domainproperty.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, domainproperty.ErrPropertyNotFound
	}
	return copyProperty(p), nil
}

func (r *PropertyRepository) Save(ctx context.Context, p *domainproperty.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.items[p.ID]; ok && stored.Version != p.Version {
		return ErrConcurrentUpdate
	}
	clone := copyProperty(p)
	clone.Version = p.Version + 1
	r.items[p.ID] = clone
	p.Version = clone.Version
	return nil
}

func copyProperty(p *domainproperty.Property) *domainproperty.Property {
	clone := *p
	clone.Rooms = append([]domainproperty.Room(nil), p.Rooms...)
	return &clone
}

// BookingRepository stores bookings in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return copyBooking(b), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.items[b.ID]; ok && stored.Version != b.Version {
		return ErrConcurrentUpdate
	}
	clone := copyBooking(b)
	clone.Version = b.Version + 1
	r.items[b.ID] = clone
	b.Version = clone.Version
	return nil
}

func (r *BookingRepository) ListByRenter(ctx context.Context, renter string) ([]*domainbooking.Booking, error) {
	renter = strings.TrimSpace(renter)
	if renter == "" {
		return nil, errors.New("memory: renter is required")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.Renter == renter {
			matches = append(matches, copyBooking(b))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *BookingRepository) ListForUnit(ctx context.Context, propertyID domainproperty.PropertyID, roomID string, dr domainrange.DateRange) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.PropertyID != propertyID || b.RoomID != roomID {
			continue
		}
		if !b.OccupiesCapacity() {
			continue
		}
		if !b.Range.Overlaps(dr) {
			continue
		}
		matches = append(matches, copyBooking(b))
	}
	return matches, nil
}

func (r *BookingRepository) ListAll(ctx context.Context) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0, len(r.items))
	for _, b := range r.items {
		matches = append(matches, copyBooking(b))
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *BookingRepository) Delete(ctx context.Context, id domainbooking.BookingID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainbooking.ErrBookingNotFound
	}
	delete(r.items, id)
	return nil
}

func copyBooking(b *domainbooking.Booking) *domainbooking.Booking {
	clone := *b
	clone.ClearEvents()
	if b.Cancellation != nil {
		cancellation := *b.Cancellation
		clone.Cancellation = &cancellation
	}
	return &clone
}

// EscrowRepository stores contracts keyed by their owning booking.
type EscrowRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainescrow.Contract
}

func NewEscrowRepository() *EscrowRepository {
	return &EscrowRepository{items: make(map[domainbooking.BookingID]*domainescrow.Contract)}
}

func (r *EscrowRepository) ByBooking(ctx context.Context, id domainbooking.BookingID) (*domainescrow.Contract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[id]
	if !ok {
		return nil, domainescrow.ErrContractNotFound
	}
	return copyContract(c), nil
}

func (r *EscrowRepository) Save(ctx context.Context, c *domainescrow.Contract) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.items[c.BookingID]; ok && stored.Version != c.Version {
		return ErrConcurrentUpdate
	}
	clone := copyContract(c)
	clone.Version = c.Version + 1
	r.items[c.BookingID] = clone
	c.Version = clone.Version
	return nil
}

func (r *EscrowRepository) Delete(ctx context.Context, id domainbooking.BookingID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainescrow.ErrContractNotFound
	}
	delete(r.items, id)
	return nil
}

func copyContract(c *domainescrow.Contract) *domainescrow.Contract {
	clone := *c
	clone.ClearEvents()
	clone.Schedule = append([]domainescrow.ScheduleEntry(nil), c.Schedule...)
	return &clone
}
