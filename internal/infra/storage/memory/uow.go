package memory

import (
	"context"
	"errors"
	"sync"

	"homelet/internal/app/uow"
	domainbooking "homelet/internal/domain/booking"
	domainescrow "homelet/internal/domain/escrow"
	domainproperty "homelet/internal/domain/property"
)

// Factory builds in-memory units of work over a shared set of repositories.
// Write units hold a process-wide mutex from Begin until Commit or Rollback,
// which gives the same serialization the Mongo factory gets from transactions.
type Factory struct {
	writeMu sync.Mutex

	Properties *PropertyRepository
	Bookings   *BookingRepository
	Escrows    *EscrowRepository
}

func NewFactory() *Factory {
	return &Factory{
		Properties: NewPropertyRepository(),
		Bookings:   NewBookingRepository(),
		Escrows:    NewEscrowRepository(),
	}
}

func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if ctx == nil {
		return nil, errors.New("memory: context is required")
	}
	unit := &Unit{factory: f, write: !opts.ReadOnly}
	if unit.write {
		f.writeMu.Lock()
	}
	return unit, nil
}

// Unit is a single in-memory unit of work. It is not transactional in the
// rollback sense: repositories apply writes immediately, and isolation comes
// from the factory's write lock.
type Unit struct {
	factory *Factory
	write   bool
	done    bool
	mu      sync.Mutex
}

func (u *Unit) Properties() domainproperty.Repository { return u.factory.Properties }
func (u *Unit) Bookings() domainbooking.Repository    { return u.factory.Bookings }
func (u *Unit) Escrows() domainescrow.Repository      { return u.factory.Escrows }

func (u *Unit) Commit(ctx context.Context) error {
	return u.finish()
}

func (u *Unit) Rollback(ctx context.Context) error {
	return u.finish()
}

func (u *Unit) finish() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return nil
	}
	u.done = true
	if u.write {
		u.factory.writeMu.Unlock()
	}
	return nil
}
