package uow

import (
	"context"

	domainbooking "homelet/internal/domain/booking"
	domainescrow "homelet/internal/domain/escrow"
	domainproperty "homelet/internal/domain/property"
)

// UnitOfWork coordinates repositories inside a transaction boundary. The
// reservation transactor relies on commit being all-or-nothing: a booking and
// its escrow contract are never visible partially created.
type UnitOfWork interface {
	Properties() domainproperty.Repository
	Bookings() domainbooking.Repository
	Escrows() domainescrow.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
