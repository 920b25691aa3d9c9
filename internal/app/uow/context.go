package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type unitKey struct{}

// ContextWithUnitOfWork hangs the unit on the context so handlers reached
// through the transaction middleware share one transactional scope.
func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, unitKey{}, unit)
}

// FromContext returns the ambient unit of work, if any.
func FromContext(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(unitKey{}).(UnitOfWork)
	return unit, ok
}
