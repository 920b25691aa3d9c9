package support

import (
	"context"

	"homelet/internal/app/uow"
)

// BeginUnit reuses a unit of work from the context (placed there by the
// transaction middleware) or starts a managed one. The returned cleanup rolls
// back managed units that were never committed and is nil otherwise.
func BeginUnit(ctx context.Context, factory uow.UoWFactory, opts uow.TxOptions) (uow.UnitOfWork, context.Context, func(), error) {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	newUnit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := ctx
	if injector, ok := newUnit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		execCtx = injector.InjectContext(ctx)
	}
	execCtx = uow.ContextWithUnitOfWork(execCtx, newUnit)
	cleanup := func() {
		_ = newUnit.Rollback(execCtx)
	}
	return newUnit, execCtx, cleanup, nil
}
