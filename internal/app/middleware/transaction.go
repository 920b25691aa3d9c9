package middleware

import (
	"context"
	"errors"

	"homelet/internal/app/commands"
	"homelet/internal/app/uow"
)

var ErrUnitOfWorkMissing = errors.New("middleware: unit of work not found")

// TxOptionsProvider lets callers vary transaction options per command, for
// example marking read-mostly commands as read only.
type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// Transaction opens a unit of work around every dispatched command and hangs
// it on the context for the handler. A handler error or a failed commit rolls
// the whole reservation back, so a booking is never persisted without its
// escrow contract and fence bump.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			var opts uow.TxOptions
			if optsProvider != nil {
				opts = optsProvider(cmd)
			}
			unit, err := factory.Begin(ctx, opts)
			if err != nil {
				return nil, err
			}
			execCtx := unitContext(ctx, unit)

			committed := false
			defer func() {
				if !committed {
					_ = unit.Rollback(execCtx)
				}
			}()

			res, err := nextFn(execCtx, cmd)
			if err != nil {
				return nil, err
			}
			if err := unit.Commit(execCtx); err != nil {
				return nil, err
			}
			committed = true
			return res, nil
		})
	}
}

// unitContext attaches the unit to the context. Mongo units also carry a
// session context and expose it through InjectContext.
func unitContext(ctx context.Context, unit uow.UnitOfWork) context.Context {
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		ctx = injector.InjectContext(ctx)
	}
	return uow.ContextWithUnitOfWork(ctx, unit)
}
