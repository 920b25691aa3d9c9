package middleware

import (
	"context"

	"homelet/internal/app/commands"
	"homelet/internal/app/queries"
)

// SelfValidating is implemented by commands and queries that can reject
// malformed input before a unit of work is opened.
type SelfValidating interface {
	Validate() error
}

// Validation short-circuits self-validating commands with invalid fields.
// Running outside the Transaction middleware keeps garbage requests from
// ever taking the write lock.
func Validation() CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if v, ok := cmd.(SelfValidating); ok {
				if err := v.Validate(); err != nil {
					return nil, err
				}
			}
			return nextFn(ctx, cmd)
		})
	}
}

// QueryValidation is the query-side counterpart of Validation.
func QueryValidation() QueryMiddleware {
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if v, ok := q.(SelfValidating); ok {
				if err := v.Validate(); err != nil {
					return nil, err
				}
			}
			return nextFn(ctx, q)
		})
	}
}
