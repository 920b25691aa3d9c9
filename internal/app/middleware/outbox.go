package middleware

import (
	"context"

	"homelet/internal/app/commands"
	"homelet/internal/app/outbox"
)

// OutboxFlush flushes buffered events after a successful command. With the
// mongo store the events were already written inside the transaction and
// Flush is a no-op; the memory outbox delivers them here.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
