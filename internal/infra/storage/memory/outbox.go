package memory

import (
	"context"
	"log/slog"
	"sync"

	"homelet/internal/app/outbox"
)

// Outbox buffers event records in memory and hands them to a sink on Flush.
// Without a sink it logs the events, which is enough for dev mode where no
// broker is configured.
type Outbox struct {
	mu      sync.Mutex
	pending []outbox.EventRecord

	Sink   func(ctx context.Context, rec outbox.EventRecord) error
	Logger *slog.Logger
}

func NewOutbox(logger *slog.Logger) *Outbox {
	return &Outbox{Logger: logger}
}

func (o *Outbox) Add(ctx context.Context, rec outbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, rec)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	batch := o.pending
	o.pending = nil
	o.mu.Unlock()

	for _, rec := range batch {
		if o.Sink != nil {
			if err := o.Sink(ctx, rec); err != nil {
				return err
			}
			continue
		}
		if o.Logger != nil {
			o.Logger.InfoContext(ctx, "event recorded",
				slog.String("event", rec.Name),
				slog.String("aggregate", rec.Aggregate),
			)
		}
	}
	return nil
}

// Drain returns and clears the buffered records. Tests use it to assert which
// events a command produced.
func (o *Outbox) Drain() []outbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	batch := o.pending
	o.pending = nil
	return batch
}
