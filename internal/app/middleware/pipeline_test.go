package middleware

import (
	"context"
	"errors"
	"testing"

	"homelet/internal/app/commands"
	"homelet/internal/app/outbox"
	"homelet/internal/app/uow"
	domainbooking "homelet/internal/domain/booking"
	domainescrow "homelet/internal/domain/escrow"
	domainproperty "homelet/internal/domain/property"
)

type noopCommand struct{}

func (noopCommand) Key() string { return "test.noop" }

type recordingUnit struct {
	steps     *[]string
	commitErr error
}

func (u recordingUnit) Properties() domainproperty.Repository { return nil }
func (u recordingUnit) Bookings() domainbooking.Repository    { return nil }
func (u recordingUnit) Escrows() domainescrow.Repository      { return nil }

func (u recordingUnit) Commit(context.Context) error {
	*u.steps = append(*u.steps, "commit")
	return u.commitErr
}

func (u recordingUnit) Rollback(context.Context) error {
	*u.steps = append(*u.steps, "rollback")
	return nil
}

type recordingFactory struct {
	steps     *[]string
	commitErr error
}

func (f recordingFactory) Begin(context.Context, uow.TxOptions) (uow.UnitOfWork, error) {
	return recordingUnit{steps: f.steps, commitErr: f.commitErr}, nil
}

type recordingOutbox struct {
	steps *[]string
}

func (o recordingOutbox) Add(context.Context, outbox.EventRecord) error { return nil }

func (o recordingOutbox) Flush(context.Context) error {
	*o.steps = append(*o.steps, "flush")
	return nil
}

func buildChain(steps *[]string, commitErr error) commands.Bus {
	bus := commands.NewInMemoryBus()
	bus.RegisterRaw(noopCommand{}.Key(), func(ctx context.Context, cmd commands.Command) (any, error) {
		*steps = append(*steps, "handle")
		return nil, nil
	})
	return ChainCommands(
		bus,
		OutboxFlush(recordingOutbox{steps: steps}),
		Transaction(recordingFactory{steps: steps, commitErr: commitErr}, nil),
	)
}

func TestOutboxFlushesOnlyAfterCommit(t *testing.T) {
	var steps []string
	chain := buildChain(&steps, nil)

	if _, err := chain.Dispatch(context.Background(), noopCommand{}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	want := []string{"handle", "commit", "flush"}
	if len(steps) != len(want) {
		t.Fatalf("steps = %v, want %v", steps, want)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Fatalf("steps = %v, want %v", steps, want)
		}
	}
}

func TestOutboxSkippedWhenCommitFails(t *testing.T) {
	var steps []string
	commitErr := errors.New("commit failed")
	chain := buildChain(&steps, commitErr)

	if _, err := chain.Dispatch(context.Background(), noopCommand{}); !errors.Is(err, commitErr) {
		t.Fatalf("error = %v, want commit failure", err)
	}
	for _, step := range steps {
		if step == "flush" {
			t.Fatalf("events flushed despite failed commit: %v", steps)
		}
	}
}
