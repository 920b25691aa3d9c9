package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"homelet/internal/app/commands"
)

// IdempotentCommand opts a command into replay protection. Booking creation
// and installment payment implement it; a repeated submission with the same
// key returns the first outcome instead of reserving twice.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any
}

type IdempotencyRecord struct {
	Key        string
	Payload    []byte
	Error      string
	OccurredAt time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

// ResultCodec serializes handler results for storage and replay.
type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONResultCodec) Decode(data []byte, out any) error { return json.Unmarshal(data, out) }

var errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")

// Idempotency replays stored outcomes for repeated command keys. Failed
// outcomes replay as the same error, so a rejected payment cannot be retried
// into success under the same key.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	guard := idempotencyGuard{store: store, codec: codec}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok || idCmd.IdempotencyKey() == "" {
				return nextFn(ctx, cmd)
			}
			if result, err, replayed := guard.replay(ctx, idCmd); replayed {
				return result, err
			}
			result, err := nextFn(ctx, cmd)
			if storeErr := guard.remember(ctx, idCmd.IdempotencyKey(), result, err); storeErr != nil {
				if err != nil {
					return nil, errors.Join(err, storeErr)
				}
				return nil, storeErr
			}
			return result, err
		})
	}
}

type idempotencyGuard struct {
	store IdempotencyStore
	codec ResultCodec
}

func (g idempotencyGuard) replay(ctx context.Context, cmd IdempotentCommand) (any, error, bool) {
	rec, found, err := g.store.Get(ctx, cmd.IdempotencyKey())
	if err != nil {
		return nil, err, true
	}
	if !found {
		return nil, nil, false
	}
	if rec.Error != "" {
		return nil, errors.New(rec.Error), true
	}
	proto := cmd.ResultPrototype()
	if proto == nil {
		return nil, errMissingPrototype, true
	}
	if err := g.codec.Decode(rec.Payload, proto); err != nil {
		return nil, err, true
	}
	return proto, nil, true
}

func (g idempotencyGuard) remember(ctx context.Context, key string, result any, handlerErr error) error {
	rec := IdempotencyRecord{Key: key, OccurredAt: time.Now().UTC()}
	if handlerErr != nil {
		rec.Error = handlerErr.Error()
		return g.store.Save(ctx, rec)
	}
	if result != nil {
		payload, err := g.codec.Encode(result)
		if err != nil {
			return err
		}
		rec.Payload = payload
	}
	return g.store.Save(ctx, rec)
}
