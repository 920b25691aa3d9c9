package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Producer publishes one settlement event to a topic. Satisfied by the kafka
// package's SyncProducer wrapper.
type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Worker drains the outbox collection and relays booking and escrow events to
// the broker. Each tick claims due documents one at a time until the backlog
// is empty, so a burst of settlements clears in a single interval.
type Worker struct {
	Store       *Store
	Producer    Producer
	Interval    time.Duration
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
	Logger      *slog.Logger
}

var ErrWorkerNotConfigured = errors.New("outbox: worker missing store or producer")

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	workerID := w.ID
	if workerID == "" {
		workerID = uuid.NewString()
	}
	interval := w.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drain(ctx, workerID); err != nil {
				return err
			}
		}
	}
}

func (w *Worker) drain(ctx context.Context, workerID string) error {
	for {
		doc, err := w.Store.Claim(ctx, workerID)
		if err != nil {
			return err
		}
		if doc == nil {
			return nil
		}
		w.relay(ctx, doc)
	}
}

func (w *Worker) relay(ctx context.Context, doc *EventDocument) {
	payload, headers, err := w.envelope(doc)
	if err != nil {
		w.fail(ctx, doc, err)
		return
	}
	if err := w.Producer.Publish(ctx, w.topicFor(doc.Name), doc.Aggregate, payload, headers); err != nil {
		w.fail(ctx, doc, err)
		return
	}
	if err := w.Store.MarkSent(ctx, doc.ID); err != nil && w.Logger != nil {
		w.Logger.Error("outbox mark sent failed", "event_id", doc.ID, "error", err)
	}
}

func (w *Worker) fail(ctx context.Context, doc *EventDocument, cause error) {
	if w.Logger != nil {
		w.Logger.Warn("outbox relay failed", "event", doc.Name, "event_id", doc.ID, "attempts", doc.Attempts, "error", cause)
	}
	if err := w.Store.MarkFailed(ctx, doc.ID, w.nextRetry(doc.Attempts), cause.Error()); err != nil && w.Logger != nil {
		w.Logger.Error("outbox mark failed errored", "event_id", doc.ID, "error", err)
	}
}

// envelope wraps the stored payload in a CloudEvents JSON envelope. The
// payload was serialized by the command handler and must itself be JSON.
func (w *Worker) envelope(doc *EventDocument) ([]byte, map[string]string, error) {
	var data map[string]any
	if err := json.Unmarshal(doc.Payload, &data); err != nil {
		return nil, nil, err
	}
	source := w.Source
	if source == "" {
		source = "app://homelet"
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              uuid.NewString(),
		"type":            doc.Name + ".v1",
		"source":          source,
		"time":            doc.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if trace, ok := doc.Headers["traceparent"]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{"content-type": "application/cloudevents+json"}
	for k, v := range doc.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

// topicFor routes by bounded context: "booking.cancelled" and every other
// booking.* event share the booking.events.v1 topic, escrow.* likewise.
func (w *Worker) topicFor(name string) string {
	ctxName, _, found := strings.Cut(name, ".")
	if !found {
		ctxName = name
	}
	return w.TopicPrefix + ctxName + ".events.v1"
}

func (w *Worker) nextRetry(attempts int) time.Time {
	now := time.Now().UTC()
	switch {
	case len(w.Backoff) == 0:
		return now.Add(5 * time.Second)
	case attempts >= len(w.Backoff):
		return now.Add(w.Backoff[len(w.Backoff)-1])
	default:
		return now.Add(w.Backoff[attempts])
	}
}
