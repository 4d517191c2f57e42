package worker

import (
	"context"
	"log/slog"

	audit "credchain/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them. Append
// failures are logged and the event is dropped; the worker keeps running
// until the inbox is closed and drained or ctx is cancelled.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
	onDrop func()
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger, onDrop func()) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if onDrop == nil {
		onDrop = func() {}
	}
	return &Worker{store: store, inbox: inbox, logger: logger, onDrop: onDrop}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.store.Append(ctx, event); err != nil {
				w.onDrop()
				w.logger.WarnContext(ctx, "failed to persist audit event",
					"action", event.Action,
					"request_id", event.RequestID,
					"error", err,
				)
			}
		}
	}
}
