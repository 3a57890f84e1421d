package reminders

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Due describes a reminder that reached its due time.
type Due struct {
	ID    string
	Task  string
	When  string
	Notes string
}

// Worker polls the store and hands due reminders to a notify callback.
// A reminder is marked completed before notification, so it fires at most
// once even when the notification path fails.
type Worker struct {
	store  *Store
	every  time.Duration
	notify func(Due)
	logger *zap.Logger
}

// NewWorker creates a poller. A nil logger defaults to a no-op logger.
func NewWorker(store *Store, every time.Duration, notify func(Due), logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{store: store, every: every, notify: notify, logger: logger}
}

// PollOnce fires every reminder due at now and returns how many fired.
func (w *Worker) PollOnce(ctx context.Context, now time.Time) (int, error) {
	active, err := w.store.ListActive(ctx, false)
	if err != nil {
		return 0, err
	}

	fired := 0
	for _, r := range active {
		if r.ID == "" || !IsPast(r.When, now) {
			continue
		}

		ok, err := w.store.MarkCompleted(ctx, r.ID)
		if err != nil {
			w.logger.Warn("mark reminder completed failed", zap.String("id", r.ID), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}

		task := r.Task
		if task == "" {
			task = "Reminder"
		}
		w.logger.Info("reminder due", zap.String("id", r.ID), zap.String("task", task))
		w.notify(Due{ID: r.ID, Task: task, When: r.When, Notes: r.Notes})
		fired++
	}

	return fired, nil
}

// Run polls immediately, then on every tick until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.every)
	defer ticker.Stop()

	for {
		if _, err := w.PollOnce(ctx, time.Now().UTC()); err != nil {
			w.logger.Error("reminder poll failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
