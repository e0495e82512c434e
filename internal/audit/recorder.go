package audit

import (
	"context"
	"sync"
	"time"

	"github.com/redmonkez12/stocktrack-api/internal/logging"
)

const defaultWriteTimeout = 5 * time.Second

// Store is where entries end up.
type Store interface {
	Create(ctx context.Context, entry *Entry) error
}

// Recorder writes entries in the background. Record never blocks on the
// store and never reports an error to its caller.
type Recorder struct {
	store   Store
	logger  *logging.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewRecorder(store Store, logger *logging.Logger) *Recorder {
	return &Recorder{
		store:   store,
		logger:  logger,
		timeout: defaultWriteTimeout,
	}
}

// Record schedules entry for writing. The write outlives the request that
// triggered it, so it is detached from the caller's cancellation.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	writeCtx := context.WithoutCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				r.logger.Error("audit log write panicked", "action", entry.Action, "panic", p)
			}
		}()

		ctx, cancel := context.WithTimeout(writeCtx, r.timeout)
		defer cancel()

		if err := r.store.Create(ctx, &entry); err != nil {
			r.logger.Warn("audit log write failed",
				"action", entry.Action,
				"error", err.Error(),
			)
		}
	}()
}

// Wait blocks until every scheduled write has finished.
func (r *Recorder) Wait() {
	r.wg.Wait()
}
