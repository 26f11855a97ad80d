package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	queueSize    = 100
	flushTimeout = 10 * time.Second
)

type Persister interface {
	SaveSnapshot(ctx context.Context, userID string) error
}

type SaveJob struct {
	UserID string
}

// SaveWorker batches document saves. Users marked dirty are saved together
// once the debounce delay after the first mark has passed, so a burst of
// taps produces a single write per user.
type SaveWorker struct {
	persister Persister
	logger    *zap.Logger
	debounce  time.Duration
	jobs      chan SaveJob
	done      chan struct{}

	// stopped is set before the final drain. Sends to jobs happen under
	// the read lock, so none can land after it.
	mu      sync.RWMutex
	stopped bool
}

func NewSaveWorker(p Persister, logger *zap.Logger, debounce time.Duration) *SaveWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaveWorker{
		persister: p,
		logger:    logger,
		debounce:  debounce,
		jobs:      make(chan SaveJob, queueSize),
		done:      make(chan struct{}),
	}
}

func (w *SaveWorker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		w.logger.Info("save worker started", zap.Duration("debounce", w.debounce))

		pending := make(map[string]struct{})
		var timer *time.Timer
		var fire <-chan time.Time

		for {
			select {
			case job := <-w.jobs:
				pending[job.UserID] = struct{}{}
				if fire == nil {
					timer = time.NewTimer(w.debounce)
					fire = timer.C
				}

			case <-fire:
				fire = nil
				w.flush(ctx, pending)
				pending = make(map[string]struct{})

			case <-ctx.Done():
				w.mu.Lock()
				w.stopped = true
				w.mu.Unlock()

				if timer != nil {
					timer.Stop()
				}
				w.drain(pending)

				flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
				w.flush(flushCtx, pending)
				cancel()

				w.logger.Info("save worker stopped")
				return
			}
		}
	}()
}

// Enqueue marks a user's document dirty. When the queue is full or the
// worker has stopped, the save runs on the caller's goroutine instead of
// being dropped.
func (w *SaveWorker) Enqueue(userID string) {
	w.mu.RLock()
	if w.stopped {
		w.mu.RUnlock()
		w.saveNow(userID)
		return
	}

	select {
	case w.jobs <- SaveJob{UserID: userID}:
		w.mu.RUnlock()
	default:
		w.mu.RUnlock()
		w.logger.Warn("save queue full, saving synchronously", zap.String("user_id", userID))
		w.saveNow(userID)
	}
}

// Done is closed after the final flush on shutdown.
func (w *SaveWorker) Done() <-chan struct{} {
	return w.done
}

func (w *SaveWorker) drain(pending map[string]struct{}) {
	for {
		select {
		case job := <-w.jobs:
			pending[job.UserID] = struct{}{}
		default:
			return
		}
	}
}

func (w *SaveWorker) flush(ctx context.Context, pending map[string]struct{}) {
	for userID := range pending {
		if err := w.persister.SaveSnapshot(ctx, userID); err != nil {
			w.logger.Error("deferred save failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			continue
		}
		w.logger.Debug("document saved", zap.String("user_id", userID))
	}
}

func (w *SaveWorker) saveNow(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if err := w.persister.SaveSnapshot(ctx, userID); err != nil {
		w.logger.Error("synchronous save failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}
