// Package task runs detached side effects (analytics, email) that must not
// block or fail the request that triggered them.
package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a single detached task.
const DefaultTimeout = 10 * time.Second

// Func is the body of a detached task.
type Func func(ctx context.Context) error

// Runner starts detached tasks and tracks them so they can be drained on
// shutdown. Tasks never inherit the caller's context.
type Runner struct {
	logger  *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
}

// NewRunner creates a runner. A non-positive timeout uses DefaultTimeout.
func NewRunner(logger *zap.Logger, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Runner{logger: logger, timeout: timeout}
}

// Go runs fn in its own goroutine. Errors and panics are logged. After
// Shutdown, fn is dropped and a warning is logged.
func (r *Runner) Go(name string, fn Func) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.logger.Warn("task dropped after shutdown", zap.String("task", name))
		return
	}

	r.wg.Add(1)

	go func() {
		defer r.wg.Done()

		if err := r.run(fn); err != nil {
			r.logger.Error("detached task failed",
				zap.String("task", name),
				zap.Error(err),
			)
		}
	}()
}

func (r *Runner) run(fn Func) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	return fn(ctx)
}

// Wait blocks until every started task returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Shutdown stops accepting tasks and drains the running ones.
func (r *Runner) Shutdown() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.wg.Wait()

	return nil
}
