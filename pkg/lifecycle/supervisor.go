package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bft-labs/camship/pkg/log"
)

// Common lifecycle errors.
var (
	ErrAlreadyRunning  = errors.New("lifecycle: already running")
	ErrShutdownTimeout = errors.New("lifecycle: shutdown timeout")
)

// ShutdownTimeout is the default maximum time to wait for workers to exit.
const ShutdownTimeout = 30 * time.Second

// Supervisor owns a set of long-running workers sharing one cancellation
// signal. Workers are started with Go and must return when their context is
// canceled.
type Supervisor struct {
	logger log.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewSupervisor creates a supervisor derived from the given parent context.
func NewSupervisor(parent context.Context, logger log.Logger) *Supervisor {
	ctx, cancel := context.WithCancel(parent)
	return &Supervisor{
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context returns the supervisor's context, canceled on Stop.
func (s *Supervisor) Context() context.Context {
	return s.ctx
}

// Go starts a named worker. The worker's returned error is logged; a non-nil
// error also cancels the remaining workers so the process can restart cleanly
// rather than limp along with a missing task.
func (s *Supervisor) Go(name string, fn func(ctx context.Context) error) {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := fn(s.ctx)
		switch {
		case err == nil, errors.Is(err, context.Canceled):
			s.logger.Info("worker stopped", log.String("worker", name))
		default:
			s.logger.Error("worker failed", log.String("worker", name), log.Err(err))
			s.cancel()
		}
	}()
}

// Stop cancels all workers.
func (s *Supervisor) Stop() {
	s.cancel()
}

// WaitWithTimeout waits for all workers to finish or the timeout to expire.
// Returns ErrShutdownTimeout if workers are still running when it expires.
func (s *Supervisor) WaitWithTimeout(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		s.logger.Warn("shutdown timeout, abandoning workers",
			log.Duration("timeout", timeout),
		)
		return ErrShutdownTimeout
	}
}

// Wait blocks until all workers have finished.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}
