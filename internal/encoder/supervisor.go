package encoder

import (
	"context"
	"fmt"
	"sync"

	"github.com/bft-labs/camship/internal/domain"
	"github.com/bft-labs/camship/internal/extractor"
	"github.com/bft-labs/camship/internal/ports"
	"github.com/bft-labs/camship/internal/queue"
	"github.com/bft-labs/camship/internal/telemetry"
	"github.com/bft-labs/camship/pkg/log"
)

// Supervisor owns exactly one capture process at a time. Starting spawns the
// process and wires its output into a fresh extractor feeding the shared
// frame queue; restarting terminates the current process first. Spawn
// failure is fatal: the supervisor does not retry.
type Supervisor struct {
	source ports.CaptureSource
	queue  *queue.Queue
	tel    *telemetry.Telemetry
	logger log.Logger

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// NewSupervisor creates a supervisor over the given capture source.
func NewSupervisor(source ports.CaptureSource, q *queue.Queue, tel *telemetry.Telemetry, logger log.Logger) *Supervisor {
	return &Supervisor{
		source: source,
		queue:  q,
		tel:    tel,
		logger: logger,
	}
}

// Start spawns the capture process with the given profile and begins
// extracting frames from its output. The extractor task ends on its own
// when the process output reaches EOF.
func (s *Supervisor) Start(ctx context.Context, profile domain.StreamProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("encoder: already running")
	}

	stream, err := s.source.Start(profile)
	if err != nil {
		return fmt.Errorf("encoder: %w", err)
	}

	done := make(chan struct{})
	ext := extractor.New(stream, s.queue, s.tel, s.logger)
	go func() {
		defer close(done)
		defer stream.Close()
		if err := ext.Run(ctx); err != nil && ctx.Err() == nil {
			// A dying capture process surfaces here as a read error. The
			// controller drives the restart; nothing to do but log.
			s.logger.Warn("extractor stopped", log.Err(err))
		}
	}()

	s.running = true
	s.done = done
	return nil
}

// Restart terminates the current process and starts a new one with the
// given profile. The old extractor drains out on EOF before the new
// process is spawned, so the queue never has two producers.
func (s *Supervisor) Restart(ctx context.Context, profile domain.StreamProfile) error {
	s.mu.Lock()
	running := s.running
	done := s.done
	s.mu.Unlock()

	if running {
		if err := s.source.Stop(); err != nil {
			s.logger.Warn("stopping capture process", log.Err(err))
		}
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}

	return s.Start(ctx, profile)
}

// Stop terminates the capture process and waits for the extractor to end.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	running := s.running
	done := s.done
	s.running = false
	s.mu.Unlock()

	if !running {
		return nil
	}
	err := s.source.Stop()
	<-done
	return err
}
