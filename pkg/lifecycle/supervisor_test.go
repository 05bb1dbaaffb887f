package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bft-labs/camship/pkg/log"
)

func TestSupervisor_StopCancelsWorkers(t *testing.T) {
	s := NewSupervisor(context.Background(), log.NewNoopLogger())

	started := make(chan struct{})
	s.Go("blocker", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	<-started
	s.Stop()

	if err := s.WaitWithTimeout(time.Second); err != nil {
		t.Fatalf("WaitWithTimeout: %v", err)
	}
}

func TestSupervisor_WorkerErrorCancelsSiblings(t *testing.T) {
	s := NewSupervisor(context.Background(), log.NewNoopLogger())

	s.Go("sibling", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	s.Go("failing", func(ctx context.Context) error {
		return errors.New("boom")
	})

	if err := s.WaitWithTimeout(time.Second); err != nil {
		t.Fatalf("sibling did not stop after worker failure: %v", err)
	}
}

func TestSupervisor_WaitWithTimeoutExpires(t *testing.T) {
	s := NewSupervisor(context.Background(), log.NewNoopLogger())

	release := make(chan struct{})
	s.Go("stuck", func(ctx context.Context) error {
		<-release
		return nil
	})

	err := s.WaitWithTimeout(20 * time.Millisecond)
	if !errors.Is(err, ErrShutdownTimeout) {
		t.Fatalf("err = %v, want ErrShutdownTimeout", err)
	}
	close(release)
	s.Wait()
}
