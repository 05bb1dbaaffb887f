package queue

import (
	"errors"

	"github.com/bft-labs/camship/internal/domain"
	"github.com/bft-labs/camship/internal/telemetry"
)

// DefaultCapacity is the bound on queued frames between the extractor and
// the transport session.
const DefaultCapacity = 60

// ErrFull is returned when a non-blocking enqueue finds the queue full.
var ErrFull = errors.New("queue: full")

// Queue is a bounded FIFO of frames with a single logical consumer. The
// producer side is replaceable across encoder restarts. The shared occupancy
// counter is incremented on enqueue success here; the consumer decrements it
// after each receive. Counter and true depth may diverge momentarily, which
// is acceptable: the counter feeds backpressure and congestion heuristics,
// not accounting.
type Queue struct {
	frames chan domain.Frame
	tel    *telemetry.Telemetry
}

// New creates a queue with the given capacity.
func New(capacity int, tel *telemetry.Telemetry) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		frames: make(chan domain.Frame, capacity),
		tel:    tel,
	}
}

// TryEnqueue attempts a non-blocking enqueue. On success the shared
// occupancy counter is incremented. Returns ErrFull if the queue is
// transiently full; the frame is dropped in that case.
func (q *Queue) TryEnqueue(f domain.Frame) error {
	select {
	case q.frames <- f:
		q.tel.IncQueueDepth()
		return nil
	default:
		return ErrFull
	}
}

// Out exposes the consumer side. After receiving a frame the consumer must
// decrement the shared occupancy counter via telemetry.
func (q *Queue) Out() <-chan domain.Frame {
	return q.frames
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return cap(q.frames)
}
