package telemetry

import "sync/atomic"

// Telemetry holds the shared scalars the pipeline tasks communicate through.
// Every field is single-writer, multi-reader, read with relaxed semantics:
// this is a control loop, approximate values are acceptable. A handle is
// passed into every component's constructor; there are no package globals.
type Telemetry struct {
	queueDepth      atomic.Int64
	serverCongested atomic.Bool
	quality         atomic.Int32
	width           atomic.Int32
	height          atomic.Int32
}

// New creates a Telemetry seeded with the given profile values.
func New(width, height, quality int) *Telemetry {
	t := &Telemetry{}
	t.width.Store(int32(width))
	t.height.Store(int32(height))
	t.quality.Store(int32(quality))
	return t
}

// QueueDepth returns the approximate number of frames queued.
func (t *Telemetry) QueueDepth() int64 {
	return t.queueDepth.Load()
}

// IncQueueDepth records one enqueued frame.
func (t *Telemetry) IncQueueDepth() {
	t.queueDepth.Add(1)
}

// DecQueueDepth records one dequeued frame.
func (t *Telemetry) DecQueueDepth() {
	t.queueDepth.Add(-1)
}

// Congested returns the shared congestion flag.
func (t *Telemetry) Congested() bool {
	return t.serverCongested.Load()
}

// SetCongested sets the shared congestion flag.
func (t *Telemetry) SetCongested(v bool) {
	t.serverCongested.Store(v)
}

// Quality returns the current encode quality.
func (t *Telemetry) Quality() int {
	return int(t.quality.Load())
}

// SetQuality publishes a new encode quality.
func (t *Telemetry) SetQuality(q int) {
	t.quality.Store(int32(q))
}

// Resolution returns the current width and height.
func (t *Telemetry) Resolution() (width, height int) {
	return int(t.width.Load()), int(t.height.Load())
}

// SetResolution publishes a new resolution.
func (t *Telemetry) SetResolution(width, height int) {
	t.width.Store(int32(width))
	t.height.Store(int32(height))
}
