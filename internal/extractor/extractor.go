package extractor

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/bft-labs/camship/internal/domain"
	"github.com/bft-labs/camship/internal/queue"
	"github.com/bft-labs/camship/internal/telemetry"
	"github.com/bft-labs/camship/pkg/log"
)

// JPEG frame delimiters emitted by the capture pipeline.
var (
	startMarker = []byte{0xFF, 0xD8}
	endMarker   = []byte{0xFF, 0xD9}
)

const (
	// readChunkBytes is the size of each read from the capture stream.
	readChunkBytes = 512 << 10

	// maxBufferBytes bounds the accumulation buffer. Hitting it means the
	// stream is corrupted or the markers were lost; recovery is lossy.
	maxBufferBytes = 10 << 20

	// keepTailBytes is how much of the buffer survives a truncation. The
	// tail may still contain the beginning of a valid frame.
	keepTailBytes = 1 << 20

	// highWaterMark is the occupancy at which frames are dropped before
	// they ever reach the queue.
	highWaterMark = 50

	// readPause yields briefly after each read pass so the extractor never
	// starves co-located tasks.
	readPause = time.Millisecond
)

// Extractor demuxes the capture process's continuous byte stream into
// discrete frames and feeds them to the shared queue under admission
// control. Each complete frame is emitted exactly once, in order; partial
// frames are never emitted.
//
// Extraction is only defined for streams whose frame payloads do not contain
// the two-byte marker sequences. The JPEG encoder upstream guarantees this
// by byte-stuffing; arbitrary payloads would be mis-split.
type Extractor struct {
	src    io.Reader
	queue  *queue.Queue
	tel    *telemetry.Telemetry
	logger log.Logger

	buf []byte
	now func() time.Time
}

// New creates an extractor reading from src. One extractor serves one
// capture process; the supervisor builds a fresh one after every restart.
func New(src io.Reader, q *queue.Queue, tel *telemetry.Telemetry, logger log.Logger) *Extractor {
	return &Extractor{
		src:    src,
		queue:  q,
		tel:    tel,
		logger: logger,
		now:    time.Now,
	}
}

// Run consumes the stream until EOF, a read error, or context cancellation.
// A zero-length read or read error ends the task; restarting it is the
// encoder supervisor's responsibility.
func (e *Extractor) Run(ctx context.Context) error {
	chunk := make([]byte, readChunkBytes)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := e.src.Read(chunk)
		if n > 0 {
			e.buf = append(e.buf, chunk[:n]...)
			e.extractAll()
			e.truncateIfOversized()
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				e.logger.Info("capture stream ended")
				return nil
			}
			e.logger.Error("capture stream read failed", log.Err(err))
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(readPause):
		}
	}
}

// extractAll emits every complete frame currently in the buffer and compacts
// the consumed prefix. It stops at the first frame whose end marker has not
// arrived yet; trailing bytes that could begin a marker are kept for the
// next pass.
func (e *Extractor) extractAll() {
	pos := 0
	for pos+4 <= len(e.buf) {
		if e.buf[pos] != startMarker[0] || e.buf[pos+1] != startMarker[1] {
			pos++
			continue
		}

		end := pos + 2
		found := false
		for end+1 < len(e.buf) {
			if e.buf[end] == endMarker[0] && e.buf[end+1] == endMarker[1] {
				found = true
				break
			}
			end++
		}
		if !found {
			// End marker not seen yet; wait for more bytes rather than guess.
			break
		}

		frame := make([]byte, end+2-pos)
		copy(frame, e.buf[pos:end+2])
		e.admit(frame)
		pos = end + 2
	}

	if pos > 0 {
		e.buf = append(e.buf[:0], e.buf[pos:]...)
	}
}

// admit applies backpressure before the frame reaches the queue. Frames are
// dropped non-blocking in two distinct cases: occupancy at the high-water
// mark, and a transiently full channel. The occupancy counter and true queue
// depth may diverge momentarily.
func (e *Extractor) admit(data []byte) {
	if e.tel.QueueDepth() >= highWaterMark {
		e.logger.Warn("queue backlog, dropping frame",
			log.Int64("occupancy", e.tel.QueueDepth()),
		)
		return
	}

	f := domain.NewFrame(data, e.now())
	if err := e.queue.TryEnqueue(f); err != nil {
		e.logger.Warn("frame queue full, dropping frame", log.Err(err))
	}
}

// truncateIfOversized discards all but the trailing 1 MiB once the buffer
// exceeds 10 MiB without a complete frame. This is a corruption recovery
// path, not an error.
func (e *Extractor) truncateIfOversized() {
	if len(e.buf) <= maxBufferBytes {
		return
	}
	e.logger.Warn("accumulation buffer oversized, discarding old data",
		log.Int("bytes", len(e.buf)),
	)
	keep := keepTailBytes
	if keep > len(e.buf) {
		keep = len(e.buf)
	}
	e.buf = append(e.buf[:0], e.buf[len(e.buf)-keep:]...)
}
