package domain

import "time"

// Frame is one complete marker-delimited image unit extracted from the
// capture stream. Data includes the start and end markers and is never
// mutated after extraction; ownership passes to the frame queue.
type Frame struct {
	// Data is the raw encoded image, markers included.
	Data []byte

	// CapturedAt is when the frame was extracted from the stream.
	CapturedAt time.Time
}

// NewFrame builds a Frame stamped with the given capture time.
func NewFrame(data []byte, capturedAt time.Time) Frame {
	return Frame{Data: data, CapturedAt: capturedAt}
}
