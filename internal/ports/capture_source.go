package ports

import (
	"io"

	"github.com/bft-labs/camship/internal/domain"
)

// CaptureSource is the boundary to the external capture/encode process. The
// only contract is parameters in, continuous marker-delimited byte stream
// out; no other assumption is made about the process.
type CaptureSource interface {
	// Start spawns the capture process with the given profile and returns
	// its output stream. Spawn failure is fatal to the agent.
	Start(profile domain.StreamProfile) (io.ReadCloser, error)

	// Stop terminates the running process, if any. The output stream
	// returned by Start reaches EOF as a consequence.
	Stop() error
}
