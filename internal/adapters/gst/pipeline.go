package gst

import (
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/bft-labs/camship/internal/domain"
	"github.com/bft-labs/camship/pkg/log"
)

// DefaultBinary is the GStreamer launcher invoked for capture.
const DefaultBinary = "gst-launch-1.0"

// Pipeline implements ports.CaptureSource by spawning a gst-launch process
// that reads the camera, JPEG-encodes at the requested profile, and writes
// concatenated frames to stdout.
type Pipeline struct {
	binary string
	logger log.Logger

	mu  sync.Mutex
	cmd *exec.Cmd
}

// New creates a pipeline using the given launcher binary. An empty binary
// selects DefaultBinary.
func New(binary string, logger log.Logger) *Pipeline {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Pipeline{binary: binary, logger: logger}
}

// Start spawns the capture process and returns its stdout stream.
func (p *Pipeline) Start(profile domain.StreamProfile) (io.ReadCloser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil {
		return nil, fmt.Errorf("%w: pipeline already running", domain.ErrCaptureSpawn)
	}

	cmd := exec.Command(p.binary,
		"libcamerasrc",
		"!",
		fmt.Sprintf("video/x-raw,width=%d,height=%d", profile.Width, profile.Height),
		"!",
		"videoconvert",
		"!",
		"jpegenc",
		fmt.Sprintf("quality=%d", profile.Quality),
		"!",
		"fdsink",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %v", domain.ErrCaptureSpawn, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCaptureSpawn, err)
	}

	p.logger.Info("capture process started",
		log.String("binary", p.binary),
		log.String("resolution", profile.Resolution()),
		log.Int("quality", profile.Quality),
	)

	p.cmd = cmd
	return stdout, nil
}

// Stop kills the running process and reaps it.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	cmd := p.cmd
	p.cmd = nil
	p.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil {
		return fmt.Errorf("kill capture process: %w", err)
	}
	// Wait reaps the child; the error is the expected kill signal.
	_ = cmd.Wait()
	return nil
}
