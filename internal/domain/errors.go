package domain

import "errors"

// Domain errors returned by the public API, checked with errors.Is.
var (
	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("camship: invalid configuration")

	// ErrCaptureSpawn is returned when the capture process cannot be started.
	// Spawn failure is fatal; the agent does not retry it.
	ErrCaptureSpawn = errors.New("camship: capture process spawn failed")

	// ErrConnect is returned when the initial websocket connect fails.
	ErrConnect = errors.New("camship: connect failed")

	// ErrSessionClosed is returned when the transport session has exhausted
	// its single reconnect attempt and will not send again.
	ErrSessionClosed = errors.New("camship: session closed")
)
