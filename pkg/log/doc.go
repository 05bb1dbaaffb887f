// Package log provides a small structured logging abstraction used across
// camship. The default adapter wraps zerolog with console output; tests use
// the no-op implementation.
package log
