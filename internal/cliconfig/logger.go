package cliconfig

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger builds the process-wide console logger at the given level. Unknown
// levels fall back to info. The level is applied globally rather than on the
// logger instance so a config reload can move it in either direction.
func Logger(level string) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(level))
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
}

// ParseLevel maps a config string to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	if lvl, err := zerolog.ParseLevel(level); err == nil && level != "" {
		return lvl
	}
	return zerolog.InfoLevel
}
