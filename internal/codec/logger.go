package codec

import (
	"github.com/rs/zerolog"
)

var logger = zerolog.Nop()

// Logger returns the codec package logger. It discards everything until
// SetLogger is called.
func Logger() *zerolog.Logger {
	return &logger
}

// SetLogger configures the codec package logger.
// This must be called before any codec operations.
func SetLogger(l zerolog.Logger) {
	logger = l.With().Str("component", "codec").Logger()
}
