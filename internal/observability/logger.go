package observability

import (
	"os"

	"github.com/danmuck/suitcase/internal/codec"
	"github.com/danmuck/suitcase/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger installs the process logger for app and routes codec
// diagnostics through it.
func InitLogger(app string, cfg logging.Config) zerolog.Logger {
	logger := logging.New(os.Stderr, cfg).With().Str("app", app).Logger()
	log.Logger = logger
	codec.SetLogger(logger)
	return logger
}
