package testlog

import (
	"testing"

	"github.com/danmuck/suitcase/internal/codec"
	"github.com/danmuck/suitcase/internal/logging"
	"github.com/rs/zerolog"
)

// Start configures the test logger, routes codec logs through it and
// returns it tagged with the test name.
func Start(t *testing.T) zerolog.Logger {
	t.Helper()
	log := logging.ConfigureTests().With().Str("test", t.Name()).Logger()
	codec.SetLogger(log)
	log.Info().Msg("test start")
	return log
}
