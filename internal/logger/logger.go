package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// SetupLogger returns the process logger: human-readable at debug level when
// debug is set, JSON at info level otherwise.
func SetupLogger(debug bool) *zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	if debug {
		zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.TimeOnly}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Caller().Logger()
		return &zlog
	}
	zlog := zerolog.New(os.Stdout).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	return &zlog
}
