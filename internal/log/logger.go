package log

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the canvas server's logger. Level strings are the zerolog names
// (debug, info, warn, error); anything unknown falls back to info so a typo in
// the config never silences the server.
func New(level string) *zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}

	logger := zerolog.New(output).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "pixel-canvas").
		Logger()
	return &logger
}
