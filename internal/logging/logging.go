// Package logging configures zerolog for the command-line tool.
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger to write human-readable output to w
// at the given level ("debug", "info", "warn", ...). It returns the
// configured logger for components that take one explicitly.
func Setup(level string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	zerolog.SetGlobalLevel(lvl)

	consoleWriter := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.Kitchen,
	}
	logger := zerolog.New(consoleWriter).Level(lvl).With().Timestamp().Logger()

	// Add caller information for debug and trace levels
	if lvl <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}

	log.Logger = logger
	logger.Debug().Str("level", lvl.String()).Msg("Logger initialized")
	return logger, nil
}

// GetLogger returns a contextualized logger with the given name
func GetLogger(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
