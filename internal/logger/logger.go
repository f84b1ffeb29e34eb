package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New builds the process logger from ENV and LOG_LEVEL.
func New() zerolog.Logger {
	return build(os.Stderr, os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
}

func build(w io.Writer, env, level string) zerolog.Logger {
	// Cloud log collectors parse the level from a "severity" field.
	zerolog.LevelFieldName = "severity"
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl := zerolog.InfoLevel
	if env == "development" {
		w = zerolog.ConsoleWriter{Out: w}
		lvl = zerolog.DebugLevel
	}
	if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil && level != "" {
		lvl = parsed
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Str("app", "biolink").Logger()
}
