package cmd

import (
	"os"

	"github.com/rs/zerolog"
)

// newLogger returns a console logger on stderr at the -log-level level.
func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil || *logLevel == "" {
		level = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
