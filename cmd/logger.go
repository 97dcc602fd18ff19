package cmd

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a human readable zerolog.Logger writing to w.
func NewLogger(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
