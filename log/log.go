package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps the root zerolog logger handed to every component.
type Logger struct {
	zerolog.Logger
}

// New builds the root logger. Unknown levels fall back to info.
func New(level string, pretty bool) *Logger {
	return NewWithWriter(os.Stdout, level, pretty)
}

// NewWithWriter is New with an explicit output.
func NewWithWriter(w io.Writer, level string, pretty bool) *Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := w
	if pretty {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	}

	l := zerolog.New(out).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("service", "magink").
		Logger()

	return &Logger{Logger: l}
}

// ParseLevel maps a config string to a zerolog level.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
