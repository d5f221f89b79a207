// Package zerolog adapts a zerolog.Logger to jhp.Logger.
package zerolog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/MrF0o/jhp"
)

var _ jhp.Logger = (*Logger)(nil)

type Logger struct {
	logger zerolog.Logger
}

// NewConsole logs human-readable lines to stderr.
func NewConsole() *Logger {
	return New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

// New logs JSON lines to w.
func New(w io.Writer) *Logger {
	return &Logger{logger: zerolog.New(w).With().Timestamp().Logger()}
}

// Wrap uses an existing zerolog.Logger.
func Wrap(l zerolog.Logger) *Logger { return &Logger{logger: l} }

func (z *Logger) Debug(msg string, f jhp.Fields) { emit(z.logger.Debug(), msg, f) }
func (z *Logger) Info(msg string, f jhp.Fields)  { emit(z.logger.Info(), msg, f) }
func (z *Logger) Warn(msg string, f jhp.Fields)  { emit(z.logger.Warn(), msg, f) }
func (z *Logger) Error(msg string, f jhp.Fields) { emit(z.logger.Error(), msg, f) }

func emit(e *zerolog.Event, msg string, f jhp.Fields) {
	if e == nil {
		return
	}
	for k, v := range f {
		switch v := v.(type) {
		case string:
			e = e.Str(k, v)
		case int:
			e = e.Int(k, v)
		case int64:
			e = e.Int64(k, v)
		case uint64:
			e = e.Uint64(k, v)
		case float64:
			e = e.Float64(k, v)
		case bool:
			e = e.Bool(k, v)
		case time.Duration:
			e = e.Dur(k, v)
		case error:
			e = e.AnErr(k, v)
		default:
			e = e.Interface(k, v)
		}
	}
	e.Msg(msg)
}
