// Package zap adapts a *zap.Logger to jhp.Logger.
package zap

import (
	"sort"

	"go.uber.org/zap"

	"github.com/MrF0o/jhp"
)

var _ jhp.Logger = Logger{}

// Logger forwards to L. Errors in fields are logged with zap.Error.
type Logger struct{ L *zap.Logger }

func New(l *zap.Logger) Logger { return Logger{L: l.WithOptions(zap.AddCallerSkip(1))} }

func (z Logger) Debug(msg string, f jhp.Fields) { z.L.Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f jhp.Fields)  { z.L.Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f jhp.Fields)  { z.L.Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f jhp.Fields) { z.L.Error(msg, fields(f)...) }

// fields emits keys in sorted order so log lines are stable.
func fields(f jhp.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		if err, ok := f[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, f[k]))
	}
	return out
}
