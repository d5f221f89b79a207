package zap

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MrF0o/jhp"
)

func TestLevelsAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core))

	l.Debug("d", nil)
	l.Info("i", jhp.Fields{"path": "app.db"})
	l.Warn("rollback failed", jhp.Fields{"err": errors.New("busy"), "handle": int64(3)})
	l.Error("e", jhp.Fields{})

	entries := logs.All()
	if len(entries) != 4 {
		t.Fatalf("got %d entries", len(entries))
	}
	want := []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, e := range entries {
		if e.Level != want[i] {
			t.Fatalf("entry %d level %v want %v", i, e.Level, want[i])
		}
	}
	ctx := entries[2].ContextMap()
	if ctx["err"] != "busy" || ctx["handle"] != int64(3) {
		t.Fatalf("fields %#v", ctx)
	}
}
