package slog

import (
	"bytes"
	"encoding/json"
	stdslog "log/slog"
	"testing"

	"github.com/MrF0o/jhp"
)

func TestWritesSortedAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{L: stdslog.New(stdslog.NewJSONHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo}))}

	l.Debug("hidden", jhp.Fields{"x": 1})
	if buf.Len() != 0 {
		t.Fatalf("debug written below level: %s", buf.String())
	}
	l.Warn("rollback failed", jhp.Fields{"path": "a.db", "handle": int64(2)})

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["msg"] != "rollback failed" || rec["level"] != "WARN" || rec["path"] != "a.db" || rec["handle"] != float64(2) {
		t.Fatalf("record %v", rec)
	}
	if i, j := bytes.Index(buf.Bytes(), []byte(`"handle"`)), bytes.Index(buf.Bytes(), []byte(`"path"`)); i > j {
		t.Fatalf("attrs not sorted: %s", buf.String())
	}
}
