package sloghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newHooks(opts Options) (*Hooks, *bytes.Buffer) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(l, opts), &buf
}

func TestRollbackFailedAlwaysLogged(t *testing.T) {
	h, buf := newHooks(Options{})
	h.RollbackFailed(errors.New("work failed"), errors.New("disk I/O error"))
	out := buf.String()
	if !strings.Contains(out, "jhp.rollback_failed") || !strings.Contains(out, "disk I/O error") {
		t.Fatalf("output %q", out)
	}
}

func TestSelfHealSampledAndRedacted(t *testing.T) {
	h, buf := newHooks(Options{SelfHealEvery: 3})
	for i := 0; i < 9; i++ {
		h.CacheSelfHeal("query:/srv/app.db:abcdef", "corrupt")
	}
	if n := strings.Count(buf.String(), "jhp.cache_self_heal"); n != 3 {
		t.Fatalf("logged %d times, want 3", n)
	}
	if strings.Contains(buf.String(), "/srv/app.db") {
		t.Fatalf("key not redacted: %s", buf.String())
	}
}

func TestCustomRedactAndNilLogger(t *testing.T) {
	h, buf := newHooks(Options{Redact: func(string) string { return "KEY" }})
	h.CacheSetRejected("query:x:1")
	h.GenBumpError("x", errors.New("down"))
	if !strings.Contains(buf.String(), "key=KEY") || !strings.Contains(buf.String(), "ns=KEY") {
		t.Fatalf("output %q", buf.String())
	}

	quiet := New(nil, Options{})
	quiet.RollbackFailed(errors.New("a"), errors.New("b"))
	quiet.GenSnapshotError("x", errors.New("c"))
}
