package logrus

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/MrF0o/jhp"
)

func TestFieldsAndLevels(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := New(base)

	l.Debug("opened", jhp.Fields{"path": "a.db"})
	l.Warn("rollback failed", jhp.Fields{"err": errors.New("busy"), "path": "a.db"})

	if len(hook.Entries) != 2 {
		t.Fatalf("got %d entries", len(hook.Entries))
	}
	first := hook.Entries[0]
	if first.Level != logrus.DebugLevel || first.Data["path"] != "a.db" || first.Data["component"] != "jhp" {
		t.Fatalf("first entry %+v", first)
	}
	last := hook.LastEntry()
	if last.Level != logrus.WarnLevel {
		t.Fatalf("level %v", last.Level)
	}
	if err, ok := last.Data[logrus.ErrorKey].(error); !ok || err.Error() != "busy" {
		t.Fatalf("error field %#v", last.Data)
	}
}
