package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/MrF0o/jhp/native"
)

func newRegistry(t *testing.T) *native.Registry {
	t.Helper()
	e := New()
	t.Cleanup(func() { _ = e.Close() })
	r := native.NewRegistry(native.Options{})
	if err := r.Load(e.Module()); err != nil {
		t.Fatal(err)
	}
	return r
}

func call(t *testing.T, r *native.Registry, fn string, args ...any) map[string]any {
	t.Helper()
	res, err := r.Call(context.Background(), fn, args...)
	if err != nil {
		t.Fatalf("%s: %v", fn, err)
	}
	return res
}

func mustOK(t *testing.T, res map[string]any) map[string]any {
	t.Helper()
	if msg, code, ok := native.PayloadError(res); ok {
		t.Fatalf("error payload: %s (code %v)", msg, code)
	}
	return res
}

func wantCode(t *testing.T, res map[string]any, code int64) {
	t.Helper()
	_, got, ok := native.PayloadError(res)
	if !ok || got != code {
		t.Fatalf("want error code %d, got %#v", code, res)
	}
}

func openDB(t *testing.T, r *native.Registry) int64 {
	t.Helper()
	res := mustOK(t, call(t, r, "sqlite_open", filepath.Join(t.TempDir(), "test.db")))
	id, ok := native.AsInt64(res["db"])
	if !ok || id < 1 {
		t.Fatalf("bad handle %#v", res["db"])
	}
	return id
}

func TestOpenExecQuery(t *testing.T) {
	r := newRegistry(t)
	db := openDB(t, r)

	mustOK(t, call(t, r, "sqlite_execute", db, "CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT, score REAL, payload BLOB)"))
	res := mustOK(t, call(t, r, "sqlite_execute", db,
		"INSERT INTO t (name, score, payload) VALUES (?, ?, ?)",
		[]any{"ada", 1.5, map[string]any{"data": "AP8=", "length": 2}}))
	if res["rowsAffected"] != int64(1) || res["lastInsertRowId"] != int64(1) {
		t.Fatalf("insert result %#v", res)
	}

	res = mustOK(t, call(t, r, "sqlite_query", db, "SELECT id, name, score, payload FROM t"))
	cols := res["columns"].([]any)
	if len(cols) != 4 || cols[3] != "payload" {
		t.Fatalf("columns %#v", cols)
	}
	rows := res["rows"].([]any)
	if len(rows) != 1 {
		t.Fatalf("rows %#v", rows)
	}
	row := rows[0].(map[string]any)
	if row["id"] != int64(1) || row["name"] != "ada" || row["score"] != 1.5 {
		t.Fatalf("row %#v", row)
	}
	p := row["payload"].(map[string]any)
	if p["data"] != "AP8=" || p["length"] != int64(2) {
		t.Fatalf("payload %#v", p)
	}
}

func TestNamedParamsAndLegacyBlobKey(t *testing.T) {
	r := newRegistry(t)
	db := openDB(t, r)
	mustOK(t, call(t, r, "sqlite_execute", db, "CREATE TABLE t (a TEXT, b BLOB, c INTEGER)"))
	mustOK(t, call(t, r, "sqlite_execute", db, "INSERT INTO t VALUES (:a, @b, $c)",
		map[string]any{":a": "x", "b": map[string]any{"blob": "aGk="}, "$c": true}))

	res := mustOK(t, call(t, r, "sqlite_query", db, "SELECT a, b, c FROM t WHERE a = :a", map[string]any{"a": "x"}))
	row := res["rows"].([]any)[0].(map[string]any)
	if row["a"] != "x" || row["c"] != int64(1) {
		t.Fatalf("row %#v", row)
	}
	if b := row["b"].(map[string]any); b["data"] != "aGk=" || b["length"] != int64(2) {
		t.Fatalf("blob %#v", b)
	}
}

func TestUnsupportedParamBindsNull(t *testing.T) {
	r := newRegistry(t)
	db := openDB(t, r)
	mustOK(t, call(t, r, "sqlite_execute", db, "CREATE TABLE t (v)"))
	mustOK(t, call(t, r, "sqlite_execute", db, "INSERT INTO t VALUES (?)", []any{[]any{1, 2}}))
	res := mustOK(t, call(t, r, "sqlite_query", db, "SELECT v FROM t"))
	if v := res["rows"].([]any)[0].(map[string]any)["v"]; v != nil {
		t.Fatalf("want NULL, got %#v", v)
	}
}

func TestQueryLimit(t *testing.T) {
	r := newRegistry(t)
	db := openDB(t, r)
	mustOK(t, call(t, r, "sqlite_execute", db, "CREATE TABLE t (n INTEGER)"))
	for i := 0; i < 5; i++ {
		mustOK(t, call(t, r, "sqlite_execute", db, "INSERT INTO t VALUES (?)", []any{i}))
	}
	res := mustOK(t, call(t, r, "sqlite_query", db, "SELECT n FROM t ORDER BY n", nil, map[string]any{"limit": 2}))
	if rows := res["rows"].([]any); len(rows) != 2 {
		t.Fatalf("limit ignored: %d rows", len(rows))
	}
	res = mustOK(t, call(t, r, "sqlite_query", db, "SELECT n FROM t WHERE n > 10"))
	if rows := res["rows"].([]any); len(rows) != 0 {
		t.Fatalf("want empty rows, got %#v", rows)
	}
}

func TestChangesAndLastInsertRowID(t *testing.T) {
	r := newRegistry(t)
	db := openDB(t, r)
	mustOK(t, call(t, r, "sqlite_execute", db, "CREATE TABLE t (n INTEGER)"))
	mustOK(t, call(t, r, "sqlite_execute", db, "INSERT INTO t VALUES (1), (2), (3)"))
	if res := mustOK(t, call(t, r, "sqlite_last_insert_rowid", db)); res["id"] != int64(3) {
		t.Fatalf("last id %#v", res)
	}
	mustOK(t, call(t, r, "sqlite_execute", db, "UPDATE t SET n = n + 1 WHERE n > 1"))
	if res := mustOK(t, call(t, r, "sqlite_changes", db)); res["changes"] != int64(2) {
		t.Fatalf("changes %#v", res)
	}
}

func TestTransactionSpansCalls(t *testing.T) {
	r := newRegistry(t)
	db := openDB(t, r)
	mustOK(t, call(t, r, "sqlite_execute", db, "CREATE TABLE t (n INTEGER)"))
	mustOK(t, call(t, r, "sqlite_execute", db, "BEGIN"))
	mustOK(t, call(t, r, "sqlite_execute", db, "INSERT INTO t VALUES (1)"))
	mustOK(t, call(t, r, "sqlite_execute", db, "ROLLBACK"))
	res := mustOK(t, call(t, r, "sqlite_query", db, "SELECT count(*) AS c FROM t"))
	if c := res["rows"].([]any)[0].(map[string]any)["c"]; c != int64(0) {
		t.Fatalf("rollback did not undo insert: %#v", c)
	}
}

func TestErrorCodes(t *testing.T) {
	r := newRegistry(t)
	wantCode(t, call(t, r, "sqlite_open"), CodeMissingArg)
	wantCode(t, call(t, r, "sqlite_execute", int64(99), "SELECT 1"), CodeInvalidHandle)
	wantCode(t, call(t, r, "sqlite_query"), CodeMissingArg)
	wantCode(t, call(t, r, "sqlite_changes", int64(42)), CodeInvalidHandle)

	db := openDB(t, r)
	wantCode(t, call(t, r, "sqlite_execute", db), CodeMissingArg)
	wantCode(t, call(t, r, "sqlite_execute", db, "NOT SQL"), CodeEngine)
	wantCode(t, call(t, r, "sqlite_open", filepath.Join(t.TempDir(), "missing", "dir", "x.db")), CodeEngine)
}

func TestCloseInvalidatesHandle(t *testing.T) {
	r := newRegistry(t)
	db := openDB(t, r)
	if res := mustOK(t, call(t, r, "sqlite_close", db)); res["ok"] != true {
		t.Fatalf("close %#v", res)
	}
	wantCode(t, call(t, r, "sqlite_query", db, "SELECT 1"), CodeInvalidHandle)
	// unknown handles close cleanly
	mustOK(t, call(t, r, "sqlite_close", db))

	if next := openDB(t, r); next == db {
		t.Fatalf("handle id %d reused", next)
	}
}

func TestVersionAndTest(t *testing.T) {
	r := newRegistry(t)
	if v, _ := mustOK(t, call(t, r, "sqlite_version"))["version"].(string); v == "" {
		t.Fatalf("empty version")
	}
	if m := mustOK(t, call(t, r, "sqlite_test"))["message"]; m != "It works!" {
		t.Fatalf("message %#v", m)
	}
}

func TestRelay(t *testing.T) {
	r := newRegistry(t)
	res := call(t, r, "sqlx_connect", ":memory:")
	if res["type"] != "connected" {
		t.Fatalf("connect %#v", res)
	}
	id := res["id"].(string)

	if res := call(t, r, "sqlx_query", id, "CREATE TABLE t (a INTEGER, b TEXT)", nil); res["type"] != "query_result" {
		t.Fatalf("create %#v", res)
	}
	call(t, r, "sqlx_query", id, "INSERT INTO t VALUES (?, ?)", []any{7, "seven"})

	res = call(t, r, "sqlx_query", map[string]any{"id": id}, "SELECT a, b FROM t", []any{})
	if res["type"] != "query_result" || res["row_count"] != int64(1) {
		t.Fatalf("select %#v", res)
	}
	row := res["rows"].([]any)[0].([]any)
	if row[0] != int64(7) || row[1] != "seven" {
		t.Fatalf("row %#v", row)
	}

	for _, bad := range [][]any{
		{"", "SELECT 1"},
		{"pool_999", "SELECT 1"},
		{id, "NOT SQL"},
	} {
		if res := call(t, r, "sqlx_query", bad...); res["type"] != "error" {
			t.Fatalf("sqlx_query(%v) = %#v", bad, res)
		}
	}
	if res := call(t, r, "sqlx_connect", ""); res["type"] != "error" {
		t.Fatalf("empty url %#v", res)
	}
	if res := call(t, r, "sqlx_connect", "postgres-ish"); res["type"] != "error" {
		t.Fatalf("unsupported url %#v", res)
	}
}

func TestRelayDSN(t *testing.T) {
	cases := map[string]string{
		"sqlite::memory:": ":memory:",
		"sqlite:app.db":   "app.db",
		"sqlite:///tmp/x": "/tmp/x",
		":memory:":        ":memory:",
		"data/app.sqlite": "data/app.sqlite",
	}
	for in, want := range cases {
		got, ok := relayDSN(in)
		if !ok || got != want {
			t.Fatalf("relayDSN(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := relayDSN("nope"); ok {
		t.Fatalf("accepted bare name")
	}
}
