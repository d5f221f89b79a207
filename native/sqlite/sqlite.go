// Package sqlite is a native module backed by modernc.org/sqlite. It exposes
// the sqlite_* functions the database facade calls and the sqlx_* relay
// functions, all speaking JSON-safe objects.
//
// Each handle owns one *sql.Conn, so BEGIN and COMMIT issued through separate
// calls run on the same connection.
//
// Error payload codes:
//
//	1  engine failure or invalid arguments
//	2  missing argument
//	3  unknown handle
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/MrF0o/jhp/native"
)

// ModuleName is the name the engine registers under.
const ModuleName = "sqlite"

const driverName = "sqlite"

const (
	CodeEngine        = 1
	CodeMissingArg    = 2
	CodeInvalidHandle = 3
)

type handle struct {
	db   *sql.DB
	conn *sql.Conn
}

func (h *handle) close() error {
	err := h.conn.Close()
	if cerr := h.db.Close(); err == nil {
		err = cerr
	}
	return err
}

// Engine holds open handles. Handle ids start at 1 and are never reused.
type Engine struct {
	mu    sync.Mutex
	next  int64
	conns map[int64]*handle

	relayNext int64
	pools     map[string]*sql.DB

	versionOnce sync.Once
	version     string
	versionErr  error
}

func New() *Engine {
	return &Engine{
		conns: make(map[int64]*handle),
		pools: make(map[string]*sql.DB),
	}
}

// Module returns the native module view of e.
func (e *Engine) Module() *native.Module {
	return &native.Module{
		Name: ModuleName,
		Funcs: map[string]native.Func{
			"sqlite_test":              e.test,
			"sqlite_open":              e.open,
			"sqlite_close":             e.closeHandle,
			"sqlite_execute":           e.execute,
			"sqlite_query":             e.query,
			"sqlite_version":           e.versionFunc,
			"sqlite_changes":           e.changes,
			"sqlite_last_insert_rowid": e.lastInsertRowID,
			"sqlx_connect":             e.relayConnect,
			"sqlx_query":               e.relayQuery,
		},
	}
}

// Close releases every open handle and relay pool.
func (e *Engine) Close() error {
	e.mu.Lock()
	conns, pools := e.conns, e.pools
	e.conns = make(map[int64]*handle)
	e.pools = make(map[string]*sql.DB)
	e.mu.Unlock()

	var first error
	for _, h := range conns {
		if err := h.close(); err != nil && first == nil {
			first = err
		}
	}
	for _, p := range pools {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func errPayload(msg string, code int) map[string]any {
	return native.ErrorPayload(msg, int64(code))
}

func engineErr(what string, err error) map[string]any {
	return errPayload(fmt.Sprintf("%s: %v", what, err), CodeEngine)
}

func (e *Engine) lookup(args []any, fn string) (*handle, map[string]any) {
	id, ok := native.ArgInt(args, 0)
	if !ok {
		return nil, errPayload(fn+" missing db", CodeMissingArg)
	}
	e.mu.Lock()
	h := e.conns[id]
	e.mu.Unlock()
	if h == nil {
		return nil, errPayload("invalid db handle", CodeInvalidHandle)
	}
	return h, nil
}

func (e *Engine) test(context.Context, []any) map[string]any {
	return map[string]any{"message": "It works!"}
}

func (e *Engine) open(ctx context.Context, args []any) map[string]any {
	path, ok := native.ArgString(args, 0)
	if !ok {
		return errPayload("open(path) requires path", CodeMissingArg)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return engineErr("open failed", err)
	}
	db.SetMaxOpenConns(1)
	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return engineErr("open failed", err)
	}
	// force the file open now so a bad path fails here, not on first use
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return engineErr("open failed", err)
	}

	e.mu.Lock()
	e.next++
	id := e.next
	e.conns[id] = &handle{db: db, conn: conn}
	e.mu.Unlock()
	return map[string]any{"db": id}
}

func (e *Engine) closeHandle(_ context.Context, args []any) map[string]any {
	id, ok := native.ArgInt(args, 0)
	if !ok {
		return errPayload("close(db) requires handle", CodeMissingArg)
	}
	e.mu.Lock()
	h := e.conns[id]
	delete(e.conns, id)
	e.mu.Unlock()
	if h != nil {
		if err := h.close(); err != nil {
			return engineErr("close failed", err)
		}
	}
	return map[string]any{"ok": true}
}

func (e *Engine) execute(ctx context.Context, args []any) map[string]any {
	h, bad := e.lookup(args, "execute(db, sql)")
	if bad != nil {
		return bad
	}
	query, ok := native.ArgString(args, 1)
	if !ok {
		return errPayload("execute(db, sql) missing sql", CodeMissingArg)
	}
	res, err := h.conn.ExecContext(ctx, query, bindArgs(native.Arg(args, 2))...)
	if err != nil {
		return engineErr("execute failed", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return engineErr("execute failed", err)
	}
	last, err := res.LastInsertId()
	if err != nil {
		return engineErr("execute failed", err)
	}
	return map[string]any{"rowsAffected": affected, "lastInsertRowId": last}
}

func (e *Engine) query(ctx context.Context, args []any) map[string]any {
	h, bad := e.lookup(args, "query(db, sql)")
	if bad != nil {
		return bad
	}
	query, ok := native.ArgString(args, 1)
	if !ok {
		return errPayload("query(db, sql) missing sql", CodeMissingArg)
	}
	limit := int64(-1)
	if opts, ok := native.Arg(args, 3).(map[string]any); ok {
		if n, ok := native.AsInt64(opts["limit"]); ok && n >= 0 {
			limit = n
		}
	}

	rows, err := h.conn.QueryContext(ctx, query, bindArgs(native.Arg(args, 2))...)
	if err != nil {
		return engineErr("query failed", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return engineErr("query failed", err)
	}
	out := make([]any, 0)
	for limit < 0 || int64(len(out)) < limit {
		if !rows.Next() {
			break
		}
		vals, err := scanRow(rows, len(cols))
		if err != nil {
			return engineErr("row fetch failed", err)
		}
		obj := make(map[string]any, len(cols))
		for i, c := range cols {
			obj[c] = vals[i]
		}
		out = append(out, obj)
	}
	if err := rows.Err(); err != nil {
		return engineErr("row fetch failed", err)
	}
	colList := make([]any, len(cols))
	for i, c := range cols {
		colList[i] = c
	}
	return map[string]any{"columns": colList, "rows": out}
}

func (e *Engine) versionFunc(ctx context.Context, _ []any) map[string]any {
	e.versionOnce.Do(func() {
		db, err := sql.Open(driverName, ":memory:")
		if err != nil {
			e.versionErr = err
			return
		}
		defer db.Close()
		e.versionErr = db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&e.version)
	})
	if e.versionErr != nil {
		return engineErr("version failed", e.versionErr)
	}
	return map[string]any{"version": e.version}
}

func (e *Engine) changes(ctx context.Context, args []any) map[string]any {
	h, bad := e.lookup(args, "changes(db)")
	if bad != nil {
		return bad
	}
	var n int64
	if err := h.conn.QueryRowContext(ctx, "SELECT changes()").Scan(&n); err != nil {
		return engineErr("changes failed", err)
	}
	return map[string]any{"changes": n}
}

func (e *Engine) lastInsertRowID(ctx context.Context, args []any) map[string]any {
	h, bad := e.lookup(args, "last_insert_rowid(db)")
	if bad != nil {
		return bad
	}
	var n int64
	if err := h.conn.QueryRowContext(ctx, "SELECT last_insert_rowid()").Scan(&n); err != nil {
		return engineErr("last_insert_rowid failed", err)
	}
	return map[string]any{"id": n}
}
