package jhp

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MrF0o/jhp/blob"
	"github.com/MrF0o/jhp/codec"
	"github.com/MrF0o/jhp/native"
)

const (
	fnOpen            = "sqlite_open"
	fnClose           = "sqlite_close"
	fnExecute         = "sqlite_execute"
	fnQuery           = "sqlite_query"
	fnChanges         = "sqlite_changes"
	fnLastInsertRowID = "sqlite_last_insert_rowid"
)

var errWorkPanicked = errors.New("jhp: transaction work panicked")

// closedHandle replaces the handle once Close succeeds. Native handles start at 1.
const closedHandle int64 = -1

// Database wraps one native connection handle.
//
// A Database is not a connection pool: at most one logical operation should
// be in flight at a time, and interleaving transactions from several
// goroutines on one Database is the caller's problem.
type Database struct {
	reg   *native.Registry
	path  string
	log   Logger
	hooks Hooks
	qc    *queryCache // nil when caching is off

	mu     sync.Mutex
	handle int64
	inTx   bool
}

// QueryResult holds the rows of a query. Each row maps column name to value:
// nil, int64, float64, string, or a blob descriptor (map with "data" and
// "length") for BLOB columns.
type QueryResult struct {
	Columns []string
	Rows    []Row
}

type Row map[string]any

// Bytes decodes a BLOB column.
func (r Row) Bytes(col string) ([]byte, error) { return blob.ToBytes(r[col]) }

// Text decodes a BLOB column as UTF-8 text.
func (r Row) Text(col string) (string, error) { return blob.ToText(r[col], "") }

// Path returns the path the database was opened with.
func (db *Database) Path() string { return db.path }

func (db *Database) current() (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.handle == closedHandle {
		return 0, ErrClosed
	}
	return db.handle, nil
}

func (db *Database) inTransaction() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.inTx
}

// call invokes fn with the handle prepended and unwraps error payloads.
func (db *Database) call(ctx context.Context, op, fn string, args ...any) (map[string]any, error) {
	h, err := db.current()
	if err != nil {
		return nil, err
	}
	res, err := db.reg.Call(ctx, fn, append([]any{h}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("jhp: %s: %w", op, err)
	}
	if err := payloadErr(op, res); err != nil {
		return nil, err
	}
	return res, nil
}

func payloadErr(op string, res map[string]any) error {
	if msg, code, ok := native.PayloadError(res); ok {
		return &Error{Op: op, Message: msg, Code: code}
	}
	return nil
}

// Exec runs a statement that returns no rows. params is nil, a []any for
// positional parameters or a map[string]any for named ones. []byte,
// codec.Buffer and blob.Descriptor values are sent as blob descriptors.
func (db *Database) Exec(ctx context.Context, sql string, params any) (ExecResult, error) {
	res, err := db.exec(ctx, "exec", sql, params)
	if err != nil {
		return ExecResult{}, err
	}
	db.invalidate(ctx)
	return res, nil
}

func (db *Database) exec(ctx context.Context, op, sql string, params any) (ExecResult, error) {
	args, err := statementArgs(sql, params)
	if err != nil {
		return ExecResult{}, fmt.Errorf("jhp: %s: %w", op, err)
	}
	res, err := db.call(ctx, op, fnExecute, args...)
	if err != nil {
		return ExecResult{}, err
	}
	affected, _ := native.AsInt64(res["rowsAffected"])
	last, _ := native.AsInt64(res["lastInsertRowId"])
	return ExecResult{RowsAffected: affected, LastInsertRowID: last}, nil
}

// Query runs a statement and returns its rows. See Exec for params.
// An uncached Query invalidates the query cache, since it may write.
func (db *Database) Query(ctx context.Context, sql string, params any, opts QueryOptions) (*QueryResult, error) {
	args, err := statementArgs(sql, params)
	if err != nil {
		return nil, fmt.Errorf("jhp: query: %w", err)
	}
	if opts.Limit > 0 {
		for len(args) < 2 {
			args = append(args, nil)
		}
		args = append(args, map[string]any{"limit": int64(opts.Limit)})
	}

	useCache := opts.Cache && db.qc != nil && !db.inTransaction()
	var lookup cacheLookup
	if useCache {
		if _, err := db.current(); err != nil {
			return nil, err
		}
		var hit *QueryResult
		hit, lookup = db.qc.get(ctx, args)
		if hit != nil {
			return hit, nil
		}
	}

	res, err := db.call(ctx, "query", fnQuery, args...)
	if err != nil {
		return nil, err
	}
	if useCache {
		qr, err := toQueryResult(res)
		if err != nil {
			return nil, err
		}
		db.qc.set(ctx, lookup, res)
		return qr, nil
	}
	// uncached statements may write (DELETE ... RETURNING)
	db.invalidate(ctx)
	return toQueryResult(res)
}

// Pragma runs "PRAGMA name" when value is nil and "PRAGMA name=value"
// otherwise. value is formatted with %v and not quoted: pass a number, a
// keyword or an already quoted SQL literal, never untrusted text.
func (db *Database) Pragma(ctx context.Context, name string, value any) (*QueryResult, error) {
	sql := "PRAGMA " + name
	if value != nil {
		sql = fmt.Sprintf("PRAGMA %s=%v", name, value)
	}
	return db.Query(ctx, sql, nil, QueryOptions{})
}

// Changes returns the row count of the most recent write. It asks the
// native layer on every call.
func (db *Database) Changes(ctx context.Context) (int64, error) {
	res, err := db.call(ctx, "changes", fnChanges)
	if err != nil {
		return 0, err
	}
	n, _ := native.AsInt64(res["changes"])
	return n, nil
}

// LastInsertRowID returns the rowid of the most recent insert. It asks the
// native layer on every call.
func (db *Database) LastInsertRowID(ctx context.Context) (int64, error) {
	res, err := db.call(ctx, "lastInsertRowId", fnLastInsertRowID)
	if err != nil {
		return 0, err
	}
	n, _ := native.AsInt64(res["id"])
	return n, nil
}

// Close closes the native handle. Every later call, Close included, fails
// with ErrClosed. If the native close fails the handle stays usable.
func (db *Database) Close(ctx context.Context) error {
	h, err := db.current()
	if err != nil {
		return err
	}
	res, err := db.reg.Call(ctx, fnClose, h)
	if err != nil {
		return fmt.Errorf("jhp: close: %w", err)
	}
	if err := payloadErr("close", res); err != nil {
		return err
	}

	db.mu.Lock()
	db.handle = closedHandle
	db.mu.Unlock()

	if db.qc != nil {
		db.qc.close(ctx)
	}
	db.log.Debug("database closed", Fields{"path": db.path, "handle": h})
	return nil
}

// Transaction runs work between BEGIN and COMMIT. If work fails, the
// transaction is rolled back and work's error is returned unchanged; a
// failing ROLLBACK is reported to Hooks.RollbackFailed and logged, never
// returned.
func (db *Database) Transaction(ctx context.Context, work func(tx *Database) error) error {
	_, err := Transaction(ctx, db, func(tx *Database) (struct{}, error) {
		return struct{}{}, work(tx)
	})
	return err
}

// Transaction is the value-returning form of (*Database).Transaction.
// If work panics, the transaction is rolled back before the panic continues.
func Transaction[T any](ctx context.Context, db *Database, work func(tx *Database) (T, error)) (T, error) {
	var zero T
	if err := db.beginTx(); err != nil {
		return zero, err
	}
	defer db.endTx()

	if _, err := db.exec(ctx, "begin", "BEGIN", nil); err != nil {
		return zero, err
	}

	returned := false
	defer func() {
		if !returned {
			db.rollback(ctx, errWorkPanicked)
		}
	}()
	v, err := work(db)
	returned = true

	if err != nil {
		db.rollback(ctx, err)
		return zero, err
	}
	if _, err := db.exec(ctx, "commit", "COMMIT", nil); err != nil {
		db.rollback(ctx, err)
		return zero, err
	}
	db.invalidate(ctx)
	return v, nil
}

func (db *Database) beginTx() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.handle == closedHandle {
		return ErrClosed
	}
	if db.inTx {
		return ErrNestedTransaction
	}
	db.inTx = true
	return nil
}

func (db *Database) endTx() {
	db.mu.Lock()
	db.inTx = false
	db.mu.Unlock()
}

// rollback issues ROLLBACK after cause. Its own failure is swallowed.
func (db *Database) rollback(ctx context.Context, cause error) {
	_, err := db.exec(ctx, "rollback", "ROLLBACK", nil)
	db.invalidate(ctx)
	if err == nil {
		return
	}
	db.log.Warn("rollback failed", Fields{"path": db.path, "cause": cause.Error(), "err": err.Error()})
	db.hooks.RollbackFailed(cause, err)
}

func (db *Database) invalidate(ctx context.Context) {
	if db.qc != nil {
		db.qc.bump(ctx)
	}
}

// statementArgs builds the sql and params arguments of execute/query.
func statementArgs(sql string, params any) ([]any, error) {
	if params == nil {
		return []any{sql}, nil
	}
	p, err := wireParams(params)
	if err != nil {
		return nil, err
	}
	return []any{sql, p}, nil
}

func wireParams(params any) (any, error) {
	switch p := params.(type) {
	case []any:
		out := make([]any, len(p))
		for i, v := range p {
			w, err := wireValue(v)
			if err != nil {
				return nil, fmt.Errorf("param %d: %w", i+1, err)
			}
			out[i] = w
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(p))
		for k, v := range p {
			w, err := wireValue(v)
			if err != nil {
				return nil, fmt.Errorf("param %q: %w", k, err)
			}
			out[k] = w
		}
		return out, nil
	default:
		return nil, fmt.Errorf("params must be []any or map[string]any, got %T", params)
	}
}

// wireValue converts Go binary values to descriptors; everything else
// crosses as-is and is checked by the native boundary.
func wireValue(v any) (any, error) {
	switch x := v.(type) {
	case blob.Descriptor:
		return x.Map(), nil
	case *blob.Descriptor:
		if x == nil {
			return nil, nil
		}
		return x.Map(), nil
	case []byte, codec.Buffer, *codec.Buffer:
		d, err := blob.FromSource(x, blob.EncodingBytes)
		if err != nil {
			return nil, err
		}
		if d == nil {
			return nil, nil
		}
		return d.Map(), nil
	default:
		return v, nil
	}
}

func toQueryResult(res map[string]any) (*QueryResult, error) {
	cols, _ := res["columns"].([]any)
	rows, _ := res["rows"].([]any)
	qr := &QueryResult{
		Columns: make([]string, 0, len(cols)),
		Rows:    make([]Row, 0, len(rows)),
	}
	for _, c := range cols {
		s, ok := c.(string)
		if !ok {
			return nil, &Error{Op: "query", Message: fmt.Sprintf("column name has type %T", c)}
		}
		qr.Columns = append(qr.Columns, s)
	}
	for _, r := range rows {
		m, ok := r.(map[string]any)
		if !ok {
			return nil, &Error{Op: "query", Message: fmt.Sprintf("row has type %T", r)}
		}
		qr.Rows = append(qr.Rows, Row(m))
	}
	return qr, nil
}
