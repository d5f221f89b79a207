package jhp

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrF0o/jhp/native"
)

const (
	fnRelayConnect = "sqlx_connect"
	fnRelayQuery   = "sqlx_query"
)

// ErrRelay matches every error the relay reports in-band.
var ErrRelay = errors.New("jhp: relay error")

// Relay forwards to the sqlx_* native functions. It holds no state of its
// own; connection ids are owned by the native side.
type Relay struct {
	reg *native.Registry
	log Logger
}

// RelayResult is a row-major query result.
type RelayResult struct {
	Columns  []string
	Rows     [][]any
	RowCount int
}

type relayError struct {
	op  string
	msg string
}

func (e *relayError) Error() string        { return "jhp: relay " + e.op + ": " + e.msg }
func (e *relayError) Is(target error) bool { return target == ErrRelay }

func NewRelay(reg *native.Registry, log Logger) *Relay {
	return &Relay{reg: reg, log: coalesce[Logger](log, NopLogger{})}
}

func (r *Relay) call(ctx context.Context, op, fn string, args ...any) (map[string]any, error) {
	if r.reg == nil {
		return nil, fmt.Errorf("jhp: relay %s: %w", op, native.ErrNotLoaded)
	}
	res, err := r.reg.Call(ctx, fn, args...)
	if err != nil {
		return nil, fmt.Errorf("jhp: relay %s: %w", op, err)
	}
	if res["type"] == "error" {
		msg, _ := res["message"].(string)
		return nil, &relayError{op: op, msg: msg}
	}
	return res, nil
}

// Connect opens a relay connection and returns its id. url may be a
// "sqlite:" URL, ":memory:" or a file path.
func (r *Relay) Connect(ctx context.Context, url string) (string, error) {
	res, err := r.call(ctx, "connect", fnRelayConnect, url)
	if err != nil {
		return "", err
	}
	id, ok := res["id"].(string)
	if res["type"] != "connected" || !ok {
		return "", &relayError{op: "connect", msg: fmt.Sprintf("unexpected result %v", res)}
	}
	r.log.Debug("relay connected", Fields{"id": id})
	return id, nil
}

// Query runs sql on connection id with positional params.
func (r *Relay) Query(ctx context.Context, id, sql string, params []any) (*RelayResult, error) {
	wp := make([]any, len(params))
	for i, v := range params {
		w, err := wireValue(v)
		if err != nil {
			return nil, fmt.Errorf("jhp: relay query: param %d: %w", i+1, err)
		}
		wp[i] = w
	}
	res, err := r.call(ctx, "query", fnRelayQuery, id, sql, wp)
	if err != nil {
		return nil, err
	}
	if res["type"] != "query_result" {
		return nil, &relayError{op: "query", msg: fmt.Sprintf("unexpected result type %v", res["type"])}
	}

	cols, _ := res["columns"].([]any)
	rows, _ := res["rows"].([]any)
	out := &RelayResult{
		Columns: make([]string, 0, len(cols)),
		Rows:    make([][]any, 0, len(rows)),
	}
	for _, c := range cols {
		s, _ := c.(string)
		out.Columns = append(out.Columns, s)
	}
	for _, row := range rows {
		vals, ok := row.([]any)
		if !ok {
			return nil, &relayError{op: "query", msg: fmt.Sprintf("row has type %T", row)}
		}
		out.Rows = append(out.Rows, vals)
	}
	n, ok := native.AsInt64(res["row_count"])
	if !ok {
		n = int64(len(out.Rows))
	}
	out.RowCount = int(n)
	return out, nil
}
