package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/MrF0o/jhp/native"
)

// Relay results are tagged objects rather than error payloads:
//
//	{"type": "connected", "id": "pool_N"}
//	{"type": "query_result", "columns": [...], "rows": [[...]], "row_count": N}
//	{"type": "error", "message": "..."}

func relayError(format string, a ...any) map[string]any {
	return map[string]any{"type": "error", "message": fmt.Sprintf(format, a...)}
}

// relayDSN maps a relay URL to a driver DSN. "sqlite:" URLs, ":memory:" and
// anything that looks like a file path are accepted.
func relayDSN(url string) (string, bool) {
	switch {
	case strings.HasPrefix(url, "sqlite://"):
		return strings.TrimPrefix(url, "sqlite://"), true
	case strings.HasPrefix(url, "sqlite:"):
		return strings.TrimPrefix(url, "sqlite:"), true
	case url == ":memory:":
		return url, true
	case strings.HasSuffix(url, ".db"), strings.HasSuffix(url, ".sqlite"), strings.Contains(url, "/"):
		return url, true
	}
	return "", false
}

func (e *Engine) relayConnect(ctx context.Context, args []any) map[string]any {
	url, _ := native.ArgString(args, 0)
	if url == "" {
		return relayError("missing database url")
	}
	dsn, ok := relayDSN(url)
	if !ok || dsn == "" {
		return relayError("connect error: unsupported database url %q", url)
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return relayError("connect error: %v", err)
	}
	// one connection keeps ":memory:" pools on a single database
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return relayError("connect error: %v", err)
	}

	e.mu.Lock()
	e.relayNext++
	id := fmt.Sprintf("pool_%d", e.relayNext)
	e.pools[id] = db
	e.mu.Unlock()
	return map[string]any{"type": "connected", "id": id}
}

func (e *Engine) relayQuery(ctx context.Context, args []any) map[string]any {
	var id string
	switch v := native.Arg(args, 0).(type) {
	case string:
		id = v
	case map[string]any:
		id, _ = v["id"].(string)
	}
	if id == "" {
		return relayError("missing connection id")
	}
	query, _ := native.ArgString(args, 1)
	params, _ := native.Arg(args, 2).([]any)

	e.mu.Lock()
	db := e.pools[id]
	e.mu.Unlock()
	if db == nil {
		return relayError("unknown connection id: %s", id)
	}

	rows, err := db.QueryContext(ctx, query, bindArgs(params)...)
	if err != nil {
		return relayError("query error: %v", err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return relayError("query error: %v", err)
	}
	out := make([]any, 0)
	for rows.Next() {
		vals, err := scanRow(rows, len(cols))
		if err != nil {
			return relayError("query error: %v", err)
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return relayError("query error: %v", err)
	}
	colList := make([]any, len(cols))
	for i, c := range cols {
		colList[i] = c
	}
	return map[string]any{
		"type":      "query_result",
		"columns":   colList,
		"rows":      out,
		"row_count": int64(len(out)),
	}
}
