package jhp

import (
	"context"
	"fmt"
	"time"

	c "github.com/MrF0o/jhp/codec"
	gen "github.com/MrF0o/jhp/genstore"
	"github.com/MrF0o/jhp/native"
	pr "github.com/MrF0o/jhp/provider"
)

// SetCostFunc returns the cost passed to Provider.Set for a cached result.
type SetCostFunc func(key string, raw []byte) int64

// Options configure Open. Only Native is required.
type Options struct {
	// Required
	Native *native.Registry // must have the sqlite module loaded

	Logger Logger // if nil, NopLogger is used
	Hooks  Hooks  // if nil, NopHooks is used

	// Query-result cache. Disabled when Cache is nil.
	Cache      pr.Provider
	CacheCodec c.Codec[any]  // nil => deterministic CBOR
	CacheTTL   time.Duration // 0 => 1m
	Namespace  string        // generation and key namespace; "" => path
	// GenStore must be shared by every Database that shares Cache and
	// Namespace, or they read each other's stale entries. When nil, the
	// Database owns a LocalGenStore and its namespace gets a unique
	// "#<n>" suffix, so its entries are private to it.
	GenStore       gen.GenStore
	ComputeSetCost SetCostFunc // nil => len(raw)
}

// ExecResult is the outcome of a statement that returns no rows.
type ExecResult struct {
	RowsAffected    int64
	LastInsertRowID int64
}

// QueryOptions tune a single Query call.
type QueryOptions struct {
	Limit int // max rows returned; 0 => all
	// Cache serves from and stores into the query cache when one is
	// configured. Use it only for statements that do not write.
	Cache bool
}

// Open opens path through the native sqlite_open function.
func Open(ctx context.Context, path string, opts Options) (*Database, error) {
	if opts.Native == nil {
		return nil, fmt.Errorf("jhp: open: %w", native.ErrNotLoaded)
	}
	log := coalesce[Logger](opts.Logger, NopLogger{})

	res, err := opts.Native.Call(ctx, fnOpen, path)
	if err != nil {
		return nil, fmt.Errorf("jhp: open: %w", err)
	}
	if err := payloadErr("open", res); err != nil {
		return nil, err
	}
	id, ok := native.AsInt64(res["db"])
	if !ok {
		return nil, &Error{Op: "open", Message: fmt.Sprintf("result has no handle: %v", res)}
	}

	db := &Database{
		reg:    opts.Native,
		path:   path,
		log:    log,
		hooks:  coalesce[Hooks](opts.Hooks, NopHooks{}),
		handle: id,
	}
	if opts.Cache != nil {
		db.qc = newQueryCache(opts, path, log, db.hooks)
	}
	log.Debug("database opened", Fields{"path": path, "handle": id})
	return db, nil
}
