package jhp

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	c "github.com/MrF0o/jhp/codec"
	gen "github.com/MrF0o/jhp/genstore"
	"github.com/MrF0o/jhp/internal/util"
	"github.com/MrF0o/jhp/internal/wire"
	"github.com/MrF0o/jhp/native"
	pr "github.com/MrF0o/jhp/provider"
)

// queryCache stores raw query results under "query:<ns>:<hash>", framed
// with the namespace generation observed before the native read.
//
// Read pattern:
//
//	obs := gen(ns)            // before the native query
//	res := sqlite_query(...)
//	set(key, res) iff gen(ns) == obs
//
// A hit is served only if its frame generation equals the current one.
type queryCache struct {
	ns       string
	provider pr.Provider
	codec    c.Codec[any]
	keyCodec c.Codec[any]
	gen      gen.GenStore
	ownsGen  bool
	ttl      time.Duration
	cost     SetCostFunc
	log      Logger
	hooks    Hooks
}

// privateNS numbers the namespaces of Databases that own their GenStore.
var privateNS atomic.Uint64

type cacheLookup struct {
	key string
	gen uint64
	ok  bool // false => do not store the result
}

func newQueryCache(opts Options, path string, log Logger, hooks Hooks) *queryCache {
	qc := &queryCache{
		ns:       coalesce(opts.Namespace, path),
		provider: opts.Cache,
		codec:    opts.CacheCodec,
		keyCodec: c.JSON[any]{},
		gen:      opts.GenStore,
		ttl:      coalesce(opts.CacheTTL, defaultCacheTTL),
		cost:     opts.ComputeSetCost,
		log:      log,
		hooks:    hooks,
	}
	if qc.codec == nil {
		qc.codec = c.MustCBOR[any](true)
	}
	if qc.gen == nil {
		qc.gen = gen.NewLocalGenStore(defaultGenSweep, defaultGenRetention)
		qc.ownsGen = true
		// a private generation counter cannot see other writers
		qc.ns += "#" + strconv.FormatUint(privateNS.Add(1), 10)
	}
	if qc.cost == nil {
		qc.cost = func(_ string, raw []byte) int64 { return int64(len(raw)) }
	}
	return qc
}

// get returns a hit, or a lookup to pass to set after the native read.
func (qc *queryCache) get(ctx context.Context, args []any) (*QueryResult, cacheLookup) {
	// encoding/json sorts map keys, so equal params give equal bytes
	enc, err := qc.keyCodec.Encode(args)
	if err != nil {
		qc.log.Debug("query cache key encode failed", Fields{"err": err.Error()})
		return nil, cacheLookup{}
	}
	k := util.QueryKey(qc.ns, enc)

	cur, err := qc.gen.Snapshot(ctx, qc.ns)
	if err != nil {
		qc.log.Warn("gen snapshot error", Fields{"ns": qc.ns, "err": err.Error()})
		qc.hooks.GenSnapshotError(qc.ns, err)
		return nil, cacheLookup{}
	}
	lookup := cacheLookup{key: k, gen: cur, ok: true}

	raw, ok, err := qc.provider.Get(ctx, k)
	if err != nil {
		qc.log.Debug("query cache get failed", Fields{"key": k, "err": err.Error()})
		return nil, lookup
	}
	if !ok {
		return nil, lookup
	}

	g, payload, err := wire.Decode(raw)
	if err != nil {
		qc.heal(ctx, k, "corrupt")
		return nil, lookup
	}
	if g != cur {
		qc.heal(ctx, k, "gen_mismatch")
		return nil, lookup
	}
	v, err := qc.codec.Decode(payload)
	if err != nil {
		qc.heal(ctx, k, "value_decode")
		return nil, lookup
	}
	m, ok := native.Normalize(v).(map[string]any)
	if !ok {
		qc.heal(ctx, k, "value_decode")
		return nil, lookup
	}
	qr, err := toQueryResult(m)
	if err != nil {
		qc.heal(ctx, k, "value_decode")
		return nil, lookup
	}
	return qr, lookup
}

// set stores res unless a write bumped the generation since the lookup.
func (qc *queryCache) set(ctx context.Context, l cacheLookup, res map[string]any) {
	if !l.ok {
		return
	}
	cur, err := qc.gen.Snapshot(ctx, qc.ns)
	if err != nil {
		qc.hooks.GenSnapshotError(qc.ns, err)
		return
	}
	if cur != l.gen {
		qc.log.Debug("query cache set skipped (gen moved)", Fields{"key": l.key, "obs": l.gen, "cur": cur})
		return
	}
	payload, err := qc.codec.Encode(res)
	if err != nil {
		qc.log.Debug("query cache encode failed", Fields{"key": l.key, "err": err.Error()})
		return
	}
	frame := wire.Encode(l.gen, payload)
	ok, err := qc.provider.Set(ctx, l.key, frame, qc.cost(l.key, frame), qc.ttl)
	if err != nil {
		qc.log.Debug("query cache set failed", Fields{"key": l.key, "err": err.Error()})
		return
	}
	if !ok {
		qc.hooks.CacheSetRejected(l.key)
	}
}

func (qc *queryCache) heal(ctx context.Context, key, reason string) {
	_ = qc.provider.Del(ctx, key)
	qc.hooks.CacheSelfHeal(key, reason)
}

// bump moves the namespace generation; older entries become unreadable.
func (qc *queryCache) bump(ctx context.Context) {
	if _, err := qc.gen.Bump(ctx, qc.ns); err != nil {
		qc.log.Error("gen bump error", Fields{"ns": qc.ns, "err": err.Error()})
		qc.hooks.GenBumpError(qc.ns, err)
	}
}

// close releases the GenStore if Open created it. Provider and caller
// supplied GenStores may be shared and stay open.
func (qc *queryCache) close(ctx context.Context) {
	if qc.ownsGen {
		_ = qc.gen.Close(ctx)
	}
}
