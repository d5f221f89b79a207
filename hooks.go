package jhp

// Hooks are callbacks for high-signal events that never surface as errors.
// Implementations MUST be cheap and non-blocking; see hooks/async for a
// queue-backed wrapper.
type Hooks interface {
	// ROLLBACK failed after work returned cause. The caller still gets cause.
	RollbackFailed(cause, rollbackErr error)

	// A cached query result was deleted on read.
	// reason ∈ {"corrupt", "gen_mismatch", "value_decode"}
	CacheSelfHeal(storageKey, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	CacheSetRejected(storageKey string)

	// GenStore errors. A failed snapshot skips the cache for that call; a
	// failed bump leaves older entries readable until they expire.
	GenSnapshotError(ns string, err error)
	GenBumpError(ns string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) RollbackFailed(error, error)    {}
func (NopHooks) CacheSelfHeal(string, string)   {}
func (NopHooks) CacheSetRejected(string)        {}
func (NopHooks) GenSnapshotError(string, error) {}
func (NopHooks) GenBumpError(string, error)     {}
