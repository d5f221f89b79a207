// Package sloghooks implements jhp.Hooks by writing sampled slog records.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/MrF0o/jhp"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery    uint64
	SetRejectedEvery uint64
	// Optional key redactor. Defaults to a SHA-256 prefix of the key.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	selfHealCtr    atomic.Uint64
	setRejectedCtr atomic.Uint64
}

var _ jhp.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n <= 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

// RollbackFailed is never sampled: it means a connection may be left inside
// an open transaction.
func (h *Hooks) RollbackFailed(cause, rollbackErr error) {
	if h.l == nil {
		return
	}
	h.l.Error("jhp.rollback_failed",
		"cause", cause,
		"err", rollbackErr)
}

func (h *Hooks) CacheSelfHeal(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("jhp.cache_self_heal",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) CacheSetRejected(storageKey string) {
	if h.l == nil || !sample(h.opts.SetRejectedEvery, &h.setRejectedCtr) {
		return
	}
	h.l.Warn("jhp.cache_set_rejected",
		"key", h.redact(storageKey))
}

func (h *Hooks) GenSnapshotError(ns string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("jhp.gen_snapshot_error",
		"ns", h.redact(ns),
		"err", err)
}

func (h *Hooks) GenBumpError(ns string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("jhp.gen_bump_error",
		"ns", h.redact(ns),
		"err", err)
}
