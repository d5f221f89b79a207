package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// QueryKey returns "query:<ns>:<first 16 hex chars of sha256(parts)>".
// Parts are joined with a NUL so ("ab","c") and ("a","bc") differ.
func QueryKey(ns string, parts ...[]byte) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write(p)
	}
	sum := h.Sum(nil)
	var sb strings.Builder
	sb.Grow(len("query:") + len(ns) + 1 + 16)
	sb.WriteString("query:")
	sb.WriteString(ns)
	sb.WriteByte(':')
	sb.WriteString(hex.EncodeToString(sum[:8]))
	return sb.String()
}
