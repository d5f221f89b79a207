// Package codec holds the byte-level conversions of the bridge: UTF-8 and
// base64 text codecs, the owned Buffer type, and the envelope codecs that
// carry JSON-compatible values across the native call boundary.
package codec

// Codec encodes/decodes values V to []byte.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
