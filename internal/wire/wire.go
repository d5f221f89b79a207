// Package wire frames cached query results.
//
// Frame: magic(4) | ver(1) | gen(u64 be) | plen(u32 be) | payload(plen)
//
// gen is the namespace generation observed when the result was read; a
// reader compares it with the current generation before trusting payload.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version byte = 1
	hdrLen       = 4 + 1 + 8 + 4
)

var (
	ErrCorrupt = errors.New("jhp: corrupt cache entry")
	magic      = [...]byte{'J', 'H', 'P', 'Q'}
)

// Encode frames payload with gen.
func Encode(gen uint64, payload []byte) []byte {
	out := make([]byte, hdrLen+len(payload))
	copy(out, magic[:])
	out[4] = version
	binary.BigEndian.PutUint64(out[5:13], gen)
	binary.BigEndian.PutUint32(out[13:17], uint32(len(payload)))
	copy(out[hdrLen:], payload)
	return out
}

// Decode parses a frame. The returned payload aliases b.
func Decode(b []byte) (gen uint64, payload []byte, err error) {
	if len(b) < hdrLen || !bytes.Equal(b[:4], magic[:]) || b[4] != version {
		return 0, nil, ErrCorrupt
	}
	gen = binary.BigEndian.Uint64(b[5:13])
	plen := binary.BigEndian.Uint32(b[13:17])
	if uint64(plen) != uint64(len(b)-hdrLen) {
		return 0, nil, ErrCorrupt
	}
	return gen, b[hdrLen:], nil
}
