package codec

import "fmt"

// Buffer owns a fixed-length byte sequence. It copies on the way in and on
// the way out, so a Buffer never aliases caller memory and can be passed
// around by value. The zero value is an empty buffer.
type Buffer struct {
	b []byte
}

// FromBytes returns a Buffer holding a copy of b.
func FromBytes(b []byte) Buffer {
	return Buffer{b: clone(b)}
}

// FromText returns a Buffer holding the UTF-8 encoding of s.
func FromText(s string) Buffer {
	return Buffer{b: EncodeUTF8(s)}
}

// FromBase64 returns a Buffer holding the decoded form of s.
func FromBase64(s string) (Buffer, error) {
	b, err := DecodeBase64(s)
	if err != nil {
		return Buffer{}, err
	}
	return Buffer{b: b}, nil
}

func (b Buffer) Len() int { return len(b.b) }

// At returns the byte at index i. It panics if i is out of range, like a slice.
func (b Buffer) At(i int) byte { return b.b[i] }

// Bytes returns a copy of the buffer contents.
func (b Buffer) Bytes() []byte { return clone(b.b) }

// Text decodes the contents as UTF-8.
func (b Buffer) Text() string { return DecodeUTF8(b.b) }

// Base64 encodes the contents as standard base64.
func (b Buffer) Base64() string { return EncodeBase64(b.b) }

func (b Buffer) String() string { return fmt.Sprintf("Buffer(len=%d)", len(b.b)) }

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
