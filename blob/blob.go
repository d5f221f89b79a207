// Package blob builds and reads the descriptor form that carries binary data
// across the native boundary:
//
//	{"data": "<standard base64>", "length": <decoded byte count>}
//
// A descriptor is the only binary representation the native layer accepts
// or returns. Length lets consumers report a size without decoding.
package blob

import (
	"errors"
	"fmt"

	"github.com/MrF0o/jhp/codec"
)

// Encoding names the form a source value is in when it is turned into a descriptor.
type Encoding string

const (
	EncodingBytes  Encoding = "bytes"
	EncodingBase64 Encoding = "base64"
	EncodingUTF8   Encoding = "utf8"
)

var (
	ErrUnsupportedEncoding = errors.New("blob: unsupported encoding")
	ErrWrongType           = errors.New("blob: value has wrong type for encoding")
	ErrShape               = errors.New("blob: not a blob descriptor")
	ErrLength              = errors.New("blob: length does not match data")
)

// text codecs selectable by name in ToText
var textCodecs = map[string]codec.Codec[string]{
	string(EncodingUTF8): codec.Text{},
}

// Descriptor is the wire form of a blob. Treat it as immutable.
type Descriptor struct {
	Data   string `json:"data" msgpack:"data" cbor:"data"`
	Length int    `json:"length" msgpack:"length" cbor:"length"`
}

// Map returns the descriptor as the generic object that crosses the boundary.
func (d Descriptor) Map() map[string]any {
	return map[string]any{"data": d.Data, "length": int64(d.Length)}
}

// Validate decodes Data and checks Length against the decoded size.
func (d Descriptor) Validate() error {
	b, err := codec.DecodeBase64(d.Data)
	if err != nil {
		return err
	}
	if len(b) != d.Length {
		return fmt.Errorf("%w: length %d, data holds %d bytes", ErrLength, d.Length, len(b))
	}
	return nil
}

// FromSource wraps value into a descriptor according to enc.
//
//   - EncodingBytes: value is []byte, codec.Buffer or *codec.Buffer.
//   - EncodingBase64: value is base64 text; it is kept as-is and decoded once
//     to count bytes, which also rejects malformed text.
//   - EncodingUTF8: value is text, encoded as UTF-8 first.
//
// An absent value (nil, a nil []byte or a nil *codec.Buffer) yields a nil
// descriptor and no error.
func FromSource(value any, enc Encoding) (*Descriptor, error) {
	if isAbsent(value) {
		return nil, nil
	}
	switch enc {
	case EncodingBytes:
		var b []byte
		switch v := value.(type) {
		case []byte:
			b = v
		case codec.Buffer:
			b = v.Bytes()
		case *codec.Buffer:
			b = v.Bytes()
		default:
			return nil, wrongType(value, enc)
		}
		return &Descriptor{Data: codec.EncodeBase64(b), Length: len(b)}, nil

	case EncodingBase64:
		s, ok := value.(string)
		if !ok {
			return nil, wrongType(value, enc)
		}
		b, err := codec.DecodeBase64(s)
		if err != nil {
			return nil, err
		}
		return &Descriptor{Data: s, Length: len(b)}, nil

	case EncodingUTF8:
		s, ok := value.(string)
		if !ok {
			return nil, wrongType(value, enc)
		}
		b := codec.EncodeUTF8(s)
		return &Descriptor{Data: codec.EncodeBase64(b), Length: len(b)}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, enc)
	}
}

// ToBytes decodes a descriptor. v may be a Descriptor, a *Descriptor or a
// decoded wire object with a string "data" field.
func ToBytes(v any) ([]byte, error) {
	data, ok := descriptorData(v)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrShape, v)
	}
	return codec.DecodeBase64(data)
}

// ToText decodes a descriptor and then its bytes as text. textEncoding may be
// empty, which means utf8.
func ToText(v any, textEncoding string) (string, error) {
	if textEncoding == "" {
		textEncoding = string(EncodingUTF8)
	}
	tc, ok := textCodecs[textEncoding]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedEncoding, textEncoding)
	}
	b, err := ToBytes(v)
	if err != nil {
		return "", err
	}
	return tc.Decode(b)
}

// ToBuffer decodes a descriptor into an owned buffer.
func ToBuffer(v any) (codec.Buffer, error) {
	data, ok := descriptorData(v)
	if !ok {
		return codec.Buffer{}, fmt.Errorf("%w: got %T", ErrShape, v)
	}
	return codec.FromBase64(data)
}

// IsDescriptor reports whether m has the shape of a wire descriptor.
func IsDescriptor(m map[string]any) bool {
	_, ok := m["data"].(string)
	return ok
}

func descriptorData(v any) (string, bool) {
	switch d := v.(type) {
	case Descriptor:
		return d.Data, true
	case *Descriptor:
		if d == nil {
			return "", false
		}
		return d.Data, true
	case map[string]any:
		s, ok := d["data"].(string)
		return s, ok
	default:
		return "", false
	}
}

func isAbsent(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case []byte:
		return x == nil
	case *codec.Buffer:
		return x == nil
	}
	return false
}

func wrongType(v any, enc Encoding) error {
	return fmt.Errorf("%w: %T for %s", ErrWrongType, v, enc)
}
