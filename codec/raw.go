package codec

// Text is a Codec for Go string values backed by EncodeUTF8 and DecodeUTF8.
// Decode performs no validation: malformed bytes decode to replacement or
// wrong characters rather than an error.
type Text struct{}

var _ Codec[string] = Text{}

func (Text) Encode(s string) ([]byte, error) { return EncodeUTF8(s), nil }
func (Text) Decode(b []byte) (string, error) { return DecodeUTF8(b), nil }
