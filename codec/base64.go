package codec

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// ErrInvalidBase64 reports text that cannot be standard base64.
var ErrInvalidBase64 = errors.New("codec: invalid base64")

var decodeMap = func() (m [256]int8) {
	for i := range m {
		m[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		m[alphabet[i]] = int8(i)
	}
	m['='] = 0
	return m
}()

// EncodeBase64 encodes b with the standard alphabet and '=' padding.
func EncodeBase64(b []byte) string {
	var sb strings.Builder
	sb.Grow((len(b) + 2) / 3 * 4)

	i := 0
	for ; i+3 <= len(b); i += 3 {
		n := uint32(b[i])<<16 | uint32(b[i+1])<<8 | uint32(b[i+2])
		sb.WriteByte(alphabet[n>>18&0x3F])
		sb.WriteByte(alphabet[n>>12&0x3F])
		sb.WriteByte(alphabet[n>>6&0x3F])
		sb.WriteByte(alphabet[n&0x3F])
	}

	switch len(b) - i {
	case 1:
		n := uint32(b[i]) << 16
		sb.WriteByte(alphabet[n>>18&0x3F])
		sb.WriteByte(alphabet[n>>12&0x3F])
		sb.WriteString("==")
	case 2:
		n := uint32(b[i])<<16 | uint32(b[i+1])<<8
		sb.WriteByte(alphabet[n>>18&0x3F])
		sb.WriteByte(alphabet[n>>12&0x3F])
		sb.WriteByte(alphabet[n>>6&0x3F])
		sb.WriteByte('=')
	}
	return sb.String()
}

// DecodeBase64 decodes standard base64 text. Whitespace anywhere is ignored
// and trailing padding is optional. '=' counts as a zero digit wherever it
// appears; only the trailing ones (at most two) shorten the output.
func DecodeBase64(s string) ([]byte, error) {
	clean := stripSpace(s)
	if len(clean)%4 == 1 {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidBase64, len(clean))
	}

	pad := 0
	for pad < 2 && pad < len(clean) && clean[len(clean)-1-pad] == '=' {
		pad++
	}
	outLen := len(clean)*3/4 - pad
	if outLen < 0 {
		outLen = 0
	}

	out := make([]byte, outLen)
	o := 0
	for i := 0; i < len(clean); i += 4 {
		var n uint32
		for j := 0; j < 4; j++ {
			var d int8
			if i+j < len(clean) {
				d = decodeMap[clean[i+j]]
				if d < 0 {
					return nil, fmt.Errorf("%w: illegal character %q at offset %d", ErrInvalidBase64, clean[i+j], i+j)
				}
			}
			n = n<<6 | uint32(d)
		}
		for _, c := range [3]byte{byte(n >> 16), byte(n >> 8), byte(n)} {
			if o == outLen {
				break
			}
			out[o] = c
			o++
		}
	}
	return out, nil
}

func stripSpace(s string) string {
	if strings.IndexFunc(s, unicode.IsSpace) < 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
