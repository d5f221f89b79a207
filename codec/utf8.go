package codec

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

const maxCodePoint = 0x10FFFF

// EncodeUTF8 encodes s one code point at a time. Invalid bytes already present
// in s read as U+FFFD, which is how Go ranges over a string.
func EncodeUTF8(s string) []byte {
	return EncodeUTF16(utf16.Encode([]rune(s)))
}

// EncodeUTF16 encodes UTF-16 code units as UTF-8. A high surrogate followed
// by a low surrogate is combined into one code point and consumes both units.
// Unpaired surrogates are not rejected: they are written from their raw unit
// value as a three byte sequence, so every input has an encoding.
func EncodeUTF16(units []uint16) []byte {
	out := make([]byte, 0, len(units)*3)
	for i := 0; i < len(units); i++ {
		cp := rune(units[i])
		if cp >= 0xD800 && cp <= 0xDBFF && i+1 < len(units) {
			if lo := rune(units[i+1]); lo >= 0xDC00 && lo <= 0xDFFF {
				cp = utf16.DecodeRune(cp, lo)
				i++
			}
		}
		out = appendCodePoint(out, cp)
	}
	return out
}

func appendCodePoint(out []byte, cp rune) []byte {
	switch {
	case cp <= 0x7F:
		return append(out, byte(cp))
	case cp <= 0x7FF:
		return append(out,
			0xC0|byte(cp>>6),
			0x80|byte(cp&0x3F))
	case cp <= 0xFFFF:
		return append(out,
			0xE0|byte(cp>>12),
			0x80|byte((cp>>6)&0x3F),
			0x80|byte(cp&0x3F))
	default:
		return append(out,
			0xF0|byte(cp>>18),
			0x80|byte((cp>>12)&0x3F),
			0x80|byte((cp>>6)&0x3F),
			0x80|byte(cp&0x3F))
	}
}

// DecodeUTF8 decodes b into a string. It performs no validation; see
// decodeCodePoints. Code points that a Go string cannot hold (surrogates,
// values above U+10FFFF) are written as U+FFFD.
func DecodeUTF8(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	decodeCodePoints(b, func(cp rune) {
		if !utf8.ValidRune(cp) {
			cp = utf8.RuneError
		}
		sb.WriteRune(cp)
	})
	return sb.String()
}

// DecodeUTF16 decodes b into UTF-16 code units. Unlike DecodeUTF8 it keeps
// surrogate code points, so DecodeUTF16(EncodeUTF16(u)) == u for any u.
func DecodeUTF16(b []byte) []uint16 {
	out := make([]uint16, 0, len(b))
	decodeCodePoints(b, func(cp rune) {
		switch {
		case cp > maxCodePoint:
			out = append(out, uint16(utf8.RuneError))
		case cp > 0xFFFF:
			hi, lo := utf16.EncodeRune(cp)
			out = append(out, uint16(hi), uint16(lo))
		default:
			out = append(out, uint16(cp))
		}
	})
	return out
}

// decodeCodePoints walks b left to right. The lead byte alone selects the
// sequence length; continuation bytes contribute their low 6 bits whatever
// their prefix, and bytes missing past the end read as zero. Malformed input
// yields wrong code points, never a panic.
func decodeCodePoints(b []byte, emit func(rune)) {
	at := func(i int) rune {
		if i < len(b) {
			return rune(b[i])
		}
		return 0
	}
	for i := 0; i < len(b); {
		c := rune(b[i])
		switch {
		case c < 0x80:
			emit(c)
			i++
		case c < 0xE0:
			emit((c&0x1F)<<6 | at(i+1)&0x3F)
			i += 2
		case c < 0xF0:
			emit((c&0x0F)<<12 | (at(i+1)&0x3F)<<6 | at(i+2)&0x3F)
			i += 3
		default:
			emit((c&0x07)<<18 | (at(i+1)&0x3F)<<12 | (at(i+2)&0x3F)<<6 | at(i+3)&0x3F)
			i += 4
		}
	}
}
