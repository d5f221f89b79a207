package codec

import (
	"bytes"
	"testing"
	"unicode/utf16"
)

func TestUTF8RoundTrip(t *testing.T) {
	cases := []string{
		"",
		"a",
		"hello, world",
		"café",
		"日本語",
		"emoji 😀 and 𝄞",
		"\u007f\u0080߿ࠀ￿\U00010000\U0010ffff",
	}
	for _, s := range cases {
		enc := EncodeUTF8(s)
		if !bytes.Equal(enc, []byte(s)) {
			t.Fatalf("EncodeUTF8(%q) = %x, want %x", s, enc, []byte(s))
		}
		if got := DecodeUTF8(enc); got != s {
			t.Fatalf("DecodeUTF8(EncodeUTF8(%q)) = %q", s, got)
		}
	}
}

func TestUTF8ByteBoundaries(t *testing.T) {
	cases := []struct {
		cp   rune
		want []byte
	}{
		{0x00, []byte{0x00}},
		{0x7F, []byte{0x7F}},
		{0x80, []byte{0xC2, 0x80}},
		{0x7FF, []byte{0xDF, 0xBF}},
		{0x800, []byte{0xE0, 0xA0, 0x80}},
		{0xFFFF, []byte{0xEF, 0xBF, 0xBF}},
		{0x10000, []byte{0xF0, 0x90, 0x80, 0x80}},
		{0x10FFFF, []byte{0xF4, 0x8F, 0xBF, 0xBF}},
	}
	for _, tc := range cases {
		got := EncodeUTF16(utf16.Encode([]rune{tc.cp}))
		if !bytes.Equal(got, tc.want) {
			t.Fatalf("U+%04X: got %x want %x", tc.cp, got, tc.want)
		}
	}
}

func TestUTF16SurrogatePairConsumesTwoUnits(t *testing.T) {
	// U+1F600 is D83D DE00 in UTF-16.
	units := []uint16{'a', 0xD83D, 0xDE00, 'b'}
	got := EncodeUTF16(units)
	want := []byte{'a', 0xF0, 0x9F, 0x98, 0x80, 'b'}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %x want %x", got, want)
	}
	back := DecodeUTF16(got)
	if len(back) != len(units) {
		t.Fatalf("len mismatch: got %v want %v", back, units)
	}
	for i := range units {
		if back[i] != units[i] {
			t.Fatalf("unit %d: got %#x want %#x", i, back[i], units[i])
		}
	}
}

func TestUTF16UnpairedSurrogatesEncodeRaw(t *testing.T) {
	cases := [][]uint16{
		{0xD800},         // lone high
		{0xDC00},         // lone low
		{0xD800, 'x'},    // high followed by non-surrogate
		{0xDC00, 0xD800}, // reversed pair
	}
	for _, units := range cases {
		enc := EncodeUTF16(units)
		back := DecodeUTF16(enc)
		if len(back) != len(units) {
			t.Fatalf("%x: round trip len %d want %d", units, len(back), len(units))
		}
		for i := range units {
			if back[i] != units[i] {
				t.Fatalf("%x: unit %d got %#x", units, i, back[i])
			}
		}
	}
	if got, want := EncodeUTF16([]uint16{0xD800}), []byte{0xED, 0xA0, 0x80}; !bytes.Equal(got, want) {
		t.Fatalf("lone high surrogate: got %x want %x", got, want)
	}
}

func TestDecodeUTF8IsLenient(t *testing.T) {
	cases := [][]byte{
		{0xC3},                   // truncated 2-byte
		{0xE2, 0x82},             // truncated 3-byte
		{0xF0, 0x9F},             // truncated 4-byte
		{0x80, 0x80},             // stray continuation
		{0xC0, 0x80},             // overlong NUL
		{0xFF, 0xFF, 0xFF, 0xFF}, // beyond U+10FFFF
		{0xE2, 0x41, 0x41},       // bad continuation prefix
	}
	for _, b := range cases {
		_ = DecodeUTF8(b)
		_ = DecodeUTF16(b)
	}

	// truncated sequence: missing bytes read as zero
	if got := DecodeUTF16([]byte{0xC3}); len(got) != 1 || got[0] != 0xC0 {
		t.Fatalf("truncated 2-byte: got %#x", got)
	}
	// overlong encodings are accepted as-is
	if got := DecodeUTF8([]byte{0xC0, 0x80}); got != "\x00" {
		t.Fatalf("overlong NUL: got %q", got)
	}
	// continuation prefix is not checked
	if got := DecodeUTF16([]byte{0xC3, 0x29}); len(got) != 1 || got[0] != 0xE9 {
		t.Fatalf("bad continuation: got %#x", got)
	}
}

func TestTextCodec(t *testing.T) {
	var c Codec[string] = Text{}
	b, err := c.Encode("naïve")
	if err != nil {
		t.Fatal(err)
	}
	s, err := c.Decode(b)
	if err != nil || s != "naïve" {
		t.Fatalf("got %q err=%v", s, err)
	}
}
