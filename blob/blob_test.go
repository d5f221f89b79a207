package blob

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/MrF0o/jhp/codec"
)

func TestFromSourceSameBytesAnyPath(t *testing.T) {
	raw := []byte("café")

	viaBytes, err := FromSource(raw, EncodingBytes)
	if err != nil {
		t.Fatal(err)
	}
	viaText, err := FromSource("café", EncodingUTF8)
	if err != nil {
		t.Fatal(err)
	}
	viaB64, err := FromSource("Y2Fmw6k=", EncodingBase64)
	if err != nil {
		t.Fatal(err)
	}
	viaBuf, err := FromSource(codec.FromText("café"), EncodingBytes)
	if err != nil {
		t.Fatal(err)
	}

	for name, d := range map[string]*Descriptor{"text": viaText, "base64": viaB64, "buffer": viaBuf} {
		if *d != *viaBytes {
			t.Fatalf("%s descriptor %+v != bytes descriptor %+v", name, *d, *viaBytes)
		}
		got, err := ToBytes(d)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, raw) {
			t.Fatalf("%s: ToBytes = %x want %x", name, got, raw)
		}
	}
	if viaBytes.Length != 5 {
		t.Fatalf("Length = %d want 5", viaBytes.Length)
	}
}

func TestFromSourceBase64PassesThrough(t *testing.T) {
	// unpadded input is kept verbatim; only length is computed
	d, err := FromSource("Zm8", EncodingBase64)
	if err != nil {
		t.Fatal(err)
	}
	if d.Data != "Zm8" || d.Length != 2 {
		t.Fatalf("got %+v", *d)
	}
	if _, err := FromSource("A", EncodingBase64); !errors.Is(err, codec.ErrInvalidBase64) {
		t.Fatalf("want ErrInvalidBase64, got %v", err)
	}
}

func TestFromSourceAbsentValue(t *testing.T) {
	var nilBytes []byte
	var nilBuf *codec.Buffer
	for _, v := range []any{nil, nilBytes, nilBuf} {
		for _, enc := range []Encoding{EncodingBytes, EncodingBase64, EncodingUTF8} {
			d, err := FromSource(v, enc)
			if err != nil || d != nil {
				t.Fatalf("FromSource(%#v, %s) = %v, %v; want nil, nil", v, enc, d, err)
			}
		}
	}
}

func TestFromSourceErrors(t *testing.T) {
	cases := []struct {
		v    any
		enc  Encoding
		want error
	}{
		{"text", EncodingBytes, ErrWrongType},
		{[]byte("x"), EncodingUTF8, ErrWrongType},
		{42, EncodingBase64, ErrWrongType},
		{"x", Encoding("hex"), ErrUnsupportedEncoding},
		{"x", Encoding(""), ErrUnsupportedEncoding},
	}
	for _, tc := range cases {
		if _, err := FromSource(tc.v, tc.enc); !errors.Is(err, tc.want) {
			t.Fatalf("FromSource(%#v, %q): want %v, got %v", tc.v, tc.enc, tc.want, err)
		}
	}
}

func TestEmptyBlob(t *testing.T) {
	d, err := FromSource([]byte{}, EncodingBytes)
	if err != nil {
		t.Fatal(err)
	}
	if d == nil || d.Data != "" || d.Length != 0 {
		t.Fatalf("got %+v", d)
	}
	b, err := ToBytes(d)
	if err != nil || len(b) != 0 {
		t.Fatalf("ToBytes = %x, %v", b, err)
	}
}

func TestToBytesShapes(t *testing.T) {
	wire := map[string]any{"data": "AP8=", "length": int64(2)}
	got, err := ToBytes(wire)
	if err != nil || !bytes.Equal(got, []byte{0x00, 0xFF}) {
		t.Fatalf("map form: %x, %v", got, err)
	}
	got, err = ToBytes(Descriptor{Data: "AP8=", Length: 2})
	if err != nil || !bytes.Equal(got, []byte{0x00, 0xFF}) {
		t.Fatalf("value form: %x, %v", got, err)
	}

	var nilDesc *Descriptor
	bad := []any{nil, nilDesc, "AP8=", 12, map[string]any{"data": 1}, map[string]any{"blob": "AP8="}}
	for _, v := range bad {
		if _, err := ToBytes(v); !errors.Is(err, ErrShape) {
			t.Fatalf("ToBytes(%#v): want ErrShape, got %v", v, err)
		}
	}
}

func TestToText(t *testing.T) {
	d, err := FromSource("日本", EncodingUTF8)
	if err != nil {
		t.Fatal(err)
	}
	for _, enc := range []string{"", "utf8"} {
		s, err := ToText(d, enc)
		if err != nil || s != "日本" {
			t.Fatalf("ToText(%q) = %q, %v", enc, s, err)
		}
	}
	if _, err := ToText(d, "latin1"); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Fatalf("want ErrUnsupportedEncoding, got %v", err)
	}
	if _, err := ToText("nope", "utf8"); !errors.Is(err, ErrShape) {
		t.Fatalf("want ErrShape, got %v", err)
	}
}

func TestDescriptorWireForm(t *testing.T) {
	d, _ := FromSource([]byte{1, 2, 3}, EncodingBytes)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"data":"AQID","length":3}` {
		t.Fatalf("json = %s", b)
	}
	m := d.Map()
	if !IsDescriptor(m) || m["length"] != int64(3) {
		t.Fatalf("Map = %#v", m)
	}
	if err := d.Validate(); err != nil {
		t.Fatal(err)
	}
	if err := (Descriptor{Data: "AQID", Length: 4}).Validate(); !errors.Is(err, ErrLength) {
		t.Fatalf("want ErrLength, got %v", err)
	}
	buf, err := ToBuffer(m)
	if err != nil || buf.Len() != 3 {
		t.Fatalf("ToBuffer = %v, %v", buf, err)
	}
}
