// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package objdecoder

import (
	"bytes"
	"errors"
	"testing"

	"github.com/frostbite2/fbcas/internal/rawio"
)

func newDecoder(t *testing.T, b []byte) *Decoder {
	t.Helper()
	return New(rawio.New(bytes.NewReader(b), 0, int64(len(b))))
}

// TestDecodeDictWithInt decodes a dict with one i32 field, x=42.
// Entry framing is (typecode, cstring key, value).
func TestDecodeDictWithInt(t *testing.T) {
	b := []byte{
		codeDict, 0x00, // dict, size hint 0 (discarded)
		codeI32, 'x', 0x00, 0x2a, 0x00, 0x00, 0x00, // entry: i32 x=42
		0x00, // terminator
	}
	v, err := newDecoder(t, b).Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if v.Kind != KindDict {
		t.Fatalf("kind = %v", v.Kind)
	}
	x, ok := v.Dict.Get("x")
	if !ok || x.Kind != KindI32 || x.I32 != 42 {
		t.Fatalf("x = %+v ok=%v", x, ok)
	}
}

// TestDecodeListIgnoresHintMismatch confirms the size hint is advisory
// only: a mismatched hint never truncates or pads the decoded list.
func TestDecodeListIgnoresHintMismatch(t *testing.T) {
	b := []byte{
		codeList, 0x05, // hint says 5, but there are only 3 elements
		codeI32, 0x01, 0x00, 0x00, 0x00,
		codeI32, 0x02, 0x00, 0x00, 0x00,
		codeI32, 0x03, 0x00, 0x00, 0x00,
		0x00,
	}
	v, err := newDecoder(t, b).Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if v.Kind != KindList || len(v.List) != 3 {
		t.Fatalf("v = %+v", v)
	}
	for i, want := range []int32{1, 2, 3} {
		if v.List[i].I32 != want {
			t.Fatalf("v.List[%d] = %d, want %d", i, v.List[i].I32, want)
		}
	}
}

// TestUnknownTypecode confirms an unrecognized typecode fails with
// ErrFormat citing the offending raw byte.
func TestUnknownTypecode(t *testing.T) {
	_, err := newDecoder(t, []byte{0x1c}).Decode()
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
	if !bytes.Contains([]byte(err.Error()), []byte("0x1c")) {
		t.Fatalf("expected error to cite raw 0x1c: %v", err)
	}
}

func TestLegacyDialectRejected(t *testing.T) {
	_, err := newDecoder(t, []byte{130}).Decode()
	if !errors.Is(err, ErrLegacyDialect) {
		t.Fatalf("expected ErrLegacyDialect, got %v", err)
	}
}

func TestTrailingData(t *testing.T) {
	b := []byte{codeI32, 0x01, 0x00, 0x00, 0x00, 0xff}
	_, err := newDecoder(t, b).Decode()
	if !errors.Is(err, ErrTrailingData) {
		t.Fatalf("expected ErrTrailingData, got %v", err)
	}
}

// TestDecodeEmptyPayload confirms a zero-length payload fails fast and
// is tagged rawio.ErrTruncated rather than a bare io.EOF.
func TestDecodeEmptyPayload(t *testing.T) {
	_, err := newDecoder(t, nil).Decode()
	if !errors.Is(err, rawio.ErrTruncated) {
		t.Fatalf("expected rawio.ErrTruncated, got %v", err)
	}
}

func TestEmptyListAndDict(t *testing.T) {
	v, err := newDecoder(t, []byte{codeList, 0x00, 0x00}).Decode()
	if err != nil || v.Kind != KindList || len(v.List) != 0 {
		t.Fatalf("v=%+v err=%v", v, err)
	}
	v, err = newDecoder(t, []byte{codeDict, 0x00, 0x00}).Decode()
	if err != nil || v.Kind != KindDict || v.Dict.Len() != 0 {
		t.Fatalf("v=%+v err=%v", v, err)
	}
}

func TestZeroLengthBlob(t *testing.T) {
	v, err := newDecoder(t, []byte{codeBlob, 0x00}).Decode()
	if err != nil || v.Kind != KindBlob || len(v.Blob) != 0 {
		t.Fatalf("v=%+v err=%v", v, err)
	}
}

// TestStreamWildcard confirms stream(r, "bundles.*.id") over
// {"bundles": [{"id":"a",...},{"id":"b",...}]} yields "a" then "b".
func TestStreamWildcard(t *testing.T) {
	entry := func(id string, extra bool) []byte {
		var buf bytes.Buffer
		buf.WriteByte(codeDict)
		buf.WriteByte(0x00)
		buf.WriteByte(codeStr)
		buf.Write([]byte("id\x00"))
		buf.WriteByte(byte(len(id) + 1))
		buf.WriteString(id)
		buf.WriteByte(0x00)
		if extra {
			buf.WriteByte(codeI32)
			buf.Write([]byte("n\x00"))
			buf.Write([]byte{0x07, 0x00, 0x00, 0x00})
		}
		buf.WriteByte(0x00)
		return buf.Bytes()
	}

	var body bytes.Buffer
	body.WriteByte(codeDict)
	body.WriteByte(0x00)
	body.WriteByte(codeList)
	body.Write([]byte("bundles\x00"))
	body.WriteByte(0x00) // list hint
	body.Write(entry("a", true))
	body.Write(entry("b", false))
	body.WriteByte(0x00) // list terminator
	body.WriteByte(0x00) // dict terminator

	sel, err := ParseSelector("bundles.*.id")
	if err != nil {
		t.Fatalf("ParseSelector: %v", err)
	}

	d := newDecoder(t, body.Bytes())
	var got []string
	for v, err := range d.Stream(sel) {
		if err != nil {
			t.Fatalf("stream error: %v", err)
		}
		got = append(got, string(v.Str))
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("got %v", got)
	}
}

func TestSelectorLengthExact(t *testing.T) {
	sel, err := ParseSelector("a.b")
	if err != nil {
		t.Fatal(err)
	}
	if sel([]PathSegment{keySeg("a")}) {
		t.Fatal("matched at depth-1, want no match")
	}
	if sel([]PathSegment{keySeg("a"), keySeg("b"), keySeg("c")}) {
		t.Fatal("matched at depth+1, want no match")
	}
	if !sel([]PathSegment{keySeg("a"), keySeg("b")}) {
		t.Fatal("expected match at exact depth")
	}
}
