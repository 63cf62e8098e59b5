// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package rawio

import (
	"bytes"
	"errors"
	"testing"
)

func TestReadExactAndBounds(t *testing.T) {
	data := []byte("0123456789")
	r := New(bytes.NewReader(data), 2, 5) // view of "23456"[:5] -> "23456"? base=2 len=5 -> "23456"

	got, err := r.ReadN(3)
	if err != nil {
		t.Fatalf("ReadN: %v", err)
	}
	if string(got) != "234" {
		t.Fatalf("got %q", got)
	}
	if r.Tell() != 3 {
		t.Fatalf("tell = %d", r.Tell())
	}

	if _, err := r.ReadN(3); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected truncation past limit, got %v", err)
	}
}

func TestSeekClamps(t *testing.T) {
	r := New(bytes.NewReader([]byte("0123456789")), 0, 10)
	if pos, _ := r.Seek(-5, Start); pos != 0 {
		t.Fatalf("start clamp: %d", pos)
	}
	if pos, _ := r.Seek(100, Start); pos != 10 {
		t.Fatalf("end clamp: %d", pos)
	}
	if !r.Eof() {
		t.Fatal("expected eof")
	}
	if pos, _ := r.Seek(-3, Current); pos != 7 {
		t.Fatalf("current: %d", pos)
	}
	if pos, _ := r.Seek(0, End); pos != 10 {
		t.Fatalf("end: %d", pos)
	}
}

func TestSub(t *testing.T) {
	r := New(bytes.NewReader([]byte("0123456789")), 0, 10)
	sub, err := r.Sub(3, 4)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	got, err := sub.ReadN(-1)
	if err != nil {
		t.Fatalf("ReadN: %v", err)
	}
	if string(got) != "3456" {
		t.Fatalf("got %q", got)
	}

	if _, err := r.Sub(8, 5); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected truncation, got %v", err)
	}
}

// shortReaderAt always returns fewer bytes than requested without error,
// simulating a corrupt/truncated underlying file.
type shortReaderAt struct{ data []byte }

func (s shortReaderAt) ReadAt(p []byte, off int64) (int, error) {
	n := copy(p, s.data[off:])
	if n < len(p) {
		n /= 2 // deliberately short, no io.EOF
	}
	return n, nil
}

func TestShortUnderlyingReadIsTruncation(t *testing.T) {
	r := New(shortReaderAt{[]byte("01234567")}, 0, 10) // view claims 10 bytes, file only has 8
	if _, err := r.ReadN(10); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected truncation, got %v", err)
	}
}
