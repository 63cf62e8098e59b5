// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package typeio

import (
	"bytes"
	"errors"
	"testing"

	"github.com/frostbite2/fbcas/internal/rawio"
)

func src(b []byte) *rawio.Reader { return rawio.New(bytes.NewReader(b), 0, int64(len(b))) }

func TestFixedInts(t *testing.T) {
	r := New(src([]byte{0x2a, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0xff}))
	v, err := r.ReadI32()
	if err != nil || v != 42 {
		t.Fatalf("v=%d err=%v", v, err)
	}
	v2, err := r.ReadI32()
	if err != nil || v2 != -1 {
		t.Fatalf("v2=%d err=%v", v2, err)
	}
}

func TestVarintRoundTrip(t *testing.T) {
	// 300 = 0b1_0010_1100 -> LEB128: 0xAC 0x02
	r := New(src([]byte{0xAC, 0x02}))
	v, err := r.ReadVarint()
	if err != nil || v != 300 {
		t.Fatalf("v=%d err=%v", v, err)
	}
}

func TestVarintNonMinimalAccepted(t *testing.T) {
	// 0 encoded with a redundant continuation byte: 0x80 0x00
	r := New(src([]byte{0x80, 0x00}))
	v, err := r.ReadVarint()
	if err != nil || v != 0 {
		t.Fatalf("v=%d err=%v", v, err)
	}
}

func TestVarintTooLong(t *testing.T) {
	buf := bytes.Repeat([]byte{0x80}, 11)
	r := New(src(buf))
	if _, err := r.ReadVarint(); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestCString(t *testing.T) {
	r := New(src([]byte("hello\x00world")))
	v, err := r.ReadCString()
	if err != nil || string(v) != "hello" {
		t.Fatalf("v=%q err=%v", v, err)
	}
}

func TestBString(t *testing.T) {
	// varint 6, "hello\x00"
	r := New(src([]byte{6, 'h', 'e', 'l', 'l', 'o', 0}))
	v, err := r.ReadBString()
	if err != nil || string(v) != "hello" {
		t.Fatalf("v=%q err=%v", v, err)
	}
}

func TestBStringMissingNUL(t *testing.T) {
	r := New(src([]byte{5, 'h', 'e', 'l', 'l', 'o'}))
	if _, err := r.ReadBString(); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}
