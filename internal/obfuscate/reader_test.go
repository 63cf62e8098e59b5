// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package obfuscate

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// buildDICE assembles a DICE-obfuscated file: the fixed header, a
// 256-byte hash region (content irrelevant, never validated), the
// 257-byte keystream, and plaintext masked into place at dataOffset.
func buildDICE(keystream [magicSize]byte, plaintext []byte) []byte {
	buf := make([]byte, dataOffset+len(plaintext))
	copy(buf, diceMagic)
	buf[markerOffset] = 'x'
	buf[markerOffset+1+hashSize] = 'x'
	copy(buf[magicOffset:], keystream[:])

	for i, b := range plaintext {
		buf[dataOffset+i] = b ^ keystream[i%magicSize] ^ xorConst
	}
	return buf
}

func sequentialKeystream() [magicSize]byte {
	var ks [magicSize]byte
	for i := range ks {
		ks[i] = byte(i * 7)
	}
	return ks
}

func TestObfuscatedRoundTrip(t *testing.T) {
	plaintext := []byte("the quick brown fox jumps over the lazy dog, frostbite style")
	ks := sequentialKeystream()
	file := buildDICE(ks, plaintext)

	r, err := Open(bytes.NewReader(file), int64(len(file)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if r.Len() != int64(len(plaintext)) {
		t.Fatalf("Len() = %d, want %d", r.Len(), len(plaintext))
	}

	got, err := io.ReadAll(structSource{r})
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round-trip mismatch:\n got  %q\n want %q", got, plaintext)
	}
}

// TestObfuscatedRoundTripSplitReads confirms stream_pos is tracked
// across separate Read calls rather than reset per call: reading the
// same payload in one shot or in several pieces must unmask to the
// same plaintext.
func TestObfuscatedRoundTripSplitReads(t *testing.T) {
	plaintext := bytes.Repeat([]byte("0123456789"), 30) // spans keystream wraparound (257 bytes)
	ks := sequentialKeystream()
	file := buildDICE(ks, plaintext)

	r, err := Open(bytes.NewReader(file), int64(len(file)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	var got []byte
	for _, chunk := range []int{1, 7, 100, 50, 1000} {
		b := make([]byte, chunk)
		n, err := r.Read(b)
		got = append(got, b[:n]...)
		if err != nil && err != io.EOF {
			t.Fatalf("Read: %v", err)
		}
		if err == io.EOF {
			break
		}
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("split-read mismatch:\n got  %q\n want %q", got, plaintext)
	}
}

func TestUnobfuscatedPassthrough(t *testing.T) {
	plaintext := []byte("no dice header here")
	r, err := Open(bytes.NewReader(plaintext), int64(len(plaintext)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if r.Hash() != nil {
		t.Fatal("expected nil Hash for unobfuscated file")
	}
	got, err := io.ReadAll(structSource{r})
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("got %q, want %q", got, plaintext)
	}
}

func TestMissingStartMarker(t *testing.T) {
	ks := sequentialKeystream()
	file := buildDICE(ks, []byte("payload"))
	file[markerOffset] = 'y' // corrupt the start marker

	if _, err := Open(bytes.NewReader(file), int64(len(file))); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestMissingEndMarker(t *testing.T) {
	ks := sequentialKeystream()
	file := buildDICE(ks, []byte("payload"))
	file[markerOffset+1+hashSize] = 'y' // corrupt the end marker

	if _, err := Open(bytes.NewReader(file), int64(len(file))); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

// TestTruncatedHeader confirms a file whose DICE magic is present but
// whose header (marker, hash, end marker, keystream, payload) is cut
// short fails rather than being treated as a valid empty payload.
func TestTruncatedHeader(t *testing.T) {
	file := []byte(diceMagic) // DICE magic present, everything after it missing

	if _, err := Open(bytes.NewReader(file), int64(len(file))); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

// TestShortNonMatchingPrefixIsPassthrough confirms a file too short to
// even hold the 4-byte DICE magic is never misclassified as truncated
// DICE: it falls back to the unobfuscated passthrough path.
func TestShortNonMatchingPrefixIsPassthrough(t *testing.T) {
	file := []byte{0x00, 0xd1}
	if _, err := Open(bytes.NewReader(file), int64(len(file))); err != nil {
		t.Fatalf("short non-matching prefix should fall back to passthrough, got %v", err)
	}
}

// structSource adapts Reader to io.Reader for io.ReadAll, matching the
// typeio.Source surface it's actually consumed through.
type structSource struct{ r *Reader }

func (s structSource) Read(p []byte) (int, error) { return s.r.Read(p) }
