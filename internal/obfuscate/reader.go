// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package obfuscate transparently strips the optional "DICE" header
// from a Frostbite 2 archive file and XOR-unmasks the payload using
// the embedded 257-byte keystream.
//
// It is a transform wrapper over an io.ReaderAt in the same spirit as
// internal/decompressioncache's stepper-backed ReaderAt: the caller sees
// only the plaintext payload, never the header or the masking.
package obfuscate

import (
	"errors"
	"fmt"
	"io"

	"github.com/frostbite2/fbcas/internal/rawio"
)

const (
	diceMagic    = "\x00\xd1\xce\x00"
	markerOffset = 0x08
	hashSize     = 256
	magicOffset  = 0x0128
	magicSize    = 257
	dataOffset   = 0x022c
	xorConst     = 0x7b
)

// ErrFormat reports a malformed obfuscation header: a missing start/end
// marker or a truncated hash/magic/payload region.
var ErrFormat = errors.New("obfuscate: malformed DICE header")

// Reader exposes the deobfuscated payload of a Frostbite 2 archive file
// with the same surface rawio.Reader does, so either can back a
// typeio.Reader.
type Reader struct {
	raw       *rawio.Reader // bounded view of the payload region
	keystream []byte        // 257-byte magic, nil if the file isn't obfuscated
	hash      []byte        // 256-byte "hash" region, retained but unvalidated
}

// Open detects whether f begins with the DICE header and, if so, strips
// it and captures the keystream; otherwise the whole file is the
// payload and no masking is applied. size is the total length of f.
func Open(f io.ReaderAt, size int64) (*Reader, error) {
	head := rawio.New(f, 0, size)

	magicBuf, err := head.ReadN(min64(4, size))
	if err != nil {
		return nil, fmt.Errorf("obfuscate: reading magic: %w", err)
	}
	if len(magicBuf) < 4 || string(magicBuf) != diceMagic {
		// Not obfuscated: the whole file is the payload.
		return &Reader{raw: rawio.New(f, 0, size)}, nil
	}

	if size < dataOffset {
		return nil, fmt.Errorf("%w: file too short for DICE header (%d bytes)", ErrFormat, size)
	}

	marker, err := head.Sub(markerOffset, 1)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if b, err := marker.ReadN(1); err != nil || b[0] != 'x' {
		return nil, fmt.Errorf("%w: missing hash start marker", ErrFormat)
	}

	hashRegion, err := head.Sub(markerOffset+1, hashSize)
	if err != nil {
		return nil, fmt.Errorf("%w: truncated hash: %v", ErrFormat, err)
	}
	hash, err := hashRegion.ReadN(hashSize)
	if err != nil {
		return nil, fmt.Errorf("%w: truncated hash: %v", ErrFormat, err)
	}

	endMarker, err := head.Sub(markerOffset+1+hashSize, 1)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if b, err := endMarker.ReadN(1); err != nil || b[0] != 'x' {
		return nil, fmt.Errorf("%w: missing hash end marker", ErrFormat)
	}

	magicRegion, err := head.Sub(magicOffset, magicSize)
	if err != nil {
		return nil, fmt.Errorf("%w: truncated magic: %v", ErrFormat, err)
	}
	magic, err := magicRegion.ReadN(magicSize)
	if err != nil {
		return nil, fmt.Errorf("%w: truncated magic: %v", ErrFormat, err)
	}

	payload, err := head.Sub(dataOffset, size-dataOffset)
	if err != nil {
		return nil, fmt.Errorf("%w: truncated payload: %v", ErrFormat, err)
	}

	return &Reader{raw: payload, keystream: magic, hash: hash}, nil
}

// Hash returns the retained-but-unvalidated 256-byte hash region, or nil
// if the file was not obfuscated.
func (r *Reader) Hash() []byte { return r.hash }

// Len reports the payload length.
func (r *Reader) Len() int64 { return r.raw.Len() }

// Tell reports the current position within the payload.
func (r *Reader) Tell() int64 { return r.raw.Tell() }

// Eof reports whether the reader has reached the end of the payload.
func (r *Reader) Eof() bool { return r.raw.Eof() }

// Seek repositions within the payload, same semantics as rawio.Reader.Seek.
func (r *Reader) Seek(delta int64, whence rawio.Whence) (int64, error) {
	return r.raw.Seek(delta, whence)
}

// Read reads and, if the file was obfuscated, XOR-unmasks len(p) bytes
// (or fewer at the end of the payload):
//
//	out[i] = raw[i] ^ magic[(stream_pos+i) mod 257] ^ 0x7B
func (r *Reader) Read(p []byte) (int, error) {
	pos := r.raw.Tell()
	n, err := r.raw.Read(p)
	if r.keystream != nil {
		unmask(p[:n], r.keystream, pos)
	}
	return n, err
}

func unmask(p, keystream []byte, streamPos int64) {
	for i := range p {
		p[i] ^= keystream[(streamPos+int64(i))%magicSize] ^ xorConst
	}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
