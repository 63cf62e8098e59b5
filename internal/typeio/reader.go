// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package typeio implements the primitive codecs layered on top of any
// byte source (rawio.Reader or obfuscate.Reader): fixed little-endian
// integers, LEB128 varints, C strings, length-prefixed bstrings, and
// fixed-size byte blobs.
package typeio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/frostbite2/fbcas/internal/rawio"
)

// Source is the minimal surface typeio needs from an underlying byte
// stream. Both rawio.Reader and obfuscate.Reader satisfy it.
type Source interface {
	Read(p []byte) (int, error)
	Tell() int64
	Eof() bool
}

// ErrFormat reports malformed primitive encodings: an unterminated
// cstring, a bstring missing its trailing NUL, or a runaway varint.
var ErrFormat = errors.New("typeio: malformed encoding")

// Reader decodes primitive values from a Source.
type Reader struct {
	src Source
	buf [8]byte // scratch space for fixed-width reads
}

// New wraps src for primitive decoding.
func New(src Source) *Reader { return &Reader{src: src} }

// Tell reports the underlying source's current byte offset, used to
// annotate decode errors with their location.
func (r *Reader) Tell() int64 { return r.src.Tell() }

// Eof reports whether the underlying source is exhausted.
func (r *Reader) Eof() bool { return r.src.Eof() }

// wrapShortRead tags a short/EOF'd fixed-width read with
// rawio.ErrTruncated, so callers can match on the same truncation
// sentinel whether the shortfall happened inside rawio or here (a
// clean io.EOF at exactly the view's limit is just as much a
// truncation here, since a primitive read always expects its full
// fixed width).
func wrapShortRead(err error, what string, n int, offset int64) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("typeio: reading %s at offset %d: %w", what, offset, rawio.ErrTruncated)
	}
	return fmt.Errorf("typeio: reading %s at offset %d: %w", what, offset, err)
}

func (r *Reader) readFull(n int) ([]byte, error) {
	b := r.buf[:n]
	if _, err := io.ReadFull(r.src, b); err != nil {
		return nil, wrapShortRead(err, fmt.Sprintf("%d bytes", n), n, r.src.Tell())
	}
	return b, nil
}

// ReadFixed reads exactly n raw bytes and returns a fresh copy.
func (r *Reader) ReadFixed(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.src, buf); err != nil {
		return nil, wrapShortRead(err, fmt.Sprintf("%d-byte blob", n), n, r.src.Tell())
	}
	return buf, nil
}

// ReadU8 reads one unsigned byte.
func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.readFull(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadI8 reads one signed byte.
func (r *Reader) ReadI8() (int8, error) {
	v, err := r.ReadU8()
	return int8(v), err
}

// ReadU16 reads a little-endian unsigned 16-bit integer.
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.readFull(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadI16 reads a little-endian signed 16-bit integer.
func (r *Reader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

// ReadU32 reads a little-endian unsigned 32-bit integer.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.readFull(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadI32 reads a little-endian signed 32-bit integer.
func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// ReadU64 reads a little-endian unsigned 64-bit integer.
func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.readFull(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadI64 reads a little-endian signed 64-bit integer.
func (r *Reader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

// maxVarintBytes caps the LEB128 decode: no length is declared by the
// format, so the reader caps at 10 bytes (64 bits) and fails rather
// than loop forever on a corrupt stream.
const maxVarintBytes = 10

// ReadVarint reads an unsigned LEB128-style varint: little-endian,
// 7 bits per byte, MSB=1 means "more bytes follow". Any encoding of a
// value is accepted (including non-minimal ones); encodings longer
// than 10 bytes are rejected.
func (r *Reader) ReadVarint() (uint64, error) {
	var result uint64
	for i := 0; i < maxVarintBytes; i++ {
		b, err := r.ReadU8()
		if err != nil {
			return 0, fmt.Errorf("typeio: varint: %w", err)
		}
		result |= uint64(b&0x7f) << (7 * uint(i))
		if b&0x80 == 0 {
			return result, nil
		}
	}
	return 0, fmt.Errorf("%w: varint exceeds %d bytes at offset %d", ErrFormat, maxVarintBytes, r.src.Tell())
}

// ReadCString reads bytes up to and including a NUL terminator and
// returns the bytes before it.
func (r *Reader) ReadCString() ([]byte, error) {
	var out []byte
	for {
		b, err := r.ReadU8()
		if err != nil {
			return nil, fmt.Errorf("%w: unterminated cstring: %v", ErrFormat, err)
		}
		if b == 0 {
			return out, nil
		}
		out = append(out, b)
	}
}

// ReadBString reads a varint length n, then exactly n bytes, requiring
// the last byte to be a NUL terminator, and returns the first n-1 bytes.
func (r *Reader) ReadBString() ([]byte, error) {
	n, err := r.ReadVarint()
	if err != nil {
		return nil, fmt.Errorf("bstring length: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: bstring length 0 has no room for a NUL terminator", ErrFormat)
	}
	buf, err := r.ReadFixed(int(n))
	if err != nil {
		return nil, fmt.Errorf("bstring body: %w", err)
	}
	if buf[len(buf)-1] != 0 {
		return nil, fmt.Errorf("%w: bstring missing trailing NUL", ErrFormat)
	}
	return buf[:len(buf)-1], nil
}
