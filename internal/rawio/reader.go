// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package rawio implements a bounded, position-tracked view over an
// io.ReaderAt, the innermost layer of the archive reader stack.
package rawio

import (
	"errors"
	"fmt"
	"io"
)

// Whence selects how [Reader.Seek] interprets its delta argument.
type Whence int

const (
	Start Whence = iota
	Current
	End
)

// ErrTruncated is returned when ReadN or Sub asks for more bytes than
// the view holds, or when the underlying file yields fewer bytes than
// asked for inside the view's limit. Read itself clamps a request to
// what remains in the view and reports io.EOF once the limit is
// reached; only a short underlying read makes Read return ErrTruncated.
var ErrTruncated = errors.New("rawio: truncated read")

// Reader is a bounded view of an io.ReaderAt: {underlying, base, limit, pos}.
// Multiple Readers may share one underlying file; each tracks its own
// position and never mutates shared state.
type Reader struct {
	underlying io.ReaderAt
	base       int64 // absolute offset of this view's position 0
	limit      int64 // length of the view
	pos        int64 // current position, 0 <= pos <= limit
}

// New wraps underlying as a bounded view starting at base and extending
// for length bytes. length is used as the view's limit as given; it is
// not resolved against the underlying file, so a negative length yields
// a view that is empty and reports Eof from the start.
func New(underlying io.ReaderAt, base, length int64) *Reader {
	return &Reader{underlying: underlying, base: base, limit: length}
}

// Sub constructs a new bounded view over the same underlying file,
// relative to this reader's own view: offset and length are interpreted
// within [0, r.limit]. It does not consume or move r's position.
func (r *Reader) Sub(offset, length int64) (*Reader, error) {
	if offset < 0 || length < 0 || offset+length > r.limit {
		return nil, fmt.Errorf("rawio: sub-region [%d,%d) out of bounds for view of length %d: %w", offset, offset+length, r.limit, ErrTruncated)
	}
	return New(r.underlying, r.base+offset, length), nil
}

// Len reports the bound of the view (its total length).
func (r *Reader) Len() int64 { return r.limit }

// Tell reports the current position relative to the view's start.
func (r *Reader) Tell() int64 { return r.pos }

// Eof reports whether the position has reached the view's limit.
func (r *Reader) Eof() bool { return r.pos >= r.limit }

// Seek adjusts the position by delta relative to whence, clamping the
// result to [0, limit].
func (r *Reader) Seek(delta int64, whence Whence) (int64, error) {
	var base int64
	switch whence {
	case Start:
		base = 0
	case Current:
		base = r.pos
	case End:
		base = r.limit
	default:
		return 0, fmt.Errorf("rawio: invalid whence %d", whence)
	}

	pos := base + delta
	if pos < 0 {
		pos = 0
	}
	if pos > r.limit {
		pos = r.limit
	}
	r.pos = pos
	return pos, nil
}

// Read reads exactly len(p) bytes, or as many as remain in the view if
// that is fewer, mirroring io.Reader, except that a read that requests
// bytes beyond what the underlying file can supply, while still inside
// the view's limit, is a truncation error rather than a partial read.
func (r *Reader) Read(p []byte) (int, error) {
	avail := r.limit - r.pos
	if avail <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > avail {
		p = p[:avail]
	}

	n, err := r.underlying.ReadAt(p, r.base+r.pos)
	r.pos += int64(n)
	if n < len(p) {
		if err == nil || errors.Is(err, io.EOF) {
			err = fmt.Errorf("rawio: short read (%d of %d bytes at %d): %w", n, len(p), r.base+r.pos-int64(n), ErrTruncated)
		}
		return n, err
	}
	return n, nil
}

// ReadN reads exactly n bytes and returns them as a new slice. If n is
// negative, it reads all remaining bytes in the view.
func (r *Reader) ReadN(n int64) ([]byte, error) {
	if n < 0 {
		n = r.limit - r.pos
	}
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	avail := r.limit - r.pos
	if _, err := io.ReadFull(structReader{r}, buf); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("rawio: requested %d bytes, view only has %d: %w", n, avail, ErrTruncated)
		}
		return nil, err
	}
	return buf, nil
}

// structReader forwards to Reader.Read unchanged. io.ReadFull turns
// Read's io.EOF at the view's limit into io.ErrUnexpectedEOF, while a
// short underlying read reaches the caller as Read's ErrTruncated.
type structReader struct{ r *Reader }

func (s structReader) Read(p []byte) (int, error) { return s.r.Read(p) }
