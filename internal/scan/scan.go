// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package scan implements the sequential CAS shard scanner shared by
// the public CASScanner and the casindex builder: reading
// "fa ce 0f f0 | sha1(20) | size(i32 LE) | pad(4) | data(size)" records
// from a shard with no catalog involved, in the spirit of
// internal/apm's read-fixed-records-to-EOF loop.
package scan

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

var magic = [4]byte{0xfa, 0xce, 0x0f, 0xf0}

const headerSize = 4 + 20 + 4 + 4

// ErrFormat reports a shard whose next record does not begin with the
// expected magic, or whose header/payload was truncated mid-record.
var ErrFormat = errors.New("scan: malformed CAS record")

// Record describes one scanned CAS record. Offset and Size describe
// the payload region, not the header.
type Record struct {
	SHA1   [20]byte
	Offset int64
	Size   int64
}

// Scanner walks a shard's records in order.
type Scanner struct {
	r    io.ReaderAt
	pos  int64
	size int64
}

// New wraps r (of the given total size) for sequential scanning from
// the start.
func New(r io.ReaderAt, size int64) *Scanner {
	return &Scanner{r: r, size: size}
}

// OpenSized opens path and stats it, a convenience for callers that
// want to hand New a freshly opened file.
func OpenSized(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, st.Size(), nil
}

// Next returns the next record and its payload bytes. It reports
// io.EOF once the position reaches a clean record boundary at the end
// of the shard (a zero-length read at a record boundary); any other
// truncation is ErrFormat.
func (s *Scanner) Next() (Record, []byte, error) {
	if s.pos >= s.size {
		return Record{}, nil, io.EOF
	}

	var hdr [headerSize]byte
	n, err := s.r.ReadAt(hdr[:], s.pos)
	if n == 0 && errors.Is(err, io.EOF) {
		return Record{}, nil, io.EOF
	}
	if n < len(hdr) {
		return Record{}, nil, fmt.Errorf("%w: truncated record header at offset %d", ErrFormat, s.pos)
	}
	if [4]byte(hdr[:4]) != magic {
		return Record{}, nil, fmt.Errorf("%w: bad record magic at offset %d", ErrFormat, s.pos)
	}

	var rec Record
	copy(rec.SHA1[:], hdr[4:24])
	rec.Size = int64(binary.LittleEndian.Uint32(hdr[24:28]))
	rec.Offset = s.pos + int64(len(hdr))

	payload := make([]byte, rec.Size)
	if rec.Size > 0 {
		pn, perr := s.r.ReadAt(payload, rec.Offset)
		if int64(pn) < rec.Size {
			return Record{}, nil, fmt.Errorf("%w: truncated payload at offset %d: %v", ErrFormat, rec.Offset, perr)
		}
	}

	s.pos = rec.Offset + rec.Size
	return rec, payload, nil
}
