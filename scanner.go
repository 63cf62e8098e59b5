// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package fbcas

import (
	"io"

	"github.com/frostbite2/fbcas/internal/scan"
)

// ScanRecord is one record surfaced by CASScanner.
type ScanRecord struct {
	SHA1   [20]byte
	Offset int64
	Size   int64
}

// CASScanner sequentially dumps a shard's records without consulting
// any catalog: "fa ce 0f f0 | sha1(20) | size(i32 LE) | pad(4)",
// followed by size payload bytes. End of shard is the first
// zero-length read at a record boundary.
type CASScanner struct {
	s *scan.Scanner
}

// NewCASScanner wraps r (of the given total size) for scanning from
// the start.
func NewCASScanner(r io.ReaderAt, size int64) *CASScanner {
	return &CASScanner{s: scan.New(r, size)}
}

// Next returns the next record and its payload, or io.EOF when the
// shard is exhausted.
func (c *CASScanner) Next() (ScanRecord, []byte, error) {
	rec, payload, err := c.s.Next()
	if err != nil {
		return ScanRecord{}, nil, err
	}
	return ScanRecord{SHA1: rec.SHA1, Offset: rec.Offset, Size: rec.Size}, payload, nil
}
