// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package fbcas

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/frostbite2/fbcas/internal/rawio"
)

// CASFile references a shard number and byte range inside a catalog's
// directory. Size is fixed at creation; Open produces a fresh,
// independently-seekable substream each call.
type CASFile struct {
	SHA1   [20]byte
	Offset int64
	Size   int64
	CASNum int32

	dir  string
	stem string
	opts *options
}

// Sha1Hex returns the hex-encoded SHA-1 this record is keyed by.
func (f *CASFile) Sha1Hex() string { return hex.EncodeToString(f.SHA1[:]) }

// shardPath returns "<dir>/<stem>_NN.cas" for num beside dir.
func shardPath(dir, stem string, num int32) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%02d.cas", stem, num))
}

// shardPath returns this record's own shard path.
func (f *CASFile) shardPath() string {
	return shardPath(f.dir, f.stem, f.CASNum)
}

// Open returns a bounded, independently-seekable reader over this
// record's byte range in its shard. The CAS payload is stored raw, so
// the returned reader is unobfuscated. Callers must Close the result.
func (f *CASFile) Open() (*File, error) {
	path := shardPath(f.dir, f.stem, f.CASNum)
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening shard %s: %v", ErrNotFound, path, err)
	}

	st, err := fh.Stat()
	if err != nil {
		fh.Close()
		return nil, fmt.Errorf("fbcas: stat shard %s: %w", path, err)
	}
	if f.Offset+f.Size > st.Size() {
		fh.Close()
		return nil, fmt.Errorf("%w: record [%d,%d) exceeds shard %s size %d", ErrFormat, f.Offset, f.Offset+f.Size, path, st.Size())
	}

	var ra io.ReaderAt = fh
	if f.opts != nil && f.opts.cache != nil {
		ra = f.opts.cache.Blocks.Wrap(path, fh)
	}

	return &File{Reader: rawio.New(ra, f.Offset, f.Size), closer: fh}, nil
}

// ReadAll returns this record's full content as a byte slice, served
// from the blob cache on repeat calls when a cache was configured via
// WithCache (e.g. the same catalog entry resolved again in a later
// lookup).
func (f *CASFile) ReadAll() ([]byte, error) {
	if f.opts != nil && f.opts.cache != nil && f.opts.cache.Blobs != nil {
		if b, ok := f.opts.cache.Blobs.Get(f.Sha1Hex()); ok {
			return b, nil
		}
	}

	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := r.ReadN(-1)
	if err != nil {
		return nil, err
	}

	if f.opts != nil && f.opts.cache != nil && f.opts.cache.Blobs != nil {
		f.opts.cache.Blobs.Set(f.Sha1Hex(), data)
	}
	return data, nil
}
