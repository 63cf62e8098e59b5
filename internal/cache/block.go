// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package cache implements the read-through caches layered in front of
// repeated CASFile/BundleFile opens: a block cache of recently read
// byte ranges and a blob cache of whole CAS record contents, both opt-in.
package cache

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-tinylfu"
)

// blockSize is the granularity the block cache reads and stores at.
const blockSize = 4096

// BlockCache holds recently read blockSize-aligned byte ranges, keyed
// by path and block index, mirroring spinner's block-cache-plus-
// popularity design but without its multi-reader multiplexer: unlike
// spinner's sequential-only sources, every reader here is backed by an
// os.File, whose ReadAt is natively concurrency-safe, so there is no
// shared-cursor hazard to multiplex around.
type BlockCache struct {
	mu  sync.Mutex
	lfu *tinylfu.T[string, []byte]
}

// NewBlockCache returns a block cache sized to hold approximately
// capacity blocks.
func NewBlockCache(capacity int) *BlockCache {
	return &BlockCache{
		lfu: tinylfu.New[string, []byte](capacity, capacity*10, hashKey),
	}
}

func hashKey(k string) uint64 { return xxhash.Sum64String(k) }

func blockKey(path string, block int64) string {
	return fmt.Sprintf("%s#%d", path, block)
}

func (c *BlockCache) get(path string, block int64) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lfu.Get(blockKey(path, block))
}

func (c *BlockCache) add(path string, block int64, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lfu.Add(blockKey(path, block), data)
}

// Wrap returns an io.ReaderAt that serves reads of underlying (named
// path, for cache-key purposes) through the block cache. Concurrent
// callers may safely share the returned ReaderAt.
func (c *BlockCache) Wrap(path string, underlying io.ReaderAt) io.ReaderAt {
	if c == nil {
		return underlying
	}
	return &cachedReaderAt{underlying: underlying, path: path, blocks: c}
}

type cachedReaderAt struct {
	underlying io.ReaderAt
	path       string
	blocks     *BlockCache
}

func (r *cachedReaderAt) ReadAt(p []byte, off int64) (int, error) {
	var n int
	for n < len(p) {
		block := (off + int64(n)) / blockSize
		blockOff := block * blockSize

		data, ok := r.blocks.get(r.path, block)
		var fetchErr error
		if !ok {
			buf := make([]byte, blockSize)
			m, err := r.underlying.ReadAt(buf, blockOff)
			buf = buf[:m]
			r.blocks.add(r.path, block, buf)
			data = buf
			if err != nil && !errors.Is(err, io.EOF) {
				return n, err
			}
			fetchErr = err
		}

		start := int(off + int64(n) - blockOff)
		if start >= len(data) {
			if fetchErr != nil {
				return n, fetchErr
			}
			return n, io.EOF
		}

		copied := copy(p[n:], data[start:])
		n += copied
		if len(data) < blockSize && n < len(p) {
			// Short block: underlying is exhausted partway through it.
			return n, io.EOF
		}
	}
	return n, nil
}
