package cache

import (
	"context"

	"github.com/allegro/bigcache/v3"
)

// BlobCache holds whole CAS record contents (as read by
// fbcas.CASFile.ReadAll) keyed by SHA-1 hex,
// mirroring internal/decompressioncache's bigcache-backed cache of
// expensively-produced byte slices.
type BlobCache struct {
	bc *bigcache.BigCache
}

// NewBlobCache returns a blob cache limited to approximately maxMB
// megabytes.
func NewBlobCache(ctx context.Context, maxMB int) (*BlobCache, error) {
	c, err := bigcache.New(ctx, bigcache.Config{
		HardMaxCacheSize: maxMB,
		Shards:           1024,
	})
	if err != nil {
		return nil, err
	}
	return &BlobCache{bc: c}, nil
}

// Get returns the cached blob for sha1Hex, if present.
func (b *BlobCache) Get(sha1Hex string) ([]byte, bool) {
	if b == nil {
		return nil, false
	}
	v, err := b.bc.Get(sha1Hex)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Set stores blob under sha1Hex.
func (b *BlobCache) Set(sha1Hex string, blob []byte) {
	if b == nil {
		return
	}
	_ = b.bc.Set(sha1Hex, blob)
}
