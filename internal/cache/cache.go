package cache

import "context"

const (
	defaultBlockCapacity = 16384 // 16384 * 4KiB blocks =~ 64MiB
	defaultBlobCacheMB   = 64
)

// Cache bundles the block cache and blob cache fbcas.WithCache wires
// into CASFile.Open/BundleFile.Open and catalog blob lookups.
type Cache struct {
	Blocks *BlockCache
	Blobs  *BlobCache
}

// Option configures New.
type Option func(*config)

type config struct {
	blockCapacity int
	blobCacheMB   int
}

// WithBlockCapacity overrides the number of 4KiB blocks the block
// cache holds.
func WithBlockCapacity(n int) Option {
	return func(c *config) { c.blockCapacity = n }
}

// WithBlobCacheSize overrides the blob cache's size limit, in
// megabytes.
func WithBlobCacheSize(mb int) Option {
	return func(c *config) { c.blobCacheMB = mb }
}

// New builds a Cache with the given options.
func New(ctx context.Context, opts ...Option) (*Cache, error) {
	cfg := config{blockCapacity: defaultBlockCapacity, blobCacheMB: defaultBlobCacheMB}
	for _, o := range opts {
		o(&cfg)
	}
	blobs, err := NewBlobCache(ctx, cfg.blobCacheMB)
	if err != nil {
		return nil, err
	}
	return &Cache{
		Blocks: NewBlockCache(cfg.blockCapacity),
		Blobs:  blobs,
	}, nil
}
