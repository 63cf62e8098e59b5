// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package fbcas

import (
	"log/slog"

	"github.com/frostbite2/fbcas/internal/cache"
)

// Option configures a CASCatalog or Bundle.
type Option func(*options)

type options struct {
	logger *slog.Logger
	cache  *cache.Cache
}

func defaultOptions() options {
	return options{logger: slog.Default()}
}

// WithLogger overrides the default slog.Default() used for warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCache routes the reads of every CASFile.Open/BundleFile.Open
// performed through this catalog or bundle through c's block cache, and
// lets CASFile.ReadAll serve repeat calls from c's blob cache. Every
// Open still opens the file afresh; without WithCache its reads go
// straight to the file.
func WithCache(c *cache.Cache) Option {
	return func(o *options) { o.cache = c }
}
