// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package fbcas

import (
	"io"

	"github.com/frostbite2/fbcas/internal/rawio"
)

// File is a bounded, independently-seekable substream returned by
// CASFile.Open and BundleFile.Open. It embeds *rawio.Reader for the
// read/seek surface and additionally owns whatever file descriptor
// backs it, so callers must Close it when done.
type File struct {
	*rawio.Reader
	closer io.Closer
}

// Close releases the underlying file descriptor. Files returned by
// CASFile.Open and BundleFile.Open always own one, also when their
// reads go through the block cache; a File with no closer is a no-op.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}
