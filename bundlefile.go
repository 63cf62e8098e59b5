// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package fbcas

import (
	"fmt"
	"io"
	"os"

	"github.com/frostbite2/fbcas/internal/rawio"
)

// BundleFile is one openable entry inside a Bundle's TOC: an id and
// the byte range of the companion .sb file it names. sbPath is
// materialized at construction rather than keeping a pointer back to
// the owning Bundle, so a BundleFile can outlive its Bundle.
type BundleFile struct {
	ID     string
	Offset int64
	Size   int64

	sbPath string
	opts   *options
}

// Open opens the companion .sb file and returns a bounded reader over
// this entry's recorded byte range. The .sb payload is not obfuscated
// at the file level; its contents are themselves tagged objects,
// decoded on demand by the caller. Callers must Close the result.
func (f *BundleFile) Open() (*File, error) {
	fh, err := os.Open(f.sbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening superbundle data %s: %v", ErrNotFound, f.sbPath, err)
	}

	st, err := fh.Stat()
	if err != nil {
		fh.Close()
		return nil, fmt.Errorf("fbcas: stat %s: %w", f.sbPath, err)
	}
	if f.Offset+f.Size > st.Size() {
		fh.Close()
		return nil, fmt.Errorf("%w: entry %q [%d,%d) exceeds %s size %d", ErrFormat, f.ID, f.Offset, f.Offset+f.Size, f.sbPath, st.Size())
	}

	var ra io.ReaderAt = fh
	if f.opts != nil && f.opts.cache != nil {
		ra = f.opts.cache.Blocks.Wrap(f.sbPath, fh)
	}

	return &File{Reader: rawio.New(ra, f.Offset, f.Size), closer: fh}, nil
}
