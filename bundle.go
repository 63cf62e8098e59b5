// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package fbcas

import (
	"fmt"
	"os"

	"github.com/frostbite2/fbcas/internal/obfuscate"
	"github.com/frostbite2/fbcas/internal/objdecoder"
)

// Bundle owns a decoded TOC tree and the map of openable files it
// names. basename is the shared stem of "<basename>.toc" and
// "<basename>.sb".
type Bundle struct {
	basename string
	root     objdecoder.Value
	files    map[string]*BundleFile
	opts     options
}

// OpenBundle loads "<basename>.toc" through the full obfuscated decode
// and registers a BundleFile for every entry in its "bundles" list that
// carries both an offset and a size. Entries missing either are
// metadata-only and are not registered as openable, but remain
// reachable through Root.
func OpenBundle(basename string, opts ...Option) (*Bundle, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	tocPath := basename + ".toc"
	f, err := os.Open(tocPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening superbundle toc %s: %v", ErrNotFound, tocPath, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("fbcas: stat toc %s: %w", tocPath, err)
	}

	obf, err := obfuscate.Open(f, st.Size())
	if err != nil {
		return nil, fmt.Errorf("fbcas: opening toc %s: %w", tocPath, err)
	}

	dec := objdecoder.New(obf, objdecoder.WithLogger(o.logger))
	root, err := dec.Decode()
	if err != nil {
		return nil, fmt.Errorf("fbcas: decoding toc %s: %w", tocPath, err)
	}
	if root.Kind != objdecoder.KindDict {
		return nil, fmt.Errorf("%w: toc %s top-level value is %s, want dict", ErrFormat, tocPath, root.Kind)
	}

	b := &Bundle{basename: basename, root: root, files: make(map[string]*BundleFile), opts: o}

	bundles, ok := root.Dict.Get("bundles")
	if !ok || bundles.Kind != objdecoder.KindList {
		return b, nil
	}

	for _, entry := range bundles.List {
		if entry.Kind != objdecoder.KindDict {
			continue
		}
		idV, ok := entry.Dict.Get("id")
		if !ok || idV.Kind != objdecoder.KindStr {
			continue
		}
		offV, hasOff := entry.Dict.Get("offset")
		sizeV, hasSize := entry.Dict.Get("size")
		if !hasOff || !hasSize {
			continue
		}
		offset, ok := asInt64(offV)
		if !ok {
			continue
		}
		size, ok := asInt64(sizeV)
		if !ok {
			continue
		}
		id := string(idV.Str)
		b.files[id] = &BundleFile{
			sbPath: basename + ".sb",
			ID:     id,
			Offset: offset,
			Size:   size,
			opts:   &b.opts,
		}
	}

	return b, nil
}

func asInt64(v objdecoder.Value) (int64, bool) {
	switch v.Kind {
	case objdecoder.KindI32:
		return int64(v.I32), true
	case objdecoder.KindI64:
		return v.I64, true
	default:
		return 0, false
	}
}

// Root returns the fully decoded TOC tree, for clients that want
// metadata beyond what File exposes.
func (b *Bundle) Root() objdecoder.Value { return b.root }

// File returns the BundleFile registered under id, and whether it was
// present.
func (b *Bundle) File(id string) (*BundleFile, bool) {
	f, ok := b.files[id]
	return f, ok
}

// FileIDs returns the ids of every openable BundleFile, in no
// particular order.
func (b *Bundle) FileIDs() []string {
	ids := make([]string, 0, len(b.files))
	for id := range b.files {
		ids = append(ids, id)
	}
	return ids
}
