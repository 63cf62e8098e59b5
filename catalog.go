// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package fbcas

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/frostbite2/fbcas/internal/obfuscate"
	"github.com/frostbite2/fbcas/internal/typeio"
)

const catMagic = "NyanNyanNyanNyan"

// CASCatalog indexes a cas.cat file: a hex-SHA-1 to CASFile map, plus
// the directory and shard-name stem needed to open numbered shards.
type CASCatalog struct {
	dir     string
	stem    string
	entries map[string]*CASFile
	opts    options
}

// OpenCatalog opens the catalog file at path (conventionally
// "<dir>/cas.cat") and reads every fixed record to EOF of its payload.
// The catalog is not itself a tagged object stream: its payload is the
// literal "NyanNyanNyanNyan" followed by repeating
// sha1(20)+offset(i32)+size(i32)+cas_num(i32) records.
func OpenCatalog(path string, opts ...Option) (*CASCatalog, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening catalog %s: %v", ErrNotFound, path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("fbcas: stat catalog %s: %w", path, err)
	}

	obf, err := obfuscate.Open(f, st.Size())
	if err != nil {
		return nil, fmt.Errorf("fbcas: opening catalog %s: %w", path, err)
	}

	tr := typeio.New(obf)
	magic, err := tr.ReadFixed(len(catMagic))
	if err != nil {
		return nil, fmt.Errorf("%w: reading catalog magic: %v", ErrFormat, err)
	}
	if string(magic) != catMagic {
		return nil, fmt.Errorf("%w: catalog %s missing %q magic", ErrFormat, path, catMagic)
	}

	cat := &CASCatalog{
		dir:     filepath.Dir(path),
		stem:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		entries: make(map[string]*CASFile),
		opts:    o,
	}

	for !tr.Eof() {
		sha1, err := tr.ReadFixed(20)
		if err != nil {
			return nil, fmt.Errorf("%w: catalog record sha1 at offset %d: %v", ErrFormat, tr.Tell(), err)
		}
		offset, err := tr.ReadI32()
		if err != nil {
			return nil, fmt.Errorf("%w: catalog record offset at offset %d: %v", ErrFormat, tr.Tell(), err)
		}
		size, err := tr.ReadI32()
		if err != nil {
			return nil, fmt.Errorf("%w: catalog record size at offset %d: %v", ErrFormat, tr.Tell(), err)
		}
		casNum, err := tr.ReadI32()
		if err != nil {
			return nil, fmt.Errorf("%w: catalog record cas_num at offset %d: %v", ErrFormat, tr.Tell(), err)
		}

		cf := &CASFile{
			Offset: int64(offset),
			Size:   int64(size),
			CASNum: casNum,
			dir:    cat.dir,
			stem:   cat.stem,
			opts:   &cat.opts,
		}
		copy(cf.SHA1[:], sha1)
		cat.entries[hex.EncodeToString(sha1)] = cf
	}

	return cat, nil
}

// Get returns the CASFile record for a hex-encoded SHA-1, and whether
// it was present.
func (c *CASCatalog) Get(sha1Hex string) (*CASFile, bool) {
	cf, ok := c.entries[strings.ToLower(sha1Hex)]
	return cf, ok
}

// Len reports the number of records in the catalog.
func (c *CASCatalog) Len() int { return len(c.entries) }

// OpenCAS opens the shard file "<dir>/<stem>_NN.cas" for the given CAS
// number directly, independent of any catalog record. Callers must
// Close the result.
func (c *CASCatalog) OpenCAS(num int32) (*os.File, error) {
	path := shardPath(c.dir, c.stem, num)
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening shard %s: %v", ErrNotFound, path, err)
	}
	return fh, nil
}

// OpenSuperbundle resolves "<dir>/name.toc" beside the catalog and, if
// present, loads it as a Bundle rooted at "<dir>/name".
func (c *CASCatalog) OpenSuperbundle(name string, opts ...Option) (*Bundle, error) {
	basename := filepath.Join(c.dir, name)
	merged := append(append([]Option{}, c.optionList()...), opts...)
	return OpenBundle(basename, merged...)
}

// optionList reconstructs an Option slice reproducing c's resolved
// options, so OpenSuperbundle can propagate the catalog's logger/cache
// to the Bundle it constructs without exposing the options struct.
func (c *CASCatalog) optionList() []Option {
	opts := []Option{WithLogger(c.opts.logger)}
	if c.opts.cache != nil {
		opts = append(opts, WithCache(c.opts.cache))
	}
	return opts
}
