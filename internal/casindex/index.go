// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package casindex builds and queries a derived sha1-to-location index
// over a directory of CAS shards, independent of any cas.cat catalog.
// It exists to reconstruct or cross-check a catalog from raw shard
// contents (original_source's dumpall.py walks every shard the same
// way) and to answer lookups against shards whose catalog is missing
// or stale. It is read-only with respect to the archive: the only
// writes go to its own pebble directory.
package casindex

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/pebble/v2"

	"github.com/frostbite2/fbcas/internal/scan"
)

// Location is where a piece of content lives inside a shard.
type Location struct {
	CASNum int32
	Offset int64
	Size   int64
}

// Index is a pebble-backed sha1 -> Location map.
type Index struct {
	db *pebble.DB
}

// Open opens (creating if absent) a derived index at dir.
func Open(dir string) (*Index, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("casindex: opening %s: %w", dir, err)
	}
	return &Index{db: db}, nil
}

// Close releases the underlying pebble database.
func (ix *Index) Close() error { return ix.db.Close() }

func encodeLocation(loc Location) []byte {
	buf := make([]byte, 20)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(loc.CASNum))
	binary.LittleEndian.PutUint64(buf[4:12], uint64(loc.Offset))
	binary.LittleEndian.PutUint64(buf[12:20], uint64(loc.Size))
	return buf
}

func decodeLocation(b []byte) (Location, error) {
	if len(b) != 20 {
		return Location{}, fmt.Errorf("casindex: corrupt index record (%d bytes)", len(b))
	}
	return Location{
		CASNum: int32(binary.LittleEndian.Uint32(b[0:4])),
		Offset: int64(binary.LittleEndian.Uint64(b[4:12])),
		Size:   int64(binary.LittleEndian.Uint64(b[12:20])),
	}, nil
}

// Put records the location of sha1.
func (ix *Index) Put(sha1 [20]byte, loc Location) error {
	return ix.db.Set(sha1[:], encodeLocation(loc), pebble.NoSync)
}

// Get looks up sha1, reporting ok=false if absent.
func (ix *Index) Get(sha1 [20]byte) (loc Location, ok bool, err error) {
	val, closer, err := ix.db.Get(sha1[:])
	if errors.Is(err, pebble.ErrNotFound) {
		return Location{}, false, nil
	}
	if err != nil {
		return Location{}, false, err
	}
	defer closer.Close()
	loc, err = decodeLocation(val)
	if err != nil {
		return Location{}, false, err
	}
	return loc, true, nil
}

// shardNumber extracts NN from a "<stem>_NN.cas" basename.
func shardNumber(stem, name string) (int32, bool) {
	base := filepath.Base(name)
	prefix := stem + "_"
	if !strings.HasPrefix(base, prefix) || !strings.HasSuffix(base, ".cas") {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(base, prefix), ".cas")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return int32(n), true
}

// Build scans every "<stem>_NN.cas" shard in dir and persists a
// sha1 -> Location record for each content record found, into an index
// rooted at indexDir. It never writes to the archive directory itself.
func Build(dir, stem, indexDir string, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ix, err := Open(indexDir)
	if err != nil {
		return nil, err
	}

	matches, err := filepath.Glob(filepath.Join(dir, stem+"_*.cas"))
	if err != nil {
		ix.Close()
		return nil, fmt.Errorf("casindex: globbing shards in %s: %w", dir, err)
	}

	for _, shardPath := range matches {
		num, ok := shardNumber(stem, shardPath)
		if !ok {
			continue
		}
		if err := indexShard(ix, shardPath, num, logger); err != nil {
			ix.Close()
			return nil, err
		}
	}
	return ix, nil
}

func indexShard(ix *Index, shardPath string, num int32, logger *slog.Logger) error {
	f, size, err := scan.OpenSized(shardPath)
	if err != nil {
		return fmt.Errorf("casindex: opening shard %s: %w", shardPath, err)
	}
	defer f.Close()

	sc := scan.New(f, size)
	batch := ix.db.NewBatch()
	defer batch.Close()

	count := 0
	for {
		rec, _, err := sc.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("casindex: scanning shard %s: %w", shardPath, err)
		}
		if err := batch.Set(rec.SHA1[:], encodeLocation(Location{CASNum: num, Offset: rec.Offset, Size: rec.Size}), nil); err != nil {
			return err
		}
		count++
	}
	logger.Info("casindex: indexed shard", "path", shardPath, "records", count)
	return batch.Commit(pebble.NoSync)
}
