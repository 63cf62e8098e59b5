// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package fbcas

import "errors"

// ErrNotFound reports a file that could not be opened: the catalog, a
// superbundle .toc or .sb, or a shard file for a cas_num. A SHA-1
// absent from a catalog is reported by CASCatalog.Get's boolean result,
// not by this error.
var ErrNotFound = errors.New("fbcas: not found")

// ErrFormat reports a malformed catalog or TOC structure: a bad magic,
// a truncated fixed record, a TOC whose top-level value is not a dict,
// or a recorded byte range that runs past the end of its file. Bundle
// entries of an unexpected shape are skipped, not reported.
var ErrFormat = errors.New("fbcas: malformed archive")
