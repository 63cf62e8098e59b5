// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package fbcas provides read-only access to Frostbite 2 archives: a
// content-addressed store of blobs indexed by SHA-1 (CASCatalog,
// CASFile), and superbundles described by a table of contents and
// streamed from a companion .sb file (Bundle, BundleFile).
//
// The typical path is CASCatalog.Get, then CASFile.Open to obtain a
// bounded, independently-seekable reader over the raw (unobfuscated)
// CAS payload. The parallel path is CASCatalog.OpenSuperbundle, then
// Bundle.File and BundleFile.Open. Both end in an *internal/rawio.Reader
// a caller can hand to internal/typeio and internal/objdecoder to
// materialize the object tree stored inside.
//
// This package does not decompress blob payloads, write or mutate
// archives, or interpret game-specific semantics: it resolves names
// and hashes to byte ranges and nothing more.
package fbcas
