// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package objdecoder implements the tagged binary object decoder that
// turns an obfuscation-stripped byte stream into a tree of typed
// values, in both eager (Decode) and streaming (Stream) modes.
//
// Value favors a single tagged-variant type over a class hierarchy,
// the same way internal/appledouble's chunk records collapse a zoo of
// Apple-fork record types into one struct: one Value with a Kind
// discriminant rather than a family of per-type wrapper structs.
package objdecoder

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// Kind discriminates the variants of Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindI32
	KindI64
	KindStr
	KindUuid
	KindSha1
	KindOpaque8
	KindBlob
	KindList
	KindDict
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindStr:
		return "str"
	case KindUuid:
		return "uuid"
	case KindSha1:
		return "sha1"
	case KindOpaque8:
		return "opaque8"
	case KindBlob:
		return "blob"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	default:
		return "unknown"
	}
}

// Value is the sum type produced by the decoder: Null, Bool, I32, I64,
// Str, Uuid, Sha1, Opaque8, Blob, List, Dict.
type Value struct {
	Kind Kind

	Bool    bool
	I32     int32
	I64     int64
	Str     []byte // opaque bytes; the format does not declare an encoding
	UUID16  [16]byte
	SHA1    [20]byte
	Opaque8 [8]byte
	Blob    []byte
	List    []Value
	Dict    *Dict
}

// Sha1Hex returns the hex-encoded view of a Sha1 value, used as the
// catalog and chunk-reference key.
func (v Value) Sha1Hex() string { return hex.EncodeToString(v.SHA1[:]) }

// UUID returns a github.com/google/uuid view of a Uuid value, a
// computed accessor exactly like Sha1Hex: it does not change the
// underlying 16-byte representation the wire format defines.
func (v Value) UUID() uuid.UUID {
	id, _ := uuid.FromBytes(v.UUID16[:])
	return id
}

// Dict is an insertion-ordered string-keyed map with unique keys.
// The zero Dict is ready to use.
type Dict struct {
	keys []string
	vals map[string]Value
}

// NewDict returns an empty, ready-to-use Dict.
func NewDict() *Dict {
	return &Dict{vals: make(map[string]Value)}
}

// Set inserts or overwrites key. Insertion order is preserved for new
// keys; overwriting an existing key keeps its original position.
func (d *Dict) Set(key string, v Value) {
	if d.vals == nil {
		d.vals = make(map[string]Value)
	}
	if _, exists := d.vals[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.vals[key] = v
}

// Get returns the value for key and whether it was present.
func (d *Dict) Get(key string) (Value, bool) {
	if d == nil {
		return Value{}, false
	}
	v, ok := d.vals[key]
	return v, ok
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Keys returns the keys in insertion order. The returned slice must not
// be mutated by the caller.
func (d *Dict) Keys() []string {
	if d == nil {
		return nil
	}
	return d.keys
}

// Range calls f for each entry in insertion order, stopping early if f
// returns false.
func (d *Dict) Range(f func(key string, v Value) bool) {
	if d == nil {
		return
	}
	for _, k := range d.keys {
		if !f(k, d.vals[k]) {
			return
		}
	}
}
