// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package objdecoder

import (
	"fmt"
	"iter"
)

// Stream drives the decoder as an event emitter (list_start, list_item,
// list_end, dict_start, dict_key, dict_end, value, blob_start/chunk/end)
// over a virtual path stack, and yields a fully materialized Value each
// time the stack matches sel. It is expressed as a synchronous
// push-callback visitor: Go's range-over-func iterators let the
// recursive descent call the consumer's yield directly, with no
// goroutine or channel needed to get a cooperative-producer contract.
// Cancellation is simply the caller's range loop stopping, which is
// propagated back through each recursive frame's return value.
func (d *Decoder) Stream(sel Selector) iter.Seq2[Value, error] {
	return func(yield func(Value, error) bool) {
		raw, err := d.tr.ReadU8()
		if err != nil {
			yield(Value{}, fmt.Errorf("objdecoder: reading top-level typecode: %w", err))
			return
		}
		d.walkEvent(raw, nil, sel, yield)
	}
}

// walkEvent dispatches on an already-read typecode byte at the given
// path, returning false if the caller should stop (either yield itself
// returned false, or a terminal error was already delivered to yield).
func (d *Decoder) walkEvent(raw byte, path []PathSegment, sel Selector, yield func(Value, error) bool) bool {
	if legacyDialectCodes[raw] {
		yield(Value{}, fmt.Errorf("%w: raw=0x%02x", ErrLegacyDialect, raw))
		return false
	}

	code := raw & typecodeMask
	d.checkFlags(raw, code)
	matched := sel(path)

	switch code {
	case codeList:
		if matched {
			v, err := d.decodeListBody()
			if err != nil {
				yield(Value{}, err)
				return false
			}
			return yield(v, nil)
		}
		return d.walkListBody(path, sel, yield)
	case codeDict:
		if matched {
			v, err := d.decodeDictBody()
			if err != nil {
				yield(Value{}, err)
				return false
			}
			return yield(v, nil)
		}
		return d.walkDictBody(path, sel, yield)
	case codeBlob:
		blob, err := d.readBlobBody(matched)
		if err != nil {
			yield(Value{}, err)
			return false
		}
		if matched {
			return yield(Value{Kind: KindBlob, Blob: blob}, nil)
		}
		return true
	default:
		v, err := d.decodeScalar(raw, code)
		if err != nil {
			yield(Value{}, err)
			return false
		}
		if matched {
			return yield(v, nil)
		}
		return true
	}
}

func (d *Decoder) walkListBody(path []PathSegment, sel Selector, yield func(Value, error) bool) bool {
	if _, err := d.tr.ReadVarint(); err != nil {
		yield(Value{}, fmt.Errorf("objdecoder: list size hint: %w", err))
		return false
	}
	for i := 0; ; i++ {
		raw, err := d.tr.ReadU8()
		if err != nil {
			yield(Value{}, fmt.Errorf("objdecoder: list element typecode: %w", err))
			return false
		}
		if !legacyDialectCodes[raw] && raw&typecodeMask == codeSentinel {
			return true
		}
		if !d.walkEvent(raw, extendPath(path, indexSeg(i)), sel, yield) {
			return false
		}
	}
}

func (d *Decoder) walkDictBody(path []PathSegment, sel Selector, yield func(Value, error) bool) bool {
	if _, err := d.tr.ReadVarint(); err != nil {
		yield(Value{}, fmt.Errorf("objdecoder: dict size hint: %w", err))
		return false
	}
	for {
		raw, err := d.tr.ReadU8()
		if err != nil {
			yield(Value{}, fmt.Errorf("objdecoder: dict entry typecode: %w", err))
			return false
		}
		if !legacyDialectCodes[raw] && raw&typecodeMask == codeSentinel {
			return true
		}
		key, err := d.tr.ReadCString()
		if err != nil {
			yield(Value{}, fmt.Errorf("objdecoder: dict key: %w", err))
			return false
		}
		if !d.walkEvent(raw, extendPath(path, keySeg(string(key))), sel, yield) {
			return false
		}
	}
}

// extendPath returns a new slice with seg appended, never aliasing path's
// backing array: each recursive frame owns its own path segment list.
func extendPath(path []PathSegment, seg PathSegment) []PathSegment {
	out := make([]PathSegment, len(path)+1)
	copy(out, path)
	out[len(path)] = seg
	return out
}
