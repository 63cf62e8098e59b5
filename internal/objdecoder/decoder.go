// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package objdecoder

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/frostbite2/fbcas/internal/typeio"
)

// Typecode low-5-bit values. The upper 3 bits of the raw byte are
// reserved flag bits, read and discarded.
const (
	codeSentinel = 0x00 // null; also the end-of-collection marker
	codeList     = 0x01
	codeDict     = 0x02
	codeOpaque8  = 0x05
	codeBool     = 0x06
	codeStr      = 0x07
	codeI32      = 0x08
	codeI64      = 0x09
	codeUuid     = 0x0f
	codeSha1     = 0x10
	codeBlob     = 0x13

	typecodeMask = 0x1f
)

// legacyDialectCodes are full raw byte values (not just the low 5 bits)
// from an older TOC dialect with a different collection framing scheme.
// The decoder rejects them outright rather than attempt to reinterpret
// them.
var legacyDialectCodes = map[byte]bool{130: true, 135: true, 129: true}

// blobChunkSize bounds how much of a blob is read into memory at once.
// The eager decoder reuses the same chunking the streaming mode uses
// so a single malformed huge length can't force an unbounded
// allocation.
const blobChunkSize = 4096

// ErrFormat reports an unknown typecode. A short read mid-value
// carries rawio.ErrTruncated, a malformed primitive carries
// typeio.ErrFormat, and trailing data after the top-level value is
// reported as ErrTrailingData.
var ErrFormat = errors.New("objdecoder: malformed object stream")

// ErrLegacyDialect reports one of the older TOC dialect's typecodes
// (130/135/129), which the canonical decoder refuses to interpret.
var ErrLegacyDialect = errors.New("objdecoder: typecode belongs to an unsupported legacy TOC dialect")

// ErrTrailingData reports that Decode found bytes remaining after a
// complete top-level value.
var ErrTrailingData = errors.New("objdecoder: trailing data after top-level object")

// Decoder consumes a typeio.Reader and produces Values, eagerly via
// Decode or lazily via Stream.
type Decoder struct {
	tr     *typeio.Reader
	logger *slog.Logger
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger overrides the default slog.Default() used for reserved-bit
// warnings.
func WithLogger(l *slog.Logger) Option {
	return func(d *Decoder) { d.logger = l }
}

// New wraps src (any typeio.Source: rawio.Reader or obfuscate.Reader) for decoding.
func New(src typeio.Source, opts ...Option) *Decoder {
	d := &Decoder{tr: typeio.New(src), logger: slog.Default()}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Decode reads exactly one top-level object. If bytes remain
// unconsumed afterward, it fails with ErrTrailingData.
func (d *Decoder) Decode() (Value, error) {
	raw, err := d.tr.ReadU8()
	if err != nil {
		return Value{}, fmt.Errorf("objdecoder: reading top-level typecode: %w", err)
	}
	v, err := d.decodeTypecode(raw)
	if err != nil {
		return Value{}, err
	}
	if !d.tr.Eof() {
		return Value{}, fmt.Errorf("%w at offset %d", ErrTrailingData, d.tr.Tell())
	}
	return v, nil
}

// decodeTypecode dispatches on an already-read raw typecode byte and
// fully materializes the resulting value (and all its children).
func (d *Decoder) decodeTypecode(raw byte) (Value, error) {
	if legacyDialectCodes[raw] {
		return Value{}, fmt.Errorf("%w: raw=0x%02x", ErrLegacyDialect, raw)
	}

	code := raw & typecodeMask
	d.checkFlags(raw, code)

	switch code {
	case codeBlob:
		blob, err := d.readBlobBody(true)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindBlob, Blob: blob}, nil
	case codeList:
		return d.decodeListBody()
	case codeDict:
		return d.decodeDictBody()
	default:
		return d.decodeScalar(raw, code)
	}
}

// decodeScalar handles every typecode whose payload is neither a
// collection nor a blob: null, bool, i32, i64, str, uuid, sha1, opaque8.
func (d *Decoder) decodeScalar(raw, code byte) (Value, error) {
	switch code {
	case codeSentinel:
		return Value{Kind: KindNull}, nil
	case codeBool:
		b, err := d.tr.ReadU8()
		if err != nil {
			return Value{}, fmt.Errorf("objdecoder: bool: %w", err)
		}
		return Value{Kind: KindBool, Bool: b != 0}, nil
	case codeI32:
		n, err := d.tr.ReadI32()
		if err != nil {
			return Value{}, fmt.Errorf("objdecoder: i32: %w", err)
		}
		return Value{Kind: KindI32, I32: n}, nil
	case codeI64:
		n, err := d.tr.ReadI64()
		if err != nil {
			return Value{}, fmt.Errorf("objdecoder: i64: %w", err)
		}
		return Value{Kind: KindI64, I64: n}, nil
	case codeStr:
		s, err := d.tr.ReadBString()
		if err != nil {
			return Value{}, fmt.Errorf("objdecoder: str: %w", err)
		}
		return Value{Kind: KindStr, Str: s}, nil
	case codeUuid:
		b, err := d.tr.ReadFixed(16)
		if err != nil {
			return Value{}, fmt.Errorf("objdecoder: uuid: %w", err)
		}
		v := Value{Kind: KindUuid}
		copy(v.UUID16[:], b)
		return v, nil
	case codeSha1:
		b, err := d.tr.ReadFixed(20)
		if err != nil {
			return Value{}, fmt.Errorf("objdecoder: sha1: %w", err)
		}
		v := Value{Kind: KindSha1}
		copy(v.SHA1[:], b)
		return v, nil
	case codeOpaque8:
		b, err := d.tr.ReadFixed(8)
		if err != nil {
			return Value{}, fmt.Errorf("objdecoder: opaque8: %w", err)
		}
		v := Value{Kind: KindOpaque8}
		copy(v.Opaque8[:], b)
		return v, nil
	default:
		return Value{}, fmt.Errorf("%w: unknown typecode raw=0x%02x code=0x%02x", ErrFormat, raw, code)
	}
}

// checkFlags warns (never fails) when the reserved upper 3 bits of a
// typecode byte are set.
func (d *Decoder) checkFlags(raw, code byte) {
	if flags := raw &^ typecodeMask; flags != 0 {
		d.logger.Warn("objdecoder: reserved typecode flag bits set",
			"raw", fmt.Sprintf("0x%02x", raw), "code", fmt.Sprintf("0x%02x", code), "flags", fmt.Sprintf("0x%02x", flags>>5))
	}
}

// readBlobBody reads the varint length prefix and then the blob body in
// chunks of at most blobChunkSize bytes, returning the concatenated
// bytes when keep is true and discarding them otherwise.
func (d *Decoder) readBlobBody(keep bool) ([]byte, error) {
	n, err := d.tr.ReadVarint()
	if err != nil {
		return nil, fmt.Errorf("objdecoder: blob length: %w", err)
	}
	var out []byte
	if keep && n > 0 {
		out = make([]byte, 0, min(n, blobChunkSize))
	}
	remaining := n
	for remaining > 0 {
		chunk := remaining
		if chunk > blobChunkSize {
			chunk = blobChunkSize
		}
		b, err := d.tr.ReadFixed(int(chunk))
		if err != nil {
			return nil, fmt.Errorf("objdecoder: blob body: %w", err)
		}
		if keep {
			out = append(out, b...)
		}
		remaining -= chunk
	}
	return out, nil
}

// decodeListBody reads the size-hint varint (discarded; the decoder
// never relies on it being accurate) then elements until the 0
// typecode sentinel.
func (d *Decoder) decodeListBody() (Value, error) {
	if _, err := d.tr.ReadVarint(); err != nil {
		return Value{}, fmt.Errorf("objdecoder: list size hint: %w", err)
	}
	var items []Value
	for {
		raw, err := d.tr.ReadU8()
		if err != nil {
			return Value{}, fmt.Errorf("objdecoder: list element typecode: %w", err)
		}
		if !legacyDialectCodes[raw] && raw&typecodeMask == codeSentinel {
			return Value{Kind: KindList, List: items}, nil
		}
		v, err := d.decodeTypecode(raw)
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
	}
}

// decodeDictBody reads the size-hint varint (discarded) then entries of
// (typecode, cstring key, value) until the 0 typecode sentinel.
func (d *Decoder) decodeDictBody() (Value, error) {
	if _, err := d.tr.ReadVarint(); err != nil {
		return Value{}, fmt.Errorf("objdecoder: dict size hint: %w", err)
	}
	dict := NewDict()
	for {
		raw, err := d.tr.ReadU8()
		if err != nil {
			return Value{}, fmt.Errorf("objdecoder: dict entry typecode: %w", err)
		}
		if !legacyDialectCodes[raw] && raw&typecodeMask == codeSentinel {
			return Value{Kind: KindDict, Dict: dict}, nil
		}
		key, err := d.tr.ReadCString()
		if err != nil {
			return Value{}, fmt.Errorf("objdecoder: dict key: %w", err)
		}
		v, err := d.decodeTypecode(raw)
		if err != nil {
			return Value{}, err
		}
		dict.Set(string(key), v)
	}
}
