// Package datafile implements the self-describing binary value format used by
// exported asset files.
//
// Every value starts with a little-endian uint32 kind tag followed by its
// payload. Strings and byte arrays are length prefixed, arrays carry an element
// count and dicts carry a pair count followed by (key, value) pairs in
// encounter order. An asset file is a 4-byte magic number followed by exactly
// one encoded value.
package datafile

import (
	"errors"
	"fmt"
)

// MagicNumber is the header of every asset file. It is the only format
// version marker a consumer can check before decoding.
const MagicNumber uint32 = 0x00001111

// Kind is the wire tag of an encoded value.
type Kind uint32

const (
	KindNone      Kind = 0 // Reserved, never written
	KindString    Kind = 1 // u32 length + ASCII bytes
	KindInt       Kind = 2 // 8-byte signed integer
	KindFloat     Kind = 3 // 8-byte IEEE-754 double
	KindByteArray Kind = 4 // u32 length + raw bytes
	KindArray     Kind = 5 // u32 count + values
	KindDict      Kind = 6 // u32 pair count + (key, value) pairs
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindString:
		return "string"
	case KindInt:
		return "i64"
	case KindFloat:
		return "f64"
	case KindByteArray:
		return "bytearray"
	case KindArray:
		return "array"
	case KindDict:
		return "dict"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(k))
	}
}

// Datafile errors.
var (
	ErrNonASCII        = errors.New("string is not 7-bit ASCII")
	ErrUnsupportedKind = errors.New("unsupported value kind")
	ErrInvalidMagic    = errors.New("invalid asset file magic")
	ErrTruncated       = errors.New("truncated data")
	ErrUnknownTag      = errors.New("unknown value tag")
	ErrTrailingData    = errors.New("trailing data after value")
	ErrTooDeep         = errors.New("value nesting too deep")
)

// maxDepth bounds array/dict nesting while decoding.
const maxDepth = 256

// KindOf reports the wire kind a Go value would be encoded as, or KindNone
// if the value cannot be encoded.
func KindOf(v any) Kind {
	switch x := v.(type) {
	case string:
		return KindString
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32:
		return KindInt
	case uint64:
		if x > 1<<63-1 {
			return KindNone
		}
		return KindInt
	case float32, float64:
		return KindFloat
	case []byte:
		return KindByteArray
	case []any, []string, []int64, []float32:
		return KindArray
	case *Dict:
		return KindDict
	default:
		return KindNone
	}
}

// IsASCII reports whether s only contains 7-bit characters.
func IsASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
