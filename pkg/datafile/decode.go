package datafile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// Unmarshal decodes exactly one value from data. Decoded values use the
// canonical kinds string, int64, float64, []byte, []any and *Dict.
func Unmarshal(data []byte) (any, error) {
	r := bytes.NewReader(data)
	v, err := readValue(r, 0)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingData, r.Len())
	}
	return v, nil
}

// ParseAsset decodes an asset file: the magic header followed by one value.
func ParseAsset(data []byte) (any, error) {
	if len(data) < 4 {
		return nil, ErrTruncated
	}
	if magic := binary.LittleEndian.Uint32(data); magic != MagicNumber {
		return nil, fmt.Errorf("%w: 0x%08x", ErrInvalidMagic, magic)
	}
	return Unmarshal(data[4:])
}

// ParseAssetFile decodes an asset file from disk.
func ParseAssetFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading asset file: %w", err)
	}
	return ParseAsset(data)
}

func readValue(r *bytes.Reader, depth int) (any, error) {
	if depth > maxDepth {
		return nil, ErrTooDeep
	}

	tag, err := readU32(r)
	if err != nil {
		return nil, err
	}

	switch Kind(tag) {
	case KindString:
		b, err := readBlob(r)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case KindInt:
		var v int64
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return nil, ErrTruncated
		}
		return v, nil
	case KindFloat:
		var bits uint64
		if err := binary.Read(r, binary.LittleEndian, &bits); err != nil {
			return nil, ErrTruncated
		}
		return math.Float64frombits(bits), nil
	case KindByteArray:
		return readBlob(r)
	case KindArray:
		count, err := readU32(r)
		if err != nil {
			return nil, err
		}
		// Every element needs at least its tag.
		if int64(count)*4 > int64(r.Len()) {
			return nil, ErrTruncated
		}
		arr := make([]any, count)
		for i := range arr {
			if arr[i], err = readValue(r, depth+1); err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
		}
		return arr, nil
	case KindDict:
		count, err := readU32(r)
		if err != nil {
			return nil, err
		}
		// Every pair needs at least a key length and a tag.
		if int64(count)*8 > int64(r.Len()) {
			return nil, ErrTruncated
		}
		d := NewDict()
		for i := uint32(0); i < count; i++ {
			key, err := readBlob(r)
			if err != nil {
				return nil, fmt.Errorf("key %d: %w", i, err)
			}
			v, err := readValue(r, depth+1)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			d.Set(string(key), v)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownTag, tag)
	}
}

func readU32(r *bytes.Reader) (uint32, error) {
	var v uint32
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, ErrTruncated
	}
	return v, nil
}

// readBlob reads a u32 length followed by that many bytes.
func readBlob(r *bytes.Reader) ([]byte, error) {
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if int64(n) > int64(r.Len()) {
		return nil, ErrTruncated
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, ErrTruncated
	}
	return b, nil
}
