package datafile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"

	"go.uber.org/zap"
)

// Encoder writes values to an output stream.
//
// Encoding is best effort: a dict pair or array element whose value has no
// wire kind is omitted (and the written count reflects only emitted entries),
// logged as a warning and recorded in Dropped. Non-ASCII strings are fatal.
type Encoder struct {
	w       io.Writer
	logger  *zap.Logger
	dropped []string
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithLogger sets the logger used for dropped-value diagnostics.
func WithLogger(l *zap.Logger) EncoderOption {
	return func(e *Encoder) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEncoder creates an encoder writing to w.
func NewEncoder(w io.Writer, opts ...EncoderOption) *Encoder {
	e := &Encoder{w: w, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode writes one value. The value is fully serialized in memory before
// anything is written to the underlying stream, so a failed Encode writes
// nothing.
func (e *Encoder) Encode(v any) error {
	var buf bytes.Buffer
	if err := e.encodeValue(&buf, "", v); err != nil {
		return err
	}
	_, err := e.w.Write(buf.Bytes())
	return err
}

// EncodeAsset writes the asset file header followed by root. As with
// Encode, nothing is written when encoding fails.
func (e *Encoder) EncodeAsset(root any) error {
	var buf bytes.Buffer
	putU32(&buf, MagicNumber)
	if err := e.encodeValue(&buf, "", root); err != nil {
		return err
	}
	_, err := e.w.Write(buf.Bytes())
	return err
}

// Dropped returns the paths of values omitted so far.
func (e *Encoder) Dropped() []string {
	out := make([]string, len(e.dropped))
	copy(out, e.dropped)
	return out
}

// Marshal encodes v into a new byte slice.
func Marshal(v any, opts ...EncoderOption) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf, opts...).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Encoder) encodeValue(buf *bytes.Buffer, path string, v any) error {
	switch x := v.(type) {
	case string:
		putTag(buf, KindString)
		return putString(buf, path, x)
	case int:
		return putInt(buf, int64(x))
	case int8:
		return putInt(buf, int64(x))
	case int16:
		return putInt(buf, int64(x))
	case int32:
		return putInt(buf, int64(x))
	case int64:
		return putInt(buf, x)
	case uint:
		return e.encodeUint(buf, path, uint64(x))
	case uint8:
		return putInt(buf, int64(x))
	case uint16:
		return putInt(buf, int64(x))
	case uint32:
		return putInt(buf, int64(x))
	case uint64:
		return e.encodeUint(buf, path, x)
	case float32:
		return putFloat(buf, float64(x))
	case float64:
		return putFloat(buf, x)
	case []byte:
		putTag(buf, KindByteArray)
		putU32(buf, uint32(len(x)))
		buf.Write(x)
		return nil
	case []any:
		return e.encodeArray(buf, path, len(x), func(i int) any { return x[i] })
	case []string:
		return e.encodeArray(buf, path, len(x), func(i int) any { return x[i] })
	case []int64:
		return e.encodeArray(buf, path, len(x), func(i int) any { return x[i] })
	case []float32:
		return e.encodeArray(buf, path, len(x), func(i int) any { return x[i] })
	case *Dict:
		return e.encodeDict(buf, path, x)
	default:
		return fmt.Errorf("%w: %T at %q", ErrUnsupportedKind, v, path)
	}
}

func (e *Encoder) encodeUint(buf *bytes.Buffer, path string, x uint64) error {
	if x > math.MaxInt64 {
		return fmt.Errorf("%w: uint64 %d overflows i64 at %q", ErrUnsupportedKind, x, path)
	}
	return putInt(buf, int64(x))
}

func (e *Encoder) encodeArray(buf *bytes.Buffer, path string, n int, at func(int) any) error {
	putTag(buf, KindArray)
	countPos := buf.Len()
	putU32(buf, 0)

	var count uint32
	for i := 0; i < n; i++ {
		elemPath := path + "[" + strconv.Itoa(i) + "]"
		v := at(i)
		if KindOf(v) == KindNone {
			e.drop(elemPath, v)
			continue
		}
		if err := e.encodeValue(buf, elemPath, v); err != nil {
			return err
		}
		count++
	}
	binary.LittleEndian.PutUint32(buf.Bytes()[countPos:], count)
	return nil
}

func (e *Encoder) encodeDict(buf *bytes.Buffer, path string, d *Dict) error {
	putTag(buf, KindDict)
	countPos := buf.Len()
	putU32(buf, 0)

	var count uint32
	var err error
	d.Range(func(key string, v any) bool {
		keyPath := key
		if path != "" {
			keyPath = path + "." + key
		}
		if KindOf(v) == KindNone {
			e.drop(keyPath, v)
			return true
		}
		if err = putString(buf, keyPath, key); err != nil {
			return false
		}
		if err = e.encodeValue(buf, keyPath, v); err != nil {
			return false
		}
		count++
		return true
	})
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(buf.Bytes()[countPos:], count)
	return nil
}

func (e *Encoder) drop(path string, v any) {
	e.dropped = append(e.dropped, path)
	e.logger.Warn("dropping value of unsupported type",
		zap.String("path", path),
		zap.String("type", fmt.Sprintf("%T", v)))
}

func putTag(buf *bytes.Buffer, k Kind) {
	putU32(buf, uint32(k))
}

func putU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putInt(buf *bytes.Buffer, v int64) error {
	putTag(buf, KindInt)
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
	return nil
}

func putFloat(buf *bytes.Buffer, v float64) error {
	putTag(buf, KindFloat)
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	buf.Write(b[:])
	return nil
}

// putString writes a length-prefixed string without a tag.
func putString(buf *bytes.Buffer, path, s string) error {
	if !IsASCII(s) {
		return fmt.Errorf("%w: %q at %q", ErrNonASCII, s, path)
	}
	putU32(buf, uint32(len(s)))
	buf.WriteString(s)
	return nil
}
