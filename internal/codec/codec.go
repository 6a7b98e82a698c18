// Package codec converts header entries to and from host-visible values.
//
// Decoding is a pure function of an entry's (type, count, payload) triple:
//
//   - Char, Int8, Int16, Int32 and Int64 entries become arrays of integers,
//     one element per slot, order preserved. Integers are unsigned except
//     Int64, which is carried as two's complement.
//   - Bin entries become arrays of byte-valued integers.
//   - StringArray entries become arrays of strings.
//   - String and I18NString entries become a single string. Locale selection
//     is the store's job; if several translations reach the codec the first
//     one wins.
//
// Anything else fails with ErrUnsupportedTagType.
package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/roach88/tagproxy/internal/tag"
	"github.com/roach88/tagproxy/internal/value"
)

var (
	// ErrUnsupportedTagType is returned for type tags the codec cannot
	// represent. Proxies report such entries as absent.
	ErrUnsupportedTagType = errors.New("unsupported tag type")

	// ErrValueMismatch is returned by Encode when a value does not fit the
	// requested type.
	ErrValueMismatch = errors.New("value does not fit tag type")
)

// Decode converts an entry into a value.
func Decode(e tag.Entry) (value.Value, error) {
	if !e.Type.Known() || e.Type == tag.TypeNull {
		return nil, fmt.Errorf("%w: %s has type %d", ErrUnsupportedTagType, e.Tag, uint32(e.Type))
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}

	switch e.Type {
	case tag.TypeChar, tag.TypeInt8, tag.TypeBin:
		out := make(value.Array, e.Count)
		for i := range out {
			out[i] = value.Int(e.Data[i])
		}
		return out, nil

	case tag.TypeInt16:
		out := make(value.Array, e.Count)
		for i := range out {
			out[i] = value.Int(binary.BigEndian.Uint16(e.Data[2*i:]))
		}
		return out, nil

	case tag.TypeInt32:
		out := make(value.Array, e.Count)
		for i := range out {
			out[i] = value.Int(binary.BigEndian.Uint32(e.Data[4*i:]))
		}
		return out, nil

	case tag.TypeInt64:
		out := make(value.Array, e.Count)
		for i := range out {
			out[i] = value.Int(int64(binary.BigEndian.Uint64(e.Data[8*i:])))
		}
		return out, nil

	case tag.TypeStringArray:
		parts := splitStrings(e.Data)
		out := make(value.Array, len(parts))
		for i, s := range parts {
			out[i] = value.String(s)
		}
		return out, nil

	case tag.TypeString, tag.TypeI18NString:
		return value.String(splitStrings(e.Data)[0]), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedTagType, e.Type)
}

// Encode converts a value into an entry of type t. Integer types take an
// array of ints or a single int; string array and I18N types take an array
// of strings or a single string; String takes a single string.
//
// The returned entry has no tag set.
func Encode(t tag.Type, v value.Value) (tag.Entry, error) {
	e := tag.Entry{Type: t}

	switch t {
	case tag.TypeChar, tag.TypeInt8, tag.TypeBin, tag.TypeInt16, tag.TypeInt32, tag.TypeInt64:
		ints, err := intsOf(v)
		if err != nil {
			return tag.Entry{}, err
		}
		w := t.Width()
		e.Count = uint32(len(ints))
		e.Data = make([]byte, len(ints)*w)
		for i, n := range ints {
			if err := checkRange(t, n); err != nil {
				return tag.Entry{}, fmt.Errorf("element %d: %w", i, err)
			}
			switch w {
			case 1:
				e.Data[i] = byte(n)
			case 2:
				binary.BigEndian.PutUint16(e.Data[2*i:], uint16(n))
			case 4:
				binary.BigEndian.PutUint32(e.Data[4*i:], uint32(n))
			case 8:
				binary.BigEndian.PutUint64(e.Data[8*i:], uint64(n))
			}
		}

	case tag.TypeString:
		s, ok := v.(value.String)
		if !ok {
			return tag.Entry{}, fmt.Errorf("%w: %s needs a string, got %s", ErrValueMismatch, t, value.Format(v))
		}
		e.Count = 1
		e.Data = appendString(nil, string(s))

	case tag.TypeStringArray, tag.TypeI18NString:
		ss, err := stringsOf(v)
		if err != nil {
			return tag.Entry{}, err
		}
		e.Count = uint32(len(ss))
		for _, s := range ss {
			e.Data = appendString(e.Data, s)
		}

	default:
		return tag.Entry{}, fmt.Errorf("%w: %s", ErrUnsupportedTagType, t)
	}

	if err := e.Validate(); err != nil {
		return tag.Entry{}, fmt.Errorf("%w: %v", ErrValueMismatch, err)
	}
	return e, nil
}

func intsOf(v value.Value) ([]int64, error) {
	switch v := v.(type) {
	case value.Int:
		return []int64{int64(v)}, nil
	case value.Array:
		out := make([]int64, len(v))
		for i, elem := range v {
			n, ok := elem.(value.Int)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is %s, want int", ErrValueMismatch, i, value.Format(elem))
			}
			out[i] = int64(n)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: want int or array of ints, got %s", ErrValueMismatch, value.Format(v))
}

func stringsOf(v value.Value) ([]string, error) {
	switch v := v.(type) {
	case value.String:
		return []string{string(v)}, nil
	case value.Array:
		out := make([]string, len(v))
		for i, elem := range v {
			s, ok := elem.(value.String)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is %s, want string", ErrValueMismatch, i, value.Format(elem))
			}
			out[i] = string(s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: want string or array of strings, got %s", ErrValueMismatch, value.Format(v))
}

// checkRange accepts the unsigned range of the type's width. Int64 accepts
// any int64.
func checkRange(t tag.Type, n int64) error {
	var max int64
	switch t.Width() {
	case 1:
		max = math.MaxUint8
	case 2:
		max = math.MaxUint16
	case 4:
		max = math.MaxUint32
	default:
		return nil
	}
	if n < 0 || n > max {
		return fmt.Errorf("%w: %d out of range for %s", ErrValueMismatch, n, t)
	}
	return nil
}

func appendString(data []byte, s string) []byte {
	data = append(data, s...)
	return append(data, 0)
}

func splitStrings(data []byte) []string {
	parts := bytes.Split(bytes.TrimSuffix(data, []byte{0}), []byte{0})
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = string(p)
	}
	return out
}
