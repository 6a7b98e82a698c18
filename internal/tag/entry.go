package tag

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrMalformedEntry is returned when a payload is inconsistent with its
// type and count.
var ErrMalformedEntry = errors.New("malformed tag entry")

// Entry is one tagged binary value: the (type, count, payload) triple.
type Entry struct {
	Tag   Tag
	Type  Type
	Count uint32
	Data  []byte
}

// Clone returns a deep copy of the entry. Store lookups hand out clones so
// callers can never mutate stored payloads.
func (e Entry) Clone() Entry {
	out := e
	out.Data = make([]byte, len(e.Data))
	copy(out.Data, e.Data)
	return out
}

// Validate checks that the payload length agrees with the type and count.
func (e Entry) Validate() error {
	if !e.Type.Known() {
		return fmt.Errorf("%w: %s has unknown type %d", ErrMalformedEntry, e.Tag, uint32(e.Type))
	}
	if e.Type == TypeNull {
		if e.Count != 0 || len(e.Data) != 0 {
			return fmt.Errorf("%w: %s null entry carries data", ErrMalformedEntry, e.Tag)
		}
		return nil
	}
	if e.Count == 0 {
		return fmt.Errorf("%w: %s has zero count", ErrMalformedEntry, e.Tag)
	}

	if w := e.Type.Width(); w > 0 {
		if uint64(len(e.Data)) != uint64(e.Count)*uint64(w) {
			return fmt.Errorf("%w: %s %s[%d] needs %d bytes, has %d",
				ErrMalformedEntry, e.Tag, e.Type, e.Count, uint64(e.Count)*uint64(w), len(e.Data))
		}
		return nil
	}

	if e.Type == TypeString && e.Count != 1 {
		return fmt.Errorf("%w: %s string entry has count %d", ErrMalformedEntry, e.Tag, e.Count)
	}
	if len(e.Data) == 0 || e.Data[len(e.Data)-1] != 0 {
		return fmt.Errorf("%w: %s string payload is not NUL-terminated", ErrMalformedEntry, e.Tag)
	}
	if n := bytes.Count(e.Data, []byte{0}); uint32(n) != e.Count {
		return fmt.Errorf("%w: %s has %d strings, count says %d", ErrMalformedEntry, e.Tag, n, e.Count)
	}
	return nil
}

// splitStrings splits a NUL-terminated string payload into its strings.
func splitStrings(data []byte) []string {
	data = bytes.TrimSuffix(data, []byte{0})
	parts := bytes.Split(data, []byte{0})
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = string(p)
	}
	return out
}

// stringPayloadLen returns the length of count NUL-terminated strings at the
// start of data, or -1 if data ends first.
func stringPayloadLen(data []byte, count uint32) int {
	n := 0
	for i := uint32(0); i < count; i++ {
		j := bytes.IndexByte(data[n:], 0)
		if j < 0 {
			return -1
		}
		n += j + 1
	}
	return n
}
