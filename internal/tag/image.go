package tag

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Image layout:
//
//	magic   8 bytes  8e ad e8 01 00 00 00 00
//	nindex  uint32   number of index records
//	dsize   uint32   size of the data store
//	index   nindex * {tag int32, type uint32, offset int32, count uint32}
//	data    dsize bytes
//
// All integers are big-endian. Records are sorted by tag and fixed-width
// payloads are aligned to their element width within the data store.
var imageMagic = [8]byte{0x8e, 0xad, 0xe8, 0x01, 0, 0, 0, 0}

const (
	indexRecordSize = 16
	preambleSize    = 16

	maxIndexRecords = 0xffff
	maxDataSize     = 256 << 20
)

// ImageError describes a malformed binary header image.
type ImageError struct {
	Offset  int
	Message string
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("header image: offset %d: %s", e.Offset, e.Message)
}

// Marshal encodes a header into its binary image. I18N entries are written
// with every translation.
func Marshal(h *Header) []byte {
	tags := h.Tags()

	var data bytes.Buffer
	index := make([]byte, 0, len(tags)*indexRecordSize)
	for _, t := range tags {
		e := h.entries[t]
		if w := e.Type.Width(); w > 1 {
			for data.Len()%w != 0 {
				data.WriteByte(0)
			}
		}
		index = binary.BigEndian.AppendUint32(index, uint32(e.Tag))
		index = binary.BigEndian.AppendUint32(index, uint32(e.Type))
		index = binary.BigEndian.AppendUint32(index, uint32(data.Len()))
		index = binary.BigEndian.AppendUint32(index, e.Count)
		data.Write(e.Data)
	}

	out := make([]byte, 0, preambleSize+len(index)+data.Len())
	out = append(out, imageMagic[:]...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(tags)))
	out = binary.BigEndian.AppendUint32(out, uint32(data.Len()))
	out = append(out, index...)
	out = append(out, data.Bytes()...)
	return out
}

// Unmarshal decodes a binary image into a new header holding one reference.
func Unmarshal(image []byte) (*Header, error) {
	return unmarshal(image, New())
}

// UnmarshalWithID is Unmarshal with a caller-chosen header ID.
func UnmarshalWithID(image []byte, id string) (*Header, error) {
	return unmarshal(image, NewWithID(id))
}

func unmarshal(image []byte, h *Header) (*Header, error) {
	if len(image) < preambleSize {
		return nil, &ImageError{Offset: 0, Message: "truncated preamble"}
	}
	if !bytes.Equal(image[:8], imageMagic[:]) {
		return nil, &ImageError{Offset: 0, Message: "bad magic"}
	}
	nindex := binary.BigEndian.Uint32(image[8:12])
	dsize := binary.BigEndian.Uint32(image[12:16])
	if nindex > maxIndexRecords {
		return nil, &ImageError{Offset: 8, Message: fmt.Sprintf("too many index records (%d)", nindex)}
	}
	if dsize > maxDataSize {
		return nil, &ImageError{Offset: 12, Message: fmt.Sprintf("data store too large (%d)", dsize)}
	}

	dataStart := preambleSize + int(nindex)*indexRecordSize
	if len(image) != dataStart+int(dsize) {
		return nil, &ImageError{Offset: 12, Message: fmt.Sprintf("image is %d bytes, layout needs %d", len(image), dataStart+int(dsize))}
	}
	data := image[dataStart:]

	for i := 0; i < int(nindex); i++ {
		off := preambleSize + i*indexRecordSize
		rec := image[off : off+indexRecordSize]
		e := Entry{
			Tag:   Tag(int32(binary.BigEndian.Uint32(rec[0:4]))),
			Type:  Type(binary.BigEndian.Uint32(rec[4:8])),
			Count: binary.BigEndian.Uint32(rec[12:16]),
		}
		start := int32(binary.BigEndian.Uint32(rec[8:12]))
		if start < 0 || int(start) > len(data) {
			return nil, &ImageError{Offset: off + 8, Message: fmt.Sprintf("%s: offset %d outside data store", e.Tag, start)}
		}
		if _, dup := h.entries[e.Tag]; dup {
			return nil, &ImageError{Offset: off, Message: fmt.Sprintf("duplicate tag %s", e.Tag)}
		}

		var n int
		switch {
		case e.Type.Width() > 0:
			size := uint64(e.Count) * uint64(e.Type.Width())
			if size > uint64(len(data)-int(start)) {
				return nil, &ImageError{Offset: off, Message: fmt.Sprintf("%s: payload overruns data store", e.Tag)}
			}
			n = int(size)
		case e.Type.IsString():
			n = stringPayloadLen(data[start:], e.Count)
			if n < 0 {
				return nil, &ImageError{Offset: off, Message: fmt.Sprintf("%s: unterminated string payload", e.Tag)}
			}
		}
		e.Data = data[start : int(start)+n]

		if err := h.Put(e); err != nil {
			return nil, &ImageError{Offset: off, Message: err.Error()}
		}
	}
	return h, nil
}
