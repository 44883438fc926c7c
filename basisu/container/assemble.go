package container

import (
	"errors"
	"fmt"
	"math"
)

// Slice is one slice handed to Assemble: its descriptor (offset, size and CRC are filled in)
// and its compressed payload.
type Slice struct {
	Desc SliceDesc
	Data []byte
}

// Layout is the content of a .basis file before it is laid out.
//
// Header supplies the descriptive fields (TotalImages, Format, Flags, Type, UsPerFrame,
// user data, endpoint/selector counts). Assemble computes every size, offset and checksum.
type Layout struct {
	Header Header

	EndpointCB []byte
	SelectorCB []byte
	Tables     []byte
	Extended   []byte

	Slices []Slice
}

// Assemble lays out l as a .basis file: header, slice descriptors, codebooks, tables, slice
// payloads, extended data. The result is re-parsed before it is returned, so a Layout that
// does not describe a valid file is reported as an error.
func Assemble(l Layout) ([]byte, error) {
	if len(l.Slices) == 0 {
		return nil, errors.New("basis: assemble: no slices")
	}

	h := l.Header
	h.Version = Version
	h.HeaderSize = HeaderSize
	h.TotalSlices = uint32(len(l.Slices))
	h.SliceDescOffset = HeaderSize

	size := HeaderSize + len(l.Slices)*SliceDescSize
	place := func(p []byte) (off, n uint32) {
		if len(p) == 0 {
			return 0, 0
		}
		off = uint32(size)
		size += len(p)
		return off, uint32(len(p))
	}
	h.EndpointCBOffset, h.EndpointCBSize = place(l.EndpointCB)
	h.SelectorCBOffset, h.SelectorCBSize = place(l.SelectorCB)
	h.TablesOffset, h.TablesSize = place(l.Tables)

	descs := make([]SliceDesc, len(l.Slices))
	for i, s := range l.Slices {
		d := s.Desc
		d.FileOffset, d.FileSize = place(s.Data)
		d.DataCRC16 = CRC16(0, s.Data)
		descs[i] = d
	}
	h.ExtendedOffset, h.ExtendedSize = place(l.Extended)
	if uint64(size) > math.MaxUint32 {
		return nil, fmt.Errorf("basis: assemble: file too large (%d bytes)", size)
	}
	h.DataSize = uint32(size - HeaderSize)

	out := make([]byte, size)
	off := HeaderSize
	for _, d := range descs {
		if err := marshalSliceDesc(out[off:off+SliceDescSize], d); err != nil {
			return nil, err
		}
		off += SliceDescSize
	}
	put := func(p []byte, at uint32) {
		copy(out[at:], p)
	}
	put(l.EndpointCB, h.EndpointCBOffset)
	put(l.SelectorCB, h.SelectorCBOffset)
	put(l.Tables, h.TablesOffset)
	for i, s := range l.Slices {
		put(s.Data, descs[i].FileOffset)
	}
	put(l.Extended, h.ExtendedOffset)

	h.DataCRC16 = CRC16(0, out[HeaderSize:])
	hdr, err := MarshalHeader(h)
	if err != nil {
		return nil, err
	}
	copy(out, hdr[:])
	h.HeaderCRC16 = CRC16(0, out[headerCRCOffset:HeaderSize])
	encodeU16LE(out[6:8], h.HeaderCRC16)

	if _, err := Parse(out); err != nil {
		return nil, fmt.Errorf("basis: assemble: %w", err)
	}
	return out, nil
}
