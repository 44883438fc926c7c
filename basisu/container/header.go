package container

import (
	"errors"
	"fmt"

	"github.com/fintelia/basisu/basisu/engine"
)

const (
	// HeaderSize is the size in bytes of a .basis file header.
	HeaderSize = 77

	// SliceDescSize is the size in bytes of one slice descriptor.
	SliceDescSize = 23

	// Signature is the little-endian value of the leading "sB" bytes.
	Signature uint16 = 'B'<<8 | 's'

	// Version is the only container version this package understands.
	Version uint16 = 0x13

	// MaxLevels is the largest mip chain a single image may carry.
	MaxLevels = 16

	// headerCRCOffset is where the header checksum coverage starts (the data size field).
	headerCRCOffset = 8
)

// Flags is the header flag set (upstream cBASISHeaderFlag*).
type Flags uint16

const (
	FlagETC1S              Flags = 1 << 0
	FlagYFlipped           Flags = 1 << 1
	FlagHasAlphaSlices     Flags = 1 << 2
	FlagUsesGlobalCodebook Flags = 1 << 3
	FlagSRGB               Flags = 1 << 4
)

// Header is the 77-byte .basis file header.
//
// All multi-byte fields are stored little-endian and packed without padding; several are
// 24-bit.
type Header struct {
	Version     uint16
	HeaderSize  uint16
	HeaderCRC16 uint16

	DataSize  uint32
	DataCRC16 uint16

	TotalSlices uint32
	TotalImages uint32

	Format engine.SourceFormat
	Flags  Flags
	Type   engine.TextureType

	UsPerFrame uint32
	Reserved   uint32
	Userdata0  uint32
	Userdata1  uint32

	TotalEndpoints   uint16
	EndpointCBOffset uint32
	EndpointCBSize   uint32

	TotalSelectors   uint16
	SelectorCBOffset uint32
	SelectorCBSize   uint32

	TablesOffset uint32
	TablesSize   uint32

	SliceDescOffset uint32

	ExtendedOffset uint32
	ExtendedSize   uint32
}

func (h Header) String() string {
	return fmt.Sprintf("basis v%#x %s %s, %d images, %d slices, %d data bytes",
		h.Version, h.Format, h.Type, h.TotalImages, h.TotalSlices, h.DataSize)
}

// HasAlphaSlices reports whether ETC1S slices come in color/alpha pairs.
func (h Header) HasAlphaSlices() bool { return h.Flags&FlagHasAlphaSlices != 0 }

// validate performs the quick structural checks that need only the header and the total
// buffer length.
func (h Header) validate(dataLen int) error {
	if h.Version != Version {
		return fmt.Errorf("basis: unsupported version %#x", h.Version)
	}
	if h.HeaderSize != HeaderSize {
		return fmt.Errorf("basis: invalid header size %d", h.HeaderSize)
	}
	if uint64(dataLen) < HeaderSize+uint64(h.DataSize) {
		return ioErrUnexpectedEOF("basis data", HeaderSize+uint64(h.DataSize), dataLen)
	}
	if h.Format != engine.SourceETC1S && h.Format != engine.SourceUASTC4x4 {
		return fmt.Errorf("basis: invalid texture format %d", uint8(h.Format))
	}
	if h.TotalSlices == 0 || h.TotalImages == 0 {
		return errors.New("basis: invalid header: zero slices or images")
	}
	if h.TotalImages > h.TotalSlices {
		return errors.New("basis: invalid header: more images than slices")
	}
	if h.Format == engine.SourceETC1S && h.HasAlphaSlices() && h.TotalSlices&1 != 0 {
		return errors.New("basis: invalid header: odd slice count with alpha slices")
	}
	if uint64(h.SliceDescOffset) >= uint64(dataLen) ||
		uint64(dataLen)-uint64(h.SliceDescOffset) < uint64(h.TotalSlices)*SliceDescSize {
		return errors.New("basis: invalid header: slice descriptors out of range")
	}
	return nil
}

// ParseHeader parses and quick-validates the header at the start of data.
//
// data must be the complete file: the header's declared data size and slice descriptor
// table are checked against len(data).
func ParseHeader(data []byte) (Header, error) {
	if len(data) <= HeaderSize {
		return Header{}, ioErrUnexpectedEOF("basis header", HeaderSize+1, len(data))
	}
	if decodeU16LE(data[0:2]) != Signature {
		return Header{}, errors.New("basis: invalid signature")
	}

	h := Header{
		Version:     decodeU16LE(data[2:4]),
		HeaderSize:  decodeU16LE(data[4:6]),
		HeaderCRC16: decodeU16LE(data[6:8]),

		DataSize:  decodeU32LE(data[8:12]),
		DataCRC16: decodeU16LE(data[12:14]),

		TotalSlices: decodeU24LE(data[14:17]),
		TotalImages: decodeU24LE(data[17:20]),

		Format: engine.SourceFormat(data[20]),
		Flags:  Flags(decodeU16LE(data[21:23])),
		Type:   engine.TextureType(data[23]),

		UsPerFrame: decodeU24LE(data[24:27]),
		Reserved:   decodeU32LE(data[27:31]),
		Userdata0:  decodeU32LE(data[31:35]),
		Userdata1:  decodeU32LE(data[35:39]),

		TotalEndpoints:   decodeU16LE(data[39:41]),
		EndpointCBOffset: decodeU32LE(data[41:45]),
		EndpointCBSize:   decodeU24LE(data[45:48]),

		TotalSelectors:   decodeU16LE(data[48:50]),
		SelectorCBOffset: decodeU32LE(data[50:54]),
		SelectorCBSize:   decodeU24LE(data[54:57]),

		TablesOffset: decodeU32LE(data[57:61]),
		TablesSize:   decodeU32LE(data[61:65]),

		SliceDescOffset: decodeU32LE(data[65:69]),

		ExtendedOffset: decodeU32LE(data[69:73]),
		ExtendedSize:   decodeU32LE(data[73:77]),
	}
	if err := h.validate(len(data)); err != nil {
		return Header{}, err
	}
	return h, nil
}

// MarshalHeader returns the 77-byte encoding of h.
//
// Checksums are written as given; Assemble computes them.
func MarshalHeader(h Header) ([HeaderSize]byte, error) {
	if h.TotalSlices > 0xFFFFFF || h.TotalImages > 0xFFFFFF || h.UsPerFrame > 0xFFFFFF {
		return [HeaderSize]byte{}, errors.New("basis: header field exceeds 24 bits")
	}
	if h.EndpointCBSize > 0xFFFFFF || h.SelectorCBSize > 0xFFFFFF {
		return [HeaderSize]byte{}, errors.New("basis: codebook size exceeds 24 bits")
	}

	var out [HeaderSize]byte
	encodeU16LE(out[0:2], Signature)
	encodeU16LE(out[2:4], h.Version)
	encodeU16LE(out[4:6], h.HeaderSize)
	encodeU16LE(out[6:8], h.HeaderCRC16)
	encodeU32LE(out[8:12], h.DataSize)
	encodeU16LE(out[12:14], h.DataCRC16)
	encodeU24LE(out[14:17], h.TotalSlices)
	encodeU24LE(out[17:20], h.TotalImages)
	out[20] = byte(h.Format)
	encodeU16LE(out[21:23], uint16(h.Flags))
	out[23] = byte(h.Type)
	encodeU24LE(out[24:27], h.UsPerFrame)
	encodeU32LE(out[27:31], h.Reserved)
	encodeU32LE(out[31:35], h.Userdata0)
	encodeU32LE(out[35:39], h.Userdata1)
	encodeU16LE(out[39:41], h.TotalEndpoints)
	encodeU32LE(out[41:45], h.EndpointCBOffset)
	encodeU24LE(out[45:48], h.EndpointCBSize)
	encodeU16LE(out[48:50], h.TotalSelectors)
	encodeU32LE(out[50:54], h.SelectorCBOffset)
	encodeU24LE(out[54:57], h.SelectorCBSize)
	encodeU32LE(out[57:61], h.TablesOffset)
	encodeU32LE(out[61:65], h.TablesSize)
	encodeU32LE(out[65:69], h.SliceDescOffset)
	encodeU32LE(out[69:73], h.ExtendedOffset)
	encodeU32LE(out[73:77], h.ExtendedSize)
	return out, nil
}

// ValidateChecksums reports whether the header checksum (and, when full is set, the data
// checksum) of data match the values stored in its header.
//
// Malformed input reports false.
func ValidateChecksums(data []byte, full bool) bool {
	h, err := ParseHeader(data)
	if err != nil {
		return false
	}
	if CRC16(0, data[headerCRCOffset:HeaderSize]) != h.HeaderCRC16 {
		return false
	}
	if full && CRC16(0, data[HeaderSize:HeaderSize+int(h.DataSize)]) != h.DataCRC16 {
		return false
	}
	return true
}

func decodeU16LE(b []byte) uint16 {
	_ = b[1]
	return uint16(b[0]) | uint16(b[1])<<8
}

func decodeU24LE(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

func decodeU32LE(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func encodeU16LE(dst []byte, v uint16) {
	_ = dst[1]
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
}

func encodeU24LE(dst []byte, v uint32) {
	_ = dst[2]
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
}

func encodeU32LE(dst []byte, v uint32) {
	_ = dst[3]
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
}

func ioErrUnexpectedEOF(what string, want uint64, got int) error {
	return fmt.Errorf("basis: %s: unexpected EOF: want %d bytes, got %d", what, want, got)
}
