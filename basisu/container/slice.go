package container

import "fmt"

// SliceFlags is the per-slice flag set (upstream cSliceDescFlags*).
type SliceFlags uint8

const (
	SliceHasAlpha      SliceFlags = 1 << 0
	SliceFrameIsIFrame SliceFlags = 1 << 1
)

// SliceDesc is one 23-byte slice descriptor. A slice holds the compressed data of one level
// of one image (for ETC1S files with alpha, the color or the alpha half of it).
type SliceDesc struct {
	ImageIndex uint32
	LevelIndex uint8
	Flags      SliceFlags

	OrigWidth  uint16
	OrigHeight uint16

	NumBlocksX uint16
	NumBlocksY uint16

	FileOffset uint32
	FileSize   uint32

	DataCRC16 uint16
}

func (s SliceDesc) String() string {
	return fmt.Sprintf("image %d level %d: %dx%d texels, %dx%d blocks, %d bytes at %d",
		s.ImageIndex, s.LevelIndex, s.OrigWidth, s.OrigHeight,
		s.NumBlocksX, s.NumBlocksY, s.FileSize, s.FileOffset)
}

// HasAlpha reports whether the slice carries alpha data.
func (s SliceDesc) HasAlpha() bool { return s.Flags&SliceHasAlpha != 0 }

func parseSliceDesc(b []byte) SliceDesc {
	_ = b[SliceDescSize-1]
	return SliceDesc{
		ImageIndex: decodeU24LE(b[0:3]),
		LevelIndex: b[3],
		Flags:      SliceFlags(b[4]),
		OrigWidth:  decodeU16LE(b[5:7]),
		OrigHeight: decodeU16LE(b[7:9]),
		NumBlocksX: decodeU16LE(b[9:11]),
		NumBlocksY: decodeU16LE(b[11:13]),
		FileOffset: decodeU32LE(b[13:17]),
		FileSize:   decodeU32LE(b[17:21]),
		DataCRC16:  decodeU16LE(b[21:23]),
	}
}

func marshalSliceDesc(dst []byte, s SliceDesc) error {
	if s.ImageIndex > 0xFFFFFF {
		return fmt.Errorf("basis: slice image index %d exceeds 24 bits", s.ImageIndex)
	}
	_ = dst[SliceDescSize-1]
	encodeU24LE(dst[0:3], s.ImageIndex)
	dst[3] = s.LevelIndex
	dst[4] = byte(s.Flags)
	encodeU16LE(dst[5:7], s.OrigWidth)
	encodeU16LE(dst[7:9], s.OrigHeight)
	encodeU16LE(dst[9:11], s.NumBlocksX)
	encodeU16LE(dst[11:13], s.NumBlocksY)
	encodeU32LE(dst[13:17], s.FileOffset)
	encodeU32LE(dst[17:21], s.FileSize)
	encodeU16LE(dst[21:23], s.DataCRC16)
	return nil
}

// ParseSliceDescs decodes the slice descriptor table described by h.
//
// h must come from ParseHeader(data), which already bounds-checked the table.
func ParseSliceDescs(h Header, data []byte) []SliceDesc {
	descs := make([]SliceDesc, h.TotalSlices)
	off := int(h.SliceDescOffset)
	for i := range descs {
		descs[i] = parseSliceDesc(data[off : off+SliceDescSize])
		off += SliceDescSize
	}
	return descs
}
