package container

import (
	"errors"
	"fmt"

	"github.com/fintelia/basisu/basisu/engine"
)

// File is a parsed .basis file. It aliases nothing: slice data is addressed through the
// offsets in Slices against the buffer that was parsed.
type File struct {
	Header Header
	Slices []SliceDesc
}

// Parse parses data and validates its structure: every slice descriptor must address an
// existing image, stay inside the data area, and (for ETC1S files with alpha) come in
// color/alpha pairs. Checksums are not verified; see ValidateChecksums.
func Parse(data []byte) (*File, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	f := &File{Header: h, Slices: ParseSliceDescs(h, data)}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) dataEnd() uint64 { return HeaderSize + uint64(f.Header.DataSize) }

func (f *File) inData(off, size uint32) bool {
	return uint64(off) >= HeaderSize && uint64(off)+uint64(size) <= f.dataEnd()
}

func (f *File) validate() error {
	h := f.Header
	if h.Format == engine.SourceETC1S {
		if h.EndpointCBSize == 0 || h.SelectorCBSize == 0 || h.TablesSize == 0 {
			return errors.New("basis: ETC1S file without codebooks or tables")
		}
		if !f.inData(h.EndpointCBOffset, h.EndpointCBSize) ||
			!f.inData(h.SelectorCBOffset, h.SelectorCBSize) ||
			!f.inData(h.TablesOffset, h.TablesSize) {
			return errors.New("basis: ETC1S codebooks out of range")
		}
	}
	if h.ExtendedSize != 0 && !f.inData(h.ExtendedOffset, h.ExtendedSize) {
		return errors.New("basis: extended data out of range")
	}

	pairs := h.Format == engine.SourceETC1S && h.HasAlphaSlices()
	seen := make([]bool, h.TotalImages)
	for i, s := range f.Slices {
		if s.ImageIndex >= h.TotalImages {
			return fmt.Errorf("basis: slice %d: image index %d out of range", i, s.ImageIndex)
		}
		if s.LevelIndex >= MaxLevels {
			return fmt.Errorf("basis: slice %d: level index %d out of range", i, s.LevelIndex)
		}
		if s.NumBlocksX == 0 || s.NumBlocksY == 0 || s.OrigWidth == 0 || s.OrigHeight == 0 {
			return fmt.Errorf("basis: slice %d: zero dimension", i)
		}
		if (uint32(s.OrigWidth)+3)/4 != uint32(s.NumBlocksX) || (uint32(s.OrigHeight)+3)/4 != uint32(s.NumBlocksY) {
			return fmt.Errorf("basis: slice %d: block count does not match %dx%d", i, s.OrigWidth, s.OrigHeight)
		}
		if s.FileSize == 0 || !f.inData(s.FileOffset, s.FileSize) {
			return fmt.Errorf("basis: slice %d: data out of range", i)
		}
		if pairs {
			wantAlpha := i&1 == 1
			if s.HasAlpha() != wantAlpha {
				return fmt.Errorf("basis: slice %d: alpha slice pairing broken", i)
			}
			if wantAlpha {
				c := f.Slices[i-1]
				if c.ImageIndex != s.ImageIndex || c.LevelIndex != s.LevelIndex ||
					c.NumBlocksX != s.NumBlocksX || c.NumBlocksY != s.NumBlocksY {
					return fmt.Errorf("basis: slice %d: alpha slice does not match its color slice", i)
				}
			}
		}
		if s.LevelIndex == 0 {
			seen[s.ImageIndex] = true
		}
	}
	for i, ok := range seen {
		if !ok {
			return fmt.Errorf("basis: image %d has no base level", i)
		}
	}
	return nil
}

// ValidateSliceChecksums reports whether every slice's data matches its descriptor CRC.
// data must be the buffer f was parsed from.
func (f *File) ValidateSliceChecksums(data []byte) bool {
	if uint64(len(data)) < f.dataEnd() {
		return false
	}
	for _, s := range f.Slices {
		off := int(s.FileOffset)
		if CRC16(0, data[off:off+int(s.FileSize)]) != s.DataCRC16 {
			return false
		}
	}
	return true
}

// FindSlice returns the index of the slice holding the addressed level, or -1.
//
// For ETC1S files with alpha slices, alpha selects the alpha half of the pair.
func (f *File) FindSlice(imageIndex, levelIndex uint32, alpha bool) int {
	etc1s := f.Header.Format == engine.SourceETC1S
	for i, s := range f.Slices {
		if s.ImageIndex != imageIndex || uint32(s.LevelIndex) != levelIndex {
			continue
		}
		if etc1s && s.HasAlpha() != alpha {
			continue
		}
		return i
	}
	return -1
}

// TotalImageLevels returns the number of mip levels of imageIndex, or 0 when the image does
// not exist.
func (f *File) TotalImageLevels(imageIndex uint32) uint32 {
	if imageIndex >= f.Header.TotalImages {
		return 0
	}
	first := -1
	for i, s := range f.Slices {
		if s.ImageIndex == imageIndex {
			first = i
			break
		}
	}
	if first < 0 {
		return 0
	}

	levels := uint32(1)
	for _, s := range f.Slices[first+1:] {
		if s.ImageIndex != imageIndex {
			break
		}
		levels = max(levels, uint32(s.LevelIndex)+1)
	}
	if levels > MaxLevels {
		return 0
	}
	return levels
}

// LevelInfo describes the addressed level. ok is false when it does not exist.
func (f *File) LevelInfo(imageIndex, levelIndex uint32) (info engine.LevelInfo, ok bool) {
	idx := f.FindSlice(imageIndex, levelIndex, false)
	if idx < 0 {
		return engine.LevelInfo{}, false
	}
	s := f.Slices[idx]

	hasAlpha := s.HasAlpha()
	if f.Header.Format == engine.SourceETC1S {
		hasAlpha = f.Header.HasAlphaSlices()
	}

	return engine.LevelInfo{
		ImageIndex:      imageIndex,
		LevelIndex:      levelIndex,
		OrigWidth:       uint32(s.OrigWidth),
		OrigHeight:      uint32(s.OrigHeight),
		Width:           uint32(s.NumBlocksX) * 4,
		Height:          uint32(s.NumBlocksY) * 4,
		NumBlocksX:      uint32(s.NumBlocksX),
		NumBlocksY:      uint32(s.NumBlocksY),
		TotalBlocks:     uint32(s.NumBlocksX) * uint32(s.NumBlocksY),
		FirstSliceIndex: uint32(idx),
		HasAlpha:        hasAlpha,
		IFrame:          s.Flags&SliceFrameIsIFrame != 0,
	}, true
}

// Info summarizes the file.
func (f *File) Info() engine.FileInfo {
	h := f.Header
	info := engine.FileInfo{
		Version:     h.Version,
		TotalSlices: h.TotalSlices,
		TotalImages: h.TotalImages,
		Format:      h.Format,
		Type:        h.Type,
		YFlipped:    h.Flags&FlagYFlipped != 0,
		HasAlpha:    h.HasAlphaSlices(),
		SRGB:        h.Flags&FlagSRGB != 0,
		UsPerFrame:  h.UsPerFrame,
		Userdata0:   h.Userdata0,
		Userdata1:   h.Userdata1,
		ImageLevels: make([]uint32, h.TotalImages),
	}
	if h.Format == engine.SourceUASTC4x4 {
		for _, s := range f.Slices {
			if s.HasAlpha() {
				info.HasAlpha = true
				break
			}
		}
	}
	for i := range info.ImageLevels {
		info.ImageLevels[i] = f.TotalImageLevels(uint32(i))
	}
	return info
}
