package engine

import "fmt"

// TextureFormat is an output format code, numerically equal to upstream
// basist::transcoder_texture_format.
type TextureFormat uint32

const (
	TFETC1RGB      TextureFormat = 0
	TFETC2RGBA     TextureFormat = 1
	TFBC1RGB       TextureFormat = 2
	TFBC3RGBA      TextureFormat = 3
	TFBC4R         TextureFormat = 4
	TFBC5RG        TextureFormat = 5
	TFBC7RGBA      TextureFormat = 6
	TFPVRTC14RGB   TextureFormat = 8
	TFPVRTC14RGBA  TextureFormat = 9
	TFASTC4x4RGBA  TextureFormat = 10
	TFATCRGB       TextureFormat = 11
	TFATCRGBA      TextureFormat = 12
	TFRGBA32       TextureFormat = 13
	TFRGB565       TextureFormat = 14
	TFBGR565       TextureFormat = 15
	TFRGBA4444     TextureFormat = 16
	TFFXT1RGB      TextureFormat = 17
	TFPVRTC24RGB   TextureFormat = 18
	TFPVRTC24RGBA  TextureFormat = 19
	TFETC2EACR11   TextureFormat = 20
	TFETC2EACRG11  TextureFormat = 21
	TFTotalFormats TextureFormat = 22
)

// SourceFormat is the intermediate representation stored in a .basis file.
type SourceFormat uint8

const (
	SourceETC1S    SourceFormat = 0
	SourceUASTC4x4 SourceFormat = 1
)

func (f SourceFormat) String() string {
	switch f {
	case SourceETC1S:
		return "ETC1S"
	case SourceUASTC4x4:
		return "UASTC4x4"
	default:
		return fmt.Sprintf("SourceFormat(%d)", uint8(f))
	}
}

// TextureType is the upstream basis_texture_type.
type TextureType uint8

const (
	Texture2D          TextureType = 0
	Texture2DArray     TextureType = 1
	TextureCubemap     TextureType = 2
	TextureVideoFrames TextureType = 3
	TextureVolume      TextureType = 4
)

func (t TextureType) String() string {
	switch t {
	case Texture2D:
		return "2D"
	case Texture2DArray:
		return "2DArray"
	case TextureCubemap:
		return "CubemapArray"
	case TextureVideoFrames:
		return "VideoFrames"
	case TextureVolume:
		return "Volume"
	default:
		return fmt.Sprintf("TextureType(%d)", uint8(t))
	}
}

// LevelInfo describes one mip level of one image.
type LevelInfo struct {
	ImageIndex uint32
	LevelIndex uint32

	// OrigWidth and OrigHeight are the level's real dimensions in texels.
	OrigWidth  uint32
	OrigHeight uint32

	// Width and Height are padded up to whole 4x4 blocks.
	Width  uint32
	Height uint32

	NumBlocksX  uint32
	NumBlocksY  uint32
	TotalBlocks uint32

	FirstSliceIndex uint32
	HasAlpha        bool
	IFrame          bool
}

// FileInfo summarizes a .basis file.
type FileInfo struct {
	Version     uint16
	TotalSlices uint32
	TotalImages uint32
	Format      SourceFormat
	Type        TextureType
	YFlipped    bool
	HasAlpha    bool
	SRGB        bool
	UsPerFrame  uint32
	Userdata0   uint32
	Userdata1   uint32

	// ImageLevels holds the level count of every image, indexed by image.
	ImageLevels []uint32
}
