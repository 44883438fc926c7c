package basisu

import (
	"fmt"
	"strings"

	"github.com/fintelia/basisu/basisu/engine"
)

// OutputFormat is a GPU texture format that .basis files can be transcoded to.
//
// Values equal the upstream transcoder_texture_format codes.
type OutputFormat uint32

const (
	// BC1RGB is opaque only.
	BC1RGB = OutputFormat(engine.TFBC1RGB)
	// BC3RGBA is a BC4 alpha block followed by a BC1 block; alpha is opaque for opaque files.
	BC3RGBA = OutputFormat(engine.TFBC3RGBA)
	// BC4R is red only.
	BC4R = OutputFormat(engine.TFBC4R)
	// BC5RG is two BC4 blocks, X=R and Y=alpha.
	BC5RG = OutputFormat(engine.TFBC5RG)
	// BC7RGBA is RGB or RGBA: mode 5 for ETC1S, modes 1,2,3,5,6,7 for UASTC.
	BC7RGBA = OutputFormat(engine.TFBC7RGBA)

	// ETC1RGB is opaque only.
	ETC1RGB = OutputFormat(engine.TFETC1RGB)
	// ETC2RGBA is an ETC2 EAC A8 block followed by an ETC1 block.
	ETC2RGBA = OutputFormat(engine.TFETC2RGBA)
	// ETC2EACR11 is red only (unsigned R11).
	ETC2EACR11 = OutputFormat(engine.TFETC2EACR11)
	// ETC2EACRG11 is R=opaque red, G=alpha (unsigned RG11), for tangent space normal maps.
	ETC2EACRG11 = OutputFormat(engine.TFETC2EACRG11)

	// ASTC4x4RGBA is ASTC 4x4 LDR; alpha is opaque for opaque files.
	ASTC4x4RGBA = OutputFormat(engine.TFASTC4x4RGBA)

	// PVRTC14RGB is PVRTC1 4bpp, opaque only. Requires power-of-two dimensions.
	PVRTC14RGB = OutputFormat(engine.TFPVRTC14RGB)
	// PVRTC14RGBA is PVRTC1 4bpp with alpha. Requires power-of-two dimensions.
	PVRTC14RGBA = OutputFormat(engine.TFPVRTC14RGBA)
	// PVRTC24RGB is PVRTC2 4bpp, opaque only; arbitrary dimensions.
	PVRTC24RGB = OutputFormat(engine.TFPVRTC24RGB)
	// PVRTC24RGBA is PVRTC2 4bpp with alpha; premultiplied alpha is recommended.
	PVRTC24RGBA = OutputFormat(engine.TFPVRTC24RGBA)

	// ATCRGB is ATI ATC (GL_ATC_RGB_AMD), opaque only.
	ATCRGB = OutputFormat(engine.TFATCRGB)
	// ATCRGBA is ATI ATC with interpolated alpha (GL_ATC_RGBA_INTERPOLATED_ALPHA_AMD).
	ATCRGBA = OutputFormat(engine.TFATCRGBA)
	// FXT1RGB is 3DFX FXT1 CC_MIXED blocks, 8x4 texels per block.
	FXT1RGB = OutputFormat(engine.TFFXT1RGB)

	// RGBA32 is 32bpp RGBA in raster order, R first.
	RGBA32 = OutputFormat(engine.TFRGBA32)
	// RGB565 is 16bpp RGB in raster order, R at bit 11.
	RGB565 = OutputFormat(engine.TFRGB565)
	// RGBA4444 is 16bpp RGBA in raster order, R at bit 12, A at bit 0.
	RGBA4444 = OutputFormat(engine.TFRGBA4444)
	// BGR565 is 16bpp RGB in raster order, R at bit 0.
	BGR565 = OutputFormat(engine.TFBGR565)
)

type formatDesc struct {
	name          string
	bytesPerBlock uint32
	blockWidth    uint32
	blockHeight   uint32
	uncompressed  bool
}

var formatDescs = map[OutputFormat]formatDesc{
	BC1RGB:      {"BC1_RGB", 8, 4, 4, false},
	BC3RGBA:     {"BC3_RGBA", 16, 4, 4, false},
	BC4R:        {"BC4_R", 8, 4, 4, false},
	BC5RG:       {"BC5_RG", 16, 4, 4, false},
	BC7RGBA:     {"BC7_RGBA", 16, 4, 4, false},
	ETC1RGB:     {"ETC1_RGB", 8, 4, 4, false},
	ETC2RGBA:    {"ETC2_RGBA", 16, 4, 4, false},
	ETC2EACR11:  {"ETC2_EAC_R11", 8, 4, 4, false},
	ETC2EACRG11: {"ETC2_EAC_RG11", 16, 4, 4, false},
	ASTC4x4RGBA: {"ASTC_4x4_RGBA", 16, 4, 4, false},
	PVRTC14RGB:  {"PVRTC1_4_RGB", 8, 4, 4, false},
	PVRTC14RGBA: {"PVRTC1_4_RGBA", 8, 4, 4, false},
	PVRTC24RGB:  {"PVRTC2_4_RGB", 8, 4, 4, false},
	PVRTC24RGBA: {"PVRTC2_4_RGBA", 8, 4, 4, false},
	ATCRGB:      {"ATC_RGB", 8, 4, 4, false},
	ATCRGBA:     {"ATC_RGBA", 16, 4, 4, false},
	FXT1RGB:     {"FXT1_RGB", 16, 8, 4, false},
	RGBA32:      {"RGBA32", 4, 1, 1, true},
	RGB565:      {"RGB565", 2, 1, 1, true},
	RGBA4444:    {"RGBA4444", 2, 1, 1, true},
	BGR565:      {"BGR565", 2, 1, 1, true},
}

// OutputFormats returns every supported format in code order.
func OutputFormats() []OutputFormat {
	out := make([]OutputFormat, 0, len(formatDescs))
	for f := OutputFormat(0); f < OutputFormat(engine.TFTotalFormats); f++ {
		if _, ok := formatDescs[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Valid reports whether f is a supported format.
func (f OutputFormat) Valid() bool {
	_, ok := formatDescs[f]
	return ok
}

func (f OutputFormat) String() string {
	if d, ok := formatDescs[f]; ok {
		return d.name
	}
	return fmt.Sprintf("OutputFormat(%d)", uint32(f))
}

// BytesPerBlock returns the size of one block, or of one pixel for uncompressed formats.
func (f OutputFormat) BytesPerBlock() uint32 { return formatDescs[f].bytesPerBlock }

// IsUncompressed reports whether f is a raster format addressed per pixel.
func (f OutputFormat) IsUncompressed() bool { return formatDescs[f].uncompressed }

// BlockWidth returns the block width in texels; 1 for uncompressed formats.
func (f OutputFormat) BlockWidth() uint32 { return formatDescs[f].blockWidth }

// BlockHeight returns the block height in texels; 1 for uncompressed formats.
func (f OutputFormat) BlockHeight() uint32 { return formatDescs[f].blockHeight }

// BlocksFor returns how many blocks (pixels, for uncompressed formats) a width x height
// level occupies in f.
func (f OutputFormat) BlocksFor(width, height uint32) uint64 {
	bw, bh := uint64(f.BlockWidth()), uint64(f.BlockHeight())
	if bw == 0 || bh == 0 {
		return 0
	}
	return ((uint64(width) + bw - 1) / bw) * ((uint64(height) + bh - 1) / bh)
}

// ParseOutputFormat parses a format name such as "rgba32", "bc7", "BC7_RGBA" or "astc".
func ParseOutputFormat(s string) (OutputFormat, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("_", "", "-", "").Replace(key)
	for f, d := range formatDescs {
		if strings.ToLower(strings.ReplaceAll(d.name, "_", "")) == key {
			return f, nil
		}
	}
	if f, ok := formatAliases[key]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("basisu: unknown output format %q", s)
}

var formatAliases = map[string]OutputFormat{
	"bc1":    BC1RGB,
	"bc3":    BC3RGBA,
	"bc4":    BC4R,
	"bc5":    BC5RG,
	"bc7":    BC7RGBA,
	"etc1":   ETC1RGB,
	"etc2":   ETC2RGBA,
	"astc":   ASTC4x4RGBA,
	"fxt1":   FXT1RGB,
	"rgba":   RGBA32,
	"rgba8":  RGBA32,
	"eacr11": ETC2EACR11,
}
