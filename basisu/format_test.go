package basisu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintelia/basisu/basisu"
)

func TestOutputFormatCodes(t *testing.T) {
	codes := map[basisu.OutputFormat]uint32{
		basisu.ETC1RGB:     0,
		basisu.ETC2RGBA:    1,
		basisu.BC1RGB:      2,
		basisu.BC3RGBA:     3,
		basisu.BC4R:        4,
		basisu.BC5RG:       5,
		basisu.BC7RGBA:     6,
		basisu.PVRTC14RGB:  8,
		basisu.PVRTC14RGBA: 9,
		basisu.ASTC4x4RGBA: 10,
		basisu.ATCRGB:      11,
		basisu.ATCRGBA:     12,
		basisu.RGBA32:      13,
		basisu.RGB565:      14,
		basisu.BGR565:      15,
		basisu.RGBA4444:    16,
		basisu.FXT1RGB:     17,
		basisu.PVRTC24RGB:  18,
		basisu.PVRTC24RGBA: 19,
		basisu.ETC2EACR11:  20,
		basisu.ETC2EACRG11: 21,
	}
	for f, code := range codes {
		assert.Equal(t, code, uint32(f), "%s", f)
	}
	assert.Len(t, basisu.OutputFormats(), len(codes))
	assert.False(t, basisu.OutputFormat(7).Valid())
	assert.False(t, basisu.OutputFormat(22).Valid())
}

func TestOutputFormatInvariants(t *testing.T) {
	for _, f := range basisu.OutputFormats() {
		assert.Greater(t, f.BytesPerBlock(), uint32(0), "%s", f)
		switch {
		case f.IsUncompressed():
			assert.Equal(t, uint32(1), f.BlockWidth(), "%s", f)
			assert.Equal(t, uint32(1), f.BlockHeight(), "%s", f)
			assert.Contains(t, []uint32{2, 4}, f.BytesPerBlock(), "%s", f)
		case f == basisu.FXT1RGB:
			assert.Equal(t, uint32(8), f.BlockWidth())
			assert.Equal(t, uint32(4), f.BlockHeight())
		default:
			assert.Equal(t, uint32(4), f.BlockWidth(), "%s", f)
			assert.Equal(t, uint32(4), f.BlockHeight(), "%s", f)
			assert.Contains(t, []uint32{8, 16}, f.BytesPerBlock(), "%s", f)
		}

		parsed, err := basisu.ParseOutputFormat(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
	}

	assert.Equal(t, uint32(4), basisu.RGBA32.BytesPerBlock())
	assert.Equal(t, uint32(16), basisu.BC7RGBA.BytesPerBlock())
	assert.Equal(t, uint32(8), basisu.BC1RGB.BytesPerBlock())
	assert.Equal(t, uint64(2), basisu.FXT1RGB.BlocksFor(9, 4))
	assert.Equal(t, uint64(6), basisu.BC7RGBA.BlocksFor(12, 5))
	assert.Equal(t, uint64(35), basisu.RGBA32.BlocksFor(7, 5))
}

func TestParseOutputFormat(t *testing.T) {
	cases := map[string]basisu.OutputFormat{
		"rgba32":       basisu.RGBA32,
		"RGBA":         basisu.RGBA32,
		"bc7":          basisu.BC7RGBA,
		"BC7_RGBA":     basisu.BC7RGBA,
		"astc":         basisu.ASTC4x4RGBA,
		"etc2-rgba":    basisu.ETC2RGBA,
		"pvrtc1_4_rgb": basisu.PVRTC14RGB,
	}
	for in, want := range cases {
		got, err := basisu.ParseOutputFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := basisu.ParseOutputFormat("png")
	assert.Error(t, err)
}
