package container_test

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintelia/basisu/basisu/container"
	"github.com/fintelia/basisu/basisu/engine"
)

func uastcLayout() container.Layout {
	return container.Layout{
		Header: container.Header{
			TotalImages: 1,
			Format:      engine.SourceUASTC4x4,
			Type:        engine.Texture2D,
			Userdata0:   7,
		},
		Slices: []container.Slice{
			{
				Desc: container.SliceDesc{ImageIndex: 0, LevelIndex: 0, OrigWidth: 8, OrigHeight: 6, NumBlocksX: 2, NumBlocksY: 2},
				Data: bytes.Repeat([]byte{0xA5}, 4*16),
			},
			{
				Desc: container.SliceDesc{ImageIndex: 0, LevelIndex: 1, OrigWidth: 4, OrigHeight: 3, NumBlocksX: 1, NumBlocksY: 1},
				Data: bytes.Repeat([]byte{0x5A}, 16),
			},
		},
	}
}

func etc1sAlphaLayout() container.Layout {
	return container.Layout{
		Header: container.Header{
			TotalImages:    2,
			Format:         engine.SourceETC1S,
			Flags:          container.FlagETC1S | container.FlagHasAlphaSlices,
			Type:           engine.Texture2DArray,
			TotalEndpoints: 1,
			TotalSelectors: 1,
		},
		EndpointCB: []byte{1, 2, 3},
		SelectorCB: []byte{4, 5, 6},
		Tables:     []byte{7, 8, 9},
		Slices: []container.Slice{
			{Desc: container.SliceDesc{ImageIndex: 0, OrigWidth: 4, OrigHeight: 4, NumBlocksX: 1, NumBlocksY: 1}, Data: []byte{1}},
			{Desc: container.SliceDesc{ImageIndex: 0, Flags: container.SliceHasAlpha, OrigWidth: 4, OrigHeight: 4, NumBlocksX: 1, NumBlocksY: 1}, Data: []byte{2}},
			{Desc: container.SliceDesc{ImageIndex: 1, OrigWidth: 5, OrigHeight: 5, NumBlocksX: 2, NumBlocksY: 2}, Data: []byte{3}},
			{Desc: container.SliceDesc{ImageIndex: 1, Flags: container.SliceHasAlpha, OrigWidth: 5, OrigHeight: 5, NumBlocksX: 2, NumBlocksY: 2}, Data: []byte{4}},
		},
	}
}

func TestCRC16(t *testing.T) {
	assert.Equal(t, uint16(0), container.CRC16(0, nil))
	// Incremental updates match a single pass.
	data := []byte("123456789")
	assert.Equal(t, container.CRC16(0, data), container.CRC16(container.CRC16(0, data[:4]), data[4:]))
	assert.NotEqual(t, container.CRC16(0, []byte{0}), container.CRC16(0, []byte{1}))
}

func TestHeaderRoundTrip(t *testing.T) {
	h := container.Header{
		Version:          container.Version,
		HeaderSize:       container.HeaderSize,
		HeaderCRC16:      0x1234,
		DataSize:         container.SliceDescSize + 16,
		DataCRC16:        0xBEEF,
		TotalSlices:      1,
		TotalImages:      1,
		Format:           engine.SourceUASTC4x4,
		Flags:            container.FlagSRGB | container.FlagYFlipped,
		Type:             engine.TextureVideoFrames,
		UsPerFrame:       33333,
		Reserved:         0xFFFFFFFF,
		Userdata0:        1,
		Userdata1:        2,
		TotalEndpoints:   10,
		EndpointCBOffset: 100,
		EndpointCBSize:   0xABCDEF,
		TotalSelectors:   11,
		SelectorCBOffset: 120,
		SelectorCBSize:   21,
		TablesOffset:     141,
		TablesSize:       9,
		SliceDescOffset:  container.HeaderSize,
		ExtendedOffset:   5,
		ExtendedSize:     6,
	}
	enc, err := container.MarshalHeader(h)
	require.NoError(t, err)
	assert.Equal(t, []byte("sB"), enc[0:2])

	file := append(enc[:], make([]byte, h.DataSize)...)
	got, err := container.ParseHeader(file)
	require.NoError(t, err)
	if diff := cmp.Diff(h, got); diff != "" {
		t.Fatalf("header round-trip mismatch (-want +got):\n%s", diff)
	}

	h.TotalSlices = 1 << 24
	_, err = container.MarshalHeader(h)
	assert.Error(t, err)
}

func TestAssembleParse(t *testing.T) {
	l := uastcLayout()
	data, err := container.Assemble(l)
	require.NoError(t, err)

	f, err := container.Parse(data)
	require.NoError(t, err)

	assert.Equal(t, container.Version, f.Header.Version)
	assert.Equal(t, uint32(2), f.Header.TotalSlices)
	assert.Equal(t, uint32(len(data)-container.HeaderSize), f.Header.DataSize)

	want := []container.SliceDesc{
		{ImageIndex: 0, LevelIndex: 0, OrigWidth: 8, OrigHeight: 6, NumBlocksX: 2, NumBlocksY: 2},
		{ImageIndex: 0, LevelIndex: 1, OrigWidth: 4, OrigHeight: 3, NumBlocksX: 1, NumBlocksY: 1},
	}
	ignoreLayout := cmp.Transformer("layout", func(s container.SliceDesc) container.SliceDesc {
		s.FileOffset, s.FileSize, s.DataCRC16 = 0, 0, 0
		return s
	})
	if diff := cmp.Diff(want, f.Slices, ignoreLayout); diff != "" {
		t.Fatalf("slice descriptors mismatch (-want +got):\n%s", diff)
	}

	for i, s := range f.Slices {
		got := data[s.FileOffset : s.FileOffset+s.FileSize]
		assert.Equal(t, l.Slices[i].Data, got, "slice %d payload", i)
	}
}

func TestValidateChecksums(t *testing.T) {
	data, err := container.Assemble(uastcLayout())
	require.NoError(t, err)

	assert.True(t, container.ValidateChecksums(data, false))
	assert.True(t, container.ValidateChecksums(data, true))

	// Flip a payload byte: the header CRC still matches, the data CRC does not.
	corrupt := bytes.Clone(data)
	corrupt[len(corrupt)-1] ^= 0xFF
	assert.True(t, container.ValidateChecksums(corrupt, false))
	assert.False(t, container.ValidateChecksums(corrupt, true))

	// Flip a header byte covered by the header CRC.
	corrupt = bytes.Clone(data)
	corrupt[31] ^= 0xFF // userdata0
	assert.False(t, container.ValidateChecksums(corrupt, false))

	assert.False(t, container.ValidateChecksums(data[:4], false))
	assert.False(t, container.ValidateChecksums(nil, true))
}

func TestParseRejects(t *testing.T) {
	data, err := container.Assemble(uastcLayout())
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"truncated to 4 bytes", func(b []byte) []byte { return b[:4] }},
		{"truncated header", func(b []byte) []byte { return b[:container.HeaderSize] }},
		{"truncated data", func(b []byte) []byte { return b[:len(b)-1] }},
		{"bad signature", func(b []byte) []byte { b[0] = 'x'; return b }},
		{"bad version", func(b []byte) []byte { b[2] = 0x12; return b }},
		{"bad header size", func(b []byte) []byte { b[4] = 76; return b }},
		{"bad format", func(b []byte) []byte { b[20] = 9; return b }},
		{"zero images", func(b []byte) []byte { b[17] = 0; return b }},
		{"image index out of range", func(b []byte) []byte { b[container.HeaderSize] = 1; return b }},
		{"level out of range", func(b []byte) []byte { b[container.HeaderSize+3] = container.MaxLevels; return b }},
		{"zero blocks", func(b []byte) []byte { b[container.HeaderSize+9] = 0; return b }},
		{"slice offset past end", func(b []byte) []byte { b[container.HeaderSize+16] = 0xFF; return b }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := container.Parse(tc.mutate(bytes.Clone(data)))
			assert.Error(t, err)
		})
	}
}

func TestFileQueries(t *testing.T) {
	data, err := container.Assemble(uastcLayout())
	require.NoError(t, err)
	f, err := container.Parse(data)
	require.NoError(t, err)

	assert.Equal(t, uint32(2), f.TotalImageLevels(0))
	assert.Equal(t, uint32(0), f.TotalImageLevels(1))

	info, ok := f.LevelInfo(0, 0)
	require.True(t, ok)
	assert.Equal(t, engine.LevelInfo{
		ImageIndex: 0, LevelIndex: 0,
		OrigWidth: 8, OrigHeight: 6,
		Width: 8, Height: 8,
		NumBlocksX: 2, NumBlocksY: 2, TotalBlocks: 4,
	}, info)

	info, ok = f.LevelInfo(0, 1)
	require.True(t, ok)
	assert.Equal(t, uint32(1), info.FirstSliceIndex)

	_, ok = f.LevelInfo(0, 2)
	assert.False(t, ok)
	_, ok = f.LevelInfo(1, 0)
	assert.False(t, ok)

	fi := f.Info()
	assert.Equal(t, engine.SourceUASTC4x4, fi.Format)
	assert.Equal(t, uint32(7), fi.Userdata0)
	assert.Equal(t, []uint32{2}, fi.ImageLevels)
	assert.True(t, f.ValidateSliceChecksums(data))
}

func TestETC1SAlphaSlices(t *testing.T) {
	data, err := container.Assemble(etc1sAlphaLayout())
	require.NoError(t, err)
	f, err := container.Parse(data)
	require.NoError(t, err)

	assert.Equal(t, 0, f.FindSlice(0, 0, false))
	assert.Equal(t, 1, f.FindSlice(0, 0, true))
	assert.Equal(t, 2, f.FindSlice(1, 0, false))
	assert.Equal(t, 3, f.FindSlice(1, 0, true))
	assert.Equal(t, -1, f.FindSlice(2, 0, false))

	assert.Equal(t, uint32(1), f.TotalImageLevels(0))
	assert.Equal(t, uint32(1), f.TotalImageLevels(1))

	info, ok := f.LevelInfo(1, 0)
	require.True(t, ok)
	assert.True(t, info.HasAlpha)
	assert.Equal(t, uint32(5), info.OrigWidth)
	assert.Equal(t, uint32(8), info.Width)

	fi := f.Info()
	assert.True(t, fi.HasAlpha)
	assert.Equal(t, engine.Texture2DArray, fi.Type)

	// Breaking the pairing is rejected.
	l := etc1sAlphaLayout()
	l.Slices[1].Desc.Flags = 0
	_, err = container.Assemble(l)
	assert.Error(t, err)

	// ETC1S needs its codebooks.
	l = etc1sAlphaLayout()
	l.Tables = nil
	_, err = container.Assemble(l)
	assert.Error(t, err)
}

func TestStructuralBackend(t *testing.T) {
	data, err := container.Assemble(uastcLayout())
	require.NoError(t, err)

	b := container.Backend()
	assert.Equal(t, "go", b.Name())
	b.Init()
	cb := b.NewSelectorCodebook()
	assert.Equal(t, 0, cb.Size())

	e := b.NewEngine(cb)
	defer e.Close()

	assert.True(t, e.ValidateHeader(data))
	assert.True(t, e.ValidateFileChecksums(data, true))
	assert.Equal(t, uint32(1), e.TotalImages(data))
	assert.Equal(t, uint32(2), e.TotalImageLevels(data, 0))
	assert.True(t, e.StartTranscoding(data))

	_, ok := e.ImageLevelInfo(data, 0, 1)
	assert.True(t, ok)

	out := make([]byte, 64)
	assert.False(t, e.TranscodeImageLevel(data, 0, 0, out, 4, engine.TFASTC4x4RGBA))

	assert.False(t, e.ValidateHeader(data[:4]))
	assert.Equal(t, uint32(0), e.TotalImages(data[:4]))
	assert.False(t, e.StartTranscoding(data[:4]))
}
