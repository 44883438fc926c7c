package wasm_test

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintelia/basisu/basisu"
	"github.com/fintelia/basisu/basisu/container"
	"github.com/fintelia/basisu/basisu/engine"
	"github.com/fintelia/basisu/basisu/wasm"
)

// emptyModule is the smallest valid wasm binary: magic and version, no sections.
var emptyModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func TestNewRejectsInvalidModule(t *testing.T) {
	ctx := context.Background()

	_, err := wasm.New(ctx, []byte("not wasm"))
	assert.ErrorContains(t, err, "compile failed")

	_, err = wasm.New(ctx, emptyModule)
	assert.Error(t, err)
}

// BASISU_TRANSCODER_WASM names a wasm32-wasi build of the basist bridge.
func loadGuest(t *testing.T) *wasm.Backend {
	t.Helper()
	path := os.Getenv("BASISU_TRANSCODER_WASM")
	if path == "" {
		t.Skip("BASISU_TRANSCODER_WASM not set")
	}
	wasmBytes, err := os.ReadFile(path)
	require.NoError(t, err)
	ctx := context.Background()
	b, err := wasm.NewWithConfig(ctx, wasmBytes, &wasm.Config{MemoryLimitPages: 4096})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close(ctx) })
	return b
}

func TestGuestMetadataMatchesStructural(t *testing.T) {
	b := loadGuest(t)

	data, err := container.Assemble(container.Layout{
		Header: container.Header{TotalImages: 1, Format: engine.SourceUASTC4x4, Type: engine.Texture2D, Flags: container.FlagSRGB},
		Slices: []container.Slice{
			{
				Desc: container.SliceDesc{OrigWidth: 8, OrigHeight: 6, NumBlocksX: 2, NumBlocksY: 2},
				Data: bytes.Repeat([]byte{0}, 4*16),
			},
		},
	})
	require.NoError(t, err)

	lib := basisu.NewLibrary(b)
	tr := lib.NewTranscoder()
	defer tr.Close()
	g := basisu.NewLibrary(container.Backend()).NewTranscoder()
	defer g.Close()

	assert.Greater(t, lib.SelectorCodebook().Size(), 0)
	assert.True(t, tr.ValidateFileHeader(data))
	assert.True(t, tr.ValidateFileChecksums(data, true))
	assert.Equal(t, uint32(1), tr.TotalImages(data))

	want, err := g.FileInfo(data)
	require.NoError(t, err)
	got, err := tr.FileInfo(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	ft, err := tr.StartTranscoding(data)
	require.NoError(t, err)
	w, h, err := ft.LevelDimensions(0, 0)
	require.NoError(t, err)
	assert.Equal(t, [2]uint32{8, 8}, [2]uint32{w, h})

	// The payload is not meaningful UASTC; only determinism is checked.
	out, err1 := ft.Transcode(0, 0, basisu.RGBA32)
	again, err2 := ft.Transcode(0, 0, basisu.RGBA32)
	assert.Equal(t, basisu.ErrorCodeOf(err1), basisu.ErrorCodeOf(err2))
	assert.Equal(t, out, again)

	_, err = tr.StartTranscoding(data[:len(data)-1])
	assert.Equal(t, basisu.ErrInvalidFileContents, basisu.ErrorCodeOf(err))
}
