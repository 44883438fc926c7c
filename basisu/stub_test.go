package basisu_test

import (
	"bytes"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fintelia/basisu/basisu/container"
	"github.com/fintelia/basisu/basisu/engine"
)

// stubBackend answers metadata queries through the structural engine and "transcodes" by
// filling the output with a pattern derived from the slice payload and the format.
type stubBackend struct {
	inits     atomic.Int32
	codebooks atomic.Int32
	engines   atomic.Int32
	closes    atomic.Int32

	// lastOut is the length of the last output slice the engine received.
	lastOut atomic.Int64

	initPanic bool
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) Init() {
	b.inits.Add(1)
	if b.initPanic {
		panic("stub: init failed")
	}
}

func (b *stubBackend) NewSelectorCodebook() engine.SelectorCodebook {
	b.codebooks.Add(1)
	return &stubCodebook{}
}

func (b *stubBackend) NewEngine(cb engine.SelectorCodebook) engine.Engine {
	b.engines.Add(1)
	return &stubEngine{StructuralEngine: &container.StructuralEngine{}, b: b, cb: cb}
}

type stubCodebook struct{}

func (*stubCodebook) Size() int { return 1 }

type stubEngine struct {
	*container.StructuralEngine
	b  *stubBackend
	cb engine.SelectorCodebook

	// ready mirrors the upstream per-file state, which is dropped before a new file is
	// validated.
	ready bool
}

func (e *stubEngine) StartTranscoding(data []byte) bool {
	e.ready = false
	e.ready = e.StructuralEngine.StartTranscoding(data)
	return e.ready
}

func (e *stubEngine) TranscodeImageLevel(data []byte, imageIndex, levelIndex uint32, out []byte, outBlocks uint32, format engine.TextureFormat) bool {
	e.b.lastOut.Store(int64(len(out)))
	if !e.ready {
		return false
	}
	f, err := container.Parse(data)
	if err != nil {
		return false
	}
	info, ok := f.LevelInfo(imageIndex, levelIndex)
	if !ok {
		return false
	}
	s := f.Slices[info.FirstSliceIndex]
	payload := data[s.FileOffset : s.FileOffset+s.FileSize]
	for i := range out {
		out[i] = payload[i%len(payload)] ^ byte(format) ^ byte(i)
	}
	return true
}

func (e *stubEngine) Close() { e.b.closes.Add(1) }

// fixture is a UASTC file with two images: image 0 has an 8x6 level and a 4x3 level,
// image 1 has a single 5x5 level.
func fixture(t testing.TB) []byte {
	t.Helper()
	data, err := container.Assemble(container.Layout{
		Header: container.Header{
			TotalImages: 2,
			Format:      engine.SourceUASTC4x4,
			Type:        engine.Texture2DArray,
		},
		Slices: []container.Slice{
			{
				Desc: container.SliceDesc{ImageIndex: 0, LevelIndex: 0, OrigWidth: 8, OrigHeight: 6, NumBlocksX: 2, NumBlocksY: 2},
				Data: bytes.Repeat([]byte{0x11, 0x22, 0x33}, 16),
			},
			{
				Desc: container.SliceDesc{ImageIndex: 0, LevelIndex: 1, OrigWidth: 4, OrigHeight: 3, NumBlocksX: 1, NumBlocksY: 1},
				Data: bytes.Repeat([]byte{0x44}, 16),
			},
			{
				Desc: container.SliceDesc{ImageIndex: 1, LevelIndex: 0, OrigWidth: 5, OrigHeight: 5, NumBlocksX: 2, NumBlocksY: 2},
				Data: bytes.Repeat([]byte{0x55, 0x66}, 32),
			},
		},
	})
	require.NoError(t, err)
	return data
}
