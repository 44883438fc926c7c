//go:build basisu_native && cgo

package native

import (
	"sync"
	"unsafe"

	"github.com/fintelia/basisu/basisu/container"
	"github.com/fintelia/basisu/basisu/engine"
	"github.com/fintelia/basisu/basisu/native/internal/basist"
)

func Enabled() bool { return true }

func Backend() (engine.Backend, error) { return nativeBackend{}, nil }

type nativeBackend struct{}

func (nativeBackend) Name() string { return "native" }

// initOnce guards the upstream global tables, which are shared by the whole process.
var initOnce = sync.OnceFunc(basist.Init)

func (nativeBackend) Init() { initOnce() }

func (nativeBackend) NewSelectorCodebook() engine.SelectorCodebook {
	return &codebook{p: basist.CodebookNew()}
}

func (nativeBackend) NewEngine(cb engine.SelectorCodebook) engine.Engine {
	c, ok := cb.(*codebook)
	if !ok || c.p == nil {
		panic("basisu/native: selector codebook was not built by the native backend")
	}
	return &nativeEngine{t: basist.TranscoderNew(c.p), cb: c}
}

// codebook owns the upstream global selector codebook. It is never freed.
type codebook struct {
	p unsafe.Pointer
}

func (c *codebook) Size() int { return basist.CodebookSize(c.p) }

// nativeEngine wraps one upstream basisu_transcoder.
//
// nativeEngine is not safe for concurrent use.
type nativeEngine struct {
	t  unsafe.Pointer
	cb *codebook
}

func (e *nativeEngine) ValidateFileChecksums(data []byte, full bool) bool {
	return basist.ValidateFileChecksums(e.t, data, full)
}

func (e *nativeEngine) ValidateHeader(data []byte) bool {
	return basist.ValidateHeader(e.t, data)
}

func (e *nativeEngine) TotalImages(data []byte) uint32 {
	return basist.TotalImages(e.t, data)
}

func (e *nativeEngine) TotalImageLevels(data []byte, imageIndex uint32) uint32 {
	return basist.TotalImageLevels(e.t, data, imageIndex)
}

func (e *nativeEngine) ImageLevelInfo(data []byte, imageIndex, levelIndex uint32) (engine.LevelInfo, bool) {
	li, ok := basist.ImageLevelInfo(e.t, data, imageIndex, levelIndex)
	if !ok {
		return engine.LevelInfo{}, false
	}
	return engine.LevelInfo{
		ImageIndex:      li.ImageIndex,
		LevelIndex:      li.LevelIndex,
		OrigWidth:       li.OrigWidth,
		OrigHeight:      li.OrigHeight,
		Width:           li.Width,
		Height:          li.Height,
		NumBlocksX:      li.NumBlocksX,
		NumBlocksY:      li.NumBlocksY,
		TotalBlocks:     li.TotalBlocks,
		FirstSliceIndex: li.FirstSliceIndex,
		HasAlpha:        li.AlphaFlag,
		IFrame:          li.IFrameFlag,
	}, true
}

func (e *nativeEngine) FileInfo(data []byte) (engine.FileInfo, bool) {
	fi, ok := basist.GetFileInfo(e.t, data)
	if !ok {
		return engine.FileInfo{}, false
	}
	// The upstream file info does not carry the sRGB flag.
	var srgb bool
	if h, err := container.ParseHeader(data); err == nil {
		srgb = h.Flags&container.FlagSRGB != 0
	}
	return engine.FileInfo{
		Version:     uint16(fi.Version),
		TotalSlices: fi.TotalSlices,
		TotalImages: fi.TotalImages,
		Format:      engine.SourceFormat(fi.TexFormat),
		Type:        engine.TextureType(fi.TexType),
		YFlipped:    fi.YFlipped,
		HasAlpha:    fi.HasAlphaSlices,
		SRGB:        srgb,
		UsPerFrame:  fi.UsPerFrame,
		Userdata0:   fi.Userdata0,
		Userdata1:   fi.Userdata1,
		ImageLevels: fi.ImageLevels,
	}, true
}

func (e *nativeEngine) StartTranscoding(data []byte) bool {
	return basist.StartTranscoding(e.t, data)
}

func (e *nativeEngine) TranscodeImageLevel(data []byte, imageIndex, levelIndex uint32, out []byte, outBlocks uint32, format engine.TextureFormat) bool {
	return basist.TranscodeImageLevel(e.t, data, imageIndex, levelIndex, out, outBlocks, uint32(format))
}

func (e *nativeEngine) Close() {
	basist.TranscoderDelete(e.t)
	e.t = nil
}
