package container

import "github.com/fintelia/basisu/basisu/engine"

// Backend returns the pure-Go structural backend.
//
// It answers every validation and metadata query from the container layout alone. It does
// not decode slice payloads, so TranscodeImageLevel always reports failure; use the native or
// wasm backend to produce texels.
func Backend() engine.Backend { return structuralBackend{} }

type structuralBackend struct{}

func (structuralBackend) Name() string { return "go" }

func (structuralBackend) Init() {}

func (structuralBackend) NewSelectorCodebook() engine.SelectorCodebook { return emptyCodebook{} }

func (structuralBackend) NewEngine(engine.SelectorCodebook) engine.Engine {
	return &StructuralEngine{}
}

type emptyCodebook struct{}

func (emptyCodebook) Size() int { return 0 }

// StructuralEngine implements engine.Engine on top of Parse. It holds no state: every query
// parses the buffer it is given, so nothing is retained between calls.
type StructuralEngine struct{}

var _ engine.Engine = (*StructuralEngine)(nil)

func (e *StructuralEngine) parse(data []byte) (*File, bool) {
	f, err := Parse(data)
	if err != nil {
		return nil, false
	}
	return f, true
}

func (e *StructuralEngine) ValidateFileChecksums(data []byte, full bool) bool {
	if !ValidateChecksums(data, full) {
		return false
	}
	if !full {
		return true
	}
	f, ok := e.parse(data)
	return ok && f.ValidateSliceChecksums(data)
}

func (e *StructuralEngine) ValidateHeader(data []byte) bool {
	_, ok := e.parse(data)
	return ok
}

func (e *StructuralEngine) TotalImages(data []byte) uint32 {
	h, err := ParseHeader(data)
	if err != nil {
		return 0
	}
	return h.TotalImages
}

func (e *StructuralEngine) TotalImageLevels(data []byte, imageIndex uint32) uint32 {
	f, ok := e.parse(data)
	if !ok {
		return 0
	}
	return f.TotalImageLevels(imageIndex)
}

func (e *StructuralEngine) ImageLevelInfo(data []byte, imageIndex, levelIndex uint32) (engine.LevelInfo, bool) {
	f, ok := e.parse(data)
	if !ok {
		return engine.LevelInfo{}, false
	}
	return f.LevelInfo(imageIndex, levelIndex)
}

func (e *StructuralEngine) FileInfo(data []byte) (engine.FileInfo, bool) {
	f, ok := e.parse(data)
	if !ok {
		return engine.FileInfo{}, false
	}
	return f.Info(), true
}

func (e *StructuralEngine) StartTranscoding(data []byte) bool {
	_, ok := e.parse(data)
	return ok
}

func (e *StructuralEngine) TranscodeImageLevel(data []byte, imageIndex, levelIndex uint32, out []byte, outBlocks uint32, format engine.TextureFormat) bool {
	return false
}

func (e *StructuralEngine) Close() {}
