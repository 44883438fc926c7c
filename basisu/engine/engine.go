// Package engine defines the boundary between the safe basisu wrapper and a codec engine.
//
// A Backend is a process-wide codec implementation (the upstream C++ transcoder through cgo, a
// wasm build of it, or the pure-Go structural backend in package container). An Engine is one
// transcoder instance created by a Backend. Engines are stateful and are not safe for
// concurrent use; the wrapper serializes access to each one.
//
// Every buffer crosses this boundary as a Go slice, so the pointer and the length always
// travel together. Implementations must not read or write outside the slices they are given
// and must not retain them after the call returns.
package engine

// Backend is a codec engine implementation.
//
// Backends must be comparable: the wrapper keeps one set of process-wide state per
// distinct Backend value.
type Backend interface {
	// Name identifies the backend in logs and CLI output.
	Name() string

	// Init performs library-wide setup. The caller guarantees it runs exactly once per
	// Backend and before any other method.
	Init()

	// NewSelectorCodebook builds the shared selector codebook. The caller guarantees it runs
	// at most once per Backend and shares the result read-only with every Engine.
	NewSelectorCodebook() SelectorCodebook

	// NewEngine creates a transcoder instance bound to cb. cb outlives the Engine.
	NewEngine(cb SelectorCodebook) Engine
}

// SelectorCodebook is the immutable lookup table shared by every Engine of a Backend.
type SelectorCodebook interface {
	// Size returns the number of codebook entries (0 for backends that do not need one).
	Size() int
}

// Engine is a single transcoder instance.
//
// Boolean and count results are the engine's own coarse signals: false or 0 for anything it
// cannot answer, never a panic for malformed input.
type Engine interface {
	ValidateFileChecksums(data []byte, full bool) bool
	ValidateHeader(data []byte) bool
	TotalImages(data []byte) uint32
	TotalImageLevels(data []byte, imageIndex uint32) uint32
	ImageLevelInfo(data []byte, imageIndex, levelIndex uint32) (LevelInfo, bool)
	FileInfo(data []byte) (FileInfo, bool)

	// StartTranscoding primes the engine for data (ETC1S codebooks and Huffman tables).
	StartTranscoding(data []byte) bool

	// TranscodeImageLevel writes at most outBlocks blocks (or pixels, for uncompressed
	// formats) of the addressed level into out. len(out) is at least outBlocks times the
	// format's bytes per block.
	TranscodeImageLevel(data []byte, imageIndex, levelIndex uint32, out []byte, outBlocks uint32, format TextureFormat) bool

	// Close releases the instance. The Engine must not be used afterwards.
	Close()
}
