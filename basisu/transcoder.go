package basisu

import (
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/fintelia/basisu/basisu/engine"
)

// Transcoder owns one codec engine instance.
//
// Methods take an internal lock, so a Transcoder may be shared, but calls are serialized.
// Use one Transcoder per goroutine for parallel transcoding.
type Transcoder struct {
	mu  sync.Mutex
	lib *Library
	eng engine.Engine

	closed bool
	// gen advances on every StartTranscoding attempt and on Close. A FileTranscoder is
	// valid only while its generation is current.
	gen uint64
}

// bufferOK reports whether p can be handed to the engine, whose lengths are 32-bit.
func bufferOK(p []byte) bool {
	return uint64(len(p)) <= math.MaxUint32
}

// Library returns the Library the Transcoder was created from.
func (t *Transcoder) Library() *Library { return t.lib }

// ValidateFileChecksums reports whether the header checksum of data matches, and with
// full also the checksum over the file's data. It never fails on malformed input.
func (t *Transcoder) ValidateFileChecksums(data []byte, full bool) bool {
	if !bufferOK(data) {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	return t.eng.ValidateFileChecksums(data, full)
}

// ValidateFileHeader reports whether data begins with a structurally valid .basis header.
func (t *Transcoder) ValidateFileHeader(data []byte) bool {
	if !bufferOK(data) {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	return t.eng.ValidateHeader(data)
}

// TotalImages returns the number of images in data, or 0 if the header is invalid.
func (t *Transcoder) TotalImages(data []byte) uint32 {
	if !bufferOK(data) {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0
	}
	return t.eng.TotalImages(data)
}

// TotalImageLevels returns the number of mip levels of image imageIndex, or 0 if the image
// does not exist.
func (t *Transcoder) TotalImageLevels(data []byte, imageIndex uint32) uint32 {
	if !bufferOK(data) {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0
	}
	return t.eng.TotalImageLevels(data, imageIndex)
}

// FileInfo returns the file-level description of data.
func (t *Transcoder) FileInfo(data []byte) (engine.FileInfo, error) {
	if !bufferOK(data) {
		return engine.FileInfo{}, newError(ErrInvalidFileContents, "basisu: file too large")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return engine.FileInfo{}, newError(ErrInvalidArgument, "basisu: transcoder closed")
	}
	fi, ok := t.eng.FileInfo(data)
	if !ok {
		return engine.FileInfo{}, newError(ErrInvalidFileContents, "basisu: invalid file")
	}
	return fi, nil
}

// StartTranscoding validates data and binds it to a FileTranscoder.
//
// The returned handle stays valid until the next StartTranscoding on t or until t is
// closed. The engine resets its per-file state before it validates data, so any call that
// reaches the engine unbinds earlier handles, even when it fails.
func (t *Transcoder) StartTranscoding(data []byte) (*FileTranscoder, error) {
	if !bufferOK(data) {
		return nil, newError(ErrInvalidFileContents, "basisu: file too large")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, newError(ErrInvalidArgument, "basisu: transcoder closed")
	}
	t.gen++
	if !t.eng.StartTranscoding(data) {
		Logger().Debug("basisu: start transcoding failed", zap.Int("bytes", len(data)))
		return nil, newError(ErrInvalidFileContents, "basisu: invalid file")
	}
	return &FileTranscoder{t: t, data: data, gen: t.gen}, nil
}

// Close releases the engine instance. It invalidates every FileTranscoder obtained from t.
// Close is idempotent.
func (t *Transcoder) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	t.gen++
	t.eng.Close()
	t.eng = nil
	return nil
}
