package basisu

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fintelia/basisu/basisu/engine"
)

// FileTranscoder is a file bound to a Transcoder by a successful StartTranscoding.
//
// It refers to the caller's buffer, which must not be modified while the handle is in use.
type FileTranscoder struct {
	t    *Transcoder
	data []byte
	gen  uint64
}

// Transcoder returns the Transcoder the file is bound to.
func (f *FileTranscoder) Transcoder() *Transcoder { return f.t }

// Data returns the bound file buffer.
func (f *FileTranscoder) Data() []byte { return f.data }

// Valid reports whether the handle is still bound.
func (f *FileTranscoder) Valid() bool {
	f.t.mu.Lock()
	defer f.t.mu.Unlock()
	return f.current()
}

// current must be called with f.t.mu held.
func (f *FileTranscoder) current() bool {
	return !f.t.closed && f.t.gen == f.gen
}

// TotalImages returns the number of images in the bound file, or 0 once the handle is no
// longer bound.
func (f *FileTranscoder) TotalImages() uint32 {
	f.t.mu.Lock()
	defer f.t.mu.Unlock()
	if !f.current() {
		return 0
	}
	return f.t.eng.TotalImages(f.data)
}

// TotalImageLevels returns the number of levels of image imageIndex, or 0 if it does not
// exist or the handle is no longer bound.
func (f *FileTranscoder) TotalImageLevels(imageIndex uint32) uint32 {
	f.t.mu.Lock()
	defer f.t.mu.Unlock()
	if !f.current() {
		return 0
	}
	return f.t.eng.TotalImageLevels(f.data, imageIndex)
}

// ImageLevelInfo describes one level of the bound file.
func (f *FileTranscoder) ImageLevelInfo(imageIndex, levelIndex uint32) (engine.LevelInfo, error) {
	f.t.mu.Lock()
	defer f.t.mu.Unlock()
	return f.levelInfoLocked(imageIndex, levelIndex)
}

func (f *FileTranscoder) levelInfoLocked(imageIndex, levelIndex uint32) (engine.LevelInfo, error) {
	if !f.current() {
		return engine.LevelInfo{}, newError(ErrInvalidArgument, "basisu: file transcoder is no longer bound")
	}
	info, ok := f.t.eng.ImageLevelInfo(f.data, imageIndex, levelIndex)
	if !ok {
		return engine.LevelInfo{}, newError(ErrInvalidArgument,
			fmt.Sprintf("basisu: no level %d in image %d", levelIndex, imageIndex))
	}
	return info, nil
}

// LevelDimensions returns the block-aligned width and height of a level: the original
// dimensions rounded up to a multiple of 4.
func (f *FileTranscoder) LevelDimensions(imageIndex, levelIndex uint32) (width, height uint32, err error) {
	info, err := f.ImageLevelInfo(imageIndex, levelIndex)
	if err != nil {
		return 0, 0, err
	}
	return info.Width, info.Height, nil
}

// RequiredOutputSize returns the number of bytes TranscodeImageLevel needs to write one
// level in format.
func (f *FileTranscoder) RequiredOutputSize(imageIndex, levelIndex uint32, format OutputFormat) (int, error) {
	if !format.Valid() {
		return 0, newError(ErrInvalidArgument, fmt.Sprintf("basisu: unsupported output format %d", uint32(format)))
	}
	info, err := f.ImageLevelInfo(imageIndex, levelIndex)
	if err != nil {
		return 0, err
	}
	return int(requiredBlocks(info, format) * uint64(format.BytesPerBlock())), nil
}

// requiredBlocks is the number of blocks (pixels, for uncompressed formats) a level needs.
func requiredBlocks(info engine.LevelInfo, format OutputFormat) uint64 {
	return format.BlocksFor(info.OrigWidth, info.OrigHeight)
}

// TranscodeImageLevel transcodes one level into out in the given format.
//
// out is interpreted as len(out)/format.BytesPerBlock() whole blocks (pixels, for
// uncompressed formats); trailing bytes are never written. If that capacity is smaller
// than the level needs, nothing is written and ErrInvalidFileContents is returned.
func (f *FileTranscoder) TranscodeImageLevel(imageIndex, levelIndex uint32, out []byte, format OutputFormat) error {
	if !format.Valid() {
		return newError(ErrInvalidArgument, fmt.Sprintf("basisu: unsupported output format %d", uint32(format)))
	}
	if !bufferOK(out) {
		return newError(ErrInvalidArgument, "basisu: output buffer too large")
	}

	f.t.mu.Lock()
	defer f.t.mu.Unlock()

	info, err := f.levelInfoLocked(imageIndex, levelIndex)
	if err != nil {
		return err
	}

	bpb := uint64(format.BytesPerBlock())
	capacity := uint64(len(out)) / bpb
	need := requiredBlocks(info, format)
	if capacity < need {
		Logger().Debug("basisu: output buffer too small",
			zap.Uint32("image", imageIndex),
			zap.Uint32("level", levelIndex),
			zap.Stringer("format", format),
			zap.Uint64("capacity", capacity),
			zap.Uint64("need", need),
		)
		return newError(ErrInvalidFileContents,
			fmt.Sprintf("basisu: output buffer holds %d blocks, level needs %d", capacity, need))
	}

	if !f.t.eng.TranscodeImageLevel(f.data, imageIndex, levelIndex, out[:capacity*bpb], uint32(capacity), engine.TextureFormat(format)) {
		Logger().Debug("basisu: transcode failed",
			zap.String("backend", f.t.lib.backend.Name()),
			zap.Uint32("image", imageIndex),
			zap.Uint32("level", levelIndex),
			zap.Stringer("format", format),
			zap.Uint64("capacity", capacity),
		)
		return newError(ErrInvalidFileContents, "basisu: transcode failed")
	}
	return nil
}

// Transcode allocates a buffer of exactly the required size and transcodes one level into it.
func (f *FileTranscoder) Transcode(imageIndex, levelIndex uint32, format OutputFormat) ([]byte, error) {
	n, err := f.RequiredOutputSize(imageIndex, levelIndex, format)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	if err := f.TranscodeImageLevel(imageIndex, levelIndex, out, format); err != nil {
		return nil, err
	}
	return out, nil
}
