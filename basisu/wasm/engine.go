package wasm

import (
	"encoding/binary"

	"go.uber.org/zap"

	"github.com/fintelia/basisu/basisu/container"
	"github.com/fintelia/basisu/basisu/engine"
)

const (
	levelInfoSize = 12 * 4
	fileInfoSize  = 10 * 4
)

// guestEngine is one basisu_transcoder inside the guest. t == 0 means allocation failed and
// every call reports failure.
type guestEngine struct {
	b *Backend
	t uint32
}

var _ engine.Engine = (*guestEngine)(nil)

// withData copies data into the guest, runs fn with its address and frees it.
// It must be called with e.b.mu held.
func (e *guestEngine) withData(op string, data []byte, fn func(p uint32) (uint64, error)) (uint64, bool) {
	if e.t == 0 {
		return 0, false
	}
	p, err := e.b.copyIn(data)
	if err != nil {
		e.b.log.Debug("basisu/wasm: copy in failed", zap.String("op", op), zap.Error(err))
		return 0, false
	}
	defer e.b.free(p)
	r, err := fn(p)
	if err != nil {
		e.b.log.Debug("basisu/wasm: guest call failed", zap.String("op", op), zap.Error(err))
		return 0, false
	}
	return r, true
}

func (e *guestEngine) ValidateFileChecksums(data []byte, full bool) bool {
	e.b.mu.Lock()
	defer e.b.mu.Unlock()
	var f uint64
	if full {
		f = 1
	}
	r, ok := e.withData("validate_file_checksums", data, func(p uint32) (uint64, error) {
		return e.b.call("basisu_validate_file_checksums", uint64(e.t), uint64(p), uint64(len(data)), f)
	})
	return ok && uint32(r) != 0
}

func (e *guestEngine) ValidateHeader(data []byte) bool {
	e.b.mu.Lock()
	defer e.b.mu.Unlock()
	r, ok := e.withData("validate_header", data, func(p uint32) (uint64, error) {
		return e.b.call("basisu_validate_header", uint64(e.t), uint64(p), uint64(len(data)))
	})
	return ok && uint32(r) != 0
}

func (e *guestEngine) TotalImages(data []byte) uint32 {
	e.b.mu.Lock()
	defer e.b.mu.Unlock()
	return e.totalImagesLocked(data)
}

func (e *guestEngine) totalImagesLocked(data []byte) uint32 {
	r, ok := e.withData("total_images", data, func(p uint32) (uint64, error) {
		return e.b.call("basisu_total_images", uint64(e.t), uint64(p), uint64(len(data)))
	})
	if !ok {
		return 0
	}
	return uint32(r)
}

func (e *guestEngine) TotalImageLevels(data []byte, imageIndex uint32) uint32 {
	e.b.mu.Lock()
	defer e.b.mu.Unlock()
	r, ok := e.withData("total_image_levels", data, func(p uint32) (uint64, error) {
		return e.b.call("basisu_total_image_levels", uint64(e.t), uint64(p), uint64(len(data)), uint64(imageIndex))
	})
	if !ok {
		return 0
	}
	return uint32(r)
}

func (e *guestEngine) ImageLevelInfo(data []byte, imageIndex, levelIndex uint32) (engine.LevelInfo, bool) {
	e.b.mu.Lock()
	defer e.b.mu.Unlock()

	var raw [levelInfoSize]byte
	r, ok := e.withData("image_level_info", data, func(p uint32) (uint64, error) {
		out, err := e.b.alloc(levelInfoSize)
		if err != nil {
			return 0, err
		}
		defer e.b.free(out)
		r, err := e.b.call("basisu_image_level_info", uint64(e.t), uint64(p), uint64(len(data)),
			uint64(imageIndex), uint64(levelIndex), uint64(out))
		if err != nil || uint32(r) == 0 {
			return 0, err
		}
		if !e.b.copyOut(raw[:], out) {
			return 0, nil
		}
		return r, nil
	})
	if !ok || uint32(r) == 0 {
		return engine.LevelInfo{}, false
	}

	u := func(i int) uint32 { return binary.LittleEndian.Uint32(raw[i*4:]) }
	return engine.LevelInfo{
		ImageIndex:      u(0),
		LevelIndex:      u(1),
		OrigWidth:       u(2),
		OrigHeight:      u(3),
		Width:           u(4),
		Height:          u(5),
		NumBlocksX:      u(6),
		NumBlocksY:      u(7),
		TotalBlocks:     u(8),
		FirstSliceIndex: u(9),
		HasAlpha:        u(10) != 0,
		IFrame:          u(11) != 0,
	}, true
}

func (e *guestEngine) FileInfo(data []byte) (engine.FileInfo, bool) {
	e.b.mu.Lock()
	defer e.b.mu.Unlock()

	total := e.totalImagesLocked(data)
	if total == 0 {
		return engine.FileInfo{}, false
	}

	var raw [fileInfoSize]byte
	levelsRaw := make([]byte, 4*int(total))
	r, ok := e.withData("file_info", data, func(p uint32) (uint64, error) {
		out, err := e.b.alloc(fileInfoSize + len(levelsRaw))
		if err != nil {
			return 0, err
		}
		defer e.b.free(out)
		r, err := e.b.call("basisu_file_info_get", uint64(e.t), uint64(p), uint64(len(data)),
			uint64(out), uint64(out+fileInfoSize), uint64(total))
		if err != nil || uint32(r) == 0 {
			return 0, err
		}
		if !e.b.copyOut(raw[:], out) || !e.b.copyOut(levelsRaw, out+fileInfoSize) {
			return 0, nil
		}
		return r, nil
	})
	if !ok || uint32(r) == 0 {
		return engine.FileInfo{}, false
	}

	u := func(i int) uint32 { return binary.LittleEndian.Uint32(raw[i*4:]) }
	levels := make([]uint32, total)
	for i := range levels {
		levels[i] = binary.LittleEndian.Uint32(levelsRaw[i*4:])
	}
	// The guest file info does not carry the sRGB flag.
	var srgb bool
	if h, err := container.ParseHeader(data); err == nil {
		srgb = h.Flags&container.FlagSRGB != 0
	}
	return engine.FileInfo{
		Version:     uint16(u(0)),
		TotalSlices: u(1),
		TotalImages: u(2),
		Format:      engine.SourceFormat(u(3)),
		Type:        engine.TextureType(u(4)),
		UsPerFrame:  u(5),
		Userdata0:   u(6),
		Userdata1:   u(7),
		YFlipped:    u(8) != 0,
		HasAlpha:    u(9) != 0,
		SRGB:        srgb,
		ImageLevels: levels,
	}, true
}

func (e *guestEngine) StartTranscoding(data []byte) bool {
	e.b.mu.Lock()
	defer e.b.mu.Unlock()
	r, ok := e.withData("start_transcoding", data, func(p uint32) (uint64, error) {
		return e.b.call("basisu_start_transcoding", uint64(e.t), uint64(p), uint64(len(data)))
	})
	return ok && uint32(r) != 0
}

func (e *guestEngine) TranscodeImageLevel(data []byte, imageIndex, levelIndex uint32, out []byte, outBlocks uint32, format engine.TextureFormat) bool {
	e.b.mu.Lock()
	defer e.b.mu.Unlock()

	// The guest transcoder holds per-file decode state, so the file is started again on the
	// fresh guest copy before each level.
	r, ok := e.withData("transcode_image_level", data, func(p uint32) (uint64, error) {
		started, err := e.b.call("basisu_start_transcoding", uint64(e.t), uint64(p), uint64(len(data)))
		if err != nil || uint32(started) == 0 {
			return 0, err
		}
		dst, err := e.b.alloc(len(out))
		if err != nil {
			return 0, err
		}
		defer e.b.free(dst)
		r, err := e.b.call("basisu_transcode_image_level", uint64(e.t), uint64(p), uint64(len(data)),
			uint64(imageIndex), uint64(levelIndex), uint64(dst), uint64(outBlocks), uint64(format))
		if err != nil || uint32(r) == 0 {
			return 0, err
		}
		if !e.b.copyOut(out, dst) {
			return 0, nil
		}
		return r, nil
	})
	return ok && uint32(r) != 0
}

func (e *guestEngine) Close() {
	e.b.mu.Lock()
	defer e.b.mu.Unlock()
	if e.t == 0 {
		return
	}
	if _, err := e.b.call("basisu_transcoder_delete", uint64(e.t)); err != nil {
		e.b.log.Debug("basisu/wasm: transcoder delete failed", zap.Error(err))
	}
	e.t = 0
}
