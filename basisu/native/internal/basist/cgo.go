//go:build basisu_native && cgo

// Package basist binds the upstream basisu C++ transcoder through a small C bridge.
//
// The upstream sources are expected under upstream/ (transcoder/basisu_transcoder.cpp and
// its headers).
package basist

/*
#cgo CXXFLAGS: -O3 -std=c++11 -I${SRCDIR}/upstream -DBASISD_SUPPORT_KTX2=0
#cgo darwin LDFLAGS: -lm
#cgo linux LDFLAGS: -lstdc++ -lm

#include <stdlib.h>
#include "bridge.h"
*/
import "C"

import "unsafe"

// LevelInfo mirrors basisu_level_info.
type LevelInfo struct {
	ImageIndex      uint32
	LevelIndex      uint32
	OrigWidth       uint32
	OrigHeight      uint32
	Width           uint32
	Height          uint32
	NumBlocksX      uint32
	NumBlocksY      uint32
	TotalBlocks     uint32
	FirstSliceIndex uint32
	AlphaFlag       bool
	IFrameFlag      bool
}

// FileInfo mirrors basisu_file_info.
type FileInfo struct {
	Version        uint32
	TotalSlices    uint32
	TotalImages    uint32
	TexFormat      uint32
	TexType        uint32
	UsPerFrame     uint32
	Userdata0      uint32
	Userdata1      uint32
	YFlipped       bool
	HasAlphaSlices bool
	ImageLevels    []uint32
}

func Init() { C.basisu_init() }

func CodebookNew() unsafe.Pointer { return C.basisu_codebook_new() }

func CodebookSize(cb unsafe.Pointer) int { return int(C.basisu_codebook_size(cb)) }

func TranscoderNew(cb unsafe.Pointer) unsafe.Pointer { return C.basisu_transcoder_new(cb) }

func TranscoderDelete(t unsafe.Pointer) {
	if t != nil {
		C.basisu_transcoder_delete(t)
	}
}

// ptr returns a pointer to data's first byte, or nil for an empty slice.
func ptr(data []byte) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Pointer(&data[0])
}

func ValidateFileChecksums(t unsafe.Pointer, data []byte, full bool) bool {
	f := C.int32_t(0)
	if full {
		f = 1
	}
	return C.basisu_validate_file_checksums(t, ptr(data), C.uint32_t(len(data)), f) != 0
}

func ValidateHeader(t unsafe.Pointer, data []byte) bool {
	return C.basisu_validate_header(t, ptr(data), C.uint32_t(len(data))) != 0
}

func TotalImages(t unsafe.Pointer, data []byte) uint32 {
	return uint32(C.basisu_total_images(t, ptr(data), C.uint32_t(len(data))))
}

func TotalImageLevels(t unsafe.Pointer, data []byte, imageIndex uint32) uint32 {
	return uint32(C.basisu_total_image_levels(t, ptr(data), C.uint32_t(len(data)), C.uint32_t(imageIndex)))
}

func ImageLevelInfo(t unsafe.Pointer, data []byte, imageIndex, levelIndex uint32) (LevelInfo, bool) {
	var ci C.basisu_level_info
	if C.basisu_image_level_info(t, ptr(data), C.uint32_t(len(data)), C.uint32_t(imageIndex), C.uint32_t(levelIndex), &ci) == 0 {
		return LevelInfo{}, false
	}
	return LevelInfo{
		ImageIndex:      uint32(ci.image_index),
		LevelIndex:      uint32(ci.level_index),
		OrigWidth:       uint32(ci.orig_width),
		OrigHeight:      uint32(ci.orig_height),
		Width:           uint32(ci.width),
		Height:          uint32(ci.height),
		NumBlocksX:      uint32(ci.num_blocks_x),
		NumBlocksY:      uint32(ci.num_blocks_y),
		TotalBlocks:     uint32(ci.total_blocks),
		FirstSliceIndex: uint32(ci.first_slice_index),
		AlphaFlag:       ci.alpha_flag != 0,
		IFrameFlag:      ci.iframe_flag != 0,
	}, true
}

func GetFileInfo(t unsafe.Pointer, data []byte) (FileInfo, bool) {
	total := TotalImages(t, data)
	levels := make([]uint32, total+1)
	var ci C.basisu_file_info
	if C.basisu_file_info_get(t, ptr(data), C.uint32_t(len(data)), &ci, (*C.uint32_t)(unsafe.Pointer(&levels[0])), C.uint32_t(total)) == 0 {
		return FileInfo{}, false
	}
	return FileInfo{
		Version:        uint32(ci.version),
		TotalSlices:    uint32(ci.total_slices),
		TotalImages:    uint32(ci.total_images),
		TexFormat:      uint32(ci.tex_format),
		TexType:        uint32(ci.tex_type),
		UsPerFrame:     uint32(ci.us_per_frame),
		Userdata0:      uint32(ci.userdata0),
		Userdata1:      uint32(ci.userdata1),
		YFlipped:       ci.y_flipped != 0,
		HasAlphaSlices: ci.has_alpha_slices != 0,
		ImageLevels:    levels[:total],
	}, true
}

func StartTranscoding(t unsafe.Pointer, data []byte) bool {
	return C.basisu_start_transcoding(t, ptr(data), C.uint32_t(len(data))) != 0
}

func TranscodeImageLevel(t unsafe.Pointer, data []byte, imageIndex, levelIndex uint32, out []byte, outBlocks uint32, format uint32) bool {
	return C.basisu_transcode_image_level(t, ptr(data), C.uint32_t(len(data)),
		C.uint32_t(imageIndex), C.uint32_t(levelIndex),
		ptr(out), C.uint32_t(outBlocks), C.uint32_t(format)) != 0
}

func FormatBytesPerBlock(format uint32) uint32 {
	return uint32(C.basisu_format_bytes_per_block(C.uint32_t(format)))
}

func FormatIsUncompressed(format uint32) bool {
	return C.basisu_format_is_uncompressed(C.uint32_t(format)) != 0
}
