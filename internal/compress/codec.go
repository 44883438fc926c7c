// Package compress wraps the compression codecs the command-line tools accept for
// .basis inputs and transcoded outputs.
package compress

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Compressor compresses a complete buffer.
//
// The returned slice is owned by the caller; the input is not modified.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses Compressor.
//
// It returns an error if data is corrupted or was produced by a different codec.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions. Implementations are safe for concurrent use.
type Codec interface {
	Compressor
	Decompressor

	// Name is the codec's flag name.
	Name() string
	// Ext is the file extension the codec is recognized by, including the dot, or "".
	Ext() string
}

var builtinCodecs = map[string]Codec{
	"none": NewNoOpCompressor(),
	"zstd": NewZstdCompressor(),
	"s2":   NewS2Compressor(),
	"lz4":  NewLZ4Compressor(),
}

// Names returns the names ForName accepts, sorted.
func Names() []string {
	names := make([]string, 0, len(builtinCodecs))
	for name := range builtinCodecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForName returns the codec called name ("none", "zstd", "s2" or "lz4"). "" means none.
func ForName(name string) (Codec, error) {
	if name == "" {
		name = "none"
	}
	if c, ok := builtinCodecs[strings.ToLower(name)]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("unsupported compression %q (want one of %s)", name, strings.Join(Names(), ", "))
}

// ForPath picks a codec from path's extension, falling back to none.
func ForPath(path string) Codec {
	ext := strings.ToLower(filepath.Ext(path))
	for _, c := range builtinCodecs {
		if c.Ext() != "" && c.Ext() == ext {
			return c
		}
	}
	return builtinCodecs["none"]
}

// TrimExt returns path without the extension of c.
func TrimExt(path string, c Codec) string {
	if c.Ext() != "" && strings.EqualFold(filepath.Ext(path), c.Ext()) {
		return path[:len(path)-len(c.Ext())]
	}
	return path
}
