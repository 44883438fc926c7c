package main

import (
	"fmt"
	"os"

	"github.com/fintelia/basisu/internal/compress"
)

// readInput reads path, decompressing it when its extension names a codec.
func readInput(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	codec := compress.ForPath(path)
	data, err := codec.Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

// writeOutput writes data to path through the codec named by name, or the codec implied by
// path's extension when name is empty.
func writeOutput(path string, data []byte, name string) error {
	codec := compress.ForPath(path)
	if name != "" {
		var err error
		codec, err = compress.ForName(name)
		if err != nil {
			return usageError(err.Error())
		}
	}
	out, err := codec.Compress(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return os.WriteFile(path, out, 0o644)
}
