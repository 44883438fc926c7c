package main

import (
	"context"
	"errors"

	"github.com/fintelia/basisu/basisu"
	"github.com/fintelia/basisu/internal/backends"
)

func parseImpl(s string) (backends.Kind, error) {
	k, err := backends.Parse(s)
	if err != nil {
		return 0, usageError(err.Error())
	}
	return k, nil
}

func openLibrary(ctx context.Context, k backends.Kind, wasmPath string) (*basisu.Library, func(), error) {
	lib, release, err := backends.Open(ctx, k, wasmPath)
	if errors.Is(err, backends.ErrNativeUnavailable) || errors.Is(err, backends.ErrNoGuest) {
		return nil, nil, usageError(err.Error())
	}
	return lib, release, err
}
