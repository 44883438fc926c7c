package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintelia/basisu/basisu"
	"github.com/fintelia/basisu/basisu/container"
	"github.com/fintelia/basisu/basisu/engine"
	"github.com/fintelia/basisu/internal/backends"
)

func benchFixture(t *testing.T) []byte {
	t.Helper()
	data, err := container.Assemble(container.Layout{
		Header: container.Header{TotalImages: 1, Format: engine.SourceUASTC4x4, Type: engine.Texture2D},
		Slices: []container.Slice{
			{Desc: container.SliceDesc{OrigWidth: 16, OrigHeight: 8, NumBlocksX: 4, NumBlocksY: 2}, Data: bytes.Repeat([]byte{1}, 128)},
			{Desc: container.SliceDesc{LevelIndex: 1, OrigWidth: 8, OrigHeight: 4, NumBlocksX: 2, NumBlocksY: 1}, Data: bytes.Repeat([]byte{2}, 32)},
			{Desc: container.SliceDesc{LevelIndex: 2, OrigWidth: 4, OrigHeight: 2, NumBlocksX: 1, NumBlocksY: 1}, Data: bytes.Repeat([]byte{3}, 16)},
		},
	})
	require.NoError(t, err)
	return data
}

func TestPlanLevels(t *testing.T) {
	data := benchFixture(t)
	lib := basisu.NewLibrary(container.Backend())

	levels, err := planLevels(lib, data, 0, 1, false, basisu.RGBA32)
	require.NoError(t, err)
	assert.Equal(t, []level{{image: 0, level: 1, pixels: 32, size: 128}}, levels)

	levels, err = planLevels(lib, data, 0, 0, true, basisu.BC7RGBA)
	require.NoError(t, err)
	require.Len(t, levels, 3)
	assert.Equal(t, 8*16, levels[0].size)
	assert.Equal(t, 2*16, levels[1].size)
	assert.Equal(t, 16, levels[2].size)

	_, err = planLevels(lib, data, 1, 0, true, basisu.BC7RGBA)
	assert.Error(t, err)
	_, err = planLevels(lib, data[:20], 0, 0, false, basisu.BC7RGBA)
	assert.Error(t, err)
}

func TestRunWorkers(t *testing.T) {
	digests, err := runWorkers(4, func(worker int) (uint64, error) { return uint64(worker) * 10, nil })
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 10, 20, 30}, digests)

	boom := errors.New("boom")
	_, err = runWorkers(3, func(worker int) (uint64, error) {
		if worker == 2 {
			return 0, boom
		}
		return 1, nil
	})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, "00000000000000ff", fmtChecksum(255))
}

func TestRunReleasesBackend(t *testing.T) {
	in := filepath.Join(t.TempDir(), "bench.basis")
	require.NoError(t, os.WriteFile(in, benchFixture(t), 0o644))

	var opened, released int
	prev := openLibrary
	openLibrary = func(ctx context.Context, k backends.Kind, wasmPath string) (*basisu.Library, func(), error) {
		opened++
		return basisu.NewLibrary(container.Backend()), func() { released++ }, nil
	}
	defer func() { openLibrary = prev }()

	cases := []struct {
		name   string
		args   []string
		code   int
		opened int
		stdout string
	}{
		{"validate", []string{"validate", "-in", in, "-iters", "2", "-workers", "2"}, 0, 1, "RESULT impl=go mode=validate"},
		{"structural backend cannot transcode", []string{"transcode", "-in", in, "-iters", "1"}, 1, 1, ""},
		{"missing image", []string{"transcode", "-in", in, "-image", "3", "-all-levels"}, 1, 1, ""},
		{"unwritable cpu profile", []string{"validate", "-in", in, "-cpuprofile", filepath.Join(in, "cpu.out")}, 1, 1, ""},
		{"missing input", []string{"validate"}, 2, 0, ""},
		{"bad format", []string{"transcode", "-in", in, "-format", "nope"}, 2, 0, ""},
		{"bad flag", []string{"transcode", "-bogus"}, 2, 0, ""},
		{"unknown subcommand", []string{"encode"}, 2, 0, ""},
		{"no subcommand", nil, 2, 0, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opened, released = 0, 0
			var stdout, stderr bytes.Buffer
			code := run(tc.args, &stdout, &stderr)
			assert.Equal(t, tc.code, code, "stderr: %s", stderr.String())
			assert.Equal(t, tc.opened, opened)
			assert.Equal(t, opened, released, "every opened backend is released")
			if tc.stdout != "" {
				assert.Contains(t, stdout.String(), tc.stdout)
			} else {
				assert.Empty(t, stdout.String())
			}
			if tc.code != 0 {
				assert.NotEmpty(t, stderr.String())
			}
		})
	}
}
