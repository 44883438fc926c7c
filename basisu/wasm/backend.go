package wasm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/fintelia/basisu/basisu/engine"
)

// Config holds configuration for guest instantiation.
type Config struct {
	// MemoryLimitPages caps guest memory in 64KiB pages. 0 means the wazero default.
	MemoryLimitPages uint32

	// Logger receives guest call failures. nil means a no-op logger.
	Logger *zap.Logger
}

var exportNames = []string{
	"malloc",
	"free",
	"basisu_init",
	"basisu_codebook_new",
	"basisu_codebook_size",
	"basisu_transcoder_new",
	"basisu_transcoder_delete",
	"basisu_validate_file_checksums",
	"basisu_validate_header",
	"basisu_total_images",
	"basisu_total_image_levels",
	"basisu_image_level_info",
	"basisu_file_info_get",
	"basisu_start_transcoding",
	"basisu_transcode_image_level",
}

// Backend is an engine.Backend whose codec runs inside a wazero guest.
type Backend struct {
	mu  sync.Mutex
	ctx context.Context
	log *zap.Logger

	rt  wazero.Runtime
	mod api.Module
	fns map[string]api.Function
}

var _ engine.Backend = (*Backend)(nil)

// New compiles and instantiates wasmBytes with default configuration.
func New(ctx context.Context, wasmBytes []byte) (*Backend, error) {
	return NewWithConfig(ctx, wasmBytes, nil)
}

// NewWithConfig compiles and instantiates wasmBytes.
func NewWithConfig(ctx context.Context, wasmBytes []byte, cfg *Config) (*Backend, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	log := zap.NewNop()
	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.Logger != nil {
			log = cfg.Logger
		}
	}

	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("basisu/wasm: instantiate wasi: %w", err)
	}

	compiled, err := rt.CompileModule(ctx, wasmBytes)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("basisu/wasm: compile failed: %w", err)
	}

	modCfg := wazero.NewModuleConfig().WithName("basisu").WithStartFunctions("_initialize")
	mod, err := rt.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("basisu/wasm: instantiate failed: %w", err)
	}
	if mod.Memory() == nil {
		_ = rt.Close(ctx)
		return nil, errors.New("basisu/wasm: guest exports no memory")
	}

	fns := make(map[string]api.Function, len(exportNames))
	for _, name := range exportNames {
		fn := mod.ExportedFunction(name)
		if fn == nil {
			_ = rt.Close(ctx)
			return nil, fmt.Errorf("basisu/wasm: guest does not export %q", name)
		}
		fns[name] = fn
	}

	return &Backend{
		ctx: context.WithoutCancel(ctx),
		log: log,
		rt:  rt,
		mod: mod,
		fns: fns,
	}, nil
}

// Close releases the guest. Engines created from b must not be used afterwards.
func (b *Backend) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rt.Close(ctx)
}

func (b *Backend) Name() string { return "wasm" }

func (b *Backend) Init() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.call("basisu_init"); err != nil {
		panic(fmt.Sprintf("basisu/wasm: init: %v", err))
	}
}

func (b *Backend) NewSelectorCodebook() engine.SelectorCodebook {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, err := b.call("basisu_codebook_new")
	if err != nil || p == 0 {
		panic(fmt.Sprintf("basisu/wasm: codebook: %v", err))
	}
	n, err := b.call("basisu_codebook_size", p)
	if err != nil {
		panic(fmt.Sprintf("basisu/wasm: codebook size: %v", err))
	}
	return &codebook{ptr: uint32(p), size: int(uint32(n))}
}

func (b *Backend) NewEngine(cb engine.SelectorCodebook) engine.Engine {
	c, ok := cb.(*codebook)
	if !ok {
		panic("basisu/wasm: selector codebook was not built by the wasm backend")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t, err := b.call("basisu_transcoder_new", uint64(c.ptr))
	if err != nil || t == 0 {
		b.log.Warn("basisu/wasm: transcoder allocation failed", zap.Error(err))
		return &guestEngine{b: b}
	}
	return &guestEngine{b: b, t: uint32(t)}
}

// codebook lives in guest memory for the lifetime of the Backend.
type codebook struct {
	ptr  uint32
	size int
}

func (c *codebook) Size() int { return c.size }

// call invokes a guest export and returns its single result (0 for void functions).
// It must be called with b.mu held.
func (b *Backend) call(name string, args ...uint64) (uint64, error) {
	res, err := b.fns[name].Call(b.ctx, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if len(res) == 0 {
		return 0, nil
	}
	return res[0], nil
}

// alloc reserves n bytes of guest memory. n == 0 reserves one byte so the pointer is valid.
func (b *Backend) alloc(n int) (uint32, error) {
	if n == 0 {
		n = 1
	}
	p, err := b.call("malloc", uint64(n))
	if err != nil {
		return 0, err
	}
	if p == 0 {
		return 0, fmt.Errorf("malloc(%d): out of guest memory", n)
	}
	return uint32(p), nil
}

func (b *Backend) free(p uint32) {
	if p == 0 {
		return
	}
	if _, err := b.call("free", uint64(p)); err != nil {
		b.log.Debug("basisu/wasm: free failed", zap.Error(err))
	}
}

// copyIn allocates guest memory for data and copies it there.
func (b *Backend) copyIn(data []byte) (uint32, error) {
	p, err := b.alloc(len(data))
	if err != nil {
		return 0, err
	}
	if !b.mod.Memory().Write(p, data) {
		b.free(p)
		return 0, fmt.Errorf("write %d bytes at %#x: out of range", len(data), p)
	}
	return p, nil
}

// copyOut copies len(dst) bytes at guest address p into dst.
func (b *Backend) copyOut(dst []byte, p uint32) bool {
	view, ok := b.mod.Memory().Read(p, uint32(len(dst)))
	if !ok {
		return false
	}
	copy(dst, view)
	return true
}
