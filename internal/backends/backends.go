// Package backends selects a codec backend for the command-line tools.
package backends

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fintelia/basisu/basisu"
	"github.com/fintelia/basisu/basisu/container"
	"github.com/fintelia/basisu/basisu/native"
	"github.com/fintelia/basisu/basisu/wasm"
)

// WasmEnv names the guest module used by Wasm when no path is given.
const WasmEnv = "BASISU_TRANSCODER_WASM"

// Kind is a backend choice.
type Kind uint8

const (
	// Default is native when built in, else Go.
	Default Kind = iota
	Go
	Native
	Wasm
)

var (
	// ErrNativeUnavailable is returned for Native in builds without the native backend.
	ErrNativeUnavailable = errors.New("native implementation is not available in this build (build with -tags basisu_native and CGO_ENABLED=1)")
	// ErrNoGuest is returned for Wasm when neither a path nor WasmEnv is set.
	ErrNoGuest = errors.New("wasm implementation needs a guest module (-wasm <guest.wasm> or " + WasmEnv + ")")
)

func (k Kind) String() string {
	switch k {
	case Default:
		return "default"
	case Go:
		return "go"
	case Native:
		return "native"
	case Wasm:
		return "wasm"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Parse parses an -impl flag value.
func Parse(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default", "auto":
		return Default, nil
	case "go", "pure", "purego", "pure-go":
		return Go, nil
	case "native", "cgo":
		return Native, nil
	case "wasm", "wazero":
		return Wasm, nil
	default:
		return 0, fmt.Errorf("invalid -impl %q (want go|native|wasm)", s)
	}
}

// Open returns a Library for k. Go and Native resolve to the same process-wide Library as
// basisu.Default when it uses that backend. The returned func releases backend resources
// and must be called once the Library is no longer used.
func Open(ctx context.Context, k Kind, wasmPath string) (*basisu.Library, func(), error) {
	noop := func() {}
	switch k {
	case Default:
		return basisu.Default(), noop, nil
	case Go:
		return basisu.NewLibrary(container.Backend()), noop, nil
	case Native:
		if !native.Enabled() {
			return nil, nil, ErrNativeUnavailable
		}
		b, err := native.Backend()
		if err != nil {
			return nil, nil, err
		}
		return basisu.NewLibrary(b), noop, nil
	case Wasm:
		if wasmPath == "" {
			wasmPath = os.Getenv(WasmEnv)
		}
		if wasmPath == "" {
			return nil, nil, ErrNoGuest
		}
		wasmBytes, err := os.ReadFile(wasmPath)
		if err != nil {
			return nil, nil, err
		}
		b, err := wasm.New(ctx, wasmBytes)
		if err != nil {
			return nil, nil, err
		}
		return basisu.NewLibrary(b), func() { _ = b.Close(ctx) }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend %s", k)
	}
}
