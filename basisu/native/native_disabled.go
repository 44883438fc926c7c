//go:build !basisu_native

package native

import (
	"errors"

	"github.com/fintelia/basisu/basisu/engine"
)

var errDisabled = errors.New("basisu/native: disabled (build with -tags basisu_native and CGO_ENABLED=1)")

// Enabled reports whether the CGO native implementation is available in this build.
func Enabled() bool { return false }

// Backend returns the native codec backend.
func Backend() (engine.Backend, error) { return nil, errDisabled }
