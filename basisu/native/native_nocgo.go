//go:build basisu_native && !cgo

package native

import (
	"errors"

	"github.com/fintelia/basisu/basisu/engine"
)

var errNoCGO = errors.New("basisu/native: basisu_native set but CGO is disabled (set CGO_ENABLED=1)")

func Enabled() bool { return false }

func Backend() (engine.Backend, error) { return nil, errNoCGO }
