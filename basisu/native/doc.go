// Package native provides an optional CGO-backed codec backend over the upstream C++
// basisu transcoder.
//
// By default this package builds in "disabled" mode (pure Go, no CGO) and Backend returns
// an error. To enable it, vendor the upstream transcoder sources under
// internal/basist/upstream and build with:
//
//	-tags basisu_native
//
// and ensure CGO is enabled (e.g. `CGO_ENABLED=1`).
package native
