// Package wasm runs the upstream basisu transcoder as a WebAssembly guest under wazero.
//
// The guest is a wasm32-wasi build of the same C bridge the native backend links
// (basisu/native/internal/basist/bridge.cpp), exporting malloc, free and the basisu_*
// functions. It needs no cgo, so it is the portable way to get real texels out of a pure-Go
// build.
//
// All engines created from one Backend share a single guest instance, so calls are
// serialized. Buffers are copied into guest memory for every call and results are copied
// back; nothing the caller passes in is retained.
package wasm
