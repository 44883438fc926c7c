// Package basisu transcodes .basis texture files into GPU texture formats.
//
// A Library binds a codec backend (see package engine) and owns the process-wide state
// every transcoder needs: a one-time engine initialization and the shared ETC1S selector
// codebook. There is one Library per backend per process, and both are built lazily,
// exactly once, on first use.
//
// A Transcoder owns one engine instance. Its methods validate and inspect .basis files
// and StartTranscoding binds a file to a FileTranscoder, which transcodes individual
// image levels into caller-provided buffers.
//
// Calls on one Transcoder are serialized by an internal lock. Create one Transcoder per
// goroutine for parallel work. Buffers passed in are never retained after a call returns.
//
// The default Library uses the native (cgo) backend when the package is built with
// -tags basisu_native, and the pure-Go structural backend otherwise. The structural
// backend answers every validation and metadata query but cannot decode texels.
package basisu
