package basisu

import (
	"sync"

	"go.uber.org/zap"

	"github.com/fintelia/basisu/basisu/container"
	"github.com/fintelia/basisu/basisu/engine"
	"github.com/fintelia/basisu/basisu/native"
)

// Library binds a codec backend to its process-wide state: the one-time engine
// initialization and the shared selector codebook.
//
// There is one Library per backend per process. Both cells are built lazily and at most
// once, however many goroutines race to create the first Transcoder. If either panics,
// every later call panics with the same value.
type Library struct {
	backend engine.Backend

	init     func()
	codebook func() engine.SelectorCodebook
}

// libraries maps each engine.Backend to its *Library.
var libraries sync.Map

// NewLibrary returns the Library over b. Nothing is initialized until first use.
//
// Backends are compared with ==, and every call with an equal backend returns the same
// Library, so b must be comparable. A backend stays registered for the life of the
// process.
func NewLibrary(b engine.Backend) *Library {
	if l, ok := libraries.Load(b); ok {
		return l.(*Library)
	}
	l, _ := libraries.LoadOrStore(b, newLibrary(b))
	return l.(*Library)
}

func newLibrary(b engine.Backend) *Library {
	l := &Library{backend: b}
	l.init = sync.OnceFunc(func() {
		Logger().Debug("basisu: backend init", zap.String("backend", b.Name()))
		b.Init()
	})
	l.codebook = sync.OnceValue(func() engine.SelectorCodebook {
		l.init()
		cb := b.NewSelectorCodebook()
		Logger().Debug("basisu: selector codebook built",
			zap.String("backend", b.Name()),
			zap.Int("entries", cb.Size()),
		)
		return cb
	})
	return l
}

var defaultLibrary = sync.OnceValue(func() *Library {
	return NewLibrary(defaultBackend())
})

// Default returns the process-wide Library.
//
// It uses the native backend when built with -tags basisu_native and cgo, and the pure-Go
// structural backend otherwise.
func Default() *Library { return defaultLibrary() }

func defaultBackend() engine.Backend {
	if native.Enabled() {
		b, err := native.Backend()
		if err == nil {
			return b
		}
		Logger().Warn("basisu: native backend unavailable, using structural backend", zap.Error(err))
	}
	return container.Backend()
}

// Backend returns the backend the Library was created with.
func (l *Library) Backend() engine.Backend { return l.backend }

// Init runs the backend's global initialization if it has not run yet.
//
// Calling it is optional: NewTranscoder and SelectorCodebook run it first.
func (l *Library) Init() { l.init() }

// SelectorCodebook returns the shared selector codebook, building it on first use.
//
// Every caller receives the same value. It lives as long as the Library.
func (l *Library) SelectorCodebook() engine.SelectorCodebook { return l.codebook() }

// NewTranscoder returns a Transcoder with its own engine instance bound to the shared
// codebook.
func (l *Library) NewTranscoder() *Transcoder {
	cb := l.SelectorCodebook()
	eng := l.backend.NewEngine(cb)
	Logger().Debug("basisu: engine created", zap.String("backend", l.backend.Name()))
	return &Transcoder{lib: l, eng: eng}
}

// NewTranscoder returns a Transcoder from the default Library.
func NewTranscoder() *Transcoder { return Default().NewTranscoder() }
