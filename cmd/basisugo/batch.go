package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fintelia/basisu/basisu"
)

// manifest is a batch of transcode jobs.
//
//	impl = "native"
//	workers = 4
//	default-format = "bc7"
//	default-compress = "zstd"
//
//	[[job]]
//	in = "albedo.basis"
//	out = "albedo.bc7.zst"
//
//	[[job]]
//	in = "albedo.basis"
//	out = "albedo-mip1.png"
//	format = "rgba32"
//	level = 1
type manifest struct {
	Impl            string `toml:"impl"`
	Wasm            string `toml:"wasm"`
	Workers         int    `toml:"workers"`
	DefaultFormat   string `toml:"default-format"`
	DefaultCompress string `toml:"default-compress"`
	KeepGoing       bool   `toml:"keep-going"`
	Jobs            []job  `toml:"job"`
}

// loadManifest parses a manifest and resolves job paths relative to dir.
func loadManifest(data []byte, dir string) (*manifest, error) {
	var m manifest
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	if len(m.Jobs) == 0 {
		return nil, fmt.Errorf("manifest: no [[job]] entries")
	}
	for i := range m.Jobs {
		j := &m.Jobs[i]
		if j.In == "" || j.Out == "" {
			return nil, fmt.Errorf("manifest: job %d: in and out are required", i)
		}
		if j.Format == "" {
			j.Format = m.DefaultFormat
		}
		if j.Format == "" {
			return nil, fmt.Errorf("manifest: job %d: no format and no default-format", i)
		}
		if j.Compress == "" {
			j.Compress = m.DefaultCompress
		}
		if !filepath.IsAbs(j.In) {
			j.In = filepath.Join(dir, j.In)
		}
		if !filepath.IsAbs(j.Out) {
			j.Out = filepath.Join(dir, j.Out)
		}
	}
	return &m, nil
}

func batchCmd(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	var (
		manifestPath string
		workers      int
		verbose      bool
	)
	fs.StringVar(&manifestPath, "manifest", "", "TOML manifest of jobs")
	fs.IntVar(&workers, "workers", 0, "worker count (overrides the manifest; default GOMAXPROCS)")
	fs.BoolVar(&verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	if manifestPath == "" {
		return usageError("missing -manifest")
	}
	log := setupLogger(verbose)

	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return err
	}
	m, err := loadManifest(raw, filepath.Dir(manifestPath))
	if err != nil {
		return err
	}
	if workers > 0 {
		m.Workers = workers
	}

	implVal, err := parseImpl(m.Impl)
	if err != nil {
		return err
	}
	ctx := context.Background()
	lib, release, err := openLibrary(ctx, implVal, m.Wasm)
	if err != nil {
		return err
	}
	defer release()

	return runBatch(ctx, lib, m, stdout, log)
}

// runBatch runs every job of m on a pool of workers, each with its own Transcoder.
func runBatch(ctx context.Context, lib *basisu.Library, m *manifest, stdout io.Writer, log *zap.Logger) error {
	workers := m.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(m.Jobs) {
		workers = len(m.Jobs)
	}

	g, ctx := errgroup.WithContext(ctx)
	jobs := make(chan int)
	g.Go(func() error {
		defer close(jobs)
		for i := range m.Jobs {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	var (
		mu     sync.Mutex
		failed int
	)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			tr := lib.NewTranscoder()
			defer tr.Close()
			for i := range jobs {
				j := m.Jobs[i]
				n, err := runJob(tr, j)
				mu.Lock()
				if err != nil {
					failed++
					fmt.Fprintf(stdout, "FAIL %s: %v\n", j.Out, err)
				} else {
					fmt.Fprintf(stdout, "ok   %s (%s, %d bytes)\n", j.Out, j.Format, n)
				}
				mu.Unlock()
				if err != nil {
					log.Warn("batch job failed", zap.Int("job", i), zap.String("in", j.In), zap.Error(err))
					if !m.KeepGoing {
						return err
					}
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("batch: %d of %d jobs failed", failed, len(m.Jobs))
	}
	return nil
}
