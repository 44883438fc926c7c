// Command basisubench measures .basis transcoding and validation throughput.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/fintelia/basisu/basisu"
	"github.com/fintelia/basisu/internal/backends"
	"github.com/fintelia/basisu/internal/compress"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one subcommand and returns the process exit status. Deferred cleanup in the
// subcommands always runs before main exits.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "transcode":
		err = transcodeCmd(args[1:], stdout, stderr)
	case "validate":
		err = validateCmd(args[1:], stdout, stderr)
	default:
		usage(stderr)
		return 2
	}
	if err == nil {
		return 0
	}
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	fmt.Fprintln(stderr, err)
	if _, ok := err.(usageError); ok {
		return 2
	}
	return 1
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage:")
	fmt.Fprintln(w, "  basisubench transcode -in <file.basis> [-format bc7] [-image N] [-level N|-all-levels] [-impl go|native|wasm] [-wasm guest.wasm] [-iters N] [-workers N] [-checksum xxhash|none]")
	fmt.Fprintln(w, "  basisubench validate -in <file.basis> [-full] [-impl go|native|wasm] [-iters N] [-workers N]")
}

// usageError is reported with exit status 2.
type usageError string

func (e usageError) Error() string { return string(e) }

// openLibrary is replaced in tests.
var openLibrary = backends.Open

type commonFlags struct {
	inPath      string
	impl        string
	wasmPath    string
	iters       int
	workers     int
	cpuprofile  string
	memprofile  string
	memprofRate int
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.inPath, "in", "", "input .basis file (.zst/.s2/.lz4 are decompressed first)")
	fs.StringVar(&c.impl, "impl", "", "implementation: go|native|wasm (default: native if built in, else go)")
	fs.StringVar(&c.wasmPath, "wasm", "", "wasm guest module for -impl wasm")
	fs.IntVar(&c.iters, "iters", 200, "iterations per worker")
	fs.IntVar(&c.workers, "workers", 1, "concurrent workers, each with its own transcoder (0 = GOMAXPROCS)")
	fs.StringVar(&c.cpuprofile, "cpuprofile", "", "optional CPU profile output path")
	fs.StringVar(&c.memprofile, "memprofile", "", "optional memory profile output path")
	fs.IntVar(&c.memprofRate, "memprofilerate", 0, "optional runtime.MemProfileRate override (0 = default)")
}

// setup validates the common flags, loads the input and opens the library. On success the
// caller must call the returned release func.
func (c *commonFlags) setup() ([]byte, *basisu.Library, func(), error) {
	if c.inPath == "" {
		return nil, nil, nil, usageError("missing -in")
	}
	if c.iters <= 0 {
		return nil, nil, nil, usageError("iters must be > 0")
	}
	if c.workers <= 0 {
		c.workers = runtime.GOMAXPROCS(0)
	}
	kind, err := backends.Parse(c.impl)
	if err != nil {
		return nil, nil, nil, usageError(err.Error())
	}

	raw, err := os.ReadFile(c.inPath)
	if err != nil {
		return nil, nil, nil, err
	}
	data, err := compress.ForPath(c.inPath).Decompress(raw)
	if err != nil {
		return nil, nil, nil, err
	}

	lib, release, err := openLibrary(context.Background(), kind, c.wasmPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if c.memprofRate > 0 {
		runtime.MemProfileRate = c.memprofRate
	}
	return data, lib, release, nil
}

// startProfile starts CPU profiling if requested and returns the function that stops it.
func (c *commonFlags) startProfile() (func(), error) {
	if c.cpuprofile == "" {
		return func() {}, nil
	}
	f, err := os.Create(c.cpuprofile)
	if err != nil {
		return nil, err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	return func() {
		pprof.StopCPUProfile()
		_ = f.Close()
	}, nil
}

func (c *commonFlags) writeMemProfile() error {
	if c.memprofile == "" {
		return nil
	}
	f, err := os.Create(c.memprofile)
	if err != nil {
		return err
	}
	defer f.Close()
	return pprof.WriteHeapProfile(f)
}

type level struct {
	image, level uint32
	pixels       uint64
	size         int
}

func transcodeCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("transcode", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		c           commonFlags
		formatName  string
		imageIdx    uint
		levelIdx    uint
		allLevels   bool
		checksumOpt string
	)
	c.register(fs)
	fs.StringVar(&formatName, "format", "rgba32", "output format")
	fs.UintVar(&imageIdx, "image", 0, "image index")
	fs.UintVar(&levelIdx, "level", 0, "mip level index")
	fs.BoolVar(&allLevels, "all-levels", false, "transcode every level of the image per iteration")
	fs.StringVar(&checksumOpt, "checksum", "xxhash", "checksum: xxhash|none (for benchmarking)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usageError(err.Error())
	}

	format, err := basisu.ParseOutputFormat(formatName)
	if err != nil {
		return usageError(err.Error())
	}
	doChecksum := strings.ToLower(strings.TrimSpace(checksumOpt)) != "none"

	data, lib, release, err := c.setup()
	if err != nil {
		return err
	}
	defer release()

	levels, err := planLevels(lib, data, uint32(imageIdx), uint32(levelIdx), allLevels, format)
	if err != nil {
		return err
	}

	stop, err := c.startProfile()
	if err != nil {
		return err
	}
	start := time.Now()
	digests, err := runWorkers(c.workers, func(worker int) (uint64, error) {
		tr := lib.NewTranscoder()
		defer tr.Close()
		ft, err := tr.StartTranscoding(data)
		if err != nil {
			return 0, err
		}
		bufs := make([][]byte, len(levels))
		for i, l := range levels {
			bufs[i] = make([]byte, l.size)
		}
		d := xxhash.New()
		for it := 0; it < c.iters; it++ {
			for i, l := range levels {
				if err := ft.TranscodeImageLevel(l.image, l.level, bufs[i], format); err != nil {
					return 0, fmt.Errorf("image %d level %d: %w", l.image, l.level, err)
				}
				if doChecksum {
					_, _ = d.Write(bufs[i])
				}
			}
		}
		return d.Sum64(), nil
	})
	dur := time.Since(start)
	stop()
	if err != nil {
		return err
	}
	if err := c.writeMemProfile(); err != nil {
		return err
	}

	checksumStr := "none"
	if doChecksum {
		for _, d := range digests[1:] {
			if d != digests[0] {
				return errors.New("basisubench: workers produced different output")
			}
		}
		checksumStr = fmtChecksum(digests[0])
	}

	var pixels uint64
	for _, l := range levels {
		pixels += l.pixels
	}
	texels := float64(pixels) * float64(c.iters) * float64(c.workers)
	fmt.Fprintf(stdout, "RESULT impl=%s mode=transcode format=%s levels=%d workers=%d iters=%d seconds=%.6f mpix/s=%.3f checksum=%s\n",
		lib.Backend().Name(),
		format,
		len(levels),
		c.workers,
		c.iters,
		dur.Seconds(),
		texels/dur.Seconds()/1e6,
		checksumStr,
	)
	return nil
}

// planLevels resolves which levels each iteration transcodes and their output sizes.
func planLevels(lib *basisu.Library, data []byte, image, lvl uint32, all bool, format basisu.OutputFormat) ([]level, error) {
	tr := lib.NewTranscoder()
	defer tr.Close()
	ft, err := tr.StartTranscoding(data)
	if err != nil {
		return nil, err
	}
	first, last := lvl, lvl
	if all {
		n := ft.TotalImageLevels(image)
		if n == 0 {
			return nil, fmt.Errorf("basisubench: no image %d", image)
		}
		first, last = 0, n-1
	}
	var out []level
	for l := first; l <= last; l++ {
		info, err := ft.ImageLevelInfo(image, l)
		if err != nil {
			return nil, err
		}
		size, err := ft.RequiredOutputSize(image, l, format)
		if err != nil {
			return nil, err
		}
		out = append(out, level{
			image:  image,
			level:  l,
			pixels: uint64(info.OrigWidth) * uint64(info.OrigHeight),
			size:   size,
		})
	}
	return out, nil
}

func validateCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		c    commonFlags
		full bool
	)
	c.register(fs)
	fs.BoolVar(&full, "full", false, "also verify the data checksum")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usageError(err.Error())
	}

	data, lib, release, err := c.setup()
	if err != nil {
		return err
	}
	defer release()

	stop, err := c.startProfile()
	if err != nil {
		return err
	}
	start := time.Now()
	_, err = runWorkers(c.workers, func(worker int) (uint64, error) {
		tr := lib.NewTranscoder()
		defer tr.Close()
		for it := 0; it < c.iters; it++ {
			if !tr.ValidateFileChecksums(data, full) {
				return 0, errors.New("basisubench: checksum mismatch")
			}
			if _, err := tr.StartTranscoding(data); err != nil {
				return 0, err
			}
		}
		return 0, nil
	})
	dur := time.Since(start)
	stop()
	if err != nil {
		return err
	}
	if err := c.writeMemProfile(); err != nil {
		return err
	}

	total := float64(len(data)) * float64(c.iters) * float64(c.workers)
	fmt.Fprintf(stdout, "RESULT impl=%s mode=validate full=%t workers=%d iters=%d seconds=%.6f mb/s=%.3f\n",
		lib.Backend().Name(),
		full,
		c.workers,
		c.iters,
		dur.Seconds(),
		total/dur.Seconds()/1e6,
	)
	return nil
}

// runWorkers runs fn on n goroutines and collects each worker's digest.
func runWorkers(n int, fn func(worker int) (uint64, error)) ([]uint64, error) {
	digests := make([]uint64, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			digests[i], errs[i] = fn(i)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return digests, nil
}

func fmtChecksum(v uint64) string {
	return fmt.Sprintf("%016x", v)
}
