package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/fintelia/basisu/basisu"
	"github.com/fintelia/basisu/internal/compress"
)

// job is one transcode request. It is also the [[job]] table of a batch manifest.
type job struct {
	In       string `toml:"in"`
	Out      string `toml:"out"`
	Format   string `toml:"format"`
	Image    uint32 `toml:"image"`
	Level    uint32 `toml:"level"`
	Compress string `toml:"compress"`
}

func transcodeCmd(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("transcode", flag.ContinueOnError)
	var (
		j        job
		impl     string
		wasmPath string
		verbose  bool
	)
	fs.StringVar(&j.In, "in", "", "input .basis file")
	fs.StringVar(&j.Out, "out", "", "output file (.png for uncompressed formats, raw blocks otherwise)")
	fs.StringVar(&j.Format, "format", "rgba32", "output format (see basisugo formats)")
	imageIdx := fs.Uint("image", 0, "image index")
	levelIdx := fs.Uint("level", 0, "mip level index")
	fs.StringVar(&j.Compress, "compress", "", "output compression: none|zstd|s2|lz4 (default: from -out extension)")
	fs.StringVar(&impl, "impl", "", "implementation: go|native|wasm")
	fs.StringVar(&wasmPath, "wasm", "", "wasm guest module for -impl wasm")
	fs.BoolVar(&verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	if j.In == "" || j.Out == "" {
		return usageError("missing -in or -out")
	}
	j.Image, j.Level = uint32(*imageIdx), uint32(*levelIdx)
	log := setupLogger(verbose)

	implVal, err := parseImpl(impl)
	if err != nil {
		return err
	}
	lib, release, err := openLibrary(context.Background(), implVal, wasmPath)
	if err != nil {
		return err
	}
	defer release()

	tr := lib.NewTranscoder()
	defer tr.Close()

	n, err := runJob(tr, j)
	if err != nil {
		return err
	}
	log.Debug("transcoded", zap.String("in", j.In), zap.String("out", j.Out), zap.Int("bytes", n))
	fmt.Fprintf(stdout, "%s: image=%d level=%d format=%s bytes=%d\n", j.Out, j.Image, j.Level, j.Format, n)
	return nil
}

// runJob transcodes one level with tr and writes it out. It returns the size of the
// transcoded level.
func runJob(tr *basisu.Transcoder, j job) (int, error) {
	format, err := basisu.ParseOutputFormat(j.Format)
	if err != nil {
		return 0, usageError(err.Error())
	}
	asPNG := strings.EqualFold(filepath.Ext(compress.TrimExt(j.Out, compress.ForPath(j.Out))), ".png")
	if asPNG && !format.IsUncompressed() {
		return 0, usageError(fmt.Sprintf("%s: PNG output needs an uncompressed format, not %s", j.Out, format))
	}

	data, err := readInput(j.In)
	if err != nil {
		return 0, err
	}
	ft, err := tr.StartTranscoding(data)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", j.In, err)
	}
	info, err := ft.ImageLevelInfo(j.Image, j.Level)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", j.In, err)
	}
	pix, err := ft.Transcode(j.Image, j.Level, format)
	if err != nil {
		return 0, fmt.Errorf("%s: image %d level %d to %s: %w", j.In, j.Image, j.Level, format, err)
	}

	out := pix
	if asPNG {
		img := toNRGBA(pix, int(info.OrigWidth), int(info.OrigHeight), format)
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return 0, err
		}
		out = buf.Bytes()
	}
	if err := writeOutput(j.Out, out, j.Compress); err != nil {
		return 0, err
	}
	return len(pix), nil
}

// toNRGBA expands an uncompressed level to 8-bit straight-alpha RGBA.
func toNRGBA(pix []byte, w, h int, format basisu.OutputFormat) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	if format == basisu.RGBA32 {
		copy(img.Pix, pix)
		return img
	}
	for i := 0; i < w*h; i++ {
		v := binary.LittleEndian.Uint16(pix[i*2:])
		var r, g, b, a uint8
		switch format {
		case basisu.RGB565:
			r, g, b, a = expand5(v>>11), expand6(v>>5), expand5(v), 255
		case basisu.BGR565:
			r, g, b, a = expand5(v), expand6(v>>5), expand5(v>>11), 255
		case basisu.RGBA4444:
			r, g, b, a = expand4(v>>12), expand4(v>>8), expand4(v>>4), expand4(v)
		}
		img.Pix[i*4+0] = r
		img.Pix[i*4+1] = g
		img.Pix[i*4+2] = b
		img.Pix[i*4+3] = a
	}
	return img
}

func expand4(v uint16) uint8 { return uint8(v&15) * 17 }

func expand5(v uint16) uint8 {
	v &= 31
	return uint8(v<<3 | v>>2)
}

func expand6(v uint16) uint8 {
	v &= 63
	return uint8(v<<2 | v>>4)
}
