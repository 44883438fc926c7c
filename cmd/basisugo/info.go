package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/fintelia/basisu/basisu"
	"github.com/fintelia/basisu/basisu/container"
)

func infoCmd(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	var (
		inPath   string
		impl     string
		wasmPath string
		slices   bool
		verbose  bool
	)
	fs.StringVar(&inPath, "in", "", "input .basis file")
	fs.StringVar(&impl, "impl", "", "implementation: go|native|wasm (default: native if built in, else go)")
	fs.StringVar(&wasmPath, "wasm", "", "wasm guest module for -impl wasm")
	fs.BoolVar(&slices, "slices", false, "also print every slice descriptor")
	fs.BoolVar(&verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	if inPath == "" {
		return usageError("missing -in")
	}
	setupLogger(verbose)

	implVal, err := parseImpl(impl)
	if err != nil {
		return err
	}
	data, err := readInput(inPath)
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
	return printInfo(stdout, tr, data, slices)
}

func printInfo(w io.Writer, tr *basisu.Transcoder, data []byte, slices bool) error {
	fi, err := tr.FileInfo(data)
	if err != nil {
		return err
	}
	ft, err := tr.StartTranscoding(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "backend=%s version=%#x format=%s type=%s images=%d slices=%d\n",
		tr.Library().Backend().Name(), fi.Version, fi.Format, fi.Type, fi.TotalImages, fi.TotalSlices)
	fmt.Fprintf(w, "alpha=%t srgb=%t yflip=%t us_per_frame=%d userdata=%d,%d\n",
		fi.HasAlpha, fi.SRGB, fi.YFlipped, fi.UsPerFrame, fi.Userdata0, fi.Userdata1)

	for image := uint32(0); image < ft.TotalImages(); image++ {
		levels := ft.TotalImageLevels(image)
		for level := uint32(0); level < levels; level++ {
			info, err := ft.ImageLevelInfo(image, level)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "image=%d level=%d size=%dx%d padded=%dx%d blocks=%dx%d alpha=%t iframe=%t\n",
				image, level, info.OrigWidth, info.OrigHeight, info.Width, info.Height,
				info.NumBlocksX, info.NumBlocksY, info.HasAlpha, info.IFrame)
		}
	}

	if slices {
		f, err := container.Parse(data)
		if err != nil {
			return err
		}
		for i, s := range f.Slices {
			fmt.Fprintf(w, "slice %d: %s\n", i, s)
		}
	}
	return nil
}

func formatsCmd(w io.Writer) error {
	for _, f := range basisu.OutputFormats() {
		kind := "block"
		if f.IsUncompressed() {
			kind = "pixel"
		}
		fmt.Fprintf(w, "%-14s code=%-2d %s=%dx%d bytes=%d\n",
			f, uint32(f), kind, f.BlockWidth(), f.BlockHeight(), f.BytesPerBlock())
	}
	return nil
}
