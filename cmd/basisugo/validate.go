package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
)

var errValidation = errors.New("validation failed")

func validateCmd(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	var (
		inPath   string
		impl     string
		wasmPath string
		full     bool
		verbose  bool
	)
	fs.StringVar(&inPath, "in", "", "input .basis file")
	fs.StringVar(&impl, "impl", "", "implementation: go|native|wasm")
	fs.StringVar(&wasmPath, "wasm", "", "wasm guest module for -impl wasm")
	fs.BoolVar(&full, "full", false, "also verify the data checksum")
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

	header := tr.ValidateFileHeader(data)
	checksums := tr.ValidateFileChecksums(data, full)
	_, startErr := tr.StartTranscoding(data)

	fmt.Fprintf(stdout, "header=%s checksums=%s full=%t structure=%s\n",
		okString(header), okString(checksums), full, okString(startErr == nil))
	if !header || !checksums || startErr != nil {
		return fmt.Errorf("%s: %w", inPath, errValidation)
	}
	return nil
}

func okString(ok bool) string {
	if ok {
		return "ok"
	}
	return "FAIL"
}
