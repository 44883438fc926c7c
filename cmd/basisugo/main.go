// Command basisugo inspects, validates and transcodes .basis texture files.
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "info":
		err = infoCmd(args[1:], stdout)
	case "validate":
		err = validateCmd(args[1:], stdout)
	case "transcode":
		err = transcodeCmd(args[1:], stdout)
	case "batch":
		err = batchCmd(args[1:], stdout)
	case "formats":
		err = formatsCmd(stdout)
	case "-h", "-help", "--help", "help":
		usage(stdout)
		return 0
	default:
		usage(stderr)
		return 2
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		if _, ok := err.(usageError); ok {
			return 2
		}
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage:")
	fmt.Fprintln(w, "  basisugo info -in <file.basis> [-impl go|native|wasm] [-slices]")
	fmt.Fprintln(w, "  basisugo validate -in <file.basis> [-full] [-impl go|native|wasm]")
	fmt.Fprintln(w, "  basisugo transcode -in <file.basis> -out <file> -format <fmt> [-image N] [-level N] [-impl go|native|wasm] [-wasm guest.wasm] [-compress none|zstd|s2|lz4]")
	fmt.Fprintln(w, "  basisugo batch -manifest <jobs.toml> [-workers N]")
	fmt.Fprintln(w, "  basisugo formats")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Inputs ending in .zst, .s2 or .lz4 are decompressed first. Every command accepts -v for debug logging.")
}

// usageError is reported with exit status 2.
type usageError string

func (e usageError) Error() string { return string(e) }
