// Command wasm2kt translates a Wasm binary into a single Kotlin source
// file implementing the same module as a class over a small runtime
// library (Memory, Table, Func, Tag<F>, ModuleRegistry).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wasm2kt/wasm2kt/assemble"
	"github.com/wasm2kt/wasm2kt/internal/logging"
	"github.com/wasm2kt/wasm2kt/validate"
	"github.com/wasm2kt/wasm2kt/wasm"
)

// supportedFeatures mirrors assemble's fixed feature set: one
// --enable-<name> flag per entry, all true by default since the
// decoder already handles every one of them unconditionally. Passing
// any other --enable-<name> is rejected by flag.Parse itself, since no
// such flag is registered, matching cmd/run/main.go's style of
// fail-fast usage errors.
var supportedFeatures = []string{"exceptions", "bulk-memory", "sign-ext", "multi-value"}

func main() {
	var (
		verbose      bool
		output       string
		packageName  string
		className    string
		noDebugNames bool
	)

	flag.BoolVar(&verbose, "v", false, "enable verbose logging")
	flag.BoolVar(&verbose, "verbose", false, "enable verbose logging")
	flag.StringVar(&output, "o", "", "output file path (default: stdout)")
	flag.StringVar(&output, "output", "", "output file path (default: stdout)")
	flag.StringVar(&packageName, "p", "", "Kotlin package name for the generated file")
	flag.StringVar(&packageName, "package", "", "Kotlin package name for the generated file")
	flag.StringVar(&className, "c", "", "Kotlin class name for the generated module (default: output file name without extension, or Wasm)")
	flag.StringVar(&className, "class", "", "Kotlin class name for the generated module (default: output file name without extension, or Wasm)")
	flag.BoolVar(&noDebugNames, "no-debug-names", false, "ignore the Wasm name custom section")

	features := make(map[string]*bool, len(supportedFeatures))
	for _, name := range supportedFeatures {
		enabled := new(bool)
		flag.BoolVar(enabled, "enable-"+name, true, "enable the "+name+" feature (default on)")
		features[name] = enabled
	}
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(1)
	}
	wasmFile := flag.Arg(0)

	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "wasm2kt: logger init: %v\n", err)
			os.Exit(1)
		}
		logging.SetLogger(l)
	}

	enabled := make(map[string]bool, len(features))
	for name, on := range features {
		enabled[name] = *on
	}

	if err := run(wasmFile, output, packageName, className, noDebugNames, enabled, verbose); err != nil {
		fmt.Fprintf(os.Stderr, "wasm2kt: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: wasm2kt [-v|--verbose] [-o|--output file] [-p|--package name]")
	fmt.Fprintln(os.Stderr, "               [-c|--class name] [--no-debug-names] [--enable-<feature>] <file.wasm>")
}

func run(wasmFile, output, packageName, className string, noDebugNames bool, features map[string]bool, verbose bool) error {
	ctx := context.Background()

	raw, err := os.ReadFile(wasmFile)
	if err != nil {
		return fmt.Errorf("read %s: %w", wasmFile, err)
	}

	if err := validate.Module(ctx, raw); err != nil {
		return fmt.Errorf("validate %s: %w", wasmFile, err)
	}

	mod, err := wasm.ParseModule(raw)
	if err != nil {
		return fmt.Errorf("decode %s: %w", wasmFile, err)
	}

	if className == "" && output != "" {
		className = strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))
	}

	progress := newProgressReporter(verbose && term.IsTerminal(int(os.Stdout.Fd())), len(mod.Code))
	progress.start()
	defer progress.stop()

	opts := assemble.Options{
		PackageName:  packageName,
		ClassName:    className,
		NoDebugNames: noDebugNames,
		Features:     features,
		OnFuncDone:   progress.funcDone,
	}

	src, err := assemble.TranslateModule(mod, opts)
	if err != nil {
		return fmt.Errorf("translate %s: %w", wasmFile, err)
	}

	if output == "" {
		_, err := fmt.Fprint(os.Stdout, src)
		return err
	}
	return os.WriteFile(output, []byte(src), 0o644)
}
