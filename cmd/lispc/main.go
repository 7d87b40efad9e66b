// Command lispc is the ahead-of-time compiler's entry point: it
// reads a single Lisp source file, parses it, and emits
// "<prefix>.asm" next to it (or under -config's output_dir), ready
// to be assembled and linked against the external runtime.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/tinylisp/lispc/internal/codegen"
	"github.com/tinylisp/lispc/internal/config"
	"github.com/tinylisp/lispc/internal/diag"
	"github.com/tinylisp/lispc/internal/parser"
)

// VERSION identifies this build of the compiler.
var VERSION = "v1.0.0"

var errColor = color.New(color.FgRed, color.Bold)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	showHelp := flag.Bool("help", false, "print usage and exit")
	configPath := flag.String("config", "", "path to lispc.yaml (default: alongside the input file)")
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("lispc %s\n", VERSION)
		return
	}
	if *showHelp || flag.NArg() != 1 {
		usage()
		if *showHelp {
			return
		}
		os.Exit(1)
	}

	inputPath := flag.Arg(0)
	os.Exit(run(inputPath, *configPath))
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: lispc [-config path] <input_file.lisp>")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "  -config string  path to lispc.yaml (default: alongside the input file)")
	fmt.Fprintln(os.Stderr, "  -help           print this message and exit")
	fmt.Fprintln(os.Stderr, "  -version        print version and exit")
}

// run executes the read-parse-codegen pipeline and returns the
// process exit code, so main stays a thin os.Exit wrapper.
func run(inputPath, configPathOverride string) int {
	cfgPath := configPathOverride
	if cfgPath == "" {
		cfgPath = config.DefaultPathFor(inputPath)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		errColor.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	diag.Stage(os.Stdout, "Reading source file: %s", inputPath)
	sourceBytes, err := os.ReadFile(inputPath)
	if err != nil {
		errColor.Fprintf(os.Stderr, "Error: could not read file %q: %v\n", inputPath, err)
		return 1
	}
	source := string(sourceBytes)
	fmt.Printf("Source loaded successfully (%d bytes).\n\n", len(sourceBytes))

	diag.Stage(os.Stdout, "Parsing source code")
	p := parser.New(source)
	program, records := p.Parse()
	if diag.HasErrors(records) {
		fmt.Fprintln(os.Stderr, "Parsing failed:")
		diag.Report(os.Stderr, source, records)
		return 1
	}
	if len(records) > 0 {
		diag.Report(os.Stdout, source, records)
	}
	fmt.Printf("Parsing successful. AST has %d top-level expression(s).\n\n", len(program))

	outputPrefix := outputPrefixFor(inputPath, cfg.OutputDir)
	diag.Stage(os.Stdout, "Generating assembly with prefix: %s", outputPrefix)
	if err := codegen.Compile(program, outputPrefix, cfg); err != nil {
		errColor.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	diag.Success(os.Stdout, "\nCompilation successful!")
	fmt.Printf("Generated: %s.asm\n\n", outputPrefix)
	fmt.Println("To assemble and link, run:")
	fmt.Printf("  nasm -f elf64 -g %s.asm -o %s.o\n", outputPrefix, outputPrefix)
	fmt.Printf("  gcc %s.o runtime.o -o %s\n\n", outputPrefix, outputPrefix)

	return 0
}

// outputPrefixFor strips inputPath's directory and trailing
// extension to get the base name codegen writes "<prefix>.asm"
// under, then relocates it into outputDir if one is configured.
func outputPrefixFor(inputPath, outputDir string) string {
	base := filepath.Base(inputPath)
	if dot := strings.LastIndex(base, "."); dot > 0 {
		base = base[:dot]
	}
	if outputDir == "" {
		return filepath.Join(filepath.Dir(inputPath), base)
	}
	return filepath.Join(outputDir, base)
}
