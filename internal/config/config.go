// Package config loads the compiler's optional YAML configuration
// file over built-in defaults. No command-line flag overrides its
// fields; the CLI's -config flag only selects which file is read.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the settings that adjust how lispc writes its output,
// independent of the fixed runtime ABI spec.md §6 contracts.
type Config struct {
	// OutputDir overrides where "<prefix>.asm" is written; empty
	// means alongside the input file.
	OutputDir string `yaml:"output_dir"`

	// RuntimeSymbolPrefix is prepended to nothing today (the ABI
	// symbol names are fixed), but is kept as a forward-compatible
	// knob in case a future runtime build renames its label prefix;
	// the current runtime is always addressed by its literal names.
	RuntimeSymbolPrefix string `yaml:"runtime_symbol_prefix"`

	// EmitComments controls whether internal/emit appends "; <comment>"
	// trailers to instruction lines.
	EmitComments bool `yaml:"emit_comments"`
}

// Default returns the configuration used when no lispc.yaml is found.
func Default() Config {
	return Config{
		RuntimeSymbolPrefix: "lisp",
		EmitComments:        true,
	}
}

// Load reads path (if it exists) and merges it over Default(). A
// missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultPathFor returns the conventional "lispc.yaml" config path
// sitting next to inputFile.
func DefaultPathFor(inputFile string) string {
	return filepath.Join(filepath.Dir(inputFile), "lispc.yaml")
}
