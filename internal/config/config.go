// Package config loads hql.config.yaml (SPEC_FULL.md §A.3): optional
// per-project settings for baseDir, installDir, strict mode, source-map
// generation, and the macro expander/interpreter's iteration and depth
// limits, decoded with gopkg.in/yaml.v3 the same way the teacher's module
// graph carries it as an indirect dependency for its own manifest files.
// cmd/hql applies strict, generateSourceMap and installDir from it; baseDir
// and the two limits are decoded but not passed on to the compiler.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// MacroInterpreter configures the macro-time interpreter's recursion guard
// (SPEC_FULL.md §D(c)).
type MacroInterpreter struct {
	MaxDepth int `yaml:"maxDepth"`
}

// Expander configures the macro expander's fixed-point iteration guard
// (spec.md §4.2's default-100 iteration limit).
type Expander struct {
	MaxIterations int `yaml:"maxIterations"`
}

// Config is hql.config.yaml's decoded shape. Every field is optional; a zero
// value means "use the compiler's built-in default."
type Config struct {
	BaseDir           string           `yaml:"baseDir"`
	InstallDir        string           `yaml:"installDir"`
	Strict            bool             `yaml:"strict"`
	GenerateSourceMap bool             `yaml:"generateSourceMap"`
	MacroInterpreter  MacroInterpreter `yaml:"macroInterpreter"`
	Expander          Expander         `yaml:"expander"`
}

// Default returns the built-in defaults: an empty Config except for the
// interpreter depth cap and expander iteration cap, both 100. Every caller applies it as the
// base before overlaying file and flag values, so unset fields never leak
// Go's zero value into options where that would mean something load-bearing
// (e.g. Expander.MaxIterations == 0 would disable macro expansion outright).
func Default() Config {
	return Config{
		MacroInterpreter: MacroInterpreter{MaxDepth: 100},
		Expander:         Expander{MaxIterations: 100},
	}
}

// Load reads and decodes the YAML config at path. A missing file is not an
// error: Load returns Default() unchanged, since hql.config.yaml is always
// optional (SPEC_FULL.md §A.3).
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Find locates hql.config.yaml starting at dir, the way the teacher's CLI
// looks for a manifest next to the entry file before falling back to
// defaults: dir/hql.config.yaml, or "" if absent.
func Find(dir string) string {
	candidate := filepath.Join(dir, "hql.config.yaml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}
