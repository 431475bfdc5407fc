package linker

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hlvm-dev/hql/core/diag"
	"github.com/hlvm-dev/hql/core/env"
	"github.com/hlvm-dev/hql/internal/codegen"
	"github.com/hlvm-dev/hql/internal/expander"
	"github.com/hlvm-dev/hql/internal/interp"
	"github.com/hlvm-dev/hql/internal/lower"
	"github.com/hlvm-dev/hql/internal/optimize"
	"github.com/hlvm-dev/hql/internal/reader"
	"github.com/hlvm-dev/hql/internal/validator"
)

// Options configures one Link call (spec.md §6's Entry API options
// relevant to module resolution and output).
type Options struct {
	BaseDir           string
	CurrentFile       string
	Strict            bool
	GenerateSourceMap bool
	CacheDir          string
	InstallDir        string
	Lookup            PackageLookup
	Versions          PackageVersions
	Logger            *slog.Logger
}

// Linker drives one entry source through the full pipeline (reader through
// codegen), resolves and recursively compiles its imports, decides how to
// wrap the result, and writes the final `.mjs`/`.mjs.map` pair — spec.md
// §4.8's six responsibilities.
type Linker struct {
	opts     Options
	graph    *Graph
	resolver *Resolver
}

// New creates a Linker with its own Graph; every Link call made on the same
// Linker shares that Graph and its dedup scope.
func New(opts Options) *Linker {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Linker{
		opts:  opts,
		graph: NewGraph(),
		resolver: &Resolver{
			InstallDir: opts.InstallDir,
			Lookup:     opts.Lookup,
			Versions:   opts.Versions,
		},
	}
}

// compileOne runs one source file through reader→expander→validator→lower→
// optimize→codegen, spec.md §4.8 step 1. It does not resolve imports; that
// is layered on in Link.
func compileOne(source, file string, strict bool, logger *slog.Logger) (string, *optimize.Result, []codegen.Mapping, error) {
	forms, err := reader.ReadAll(source, file)
	if err != nil {
		return "", nil, nil, err
	}

	it := interp.New(logger)
	ex := expander.New(it, logger)
	global := env.NewGlobal(file)
	expanded, err := ex.ExpandProgram(forms, global)
	if err != nil {
		return "", nil, nil, err
	}

	validated, warnings, err := validator.Validate(expanded, validator.Options{Strict: strict}, logger)
	if err != nil {
		return "", nil, nil, err
	}
	for _, w := range warnings {
		logger.Warn(w.Message, "pos", w.Pos.String())
	}

	program, err := lower.Program(validated)
	if err != nil {
		return "", nil, nil, err
	}

	result := optimize.Run(program)

	out, err := codegen.Generate(result.Program, file)
	if err != nil {
		return "", nil, nil, err
	}
	return out.Code, result, out.Mappings, nil
}

// Link compiles source (from file) and every module it statically imports,
// producing the final wrapped JS, its source map JSON, and the set of
// helpers the entry module's own code references (each imported module's
// output carries its own set).
func (l *Linker) Link(source, file string) (*ModuleOutput, error) {
	out, err := l.graph.Resolve(normalizePath(file), func() (*ModuleOutput, error) {
		return l.compileAndLink(source, file)
	})
	return out, err
}

func (l *Linker) compileAndLink(source, file string) (*ModuleOutput, error) {
	code, result, mappings, err := compileOne(source, file, l.opts.Strict, l.opts.Logger)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(file)
	specs := ScanSpecifiers(code)
	for _, spec := range specs {
		res, err := l.resolver.Resolve(spec, dir)
		if err != nil {
			return nil, err
		}
		if res.CompilePath == "" {
			continue // pass-through specifier, left as-is in emitted code
		}
		if err := l.compileImport(res); err != nil {
			return nil, diag.New(diag.KindModuleResolve, diag.Position{File: file},
				fmt.Sprintf("failed to resolve import %q: %v", spec.Raw, err)).WithExample(res.CompilePath)
		}
		if newSpec := outputSpecifier(res); newSpec != "" {
			code = rewriteSpecifier(code, spec.Raw, newSpec)
		}
	}

	kind := DecideWrap(code)
	prelude := BuildPrelude(result.Helpers)
	shifted := codegen.ShiftLines(mappings, PreludeLineCount(result.Helpers))
	wrapped, shifted := Wrap(kind, prelude+code, shifted)

	var sourceMap string
	if l.opts.GenerateSourceMap {
		sm := codegen.BuildSourceMap(outputPath(file), []string{file}, []string{source}, shifted)
		data, err := json.Marshal(sm)
		if err != nil {
			return nil, fmt.Errorf("linker: encode source map: %w", err)
		}
		sourceMap = string(data)
	}

	return &ModuleOutput{
		Path:      file,
		Code:      wrapped,
		SourceMap: sourceMap,
		Helpers:   result.Helpers,
	}, nil
}

// compileImport recursively compiles a resolved .hql import if it hasn't
// already been claimed by the module graph (dedup + cycle-breaking via
// Graph.Resolve).
func (l *Linker) compileImport(res Resolution) error {
	source := res.Rewritten
	if source == "" {
		data, err := os.ReadFile(res.CompilePath)
		if err != nil {
			return diag.New(diag.KindIO, diag.Position{}, fmt.Sprintf("read %s: %v", res.CompilePath, err))
		}
		source = string(data)
	}
	_, err := l.graph.Resolve(normalizePath(res.CompilePath), func() (*ModuleOutput, error) {
		return l.compileAndLink(source, res.CompilePath)
	})
	return err
}

// outputSpecifier computes the specifier text to substitute for a resolved
// import so it points at where WriteAll will place the compiled dependency:
// a flat output directory, one file per basename (spec.md §4.8 step 3's
// "rewrite the specifier to the emitted .mjs path URL", simplified to a flat
// layout rather than mirroring source subdirectories — see DESIGN.md).
func outputSpecifier(res Resolution) string {
	switch res.Specifier.Kind {
	case SpecifierRelative:
		base := strings.TrimSuffix(filepath.Base(res.CompilePath), filepath.Ext(res.CompilePath))
		return "./" + base + ".mjs"
	case SpecifierHQLPackage:
		name, _ := SplitPackageSpecifier(strings.TrimPrefix(res.Specifier.Raw, "@hql/"))
		return "./" + name + ".mjs"
	default:
		return ""
	}
}

func rewriteSpecifier(code, raw, newSpec string) string {
	code = strings.Replace(code, "\""+raw+"\"", "\""+newSpec+"\"", 1)
	code = strings.Replace(code, "'"+raw+"'", "'"+newSpec+"'", 1)
	return code
}

// Write installs out's code and source map under dir as <stem>.mjs and
// <stem>.mjs.map, atomically, with a trailing sourceMappingURL footer
// (spec.md §4.8 step 5). stem is the entry file's basename without its
// .hql extension.
func Write(dir, stem string, out *ModuleOutput) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("linker: create output dir: %w", err)
	}
	mjsPath := filepath.Join(dir, stem+".mjs")
	mapPath := filepath.Join(dir, stem+".mjs.map")

	code := out.Code
	if out.SourceMap != "" {
		code += "//# sourceMappingURL=" + filepath.Base(mapPath) + "\n"
		if err := atomicWrite(mapPath, []byte(out.SourceMap)); err != nil {
			return "", err
		}
	}
	if err := atomicWrite(mjsPath, []byte(code)); err != nil {
		return "", err
	}
	return mjsPath, nil
}

func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".hql-out-*")
	if err != nil {
		return fmt.Errorf("linker: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("linker: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("linker: rename into place: %w", err)
	}
	return nil
}

func outputPath(file string) string {
	ext := filepath.Ext(file)
	return file[:len(file)-len(ext)] + ".mjs"
}

func normalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// ImportGraph returns every path any Link call on this Linker has touched, sorted, for a
// cache.Record's ImportGraph field.
func (l *Linker) ImportGraph() []string {
	paths := l.graph.Paths()
	sort.Strings(paths)
	return paths
}

// WriteAll writes entry (under entryStem) and every module it statically
// imports into dir, flatly by basename, matching outputSpecifier's rewrite
// target. Returns entry's final .mjs path.
func (l *Linker) WriteAll(dir, entryStem string, entry *ModuleOutput) (string, error) {
	entryKey := normalizePath(entry.Path)
	for path, out := range l.graph.Outputs() {
		if normalizePath(path) == entryKey {
			continue
		}
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if _, err := Write(dir, stem, out); err != nil {
			return "", err
		}
	}
	return Write(dir, entryStem, entry)
}
