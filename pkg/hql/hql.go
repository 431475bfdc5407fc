// Package hql is the compiler's public entry API (spec.md §6): Transpile,
// Run, RunFile, MacroExpand, and MacroExpand1, built directly on
// internal/linker.Linker. A Compiler resets the process-wide gensym counter
// on every call unless Options.Incremental is set, and always uses a fresh
// macro-time interpreter/expander, so output is deterministic across
// unrelated compiles (spec.md §9, resolved concretely in SPEC_FULL.md §C).
package hql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hlvm-dev/hql/core/ast"
	"github.com/hlvm-dev/hql/core/diag"
	"github.com/hlvm-dev/hql/core/env"
	"github.com/hlvm-dev/hql/core/gensym"
	"github.com/hlvm-dev/hql/internal/expander"
	"github.com/hlvm-dev/hql/internal/interp"
	"github.com/hlvm-dev/hql/internal/linker"
	"github.com/hlvm-dev/hql/internal/reader"
)

// Adapter evaluates compiled JS and returns the module's default-export
// value, injected by the caller in place of the default dynamic-import
// behavior (spec.md §6's `run`/`runFile` "adapter" option).
type Adapter func(ctx context.Context, js string) (any, error)

// Options configures one Transpile/Run/RunFile/MacroExpand(1) call.
type Options struct {
	BaseDir           string
	CurrentFile       string
	Strict            bool
	GenerateSourceMap bool
	SourceContent     string
	CacheDir          string
	InstallDir        string
	Adapter           Adapter
	// Incremental suppresses the gensym-counter reset a Compiler normally
	// performs at the start of every call, for a driver compiling many files
	// that share one logical module graph. The macro-time interpreter is
	// fresh on every call either way.
	Incremental bool
	Logger      *slog.Logger
}

// Result is transpile's output: the emitted JS and, if requested, its
// source map JSON.
type Result struct {
	Code      string
	SourceMap string
}

// Compiler is the stateful entry point SPEC_FULL.md §C's determinism
// guarantee is phrased against (`Compiler.Transpile`/`Run`).
type Compiler struct{}

// New returns a ready-to-use Compiler. Compiler carries no mutable state of
// its own today (the gensym counter it resets is process-wide); New exists
// so that future per-compiler state — a warm cache handle, a persistent
// macro-time interpreter for Incremental compiles — has somewhere to live
// without changing callers.
func New() *Compiler { return &Compiler{} }

func (opts Options) logger() *slog.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func (opts Options) currentFile() string {
	if opts.CurrentFile != "" {
		return opts.CurrentFile
	}
	return "<input>"
}

func (c *Compiler) newLinker(opts Options) *linker.Linker {
	return linker.New(linker.Options{
		BaseDir:           opts.BaseDir,
		CurrentFile:       opts.CurrentFile,
		Strict:            opts.Strict,
		GenerateSourceMap: opts.GenerateSourceMap,
		CacheDir:          opts.CacheDir,
		InstallDir:        opts.InstallDir,
		Lookup:            lookupEmbeddedPackage,
		Versions:          listEmbeddedVersions,
		Logger:            opts.logger(),
	})
}

// Transpile compiles source (and every module it statically imports) to JS,
// per spec.md §6's `transpile(source, options) → {code, sourceMap?}`.
func (c *Compiler) Transpile(source string, opts Options) (Result, error) {
	if !opts.Incremental {
		gensym.Reset()
	}
	out, err := c.newLinker(opts).Link(source, opts.currentFile())
	if err != nil {
		return Result{}, err
	}
	return Result{Code: out.Code, SourceMap: out.SourceMap}, nil
}

// Run transpiles source and evaluates it via opts.Adapter, or a default
// adapter that shells out to a `node` executable on PATH, per spec.md §6's
// `run(source, options) → value`. No JS VM library exists anywhere in this
// module's dependency stack, so a default in-process evaluator isn't
// possible; shelling out to Node mirrors the spec's own "write to cache and
// dynamic-import" default (Node is the dynamic-import host) without
// requiring every caller to supply an Adapter (see DESIGN.md).
func (c *Compiler) Run(ctx context.Context, source string, opts Options) (any, error) {
	result, err := c.Transpile(source, opts)
	if err != nil {
		return nil, err
	}
	adapter := opts.Adapter
	if adapter == nil {
		adapter = nodeAdapter
	}
	return adapter(ctx, result.Code)
}

// RunFile reads path and delegates to Run, per spec.md §6's
// `runFile(path, options) → value`.
func (c *Compiler) RunFile(ctx context.Context, path string, opts Options) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, diag.New(diag.KindIO, diag.Position{File: path}, fmt.Sprintf("runFile: %v", err))
	}
	if opts.CurrentFile == "" {
		opts.CurrentFile = path
	}
	if opts.BaseDir == "" {
		opts.BaseDir = filepath.Dir(path)
	}
	return c.Run(ctx, string(data), opts)
}

// MacroExpand returns every top-level form of source fully macro-expanded
// (spec.md §6's `macroexpand(source, opts)`), rendered back to HQL source
// text, one entry per top-level form.
func (c *Compiler) MacroExpand(source string, opts Options) ([]string, error) {
	return c.expand(source, opts, (*expander.Expander).ExpandProgram)
}

// MacroExpand1 returns every top-level form of source with exactly one
// outer macro rewrite applied (spec.md §6's `macroexpand1`), stopping short
// of recursively expanding the result.
func (c *Compiler) MacroExpand1(source string, opts Options) ([]string, error) {
	return c.expand(source, opts, (*expander.Expander).ExpandProgramOnce)
}

type expandFunc func(*expander.Expander, []*ast.Node, *env.Environment) ([]*ast.Node, error)

func (c *Compiler) expand(source string, opts Options, fn expandFunc) ([]string, error) {
	if !opts.Incremental {
		gensym.Reset()
	}
	file := opts.currentFile()
	forms, err := reader.ReadAll(source, file)
	if err != nil {
		return nil, err
	}
	it := interp.New(opts.logger())
	ex := expander.New(it, opts.logger())
	global := env.NewGlobal(file)
	expanded, err := fn(ex, forms, global)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(expanded))
	for i, f := range expanded {
		out[i] = f.String()
	}
	return out, nil
}

// nodeAdapter is the default Adapter: write the compiled module to a
// temporary .mjs file and evaluate it under Node, printing its default
// export (if any) as JSON so the Go caller gets a structured value back.
func nodeAdapter(ctx context.Context, js string) (any, error) {
	node, err := exec.LookPath("node")
	if err != nil {
		return nil, diag.New(diag.KindIO, diag.Position{},
			"run: no Options.Adapter supplied and no \"node\" executable found on PATH").
			WithSuggestion("install Node.js, or supply Options.Adapter to evaluate compiled JS yourself")
	}

	dir, err := os.MkdirTemp("", "hql-run-*")
	if err != nil {
		return nil, diag.New(diag.KindIO, diag.Position{}, fmt.Sprintf("run: create temp dir: %v", err))
	}
	defer os.RemoveAll(dir)

	modPath := filepath.Join(dir, "entry.mjs")
	if err := os.WriteFile(modPath, []byte(js), 0o644); err != nil {
		return nil, diag.New(diag.KindIO, diag.Position{}, fmt.Sprintf("run: write module: %v", err))
	}

	runner := fmt.Sprintf(
		"import(%q).then(m => { const v = 'default' in m ? m.default : m; "+
			"process.stdout.write(JSON.stringify(v === undefined ? null : v)); })"+
			".catch(e => { process.stderr.write(String(e && e.message || e)); process.exit(1); });",
		"file://"+modPath,
	)

	cmd := exec.CommandContext(ctx, node, "--input-type=module", "-e", runner)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, diag.New(diag.KindRuntime, diag.Position{}, strings.TrimSpace(stderr.String())).WithExample(js)
	}

	var value any
	if err := json.Unmarshal(stdout.Bytes(), &value); err != nil {
		return strings.TrimSpace(stdout.String()), nil
	}
	return value, nil
}

// Package-level convenience wrappers mirror spec.md §6's free-function
// naming (transpile/run/runFile/macroexpand/macroexpand1) over a fresh
// Compiler, since every Compiler method is itself stateless beyond the
// process-wide gensym reset.

// Transpile is Compiler.Transpile on a fresh Compiler.
func Transpile(source string, opts Options) (Result, error) { return New().Transpile(source, opts) }

// Run is Compiler.Run on a fresh Compiler.
func Run(ctx context.Context, source string, opts Options) (any, error) {
	return New().Run(ctx, source, opts)
}

// RunFile is Compiler.RunFile on a fresh Compiler.
func RunFile(ctx context.Context, path string, opts Options) (any, error) {
	return New().RunFile(ctx, path, opts)
}

// MacroExpand is Compiler.MacroExpand on a fresh Compiler.
func MacroExpand(source string, opts Options) ([]string, error) { return New().MacroExpand(source, opts) }

// MacroExpand1 is Compiler.MacroExpand1 on a fresh Compiler.
func MacroExpand1(source string, opts Options) ([]string, error) {
	return New().MacroExpand1(source, opts)
}
