// Package linker implements the module linker (spec.md §4.8): it drives
// one entry source through the rest of the pipeline, resolves the
// specifiers the emitted code imports, decides how to wrap the result,
// and writes the final `.mjs`/`.mjs.map` pair to the cache directory.
package linker

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hlvm-dev/hql/core/diag"
)

// SpecifierKind classifies an import/export specifier found in emitted code.
type SpecifierKind int

const (
	// SpecifierHQLPackage is `@hql/<name>`.
	SpecifierHQLPackage SpecifierKind = iota
	// SpecifierRelative is `./…`, `../…`, or `file:`.
	SpecifierRelative
	// SpecifierPassThrough is `http(s):`, `jsr:`, `npm:`, or a bare package name.
	SpecifierPassThrough
)

// Specifier is one resolved import/export found in emitted code.
type Specifier struct {
	Raw  string
	Kind SpecifierKind
}

// importExportRe finds `import`/`export ... from` specifiers at the start
// of a line, per spec.md §4.8's "imports only meaningful at top-of-file"
// and §4.8 step 2's regex-scan approach (no embedded ESM parser).
var importExportRe = regexp.MustCompile(`(?m)^\s*(?:import|export)\b[^'"` + "`" + `]*['"]([^'"]+)['"]`)

// exportRe detects a bare `export` (default or named) to distinguish
// "has exports" from "has imports only" for the wrapping decision
// (spec.md §4.8 step 4).
var exportRe = regexp.MustCompile(`(?m)^\s*export\b`)

// ScanSpecifiers extracts every import/export specifier from code and
// classifies it.
func ScanSpecifiers(code string) []Specifier {
	matches := importExportRe.FindAllStringSubmatch(code, -1)
	specs := make([]Specifier, 0, len(matches))
	for _, m := range matches {
		specs = append(specs, Specifier{Raw: m[1], Kind: classify(m[1])})
	}
	return specs
}

// HasExports reports whether code contains a top-level `export`.
func HasExports(code string) bool {
	return exportRe.MatchString(code)
}

func classify(spec string) SpecifierKind {
	switch {
	case strings.HasPrefix(spec, "@hql/"):
		return SpecifierHQLPackage
	case strings.HasPrefix(spec, "./"), strings.HasPrefix(spec, "../"), strings.HasPrefix(spec, "file:"):
		return SpecifierRelative
	default:
		return SpecifierPassThrough
	}
}

// Resolution is the outcome of resolving one specifier against an
// importing file's directory.
type Resolution struct {
	Specifier Specifier
	// CompilePath is set when the specifier names a `.hql` file that must
	// be compiled (SpecifierRelative resolving to a .hql path, or
	// SpecifierHQLPackage resolving into the embedded table/packages dir).
	CompilePath string
	// Rewritten is the specifier text to substitute into the emitted code.
	// Empty for a pass-through specifier (left unchanged).
	Rewritten string
}

// PackageLookup resolves `@hql/<name>` to either an embedded source (ok
// true) or a filesystem path under <install-dir>/packages/<name>/mod.hql.
type PackageLookup func(name string) (embeddedSource string, ok bool, fallbackPath string)

// PackageVersions lists the versions of <name> available in the
// embedded-package table, for SelectVersion to pick the best match against
// a `@hql/<name>@<constraint>` specifier's version constraint. Nil means
// the table is unversioned (every lookup is "latest").
type PackageVersions func(name string) []string

// Resolver resolves specifiers found in one importer's emitted code
// against its source directory (spec.md §4.8 step 3).
type Resolver struct {
	InstallDir string
	Lookup     PackageLookup
	Versions   PackageVersions
}

// Resolve resolves spec, found while compiling importerDir (the directory
// containing the .hql file that produced the code under scan).
func (r *Resolver) Resolve(spec Specifier, importerDir string) (Resolution, error) {
	switch spec.Kind {
	case SpecifierHQLPackage:
		return r.resolveHQLPackage(spec)
	case SpecifierRelative:
		return r.resolveRelative(spec, importerDir)
	default:
		return Resolution{Specifier: spec}, nil
	}
}

func (r *Resolver) resolveHQLPackage(spec Specifier) (Resolution, error) {
	name, constraint := SplitPackageSpecifier(strings.TrimPrefix(spec.Raw, "@hql/"))

	if constraint != "" && r.Versions != nil {
		available := r.Versions(name)
		selected, ok := SelectVersion(constraint, available)
		if !ok {
			return Resolution{}, errUnresolvable(spec.Raw, diag.Position{})
		}
		name = name + "@" + selected
	}

	if r.Lookup != nil {
		if src, ok, fallback := r.Lookup(name); ok {
			return Resolution{Specifier: spec, CompilePath: "@embedded:" + name, Rewritten: src}, nil
		} else if fallback != "" {
			return Resolution{Specifier: spec, CompilePath: fallback}, nil
		}
	}
	path := filepath.Join(r.InstallDir, "packages", name, "mod.hql")
	return Resolution{Specifier: spec, CompilePath: path}, nil
}

func (r *Resolver) resolveRelative(spec Specifier, importerDir string) (Resolution, error) {
	raw := strings.TrimPrefix(spec.Raw, "file:")
	path := raw
	if !filepath.IsAbs(path) {
		path = filepath.Join(importerDir, raw)
	}
	if filepath.Ext(path) != ".hql" {
		return Resolution{Specifier: spec}, nil
	}
	return Resolution{Specifier: spec, CompilePath: path}, nil
}

// errUnresolvable builds the error returned when a specifier cannot be
// placed under any allowed root (spec.md §4.8's ModuleResolveError failure mode).
func errUnresolvable(spec string, pos diag.Position) error {
	return diag.New(diag.KindModuleResolve, pos, "cannot resolve import specifier \""+spec+"\"")
}
