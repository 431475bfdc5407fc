package linker

import (
	"regexp"
	"strings"

	"github.com/hlvm-dev/hql/internal/codegen"
)

// useStrictRe matches a leading "use strict" directive prologue so it can
// be extracted and re-emitted outside a synchronous IIFE wrapper (spec.md
// §4.7's PrefixUseStrict / §4.8's IIFE wrapping).
var useStrictRe = regexp.MustCompile(`^(['"])use strict\1;?\n?`)

// WrapKind names which of the three wrapping strategies spec.md §4.8 step 4
// applies to an entry module's emitted code.
type WrapKind int

const (
	// WrapNone leaves ESM import/export syntax unwrapped, prefixed only
	// with the runtime-helper prelude.
	WrapNone WrapKind = iota
	// WrapAsyncIIFE wraps an entry that has imports but no exports in
	// `export default (async () => { ... })();` so top-level await works
	// without the module itself being an ESM producer.
	WrapAsyncIIFE
	// WrapSyncIIFE wraps a self-contained entry (no imports, no exports)
	// in a synchronous IIFE, with any "use strict" prologue re-emitted
	// ahead of the wrapper rather than trapped inside it.
	WrapSyncIIFE
)

// DecideWrap chooses a wrapping strategy from whether code contains ESM
// import/export syntax, per spec.md §4.8 step 4.
func DecideWrap(code string) WrapKind {
	specs := ScanSpecifiers(code)
	exports := HasExports(code)
	switch {
	case exports:
		return WrapNone
	case len(specs) > 0:
		return WrapAsyncIIFE
	default:
		return WrapSyncIIFE
	}
}

// Wrap applies kind to code/mappings, returning the final wrapped code and
// mappings shifted to account for any prepended lines (spec.md §4.7's
// ShiftLines contract, applied here once wrapping is decided).
func Wrap(kind WrapKind, code string, mappings []codegen.Mapping) (string, []codegen.Mapping) {
	switch kind {
	case WrapAsyncIIFE:
		wrapped := "export default (async () => {\n" + indentBlock(code) + "})();\n"
		return wrapped, codegen.ShiftLines(mappings, 1)
	case WrapSyncIIFE:
		directive, body := splitUseStrict(code)
		wrapped := directive + "(function () {\n" + indentBlock(body) + "})();\n"
		shifted := codegen.ShiftLines(mappings, strings.Count(directive, "\n")+1)
		return wrapped, shifted
	default:
		return code, mappings
	}
}

func splitUseStrict(code string) (directive, rest string) {
	if loc := useStrictRe.FindStringIndex(code); loc != nil {
		return code[:loc[1]], code[loc[1]:]
	}
	return "", code
}

func indentBlock(code string) string {
	lines := strings.Split(strings.TrimSuffix(code, "\n"), "\n")
	for i, l := range lines {
		if l == "" {
			continue
		}
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n") + "\n"
}
