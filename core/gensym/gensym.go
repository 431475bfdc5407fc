// Package gensym implements the compiler's one process-wide unique-symbol
// counter (spec.md §3, §9: "the gensym counter is process-wide; reset
// between unrelated compiles to obtain deterministic output").
package gensym

import (
	"strconv"
	"sync/atomic"
)

var counter atomic.Uint64

// Next returns a new symbol "prefix_N" with N monotonically increasing
// within the process. This backs both explicit (gensym ["prefix"]) calls
// from the macro-time interpreter and the expander's auto-gensym rewriting
// of foo# template symbols.
func Next(prefix string) string {
	n := counter.Add(1)
	return prefix + "_" + strconv.FormatUint(n, 10)
}

// Reset zeroes the counter. The driver calls this at the start of every
// unrelated compile (spec.md §9) so that output is deterministic across
// runs; Options.Incremental suppresses the call for multi-file compiles
// sharing one module graph.
func Reset() {
	counter.Store(0)
}
