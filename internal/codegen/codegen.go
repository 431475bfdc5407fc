// Package codegen walks the optimized IR and emits JavaScript text plus a
// source map (spec.md §4.7). Emission is a single recursive IR walk: each
// written segment records a Mapping back to the originating IR node's
// Position, the same "traverse once, accumulate output state on a struct"
// shape the teacher's planner.Emitter uses for IR-to-plan emission
// (runtime/planner/emitter.go).
package codegen

import (
	"fmt"
	"strings"

	"github.com/hlvm-dev/hql/core/diag"
	"github.com/hlvm-dev/hql/core/ir"
)

// Mapping is one source-map segment: generatedLine/Column is 0-based and
// relative to the user body (pre-prelude), matching spec.md §4.7's "anchored
// at line 1 column 0 of the user body" accounting.
type Mapping struct {
	GeneratedLine   int
	GeneratedColumn int
	Source          string
	OriginalLine    int
	OriginalColumn  int
}

// Output is the generator's result before prelude/wrapping is applied by
// the module linker (spec.md §4.8).
type Output struct {
	Code     string
	Mappings []Mapping
}

// Generator emits JS text for an IR tree, tracking its own generated
// line/column as it writes so each Mapping can be recorded without a
// second pass.
type Generator struct {
	buf    strings.Builder
	line   int
	column int
	source string
	maps   []Mapping
}

// New creates a Generator. source names the originating file for mappings
// (spec.md §4.7's source map "source" field).
func New(source string) *Generator {
	return &Generator{source: source}
}

// Generate renders program (a KindProgram node) to JS text and its mappings.
func Generate(program *ir.Node, source string) (*Output, error) {
	g := New(source)
	if err := g.program(program); err != nil {
		return nil, err
	}
	return &Output{Code: g.buf.String(), Mappings: g.maps}, nil
}

func (g *Generator) write(s string) {
	for _, r := range s {
		g.buf.WriteRune(r)
		if r == '\n' {
			g.line++
			g.column = 0
		} else {
			g.column++
		}
	}
}

// mark records a mapping from the generator's current output position back
// to pos, then writes s.
func (g *Generator) mark(pos diag.Position, s string) {
	if !pos.IsZero() {
		g.maps = append(g.maps, Mapping{
			GeneratedLine:   g.line,
			GeneratedColumn: g.column,
			Source:          g.source,
			OriginalLine:    pos.Line,
			OriginalColumn:  pos.Column,
		})
	}
	g.write(s)
}

func (g *Generator) program(n *ir.Node) error {
	if n == nil || n.Kind != ir.KindProgram {
		return fmt.Errorf("codegen: expected Program node, got %v", n)
	}
	for i, stmt := range n.Body {
		if i > 0 {
			g.write("\n")
		}
		if err := g.statement(stmt, 0); err != nil {
			return err
		}
	}
	g.write("\n")
	return nil
}
