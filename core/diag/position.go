// Package diag defines the compiler's error taxonomy (spec.md §7) and the
// shared source-position type every stage attaches to its diagnostics.
package diag

import "fmt"

// Position locates a diagnostic in original HQL source text.
type Position struct {
	File      string
	Line      int
	Column    int
	EndLine   int
	EndColumn int
}

// String renders "file:line:column", omitting the file when empty.
func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// IsZero reports whether the position carries no location information.
func (p Position) IsZero() bool {
	return p.File == "" && p.Line == 0 && p.Column == 0
}
