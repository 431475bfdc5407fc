package diag

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Kind identifies which stage a diagnostic originated from (spec.md §7).
type Kind string

const (
	KindRead          Kind = "ReadError"
	KindMacro         Kind = "MacroError"
	KindValidation    Kind = "ValidationError"
	KindLowering      Kind = "LoweringError"
	KindCodeGen       Kind = "CodeGenError"
	KindModuleResolve Kind = "ModuleResolveError"
	KindIO            Kind = "IoError"
	KindRuntime       Kind = "RuntimeError"
)

// Error is the shape every stage's diagnostic implements, following the
// teacher's *PlanError / *ParseError pattern: a message plus optional
// positional context, a suggestion, and a worked example.
type Error struct {
	Kind       Kind
	Message    string
	Pos        Position
	Suggestion string
	Example    string

	// Code distinguishes RuntimeError thrown by generated code from
	// compiler-internal failures of the same Kind, so callers such as
	// runFile know not to retry a user error (spec.md §7).
	Code string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if !e.Pos.IsZero() {
		b.WriteString(" at ")
		b.WriteString(e.Pos.String())
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Suggestion != "" {
		b.WriteString("\n  ")
		b.WriteString(e.Suggestion)
	}
	if e.Example != "" {
		b.WriteString("\n  ")
		b.WriteString(e.Example)
	}
	return b.String()
}

// New builds a plain diagnostic of the given kind.
func New(kind Kind, pos Position, message string) *Error {
	return &Error{Kind: kind, Pos: pos, Message: message}
}

// WithSuggestion attaches a fix hint and returns the same error for chaining.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithExample attaches a worked example and returns the same error for chaining.
func (e *Error) WithExample(s string) *Error {
	e.Example = s
	return e
}

// SuggestName returns a "did you mean %q?" hint for name among candidates,
// or "" if nothing is close enough. Used for unknown macro references,
// unresolved set! targets, and unbound macro-time-interpreter symbols
// (SPEC_FULL.md §B, grounded on runtime/planner.go's fuzzy.RankFind use).
func SuggestName(name string, candidates []string) string {
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	// ranks[0] is the closest match (lowest edit distance).
	closest := ranks[0]
	if closest.Distance > len(name)/2+2 {
		return ""
	}
	return "did you mean \"" + closest.Target + "\"?"
}
