// Package validator implements the semantic validator (spec.md §4.4): it
// runs over fully macro-expanded S-expressions, never before expansion and
// never after (core/ir's optimizer must only see validated IR — spec.md §3
// invariant).
package validator

import (
	"log/slog"

	"github.com/hlvm-dev/hql/core/ast"
	"github.com/hlvm-dev/hql/core/diag"
)

// Options configures the validator's escalation policy (SPEC_FULL.md §C,
// resolving spec.md §9 Open Question (b)): typed-property-access mismatches
// are warnings unless Strict is set, in which case they become
// ValidationErrors.
type Options struct {
	Strict bool
}

// Warning is a non-fatal diagnostic the caller may print but that does not
// stop compilation.
type Warning struct {
	Message string
	Pos     diag.Position
}

// Validate checks forms (already macro-expanded) against the four rules in
// spec.md §4.4 and returns the same sequence unchanged plus any warnings, or
// a ValidationError.
func Validate(forms []*ast.Node, opts Options, logger *slog.Logger) ([]*ast.Node, []Warning, error) {
	v := &validator{
		opts:    opts,
		logger:  logger,
		arities: make(map[string]arityInfo),
	}
	root := newStaticScope(nil)
	v.collectArities(forms)
	for _, f := range forms {
		if err := v.checkDecls(f, root); err != nil {
			return nil, nil, err
		}
	}
	for _, f := range forms {
		if err := v.checkForm(f, root); err != nil {
			return nil, nil, err
		}
	}
	return forms, v.warnings, nil
}

type arityInfo struct {
	min, max int // max == -1 means variadic (rest parameter)
}

type validator struct {
	opts     Options
	logger   *slog.Logger
	arities  map[string]arityInfo
	warnings []Warning
}

func (v *validator) warn(pos diag.Position, msg string) {
	v.warnings = append(v.warnings, Warning{Message: msg, Pos: pos})
	if v.logger != nil {
		v.logger.Warn(msg, "line", pos.Line, "column", pos.Column)
	}
}

// collectArities walks top-level (and nested) fn declarations to build the
// arity table used by checkCallArity (rule (c)).
func (v *validator) collectArities(forms []*ast.Node) {
	for _, f := range forms {
		v.collectArityOf(f)
	}
}

func (v *validator) collectArityOf(n *ast.Node) {
	if n == nil || n.Kind != ast.KindList {
		return
	}
	if n.HeadSymbol("fn") {
		tail := n.Tail()
		if len(tail) >= 2 && tail[0].Kind == ast.KindSymbol && tail[1].HeadSymbol("vector") {
			min, max := paramArity(tail[1])
			v.arities[tail[0].Name] = arityInfo{min: min, max: max}
		}
	}
	for _, c := range n.Children {
		v.collectArityOf(c)
	}
}

func paramArity(vec *ast.Node) (min, max int) {
	children := vec.Tail()
	for i, c := range children {
		if c.IsSymbol("&") {
			return i, -1
		}
	}
	return len(children), len(children)
}
