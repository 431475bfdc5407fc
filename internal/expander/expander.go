// Package expander implements the macro expander (spec.md §4.2): a
// fixed-point rewrite pass over the reader's S-expression forms, re-entrant
// into the macro-time interpreter (internal/interp) to run macro bodies and
// quasiquote templates.
package expander

import (
	"log/slog"

	"github.com/hlvm-dev/hql/core/ast"
	"github.com/hlvm-dev/hql/core/diag"
	"github.com/hlvm-dev/hql/core/env"
	"github.com/hlvm-dev/hql/internal/interp"
)

// defaultMaxIterations bounds the total number of macro invocations a single
// Expand call will perform, guarding against an infinite macro
// (spec.md §4.2: "bounded by the iteration limit (default 100); when
// reached, a warning is issued and current form is returned as-is").
const defaultMaxIterations = 100

// Expander runs the fixed-point expansion pass. One Expander, backed by one
// interp.Interp, is used for an entire file compile so that macros
// registered by an earlier top-level form are visible to a later one
// (spec.md §4.2: "expansion is left-to-right... macro definitions become
// visible immediately after their defining form is processed").
type Expander struct {
	Interp        *interp.Interp
	MaxIterations int
	MaxDepth      int
	logger        *slog.Logger

	steps  int
	warned bool
}

// New builds an expander sharing the given macro-time interpreter.
func New(it *interp.Interp, logger *slog.Logger) *Expander {
	return &Expander{
		Interp:        it,
		MaxIterations: defaultMaxIterations,
		MaxDepth:      100,
		logger:        logger,
	}
}

// ExpandProgram expands every top-level form in forms against global,
// registering and stripping macro definitions as it goes, and returns the
// rewritten sequence (spec.md §4.2's "sequence with all macro call forms
// rewritten and all macro definition forms removed").
func (ex *Expander) ExpandProgram(forms []*ast.Node, global *env.Environment) ([]*ast.Node, error) {
	ex.steps = 0
	ex.warned = false
	out := make([]*ast.Node, 0, len(forms))
	for _, form := range forms {
		if form.HeadSymbol("macro") {
			if err := ex.defineMacro(form, global); err != nil {
				return nil, err
			}
			continue
		}
		expanded, err := ex.expandNode(form, global, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded)
	}
	return out, nil
}

// ExpandProgramOnce processes macro-definition forms exactly as ExpandProgram
// does, but rewrites each remaining top-level form by exactly one outer
// macro call (spec.md §6's macroexpand1): if the form's head names a macro,
// it is replaced by that macro's raw body result with no further recursive
// expansion of that result or its nested macro calls.
func (ex *Expander) ExpandProgramOnce(forms []*ast.Node, global *env.Environment) ([]*ast.Node, error) {
	ex.steps = 0
	ex.warned = false
	out := make([]*ast.Node, 0, len(forms))
	for _, form := range forms {
		if form.HeadSymbol("macro") {
			if err := ex.defineMacro(form, global); err != nil {
				return nil, err
			}
			continue
		}
		rewritten, err := ex.expandOnce(form, global)
		if err != nil {
			return nil, err
		}
		out = append(out, rewritten)
	}
	return out, nil
}

// expandOnce performs a single macro-call rewrite at node's head, without
// recursively re-expanding the result the way expandMacroCall does.
func (ex *Expander) expandOnce(node *ast.Node, scope *env.Environment) (*ast.Node, error) {
	if node == nil || node.Kind != ast.KindList {
		return node, nil
	}
	head := node.Head()
	if head == nil || head.Kind != ast.KindSymbol {
		return node, nil
	}
	macro, ok := scope.LookupMacro(head.Name)
	if !ok {
		return node, nil
	}
	ex.steps++
	bound, err := ex.bindArguments(macro, node.Tail(), scope, 0)
	if err != nil {
		return nil, err
	}
	defEnv, ok := macro.Definition()
	if !ok {
		return nil, diag.New(diag.KindMacro, node.Meta.Pos, "macro \""+macro.Name+"\"'s definition environment is gone")
	}
	callScope := defEnv.Child()
	for name, v := range bound {
		callScope.DefineVar(name, v)
	}
	callScope.SetMacroContext(macro.Name)

	var result interp.Value
	for _, form := range macro.Body {
		v, err := ex.Interp.Eval(form, callScope, 1)
		if err != nil {
			return nil, wrapMacroError(err, node.Meta.Pos)
		}
		result = v
	}
	resultNode := interp.Reify(result, ast.Meta{Pos: node.Meta.Pos, Generated: true})
	retargetMeta(resultNode, node.Meta.Pos)
	return resultNode, nil
}

// defineMacro handles (macro name [params... & rest] body...).
func (ex *Expander) defineMacro(form *ast.Node, scope *env.Environment) error {
	tail := form.Tail()
	if len(tail) < 2 || tail[0].Kind != ast.KindSymbol || !tail[1].HeadSymbol("vector") {
		return diag.New(diag.KindMacro, form.Meta.Pos, "macro expects (macro name [params...] body...)")
	}
	name := tail[0].Name
	params, rest := parseParamVector(tail[1])
	body := tail[2:]
	scope.DefineMacro(name, env.NewMacro(name, params, rest, body, scope))
	return nil
}

func parseParamVector(vec *ast.Node) (params []string, rest string) {
	children := vec.Tail()
	for i := 0; i < len(children); i++ {
		if children[i].IsSymbol("&") && i+1 < len(children) {
			rest = children[i+1].Name
			break
		}
		params = append(params, children[i].Name)
	}
	return params, rest
}

// expandNode recursively expands node depth-first, invoking any macro calls
// it finds and re-expanding their results until a fixed point (the same
// node reference) is reached or the iteration budget runs out.
func (ex *Expander) expandNode(node *ast.Node, scope *env.Environment, depth int) (*ast.Node, error) {
	if node == nil {
		return nil, nil
	}
	if node.Kind != ast.KindList {
		return node, nil
	}
	if node.HeadSymbol("quote") {
		return node, nil
	}
	if node.HeadSymbol("unquote") || node.HeadSymbol("unquote-splicing") {
		return nil, diag.New(diag.KindMacro, node.Meta.Pos, node.Head().Name+" used outside quasiquote (depth underflow)")
	}
	if node.HeadSymbol("quasiquote") {
		return ex.expandQuasiquoteForm(node, scope, depth)
	}

	head := node.Head()
	if head != nil && head.Kind == ast.KindSymbol {
		if macro, ok := scope.LookupMacro(head.Name); ok {
			return ex.expandMacroCall(node, macro, scope, depth)
		}
	}

	changed := false
	newChildren := make([]*ast.Node, len(node.Children))
	for i, c := range node.Children {
		nc, err := ex.expandNode(c, scope, depth)
		if err != nil {
			return nil, err
		}
		newChildren[i] = nc
		if nc != c {
			changed = true
		}
	}
	if !changed {
		return node, nil
	}
	clone := *node
	clone.Children = newChildren
	return &clone, nil
}

// expandQuasiquoteForm pre-expands macro calls nested inside a top-level
// quasiquote form's unquote/unquote-splicing positions — the template
// itself is data and is left alone except where it escapes back to code via
// unquote, where ordinary expansion resumes.
func (ex *Expander) expandQuasiquoteForm(node *ast.Node, scope *env.Environment, depth int) (*ast.Node, error) {
	inner, err := ex.expandInsideTemplate(node.Tail()[0], 1, scope, depth)
	if err != nil {
		return nil, err
	}
	if inner == node.Tail()[0] {
		return node, nil
	}
	return ast.List(node.Meta, node.Head(), inner), nil
}

func (ex *Expander) expandInsideTemplate(node *ast.Node, qdepth int, scope *env.Environment, depth int) (*ast.Node, error) {
	if node == nil || node.Kind != ast.KindList {
		return node, nil
	}
	if node.HeadSymbol("quasiquote") {
		inner, err := ex.expandInsideTemplate(node.Tail()[0], qdepth+1, scope, depth)
		if err != nil || inner == node.Tail()[0] {
			return node, err
		}
		return ast.List(node.Meta, node.Head(), inner), nil
	}
	if node.HeadSymbol("unquote") || node.HeadSymbol("unquote-splicing") {
		if qdepth == 1 {
			expanded, err := ex.expandNode(node.Tail()[0], scope, depth)
			if err != nil {
				return nil, err
			}
			if expanded == node.Tail()[0] {
				return node, nil
			}
			return ast.List(node.Meta, node.Head(), expanded), nil
		}
		inner, err := ex.expandInsideTemplate(node.Tail()[0], qdepth-1, scope, depth)
		if err != nil || inner == node.Tail()[0] {
			return node, err
		}
		return ast.List(node.Meta, node.Head(), inner), nil
	}
	changed := false
	newChildren := make([]*ast.Node, len(node.Children))
	for i, c := range node.Children {
		nc, err := ex.expandInsideTemplate(c, qdepth, scope, depth)
		if err != nil {
			return nil, err
		}
		newChildren[i] = nc
		if nc != c {
			changed = true
		}
	}
	if !changed {
		return node, nil
	}
	clone := *node
	clone.Children = newChildren
	return &clone, nil
}
