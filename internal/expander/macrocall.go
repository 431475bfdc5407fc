package expander

import (
	"strconv"
	"strings"

	"github.com/hlvm-dev/hql/core/ast"
	"github.com/hlvm-dev/hql/core/diag"
	"github.com/hlvm-dev/hql/core/env"
	"github.com/hlvm-dev/hql/internal/interp"
)

// expandMacroCall invokes macro against call's arguments in scope, then
// re-expands and call-site-retargets the result (spec.md §4.2).
func (ex *Expander) expandMacroCall(call *ast.Node, macro *env.Macro, scope *env.Environment, depth int) (*ast.Node, error) {
	ex.steps++
	if ex.steps > ex.MaxIterations {
		if !ex.warned {
			ex.warned = true
			ex.logger.Warn("macro expansion iteration limit reached; returning form unexpanded",
				"limit", ex.MaxIterations, "macro", macro.Name)
		}
		return call, nil
	}
	if depth > ex.MaxDepth {
		return nil, diag.New(diag.KindMacro, call.Meta.Pos, "macro expansion depth exceeded (limit "+strconv.Itoa(ex.MaxDepth)+")").
			WithSuggestion("the macro likely expands into a call to itself without making progress")
	}

	args := call.Tail()
	bound, err := ex.bindArguments(macro, args, scope, depth)
	if err != nil {
		return nil, err
	}

	defEnv, ok := macro.Definition()
	if !ok {
		return nil, diag.New(diag.KindMacro, call.Meta.Pos, "macro \""+macro.Name+"\"'s definition environment is gone")
	}
	callScope := defEnv.Child()
	for name, v := range bound {
		callScope.DefineVar(name, v)
	}
	callScope.SetMacroContext(macro.Name)

	var result interp.Value
	for _, form := range macro.Body {
		v, err := ex.Interp.Eval(form, callScope, depth+1)
		if err != nil {
			return nil, wrapMacroError(err, call.Meta.Pos)
		}
		result = v
	}

	resultNode := interp.Reify(result, ast.Meta{Pos: call.Meta.Pos, Generated: true})
	expanded, err := ex.expandNode(resultNode, scope, depth+1)
	if err != nil {
		return nil, err
	}
	retargetMeta(expanded, call.Meta.Pos)
	return expanded, nil
}

// bindArguments classifies and binds each argument per the hybrid
// evaluation policy (spec.md §4.2): arguments are first pre-expanded
// (nested macro calls resolved), then an argument whose head is a known
// operator is evaluated via the macro-time interpreter and bound by value;
// everything else is bound verbatim as unexpanded syntax.
func (ex *Expander) bindArguments(macro *env.Macro, args []*ast.Node, scope *env.Environment, depth int) (map[string]interp.Value, error) {
	if macro.Rest == "" && len(args) != len(macro.Params) {
		return nil, diag.New(diag.KindMacro, diag.Position{}, "macro "+macro.Name+" expects "+strconv.Itoa(len(macro.Params))+" argument(s), got "+strconv.Itoa(len(args)))
	}
	if macro.Rest != "" && len(args) < len(macro.Params) {
		return nil, diag.New(diag.KindMacro, diag.Position{}, "macro "+macro.Name+" expects at least "+strconv.Itoa(len(macro.Params))+" argument(s), got "+strconv.Itoa(len(args)))
	}

	bound := make(map[string]interp.Value, len(macro.Params)+1)
	bindOne := func(name string, arg *ast.Node) error {
		pre, err := ex.expandNode(arg, scope, depth+1)
		if err != nil {
			return err
		}
		if ex.isKnownOperator(pre, scope) {
			v, err := ex.Interp.Eval(pre, scope, depth+1)
			if err != nil {
				return err
			}
			bound[name] = v
			return nil
		}
		bound[name] = pre
		return nil
	}

	for i, p := range macro.Params {
		if err := bindOne(p, args[i]); err != nil {
			return nil, err
		}
	}
	if macro.Rest != "" {
		restVals := make([]interp.Value, 0, len(args)-len(macro.Params))
		for _, a := range args[len(macro.Params):] {
			pre, err := ex.expandNode(a, scope, depth+1)
			if err != nil {
				return nil, err
			}
			if ex.isKnownOperator(pre, scope) {
				v, err := ex.Interp.Eval(pre, scope, depth+1)
				if err != nil {
					return nil, err
				}
				restVals = append(restVals, v)
			} else {
				restVals = append(restVals, pre)
			}
		}
		bound[macro.Rest] = restVals
	}
	return bound, nil
}

// isKnownOperator reports whether arg is a list whose head is "a defined
// function, a defined macro, one of the fixed special forms, or a macro
// primitive prefixed %" (spec.md §4.2) — the discriminator for evaluating
// an argument at macro time versus passing it through as syntax.
func (ex *Expander) isKnownOperator(arg *ast.Node, scope *env.Environment) bool {
	if arg == nil || arg.Kind != ast.KindList {
		return false
	}
	head := arg.Head()
	if head == nil || head.Kind != ast.KindSymbol {
		return false
	}
	if strings.HasPrefix(head.Name, "%") {
		return true
	}
	if interp.SpecialForms[head.Name] {
		return true
	}
	if _, ok := scope.LookupMacro(head.Name); ok {
		return true
	}
	if v, ok := ex.Interp.Global.LookupVar(head.Name); ok {
		if _, isFn := v.(*interp.Fn); isFn {
			return true
		}
	}
	return false
}

// retargetMeta walks a macro's expansion result and retargets any
// descendant's position to callPos when that position is missing, from a
// different file, or points earlier in the same file than the call site —
// the three signs that the position still points at the macro's own
// definition rather than its use (spec.md §4.2's "call-site meta
// propagation").
func retargetMeta(node *ast.Node, callPos diag.Position) {
	if node == nil {
		return
	}
	pos := node.Meta.Pos
	if pos.IsZero() || pos.File != callPos.File || pos.Line < callPos.Line {
		node.Meta.Pos = callPos
	}
	if node.Kind == ast.KindList {
		for _, c := range node.Children {
			retargetMeta(c, callPos)
		}
	}
}

func wrapMacroError(err error, callPos diag.Position) error {
	if de, ok := err.(*diag.Error); ok {
		de.Kind = diag.KindMacro
		if de.Pos.IsZero() {
			de.Pos = callPos
		}
		return de
	}
	return diag.New(diag.KindMacro, callPos, err.Error())
}
