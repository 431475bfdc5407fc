package interp

import (
	"fmt"
	"log/slog"

	"github.com/hlvm-dev/hql/core/ast"
	"github.com/hlvm-dev/hql/core/diag"
	"github.com/hlvm-dev/hql/core/env"
	"github.com/hlvm-dev/hql/core/gensym"
)

// SpecialForms is the fixed set the macro-time interpreter recognizes
// (spec.md §4.3: "quote, quasiquote, if, cond, let, var, fn with a name,
// function application) and arithmetic/comparison operators"). do is an
// HQL-wide sequencing form (spec.md §4.5's lowering table) and const is
// let/var's immutable sibling; both are accepted here on the same footing
// as let/var for macro-body evaluation.
var SpecialForms = map[string]bool{
	"quote": true, "quasiquote": true, "unquote": true, "unquote-splicing": true,
	"if": true, "cond": true, "let": true, "var": true, "const": true,
	"fn": true, "do": true,
}

// Interp is the macro-time interpreter. One Interp is shared across an
// entire compile: its Global scope accumulates user-defined fn bindings
// across macro expansions (spec.md §9, "the persistent macro-time
// environment is also process-wide and accumulates user-defined functions
// until explicitly reset"), and is cleared only by Reset.
type Interp struct {
	Global     *env.Environment
	MaxDepth   int // call-stack depth cap (spec.md §4.3, default 100)
	MaxLazyLen int
	logger     *slog.Logger
}

// New builds an interpreter with its own process-wide scope, seeded with
// the builtin arithmetic/list/string primitives.
func New(logger *slog.Logger) *Interp {
	it := &Interp{
		Global:     env.NewGlobal(""),
		MaxDepth:   100,
		MaxLazyLen: defaultMaxLazyLen,
		logger:     logger,
	}
	registerBuiltins(it)
	return it
}

// Reset clears accumulated fn bindings, for a fresh deterministic compile
// (spec.md §9, paired with gensym.Reset).
func (it *Interp) Reset() {
	it.Global = env.NewGlobal("")
	registerBuiltins(it)
}

func (it *Interp) errorf(node *ast.Node, format string, args ...any) error {
	var pos diag.Position
	if node != nil {
		pos = node.Meta.Pos
	}
	return diag.New(diag.KindRuntime, pos, fmt.Sprintf(format, args...))
}

// Eval evaluates node in scope, macro-time. depth is the current call-stack
// depth, checked against MaxDepth on every application.
func (it *Interp) Eval(node *ast.Node, scope *env.Environment, depth int) (Value, error) {
	if depth > it.MaxDepth {
		return nil, it.errorf(node, "macro-time interpreter stack depth exceeded (limit %d)", it.MaxDepth)
	}
	if node == nil {
		return nil, nil
	}
	switch node.Kind {
	case ast.KindSymbol:
		if v, ok := scope.LookupVar(node.Name); ok {
			if lit, isNode := v.(*ast.Node); isNode && lit.Kind == ast.KindLiteral {
				return literalValue(lit), nil
			}
			return v, nil
		}
		return nil, it.errorf(node, "undefined variable %q at macro-expansion time", node.Name)
	case ast.KindLiteral:
		return literalValue(node), nil
	case ast.KindList:
		return it.evalList(node, scope, depth)
	default:
		return nil, it.errorf(node, "cannot evaluate node of kind %v", node.Kind)
	}
}

func literalValue(n *ast.Node) Value {
	switch n.LitKind {
	case ast.LitNumber:
		return n.Num
	case ast.LitString:
		return n.Str
	case ast.LitBool:
		return n.Bool
	default:
		return nil
	}
}

func (it *Interp) evalList(node *ast.Node, scope *env.Environment, depth int) (Value, error) {
	if len(node.Children) == 0 {
		return []Value{}, nil
	}
	head := node.Head()
	if head.Kind == ast.KindSymbol {
		switch head.Name {
		case "quote":
			return node.Tail()[0], nil
		case "quasiquote":
			return it.EvalQuasiquote(node.Tail()[0], scope, depth)
		case "unquote", "unquote-splicing":
			return nil, it.errorf(node, "%s used outside quasiquote (depth underflow)", head.Name)
		case "if":
			return it.evalIf(node, scope, depth)
		case "cond":
			return it.evalCond(node, scope, depth)
		case "let", "var", "const":
			return it.evalBind(node, scope, depth)
		case "fn":
			return it.evalFn(node, scope)
		case "do":
			return it.evalDo(node, scope, depth)
		case "and":
			return it.evalAnd(node, scope, depth)
		case "or":
			return it.evalOr(node, scope, depth)
		}
	}
	fnVal, err := it.Eval(head, scope, depth)
	if err != nil {
		return nil, err
	}
	args := node.Tail()
	argVals := make([]Value, len(args))
	for i, a := range args {
		v, err := it.Eval(a, scope, depth)
		if err != nil {
			return nil, err
		}
		argVals[i] = v
	}
	return it.Apply(fnVal, argVals, node, depth)
}

// Apply invokes a callable Value (builtin or user fn) with already-evaluated
// arguments.
func (it *Interp) Apply(fnVal Value, args []Value, site *ast.Node, depth int) (Value, error) {
	fn, ok := fnVal.(*Fn)
	if !ok {
		return nil, it.errorf(site, "attempt to call a non-function value")
	}
	if fn.Builtin != nil {
		return fn.Builtin(args)
	}
	call := fn.Closure.Child()
	if err := bindParams(fn.Params, fn.Rest, args, call, site, it); err != nil {
		return nil, err
	}
	var result Value
	for _, form := range fn.Body {
		v, err := it.Eval(form, call, depth+1)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}

func bindParams(params []string, rest string, args []Value, scope *env.Environment, site *ast.Node, it *Interp) error {
	if rest == "" && len(args) != len(params) {
		return it.errorf(site, "arity mismatch: expected %d argument(s), got %d", len(params), len(args))
	}
	if rest != "" && len(args) < len(params) {
		return it.errorf(site, "arity mismatch: expected at least %d argument(s), got %d", len(params), len(args))
	}
	for i, p := range params {
		scope.DefineVar(p, args[i])
	}
	if rest != "" {
		scope.DefineVar(rest, append([]Value{}, args[len(params):]...))
	}
	return nil
}

func (it *Interp) evalIf(node *ast.Node, scope *env.Environment, depth int) (Value, error) {
	tail := node.Tail()
	if len(tail) < 2 || len(tail) > 3 {
		return nil, it.errorf(node, "if expects (if test then [else]), got %d form(s)", len(tail))
	}
	test, err := it.Eval(tail[0], scope, depth)
	if err != nil {
		return nil, err
	}
	if Truthy(test) {
		return it.Eval(tail[1], scope, depth)
	}
	if len(tail) == 3 {
		return it.Eval(tail[2], scope, depth)
	}
	return nil, nil
}

func (it *Interp) evalCond(node *ast.Node, scope *env.Environment, depth int) (Value, error) {
	tail := node.Tail()
	for i := 0; i+1 < len(tail); i += 2 {
		test, err := it.Eval(tail[i], scope, depth)
		if err != nil {
			return nil, err
		}
		if Truthy(test) {
			return it.Eval(tail[i+1], scope, depth)
		}
	}
	if len(tail)%2 == 1 {
		return it.Eval(tail[len(tail)-1], scope, depth)
	}
	return nil, nil
}

// evalBind implements let/var/const as in-place declarations in the
// current scope, mirroring the surface language's statement form
// (spec.md §4.5: "(let x v) / (var x v) -> VariableDeclaration"), not a
// Scheme-style scoped binding form.
func (it *Interp) evalBind(node *ast.Node, scope *env.Environment, depth int) (Value, error) {
	tail := node.Tail()
	if len(tail) != 2 || tail[0].Kind != ast.KindSymbol {
		return nil, it.errorf(node, "%s expects (%s name value)", node.Head().Name, node.Head().Name)
	}
	v, err := it.Eval(tail[1], scope, depth)
	if err != nil {
		return nil, err
	}
	scope.DefineVar(tail[0].Name, v)
	return v, nil
}

// evalFn handles named fn definitions. Anonymous fn expressions are also
// accepted and simply produce an unbound *Fn value, since macro bodies may
// pass a function as a value without naming it.
func (it *Interp) evalFn(node *ast.Node, scope *env.Environment) (Value, error) {
	tail := node.Tail()
	if len(tail) < 1 {
		return nil, it.errorf(node, "fn expects at least a parameter vector")
	}
	idx := 0
	name := ""
	if tail[0].Kind == ast.KindSymbol {
		name = tail[0].Name
		idx = 1
	}
	if idx >= len(tail) || !tail[idx].HeadSymbol("vector") {
		return nil, it.errorf(node, "fn expects a parameter vector")
	}
	params, restName := parseParamVector(tail[idx])
	body := tail[idx+1:]
	fn := &Fn{Name: name, Params: params, Rest: restName, Body: body, Closure: scope}
	if name != "" {
		scope.DefineVar(name, fn)
	}
	return fn, nil
}

// parseParamVector reads a (vector a b & rest) parameter list, recognizing
// a trailing "&name" pair as the rest parameter.
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

func (it *Interp) evalDo(node *ast.Node, scope *env.Environment, depth int) (Value, error) {
	var result Value
	for _, form := range node.Tail() {
		v, err := it.Eval(form, scope, depth)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}

func (it *Interp) evalAnd(node *ast.Node, scope *env.Environment, depth int) (Value, error) {
	var result Value = true
	for _, form := range node.Tail() {
		v, err := it.Eval(form, scope, depth)
		if err != nil {
			return nil, err
		}
		if !Truthy(v) {
			return v, nil
		}
		result = v
	}
	return result, nil
}

func (it *Interp) evalOr(node *ast.Node, scope *env.Environment, depth int) (Value, error) {
	var result Value
	for _, form := range node.Tail() {
		v, err := it.Eval(form, scope, depth)
		if err != nil {
			return nil, err
		}
		if Truthy(v) {
			return v, nil
		}
		result = v
	}
	return result, nil
}

// GensymBuiltin exposes gensym as a macro-body-callable primitive
// (spec.md §4.2: "an explicit gensym primitive").
func GensymBuiltin(args []Value) (Value, error) {
	prefix := "g"
	if len(args) > 0 {
		if s, ok := args[0].(string); ok {
			prefix = s
		}
	}
	return gensym.Next(prefix), nil
}
