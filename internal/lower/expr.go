package lower

import (
	"github.com/hlvm-dev/hql/core/ast"
	"github.com/hlvm-dev/hql/core/diag"
	"github.com/hlvm-dev/hql/core/ir"
)

var binaryOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
	"and": true, "or": true,
}

var unaryOps = map[string]bool{"not": true, "neg": true}

// lowerExpr lowers n in expression position.
func lowerExpr(n *ast.Node) (*ir.Node, error) {
	switch n.Kind {
	case ast.KindSymbol:
		return ir.Ident(n.Name, n.Meta.Pos), nil
	case ast.KindLiteral:
		return lowerLiteral(n), nil
	}

	switch {
	case n.HeadSymbol("quote"):
		return lowerQuotedData(n.Tail()[0]), nil
	case n.HeadSymbol("fn"):
		return lowerFn(n, false)
	case n.HeadSymbol("if"):
		return lowerConditionalExpr(n)
	case n.HeadSymbol("cond"):
		return buildCondChain(n.Tail(), n.Meta.Pos, lowerExpr)
	case n.HeadSymbol("do"):
		return lowerDoExpr(n)
	case n.HeadSymbol("throw"):
		return lowerThrowExpr(n)
	case n.HeadSymbol("for"):
		return lowerForExpr(n)
	case n.HeadSymbol("set!"), n.HeadSymbol("="):
		return lowerAssignment(n)
	case n.HeadSymbol("vector"):
		return lowerArrayExpr(n)
	case n.HeadSymbol("__hql_hash_map"):
		return lowerObjectExpr(n)
	case n.HeadSymbol("."):
		return lowerMemberExpr(n)
	case n.HeadSymbol("..."):
		return lowerSpread(n)
	case n.HeadSymbol("await"):
		return lowerAwait(n)
	case n.HeadSymbol("yield"):
		return lowerYield(n)
	case n.HeadSymbol("str"):
		return lowerStrCall(n)
	default:
		return lowerCallOrOp(n)
	}
}

func lowerLiteral(n *ast.Node) *ir.Node {
	switch n.LitKind {
	case ast.LitNumber:
		return ir.NumberLit(n.Num, n.Meta.Pos)
	case ast.LitString:
		return ir.StringLit(n.Str, n.Meta.Pos)
	case ast.LitBool:
		return ir.BoolLit(n.Bool, n.Meta.Pos)
	default:
		return ir.NullLit(n.Meta.Pos)
	}
}

// lowerQuotedData reifies quoted S-expression data into IR array/object/
// literal construction, used for macro-produced literal data that survives
// to lowering unevaluated.
func lowerQuotedData(n *ast.Node) *ir.Node {
	switch n.Kind {
	case ast.KindSymbol:
		return ir.StringLit(n.Name, n.Meta.Pos)
	case ast.KindLiteral:
		return lowerLiteral(n)
	case ast.KindList:
		if n.HeadSymbol("vector") {
			elems := make([]*ir.Node, 0, len(n.Tail()))
			for _, c := range n.Tail() {
				elems = append(elems, lowerQuotedData(c))
			}
			return &ir.Node{Kind: ir.KindArrayExpression, Position: n.Meta.Pos, Elements: elems}
		}
		elems := make([]*ir.Node, 0, len(n.Children))
		for _, c := range n.Children {
			elems = append(elems, lowerQuotedData(c))
		}
		return &ir.Node{Kind: ir.KindArrayExpression, Position: n.Meta.Pos, Elements: elems}
	default:
		return ir.NullLit(n.Meta.Pos)
	}
}

func lowerConditionalExpr(n *ast.Node) (*ir.Node, error) {
	tail := n.Tail()
	if len(tail) < 2 || len(tail) > 3 {
		return nil, diag.New(diag.KindLowering, n.Meta.Pos, "if expects (if test then [else])")
	}
	test, err := lowerExpr(tail[0])
	if err != nil {
		return nil, err
	}
	then, err := lowerExpr(tail[1])
	if err != nil {
		return nil, err
	}
	node := &ir.Node{Kind: ir.KindConditionalExpression, Position: n.Meta.Pos, Test: test, Then: then}
	if len(tail) == 3 {
		els, err := lowerExpr(tail[2])
		if err != nil {
			return nil, err
		}
		node.Else = els
	} else {
		node.Else = ir.NullLit(n.Meta.Pos)
	}
	return node, nil
}

// lowerDoExpr lowers `(do e…)` in expression position into an IIFE
// (spec.md §4.5): `(() => { …; return last; })()`.
func lowerDoExpr(n *ast.Node) (*ir.Node, error) {
	forms := n.Tail()
	body, err := lowerFnBody(forms)
	if err != nil {
		return nil, err
	}
	fnExpr := &ir.Node{Kind: ir.KindFunctionExpression, Position: n.Meta.Pos, Body: body}
	return &ir.Node{Kind: ir.KindCallExpression, Position: n.Meta.Pos, Callee: fnExpr}, nil
}

func lowerThrowExpr(n *ast.Node) (*ir.Node, error) {
	stmt, err := lowerThrow(n)
	if err != nil {
		return nil, err
	}
	fnExpr := &ir.Node{Kind: ir.KindFunctionExpression, Position: n.Meta.Pos, Body: []*ir.Node{stmt}}
	return &ir.Node{Kind: ir.KindCallExpression, Position: n.Meta.Pos, Callee: fnExpr}, nil
}

// lowerForExpr lowers a `for` appearing in expression position. The
// optimizer (internal/optimize) wraps this in an IIFE returning null per
// spec.md §4.6's "for-in-expression wrapping"; lowering itself only
// produces the bare ForOfStatement.
func lowerForExpr(n *ast.Node) (*ir.Node, error) {
	return lowerFor(n)
}

func lowerArrayExpr(n *ast.Node) (*ir.Node, error) {
	elems := make([]*ir.Node, 0, len(n.Tail()))
	for _, c := range n.Tail() {
		if c.HeadSymbol("...") {
			spread, err := lowerSpread(c)
			if err != nil {
				return nil, err
			}
			elems = append(elems, spread)
			continue
		}
		e, err := lowerExpr(c)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	return &ir.Node{Kind: ir.KindArrayExpression, Position: n.Meta.Pos, Elements: elems}, nil
}

func lowerObjectExpr(n *ast.Node) (*ir.Node, error) {
	tail := n.Tail()
	props := make([]ir.ObjectProp, 0, len(tail)/2)
	for i := 0; i+1 < len(tail); i += 2 {
		if tail[i].HeadSymbol("...") {
			val, err := lowerExpr(tail[i].Tail()[0])
			if err != nil {
				return nil, err
			}
			props = append(props, ir.ObjectProp{Value: val, Spread: true})
			i--
			continue
		}
		key := tail[i].Str
		if tail[i].Kind == ast.KindSymbol {
			key = tail[i].Name
		}
		val, err := lowerExpr(tail[i+1])
		if err != nil {
			return nil, err
		}
		props = append(props, ir.ObjectProp{Key: key, Value: val})
	}
	return &ir.Node{Kind: ir.KindObjectExpression, Position: n.Meta.Pos, Props: props}, nil
}

func lowerMemberExpr(n *ast.Node) (*ir.Node, error) {
	tail := n.Tail()
	if len(tail) != 2 {
		return nil, diag.New(diag.KindLowering, n.Meta.Pos, ". expects (. object property)")
	}
	obj, err := lowerExpr(tail[0])
	if err != nil {
		return nil, err
	}
	if tail[1].Kind == ast.KindSymbol {
		return &ir.Node{Kind: ir.KindMemberExpression, Position: n.Meta.Pos, Object: obj, Property: ir.Ident(tail[1].Name, tail[1].Meta.Pos)}, nil
	}
	prop, err := lowerExpr(tail[1])
	if err != nil {
		return nil, err
	}
	return &ir.Node{Kind: ir.KindMemberExpression, Position: n.Meta.Pos, Object: obj, Property: prop, Computed: true}, nil
}

// lowerSpread handles `...id` (read as `(... id)`) or `(... expr)` ->
// SpreadElement in array/call position; object-position spreads are
// handled inline by lowerObjectExpr as SpreadAssignment.
func lowerSpread(n *ast.Node) (*ir.Node, error) {
	tail := n.Tail()
	if len(tail) != 1 {
		return nil, diag.New(diag.KindLowering, n.Meta.Pos, "... expects exactly one argument")
	}
	arg, err := lowerExpr(tail[0])
	if err != nil {
		return nil, err
	}
	return &ir.Node{Kind: ir.KindSpreadElement, Position: n.Meta.Pos, Argument: arg}, nil
}

func lowerAwait(n *ast.Node) (*ir.Node, error) {
	arg, err := lowerExpr(n.Tail()[0])
	if err != nil {
		return nil, err
	}
	return &ir.Node{Kind: ir.KindAwaitExpression, Position: n.Meta.Pos, Argument: arg}, nil
}

func lowerYield(n *ast.Node) (*ir.Node, error) {
	tail := n.Tail()
	delegate := n.HeadSymbol("yield") && len(tail) > 0 && tail[0].IsSymbol("*")
	if delegate {
		tail = tail[1:]
	}
	var arg *ir.Node
	if len(tail) == 1 {
		var err error
		arg, err = lowerExpr(tail[0])
		if err != nil {
			return nil, err
		}
	}
	return &ir.Node{Kind: ir.KindYieldExpression, Position: n.Meta.Pos, Argument: arg, Delegate: delegate}, nil
}

// lowerStrCall lowers a backtick template literal's desugared `str` call
// (spec.md §4.1) into a CallExpression to the runtime's string-concat
// helper semantics: plain string concatenation via `+`.
func lowerStrCall(n *ast.Node) (*ir.Node, error) {
	tail := n.Tail()
	if len(tail) == 0 {
		return ir.StringLit("", n.Meta.Pos), nil
	}
	result, err := lowerExpr(tail[0])
	if err != nil {
		return nil, err
	}
	for _, part := range tail[1:] {
		rhs, err := lowerExpr(part)
		if err != nil {
			return nil, err
		}
		result = &ir.Node{Kind: ir.KindBinaryExpression, Position: n.Meta.Pos, Operator: "+", Left: result, Right: rhs}
	}
	return result, nil
}

func lowerCallOrOp(n *ast.Node) (*ir.Node, error) {
	head := n.Head()
	tail := n.Tail()
	if head != nil && head.Kind == ast.KindSymbol {
		if binaryOps[head.Name] && len(tail) == 2 {
			left, err := lowerExpr(tail[0])
			if err != nil {
				return nil, err
			}
			right, err := lowerExpr(tail[1])
			if err != nil {
				return nil, err
			}
			return &ir.Node{Kind: ir.KindBinaryExpression, Position: n.Meta.Pos, Operator: jsOperator(head.Name), Left: left, Right: right}, nil
		}
		if unaryOps[head.Name] && len(tail) == 1 {
			operand, err := lowerExpr(tail[0])
			if err != nil {
				return nil, err
			}
			return &ir.Node{Kind: ir.KindUnaryExpression, Position: n.Meta.Pos, Operator: jsOperator(head.Name), Operand: operand}, nil
		}
	}
	callee, err := lowerExpr(head)
	if err != nil {
		return nil, err
	}
	args := make([]*ir.Node, 0, len(tail))
	for _, a := range tail {
		arg, err := lowerExpr(a)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return &ir.Node{Kind: ir.KindCallExpression, Position: n.Meta.Pos, Callee: callee, Args: args}, nil
}

func jsOperator(name string) string {
	switch name {
	case "and":
		return "&&"
	case "or":
		return "||"
	case "not":
		return "!"
	case "neg":
		return "-"
	case "==":
		return "==="
	case "!=":
		return "!=="
	default:
		return name
	}
}
