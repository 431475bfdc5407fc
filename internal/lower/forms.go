package lower

import (
	"github.com/hlvm-dev/hql/core/ast"
	"github.com/hlvm-dev/hql/core/diag"
	"github.com/hlvm-dev/hql/core/ir"
)

// lowerFn handles both `(fn name [p…] body…)` -> FnFunctionDeclaration and
// `(fn [p…] body…)` -> FunctionExpression (spec.md §4.5's table). asStatement
// selects which Kind a named fn lowers to when found in statement position;
// an anonymous fn is always a FunctionExpression regardless.
func lowerFn(n *ast.Node, asStatement bool) (*ir.Node, error) {
	tail := n.Tail()
	idx := 0
	name := ""
	if len(tail) > 0 && tail[0].Kind == ast.KindSymbol {
		name = tail[0].Name
		idx = 1
	}
	if idx >= len(tail) || !tail[idx].HeadSymbol("vector") {
		return nil, diag.New(diag.KindLowering, n.Meta.Pos, "fn expects a parameter vector")
	}
	params, err := lowerParams(tail[idx])
	if err != nil {
		return nil, err
	}
	body, err := lowerFnBody(tail[idx+1:])
	if err != nil {
		return nil, err
	}
	kind := ir.KindFunctionExpression
	if name != "" && asStatement {
		kind = ir.KindFnFunctionDeclaration
	}
	return &ir.Node{Kind: kind, Position: n.Meta.Pos, Name: name, Params: params, Body: body}, nil
}

// lowerFnBody wraps a fn's body forms as statements, except the body's
// final form: a trailing non-statement expression is lowered as an
// implicit return, matching the teacher's expression-oriented function
// bodies (runtime/execution/evaluator.go's "last value is the result").
func lowerFnBody(forms []*ast.Node) ([]*ir.Node, error) {
	body := make([]*ir.Node, 0, len(forms))
	for i, f := range forms {
		if i == len(forms)-1 && !isStatementForm(f) {
			expr, err := lowerExpr(f)
			if err != nil {
				return nil, err
			}
			body = append(body, &ir.Node{Kind: ir.KindReturnStatement, Position: f.Meta.Pos, Argument: expr})
			continue
		}
		n, err := lowerStatement(f)
		if err != nil {
			return nil, err
		}
		body = append(body, n)
	}
	return body, nil
}

func isStatementForm(n *ast.Node) bool {
	for _, head := range []string{"let", "var", "const", "if", "cond", "do", "throw", "try",
		"return", "break", "continue", "while", "for", "set!", "=", "fn",
		"import", "export-default", "export"} {
		if n.HeadSymbol(head) {
			return true
		}
	}
	return false
}

func lowerParams(vec *ast.Node) ([]ir.Param, error) {
	children := vec.Tail()
	params := make([]ir.Param, 0, len(children))
	for i := 0; i < len(children); i++ {
		c := children[i]
		if c.IsSymbol("&") {
			if i+1 >= len(children) {
				return nil, diag.New(diag.KindLowering, vec.Meta.Pos, "& rest marker must be followed by a parameter name")
			}
			pat, err := lowerPattern(children[i+1])
			if err != nil {
				return nil, err
			}
			params = append(params, ir.Param{Pattern: pat, Rest: true})
			break
		}
		pat, err := lowerPattern(c)
		if err != nil {
			return nil, err
		}
		params = append(params, ir.Param{Pattern: pat})
	}
	return params, nil
}

// lowerPattern handles destructuring patterns: plain identifiers, `[a b & rest]`
// array patterns, and `_` skip markers (spec.md §4.5).
func lowerPattern(n *ast.Node) (*ir.Node, error) {
	if n.Kind == ast.KindSymbol {
		return ir.Ident(n.Name, n.Meta.Pos), nil
	}
	if n.HeadSymbol("vector") {
		tail := n.Tail()
		elems := make([]*ir.Node, 0, len(tail))
		for i := 0; i < len(tail); i++ {
			c := tail[i]
			if c.IsSymbol("&") {
				if i+1 >= len(tail) {
					return nil, diag.New(diag.KindLowering, c.Meta.Pos, "& rest marker must be followed by a pattern")
				}
				rest, err := lowerPattern(tail[i+1])
				if err != nil {
					return nil, err
				}
				elems = append(elems, &ir.Node{Kind: ir.KindSpreadElement, Position: c.Meta.Pos, Argument: rest})
				break
			}
			if c.IsSymbol("_") {
				elems = append(elems, nil)
				continue
			}
			pat, err := lowerPattern(c)
			if err != nil {
				return nil, err
			}
			elems = append(elems, pat)
		}
		return &ir.Node{Kind: ir.KindArrayExpression, Position: n.Meta.Pos, Elements: elems}, nil
	}
	return nil, diag.New(diag.KindLowering, n.Meta.Pos, "unsupported destructuring pattern")
}

// lowerVarDecl handles `(let x v)` / `(var x v)` -> VariableDeclaration.
func lowerVarDecl(n *ast.Node, kind ir.DeclKind) (*ir.Node, error) {
	tail := n.Tail()
	if len(tail) != 2 {
		return nil, diag.New(diag.KindLowering, n.Meta.Pos, n.Head().Name+" expects (name value)")
	}
	target, err := lowerPattern(tail[0])
	if err != nil {
		return nil, err
	}
	init, err := lowerExpr(tail[1])
	if err != nil {
		return nil, err
	}
	return &ir.Node{Kind: ir.KindVariableDeclaration, Position: n.Meta.Pos, DeclKind: kind, Target: target, Init: init}, nil
}

// lowerConstDecl handles `(const x v)`, wrapping the value in a call to
// __hql_deepFreeze (spec.md §4.5).
func lowerConstDecl(n *ast.Node) (*ir.Node, error) {
	decl, err := lowerVarDecl(n, ir.DeclConst)
	if err != nil {
		return nil, err
	}
	decl.Init = &ir.Node{
		Kind:     ir.KindCallExpression,
		Position: decl.Init.Position,
		Callee:   ir.Ident("__hql_deepFreeze", decl.Position),
		Args:     []*ir.Node{decl.Init},
	}
	return decl, nil
}

// lowerIfStatement handles `(if t a b)` in statement position -> IfStatement.
func lowerIfStatement(n *ast.Node) (*ir.Node, error) {
	tail := n.Tail()
	if len(tail) < 2 || len(tail) > 3 {
		return nil, diag.New(diag.KindLowering, n.Meta.Pos, "if expects (if test then [else])")
	}
	test, err := lowerExpr(tail[0])
	if err != nil {
		return nil, err
	}
	then, err := lowerStatement(tail[1])
	if err != nil {
		return nil, err
	}
	node := &ir.Node{Kind: ir.KindIfStatement, Position: n.Meta.Pos, Test: test, Then: then}
	if len(tail) == 3 {
		els, err := lowerStatement(tail[2])
		if err != nil {
			return nil, err
		}
		node.Else = els
	}
	return node, nil
}

// lowerCondStatement desugars (cond t1 e1 t2 e2 … [else]) into nested
// IfStatements.
func lowerCondStatement(n *ast.Node) (*ir.Node, error) {
	tail := n.Tail()
	return buildCondChain(tail, n.Meta.Pos, lowerStatement)
}

func buildCondChain(tail []*ast.Node, pos diag.Position, lowerBranch func(*ast.Node) (*ir.Node, error)) (*ir.Node, error) {
	if len(tail) == 0 {
		return &ir.Node{Kind: ir.KindBlockStatement, Position: pos}, nil
	}
	if len(tail) == 1 {
		return lowerBranch(tail[0])
	}
	test, err := lowerExpr(tail[0])
	if err != nil {
		return nil, err
	}
	then, err := lowerBranch(tail[1])
	if err != nil {
		return nil, err
	}
	rest, err := buildCondChain(tail[2:], pos, lowerBranch)
	if err != nil {
		return nil, err
	}
	return &ir.Node{Kind: ir.KindIfStatement, Position: pos, Test: test, Then: then, Else: rest}, nil
}

func lowerWhile(n *ast.Node) (*ir.Node, error) {
	tail := n.Tail()
	if len(tail) < 1 {
		return nil, diag.New(diag.KindLowering, n.Meta.Pos, "while expects (while test body…)")
	}
	test, err := lowerExpr(tail[0])
	if err != nil {
		return nil, err
	}
	body, err := lowerBlock(tail[1:])
	if err != nil {
		return nil, err
	}
	return &ir.Node{Kind: ir.KindWhileStatement, Position: n.Meta.Pos, Test: test, ForBody: body}, nil
}

// lowerFor handles `(for [i coll] body…)` -> ForOfStatement, wrapping
// non-array iterables in __hql_toSequence (spec.md §4.5); the range
// native-loop special case is applied later by the optimizer.
func lowerFor(n *ast.Node) (*ir.Node, error) {
	tail := n.Tail()
	if len(tail) < 1 || !tail[0].HeadSymbol("vector") {
		return nil, diag.New(diag.KindLowering, n.Meta.Pos, "for expects ([var coll] body…)")
	}
	binding := tail[0].Tail()
	if len(binding) != 2 {
		return nil, diag.New(diag.KindLowering, n.Meta.Pos, "for binding expects exactly [var collection]")
	}
	loopVar, err := lowerPattern(binding[0])
	if err != nil {
		return nil, err
	}
	collExpr, err := lowerExpr(binding[1])
	if err != nil {
		return nil, err
	}
	iterable := &ir.Node{
		Kind:     ir.KindCallExpression,
		Position: collExpr.Position,
		Callee:   ir.Ident("__hql_toSequence", collExpr.Position),
		Args:     []*ir.Node{collExpr},
	}
	body, err := lowerBlock(tail[1:])
	if err != nil {
		return nil, err
	}
	return &ir.Node{Kind: ir.KindForOfStatement, Position: n.Meta.Pos, LoopVar: loopVar, Iterable: iterable, ForBody: body}, nil
}

func lowerTry(n *ast.Node) (*ir.Node, error) {
	tail := n.Tail()
	var tryForms, catchForms, finallyForms []*ast.Node
	var catchParam *ast.Node
	section := &tryForms
	for _, f := range tail {
		switch {
		case f.HeadSymbol("catch"):
			ctail := f.Tail()
			if len(ctail) > 0 && ctail[0].Kind == ast.KindSymbol {
				catchParam = ctail[0]
				ctail = ctail[1:]
			}
			catchForms = ctail
			section = &catchForms
			continue
		case f.HeadSymbol("finally"):
			finallyForms = f.Tail()
			section = &finallyForms
			continue
		}
		*section = append(*section, f)
	}
	tryBlock, err := lowerBlock(tryForms)
	if err != nil {
		return nil, err
	}
	node := &ir.Node{Kind: ir.KindTryStatement, Position: n.Meta.Pos, TryBlock: tryBlock}
	if catchForms != nil || catchParam != nil {
		catchBody, err := lowerBlock(catchForms)
		if err != nil {
			return nil, err
		}
		clause := &ir.CatchClause{Body: catchBody}
		if catchParam != nil {
			clause.Param = ir.Ident(catchParam.Name, catchParam.Meta.Pos)
		}
		node.Catch = clause
	}
	if finallyForms != nil {
		finallyBlock, err := lowerBlock(finallyForms)
		if err != nil {
			return nil, err
		}
		node.Finally = finallyBlock
	}
	return node, nil
}
