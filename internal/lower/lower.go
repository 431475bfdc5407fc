// Package lower implements spec.md §4.5: a pure transformation from
// validated S-expressions to IR, following the surface-form mapping table.
package lower

import (
	"github.com/hlvm-dev/hql/core/ast"
	"github.com/hlvm-dev/hql/core/ir"
)

// Program lowers a validated top-level sequence into an ir.Program node.
func Program(forms []*ast.Node) (*ir.Node, error) {
	body := make([]*ir.Node, 0, len(forms))
	for _, f := range forms {
		n, err := lowerStatement(f)
		if err != nil {
			return nil, err
		}
		body = append(body, n)
	}
	return ir.Program(body), nil
}

// lowerStatement lowers a top-level or block-position form.
func lowerStatement(n *ast.Node) (*ir.Node, error) {
	switch {
	case n.HeadSymbol("fn"):
		return lowerFn(n, true)
	case n.HeadSymbol("let"), n.HeadSymbol("var"):
		return lowerVarDecl(n, ir.DeclLet)
	case n.HeadSymbol("const"):
		return lowerConstDecl(n)
	case n.HeadSymbol("if"):
		return lowerIfStatement(n)
	case n.HeadSymbol("cond"):
		return lowerCondStatement(n)
	case n.HeadSymbol("do"):
		return lowerBlock(n.Tail())
	case n.HeadSymbol("throw"):
		return lowerThrow(n)
	case n.HeadSymbol("try"):
		return lowerTry(n)
	case n.HeadSymbol("return"):
		return lowerReturn(n)
	case n.HeadSymbol("break"):
		return lowerLabelStmt(n, ir.KindBreakStatement)
	case n.HeadSymbol("continue"):
		return lowerLabelStmt(n, ir.KindContinueStatement)
	case n.HeadSymbol("while"):
		return lowerWhile(n)
	case n.HeadSymbol("for"):
		return lowerFor(n)
	case n.HeadSymbol("set!"), n.HeadSymbol("="):
		expr, err := lowerAssignment(n)
		if err != nil {
			return nil, err
		}
		return expr, nil
	case n.HeadSymbol("import"):
		return lowerImport(n)
	case n.HeadSymbol("export-default"):
		return lowerExportDefault(n)
	case n.HeadSymbol("export"):
		return lowerExportNamed(n)
	default:
		return lowerExpr(n)
	}
}

func lowerBlock(forms []*ast.Node) (*ir.Node, error) {
	body := make([]*ir.Node, 0, len(forms))
	for _, f := range forms {
		n, err := lowerStatement(f)
		if err != nil {
			return nil, err
		}
		body = append(body, n)
	}
	return &ir.Node{Kind: ir.KindBlockStatement, Body: body}, nil
}

func lowerLabelStmt(n *ast.Node, kind ir.Kind) (*ir.Node, error) {
	label := ""
	if tail := n.Tail(); len(tail) == 1 && tail[0].Kind == ast.KindSymbol {
		label = tail[0].Name
	}
	return &ir.Node{Kind: kind, Position: n.Meta.Pos, Label: label}, nil
}

func lowerReturn(n *ast.Node) (*ir.Node, error) {
	tail := n.Tail()
	var arg *ir.Node
	if len(tail) == 1 {
		var err error
		arg, err = lowerExpr(tail[0])
		if err != nil {
			return nil, err
		}
	}
	return &ir.Node{Kind: ir.KindReturnStatement, Position: n.Meta.Pos, Argument: arg}, nil
}

func lowerThrow(n *ast.Node) (*ir.Node, error) {
	tail := n.Tail()
	arg, err := lowerExpr(tail[0])
	if err != nil {
		return nil, err
	}
	return &ir.Node{Kind: ir.KindThrowStatement, Position: n.Meta.Pos, Argument: arg}, nil
}

func lowerAssignment(n *ast.Node) (*ir.Node, error) {
	tail := n.Tail()
	left, err := lowerExpr(tail[0])
	if err != nil {
		return nil, err
	}
	right, err := lowerExpr(tail[1])
	if err != nil {
		return nil, err
	}
	return &ir.Node{Kind: ir.KindAssignmentExpression, Position: n.Meta.Pos, Operator: "=", Left: left, Right: right}, nil
}
