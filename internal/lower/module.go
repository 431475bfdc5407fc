package lower

import (
	"github.com/hlvm-dev/hql/core/ast"
	"github.com/hlvm-dev/hql/core/diag"
	"github.com/hlvm-dev/hql/core/ir"
)

// lowerImport handles `(import [a b] "specifier")`, producing a named ES
// import the module linker's specifier scan (spec.md §4.8 step 2) can find.
func lowerImport(n *ast.Node) (*ir.Node, error) {
	tail := n.Tail()
	if len(tail) != 2 || !tail[0].HeadSymbol("vector") || tail[1].Kind != ast.KindLiteral || tail[1].LitKind != ast.LitString {
		return nil, diag.New(diag.KindLowering, n.Meta.Pos, "import expects ([names...] \"specifier\")")
	}
	names := make([]string, 0, len(tail[0].Tail()))
	for _, c := range tail[0].Tail() {
		if c.Kind != ast.KindSymbol {
			return nil, diag.New(diag.KindLowering, c.Meta.Pos, "import binding must be a symbol")
		}
		names = append(names, c.Name)
	}
	return &ir.Node{
		Kind:         ir.KindImportDeclaration,
		Position:     n.Meta.Pos,
		ImportNames:  names,
		ImportSource: tail[1].Str,
	}, nil
}

// lowerExportDefault handles `(export-default expr)`, lowering expr and
// wrapping it as the module's default export.
func lowerExportDefault(n *ast.Node) (*ir.Node, error) {
	tail := n.Tail()
	if len(tail) != 1 {
		return nil, diag.New(diag.KindLowering, n.Meta.Pos, "export-default expects exactly one argument")
	}
	arg, err := lowerExpr(tail[0])
	if err != nil {
		return nil, err
	}
	return &ir.Node{Kind: ir.KindExportDefaultDeclaration, Position: n.Meta.Pos, Argument: arg}, nil
}

// lowerExportNamed handles `(export name)`, re-exporting an already bound
// top-level identifier.
func lowerExportNamed(n *ast.Node) (*ir.Node, error) {
	tail := n.Tail()
	if len(tail) != 1 || tail[0].Kind != ast.KindSymbol {
		return nil, diag.New(diag.KindLowering, n.Meta.Pos, "export expects a single bound name")
	}
	return &ir.Node{
		Kind:        ir.KindExportNamedDeclaration,
		Position:    n.Meta.Pos,
		ImportNames: []string{tail[0].Name},
	}, nil
}
