package codegen

import (
	"fmt"
	"strings"

	"github.com/hlvm-dev/hql/core/ir"
)

func indentStr(depth int) string {
	out := ""
	for i := 0; i < depth; i++ {
		out += "  "
	}
	return out
}

func declKeyword(k ir.DeclKind) string {
	switch k {
	case ir.DeclConst:
		return "const"
	case ir.DeclVar:
		return "var"
	default:
		return "let"
	}
}

// statement emits n as a JS statement at the given indent depth.
func (g *Generator) statement(n *ir.Node, depth int) error {
	if n == nil {
		return nil
	}
	g.write(indentStr(depth))
	switch n.Kind {
	case ir.KindVariableDeclaration:
		g.mark(n.Position, declKeyword(n.DeclKind)+" ")
		if err := g.pattern(n.Target); err != nil {
			return err
		}
		if n.Init != nil {
			g.write(" = ")
			if err := g.expression(n.Init); err != nil {
				return err
			}
		}
		g.write(";")

	case ir.KindAssignmentExpression:
		if err := g.assignmentExpr(n); err != nil {
			return err
		}
		g.write(";")

	case ir.KindFnFunctionDeclaration, ir.KindFunctionDeclaration:
		if err := g.functionNode(n, true); err != nil {
			return err
		}

	case ir.KindClassDeclaration:
		if err := g.classDecl(n, depth); err != nil {
			return err
		}

	case ir.KindBlockStatement:
		return g.block(n, depth)

	case ir.KindIfStatement:
		return g.ifStatement(n, depth)

	case ir.KindReturnStatement:
		g.mark(n.Position, "return")
		if n.Argument != nil {
			g.write(" ")
			if err := g.expression(n.Argument); err != nil {
				return err
			}
		}
		g.write(";")

	case ir.KindBreakStatement:
		g.mark(n.Position, "break")
		if n.Label != "" {
			g.write(" " + n.Label)
		}
		g.write(";")

	case ir.KindContinueStatement:
		g.mark(n.Position, "continue")
		if n.Label != "" {
			g.write(" " + n.Label)
		}
		g.write(";")

	case ir.KindForOfStatement:
		return g.forOfStatement(n, depth)

	case ir.KindWhileStatement:
		g.mark(n.Position, "while (")
		if err := g.expression(n.Test); err != nil {
			return err
		}
		g.write(") ")
		return g.block(n.ForBody, depth)

	case ir.KindThrowStatement:
		g.mark(n.Position, "throw ")
		if err := g.expression(n.Argument); err != nil {
			return err
		}
		g.write(";")

	case ir.KindTryStatement:
		return g.tryStatement(n, depth)

	case ir.KindImportDeclaration:
		g.mark(n.Position, fmt.Sprintf("import { %s } from %q;", strings.Join(n.ImportNames, ", "), n.ImportSource))

	case ir.KindExportDefaultDeclaration:
		g.mark(n.Position, "export default ")
		if err := g.expression(n.Argument); err != nil {
			return err
		}
		g.write(";")

	case ir.KindExportNamedDeclaration:
		g.mark(n.Position, fmt.Sprintf("export { %s };", strings.Join(n.ImportNames, ", ")))

	default:
		// A bare expression used in statement position (e.g. a call for
		// side effect).
		if err := g.expression(n); err != nil {
			return err
		}
		g.write(";")
	}
	return nil
}

func (g *Generator) block(n *ir.Node, depth int) error {
	if n == nil {
		g.write("{}")
		return nil
	}
	g.write("{\n")
	for _, stmt := range n.Body {
		if err := g.statement(stmt, depth+1); err != nil {
			return err
		}
		g.write("\n")
	}
	g.write(indentStr(depth) + "}")
	return nil
}

func (g *Generator) ifStatement(n *ir.Node, depth int) error {
	g.mark(n.Position, "if (")
	if err := g.expression(n.Test); err != nil {
		return err
	}
	g.write(") ")
	if n.Then != nil && n.Then.Kind == ir.KindBlockStatement {
		if err := g.block(n.Then, depth); err != nil {
			return err
		}
	} else {
		g.write("{\n")
		if err := g.statement(n.Then, depth+1); err != nil {
			return err
		}
		g.write("\n" + indentStr(depth) + "}")
	}
	if n.Else != nil {
		g.write(" else ")
		if n.Else.Kind == ir.KindIfStatement {
			return g.ifStatement(n.Else, depth)
		}
		if n.Else.Kind == ir.KindBlockStatement {
			return g.block(n.Else, depth)
		}
		g.write("{\n")
		if err := g.statement(n.Else, depth+1); err != nil {
			return err
		}
		g.write("\n" + indentStr(depth) + "}")
	}
	return nil
}

// forOfStatement emits either a native counting loop (NativeLoop, after
// the optimizer's lazy-range specialization) or a `for (const x of iter)`.
func (g *Generator) forOfStatement(n *ir.Node, depth int) error {
	if n.NativeLoop {
		return g.nativeCountingLoop(n, depth)
	}
	g.mark(n.Position, "for (const ")
	if err := g.pattern(n.LoopVar); err != nil {
		return err
	}
	g.write(" of ")
	if err := g.expression(n.Iterable); err != nil {
		return err
	}
	g.write(") ")
	return g.block(n.ForBody, depth)
}

// nativeCountingLoop emits `for (let v = start; v < end; v += step)` from a
// range(start?, end?, step?) call captured in n.Iterable by the optimizer's
// specializeRanges pass.
func (g *Generator) nativeCountingLoop(n *ir.Node, depth int) error {
	args := n.Iterable.Args
	start, end, step := "0", "", "1"
	switch len(args) {
	case 1:
		end = exprSource(args[0])
	case 2:
		start = exprSource(args[0])
		end = exprSource(args[1])
	case 3:
		start = exprSource(args[0])
		end = exprSource(args[1])
		step = exprSource(args[2])
	}
	varName := "_i"
	if n.LoopVar != nil && n.LoopVar.Kind == ir.KindIdentifier {
		varName = n.LoopVar.Name
	}
	g.mark(n.Position, fmt.Sprintf("for (let %s = %s; %s < %s; %s += %s) ", varName, start, varName, end, varName, step))
	return g.block(n.ForBody, depth)
}

// exprSource renders a range argument inline for the native loop header
// using a scratch generator; its mappings and any render error are
// discarded.
func exprSource(n *ir.Node) string {
	tmp := New("")
	_ = tmp.expression(n)
	return tmp.buf.String()
}

func (g *Generator) tryStatement(n *ir.Node, depth int) error {
	g.mark(n.Position, "try ")
	if err := g.block(n.TryBlock, depth); err != nil {
		return err
	}
	if n.Catch != nil {
		g.write(" catch ")
		if n.Catch.Param != nil {
			g.write("(")
			if err := g.expression(n.Catch.Param); err != nil {
				return err
			}
			g.write(") ")
		}
		if err := g.block(n.Catch.Body, depth); err != nil {
			return err
		}
	}
	if n.Finally != nil {
		g.write(" finally ")
		if err := g.block(n.Finally, depth); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) classDecl(n *ir.Node, depth int) error {
	g.mark(n.Position, "class "+n.Name+" {\n")
	for _, method := range n.Body {
		g.write(indentStr(depth + 1))
		if err := g.functionNode(method, false); err != nil {
			return err
		}
		g.write("\n")
	}
	g.write(indentStr(depth) + "}")
	return nil
}

func (g *Generator) assignmentExpr(n *ir.Node) error {
	if err := g.expression(n.Left); err != nil {
		return err
	}
	op := n.Operator
	if op == "" {
		op = "="
	}
	g.write(" " + op + " ")
	return g.expression(n.Right)
}

func (g *Generator) pattern(n *ir.Node) error {
	if n == nil {
		g.write("_")
		return nil
	}
	if n.Kind == ir.KindIdentifier {
		g.write(sanitizeIdent(n.Name))
		return nil
	}
	if n.Kind == ir.KindArrayExpression {
		g.write("[")
		for i, el := range n.Elements {
			if i > 0 {
				g.write(", ")
			}
			if el == nil {
				continue
			}
			if err := g.pattern(el); err != nil {
				return err
			}
		}
		g.write("]")
		return nil
	}
	return g.expression(n)
}
