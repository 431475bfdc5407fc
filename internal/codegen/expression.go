package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hlvm-dev/hql/core/ir"
)

// sanitizeIdent makes a gensym-produced name a valid JS identifier
// (spec.md §4.7): dashes become underscores, a leading digit is prefixed.
func sanitizeIdent(name string) string {
	if name == "" {
		return name
	}
	name = strings.ReplaceAll(name, "-", "_")
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

func (g *Generator) expression(n *ir.Node) error {
	if n == nil {
		g.write("undefined")
		return nil
	}
	switch n.Kind {
	case ir.KindIdentifier:
		g.mark(n.Position, sanitizeIdent(n.Name))
		return nil

	case ir.KindLiteral:
		return g.literal(n)

	case ir.KindFunctionExpression:
		return g.functionNode(n, false)

	case ir.KindAssignmentExpression:
		return g.assignmentExpr(n)

	case ir.KindCallExpression:
		return g.callExpr(n)

	case ir.KindBinaryExpression:
		g.write("(")
		if err := g.expression(n.Left); err != nil {
			return err
		}
		g.write(" " + n.Operator + " ")
		if err := g.expression(n.Right); err != nil {
			return err
		}
		g.write(")")
		return nil

	case ir.KindUnaryExpression:
		g.mark(n.Position, n.Operator)
		return g.expression(n.Operand)

	case ir.KindConditionalExpression:
		g.write("(")
		if err := g.expression(n.Test); err != nil {
			return err
		}
		g.write(" ? ")
		if err := g.expression(n.Then); err != nil {
			return err
		}
		g.write(" : ")
		if err := g.expression(n.Else); err != nil {
			return err
		}
		g.write(")")
		return nil

	case ir.KindAwaitExpression:
		g.mark(n.Position, "await ")
		return g.expression(n.Argument)

	case ir.KindYieldExpression:
		g.mark(n.Position, "yield")
		if n.Delegate {
			g.write("*")
		}
		if n.Argument != nil {
			g.write(" ")
			return g.expression(n.Argument)
		}
		return nil

	case ir.KindSpreadElement:
		g.mark(n.Position, "...")
		return g.expression(n.Argument)

	case ir.KindObjectExpression:
		return g.objectExpr(n)

	case ir.KindArrayExpression:
		return g.arrayExpr(n)

	case ir.KindMemberExpression:
		return g.memberExpr(n)

	default:
		return fmt.Errorf("codegen: %s is not valid in expression position", n.Kind)
	}
}

func (g *Generator) literal(n *ir.Node) error {
	switch n.LitKind {
	case ir.LitNumber:
		g.mark(n.Position, formatNumber(n.Num))
	case ir.LitString:
		g.mark(n.Position, strconv.Quote(n.Str))
	case ir.LitBool:
		if n.Bool {
			g.mark(n.Position, "true")
		} else {
			g.mark(n.Position, "false")
		}
	default:
		g.mark(n.Position, "null")
	}
	return nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (g *Generator) callExpr(n *ir.Node) error {
	if err := g.expression(n.Callee); err != nil {
		return err
	}
	g.write("(")
	for i, a := range n.Args {
		if i > 0 {
			g.write(", ")
		}
		if err := g.expression(a); err != nil {
			return err
		}
	}
	g.write(")")
	return nil
}

func (g *Generator) objectExpr(n *ir.Node) error {
	g.mark(n.Position, "__hql_hash_map(")
	first := true
	for _, p := range n.Props {
		if !first {
			g.write(", ")
		}
		first = false
		if p.Spread {
			g.write("...")
			if err := g.expression(p.Value); err != nil {
				return err
			}
			continue
		}
		g.write(strconv.Quote(p.Key) + ", ")
		if err := g.expression(p.Value); err != nil {
			return err
		}
	}
	g.write(")")
	return nil
}

func (g *Generator) arrayExpr(n *ir.Node) error {
	g.mark(n.Position, "[")
	for i, el := range n.Elements {
		if i > 0 {
			g.write(", ")
		}
		if err := g.expression(el); err != nil {
			return err
		}
	}
	g.write("]")
	return nil
}

func (g *Generator) memberExpr(n *ir.Node) error {
	if err := g.expression(n.Object); err != nil {
		return err
	}
	if n.Computed {
		g.write("[")
		if err := g.expression(n.Property); err != nil {
			return err
		}
		g.write("]")
		return nil
	}
	g.write(".")
	return g.expression(n.Property)
}

// functionNode emits a FnFunctionDeclaration/FunctionDeclaration/
// FunctionExpression. asStatement selects the `function name(...) {}` form
// over an anonymous `function (...) {}` expression; both share the same
// param/body rendering.
func (g *Generator) functionNode(n *ir.Node, asStatement bool) error {
	g.mark(n.Position, "function ")
	if n.Name != "" {
		g.write(sanitizeIdent(n.Name))
	}
	g.write("(")
	for i, p := range n.Params {
		if i > 0 {
			g.write(", ")
		}
		if p.Rest {
			g.write("...")
		}
		if err := g.pattern(p.Pattern); err != nil {
			return err
		}
		if p.Default != nil {
			g.write(" = ")
			if err := g.expression(p.Default); err != nil {
				return err
			}
		}
	}
	g.write(") ")
	body := &ir.Node{Kind: ir.KindBlockStatement, Body: n.Body}
	if err := g.block(body, 0); err != nil {
		return err
	}
	if asStatement {
		g.write("\n")
	}
	return nil
}
