package interp

import (
	"strings"

	"github.com/hlvm-dev/hql/core/ast"
	"github.com/hlvm-dev/hql/core/env"
	"github.com/hlvm-dev/hql/core/gensym"
)

// EvalQuasiquote evaluates a quasiquote template (spec.md §4.2/§4.3): depth
// starts at 0; unquote/unquote-splicing at depth 0 evaluate and substitute;
// a nested quasiquote increments depth and gets its own fresh auto-gensym
// mapping; unquote decrements depth. Symbols ending in "#" inside the
// template at depth 0 are rewritten to a single fresh gensym shared by every
// occurrence of that symbol within this template instance.
func (it *Interp) EvalQuasiquote(template *ast.Node, scope *env.Environment, depth int) (Value, error) {
	gmap := make(map[string]string)
	node, err := it.qq(template, 0, gmap, scope, depth)
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (it *Interp) qq(node *ast.Node, qdepth int, gmap map[string]string, scope *env.Environment, depth int) (*ast.Node, error) {
	if node == nil {
		return nil, nil
	}
	switch node.Kind {
	case ast.KindSymbol:
		if qdepth == 0 && strings.HasSuffix(node.Name, "#") && node.Name != "#" {
			fresh, ok := gmap[node.Name]
			if !ok {
				fresh = gensym.Next(strings.TrimSuffix(node.Name, "#"))
				gmap[node.Name] = fresh
			}
			return ast.Sym(fresh, node.Meta), nil
		}
		return node, nil
	case ast.KindLiteral:
		return node, nil
	case ast.KindList:
		if node.HeadSymbol("unquote") {
			return it.qqUnquote(node, qdepth, gmap, scope, depth)
		}
		if node.HeadSymbol("unquote-splicing") {
			if qdepth == 0 {
				return nil, it.errorf(node, "unquote-splicing not valid outside a list position")
			}
			inner, err := it.qq(node.Tail()[0], qdepth-1, gmap, scope, depth)
			if err != nil {
				return nil, err
			}
			return ast.List(node.Meta, ast.Sym("unquote-splicing", node.Meta), inner), nil
		}
		if node.HeadSymbol("quasiquote") {
			inner, err := it.qq(node.Tail()[0], qdepth+1, make(map[string]string), scope, depth)
			if err != nil {
				return nil, err
			}
			return ast.List(node.Meta, ast.Sym("quasiquote", node.Meta), inner), nil
		}

		var result []*ast.Node
		for _, child := range node.Children {
			if qdepth == 0 && child.HeadSymbol("unquote-splicing") {
				v, err := it.Eval(child.Tail()[0], scope, depth)
				if err != nil {
					return nil, err
				}
				spliced, ok := AsList(v)
				if !ok {
					return nil, it.errorf(child, "unquote-splicing requires a list result")
				}
				for _, s := range spliced {
					result = append(result, Reify(s, child.Meta))
				}
				continue
			}
			processed, err := it.qq(child, qdepth, gmap, scope, depth)
			if err != nil {
				return nil, err
			}
			result = append(result, processed)
		}
		return ast.List(node.Meta, result...), nil
	default:
		return node, nil
	}
}

func (it *Interp) qqUnquote(node *ast.Node, qdepth int, gmap map[string]string, scope *env.Environment, depth int) (*ast.Node, error) {
	arg := node.Tail()[0]
	if qdepth == 0 {
		v, err := it.Eval(arg, scope, depth)
		if err != nil {
			return nil, err
		}
		return Reify(v, node.Meta), nil
	}
	inner, err := it.qq(arg, qdepth-1, gmap, scope, depth)
	if err != nil {
		return nil, err
	}
	return ast.List(node.Meta, ast.Sym("unquote", node.Meta), inner), nil
}
