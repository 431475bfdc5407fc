package optimize

import "github.com/hlvm-dev/hql/core/ir"

// descend applies visit bottom-up (children first, then n itself) across
// every field of n that holds a child *ir.Node, mutating n in place and
// returning visit(n)'s result. This lets each pass touch exactly the node
// kinds it cares about while still reaching every node in the tree,
// mirroring spec.md §4.5's "shared tree walker visits every child without
// enumerating the union" idea, applied here to rewriting instead of
// read-only queries.
func descend(n *ir.Node, visit func(*ir.Node) *ir.Node) *ir.Node {
	if n == nil {
		return nil
	}
	for i, c := range n.Body {
		n.Body[i] = descend(c, visit)
	}
	for i := range n.Params {
		if n.Params[i].Pattern != nil {
			n.Params[i].Pattern = descend(n.Params[i].Pattern, visit)
		}
		if n.Params[i].Default != nil {
			n.Params[i].Default = descend(n.Params[i].Default, visit)
		}
	}
	n.Target = descend(n.Target, visit)
	n.Init = descend(n.Init, visit)
	n.Left = descend(n.Left, visit)
	n.Right = descend(n.Right, visit)
	n.Callee = descend(n.Callee, visit)
	for i, a := range n.Args {
		n.Args[i] = descend(a, visit)
	}
	n.Operand = descend(n.Operand, visit)
	n.Test = descend(n.Test, visit)
	n.Then = descend(n.Then, visit)
	n.Else = descend(n.Else, visit)
	n.Argument = descend(n.Argument, visit)
	n.LoopVar = descend(n.LoopVar, visit)
	n.Iterable = descend(n.Iterable, visit)
	n.ForBody = descend(n.ForBody, visit)
	n.TryBlock = descend(n.TryBlock, visit)
	if n.Catch != nil {
		n.Catch.Param = descend(n.Catch.Param, visit)
		n.Catch.Body = descend(n.Catch.Body, visit)
	}
	n.Finally = descend(n.Finally, visit)
	for i := range n.Props {
		n.Props[i].Value = descend(n.Props[i].Value, visit)
	}
	for i, e := range n.Elements {
		n.Elements[i] = descend(e, visit)
	}
	n.Object = descend(n.Object, visit)
	n.Property = descend(n.Property, visit)
	return visit(n)
}
