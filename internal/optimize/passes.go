package optimize

import "github.com/hlvm-dev/hql/core/ir"

// isRangeCall reports whether n is a direct call to the range builtin, the
// precondition for the lazy-range specialization (spec.md §4.6).
func isRangeCall(n *ir.Node) bool {
	return n != nil && n.Kind == ir.KindCallExpression && n.Callee != nil &&
		n.Callee.Kind == ir.KindIdentifier && n.Callee.Name == "range"
}

// specializeRanges rewrites a ForOfStatement whose Iterable wraps a direct
// `range` call into a native counting loop: `for (let i = start; i < end; i += step)`,
// represented as a ForOfStatement with NativeLoop set and the Iterable
// replaced by the unwrapped range call, whose (start?, end?, step?)
// arguments the code generator emits as a C-style loop header.
func specializeRanges(program *ir.Node) *ir.Node {
	return descend(program, func(n *ir.Node) *ir.Node {
		if n.Kind != ir.KindForOfStatement {
			return n
		}
		// Iterable is __hql_toSequence(range(...)) per lowering; unwrap both.
		wrapped := n.Iterable
		if wrapped == nil || wrapped.Kind != ir.KindCallExpression || len(wrapped.Args) != 1 {
			return n
		}
		rangeCall := wrapped.Args[0]
		if !isRangeCall(rangeCall) {
			return n
		}
		n.NativeLoop = true
		n.Iterable = rangeCall
		return n
	})
}

// eliminateDeadBranches keeps only the taken branch of an IfStatement or
// ConditionalExpression whose Test is a literal boolean.
func eliminateDeadBranches(program *ir.Node) *ir.Node {
	return descend(program, func(n *ir.Node) *ir.Node {
		if n.Kind != ir.KindIfStatement && n.Kind != ir.KindConditionalExpression {
			return n
		}
		if n.Test == nil || n.Test.Kind != ir.KindLiteral || n.Test.LitKind != ir.LitBool {
			return n
		}
		if n.Test.Bool {
			if n.Then != nil {
				return n.Then
			}
			return &ir.Node{Kind: ir.KindBlockStatement, Position: n.Position}
		}
		if n.Else != nil {
			return n.Else
		}
		if n.Kind == ir.KindConditionalExpression {
			return ir.NullLit(n.Position)
		}
		return &ir.Node{Kind: ir.KindBlockStatement, Position: n.Position}
	})
}

// wrapForExpressions wraps a ForOfStatement appearing anywhere other than
// direct statement position in `(() => { …; return null; })()` (spec.md
// §4.6). A ForOfStatement is in statement position only when it sits
// directly inside a Body slice (Program/BlockStatement/function body);
// statementPositions records those nodes before the rewrite so the visit
// callback below can tell the two apart without a field on ir.Node itself.
func wrapForExpressions(program *ir.Node, _ bool) *ir.Node {
	statements := collectStatementPositions(program)
	return descend(program, func(n *ir.Node) *ir.Node {
		if n.Kind != ir.KindForOfStatement || statements[n] {
			return n
		}
		fnExpr := &ir.Node{
			Kind:     ir.KindFunctionExpression,
			Position: n.Position,
			Body:     []*ir.Node{n, {Kind: ir.KindReturnStatement, Position: n.Position, Argument: ir.NullLit(n.Position)}},
		}
		return &ir.Node{Kind: ir.KindCallExpression, Position: n.Position, Callee: fnExpr}
	})
}

// collectStatementPositions returns the set of nodes that sit directly in
// a Body slice anywhere in the tree — the only position a bare
// ForOfStatement is allowed to remain in after wrapForExpressions.
func collectStatementPositions(n *ir.Node) map[*ir.Node]bool {
	positions := make(map[*ir.Node]bool)
	var walk func(n *ir.Node)
	walk = func(n *ir.Node) {
		if n == nil {
			return
		}
		for _, c := range n.Body {
			positions[c] = true
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(n)
	return positions
}

// demandHelpers scans the final tree for references to the seven runtime
// helpers, for the code generator's prelude (spec.md §4.6/§4.8).
func demandHelpers(program *ir.Node) map[string]bool {
	found := make(map[string]bool)
	var walk func(n *ir.Node)
	walk = func(n *ir.Node) {
		if n == nil {
			return
		}
		if n.Kind == ir.KindIdentifier {
			switch n.Name {
			case HelperGet, HelperRange, HelperHashMap, HelperForEach, HelperToSequence, HelperDeepFreeze, HelperMatchObject:
				found[n.Name] = true
			}
		}
		if n.Kind == ir.KindForOfStatement && !n.NativeLoop {
			found[HelperToSequence] = true
			found[HelperForEach] = true
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(program)
	return found
}
