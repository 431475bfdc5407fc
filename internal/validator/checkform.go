package validator

import (
	"strconv"

	"github.com/hlvm-dev/hql/core/ast"
	"github.com/hlvm-dev/hql/core/diag"
)

// checkForm implements rules (b), (c), (d), threading a fresh staticScope
// in parallel with checkDecls' scope-opening points so that set!/= targets
// and call arities are checked against names visible at that point in the
// tree, not just top-level declarations.
func (v *validator) checkForm(n *ast.Node, scope *staticScope) error {
	if n == nil || n.Kind != ast.KindList {
		return nil
	}
	switch {
	case n.HeadSymbol("let"), n.HeadSymbol("var"), n.HeadSymbol("const"):
		tail := n.Tail()
		if len(tail) == 2 {
			if err := v.checkForm(tail[1], scope); err != nil {
				return err
			}
			if tail[0].Kind == ast.KindSymbol {
				scope.declare(tail[0].Name)
			}
		}
		return nil
	case n.HeadSymbol("set!"), n.HeadSymbol("="):
		tail := n.Tail()
		if len(tail) == 2 && tail[0].Kind == ast.KindSymbol {
			if !scope.resolves(tail[0].Name) {
				err := diag.New(diag.KindValidation, n.Meta.Pos,
					"assignment target \""+tail[0].Name+"\" does not resolve to any reachable binding")
				if hint := diag.SuggestName(tail[0].Name, scope.allNames()); hint != "" {
					err = err.WithSuggestion(hint)
				}
				return err
			}
		}
		if len(tail) == 2 {
			return v.checkForm(tail[1], scope)
		}
		return nil
	case n.HeadSymbol("fn"):
		return v.checkFnForm(n, scope)
	case n.HeadSymbol("for"):
		return v.checkForForm(n, scope)
	case n.HeadSymbol("do"):
		child := newStaticScope(scope)
		for _, c := range n.Tail() {
			if err := v.checkForm(c, child); err != nil {
				return err
			}
		}
		return nil
	default:
		if err := v.checkMemberAccess(n); err != nil {
			return err
		}
		if err := v.checkCallArity(n, scope); err != nil {
			return err
		}
		for _, c := range n.Children {
			if err := v.checkForm(c, scope); err != nil {
				return err
			}
		}
		return nil
	}
}

func (v *validator) checkFnForm(n *ast.Node, scope *staticScope) error {
	tail := n.Tail()
	idx := 0
	if len(tail) > 0 && tail[0].Kind == ast.KindSymbol {
		scope.declare(tail[0].Name)
		idx = 1
	}
	child := newStaticScope(scope)
	if idx < len(tail) && tail[idx].HeadSymbol("vector") {
		for _, p := range tail[idx].Tail() {
			if p.Kind == ast.KindSymbol && p.Name != "&" {
				child.declare(p.Name)
			}
		}
		idx++
	}
	for _, body := range tail[idx:] {
		if err := v.checkForm(body, child); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) checkForForm(n *ast.Node, scope *staticScope) error {
	tail := n.Tail()
	if len(tail) == 0 {
		return nil
	}
	child := newStaticScope(scope)
	if tail[0].HeadSymbol("vector") {
		binding := tail[0].Tail()
		if len(binding) > 0 && binding[0].Kind == ast.KindSymbol {
			child.declare(binding[0].Name)
		}
		if len(binding) > 1 {
			if err := v.checkForm(binding[1], scope); err != nil {
				return err
			}
		}
	}
	for _, body := range tail[1:] {
		if err := v.checkForm(body, child); err != nil {
			return err
		}
	}
	return nil
}

// checkCallArity implements rule (c): soft arity checking against declared
// fn arities. Escalation to a hard error for "typed-only call sites" is
// intentionally not modeled — this implementation carries no static type
// system to determine when a call site is typed, so every mismatch is a
// warning (see DESIGN.md).
func (v *validator) checkCallArity(n *ast.Node, scope *staticScope) error {
	head := n.Head()
	if head == nil || head.Kind != ast.KindSymbol {
		return nil
	}
	info, ok := v.arities[head.Name]
	if !ok {
		return nil
	}
	argc := len(n.Tail())
	if argc < info.min || (info.max != -1 && argc > info.max) {
		v.warn(n.Meta.Pos, "call to \""+head.Name+"\" passes "+strconv.Itoa(argc)+" argument(s), declared arity does not match")
	}
	return nil
}

// checkMemberAccess implements rule (d): (. obj prop) property access is
// checked against the built-in method table for string/array/number typed
// expressions (internal/validator/methodtable.go), using jsonschema to
// describe each type's known property set.
func (v *validator) checkMemberAccess(n *ast.Node) error {
	if !n.HeadSymbol(".") {
		return nil
	}
	tail := n.Tail()
	if len(tail) != 2 || tail[1].Kind != ast.KindSymbol {
		return nil
	}
	obj, prop := tail[0], tail[1].Name
	typ := staticTypeOf(obj)
	if typ == "" {
		return nil // not a statically known type; nothing to check
	}
	if methodTableHas(typ, prop) {
		return nil
	}
	msg := "property \"" + prop + "\" is not a known " + typ + " member"
	if v.opts.Strict {
		err := diag.New(diag.KindValidation, n.Meta.Pos, msg)
		if hint := diag.SuggestName(prop, methodTableNames(typ)); hint != "" {
			err = err.WithSuggestion(hint)
		}
		return err
	}
	v.warn(n.Meta.Pos, msg)
	return nil
}

// staticTypeOf infers a trivially-known type for a property-access
// receiver: a string or number literal, or (vector …) syntax.
func staticTypeOf(n *ast.Node) string {
	switch {
	case n.Kind == ast.KindLiteral && n.LitKind == ast.LitString:
		return "string"
	case n.Kind == ast.KindLiteral && n.LitKind == ast.LitNumber:
		return "number"
	case n.HeadSymbol("vector"):
		return "array"
	default:
		return ""
	}
}

// allNames collects every name visible from s, used for "did you mean"
// suggestions on unresolved set!/= targets.
func (s *staticScope) allNames() []string {
	var out []string
	seen := map[string]bool{}
	for sc := s; sc != nil; sc = sc.parent {
		for name := range sc.names {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}
