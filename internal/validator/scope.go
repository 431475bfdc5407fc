package validator

import (
	"github.com/hlvm-dev/hql/core/ast"
	"github.com/hlvm-dev/hql/core/diag"
)

// staticScope tracks declared names for rule (a) (no duplicate
// let/var/const/fn in the same scope) and rule (b) (set!/= targets must
// resolve by scope lookup) without evaluating anything — a purely static
// counterpart of core/env.Environment, since the validator runs on already
// macro-expanded syntax, not during macro-time evaluation.
type staticScope struct {
	parent *staticScope
	names  map[string]bool
}

func newStaticScope(parent *staticScope) *staticScope {
	return &staticScope{parent: parent, names: make(map[string]bool)}
}

func (s *staticScope) declare(name string) bool {
	if s.names[name] {
		return false
	}
	s.names[name] = true
	return true
}

func (s *staticScope) resolves(name string) bool {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.names[name] {
			return true
		}
	}
	return false
}

// checkDecls implements rule (a): walks forms looking for duplicate
// declarations within the same lexical scope. fn/do/if-branch bodies and
// for-bodies open a child scope (this mirrors core/env.Environment.Child's
// creation points: every let/fn entry).
func (v *validator) checkDecls(n *ast.Node, scope *staticScope) error {
	if n == nil || n.Kind != ast.KindList {
		return nil
	}
	switch {
	case n.HeadSymbol("let"), n.HeadSymbol("var"), n.HeadSymbol("const"):
		tail := n.Tail()
		if len(tail) >= 1 && tail[0].Kind == ast.KindSymbol {
			if !scope.declare(tail[0].Name) {
				return diag.New(diag.KindValidation, n.Meta.Pos,
					"\""+tail[0].Name+"\" has already been declared in this scope").
					WithSuggestion("rename one of the declarations or remove the duplicate")
			}
		}
		for _, c := range tail {
			if err := v.checkDecls(c, scope); err != nil {
				return err
			}
		}
		return nil
	case n.HeadSymbol("fn"):
		tail := n.Tail()
		idx := 0
		if len(tail) > 0 && tail[0].Kind == ast.KindSymbol {
			if !scope.declare(tail[0].Name) {
				return diag.New(diag.KindValidation, n.Meta.Pos,
					"\""+tail[0].Name+"\" has already been declared in this scope")
			}
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
			if err := v.checkDecls(body, child); err != nil {
				return err
			}
		}
		return nil
	case n.HeadSymbol("for"):
		tail := n.Tail()
		child := newStaticScope(scope)
		if len(tail) > 0 && tail[0].HeadSymbol("vector") {
			binding := tail[0].Tail()
			if len(binding) > 0 && binding[0].Kind == ast.KindSymbol {
				child.declare(binding[0].Name)
			}
		}
		for _, body := range tail[1:] {
			if err := v.checkDecls(body, child); err != nil {
				return err
			}
		}
		return nil
	case n.HeadSymbol("do"):
		child := newStaticScope(scope)
		for _, c := range n.Tail() {
			if err := v.checkDecls(c, child); err != nil {
				return err
			}
		}
		return nil
	case n.HeadSymbol("if"):
		for _, c := range n.Tail() {
			if err := v.checkDecls(c, newStaticScope(scope)); err != nil {
				return err
			}
		}
		return nil
	default:
		for _, c := range n.Children {
			if err := v.checkDecls(c, scope); err != nil {
				return err
			}
		}
		return nil
	}
}
