// Package interp implements the macro-time interpreter (spec.md §4.3): a
// tiny tree-walking evaluator used exclusively by the macro expander to run
// macro bodies and quasiquote templates at compile time.
package interp

import (
	"github.com/hlvm-dev/hql/core/ast"
)

// Value is any value the interpreter can produce: float64, string, bool,
// nil, []Value (a list), *HashMap, *ast.Node (quoted/unexpanded syntax
// crossing the hql<->js boundary as data, spec.md §4.3), *LazySeq, or *Fn.
// There is deliberately no separate host-JS value type: this compiler has
// no embedded JS VM (spec.md §1 excludes "the embedded Node/Deno platform
// shim"), so the hql→js / js→hql conversion pair the spec describes
// collapses, on this host, to Reify/the Go-native Value representation
// itself.
type Value = any

// HashMap is an insertion-ordered string-keyed map, matching the reader's
// {k v …} literal and the runtime's null-prototype object semantics
// (spec.md §6 "Object-literal semantics").
type HashMap struct {
	Keys   []string
	Values map[string]Value
}

// NewHashMap creates an empty ordered hash map.
func NewHashMap() *HashMap {
	return &HashMap{Values: make(map[string]Value)}
}

// Set inserts or updates key, preserving first-insertion order.
func (h *HashMap) Set(key string, v Value) {
	if _, ok := h.Values[key]; !ok {
		h.Keys = append(h.Keys, key)
	}
	h.Values[key] = v
}

// Get returns the value for key and whether it was present.
func (h *HashMap) Get(key string) (Value, bool) {
	v, ok := h.Values[key]
	return v, ok
}

// Reify converts an interpreter Value back into S-expression data, the
// counterpart of evaluation used to build a macro's expansion result and to
// substitute "evaluated" argument-class parameters into a macro body
// (spec.md §4.2's "Argument evaluation policy").
func Reify(v Value, meta ast.Meta) *ast.Node {
	switch x := v.(type) {
	case nil:
		return &ast.Node{Kind: ast.KindLiteral, LitKind: ast.LitNull, Meta: meta}
	case *ast.Node:
		return x
	case float64:
		return ast.Num(x, meta)
	case int:
		return ast.Num(float64(x), meta)
	case string:
		return ast.Str(x, meta)
	case bool:
		return ast.Bool(x, meta)
	case []Value:
		children := make([]*ast.Node, 0, len(x)+1)
		children = append(children, ast.Sym("vector", meta))
		for _, elem := range x {
			children = append(children, Reify(elem, meta))
		}
		return ast.List(meta, children...)
	case *HashMap:
		children := make([]*ast.Node, 0, len(x.Keys)*2+1)
		children = append(children, ast.Sym("__hql_hash_map", meta))
		for _, k := range x.Keys {
			children = append(children, ast.Str(k, meta), Reify(x.Values[k], meta))
		}
		return ast.List(meta, children...)
	case *LazySeq:
		elems, _ := x.Realize(defaultMaxLazyLen)
		return Reify(elems, meta)
	default:
		return &ast.Node{Kind: ast.KindLiteral, LitKind: ast.LitNull, Meta: meta}
	}
}

// AsList extracts a Go slice from a Value that must be list-shaped: either
// a []Value, a *LazySeq (realized up to its cap), or a (vector …) syntax
// node — the three forms unquote-splicing is allowed to expand
// (spec.md §4.2: "splicing requires a list result; a vector form (vector …)
// splices its tail").
func AsList(v Value) ([]Value, bool) {
	switch x := v.(type) {
	case []Value:
		return x, true
	case *LazySeq:
		elems, _ := x.Realize(defaultMaxLazyLen)
		return elems, true
	case *ast.Node:
		if x.HeadSymbol("vector") {
			tail := x.Tail()
			out := make([]Value, len(tail))
			for i, c := range tail {
				out[i] = c
			}
			return out, true
		}
		return nil, false
	default:
		return nil, false
	}
}

// Truthy implements HQL's truthiness: only false and null are falsy.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	default:
		return true
	}
}
