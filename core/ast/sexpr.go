// Package ast defines the S-expression node: the single tagged-variant type
// shared by the reader, macro expander, macro-time interpreter, and
// validator (spec.md §3). A single struct carries all three variants
// (symbol, literal, list), following the teacher's ExprIR shape
// (runtime/planner/expr.go) — "exactly one of these is set based on Kind".
package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hlvm-dev/hql/core/diag"
)

// Kind identifies which of the three S-expression variants a Node holds.
type Kind int

const (
	KindSymbol Kind = iota
	KindLiteral
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindSymbol:
		return "symbol"
	case KindLiteral:
		return "literal"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// LiteralKind identifies which primitive a KindLiteral node wraps.
type LiteralKind int

const (
	LitNumber LiteralKind = iota
	LitString
	LitBool
	LitNull
)

// Meta is the source-position envelope every node carries (spec.md §3
// invariants). OriginalError records, for nodes synthesized by a macro
// expansion that later failed validation, the error that would have been
// reported at the macro-definition site before call-site retargeting
// overwrote it — useful for "expanded from macro X" diagnostic context.
type Meta struct {
	Pos           diag.Position
	Generated     bool // true for nodes with no corresponding source text
	OriginalError error
}

// Node is the tagged S-expression variant: symbol(name), literal(primitive),
// or list(children). Lists carry insertion order; symbols are interned by
// name (string equality, not identity) so two Node values with
// Kind==KindSymbol and equal Name are the same symbol for expansion
// purposes even though they are different Go pointers.
type Node struct {
	Kind Kind
	Meta Meta

	// KindSymbol
	Name string

	// KindLiteral
	LitKind LiteralKind
	Num     float64
	Str     string
	Bool    bool

	// KindList
	Children []*Node
}

// Sym constructs a symbol node.
func Sym(name string, meta Meta) *Node {
	return &Node{Kind: KindSymbol, Name: name, Meta: meta}
}

// Num constructs a number-literal node.
func Num(v float64, meta Meta) *Node {
	return &Node{Kind: KindLiteral, LitKind: LitNumber, Num: v, Meta: meta}
}

// Str constructs a string-literal node.
func Str(v string, meta Meta) *Node {
	return &Node{Kind: KindLiteral, LitKind: LitString, Str: v, Meta: meta}
}

// Bool constructs a boolean-literal node.
func Bool(v bool, meta Meta) *Node {
	return &Node{Kind: KindLiteral, LitKind: LitBool, Bool: v, Meta: meta}
}

// Null constructs a null-literal node.
func Null(meta Meta) *Node {
	return &Node{Kind: KindLiteral, LitKind: LitNull, Meta: meta}
}

// List constructs a list node from children.
func List(meta Meta, children ...*Node) *Node {
	return &Node{Kind: KindList, Children: children, Meta: meta}
}

// IsSymbol reports whether n is a symbol with the given name.
func (n *Node) IsSymbol(name string) bool {
	return n != nil && n.Kind == KindSymbol && n.Name == name
}

// Head returns the first child of a list node, or nil.
func (n *Node) Head() *Node {
	if n == nil || n.Kind != KindList || len(n.Children) == 0 {
		return nil
	}
	return n.Children[0]
}

// HeadSymbol reports whether n is a non-empty list whose head is the named
// symbol — the dispatch test used throughout the expander, validator, and
// lowering stage for special forms and reader-macro expansions.
func (n *Node) HeadSymbol(name string) bool {
	return n.Head().IsSymbol(name)
}

// Tail returns the list's children after the head, or nil for non-lists.
func (n *Node) Tail() []*Node {
	if n == nil || n.Kind != KindList || len(n.Children) < 2 {
		return nil
	}
	return n.Children[1:]
}

// Clone returns a deep copy of n. The macro expander clones definition
// bodies before substitution so that separate call sites never share
// mutable subtrees, and the interpreter clones quasiquote templates before
// auto-gensym rewriting.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return &c
}

// String renders n back into HQL surface syntax, used for diagnostics and
// by macroexpand/macroexpand1 to print expanded forms as text.
func (n *Node) String() string {
	if n == nil {
		return "nil"
	}
	switch n.Kind {
	case KindSymbol:
		return n.Name
	case KindLiteral:
		switch n.LitKind {
		case LitNumber:
			return strconv.FormatFloat(n.Num, 'g', -1, 64)
		case LitString:
			return strconv.Quote(n.Str)
		case LitBool:
			return strconv.FormatBool(n.Bool)
		default:
			return "null"
		}
	case KindList:
		if n.HeadSymbol("vector") {
			parts := make([]string, len(n.Tail()))
			for i, c := range n.Tail() {
				parts[i] = c.String()
			}
			return "[" + strings.Join(parts, " ") + "]"
		}
		parts := make([]string, len(n.Children))
		for i, c := range n.Children {
			parts[i] = c.String()
		}
		return "(" + strings.Join(parts, " ") + ")"
	default:
		return fmt.Sprintf("<invalid kind %d>", n.Kind)
	}
}

// Equal performs structural (not positional) equality, used by the
// expander's fixed-point loop to sanity-check reference-equality results in
// tests and by table-driven tests comparing expected/actual trees.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindSymbol:
		return a.Name == b.Name
	case KindLiteral:
		if a.LitKind != b.LitKind {
			return false
		}
		switch a.LitKind {
		case LitNumber:
			return a.Num == b.Num
		case LitString:
			return a.Str == b.Str
		case LitBool:
			return a.Bool == b.Bool
		default:
			return true
		}
	case KindList:
		if len(a.Children) != len(b.Children) {
			return false
		}
		for i := range a.Children {
			if !Equal(a.Children[i], b.Children[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
