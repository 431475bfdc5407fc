// Package ir defines the compiler's intermediate representation (spec.md
// §3): a tagged variant over a fixed set of node kinds, following the same
// "single struct, Kind selects which fields are populated" shape the
// teacher uses for StatementIR/ExprIR (runtime/planner/ir.go,
// runtime/planner/expr.go) rather than a Go interface with one type per
// kind — this keeps the shared tree walker (§4.5's "visits every child
// without enumerating the union") a single switch instead of a type
// assertion per visitor.
package ir

import "github.com/hlvm-dev/hql/core/diag"

// Kind identifies which of the IR node variants a Node holds.
type Kind int

const (
	KindProgram Kind = iota
	KindFunctionDeclaration
	KindFunctionExpression
	KindFnFunctionDeclaration
	KindClassDeclaration
	KindVariableDeclaration
	KindAssignmentExpression
	KindCallExpression
	KindBinaryExpression
	KindUnaryExpression
	KindConditionalExpression
	KindBlockStatement
	KindIfStatement
	KindReturnStatement
	KindBreakStatement
	KindContinueStatement
	KindForOfStatement
	KindWhileStatement
	KindThrowStatement
	KindTryStatement
	KindAwaitExpression
	KindYieldExpression
	KindSpreadElement
	KindSpreadAssignment
	KindObjectExpression
	KindArrayExpression
	KindIdentifier
	KindLiteral
	KindMemberExpression
	KindImportDeclaration
	KindExportDefaultDeclaration
	KindExportNamedDeclaration
)

func (k Kind) String() string {
	names := [...]string{
		"Program", "FunctionDeclaration", "FunctionExpression", "FnFunctionDeclaration",
		"ClassDeclaration", "VariableDeclaration", "AssignmentExpression", "CallExpression",
		"BinaryExpression", "UnaryExpression", "ConditionalExpression", "BlockStatement",
		"IfStatement", "ReturnStatement", "BreakStatement", "ContinueStatement",
		"ForOfStatement", "WhileStatement", "ThrowStatement", "TryStatement",
		"AwaitExpression", "YieldExpression", "SpreadElement", "SpreadAssignment",
		"ObjectExpression", "ArrayExpression", "Identifier", "Literal", "MemberExpression",
		"ImportDeclaration", "ExportDefaultDeclaration", "ExportNamedDeclaration",
	}
	if int(k) < 0 || int(k) >= len(names) {
		return "Unknown"
	}
	return names[k]
}

// DeclKind distinguishes let/const/var at a VariableDeclaration node.
type DeclKind int

const (
	DeclLet DeclKind = iota
	DeclConst
	DeclVar
)

// LitKind identifies the primitive a Literal node wraps.
type LitKind int

const (
	LitNumber LitKind = iota
	LitString
	LitBool
	LitNull
)

// Param is a function parameter: a plain identifier, a destructuring
// pattern, or (with Rest set) the trailing "& name" capture.
type Param struct {
	Pattern *Node // Identifier, or an ArrayExpression/ObjectExpression-shaped pattern
	Rest    bool
	Default *Node
}

// CatchClause is a TryStatement's optional catch arm.
type CatchClause struct {
	Param *Node // bound identifier, may be nil
	Body  *Node // BlockStatement
}

// ObjectProp is one key/value pair of an ObjectExpression, or (with Spread
// set) a spread-assignment entry produced by SpreadAssignment lowering.
type ObjectProp struct {
	Key    string
	Value  *Node
	Spread bool
}

// Node is the IR tagged variant (spec.md §3). Exactly one group of fields
// below is populated, selected by Kind; Position mirrors the originating
// S-expression's meta (spec.md's invariant that "source-map mappings are
// generated in the same coordinate space" traces back to this field).
type Node struct {
	Kind     Kind
	Position diag.Position

	// Identifier
	Name string

	// Literal
	LitKind LitKind
	Num     float64
	Str     string
	Bool    bool

	// Program, BlockStatement: Body
	// FunctionDeclaration/FunctionExpression/FnFunctionDeclaration: Name(opt), Params, Body (single BlockStatement in Then)
	// ClassDeclaration: Name, Body holds method FunctionExpression nodes
	Body []*Node

	Params []Param

	// VariableDeclaration
	DeclKind DeclKind
	Target   *Node // Identifier or destructuring pattern
	Init     *Node

	// AssignmentExpression
	Left  *Node
	Right *Node

	// CallExpression: Callee + Args (reused by NewExpression-shaped calls)
	Callee *Node
	Args   []*Node

	// BinaryExpression / UnaryExpression / AssignmentExpression
	Operator string
	Operand  *Node // UnaryExpression

	// ConditionalExpression / IfStatement
	Test *Node
	Then *Node
	Else *Node

	// ReturnStatement / ThrowStatement / AwaitExpression / YieldExpression / SpreadElement / SpreadAssignment
	Argument *Node
	Delegate bool // YieldExpression's yield*

	// BreakStatement / ContinueStatement
	Label string

	// ForOfStatement
	LoopVar    *Node // Identifier or destructuring pattern bound each iteration
	Iterable   *Node
	ForBody    *Node
	NativeLoop bool // true once the optimizer specializes a range-of into a counting loop

	// WhileStatement reuses Test + ForBody

	// TryStatement
	TryBlock *Node
	Catch    *CatchClause
	Finally  *Node

	// ObjectExpression
	Props []ObjectProp

	// ArrayExpression
	Elements []*Node

	// MemberExpression
	Object   *Node
	Property *Node
	Computed bool

	// ImportDeclaration: bound names and the module specifier they come
	// from. ExportNamedDeclaration reuses ImportNames[0] as the exported
	// binding's name; ExportDefaultDeclaration reuses Argument.
	ImportNames  []string
	ImportSource string
}

// Program builds the root IR node.
func Program(body []*Node) *Node {
	return &Node{Kind: KindProgram, Body: body}
}

// Ident builds an Identifier node.
func Ident(name string, pos diag.Position) *Node {
	return &Node{Kind: KindIdentifier, Name: name, Position: pos}
}

// NumberLit builds a numeric Literal node.
func NumberLit(v float64, pos diag.Position) *Node {
	return &Node{Kind: KindLiteral, LitKind: LitNumber, Num: v, Position: pos}
}

// StringLit builds a string Literal node.
func StringLit(v string, pos diag.Position) *Node {
	return &Node{Kind: KindLiteral, LitKind: LitString, Str: v, Position: pos}
}

// BoolLit builds a boolean Literal node.
func BoolLit(v bool, pos diag.Position) *Node {
	return &Node{Kind: KindLiteral, LitKind: LitBool, Bool: v, Position: pos}
}

// NullLit builds a null Literal node.
func NullLit(pos diag.Position) *Node {
	return &Node{Kind: KindLiteral, LitKind: LitNull, Position: pos}
}

// Children returns every direct child IR node of n, in evaluation order,
// without the caller needing to know which Kind n is (spec.md §4.5's
// "shared tree walker visits every child without enumerating the union").
func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	add := func(c *Node) {
		if c != nil {
			out = append(out, c)
		}
	}
	out = append(out, n.Body...)
	for _, p := range n.Params {
		add(p.Pattern)
		add(p.Default)
	}
	add(n.Target)
	add(n.Init)
	add(n.Left)
	add(n.Right)
	add(n.Callee)
	out = append(out, n.Args...)
	add(n.Operand)
	add(n.Test)
	add(n.Then)
	add(n.Else)
	add(n.Argument)
	add(n.LoopVar)
	add(n.Iterable)
	add(n.ForBody)
	add(n.TryBlock)
	if n.Catch != nil {
		add(n.Catch.Param)
		add(n.Catch.Body)
	}
	add(n.Finally)
	for _, p := range n.Props {
		add(p.Value)
	}
	out = append(out, n.Elements...)
	add(n.Object)
	add(n.Property)
	return out
}
