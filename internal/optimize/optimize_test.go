package optimize

import (
	"testing"

	"github.com/hlvm-dev/hql/core/diag"
	"github.com/hlvm-dev/hql/core/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pos diag.Position

func TestSpecializeRangesMarksNativeLoop(t *testing.T) {
	t.Parallel()

	rangeCall := &ir.Node{
		Kind:   ir.KindCallExpression,
		Callee: ir.Ident("range", pos),
		Args:   []*ir.Node{ir.NumberLit(0, pos), ir.NumberLit(10, pos)},
	}
	toSeq := &ir.Node{
		Kind:   ir.KindCallExpression,
		Callee: ir.Ident("__hql_toSequence", pos),
		Args:   []*ir.Node{rangeCall},
	}
	forStmt := &ir.Node{
		Kind:     ir.KindForOfStatement,
		LoopVar:  ir.Ident("i", pos),
		Iterable: toSeq,
		ForBody:  &ir.Node{Kind: ir.KindBlockStatement},
	}
	program := ir.Program([]*ir.Node{forStmt})

	rewritten := specializeRanges(program)

	got := rewritten.Body[0]
	assert.True(t, got.NativeLoop)
	require.NotNil(t, got.Iterable)
	assert.Equal(t, "range", got.Iterable.Callee.Name)
}

func TestSpecializeRangesLeavesNonRangeIterablesAlone(t *testing.T) {
	t.Parallel()

	toSeq := &ir.Node{
		Kind:   ir.KindCallExpression,
		Callee: ir.Ident("__hql_toSequence", pos),
		Args:   []*ir.Node{ir.Ident("items", pos)},
	}
	forStmt := &ir.Node{
		Kind:     ir.KindForOfStatement,
		LoopVar:  ir.Ident("x", pos),
		Iterable: toSeq,
		ForBody:  &ir.Node{Kind: ir.KindBlockStatement},
	}
	program := ir.Program([]*ir.Node{forStmt})

	rewritten := specializeRanges(program)

	assert.False(t, rewritten.Body[0].NativeLoop)
}

func TestEliminateDeadBranchesTrueKeepsThen(t *testing.T) {
	t.Parallel()

	then := ir.StringLit("then-branch", pos)
	els := ir.StringLit("else-branch", pos)
	ifStmt := &ir.Node{
		Kind: ir.KindConditionalExpression,
		Test: ir.BoolLit(true, pos),
		Then: then,
		Else: els,
	}

	got := eliminateDeadBranches(ifStmt)

	assert.Equal(t, "then-branch", got.Str)
}

func TestEliminateDeadBranchesFalseKeepsElse(t *testing.T) {
	t.Parallel()

	stmt := &ir.Node{
		Kind: ir.KindIfStatement,
		Test: ir.BoolLit(false, pos),
		Then: &ir.Node{Kind: ir.KindBlockStatement},
		Else: &ir.Node{Kind: ir.KindReturnStatement, Argument: ir.NumberLit(1, pos)},
	}

	got := eliminateDeadBranches(stmt)

	assert.Equal(t, ir.KindReturnStatement, got.Kind)
}

func TestEliminateDeadBranchesLeavesDynamicTestAlone(t *testing.T) {
	t.Parallel()

	stmt := &ir.Node{
		Kind: ir.KindIfStatement,
		Test: ir.Ident("cond", pos),
		Then: &ir.Node{Kind: ir.KindBlockStatement},
	}

	got := eliminateDeadBranches(stmt)

	assert.Equal(t, ir.KindIfStatement, got.Kind)
}

func TestWrapForExpressionsLeavesStatementPositionBare(t *testing.T) {
	t.Parallel()

	forStmt := &ir.Node{
		Kind:     ir.KindForOfStatement,
		LoopVar:  ir.Ident("i", pos),
		Iterable: ir.Ident("items", pos),
		ForBody:  &ir.Node{Kind: ir.KindBlockStatement},
	}
	program := ir.Program([]*ir.Node{forStmt})

	rewritten := wrapForExpressions(program, true)

	assert.Equal(t, ir.KindForOfStatement, rewritten.Body[0].Kind)
}

func TestWrapForExpressionsWrapsExpressionPosition(t *testing.T) {
	t.Parallel()

	forStmt := &ir.Node{
		Kind:     ir.KindForOfStatement,
		LoopVar:  ir.Ident("i", pos),
		Iterable: ir.Ident("items", pos),
		ForBody:  &ir.Node{Kind: ir.KindBlockStatement},
	}
	decl := &ir.Node{
		Kind:     ir.KindVariableDeclaration,
		DeclKind: ir.DeclLet,
		Target:   ir.Ident("result", pos),
		Init:     forStmt,
	}
	program := ir.Program([]*ir.Node{decl})

	rewritten := wrapForExpressions(program, true)

	got := rewritten.Body[0].Init
	require.Equal(t, ir.KindCallExpression, got.Kind)
	require.Equal(t, ir.KindFunctionExpression, got.Callee.Kind)
	require.Len(t, got.Callee.Body, 2)
	assert.Equal(t, ir.KindForOfStatement, got.Callee.Body[0].Kind)
	assert.Equal(t, ir.KindReturnStatement, got.Callee.Body[1].Kind)
}

func TestDemandHelpersFindsReferencedHelpers(t *testing.T) {
	t.Parallel()

	call := &ir.Node{
		Kind:   ir.KindCallExpression,
		Callee: ir.Ident(HelperGet, pos),
		Args:   []*ir.Node{ir.Ident("obj", pos), ir.StringLit("key", pos)},
	}
	program := ir.Program([]*ir.Node{
		{Kind: ir.KindReturnStatement, Argument: call},
	})

	found := demandHelpers(program)

	assert.True(t, found[HelperGet])
	assert.False(t, found[HelperRange])
}

func TestDemandHelpersMarksNonNativeForLoopHelpers(t *testing.T) {
	t.Parallel()

	forStmt := &ir.Node{
		Kind:     ir.KindForOfStatement,
		LoopVar:  ir.Ident("i", pos),
		Iterable: ir.Ident("items", pos),
		ForBody:  &ir.Node{Kind: ir.KindBlockStatement},
	}
	program := ir.Program([]*ir.Node{forStmt})

	found := demandHelpers(program)

	assert.True(t, found[HelperToSequence])
	assert.True(t, found[HelperForEach])
}

func TestDemandHelpersSkipsNativeLoop(t *testing.T) {
	t.Parallel()

	forStmt := &ir.Node{
		Kind:       ir.KindForOfStatement,
		LoopVar:    ir.Ident("i", pos),
		Iterable:   &ir.Node{Kind: ir.KindCallExpression, Callee: ir.Ident("range", pos)},
		ForBody:    &ir.Node{Kind: ir.KindBlockStatement},
		NativeLoop: true,
	}
	program := ir.Program([]*ir.Node{forStmt})

	found := demandHelpers(program)

	assert.False(t, found[HelperToSequence])
	assert.False(t, found[HelperForEach])
}

func TestRunAppliesAllPasses(t *testing.T) {
	t.Parallel()

	rangeCall := &ir.Node{
		Kind:   ir.KindCallExpression,
		Callee: ir.Ident("range", pos),
		Args:   []*ir.Node{ir.NumberLit(0, pos), ir.NumberLit(3, pos)},
	}
	toSeq := &ir.Node{
		Kind:   ir.KindCallExpression,
		Callee: ir.Ident("__hql_toSequence", pos),
		Args:   []*ir.Node{rangeCall},
	}
	forStmt := &ir.Node{
		Kind:     ir.KindForOfStatement,
		LoopVar:  ir.Ident("i", pos),
		Iterable: toSeq,
		ForBody:  &ir.Node{Kind: ir.KindBlockStatement},
	}
	program := ir.Program([]*ir.Node{forStmt})

	result := Run(program)

	require.NotNil(t, result)
	assert.True(t, result.Program.Body[0].NativeLoop)
	assert.False(t, result.Helpers[HelperToSequence])
}
