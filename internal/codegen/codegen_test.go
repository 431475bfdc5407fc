package codegen

import (
	"strings"
	"testing"

	"github.com/hlvm-dev/hql/core/diag"
	"github.com/hlvm-dev/hql/core/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPos = diag.Position{File: "main.hql", Line: 1, Column: 0}

func TestGenerateVariableDeclaration(t *testing.T) {
	t.Parallel()

	program := ir.Program([]*ir.Node{
		{
			Kind:     ir.KindVariableDeclaration,
			Position: testPos,
			DeclKind: ir.DeclLet,
			Target:   ir.Ident("x", testPos),
			Init:     ir.NumberLit(42, testPos),
		},
	})

	out, err := Generate(program, "main.hql")

	require.NoError(t, err)
	assert.Contains(t, out.Code, "let x = 42;")
}

func TestGenerateConstUsesDeclKeyword(t *testing.T) {
	t.Parallel()

	program := ir.Program([]*ir.Node{
		{
			Kind:     ir.KindVariableDeclaration,
			Position: testPos,
			DeclKind: ir.DeclConst,
			Target:   ir.Ident("y", testPos),
			Init: &ir.Node{
				Kind:   ir.KindCallExpression,
				Callee: ir.Ident("__hql_deepFreeze", testPos),
				Args:   []*ir.Node{ir.NumberLit(1, testPos)},
			},
		},
	})

	out, err := Generate(program, "main.hql")

	require.NoError(t, err)
	assert.Contains(t, out.Code, "const y = __hql_deepFreeze(1);")
}

func TestSanitizeIdentReplacesDashesAndLeadingDigits(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "foo_bar", sanitizeIdent("foo-bar"))
	assert.Equal(t, "_1x", sanitizeIdent("1x"))
	assert.Equal(t, "plain", sanitizeIdent("plain"))
}

func TestGenerateFunctionDeclaration(t *testing.T) {
	t.Parallel()

	fn := &ir.Node{
		Kind:     ir.KindFnFunctionDeclaration,
		Position: testPos,
		Name:     "add",
		Params: []ir.Param{
			{Pattern: ir.Ident("a", testPos)},
			{Pattern: ir.Ident("b", testPos)},
		},
		Body: []*ir.Node{
			{
				Kind: ir.KindReturnStatement,
				Argument: &ir.Node{
					Kind:     ir.KindBinaryExpression,
					Operator: "+",
					Left:     ir.Ident("a", testPos),
					Right:    ir.Ident("b", testPos),
				},
			},
		},
	}
	program := ir.Program([]*ir.Node{fn})

	out, err := Generate(program, "main.hql")

	require.NoError(t, err)
	assert.Contains(t, out.Code, "function add(a, b) {")
	assert.Contains(t, out.Code, "return (a + b);")
}

func TestGenerateNativeCountingLoop(t *testing.T) {
	t.Parallel()

	forStmt := &ir.Node{
		Kind:       ir.KindForOfStatement,
		Position:   testPos,
		LoopVar:    ir.Ident("i", testPos),
		NativeLoop: true,
		Iterable: &ir.Node{
			Kind: ir.KindCallExpression,
			Args: []*ir.Node{ir.NumberLit(0, testPos), ir.NumberLit(10, testPos)},
		},
		ForBody: &ir.Node{Kind: ir.KindBlockStatement},
	}
	program := ir.Program([]*ir.Node{forStmt})

	out, err := Generate(program, "main.hql")

	require.NoError(t, err)
	assert.Contains(t, out.Code, "for (let i = 0; i < 10; i += 1)")
}

func TestGenerateRecordsMappings(t *testing.T) {
	t.Parallel()

	program := ir.Program([]*ir.Node{
		ir.NumberLit(7, diag.Position{File: "main.hql", Line: 3, Column: 2}),
	})

	out, err := Generate(program, "main.hql")

	require.NoError(t, err)
	require.NotEmpty(t, out.Mappings)
	assert.Equal(t, 3, out.Mappings[0].OriginalLine)
	assert.Equal(t, 2, out.Mappings[0].OriginalColumn)
}

func TestEncodeVLQEncodesZeroAsA(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	encodeVLQ(&sb, 0)
	assert.Equal(t, "A", sb.String())
}

func TestBuildSourceMapHasVersion3(t *testing.T) {
	t.Parallel()

	sm := BuildSourceMap("out.mjs", []string{"main.hql"}, nil, []Mapping{
		{GeneratedLine: 0, GeneratedColumn: 0, OriginalLine: 1, OriginalColumn: 0},
	})

	assert.Equal(t, 3, sm.Version)
	assert.NotEmpty(t, sm.Mappings)
}

func TestShiftLinesOffsetsEveryMapping(t *testing.T) {
	t.Parallel()

	mappings := []Mapping{{GeneratedLine: 0}, {GeneratedLine: 2}}

	shifted := ShiftLines(mappings, 5)

	assert.Equal(t, 5, shifted[0].GeneratedLine)
	assert.Equal(t, 7, shifted[1].GeneratedLine)
	assert.Equal(t, 0, mappings[0].GeneratedLine, "original slice must be untouched")
}
