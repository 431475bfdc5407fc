package lower_test

import (
	"testing"

	"github.com/hlvm-dev/hql/core/ir"
	"github.com/hlvm-dev/hql/internal/lower"
	"github.com/hlvm-dev/hql/internal/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLower(t *testing.T, source string) *ir.Node {
	t.Helper()
	forms, err := reader.ReadAll(source, "lower_test.hql")
	require.NoError(t, err)
	prog, err := lower.Program(forms)
	require.NoError(t, err)
	return prog
}

func TestProgramLowersNamedFnToFnFunctionDeclaration(t *testing.T) {
	t.Parallel()

	prog := mustLower(t, "(fn add [a b] (+ a b))")
	require.Len(t, prog.Body, 1)
	fn := prog.Body[0]
	assert.Equal(t, ir.KindFnFunctionDeclaration, fn.Kind)
	assert.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Pattern.Name)
	assert.Equal(t, "b", fn.Params[1].Pattern.Name)
}

func TestProgramLowersBinaryAndUnaryOperators(t *testing.T) {
	t.Parallel()

	prog := mustLower(t, "(+ 1 (neg 2))")
	expr := prog.Body[0]
	assert.Equal(t, ir.KindBinaryExpression, expr.Kind)
	assert.Equal(t, "+", expr.Operator)
	assert.Equal(t, ir.KindUnaryExpression, expr.Right.Kind)
	assert.Equal(t, "-", expr.Right.Operator)
}

func TestProgramLowersAndOrToJSOperators(t *testing.T) {
	t.Parallel()

	prog := mustLower(t, "(and true (or false true))")
	top := prog.Body[0]
	assert.Equal(t, "&&", top.Operator)
	assert.Equal(t, "||", top.Right.Operator)
}

func TestProgramLowersConstToDeepFreezeWrappedInit(t *testing.T) {
	t.Parallel()

	prog := mustLower(t, "(const x 10)")
	decl := prog.Body[0]
	require.Equal(t, ir.KindVariableDeclaration, decl.Kind)
	assert.Equal(t, ir.DeclConst, decl.DeclKind)
	require.Equal(t, ir.KindCallExpression, decl.Init.Kind)
	assert.Equal(t, "__hql_deepFreeze", decl.Init.Callee.Name)
}

func TestProgramLowersIfStatementBranches(t *testing.T) {
	t.Parallel()

	prog := mustLower(t, "(if true (let x 1) (let x 2))")
	stmt := prog.Body[0]
	assert.Equal(t, ir.KindIfStatement, stmt.Kind)
	require.NotNil(t, stmt.Then)
	require.NotNil(t, stmt.Else)
}

func TestProgramLowersImportDeclaration(t *testing.T) {
	t.Parallel()

	prog := mustLower(t, `(import [a b] "./util.hql")`)
	imp := prog.Body[0]
	assert.Equal(t, ir.KindImportDeclaration, imp.Kind)
	assert.Equal(t, []string{"a", "b"}, imp.ImportNames)
	assert.Equal(t, "./util.hql", imp.ImportSource)
}

func TestProgramLowersExportDefaultAndExportNamed(t *testing.T) {
	t.Parallel()

	prog := mustLower(t, "(export-default 42) (export foo)")
	require.Len(t, prog.Body, 2)
	assert.Equal(t, ir.KindExportDefaultDeclaration, prog.Body[0].Kind)
	require.NotNil(t, prog.Body[0].Argument)
	assert.Equal(t, ir.KindExportNamedDeclaration, prog.Body[1].Kind)
	require.NotEmpty(t, prog.Body[1].ImportNames)
	assert.Equal(t, "foo", prog.Body[1].ImportNames[0])
}
