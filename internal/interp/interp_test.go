package interp_test

import (
	"log/slog"
	"testing"

	"github.com/hlvm-dev/hql/core/ast"
	"github.com/hlvm-dev/hql/core/env"
	"github.com/hlvm-dev/hql/internal/interp"
	"github.com/hlvm-dev/hql/internal/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInterp() *interp.Interp {
	return interp.New(slog.New(slog.DiscardHandler))
}

func evalSource(t *testing.T, source string) interp.Value {
	t.Helper()
	forms, err := reader.ReadAll(source, "interp_test.hql")
	require.NoError(t, err)
	require.Len(t, forms, 1)

	it := newInterp()
	v, err := it.Eval(forms[0], it.Global, 0)
	require.NoError(t, err)
	return v
}

func TestEvalArithmeticAndComparison(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 7.0, evalSource(t, "(+ 3 4)"))
	assert.Equal(t, true, evalSource(t, "(< 1 2)"))
}

func TestEvalIfSelectsBranchByCondition(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, evalSource(t, "(if true 1 2)"))
	assert.Equal(t, 2.0, evalSource(t, "(if false 1 2)"))
}

func TestEvalLetBindsAndDoSequences(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 30.0, evalSource(t, "(do (let x 10) (let y 20) (+ x y))"))
}

func TestEvalFnDefinitionAndApplication(t *testing.T) {
	t.Parallel()

	forms, err := reader.ReadAll("(fn sq [x] (* x x)) (sq 5)", "fn.hql")
	require.NoError(t, err)
	require.Len(t, forms, 2)

	it := newInterp()
	_, err = it.Eval(forms[0], it.Global, 0)
	require.NoError(t, err)
	result, err := it.Eval(forms[1], it.Global, 0)
	require.NoError(t, err)
	assert.Equal(t, 25.0, result)
}

func TestEvalUndefinedVariableIsRuntimeError(t *testing.T) {
	t.Parallel()

	forms, err := reader.ReadAll("ghost", "undef.hql")
	require.NoError(t, err)

	it := newInterp()
	_, err = it.Eval(forms[0], it.Global, 0)
	require.Error(t, err)
}

func TestResetClearsAccumulatedFnBindings(t *testing.T) {
	t.Parallel()

	it := newInterp()
	forms, err := reader.ReadAll("(fn helper [] 1)", "reset.hql")
	require.NoError(t, err)
	_, err = it.Eval(forms[0], it.Global, 0)
	require.NoError(t, err)

	_, ok := it.Global.LookupVar("helper")
	require.True(t, ok)

	it.Reset()
	_, ok = it.Global.LookupVar("helper")
	assert.False(t, ok)
}

func TestEvalQuasiquoteSubstitutesUnquotedValues(t *testing.T) {
	t.Parallel()

	forms, err := reader.ReadAll("(let x 5) `(a ~x b)", "qq.hql")
	require.NoError(t, err)
	require.Len(t, forms, 2)

	it := newInterp()
	_, err = it.Eval(forms[0], it.Global, 0)
	require.NoError(t, err)

	v, err := it.EvalQuasiquote(forms[1].Tail()[0], it.Global, 0)
	require.NoError(t, err)
	node, ok := v.(*ast.Node)
	require.True(t, ok)
	assert.Equal(t, "(a 5 b)", node.String())
}

func TestReifyRoundTripsPrimitiveValues(t *testing.T) {
	t.Parallel()

	meta := ast.Meta{}
	node := interp.Reify(5.0, meta)
	assert.Equal(t, ast.KindLiteral, node.Kind)
	assert.Equal(t, 5.0, node.Num)

	strNode := interp.Reify("hi", meta)
	assert.Equal(t, "hi", strNode.Str)

	nilNode := interp.Reify(nil, meta)
	assert.Equal(t, ast.LitNull, nilNode.LitKind)
}

func TestGensymBuiltinProducesDistinctNames(t *testing.T) {
	t.Parallel()

	forms, err := reader.ReadAll(`(gensym "tmp")`, "gensym.hql")
	require.NoError(t, err)

	it := newInterp()
	first, err := it.Eval(forms[0], it.Global, 0)
	require.NoError(t, err)
	second, err := it.Eval(forms[0], it.Global, 0)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestEnvironmentChildShadowsParentBinding(t *testing.T) {
	t.Parallel()

	global := env.NewGlobal("child.hql")
	global.DefineVar("x", 1.0)
	child := global.Child()
	child.DefineVar("x", 2.0)

	v, ok := child.LookupVar("x")
	require.True(t, ok)
	assert.Equal(t, 2.0, v)

	v, ok = global.LookupVar("x")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
}
