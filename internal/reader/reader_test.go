package reader_test

import (
	"testing"

	"github.com/hlvm-dev/hql/core/ast"
	"github.com/hlvm-dev/hql/internal/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAllParsesListsVectorsAndAtoms(t *testing.T) {
	t.Parallel()

	forms, err := reader.ReadAll(`(fn add [a b] (+ a b)) "hi" 3.5 true nil`, "in.hql")
	require.NoError(t, err)
	require.Len(t, forms, 5)

	assert.Equal(t, ast.KindList, forms[0].Kind)
	assert.True(t, forms[0].HeadSymbol("fn"))
	assert.Equal(t, ast.KindLiteral, forms[1].Kind)
	assert.Equal(t, ast.LitString, forms[1].LitKind)
	assert.Equal(t, "hi", forms[1].Str)
	assert.Equal(t, ast.LitNumber, forms[2].LitKind)
	assert.Equal(t, 3.5, forms[2].Num)
	assert.Equal(t, ast.LitBool, forms[3].LitKind)
	assert.True(t, forms[3].Bool)
	assert.Equal(t, ast.LitNull, forms[4].LitKind)
}

func TestReadAllTracksSourcePositions(t *testing.T) {
	t.Parallel()

	forms, err := reader.ReadAll("(let x 1)\n(let y 2)", "pos.hql")
	require.NoError(t, err)
	require.Len(t, forms, 2)

	assert.Equal(t, 1, forms[0].Meta.Pos.Line)
	assert.Equal(t, 2, forms[1].Meta.Pos.Line)
	assert.Equal(t, "pos.hql", forms[0].Meta.Pos.File)
}

func TestReadAllSkipsLineAndBlockComments(t *testing.T) {
	t.Parallel()

	forms, err := reader.ReadAll("; a leading comment\n(+ 1 2) /* trailing */", "c.hql")
	require.NoError(t, err)
	require.Len(t, forms, 1)
	assert.True(t, forms[0].HeadSymbol("+"))
}

func TestReadAllQuoteQuasiquoteUnquotePrefixes(t *testing.T) {
	t.Parallel()

	forms, err := reader.ReadAll("'x `(a ~b ~@c)", "q.hql")
	require.NoError(t, err)
	require.Len(t, forms, 2)
	assert.True(t, forms[0].HeadSymbol("quote"))
	assert.True(t, forms[1].HeadSymbol("quasiquote"))
}

func TestReadAllUnmatchedBracketIsReadError(t *testing.T) {
	t.Parallel()

	_, err := reader.ReadAll("(let x 1", "bad.hql")
	require.Error(t, err)
}

func TestReadAllUnterminatedStringIsReadError(t *testing.T) {
	t.Parallel()

	_, err := reader.ReadAll(`"unterminated`, "bad.hql")
	require.Error(t, err)
}
