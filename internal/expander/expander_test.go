package expander_test

import (
	"log/slog"
	"testing"

	"github.com/hlvm-dev/hql/core/env"
	"github.com/hlvm-dev/hql/internal/expander"
	"github.com/hlvm-dev/hql/internal/interp"
	"github.com/hlvm-dev/hql/internal/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExpander() *expander.Expander {
	logger := slog.New(slog.DiscardHandler)
	return expander.New(interp.New(logger), logger)
}

func TestExpandProgramRewritesMacroCallAndStripsDefinition(t *testing.T) {
	t.Parallel()

	forms, err := reader.ReadAll("(macro inc1 [x] (- x 1)) (inc1 10)", "inc1.hql")
	require.NoError(t, err)

	ex := newExpander()
	out, err := ex.ExpandProgram(forms, env.NewGlobal("inc1.hql"))
	require.NoError(t, err)
	require.Len(t, out, 1, "the macro definition form must be stripped from the output")
	assert.Equal(t, "9", out[0].String())
}

func TestExpandProgramReachesFixedPointAcrossNestedMacroCalls(t *testing.T) {
	t.Parallel()

	forms, err := reader.ReadAll("(macro inc1 [x] (- x 1)) (inc1 (inc1 (inc1 10)))", "nested.hql")
	require.NoError(t, err)

	ex := newExpander()
	out, err := ex.ExpandProgram(forms, env.NewGlobal("nested.hql"))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.NotContains(t, out[0].String(), "inc1")
}

func TestExpandProgramOnceStopsAtOneOuterRewrite(t *testing.T) {
	t.Parallel()

	source := "(macro inc1 [x] (- x 1)) (macro wrap [x] `(inc1 ~x)) (wrap 10)"
	forms, err := reader.ReadAll(source, "once.hql")
	require.NoError(t, err)

	ex := newExpander()
	out, err := ex.ExpandProgramOnce(forms, env.NewGlobal("once.hql"))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Contains(t, out[0].String(), "inc1", "macroexpand1 must leave the inner inc1 call unexpanded")
}

func TestExpandProgramGensymProducesDistinctHygienicNames(t *testing.T) {
	t.Parallel()

	source := "(macro swap [a b] (var tmp (gensym \"swap_tmp\")) `(let (~tmp ~a) (set! ~a ~b) (set! ~b ~tmp)))\n" +
		"(var x 10) (var y 20) (swap x y) [x y]"
	forms, err := reader.ReadAll(source, "swap.hql")
	require.NoError(t, err)

	ex := newExpander()
	out, err := ex.ExpandProgram(forms, env.NewGlobal("swap.hql"))
	require.NoError(t, err)
	require.NotEmpty(t, out)

	swapExpansion := out[len(out)-2].String()
	assert.Contains(t, swapExpansion, "swap_tmp")
	assert.NotContains(t, swapExpansion, "(gensym")
}

func TestExpandProgramLeavesQuoteFormUntouched(t *testing.T) {
	t.Parallel()

	forms, err := reader.ReadAll("(macro inc1 [x] (- x 1)) (quote (inc1 10))", "quote.hql")
	require.NoError(t, err)

	ex := newExpander()
	out, err := ex.ExpandProgram(forms, env.NewGlobal("quote.hql"))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Contains(t, out[0].String(), "inc1")
}
