package validator_test

import (
	"testing"

	"github.com/hlvm-dev/hql/core/ast"
	"github.com/hlvm-dev/hql/core/diag"
	"github.com/hlvm-dev/hql/internal/reader"
	"github.com/hlvm-dev/hql/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRead(t *testing.T, source string) []*ast.Node {
	t.Helper()
	forms, err := reader.ReadAll(source, "validator_test.hql")
	require.NoError(t, err)
	return forms
}

func TestValidateRejectsDuplicateDeclarationInSameScope(t *testing.T) {
	t.Parallel()

	forms := mustRead(t, "(let x 1) (let x 2)")
	_, _, err := validator.Validate(forms, validator.Options{}, nil)
	require.Error(t, err)
	de, ok := err.(*diag.Error)
	require.True(t, ok)
	assert.Equal(t, diag.KindValidation, de.Kind)
}

func TestValidateAllowsSameNameInDistinctFnScopes(t *testing.T) {
	t.Parallel()

	forms := mustRead(t, "(fn a [] (let x 1)) (fn b [] (let x 2))")
	_, _, err := validator.Validate(forms, validator.Options{}, nil)
	require.NoError(t, err)
}

func TestValidateRejectsAssignmentToUnresolvedTarget(t *testing.T) {
	t.Parallel()

	forms := mustRead(t, "(set! ghost 1)")
	_, _, err := validator.Validate(forms, validator.Options{}, nil)
	require.Error(t, err)
	de, ok := err.(*diag.Error)
	require.True(t, ok)
	assert.Contains(t, de.Message, "does not resolve")
}

func TestValidateAllowsAssignmentToDeclaredTarget(t *testing.T) {
	t.Parallel()

	forms := mustRead(t, "(var x 1) (set! x 2)")
	_, _, err := validator.Validate(forms, validator.Options{}, nil)
	require.NoError(t, err)
}

func TestValidateArityMismatchIsWarningNotError(t *testing.T) {
	t.Parallel()

	forms := mustRead(t, "(fn add [a b] (+ a b)) (add 1 2 3)")
	_, warnings, err := validator.Validate(forms, validator.Options{}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, warnings)
}

func TestValidateUnknownStringMemberWarnsInNonStrictMode(t *testing.T) {
	t.Parallel()

	forms := mustRead(t, `(. "hello" bogusProp)`)
	_, warnings, err := validator.Validate(forms, validator.Options{Strict: false}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, warnings)
}

func TestValidateUnknownStringMemberErrorsUnderStrict(t *testing.T) {
	t.Parallel()

	forms := mustRead(t, `(. "hello" bogusProp)`)
	_, _, err := validator.Validate(forms, validator.Options{Strict: true}, nil)
	require.Error(t, err)
	de, ok := err.(*diag.Error)
	require.True(t, ok)
	assert.Equal(t, diag.KindValidation, de.Kind)
}

func TestValidateAcceptsKnownStringMember(t *testing.T) {
	t.Parallel()

	forms := mustRead(t, `(. "hello" length)`)
	_, _, err := validator.Validate(forms, validator.Options{Strict: true}, nil)
	require.NoError(t, err)
}
