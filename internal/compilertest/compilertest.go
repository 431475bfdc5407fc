// Package compilertest provides small black-box helpers for driving HQL
// source text through the full pipeline in package tests, grounded on the
// teacher's extensible test harness and code-pattern assertion style
// (testing/extensible_harness.go, testing/code_patterns.go): compile once,
// assert on the resulting JS text rather than on intermediate ASTs.
package compilertest

import (
	"strings"
	"testing"

	"github.com/hlvm-dev/hql/pkg/hql"
)

// CompileString transpiles source under name (used only for diagnostics and
// source maps) and returns the emitted JS, failing the test on any pipeline
// error.
func CompileString(t *testing.T, name, source string) string {
	t.Helper()
	result, err := hql.Transpile(source, hql.Options{CurrentFile: name})
	if err != nil {
		t.Fatalf("compilertest: transpile %s: %v", name, err)
	}
	return result.Code
}

// MustTranspile is CompileString's non-testing.T counterpart for callers
// that need the error value itself (e.g. to assert its diag.Kind).
func MustTranspile(name, source string) (hql.Result, error) {
	return hql.Transpile(source, hql.Options{CurrentFile: name})
}

// CodePattern asserts that code contains want verbatim, failing the test
// with both strings on mismatch (spec.md §8 properties are largely phrased
// as "the emitted code contains a call to X").
func CodePattern(t *testing.T, code, want string) {
	t.Helper()
	if !strings.Contains(code, want) {
		t.Fatalf("compilertest: expected generated code to contain %q, got:\n%s", want, code)
	}
}

// NoCodePattern is CodePattern's negation, for asserting an optimization or
// rewrite did NOT fire.
func NoCodePattern(t *testing.T, code, notWant string) {
	t.Helper()
	if strings.Contains(code, notWant) {
		t.Fatalf("compilertest: expected generated code NOT to contain %q, got:\n%s", notWant, code)
	}
}
