// Package optimize implements the conservative, behavior-preserving
// optimizer (spec.md §4.6): lazy-range specialization, for-in-expression
// IIFE wrapping, dead-branch elimination, and helper-demand analysis.
package optimize

import "github.com/hlvm-dev/hql/core/ir"

// Helpers names the seven runtime helpers the emitted prelude may need
// (spec.md §4.6).
const (
	HelperGet         = "__hql_get"
	HelperRange       = "__hql_range"
	HelperHashMap     = "__hql_hash_map"
	HelperForEach     = "__hql_for_each"
	HelperToSequence  = "__hql_toSequence"
	HelperDeepFreeze  = "__hql_deepFreeze"
	HelperMatchObject = "__hql_match_obj"
)

// Result is the optimized Program plus its helper-demand set.
type Result struct {
	Program *ir.Node
	Helpers map[string]bool
}

// Run applies every optimization pass to program and returns the rewritten
// tree plus the set of runtime helpers it ends up referencing.
func Run(program *ir.Node) *Result {
	rewritten := specializeRanges(program)
	rewritten = eliminateDeadBranches(rewritten)
	rewritten = wrapForExpressions(rewritten, true)
	helpers := demandHelpers(rewritten)
	return &Result{Program: rewritten, Helpers: helpers}
}
