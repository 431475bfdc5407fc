package interp

import (
	"github.com/hlvm-dev/hql/core/ast"
	"github.com/hlvm-dev/hql/core/env"
)

// Fn is a callable interpreter value: either a user-defined fn (closure over
// params/body/defining scope) or a host builtin. Named fn forms
// (spec.md §4.3: "fn with a name") register one of these into the defining
// scope so later body forms in the same macro, or later macros sharing the
// process-wide interpreter environment, can call it.
type Fn struct {
	Name    string
	Params  []string
	Rest    string
	Body    []*ast.Node
	Closure *env.Environment
	Builtin func(args []Value) (Value, error)
}
