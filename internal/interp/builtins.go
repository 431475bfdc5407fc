package interp

import (
	"fmt"
	"strings"

	"github.com/hlvm-dev/hql/core/diag"
)

// registerBuiltins seeds it.Global with the arithmetic, comparison, and
// list primitives a macro body can call at expansion time (spec.md §4.3).
// This is a deliberately small subset of the full HQL standard library:
// the stdlib itself is out of this compiler's scope (spec.md §1's
// Non-goals exclude runtime library content) — only what macro bodies
// plausibly need to compute expansions is provided here.
func registerBuiltins(it *Interp) {
	def := func(name string, fn func(args []Value) (Value, error)) {
		it.Global.DefineVar(name, &Fn{Name: name, Builtin: fn})
	}

	def("+", arith(func(a, b float64) float64 { return a + b }, 0))
	def("*", arith(func(a, b float64) float64 { return a * b }, 1))
	def("-", func(args []Value) (Value, error) {
		nums, err := numArgs("-", args)
		if err != nil {
			return nil, err
		}
		if len(nums) == 0 {
			return 0.0, nil
		}
		if len(nums) == 1 {
			return -nums[0], nil
		}
		result := nums[0]
		for _, n := range nums[1:] {
			result -= n
		}
		return result, nil
	})
	def("/", func(args []Value) (Value, error) {
		nums, err := numArgs("/", args)
		if err != nil {
			return nil, err
		}
		if len(nums) < 2 {
			return nil, diag.New(diag.KindRuntime, diag.Position{}, "/ requires at least 2 arguments")
		}
		result := nums[0]
		for _, n := range nums[1:] {
			if n == 0 {
				return nil, diag.New(diag.KindRuntime, diag.Position{}, "division by zero at macro-expansion time")
			}
			result /= n
		}
		return result, nil
	})
	def("%", func(args []Value) (Value, error) {
		nums, err := numArgs("%", args)
		if err != nil || len(nums) != 2 {
			return nil, diag.New(diag.KindRuntime, diag.Position{}, "% requires exactly 2 arguments")
		}
		return float64(int64(nums[0]) % int64(nums[1])), nil
	})

	def("==", cmp(func(c int) bool { return c == 0 }))
	def("!=", cmp(func(c int) bool { return c != 0 }))
	def("<", cmp(func(c int) bool { return c < 0 }))
	def("<=", cmp(func(c int) bool { return c <= 0 }))
	def(">", cmp(func(c int) bool { return c > 0 }))
	def(">=", cmp(func(c int) bool { return c >= 0 }))

	def("not", func(args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, diag.New(diag.KindRuntime, diag.Position{}, "not expects exactly 1 argument")
		}
		return !Truthy(args[0]), nil
	})

	def("str", func(args []Value) (Value, error) {
		var b strings.Builder
		for _, a := range args {
			b.WriteString(valueToDisplayString(a))
		}
		return b.String(), nil
	})

	def("list", func(args []Value) (Value, error) {
		return append([]Value{}, args...), nil
	})
	def("vector", func(args []Value) (Value, error) {
		return append([]Value{}, args...), nil
	})
	def("cons", func(args []Value) (Value, error) {
		if len(args) != 2 {
			return nil, diag.New(diag.KindRuntime, diag.Position{}, "cons expects exactly 2 arguments")
		}
		tail, ok := AsList(args[1])
		if !ok {
			return nil, diag.New(diag.KindRuntime, diag.Position{}, "cons expects a list as its second argument")
		}
		return append([]Value{args[0]}, tail...), nil
	})
	def("first", func(args []Value) (Value, error) {
		lst, ok := listArg("first", args)
		if !ok {
			return nil, diag.New(diag.KindRuntime, diag.Position{}, "first expects a list argument")
		}
		if len(lst) == 0 {
			return nil, nil
		}
		return lst[0], nil
	})
	def("rest", func(args []Value) (Value, error) {
		lst, ok := listArg("rest", args)
		if !ok {
			return nil, diag.New(diag.KindRuntime, diag.Position{}, "rest expects a list argument")
		}
		if len(lst) <= 1 {
			return []Value{}, nil
		}
		return append([]Value{}, lst[1:]...), nil
	})
	def("count", func(args []Value) (Value, error) {
		lst, ok := listArg("count", args)
		if !ok {
			return nil, diag.New(diag.KindRuntime, diag.Position{}, "count expects a list argument")
		}
		return float64(len(lst)), nil
	})
	def("empty?", func(args []Value) (Value, error) {
		lst, ok := listArg("empty?", args)
		if !ok {
			return nil, diag.New(diag.KindRuntime, diag.Position{}, "empty? expects a list argument")
		}
		return len(lst) == 0, nil
	})
	def("list?", func(args []Value) (Value, error) {
		if len(args) != 1 {
			return false, nil
		}
		_, ok := args[0].([]Value)
		return ok, nil
	})

	def("range", func(args []Value) (Value, error) {
		var start, end, step float64
		switch len(args) {
		case 1:
			end = args[0].(float64)
			step = 1
		case 2:
			start, end = args[0].(float64), args[1].(float64)
			step = 1
		case 3:
			start, end, step = args[0].(float64), args[1].(float64), args[2].(float64)
		default:
			return nil, diag.New(diag.KindRuntime, diag.Position{}, "range expects 1 to 3 arguments")
		}
		if step == 0 {
			return nil, diag.New(diag.KindRuntime, diag.Position{}, "range step must be non-zero")
		}
		return rangeSeq(start, end, step), nil
	})

	def("gensym", GensymBuiltin)
}

func arith(op func(a, b float64) float64, identity float64) func([]Value) (Value, error) {
	return func(args []Value) (Value, error) {
		nums, err := numArgs("arithmetic operator", args)
		if err != nil {
			return nil, err
		}
		result := identity
		for _, n := range nums {
			result = op(result, n)
		}
		return result, nil
	}
}

func cmp(test func(c int) bool) func([]Value) (Value, error) {
	return func(args []Value) (Value, error) {
		if len(args) != 2 {
			return nil, diag.New(diag.KindRuntime, diag.Position{}, "comparison operator expects exactly 2 arguments")
		}
		c, err := compareValues(args[0], args[1])
		if err != nil {
			return nil, err
		}
		return test(c), nil
	}
}

func compareValues(a, b Value) (int, error) {
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		if !ok {
			return 0, diag.New(diag.KindRuntime, diag.Position{}, "cannot compare number with non-number")
		}
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		default:
			return 0, nil
		}
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, diag.New(diag.KindRuntime, diag.Position{}, "cannot compare string with non-string")
		}
		return strings.Compare(x, y), nil
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, diag.New(diag.KindRuntime, diag.Position{}, "cannot compare boolean with non-boolean")
		}
		switch {
		case x == y:
			return 0, nil
		case !x:
			return -1, nil
		default:
			return 1, nil
		}
	default:
		return 0, diag.New(diag.KindRuntime, diag.Position{}, "unsupported comparison operand type")
	}
}

func numArgs(op string, args []Value) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		n, ok := a.(float64)
		if !ok {
			return nil, diag.New(diag.KindRuntime, diag.Position{}, fmt.Sprintf("%s expects numeric arguments", op))
		}
		out[i] = n
	}
	return out, nil
}

func listArg(op string, args []Value) ([]Value, bool) {
	if len(args) != 1 {
		return nil, false
	}
	return AsList(args[0])
}

func valueToDisplayString(v Value) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v", x)
	}
}
