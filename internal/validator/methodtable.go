package validator

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// methodTableSchemas compiles, once, a JSON Schema per built-in type
// listing its known property/method names as an enum — the same mechanism
// the teacher uses to validate decorator parameter names against a schema
// (core/types/validation.go), repurposed here for rule (d)'s typed
// property-access check (spec.md §4.4) instead of decorator parameters.
var (
	methodTableOnce   sync.Once
	methodTableByType map[string]*jsonschema.Schema
	methodTableRaw    = map[string][]string{
		"string": {
			"length", "toUpperCase", "toLowerCase", "trim", "trimStart", "trimEnd",
			"slice", "substring", "split", "includes", "indexOf", "startsWith",
			"endsWith", "replace", "replaceAll", "concat", "charAt", "padStart", "padEnd",
		},
		"array": {
			"length", "push", "pop", "shift", "unshift", "slice", "splice",
			"map", "filter", "reduce", "forEach", "find", "findIndex",
			"includes", "indexOf", "join", "concat", "flat", "sort", "reverse",
		},
		"number": {
			"toFixed", "toPrecision", "toString",
		},
	}
)

func buildMethodTableSchemas() {
	methodTableByType = make(map[string]*jsonschema.Schema, len(methodTableRaw))
	for typ, names := range methodTableRaw {
		schemaDoc := map[string]any{
			"type": "string",
			"enum": names,
		}
		raw, _ := json.Marshal(schemaDoc)
		compiler := jsonschema.NewCompiler()
		url := "mem://hql/" + typ + "-members.json"
		if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
			continue
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			continue
		}
		methodTableByType[typ] = schema
	}
}

// methodTableHas reports whether prop is a known member of typ, validating
// it against the compiled enum schema rather than a bare map lookup — this
// is what lets the same machinery extend to richer per-type schemas later
// (e.g. arity-bearing method descriptors) without changing call sites.
func methodTableHas(typ, prop string) bool {
	methodTableOnce.Do(buildMethodTableSchemas)
	schema, ok := methodTableByType[typ]
	if !ok {
		return true // unknown type: nothing to check against
	}
	var v any = prop
	return schema.Validate(v) == nil
}

// methodTableNames returns the raw name list for typ, used to build
// "did you mean" suggestions.
func methodTableNames(typ string) []string {
	return methodTableRaw[typ]
}
