package linker

import "strings"

// helperSource holds the JS implementation of each runtime helper named in
// spec.md §6's helper table. Each entry is a function declaration, so
// emission order does not matter; every entry is self-contained except
// __hql_for_each, which calls __hql_toSequence (the optimizer's helper-demand
// pass marks the two together for a non-native for loop).
var helperSource = map[string]string{
	"__hql_get": `function __hql_get(obj, key, dflt) {
  if (obj == null) return dflt;
  const v = obj[key];
  return v === undefined ? dflt : v;
}`,
	"__hql_range": `function __hql_range(start, end, step) {
  if (end === undefined) { end = start; start = 0; }
  if (step === undefined) step = 1;
  return { [Symbol.iterator]() {
    let i = start;
    return { next() {
      if (step > 0 ? i >= end : i <= end) return { done: true, value: undefined };
      const value = i;
      i += step;
      return { done: false, value };
    } };
  } };
}`,
	"__hql_toSequence": `function __hql_toSequence(v) {
  if (Array.isArray(v)) return v;
  if (v == null) return [];
  if (typeof v[Symbol.iterator] === "function") return Array.from(v);
  if (typeof v === "object") return Object.entries(v);
  return [v];
}`,
	"__hql_for_each": `function __hql_for_each(seq, fn) {
  const arr = __hql_toSequence(seq);
  for (let i = 0; i < arr.length; i++) fn(arr[i], i);
}`,
	"__hql_hash_map": `function __hql_hash_map(...kv) {
  const obj = Object.create(null);
  for (let i = 0; i < kv.length; i += 2) obj[kv[i]] = kv[i + 1];
  return obj;
}`,
	"__hql_deepFreeze": `function __hql_deepFreeze(v, seen) {
  if (v === null || typeof v !== "object" || Object.isFrozen(v)) return v;
  seen = seen || new Set();
  if (seen.has(v)) return v;
  seen.add(v);
  Object.freeze(v);
  for (const key of Object.keys(v)) __hql_deepFreeze(v[key], seen);
  return v;
}`,
	"__hql_match_obj": `function __hql_match_obj(pattern, v) {
  if (pattern === null || typeof pattern !== "object") return pattern === v;
  if (v === null || typeof v !== "object") return false;
  for (const key of Object.keys(pattern)) {
    if (!__hql_match_obj(pattern[key], v[key])) return false;
  }
  return true;
}`,
}

// helperOrder fixes emission order so the prelude is deterministic
// regardless of map iteration order.
var helperOrder = []string{
	"__hql_get", "__hql_range", "__hql_toSequence", "__hql_for_each",
	"__hql_hash_map", "__hql_deepFreeze", "__hql_match_obj",
}

// BuildPrelude renders the JS source of every helper in demanded, in fixed
// order, one blank line apart. Returns "" if demanded is empty.
func BuildPrelude(demanded map[string]bool) string {
	var b strings.Builder
	for _, name := range helperOrder {
		if !demanded[name] {
			continue
		}
		b.WriteString(helperSource[name])
		b.WriteString("\n\n")
	}
	return b.String()
}

// PreludeLineCount returns the number of lines BuildPrelude(demanded) emits,
// for shifting source-map line numbers by the same amount (spec.md §4.7).
func PreludeLineCount(demanded map[string]bool) int {
	return strings.Count(BuildPrelude(demanded), "\n")
}
