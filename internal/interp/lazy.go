package interp

// defaultMaxLazyLen is the default cap on lazy-sequence realization
// (spec.md §4.3: "Lazy sequences returned by stdlib calls are realized to
// at most a configured maximum length before conversion").
const defaultMaxLazyLen = 10000

// LazySeq is a generator-backed sequence, produced by builtins such as
// range that would otherwise be unbounded. It is realized (materialized
// into a []Value) on demand, capped at a maximum length rather than erroring
// past the cap — an infinite range used only for its first few elements
// must not force full materialization.
type LazySeq struct {
	next func() (Value, bool) // returns the next element and whether one exists
}

// NewLazySeq wraps a generator function as a lazy sequence.
func NewLazySeq(next func() (Value, bool)) *LazySeq {
	return &LazySeq{next: next}
}

// Realize pulls up to max elements from the sequence. The second return
// value reports whether the sequence had more elements remaining when the
// cap was hit.
func (l *LazySeq) Realize(max int) ([]Value, bool) {
	out := make([]Value, 0, minInt(max, 64))
	for len(out) < max {
		v, ok := l.next()
		if !ok {
			return out, false
		}
		out = append(out, v)
	}
	_, more := l.next()
	return out, more
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// rangeSeq builds the lazy sequence behind the range builtin: range(end),
// range(start, end), or range(start, end, step).
func rangeSeq(start, end, step float64) *LazySeq {
	cur := start
	return NewLazySeq(func() (Value, bool) {
		if step > 0 && cur >= end {
			return nil, false
		}
		if step < 0 && cur <= end {
			return nil, false
		}
		v := cur
		cur += step
		return v, true
	})
}
