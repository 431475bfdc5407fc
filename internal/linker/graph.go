package linker

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// moduleFuture is one module's in-flight or completed compilation, keyed by
// promise identity rather than a mutex-guarded map read: the first goroutine
// to request a given normalized path creates the future and compiles it; any
// other goroutine requesting the same path blocks on done and observes the
// same result (spec.md §5's "promise identity to coalesce concurrent
// requests for the same normalized path"). No library in the example pack
// implements this: it's specific to this project's own module-resolution
// strategy, so it's a small hand-written channel-backed future rather than
// an adopted singleflight-style dependency.
type moduleFuture struct {
	path   string
	done   chan struct{}
	output *ModuleOutput
	err    error
}

func newModuleFuture(path string) *moduleFuture {
	return &moduleFuture{path: path, done: make(chan struct{})}
}

func (f *moduleFuture) resolve(out *ModuleOutput, err error) {
	f.output, f.err = out, err
	close(f.done)
}

func (f *moduleFuture) wait() (*ModuleOutput, error) {
	<-f.done
	return f.output, f.err
}

// ModuleOutput is one compiled module's final artifact.
type ModuleOutput struct {
	Path      string
	Code      string
	SourceMap string
	Helpers   map[string]bool
}

// Graph deduplicates concurrent compile requests for the same normalized
// path and breaks import cycles: a cyclic resolveModule call observes the
// in-flight future (registered before the async compile body runs) instead
// of recursing forever, per spec.md §5.
type Graph struct {
	mu      sync.Mutex
	futures map[string]*moduleFuture
}

// NewGraph creates an empty module graph.
func NewGraph() *Graph {
	return &Graph{futures: make(map[string]*moduleFuture)}
}

// dedupKey hashes a normalized module path with BLAKE2b-256, the module-
// graph dedup key SPEC_FULL.md assigns to this package (distinct from
// internal/cache's own Key/Digest, which hash source text and compiled
// records rather than paths).
func dedupKey(path string) string {
	sum := blake2b.Sum256([]byte(path))
	return fmt.Sprintf("%x", sum)
}

// claim registers path as in-flight and reports whether this call is the
// first (and therefore responsible for driving the compile). A losing
// caller gets the same future and must call wait on it.
func (g *Graph) claim(path string) (*moduleFuture, bool) {
	key := dedupKey(path)
	g.mu.Lock()
	defer g.mu.Unlock()
	if f, ok := g.futures[key]; ok {
		return f, false
	}
	f := newModuleFuture(path)
	g.futures[key] = f
	return f, true
}

// Resolve returns the compiled output for path, running compile exactly
// once no matter how many concurrent or cyclic callers request path.
func (g *Graph) Resolve(path string, compile func() (*ModuleOutput, error)) (*ModuleOutput, error) {
	future, isOwner := g.claim(path)
	if !isOwner {
		return future.wait()
	}
	out, err := compile()
	future.resolve(out, err)
	return out, err
}

// Paths returns every path claimed so far, sorted is the caller's concern
// (used to build a deterministic ImportGraph for the cache record).
func (g *Graph) Paths() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	paths := make([]string, 0, len(g.futures))
	for _, f := range g.futures {
		paths = append(paths, f.path)
	}
	return paths
}

// Outputs returns every already-resolved module's output keyed by its
// original path, for writing a whole import graph to disk at once
// (Linker.WriteAll). Resolve always runs synchronously from the caller's own
// goroutine in this driver, so by the time a top-level Link call returns,
// every claimed future is done.
func (g *Graph) Outputs() map[string]*ModuleOutput {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]*ModuleOutput, len(g.futures))
	for _, f := range g.futures {
		select {
		case <-f.done:
			if f.err == nil {
				out[f.path] = f.output
			}
		default:
		}
	}
	return out
}
