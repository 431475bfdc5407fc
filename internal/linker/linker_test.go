package linker_test

import (
	"path/filepath"
	"testing"

	"github.com/hlvm-dev/hql/internal/linker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanSpecifiersClassifiesEachKind(t *testing.T) {
	t.Parallel()

	code := "import { a } from \"@hql/list\";\n" +
		"import { b } from \"./lib.hql\";\n" +
		"import c from \"lodash\";\n"

	specs := linker.ScanSpecifiers(code)
	require.Len(t, specs, 3)
	assert.Equal(t, linker.SpecifierHQLPackage, specs[0].Kind)
	assert.Equal(t, linker.SpecifierRelative, specs[1].Kind)
	assert.Equal(t, linker.SpecifierPassThrough, specs[2].Kind)
}

func TestHasExportsDetectsTopLevelExport(t *testing.T) {
	t.Parallel()

	assert.True(t, linker.HasExports("export const x = 1;\n"))
	assert.False(t, linker.HasExports("const x = 1;\n"))
}

func TestDecideWrapPicksStrategyFromImportsAndExports(t *testing.T) {
	t.Parallel()

	assert.Equal(t, linker.WrapNone, linker.DecideWrap("import { a } from \"./a.hql\";\nexport const b = a;\n"))
	assert.Equal(t, linker.WrapAsyncIIFE, linker.DecideWrap("import { a } from \"./a.hql\";\nconsole.log(a);\n"))
	assert.Equal(t, linker.WrapSyncIIFE, linker.DecideWrap("console.log(1);\n"))
}

func TestResolverResolveRelativeHQLFile(t *testing.T) {
	t.Parallel()

	r := &linker.Resolver{}
	spec := linker.Specifier{Raw: "./lib.hql", Kind: linker.SpecifierRelative}

	res, err := r.Resolve(spec, "/project/src")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/project/src", "lib.hql"), res.CompilePath)
}

func TestResolverResolveRelativeNonHQLPassesThrough(t *testing.T) {
	t.Parallel()

	r := &linker.Resolver{}
	spec := linker.Specifier{Raw: "./styles.css", Kind: linker.SpecifierRelative}

	res, err := r.Resolve(spec, "/project/src")
	require.NoError(t, err)
	assert.Empty(t, res.CompilePath)
}

func TestResolverResolveHQLPackageFallsBackToInstallDir(t *testing.T) {
	t.Parallel()

	r := &linker.Resolver{InstallDir: "/opt/hql"}
	spec := linker.Specifier{Raw: "@hql/list", Kind: linker.SpecifierHQLPackage}

	res, err := r.Resolve(spec, "/project/src")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/opt/hql", "packages", "list", "mod.hql"), res.CompilePath)
}

func TestResolverResolveHQLPackageUsesEmbeddedLookup(t *testing.T) {
	t.Parallel()

	r := &linker.Resolver{
		Lookup: func(name string) (string, bool, string) {
			if name == "list" {
				return "(fn first [xs] (__hql_get xs 0))", true, ""
			}
			return "", false, ""
		},
	}
	spec := linker.Specifier{Raw: "@hql/list", Kind: linker.SpecifierHQLPackage}

	res, err := r.Resolve(spec, "/project/src")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Rewritten)
	assert.Contains(t, res.CompilePath, "@embedded:list")
}

func TestGraphResolveRunsCompileOnceForConcurrentCallers(t *testing.T) {
	t.Parallel()

	g := linker.NewGraph()
	calls := 0
	compile := func() (*linker.ModuleOutput, error) {
		calls++
		return &linker.ModuleOutput{Path: "a.hql", Code: "1;"}, nil
	}

	out1, err1 := g.Resolve("a.hql", compile)
	out2, err2 := g.Resolve("a.hql", compile)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, 1, calls)
	assert.Same(t, out1, out2)
}

func TestGraphPathsReturnsEveryClaimedPath(t *testing.T) {
	t.Parallel()

	g := linker.NewGraph()
	_, _ = g.Resolve("a.hql", func() (*linker.ModuleOutput, error) { return &linker.ModuleOutput{}, nil })
	_, _ = g.Resolve("b.hql", func() (*linker.ModuleOutput, error) { return &linker.ModuleOutput{}, nil })

	assert.ElementsMatch(t, []string{"a.hql", "b.hql"}, g.Paths())
}

func TestBuildPreludeOnlyIncludesDemandedHelpersInFixedOrder(t *testing.T) {
	t.Parallel()

	demanded := map[string]bool{"__hql_deepFreeze": true, "__hql_get": true}
	prelude := linker.BuildPrelude(demanded)

	getIdx := indexOf(prelude, "function __hql_get")
	freezeIdx := indexOf(prelude, "function __hql_deepFreeze")
	require.GreaterOrEqual(t, getIdx, 0)
	require.GreaterOrEqual(t, freezeIdx, 0)
	assert.Less(t, getIdx, freezeIdx)
	assert.NotContains(t, prelude, "__hql_range(")
}

func TestBuildPreludeEmptyWhenNoHelpersDemanded(t *testing.T) {
	t.Parallel()

	assert.Empty(t, linker.BuildPrelude(map[string]bool{}))
}

func TestSplitPackageSpecifierSeparatesNameAndVersion(t *testing.T) {
	t.Parallel()

	name, constraint := linker.SplitPackageSpecifier("list@v1.2.0")
	assert.Equal(t, "list", name)
	assert.Equal(t, "v1.2.0", constraint)

	name, constraint = linker.SplitPackageSpecifier("list")
	assert.Equal(t, "list", name)
	assert.Empty(t, constraint)
}

func TestSelectVersionPicksHighestMatchingMajor(t *testing.T) {
	t.Parallel()

	selected, ok := linker.SelectVersion("v1", []string{"v1.0.0", "v1.4.0", "v2.0.0"})
	require.True(t, ok)
	assert.Equal(t, "v1.4.0", selected)
}

func TestSelectVersionExactMatch(t *testing.T) {
	t.Parallel()

	selected, ok := linker.SelectVersion("v1.2.0", []string{"v1.2.0", "v1.3.0"})
	require.True(t, ok)
	assert.Equal(t, "v1.2.0", selected)
}

func TestSelectVersionNoMatchReturnsFalse(t *testing.T) {
	t.Parallel()

	_, ok := linker.SelectVersion("v3", []string{"v1.0.0", "v2.0.0"})
	assert.False(t, ok)
}

func TestResolverResolveHQLPackageWithVersionConstraint(t *testing.T) {
	t.Parallel()

	r := &linker.Resolver{
		InstallDir: "/opt/hql",
		Versions: func(name string) []string {
			return []string{"v1.0.0", "v1.2.0", "v2.0.0"}
		},
	}
	spec := linker.Specifier{Raw: "@hql/list@v1", Kind: linker.SpecifierHQLPackage}

	res, err := r.Resolve(spec, "/project/src")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/opt/hql", "packages", "list@v1.2.0", "mod.hql"), res.CompilePath)
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
