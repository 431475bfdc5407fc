package cache_test

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hlvm-dev/hql/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := &cache.Record{
		Source:      "main.hql",
		Code:        "let x = 1;\n",
		SourceMap:   `{"version":3}`,
		Helpers:     []string{"__hql_get", "__hql_range"},
		ImportGraph: []string{filepath.Join(dir, "lib.hql")},
	}
	key, err := cache.Key("(let x 1)", "strict=false")
	require.NoError(t, err)

	require.NoError(t, cache.Write(dir, key, rec))

	got, ok, err := cache.Read(dir, key)
	require.NoError(t, err)
	require.True(t, ok)
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Fatalf("round-tripped record differs (-want +got):\n%s", diff)
	}
}

func TestReadMissReturnsFalseNotError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	key, err := cache.Key("(let x 1)", "strict=false")
	require.NoError(t, err)

	got, ok, err := cache.Read(dir, key)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestKeyDependsOnOptionsFingerprint(t *testing.T) {
	t.Parallel()

	k1, err := cache.Key("(let x 1)", "strict=false")
	require.NoError(t, err)
	k2, err := cache.Key("(let x 1)", "strict=true")
	require.NoError(t, err)

	assert.NotEqual(t, k1, k2)
}

func TestDigestIsDeterministic(t *testing.T) {
	t.Parallel()

	rec := &cache.Record{Source: "a.hql", Code: "1;\n", Helpers: []string{"__hql_get"}}

	d1, err := cache.Digest(rec)
	require.NoError(t, err)
	d2, err := cache.Digest(rec)
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
}
