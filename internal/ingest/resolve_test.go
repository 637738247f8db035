package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func TestResolveParentEscapeUsesRoot(t *testing.T) {
	root := t.TempDir()
	csvDir := filepath.Join(root, "csvs")
	want := filepath.Join(root, "resources", "nsfw_data", "img.png")
	writeFile(t, want, "x")
	// a decoy under the CSV directory must not be picked
	writeFile(t, filepath.Join(csvDir, "resources", "nsfw_data", "img.png"), "decoy")

	got, err := Resolve("../resources/nsfw_data/img.png", csvDir, root)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolveRelativeToCSVDir(t *testing.T) {
	root := t.TempDir()
	csvDir := filepath.Join(root, "batch")
	want := filepath.Join(csvDir, "images", "test right_02.png")
	writeFile(t, want, "x")

	got, err := Resolve("images/test right_02.png", csvDir, root)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolveBackslashSeparators(t *testing.T) {
	root := t.TempDir()
	want := filepath.Join(root, "resources", "nsfw_data", "a.png")
	writeFile(t, want, "x")

	got, err := Resolve(`..\resources\nsfw_data\a.png`, filepath.Join(root, "csvs"), root)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolveFallsBackToRecursiveSearch(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "resources", "nsfw_data", "a", "dup.png")
	writeFile(t, filepath.Join(root, "resources", "nsfw_data", "b", "dup.png"), "b")
	writeFile(t, first, "a")

	for i := 0; i < 3; i++ {
		got, err := Resolve("somewhere/else/dup.png", root, root)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestResolveNotFound(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "resources", "nsfw_data", "other.png"), "x")

	_, err := Resolve("../resources/nsfw_data/missing.png", root, root)
	assert.ErrorIs(t, err, ErrImageNotFound)

	_, err = Resolve("", root, root)
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestResolveIgnoresPathsOutsideRoot(t *testing.T) {
	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "secret.png"), "x")
	root := t.TempDir()

	_, err := Resolve(filepath.Join(outside, "secret.png"), root, root)
	assert.ErrorIs(t, err, ErrImageNotFound)

	rel, err := filepath.Rel(root, filepath.Join(outside, "secret.png"))
	require.NoError(t, err)
	_, err = Resolve(filepath.ToSlash(rel), root, root)
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestFlatLocatorUsesBaseName(t *testing.T) {
	dir := t.TempDir()
	want := filepath.Join(dir, "test right_02.png")
	writeFile(t, want, "x")

	loc := &FlatLocator{Dir: dir}
	got, err := loc.Locate("../resources/nsfw_data/test right_02.png")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = loc.Locate("../resources/nsfw_data/nope.png")
	assert.ErrorIs(t, err, ErrImageNotFound)
}
