package retention

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// failingFS refuses to remove anything.
type failingFS struct {
	OSFS
}

func (failingFS) RemoveAll(string) error {
	return os.ErrPermission
}

// makeBuilds creates one empty directory per name under dir.
func makeBuilds(t *testing.T, dir string, names ...string) {
	t.Helper()

	for _, name := range names {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, name), 0o755))
	}
}

// listDir returns the names under dir.
func listDir(t *testing.T, dir string) []string {
	t.Helper()

	names, err := Subdirectories(OSFS{}, dir)
	require.NoError(t, err)

	return names
}

// TestNewRejectsEmptyWindow ensures the pruner never keeps zero builds.
func TestNewRejectsEmptyWindow(t *testing.T) {
	t.Parallel()

	_, err := New(nil, 0)
	require.ErrorIs(t, err, ErrInvalidKeep)
}

// TestPruneKeepsGreatestNames deletes everything but the K lexicographically greatest directories.
func TestPruneKeepsGreatestNames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	makeBuilds(t, dir, "20240301", "20231201", "20240115", "20240101", "20240201")

	pruner, err := New(nil, 3)
	require.NoError(t, err)

	result, err := pruner.Prune(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, []string{"20240115", "20240201", "20240301"}, result.Kept)
	require.Equal(t, []string{"20240101", "20231201"}, result.Deleted)
	require.Empty(t, result.Failed)
	require.Equal(t, []string{"20240115", "20240201", "20240301"}, listDir(t, dir))
}

// TestPruneUnderWindow leaves devices with K or fewer builds untouched.
func TestPruneUnderWindow(t *testing.T) {
	t.Parallel()

	for _, names := range [][]string{nil, {"20240101"}, {"20240101", "20240115"}, {"20240101", "20240115", "20240201"}} {
		dir := t.TempDir()
		makeBuilds(t, dir, names...)

		pruner, err := New(nil, 3)
		require.NoError(t, err)

		result, err := pruner.Prune(context.Background(), dir)
		require.NoError(t, err)
		require.Empty(t, result.Deleted)
		require.Len(t, listDir(t, dir), len(names))
	}
}

// TestPruneIgnoresFiles only counts directories as builds.
func TestPruneIgnoresFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	makeBuilds(t, dir, "20240101", "20240115")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zzz.txt"), nil, 0o600))

	pruner, err := New(nil, 1)
	require.NoError(t, err)

	result, err := pruner.Prune(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, []string{"20240115"}, result.Kept)

	_, err = os.Stat(filepath.Join(dir, "zzz.txt"))
	require.NoError(t, err)
}

// TestPruneSwallowsRemovalErrors keeps going when directories cannot be removed.
func TestPruneSwallowsRemovalErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	makeBuilds(t, dir, "20240101", "20240115", "20240201")

	pruner, err := New(failingFS{}, 1)
	require.NoError(t, err)

	result, err := pruner.Prune(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, []string{"20240201"}, result.Kept)
	require.Equal(t, []string{"20240115", "20240101"}, result.Failed)
	require.Len(t, listDir(t, dir), 3)
}

// TestPruneMissingDevice fails when the device directory cannot be listed.
func TestPruneMissingDevice(t *testing.T) {
	t.Parallel()

	pruner, err := New(nil, 3)
	require.NoError(t, err)

	_, err = pruner.Prune(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
