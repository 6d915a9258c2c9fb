package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, changed <-chan []string, want string) {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case paths := <-changed:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for change to %s", want)
		}
	}
}

func TestNewWatcherRejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil, nil, nil)
	assert.ErrorIs(t, err, os.ErrInvalid)
	assert.Nil(t, w)
}

func TestNewWatcherRejectsBadPatterns(t *testing.T) {
	_, err := NewWatcher(time.Millisecond, []string{"["}, nil, func([]string) {})
	assert.Error(t, err)
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "vendor"), 0o755))

	changed := make(chan []string, 8)
	w, err := NewWatcher(50*time.Millisecond, []string{"vendor"}, []string{"*.skip.json"}, func(paths []string) {
		changed <- paths
	})
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch([]string{dir}))

	tree := filepath.Join(dir, "Shape.php.json")
	require.NoError(t, os.WriteFile(tree, []byte(`{"kind":"AST_STMT_LIST"}`), 0o644))
	waitFor(t, changed, tree)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.skip.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor", "Lib.php.json"), []byte("{}"), 0o644))
	select {
	case paths := <-changed:
		t.Fatalf("excluded files triggered a change: %v", paths)
	case <-time.After(300 * time.Millisecond):
	}

	nested := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	nestedTree := filepath.Join(nested, "Point.php.json")
	require.NoError(t, os.WriteFile(nestedTree, []byte("{}"), 0o644))
	waitFor(t, changed, nestedTree)
}

func TestWatcherRenameTriggersChange(t *testing.T) {
	dir := t.TempDir()
	changed := make(chan []string, 8)
	w, err := NewWatcher(50*time.Millisecond, nil, nil, func(paths []string) {
		changed <- paths
	})
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch([]string{dir}))

	oldPath := filepath.Join(dir, "old.json")
	newPath := filepath.Join(dir, "new.json")
	require.NoError(t, os.WriteFile(oldPath, []byte("{}"), 0o644))
	require.NoError(t, os.Rename(oldPath, newPath))
	waitFor(t, changed, newPath)
}

func TestWatcherSingleFileInput(t *testing.T) {
	dir := t.TempDir()
	tree := filepath.Join(dir, "main.php.json")
	require.NoError(t, os.WriteFile(tree, []byte("{}"), 0o644))

	changed := make(chan []string, 8)
	w, err := NewWatcher(50*time.Millisecond, nil, nil, func(paths []string) {
		changed <- paths
	})
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch([]string{tree}))

	require.NoError(t, os.WriteFile(tree, []byte(`{"kind":"AST_STMT_LIST"}`), 0o644))
	waitFor(t, changed, tree)
}

func TestSetExtensions(t *testing.T) {
	w, err := NewWatcher(time.Millisecond, nil, []string{"*.min.ast"}, func([]string) {})
	require.NoError(t, err)
	defer w.Close()

	assert.False(t, w.shouldExcludeFile("a.json"))
	assert.True(t, w.shouldExcludeFile("a.php"))

	w.SetExtensions([]string{"AST", " "})
	assert.False(t, w.shouldExcludeFile("dir/A.ast"))
	assert.True(t, w.shouldExcludeFile("a.json"))
	assert.True(t, w.shouldExcludeFile("x.min.ast"))
}

func TestWatchMissingPath(t *testing.T) {
	w, err := NewWatcher(time.Millisecond, nil, nil, func([]string) {})
	require.NoError(t, err)
	defer w.Close()
	assert.Error(t, w.Watch([]string{filepath.Join(t.TempDir(), "missing")}))
}
