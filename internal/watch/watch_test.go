package watch

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daimatz/jclass/internal/classtest"
	"github.com/daimatz/jclass/pkg/classpath"
)

func startWatcher(t *testing.T, entries ...string) *Watcher {
	t.Helper()
	r := classpath.NewResolver(classpath.New(entries...))
	w, err := New(r, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Start())
	t.Cleanup(w.Stop)
	return w
}

func next(t *testing.T, w *Watcher) Change {
	t.Helper()
	select {
	case c := <-w.Changes:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for change")
		return Change{}
	}
}

func TestDirectoryEntry(t *testing.T) {
	dir := t.TempDir()
	classtest.WriteClass(t, dir, "com/example/A", classtest.New("com/example/A").Bytes())
	w := startWatcher(t, dir)

	path := classtest.WriteClass(t, dir, "com/example/A", classtest.New("com/example/A").Super("B").Bytes())

	c := next(t, w)
	assert.Equal(t, dir, c.Entry)
	assert.Equal(t, path, c.Path)
	assert.Equal(t, "com/example/A", c.Class)
}

func TestArchiveEntry(t *testing.T) {
	dir := t.TempDir()
	jar := filepath.Join(dir, "lib.jar")
	classtest.WriteJar(t, jar, map[string][]byte{"A.class": classtest.New("A").Bytes()})
	w := startWatcher(t, jar)

	// Siblings of the archive share its watched directory but are ignored.
	classtest.WriteFile(t, filepath.Join(dir, "other.jar"), []byte("x"))
	classtest.WriteJar(t, jar, map[string][]byte{"A.class": classtest.New("A").Super("B").Bytes()})

	c := next(t, w)
	assert.Equal(t, jar, c.Entry)
	assert.Equal(t, jar, c.Path)
	assert.Empty(t, c.Class)
}

func TestMissingEntrySkipped(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, filepath.Join(dir, "missing"), dir)

	classtest.WriteClass(t, dir, "B", classtest.New("B").Bytes())
	c := next(t, w)
	assert.Equal(t, "B", c.Class)
}

func TestClassify(t *testing.T) {
	dir := t.TempDir()
	jar := filepath.Join(dir, "lib.jar")
	classes := filepath.Join(dir, "classes")
	w, err := New(classpath.NewResolver(classpath.New(classes, jar)))
	require.NoError(t, err)
	defer w.watcher.Close()

	c, ok := w.classify(filepath.Join(classes, "p", "Q.class"))
	require.True(t, ok)
	assert.Equal(t, Change{Entry: classes, Path: filepath.Join(classes, "p", "Q.class"), Class: "p/Q"}, c)

	_, ok = w.classify(filepath.Join(classes, "p", "notes.txt"))
	assert.False(t, ok)

	_, ok = w.classify(filepath.Join(dir, "other.jar"))
	assert.False(t, ok)

	c, ok = w.classify(jar)
	require.True(t, ok)
	assert.Equal(t, jar, c.Entry)
}
