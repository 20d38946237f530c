package classpath

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daimatz/jclass/internal/classtest"
)

func TestClasspathManipulation(t *testing.T) {
	sep := string(os.PathListSeparator)

	cp := Parse(strings.Join([]string{"a", "", "b.jar"}, sep))
	assert.Equal(t, []string{"a", "b.jar"}, cp.Entries())

	cp.PushFront("first")
	cp.PushBack("last")
	assert.Equal(t, []string{"first", "a", "b.jar", "last"}, cp.Entries())
	assert.Equal(t, 4, cp.Len())

	joined := New("x").Join(New("y", "z"))
	assert.Equal(t, "x"+sep+"y"+sep+"z", joined.String())

	var empty Classpath
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, "", empty.String())
}

func TestEntriesIsACopy(t *testing.T) {
	cp := New("a")
	e := cp.Entries()
	e[0] = "changed"
	assert.Equal(t, []string{"a"}, cp.Entries())
}

func read(t *testing.T, r *Resolver, path string) (string, string) {
	t.Helper()
	res, err := r.Get(path)
	require.NoError(t, err)
	data, err := res.ReadAll()
	require.NoError(t, err)
	return string(data), res.Origin()
}

func TestResolverDirectory(t *testing.T) {
	dir := t.TempDir()
	classtest.WriteFile(t, filepath.Join(dir, "com", "example", "Foo.class"), []byte("foo"))

	r := NewResolver(New(dir))
	defer r.Close()

	data, origin := read(t, r, "com/example/Foo.class")
	assert.Equal(t, "foo", data)
	assert.True(t, strings.HasPrefix(origin, "file://"), origin)
	assert.True(t, strings.HasSuffix(origin, "/com/example/Foo.class"), origin)

	data, _ = read(t, r, "/com/example/Foo.class")
	assert.Equal(t, "foo", data)

	_, err := r.Get("com/example")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolverArchives(t *testing.T) {
	dir := t.TempDir()
	jar := filepath.Join(dir, "lib.jar")
	classtest.WriteJar(t, jar, map[string][]byte{
		"com/example/Foo.class": []byte("from jar"),
		"META-INF/MANIFEST.MF":  []byte("Manifest-Version: 1.0\n"),
	})
	jmod := filepath.Join(dir, "java.base.jmod")
	classtest.WriteJmod(t, jmod, map[string][]byte{
		"java/lang/Object.class": []byte("object"),
	})

	r := NewResolver(New(jar, jmod))
	defer r.Close()

	data, origin := read(t, r, "com/example/Foo.class")
	assert.Equal(t, "from jar", data)
	assert.True(t, strings.HasPrefix(origin, "jar:file://"), origin)
	assert.True(t, strings.HasSuffix(origin, "lib.jar!/com/example/Foo.class"), origin)

	data, _ = read(t, r, "META-INF/MANIFEST.MF")
	assert.Equal(t, "Manifest-Version: 1.0\n", data)

	data, origin = read(t, r, "java/lang/Object.class")
	assert.Equal(t, "object", data)
	assert.True(t, strings.HasSuffix(origin, "java.base.jmod!/classes/java/lang/Object.class"), origin)

	assert.Len(t, r.archives, 2, "each archive is opened once")

	_, err := r.Get("java/lang/String.class")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolverPrecedence(t *testing.T) {
	dir := t.TempDir()
	classes := filepath.Join(dir, "classes")
	classtest.WriteFile(t, filepath.Join(classes, "A.class"), []byte("dir"))
	jar := filepath.Join(dir, "a.jar")
	classtest.WriteJar(t, jar, map[string][]byte{"A.class": []byte("jar")})

	tests := []struct {
		name    string
		entries []string
		want    string
	}{
		{"directory first", []string{classes, jar}, "dir"},
		{"jar first", []string{jar, classes}, "jar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(New(tt.entries...))
			defer r.Close()
			got, _ := read(t, r, "A.class")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolverMissingEntryIsSkipped(t *testing.T) {
	dir := t.TempDir()
	classtest.WriteFile(t, filepath.Join(dir, "A.class"), []byte("a"))

	r := NewResolver(New(filepath.Join(dir, "nope"), filepath.Join(dir, "nope.jar"), dir))
	defer r.Close()

	got, _ := read(t, r, "A.class")
	assert.Equal(t, "a", got)
	assert.NoError(t, r.Validate())
}

func TestResolverConfigErrors(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.txt")
	classtest.WriteFile(t, txt, []byte("hello"))
	bad := filepath.Join(dir, "bad.jar")
	classtest.WriteFile(t, bad, []byte("not a zip"))
	badJmod := filepath.Join(dir, "bad.jmod")
	classtest.WriteFile(t, badJmod, []byte("PK"))

	t.Run("unsupported", func(t *testing.T) {
		r := NewResolver(New(txt))
		_, err := r.Get("A.class")
		var ce *ConfigError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, txt, ce.Entry)
		assert.ErrorIs(t, err, ErrUnsupportedEntry)
	})

	t.Run("corrupt archive", func(t *testing.T) {
		r := NewResolver(New(bad))
		_, err := r.Get("A.class")
		var ce *ConfigError
		require.ErrorAs(t, err, &ce)
		assert.NotErrorIs(t, err, ErrNotFound)
	})

	t.Run("validate reports every entry", func(t *testing.T) {
		r := NewResolver(New(txt, dir, bad, badJmod))
		err := r.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnsupportedEntry)
		assert.Contains(t, err.Error(), "bad.jar")
		assert.Contains(t, err.Error(), "bad.jmod")
	})
}

func TestResolverClassFileEntry(t *testing.T) {
	dir := t.TempDir()
	// The file name does not matter; the declared name does.
	path := filepath.Join(dir, "whatever.class")
	classtest.WriteFile(t, path, classtest.New("com/example/Foo").Bytes())

	r := NewResolver(New(path))
	defer r.Close()

	res, err := r.Get("com/example/Foo.class")
	require.NoError(t, err)
	defer res.Close()
	assert.True(t, strings.HasSuffix(res.Origin(), "/whatever.class"))

	_, err = r.Get("whatever.class")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Get("Foo.class")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolverEvict(t *testing.T) {
	dir := t.TempDir()
	jar := filepath.Join(dir, "lib.jar")
	classtest.WriteJar(t, jar, map[string][]byte{"A.class": []byte("v1")})

	r := NewResolver(New(jar))
	defer r.Close()

	got, _ := read(t, r, "A.class")
	assert.Equal(t, "v1", got)

	classtest.WriteJar(t, jar, map[string][]byte{"A.class": []byte("v2"), "B.class": []byte("b")})
	require.NoError(t, r.Evict(jar))
	assert.Empty(t, r.archives)

	got, _ = read(t, r, "A.class")
	assert.Equal(t, "v2", got)
	got, _ = read(t, r, "B.class")
	assert.Equal(t, "b", got)
}

func TestResolverOwner(t *testing.T) {
	dir := t.TempDir()
	classes := filepath.Join(dir, "classes")
	jar := filepath.Join(dir, "lib.jar")
	r := NewResolver(New(classes, jar))

	owner, ok := r.Owner(filepath.Join(classes, "com", "A.class"))
	assert.True(t, ok)
	assert.Equal(t, classes, owner)

	owner, ok = r.Owner(jar)
	assert.True(t, ok)
	assert.Equal(t, jar, owner)

	_, ok = r.Owner(filepath.Join(dir, "other", "B.class"))
	assert.False(t, ok)
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "classpath.toml")
	classtest.WriteFile(t, manifest, []byte(`
entries = ["build/classes", "/abs/lib.jar"]
include_jdk = true
jmod_path = "jdk/java.base.jmod"
`))

	m, err := LoadManifest(manifest)
	require.NoError(t, err)
	assert.True(t, m.IncludeJDK)

	cp := m.Classpath()
	assert.Equal(t, []string{
		filepath.Join(dir, "build", "classes"),
		"/abs/lib.jar",
		filepath.Join(dir, "jdk", "java.base.jmod"),
	}, cp.Entries())

	classtest.WriteFile(t, manifest, []byte(`entries = [`))
	_, err = LoadManifest(manifest)
	assert.Error(t, err)

	_, err = LoadManifest(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFindJavaBaseJmod(t *testing.T) {
	t.Setenv("JAVA_BASE_JMOD", "/custom/java.base.jmod")
	assert.Equal(t, "/custom/java.base.jmod", FindJavaBaseJmod())

	home := t.TempDir()
	jmod := filepath.Join(home, "jmods", "java.base.jmod")
	classtest.WriteFile(t, jmod, nil)
	t.Setenv("JAVA_BASE_JMOD", "")
	t.Setenv("JAVA_HOME", home)
	assert.Equal(t, jmod, FindJavaBaseJmod())
}
