package classtest

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/zip"
)

// JmodMagic is the header that precedes the zip data of a .jmod file.
var JmodMagic = []byte{'J', 'M', 0x01, 0x00}

// Zip returns a zip archive holding files, written in name order.
func Zip(t testing.TB, files map[string][]byte) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating zip entry %s: %v", name, err)
		}
		if _, err := w.Write(files[name]); err != nil {
			t.Fatalf("writing zip entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

// WriteJar writes files into a jar at path.
func WriteJar(t testing.TB, path string, files map[string][]byte) {
	t.Helper()
	WriteFile(t, path, Zip(t, files))
}

// WriteJmod writes a jmod at path. Class entries are placed under
// classes/ as the JDK does.
func WriteJmod(t testing.TB, path string, classes map[string][]byte) {
	t.Helper()
	files := make(map[string][]byte, len(classes))
	for name, data := range classes {
		files["classes/"+name] = data
	}
	WriteFile(t, path, append(append([]byte(nil), JmodMagic...), Zip(t, files)...))
}

// WriteClass writes data below dir at the path of the class name, e.g.
// dir/com/example/Foo.class.
func WriteClass(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name)+".class")
	WriteFile(t, path, data)
	return path
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}
