package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daimatz/jclass/internal/classtest"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func shapesDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range classtest.Shapes() {
		classtest.WriteClass(t, dir, name, data)
	}
	return dir
}

func TestInspect(t *testing.T) {
	dir := shapesDir(t)
	chdir(t, t.TempDir())

	out, err := run(t, "--classpath", dir, "inspect", "--fields", "Rectangle")
	require.NoError(t, err)
	assert.Contains(t, out, "public class Rectangle extends java.lang.Object\n")
	assert.Contains(t, out, "\nFields:\nwidth: int\nheight: int\n")
}

func TestInherits(t *testing.T) {
	dir := shapesDir(t)
	chdir(t, t.TempDir())

	out, err := run(t, "-c", dir, "inherits", "Square")
	require.NoError(t, err)
	assert.Equal(t, "Square\n  extends Rectangle\n  implements Shape\n", out)
}

func TestInspectNotFound(t *testing.T) {
	dir := shapesDir(t)
	chdir(t, t.TempDir())

	_, err := run(t, "-c", dir, "inspect", "Missing")
	assert.EqualError(t, err, "class Missing not found")
}
