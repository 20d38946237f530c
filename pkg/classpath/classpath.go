// Package classpath gives file-system-like access to a JVM classpath: an
// ordered list of directories, jar/zip archives, jmods and single class
// files. Lookups are first-match-wins in entry order.
package classpath

import (
	"os"
	"path/filepath"
	"strings"
)

// Classpath is an ordered list of entries. The zero value is an empty
// classpath.
type Classpath struct {
	entries []string
}

// New returns a classpath holding entries in order.
func New(entries ...string) Classpath {
	return Classpath{entries: append([]string(nil), entries...)}
}

// Parse splits s on the OS list separator (':' on Unix, ';' on Windows).
// Empty elements are dropped.
func Parse(s string) Classpath {
	var cp Classpath
	for _, e := range filepath.SplitList(s) {
		if e != "" {
			cp.entries = append(cp.entries, e)
		}
	}
	return cp
}

// PushFront adds an entry that takes precedence over all others.
func (cp *Classpath) PushFront(entry string) {
	cp.entries = append([]string{entry}, cp.entries...)
}

// PushBack adds an entry with the lowest precedence.
func (cp *Classpath) PushBack(entry string) {
	cp.entries = append(cp.entries, entry)
}

// Join returns cp followed by other.
func (cp Classpath) Join(other Classpath) Classpath {
	out := make([]string, 0, len(cp.entries)+len(other.entries))
	out = append(out, cp.entries...)
	return Classpath{entries: append(out, other.entries...)}
}

// Entries returns a copy of the entries in precedence order.
func (cp Classpath) Entries() []string {
	return append([]string(nil), cp.entries...)
}

func (cp Classpath) Len() int { return len(cp.entries) }

func (cp Classpath) IsEmpty() bool { return len(cp.entries) == 0 }

// String joins the entries with the OS list separator, the form the java
// launcher accepts for -cp.
func (cp Classpath) String() string {
	return strings.Join(cp.entries, string(os.PathListSeparator))
}
