// Package fqname models fully qualified JVM type names such as
// "java/lang/Object". Names may be written with either '/' or '.' between
// segments; both spellings of the same path compare and hash equally.
//
// View wraps an existing string without copying it. Name owns its text and
// is the form used as a map key. Use View.ToOwned to convert.
package fqname

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
)

// ErrInvalid is returned for text that is not a fully qualified name.
var ErrInvalid = errors.New("invalid fully qualified name")

// FullyQualified is implemented by View and Name.
type FullyQualified interface {
	// Key returns the normalized '/'-separated path.
	Key() string
	// Hash returns a hash of Key. Views and Names holding the same path
	// hash identically.
	Hash() uint64
	String() string

	raw() string
}

// View is a validated, non-owning view over a fully qualified name.
type View struct {
	s string
}

// NewView validates s and wraps it without copying.
func NewView(s string) (View, error) {
	if err := validate(s); err != nil {
		return View{}, err
	}
	return View{s: s}, nil
}

// MustView is like NewView but panics on invalid input. Intended for
// literals.
func MustView(s string) View {
	v, err := NewView(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v View) raw() string { return v.s }

// String returns the text exactly as it was given.
func (v View) String() string { return v.s }

func (v View) Key() string { return normalize(v.s) }

func (v View) Hash() uint64 { return xxh3.HashString(v.Key()) }

// IsZero reports whether v was never assigned.
func (v View) IsZero() bool { return v.s == "" }

// ToOwned copies the view into an independent Name.
func (v View) ToOwned() Name {
	return Name{key: strings.Clone(normalize(v.s))}
}

// Name is an owned fully qualified name, stored in '/' form. The zero
// Name is valid and represents "no name".
type Name struct {
	key string
}

// New validates s and returns an owned Name.
func New(s string) (Name, error) {
	v, err := NewView(s)
	if err != nil {
		return Name{}, err
	}
	return v.ToOwned(), nil
}

// Must is like New but panics on invalid input.
func Must(s string) Name {
	n, err := New(s)
	if err != nil {
		panic(err)
	}
	return n
}

func (n Name) raw() string { return n.key }

// String returns the '/'-separated internal form, e.g. "java/lang/Object".
func (n Name) String() string { return n.key }

func (n Name) Key() string { return n.key }

func (n Name) Hash() uint64 { return xxh3.HashString(n.key) }

func (n Name) IsZero() bool { return n.key == "" }

// View returns a view over the owned text.
func (n Name) View() View { return View{s: n.key} }

// Dotted returns the source form, e.g. "java.lang.Object".
func (n Name) Dotted() string { return strings.ReplaceAll(n.key, "/", ".") }

// ClassFile returns the classpath-relative resource path of the class,
// e.g. "java/lang/Object.class".
func (n Name) ClassFile() string { return n.key + ".class" }

// SimpleName returns the last segment.
func (n Name) SimpleName() string {
	if i := strings.LastIndexByte(n.key, '/'); i >= 0 {
		return n.key[i+1:]
	}
	return n.key
}

// Package returns everything before the last segment, or "" for the
// default package.
func (n Name) Package() string {
	if i := strings.LastIndexByte(n.key, '/'); i >= 0 {
		return n.key[:i]
	}
	return ""
}

// Equal reports whether a and b name the same path, regardless of which
// separator each was written with. It does not allocate.
func Equal(a, b FullyQualified) bool {
	x, y := a.raw(), b.raw()
	if len(x) != len(y) {
		return false
	}
	for i := 0; i < len(x); i++ {
		if sep(x[i]) != sep(y[i]) {
			return false
		}
	}
	return true
}

func sep(c byte) byte {
	if c == '.' {
		return '/'
	}
	return c
}

func normalize(s string) string {
	if strings.IndexByte(s, '.') < 0 {
		return s
	}
	return strings.ReplaceAll(s, ".", "/")
}

// validate follows JVMS §4.2.1: segments are non-empty and may not contain
// ';' or '['.
func validate(s string) error {
	if s == "" {
		return fmt.Errorf("%w: empty", ErrInvalid)
	}
	start := 0
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != '/' && s[i] != '.' {
			switch s[i] {
			case ';', '[':
				return fmt.Errorf("%w: %q contains %q", ErrInvalid, s, s[i])
			}
			continue
		}
		if i == start {
			return fmt.Errorf("%w: %q has an empty segment", ErrInvalid, s)
		}
		start = i + 1
	}
	return nil
}
