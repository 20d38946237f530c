// Package descriptor parses JVM field and method descriptors (JVMS §4.3)
// into a small typed tree and encodes them back.
//
//	FieldType  := 'Z' | 'B' | 'C' | 'S' | 'I' | 'J' | 'F' | 'D' | 'V'
//	            | 'L' ClassName ';' | '[' FieldType
//	MethodType := '(' FieldType* ')' FieldType
//
// Parsing is the exact inverse of encoding: Parse(s).Descriptor() == s for
// every s that Parse accepts.
package descriptor

import (
	"strings"

	"github.com/daimatz/jclass/pkg/fqname"
)

// Signature is one of Primitive, Object, Array or Method.
type Signature interface {
	// Descriptor encodes the signature in descriptor form.
	Descriptor() string
	// String renders the signature the way it would appear in Java source.
	String() string

	encode(b *strings.Builder)
}

// Primitive is a base type, identified by its descriptor character.
type Primitive byte

const (
	Boolean Primitive = 'Z'
	Byte    Primitive = 'B'
	Char    Primitive = 'C'
	Short   Primitive = 'S'
	Int     Primitive = 'I'
	Long    Primitive = 'J'
	Float   Primitive = 'F'
	Double  Primitive = 'D'
	Void    Primitive = 'V'
)

var primitiveNames = map[Primitive]string{
	Boolean: "boolean",
	Byte:    "byte",
	Char:    "char",
	Short:   "short",
	Int:     "int",
	Long:    "long",
	Float:   "float",
	Double:  "double",
	Void:    "void",
}

func (p Primitive) Descriptor() string { return string(rune(p)) }

func (p Primitive) String() string { return primitiveNames[p] }

func (p Primitive) encode(b *strings.Builder) { b.WriteByte(byte(p)) }

// Object is a reference to a class or interface type.
type Object struct {
	Name fqname.Name
}

func (o Object) Descriptor() string {
	var b strings.Builder
	o.encode(&b)
	return b.String()
}

func (o Object) String() string { return o.Name.Dotted() }

func (o Object) encode(b *strings.Builder) {
	b.WriteByte('L')
	b.WriteString(o.Name.String())
	b.WriteByte(';')
}

// Array is a one-dimensional array of Elem. Multi-dimensional arrays nest.
type Array struct {
	Elem Signature
}

func (a Array) Descriptor() string {
	var b strings.Builder
	a.encode(&b)
	return b.String()
}

func (a Array) String() string { return a.Elem.String() + "[]" }

func (a Array) encode(b *strings.Builder) {
	b.WriteByte('[')
	a.Elem.encode(b)
}

// Dimensions returns the number of array dimensions.
func (a Array) Dimensions() int {
	n := 1
	for e, ok := a.Elem.(Array); ok; e, ok = e.Elem.(Array) {
		n++
	}
	return n
}

// Component returns the innermost non-array element type.
func (a Array) Component() Signature {
	var s Signature = a
	for {
		arr, ok := s.(Array)
		if !ok {
			return s
		}
		s = arr.Elem
	}
}

// Method is a method type: ordered argument types and a return type.
type Method struct {
	Args   []Signature
	Return Signature
}

func (m Method) Descriptor() string {
	var b strings.Builder
	m.encode(&b)
	return b.String()
}

// String renders the method as "ret (arg1, arg2)".
func (m Method) String() string {
	args := make([]string, len(m.Args))
	for i, a := range m.Args {
		args[i] = a.String()
	}
	return m.Return.String() + " (" + strings.Join(args, ", ") + ")"
}

func (m Method) encode(b *strings.Builder) {
	b.WriteByte('(')
	for _, a := range m.Args {
		a.encode(b)
	}
	b.WriteByte(')')
	m.Return.encode(b)
}

// ArgSlots returns the number of local variable slots the arguments
// occupy; long and double take two.
func (m Method) ArgSlots() int {
	n := 0
	for _, a := range m.Args {
		if a == Long || a == Double {
			n += 2
		} else {
			n++
		}
	}
	return n
}
