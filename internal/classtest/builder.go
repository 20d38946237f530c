// Package classtest assembles class files, jars and jmods in memory for
// tests, so fixtures do not depend on a JDK being installed.
package classtest

import (
	"encoding/binary"
	"math"
)

// Attr is an attribute ready to be written: a name and a raw payload.
type Attr struct {
	Name string
	Data []byte
}

// Handler is an exception_table entry. An empty CatchType writes 0.
type Handler struct {
	StartPC, EndPC, HandlerPC uint16
	CatchType                 string
}

type member struct {
	flags      uint16
	name, desc string
	attrs      []Attr
}

// Class builds a class file. The zero value is not usable; call New.
type Class struct {
	pool    [][]byte
	slots   uint16
	utf8    map[string]uint16
	classes map[string]uint16

	major, minor uint16
	flags        uint16
	name         string
	super        string
	interfaces   []string
	fields       []member
	methods      []member
	attrs        []Attr
}

// New starts a public class named name extending java/lang/Object,
// targeting Java 17.
func New(name string) *Class {
	return &Class{
		slots:   1,
		utf8:    map[string]uint16{},
		classes: map[string]uint16{},
		major:   61,
		flags:   0x0021,
		name:    name,
		super:   "java/lang/Object",
	}
}

func (c *Class) Version(major, minor uint16) *Class {
	c.major, c.minor = major, minor
	return c
}

func (c *Class) Flags(flags uint16) *Class {
	c.flags = flags
	return c
}

// Super sets the superclass. An empty name writes super_class 0.
func (c *Class) Super(name string) *Class {
	c.super = name
	return c
}

func (c *Class) Implements(names ...string) *Class {
	c.interfaces = append(c.interfaces, names...)
	return c
}

func (c *Class) Field(flags uint16, name, desc string, attrs ...Attr) *Class {
	c.fields = append(c.fields, member{flags, name, desc, attrs})
	return c
}

func (c *Class) Method(flags uint16, name, desc string, attrs ...Attr) *Class {
	c.methods = append(c.methods, member{flags, name, desc, attrs})
	return c
}

func (c *Class) Attribute(attrs ...Attr) *Class {
	c.attrs = append(c.attrs, attrs...)
	return c
}

// SourceFile adds a SourceFile attribute.
func (c *Class) SourceFile(path string) *Class {
	return c.Attribute(Attr{Name: "SourceFile", Data: u2(c.Utf8(path))})
}

func (c *Class) add(entry []byte, slots uint16) uint16 {
	idx := c.slots
	c.pool = append(c.pool, entry)
	c.slots += slots
	return idx
}

// Utf8 interns s and returns its pool index.
func (c *Class) Utf8(s string) uint16 {
	if idx, ok := c.utf8[s]; ok {
		return idx
	}
	b := append([]byte{1}, u2(uint16(len(s)))...)
	idx := c.add(append(b, s...), 1)
	c.utf8[s] = idx
	return idx
}

// Class interns a CONSTANT_Class for name.
func (c *Class) Class(name string) uint16 {
	if idx, ok := c.classes[name]; ok {
		return idx
	}
	nameIdx := c.Utf8(name)
	idx := c.add(append([]byte{7}, u2(nameIdx)...), 1)
	c.classes[name] = idx
	return idx
}

func (c *Class) StringConst(s string) uint16 {
	return c.add(append([]byte{8}, u2(c.Utf8(s))...), 1)
}

func (c *Class) Integer(v int32) uint16 {
	return c.add(append([]byte{3}, u4(uint32(v))...), 1)
}

// Long adds a CONSTANT_Long, which occupies two slots.
func (c *Class) Long(v int64) uint16 {
	return c.add(append([]byte{5}, u8(uint64(v))...), 2)
}

// Double adds a CONSTANT_Double, which occupies two slots.
func (c *Class) Double(v float64) uint16 {
	return c.add(append([]byte{6}, u8(math.Float64bits(v))...), 2)
}

func (c *Class) NameAndType(name, desc string) uint16 {
	n, d := c.Utf8(name), c.Utf8(desc)
	return c.add(append(append([]byte{12}, u2(n)...), u2(d)...), 1)
}

func (c *Class) Fieldref(class, name, desc string) uint16 {
	cl, nat := c.Class(class), c.NameAndType(name, desc)
	return c.add(append(append([]byte{9}, u2(cl)...), u2(nat)...), 1)
}

func (c *Class) Methodref(class, name, desc string) uint16 {
	cl, nat := c.Class(class), c.NameAndType(name, desc)
	return c.add(append(append([]byte{10}, u2(cl)...), u2(nat)...), 1)
}

// Raw appends an arbitrary pool entry occupying one slot.
func (c *Class) Raw(entry []byte) uint16 {
	return c.add(entry, 1)
}

// Code builds a Code attribute. Catch types are interned into the pool.
func (c *Class) Code(maxStack, maxLocals uint16, code []byte, handlers []Handler, attrs ...Attr) Attr {
	var b []byte
	b = append(b, u2(maxStack)...)
	b = append(b, u2(maxLocals)...)
	b = append(b, u4(uint32(len(code)))...)
	b = append(b, code...)
	b = append(b, u2(uint16(len(handlers)))...)
	for _, h := range handlers {
		var catch uint16
		if h.CatchType != "" {
			catch = c.Class(h.CatchType)
		}
		b = append(b, u2(h.StartPC)...)
		b = append(b, u2(h.EndPC)...)
		b = append(b, u2(h.HandlerPC)...)
		b = append(b, u2(catch)...)
	}
	b = append(b, c.attributes(attrs)...)
	return Attr{Name: "Code", Data: b}
}

// LineNumbers builds a LineNumberTable from (start_pc, line) pairs.
func LineNumbers(pairs ...[2]uint16) Attr {
	b := u2(uint16(len(pairs)))
	for _, p := range pairs {
		b = append(b, u2(p[0])...)
		b = append(b, u2(p[1])...)
	}
	return Attr{Name: "LineNumberTable", Data: b}
}

// Signature builds a Signature attribute.
func (c *Class) Signature(sig string) Attr {
	return Attr{Name: "Signature", Data: u2(c.Utf8(sig))}
}

func (c *Class) attributes(attrs []Attr) []byte {
	b := u2(uint16(len(attrs)))
	for _, a := range attrs {
		b = append(b, u2(c.Utf8(a.Name))...)
		b = append(b, u4(uint32(len(a.Data)))...)
		b = append(b, a.Data...)
	}
	return b
}

func (c *Class) members(ms []member) []byte {
	b := u2(uint16(len(ms)))
	for _, m := range ms {
		b = append(b, u2(m.flags)...)
		b = append(b, u2(c.Utf8(m.name))...)
		b = append(b, u2(c.Utf8(m.desc))...)
		b = append(b, c.attributes(m.attrs)...)
	}
	return b
}

// Bytes encodes the class file. Everything after the constant pool is
// encoded first so that the names it interns land in the pool.
func (c *Class) Bytes() []byte {
	var body []byte
	body = append(body, u2(c.flags)...)
	body = append(body, u2(c.Class(c.name))...)
	var super uint16
	if c.super != "" {
		super = c.Class(c.super)
	}
	body = append(body, u2(super)...)
	body = append(body, u2(uint16(len(c.interfaces)))...)
	for _, iface := range c.interfaces {
		body = append(body, u2(c.Class(iface))...)
	}
	body = append(body, c.members(c.fields)...)
	body = append(body, c.members(c.methods)...)
	body = append(body, c.attributes(c.attrs)...)

	out := []byte{0xCA, 0xFE, 0xBA, 0xBE}
	out = append(out, u2(c.minor)...)
	out = append(out, u2(c.major)...)
	out = append(out, u2(c.slots)...)
	for _, e := range c.pool {
		out = append(out, e...)
	}
	return append(out, body...)
}

func u2(v uint16) []byte { return binary.BigEndian.AppendUint16(nil, v) }
func u4(v uint32) []byte { return binary.BigEndian.AppendUint32(nil, v) }
func u8(v uint64) []byte { return binary.BigEndian.AppendUint64(nil, v) }
