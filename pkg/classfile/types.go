package classfile

import "strings"

// AccessFlags is the access_flags bit set of a class, field or method.
type AccessFlags uint16

const (
	AccPublic       AccessFlags = 0x0001
	AccPrivate      AccessFlags = 0x0002
	AccProtected    AccessFlags = 0x0004
	AccStatic       AccessFlags = 0x0008
	AccFinal        AccessFlags = 0x0010
	AccSuper        AccessFlags = 0x0020
	AccSynchronized AccessFlags = 0x0020
	AccVolatile     AccessFlags = 0x0040
	AccBridge       AccessFlags = 0x0040
	AccTransient    AccessFlags = 0x0080
	AccVarargs      AccessFlags = 0x0080
	AccNative       AccessFlags = 0x0100
	AccInterface    AccessFlags = 0x0200
	AccAbstract     AccessFlags = 0x0400
	AccStrict       AccessFlags = 0x0800
	AccSynthetic    AccessFlags = 0x1000
	AccAnnotation   AccessFlags = 0x2000
	AccEnum         AccessFlags = 0x4000
	AccModule       AccessFlags = 0x8000
)

func (f AccessFlags) IsPublic() bool    { return f&AccPublic != 0 }
func (f AccessFlags) IsPrivate() bool   { return f&AccPrivate != 0 }
func (f AccessFlags) IsProtected() bool { return f&AccProtected != 0 }
func (f AccessFlags) IsStatic() bool    { return f&AccStatic != 0 }
func (f AccessFlags) IsFinal() bool     { return f&AccFinal != 0 }
func (f AccessFlags) IsInterface() bool { return f&AccInterface != 0 }
func (f AccessFlags) IsAbstract() bool  { return f&AccAbstract != 0 }
func (f AccessFlags) IsNative() bool    { return f&AccNative != 0 }
func (f AccessFlags) IsSynthetic() bool { return f&AccSynthetic != 0 }
func (f AccessFlags) IsEnum() bool      { return f&AccEnum != 0 }

// FieldModifiers renders the flags as Java field modifiers.
func (f AccessFlags) FieldModifiers() string {
	return f.modifiers([]modifier{
		{AccPublic, "public"}, {AccPrivate, "private"}, {AccProtected, "protected"},
		{AccStatic, "static"}, {AccFinal, "final"},
		{AccTransient, "transient"}, {AccVolatile, "volatile"},
	})
}

// MethodModifiers renders the flags as Java method modifiers.
func (f AccessFlags) MethodModifiers() string {
	return f.modifiers([]modifier{
		{AccPublic, "public"}, {AccPrivate, "private"}, {AccProtected, "protected"},
		{AccAbstract, "abstract"}, {AccStatic, "static"}, {AccFinal, "final"},
		{AccSynchronized, "synchronized"}, {AccNative, "native"}, {AccStrict, "strictfp"},
	})
}

type modifier struct {
	bit  AccessFlags
	word string
}

func (f AccessFlags) modifiers(table []modifier) string {
	var words []string
	for _, m := range table {
		if f&m.bit != 0 {
			words = append(words, m.word)
		}
	}
	return strings.Join(words, " ")
}

// ClassFile is the raw, untranslated class file structure (JVMS §4.1).
// Indices refer into ConstantPool and are resolved by Class.
type ClassFile struct {
	Magic        uint32
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool *Pool
	AccessFlags  AccessFlags
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []MemberInfo
	Methods      []MemberInfo
	Attributes   []AttributeInfo
}

// MemberInfo is a raw field_info or method_info record.
type MemberInfo struct {
	AccessFlags     AccessFlags
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

// AttributeInfo is a raw attribute: a name index and an opaque payload.
type AttributeInfo struct {
	NameIndex uint16
	Data      []byte
}
