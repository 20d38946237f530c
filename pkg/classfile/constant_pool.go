package classfile

import (
	"fmt"
	"math"
)

// ConstantTag identifies the kind of a constant pool entry.
type ConstantTag uint8

// Constant pool tags
const (
	TagUtf8               ConstantTag = 1
	TagInteger            ConstantTag = 3
	TagFloat              ConstantTag = 4
	TagLong               ConstantTag = 5
	TagDouble             ConstantTag = 6
	TagClass              ConstantTag = 7
	TagString             ConstantTag = 8
	TagFieldref           ConstantTag = 9
	TagMethodref          ConstantTag = 10
	TagInterfaceMethodref ConstantTag = 11
	TagNameAndType        ConstantTag = 12
	TagMethodHandle       ConstantTag = 15
	TagMethodType         ConstantTag = 16
	TagDynamic            ConstantTag = 17
	TagInvokeDynamic      ConstantTag = 18
	TagModule             ConstantTag = 19
	TagPackage            ConstantTag = 20
)

var tagNames = map[ConstantTag]string{
	TagUtf8:               "Utf8",
	TagInteger:            "Integer",
	TagFloat:              "Float",
	TagLong:               "Long",
	TagDouble:             "Double",
	TagClass:              "Class",
	TagString:             "String",
	TagFieldref:           "Fieldref",
	TagMethodref:          "Methodref",
	TagInterfaceMethodref: "InterfaceMethodref",
	TagNameAndType:        "NameAndType",
	TagMethodHandle:       "MethodHandle",
	TagMethodType:         "MethodType",
	TagDynamic:            "Dynamic",
	TagInvokeDynamic:      "InvokeDynamic",
	TagModule:             "Module",
	TagPackage:            "Package",
}

func (t ConstantTag) String() string {
	if s, ok := tagNames[t]; ok {
		return s
	}
	return fmt.Sprintf("tag(%d)", uint8(t))
}

// ConstantPoolEntry is an interface implemented by all constant pool types.
type ConstantPoolEntry interface {
	Tag() ConstantTag
}

// ConstantUtf8 keeps the raw modified UTF-8 bytes alongside the decoded
// text. Value is lossy: invalid sequences are replaced with U+FFFD.
type ConstantUtf8 struct {
	Bytes []byte
	Value string
}

func (c *ConstantUtf8) Tag() ConstantTag { return TagUtf8 }

type ConstantInteger struct {
	Value int32
}

func (c *ConstantInteger) Tag() ConstantTag { return TagInteger }

type ConstantFloat struct {
	Value float32
}

func (c *ConstantFloat) Tag() ConstantTag { return TagFloat }

type ConstantLong struct {
	Value int64
}

func (c *ConstantLong) Tag() ConstantTag { return TagLong }

type ConstantDouble struct {
	Value float64
}

func (c *ConstantDouble) Tag() ConstantTag { return TagDouble }

type ConstantClass struct {
	NameIndex uint16
}

func (c *ConstantClass) Tag() ConstantTag { return TagClass }

type ConstantString struct {
	StringIndex uint16
}

func (c *ConstantString) Tag() ConstantTag { return TagString }

type ConstantFieldref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantFieldref) Tag() ConstantTag { return TagFieldref }

type ConstantMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantMethodref) Tag() ConstantTag { return TagMethodref }

type ConstantInterfaceMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantInterfaceMethodref) Tag() ConstantTag { return TagInterfaceMethodref }

type ConstantNameAndType struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (c *ConstantNameAndType) Tag() ConstantTag { return TagNameAndType }

type ConstantMethodHandle struct {
	ReferenceKind  uint8
	ReferenceIndex uint16
}

func (c *ConstantMethodHandle) Tag() ConstantTag { return TagMethodHandle }

type ConstantMethodType struct {
	DescriptorIndex uint16
}

func (c *ConstantMethodType) Tag() ConstantTag { return TagMethodType }

// ConstantDynamic covers both CONSTANT_Dynamic and CONSTANT_InvokeDynamic,
// which share a layout.
type ConstantDynamic struct {
	tag                      ConstantTag
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (c *ConstantDynamic) Tag() ConstantTag { return c.tag }

// ConstantModule covers CONSTANT_Module and CONSTANT_Package.
type ConstantModule struct {
	tag       ConstantTag
	NameIndex uint16
}

func (c *ConstantModule) Tag() ConstantTag { return c.tag }

// Pool is a decoded constant pool. Indices are 1-based; index 0 and the
// slot following a Long or Double hold no entry.
type Pool struct {
	entries []ConstantPoolEntry
}

// NewPool wraps entries, where entries[0] must be nil.
func NewPool(entries []ConstantPoolEntry) *Pool {
	return &Pool{entries: entries}
}

// Len returns constant_pool_count: one more than the highest valid index.
func (p *Pool) Len() int { return len(p.entries) }

// Get returns the entry at index, or false for index 0, an out of range
// index, or an unusable slot.
func (p *Pool) Get(index uint16) (ConstantPoolEntry, bool) {
	if index == 0 || int(index) >= len(p.entries) || p.entries[index] == nil {
		return nil, false
	}
	return p.entries[index], true
}

func (p *Pool) lookup(index uint16, want ConstantTag) (ConstantPoolEntry, error) {
	e, ok := p.Get(index)
	if !ok {
		return nil, &ReferenceError{Index: index, Want: want.String()}
	}
	if e.Tag() != want {
		return nil, &ReferenceError{Index: index, Want: want.String(), Got: e.Tag().String()}
	}
	return e, nil
}

// Utf8 returns the decoded text of the Utf8 entry at index.
func (p *Pool) Utf8(index uint16) (string, error) {
	e, err := p.lookup(index, TagUtf8)
	if err != nil {
		return "", err
	}
	return e.(*ConstantUtf8).Value, nil
}

// String follows a String entry to its Utf8 payload. A Utf8 entry is
// returned directly.
func (p *Pool) String(index uint16) (string, error) {
	e, ok := p.Get(index)
	if !ok {
		return "", &ReferenceError{Index: index, Want: "String or Utf8"}
	}
	switch c := e.(type) {
	case *ConstantUtf8:
		return c.Value, nil
	case *ConstantString:
		return p.Utf8(c.StringIndex)
	default:
		return "", &ReferenceError{Index: index, Want: "String or Utf8", Got: e.Tag().String()}
	}
}

// ClassName returns the name referenced by the Class entry at index.
func (p *Pool) ClassName(index uint16) (string, error) {
	e, err := p.lookup(index, TagClass)
	if err != nil {
		return "", err
	}
	name, err := p.Utf8(e.(*ConstantClass).NameIndex)
	if err != nil {
		return "", fmt.Errorf("resolving class name at index %d: %w", index, err)
	}
	return name, nil
}

// NameAndType resolves the NameAndType entry at index.
func (p *Pool) NameAndType(index uint16) (name, descriptor string, err error) {
	e, err := p.lookup(index, TagNameAndType)
	if err != nil {
		return "", "", err
	}
	nat := e.(*ConstantNameAndType)
	if name, err = p.Utf8(nat.NameIndex); err != nil {
		return "", "", fmt.Errorf("resolving name: %w", err)
	}
	if descriptor, err = p.Utf8(nat.DescriptorIndex); err != nil {
		return "", "", fmt.Errorf("resolving descriptor: %w", err)
	}
	return name, descriptor, nil
}

// MemberRef is a resolved Fieldref, Methodref or InterfaceMethodref.
type MemberRef struct {
	ClassName  string
	Name       string
	Descriptor string
}

// Fieldref resolves a CONSTANT_Fieldref entry.
func (p *Pool) Fieldref(index uint16) (*MemberRef, error) {
	e, err := p.lookup(index, TagFieldref)
	if err != nil {
		return nil, err
	}
	ref := e.(*ConstantFieldref)
	return p.memberRef("Fieldref", ref.ClassIndex, ref.NameAndTypeIndex)
}

// Methodref resolves a CONSTANT_Methodref entry.
func (p *Pool) Methodref(index uint16) (*MemberRef, error) {
	e, err := p.lookup(index, TagMethodref)
	if err != nil {
		return nil, err
	}
	ref := e.(*ConstantMethodref)
	return p.memberRef("Methodref", ref.ClassIndex, ref.NameAndTypeIndex)
}

// InterfaceMethodref resolves a CONSTANT_InterfaceMethodref entry.
func (p *Pool) InterfaceMethodref(index uint16) (*MemberRef, error) {
	e, err := p.lookup(index, TagInterfaceMethodref)
	if err != nil {
		return nil, err
	}
	ref := e.(*ConstantInterfaceMethodref)
	return p.memberRef("InterfaceMethodref", ref.ClassIndex, ref.NameAndTypeIndex)
}

func (p *Pool) memberRef(kind string, classIndex, natIndex uint16) (*MemberRef, error) {
	className, err := p.ClassName(classIndex)
	if err != nil {
		return nil, fmt.Errorf("resolving %s class: %w", kind, err)
	}
	name, desc, err := p.NameAndType(natIndex)
	if err != nil {
		return nil, fmt.Errorf("resolving %s name and type: %w", kind, err)
	}
	return &MemberRef{ClassName: className, Name: name, Descriptor: desc}, nil
}

// parseConstantPool reads constant_pool_count-1 slots. Long and Double
// take two slots; the second is left nil.
func parseConstantPool(r *reader, count uint16) (*Pool, error) {
	if count == 0 {
		return nil, &DecodeError{Offset: r.off, What: "constant pool count", Err: ErrMalformed}
	}
	entries := make([]ConstantPoolEntry, count)

	for i := uint16(1); i < count; i++ {
		at := r.off
		tag, err := r.u1("constant pool tag")
		if err != nil {
			return nil, fmt.Errorf("reading constant pool tag at index %d: %w", i, err)
		}

		entry, err := parseConstant(r, ConstantTag(tag))
		if err != nil {
			if err == ErrUnknownTag {
				return nil, &DecodeError{Offset: at, What: fmt.Sprintf("constant pool index %d (tag %d)", i, tag), Err: ErrUnknownTag}
			}
			return nil, fmt.Errorf("reading %s at index %d: %w", ConstantTag(tag), i, err)
		}
		entries[i] = entry

		if t := entry.Tag(); t == TagLong || t == TagDouble {
			i++
			if i >= count {
				return nil, &DecodeError{Offset: at, What: fmt.Sprintf("%s at last constant pool index %d", t, i-1), Err: ErrMalformed}
			}
		}
	}

	return &Pool{entries: entries}, nil
}

func parseConstant(r *reader, tag ConstantTag) (ConstantPoolEntry, error) {
	switch tag {
	case TagUtf8:
		length, err := r.u2("Utf8 length")
		if err != nil {
			return nil, err
		}
		b, err := r.bytes(int(length), "Utf8 bytes")
		if err != nil {
			return nil, err
		}
		return &ConstantUtf8{Bytes: b, Value: decodeModifiedUTF8(b)}, nil

	case TagInteger:
		v, err := r.u4("Integer")
		if err != nil {
			return nil, err
		}
		return &ConstantInteger{Value: int32(v)}, nil

	case TagFloat:
		v, err := r.u4("Float")
		if err != nil {
			return nil, err
		}
		return &ConstantFloat{Value: math.Float32frombits(v)}, nil

	case TagLong:
		v, err := r.u8("Long")
		if err != nil {
			return nil, err
		}
		return &ConstantLong{Value: int64(v)}, nil

	case TagDouble:
		v, err := r.u8("Double")
		if err != nil {
			return nil, err
		}
		return &ConstantDouble{Value: math.Float64frombits(v)}, nil

	case TagClass:
		v, err := r.u2("Class name_index")
		if err != nil {
			return nil, err
		}
		return &ConstantClass{NameIndex: v}, nil

	case TagString:
		v, err := r.u2("String string_index")
		if err != nil {
			return nil, err
		}
		return &ConstantString{StringIndex: v}, nil

	case TagFieldref, TagMethodref, TagInterfaceMethodref:
		classIndex, err := r.u2("class_index")
		if err != nil {
			return nil, err
		}
		natIndex, err := r.u2("name_and_type_index")
		if err != nil {
			return nil, err
		}
		switch tag {
		case TagFieldref:
			return &ConstantFieldref{ClassIndex: classIndex, NameAndTypeIndex: natIndex}, nil
		case TagMethodref:
			return &ConstantMethodref{ClassIndex: classIndex, NameAndTypeIndex: natIndex}, nil
		default:
			return &ConstantInterfaceMethodref{ClassIndex: classIndex, NameAndTypeIndex: natIndex}, nil
		}

	case TagNameAndType:
		nameIndex, err := r.u2("NameAndType name_index")
		if err != nil {
			return nil, err
		}
		descIndex, err := r.u2("NameAndType descriptor_index")
		if err != nil {
			return nil, err
		}
		return &ConstantNameAndType{NameIndex: nameIndex, DescriptorIndex: descIndex}, nil

	case TagMethodHandle:
		kind, err := r.u1("MethodHandle reference_kind")
		if err != nil {
			return nil, err
		}
		ref, err := r.u2("MethodHandle reference_index")
		if err != nil {
			return nil, err
		}
		return &ConstantMethodHandle{ReferenceKind: kind, ReferenceIndex: ref}, nil

	case TagMethodType:
		v, err := r.u2("MethodType descriptor_index")
		if err != nil {
			return nil, err
		}
		return &ConstantMethodType{DescriptorIndex: v}, nil

	case TagDynamic, TagInvokeDynamic:
		bsm, err := r.u2("bootstrap_method_attr_index")
		if err != nil {
			return nil, err
		}
		nat, err := r.u2("name_and_type_index")
		if err != nil {
			return nil, err
		}
		return &ConstantDynamic{tag: tag, BootstrapMethodAttrIndex: bsm, NameAndTypeIndex: nat}, nil

	case TagModule, TagPackage:
		v, err := r.u2("name_index")
		if err != nil {
			return nil, err
		}
		return &ConstantModule{tag: tag, NameIndex: v}, nil

	default:
		return nil, ErrUnknownTag
	}
}
