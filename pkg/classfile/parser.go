package classfile

import (
	"fmt"
	"io"
	"os"
)

const classMagic = 0xCAFEBABE

// ParseFile reads and parses a .class file from the given path.
func ParseFile(path string) (*ClassFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBytes(data)
}

// Parse reads a whole .class file from r and returns the raw ClassFile.
func Parse(r io.Reader) (*ClassFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading class file: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes decodes a class file. The whole buffer must be consumed.
// Attribute payloads in the result share memory with data.
func ParseBytes(data []byte) (*ClassFile, error) {
	r := newReader(data)
	cf, err := parseHeader(r)
	if err != nil {
		return nil, err
	}

	// Interfaces
	interfacesCount, err := r.u2("interfaces count")
	if err != nil {
		return nil, err
	}
	cf.Interfaces = make([]uint16, interfacesCount)
	for i := range cf.Interfaces {
		if cf.Interfaces[i], err = r.u2("interface index"); err != nil {
			return nil, fmt.Errorf("reading interface %d: %w", i, err)
		}
	}

	// Fields
	if cf.Fields, err = parseMembers(r, "field"); err != nil {
		return nil, fmt.Errorf("parsing fields: %w", err)
	}

	// Methods
	if cf.Methods, err = parseMembers(r, "method"); err != nil {
		return nil, fmt.Errorf("parsing methods: %w", err)
	}

	// Class-level attributes
	if cf.Attributes, err = parseAttributeInfos(r); err != nil {
		return nil, fmt.Errorf("parsing class attributes: %w", err)
	}

	if err := r.expectEOF("end of class file"); err != nil {
		return nil, err
	}
	return cf, nil
}

// parseHeader decodes everything up to and including super_class.
func parseHeader(r *reader) (*ClassFile, error) {
	cf := &ClassFile{}
	var err error

	// Magic number
	if cf.Magic, err = r.u4("magic number"); err != nil {
		return nil, err
	}
	if cf.Magic != classMagic {
		return nil, &DecodeError{
			Offset: 0,
			What:   fmt.Sprintf("magic number 0x%X (expected 0xCAFEBABE)", cf.Magic),
			Err:    ErrBadMagic,
		}
	}

	// Version
	if cf.MinorVersion, err = r.u2("minor version"); err != nil {
		return nil, err
	}
	if cf.MajorVersion, err = r.u2("major version"); err != nil {
		return nil, err
	}

	// Constant pool
	cpCount, err := r.u2("constant pool count")
	if err != nil {
		return nil, err
	}
	if cf.ConstantPool, err = parseConstantPool(r, cpCount); err != nil {
		return nil, fmt.Errorf("parsing constant pool: %w", err)
	}

	// Access flags, this_class, super_class
	flags, err := r.u2("access flags")
	if err != nil {
		return nil, err
	}
	cf.AccessFlags = AccessFlags(flags)
	if cf.ThisClass, err = r.u2("this_class"); err != nil {
		return nil, err
	}
	if cf.SuperClass, err = r.u2("super_class"); err != nil {
		return nil, err
	}
	return cf, nil
}

// PeekName decodes only as far as this_class and returns the class's
// declared name, without validating the rest of the file.
func PeekName(data []byte) (string, error) {
	cf, err := parseHeader(newReader(data))
	if err != nil {
		return "", err
	}
	name, err := cf.ConstantPool.ClassName(cf.ThisClass)
	if err != nil {
		return "", fmt.Errorf("resolving this_class: %w", err)
	}
	return name, nil
}

func parseMembers(r *reader, kind string) ([]MemberInfo, error) {
	count, err := r.u2(kind + "s count")
	if err != nil {
		return nil, err
	}
	members := make([]MemberInfo, count)
	for i := range members {
		m := &members[i]
		flags, err := r.u2(kind + " access flags")
		if err != nil {
			return nil, fmt.Errorf("reading %s %d: %w", kind, i, err)
		}
		m.AccessFlags = AccessFlags(flags)
		if m.NameIndex, err = r.u2(kind + " name index"); err != nil {
			return nil, fmt.Errorf("reading %s %d: %w", kind, i, err)
		}
		if m.DescriptorIndex, err = r.u2(kind + " descriptor index"); err != nil {
			return nil, fmt.Errorf("reading %s %d: %w", kind, i, err)
		}
		if m.Attributes, err = parseAttributeInfos(r); err != nil {
			return nil, fmt.Errorf("parsing %s %d attributes: %w", kind, i, err)
		}
	}
	return members, nil
}

// parseAttributeInfos reads a u2 count followed by that many raw
// attributes. Payloads are kept opaque.
func parseAttributeInfos(r *reader) ([]AttributeInfo, error) {
	count, err := r.u2("attributes count")
	if err != nil {
		return nil, err
	}
	attrs := make([]AttributeInfo, count)
	for i := range attrs {
		if attrs[i].NameIndex, err = r.u2("attribute name index"); err != nil {
			return nil, fmt.Errorf("reading attribute %d: %w", i, err)
		}
		length, err := r.u4("attribute length")
		if err != nil {
			return nil, fmt.Errorf("reading attribute %d: %w", i, err)
		}
		if uint64(length) > uint64(r.remaining()) {
			return nil, &DecodeError{Offset: r.off, What: fmt.Sprintf("attribute %d payload of %d bytes", i, length), Err: ErrTruncated}
		}
		if attrs[i].Data, err = r.bytes(int(length), "attribute payload"); err != nil {
			return nil, fmt.Errorf("reading attribute %d: %w", i, err)
		}
	}
	return attrs, nil
}

// ParseClass decodes data and wraps it in a Class.
func ParseClass(data []byte) (*Class, error) {
	cf, err := ParseBytes(data)
	if err != nil {
		return nil, err
	}
	return NewClass(cf)
}
