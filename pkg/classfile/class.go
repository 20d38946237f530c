package classfile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/daimatz/jclass/pkg/descriptor"
	"github.com/daimatz/jclass/pkg/fqname"
)

// Class is the resolved view of a ClassFile. Every structural reference
// is checked by NewClass; attribute payloads are decoded when asked for.
type Class struct {
	file       *ClassFile
	name       fqname.Name
	super      fqname.Name
	interfaces []fqname.Name
	fields     []*Field
	methods    []*Method

	attributeSet
}

// Field is a resolved field_info.
type Field struct {
	Name        string
	Descriptor  descriptor.Signature
	AccessFlags AccessFlags

	attributeSet
}

// Method is a resolved method_info.
type Method struct {
	Name        string
	Descriptor  descriptor.Method
	AccessFlags AccessFlags

	attributeSet
}

// NewClass resolves names, descriptors and attribute names of cf. A bad
// reference anywhere is reported here rather than on first access.
func NewClass(cf *ClassFile) (*Class, error) {
	pool := cf.ConstantPool
	c := &Class{file: cf}

	name, err := className(pool, cf.ThisClass)
	if err != nil {
		return nil, fmt.Errorf("resolving this_class: %w", err)
	}
	c.name = name

	// super_class is 0 only for java/lang/Object.
	if cf.SuperClass != 0 {
		if c.super, err = className(pool, cf.SuperClass); err != nil {
			return nil, fmt.Errorf("resolving super_class of %s: %w", name, err)
		}
	}

	c.interfaces = make([]fqname.Name, len(cf.Interfaces))
	for i, idx := range cf.Interfaces {
		if c.interfaces[i], err = className(pool, idx); err != nil {
			return nil, fmt.Errorf("resolving interface %d of %s: %w", i, name, err)
		}
	}

	c.fields = make([]*Field, len(cf.Fields))
	for i, info := range cf.Fields {
		f := &Field{AccessFlags: info.AccessFlags}
		var desc string
		if f.Name, desc, err = memberNames(pool, info); err != nil {
			return nil, fmt.Errorf("resolving field %d of %s: %w", i, name, err)
		}
		if f.Descriptor, err = descriptor.ParseField(desc); err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", name, f.Name, err)
		}
		if f.attributeSet, err = newAttributeSet(pool, info.Attributes); err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", name, f.Name, err)
		}
		c.fields[i] = f
	}

	c.methods = make([]*Method, len(cf.Methods))
	for i, info := range cf.Methods {
		m := &Method{AccessFlags: info.AccessFlags}
		var desc string
		if m.Name, desc, err = memberNames(pool, info); err != nil {
			return nil, fmt.Errorf("resolving method %d of %s: %w", i, name, err)
		}
		if m.Descriptor, err = descriptor.ParseMethod(desc); err != nil {
			return nil, fmt.Errorf("method %s.%s: %w", name, m.Name, err)
		}
		if m.attributeSet, err = newAttributeSet(pool, info.Attributes); err != nil {
			return nil, fmt.Errorf("method %s.%s: %w", name, m.Name, err)
		}
		c.methods[i] = m
	}

	if c.attributeSet, err = newAttributeSet(pool, cf.Attributes); err != nil {
		return nil, fmt.Errorf("class %s: %w", name, err)
	}
	return c, nil
}

func className(pool *Pool, index uint16) (fqname.Name, error) {
	s, err := pool.ClassName(index)
	if err != nil {
		return fqname.Name{}, err
	}
	return fqname.New(s)
}

func memberNames(pool *Pool, info MemberInfo) (name, desc string, err error) {
	if name, err = pool.Utf8(info.NameIndex); err != nil {
		return "", "", fmt.Errorf("name: %w", err)
	}
	if desc, err = pool.Utf8(info.DescriptorIndex); err != nil {
		return "", "", fmt.Errorf("descriptor of %s: %w", name, err)
	}
	return name, desc, nil
}

// Name returns the fully qualified name of this class.
func (c *Class) Name() fqname.Name { return c.name }

// SuperName returns the superclass name, or the zero Name when the class
// has none.
func (c *Class) SuperName() fqname.Name { return c.super }

// HasSuper reports whether super_class is set.
func (c *Class) HasSuper() bool { return !c.super.IsZero() }

// Interfaces returns the direct superinterfaces in declaration order.
func (c *Class) Interfaces() []fqname.Name { return c.interfaces }

func (c *Class) Fields() []*Field { return c.fields }

func (c *Class) Methods() []*Method { return c.methods }

func (c *Class) AccessFlags() AccessFlags { return c.file.AccessFlags }

func (c *Class) IsInterface() bool { return c.file.AccessFlags.IsInterface() }

// Version returns the class file format version.
func (c *Class) Version() (major, minor uint16) {
	return c.file.MajorVersion, c.file.MinorVersion
}

// Pool returns the constant pool.
func (c *Class) Pool() *Pool { return c.file.ConstantPool }

// Raw returns the undecoded structure the Class was built from.
func (c *Class) Raw() *ClassFile { return c.file }

// SourceFile returns the SourceFile attribute, or "" when the class was
// compiled without one.
func (c *Class) SourceFile() (string, error) {
	attr, err := c.Attribute("SourceFile")
	if err != nil {
		if errors.Is(err, ErrNoAttribute) {
			return "", nil
		}
		return "", err
	}
	return attr.Value.(SourceFile).Path, nil
}

// FindMethod finds a method by name and descriptor.
func (c *Class) FindMethod(name, desc string) *Method {
	for _, m := range c.methods {
		if m.Name == name && m.Descriptor.Descriptor() == desc {
			return m
		}
	}
	return nil
}

// FindMethodByName finds a method by name only (first match).
func (c *Class) FindMethodByName(name string) *Method {
	for _, m := range c.methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// FindField finds a field by name.
func (c *Class) FindField(name string) *Field {
	for _, f := range c.fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// String renders a Java-like declaration header, e.g.
// "public class Square extends Rectangle implements Shape".
func (c *Class) String() string {
	var b strings.Builder
	flags := c.file.AccessFlags
	if flags.IsPublic() {
		b.WriteString("public ")
	}
	switch {
	case flags&AccAnnotation != 0:
		b.WriteString("@interface ")
	case flags.IsInterface():
		b.WriteString("interface ")
	case flags.IsEnum():
		b.WriteString("enum ")
	default:
		if flags.IsAbstract() {
			b.WriteString("abstract ")
		}
		if flags.IsFinal() {
			b.WriteString("final ")
		}
		b.WriteString("class ")
	}
	b.WriteString(c.name.Dotted())
	if c.HasSuper() && !flags.IsInterface() {
		b.WriteString(" extends ")
		b.WriteString(c.super.Dotted())
	}
	if len(c.interfaces) > 0 {
		if flags.IsInterface() {
			b.WriteString(" extends ")
		} else {
			b.WriteString(" implements ")
		}
		for i, iface := range c.interfaces {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(iface.Dotted())
		}
	}
	return b.String()
}

// Code returns the method body, or an error matching ErrNoAttribute for
// abstract and native methods.
func (m *Method) Code() (*Code, error) {
	attr, err := m.Attribute("Code")
	if err != nil {
		return nil, err
	}
	return attr.Value.(*Code), nil
}

// String renders the method like a Java declaration, e.g.
// "public static void main(java.lang.String[])".
func (m *Method) String() string {
	args := make([]string, len(m.Descriptor.Args))
	for i, a := range m.Descriptor.Args {
		args[i] = a.String()
	}
	return joinDecl(m.AccessFlags.MethodModifiers(), m.Descriptor.Return.String()+" "+m.Name+"("+strings.Join(args, ", ")+")")
}

// String renders the field like a Java declaration, e.g.
// "private final int width".
func (f *Field) String() string {
	return joinDecl(f.AccessFlags.FieldModifiers(), f.Descriptor.String()+" "+f.Name)
}

func joinDecl(mods, decl string) string {
	if mods == "" {
		return decl
	}
	return mods + " " + decl
}
