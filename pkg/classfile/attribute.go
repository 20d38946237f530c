package classfile

import (
	"fmt"

	"github.com/daimatz/jclass/pkg/bytecode"
	"github.com/daimatz/jclass/pkg/descriptor"
	"github.com/daimatz/jclass/pkg/fqname"
)

// Attribute is a resolved attribute: its name and a typed value.
type Attribute struct {
	Name  string
	Value AttributeValue
}

// AttributeValue is one of SourceFile, SignatureAttribute, *Code,
// LineNumberTable, Deprecated, BootstrapMethods or Unknown.
type AttributeValue interface {
	isAttributeValue()
}

// SourceFile names the source file the class was compiled from.
type SourceFile struct {
	Path string
}

// SignatureAttribute holds a parsed Signature attribute.
type SignatureAttribute struct {
	Signature descriptor.Signature
}

// Deprecated marks a deprecated class or member. It has no payload.
type Deprecated struct{}

// Unknown is any attribute this package does not interpret. Data is the
// payload exactly as it appeared in the file.
type Unknown struct {
	Data []byte
}

// LineNumber maps the instruction at StartPC, and those after it up to the
// next entry, to a source line.
type LineNumber struct {
	StartPC uint16
	Line    uint16
}

// LineNumberTable is a LineNumberTable attribute in file order.
type LineNumberTable []LineNumber

// Line returns the source line of the entry with the greatest StartPC not
// exceeding pc. Entries need not be sorted.
func (t LineNumberTable) Line(pc uint16) (uint16, bool) {
	var (
		best  LineNumber
		found bool
	)
	for _, e := range t {
		if e.StartPC <= pc && (!found || e.StartPC >= best.StartPC) {
			best, found = e, true
		}
	}
	return best.Line, found
}

// BootstrapMethod is one entry of the BootstrapMethods attribute.
type BootstrapMethod struct {
	MethodRef          uint16
	BootstrapArguments []uint16
}

// BootstrapMethods is the class-level table referenced by Dynamic and
// InvokeDynamic constants.
type BootstrapMethods []BootstrapMethod

// ExceptionHandler is one exception_table entry of a Code attribute.
type ExceptionHandler struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	// CatchType is the zero Name for a handler that catches everything.
	CatchType fqname.Name
}

// CatchesAll reports whether the handler is a finally-style catch-all.
func (h ExceptionHandler) CatchesAll() bool { return h.CatchType.IsZero() }

// Code is a method body. Its nested attributes are resolved on demand.
type Code struct {
	MaxStack       uint16
	MaxLocals      uint16
	Bytecode       []byte
	ExceptionTable []ExceptionHandler

	attributeSet
}

// Instructions decodes Bytecode.
func (c *Code) Instructions() ([]bytecode.Instruction, error) {
	return bytecode.Decode(c.Bytecode)
}

// LineNumberTable merges every LineNumberTable attribute nested in the
// Code attribute. A method compiled without debug information yields an
// empty table.
func (c *Code) LineNumberTable() (LineNumberTable, error) {
	var table LineNumberTable
	for i, raw := range c.raw {
		if c.names[i] != "LineNumberTable" {
			continue
		}
		attr, err := ResolveAttribute(c.pool, c.names[i], raw.Data)
		if err != nil {
			return nil, err
		}
		table = append(table, attr.Value.(LineNumberTable)...)
	}
	return table, nil
}

func (SourceFile) isAttributeValue()         {}
func (SignatureAttribute) isAttributeValue() {}
func (Deprecated) isAttributeValue()         {}
func (Unknown) isAttributeValue()            {}
func (LineNumberTable) isAttributeValue()    {}
func (BootstrapMethods) isAttributeValue()   {}
func (*Code) isAttributeValue()              {}

// AttributeHolder is implemented by everything that carries attributes:
// Class, Field, Method and Code.
type AttributeHolder interface {
	// Attributes resolves every attribute in declaration order.
	Attributes() ([]Attribute, error)
	// Attribute resolves the first attribute called name, or returns
	// ErrNoAttribute.
	Attribute(name string) (Attribute, error)
}

// attributeSet holds raw attributes with their names already resolved and
// the pool needed to decode their payloads.
type attributeSet struct {
	pool  *Pool
	raw   []AttributeInfo
	names []string
}

func newAttributeSet(pool *Pool, raw []AttributeInfo) (attributeSet, error) {
	names := make([]string, len(raw))
	for i, a := range raw {
		name, err := pool.Utf8(a.NameIndex)
		if err != nil {
			return attributeSet{}, fmt.Errorf("resolving attribute %d name: %w", i, err)
		}
		names[i] = name
	}
	return attributeSet{pool: pool, raw: raw, names: names}, nil
}

// AttributeNames lists attribute names in declaration order without
// decoding any payload.
func (s attributeSet) AttributeNames() []string {
	return append([]string(nil), s.names...)
}

func (s attributeSet) Attributes() ([]Attribute, error) {
	attrs := make([]Attribute, len(s.raw))
	for i, raw := range s.raw {
		a, err := ResolveAttribute(s.pool, s.names[i], raw.Data)
		if err != nil {
			return nil, err
		}
		attrs[i] = a
	}
	return attrs, nil
}

func (s attributeSet) Attribute(name string) (Attribute, error) {
	for i, n := range s.names {
		if n == name {
			return ResolveAttribute(s.pool, name, s.raw[i].Data)
		}
	}
	return Attribute{}, fmt.Errorf("%s: %w", name, ErrNoAttribute)
}

// ResolveAttribute decodes the payload of an attribute called name. Names
// it does not recognize yield Unknown. Errors are returned as
// *AttributeError wrapping a *DecodeError or *ReferenceError.
func ResolveAttribute(pool *Pool, name string, data []byte) (Attribute, error) {
	v, err := resolveValue(pool, name, data)
	if err != nil {
		return Attribute{}, &AttributeError{Name: name, Err: err}
	}
	return Attribute{Name: name, Value: v}, nil
}

func resolveValue(pool *Pool, name string, data []byte) (AttributeValue, error) {
	r := newReader(data)
	var (
		v   AttributeValue
		err error
	)
	switch name {
	case "SourceFile":
		v, err = parseSourceFile(r, pool)
	case "Signature":
		v, err = parseSignature(r, pool)
	case "Code":
		v, err = parseCode(r, pool)
	case "LineNumberTable":
		v, err = parseLineNumberTable(r)
	case "Deprecated":
		v = Deprecated{}
	case "BootstrapMethods":
		v, err = parseBootstrapMethods(r)
	default:
		return Unknown{Data: data}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.expectEOF(name + " payload"); err != nil {
		return nil, err
	}
	return v, nil
}

func parseSourceFile(r *reader, pool *Pool) (AttributeValue, error) {
	index, err := r.u2("sourcefile_index")
	if err != nil {
		return nil, err
	}
	path, err := pool.String(index)
	if err != nil {
		return nil, err
	}
	return SourceFile{Path: path}, nil
}

func parseSignature(r *reader, pool *Pool) (AttributeValue, error) {
	index, err := r.u2("signature_index")
	if err != nil {
		return nil, err
	}
	text, err := pool.String(index)
	if err != nil {
		return nil, err
	}
	sig, err := descriptor.Parse(text)
	if err != nil {
		return nil, err
	}
	return SignatureAttribute{Signature: sig}, nil
}

func parseCode(r *reader, pool *Pool) (AttributeValue, error) {
	c := &Code{}
	var err error
	if c.MaxStack, err = r.u2("max_stack"); err != nil {
		return nil, err
	}
	if c.MaxLocals, err = r.u2("max_locals"); err != nil {
		return nil, err
	}
	codeLength, err := r.u4("code_length")
	if err != nil {
		return nil, err
	}
	if uint64(codeLength) > uint64(r.remaining()) {
		return nil, &DecodeError{Offset: r.off, What: fmt.Sprintf("code of %d bytes", codeLength), Err: ErrTruncated}
	}
	if c.Bytecode, err = r.bytes(int(codeLength), "code"); err != nil {
		return nil, err
	}

	// Exception table
	n, err := r.u2("exception_table_length")
	if err != nil {
		return nil, err
	}
	c.ExceptionTable = make([]ExceptionHandler, n)
	for i := range c.ExceptionTable {
		h := &c.ExceptionTable[i]
		if h.StartPC, err = r.u2("start_pc"); err != nil {
			return nil, err
		}
		if h.EndPC, err = r.u2("end_pc"); err != nil {
			return nil, err
		}
		if h.HandlerPC, err = r.u2("handler_pc"); err != nil {
			return nil, err
		}
		catchType, err := r.u2("catch_type")
		if err != nil {
			return nil, err
		}
		if catchType == 0 {
			continue
		}
		className, err := pool.ClassName(catchType)
		if err != nil {
			return nil, fmt.Errorf("resolving catch type of handler %d: %w", i, err)
		}
		if h.CatchType, err = fqname.New(className); err != nil {
			return nil, fmt.Errorf("catch type of handler %d: %w", i, err)
		}
	}

	raw, err := parseAttributeInfos(r)
	if err != nil {
		return nil, err
	}
	if c.attributeSet, err = newAttributeSet(pool, raw); err != nil {
		return nil, err
	}
	return c, nil
}

func parseLineNumberTable(r *reader) (AttributeValue, error) {
	n, err := r.u2("line_number_table_length")
	if err != nil {
		return nil, err
	}
	table := make(LineNumberTable, n)
	for i := range table {
		if table[i].StartPC, err = r.u2("start_pc"); err != nil {
			return nil, err
		}
		if table[i].Line, err = r.u2("line_number"); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func parseBootstrapMethods(r *reader) (AttributeValue, error) {
	numMethods, err := r.u2("num_bootstrap_methods")
	if err != nil {
		return nil, err
	}
	methods := make(BootstrapMethods, numMethods)
	for i := range methods {
		if methods[i].MethodRef, err = r.u2("bootstrap_method_ref"); err != nil {
			return nil, fmt.Errorf("bootstrap method %d: %w", i, err)
		}
		numArgs, err := r.u2("num_bootstrap_arguments")
		if err != nil {
			return nil, fmt.Errorf("bootstrap method %d: %w", i, err)
		}
		args := make([]uint16, numArgs)
		for j := range args {
			if args[j], err = r.u2("bootstrap_argument"); err != nil {
				return nil, fmt.Errorf("bootstrap method %d argument %d: %w", i, j, err)
			}
		}
		methods[i].BootstrapArguments = args
	}
	return methods, nil
}
