package descriptor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/daimatz/jclass/pkg/fqname"
)

// maxArrayDimensions is the JVM limit on array type dimensions.
const maxArrayDimensions = 255

var (
	ErrEmpty        = errors.New("empty descriptor")
	ErrUnterminated = errors.New("unterminated object reference")
	ErrMalformed    = errors.New("malformed descriptor")
)

// SyntaxError describes where a descriptor failed to parse.
type SyntaxError struct {
	Input  string
	Offset int
	Msg    string
	Err    error
}

func (e *SyntaxError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("descriptor %q at offset %d: %v", e.Input, e.Offset, e.Err)
	}
	return fmt.Sprintf("descriptor %q at offset %d: %v: %s", e.Input, e.Offset, e.Err, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Parse parses a field or method descriptor. The whole input must be
// consumed.
func Parse(s string) (Signature, error) {
	if s == "" {
		return nil, &SyntaxError{Input: s, Err: ErrEmpty}
	}
	p := &parser{s: s}
	var (
		sig Signature
		err error
	)
	if s[0] == '(' {
		sig, err = p.method()
	} else {
		sig, err = p.field()
	}
	if err != nil {
		return nil, err
	}
	if p.pos != len(s) {
		return nil, p.errorf(ErrMalformed, "trailing characters %q", s[p.pos:])
	}
	return sig, nil
}

// ParseField parses a descriptor that must not be a method type.
func ParseField(s string) (Signature, error) {
	sig, err := Parse(s)
	if err != nil {
		return nil, err
	}
	if _, ok := sig.(Method); ok {
		return nil, &SyntaxError{Input: s, Err: ErrMalformed, Msg: "expected a field type, found a method type"}
	}
	return sig, nil
}

// ParseMethod parses a descriptor that must be a method type.
func ParseMethod(s string) (Method, error) {
	sig, err := Parse(s)
	if err != nil {
		return Method{}, err
	}
	m, ok := sig.(Method)
	if !ok {
		return Method{}, &SyntaxError{Input: s, Err: ErrMalformed, Msg: "expected a method type"}
	}
	return m, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Signature {
	sig, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return sig
}

type parser struct {
	s   string
	pos int
}

func (p *parser) errorf(err error, format string, args ...any) *SyntaxError {
	return &SyntaxError{Input: p.s, Offset: p.pos, Err: err, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) method() (Signature, error) {
	p.pos++ // '('
	var args []Signature
	for {
		if p.pos >= len(p.s) {
			return nil, p.errorf(ErrMalformed, "missing ')'")
		}
		if p.s[p.pos] == ')' {
			p.pos++
			break
		}
		arg, err := p.field()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	ret, err := p.field()
	if err != nil {
		return nil, err
	}
	return Method{Args: args, Return: ret}, nil
}

// field parses one non-method type.
func (p *parser) field() (Signature, error) {
	dims := 0
	for p.pos < len(p.s) && p.s[p.pos] == '[' {
		dims++
		p.pos++
	}
	if dims > maxArrayDimensions {
		return nil, p.errorf(ErrMalformed, "%d array dimensions exceed %d", dims, maxArrayDimensions)
	}
	if p.pos >= len(p.s) {
		return nil, p.errorf(ErrMalformed, "unexpected end of input")
	}

	var sig Signature
	switch c := p.s[p.pos]; c {
	case 'Z', 'B', 'C', 'S', 'I', 'J', 'F', 'D', 'V':
		sig = Primitive(c)
		p.pos++
	case 'L':
		obj, err := p.object()
		if err != nil {
			return nil, err
		}
		sig = obj
	case '(':
		return nil, p.errorf(ErrMalformed, "method type is not allowed here")
	default:
		return nil, p.errorf(ErrMalformed, "unexpected %q", c)
	}

	for ; dims > 0; dims-- {
		sig = Array{Elem: sig}
	}
	return sig, nil
}

func (p *parser) object() (Signature, error) {
	start := p.pos + 1
	end := strings.IndexByte(p.s[start:], ';')
	if end < 0 {
		return nil, p.errorf(ErrUnterminated, "missing ';'")
	}
	path := p.s[start : start+end]
	if strings.IndexByte(path, '.') >= 0 {
		return nil, p.errorf(ErrMalformed, "class name %q uses '.'", path)
	}
	view, err := fqname.NewView(path)
	if err != nil {
		return nil, &SyntaxError{Input: p.s, Offset: start, Err: ErrMalformed, Msg: err.Error()}
	}
	p.pos = start + end + 1
	return Object{Name: view.ToOwned()}, nil
}
