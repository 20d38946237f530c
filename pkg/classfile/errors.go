package classfile

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated     = errors.New("unexpected end of data")
	ErrTrailingBytes = errors.New("trailing bytes")
	ErrBadMagic      = errors.New("invalid magic number")
	ErrUnknownTag    = errors.New("unknown constant pool tag")
	ErrMalformed     = errors.New("malformed class file")

	// ErrNoAttribute is returned when a requested attribute is absent.
	ErrNoAttribute = errors.New("attribute not present")
)

// DecodeError reports a structural problem in the byte stream.
type DecodeError struct {
	Offset int
	What   string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s at offset %d: %v", e.What, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ReferenceError reports a constant pool index that is missing or refers
// to an entry of the wrong kind.
type ReferenceError struct {
	Index uint16
	Want  string
	// Got is the kind found at Index, or "" when there is no entry.
	Got string
}

func (e *ReferenceError) Error() string {
	if e.Got == "" {
		return fmt.Sprintf("constant pool index %d: no entry (want %s)", e.Index, e.Want)
	}
	return fmt.Sprintf("constant pool index %d: want %s, got %s", e.Index, e.Want, e.Got)
}

// AttributeError wraps a failure to resolve the payload of a recognized
// attribute.
type AttributeError struct {
	Name string
	Err  error
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("resolving attribute %s: %v", e.Name, e.Err)
}

func (e *AttributeError) Unwrap() error { return e.Err }
