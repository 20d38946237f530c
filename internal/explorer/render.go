package explorer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/daimatz/jclass/pkg/classfile"
	"github.com/daimatz/jclass/pkg/inheritance"
)

// WriteSummary prints the declaration of c followed by its source file,
// version and member counts.
func WriteSummary(w io.Writer, c *classfile.Class) error {
	source, err := c.SourceFile()
	if err != nil {
		return err
	}
	major, minor := c.Version()

	fmt.Fprintln(w, c)
	if source != "" {
		fmt.Fprintf(w, "  source: %s\n", source)
	}
	fmt.Fprintf(w, "  version: %d.%d\n", major, minor)
	fmt.Fprintf(w, "  fields: %d\n", len(c.Fields()))
	fmt.Fprintf(w, "  methods: %d\n", len(c.Methods()))
	if names := c.AttributeNames(); len(names) > 0 {
		fmt.Fprintf(w, "  attributes: %s\n", strings.Join(names, ", "))
	}
	return nil
}

// WriteMethods prints one "name: descriptor" line per method.
func WriteMethods(w io.Writer, c *classfile.Class) {
	for _, m := range c.Methods() {
		fmt.Fprintf(w, "%s: %s\n", m.Name, m.Descriptor)
	}
}

// WriteFields prints one "name: type" line per field.
func WriteFields(w io.Writer, c *classfile.Class) {
	for _, f := range c.Fields() {
		fmt.Fprintf(w, "%s: %s\n", f.Name, f.Descriptor)
	}
}

// WriteCode disassembles every method body of c.
func WriteCode(w io.Writer, c *classfile.Class) error {
	for i, m := range c.Methods() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s;\n", m)

		code, err := m.Code()
		if errors.Is(err, classfile.ErrNoAttribute) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%s: %w", m.Name, err)
		}
		if err := writeBody(w, code); err != nil {
			return fmt.Errorf("%s: %w", m.Name, err)
		}
	}
	return nil
}

func writeBody(w io.Writer, code *classfile.Code) error {
	insns, err := code.Instructions()
	if err != nil {
		return err
	}
	lines, err := code.LineNumberTable()
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "  Code:")
	fmt.Fprintf(w, "    stack=%d, locals=%d\n", code.MaxStack, code.MaxLocals)
	for _, insn := range insns {
		fmt.Fprintf(w, "    %s\n", insn)
	}
	if len(code.ExceptionTable) > 0 {
		fmt.Fprintln(w, "  Exception table:")
		for _, h := range code.ExceptionTable {
			catch := "any"
			if !h.CatchesAll() {
				catch = h.CatchType.Dotted()
			}
			fmt.Fprintf(w, "    from %d to %d target %d type %s\n", h.StartPC, h.EndPC, h.HandlerPC, catch)
		}
	}
	if len(lines) > 0 {
		fmt.Fprintln(w, "  LineNumberTable:")
		for _, l := range lines {
			fmt.Fprintf(w, "    line %d: %d\n", l.Line, l.StartPC)
		}
	}
	return nil
}

// WriteInherits prints the ancestors of g's root breadth first, one per
// line with the kind of edge that reached it.
func WriteInherits(w io.Writer, g *inheritance.Graph) error {
	ancestors, err := g.Inherits(g.Root().Name().String())
	if err != nil {
		return err
	}
	fmt.Fprintln(w, g.Root().Name().Dotted())
	for _, a := range ancestors {
		fmt.Fprintf(w, "  %s %s\n", a.Kind, a.Class.Name().Dotted())
	}
	return nil
}
