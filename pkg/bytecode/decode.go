// Package bytecode decodes the instruction stream of a Code attribute.
// It never executes anything; operands are reported as they appear, with
// branch offsets left relative to the instruction.
package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTruncated     = errors.New("instruction truncated")
	ErrUnknownOpcode = errors.New("unknown opcode")
	ErrBadSwitch     = errors.New("malformed switch")
	ErrBadWide       = errors.New("wide applied to an opcode it cannot modify")
)

// Error reports the instruction at which decoding failed.
type Error struct {
	PC  int
	Op  Opcode
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pc %d (%s): %v", e.PC, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Instruction is one decoded instruction. Which operand fields are
// meaningful depends on Op.
type Instruction struct {
	PC   int
	Op   Opcode
	Wide bool

	// Index is a local variable slot or constant pool index.
	Index uint16
	// Value is the immediate of bipush, sipush and iinc, the atype of
	// newarray, the dimension count of multianewarray or the argument
	// count of invokeinterface.
	Value int32
	// Branch is the offset of a branch, relative to PC.
	Branch int32
	Switch *Switch
}

// Switch holds the operands of tableswitch and lookupswitch. For
// tableswitch Keys is Low..High.
type Switch struct {
	Default int32
	Keys    []int32
	Offsets []int32
}

// Target returns the absolute pc a branch instruction jumps to.
func (i Instruction) Target() int { return i.PC + int(i.Branch) }

// String renders the instruction in javap style with branch targets
// made absolute.
func (i Instruction) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d: ", i.PC)
	if i.Wide {
		b.WriteString("wide ")
	}
	b.WriteString(i.Op.String())
	switch opcodes[i.Op].format {
	case operandByte, operandShort:
		fmt.Fprintf(&b, " %d", i.Value)
	case operandCP1, operandCP2, operandInvokeDynamic:
		fmt.Fprintf(&b, " #%d", i.Index)
	case operandLocal:
		fmt.Fprintf(&b, " %d", i.Index)
	case operandIinc:
		fmt.Fprintf(&b, " %d, %d", i.Index, i.Value)
	case operandBranch, operandBranchWide:
		fmt.Fprintf(&b, " %d", i.Target())
	case operandInvokeInterface, operandMultianewarray:
		fmt.Fprintf(&b, " #%d, %d", i.Index, i.Value)
	case operandNewarray:
		fmt.Fprintf(&b, " %s", arrayTypeName(i.Value))
	case operandTableswitch, operandLookupswitch:
		b.WriteString(" {")
		for k, key := range i.Switch.Keys {
			fmt.Fprintf(&b, " %d: %d;", key, i.PC+int(i.Switch.Offsets[k]))
		}
		fmt.Fprintf(&b, " default: %d }", i.PC+int(i.Switch.Default))
	}
	return b.String()
}

var arrayTypes = map[int32]string{
	4: "boolean", 5: "char", 6: "float", 7: "double",
	8: "byte", 9: "short", 10: "int", 11: "long",
}

func arrayTypeName(atype int32) string {
	if s, ok := arrayTypes[atype]; ok {
		return s
	}
	return fmt.Sprintf("atype(%d)", atype)
}

// Decode decodes every instruction in code.
func Decode(code []byte) ([]Instruction, error) {
	var out []Instruction
	d := decoder{code: code}
	for d.pc < len(code) {
		ins, err := d.next()
		if err != nil {
			return nil, err
		}
		out = append(out, ins)
	}
	return out, nil
}

type decoder struct {
	code []byte
	pc   int
}

func fail(pc int, op Opcode, err error) error {
	return &Error{PC: pc, Op: op, Err: err}
}

func (d *decoder) next() (Instruction, error) {
	start := d.pc
	ins := Instruction{PC: start, Op: Opcode(d.code[start])}
	d.pc++

	if !ins.Op.Valid() {
		return ins, fail(start, ins.Op, ErrUnknownOpcode)
	}

	format := opcodes[ins.Op].format
	if format == operandWide {
		if d.pc >= len(d.code) {
			return ins, fail(start, ins.Op, ErrTruncated)
		}
		ins.Op = Opcode(d.code[d.pc])
		ins.Wide = true
		d.pc++
		format = opcodes[ins.Op].format
		if format != operandLocal && format != operandIinc {
			return ins, fail(start, ins.Op, ErrBadWide)
		}
	}

	var ok bool
	switch format {
	case operandNone:
		ok = true
	case operandByte:
		var v uint8
		if v, ok = d.u1(); ok {
			ins.Value = int32(int8(v))
		}
	case operandShort:
		var v uint16
		if v, ok = d.u2(); ok {
			ins.Value = int32(int16(v))
		}
	case operandCP1:
		var v uint8
		if v, ok = d.u1(); ok {
			ins.Index = uint16(v)
		}
	case operandCP2:
		ins.Index, ok = d.u2()
	case operandLocal:
		ins.Index, ok = d.local(ins.Wide)
	case operandIinc:
		if ins.Index, ok = d.local(ins.Wide); !ok {
			break
		}
		if ins.Wide {
			var v uint16
			if v, ok = d.u2(); ok {
				ins.Value = int32(int16(v))
			}
		} else {
			var v uint8
			if v, ok = d.u1(); ok {
				ins.Value = int32(int8(v))
			}
		}
	case operandBranch:
		var v uint16
		if v, ok = d.u2(); ok {
			ins.Branch = int32(int16(v))
		}
	case operandBranchWide:
		var v uint32
		if v, ok = d.u4(); ok {
			ins.Branch = int32(v)
		}
	case operandInvokeInterface:
		var count uint8
		if ins.Index, ok = d.u2(); ok {
			if count, ok = d.u1(); ok {
				ins.Value = int32(count)
				_, ok = d.u1()
			}
		}
	case operandInvokeDynamic:
		if ins.Index, ok = d.u2(); ok {
			_, ok = d.u2()
		}
	case operandNewarray:
		var v uint8
		if v, ok = d.u1(); ok {
			ins.Value = int32(v)
		}
	case operandMultianewarray:
		var dims uint8
		if ins.Index, ok = d.u2(); ok {
			if dims, ok = d.u1(); ok {
				ins.Value = int32(dims)
			}
		}
	case operandTableswitch:
		sw, err := d.tableswitch()
		if err != nil {
			return ins, fail(start, ins.Op, err)
		}
		ins.Switch, ok = sw, true
	case operandLookupswitch:
		sw, err := d.lookupswitch()
		if err != nil {
			return ins, fail(start, ins.Op, err)
		}
		ins.Switch, ok = sw, true
	}
	if !ok {
		return ins, fail(start, ins.Op, ErrTruncated)
	}
	return ins, nil
}

func (d *decoder) u1() (uint8, bool) {
	if d.pc+1 > len(d.code) {
		return 0, false
	}
	v := d.code[d.pc]
	d.pc++
	return v, true
}

func (d *decoder) u2() (uint16, bool) {
	if d.pc+2 > len(d.code) {
		return 0, false
	}
	v := binary.BigEndian.Uint16(d.code[d.pc:])
	d.pc += 2
	return v, true
}

func (d *decoder) u4() (uint32, bool) {
	if d.pc+4 > len(d.code) {
		return 0, false
	}
	v := binary.BigEndian.Uint32(d.code[d.pc:])
	d.pc += 4
	return v, true
}

func (d *decoder) i4() (int32, error) {
	v, ok := d.u4()
	if !ok {
		return 0, ErrTruncated
	}
	return int32(v), nil
}

func (d *decoder) local(wide bool) (uint16, bool) {
	if wide {
		return d.u2()
	}
	v, ok := d.u1()
	return uint16(v), ok
}

// align skips the 0-3 padding bytes that put switch operands on a 4-byte
// boundary relative to the start of the code.
func (d *decoder) align() error {
	for d.pc%4 != 0 {
		if _, ok := d.u1(); !ok {
			return ErrTruncated
		}
	}
	return nil
}

func (d *decoder) tableswitch() (*Switch, error) {
	if err := d.align(); err != nil {
		return nil, err
	}
	var sw Switch
	var low, high int32
	var err error
	if sw.Default, err = d.i4(); err != nil {
		return nil, err
	}
	if low, err = d.i4(); err != nil {
		return nil, err
	}
	if high, err = d.i4(); err != nil {
		return nil, err
	}
	if high < low {
		return nil, fmt.Errorf("%w: tableswitch high %d < low %d", ErrBadSwitch, high, low)
	}
	n := int64(high) - int64(low) + 1
	if n*4 > int64(len(d.code)-d.pc) {
		return nil, ErrTruncated
	}
	sw.Keys = make([]int32, n)
	sw.Offsets = make([]int32, n)
	for i := range sw.Offsets {
		sw.Keys[i] = low + int32(i)
		if sw.Offsets[i], err = d.i4(); err != nil {
			return nil, err
		}
	}
	return &sw, nil
}

func (d *decoder) lookupswitch() (*Switch, error) {
	if err := d.align(); err != nil {
		return nil, err
	}
	var sw Switch
	var npairs int32
	var err error
	if sw.Default, err = d.i4(); err != nil {
		return nil, err
	}
	if npairs, err = d.i4(); err != nil {
		return nil, err
	}
	if npairs < 0 {
		return nil, fmt.Errorf("%w: lookupswitch npairs %d", ErrBadSwitch, npairs)
	}
	if int64(npairs)*8 > int64(len(d.code)-d.pc) {
		return nil, ErrTruncated
	}
	sw.Keys = make([]int32, npairs)
	sw.Offsets = make([]int32, npairs)
	for i := range sw.Keys {
		if sw.Keys[i], err = d.i4(); err != nil {
			return nil, err
		}
		if sw.Offsets[i], err = d.i4(); err != nil {
			return nil, err
		}
	}
	return &sw, nil
}
