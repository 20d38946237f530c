package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func i4(v int32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestDecodeSimple(t *testing.T) {
	// static int add(int a, int b) { return a + b; }
	code := []byte{0x1A, 0x1B, 0x60, 0xAC}

	got, err := Decode(code)
	require.NoError(t, err)
	require.Len(t, got, 4)

	ops := []Opcode{OpIload0, OpIload1, OpIadd, OpIreturn}
	for i, ins := range got {
		assert.Equal(t, i, ins.PC)
		assert.Equal(t, ops[i], ins.Op)
	}
}

func TestDecodeOperands(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want Instruction
	}{
		{"bipush negative", []byte{0x10, 0xFF}, Instruction{Op: OpBipush, Value: -1}},
		{"sipush", []byte{0x11, 0x01, 0x00}, Instruction{Op: OpSipush, Value: 256}},
		{"ldc", []byte{0x12, 0x07}, Instruction{Op: OpLdc, Index: 7}},
		{"invokevirtual", []byte{0xB6, 0x00, 0x0C}, Instruction{Op: OpInvokevirtual, Index: 12}},
		{"iload", []byte{0x15, 0x04}, Instruction{Op: OpIload, Index: 4}},
		{"iinc", []byte{0x84, 0x01, 0xFF}, Instruction{Op: OpIinc, Index: 1, Value: -1}},
		{"wide iload", []byte{0xC4, 0x15, 0x01, 0x02}, Instruction{Op: OpIload, Wide: true, Index: 258}},
		{"wide iinc", []byte{0xC4, 0x84, 0x01, 0x00, 0xFF, 0xFE}, Instruction{Op: OpIinc, Wide: true, Index: 256, Value: -2}},
		{"ifeq", []byte{0x99, 0x00, 0x08}, Instruction{Op: OpIfeq, Branch: 8}},
		{"goto_w", []byte{0xC8, 0x00, 0x00, 0x01, 0x00}, Instruction{Op: OpGotoW, Branch: 256}},
		{"invokeinterface", []byte{0xB9, 0x00, 0x05, 0x02, 0x00}, Instruction{Op: OpInvokeinterface, Index: 5, Value: 2}},
		{"invokedynamic", []byte{0xBA, 0x00, 0x03, 0x00, 0x00}, Instruction{Op: OpInvokedynamic, Index: 3}},
		{"newarray", []byte{0xBC, 0x0A}, Instruction{Op: OpNewarray, Value: 10}},
		{"multianewarray", []byte{0xC5, 0x00, 0x02, 0x03}, Instruction{Op: OpMultianewarray, Index: 2, Value: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.code)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0])
		})
	}
}

func TestDecodeTableswitch(t *testing.T) {
	code := concat(
		[]byte{0xAA, 0, 0, 0}, // opcode + padding to pc 4
		i4(20),                // default
		i4(1), i4(2),          // low, high
		i4(24), i4(24),
		[]byte{0xB1},
	)

	got, err := Decode(code)
	require.NoError(t, err)
	require.Len(t, got, 2)

	sw := got[0].Switch
	require.NotNil(t, sw)
	assert.Equal(t, int32(20), sw.Default)
	assert.Equal(t, []int32{1, 2}, sw.Keys)
	assert.Equal(t, []int32{24, 24}, sw.Offsets)
	assert.Equal(t, 24, got[1].PC)
	assert.Equal(t, OpReturn, got[1].Op)
}

func TestDecodeLookupswitchPadding(t *testing.T) {
	code := concat(
		[]byte{0x00},          // nop
		[]byte{0xAB, 0, 0},    // lookupswitch at pc 1, padding to pc 4
		i4(15),                // default
		i4(1),                 // npairs
		i4(-5), i4(19),        // key, offset
		[]byte{0xB1},
	)

	got, err := Decode(code)
	require.NoError(t, err)
	require.Len(t, got, 3)

	ins := got[1]
	assert.Equal(t, OpLookupswitch, ins.Op)
	assert.Equal(t, []int32{-5}, ins.Switch.Keys)
	assert.Equal(t, []int32{19}, ins.Switch.Offsets)
	assert.Equal(t, 20, got[2].PC)
	assert.Equal(t, "1: lookupswitch { -5: 20; default: 16 }", ins.String())
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want error
	}{
		{"unknown opcode", []byte{0xCA}, ErrUnknownOpcode},
		{"truncated sipush", []byte{0x11, 0x01}, ErrTruncated},
		{"truncated wide", []byte{0xC4}, ErrTruncated},
		{"wide nop", []byte{0xC4, 0x00}, ErrBadWide},
		{"tableswitch high below low", concat([]byte{0xAA, 0, 0, 0}, i4(0), i4(5), i4(1)), ErrBadSwitch},
		{"tableswitch missing offsets", concat([]byte{0xAA, 0, 0, 0}, i4(0), i4(0), i4(3)), ErrTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.code)
			require.ErrorIs(t, err, tt.want)

			var de *Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, 0, de.PC)
		})
	}
}

func TestInstructionString(t *testing.T) {
	got, err := Decode([]byte{0x00, 0xA7, 0xFF, 0xFF, 0xC4, 0x84, 0x01, 0x00, 0x00, 0x01, 0xBC, 0x0A})
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, "0: nop", got[0].String())
	assert.Equal(t, "1: goto 0", got[1].String())
	assert.Equal(t, "4: wide iinc 256, 1", got[2].String())
	assert.Equal(t, "10: newarray int", got[3].String())
}

func TestOpcodeString(t *testing.T) {
	assert.Equal(t, "invokespecial", OpInvokespecial.String())
	assert.Equal(t, "unknown(0xFE)", Opcode(0xFE).String())
	assert.False(t, Opcode(0xFE).Valid())
}
