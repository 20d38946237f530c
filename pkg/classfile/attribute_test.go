package classfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daimatz/jclass/internal/classtest"
	"github.com/daimatz/jclass/pkg/bytecode"
	"github.com/daimatz/jclass/pkg/descriptor"
	"github.com/daimatz/jclass/pkg/fqname"
)

func mustClass(t *testing.T, data []byte) *Class {
	t.Helper()
	c, err := ParseClass(data)
	require.NoError(t, err)
	return c
}

func TestCodeAttribute(t *testing.T) {
	b := classtest.New("Handlers")
	code := b.Code(2, 1,
		[]byte{0x03, 0x3B, 0x1A, 0xAC, 0x00, 0x4C, 0x04, 0xAC, 0x4C, 0x05, 0xAC},
		[]classtest.Handler{
			{StartPC: 0, EndPC: 4, HandlerPC: 5, CatchType: "java/io/IOException"},
			{StartPC: 0, EndPC: 4, HandlerPC: 8},
		},
		classtest.LineNumbers([2]uint16{0, 10}, [2]uint16{5, 11}),
		classtest.Attr{Name: "StackMapTable", Data: []byte{1, 2, 3}},
	)
	c := mustClass(t, b.Method(0x0009, "run", "()I", code).Bytes())

	m := c.FindMethod("run", "()I")
	require.NotNil(t, m)
	body, err := m.Code()
	require.NoError(t, err)

	assert.Equal(t, uint16(2), body.MaxStack)
	assert.Equal(t, uint16(1), body.MaxLocals)
	assert.Len(t, body.Bytecode, 11)

	require.Len(t, body.ExceptionTable, 2)
	assert.True(t, fqname.Equal(fqname.MustView("java.io.IOException"), body.ExceptionTable[0].CatchType))
	assert.False(t, body.ExceptionTable[0].CatchesAll())
	assert.True(t, body.ExceptionTable[1].CatchesAll())
	assert.Equal(t, uint16(8), body.ExceptionTable[1].HandlerPC)

	assert.Equal(t, []string{"LineNumberTable", "StackMapTable"}, body.AttributeNames())

	t.Run("line numbers", func(t *testing.T) {
		table, err := body.LineNumberTable()
		require.NoError(t, err)

		line, ok := table.Line(3)
		require.True(t, ok)
		assert.Equal(t, uint16(10), line)

		line, ok = table.Line(5)
		require.True(t, ok)
		assert.Equal(t, uint16(11), line)
	})

	t.Run("unknown nested attribute", func(t *testing.T) {
		attr, err := body.Attribute("StackMapTable")
		require.NoError(t, err)
		assert.Equal(t, Unknown{Data: []byte{1, 2, 3}}, attr.Value)
	})

	t.Run("instructions", func(t *testing.T) {
		ins, err := body.Instructions()
		require.NoError(t, err)
		require.Len(t, ins, 11)
		assert.Equal(t, bytecode.OpIconst0, ins[0].Op)
		assert.Equal(t, bytecode.OpIreturn, ins[10].Op)
	})
}

func TestLineNumberTableLine(t *testing.T) {
	table := LineNumberTable{{StartPC: 5, Line: 11}, {StartPC: 0, Line: 10}, {StartPC: 9, Line: 14}}

	tests := []struct {
		pc   uint16
		want uint16
	}{
		{0, 10}, {3, 10}, {5, 11}, {8, 11}, {9, 14}, {400, 14},
	}
	for _, tt := range tests {
		got, ok := table.Line(tt.pc)
		assert.True(t, ok)
		assert.Equal(t, tt.want, got, "pc %d", tt.pc)
	}

	_, ok := LineNumberTable{{StartPC: 4, Line: 1}}.Line(2)
	assert.False(t, ok)
	_, ok = LineNumberTable(nil).Line(0)
	assert.False(t, ok)
}

func TestResolveAttribute(t *testing.T) {
	b := classtest.New("Attrs")
	src := b.Utf8("Attrs.java")
	strConst := b.StringConst("Via.java")
	sig := b.Utf8("Ljava/util/List;")
	generic := b.Utf8("<T:Ljava/lang/Object;>()TT;")
	cf, err := ParseBytes(b.Bytes())
	require.NoError(t, err)
	pool := cf.ConstantPool

	t.Run("source file", func(t *testing.T) {
		attr, err := ResolveAttribute(pool, "SourceFile", u2(src))
		require.NoError(t, err)
		assert.Equal(t, SourceFile{Path: "Attrs.java"}, attr.Value)

		attr, err = ResolveAttribute(pool, "SourceFile", u2(strConst))
		require.NoError(t, err)
		assert.Equal(t, SourceFile{Path: "Via.java"}, attr.Value)
	})

	t.Run("signature", func(t *testing.T) {
		attr, err := ResolveAttribute(pool, "Signature", u2(sig))
		require.NoError(t, err)
		assert.Equal(t, SignatureAttribute{Signature: descriptor.Object{Name: fqname.Must("java/util/List")}}, attr.Value)
	})

	t.Run("generic signature is a grammar error", func(t *testing.T) {
		_, err := ResolveAttribute(pool, "Signature", u2(generic))
		var ae *AttributeError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, "Signature", ae.Name)
		var se *descriptor.SyntaxError
		assert.ErrorAs(t, err, &se)
	})

	t.Run("deprecated", func(t *testing.T) {
		attr, err := ResolveAttribute(pool, "Deprecated", nil)
		require.NoError(t, err)
		assert.Equal(t, Deprecated{}, attr.Value)
	})

	t.Run("unknown keeps bytes", func(t *testing.T) {
		data := []byte{0xDE, 0xAD}
		attr, err := ResolveAttribute(pool, "RuntimeVisibleAnnotations", data)
		require.NoError(t, err)
		assert.Equal(t, "RuntimeVisibleAnnotations", attr.Name)
		assert.Equal(t, Unknown{Data: data}, attr.Value)
	})

	t.Run("bad reference", func(t *testing.T) {
		_, err := ResolveAttribute(pool, "SourceFile", u2(999))
		var ae *AttributeError
		require.ErrorAs(t, err, &ae)
		var re *ReferenceError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, uint16(999), re.Index)
	})

	t.Run("payload too long", func(t *testing.T) {
		_, err := ResolveAttribute(pool, "SourceFile", append(u2(src), 0))
		assert.ErrorIs(t, err, ErrTrailingBytes)
		var de *DecodeError
		assert.ErrorAs(t, err, &de)
	})

	t.Run("payload too short", func(t *testing.T) {
		_, err := ResolveAttribute(pool, "LineNumberTable", []byte{0, 2, 0, 0, 0, 1})
		assert.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("deprecated with payload", func(t *testing.T) {
		_, err := ResolveAttribute(pool, "Deprecated", []byte{0})
		assert.ErrorIs(t, err, ErrTrailingBytes)
	})

	t.Run("bootstrap methods", func(t *testing.T) {
		attr, err := ResolveAttribute(pool, "BootstrapMethods", []byte{0, 1, 0, 7, 0, 2, 0, 3, 0, 4})
		require.NoError(t, err)
		assert.Equal(t, BootstrapMethods{{MethodRef: 7, BootstrapArguments: []uint16{3, 4}}}, attr.Value)
	})
}

func TestAttributeFailureIsLocal(t *testing.T) {
	b := classtest.New("Generic")
	b.Method(0x0001, "get", "()Ljava/lang/Object;",
		b.Signature("<T:Ljava/lang/Object;>()TT;"),
		classtest.Attr{Name: "Deprecated"},
	)
	c := mustClass(t, b.SourceFile("Generic.java").Bytes())

	m := c.FindMethodByName("get")
	require.NotNil(t, m)

	_, err := m.Attributes()
	assert.Error(t, err)

	attr, err := m.Attribute("Deprecated")
	require.NoError(t, err)
	assert.Equal(t, Deprecated{}, attr.Value)

	_, err = m.Code()
	assert.ErrorIs(t, err, ErrNoAttribute)

	src, err := c.SourceFile()
	require.NoError(t, err)
	assert.Equal(t, "Generic.java", src)
}
