package classfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daimatz/jclass/internal/classtest"
	"github.com/daimatz/jclass/pkg/descriptor"
	"github.com/daimatz/jclass/pkg/fqname"
)

func TestNewClassShapes(t *testing.T) {
	shapes := classtest.Shapes()

	square := mustClass(t, shapes["Square"])
	assert.Equal(t, "Square", square.Name().String())
	assert.True(t, square.HasSuper())
	assert.Equal(t, fqname.Must("Rectangle"), square.SuperName())
	assert.Equal(t, []fqname.Name{fqname.Must("Shape")}, square.Interfaces())
	assert.Equal(t, "public class Square extends Rectangle implements Shape", square.String())

	major, minor := square.Version()
	assert.Equal(t, uint16(61), major)
	assert.Equal(t, uint16(0), minor)

	shape := mustClass(t, shapes["Shape"])
	assert.True(t, shape.IsInterface())
	assert.Equal(t, "public interface Shape", shape.String())
	area := shape.FindMethodByName("area")
	require.NotNil(t, area)
	assert.True(t, area.AccessFlags.IsAbstract())
	_, err := area.Code()
	assert.ErrorIs(t, err, ErrNoAttribute)

	rect := mustClass(t, shapes["Rectangle"])
	require.Len(t, rect.Fields(), 2)
	assert.Equal(t, "protected int width", rect.Fields()[0].String())
	assert.Equal(t, descriptor.Int, rect.FindField("height").Descriptor)
	assert.Nil(t, rect.FindField("depth"))

	ctor := rect.FindMethod("<init>", "(II)V")
	require.NotNil(t, ctor)
	assert.Equal(t, descriptor.Method{Args: []descriptor.Signature{descriptor.Int, descriptor.Int}, Return: descriptor.Void}, ctor.Descriptor)
	assert.Equal(t, "public double area()", rect.FindMethodByName("area").String())
	assert.Nil(t, rect.FindMethod("area", "()I"))

	src, err := rect.SourceFile()
	require.NoError(t, err)
	assert.Equal(t, "Rectangle.java", src)
}

func TestNewClassWithoutSuper(t *testing.T) {
	c := mustClass(t, classtest.New("java/lang/Object").Super("").Bytes())
	assert.False(t, c.HasSuper())
	assert.True(t, c.SuperName().IsZero())
	assert.Equal(t, "public class java.lang.Object", c.String())

	src, err := c.SourceFile()
	require.NoError(t, err)
	assert.Equal(t, "", src)
}

func TestNewClassErrors(t *testing.T) {
	t.Run("this_class is not a Class", func(t *testing.T) {
		b := classtest.New("Broken")
		utf := b.Utf8("Broken")
		cf, err := ParseBytes(b.Bytes())
		require.NoError(t, err)

		cf.ThisClass = utf
		_, err = NewClass(cf)
		var re *ReferenceError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, "Class", re.Want)
		assert.Equal(t, "Utf8", re.Got)
	})

	t.Run("bad interface index", func(t *testing.T) {
		cf, err := ParseBytes(classtest.New("Broken").Implements("Runnable").Bytes())
		require.NoError(t, err)

		cf.Interfaces[0] = 0
		_, err = NewClass(cf)
		var re *ReferenceError
		require.ErrorAs(t, err, &re)
	})

	t.Run("bad method descriptor", func(t *testing.T) {
		_, err := ParseClass(classtest.New("Broken").Method(0x0001, "m", "(X)V").Bytes())
		var se *descriptor.SyntaxError
		require.ErrorAs(t, err, &se)
	})

	t.Run("field with method descriptor", func(t *testing.T) {
		_, err := ParseClass(classtest.New("Broken").Field(0x0001, "f", "()V").Bytes())
		var se *descriptor.SyntaxError
		require.ErrorAs(t, err, &se)
	})

	t.Run("attribute name is not Utf8", func(t *testing.T) {
		b := classtest.New("Broken")
		b.Attribute(classtest.Attr{Name: "Custom"})
		cf, err := ParseBytes(b.Bytes())
		require.NoError(t, err)

		cf.Attributes[0].NameIndex = cf.ThisClass
		_, err = NewClass(cf)
		var re *ReferenceError
		require.ErrorAs(t, err, &re)
	})
}

func TestAccessFlagsModifiers(t *testing.T) {
	assert.Equal(t, "public static final", (AccPublic | AccStatic | AccFinal).FieldModifiers())
	assert.Equal(t, "private static synchronized native", (AccPrivate | AccStatic | AccSynchronized | AccNative).MethodModifiers())
	assert.Equal(t, "", AccessFlags(0).FieldModifiers())
}
