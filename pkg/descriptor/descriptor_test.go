package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daimatz/jclass/pkg/fqname"
)

func TestParseMethodDescriptor(t *testing.T) {
	sig, err := Parse("(ZI)Ljava/lang/Object;")
	require.NoError(t, err)

	m, ok := sig.(Method)
	require.True(t, ok, "expected Method, got %T", sig)
	assert.Equal(t, []Signature{Boolean, Int}, m.Args)
	assert.Equal(t, Object{Name: fqname.Must("java/lang/Object")}, m.Return)
	assert.Equal(t, "java.lang.Object (boolean, int)", m.String())
}

func TestRoundTrip(t *testing.T) {
	descriptors := []string{
		"Z", "B", "C", "S", "I", "J", "F", "D", "V",
		"Ljava/lang/Object;",
		"Lcom/example/Outer$Inner;",
		"[I",
		"[[Ljava/lang/String;",
		"()V",
		"([Ljava/lang/String;)V",
		"(IJDLjava/util/List;[[B)Ljava/lang/Object;",
		"(Ljava/lang/Object;Ljava/lang/Object;)Z",
	}
	for _, s := range descriptors {
		t.Run(s, func(t *testing.T) {
			sig, err := Parse(s)
			require.NoError(t, err)
			assert.Equal(t, s, sig.Descriptor())
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"", ErrEmpty},
		{"Ljava/lang/Object", ErrUnterminated},
		{"(Ljava/lang/String", ErrUnterminated},
		{"X", ErrMalformed},
		{"II", ErrMalformed},
		{"(I", ErrMalformed},
		{"()", ErrMalformed},
		{"[", ErrMalformed},
		{"L;", ErrMalformed},
		{"Ljava.lang.Object;", ErrMalformed},
		{"(()V)V", ErrMalformed},
		{"()V;", ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := Parse(tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.in, se.Input)
		})
	}
}

func TestArrayDimensionLimit(t *testing.T) {
	ok := make([]byte, 255)
	for i := range ok {
		ok[i] = '['
	}
	_, err := Parse(string(ok) + "I")
	require.NoError(t, err)

	_, err = Parse("[" + string(ok) + "I")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestArrayHelpers(t *testing.T) {
	sig := MustParse("[[[Ljava/lang/String;")
	arr, ok := sig.(Array)
	require.True(t, ok)

	assert.Equal(t, 3, arr.Dimensions())
	assert.Equal(t, Object{Name: fqname.Must("java/lang/String")}, arr.Component())
	assert.Equal(t, "java.lang.String[][][]", arr.String())
}

func TestParseFieldAndMethod(t *testing.T) {
	_, err := ParseField("(I)V")
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = ParseMethod("I")
	assert.ErrorIs(t, err, ErrMalformed)

	m, err := ParseMethod("(JID)V")
	require.NoError(t, err)
	assert.Equal(t, 5, m.ArgSlots())
	assert.Equal(t, Void, m.Return)
}
