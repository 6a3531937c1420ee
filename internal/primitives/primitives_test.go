package primitives

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corelang/corec/internal/bytecode"
	"github.com/corelang/corec/internal/types"
)

func TestLookupSizedArithmetic(t *testing.T) {
	e, ok := Lookup("add-i32")
	require.True(t, ok)
	assert.Equal(t, "add-i32", e.Name)
	assert.Equal(t, bytecode.IIntAdd, e.Op)
	assert.Equal(t, bytecode.Size("i32"), e.Size)
	assert.Equal(t, 2, e.Arity)
}

func TestLookupUnknownNameFails(t *testing.T) {
	_, ok := Lookup("not-a-primitive")
	assert.False(t, ok)
}

func TestLookupEverySizeVariantPresent(t *testing.T) {
	for _, sz := range []string{"i8", "u8", "i16", "u16", "i32", "u32", "i64", "u64", "isize", "usize"} {
		_, ok := Lookup("add-" + sz)
		assert.True(t, ok, "expected add-%s to be registered", sz)
	}
}

func TestNamesSortedAndNonEmpty(t *testing.T) {
	names := Names()
	require.NotEmpty(t, names)
	for i := 1; i < len(names); i++ {
		assert.LessOrEqual(t, names[i-1], names[i], "Names() must be sorted")
	}
}

// TestArithmeticSchemeIsStack pins down the Bug #3 fix: a sized
// arithmetic primitive's scheme must be a types.Stack consuming its
// operands through In and producing its result through Out, not a
// curried arrow application -- the shape internal/infer/words.go's
// asStack relies on to compose the primitive's effect directly into
// the surrounding word sequence.
func TestArithmeticSchemeIsStack(t *testing.T) {
	e, ok := Lookup("add-i32")
	require.True(t, ok)

	st, ok := e.Scheme.Body.Head.(types.Stack)
	require.True(t, ok, "add-i32 scheme head must be a types.Stack, got %T", e.Scheme.Body.Head)

	in, ok := st.In.(types.Seq)
	require.True(t, ok)
	require.Len(t, in.Elems, 2)
	assert.Equal(t, IntType("i32"), in.Elems[0].Elem)
	assert.Equal(t, IntType("i32"), in.Elems[1].Elem)

	out, ok := st.Out.(types.Seq)
	require.True(t, ok)
	require.Len(t, out.Elems, 1)
	assert.Equal(t, IntType("i32"), out.Elems[0].Elem)
}

func TestConvBoolSchemeUnary(t *testing.T) {
	e, ok := Lookup("conv-bool-i32")
	if !ok {
		t.Skip("conv-bool-i32 not registered under this table.yaml layout")
	}
	st, ok := e.Scheme.Body.Head.(types.Stack)
	require.True(t, ok)
	in, ok := st.In.(types.Seq)
	require.True(t, ok)
	require.Len(t, in.Elems, 1)
}

func TestPolymorphicConsSchemeQuantifiesOverElement(t *testing.T) {
	e, ok := Lookup("cons")
	require.True(t, ok)
	require.NotEmpty(t, e.Scheme.Quantified)
	assert.Equal(t, "a", e.Scheme.Quantified[0].Name)
}

func TestIntTypeUppercasesTag(t *testing.T) {
	assert.Equal(t, "I32", IntType("i32").String())
	assert.Equal(t, "U8", IntType("u8").String())
}

func TestBoolTypeTag(t *testing.T) {
	assert.Equal(t, "Bool", BoolType().String())
}
