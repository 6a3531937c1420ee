package corelower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corelang/corec/internal/ast"
	"github.com/corelang/corec/internal/elaborate"
	"github.com/corelang/corec/internal/env"
	"github.com/corelang/corec/internal/ir"
)

func TestLowerIdentifierPrimitiveBeatsEnv(t *testing.T) {
	w, err := lowerIdentifier(env.New(), "add-i32")
	require.NoError(t, err)
	assert.Equal(t, ir.PrimVar{Name: "add-i32"}, w)
}

func TestLowerIdentifierConstructor(t *testing.T) {
	e := env.New().Bind(env.NSWord, "Cons", env.Entry{Name: "Cons", Kind: env.KindConstructor, Arity: 2})
	w, err := lowerIdentifier(e, "Cons")
	require.NoError(t, err)
	assert.Equal(t, ir.ConstructorVar{Name: "Cons", Args: 2}, w)
}

func TestLowerIdentifierFunction(t *testing.T) {
	e := env.New().Bind(env.NSWord, "helper", env.Entry{Name: "helper", Kind: env.KindFunction})
	w, err := lowerIdentifier(e, "helper")
	require.NoError(t, err)
	assert.Equal(t, ir.CallVar{Name: "helper"}, w)
}

func TestLowerIdentifierOperator(t *testing.T) {
	e := env.New().Bind(env.NSWord, "throw", env.Entry{Name: "throw", Kind: env.KindFunction, IsOperator: true})
	w, err := lowerIdentifier(e, "throw")
	require.NoError(t, err)
	assert.Equal(t, ir.OperatorVar{Name: "throw"}, w)
}

func TestLowerIdentifierRecursive(t *testing.T) {
	e := env.New().Bind(env.NSWord, "loop", env.Entry{Name: "loop", Kind: env.KindRecursive})
	w, err := lowerIdentifier(e, "loop")
	require.NoError(t, err)
	assert.Equal(t, ir.CallVar{Name: "loop"}, w)
}

func TestLowerIdentifierUnboundIsLocalValue(t *testing.T) {
	w, err := lowerIdentifier(env.New(), "x")
	require.NoError(t, err)
	assert.Equal(t, ir.ValueVar{Name: "x"}, w)
}

func TestFreeNamesSkipsLetBoundAndCollectsOthers(t *testing.T) {
	expr := ast.Expression{
		ast.Identifier{Name: "a"},
		ast.Let{
			Bindings: []ast.Binding{{Pattern: ast.PVar{Name: "b"}, Value: ast.Expression{ast.Identifier{Name: "c"}}}},
			Body:     ast.Expression{ast.Identifier{Name: "b"}, ast.Identifier{Name: "d"}},
		},
	}
	names := freeNames(expr)
	assert.ElementsMatch(t, []string{"a", "c", "d"}, names)
}

func TestLowerProducesOneUnitPerElaboratedUnit(t *testing.T) {
	units := []elaborate.Unit{
		{Name: "main", Params: nil, Body: ast.Expression{ast.PushInt{Size: "I32", Digits: "1"}}},
	}
	out, err := Lower(env.New(), units)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "main", out[0].Name)
}
