package elaborate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corelang/corec/internal/ast"
	"github.com/corelang/corec/internal/coreerrors"
	"github.com/corelang/corec/internal/env"
	"github.com/corelang/corec/internal/fresh"
	"github.com/corelang/corec/internal/infer"
	"github.com/corelang/corec/internal/kinds"
	"github.com/corelang/corec/internal/scheme"
	"github.com/corelang/corec/internal/types"
)

func i32() types.Type { return types.Prim{Tag: "I32", K: kinds.Value{}} }

// TestElaborateMethodPlaceholderResolvesToInstance reproduces scenario
// S4 at package elaborate's own level: a MethodPlaceholder whose
// predicate argument matches a registered instance expands to that
// instance's call, not a dictionary reference (no enclosing context).
func TestElaborateMethodPlaceholderResolvesToInstance(t *testing.T) {
	fr := fresh.New()
	idx := env.InstanceIndex{}
	idx.Add("Eq", env.Instance{Scheme: scheme.Monotype(i32()), FunctionName: "eq$I32"})

	u := infer.Unit{
		Name: "main",
		Body: ast.Expression{
			ast.MethodPlaceholder{Name: "eq", Predicate: ast.Predicate{Trait: "Eq", Arg: i32()}},
		},
		Scheme: scheme.Scheme{Body: scheme.Qualified{}},
	}

	out, err := Elaborate(fr, idx, []infer.Unit{u})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0].Body, 1)
	id, ok := out[0].Body[0].(ast.Identifier)
	require.True(t, ok, "expected a resolved ast.Identifier, got %T", out[0].Body[0])
	assert.Equal(t, "eq$I32", id.Name)
}

// TestElaborateMethodPlaceholderUsesEnclosingDictionary checks the
// other resolution path: when the unit's own generalized context
// already carries a matching predicate, the placeholder resolves to
// that synthesized dictionary parameter instead of searching
// instances, even when the index has none registered at all.
func TestElaborateMethodPlaceholderUsesEnclosingDictionary(t *testing.T) {
	fr := fresh.New()
	idx := env.InstanceIndex{}
	a := types.Var{Name: "a", K: kinds.Value{}}

	u := infer.Unit{
		Name: "generic-eq-user",
		Body: ast.Expression{
			ast.MethodPlaceholder{Name: "eq", Predicate: ast.Predicate{Trait: "Eq", Arg: a}},
		},
		Scheme: scheme.Scheme{
			Quantified: []scheme.Quantifier{{Name: "a", Kind: kinds.Value{}}},
			Body:       scheme.Qualified{Context: []scheme.Predicate{{Trait: "Eq", Args: []types.Type{a}}}},
		},
	}

	out, err := Elaborate(fr, idx, []infer.Unit{u})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []string{"$dict_Eq_0"}, out[0].Params)
	require.Len(t, out[0].Body, 1)
	id, ok := out[0].Body[0].(ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "$dict_Eq_0", id.Name)
}

// TestElaborateInstanceNotFoundError reproduces scenario S6: no
// registered instance and no enclosing dictionary fails elaboration
// instead of emitting an unresolved reference.
func TestElaborateInstanceNotFoundError(t *testing.T) {
	fr := fresh.New()
	idx := env.InstanceIndex{}

	u := infer.Unit{
		Name: "main",
		Body: ast.Expression{
			ast.MethodPlaceholder{Name: "eq", Predicate: ast.Predicate{Trait: "Eq", Arg: i32()}},
		},
		Scheme: scheme.Scheme{Body: scheme.Qualified{}},
	}

	_, err := Elaborate(fr, idx, []infer.Unit{u})
	require.Error(t, err)
	var notFound *coreerrors.InstanceNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

// TestElaborateOverlappingInstanceError checks that two instances
// both matching the same concrete call-site type are rejected rather
// than silently picking one.
func TestElaborateOverlappingInstanceError(t *testing.T) {
	fr := fresh.New()
	idx := env.InstanceIndex{}
	idx.Add("Eq", env.Instance{Scheme: scheme.Monotype(i32()), FunctionName: "eq$I32$a"})
	idx.Add("Eq", env.Instance{Scheme: scheme.Monotype(i32()), FunctionName: "eq$I32$b"})

	u := infer.Unit{
		Name: "main",
		Body: ast.Expression{
			ast.MethodPlaceholder{Name: "eq", Predicate: ast.Predicate{Trait: "Eq", Arg: i32()}},
		},
		Scheme: scheme.Scheme{Body: scheme.Qualified{}},
	}

	_, err := Elaborate(fr, idx, []infer.Unit{u})
	require.Error(t, err)
	var overlap *coreerrors.OverlappingInstanceError
	assert.ErrorAs(t, err, &overlap)
}
