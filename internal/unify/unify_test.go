package unify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corelang/corec/internal/abelian"
	"github.com/corelang/corec/internal/fresh"
	"github.com/corelang/corec/internal/kinds"
	"github.com/corelang/corec/internal/types"
)

func TestUnifyVariableBinds(t *testing.T) {
	fr := fresh.New()
	v := types.Var{Name: "a", K: kinds.Value{}}
	con := types.Con{Name: "Int", K: kinds.Value{}}
	s, err := Unify(fr, v, con)
	require.NoError(t, err)
	assert.Equal(t, con, s["a"])
}

func TestUnifyConstructorNameMismatch(t *testing.T) {
	fr := fresh.New()
	a := types.Con{Name: "Int", K: kinds.Value{}}
	b := types.Con{Name: "Bool", K: kinds.Value{}}
	_, err := Unify(fr, a, b)
	assert.Error(t, err)
}

func TestUnifyOccursCheckFails(t *testing.T) {
	fr := fresh.New()
	v := types.Var{Name: "a", K: kinds.Value{}}
	listOfA := types.App{
		Fn:  types.Con{Name: "List", K: kinds.MakeArrow(kinds.Value{}, kinds.Value{})},
		Arg: v,
	}
	_, err := Unify(fr, v, listOfA)
	assert.Error(t, err)
}

func TestUnifyRowSameLabelOrder(t *testing.T) {
	fr := fresh.New()
	tailVar := types.Var{Name: "r", K: kinds.Row{Inner: kinds.Field{}}}
	left := types.RowExtend{Label: "x", Elem: types.Con{Name: "Int", K: kinds.Value{}}, Tail: tailVar}
	right := types.RowExtend{Label: "x", Elem: types.Con{Name: "Int", K: kinds.Value{}}, Tail: types.RowEmpty{ElemKind: kinds.Field{}}}
	s, err := Unify(fr, left, right)
	require.NoError(t, err)
	assert.Equal(t, types.RowEmpty{ElemKind: kinds.Field{}}, s["r"])
}

// Rows that disagree on field order must still unify by rotating the
// right-hand row to expose the left row's head label (spec.md §4.C.4
// "permutation of labels"), the defining property of row polymorphism
// distinct from ordinary record unification.
func TestUnifyRowPermutedLabels(t *testing.T) {
	fr := fresh.New()
	field := kinds.Field{}
	intT := types.Con{Name: "Int", K: kinds.Value{}}
	boolT := types.Con{Name: "Bool", K: kinds.Value{}}

	left := types.RowExtend{
		Label: "x", Elem: intT,
		Tail: types.RowExtend{Label: "y", Elem: boolT, Tail: types.RowEmpty{ElemKind: field}},
	}
	right := types.RowExtend{
		Label: "y", Elem: boolT,
		Tail: types.RowExtend{Label: "x", Elem: intT, Tail: types.RowEmpty{ElemKind: field}},
	}

	_, err := Unify(fr, left, right)
	require.NoError(t, err)
}

func TestUnifyAbelianEquations(t *testing.T) {
	fr := fresh.New()
	x := abelian.New(map[string]int{"x": 1}, nil)
	meterPerSec := abelian.New(nil, map[string]int{"m": 1, "s": -1})
	a := types.AbelianEq{Eq: x, K: kinds.Unit{}}
	b := types.AbelianEq{Eq: meterPerSec, K: kinds.Unit{}}
	s, err := Unify(fr, a, b)
	require.NoError(t, err)
	assert.Contains(t, s, "x")
}

func TestSolveAllComposesLeftToRight(t *testing.T) {
	fr := fresh.New()
	a := types.Var{Name: "a", K: kinds.Value{}}
	b := types.Var{Name: "b", K: kinds.Value{}}
	intT := types.Con{Name: "Int", K: kinds.Value{}}
	s, err := SolveAll(fr, [][2]types.Type{{a, b}, {b, intT}})
	require.NoError(t, err)
	assert.Equal(t, intT, a.Apply(s))
	assert.Equal(t, intT, b.Apply(s))
}

func TestUnifySeqDottedAbsorbsRemainder(t *testing.T) {
	fr := fresh.New()
	intT := types.Con{Name: "Int", K: kinds.Value{}}
	dotted := types.Seq{Elems: []types.SeqElem{{Elem: intT, Dotted: true}}, ElemKind: kinds.Value{}}
	concrete := types.Seq{Elems: []types.SeqElem{{Elem: intT}, {Elem: intT}}, ElemKind: kinds.Value{}}
	_, err := Unify(fr, dotted, concrete)
	require.NoError(t, err)
}
