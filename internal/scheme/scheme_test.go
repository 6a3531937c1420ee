package scheme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corelang/corec/internal/fresh"
	"github.com/corelang/corec/internal/kinds"
	"github.com/corelang/corec/internal/types"
)

func TestGeneralizeQuantifiesFreeVars(t *testing.T) {
	a := types.Var{Name: "a", K: kinds.Value{}}
	q := Qualified{Head: a}
	sch := Generalize(map[string]bool{}, q)
	require.Len(t, sch.Quantified, 1)
	assert.Equal(t, "a", sch.Quantified[0].Name)
}

func TestGeneralizeExcludesEnvFreeVars(t *testing.T) {
	a := types.Var{Name: "a", K: kinds.Value{}}
	q := Qualified{Head: a}
	sch := Generalize(map[string]bool{"a": true}, q)
	assert.Empty(t, sch.Quantified)
}

func TestGeneralizeDedupesRepeatedVar(t *testing.T) {
	a := types.Var{Name: "a", K: kinds.Value{}}
	arrow := types.Con{Name: "->", K: kinds.MakeArrow(kinds.Value{}, kinds.Value{}, kinds.Value{})}
	head := types.App{Fn: types.App{Fn: arrow, Arg: a}, Arg: a}
	sch := Generalize(map[string]bool{}, Qualified{Head: head})
	assert.Len(t, sch.Quantified, 1)
}

func TestInstantiateFreshensQuantifiedVars(t *testing.T) {
	fr := fresh.New()
	sch := Scheme{
		Quantified: []Quantifier{{Name: "a", Kind: kinds.Value{}}},
		Body:       Qualified{Head: types.Var{Name: "a", K: kinds.Value{}}},
	}
	q1, _ := Instantiate(fr, sch)
	q2, _ := Instantiate(fr, sch)
	assert.NotEqual(t, q1.Head.String(), q2.Head.String(), "two instantiations must not share a variable")
}

func TestInstantiatePreservesContext(t *testing.T) {
	fr := fresh.New()
	a := types.Var{Name: "a", K: kinds.Value{}}
	sch := Scheme{
		Quantified: []Quantifier{{Name: "a", Kind: kinds.Value{}}},
		Body: Qualified{
			Context: []Predicate{{Trait: "Eq", Args: []types.Type{a}}},
			Head:    a,
		},
	}
	q, subst := Instantiate(fr, sch)
	require.Len(t, q.Context, 1)
	assert.Equal(t, q.Head, q.Context[0].Args[0])
	assert.Contains(t, subst, "a")
}

func TestMonotypeHasNoQuantifiers(t *testing.T) {
	sch := Monotype(types.Con{Name: "Int", K: kinds.Value{}})
	assert.Empty(t, sch.Quantified)
	assert.Empty(t, sch.Body.Context)
}
