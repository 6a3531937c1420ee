package chr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corelang/corec/internal/fresh"
	"github.com/corelang/corec/internal/kinds"
	"github.com/corelang/corec/internal/types"
)

func v(name string) types.Type { return types.Var{Name: name, K: kinds.Value{}} }
func con(name string) types.Type { return types.Con{Name: name, K: kinds.Value{}} }

// TestSolveSimplificationRemovesMatchedHeads checks that a
// Simplification rule replaces its matched heads with its body rather
// than leaving them in the residual store.
func TestSolveSimplificationRemovesMatchedHeads(t *testing.T) {
	fr := fresh.New()
	rules := []Rule{
		{
			Name:  "eq-reflexive",
			Kind:  Simplification,
			Heads: []Predicate{{Name: "Eq", Args: []types.Type{v("a"), v("a")}}},
			Body:  nil,
		},
	}
	preds := []Predicate{{Name: "Eq", Args: []types.Type{con("Int"), con("Int")}}}

	st, err := Solve(fr, rules, preds, types.Subst{})
	require.NoError(t, err)
	assert.Empty(t, st.Predicates)
}

// TestSolvePropagationAddsBodyWithoutRemovingHeads checks that a
// Propagation rule's heads remain in the store alongside its derived
// body, and that it does not re-fire on the same match forever.
func TestSolvePropagationAddsBodyWithoutRemovingHeads(t *testing.T) {
	fr := fresh.New()
	rules := []Rule{
		{
			Name:  "ord-from-eq",
			Kind:  Propagation,
			Heads: []Predicate{{Name: "Eq", Args: []types.Type{v("a"), v("b")}}},
			Body:  []Predicate{{Name: "Ord", Args: []types.Type{v("a")}}},
		},
	}
	preds := []Predicate{{Name: "Eq", Args: []types.Type{con("Int"), con("Int")}}}

	st, err := Solve(fr, rules, preds, types.Subst{})
	require.NoError(t, err)
	require.Len(t, st.Predicates, 2)

	var names []string
	for _, p := range st.Predicates {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"Eq", "Ord"}, names)
}

// TestSolveNoMatchingRuleLeavesPredicatesUntouched checks the base
// case: no rule head matches, so Solve is a no-op.
func TestSolveNoMatchingRuleLeavesPredicatesUntouched(t *testing.T) {
	fr := fresh.New()
	rules := []Rule{
		{
			Name:  "unrelated",
			Kind:  Simplification,
			Heads: []Predicate{{Name: "Show", Args: []types.Type{v("a")}}},
		},
	}
	preds := []Predicate{{Name: "Eq", Args: []types.Type{con("Int"), con("Int")}}}

	st, err := Solve(fr, rules, preds, types.Subst{})
	require.NoError(t, err)
	require.Len(t, st.Predicates, 1)
	assert.Equal(t, "Eq", st.Predicates[0].Name)
}

// TestValidateRejectsUngroundedSimplificationBody checks the
// well-formedness check spec.md's supplemented features ask for: a
// Simplification rule may not introduce a body variable its heads
// never bind.
func TestValidateRejectsUngroundedSimplificationBody(t *testing.T) {
	r := Rule{
		Name:  "bad",
		Kind:  Simplification,
		Heads: []Predicate{{Name: "Eq", Args: []types.Type{v("a")}}},
		Body:  []Predicate{{Name: "Ord", Args: []types.Type{v("b")}}},
	}
	assert.Error(t, r.Validate())
}

// TestValidateAllowsUngroundedPropagationBody checks that Propagation
// rules, unlike Simplification rules, may introduce fresh obligations
// not bound by their heads.
func TestValidateAllowsUngroundedPropagationBody(t *testing.T) {
	r := Rule{
		Name:  "fine",
		Kind:  Propagation,
		Heads: []Predicate{{Name: "Eq", Args: []types.Type{v("a")}}},
		Body:  []Predicate{{Name: "Ord", Args: []types.Type{v("b")}}},
	}
	assert.NoError(t, r.Validate())
}
