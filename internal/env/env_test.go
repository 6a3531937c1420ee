package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corelang/corec/internal/scheme"
	"github.com/corelang/corec/internal/types"
)

func TestBindShadowsWithoutMutatingParent(t *testing.T) {
	base := New()
	child := base.Bind(NSWord, "x", Entry{Name: "x", Kind: KindVariable})
	_, ok := base.LookupWord("x")
	assert.False(t, ok, "Bind must not mutate the snapshot it was called on")
	entry, ok := child.LookupWord("x")
	require.True(t, ok)
	assert.Equal(t, "x", entry.Name)
}

func TestChildFallsThroughToParent(t *testing.T) {
	base := New().Bind(NSWord, "x", Entry{Name: "x", Kind: KindVariable})
	child := base.Child()
	entry, ok := child.LookupWord("x")
	require.True(t, ok)
	assert.Equal(t, KindVariable, entry.Kind)
}

func TestChildShadowsParentBinding(t *testing.T) {
	base := New().Bind(NSWord, "x", Entry{Name: "x", Kind: KindVariable})
	child := base.Child().Bind(NSWord, "x", Entry{Name: "x", Kind: KindFunction})
	entry, _ := child.LookupWord("x")
	assert.Equal(t, KindFunction, entry.Kind)
	parentEntry, _ := base.LookupWord("x")
	assert.Equal(t, KindVariable, parentEntry.Kind)
}

func TestNamespacesAreIndependent(t *testing.T) {
	e := New().Bind(NSWord, "x", Entry{Name: "x", Kind: KindVariable})
	_, ok := e.Lookup(NSPattern, "x")
	assert.False(t, ok)
}

func TestLookupMissingNameFails(t *testing.T) {
	_, ok := New().LookupWord("nope")
	assert.False(t, ok)
}

func TestAddInstanceAppendsToOverloadEntry(t *testing.T) {
	e := New().Bind(NSWord, "eq", Entry{Name: "eq", Kind: KindOverload, PredicateName: "Eq"})
	inst := Instance{Scheme: scheme.Monotype(types.Con{Name: "Int"}), FunctionName: "eq$Int"}
	e2 := e.AddInstance("eq", inst)
	entry, _ := e2.LookupWord("eq")
	require.Len(t, entry.Instances, 1)
	assert.Equal(t, "eq$Int", entry.Instances[0].FunctionName)
}

func TestAddInstanceIgnoresNonOverloadEntry(t *testing.T) {
	e := New().Bind(NSWord, "x", Entry{Name: "x", Kind: KindVariable})
	e2 := e.AddInstance("x", Instance{FunctionName: "bogus"})
	entry, _ := e2.LookupWord("x")
	assert.Empty(t, entry.Instances)
}

func TestInstanceIndexAddAccumulates(t *testing.T) {
	idx := InstanceIndex{}
	idx.Add("Eq", Instance{FunctionName: "eq$Int"})
	idx.Add("Eq", Instance{FunctionName: "eq$Bool"})
	assert.Len(t, idx["Eq"], 2)
}
