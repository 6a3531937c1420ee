package kinds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseKindsEqualByType(t *testing.T) {
	assert.True(t, Value{}.Equal(Value{}))
	assert.False(t, Value{}.Equal(Data{}))
}

func TestRowAndSeqEqualByInner(t *testing.T) {
	assert.True(t, Row{Inner: Value{}}.Equal(Row{Inner: Value{}}))
	assert.False(t, Row{Inner: Value{}}.Equal(Row{Inner: Data{}}))
	assert.True(t, Seq{Inner: Value{}}.Equal(Seq{Inner: Value{}}))
}

func TestMakeArrowRightAssociative(t *testing.T) {
	got := MakeArrow(Value{}, Value{}, Value{})
	want := Arrow{From: Value{}, To: Arrow{From: Value{}, To: Value{}}}
	assert.True(t, got.Equal(want))
}

func TestMakeArrowSingleKind(t *testing.T) {
	assert.True(t, MakeArrow(Value{}).Equal(Value{}))
}

func TestUnifyBindsKindVariable(t *testing.T) {
	s, err := Unify(KVar{Name: "k"}, Value{})
	require.NoError(t, err)
	assert.True(t, Apply(s, KVar{Name: "k"}).Equal(Value{}))
}

func TestUnifyArrowRecurses(t *testing.T) {
	a := Arrow{From: KVar{Name: "a"}, To: Value{}}
	b := Arrow{From: Data{}, To: Value{}}
	s, err := Unify(a, b)
	require.NoError(t, err)
	assert.True(t, Apply(s, KVar{Name: "a"}).Equal(Data{}))
}

func TestUnifyMismatchErrors(t *testing.T) {
	_, err := Unify(Value{}, Data{})
	assert.Error(t, err)
}

func TestUnifyOccursCheck(t *testing.T) {
	rec := Arrow{From: KVar{Name: "a"}, To: Value{}}
	_, err := Unify(KVar{Name: "a"}, rec)
	assert.Error(t, err)
}

func TestVarPrefixDistinguishesKinds(t *testing.T) {
	assert.Equal(t, "t", VarPrefix(Value{}))
	assert.Equal(t, "e", VarPrefix(Effect{}))
	assert.Equal(t, "r", VarPrefix(Row{Inner: Value{}}))
	assert.Equal(t, "z", VarPrefix(Seq{Inner: Value{}}))
}

func TestIsUserSafeRejectsFreshNames(t *testing.T) {
	assert.False(t, IsUserSafe("t1*"))
	assert.True(t, IsUserSafe("myVar"))
}
