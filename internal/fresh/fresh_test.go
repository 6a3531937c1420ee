package fresh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corelang/corec/internal/kinds"
)

func TestNextProducesDistinctNames(t *testing.T) {
	s := New()
	a := s.Next(kinds.Value{})
	b := s.Next(kinds.Value{})
	assert.NotEqual(t, a.Name, b.Name)
}

func TestNextPrefixesByKind(t *testing.T) {
	s := New()
	v := s.Next(kinds.Effect{})
	assert.Equal(t, byte('e'), v.Name[0])
}

func TestNewFromResumesPastBase(t *testing.T) {
	s := NewFrom(10)
	v := s.Next(kinds.Value{})
	assert.Equal(t, "t11*", v.Name)
}

func TestCounterTracksIssuedNames(t *testing.T) {
	s := New()
	require.Equal(t, 0, s.Counter())
	s.Next(kinds.Value{})
	s.Next(kinds.Value{})
	assert.Equal(t, 2, s.Counter())
}

func TestResetRewindsCounter(t *testing.T) {
	s := New()
	s.Next(kinds.Value{})
	s.Reset()
	assert.Equal(t, 0, s.Counter())
}
