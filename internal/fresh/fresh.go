// Package fresh generates new type/kind variable names from a single
// monotonic counter, segregated by kind-derived prefix so that a
// variable's name hints at what it ranges over (spec.md §4.D).
//
// Grounded on the teacher's analyzer.InferenceContext, which holds a
// single counter and a BaseCounter used to distinguish pre-existing
// (generic parameter) names from names minted during this session;
// generalized here from funxy's single "t" prefix to the full
// kind-to-prefix table spec.md names.
package fresh

import (
	"fmt"

	"github.com/corelang/corec/internal/kinds"
	"github.com/corelang/corec/internal/types"
)

// Source is a fresh-name generator. It is a plain value threaded
// explicitly through inference (spec.md §9: "threading the fresh-variable
// counter as a value"), not global mutable state.
type Source struct {
	counter     int
	baseCounter int
}

// New creates a fresh Source starting at zero.
func New() *Source { return &Source{} }

// NewFrom creates a Source whose counter starts after base, used when
// resuming fresh-variable generation past names already assigned
// (e.g. generic parameters introduced before inference began).
func NewFrom(base int) *Source { return &Source{counter: base, baseCounter: base} }

// Next returns a new unique name prefixed per k's position in the kind
// lattice, plus a Var leaf of kind k built from that name.
func (s *Source) Next(k kinds.Kind) types.Var {
	s.counter++
	name := fmt.Sprintf("%s%d*", kinds.VarPrefix(k), s.counter)
	return types.Var{Name: name, K: k}
}

// NextSeqVar mints a fresh sequence variable, used when dotted-sequence
// unification needs to introduce a variable standing for zero-or-more
// remaining elements (spec.md §4.C.6).
func (s *Source) NextSeqVar(elemKind kinds.Kind) types.Var {
	return s.Next(kinds.Seq{Inner: elemKind})
}

// NextRowVar mints a fresh row-tail variable.
func (s *Source) NextRowVar(elemKind kinds.Kind) types.Var {
	return s.Next(kinds.Row{Inner: elemKind})
}

// Counter returns the current counter value (for snapshotting/resuming
// across a recursive-group's two-pass scheme, spec.md §9).
func (s *Source) Counter() int { return s.counter }

// Reset resets the counter to zero. Exposed for test determinism, the
// same way the teacher's InferenceContext.Reset is used in its tests.
func (s *Source) Reset() { s.counter = 0 }
