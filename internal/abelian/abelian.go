// Package abelian implements signed-multiset (free Abelian group)
// arithmetic, used by the unifier (package unify) both for
// unit-of-measure equations and for the two-valued Boolean attribute
// lattices (sharing, totality, trust, clearance, validity), which
// spec.md §9 models as a multiplicative group of order 2 with true/false
// encoded as exponent 1/0 on a distinguished constant.
//
// Representation and the invariant that no key maps to a zero exponent
// follow the same "small map-backed struct, deterministic key order"
// idiom the teacher uses for typesystem.Subst and TRecord.Fields.
package abelian

import (
	"fmt"
	"sort"
	"strings"
)

// Equation is a pair of finite maps: variable name -> signed exponent,
// and constant name -> signed exponent. It represents one term of a
// free Abelian group presented multiplicatively (e.g. m^2 * s^-1 for
// an acceleration unit, or b^1 for the Boolean constant "true").
//
// Invariant: no key maps to 0; zero-exponent entries are removed on
// every operation that could introduce one.
type Equation struct {
	Vars  map[string]int
	Const map[string]int
}

// New builds an equation, pruning zero exponents.
func New(vars, consts map[string]int) Equation {
	return Equation{Vars: prune(vars), Const: prune(consts)}
}

// Identity is the empty equation (the group's identity element).
func Identity() Equation {
	return Equation{Vars: map[string]int{}, Const: map[string]int{}}
}

func prune(m map[string]int) map[string]int {
	out := map[string]int{}
	for k, v := range m {
		if v != 0 {
			out[k] = v
		}
	}
	return out
}

// String renders the equation as a product of var^exp * const^exp
// terms in sorted-key order, for deterministic diagnostics.
func (e Equation) String() string {
	if e.IsIdentity() {
		return "1"
	}
	names := make([]string, 0, len(e.Vars))
	for n := range e.Vars {
		names = append(names, n)
	}
	sort.Strings(names)
	consts := make([]string, 0, len(e.Const))
	for n := range e.Const {
		consts = append(consts, n)
	}
	sort.Strings(consts)

	parts := make([]string, 0, len(names)+len(consts))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%s^%d", n, e.Vars[n]))
	}
	for _, n := range consts {
		parts = append(parts, fmt.Sprintf("%s^%d", n, e.Const[n]))
	}
	return strings.Join(parts, "*")
}

// IsIdentity reports whether the equation has no variable or constant
// exponents, i.e. equals the group identity.
func (e Equation) IsIdentity() bool {
	return len(e.Vars) == 0 && len(e.Const) == 0
}

// Equal reports structural equality after pruning.
func (e Equation) Equal(o Equation) bool {
	if len(e.Vars) != len(o.Vars) || len(e.Const) != len(o.Const) {
		return false
	}
	for k, v := range e.Vars {
		if o.Vars[k] != v {
			return false
		}
	}
	for k, v := range e.Const {
		if o.Const[k] != v {
			return false
		}
	}
	return true
}

// Add combines two equations (multiplies the two group elements),
// summing like exponents.
func (e Equation) Add(o Equation) Equation {
	vars := map[string]int{}
	for k, v := range e.Vars {
		vars[k] = v
	}
	for k, v := range o.Vars {
		vars[k] += v
	}
	consts := map[string]int{}
	for k, v := range e.Const {
		consts[k] = v
	}
	for k, v := range o.Const {
		consts[k] += v
	}
	return New(vars, consts)
}

// Invert negates every exponent (the group inverse).
func (e Equation) Invert() Equation {
	return e.Scale(-1)
}

// Scale multiplies every exponent by k.
func (e Equation) Scale(k int) Equation {
	vars := map[string]int{}
	for n, v := range e.Vars {
		vars[n] = v * k
	}
	consts := map[string]int{}
	for n, v := range e.Const {
		consts[n] = v * k
	}
	return New(vars, consts)
}

// Divide divides every exponent by k (integer division), used when
// pivoting a variable whose own exponent is k.
func (e Equation) Divide(k int) Equation {
	vars := map[string]int{}
	for n, v := range e.Vars {
		vars[n] = v / k
	}
	consts := map[string]int{}
	for n, v := range e.Const {
		consts[n] = v / k
	}
	return New(vars, consts)
}

// Pivot eliminates variable v from e, assuming e == (v^k * rest).
// The result is the equation v must equal for e to equal the
// identity: v = rest^(-1/k), i.e. negate rest's remaining exponents
// and divide by k. v is absent from the result (spec.md testable
// property 5).
func (e Equation) Pivot(v string) (Equation, bool) {
	k, ok := e.Vars[v]
	if !ok || k == 0 {
		return Equation{}, false
	}
	rest := e.withoutVar(v)
	return rest.Invert().Divide(k), true
}

func (e Equation) withoutVar(v string) Equation {
	vars := map[string]int{}
	for n, val := range e.Vars {
		if n != v {
			vars[n] = val
		}
	}
	consts := map[string]int{}
	for n, val := range e.Const {
		consts[n] = val
	}
	return New(vars, consts)
}

// SubstituteVar replaces variable v everywhere it appears in e with
// the equation repl (its exponent distributes over repl by
// multiplication, i.e. Scale+Add).
func (e Equation) SubstituteVar(v string, repl Equation) Equation {
	k, ok := e.Vars[v]
	if !ok {
		return e
	}
	rest := e.withoutVar(v)
	return rest.Add(repl.Scale(k))
}

// SmallestExponentVar returns the name of the variable with the
// smallest absolute exponent, used as the unifier's pivot rule
// (spec.md §4.C.5). Returns ok=false if there are no variables.
func (e Equation) SmallestExponentVar() (name string, ok bool) {
	if len(e.Vars) == 0 {
		return "", false
	}
	names := make([]string, 0, len(e.Vars))
	for n := range e.Vars {
		names = append(names, n)
	}
	sort.Strings(names) // deterministic tie-break
	best := names[0]
	bestAbs := abs(e.Vars[best])
	for _, n := range names[1:] {
		if a := abs(e.Vars[n]); a < bestAbs {
			best, bestAbs = n, a
		}
	}
	return best, true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Solve unifies two equations by repeatedly pivoting the variable
// with the smallest absolute exponent in (e1 - e2) until no variables
// remain, per spec.md §4.C.5. It always terminates because each pivot
// strictly reduces the number of distinct variables. Returns the
// substitution as a map from variable name to the equation it must
// equal, or an error if the residual constant-only equation is not
// the identity (a true constant mismatch).
func Solve(e1, e2 Equation) (map[string]Equation, error) {
	diff := e1.Add(e2.Invert())
	subst := map[string]Equation{}
	for {
		v, ok := diff.SmallestExponentVar()
		if !ok {
			break
		}
		resolved, _ := diff.Pivot(v)
		subst[v] = resolved
		for k, eq := range subst {
			if k == v {
				continue
			}
			subst[k] = eq.SubstituteVar(v, resolved)
		}
		diff = diff.SubstituteVar(v, resolved)
	}
	if !diff.IsIdentity() {
		return nil, &MismatchError{Residual: diff}
	}
	return subst, nil
}

// MismatchError reports that two equations could not be unified
// because a nonzero constant exponent remained after eliminating all
// variables.
type MismatchError struct {
	Residual Equation
}

func (e *MismatchError) Error() string {
	return "abelian equation mismatch: unresolved constant exponents remain"
}

// Boolean-lattice encoding (spec.md §9): true/false are constants of
// exponent 1/0 in a multiplicative group of order 2 over a single
// distinguished constant name.
const boolConst = "@bool"

// True returns the equation encoding the Boolean value true.
func True() Equation { return New(nil, map[string]int{boolConst: 1}) }

// False returns the equation encoding the Boolean value false (the identity).
func False() Equation { return Identity() }

// Or computes the disjunction of two Boolean-encoded equations: in a
// mod-2 group, a OR b = a + b - a*b; since exponents only take 0/1 we
// implement it directly rather than via group Add (Add would compute
// XOR, not OR).
func Or(a, b Equation) Equation {
	if a.Const[boolConst] == 1 || b.Const[boolConst] == 1 {
		return True()
	}
	return False()
}

// And computes the conjunction of two Boolean-encoded equations.
func And(a, b Equation) Equation {
	if a.Const[boolConst] == 1 && b.Const[boolConst] == 1 {
		return True()
	}
	return False()
}
