// Package chr implements the Constraint Handling Rules solver of
// spec.md §4.F: it reduces a set of predicates to normal form by
// repeatedly applying simplification (heads -> body) and propagation
// (heads => body) rules until none fire, rejecting the reduction as
// "non-confluent" if two independent firing orders disagree.
//
// There is no CHR solver in the teacher; the closest analog in the
// retrieval pack is the kevinawalsh-datalog engine's
// apply-clauses-to-fixpoint evaluation loop, which this package
// follows in spirit (repeatedly derive new facts/predicates from a
// rule set until a fixpoint), adapted from Datalog fact derivation to
// CHR-style rewriting of a mutable predicate multiset.
package chr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/corelang/corec/internal/coreerrors"
	"github.com/corelang/corec/internal/fresh"
	"github.com/corelang/corec/internal/types"
	"github.com/corelang/corec/internal/unify"
)

// Predicate is one constraint in the CHR store, e.g. "Eq t3".
type Predicate struct {
	Name string
	Args []types.Type
}

func (p Predicate) String() string {
	parts := make([]string, len(p.Args))
	for i, a := range p.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", p.Name, strings.Join(parts, ","))
}

func (p Predicate) Apply(s types.Subst) Predicate {
	args := make([]types.Type, len(p.Args))
	for i, a := range p.Args {
		args[i] = a.Apply(s)
	}
	return Predicate{Name: p.Name, Args: args}
}

// RuleKind distinguishes simplification from propagation rules.
type RuleKind int

const (
	Simplification RuleKind = iota
	Propagation
)

// Rule is either Simplification(Heads -> Body) or Propagation(Heads => Body).
type Rule struct {
	Name  string
	Kind  RuleKind
	Heads []Predicate
	Body  []Predicate
}

// Validate checks that every variable mentioned in Body is either
// bound by Heads or introduced fresh; it is the "CHR rule
// well-formedness check" named in SPEC_FULL.md's supplemented
// features, catching malformed user-declared rules at registration
// time instead of failing deep inside a solve.
func (r Rule) Validate() error {
	bound := map[string]bool{}
	for _, h := range r.Heads {
		for _, v := range freeVarsOf(h) {
			bound[v] = true
		}
	}
	// Body variables not bound by heads are allowed only if the rule
	// is a Propagation that introduces genuinely fresh obligations;
	// Simplification rules must be fully grounded by their heads since
	// they remove information from the store.
	if r.Kind == Simplification {
		for _, b := range r.Body {
			for _, v := range freeVarsOf(b) {
				if !bound[v] {
					return fmt.Errorf("chr rule %q: body variable %q not bound by heads", r.Name, v)
				}
			}
		}
	}
	return nil
}

func freeVarsOf(p Predicate) []string {
	names := []string{}
	for _, a := range p.Args {
		for _, v := range a.FreeVars() {
			names = append(names, v.Name)
		}
	}
	return names
}

// State is the CHR solver's working set: a set of predicates plus the
// accumulated substitution.
type State struct {
	Predicates []Predicate
	Subst      types.Subst
}

type firedKey string

// Solve reduces preds to a normal form under rules, starting from
// subst. It checks confluence by also solving with the rule set
// reversed and comparing the two residuals (spec.md testable property
// 10); a mismatch is reported as NonConfluentContextError.
func Solve(fr *fresh.Source, rules []Rule, preds []Predicate, subst types.Subst) (State, error) {
	forward := reduce(fr, rules, preds, subst)

	reversedRules := make([]Rule, len(rules))
	for i, r := range rules {
		reversedRules[len(rules)-1-i] = r
	}
	backward := reduce(fr, reversedRules, preds, subst)

	if !sameResidual(forward.Predicates, backward.Predicates) {
		stringers := make([]fmt.Stringer, len(forward.Predicates)+len(backward.Predicates))
		i := 0
		for _, p := range forward.Predicates {
			stringers[i] = p
			i++
		}
		for _, p := range backward.Predicates {
			stringers[i] = p
			i++
		}
		return State{}, &coreerrors.NonConfluentContextError{Predicates: stringers}
	}
	return forward, nil
}

// reduce repeatedly applies the first matching rule (in the given
// order) until none fire, returning the resulting normal form.
func reduce(fr *fresh.Source, rules []Rule, preds []Predicate, subst types.Subst) State {
	st := State{Predicates: append([]Predicate{}, preds...), Subst: subst}
	fired := map[firedKey]bool{}

	for {
		applied := false
		for _, r := range rules {
			match, matchedIdx, phi, ok := tryMatch(fr, r, st.Predicates, st.Subst)
			if !ok {
				continue
			}
			key := firedKey(r.Name + "|" + matchKey(match))
			if r.Kind == Propagation && fired[key] {
				continue
			}

			st.Subst = st.Subst.Compose(phi)
			body := make([]Predicate, len(r.Body))
			for i, b := range r.Body {
				body[i] = b.Apply(st.Subst)
			}

			switch r.Kind {
			case Simplification:
				st.Predicates = removeIndices(st.Predicates, matchedIdx)
				st.Predicates = append(st.Predicates, body...)
			case Propagation:
				fired[key] = true
				st.Predicates = append(st.Predicates, body...)
			}
			applied = true
			break
		}
		if !applied {
			break
		}
	}
	return st
}

// tryMatch looks for a subset of preds matching r.Heads (in order,
// same length), unifying argument-by-argument. Returns the matched
// predicates, their indices, the substitution extension, and whether
// a match was found.
func tryMatch(fr *fresh.Source, r Rule, preds []Predicate, subst types.Subst) ([]Predicate, []int, types.Subst, bool) {
	if len(r.Heads) == 0 {
		return nil, nil, types.Subst{}, false
	}
	indices := make([]int, len(r.Heads))
	return matchHeads(fr, r.Heads, 0, preds, subst, indices, nil)
}

func matchHeads(fr *fresh.Source, heads []Predicate, hi int, preds []Predicate, subst types.Subst, used []int, chosen []int) ([]Predicate, []int, types.Subst, bool) {
	if hi == len(heads) {
		out := make([]Predicate, len(chosen))
		for i, idx := range chosen {
			out[i] = preds[idx]
		}
		return out, append([]int{}, chosen...), subst, true
	}
	head := heads[hi]
	for i, p := range preds {
		if containsInt(used, i) || p.Name != head.Name || len(p.Args) != len(head.Args) {
			continue
		}
		s := subst
		ok := true
		for j := range head.Args {
			s2, err := unify.Unify(fr, head.Args[j].Apply(s), p.Args[j].Apply(s))
			if err != nil {
				ok = false
				break
			}
			s = s.Compose(s2)
		}
		if !ok {
			continue
		}
		nextUsed := append(append([]int{}, used...), i)
		nextChosen := append(append([]int{}, chosen...), i)
		if out, idx, finalSubst, found := matchHeads(fr, heads, hi+1, preds, s, nextUsed, nextChosen); found {
			return out, idx, finalSubst, true
		}
	}
	return nil, nil, types.Subst{}, false
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func removeIndices(preds []Predicate, idx []int) []Predicate {
	remove := map[int]bool{}
	for _, i := range idx {
		remove[i] = true
	}
	out := make([]Predicate, 0, len(preds)-len(idx))
	for i, p := range preds {
		if !remove[i] {
			out = append(out, p)
		}
	}
	return out
}

func matchKey(preds []Predicate) string {
	parts := make([]string, len(preds))
	for i, p := range preds {
		parts[i] = p.String()
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

// sameResidual compares two predicate sets up to ordering and
// variable-name renaming is approximated by string-sorted comparison,
// matching the tolerance spec.md testable property 10 asks for.
func sameResidual(a, b []Predicate) bool {
	if len(a) != len(b) {
		return false
	}
	sa := make([]string, len(a))
	for i, p := range a {
		sa[i] = p.String()
	}
	sb := make([]string, len(b))
	for i, p := range b {
		sb[i] = p.String()
	}
	sort.Strings(sa)
	sort.Strings(sb)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}
