// Package scheme implements qualified types and type schemes
// (spec.md §3) plus the generalize/instantiate pair every
// Hindley-Milner engine needs — named as an explicit operation here
// because spec.md defines the Scheme *data type* but never names the
// generalize/instantiate *operations* (SPEC_FULL.md "Supplemented
// features"). Grounded on the teacher's TForall handling in
// internal/typesystem/types.go, which already filters a substitution
// by the quantified variables before applying it to the body.
package scheme

import (
	"fmt"
	"strings"

	"github.com/corelang/corec/internal/fresh"
	"github.com/corelang/corec/internal/kinds"
	"github.com/corelang/corec/internal/types"
)

// Predicate is a type constraint applied to one or more type
// arguments (e.g. "Eq a", "Convert a b").
type Predicate struct {
	Trait string
	Args  []types.Type
}

func (p Predicate) String() string {
	parts := make([]string, len(p.Args))
	for i, a := range p.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s %s", p.Trait, strings.Join(parts, " "))
}

func (p Predicate) Apply(s types.Subst) Predicate {
	args := make([]types.Type, len(p.Args))
	for i, a := range p.Args {
		args[i] = a.Apply(s)
	}
	return Predicate{Trait: p.Trait, Args: args}
}

func (p Predicate) FreeVars() []types.Var {
	vars := []types.Var{}
	for _, a := range p.Args {
		vars = append(vars, a.FreeVars()...)
	}
	return vars
}

// Qualified is a qualified type: (context, head).
type Qualified struct {
	Context []Predicate
	Head    types.Type
}

func (q Qualified) Apply(s types.Subst) Qualified {
	ctx := make([]Predicate, len(q.Context))
	for i, p := range q.Context {
		ctx[i] = p.Apply(s)
	}
	return Qualified{Context: ctx, Head: q.Head.Apply(s)}
}

func (q Qualified) FreeVars() []types.Var {
	vars := append([]types.Var{}, q.Head.FreeVars()...)
	for _, p := range q.Context {
		vars = append(vars, p.FreeVars()...)
	}
	return dedupe(vars)
}

func (q Qualified) String() string {
	if len(q.Context) == 0 {
		return q.Head.String()
	}
	parts := make([]string, len(q.Context))
	for i, p := range q.Context {
		parts[i] = p.String()
	}
	return fmt.Sprintf("(%s) => %s", strings.Join(parts, ", "), q.Head)
}

// Quantifier is one (name, kind) pair bound by a Scheme.
type Quantifier struct {
	Name string
	Kind kinds.Kind
}

// Scheme is (quantified, body); quantifiers are implicit-universal
// (spec.md §3).
type Scheme struct {
	Quantified []Quantifier
	Body       Qualified
}

// Monotype wraps a type with no quantifiers and no context, for
// non-generalized bindings (e.g. let-bound locals before
// generalization in a recursive group).
func Monotype(t types.Type) Scheme {
	return Scheme{Body: Qualified{Head: t}}
}

// Generalize closes over every free variable of q that is not free in
// the enclosing environment, turning it into an explicit quantifier.
// envFree is the set of free variable names still in scope outside
// the binding being generalized (e.g. because an enclosing let-bound
// function is mutually recursive with it).
func Generalize(envFree map[string]bool, q Qualified) Scheme {
	seen := map[string]bool{}
	quant := []Quantifier{}
	for _, v := range q.FreeVars() {
		if envFree[v.Name] || seen[v.Name] {
			continue
		}
		seen[v.Name] = true
		quant = append(quant, Quantifier{Name: v.Name, Kind: v.K})
	}
	return Scheme{Quantified: quant, Body: q}
}

// Instantiate replaces every quantified variable of s with a fresh
// variable of the same kind, returning the instantiated qualified type
// and the substitution used (callers may need it to also rename
// companion metadata, e.g. constructor argument positions).
func Instantiate(fr *fresh.Source, s Scheme) (Qualified, types.Subst) {
	subst := types.Subst{}
	for _, q := range s.Quantified {
		subst[q.Name] = fr.Next(q.Kind)
	}
	return s.Body.Apply(subst), subst
}

func dedupe(vars []types.Var) []types.Var {
	seen := map[string]bool{}
	out := []types.Var{}
	for _, v := range vars {
		if !seen[v.Name] {
			seen[v.Name] = true
			out = append(out, v)
		}
	}
	return out
}
