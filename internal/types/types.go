// Package types represents the type-term language of spec.md §3: a
// tree of leaves (variable, constant, primitive, true, false,
// abelian-one, row-empty, fixed-integer) and nodes (application,
// row-extension, dotted/indexed sequence), each carrying a kind.
//
// The representation and substitution-application machinery are
// adapted from the teacher's internal/typesystem/types.go: the same
// switch-per-constructor Apply, the same cycle-guarded recursive
// substitution, the same sorted-map-keys-for-determinism discipline.
package types

import (
	"fmt"
	"sort"
	"strings"

	"github.com/corelang/corec/internal/abelian"
	"github.com/corelang/corec/internal/coreconfig"
	"github.com/corelang/corec/internal/coreerrors"
	"github.com/corelang/corec/internal/kinds"
)

// Type is the interface implemented by every node/leaf of a type term.
type Type interface {
	String() string
	Kind() kinds.Kind
	FreeVars() []Var
	Apply(Subst) Type
}

// Var is a type variable leaf: variable(name, kind).
type Var struct {
	Name string
	K    kinds.Kind
}

func (v Var) String() string {
	if coreconfig.IsTestMode && strings.ContainsRune(v.Name, '*') {
		return "t?"
	}
	return v.Name
}
func (v Var) Kind() kinds.Kind { return v.K }
func (v Var) FreeVars() []Var  { return []Var{v} }
func (v Var) Apply(s Subst) Type {
	return applyCycle(v, s, map[string]bool{})
}

// Con is a type constant/constructor leaf: constant(name, kind).
type Con struct {
	Name string
	K    kinds.Kind
}

func (c Con) String() string      { return c.Name }
func (c Con) Kind() kinds.Kind    { return c.K }
func (c Con) FreeVars() []Var     { return nil }
func (c Con) Apply(s Subst) Type  { return applyCycle(c, s, map[string]bool{}) }

// Prim is a primitive leaf tagged by an opaque primitive-table tag
// (e.g. an I32 integer constant type, a Bool constant type).
type Prim struct {
	Tag string
	K   kinds.Kind
}

func (p Prim) String() string     { return p.Tag }
func (p Prim) Kind() kinds.Kind   { return p.K }
func (p Prim) FreeVars() []Var    { return nil }
func (p Prim) Apply(Subst) Type   { return p }

// TrueT and FalseT are the two Boolean-attribute leaves used by
// Abelian equations over a multiplicative group of order 2 (sharing,
// totality, trust, clearance, validity).
type TrueT struct{ K kinds.Kind }
type FalseT struct{ K kinds.Kind }

func (t TrueT) String() string    { return "true" }
func (t TrueT) Kind() kinds.Kind  { return t.K }
func (t TrueT) FreeVars() []Var   { return nil }
func (t TrueT) Apply(Subst) Type  { return t }

func (f FalseT) String() string   { return "false" }
func (f FalseT) Kind() kinds.Kind { return f.K }
func (f FalseT) FreeVars() []Var  { return nil }
func (f FalseT) Apply(Subst) Type { return f }

// AbelianOne is the multiplicative identity element of a unit-of-measure
// or attribute group (dimensionless / unshared-by-default, depending on context).
type AbelianOne struct{ K kinds.Kind }

func (o AbelianOne) String() string    { return "1" }
func (o AbelianOne) Kind() kinds.Kind  { return o.K }
func (o AbelianOne) FreeVars() []Var   { return nil }
func (o AbelianOne) Apply(Subst) Type  { return o }

// FixedInt is a type-level fixed integer (used for e.g. sized-array
// lengths and Abelian equation coefficients reified as types).
type FixedInt struct {
	Value int
	K     kinds.Kind
}

func (f FixedInt) String() string    { return fmt.Sprintf("%d", f.Value) }
func (f FixedInt) Kind() kinds.Kind  { return f.K }
func (f FixedInt) FreeVars() []Var   { return nil }
func (f FixedInt) Apply(Subst) Type  { return f }

// AbelianEq is a type-level Abelian equation: either a unit-of-measure
// (kind Unit) or a Boolean attribute equation (kind Sharing, Totality,
// Trust, Clearance or a validity-like kind), per spec.md §3/§4.B. Its
// free variables are the equation's variable exponent keys, reified as
// Var leaves of the same kind as the equation itself so unification
// (package unify) can bind them like any other type variable.
type AbelianEq struct {
	Eq abelian.Equation
	K  kinds.Kind
}

func (a AbelianEq) String() string   { return a.Eq.String() }
func (a AbelianEq) Kind() kinds.Kind { return a.K }
func (a AbelianEq) FreeVars() []Var {
	vars := make([]Var, 0, len(a.Eq.Vars))
	for name := range a.Eq.Vars {
		vars = append(vars, Var{Name: name, K: a.K})
	}
	return uniqueVars(vars)
}
func (a AbelianEq) Apply(s Subst) Type {
	eq := a.Eq
	for name := range a.Eq.Vars {
		repl, ok := s[name]
		if !ok {
			continue
		}
		replEq, ok := repl.(AbelianEq)
		if !ok {
			continue
		}
		eq = eq.SubstituteVar(name, replEq.Eq)
	}
	return AbelianEq{Eq: eq, K: a.K}
}

// RowEmpty is the empty row: row-empty.
type RowEmpty struct{ ElemKind kinds.Kind }

func (r RowEmpty) String() string   { return "<>" }
func (r RowEmpty) Kind() kinds.Kind { return kinds.Row{Inner: r.ElemKind} }
func (r RowEmpty) FreeVars() []Var  { return nil }
func (r RowEmpty) Apply(Subst) Type { return r }

// RowExtend represents rowExtend(label, element, tail): one labeled
// field prepended to a row. The tail is either another row or a row
// variable.
type RowExtend struct {
	Label string
	Elem  Type
	Tail  Type
}

func (r RowExtend) String() string {
	return fmt.Sprintf("%s: %s | %s", r.Label, r.Elem, r.Tail)
}
func (r RowExtend) Kind() kinds.Kind { return r.Tail.Kind() }
func (r RowExtend) FreeVars() []Var {
	vars := append([]Var{}, r.Elem.FreeVars()...)
	vars = append(vars, r.Tail.FreeVars()...)
	return uniqueVars(vars)
}
func (r RowExtend) Apply(s Subst) Type { return applyCycle(r, s, map[string]bool{}) }

// App is a type application: application(constructor, arg).
type App struct {
	Fn  Type
	Arg Type
}

func (a App) String() string { return fmt.Sprintf("(%s %s)", a.Fn, a.Arg) }
func (a App) Kind() kinds.Kind {
	k := a.Fn.Kind()
	if arrow, ok := k.(kinds.Arrow); ok {
		return arrow.To
	}
	return kinds.Value{}
}
func (a App) FreeVars() []Var {
	return uniqueVars(append(a.Fn.FreeVars(), a.Arg.FreeVars()...))
}
func (a App) Apply(s Subst) Type { return applyCycle(a, s, map[string]bool{}) }

// SeqElem is one element of a dotted sequence, flagged indexed or dotted.
type SeqElem struct {
	Elem   Type
	Dotted bool
}

// Seq is a dotted sequence (spec.md §3, §4.C.6): a list whose elements
// may be individually indexed or dotted (variadic expansion). In
// normalized form a dotted element may only appear as the last element.
type Seq struct {
	Elems    []SeqElem
	ElemKind kinds.Kind
}

func (s Seq) String() string {
	parts := make([]string, len(s.Elems))
	for i, e := range s.Elems {
		if e.Dotted {
			parts[i] = e.Elem.String() + "..."
		} else {
			parts[i] = e.Elem.String()
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (s Seq) Kind() kinds.Kind { return kinds.Seq{Inner: s.ElemKind} }
func (s Seq) FreeVars() []Var {
	vars := []Var{}
	for _, e := range s.Elems {
		vars = append(vars, e.Elem.FreeVars()...)
	}
	return uniqueVars(vars)
}
func (s Seq) Apply(subst Subst) Type { return applyCycle(s, subst, map[string]bool{}) }

// Stack is a concatenative word's function type, spec.md §4.G's
// "(e, p, t, i -> o)": an effect row, a permission row, a totality
// attribute, and input/output stack-value sequences, all unified
// componentwise. Sharing is not a field of Stack itself — per spec.md
// §4.G a function *literal* is wrapped as a value with its own
// sharing attribute, computed by package infer from its free
// variables, so Stack only carries what distinguishes one word's
// effect from another's.
type Stack struct {
	Effect     Type
	Permission Type
	Totality   Type
	In         Type
	Out        Type
}

func (f Stack) String() string {
	return fmt.Sprintf("(%s, %s, %s, %s -> %s)", f.Effect, f.Permission, f.Totality, f.In, f.Out)
}
func (f Stack) Kind() kinds.Kind { return kinds.Value{} }
func (f Stack) FreeVars() []Var {
	vars := append([]Var{}, f.Effect.FreeVars()...)
	vars = append(vars, f.Permission.FreeVars()...)
	vars = append(vars, f.Totality.FreeVars()...)
	vars = append(vars, f.In.FreeVars()...)
	vars = append(vars, f.Out.FreeVars()...)
	return uniqueVars(vars)
}
func (f Stack) Apply(s Subst) Type {
	return Stack{
		Effect:     f.Effect.Apply(s),
		Permission: f.Permission.Apply(s),
		Totality:   f.Totality.Apply(s),
		In:         f.In.Apply(s),
		Out:        f.Out.Apply(s),
	}
}

// Subst maps type-variable names to types.
type Subst map[string]Type

// Compose combines two substitutions so that (s1.Compose(s2)).Apply(t)
// equals s2.Apply(s1.Apply(t)): s1 is applied first, then s2.
func (s1 Subst) Compose(s2 Subst) Subst {
	out := Subst{}
	for k, v := range s2 {
		out[k] = v
	}
	for k, v := range s1 {
		out[k] = v.Apply(s2)
	}
	return out
}

// applyCycle applies a substitution to t, breaking infinite
// substitution cycles the same way ApplyWithCycleCheck does in the
// teacher's typesystem package.
func applyCycle(t Type, s Subst, visited map[string]bool) Type {
	switch tt := t.(type) {
	case Var:
		if visited[tt.Name] {
			return tt
		}
		if repl, ok := s[tt.Name]; ok {
			if rv, ok := repl.(Var); ok && rv.Name == tt.Name {
				return tt
			}
			nv := copyVisited(visited)
			nv[tt.Name] = true
			return applyCycle(repl, s, nv)
		}
		return tt
	case Con:
		if repl, ok := s[tt.Name]; ok {
			if rc, ok := repl.(Con); ok && rc.Name == tt.Name {
				return tt
			}
			if visited[tt.Name] {
				return tt
			}
			nv := copyVisited(visited)
			nv[tt.Name] = true
			return applyCycle(repl, s, nv)
		}
		return tt
	case App:
		return App{Fn: applyCycle(tt.Fn, s, visited), Arg: applyCycle(tt.Arg, s, visited)}
	case RowExtend:
		return RowExtend{Label: tt.Label, Elem: applyCycle(tt.Elem, s, visited), Tail: applyCycle(tt.Tail, s, visited)}
	case Seq:
		elems := make([]SeqElem, len(tt.Elems))
		for i, e := range tt.Elems {
			elems[i] = SeqElem{Elem: applyCycle(e.Elem, s, visited), Dotted: e.Dotted}
		}
		return Seq{Elems: elems, ElemKind: tt.ElemKind}
	default:
		return t.Apply(s)
	}
}

func copyVisited(m map[string]bool) map[string]bool {
	nm := make(map[string]bool, len(m))
	for k, v := range m {
		nm[k] = v
	}
	return nm
}

func uniqueVars(vars []Var) []Var {
	seen := map[string]bool{}
	out := []Var{}
	for _, v := range vars {
		if !seen[v.Name] {
			seen[v.Name] = true
			out = append(out, v)
		}
	}
	return out
}

// KindOf returns the kind of t. Exposed as a standalone function (in
// addition to the Kind() method) to match spec.md §4.A's operation list.
func KindOf(t Type) kinds.Kind { return t.Kind() }

// TypeApply applies type constructor f to argument x, kind-checking
// that f has an arrow kind whose domain matches x's kind.
func TypeApply(f, x Type) (Type, error) {
	arrow, ok := f.Kind().(kinds.Arrow)
	if !ok {
		return nil, &coreerrors.KindMismatchError{T1: f, T2: x, K1: f.Kind(), K2: x.Kind()}
	}
	if !arrow.From.Equal(x.Kind()) {
		return nil, &coreerrors.KindMismatchError{T1: f, T2: x, K1: arrow.From, K2: x.Kind()}
	}
	return App{Fn: f, Arg: x}, nil
}

// Substitute applies s to t, failing if the result's kind would
// differ from t's original kind (substitutions must preserve kind).
func Substitute(s Subst, t Type) (Type, error) {
	before := t.Kind()
	after := t.Apply(s)
	if !before.Equal(after.Kind()) {
		return nil, &coreerrors.KindMismatchError{T1: t, T2: after, K1: before, K2: after.Kind()}
	}
	return after, nil
}

// FreeVars returns the free type variables of t, deduplicated.
func FreeVars(t Type) []Var { return t.FreeVars() }

// RowLabels flattens a chain of RowExtend nodes into a label->element
// map plus the final tail (a row variable or RowEmpty), sorting
// nothing itself (callers sort when they need determinism, mirroring
// the teacher's TRecord.String()).
func RowLabels(t Type) (map[string]Type, Type) {
	fields := map[string]Type{}
	for {
		if ext, ok := t.(RowExtend); ok {
			fields[ext.Label] = ext.Elem
			t = ext.Tail
			continue
		}
		return fields, t
	}
}

// SortedLabels returns the row's labels in sorted order, for
// deterministic iteration (spec.md testable property 7).
func SortedLabels(fields map[string]Type) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
