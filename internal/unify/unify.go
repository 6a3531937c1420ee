// Package unify implements the higher-kinded, row-polymorphic,
// Abelian-aware unification algorithm of spec.md §4.C.
//
// The overall shape — a cycle-guarded recursive unifyInternal,
// Bind+OccursCheck, and composing partial substitutions left-to-right
// — is adapted directly from the teacher's internal/typesystem/unify.go.
// Row and Abelian-equation handling are new, grounded on spec.md's
// algorithm description (rotate-to-expose-label for rows, smallest-
// exponent pivot for Abelian equations) since funxy's TRecord
// unification is row-polymorphic-but-not-permutation-aware (it
// compares concrete field sets, not open row tails).
package unify

import (
	"fmt"

	"github.com/corelang/corec/internal/abelian"
	"github.com/corelang/corec/internal/coreerrors"
	"github.com/corelang/corec/internal/fresh"
	"github.com/corelang/corec/internal/types"
)

type pair struct{ a, b types.Type }

// Unify attempts to find a substitution that makes t1 and t2 equal. fr
// supplies the fresh row tail variable that row rotation requires.
func Unify(fr *fresh.Source, t1, t2 types.Type) (types.Subst, error) {
	return unify(fr, t1, t2, nil)
}

func unify(fr *fresh.Source, t1, t2 types.Type, visited []pair) (types.Subst, error) {
	for _, p := range visited {
		if sameType(p.a, t1) && sameType(p.b, t2) {
			return types.Subst{}, nil
		}
	}
	visited = append(visited, pair{t1, t2})

	// Step 1/2: variables.
	if v1, ok := t1.(types.Var); ok {
		if v2, ok2 := t2.(types.Var); ok2 && v1.Name == v2.Name {
			return types.Subst{}, nil
		}
		return bind(v1, t2)
	}
	if v2, ok := t2.(types.Var); ok {
		return bind(v2, t1)
	}

	if !t1.Kind().Equal(t2.Kind()) {
		return nil, &coreerrors.KindMismatchError{T1: t1, T2: t2, K1: t1.Kind(), K2: t2.Kind()}
	}

	switch a := t1.(type) {
	case types.App:
		b, ok := t2.(types.App)
		if !ok {
			return nil, &coreerrors.RigidRigidMismatchError{Left: t1, Right: t2}
		}
		s1, err := unify(fr, a.Fn, b.Fn, visited)
		if err != nil {
			return nil, err
		}
		s2, err := unify(fr, a.Arg.Apply(s1), b.Arg.Apply(s1), visited)
		if err != nil {
			return nil, err
		}
		return s1.Compose(s2), nil

	case types.Con:
		b, ok := t2.(types.Con)
		if !ok || a.Name != b.Name {
			return nil, &coreerrors.RigidRigidMismatchError{Left: t1, Right: t2}
		}
		return types.Subst{}, nil

	case types.Prim:
		b, ok := t2.(types.Prim)
		if !ok || a.Tag != b.Tag {
			return nil, &coreerrors.RigidRigidMismatchError{Left: t1, Right: t2}
		}
		return types.Subst{}, nil

	case types.TrueT:
		if _, ok := t2.(types.TrueT); ok {
			return types.Subst{}, nil
		}
		return nil, &coreerrors.RigidRigidMismatchError{Left: t1, Right: t2}

	case types.FalseT:
		if _, ok := t2.(types.FalseT); ok {
			return types.Subst{}, nil
		}
		return nil, &coreerrors.RigidRigidMismatchError{Left: t1, Right: t2}

	case types.AbelianOne:
		if _, ok := t2.(types.AbelianOne); ok {
			return types.Subst{}, nil
		}
		return nil, &coreerrors.RigidRigidMismatchError{Left: t1, Right: t2}

	case types.FixedInt:
		b, ok := t2.(types.FixedInt)
		if !ok || a.Value != b.Value {
			return nil, &coreerrors.RigidRigidMismatchError{Left: t1, Right: t2}
		}
		return types.Subst{}, nil

	case types.AbelianEq:
		b, ok := t2.(types.AbelianEq)
		if !ok {
			return nil, &coreerrors.RigidRigidMismatchError{Left: t1, Right: t2}
		}
		return unifyAbelian(a, b)

	case types.RowEmpty:
		if _, ok := t2.(types.RowEmpty); ok {
			return types.Subst{}, nil
		}
		return nil, &coreerrors.RigidRigidMismatchError{Left: t1, Right: t2}

	case types.RowExtend:
		return unifyRow(fr, a, t2, visited)

	case types.Seq:
		b, ok := t2.(types.Seq)
		if !ok {
			return nil, &coreerrors.RigidRigidMismatchError{Left: t1, Right: t2}
		}
		return unifySeq(fr, a, b, visited)

	case types.Stack:
		b, ok := t2.(types.Stack)
		if !ok {
			return nil, &coreerrors.RigidRigidMismatchError{Left: t1, Right: t2}
		}
		return unifyStack(fr, a, b, visited)

	default:
		return nil, fmt.Errorf("unify: unhandled type %T", t1)
	}
}

// bind binds a type variable to a type, performing the occurs check
// (spec.md §4.C step 2).
func bind(v types.Var, t types.Type) (types.Subst, error) {
	if tv, ok := t.(types.Var); ok && tv.Name == v.Name {
		return types.Subst{}, nil
	}
	if occurs(v, t) {
		return nil, &coreerrors.OccursCheckError{Var: v, In: t}
	}
	if !v.Kind().Equal(t.Kind()) {
		return nil, &coreerrors.KindMismatchError{T1: v, T2: t, K1: v.Kind(), K2: t.Kind()}
	}
	return types.Subst{v.Name: t}, nil
}

func occurs(v types.Var, t types.Type) bool {
	for _, fv := range t.FreeVars() {
		if fv.Name == v.Name {
			return true
		}
	}
	return false
}

// unifyRow implements spec.md §4.C step 4: strip a matching head
// label; if the right row's head label differs, rotate it to expose
// the left row's label, introducing a fresh tail variable so two rows
// unify modulo permutation of labels.
func unifyRow(fr *fresh.Source, left types.RowExtend, right types.Type, visited []pair) (types.Subst, error) {
	switch r := right.(type) {
	case types.Var:
		return bind(r, left)
	case types.RowExtend:
		if r.Label == left.Label {
			s1, err := unify(fr, left.Elem, r.Elem, visited)
			if err != nil {
				return nil, err
			}
			s2, err := unify(fr, left.Tail.Apply(s1), r.Tail.Apply(s1), visited)
			if err != nil {
				return nil, err
			}
			return s1.Compose(s2), nil
		}
		// Rotate: right = label2: e2 | tail2. Expose left.Label inside
		// tail2 with a fresh tail variable, tail2 ~ (left.Label: e1 | fresh),
		// then unify left's own tail with label2: e2 | fresh.
		freshTail := fr.Next(left.Tail.Kind())
		s1, err := unify(fr, r.Tail, types.RowExtend{Label: left.Label, Elem: left.Elem, Tail: freshTail}, visited)
		if err != nil {
			return nil, err
		}
		rest := types.RowExtend{Label: r.Label, Elem: r.Elem, Tail: freshTail}
		s2, err := unify(fr, left.Tail.Apply(s1), rest.Apply(s1), visited)
		if err != nil {
			return nil, err
		}
		return s1.Compose(s2), nil
	case types.RowEmpty:
		return nil, fmt.Errorf("unify: row missing label %q", left.Label)
	default:
		return nil, &coreerrors.RigidRigidMismatchError{Left: left, Right: right}
	}
}

// unifySeq implements spec.md §4.C step 6: unify element-by-element;
// a dotted element on either side absorbs every remaining element of
// the opposite side, unifying its own element type with each of them.
// No fresh sequence variable is introduced: the absorbed elements are
// not bound to a sequence, and a dotted element left over at the end
// matches zero elements.
func unifySeq(fr *fresh.Source, a, b types.Seq, visited []pair) (types.Subst, error) {
	s := types.Subst{}
	ai, bi := 0, 0
	for ai < len(a.Elems) && bi < len(b.Elems) {
		ea, eb := a.Elems[ai], b.Elems[bi]
		if ea.Dotted && !eb.Dotted {
			// The dotted left element absorbs this element of b by
			// unifying ea.Elem against it, and stays in place for the next.
			s2, err := unify(fr, ea.Elem.Apply(s), eb.Elem.Apply(s), visited)
			if err != nil {
				return nil, err
			}
			s = s.Compose(s2)
			bi++
			continue
		}
		if eb.Dotted && !ea.Dotted {
			s2, err := unify(fr, ea.Elem.Apply(s), eb.Elem.Apply(s), visited)
			if err != nil {
				return nil, err
			}
			s = s.Compose(s2)
			ai++
			continue
		}
		s2, err := unify(fr, ea.Elem.Apply(s), eb.Elem.Apply(s), visited)
		if err != nil {
			return nil, err
		}
		s = s.Compose(s2)
		ai++
		bi++
	}
	// Any remaining elements must all be dotted (a dotted element
	// matches zero elements here).
	for _, rem := range a.Elems[ai:] {
		if !rem.Dotted {
			return nil, fmt.Errorf("unify: sequence length mismatch")
		}
	}
	for _, rem := range b.Elems[bi:] {
		if !rem.Dotted {
			return nil, fmt.Errorf("unify: sequence length mismatch")
		}
	}
	return s, nil
}

// unifyStack unifies two word function types field-by-field (effect,
// permission, totality, inputs, outputs). This is plain structural
// unification; the accumulation rules spec.md §4.G describes for
// composing two adjacent words (totality via "and", sharing via "or")
// belong to word composition itself (package infer), not to equality
// unification of two stack types.
func unifyStack(fr *fresh.Source, a, b types.Stack, visited []pair) (types.Subst, error) {
	s := types.Subst{}
	fields := []struct{ l, r types.Type }{
		{a.Effect, b.Effect},
		{a.Permission, b.Permission},
		{a.Totality, b.Totality},
		{a.In, b.In},
		{a.Out, b.Out},
	}
	for _, f := range fields {
		s2, err := unify(fr, f.l.Apply(s), f.r.Apply(s), visited)
		if err != nil {
			return nil, err
		}
		s = s.Compose(s2)
	}
	return s, nil
}

func unifyAbelian(a, b types.AbelianEq) (types.Subst, error) {
	resolved, err := abelian.Solve(a.Eq, b.Eq)
	if err != nil {
		return nil, fmt.Errorf("unify: %w", err)
	}
	s := types.Subst{}
	for name, eq := range resolved {
		s[name] = types.AbelianEq{Eq: eq, K: a.K}
	}
	return s, nil
}

// SolveAll processes constraints left-to-right, composing
// substitutions (spec.md §4.C "solveAll").
func SolveAll(fr *fresh.Source, constraints [][2]types.Type) (types.Subst, error) {
	s := types.Subst{}
	for _, c := range constraints {
		left := c[0].Apply(s)
		right := c[1].Apply(s)
		s2, err := unify(fr, left, right, nil)
		if err != nil {
			return nil, err
		}
		s = s.Compose(s2)
	}
	return s, nil
}

func sameType(a, b types.Type) bool {
	return a.String() == b.String()
}
