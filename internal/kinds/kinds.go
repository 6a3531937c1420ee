// Package kinds represents the finite lattice of kinds assigned to
// every type-term node (spec.md §3) and the kind checker used to
// reject ill-kinded substitutions and applications.
package kinds

import (
	"fmt"
	"strings"
)

// Kind is the "type of a type". Every leaf/node in the type-term tree
// (package types) has a well-defined Kind.
type Kind interface {
	String() string
	Equal(Kind) bool
}

// Base kinds named in spec.md §3.
type (
	Value     struct{}
	Data      struct{}
	Trust     struct{}
	Sharing   struct{}
	Clearance struct{}
	Heap      struct{}
	Totality  struct{}
	Fixed     struct{}
	Unit      struct{}
	Effect    struct{}
	Permission struct{}
	Field     struct{}
)

func (Value) String() string      { return "Value" }
func (Data) String() string       { return "Data" }
func (Trust) String() string      { return "Trust" }
func (Sharing) String() string    { return "Sharing" }
func (Clearance) String() string  { return "Clearance" }
func (Heap) String() string       { return "Heap" }
func (Totality) String() string   { return "Totality" }
func (Fixed) String() string      { return "Fixed" }
func (Unit) String() string       { return "Unit" }
func (Effect) String() string     { return "Effect" }
func (Permission) String() string { return "Permission" }
func (Field) String() string      { return "Field" }

func (k Value) Equal(o Kind) bool      { return equalBase(k, o) }
func (k Data) Equal(o Kind) bool       { return equalBase(k, o) }
func (k Trust) Equal(o Kind) bool      { return equalBase(k, o) }
func (k Sharing) Equal(o Kind) bool    { return equalBase(k, o) }
func (k Clearance) Equal(o Kind) bool  { return equalBase(k, o) }
func (k Heap) Equal(o Kind) bool       { return equalBase(k, o) }
func (k Totality) Equal(o Kind) bool   { return equalBase(k, o) }
func (k Fixed) Equal(o Kind) bool      { return equalBase(k, o) }
func (k Unit) Equal(o Kind) bool       { return equalBase(k, o) }
func (k Effect) Equal(o Kind) bool     { return equalBase(k, o) }
func (k Permission) Equal(o Kind) bool { return equalBase(k, o) }
func (k Field) Equal(o Kind) bool      { return equalBase(k, o) }

func equalBase(a, b Kind) bool {
	return fmt.Sprintf("%T", a) == fmt.Sprintf("%T", b)
}

// Row wraps the kind of a row's elements (e.g. Row(Field) for record rows).
type Row struct{ Inner Kind }

func (k Row) String() string { return fmt.Sprintf("Row(%s)", k.Inner) }
func (k Row) Equal(o Kind) bool {
	ok, isRow := o.(Row)
	return isRow && k.Inner.Equal(ok.Inner)
}

// Seq wraps the kind of a dotted sequence's elements.
type Seq struct{ Inner Kind }

func (k Seq) String() string { return fmt.Sprintf("Seq(%s)", k.Inner) }
func (k Seq) Equal(o Kind) bool {
	ok, isSeq := o.(Seq)
	return isSeq && k.Inner.Equal(ok.Inner)
}

// Arrow is the kind of a type constructor (From -> To).
type Arrow struct{ From, To Kind }

func (k Arrow) String() string { return fmt.Sprintf("(%s -> %s)", k.From, k.To) }
func (k Arrow) Equal(o Kind) bool {
	oa, ok := o.(Arrow)
	return ok && k.From.Equal(oa.From) && k.To.Equal(oa.To)
}

// MakeArrow builds a right-associative arrow kind from a list of
// argument kinds plus a final result kind, e.g. MakeArrow(Value{}, Value{})
// builds Value -> Value.
func MakeArrow(ks ...Kind) Kind {
	if len(ks) == 0 {
		return Value{}
	}
	if len(ks) == 1 {
		return ks[0]
	}
	return Arrow{From: ks[0], To: MakeArrow(ks[1:]...)}
}

// KVar is a kind variable used during kind inference of user type
// constructors whose arity/kind is not yet known.
type KVar struct{ Name string }

func (k KVar) String() string { return k.Name }
func (k KVar) Equal(o Kind) bool {
	ov, ok := o.(KVar)
	return ok && ov.Name == k.Name
}

// Subst maps kind-variable names to kinds.
type Subst map[string]Kind

// Apply substitutes kind variables in k according to s.
func Apply(s Subst, k Kind) Kind {
	if k == nil {
		return nil
	}
	switch kk := k.(type) {
	case KVar:
		if r, ok := s[kk.Name]; ok {
			return Apply(s, r)
		}
		return kk
	case Arrow:
		return Arrow{From: Apply(s, kk.From), To: Apply(s, kk.To)}
	case Row:
		return Row{Inner: Apply(s, kk.Inner)}
	case Seq:
		return Seq{Inner: Apply(s, kk.Inner)}
	default:
		return kk
	}
}

// Unify finds a substitution making k1 and k2 equal, supporting KVar
// unification the same way the teacher's typesystem.UnifyKinds does.
func Unify(k1, k2 Kind) (Subst, error) {
	s := make(Subst)
	if err := unify(s, k1, k2); err != nil {
		return nil, err
	}
	return s, nil
}

func unify(s Subst, k1, k2 Kind) error {
	k1 = Apply(s, k1)
	k2 = Apply(s, k2)

	if k1.Equal(k2) {
		return nil
	}

	if v, ok := k1.(KVar); ok {
		return bind(s, v.Name, k2)
	}
	if v, ok := k2.(KVar); ok {
		return bind(s, v.Name, k1)
	}

	a1, ok1 := k1.(Arrow)
	a2, ok2 := k2.(Arrow)
	if ok1 && ok2 {
		if err := unify(s, a1.From, a2.From); err != nil {
			return err
		}
		return unify(s, a1.To, a2.To)
	}

	r1, ok1 := k1.(Row)
	r2, ok2 := k2.(Row)
	if ok1 && ok2 {
		return unify(s, r1.Inner, r2.Inner)
	}

	sq1, ok1 := k1.(Seq)
	sq2, ok2 := k2.(Seq)
	if ok1 && ok2 {
		return unify(s, sq1.Inner, sq2.Inner)
	}

	return fmt.Errorf("kind mismatch: %s vs %s", k1, k2)
}

func bind(s Subst, name string, k Kind) error {
	if v, ok := k.(KVar); ok && v.Name == name {
		return nil
	}
	if occurs(name, k) {
		return fmt.Errorf("recursive kind: %s occurs in %s", name, k)
	}
	s[name] = k
	return nil
}

func occurs(name string, k Kind) bool {
	switch kk := k.(type) {
	case KVar:
		return kk.Name == name
	case Arrow:
		return occurs(name, kk.From) || occurs(name, kk.To)
	case Row:
		return occurs(name, kk.Inner)
	case Seq:
		return occurs(name, kk.Inner)
	default:
		return false
	}
}

// VarPrefix returns the fresh-variable prefix the spec (§4.D) assigns
// to each kind, used by package fresh to segregate generated names.
func VarPrefix(k Kind) string {
	switch k.(type) {
	case Data:
		return "d"
	case Trust:
		return "v"
	case Sharing:
		return "s"
	case Clearance:
		return "k"
	case Effect:
		return "e"
	case Heap:
		return "h"
	case Permission:
		return "p"
	case Totality:
		return "q"
	case Field:
		return "f"
	case Fixed:
		return "x"
	case Unit:
		return "u"
	case Value:
		return "t"
	default:
		switch kk := k.(type) {
		case Row:
			return "r"
		case Seq:
			return "z"
		case Arrow:
			return "c"
		default:
			_ = kk
			return "t"
		}
	}
}

// IsUserSafe reports whether name could not have been produced by the
// fresh-variable generator, i.e. contains no '*'. Only '*' is checked;
// a user name such as "t1" is reported safe.
func IsUserSafe(name string) bool {
	if strings.ContainsRune(name, '*') {
		return false
	}
	return true
}
