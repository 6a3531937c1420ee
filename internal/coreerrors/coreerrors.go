// Package coreerrors defines the fatal error kinds the core can raise
// (spec.md §7). Each kind is its own struct so callers can errors.As
// into the one they care about instead of matching on strings.
package coreerrors

import "fmt"

// KindMismatchError is raised when a substitution or application
// would produce an ill-kinded type.
type KindMismatchError struct {
	T1, T2 fmt.Stringer
	K1, K2 fmt.Stringer
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("kind mismatch: %s :: %s vs %s :: %s", e.T1, e.K1, e.T2, e.K2)
}

// RigidRigidMismatchError is raised when two distinct constants are unified.
type RigidRigidMismatchError struct {
	Left, Right fmt.Stringer
}

func (e *RigidRigidMismatchError) Error() string {
	return fmt.Sprintf("cannot unify distinct constants: %s vs %s", e.Left, e.Right)
}

// OccursCheckError is raised when unification would build an infinite type.
type OccursCheckError struct {
	Var fmt.Stringer
	In  fmt.Stringer
}

func (e *OccursCheckError) Error() string {
	return fmt.Sprintf("infinite type: %s occurs in %s", e.Var, e.In)
}

// AmbiguousOverloadError is raised when, after CHR reduction, the
// residual context mentions a variable that does not appear in the head.
type AmbiguousOverloadError struct {
	Type fmt.Stringer
}

func (e *AmbiguousOverloadError) Error() string {
	return fmt.Sprintf("ambiguous overload in type: %s", e.Type)
}

// NonConfluentContextError is raised when the CHR solver produces more
// than one residual predicate set for the same initial state.
type NonConfluentContextError struct {
	Predicates []fmt.Stringer
}

func (e *NonConfluentContextError) Error() string {
	return fmt.Sprintf("non-confluent context: %d residual predicate sets", len(e.Predicates))
}

// UnboundNameError is raised when an identifier is not found in the environment.
type UnboundNameError struct {
	Name string
}

func (e *UnboundNameError) Error() string {
	return fmt.Sprintf("unbound name: %s", e.Name)
}

// InstanceNotFoundError is raised when elaboration cannot resolve an
// overload placeholder to a concrete instance or dictionary parameter.
type InstanceNotFoundError struct {
	Predicate fmt.Stringer
}

func (e *InstanceNotFoundError) Error() string {
	return fmt.Sprintf("no instance found for: %s", e.Predicate)
}

// OverlappingInstanceError is raised when instance search finds more
// than one instance whose head matches the same predicate.
type OverlappingInstanceError struct {
	Predicate fmt.Stringer
	Instances []string
}

func (e *OverlappingInstanceError) Error() string {
	return fmt.Sprintf("overlapping instances for %s: %v", e.Predicate, e.Instances)
}

// HeapEscapeError is raised when with-state would export a heap
// variable that is still free in the enclosing environment.
type HeapEscapeError struct {
	HeapVar string
}

func (e *HeapEscapeError) Error() string {
	return fmt.Sprintf("heap escape: %s is still free in the outer scope", e.HeapVar)
}

// MainSignatureMismatchError is raised when main does not yield a
// value convertible to I32.
type MainSignatureMismatchError struct {
	Expected, Got fmt.Stringer
}

func (e *MainSignatureMismatchError) Error() string {
	return fmt.Sprintf("main signature mismatch: expected %s, got %s", e.Expected, e.Got)
}
