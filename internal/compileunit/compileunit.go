// Package compileunit tags one run of the pipeline (declare → infer →
// elaborate → lower → codegen) with a stable identifier, so a
// diagnostic, a cached bytecode artifact, or a test fixture can be
// traced back to the exact compilation that produced it without
// reusing the program's own (mutable, re-declarable) name.
//
// Grounded on the teacher's own use of github.com/google/uuid for
// generated identifiers (its lib/uuid builtin, and the random ids its
// ext test harness mints for fixtures); here the id is minted once per
// Unit value rather than exposed as a language-level builtin, since
// spec.md places source-facing builtins out of scope.
package compileunit

import "github.com/google/uuid"

// Unit identifies one compilation: ID is stable for the lifetime of
// the in-memory result, Name is the source module/program name it was
// compiled from (purely descriptive, not used for lookup).
type Unit struct {
	ID   uuid.UUID
	Name string
}

// New mints a fresh compilation unit tag for name.
func New(name string) Unit {
	return Unit{ID: uuid.New(), Name: name}
}

func (u Unit) String() string {
	return u.Name + "@" + u.ID.String()
}
