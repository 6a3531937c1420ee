// Package env implements the lexical scoping environment of spec.md
// §3/§4.E: a persistent map from name to a tagged EnvEntry, shared
// across four namespaces (word, pattern, type-constructor, predicate)
// that nonetheless share the name domain.
//
// Grounded directly on the teacher's internal/symbols package: Entry
// mirrors symbols.Symbol (a tagged struct rather than a Go interface,
// since the entries differ only in which optional fields are
// populated), and the ScopeType/SymbolKind enums are carried over
// renamed to match spec.md's EnvEntry variant names.
package env

import (
	"github.com/corelang/corec/internal/chr"
	"github.com/corelang/corec/internal/kinds"
	"github.com/corelang/corec/internal/scheme"
	"github.com/corelang/corec/internal/types"
)

// EntryKind tags which of spec.md §3's EnvEntry variants an Entry represents.
type EntryKind int

const (
	KindVariable EntryKind = iota
	KindFunction
	KindOverload
	KindConstructor
	KindPattern
	KindRule
	KindTypeCtor
	KindRecursive
)

func (k EntryKind) String() string {
	switch k {
	case KindVariable:
		return "Variable"
	case KindFunction:
		return "Function"
	case KindOverload:
		return "Overload"
	case KindConstructor:
		return "Constructor"
	case KindPattern:
		return "Pattern"
	case KindRule:
		return "Rule"
	case KindTypeCtor:
		return "TypeCtor"
	case KindRecursive:
		return "Recursive"
	default:
		return "?"
	}
}

// Instance is one registered implementation of an overloaded name
// (spec.md §3 "Instance"): the instance's own scheme plus the name of
// the function elaboration will generate for it.
type Instance struct {
	Scheme       scheme.Scheme
	FunctionName string
}

// Entry is a tagged variant holding exactly the fields relevant to its Kind:
//
//   - KindVariable, KindFunction, KindPattern, KindRecursive: Scheme
//   - KindOverload: PredicateName, Scheme (base scheme), Instances
//   - KindConstructor: PatternScheme, Scheme (value scheme)
//   - KindRule: Rule
//   - KindTypeCtor: TCKind
type Entry struct {
	Name string
	Kind EntryKind

	Scheme        scheme.Scheme
	PatternScheme scheme.Scheme // Constructor's pattern-side scheme

	// Sharing is the binding's own sharing attribute (kind Sharing), used
	// by the statement-block sharing analysis (spec.md §4.G): a variable
	// referenced more than once in its scope is constrained to Shared.
	// Only meaningful for KindVariable entries.
	Sharing types.Type

	PredicateName string
	Instances     []Instance

	// Arity is a KindConstructor entry's field count (core lowering,
	// package corelower, needs it for WConstructorVar's IConstruct(id,
	// args) payload without re-deriving it from PatternScheme's arrow
	// spine).
	Arity int

	Rule chr.Rule

	TCKind kinds.Kind

	// IsOperator marks a KindFunction entry as an algebraic-effect
	// operation (e.g. "raise!") rather than a plain function, following
	// the surface naming convention spec.md's example programs use
	// (operation names end in "!"). Core lowering (package corelower)
	// consults this to choose WOperatorVar over WCallVar for an
	// identifier, since spec.md §3's EnvEntry variants have no separate
	// "Operator" tag of their own.
	IsOperator bool
}

// Namespace distinguishes the four lookup domains of spec.md §4.E.
// Names shadow within a namespace; namespaces do not share entries
// with each other even though (per spec.md) "names" as a concept are
// one shared domain.
type Namespace int

const (
	NSWord Namespace = iota
	NSPattern
	NSTypeCtor
	NSPredicate
)

// Env is a persistent (copy-on-write) scope. Values are never mutated
// in place; Bind returns a new Env so that earlier snapshots remain
// valid, matching spec.md §4.E ("the environment is a persistent map").
type Env struct {
	parent *Env
	ns     [4]map[string]Entry
}

// New creates an empty root environment (the prelude scope).
func New() *Env {
	return &Env{ns: [4]map[string]Entry{}}
}

// Child creates a new nested scope whose lookups fall through to e
// when a name is not found locally.
func (e *Env) Child() *Env {
	return &Env{parent: e, ns: [4]map[string]Entry{}}
}

// Bind returns a new environment with name bound to entry in the
// given namespace, shadowing any existing binding of the same name.
func (e *Env) Bind(ns Namespace, name string, entry Entry) *Env {
	next := &Env{parent: e.parent, ns: e.ns}
	m := map[string]Entry{}
	for k, v := range e.ns[ns] {
		m[k] = v
	}
	m[name] = entry
	next.ns[ns] = m
	return next
}

// BindAll binds several entries at once in the same namespace (used
// for a mutually-recursive group, spec.md §9).
func (e *Env) BindAll(ns Namespace, entries map[string]Entry) *Env {
	cur := e
	for name, entry := range entries {
		cur = cur.Bind(ns, name, entry)
	}
	return cur
}

// Lookup finds name in namespace ns, searching this scope then parents.
func (e *Env) Lookup(ns Namespace, name string) (Entry, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if m := cur.ns[ns]; m != nil {
			if entry, ok := m[name]; ok {
				return entry, true
			}
		}
	}
	return Entry{}, false
}

// LookupWord is shorthand for Lookup(NSWord, name), the most common case.
func (e *Env) LookupWord(name string) (Entry, bool) {
	return e.Lookup(NSWord, name)
}

// InstanceIndex maps a predicate (class) name to every instance
// registered for it, independent of which word name introduced the
// Overload entry. Spec.md §4.E's four namespaces are keyed by
// identifier name, but an OverloadPlaceholder only carries a
// predicate name (e.g. "Eq"), so elaboration (package elaborate)
// threads this index alongside *Env explicitly, the same way package
// infer threads the CHR rule list alongside *Env rather than folding
// it into the environment's own lookup.
type InstanceIndex map[string][]Instance

// Add registers inst under predicateName, updating the index in place
// (InstanceIndex is a plain map, mutated in place for convenience
// since, unlike Env, nothing needs to snapshot an index mid-build).
func (idx InstanceIndex) Add(predicateName string, inst Instance) {
	idx[predicateName] = append(idx[predicateName], inst)
}

// AddInstance appends an instance to an existing Overload entry,
// rebinding it in the word namespace. Fails silently (returns the
// unchanged env) if name is not a Overload entry — callers are
// expected to have registered the base overload first.
func (e *Env) AddInstance(name string, inst Instance) *Env {
	entry, ok := e.LookupWord(name)
	if !ok || entry.Kind != KindOverload {
		return e
	}
	entry.Instances = append(append([]Instance{}, entry.Instances...), inst)
	return e.Bind(NSWord, name, entry)
}
