// Package ast defines the renamed, kind-annotated syntax tree the
// external parser/renamer/kind-inferencer hand to the core (spec.md
// §1, §6). The lexer/parser/renamer themselves are out of scope; this
// package only fixes the shape of their output so that package infer
// has something concrete to consume.
package ast

import "github.com/corelang/corec/internal/types"

// Node is implemented by every AST node so inference can key a
// TypeMap (node -> inferred type) off of it, the same way the
// teacher's analyzer.InferenceContext.TypeMap does.
type Node interface {
	isNode()
}

// Word is one concatenative surface word; a sequence of Words composed
// by juxtaposition is an Expression.
type Word interface {
	Node
	isWord()
}

// Expression is a sequence of words composed under stack polymorphism.
type Expression []Word

func (Expression) isNode() {}

type baseWord struct{}

func (baseWord) isNode() {}
func (baseWord) isWord() {}

// PushInt pushes a sized integer literal.
type PushInt struct {
	baseWord
	Size   string // one of I8,U8,I16,U16,I32,U32,I64,U64,ISize,USize
	Digits string
}

// PushBool pushes a boolean literal.
type PushBool struct {
	baseWord
	Value bool
}

// Identifier references a bound name (value, function, overload,
// constructor, recursive binding, or primitive).
type Identifier struct {
	baseWord
	Name string
}

// Let introduces pattern bindings over a body (spec.md §4.G "statement block").
type Let struct {
	baseWord
	Bindings []Binding
	Body     Expression
}

// Binding is one `let p = e` clause.
type Binding struct {
	Pattern Pattern
	Value   Expression
}

// If is a conditional; Else may be empty (WIf(then, [])).
type If struct {
	baseWord
	Then Expression
	Else Expression
}

// While is a loop: the condition expression followed by the body.
type While struct {
	baseWord
	Cond Expression
	Body Expression
}

// FuncLit is a function literal; its body is inferred, then wrapped
// as a value whose sharing is the join of its free variables'.
type FuncLit struct {
	baseWord
	Params Expression // parameter words pushed before Body runs, if any
	Body   Expression
}

// Handler is one `op => body` clause inside a handle block, or the
// `return`/`after` clause when Name == "".
type Handler struct {
	Name   string
	Params []string
	Body   Expression
}

// Handle lowers to WHandle: params are consumed stack values, Handlers
// bind effect operations, Return is the trailing `return`/`after` clause.
type Handle struct {
	baseWord
	Params   []string
	Body     Expression
	Handlers []Handler
	Return   Handler
}

// NewRef/GetRef/PutRef manipulate reference cells over a fresh heap
// variable and emit a State effect (spec.md §4.G).
type NewRef struct{ baseWord }
type GetRef struct{ baseWord }
type PutRef struct{ baseWord }

// WithState strips the innermost State effect from Body's inferred
// row, provided the heap variable does not escape (spec.md §4.G).
type WithState struct {
	baseWord
	Body Expression
}

// UnitOp implements untag/by/per: multiply or divide the unit
// component of the top-of-stack value by a user-declared unit constant.
type UnitOp struct {
	baseWord
	Op   string // "untag", "by", "per"
	Unit string
}

// RecordExtend pushes a new field onto a record (row-polymorphic).
type RecordExtend struct {
	baseWord
	Label string
}

// RecordSelect projects a field out of a record.
type RecordSelect struct {
	baseWord
	Label string
}

// RecordRestrict removes a field from a record, yielding the smaller row.
type RecordRestrict struct {
	baseWord
	Label string
}

// VariantLit constructs a variant value tagged Label.
type VariantLit struct {
	baseWord
	Label string
}

// Case matches a variant's tag, taking Then if it matches else Else.
type Case struct {
	baseWord
	Label string
	Then  Expression
	Else  Expression
}

// Placeholder nodes (spec.md §4.H, design note: "introducing extra
// constructors is preferable to runtime metaprogramming"). Inference
// (package infer) emits these; elaboration (package elaborate)
// resolves them away.

// OverloadPlaceholder stands for a context predicate that must be
// discharged by dictionary-passing code before the word it precedes runs.
type OverloadPlaceholder struct {
	baseWord
	Predicate Predicate
}

// MethodPlaceholder stands for an overloaded identifier itself, to be
// resolved to a call on the selected instance.
type MethodPlaceholder struct {
	baseWord
	Name      string
	Predicate Predicate
}

// RecursivePlaceholder stands for a reference to a name in the same
// recursive group, to be replaced by a direct call after generalization.
type RecursivePlaceholder struct {
	baseWord
	Name string
	Type types.Type
}

// Predicate is a type constraint on an argument type, as carried by a
// placeholder (distinct from, but structurally identical to,
// scheme.Predicate — kept separate so package ast has no dependency on
// package scheme).
type Predicate struct {
	Trait string
	Arg   types.Type
}

// Pattern is the pattern-matching sublanguage (spec.md §4.G "Pattern
// inference").
type Pattern interface {
	isPattern()
}

type basePattern struct{}

func (basePattern) isPattern() {}

// PVar binds a single name.
type PVar struct {
	basePattern
	Name string
}

// PWildcard matches anything, binding nothing.
type PWildcard struct{ basePattern }

// PConstructor matches a constructor application, recursively matching
// its sub-patterns; its own sharing is the join of its arguments' per
// spec.md §4.G.
type PConstructor struct {
	basePattern
	Name string
	Args []Pattern
}

// Decl is one top-level declaration (spec.md §6).
type Decl interface {
	isDecl()
}

type baseDecl struct{}

func (baseDecl) isDecl() {}

// Func is a single (non-recursive) top-level function.
type Func struct {
	baseDecl
	Name   string
	Params []string
	Body   Expression
}

// RecFuncs is a mutually-recursive group of functions.
type RecFuncs struct {
	baseDecl
	Funcs []Func
}

// TypeDecl declares a nominal type.
type TypeDecl struct {
	baseDecl
	Name         string
	Params       []string
	Constructors []ConstructorDecl
}

// ConstructorDecl is one data constructor of a TypeDecl.
type ConstructorDecl struct {
	Name   string
	Fields []types.Type
}

// RecTypes is a mutually-recursive group of type declarations.
type RecTypes struct {
	baseDecl
	Types []TypeDecl
}

// PatternDecl declares a user-defined pattern synonym.
type PatternDecl struct {
	baseDecl
	Name    string
	Pattern Pattern
}

// OverloadDecl introduces an overloaded name governed by a predicate.
type OverloadDecl struct {
	baseDecl
	Name          string
	PredicateName string
	Type          types.Type
	Instances     []string // names of InstanceDecl declarations for this overload
}

// InstanceDecl implements one overload for a specific type.
type InstanceDecl struct {
	baseDecl
	Name string // matches the OverloadDecl.Name it implements
	Type types.Type
	Body Expression
}

// EffectDecl introduces an algebraic effect with named operations.
type EffectDecl struct {
	baseDecl
	Name     string
	Params   []string
	Handlers []string // operation names, e.g. "raise!"
}

// PropagationRuleDecl declares a user CHR propagation rule.
type PropagationRuleDecl struct {
	baseDecl
	Name  string
	Heads []Predicate
	Body  []Predicate
}

// TestDecl, LawDecl are test-mode declarations; the core only needs
// to thread them through unexamined (test-mode generation is out of
// scope per spec.md §1).
type TestDecl struct {
	baseDecl
	Name string
	Body Expression
}

type LawDecl struct {
	baseDecl
	Name string
	Body Expression
}

// CheckDecl asserts that Name has Type, a standalone type annotation.
type CheckDecl struct {
	baseDecl
	Name string
	Type types.Type
}

// TagDecl declares a unit-of-measure term name for TypeName.
type TagDecl struct {
	baseDecl
	TypeName     string
	UnitTermName string
}

// Program is the external input contract of the core (spec.md §6).
type Program struct {
	Declarations []Decl
	Main         Expression
}
