// Package ir is the closure-free core intermediate representation
// spec.md §3 names "IR word (core)": the output of core lowering
// (component I) and the input to the bytecode generator (component
// J). It carries no scheme information; closures are annotated with
// an explicit free-variable list rather than capturing lexically.
package ir

// Word is one node of the core IR tree.
type Word interface {
	isWord()
}

type base struct{}

func (base) isWord() {}

// Seq is a sequence of words composed in order (the lowered form of
// an ast.Expression).
type Seq []Word

func (Seq) isWord() {}

// Do invokes the closure on top of the stack (WDo -> ICallClosure).
type Do struct{ base }

// If is WIf(then, else); Else may be nil for the one-armed form.
type If struct {
	base
	Then Seq
	Else Seq
}

// While is WWhile(cond, body).
type While struct {
	base
	Cond Seq
	Body Seq
}

// Binding is one name introduced by Vars.
type Binding struct {
	Name string
}

// Vars is WVars(vs, e): introduces len(vs) new stack-backed locals
// visible in e only.
type Vars struct {
	base
	Names []string
	Body  Seq
}

// RecBinding is one member of a mutually-recursive closure group.
type RecBinding struct {
	Name string
	Free []string
	Body Seq
}

// LetRecs is WLetRecs(rs, b): emits each rec closure, binds them all
// at once (IMutual), then evaluates b.
type LetRecs struct {
	base
	Recs []RecBinding
	Body Seq
}

// Closure is WClosure(free, blockName): a closure literal capturing
// Free (by name, resolved against the enclosing environment stack at
// codegen time) whose body was already lowered into a separate block
// named BlockName.
type Closure struct {
	base
	Free      []string
	BlockName string
	Body      Seq // retained so codegen can still emit/number the block
}

// RecClosure is like Closure but participates in a LetRecs group
// (its own name is one of the Free names it may reference).
type RecClosure struct {
	base
	Name      string
	Free      []string
	BlockName string
	Body      Seq
}

// RecordExtend/RecordRestrict/RecordSelect manipulate row-typed records.
type RecordExtend struct {
	base
	Label string
}
type RecordRestrict struct {
	base
	Label string
}
type RecordSelect struct {
	base
	Label string
}

// VariantLit constructs a tagged variant value.
type VariantLit struct {
	base
	Label string
}

// Case is WCase(tag, then, else): tests the top-of-stack variant's tag.
type Case struct {
	base
	Label string
	Then  Seq
	Else  Seq
}

// WithPermission brackets Body with a permission check/grant.
type WithPermission struct {
	base
	Permission string
	Body       Seq
}

// Integer is a sized integer immediate, WInteger(digits, size).
type Integer struct {
	base
	Digits string
	Size   string
}

// PrimitiveCall invokes a named primitive (component K resolves Name
// to an instruction sequence).
type PrimitiveCall struct {
	base
	Name string
}

// Handler is one handle-clause lowered into the IR, paired with its
// captured free-variable list for closure conversion.
type Handler struct {
	Name   string
	Params []string
	Free   []string
	Body   Seq
}

// Handle is WHandle(params, body, handlers, return): handlers and the
// return clause are fused here exactly as spec.md §4.I describes
// ("returns are fused into the handler's ret slot").
type Handle struct {
	base
	Params   []string
	Body     Seq
	Handlers []Handler
	Return   Handler
}

// CallVar references a statically-dispatched function by name
// (WCallVar -> either IFind+ICallClosure, if bound in the codegen
// environment stack, or ICall(Label name) otherwise).
type CallVar struct {
	base
	Name string
}

// ValueVar references a plain bound value (WValueVar -> IFind).
type ValueVar struct {
	base
	Name string
}

// OperatorVar references an effect operation invoked from inside a
// handler body (WOperatorVar -> IEscape).
type OperatorVar struct {
	base
	Name string
}

// ConstructorVar constructs a value of a nominal data type (WConstructorVar -> IConstruct).
type ConstructorVar struct {
	base
	Name string
	Args int
}

// TestConstructorVar tests whether the top-of-stack value was built by
// the named constructor (WTestConstructorVar -> IIsStruct).
type TestConstructorVar struct {
	base
	Name string
}

// PrimVar references a table-resolved primitive function value (as
// opposed to PrimitiveCall, which invokes one immediately).
type PrimVar struct {
	base
	Name string
}
