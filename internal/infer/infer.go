// Package infer implements the bidirectional type inference engine of
// spec.md §4.G: it walks the renamed surface AST (package ast),
// synthesizes a word function type `(effect, permission, totality,
// inputs -> outputs)` for every word, composes adjacent words by
// unifying outputs against inputs, and emits overload placeholders for
// elaboration (package elaborate) to resolve later.
//
// Grounded on the teacher's internal/analyzer package: Context mirrors
// analyzer.InferenceContext (fresh-counter-plus-constraint-accumulator
// shape); the file split (control flow, calls, literals, patterns)
// follows analyzer's own inference_control.go / inference_calls.go /
// inference_literals.go / declarations_patterns.go split.
package infer

import (
	"github.com/corelang/corec/internal/abelian"
	"github.com/corelang/corec/internal/ast"
	"github.com/corelang/corec/internal/chr"
	"github.com/corelang/corec/internal/coreerrors"
	"github.com/corelang/corec/internal/env"
	"github.com/corelang/corec/internal/fresh"
	"github.com/corelang/corec/internal/kinds"
	"github.com/corelang/corec/internal/scheme"
	"github.com/corelang/corec/internal/types"
	"github.com/corelang/corec/internal/unify"
)

// Context carries the mutable-by-value state inference threads through
// a single top-level inference: the fresh-variable source, the
// accumulated equality constraints, and the accumulated context
// predicates placeholders still need discharged (spec.md §9: "cut
// cyclic references... by threading the fresh-variable counter as a
// value").
type Context struct {
	Fresh       *fresh.Source
	Rules       []chr.Rule
	constraints [][2]types.Type
	predicates  []chr.Predicate
}

// NewContext creates an inference context over fr, with rules as the
// CHR propagation/simplification rules active for this compilation
// (drawn from PropagationRuleDecl declarations only).
func NewContext(fr *fresh.Source, rules []chr.Rule) *Context {
	return &Context{Fresh: fr, Rules: rules}
}

func (c *Context) constrain(l, r types.Type) {
	c.constraints = append(c.constraints, [2]types.Type{l, r})
}

func (c *Context) predicate(name string, args ...types.Type) {
	c.predicates = append(c.predicates, chr.Predicate{Name: name, Args: args})
}

// instantiateEntry instantiates an environment entry's scheme with
// fresh variables, returning the qualified type package infer composes
// into the word being inferred (spec.md §4.G identifier rule).
// Constructor entries carry their value-side scheme in Scheme; the
// pattern-side scheme (used by pattern inference) lives separately in
// PatternScheme.
func instantiateEntry(c *Context, entry env.Entry) (scheme.Qualified, types.Subst) {
	return scheme.Instantiate(c.Fresh, entry.Scheme)
}

// monotypeOf wraps a type with no quantifiers/context, used for the
// ad-hoc local bindings handle/params and handler params introduce
// (spec.md §4.G "params become stack values").
func monotypeOf(t types.Type) scheme.Scheme { return scheme.Monotype(t) }

// sharedAttr/unsharedAttr are the two elements of the two-valued
// Boolean attribute group (spec.md §9) used for the Sharing kind.
func sharedAttr() types.Type   { return types.AbelianEq{Eq: abelian.True(), K: kinds.Sharing{}} }
func unsharedAttr() types.Type { return types.AbelianEq{Eq: abelian.False(), K: kinds.Sharing{}} }
func totalAttr() types.Type    { return types.AbelianEq{Eq: abelian.True(), K: kinds.Totality{}} }

// identityStack returns the word type of the empty word sequence: no
// effect, no permission, total, empty-to-empty stack — the starting
// point word composition folds over.
func (c *Context) identityStack() types.Stack {
	return types.Stack{
		Effect:     c.Fresh.NextRowVar(kinds.Effect{}),
		Permission: c.Fresh.NextRowVar(kinds.Permission{}),
		Totality:   totalAttr(),
		In:         types.Seq{ElemKind: kinds.Value{}},
		Out:        types.Seq{ElemKind: kinds.Value{}},
	}
}

// seqOf builds a (non-dotted) sequence type from a list of value types.
func seqOf(ts ...types.Type) types.Seq {
	elems := make([]types.SeqElem, len(ts))
	for i, t := range ts {
		elems[i] = types.SeqElem{Elem: t}
	}
	return types.Seq{Elems: elems, ElemKind: kinds.Value{}}
}

// InferExpression infers the word type of a sequence of words composed
// left-to-right, returning the composed Stack and the (possibly
// placeholder-rewritten) expression.
func (c *Context) InferExpression(e *env.Env, expr ast.Expression) (types.Stack, ast.Expression, error) {
	acc := c.identityStack()
	out := make(ast.Expression, 0, len(expr))
	for _, w := range expr {
		wt, rewritten, err := c.inferWord(e, w)
		if err != nil {
			return types.Stack{}, nil, err
		}
		next, err := c.compose(acc, wt)
		if err != nil {
			return types.Stack{}, nil, err
		}
		acc = next
		out = append(out, rewritten...)
	}
	return acc, out, nil
}

// compose unifies the left word's outputs against the right word's
// inputs (spec.md §4.G), folding effect/permission rows together via
// unification (both are open rows so they merge rather than clash),
// and accumulates totality via "and" per spec.md §9's Abelian-lattice
// reuse. Sharing is not part of a Stack type, so composition does not
// accumulate it. Composition's own accumulation ("and") is distinct from the generic equality unification package unify
// supplies for Stack equality elsewhere (e.g. unifyBranches).
func (c *Context) compose(left, right types.Stack) (types.Stack, error) {
	s, err := unify.Unify(c.Fresh, left.Out, right.In)
	if err != nil {
		return types.Stack{}, err
	}
	se, err := unify.Unify(c.Fresh, left.Effect.Apply(s), right.Effect.Apply(s))
	if err != nil {
		return types.Stack{}, err
	}
	s = s.Compose(se)
	sp, err := unify.Unify(c.Fresh, left.Permission.Apply(s), right.Permission.Apply(s))
	if err != nil {
		return types.Stack{}, err
	}
	s = s.Compose(sp)

	totality := andTotality(left.Totality.Apply(s), right.Totality.Apply(s))

	return types.Stack{
		Effect:     left.Effect.Apply(s),
		Permission: left.Permission.Apply(s),
		Totality:   totality,
		In:         left.In.Apply(s),
		Out:        right.Out.Apply(s),
	}, nil
}

// andTotality conjoins two totality attributes when both are concrete
// (the common case: literal words and primitives are always Total);
// when either side is still an unresolved variable, the conjunction is
// deferred by returning that variable unevaluated — solveAll-time
// unification eventually pins it to a concrete value.
func andTotality(a, b types.Type) types.Type {
	ae, aok := a.(types.AbelianEq)
	be, bok := b.(types.AbelianEq)
	if aok && bok {
		return types.AbelianEq{Eq: abelian.And(ae.Eq, be.Eq), K: kinds.Totality{}}
	}
	if aok && ae.Eq.Equal(abelian.True()) {
		return b
	}
	if bok && be.Eq.Equal(abelian.True()) {
		return a
	}
	return a
}

func orSharing(a, b types.Type) types.Type {
	ae, aok := a.(types.AbelianEq)
	be, bok := b.(types.AbelianEq)
	if aok && bok {
		return types.AbelianEq{Eq: abelian.Or(ae.Eq, be.Eq), K: kinds.Sharing{}}
	}
	return a
}

// Solve runs solveAll over the accumulated equality constraints, then
// reduces the accumulated context predicates via the CHR solver,
// returning the final substitution and residual predicates (callers
// check these for ambiguity, spec.md §4.G "inferTop").
func (c *Context) Solve() (types.Subst, []chr.Predicate, error) {
	s, err := unify.SolveAll(c.Fresh, c.constraints)
	if err != nil {
		return nil, nil, err
	}
	preds := make([]chr.Predicate, len(c.predicates))
	for i, p := range c.predicates {
		preds[i] = p.Apply(s)
	}
	st, err := chr.Solve(c.Fresh, c.Rules, preds, s)
	if err != nil {
		return nil, nil, err
	}
	return st.Subst, st.Predicates, nil
}

// CheckAmbiguity fails if any free variable of the residual predicate
// set does not appear in pred's own arguments reachable from head,
// i.e. spec.md §4.G's "any free type variable appearing only in the
// context but not in the head fails as ambiguous overload". head is
// the top-level inferred type's free-variable set.
func CheckAmbiguity(head types.Type, residual []chr.Predicate) error {
	headVars := map[string]bool{}
	for _, v := range head.FreeVars() {
		headVars[v.Name] = true
	}
	for _, p := range residual {
		for _, a := range p.Args {
			for _, v := range a.FreeVars() {
				if !headVars[v.Name] {
					return &coreerrors.AmbiguousOverloadError{Type: head}
				}
			}
		}
	}
	return nil
}

// InferTop runs inference over a whole top-level expression, solves
// constraints, and checks ambiguity (spec.md §4.G "inferTop"). The
// returned substitution is the final one produced by solving; callers
// that go on to elaborate placeholders embedded in rewritten must
// apply it to each placeholder's carried type first, since rewritten
// is produced during inference itself, before Solve ran.
func InferTop(fr *fresh.Source, rules []chr.Rule, e *env.Env, expr ast.Expression) (scheme.Qualified, ast.Expression, types.Subst, error) {
	c := NewContext(fr, rules)
	st, rewritten, err := c.InferExpression(e, expr)
	if err != nil {
		return scheme.Qualified{}, nil, nil, err
	}
	subst, residual, err := c.Solve()
	if err != nil {
		return scheme.Qualified{}, nil, nil, err
	}
	finalStack := st.Apply(subst)
	if err := CheckAmbiguity(finalStack, residual); err != nil {
		return scheme.Qualified{}, nil, nil, err
	}
	ctx := make([]scheme.Predicate, len(residual))
	for i, p := range residual {
		ctx[i] = scheme.Predicate{Trait: p.Name, Args: p.Args}
	}
	return scheme.Qualified{Context: ctx, Head: finalStack}, rewritten, subst, nil
}
