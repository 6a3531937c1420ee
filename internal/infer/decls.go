// Declaration registration: turns a Program's top-level Decls
// (spec.md §6's external input contract) into the initial environment
// component G infers Main against, plus the CHR rule set component F
// later reduces qualifiers with. Spec.md's component-dependency
// diagram treats "(A,B,D,E) prepared" as a precondition of G; building
// that precondition from concrete declarations is the missing wiring
// step between the external renamer and inference proper, grounded on
// the teacher's declarations_instances*.go / declarations_patterns.go
// family (analyzer package) the same way package infer's word rules
// are.
package infer

import (
	"fmt"

	"github.com/corelang/corec/internal/abelian"
	"github.com/corelang/corec/internal/ast"
	"github.com/corelang/corec/internal/chr"
	"github.com/corelang/corec/internal/env"
	"github.com/corelang/corec/internal/fresh"
	"github.com/corelang/corec/internal/kinds"
	"github.com/corelang/corec/internal/primitives"
	"github.com/corelang/corec/internal/scheme"
	"github.com/corelang/corec/internal/types"
)

// Prelude builds the root environment every program starts from: one
// Function entry per recognized primitive name (package primitives),
// so the identifier rule (inferIdentifier) never has to special-case
// them — a primitive reference is otherwise indistinguishable from an
// ordinary function call at the type-inference level (spec.md §4.I is
// where the distinction resurfaces, as WPrimVar vs WCallVar).
func Prelude() *env.Env {
	e := env.New()
	for _, name := range primitives.Names() {
		entry, _ := primitives.Lookup(name)
		e = e.Bind(env.NSWord, name, env.Entry{Name: name, Kind: env.KindFunction, Scheme: entry.Scheme})
	}
	return e
}

// Unit is one declared top-level function body, already inferred and
// placeholder-rewritten, ready for package elaborate to resolve and
// package corelower to lower. Params are the stack-bound parameter
// names the generated function's entry block receives (spec.md §4.J's
// closure-conversion "callAppend" list, for a plain top-level
// function, is just these).
type Unit struct {
	Name   string
	Params []string
	Body   ast.Expression
	Subst  types.Subst
	Scheme scheme.Scheme
}

// DeclareProgram processes every declaration of prog in order,
// returning the environment Main should be inferred against, the CHR
// rule set (from PropagationRuleDecl), the predicate->instance index
// elaboration needs to resolve OverloadPlaceholders, and every
// declared function/instance body as a Unit ready for elaboration.
func DeclareProgram(fr *fresh.Source, prog ast.Program) (*env.Env, []chr.Rule, env.InstanceIndex, []Unit, error) {
	e := Prelude()
	var rules []chr.Rule
	var units []Unit
	idx := env.InstanceIndex{}

	for _, d := range prog.Declarations {
		var err error
		e, err = declareOne(fr, e, &rules, idx, &units, d)
		if err != nil {
			return nil, nil, nil, nil, err
		}
	}
	return e, rules, idx, units, nil
}

func declareOne(fr *fresh.Source, e *env.Env, rules *[]chr.Rule, idx env.InstanceIndex, units *[]Unit, d ast.Decl) (*env.Env, error) {
	switch dd := d.(type) {
	case ast.Func:
		return declareFunc(fr, e, *rules, units, dd)
	case ast.RecFuncs:
		return declareRecFuncs(fr, e, *rules, units, dd)
	case ast.TypeDecl:
		return declareType(e, dd), nil
	case ast.RecTypes:
		cur := e
		for _, t := range dd.Types {
			cur = declareType(cur, t)
		}
		return cur, nil
	case ast.PatternDecl:
		sch := scheme.Monotype(fr.Next(kinds.Value{}))
		return e.Bind(env.NSPattern, dd.Name, env.Entry{Name: dd.Name, Kind: env.KindPattern, Scheme: sch}), nil
	case ast.OverloadDecl:
		return e.Bind(env.NSWord, dd.Name, declareOverload(dd)), nil
	case ast.InstanceDecl:
		return declareInstance(fr, e, *rules, idx, units, dd)
	case ast.EffectDecl:
		cur := e
		for _, op := range dd.Handlers {
			effRow := types.RowExtend{Label: dd.Name, Elem: types.AbelianOne{K: kinds.Effect{}}, Tail: fr.NextRowVar(kinds.Effect{})}
			opType := types.Stack{
				Effect:     effRow,
				Permission: fr.NextRowVar(kinds.Permission{}),
				Totality:   types.AbelianEq{Eq: abelian.True(), K: kinds.Totality{}},
				In:         types.Seq{ElemKind: kinds.Value{}},
				Out:        types.Seq{Elems: []types.SeqElem{{Elem: fr.Next(kinds.Value{})}}, ElemKind: kinds.Value{}},
			}
			cur = cur.Bind(env.NSWord, op, env.Entry{Name: op, Kind: env.KindFunction, Scheme: scheme.Monotype(opType), IsOperator: true})
		}
		return cur, nil
	case ast.PropagationRuleDecl:
		*rules = append(*rules, chr.Rule{
			Name:  dd.Name,
			Kind:  chr.Propagation,
			Heads: toCHRPredicates(dd.Heads),
			Body:  toCHRPredicates(dd.Body),
		})
		return e, nil
	case ast.TagDecl:
		eq := types.AbelianEq{Eq: abelian.New(nil, map[string]int{dd.UnitTermName: 1}), K: kinds.Unit{}}
		return e.Bind(env.NSWord, dd.UnitTermName, env.Entry{Name: dd.UnitTermName, Kind: env.KindVariable, Scheme: scheme.Monotype(eq)}), nil
	case ast.TestDecl, ast.LawDecl, ast.CheckDecl:
		// Threaded through unexamined: test-mode/law-checking generation
		// and standalone type annotations are driver territory per
		// spec.md §1's non-goals list.
		return e, nil
	default:
		return nil, fmt.Errorf("infer: unhandled declaration %T", d)
	}
}

// declareOverload builds the Overload entry's scheme: quantify over
// every free variable of dd.Type and constrain the identifier's own
// context with dd.PredicateName applied to those same variables, so
// that instantiateEntry (package infer's identifier rule) mints a
// fresh copy of the constraint at every use site instead of sharing
// one literal type variable across every call — without this, the
// overload would never carry a non-empty context and inferIdentifier
// would fall straight through to a plain identifier reference,
// skipping placeholder emission entirely (spec.md §4.G, §4.H).
func declareOverload(dd ast.OverloadDecl) env.Entry {
	free := dd.Type.FreeVars()
	quant := make([]scheme.Quantifier, len(free))
	args := make([]types.Type, len(free))
	for i, v := range free {
		quant[i] = scheme.Quantifier{Name: v.Name, Kind: v.K}
		args[i] = v
	}
	sch := scheme.Scheme{
		Quantified: quant,
		Body: scheme.Qualified{
			Context: []scheme.Predicate{{Trait: dd.PredicateName, Args: args}},
			Head:    dd.Type,
		},
	}
	return env.Entry{
		Name:          dd.Name,
		Kind:          env.KindOverload,
		PredicateName: dd.PredicateName,
		Scheme:        sch,
	}
}

func toCHRPredicates(ps []ast.Predicate) []chr.Predicate {
	out := make([]chr.Predicate, len(ps))
	for i, p := range ps {
		args := []types.Type{}
		if p.Arg != nil {
			args = []types.Type{p.Arg}
		}
		out[i] = chr.Predicate{Name: p.Trait, Args: args}
	}
	return out
}

// declareFunc infers a single non-recursive function, generalizes its
// type, binds it as a Function entry, and records its rewritten body
// as a Unit for later elaboration/lowering.
func declareFunc(fr *fresh.Source, e *env.Env, rules []chr.Rule, units *[]Unit, f ast.Func) (*env.Env, error) {
	inner := e
	for _, p := range f.Params {
		inner = inner.Bind(env.NSWord, p, env.Entry{Name: p, Kind: env.KindVariable, Scheme: monotypeOf(fr.Next(kinds.Value{}))})
	}
	q, rewritten, subst, err := InferTop(fr, rules, inner, f.Body)
	if err != nil {
		return nil, err
	}
	sch := scheme.Generalize(envFreeNames(e), q)
	*units = append(*units, Unit{Name: f.Name, Params: f.Params, Body: rewritten, Subst: subst, Scheme: sch})
	return e.Bind(env.NSWord, f.Name, env.Entry{Name: f.Name, Kind: env.KindFunction, Scheme: sch}), nil
}

// declareRecFuncs implements spec.md §9's two-pass recursive-group
// scheme: bind a fresh monotype for every name in the group as
// KindRecursive first (so self/mutual references inside each body
// resolve to a RecursivePlaceholder rather than UnboundName), infer
// every body against that shared environment, then generalize each
// body's own inferred type and rebind as ordinary Function entries.
// The placeholder types are not unified with the inferred types.
func declareRecFuncs(fr *fresh.Source, e *env.Env, rules []chr.Rule, units *[]Unit, group ast.RecFuncs) (*env.Env, error) {
	placeholderTypes := make(map[string]types.Type, len(group.Funcs))
	inner := e
	for _, f := range group.Funcs {
		t := fr.Next(kinds.Value{})
		placeholderTypes[f.Name] = t
		inner = inner.Bind(env.NSWord, f.Name, env.Entry{Name: f.Name, Kind: env.KindRecursive, Scheme: monotypeOf(t)})
	}

	type result struct {
		q         scheme.Qualified
		rewritten ast.Expression
		subst     types.Subst
	}
	finalQs := make(map[string]result, len(group.Funcs))
	for _, f := range group.Funcs {
		paramEnv := inner
		for _, p := range f.Params {
			paramEnv = paramEnv.Bind(env.NSWord, p, env.Entry{Name: p, Kind: env.KindVariable, Scheme: monotypeOf(fr.Next(kinds.Value{}))})
		}
		q, rewritten, subst, err := InferTop(fr, rules, paramEnv, f.Body)
		if err != nil {
			return nil, err
		}
		finalQs[f.Name] = result{q: q, rewritten: rewritten, subst: subst}
	}

	out := e
	for _, f := range group.Funcs {
		r := finalQs[f.Name]
		sch := scheme.Generalize(envFreeNames(e), r.q)
		*units = append(*units, Unit{Name: f.Name, Params: f.Params, Body: r.rewritten, Subst: r.subst, Scheme: sch})
		out = out.Bind(env.NSWord, f.Name, env.Entry{Name: f.Name, Kind: env.KindFunction, Scheme: sch})
	}
	return out, nil
}

// declareType registers a nominal type's constructors, each as a
// Constructor entry carrying both a pattern-side scheme (matching the
// constructor's own arguments) and a value-side scheme (the function
// that builds a value of the type from those arguments).
func declareType(e *env.Env, t ast.TypeDecl) *env.Env {
	tyCon := types.Con{Name: t.Name, K: kinds.Value{}}
	cur := e.Bind(env.NSTypeCtor, t.Name, env.Entry{Name: t.Name, Kind: env.KindTypeCtor, TCKind: kinds.Value{}})
	for _, ctor := range t.Constructors {
		valueType := buildCtorFuncType(ctor.Fields, tyCon)
		cur = cur.Bind(env.NSWord, ctor.Name, env.Entry{
			Name:          ctor.Name,
			Kind:          env.KindConstructor,
			Scheme:        scheme.Monotype(valueType),
			PatternScheme: scheme.Monotype(valueType),
			Arity:         len(ctor.Fields),
		})
	}
	return cur
}

// buildCtorFuncType is the constructor analog of package primitives'
// funcType: a nullary constructor's value type is just its nominal
// type (pushed directly, as any plain value is); one with fields is a
// types.Stack consuming them in declared order, for the same reason
// package primitives builds Stack types rather than curried arrows
// (asStack only special-cases types.Stack when composing an
// identifier's effect directly into the surrounding word sequence).
func buildCtorFuncType(fields []types.Type, result types.Type) types.Type {
	if len(fields) == 0 {
		return result
	}
	elems := make([]types.SeqElem, len(fields))
	for i, f := range fields {
		elems[i] = types.SeqElem{Elem: f}
	}
	return types.Stack{
		Effect:     types.RowEmpty{ElemKind: kinds.Effect{}},
		Permission: types.RowEmpty{ElemKind: kinds.Permission{}},
		Totality:   types.AbelianEq{Eq: abelian.True(), K: kinds.Totality{}},
		In:         types.Seq{Elems: elems, ElemKind: kinds.Value{}},
		Out:        types.Seq{Elems: []types.SeqElem{{Elem: result}}, ElemKind: kinds.Value{}},
	}
}

// declareInstance infers an instance's body, generates a unique
// function name for the elaborated dictionary implementation, binds
// it as a plain Function entry, and records it both on the base
// Overload entry (AddInstance) and in the predicate-name index
// elaboration consults.
func declareInstance(fr *fresh.Source, e *env.Env, rules []chr.Rule, idx env.InstanceIndex, units *[]Unit, inst ast.InstanceDecl) (*env.Env, error) {
	base, ok := e.LookupWord(inst.Name)
	if !ok || base.Kind != env.KindOverload {
		return nil, fmt.Errorf("infer: instance %q for undeclared overload", inst.Name)
	}
	q, rewritten, subst, err := InferTop(fr, rules, e, inst.Body)
	if err != nil {
		return nil, err
	}
	sch := scheme.Generalize(envFreeNames(e), q)
	fnName := fmt.Sprintf("%s$%s", inst.Name, inst.Type)
	*units = append(*units, Unit{Name: fnName, Body: rewritten, Subst: subst, Scheme: sch})
	out := e.Bind(env.NSWord, fnName, env.Entry{Name: fnName, Kind: env.KindFunction, Scheme: sch})
	out = out.AddInstance(inst.Name, env.Instance{Scheme: scheme.Monotype(inst.Type), FunctionName: fnName})
	idx.Add(base.PredicateName, env.Instance{Scheme: scheme.Monotype(inst.Type), FunctionName: fnName})
	return out, nil
}

// envFreeNames approximates "free in the enclosing environment" for
// generalization purposes. Package env is a persistent map with no
// enumeration API (spec.md §4.E), so it always returns an empty set:
// every declaration, including each member of a mutually-recursive
// group, generalizes over every free variable of its own type.
func envFreeNames(e *env.Env) map[string]bool {
	return map[string]bool{}
}
