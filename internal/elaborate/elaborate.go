// Package elaborate implements spec.md §4.H: the second compilation
// phase, run once inference (package infer) has produced a
// placeholder-carrying AST for every declared unit. It resolves every
// OverloadPlaceholder/MethodPlaceholder/RecursivePlaceholder to a
// concrete reference, turning each context predicate of a generalized
// scheme into a named dictionary parameter and each overloaded call
// site into either a reference to that parameter or a direct call to
// the matching instance (recursively supplying that instance's own
// nested dictionaries first).
//
// Grounded on the teacher's internal/analyzer/declarations_instances*.go
// family, which already walks a method call site, looks up the
// receiver's concrete type against symbols.InstanceRegistry, and binds
// the resolved implementation name onto the call node; dictionary
// parameters and one-way matching are new, since funxy dispatches
// methods at one level (interface name) rather than deriving a
// qualified-types context.
package elaborate

import (
	"fmt"

	"github.com/corelang/corec/internal/ast"
	"github.com/corelang/corec/internal/coreerrors"
	"github.com/corelang/corec/internal/env"
	"github.com/corelang/corec/internal/fresh"
	"github.com/corelang/corec/internal/infer"
	"github.com/corelang/corec/internal/scheme"
	"github.com/corelang/corec/internal/types"
)

// Unit is one elaborated top-level function: Params is the declared
// parameter list with leading synthesized dictionary parameters for
// every context predicate of its generalized scheme, and Body has
// every placeholder resolved away.
type Unit struct {
	Name   string
	Params []string
	Body   ast.Expression
}

// dictEntry is one dictionary parameter the enclosing unit's own
// generalized context supplies: resolving a placeholder whose
// predicate matches one of these just references the parameter
// instead of searching instances.
type dictEntry struct {
	trait string
	arg   types.Type
	name  string
}

// Elaborate resolves every unit independently. Units may reference one
// another's synthesized function names (instance implementations were
// themselves registered as plain Function entries by package infer's
// declareInstance), so order does not matter here the way it does
// during declaration.
func Elaborate(fr *fresh.Source, idx env.InstanceIndex, units []infer.Unit) ([]Unit, error) {
	out := make([]Unit, 0, len(units))
	for _, u := range units {
		eu, err := elaborateUnit(fr, idx, u)
		if err != nil {
			return nil, fmt.Errorf("elaborate %s: %w", u.Name, err)
		}
		out = append(out, eu)
	}
	return out, nil
}

func elaborateUnit(fr *fresh.Source, idx env.InstanceIndex, u infer.Unit) (Unit, error) {
	dicts := make([]dictEntry, len(u.Scheme.Body.Context))
	for i, p := range u.Scheme.Body.Context {
		var arg types.Type
		if len(p.Args) > 0 {
			arg = p.Args[0]
		}
		dicts[i] = dictEntry{trait: p.Trait, arg: arg, name: fmt.Sprintf("$dict_%s_%d", p.Trait, i)}
	}
	params := make([]string, 0, len(dicts)+len(u.Params))
	for _, d := range dicts {
		params = append(params, d.name)
	}
	params = append(params, u.Params...)

	body, err := elaborateExpr(fr, idx, dicts, u.Subst, u.Body)
	if err != nil {
		return Unit{}, err
	}
	return Unit{Name: u.Name, Params: params, Body: body}, nil
}

func elaborateExpr(fr *fresh.Source, idx env.InstanceIndex, dicts []dictEntry, subst types.Subst, expr ast.Expression) (ast.Expression, error) {
	out := make(ast.Expression, 0, len(expr))
	for _, w := range expr {
		words, err := elaborateWord(fr, idx, dicts, subst, w)
		if err != nil {
			return nil, err
		}
		out = append(out, words...)
	}
	return out, nil
}

// elaborateWord resolves w, returning the zero-or-more words it
// expands to (an OverloadPlaceholder vanishes once verified resolvable;
// a MethodPlaceholder expands to its nested dictionary arguments
// followed by the call itself).
func elaborateWord(fr *fresh.Source, idx env.InstanceIndex, dicts []dictEntry, subst types.Subst, w ast.Word) ([]ast.Word, error) {
	switch ww := w.(type) {
	case ast.OverloadPlaceholder:
		pred := applyPredicate(ww.Predicate, subst)
		if _, err := resolvePredicate(fr, idx, dicts, pred); err != nil {
			return nil, err
		}
		return nil, nil

	case ast.MethodPlaceholder:
		pred := applyPredicate(ww.Predicate, subst)
		return resolvePredicate(fr, idx, dicts, pred)

	case ast.RecursivePlaceholder:
		return []ast.Word{ast.Identifier{Name: ww.Name}}, nil

	case ast.Let:
		body, err := elaborateExpr(fr, idx, dicts, subst, ww.Body)
		if err != nil {
			return nil, err
		}
		bindings := make([]ast.Binding, len(ww.Bindings))
		for i, b := range ww.Bindings {
			v, err := elaborateExpr(fr, idx, dicts, subst, b.Value)
			if err != nil {
				return nil, err
			}
			bindings[i] = ast.Binding{Pattern: b.Pattern, Value: v}
		}
		return []ast.Word{ast.Let{Bindings: bindings, Body: body}}, nil

	case ast.If:
		then, err := elaborateExpr(fr, idx, dicts, subst, ww.Then)
		if err != nil {
			return nil, err
		}
		els, err := elaborateExpr(fr, idx, dicts, subst, ww.Else)
		if err != nil {
			return nil, err
		}
		return []ast.Word{ast.If{Then: then, Else: els}}, nil

	case ast.Case:
		then, err := elaborateExpr(fr, idx, dicts, subst, ww.Then)
		if err != nil {
			return nil, err
		}
		els, err := elaborateExpr(fr, idx, dicts, subst, ww.Else)
		if err != nil {
			return nil, err
		}
		return []ast.Word{ast.Case{Label: ww.Label, Then: then, Else: els}}, nil

	case ast.While:
		cond, err := elaborateExpr(fr, idx, dicts, subst, ww.Cond)
		if err != nil {
			return nil, err
		}
		body, err := elaborateExpr(fr, idx, dicts, subst, ww.Body)
		if err != nil {
			return nil, err
		}
		return []ast.Word{ast.While{Cond: cond, Body: body}}, nil

	case ast.FuncLit:
		params, err := elaborateExpr(fr, idx, dicts, subst, ww.Params)
		if err != nil {
			return nil, err
		}
		body, err := elaborateExpr(fr, idx, dicts, subst, ww.Body)
		if err != nil {
			return nil, err
		}
		return []ast.Word{ast.FuncLit{Params: params, Body: body}}, nil

	case ast.Handle:
		body, err := elaborateExpr(fr, idx, dicts, subst, ww.Body)
		if err != nil {
			return nil, err
		}
		handlers := make([]ast.Handler, len(ww.Handlers))
		for i, h := range ww.Handlers {
			hb, err := elaborateExpr(fr, idx, dicts, subst, h.Body)
			if err != nil {
				return nil, err
			}
			handlers[i] = ast.Handler{Name: h.Name, Params: h.Params, Body: hb}
		}
		retBody, err := elaborateExpr(fr, idx, dicts, subst, ww.Return.Body)
		if err != nil {
			return nil, err
		}
		ret := ast.Handler{Name: ww.Return.Name, Params: ww.Return.Params, Body: retBody}
		return []ast.Word{ast.Handle{Params: ww.Params, Body: body, Handlers: handlers, Return: ret}}, nil

	case ast.WithState:
		body, err := elaborateExpr(fr, idx, dicts, subst, ww.Body)
		if err != nil {
			return nil, err
		}
		return []ast.Word{ast.WithState{Body: body}}, nil

	default:
		return []ast.Word{w}, nil
	}
}

func applyPredicate(p ast.Predicate, s types.Subst) ast.Predicate {
	if p.Arg == nil {
		return p
	}
	return ast.Predicate{Trait: p.Trait, Arg: p.Arg.Apply(s)}
}

// resolvePredicate resolves one context predicate to the words that
// supply its dictionary at the call site: a single identifier
// reference if it matches an already-bound dictionary parameter, or
// the matching instance's own nested dictionary words followed by a
// reference to the instance's generated function if a concrete
// instance is found.
func resolvePredicate(fr *fresh.Source, idx env.InstanceIndex, dicts []dictEntry, pred ast.Predicate) ([]ast.Word, error) {
	if d, ok := lookupDict(dicts, pred); ok {
		return []ast.Word{ast.Identifier{Name: d.name}}, nil
	}

	insts, ok := idx[pred.Trait]
	if !ok || len(insts) == 0 {
		return nil, &coreerrors.InstanceNotFoundError{Predicate: predString{pred}}
	}

	var matchName string
	var matchFn string
	var matchSubst types.Subst
	var matchCtx []scheme.Predicate
	var names []string
	for _, inst := range insts {
		q, instSubst := scheme.Instantiate(fr, inst.Scheme)
		ms, ok := matchOneWay(q.Head, pred.Arg)
		if !ok {
			continue
		}
		names = append(names, inst.FunctionName)
		if matchFn == "" {
			matchFn = inst.FunctionName
			matchName = inst.FunctionName
			matchSubst = instSubst.Compose(ms)
			matchCtx = q.Context
		}
	}
	if len(names) > 1 {
		return nil, &coreerrors.OverlappingInstanceError{Predicate: predString{pred}, Instances: names}
	}
	if matchFn == "" {
		return nil, &coreerrors.InstanceNotFoundError{Predicate: predString{pred}}
	}
	_ = matchName

	var out []ast.Word
	for _, p := range matchCtx {
		nested := ast.Predicate{Trait: p.Trait}
		if len(p.Args) > 0 {
			nested.Arg = p.Args[0].Apply(matchSubst)
		}
		words, err := resolvePredicate(fr, idx, dicts, nested)
		if err != nil {
			return nil, err
		}
		out = append(out, words...)
	}
	return append(out, ast.Identifier{Name: matchFn}), nil
}

func lookupDict(dicts []dictEntry, pred ast.Predicate) (dictEntry, bool) {
	for _, d := range dicts {
		if d.trait == pred.Trait && sameType(d.arg, pred.Arg) {
			return d, true
		}
	}
	return dictEntry{}, false
}

func sameType(a, b types.Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}

// matchOneWay attempts a one-way (asymmetric) structural match of
// pattern against target: pattern's own variables may bind to
// arbitrary subterms of target, but a variable on target's side never
// binds, since target is the concrete argument type a call site
// already settled on (spec.md §4.H design note: instance search must
// not let the generic unifier bind the caller's own type variables).
func matchOneWay(pattern, target types.Type) (types.Subst, bool) {
	if pattern == nil || target == nil {
		return nil, false
	}
	switch p := pattern.(type) {
	case types.Var:
		return types.Subst{p.Name: target}, true
	case types.Con:
		t, ok := target.(types.Con)
		return types.Subst{}, ok && t.Name == p.Name
	case types.Prim:
		t, ok := target.(types.Prim)
		return types.Subst{}, ok && t.Tag == p.Tag
	case types.TrueT:
		_, ok := target.(types.TrueT)
		return types.Subst{}, ok
	case types.FalseT:
		_, ok := target.(types.FalseT)
		return types.Subst{}, ok
	case types.AbelianOne:
		_, ok := target.(types.AbelianOne)
		return types.Subst{}, ok
	case types.FixedInt:
		t, ok := target.(types.FixedInt)
		return types.Subst{}, ok && t.Value == p.Value
	case types.AbelianEq:
		t, ok := target.(types.AbelianEq)
		return types.Subst{}, ok && p.Eq.Equal(t.Eq)
	case types.App:
		t, ok := target.(types.App)
		if !ok {
			return nil, false
		}
		s1, ok := matchOneWay(p.Fn, t.Fn)
		if !ok {
			return nil, false
		}
		s2, ok := matchOneWay(p.Arg.Apply(s1), t.Arg)
		if !ok {
			return nil, false
		}
		return s1.Compose(s2), true
	default:
		return types.Subst{}, pattern.String() == target.String()
	}
}

type predString struct{ p ast.Predicate }

func (p predString) String() string {
	if p.p.Arg == nil {
		return p.p.Trait
	}
	return fmt.Sprintf("%s %s", p.p.Trait, p.p.Arg)
}
