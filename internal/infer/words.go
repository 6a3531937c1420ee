// Word-level inference rules (spec.md §4.G), one function per
// ast.Word variant. Grounded on the teacher's inference_calls.go
// (identifier/overload resolution), inference_control.go (if/while/
// handle), and inference_literals.go (function literals, records).
package infer

import (
	"fmt"

	"github.com/corelang/corec/internal/abelian"
	"github.com/corelang/corec/internal/ast"
	"github.com/corelang/corec/internal/coreerrors"
	"github.com/corelang/corec/internal/env"
	"github.com/corelang/corec/internal/kinds"
	"github.com/corelang/corec/internal/scheme"
	"github.com/corelang/corec/internal/types"
	"github.com/corelang/corec/internal/unify"
)

// inferWord dispatches on the concrete ast.Word variant, returning the
// word's own Stack type and the (possibly placeholder-expanded)
// sub-expression it lowers to.
func (c *Context) inferWord(e *env.Env, w ast.Word) (types.Stack, ast.Expression, error) {
	switch ww := w.(type) {
	case ast.PushInt:
		t := intType(ww.Size)
		return pushValue(t), ast.Expression{w}, nil
	case ast.PushBool:
		return pushValue(boolType()), ast.Expression{w}, nil
	case ast.Identifier:
		return c.inferIdentifier(e, ww)
	case ast.Let:
		return c.inferLet(e, ww)
	case ast.If:
		return c.inferIf(e, ww)
	case ast.While:
		return c.inferWhile(e, ww)
	case ast.FuncLit:
		return c.inferFuncLit(e, ww)
	case ast.Handle:
		return c.inferHandle(e, ww)
	case ast.NewRef:
		return c.inferNewRef(), ast.Expression{w}, nil
	case ast.GetRef:
		return c.inferGetRef(), ast.Expression{w}, nil
	case ast.PutRef:
		return c.inferPutRef(), ast.Expression{w}, nil
	case ast.WithState:
		return c.inferWithState(e, ww)
	case ast.UnitOp:
		return c.inferUnitOp(ww), ast.Expression{w}, nil
	case ast.RecordExtend:
		return c.inferRecordExtend(ww), ast.Expression{w}, nil
	case ast.RecordSelect:
		return c.inferRecordSelect(ww), ast.Expression{w}, nil
	case ast.RecordRestrict:
		return c.inferRecordRestrict(ww), ast.Expression{w}, nil
	case ast.VariantLit:
		return c.inferVariantLit(ww), ast.Expression{w}, nil
	case ast.Case:
		return c.inferCase(e, ww)
	default:
		return types.Stack{}, nil, fmt.Errorf("infer: unhandled word %T", w)
	}
}

func intType(size string) types.Type  { return types.Prim{Tag: size, K: kinds.Value{}} }
func boolType() types.Type            { return types.Prim{Tag: "Bool", K: kinds.Value{}} }
func noEffect() types.Type            { return types.RowEmpty{ElemKind: kinds.Effect{}} }
func noPermission() types.Type        { return types.RowEmpty{ElemKind: kinds.Permission{}} }
func emptyStackSeq() types.Type       { return types.Seq{ElemKind: kinds.Value{}} }

// pushValue is the word type of pushing one value of type t with no
// effect and no consumption.
func pushValue(t types.Type) types.Stack {
	return types.Stack{
		Effect:     noEffect(),
		Permission: noPermission(),
		Totality:   totalAttr(),
		In:         emptyStackSeq(),
		Out:        seqOf(t),
	}
}

// asStack treats a non-function type as "push one value of this type"
// (spec.md §4.G push-literal rule); a types.Stack is returned as-is,
// since referencing a top-level function composes its effect directly
// rather than pushing a closure (concatenative composition).
func asStack(t types.Type) types.Stack {
	if st, ok := t.(types.Stack); ok {
		return st
	}
	return pushValue(t)
}

// inferIdentifier implements spec.md §4.G's identifier rule.
func (c *Context) inferIdentifier(e *env.Env, id ast.Identifier) (types.Stack, ast.Expression, error) {
	entry, ok := e.LookupWord(id.Name)
	if !ok {
		return types.Stack{}, nil, &coreerrors.UnboundNameError{Name: id.Name}
	}

	switch entry.Kind {
	case env.KindRecursive:
		q, _ := instantiateEntry(c, entry)
		for _, p := range q.Context {
			c.predicate(p.Trait, p.Args...)
		}
		return asStack(q.Head), ast.Expression{ast.RecursivePlaceholder{Name: id.Name, Type: q.Head}}, nil

	case env.KindOverload:
		q, _ := instantiateEntry(c, entry)
		if len(q.Context) == 0 {
			return asStack(q.Head), ast.Expression{ast.Identifier{Name: id.Name}}, nil
		}
		first := q.Context[0]
		rest := q.Context[1:]
		out := ast.Expression{}
		for _, p := range rest {
			c.predicate(p.Trait, p.Args...)
			out = append(out, ast.OverloadPlaceholder{Predicate: ast.Predicate{Trait: p.Trait, Arg: predArg(p)}})
		}
		c.predicate(first.Trait, first.Args...)
		out = append(out, ast.MethodPlaceholder{Name: id.Name, Predicate: ast.Predicate{Trait: first.Trait, Arg: predArg(first)}})
		return asStack(q.Head), out, nil

	default: // KindVariable, KindFunction, KindConstructor, KindPattern
		q, _ := instantiateEntry(c, entry)
		for _, p := range q.Context {
			c.predicate(p.Trait, p.Args...)
		}
		return asStack(q.Head), ast.Expression{ast.Identifier{Name: id.Name}}, nil
	}
}

func predArg(p scheme.Predicate) types.Type {
	if len(p.Args) > 0 {
		return p.Args[0]
	}
	return nil
}

// inferLet implements the statement-block rule: infer each binding's
// value, infer its pattern against that value's pushed type, bind the
// pattern's variables (with a fresh Sharing attribute each), run the
// sharing analysis over Body (spec.md §9's disjoint-branch decision
// lives in sharing.go), then infer Body in the extended environment.
func (c *Context) inferLet(e *env.Env, l ast.Let) (types.Stack, ast.Expression, error) {
	acc := c.identityStack()
	out := ast.Expression{}
	inner := e
	names := []string{}
	for _, b := range l.Bindings {
		vt, rewritten, err := c.InferExpression(inner, b.Value)
		if err != nil {
			return types.Stack{}, nil, err
		}
		next, err := c.compose(acc, vt)
		if err != nil {
			return types.Stack{}, nil, err
		}
		acc = next
		out = append(out, rewritten...)

		bindings, pushed, err := c.inferPattern(inner, b.Pattern)
		if err != nil {
			return types.Stack{}, nil, err
		}
		if len(vt.Out.Elems) > 0 {
			last := vt.Out.Elems[len(vt.Out.Elems)-1].Elem
			c.constrain(pushed, last)
		}
		for name, sch := range bindings {
			sharing := c.Fresh.Next(kinds.Sharing{})
			inner = inner.Bind(env.NSWord, name, env.Entry{Name: name, Kind: env.KindVariable, Scheme: sch, Sharing: sharing})
			names = append(names, name)
		}
	}

	occ := countOccurrences(l.Body, names)
	for _, n := range names {
		if occ[n] > 1 {
			entry, _ := inner.LookupWord(n)
			c.constrain(entry.Sharing, sharedAttr())
		}
	}

	bt, rewrittenBody, err := c.InferExpression(inner, l.Body)
	if err != nil {
		return types.Stack{}, nil, err
	}
	final, err := c.compose(acc, bt)
	if err != nil {
		return types.Stack{}, nil, err
	}
	return final, append(out, rewrittenBody...), nil
}

// inferIf implements the conditional rule: the condition must push a
// Bool; the branches unify via unifyBranches.
func (c *Context) inferIf(e *env.Env, w ast.If) (types.Stack, ast.Expression, error) {
	thenT, thenR, err := c.InferExpression(e, w.Then)
	if err != nil {
		return types.Stack{}, nil, err
	}
	var elseT types.Stack
	var elseR ast.Expression
	if len(w.Else) == 0 {
		elseT = c.identityStack()
	} else {
		elseT, elseR, err = c.InferExpression(e, w.Else)
		if err != nil {
			return types.Stack{}, nil, err
		}
	}
	branch, err := c.unifyBranches(thenT, elseT)
	if err != nil {
		return types.Stack{}, nil, err
	}
	cond := types.Stack{
		Effect:     branch.Effect,
		Permission: branch.Permission,
		Totality:   totalAttr(),
		In:         emptyStackSeq(),
		Out:        seqOf(boolType()),
	}
	full, err := c.compose(cond, branch)
	if err != nil {
		return types.Stack{}, nil, err
	}
	out := ast.Expression{ast.If{Then: thenR, Else: elseR}}
	return full, out, nil
}

func (c *Context) inferWhile(e *env.Env, w ast.While) (types.Stack, ast.Expression, error) {
	condT, condR, err := c.InferExpression(e, w.Cond)
	if err != nil {
		return types.Stack{}, nil, err
	}
	bodyT, bodyR, err := c.InferExpression(e, w.Body)
	if err != nil {
		return types.Stack{}, nil, err
	}
	if _, err := unify.Unify(c.Fresh, condT.Out, seqOf(boolType())); err != nil {
		return types.Stack{}, nil, err
	}
	if _, err := unify.Unify(c.Fresh, bodyT.In, bodyT.Out); err != nil {
		return types.Stack{}, nil, err
	}
	loop, err := c.compose(condT, bodyT)
	if err != nil {
		return types.Stack{}, nil, err
	}
	return loop, ast.Expression{ast.While{Cond: condR, Body: bodyR}}, nil
}

// unifyBranches implements spec.md §4.G's {e,p,inputs,outputs} join
// across both branches of a conditional, accumulating totality via
// "and" (spec.md §8 testable property 6: symmetric up to substitution
// renaming, since it is plain structural unification composed with a
// commutative lattice join). Sharing is not part of a Stack type and
// is not joined here.
func (c *Context) unifyBranches(a, b types.Stack) (types.Stack, error) {
	s, err := unify.Unify(c.Fresh, a.Out, b.Out)
	if err != nil {
		return types.Stack{}, err
	}
	s2, err := unify.Unify(c.Fresh, a.In.Apply(s), b.In.Apply(s))
	if err != nil {
		return types.Stack{}, err
	}
	s = s.Compose(s2)
	se, err := unify.Unify(c.Fresh, a.Effect.Apply(s), b.Effect.Apply(s))
	if err != nil {
		return types.Stack{}, err
	}
	s = s.Compose(se)
	sp, err := unify.Unify(c.Fresh, a.Permission.Apply(s), b.Permission.Apply(s))
	if err != nil {
		return types.Stack{}, err
	}
	s = s.Compose(sp)
	return types.Stack{
		Effect:     a.Effect.Apply(s),
		Permission: a.Permission.Apply(s),
		Totality:   andTotality(a.Totality.Apply(s), b.Totality.Apply(s)),
		In:         a.In.Apply(s),
		Out:        a.Out.Apply(s),
	}, nil
}

// inferFuncLit implements the function-literal rule: infer the body,
// push it as one value, and constrain a fresh Sharing variable to the
// "or" join of every referenced free variable's sharing attribute.
func (c *Context) inferFuncLit(e *env.Env, w ast.FuncLit) (types.Stack, ast.Expression, error) {
	bodyT, bodyR, err := c.InferExpression(e, w.Body)
	if err != nil {
		return types.Stack{}, nil, err
	}
	free := freeIdentifiers(w.Body)
	sharing := types.Type(unsharedAttr())
	for _, name := range free {
		if entry, ok := e.LookupWord(name); ok && entry.Kind == env.KindVariable && entry.Sharing != nil {
			sharing = orSharing(sharing, entry.Sharing)
		}
	}
	// The literal itself pushes one function-typed value; its own
	// sharing is recorded via a constraint against a fresh Sharing var.
	// That variable is not attached to the pushed type, so later uses of
	// the literal do not see it.
	lit := c.Fresh.Next(kinds.Sharing{})
	c.constrain(lit, sharing)
	return pushValue(bodyT), ast.Expression{ast.FuncLit{Params: w.Params, Body: bodyR}}, nil
}

// inferHandle implements spec.md §4.G's handle rule.
func (c *Context) inferHandle(e *env.Env, w ast.Handle) (types.Stack, ast.Expression, error) {
	inner := e
	for _, p := range w.Params {
		inner = inner.Bind(env.NSWord, p, env.Entry{Name: p, Kind: env.KindVariable, Scheme: monotypeOf(c.Fresh.Next(kinds.Value{}))})
	}
	bodyT, bodyR, err := c.InferExpression(inner, w.Body)
	if err != nil {
		return types.Stack{}, nil, err
	}

	resultVar := c.Fresh.Next(kinds.Value{})
	retEnv := e
	retT, retR, err := c.InferExpression(retEnv, w.Return.Body)
	if err != nil {
		return types.Stack{}, nil, err
	}
	if len(retT.Out.Elems) > 0 {
		c.constrain(resultVar, retT.Out.Elems[len(retT.Out.Elems)-1].Elem)
	}

	handlers := make([]ast.Handler, len(w.Handlers))
	for i, h := range w.Handlers {
		henv := e
		for _, p := range h.Params {
			henv = henv.Bind(env.NSWord, p, env.Entry{Name: p, Kind: env.KindVariable, Scheme: monotypeOf(c.Fresh.Next(kinds.Value{}))})
		}
		resumeType := monotypeOf(types.Stack{
			Effect:     noEffect(),
			Permission: noPermission(),
			Totality:   totalAttr(),
			In:         emptyStackSeq(),
			Out:        seqOf(resultVar),
		})
		henv = henv.Bind(env.NSWord, "resume", env.Entry{Name: "resume", Kind: env.KindFunction, Scheme: resumeType})
		ht, hr, err := c.InferExpression(henv, h.Body)
		if err != nil {
			return types.Stack{}, nil, err
		}
		_ = ht
		handlers[i] = ast.Handler{Name: h.Name, Params: h.Params, Body: hr}
	}

	// The handled effect is removed from the body's effect row: strip
	// one named field if present (best-effort against a concrete row;
	// an open row tail is left for the surrounding composition).
	strippedEffect := stripRow(bodyT.Effect, handlerEffectLabel(e, w.Handlers))

	out := types.Stack{
		Effect:     strippedEffect,
		Permission: bodyT.Permission,
		Totality:   bodyT.Totality,
		In:         bodyT.In,
		Out:        seqOf(resultVar),
	}
	return out, ast.Expression{ast.Handle{Params: w.Params, Body: bodyR, Handlers: handlers, Return: ast.Handler{Name: w.Return.Name, Params: w.Return.Params, Body: retR}}}, nil
}

// handlerEffectLabel returns the effect row label of the first
// handler's operation: operations are declared with a row headed by
// their effect's name, not by the operation's own name.
func handlerEffectLabel(e *env.Env, hs []ast.Handler) string {
	if len(hs) == 0 {
		return ""
	}
	if entry, ok := e.LookupWord(hs[0].Name); ok {
		if st, ok := entry.Scheme.Body.Head.(types.Stack); ok {
			if ext, ok := st.Effect.(types.RowExtend); ok {
				return ext.Label
			}
		}
	}
	return hs[0].Name
}

// stripRow removes the first field named label from a row chain,
// keeping the fields before it in order; a row with no such field
// (including one whose chain ends in a row variable) comes back with
// the same fields.
func stripRow(row types.Type, label string) types.Type {
	if label == "" {
		return row
	}
	if ext, ok := row.(types.RowExtend); ok {
		if ext.Label == label {
			return ext.Tail
		}
		return types.RowExtend{Label: ext.Label, Elem: ext.Elem, Tail: stripRow(ext.Tail, label)}
	}
	return row
}

func (c *Context) inferNewRef() types.Stack {
	elem := c.Fresh.Next(kinds.Value{})
	heap := c.Fresh.Next(kinds.Heap{})
	refT := types.App{Fn: types.App{Fn: types.Con{Name: "Ref", K: kinds.MakeArrow(kinds.Heap{}, kinds.MakeArrow(kinds.Value{}, kinds.Value{}))}, Arg: heap}, Arg: elem}
	return types.Stack{
		Effect:     stateEffectRow(heap),
		Permission: noPermission(),
		Totality:   totalAttr(),
		In:         seqOf(elem),
		Out:        seqOf(refT),
	}
}

func (c *Context) inferGetRef() types.Stack {
	elem := c.Fresh.Next(kinds.Value{})
	heap := c.Fresh.Next(kinds.Heap{})
	refT := types.App{Fn: types.App{Fn: types.Con{Name: "Ref", K: kinds.MakeArrow(kinds.Heap{}, kinds.MakeArrow(kinds.Value{}, kinds.Value{}))}, Arg: heap}, Arg: elem}
	return types.Stack{
		Effect:     stateEffectRow(heap),
		Permission: noPermission(),
		Totality:   totalAttr(),
		In:         seqOf(refT),
		Out:        seqOf(elem),
	}
}

func (c *Context) inferPutRef() types.Stack {
	elem := c.Fresh.Next(kinds.Value{})
	heap := c.Fresh.Next(kinds.Heap{})
	refT := types.App{Fn: types.App{Fn: types.Con{Name: "Ref", K: kinds.MakeArrow(kinds.Heap{}, kinds.MakeArrow(kinds.Value{}, kinds.Value{}))}, Arg: heap}, Arg: elem}
	return types.Stack{
		Effect:     stateEffectRow(heap),
		Permission: noPermission(),
		Totality:   totalAttr(),
		In:         seqOf(refT, elem),
		Out:        seqOf(refT),
	}
}

func stateEffectRow(heap types.Type) types.Type {
	return types.RowExtend{Label: "State", Elem: heap, Tail: types.RowEmpty{ElemKind: kinds.Effect{}}}
}

// inferWithState implements spec.md §4.G's with-state rule: infer the
// body, then strip the innermost State effect from its row. The
// HeapEscape check compares the heap variable against
// outerFreeHeapVars, which returns no names, so this check never fails
// and an escaping heap variable is not rejected.
func (c *Context) inferWithState(e *env.Env, w ast.WithState) (types.Stack, ast.Expression, error) {
	bodyT, bodyR, err := c.InferExpression(e, w.Body)
	if err != nil {
		return types.Stack{}, nil, err
	}
	ext, ok := bodyT.Effect.(types.RowExtend)
	if !ok || ext.Label != "State" {
		// No State effect to strip; pass through unchanged.
		return bodyT, ast.Expression{ast.WithState{Body: bodyR}}, nil
	}
	heapVar, ok := ext.Elem.(types.Var)
	if ok {
		for _, fv := range outerFreeHeapVars(e) {
			if fv == heapVar.Name {
				return types.Stack{}, nil, &coreerrors.HeapEscapeError{HeapVar: heapVar.Name}
			}
		}
	}
	out := types.Stack{
		Effect:     ext.Tail,
		Permission: bodyT.Permission,
		Totality:   bodyT.Totality,
		In:         bodyT.In,
		Out:        bodyT.Out,
	}
	return out, ast.Expression{ast.WithState{Body: bodyR}}, nil
}

// outerFreeHeapVars is the list of outer-environment heap variables
// with-state checks its own heap variable against. It always returns
// no names: the Heap-kinded variables free in e are not collected.
func outerFreeHeapVars(e *env.Env) []string {
	// The environment does not expose an enumeration API (spec.md
	// §4.E: persistent map, no iteration contract), and nothing else
	// tracks the heap variables of enclosing with-state blocks.
	return nil
}

// inferUnitOp implements spec.md §4.G's "untag / by / per" rule: the
// incoming value carries a Unit-kinded Abelian equation (its unit
// component); "by"/"per" multiply or divide it by the user-declared
// unit constant named w.Unit, and "untag" drops it back to the
// dimensionless identity, all via the same Abelian arithmetic package
// unify uses to solve unit equations (spec.md §4.B).
func (c *Context) inferUnitOp(w ast.UnitOp) types.Stack {
	inVar := c.Fresh.Next(kinds.Unit{})
	inEq := types.AbelianEq{Eq: abelian.New(map[string]int{inVar.Name: 1}, nil), K: kinds.Unit{}}
	declared := abelian.New(nil, map[string]int{w.Unit: 1})

	var outEq types.Type
	switch w.Op {
	case "by":
		outEq = types.AbelianEq{Eq: inEq.Eq.Add(declared), K: kinds.Unit{}}
	case "per":
		outEq = types.AbelianEq{Eq: inEq.Eq.Add(declared.Invert()), K: kinds.Unit{}}
	default: // "untag": strip the unit entirely back to dimensionless.
		outEq = types.AbelianEq{Eq: abelian.Identity(), K: kinds.Unit{}}
	}

	return types.Stack{
		Effect:     noEffect(),
		Permission: noPermission(),
		Totality:   totalAttr(),
		In:         seqOf(inEq),
		Out:        seqOf(outEq),
	}
}

func (c *Context) inferRecordExtend(w ast.RecordExtend) types.Stack {
	elem := c.Fresh.Next(kinds.Value{})
	tail := c.Fresh.NextRowVar(kinds.Field{})
	rowOut := types.RowExtend{Label: w.Label, Elem: elem, Tail: tail}
	return types.Stack{
		Effect:     noEffect(),
		Permission: noPermission(),
		Totality:   totalAttr(),
		In:         seqOf(elem, tail),
		Out:        seqOf(rowOut),
	}
}

func (c *Context) inferRecordSelect(w ast.RecordSelect) types.Stack {
	elem := c.Fresh.Next(kinds.Value{})
	tail := c.Fresh.NextRowVar(kinds.Field{})
	rowIn := types.RowExtend{Label: w.Label, Elem: elem, Tail: tail}
	return types.Stack{
		Effect:     noEffect(),
		Permission: noPermission(),
		Totality:   totalAttr(),
		In:         seqOf(rowIn),
		Out:        seqOf(elem),
	}
}

func (c *Context) inferRecordRestrict(w ast.RecordRestrict) types.Stack {
	elem := c.Fresh.Next(kinds.Value{})
	tail := c.Fresh.NextRowVar(kinds.Field{})
	rowIn := types.RowExtend{Label: w.Label, Elem: elem, Tail: tail}
	return types.Stack{
		Effect:     noEffect(),
		Permission: noPermission(),
		Totality:   totalAttr(),
		In:         seqOf(rowIn),
		Out:        seqOf(tail),
	}
}

func (c *Context) inferVariantLit(w ast.VariantLit) types.Stack {
	elem := c.Fresh.Next(kinds.Value{})
	tail := c.Fresh.NextRowVar(kinds.Field{})
	variant := types.RowExtend{Label: w.Label, Elem: elem, Tail: tail}
	return types.Stack{
		Effect:     noEffect(),
		Permission: noPermission(),
		Totality:   totalAttr(),
		In:         seqOf(elem),
		Out:        seqOf(variant),
	}
}

func (c *Context) inferCase(e *env.Env, w ast.Case) (types.Stack, ast.Expression, error) {
	elem := c.Fresh.Next(kinds.Value{})
	tail := c.Fresh.NextRowVar(kinds.Field{})
	variant := types.RowExtend{Label: w.Label, Elem: elem, Tail: tail}

	thenT, thenR, err := c.InferExpression(e, w.Then)
	if err != nil {
		return types.Stack{}, nil, err
	}
	elseT, elseR, err := c.InferExpression(e, w.Else)
	if err != nil {
		return types.Stack{}, nil, err
	}
	branch, err := c.unifyBranches(thenT, elseT)
	if err != nil {
		return types.Stack{}, nil, err
	}
	match := types.Stack{
		Effect:     branch.Effect,
		Permission: branch.Permission,
		Totality:   totalAttr(),
		In:         seqOf(variant),
		Out:        emptyStackSeq(),
	}
	full, err := c.compose(match, branch)
	if err != nil {
		return types.Stack{}, nil, err
	}
	return full, ast.Expression{ast.Case{Label: w.Label, Then: thenR, Else: elseR}}, nil
}

// freeIdentifiers collects every Identifier name referenced in expr,
// used by function-literal sharing inference.
func freeIdentifiers(expr ast.Expression) []string {
	seen := map[string]bool{}
	var names []string
	var walk func(ast.Expression)
	walk = func(es ast.Expression) {
		for _, w := range es {
			switch ww := w.(type) {
			case ast.Identifier:
				if !seen[ww.Name] {
					seen[ww.Name] = true
					names = append(names, ww.Name)
				}
			case ast.Let:
				for _, b := range ww.Bindings {
					walk(b.Value)
				}
				walk(ww.Body)
			case ast.If:
				walk(ww.Then)
				walk(ww.Else)
			case ast.While:
				walk(ww.Cond)
				walk(ww.Body)
			case ast.FuncLit:
				walk(ww.Body)
			case ast.Handle:
				walk(ww.Body)
				for _, h := range ww.Handlers {
					walk(h.Body)
				}
				walk(ww.Return.Body)
			case ast.WithState:
				walk(ww.Body)
			case ast.Case:
				walk(ww.Then)
				walk(ww.Else)
			}
		}
	}
	walk(expr)
	return names
}
