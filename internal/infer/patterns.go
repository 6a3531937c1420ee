// Pattern inference (spec.md §4.G "Pattern inference returns
// (bindings, constraints, pushed-type)"). Grounded on the teacher's
// declarations_patterns.go, the same split package infer's own doc
// comment names. Constraints are threaded through Context.constrain
// rather than returned separately, the same convention every other
// inference rule in this package already follows.
package infer

import (
	"fmt"

	"github.com/corelang/corec/internal/ast"
	"github.com/corelang/corec/internal/coreerrors"
	"github.com/corelang/corec/internal/env"
	"github.com/corelang/corec/internal/kinds"
	"github.com/corelang/corec/internal/scheme"
	"github.com/corelang/corec/internal/types"
)

// inferPattern returns, for pattern p matched against e: the schemes
// to bind each of its variables to, and the type a value must have to
// be matched against p (the "pushed-type" spec.md names).
func (c *Context) inferPattern(e *env.Env, p ast.Pattern) (map[string]scheme.Scheme, types.Type, error) {
	switch pp := p.(type) {
	case ast.PVar:
		t := c.Fresh.Next(kinds.Value{})
		return map[string]scheme.Scheme{pp.Name: monotypeOf(t)}, t, nil

	case ast.PWildcard:
		return map[string]scheme.Scheme{}, c.Fresh.Next(kinds.Value{}), nil

	case ast.PConstructor:
		return c.inferCtorPattern(e, pp)

	default:
		return nil, nil, fmt.Errorf("infer: unhandled pattern %T", p)
	}
}

// inferCtorPattern looks up name's pattern-scheme (spec.md §4.G
// "constructor patterns look up the constructor's pattern-scheme"),
// instantiates it fresh per occurrence, recursively infers each
// sub-pattern against the matching field type, and unions every
// sub-pattern's bindings.
func (c *Context) inferCtorPattern(e *env.Env, pp ast.PConstructor) (map[string]scheme.Scheme, types.Type, error) {
	entry, ok := e.LookupWord(pp.Name)
	if !ok || entry.Kind != env.KindConstructor {
		return nil, nil, &coreerrors.UnboundNameError{Name: pp.Name}
	}
	q, _ := scheme.Instantiate(c.Fresh, entry.PatternScheme)
	fields, result := ctorFields(q.Head)

	bindings := map[string]scheme.Scheme{}
	for i, sub := range pp.Args {
		subBindings, pushed, err := c.inferPattern(e, sub)
		if err != nil {
			return nil, nil, err
		}
		if i < len(fields) {
			c.constrain(pushed, fields[i])
		}
		for n, sch := range subBindings {
			bindings[n] = sch
		}
	}
	return bindings, result, nil
}

// ctorFields splits a constructor's value type (built by
// buildCtorFuncType) back into its field types and result type: a
// nullary constructor's type is the result type directly, one with
// fields is the types.Stack that type consumes them through.
func ctorFields(t types.Type) ([]types.Type, types.Type) {
	st, ok := t.(types.Stack)
	if !ok {
		return nil, t
	}
	in, ok := st.In.(types.Seq)
	if !ok {
		return nil, t
	}
	fields := make([]types.Type, len(in.Elems))
	for i, el := range in.Elems {
		fields[i] = el.Elem
	}
	out, ok := st.Out.(types.Seq)
	if !ok || len(out.Elems) == 0 {
		return fields, st.Out
	}
	return fields, out.Elems[len(out.Elems)-1].Elem
}
