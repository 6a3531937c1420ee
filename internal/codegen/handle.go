package codegen

import (
	"github.com/corelang/corec/internal/bytecode"
	"github.com/corelang/corec/internal/ir"
)

// handlerScope records one active ir.Handle while its body is being
// compiled: which operation names it handles, and the handle id an
// IEscape inside the body must target (spec.md §9 Open Question
// decision: handler closures emit return-first, then reverse declared
// order, since IHandle's HandlerIndex addressing depends on that slot
// layout).
type handlerScope struct {
	handleID int
	ops      map[string]int
}

func (g *Generator) nextHandleID() int {
	id := g.handleCounter
	g.handleCounter++
	return id
}

// genHandle lowers one ir.Handle. Order of emission: the return
// closure first, then each handler closure in the reverse of its
// declared order, then the IHandle instruction itself, then the
// handled body, then a trailing IComplete — Offset on IHandle is set
// to len(body)+2 (the emitted body plus the trailing IComplete that
// follows it) so a handler that never escapes skips exactly the body
// plus its IComplete, landing past both (spec.md §4.J, §8 scenario S3).
func (g *Generator) genHandle(h ir.Handle) ([]bytecode.Instr, error) {
	handleID := g.nextHandleID()

	retInstr := g.genClosure(h.Return.Free, "", h.Return.Body)

	handlerInstrs := make([]bytecode.Instr, len(h.Handlers))
	for i := len(h.Handlers) - 1; i >= 0; i-- {
		hc := h.Handlers[i]
		g.resumeActive++
		handlerInstrs[i] = g.genClosure(hc.Free, "", hc.Body)
		g.resumeActive--
	}

	out := make([]bytecode.Instr, 0, 2+len(handlerInstrs))
	out = append(out, retInstr)
	for i := len(handlerInstrs) - 1; i >= 0; i-- {
		out = append(out, handlerInstrs[i])
	}

	ops := make(map[string]int, len(h.Handlers))
	for i, hc := range h.Handlers {
		ops[hc.Name] = i
	}
	g.handlerStack = append(g.handlerStack, handlerScope{handleID: handleID, ops: ops})
	g.frames = append(g.frames, frame{names: h.Params})
	body, err := g.genSeq(h.Body)
	g.frames = g.frames[:len(g.frames)-1]
	g.handlerStack = g.handlerStack[:len(g.handlerStack)-1]
	if err != nil {
		return nil, err
	}

	out = append(out, bytecode.Instr{
		Op:       bytecode.IHandle,
		N:        len(h.Params),
		M:        len(h.Handlers),
		HandleID: handleID,
		Offset:   len(body) + 2,
	})
	out = append(out, body...)
	out = append(out, bytecode.Instr{Op: bytecode.IComplete})
	return out, nil
}

// genOperator resolves an operation reference to the nearest enclosing
// handler (searched innermost-out, since a handler for the same
// operation may itself be nested inside another handle) that declares
// it.
func (g *Generator) genOperator(w ir.OperatorVar) ([]bytecode.Instr, error) {
	for i := len(g.handlerStack) - 1; i >= 0; i-- {
		hs := g.handlerStack[i]
		if idx, ok := hs.ops[w.Name]; ok {
			return []bytecode.Instr{{Op: bytecode.IEscape, HandleID: hs.handleID, HandlerIndex: idx}}, nil
		}
	}
	// No enclosing handle declares this operation: a runtime-trapped
	// unhandled effect, not a compile-time error (an effect row can be
	// left open all the way to program entry, spec.md §4.A).
	return []bytecode.Instr{{Op: bytecode.IEscape, HandleID: -1, HandlerIndex: -1}}, nil
}
