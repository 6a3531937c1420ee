// Package codegen implements spec.md §3/§4.J: the bytecode generator.
// It walks the closure-free core IR (package ir, corelower's output)
// and emits the fixed flat instruction set (package bytecode),
// performing closure conversion (an ir.Closure's free-variable list
// becomes an IClosure's ClosedFinds payload) and tracking an
// environment stack of frames so every bound name resolves to an
// IFind(frame, entry) pair rather than a lexical reference.
//
// Grounded on the teacher's internal/vm/compiler.go and
// compiler_scope.go: resolveLocal/resolveUpvalue's "search this
// function's locals, then recurse into the enclosing compiler" shape
// becomes resolve's "search frames from innermost outward", and
// addUpvalue's captured-index bookkeeping becomes genClosure's
// ClosedFinds assembly. Unlike the teacher, blocks here are not
// emitted into one shared growing byte buffer with jump patching
// after the fact (emitJump/patchJump): since a block's instructions
// are built as a Go slice before being attached to the block, offsets
// are computed directly from sub-slice lengths instead.
package codegen

import (
	"fmt"
	"strings"

	"github.com/corelang/corec/internal/bytecode"
	"github.com/corelang/corec/internal/corelower"
	"github.com/corelang/corec/internal/ir"
	"github.com/corelang/corec/internal/primitives"
)

// frame is one entry in the codegen environment stack: an ordered
// name list, index into it is an IFind Entry.
type frame struct {
	names []string
}

// Generator holds the mutable state one Generate call threads through
// every unit: the growing block list, frame stack, and the counters
// that keep generated block/handle ids globally unique and
// deterministic (spec.md testable property 7).
type Generator struct {
	blocks        []bytecode.Block
	blockCounter  int
	ctorIDs       map[string]int
	frames        []frame
	handlerStack  []handlerScope
	handleCounter int
	resumeActive  int
}

// Generate compiles every unit into its own named block, plus one
// additional anonymous block per closure/handler body encountered
// along the way. Program assembly (entry block, main, end) is layered
// on top by Assemble.
func Generate(units []corelower.Unit) ([]bytecode.Block, error) {
	g := &Generator{ctorIDs: map[string]int{}}
	for _, u := range units {
		if err := g.genUnit(u); err != nil {
			return nil, fmt.Errorf("codegen %s: %w", u.Name, err)
		}
	}
	return Assemble(g.blocks), nil
}

// Assemble performs spec.md §4.J "Program assembly": prepends the
// mandatory anonymous entry block `{ICall(main); ITailCall(end)}`
// (spec.md §6) and appends the terminal `end: INop` block around the
// unit/closure blocks Generate already produced.
func Assemble(blocks []bytecode.Block) []bytecode.Block {
	entry := bytecode.Block{
		Anonymous: true,
		Instructions: []bytecode.Instr{
			{Op: bytecode.ICall, Label: bytecode.Label("main")},
			{Op: bytecode.ITailCall, Label: bytecode.Label("end")},
		},
	}
	end := bytecode.Block{Name: "end", Instructions: []bytecode.Instr{{Op: bytecode.INop}}}

	out := make([]bytecode.Block, 0, len(blocks)+2)
	out = append(out, entry)
	out = append(out, blocks...)
	out = append(out, end)
	return out
}

func (g *Generator) genUnit(u corelower.Unit) error {
	g.frames = []frame{{names: u.Params}}
	instrs, err := g.genSeq(u.Body)
	g.frames = nil
	if err != nil {
		return err
	}
	g.blocks = append(g.blocks, bytecode.Block{Name: u.Name, Instructions: instrs})
	return nil
}

func (g *Generator) nextBlockName(prefix string) string {
	g.blockCounter++
	return fmt.Sprintf("%s$%d", prefix, g.blockCounter)
}

// ctorID assigns constructor tag ids on first sight, in the
// deterministic order corelower's own units/sequences are walked in
// (itself deterministic: units are processed in declaration order,
// words within a unit in source order).
func (g *Generator) ctorID(name string) int {
	if id, ok := g.ctorIDs[name]; ok {
		return id
	}
	id := len(g.ctorIDs)
	g.ctorIDs[name] = id
	return id
}

// resolve finds name in the frame stack, innermost first, returning
// the (frame, entry) pair IFind/ClosedFinds carry. Frame distance is
// counted from the current (innermost) frame as 0, outward.
func (g *Generator) resolve(name string) (bytecode.Find, bool) {
	for i := len(g.frames) - 1; i >= 0; i-- {
		for j, n := range g.frames[i].names {
			if n == name {
				return bytecode.Find{Frame: len(g.frames) - 1 - i, Entry: j}, true
			}
		}
	}
	return bytecode.Find{}, false
}

func (g *Generator) genSeq(seq ir.Seq) ([]bytecode.Instr, error) {
	out := make([]bytecode.Instr, 0, len(seq))
	for _, w := range seq {
		instrs, err := g.genWord(w)
		if err != nil {
			return nil, err
		}
		out = append(out, instrs...)
	}
	return out, nil
}

func (g *Generator) genWord(w ir.Word) ([]bytecode.Instr, error) {
	switch ww := w.(type) {
	case ir.Seq:
		return g.genSeq(ww)

	case ir.Do:
		return []bytecode.Instr{{Op: bytecode.ICallClosure}}, nil

	case ir.If:
		return g.genIf(ww)

	case ir.While:
		return g.genWhile(ww)

	case ir.Case:
		return g.genCase(ww)

	case ir.Vars:
		return g.genVars(ww)

	case ir.LetRecs:
		return g.genLetRecs(ww)

	case ir.Closure:
		instr := g.genClosure(ww.Free, ww.BlockName, ww.Body)
		return []bytecode.Instr{instr}, nil

	case ir.RecClosure:
		instr := g.genClosure(ww.Free, ww.BlockName, ww.Body)
		return []bytecode.Instr{instr}, nil

	case ir.RecordExtend:
		return []bytecode.Instr{{Op: bytecode.IRecordExtend, Label2: ww.Label}}, nil
	case ir.RecordRestrict:
		return []bytecode.Instr{{Op: bytecode.IRecordRestrict, Label2: ww.Label}}, nil
	case ir.RecordSelect:
		return []bytecode.Instr{{Op: bytecode.IRecordSelect, Label2: ww.Label}}, nil

	case ir.VariantLit:
		return []bytecode.Instr{{Op: bytecode.IVariantNew, Label2: ww.Label}}, nil

	case ir.WithPermission:
		// No dedicated instruction brackets a permission check distinct
		// from the row-typing that already proved it (spec.md §4.G):
		// only Body carries runtime weight.
		return g.genSeq(ww.Body)

	case ir.Integer:
		// ww.Size carries the ast's mixed-case size tag (e.g. "I32", used
		// to unify against Prim{Tag:"I32"} in package infer); the
		// primitive table's own sizes are all lower case, and a disasm
		// listing must show the same size spelling regardless of whether
		// an integer reached the stack via a literal or a primitive call.
		return []bytecode.Instr{{Op: bytecode.IPushInt, Digits: ww.Digits, Size: bytecode.Size(strings.ToLower(ww.Size))}}, nil

	case ir.PrimitiveCall:
		entry, ok := primitives.Lookup(ww.Name)
		if !ok {
			return nil, fmt.Errorf("codegen: unknown primitive %q", ww.Name)
		}
		return []bytecode.Instr{entry.Instr()}, nil

	case ir.PrimVar:
		entry, ok := primitives.Lookup(ww.Name)
		if !ok {
			return nil, fmt.Errorf("codegen: unknown primitive %q", ww.Name)
		}
		return []bytecode.Instr{entry.Instr()}, nil

	case ir.Handle:
		return g.genHandle(ww)

	case ir.CallVar:
		if ww.Name == "resume" && g.resumeActive > 0 {
			return []bytecode.Instr{{Op: bytecode.ICallContinuation}}, nil
		}
		if f, ok := g.resolve(ww.Name); ok {
			return []bytecode.Instr{
				{Op: bytecode.IFind, Find: f},
				{Op: bytecode.ICallClosure},
			}, nil
		}
		// Not a captured/local closure value: a plain top-level function,
		// dispatched by its own block label.
		return []bytecode.Instr{{Op: bytecode.ICall, Label: bytecode.Label(ww.Name)}}, nil

	case ir.ValueVar:
		f, ok := g.resolve(ww.Name)
		if !ok {
			return nil, fmt.Errorf("codegen: unbound value %q", ww.Name)
		}
		return []bytecode.Instr{{Op: bytecode.IFind, Find: f}}, nil

	case ir.OperatorVar:
		return g.genOperator(ww)

	case ir.ConstructorVar:
		return []bytecode.Instr{{Op: bytecode.IConstruct, ConstructID: g.ctorID(ww.Name), Args: ww.Args}}, nil

	case ir.TestConstructorVar:
		return []bytecode.Instr{{Op: bytecode.IIsStruct, ConstructID: g.ctorID(ww.Name)}}, nil

	default:
		return nil, fmt.Errorf("codegen: unhandled ir word %T", w)
	}
}

// ifShape assembles the IOffsetIfNot/IOffset skeleton shared by If and
// Case, once the branch condition/tag test has already been emitted.
func ifShape(thenInstrs, elseInstrs []bytecode.Instr) []bytecode.Instr {
	if len(elseInstrs) == 0 {
		out := make([]bytecode.Instr, 0, 1+len(thenInstrs))
		out = append(out, bytecode.Instr{Op: bytecode.IOffsetIfNot, Offset: len(thenInstrs)})
		return append(out, thenInstrs...)
	}
	out := make([]bytecode.Instr, 0, 2+len(thenInstrs)+len(elseInstrs))
	out = append(out, bytecode.Instr{Op: bytecode.IOffsetIfNot, Offset: len(thenInstrs) + 1})
	out = append(out, thenInstrs...)
	out = append(out, bytecode.Instr{Op: bytecode.IOffset, Offset: len(elseInstrs)})
	out = append(out, elseInstrs...)
	return out
}

func (g *Generator) genIf(w ir.If) ([]bytecode.Instr, error) {
	then, err := g.genSeq(w.Then)
	if err != nil {
		return nil, err
	}
	els, err := g.genSeq(w.Else)
	if err != nil {
		return nil, err
	}
	return ifShape(then, els), nil
}

func (g *Generator) genCase(w ir.Case) ([]bytecode.Instr, error) {
	then, err := g.genSeq(w.Then)
	if err != nil {
		return nil, err
	}
	els, err := g.genSeq(w.Else)
	if err != nil {
		return nil, err
	}
	out := []bytecode.Instr{{Op: bytecode.IVariantCheckTag, Label2: w.Label}}
	return append(out, ifShape(then, els)...), nil
}

// genWhile emits the §4.J `WWhile(cond,body)` template exactly:
// `IOffset(len(body))`, body, cond, `IOffsetIf(-len(body))` — the
// leading IOffset skips straight over the body into the condition on
// first entry, and the trailing IOffsetIf, when taken, moves back
// len(body) instructions from the instruction after it.
func (g *Generator) genWhile(w ir.While) ([]bytecode.Instr, error) {
	cond, err := g.genSeq(w.Cond)
	if err != nil {
		return nil, err
	}
	body, err := g.genSeq(w.Body)
	if err != nil {
		return nil, err
	}
	out := make([]bytecode.Instr, 0, len(cond)+len(body)+2)
	out = append(out, bytecode.Instr{Op: bytecode.IOffset, Offset: len(body)})
	out = append(out, body...)
	out = append(out, cond...)
	out = append(out, bytecode.Instr{Op: bytecode.IOffsetIf, Offset: -len(body)})
	return out, nil
}

func (g *Generator) genVars(w ir.Vars) ([]bytecode.Instr, error) {
	g.frames = append(g.frames, frame{names: w.Names})
	body, err := g.genSeq(w.Body)
	g.frames = g.frames[:len(g.frames)-1]
	if err != nil {
		return nil, err
	}
	out := make([]bytecode.Instr, 0, len(body)+2)
	out = append(out, bytecode.Instr{Op: bytecode.IStore, N: len(w.Names)})
	out = append(out, body...)
	out = append(out, bytecode.Instr{Op: bytecode.IForget})
	return out, nil
}

func (g *Generator) genLetRecs(w ir.LetRecs) ([]bytecode.Instr, error) {
	names := make([]string, len(w.Recs))
	for i, r := range w.Recs {
		names[i] = r.Name
	}
	out := make([]bytecode.Instr, 0, len(w.Recs)+3)
	for _, r := range w.Recs {
		out = append(out, g.genClosure(r.Free, "", r.Body))
	}
	out = append(out, bytecode.Instr{Op: bytecode.IMutual, N: len(w.Recs)})
	out = append(out, bytecode.Instr{Op: bytecode.IStore, N: len(w.Recs)})

	g.frames = append(g.frames, frame{names: names})
	body, err := g.genSeq(w.Body)
	g.frames = g.frames[:len(g.frames)-1]
	if err != nil {
		return nil, err
	}
	out = append(out, body...)
	out = append(out, bytecode.Instr{Op: bytecode.IForget})
	return out, nil
}

// genClosure performs closure conversion for one closure literal:
// Free is resolved against the frame stack active at the literal's
// own site (ClosedFinds), then Body is compiled into its own block
// against a brand new frame stack containing only the captured names
// — closure conversion means the block has no further lexical access
// to anything not in Free, matching ir.go's package doc.
func (g *Generator) genClosure(free []string, blockName string, body ir.Seq) bytecode.Instr {
	closed := make([]bytecode.Find, len(free))
	for i, n := range free {
		f, ok := g.resolve(n)
		if !ok {
			// Nothing enclosing binds this name (e.g. it is itself a
			// top-level function referenced by name, not a captured
			// value); IFind's frame stack has no slot for it, so the
			// entry is left zero and the instruction stream never reads
			// it back via IFind for this name.
			f = bytecode.Find{}
		}
		closed[i] = f
	}

	name := blockName
	if name == "" {
		name = g.nextBlockName("closure")
	}

	savedFrames := g.frames
	g.frames = []frame{{names: free}}
	instrs, err := g.genSeq(body)
	g.frames = savedFrames
	if err != nil {
		// genClosure cannot itself return an error without changing every
		// caller; a malformed closure body is a compiler-internal bug, so
		// surface it the same way a panic would during development rather
		// than silently dropping instructions.
		panic(err)
	}

	g.blocks = append(g.blocks, bytecode.Block{Name: name, Anonymous: true, Instructions: instrs})
	return bytecode.Instr{Op: bytecode.IClosure, Label: bytecode.Label(name), ClosedFinds: closed}
}
