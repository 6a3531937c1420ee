// Package compile wires every numbered component into the single
// pipeline spec.md §6 describes end to end: declare every top-level
// binding (package infer), infer the program's own entry expression
// against the resulting environment, elaborate away overload
// placeholders (package elaborate), lower to the closure-free core IR
// (package corelower), and generate bytecode blocks (package codegen).
//
// Grounded on the teacher's internal/pipeline package (the single
// Compile/Run entry point that sequences lex -> parse -> analyze ->
// compile -> execute); this package keeps the same "one function per
// stage, called in a fixed order from one exported entry point" shape
// but stops at bytecode generation, since execution is out of scope.
package compile

import (
	"fmt"

	"github.com/corelang/corec/internal/ast"
	"github.com/corelang/corec/internal/bytecode"
	"github.com/corelang/corec/internal/codegen"
	"github.com/corelang/corec/internal/compileunit"
	"github.com/corelang/corec/internal/corelower"
	"github.com/corelang/corec/internal/elaborate"
	"github.com/corelang/corec/internal/fresh"
	"github.com/corelang/corec/internal/infer"
	"github.com/corelang/corec/internal/scheme"
)

// mainUnitName is the synthesized entry point's unit name: reserved
// since spec.md's surface grammar never lets a declaration bind it.
const mainUnitName = "main"

// Result is everything one Compile call produces: the tagged
// compilation identity plus the final block list codegen emitted.
type Result struct {
	Unit   compileunit.Unit
	Blocks []bytecode.Block
}

// Compile runs the full pipeline over prog, tagging the run with name
// for diagnostics (spec.md §6's "compilation unit").
func Compile(name string, prog ast.Program) (Result, error) {
	unit := compileunit.New(name)
	fr := fresh.New()

	e, rules, idx, units, err := infer.DeclareProgram(fr, prog)
	if err != nil {
		return Result{}, fmt.Errorf("%s: declare: %w", unit, err)
	}

	q, rewrittenMain, subst, err := infer.InferTop(fr, rules, e, prog.Main)
	if err != nil {
		return Result{}, fmt.Errorf("%s: infer main: %w", unit, err)
	}
	mainSch := scheme.Generalize(map[string]bool{}, q)
	units = append(units, infer.Unit{Name: mainUnitName, Body: rewrittenMain, Subst: subst, Scheme: mainSch})

	elaborated, err := elaborate.Elaborate(fr, idx, units)
	if err != nil {
		return Result{}, fmt.Errorf("%s: elaborate: %w", unit, err)
	}

	lowered, err := corelower.Lower(e, elaborated)
	if err != nil {
		return Result{}, fmt.Errorf("%s: lower: %w", unit, err)
	}

	blocks, err := codegen.Generate(lowered)
	if err != nil {
		return Result{}, fmt.Errorf("%s: codegen: %w", unit, err)
	}

	return Result{Unit: unit, Blocks: blocks}, nil
}
