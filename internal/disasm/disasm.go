// Package disasm pretty-prints a compiled bytecode.Block list for
// diagnostics and golden tests, mirroring the teacher's
// internal/vm/disasm.go ("== name ==" header, one line per
// instruction, offset-prefixed).
//
// Color is gated by terminal detection the same way
// internal/evaluator/builtins_term.go does: github.com/mattn/go-isatty
// plus the NO_COLOR convention, cached once per process.
package disasm

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/corelang/corec/internal/bytecode"
)

var (
	colorOnce    sync.Once
	colorEnabled bool
)

func colorsEnabled() bool {
	colorOnce.Do(func() {
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			colorEnabled = false
			return
		}
		colorEnabled = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	})
	return colorEnabled
}

func dim(s string) string {
	if !colorsEnabled() {
		return s
	}
	return "\033[2m" + s + "\033[22m"
}

func bold(s string) string {
	if !colorsEnabled() {
		return s
	}
	return "\033[1m" + s + "\033[22m"
}

// Blocks renders every block in order.
func Blocks(blocks []bytecode.Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(Block(b))
	}
	return sb.String()
}

// Block renders one block's header and instruction listing.
func Block(b bytecode.Block) string {
	var sb strings.Builder
	name := b.Name
	if b.Anonymous {
		name = name + " (anonymous)"
	}
	sb.WriteString(bold(fmt.Sprintf("== %s ==\n", name)))
	for i, instr := range b.Instructions {
		sb.WriteString(fmt.Sprintf("%s %s\n", dim(fmt.Sprintf("%04d", i)), Instr(instr)))
	}
	return sb.String()
}

// Instr renders one instruction's opcode and the operands relevant to it.
func Instr(instr bytecode.Instr) string {
	var parts []string
	parts = append(parts, instr.Op.String())
	switch instr.Op {
	case bytecode.IPushInt:
		parts = append(parts, instr.Digits, string(instr.Size))
	case bytecode.IIntAdd, bytecode.IIntSub, bytecode.IIntMul, bytecode.IIntDiv, bytecode.IIntMod, bytecode.IIntNeg:
		parts = append(parts, string(instr.Size))
	case bytecode.IOffset, bytecode.IOffsetIf, bytecode.IOffsetIfNot:
		parts = append(parts, fmt.Sprintf("%+d", instr.Offset))
	case bytecode.ICall, bytecode.ITailCall, bytecode.IClosure:
		parts = append(parts, string(instr.Label))
	case bytecode.IFind:
		parts = append(parts, fmt.Sprintf("(%d,%d)", instr.Find.Frame, instr.Find.Entry))
	case bytecode.IStore, bytecode.IMutual:
		parts = append(parts, fmt.Sprintf("%d", instr.N))
	case bytecode.IConstruct, bytecode.IIsStruct:
		parts = append(parts, fmt.Sprintf("#%d", instr.ConstructID))
		if instr.Op == bytecode.IConstruct {
			parts = append(parts, fmt.Sprintf("args=%d", instr.Args))
		}
	case bytecode.IHandle:
		parts = append(parts, fmt.Sprintf("id=%d n=%d m=%d +%d", instr.HandleID, instr.N, instr.M, instr.Offset))
	case bytecode.IEscape:
		parts = append(parts, fmt.Sprintf("id=%d slot=%d", instr.HandleID, instr.HandlerIndex))
	case bytecode.IRecordExtend, bytecode.IRecordSelect, bytecode.IRecordRestrict, bytecode.IVariantNew, bytecode.IVariantCheckTag:
		parts = append(parts, instr.Label2)
	}
	return strings.Join(parts, " ")
}
