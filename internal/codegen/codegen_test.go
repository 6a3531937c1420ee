package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corelang/corec/internal/bytecode"
	"github.com/corelang/corec/internal/corelower"
	"github.com/corelang/corec/internal/ir"
)

// TestGenHandleOffsetSkipsBodyAndComplete pins down the spec's handle
// encoding invariant: IHandle.Offset equals len(handled body)+2 (the
// body plus its trailing IComplete), so a handler that never escapes
// lands past both.
func TestGenHandleOffsetSkipsBodyAndComplete(t *testing.T) {
	handle := ir.Handle{
		Params: nil,
		Body:   ir.Seq{ir.Integer{Digits: "1", Size: "i32"}, ir.Integer{Digits: "2", Size: "i32"}},
		Handlers: []ir.Handler{
			{Name: "op1", Body: ir.Seq{}},
			{Name: "op2", Body: ir.Seq{}},
		},
		Return: ir.Handler{Params: []string{"x"}, Body: ir.Seq{ir.Integer{Digits: "0", Size: "i32"}}},
	}

	blocks, err := Generate([]corelower.Unit{{Name: "main", Body: ir.Seq{handle}}})
	require.NoError(t, err)

	var main *bytecode.Block
	for i := range blocks {
		if blocks[i].Name == "main" {
			main = &blocks[i]
		}
	}
	require.NotNil(t, main)

	// Return closure first, then handler closures in reverse declared
	// order, then IHandle, then the two-instruction handled body, then
	// IComplete.
	require.Len(t, main.Instructions, 7)
	for i := 0; i < 3; i++ {
		assert.Equal(t, bytecode.IClosure, main.Instructions[i].Op, "instruction %d", i)
	}
	handleInstr := main.Instructions[3]
	assert.Equal(t, bytecode.IHandle, handleInstr.Op)
	assert.Equal(t, 0, handleInstr.N)
	assert.Equal(t, 2, handleInstr.M)
	assert.Equal(t, 4, handleInstr.Offset, "Offset must equal len(body)+2")

	assert.Equal(t, bytecode.IPushInt, main.Instructions[4].Op)
	assert.Equal(t, bytecode.IPushInt, main.Instructions[5].Op)
	assert.Equal(t, bytecode.IComplete, main.Instructions[6].Op)
}

// TestGenOperatorFindsNearestHandler checks that an operation reference
// resolves to the innermost enclosing handle that declares it.
func TestGenOperatorFindsNearestHandler(t *testing.T) {
	g := &Generator{ctorIDs: map[string]int{}}
	g.handlerStack = append(g.handlerStack, handlerScope{handleID: 0, ops: map[string]int{"throw": 0}})
	g.handlerStack = append(g.handlerStack, handlerScope{handleID: 1, ops: map[string]int{"throw": 2}})

	instrs, err := g.genOperator(ir.OperatorVar{Name: "throw"})
	require.NoError(t, err)
	require.Len(t, instrs, 1)
	assert.Equal(t, bytecode.IEscape, instrs[0].Op)
	assert.Equal(t, 1, instrs[0].HandleID)
	assert.Equal(t, 2, instrs[0].HandlerIndex)
}

// TestGenOperatorUnhandledEscapesToTrap checks that an operation with
// no enclosing handle still emits an IEscape, left for the runtime to
// trap, rather than a compile error.
func TestGenOperatorUnhandledEscapesToTrap(t *testing.T) {
	g := &Generator{ctorIDs: map[string]int{}}
	instrs, err := g.genOperator(ir.OperatorVar{Name: "throw"})
	require.NoError(t, err)
	require.Len(t, instrs, 1)
	assert.Equal(t, bytecode.IEscape, instrs[0].Op)
	assert.Equal(t, -1, instrs[0].HandleID)
	assert.Equal(t, -1, instrs[0].HandlerIndex)
}
