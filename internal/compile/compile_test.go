package compile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corelang/corec/internal/abelian"
	"github.com/corelang/corec/internal/ast"
	"github.com/corelang/corec/internal/bytecode"
	"github.com/corelang/corec/internal/kinds"
	"github.com/corelang/corec/internal/primitives"
	"github.com/corelang/corec/internal/types"
)

// eqOverloadType builds the polymorphic "a a -> Bool" signature an
// "Eq" overload declares: a types.Stack over one free variable, the
// same shape package primitives builds its own schemes from.
func eqOverloadType(a types.Var) types.Type {
	return types.Stack{
		Effect:     types.RowEmpty{ElemKind: kinds.Effect{}},
		Permission: types.RowEmpty{ElemKind: kinds.Permission{}},
		Totality:   types.AbelianEq{Eq: abelian.True(), K: kinds.Totality{}},
		In:         types.Seq{Elems: []types.SeqElem{{Elem: a}, {Elem: a}}, ElemKind: kinds.Value{}},
		Out:        types.Seq{Elems: []types.SeqElem{{Elem: primitives.BoolType()}}, ElemKind: kinds.Value{}},
	}
}

func findBlock(blocks []bytecode.Block, name string) *bytecode.Block {
	for i := range blocks {
		if blocks[i].Name == name {
			return &blocks[i]
		}
	}
	return nil
}

// TestCompileS1PushAndAdd reproduces spec.md §8 scenario S1: `main = 2
// 3 add-i32` compiles to two pushed I32 immediates followed by one
// sized add.
func TestCompileS1PushAndAdd(t *testing.T) {
	prog := ast.Program{
		Main: ast.Expression{
			ast.PushInt{Size: "I32", Digits: "2"},
			ast.PushInt{Size: "I32", Digits: "3"},
			ast.Identifier{Name: "add-i32"},
		},
	}

	res, err := Compile("s1", prog)
	require.NoError(t, err)

	main := findBlock(res.Blocks, "main")
	require.NotNil(t, main)
	assert.Equal(t, []bytecode.Instr{
		{Op: bytecode.IPushInt, Digits: "2", Size: bytecode.I32},
		{Op: bytecode.IPushInt, Digits: "3", Size: bytecode.I32},
		{Op: bytecode.IIntAdd, Size: bytecode.I32},
	}, main.Instructions)
}

// TestCompileS4OverloadSelectsInstance reproduces scenario S4: an
// overloaded "eq" with an I32 instance resolves, at a use site typed
// I32, to a direct call on the generated instance function rather than
// a dictionary parameter (no enclosing context predicate to supply one
// from).
func TestCompileS4OverloadSelectsInstance(t *testing.T) {
	a := types.Var{Name: "a", K: kinds.Value{}}
	prog := ast.Program{
		Declarations: []ast.Decl{
			ast.OverloadDecl{Name: "eq", PredicateName: "Eq", Type: eqOverloadType(a)},
			ast.InstanceDecl{
				Name: "eq",
				Type: primitives.IntType("i32"),
				Body: ast.Expression{ast.PushBool{Value: true}},
			},
		},
		Main: ast.Expression{
			ast.PushInt{Size: "I32", Digits: "1"},
			ast.PushInt{Size: "I32", Digits: "2"},
			ast.Identifier{Name: "eq"},
		},
	}

	res, err := Compile("s4", prog)
	require.NoError(t, err)

	main := findBlock(res.Blocks, "main")
	require.NotNil(t, main)

	var sawCall bool
	for _, instr := range main.Instructions {
		if instr.Op == bytecode.ICall {
			sawCall = true
			assert.Contains(t, string(instr.Label), "eq$")
		}
	}
	assert.True(t, sawCall, "expected an ICall to the selected eq instance")
}

// TestCompileS6InstanceNotFound reproduces scenario S6: an overloaded
// name with no matching instance for the call site's type fails
// elaboration with InstanceNotFoundError rather than succeeding
// silently.
func TestCompileS6InstanceNotFound(t *testing.T) {
	a := types.Var{Name: "a", K: kinds.Value{}}
	prog := ast.Program{
		Declarations: []ast.Decl{
			ast.OverloadDecl{Name: "eq", PredicateName: "Eq", Type: eqOverloadType(a)},
		},
		Main: ast.Expression{
			ast.PushInt{Size: "I32", Digits: "1"},
			ast.PushInt{Size: "I32", Digits: "2"},
			ast.Identifier{Name: "eq"},
		},
	}

	_, err := Compile("s6", prog)
	require.Error(t, err)
}

// TestCompileProgramAssembly checks spec.md §6's serialization
// contract: the first block is anonymous and contains exactly
// ICall(main); ITailCall(end), and the final block is end: INop.
func TestCompileProgramAssembly(t *testing.T) {
	prog := ast.Program{
		Main: ast.Expression{
			ast.PushInt{Size: "I32", Digits: "2"},
			ast.PushInt{Size: "I32", Digits: "3"},
			ast.Identifier{Name: "add-i32"},
		},
	}

	res, err := Compile("assembly", prog)
	require.NoError(t, err)
	require.NotEmpty(t, res.Blocks)

	first := res.Blocks[0]
	assert.True(t, first.Anonymous)
	assert.Equal(t, []bytecode.Instr{
		{Op: bytecode.ICall, Label: bytecode.Label("main")},
		{Op: bytecode.ITailCall, Label: bytecode.Label("end")},
	}, first.Instructions)

	last := res.Blocks[len(res.Blocks)-1]
	assert.Equal(t, "end", last.Name)
	assert.Equal(t, []bytecode.Instr{{Op: bytecode.INop}}, last.Instructions)

	main := findBlock(res.Blocks, "main")
	require.NotNil(t, main)
}
