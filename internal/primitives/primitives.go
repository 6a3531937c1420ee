// Package primitives is the primitive table of spec.md §3 component
// K: the names, type schemes, and instruction templates for built-in
// operations (arithmetic, bool, list, ref). It is the single source
// of truth the bytecode generator (package codegen) consults when
// lowering an ir.PrimitiveCall, and the one place a new primitive is
// taught to the compiler.
//
// The table itself is declarative YAML, embedded at build time and
// parsed once at init(), the same division of labor the teacher uses
// in internal/evaluator/builtins_yaml.go (YAML describes the data,
// Go code gives it type information and wires it to instructions).
package primitives

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/corelang/corec/internal/abelian"
	"github.com/corelang/corec/internal/bytecode"
	"github.com/corelang/corec/internal/kinds"
	"github.com/corelang/corec/internal/scheme"
	"github.com/corelang/corec/internal/types"
)

//go:embed table.yaml
var tableYAML []byte

// sizes is the fixed integer-size set spec.md §6 enumerates.
var sizes = []string{"i8", "u8", "i16", "u16", "i32", "u32", "i64", "u64", "isize", "usize"}

type rawEntry struct {
	Name  string `yaml:"name"`
	Sized bool   `yaml:"sized"`
	Op    string `yaml:"op"`
	Arity int    `yaml:"arity"`
	Kind  string `yaml:"kind"`
}

type rawTable struct {
	Primitives []rawEntry `yaml:"primitives"`
}

// Entry is one resolved primitive: its full name (e.g. "add-i32"), the
// instruction it lowers to, how many stack values it consumes, and the
// type scheme package infer assigns to a WPrimVar reference to it.
type Entry struct {
	Name   string
	Op     bytecode.Op
	Size   bytecode.Size // zero value if the primitive is unsized
	Arity  int
	Scheme scheme.Scheme
}

// Instr builds the instruction this primitive lowers to (spec.md §4.I
// "WPrimVar n -> table lookup into the primitive instruction map").
func (e Entry) Instr() bytecode.Instr {
	return bytecode.Instr{Op: e.Op, Size: e.Size}
}

var table map[string]Entry

func init() {
	var raw rawTable
	if err := yaml.Unmarshal(tableYAML, &raw); err != nil {
		panic(fmt.Sprintf("primitives: malformed table.yaml: %v", err))
	}
	table = make(map[string]Entry)
	for _, re := range raw.Primitives {
		op, ok := bytecode.ParseOp(re.Op)
		if !ok {
			panic(fmt.Sprintf("primitives: table.yaml names unknown opcode %q for %q", re.Op, re.Name))
		}
		if re.Sized {
			for _, sz := range sizes {
				name := re.Name + "-" + sz
				table[name] = Entry{
					Name:   name,
					Op:     op,
					Size:   bytecode.Size(sz),
					Arity:  re.Arity,
					Scheme: schemeFor(re.Kind, re.Arity, sz),
				}
			}
			continue
		}
		table[re.Name] = Entry{
			Name:   re.Name,
			Op:     op,
			Arity:  re.Arity,
			Scheme: schemeFor(re.Kind, re.Arity, ""),
		}
	}
}

// Lookup resolves a fully-suffixed primitive name (e.g. "add-i32",
// "cons") to its Entry. Callers may not invent new primitive names
// (spec.md §6); an unresolved name is always a compiler-internal bug,
// since inference only ever produces WPrimVar nodes for names it read
// out of this same table.
func Lookup(name string) (Entry, bool) {
	e, ok := table[name]
	return e, ok
}

// Names returns every recognized primitive name, sorted, for
// diagnostics and tests.
func Names() []string {
	out := make([]string, 0, len(table))
	for n := range table {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// IntType returns the concrete sized-integer type of the given suffix
// (e.g. "i32"), a Prim leaf of kind Value.
func IntType(size string) types.Type {
	return types.Prim{Tag: strings.ToUpper(size[:1]) + size[1:], K: kinds.Value{}}
}

// BoolType is the Boolean value type.
func BoolType() types.Type { return types.Prim{Tag: "Bool", K: kinds.Value{}} }

// NilType is the unit/no-value type, named after the teacher's Nil object.
func NilType() types.Type { return types.Con{Name: "Nil", K: kinds.Value{}} }

// funcType builds the word type of a primitive that consumes params
// (in order, bottom of that sub-stack first) and pushes one result: a
// types.Stack, not a curried arrow chain, because package infer's
// identifier rule (asStack) only special-cases types.Stack when
// composing an identifier's effect directly into the surrounding word
// sequence — "referencing a top-level function composes its effect
// directly rather than pushing a closure" (internal/infer/words.go).
// A curried Con("->") application would instead be treated as an
// ordinary pushed value, breaking every arithmetic/list/ref primitive.
func funcType(params []types.Type, ret types.Type) types.Type {
	elems := make([]types.SeqElem, len(params))
	for i, p := range params {
		elems[i] = types.SeqElem{Elem: p}
	}
	return types.Stack{
		Effect:     types.RowEmpty{ElemKind: kinds.Effect{}},
		Permission: types.RowEmpty{ElemKind: kinds.Permission{}},
		Totality:   types.AbelianEq{Eq: abelian.True(), K: kinds.Totality{}},
		In:         types.Seq{Elems: elems, ElemKind: kinds.Value{}},
		Out:        types.Seq{Elems: []types.SeqElem{{Elem: ret}}, ElemKind: kinds.Value{}},
	}
}

func listOf(elem types.Type) types.Type {
	listCon := types.Con{Name: "List", K: kinds.MakeArrow(kinds.Value{}, kinds.Value{})}
	return types.App{Fn: listCon, Arg: elem}
}

func refOf(elem types.Type) types.Type {
	// The table's scheme is an approximation used for primitive
	// reference typing only; package infer's ref-cell rules
	// (inferNewRef, inferGetRef, inferPutRef) mint the actual
	// heap-kinded variable a ref cell's full type carries.
	refCon := types.Con{Name: "Ref", K: kinds.MakeArrow(kinds.Value{}, kinds.Value{})}
	return types.App{Fn: refCon, Arg: elem}
}

// schemeFor builds the type scheme package infer assigns to a
// reference to the named primitive family, keyed by the "kind" tag in
// table.yaml (distinct from package kinds.Kind: this is just a switch
// key, not a type-system kind).
func schemeFor(kindTag string, arity int, size string) scheme.Scheme {
	switch kindTag {
	case "conv-bool":
		return scheme.Monotype(funcType([]types.Type{IntType(size)}, BoolType()))
	case "bool":
		return boolScheme(arity)
	case "cons", "nilv", "len", "refnew", "refget", "refput":
		return polySchemeFor(kindTag)
	default:
		// arithmetic families (add/sub/mul/div/mod/neg): T,T -> T or T -> T.
		t := IntType(size)
		if arity == 1 {
			return scheme.Monotype(funcType([]types.Type{t}, t))
		}
		return scheme.Monotype(funcType([]types.Type{t, t}, t))
	}
}

func boolScheme(arity int) scheme.Scheme {
	b := BoolType()
	if arity == 1 {
		return scheme.Monotype(funcType([]types.Type{b}, b))
	}
	return scheme.Monotype(funcType([]types.Type{b, b}, b))
}

func polySchemeFor(kindTag string) scheme.Scheme {
	a := types.Var{Name: "a", K: kinds.Value{}}
	switch kindTag {
	case "cons":
		return scheme.Scheme{
			Quantified: []scheme.Quantifier{{Name: "a", Kind: kinds.Value{}}},
			Body:       scheme.Qualified{Head: funcType([]types.Type{a, listOf(a)}, listOf(a))},
		}
	case "nilv":
		return scheme.Scheme{
			Quantified: []scheme.Quantifier{{Name: "a", Kind: kinds.Value{}}},
			Body:       scheme.Qualified{Head: listOf(a)},
		}
	case "len":
		return scheme.Scheme{
			Quantified: []scheme.Quantifier{{Name: "a", Kind: kinds.Value{}}},
			Body:       scheme.Qualified{Head: funcType([]types.Type{listOf(a)}, IntType("i32"))},
		}
	case "refnew":
		return scheme.Scheme{
			Quantified: []scheme.Quantifier{{Name: "a", Kind: kinds.Value{}}},
			Body:       scheme.Qualified{Head: funcType([]types.Type{a}, refOf(a))},
		}
	case "refget":
		return scheme.Scheme{
			Quantified: []scheme.Quantifier{{Name: "a", Kind: kinds.Value{}}},
			Body:       scheme.Qualified{Head: funcType([]types.Type{refOf(a)}, a)},
		}
	case "refput":
		return scheme.Scheme{
			Quantified: []scheme.Quantifier{{Name: "a", Kind: kinds.Value{}}},
			Body:       scheme.Qualified{Head: funcType([]types.Type{refOf(a), a}, NilType())},
		}
	default:
		return scheme.Monotype(NilType())
	}
}
