// Package irgen is C11, the code generator: it lowers the validated
// AST plus the Pass1/Pass2 symbol table into the textual IR described
// by spec.md §4.6. Unlike internal/cfg — which rebuilds a minimal
// block graph purely to check structural control-flow invariants —
// irgen walks the AST itself so every branch condition, loop bound,
// and call argument is still in hand when a block is emitted; the two
// packages deliberately do not share block objects.
//
// The per-function walk, explicit block-termination tracking, and
// "spill every local to a stack slot up front" approach are adapted
// from the teacher's internal/compiler/stmt_compiler.go, generalized
// from a bytecode emitter to a textual SSA emitter.
package irgen

import (
	"sort"
	"strconv"

	"basiccompiler/internal/ast"
	"basiccompiler/internal/diag"
	"basiccompiler/internal/ir"
	"basiccompiler/internal/sema"
	"basiccompiler/internal/types"
)

// Generator holds the whole-program state shared by every function
// lowering: the symbol table, assigned class ids, and UDT/class
// struct layouts already decided by sema.
type Generator struct {
	st       *sema.SymbolTable
	bag      *diag.Bag
	classIDs map[string]int
	mod      *ir.Module
	strLits  map[string]string
	strSeq   int
}

// addStringData interns a string literal into the module's data
// segment, returning its "$name" operand form (deduped so identical
// literals share one symbol).
func (g *Generator) addStringData(value string) string {
	if name, ok := g.strLits[value]; ok {
		return "$" + name
	}
	name := "str" + strconv.Itoa(g.strSeq)
	g.strSeq++
	g.strLits[value] = name
	g.mod.Data = append(g.mod.Data, ir.Data{Name: name, Init: quoteString(value)})
	return "$" + name
}

// Generate lowers prog to a complete IR module. Callers must already
// have run Pass1/Pass2 and confirmed bag.HasErrors() is false — irgen
// assumes a well-typed AST and does not re-validate it.
func Generate(prog *ast.Program, st *sema.SymbolTable, bag *diag.Bag) *ir.Module {
	g := &Generator{st: st, bag: bag, classIDs: assignClassIDs(st), strLits: map[string]string{}}

	mod := &ir.Module{}
	g.mod = mod
	for _, name := range sortedKeys(st.Types) {
		mod.Structs = append(mod.Structs, g.udtStruct(st.Types[name]))
	}
	for _, name := range sortedKeys(st.Classes) {
		mod.Structs = append(mod.Structs, g.classStruct(st.Classes[name]))
	}
	for _, name := range sortedKeys(st.Globals) {
		mod.Data = append(mod.Data, ir.Data{Name: name, Init: zeroInitFor(st.Globals[name])})
	}

	mod.Funcs = append(mod.Funcs, g.genMain())

	for _, name := range sortedFuncNames(st.Functions) {
		fn := st.Functions[name]
		mod.Funcs = append(mod.Funcs, g.genFunc(name, fn.Params, fn.Locals, fn.ReturnType, fn.Body, nil))
	}

	for _, cname := range sortedKeys(st.Classes) {
		cls := st.Classes[cname]
		for _, mname := range cls.VtableOrder {
			m := cls.Methods[mname]
			if ownerOf(cls, mname) != cname {
				continue // inherited, not overridden here: no body to emit
			}
			mod.Funcs = append(mod.Funcs, g.genMethod(cls, m))
		}
	}

	return mod
}

func ownerOf(cls *sema.ClassInfo, methodName string) string {
	// A method declared directly on cls carries cls's mangled name; an
	// inherited-but-not-overridden entry was copied by value in
	// buildClassInfo and keeps the parent's mangled name (and Body),
	// so the name, not the Body, tells the two apart.
	if m, ok := cls.Methods[methodName]; ok && m.Name == cls.Name+"__"+methodName {
		return cls.Name
	}
	return ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedFuncNames(m map[string]*sema.FuncInfo) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		if k == "" {
			continue // the main program, handled by genMain
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// assignClassIDs gives every declared class a stable small integer id
// for class_new/class_is_instance, in declaration-name order so two
// runs of the same source produce the same ids.
func assignClassIDs(st *sema.SymbolTable) map[string]int {
	ids := map[string]int{}
	for i, name := range sortedKeys(st.Classes) {
		ids[name] = i + 1
	}
	return ids
}

// irType maps a BASIC static type to its IR storage class. Runtime-
// managed values (strings, lists, hashmaps, class instances, UDTs,
// ANY/object) are always pointer-sized (l): the generator never
// inlines their bytes into a register-width temporary.
func irType(t types.TypeDescriptor) ir.Type {
	switch t.Base {
	case types.Single:
		return ir.S
	case types.Double:
		return ir.D
	case types.Long, types.ULong:
		return ir.L
	case types.Byte, types.UByte, types.Short, types.UShort, types.Integer, types.UInteger:
		return ir.W
	default:
		return ir.L // strings, lists, hashmaps, class instances, UDTs, object
	}
}

// allocOpFor returns the alloc instruction name sized for t's storage.
func allocOpFor(t types.TypeDescriptor, st *sema.SymbolTable) string {
	size := 8
	switch {
	case t.Base == types.UserDefined:
		if udt, ok := st.Types[t.UDTName]; ok {
			size = udt.Size
		}
	default:
		if w := t.BitWidth(); w > 0 {
			size = w / 8
		}
	}
	switch {
	case size <= 4:
		return "alloc4"
	case size <= 8:
		return "alloc8"
	default:
		return "alloc16"
	}
}

func quoteString(s string) string {
	return strconv.Quote(s)
}

// zeroInitFor renders a global's default initializer payload.
func zeroInitFor(t types.TypeDescriptor) string {
	if t.IsFloat() {
		return "0.0"
	}
	if t.IsString() {
		return `""`
	}
	return "0"
}
