package irgen

import (
	"strconv"

	"basiccompiler/internal/constfold"
	"basiccompiler/internal/ir"
	"basiccompiler/internal/types"
)

// varKind distinguishes how a name resolves to storage: directly
// addressable memory (local/global) vs. a class field reached through
// `this` vs. a compile-time constant with no storage at all.
type varKind int

const (
	kindLocal varKind = iota
	kindField
	kindConstant
)

type varRef struct {
	kind   varKind
	typ    types.TypeDescriptor
	addr   string // local/global operand
	offset int    // field byte offset, kindField only
	imm    val    // kindConstant only
}

// resolveVar looks a name up in function-local scope first, then the
// enclosing class's own fields, then the program's globals, then
// compile-time constants. Unlike sema's resolveOrDeclare, it
// consults class fields.
func (fg *funcGen) resolveVar(name string) (varRef, bool) {
	if sl, ok := fg.locals[name]; ok {
		return varRef{kind: kindLocal, typ: sl.typ, addr: sl.addr}, true
	}
	if fg.class != nil {
		for _, f := range fg.class.Fields {
			if f.Name == name {
				return varRef{kind: kindField, typ: f.Type, offset: f.Offset}, true
			}
		}
	}
	if t, ok := fg.g.st.Globals[name]; ok {
		return varRef{kind: kindLocal, typ: t, addr: "$" + name}, true
	}
	if c, ok := fg.g.st.Constants[name]; ok {
		return varRef{kind: kindConstant, typ: constantIRType(c), imm: fg.constantVal(c)}, true
	}
	return varRef{}, false
}

func (fg *funcGen) loadRef(ref varRef) val {
	if ref.kind == kindConstant {
		return ref.imm
	}
	addr := ref.addr
	if ref.kind == kindField {
		addr = fg.fieldAddr(ref.offset)
	}
	t := irType(ref.typ)
	dst := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: dst, Type: t, Op: loadOp(t), Args: []string{addr}})
	return val{ref: "%" + dst, typ: ref.typ}
}

func (fg *funcGen) storeRef(ref varRef, v val) {
	addr := ref.addr
	if ref.kind == kindField {
		addr = fg.fieldAddr(ref.offset)
	}
	t := irType(ref.typ)
	fg.emit(ir.Instr{Op: storeOp(t), Args: []string{v.ref, addr}})
}

func constantIRType(v constfold.Value) types.TypeDescriptor {
	switch v.Kind {
	case constfold.KindString:
		return types.Basic(types.String)
	case constfold.KindInt:
		return types.Basic(types.Long)
	default:
		return types.Basic(types.Double)
	}
}

func (fg *funcGen) constantVal(v constfold.Value) val {
	switch v.Kind {
	case constfold.KindString:
		return val{ref: fg.g.addStringData(v.S), typ: types.Basic(types.String)}
	case constfold.KindInt:
		return val{ref: strconv.FormatInt(v.I, 10), typ: types.Basic(types.Long)}
	default:
		return val{ref: strconv.FormatFloat(v.F, 'g', -1, 64), typ: types.Basic(types.Double)}
	}
}

// fieldAddr computes the byte address of a field on the current
// method's `this` instance: load the receiver pointer, then offset it
// (spec.md §9 heap layout: vtable ptr, class id, then fields).
func (fg *funcGen) fieldAddr(offset int) string {
	thisPtr := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: thisPtr, Type: ir.L, Op: loadOp(ir.L), Args: []string{fg.locals["this"].addr}})
	if offset == 0 {
		return "%" + thisPtr
	}
	addr := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: addr, Type: ir.L, Op: "add", Args: []string{"%" + thisPtr, strconv.Itoa(offset)}})
	return "%" + addr
}
