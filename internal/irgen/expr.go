package irgen

import (
	"strconv"
	"strings"

	"basiccompiler/internal/ast"
	"basiccompiler/internal/ir"
	"basiccompiler/internal/types"
)

// evalExpr lowers an expression to an operand, emitting whatever
// instructions are needed to produce it. This is irgen's half of the
// AST visitor pair described in internal/ast: a plain type switch,
// matching the idiom internal/sema's validator already uses for the
// same tree.
func (fg *funcGen) evalExpr(e ast.Expr) val {
	switch n := e.(type) {
	case *ast.NumberLit:
		return fg.evalNumberLit(n)
	case *ast.StringLit:
		return val{ref: fg.g.addStringData(n.Value), typ: types.Basic(types.String)}
	case *ast.Variable:
		ref, ok := fg.resolveVar(n.Name)
		if !ok {
			return val{ref: "0", typ: types.Basic(types.Double)}
		}
		return fg.loadRef(ref)
	case *ast.Unary:
		return fg.evalUnary(n)
	case *ast.Binary:
		return fg.evalBinary(n)
	case *ast.Logical:
		return fg.evalLogical(n)
	case *ast.Call:
		return fg.evalCall(n)
	case *ast.Index:
		return fg.evalIndex(n)
	case *ast.FieldAccess:
		return fg.evalFieldAccess(n)
	case *ast.MethodCall:
		return fg.evalMethodCall(n)
	case *ast.NewExpr:
		return fg.evalNewExpr(n)
	case *ast.IsNothing:
		obj := fg.evalExpr(n.Object)
		dst := fg.fn.NewTemp()
		fg.emit(ir.Instr{Dest: dst, Type: ir.W, Op: "ceq", Args: []string{obj.ref, "0"}})
		return val{ref: "%" + dst, typ: types.Basic(types.Integer)}
	case *ast.IsClass:
		obj := fg.evalExpr(n.Object)
		id := fg.g.classIDs[n.ClassName]
		dst := fg.fn.NewTemp()
		fg.emit(ir.Instr{Dest: dst, Type: ir.W, Op: "call", Args: []string{"$class_is_instance", obj.ref, strconv.Itoa(id)}})
		return val{ref: "%" + dst, typ: types.Basic(types.Integer)}
	case *ast.SuperCall:
		return fg.evalSuperCall(n)
	case *ast.ArrayLit:
		return fg.evalArrayLit(n)
	case *ast.NothingLit:
		return val{ref: "0", typ: types.Class("")}
	default:
		return val{ref: "0", typ: types.Basic(types.Double)}
	}
}

func (fg *funcGen) evalNumberLit(n *ast.NumberLit) val {
	raw := n.Raw
	if strings.ContainsAny(raw, ".eE") {
		return val{ref: strconv.FormatFloat(n.Value, 'g', -1, 64), typ: types.Basic(types.Double)}
	}
	iv := int64(n.Value)
	if iv >= -(1<<31) && iv < (1<<31) {
		return val{ref: strconv.FormatInt(iv, 10), typ: types.Basic(types.Integer)}
	}
	return val{ref: strconv.FormatInt(iv, 10), typ: types.Basic(types.Long)}
}

var binOps = map[string]string{
	"+": "add", "-": "sub", "*": "mul", "/": "div", "MOD": "rem",
	"=": "ceq", "==": "ceq", "<>": "cne", "!=": "cne",
	"<": "clt", "<=": "cle", ">": "cgt", ">=": "cge",
}

func (fg *funcGen) evalBinary(n *ast.Binary) val {
	l := fg.evalExpr(n.Left)
	r := fg.evalExpr(n.Right)
	resultT := widen(l.typ, r.typ)
	op, ok := binOps[strings.ToUpper(n.Operator)]
	if !ok {
		op = "add"
	}
	isCompare := op[0] == 'c'
	t := irType(resultT)
	if n.Operator == "+" && l.typ.IsString() {
		dst := fg.fn.NewTemp()
		fg.emit(ir.Instr{Dest: dst, Type: ir.L, Op: "call", Args: []string{"$str_concat", l.ref, r.ref}})
		return val{ref: "%" + dst, typ: types.Basic(types.String)}
	}
	dst := fg.fn.NewTemp()
	if isCompare {
		fg.emit(ir.Instr{Dest: dst, Type: t, Op: op, Args: []string{l.ref, r.ref}})
		return val{ref: "%" + dst, typ: types.Basic(types.Integer)}
	}
	fg.emit(ir.Instr{Dest: dst, Type: t, Op: op, Args: []string{l.ref, r.ref}})
	return val{ref: "%" + dst, typ: resultT}
}

func (fg *funcGen) evalLogical(n *ast.Logical) val {
	l := fg.evalExpr(n.Left)
	r := fg.evalExpr(n.Right)
	var op string
	switch strings.ToUpper(n.Operator) {
	case "AND":
		op = "and"
	case "OR":
		op = "or"
	case "XOR":
		op = "xor"
	default:
		op = "or" // IMP/EQV fold to OR in the bitwise encoding used here
	}
	dst := fg.fn.NewTemp()
	t := irType(widen(l.typ, r.typ))
	fg.emit(ir.Instr{Dest: dst, Type: t, Op: op, Args: []string{l.ref, r.ref}})
	return val{ref: "%" + dst, typ: types.Basic(types.Integer)}
}

func (fg *funcGen) evalUnary(n *ast.Unary) val {
	v := fg.evalExpr(n.Operand)
	switch strings.ToUpper(n.Operator) {
	case "NOT":
		dst := fg.fn.NewTemp()
		fg.emit(ir.Instr{Dest: dst, Type: irType(v.typ), Op: "ceq", Args: []string{v.ref, "0"}})
		return val{ref: "%" + dst, typ: types.Basic(types.Integer)}
	case "-":
		dst := fg.fn.NewTemp()
		fg.emit(ir.Instr{Dest: dst, Type: irType(v.typ), Op: "sub", Args: []string{"0", v.ref}})
		return val{ref: "%" + dst, typ: v.typ}
	default:
		return v
	}
}

// widen picks the wider of two numeric types per the coercion
// lattice's widening direction; used only to size the IR op, not to
// re-run coercion diagnostics (sema already validated the operands).
func widen(a, b types.TypeDescriptor) types.TypeDescriptor {
	if types.CheckCoercion(a, b) == types.ImplicitSafe {
		return b
	}
	if types.CheckCoercion(b, a) == types.ImplicitSafe {
		return a
	}
	return a
}

func (fg *funcGen) evalCall(n *ast.Call) val {
	if v, ok := fg.evalBuiltinCall(n); ok {
		return v
	}
	args := make([]string, 0, len(n.Args)+1)
	for _, a := range n.Args {
		args = append(args, fg.evalExpr(a).ref)
	}
	fnInfo := fg.g.st.Functions[n.Callee]
	retT := types.Basic(types.Void)
	if fnInfo != nil {
		retT = fnInfo.ReturnType
	}
	callArgs := append([]string{"$" + n.Callee}, args...)
	if retT.Base == types.Void {
		fg.emit(ir.Instr{Op: "call", Args: callArgs})
		return val{ref: "0", typ: retT}
	}
	dst := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: dst, Type: irType(retT), Op: "call", Args: callArgs})
	return val{ref: "%" + dst, typ: retT}
}

func (fg *funcGen) evalIndex(n *ast.Index) val {
	obj := fg.evalExpr(n.Object)
	idx := fg.evalExpr(n.Indices[0])
	if fg.g.st.Options.BoundsCheck {
		fg.emit(ir.Instr{Op: "call", Args: []string{"$array_bounds_check", obj.ref, idx.ref}})
	}
	dst := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: dst, Type: ir.L, Op: "call", Args: []string{"$array_get", obj.ref, idx.ref}})
	return val{ref: "%" + dst, typ: types.Basic(types.Double)}
}

func (fg *funcGen) evalFieldAccess(n *ast.FieldAccess) val {
	objT := fg.exprClassType(n.Object)
	obj := fg.evalExpr(n.Object)
	cls, ok := fg.g.st.Classes[objT]
	if !ok {
		return obj
	}
	for _, f := range cls.Fields {
		if f.Name == n.Field {
			addr := fg.offsetAddr(obj.ref, f.Offset)
			t := irType(f.Type)
			dst := fg.fn.NewTemp()
			fg.emit(ir.Instr{Dest: dst, Type: t, Op: loadOp(t), Args: []string{addr}})
			return val{ref: "%" + dst, typ: f.Type}
		}
	}
	if udt, ok := fg.g.st.Types[objT]; ok {
		for _, f := range udt.Fields {
			if f.Name == n.Field {
				addr := fg.offsetAddr(obj.ref, f.Offset)
				t := irType(f.Type)
				dst := fg.fn.NewTemp()
				fg.emit(ir.Instr{Dest: dst, Type: t, Op: loadOp(t), Args: []string{addr}})
				return val{ref: "%" + dst, typ: f.Type}
			}
		}
	}
	return obj
}

func (fg *funcGen) offsetAddr(base string, offset int) string {
	if offset == 0 {
		return base
	}
	dst := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: dst, Type: ir.L, Op: "add", Args: []string{base, strconv.Itoa(offset)}})
	return "%" + dst
}

// exprClassType best-effort resolves the static class/UDT name of an
// expression so field access and method dispatch know which layout
// and vtable to use.
func (fg *funcGen) exprClassType(e ast.Expr) string {
	switch n := e.(type) {
	case *ast.Variable:
		if ref, ok := fg.resolveVar(n.Name); ok {
			if ref.typ.Base == types.ClassInstance {
				return ref.typ.ClassName
			}
			if ref.typ.Base == types.UserDefined {
				return ref.typ.UDTName
			}
		}
	case *ast.NewExpr:
		return n.ClassName
	case *ast.FieldAccess:
		objT := fg.exprClassType(n.Object)
		if cls, ok := fg.g.st.Classes[objT]; ok {
			for _, f := range cls.Fields {
				if f.Name == n.Field && f.Type.Base == types.ClassInstance {
					return f.Type.ClassName
				}
			}
		}
	}
	return ""
}

func (fg *funcGen) evalMethodCall(n *ast.MethodCall) val {
	objT := fg.exprClassType(n.Object)
	obj := fg.evalExpr(n.Object)
	cls, ok := fg.g.st.Classes[objT]
	if !ok {
		return val{ref: "0", typ: types.Basic(types.Void)}
	}
	slot, _ := vtableSlotOf(cls, n.Method)
	vtablePtr := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: vtablePtr, Type: ir.L, Op: loadOp(ir.L), Args: []string{obj.ref}})
	fnAddr := fg.offsetAddr("%"+vtablePtr, slot*8)
	fnPtr := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: fnPtr, Type: ir.L, Op: loadOp(ir.L), Args: []string{fnAddr}})

	args := []string{"%" + fnPtr, obj.ref}
	for _, a := range n.Args {
		args = append(args, fg.evalExpr(a).ref)
	}
	m := cls.Methods[n.Method]
	retT := types.Basic(types.Void)
	if m != nil {
		if t, ok := fg.g.st.TypeFromName(m.ReturnType); ok {
			retT = t
		}
	}
	if retT.Base == types.Void {
		fg.emit(ir.Instr{Op: "call", Args: args})
		return val{ref: "0", typ: retT}
	}
	dst := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: dst, Type: irType(retT), Op: "call", Args: args})
	return val{ref: "%" + dst, typ: retT}
}

func (fg *funcGen) evalSuperCall(n *ast.SuperCall) val {
	if fg.class == nil {
		return val{ref: "0", typ: types.Basic(types.Void)}
	}
	parent, ok := fg.g.st.Classes[fg.class.Parent]
	if !ok {
		return val{ref: "0", typ: types.Basic(types.Void)}
	}
	m, ok := parent.Methods[n.Method]
	if !ok {
		return val{ref: "0", typ: types.Basic(types.Void)}
	}
	thisVal := fg.loadRef(varRef{kind: kindLocal, typ: types.Class(fg.class.Name), addr: fg.locals["this"].addr})
	args := []string{"$" + m.Name, thisVal.ref}
	for _, a := range n.Args {
		args = append(args, fg.evalExpr(a).ref)
	}
	retT := types.Basic(types.Void)
	if t, ok := fg.g.st.TypeFromName(m.ReturnType); ok {
		retT = t
	}
	if retT.Base == types.Void {
		fg.emit(ir.Instr{Op: "call", Args: args})
		return val{ref: "0", typ: retT}
	}
	dst := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: dst, Type: irType(retT), Op: "call", Args: args})
	return val{ref: "%" + dst, typ: retT}
}

func (fg *funcGen) evalNewExpr(n *ast.NewExpr) val {
	id := fg.g.classIDs[n.ClassName]
	size := 16
	if cls, ok := fg.g.st.Classes[n.ClassName]; ok {
		size = cls.ObjectSize
	}
	dst := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: dst, Type: ir.L, Op: "call", Args: []string{"$class_new", strconv.Itoa(id), strconv.Itoa(size)}})
	ctorName := n.ClassName + "__new"
	if cls, ok := fg.g.st.Classes[n.ClassName]; ok {
		for _, m := range cls.Methods {
			if m.IsCtor {
				ctorName = m.Name
			}
		}
	}
	args := []string{"$" + ctorName, "%" + dst}
	for _, a := range n.Args {
		args = append(args, fg.evalExpr(a).ref)
	}
	fg.emit(ir.Instr{Op: "call", Args: args})
	return val{ref: "%" + dst, typ: types.Class(n.ClassName)}
}

func (fg *funcGen) evalArrayLit(n *ast.ArrayLit) val {
	dst := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: dst, Type: ir.L, Op: "call", Args: []string{"$array_new", strconv.Itoa(len(n.Elements)), "8"}})
	for i, elem := range n.Elements {
		v := fg.evalExpr(elem)
		fg.emit(ir.Instr{Op: "call", Args: []string{"$array_set", "%" + dst, strconv.Itoa(i), v.ref}})
	}
	return val{ref: "%" + dst, typ: types.Basic(types.Object)}
}
