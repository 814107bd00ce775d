package irgen

import (
	"strings"

	"basiccompiler/internal/ast"
	"basiccompiler/internal/ir"
	"basiccompiler/internal/runtimeabi"
	"basiccompiler/internal/types"
)

// builtinRuntimeCalls maps a BASIC built-in function name to the
// runtime call it lowers to and the BASIC result type, for the
// functions that are pure runtime-ABI passthroughs (spec.md §6).
var builtinRuntimeCalls = map[string]struct {
	runtimeName string
	resultType  types.BaseType
}{
	"LEN":   {"str_length", types.Long},
	"MID":   {"str_substr", types.String},
	"LEFT":  {"str_left", types.String},
	"RIGHT": {"str_right", types.String},
	"UCASE": {"str_upper", types.String},
	"LCASE": {"str_lower", types.String},
	"TRIM":  {"str_trim", types.String},
	"INSTR": {"str_indexof", types.Long},
	"RND":   {"rnd", types.Double},
	"SQR":   {"math_sqrt", types.Double},
}

// evalBuiltinCall lowers a call whose callee is a compiler-recognized
// built-in (as opposed to a user SUB/FUNCTION) straight to its runtime
// counterpart from internal/runtimeabi.
func (fg *funcGen) evalBuiltinCall(n *ast.Call) (val, bool) {
	name := strings.ToUpper(n.Callee)
	switch name {
	case "STR":
		return fg.lowerConversion(n, "int_to_str", "double_to_str"), true
	case "VAL":
		return fg.lowerConversion(n, "str_to_long", "str_to_double"), true
	case "CHR":
		v := fg.evalExpr(n.Args[0])
		dst := fg.fn.NewTemp()
		fg.emit(ir.Instr{Dest: dst, Type: ir.L, Op: "call", Args: []string{"$int_to_str", v.ref}})
		return val{ref: "%" + dst, typ: types.Basic(types.String)}, true
	}
	spec, ok := builtinRuntimeCalls[name]
	if !ok {
		return val{}, false
	}
	sig, hasSig := runtimeabi.Lookup(spec.runtimeName)
	_ = hasSig
	args := make([]string, 0, len(n.Args)+1)
	args = append(args, "$"+spec.runtimeName)
	for _, a := range n.Args {
		args = append(args, fg.evalExpr(a).ref)
	}
	retT := types.Basic(spec.resultType)
	if sig.Ret == "" {
		fg.emit(ir.Instr{Op: "call", Args: args})
		return val{ref: "0", typ: retT}, true
	}
	dst := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: dst, Type: irType(retT), Op: "call", Args: args})
	return val{ref: "%" + dst, typ: retT}, true
}

func (fg *funcGen) lowerConversion(n *ast.Call, intRuntime, floatRuntime string) val {
	v := fg.evalExpr(n.Args[0])
	runtimeName := intRuntime
	resultT := types.Basic(types.String)
	if v.typ.IsFloat() {
		runtimeName = floatRuntime
	}
	if intRuntime == "str_to_long" {
		resultT = types.Basic(types.Long)
		if v.typ.IsFloat() {
			resultT = types.Basic(types.Double)
		}
	}
	dst := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: dst, Type: irType(resultT), Op: "call", Args: []string{"$" + runtimeName, v.ref}})
	return val{ref: "%" + dst, typ: resultT}
}
