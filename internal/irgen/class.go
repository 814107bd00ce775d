package irgen

import (
	"basiccompiler/internal/ir"
	"basiccompiler/internal/sema"
)

// udtStruct renders a TYPE declaration's already-laid-out fields (sema
// assigned byte offsets; irgen only needs the IR storage class per
// field, in declared order) as a struct aggregate.
func (g *Generator) udtStruct(udt *sema.UDTInfo) ir.StructDecl {
	fields := make([]ir.Type, len(udt.Fields))
	for i, f := range udt.Fields {
		fields[i] = irType(f.Type)
	}
	return ir.StructDecl{Name: udt.Name, Fields: fields}
}

// classStruct renders a class's heap layout: an 8-byte vtable pointer,
// a 4-byte class id (padded to 8), then every inherited-and-own field
// in offset order (spec.md §9 "runtime dispatch for virtual methods").
func (g *Generator) classStruct(cls *sema.ClassInfo) ir.StructDecl {
	fields := []ir.Type{ir.L, ir.L} // vtable ptr, class id (widened to l for 8-byte alignment)
	for _, f := range cls.Fields {
		fields = append(fields, irType(f.Type))
	}
	return ir.StructDecl{Name: cls.Name, Fields: fields}
}

// vtableSlotOf returns the vtable index of a method name on cls,
// walking to the declaring ancestor's slot assignment.
func vtableSlotOf(cls *sema.ClassInfo, method string) (int, bool) {
	m, ok := cls.Methods[method]
	if !ok {
		return 0, false
	}
	return m.VtableSlot, true
}
