// Package sema implements the two-pass semantic analyzer (C9):
// Pass1 collects every declaration into a SymbolTable, Pass2 walks
// the program again with a scope stack to resolve names, type-check
// expressions, and validate control-flow and class/exception/timer
// contracts.
//
// The two-pass split and the "collect declarations, then validate"
// shape are adapted from the teacher's
// internal/compiler/hoisting_compiler.go (HoistingCompiler.Compile
// calling collectFunctions before compiling statement bodies).
package sema

import (
	"basiccompiler/internal/ast"
	"basiccompiler/internal/constfold"
	"basiccompiler/internal/dataprep"
	"basiccompiler/internal/options"
	"basiccompiler/internal/token"
	"basiccompiler/internal/types"
)

// UDTField is one field of a user-defined record type.
type UDTField struct {
	Name   string
	Type   types.TypeDescriptor
	Offset int
}

// UDTInfo is a fully laid-out TYPE declaration.
type UDTInfo struct {
	Name     string
	TypeID   int
	Fields   []UDTField
	Size     int    // bytes, 8-byte rounded
	SIMDLane string // "" if not SIMD-eligible, else V2D/V4S/V2S/V8H/V4H/V16B/V8B/V4S_PAD1
	Loc      token.Location
}

// ClassField is one field of a class, inherited or own.
type ClassField struct {
	Name   string
	Type   types.TypeDescriptor
	Offset int
}

// ClassMethod is one entry of a class's virtual method table.
type ClassMethod struct {
	Name       string // mangled CLASS__METHOD
	DeclName   string // unmangled method name, for override matching
	VtableSlot int
	Params     []ast.Param
	ReturnType string
	IsCtor     bool
	IsDtor     bool
	Overrides  bool
	Body       []ast.Stmt
}

// ClassInfo is a fully resolved CLASS declaration: inherited layout
// flattened in, vtable slots assigned, overrides checked.
type ClassInfo struct {
	Name        string
	Parent      string
	Fields      []ClassField
	Methods     map[string]*ClassMethod // keyed by unmangled method name
	VtableOrder []string                // method names in slot order
	ObjectSize  int
	Loc         token.Location
}

// FuncInfo is a SUB, FUNCTION, or DEF FN declaration plus the main
// program's implicit top-level scope (Name == "").
type FuncInfo struct {
	Name       string
	Params     []ast.Param
	ReturnType types.TypeDescriptor
	IsSub      bool
	IsMain     bool
	Locals     map[string]types.TypeDescriptor
	ArrayDims  map[string][]int // -1 marks a runtime-sized dimension
	Body       []ast.Stmt
	Loc        token.Location
}

func newFuncInfo(name string) *FuncInfo {
	return &FuncInfo{Name: name, Locals: map[string]types.TypeDescriptor{}, ArrayDims: map[string][]int{}}
}

// SymbolTable is the single enriched symbol table shared by every
// later phase (spec.md §5 "exactly one mutable symbol table").
type SymbolTable struct {
	LineNumbers map[int]token.Location
	Labels      map[string]token.Location
	Types       map[string]*UDTInfo
	Classes     map[string]*ClassInfo
	Constants   map[string]constfold.Value
	Globals     map[string]types.TypeDescriptor
	Functions   map[string]*FuncInfo
	Main        *FuncInfo
	ForEachVars map[string]bool

	TimerHandlers       map[string]bool
	InlineTimerHandlers map[*ast.TimerStmt]string

	Data    *dataprep.Segment
	Options options.Options

	nextUDTTypeID int
}

func newSymbolTable(opts options.Options, data *dataprep.Segment) *SymbolTable {
	return &SymbolTable{
		LineNumbers:         map[int]token.Location{},
		Labels:              map[string]token.Location{},
		Types:               map[string]*UDTInfo{},
		Classes:             map[string]*ClassInfo{},
		Constants:           map[string]constfold.Value{},
		Globals:             map[string]types.TypeDescriptor{},
		Functions:           map[string]*FuncInfo{},
		Main:                newFuncInfo(""),
		ForEachVars:         map[string]bool{},
		TimerHandlers:       map[string]bool{},
		InlineTimerHandlers: map[*ast.TimerStmt]string{},
		Data:                data,
		Options:             opts,
	}
}

// baseTypeFromMangleSuffix infers the BASIC base type from the
// mangling suffix applied by internal/parser.MangleName, falling back
// to DOUBLE for an unsuffixed name (spec.md §4.3 Pass 2).
func baseTypeFromMangleSuffix(mangledName string) types.BaseType {
	switch {
	case hasSuffix(mangledName, "_STRING"):
		return types.String
	case hasSuffix(mangledName, "_INT"):
		return types.Integer
	case hasSuffix(mangledName, "_FLOAT"):
		return types.Single
	case hasSuffix(mangledName, "_DOUBLE"):
		return types.Double
	case hasSuffix(mangledName, "_LONG"):
		return types.Long
	case hasSuffix(mangledName, "_BYTE"):
		return types.Byte
	case hasSuffix(mangledName, "_SHORT"):
		return types.Short
	default:
		return types.Double
	}
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

// TypeFromName is the exported form of typeFromName, used by
// internal/irgen to resolve class method parameter/return AS-clause
// names the same way Pass1/Pass2 do.
func (st *SymbolTable) TypeFromName(name string) (types.TypeDescriptor, bool) {
	return st.typeFromName(name)
}

// typeFromName resolves an AS-clause type name (a base-type keyword, a
// registered UDT, or a registered class) to a TypeDescriptor.
func (st *SymbolTable) typeFromName(name string) (types.TypeDescriptor, bool) {
	switch name {
	case "":
		return types.TypeDescriptor{}, false
	case "BYTE":
		return types.Basic(types.Byte), true
	case "SHORT":
		return types.Basic(types.Short), true
	case "INTEGER":
		return types.Basic(types.Integer), true
	case "LONG":
		return types.Basic(types.Long), true
	case "UBYTE":
		return types.Basic(types.UByte), true
	case "USHORT":
		return types.Basic(types.UShort), true
	case "UINTEGER":
		return types.Basic(types.UInteger), true
	case "ULONG":
		return types.Basic(types.ULong), true
	case "SINGLE":
		return types.Basic(types.Single), true
	case "DOUBLE":
		return types.Basic(types.Double), true
	case "STRINGTYPE", "STRING":
		return types.Basic(types.String), true
	case "OBJECT":
		return types.Basic(types.Object), true
	case "ANY":
		return types.Basic(types.Object), true
	}
	if udt, ok := st.Types[name]; ok {
		return types.UDT(name, udt.TypeID), true
	}
	if _, ok := st.Classes[name]; ok {
		return types.Class(name), true
	}
	return types.TypeDescriptor{}, false
}

// fieldByteSize returns the storage size in bytes used by the UDT/
// class layout pass. Runtime-managed references (string, class
// instance, list, hashmap, object) occupy one pointer-sized slot.
func (st *SymbolTable) fieldByteSize(t types.TypeDescriptor) int {
	switch t.Base {
	case types.UserDefined:
		if udt, ok := st.Types[t.UDTName]; ok {
			return udt.Size
		}
		return 8
	case types.String, types.Unicode, types.ClassInstance, types.List, types.Hashmap, types.Object:
		return 8
	default:
		if w := t.BitWidth(); w > 0 {
			return w / 8
		}
		return 8
	}
}

func align8(n int) int {
	if n%8 == 0 {
		return n
	}
	return n + (8 - n%8)
}
