package sema

import (
	"fmt"

	"golang.org/x/exp/slices"

	"basiccompiler/internal/ast"
	"basiccompiler/internal/constfold"
	"basiccompiler/internal/dataprep"
	"basiccompiler/internal/diag"
	"basiccompiler/internal/options"
	"basiccompiler/internal/token"
	"basiccompiler/internal/types"
)

// Pass1 implements spec.md §4.3 "Pass 1 — declarations", in the order
// listed there. Adapted from the teacher's
// HoistingCompiler.collectFunctions/collectFunctionFromStmt recursive
// declaration walk, generalized to BASIC's larger declaration surface.
func Pass1(prog *ast.Program, data *dataprep.Segment, opts options.Options, bag *diag.Bag) *SymbolTable {
	st := newSymbolTable(opts, data)

	var top []ast.Stmt
	for _, line := range prog.Lines {
		loc := lineLoc(line)
		if line.HasNumber {
			if _, dup := st.LineNumbers[line.Number]; dup {
				bag.Error(diag.DuplicateLineNumber, loc, "line number %d declared more than once", line.Number)
			} else {
				st.LineNumbers[line.Number] = loc
			}
		}
		if line.Label != "" {
			registerLabel(st, bag, line.Label, loc)
		}
		top = append(top, line.Statements...)
	}

	// Item 1 & inline labels: FOR EACH exemptions and `name:` labels
	// anywhere in the program, not just at line heads.
	ast.Walk(top, func(s ast.Stmt) {
		switch n := s.(type) {
		case *ast.ForEachStmt:
			st.ForEachVars[n.ElementVar] = true
			if n.TypeVar != "" {
				st.ForEachVars[n.TypeVar] = true
			}
		case *ast.LabelStmt:
			registerLabel(st, bag, n.Name, n.Loc)
		}
	})

	st.Main.Body = top
	classDecls := map[string]*ast.ClassDeclStmt{}
	collectBody(st, bag, top, st.Main, classDecls)
	finalizeClasses(st, bag, classDecls)

	return st
}

func lineLoc(line ast.Line) token.Location {
	if len(line.Statements) > 0 {
		return line.Statements[0].Location()
	}
	return token.Location{}
}

func registerLabel(st *SymbolTable, bag *diag.Bag, name string, loc token.Location) {
	if _, dup := st.Labels[name]; dup {
		bag.Error(diag.DuplicateLabel, loc, "label %s declared more than once", name)
		return
	}
	st.Labels[name] = loc
}

// collectBody descends through every statement, handling items 3-10
// of spec.md §4.3 while tracking which function a DIM belongs to
// (item 7 requires recognising DIMs nested in control structures
// inside functions, not just at top level).
func collectBody(st *SymbolTable, bag *diag.Bag, stmts []ast.Stmt, fn *FuncInfo, classDecls map[string]*ast.ClassDeclStmt) {
	for _, s := range stmts {
		switch n := s.(type) {
		case *ast.TypeDeclStmt:
			registerType(st, bag, n)
		case *ast.ClassDeclStmt:
			registerClassStub(bag, classDecls, n)
		case *ast.ConstantStmt:
			registerConstant(st, bag, n)
		case *ast.GlobalStmt:
			registerGlobal(st, bag, n)
		case *ast.DimStmt:
			registerDim(st, bag, fn, n)
		case *ast.SubDeclStmt:
			newFn := registerFunc(st, bag, n.Name, n.Params, types.Basic(types.Void), true, n.Loc)
			newFn.Body = n.Body
			collectBody(st, bag, n.Body, newFn, classDecls)
		case *ast.FunctionDeclStmt:
			ret := returnTypeFor(st, n.Name, n.ReturnType)
			newFn := registerFunc(st, bag, n.Name, n.Params, ret, false, n.Loc)
			newFn.Body = n.Body
			collectBody(st, bag, n.Body, newFn, classDecls)
		case *ast.TimerStmt:
			registerTimer(st, n)
			if n.InlineBody != nil {
				synthName := st.InlineTimerHandlers[n]
				newFn := newFuncInfo(synthName)
				newFn.Body = n.InlineBody
				st.Functions[synthName] = newFn
				collectBody(st, bag, n.InlineBody, newFn, classDecls)
			}
		case *ast.IfStmt:
			collectBody(st, bag, n.Then, fn, classDecls)
			for _, ei := range n.ElseIfs {
				collectBody(st, bag, ei.Body, fn, classDecls)
			}
			collectBody(st, bag, n.Else, fn, classDecls)
		case *ast.ForStmt:
			collectBody(st, bag, n.Body, fn, classDecls)
		case *ast.ForEachStmt:
			collectBody(st, bag, n.Body, fn, classDecls)
		case *ast.WhileStmt:
			collectBody(st, bag, n.Body, fn, classDecls)
		case *ast.DoLoopStmt:
			collectBody(st, bag, n.Body, fn, classDecls)
		case *ast.RepeatStmt:
			collectBody(st, bag, n.Body, fn, classDecls)
		case *ast.SelectCaseStmt:
			for _, arm := range n.Arms {
				collectBody(st, bag, arm.Body, fn, classDecls)
			}
		case *ast.MatchTypeStmt:
			for _, arm := range n.Arms {
				collectBody(st, bag, arm.Body, fn, classDecls)
			}
		case *ast.TryStmt:
			collectBody(st, bag, n.Body, fn, classDecls)
			for _, c := range n.Catches {
				collectBody(st, bag, c.Body, fn, classDecls)
			}
			collectBody(st, bag, n.Finally, fn, classDecls)
		}
	}
}

func registerType(st *SymbolTable, bag *diag.Bag, n *ast.TypeDeclStmt) {
	if _, dup := st.Types[n.Name]; dup {
		bag.Error(diag.DuplicateType, n.Loc, "type %s declared more than once", n.Name)
		return
	}
	udt := &UDTInfo{Name: n.Name, TypeID: st.nextUDTTypeID, Loc: n.Loc}
	st.nextUDTTypeID++
	offset := 0
	seen := map[string]bool{}
	for _, f := range n.Fields {
		if seen[f.Name] {
			bag.Error(diag.DuplicateField, n.Loc, "field %s declared more than once in type %s", f.Name, n.Name)
			continue
		}
		seen[f.Name] = true
		ft, ok := st.typeFromName(f.TypeName)
		if !ok {
			bag.Error(diag.UndefinedType, n.Loc, "unknown field type %q in type %s", f.TypeName, n.Name)
			ft = types.Basic(types.Double)
		}
		udt.Fields = append(udt.Fields, UDTField{Name: f.Name, Type: ft, Offset: offset})
		offset += st.fieldByteSize(ft)
	}
	udt.Size = align8(offset)
	udt.SIMDLane = classifySIMD(udt)
	st.Types[n.Name] = udt
}

// classifySIMD implements spec.md §4.3 item 3's SIMD eligibility rule:
// homogeneous base type, lane count in {2,3,4,8,16}, total <= 128
// bits; a 3-lane 32-bit record is padded to V4S_PAD1.
func classifySIMD(udt *UDTInfo) string {
	n := len(udt.Fields)
	if n == 0 {
		return ""
	}
	base := udt.Fields[0].Type.Base
	width := udt.Fields[0].Type.BitWidth()
	if width == 0 {
		return ""
	}
	for _, f := range udt.Fields {
		if f.Type.Base != base || f.Type.BitWidth() != width {
			return ""
		}
	}
	if n == 3 && width == 32 {
		return "V4S_PAD1"
	}
	validLanes := map[int]bool{2: true, 4: true, 8: true, 16: true}
	if !validLanes[n] || n*width > 128 {
		return ""
	}
	switch {
	case width == 64 && n == 2:
		return "V2D"
	case width == 32 && n == 2:
		return "V2S"
	case width == 32 && n == 4:
		return "V4S"
	case width == 16 && n == 4:
		return "V4H"
	case width == 16 && n == 8:
		return "V8H"
	case width == 8 && n == 8:
		return "V8B"
	case width == 8 && n == 16:
		return "V16B"
	default:
		return ""
	}
}

func registerClassStub(bag *diag.Bag, classDecls map[string]*ast.ClassDeclStmt, n *ast.ClassDeclStmt) {
	if _, dup := classDecls[n.Name]; dup {
		bag.Error(diag.DuplicateClass, n.Loc, "class %s declared more than once", n.Name)
		return
	}
	classDecls[n.Name] = n
}

// finalizeClasses resolves parents in dependency order (a class may be
// declared before its parent in source) and builds each ClassInfo:
// inherited fields and vtable slots first, own fields appended, then
// own methods either extending the vtable or overriding in place.
func finalizeClasses(st *SymbolTable, bag *diag.Bag, classDecls map[string]*ast.ClassDeclStmt) {
	resolved := map[string]bool{}
	pending := make([]string, 0, len(classDecls))
	for name := range classDecls {
		pending = append(pending, name)
	}
	slices.Sort(pending)

	for len(pending) > 0 {
		var next []string
		progressed := false
		for _, name := range pending {
			decl := classDecls[name]
			switch {
			case decl.Parent == "" || resolved[decl.Parent]:
				buildClassInfo(st, bag, decl)
				resolved[name] = true
				progressed = true
			case classDecls[decl.Parent] == nil:
				bag.Error(diag.UndefinedClass, decl.Loc, "class %s extends undeclared class %s", name, decl.Parent)
				buildClassInfo(st, bag, decl)
				resolved[name] = true
				progressed = true
			default:
				next = append(next, name)
			}
		}
		if !progressed {
			for _, name := range next {
				bag.Error(diag.CircularInheritance, classDecls[name].Loc, "circular inheritance involving class %s", name)
			}
			break
		}
		pending = next
	}
}

func buildClassInfo(st *SymbolTable, bag *diag.Bag, decl *ast.ClassDeclStmt) {
	info := &ClassInfo{Name: decl.Name, Parent: decl.Parent, Methods: map[string]*ClassMethod{}, Loc: decl.Loc}
	offset := 16 // vtable ptr @0, class id @8
	if parent, ok := st.Classes[decl.Parent]; ok {
		info.Fields = append(info.Fields, parent.Fields...)
		info.VtableOrder = append(info.VtableOrder, parent.VtableOrder...)
		for name, m := range parent.Methods {
			cp := *m
			info.Methods[name] = &cp
		}
		offset = parent.ObjectSize
	}

	seenField := map[string]bool{}
	for _, existing := range info.Fields {
		seenField[existing.Name] = true
	}
	for _, f := range decl.Fields {
		if seenField[f.Name] {
			bag.Error(diag.DuplicateField, decl.Loc, "field %s declared more than once in class %s", f.Name, decl.Name)
			continue
		}
		seenField[f.Name] = true
		ft, ok := st.typeFromName(f.TypeName)
		if !ok {
			bag.Error(diag.UndefinedType, decl.Loc, "unknown field type %q in class %s", f.TypeName, decl.Name)
			ft = types.Basic(types.Double)
		}
		info.Fields = append(info.Fields, ClassField{Name: f.Name, Type: ft, Offset: offset})
		offset += st.fieldByteSize(ft)
	}
	info.ObjectSize = align8(offset)

	for _, m := range decl.Methods {
		cm := &ClassMethod{
			Name:       decl.Name + "__" + m.Name,
			DeclName:   m.Name,
			Params:     m.Params,
			ReturnType: m.ReturnType,
			IsCtor:     m.IsCtor,
			IsDtor:     m.IsDtor,
			Body:       m.Body,
		}
		if existing, ok := info.Methods[m.Name]; ok {
			if !sameMethodSignature(existing, cm) {
				bag.Error(diag.ClassError, decl.Loc, "method %s.%s overrides a parent method with a different signature", decl.Name, m.Name)
			}
			cm.VtableSlot = existing.VtableSlot
			cm.Overrides = true
		} else {
			cm.VtableSlot = len(info.VtableOrder)
			info.VtableOrder = append(info.VtableOrder, m.Name)
		}
		info.Methods[m.Name] = cm
	}
	st.Classes[decl.Name] = info
}

func sameMethodSignature(a, b *ClassMethod) bool {
	if len(a.Params) != len(b.Params) || a.ReturnType != b.ReturnType {
		return false
	}
	for i := range a.Params {
		if a.Params[i].TypeName != b.Params[i].TypeName || a.Params[i].ByRef != b.Params[i].ByRef {
			return false
		}
	}
	return true
}

func registerConstant(st *SymbolTable, bag *diag.Bag, n *ast.ConstantStmt) {
	lookup := func(name string) (constfold.Value, bool) {
		v, ok := st.Constants[name]
		return v, ok
	}
	v, err := constfold.Eval(n.Expr, lookup)
	if err != nil {
		bag.Error(diag.TypeMismatch, n.Loc, "CONSTANT %s requires a compile-time constant expression: %s", n.Name, err)
		return
	}
	st.Constants[n.Name] = v
}

func registerGlobal(st *SymbolTable, bag *diag.Bag, n *ast.GlobalStmt) {
	t, ok := st.typeFromName(n.TypeName)
	if !ok {
		t = types.Basic(baseTypeFromMangleSuffix(n.Name))
	}
	st.Globals[n.Name] = t
}

func registerDim(st *SymbolTable, bag *diag.Bag, fn *FuncInfo, n *ast.DimStmt) {
	var t types.TypeDescriptor
	switch {
	case n.ElementOf != "":
		elem, ok := st.typeFromName(n.ElementOf)
		if !ok {
			elem = types.Basic(types.Object)
		}
		t = types.ListOf(elem)
	default:
		var ok bool
		t, ok = st.typeFromName(n.TypeName)
		if !ok {
			t = types.Basic(baseTypeFromMangleSuffix(n.Name))
		}
	}

	if len(n.Dimensions) > 0 {
		if _, dup := fn.ArrayDims[n.Name]; dup {
			bag.Error(diag.ArrayRedeclared, n.Loc, "array %s declared more than once", n.Name)
		}
		dims := make([]int, len(n.Dimensions))
		lookup := func(name string) (constfold.Value, bool) {
			v, ok := st.Constants[name]
			return v, ok
		}
		for i, dimExpr := range n.Dimensions {
			v, err := constfold.Eval(dimExpr, lookup)
			if err != nil || v.Kind == constfold.KindString {
				dims[i] = -1
				continue
			}
			dims[i] = int(v.AsFloat())
		}
		fn.ArrayDims[n.Name] = dims
	}
	fn.Locals[n.Name] = t
}

func registerFunc(st *SymbolTable, bag *diag.Bag, name string, params []ast.Param, ret types.TypeDescriptor, isSub bool, loc token.Location) *FuncInfo {
	if _, dup := st.Functions[name]; dup {
		bag.Error(diag.FunctionRedeclared, loc, "%s declared more than once", name)
	}
	fn := newFuncInfo(name)
	fn.Params = params
	fn.ReturnType = ret
	fn.IsSub = isSub
	fn.Loc = loc
	for _, p := range params {
		pt, ok := st.typeFromName(p.TypeName)
		if !ok {
			pt = types.Basic(baseTypeFromMangleSuffix(p.Name))
		}
		fn.Locals[p.Name] = pt
	}
	if !isSub {
		// synthetic return-value variable under the function's own
		// (already mangled) name, per spec.md §4.3 item 8.
		fn.Locals[name] = ret
	}
	st.Functions[name] = fn
	return fn
}

func returnTypeFor(st *SymbolTable, mangledName, explicitType string) types.TypeDescriptor {
	if explicitType != "" {
		if t, ok := st.typeFromName(explicitType); ok {
			return t
		}
	}
	return types.Basic(baseTypeFromMangleSuffix(mangledName))
}

func registerTimer(st *SymbolTable, n *ast.TimerStmt) {
	if n.Handler != "" {
		st.TimerHandlers[n.Handler] = true
		return
	}
	synth := fmt.Sprintf("__TIMER_%d_%d", n.Loc.Line, n.Loc.Column)
	st.InlineTimerHandlers[n] = synth
	st.TimerHandlers[synth] = true
}
