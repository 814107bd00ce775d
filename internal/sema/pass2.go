package sema

import (
	"strconv"

	"basiccompiler/internal/ast"
	"basiccompiler/internal/constfold"
	"basiccompiler/internal/diag"
	"basiccompiler/internal/token"
	"basiccompiler/internal/types"
)

// scope threads the state Pass 2 needs while walking a single
// function/method/handler body: which FuncInfo owns its locals, which
// loop kinds are currently open (for EXIT validation), whether we are
// inside a TRY block, a timer handler, or a class method.
type scope struct {
	fn        *FuncInfo
	class     *ClassInfo
	loops     []string
	inTry     int
	inHandler bool
}

func (sc *scope) pushLoop(kind string) *scope {
	n := *sc
	n.loops = append(append([]string{}, sc.loops...), kind)
	return &n
}

// Pass2 implements spec.md §4.3 "Pass 2 — validation": name
// resolution against the Pass1 symbol table (with suffix-inferred
// implicit declaration outside OPTION EXPLICIT), GOTO/GOSUB/ON/RESTORE
// target resolution, expression type-checking through the coercion
// lattice, and control-flow/exception/class/timer contract checks.
// Grounded on the teacher's HoistingCompiler second walk that compiles
// statement bodies once declarations are known.
func Pass2(prog *ast.Program, st *SymbolTable, bag *diag.Bag) {
	var top []ast.Stmt
	for _, line := range prog.Lines {
		top = append(top, line.Statements...)
	}
	v := &validator{st: st, bag: bag}
	v.validateBody(top, &scope{fn: st.Main})
}

type validator struct {
	st  *SymbolTable
	bag *diag.Bag
}

func (v *validator) validateBody(stmts []ast.Stmt, sc *scope) {
	for _, s := range stmts {
		v.validateStmt(s, sc)
	}
}

func (v *validator) validateStmt(s ast.Stmt, sc *scope) {
	switch n := s.(type) {
	case *ast.DimStmt:
		if n.Init != nil {
			v.typeOf(n.Init, sc)
		}
	case *ast.RedimStmt:
		if _, ok := sc.fn.ArrayDims[n.Name]; !ok {
			v.bag.Error(diag.ArrayNotDeclared, n.Loc, "REDIM of %s without a prior DIM", n.Name)
		}
	case *ast.GlobalStmt:
		if n.Init != nil {
			v.typeOf(n.Init, sc)
		}
	case *ast.ConstantStmt:
		// already folded in Pass 1.
	case *ast.TypeDeclStmt, *ast.ClassDeclStmt:
		// handled below as a special case (see ClassDeclStmt branch).
		if cd, ok := s.(*ast.ClassDeclStmt); ok {
			v.validateClass(cd)
		}
	case *ast.SubDeclStmt:
		fn := v.st.Functions[n.Name]
		if fn == nil {
			fn = newFuncInfo(n.Name)
		}
		v.validateBody(n.Body, &scope{fn: fn})
	case *ast.FunctionDeclStmt:
		fn := v.st.Functions[n.Name]
		if fn == nil {
			fn = newFuncInfo(n.Name)
		}
		v.validateBody(n.Body, &scope{fn: fn})
	case *ast.LetStmt:
		v.checkAssign(n.Name, n.Expr, n.Loc, sc)
	case *ast.AssignStmt:
		v.checkAssign(n.Name, n.Expr, n.Loc, sc)
	case *ast.IndexAssignStmt:
		v.typeOf(n.Object, sc)
		for _, idx := range n.Indices {
			v.requireNumeric(idx, sc)
		}
		v.typeOf(n.Value, sc)
	case *ast.FieldAssignStmt:
		objType := v.typeOf(n.Object, sc)
		fieldType, ok := v.fieldType(objType, n.Field)
		if !ok {
			v.bag.Error(diag.UndefinedField, n.Loc, "unknown field %s", n.Field)
			return
		}
		valType := v.typeOf(n.Value, sc)
		v.checkCoercion(valType, fieldType, n.Loc, n.Field)
	case *ast.ExprStmt:
		v.typeOf(n.Expr, sc)
	case *ast.PrintStmt:
		for _, a := range n.Args {
			v.typeOf(a, sc)
		}
	case *ast.InputStmt:
		if sc.inHandler {
			v.bag.Error(diag.ControlFlowMismatch, n.Loc, "INPUT is not allowed inside a timer handler")
		}
		for _, a := range n.At {
			v.requireNumeric(a, sc)
		}
		v.resolveOrDeclare(n.Target, n.Loc, sc)
	case *ast.IfStmt:
		v.requireNumeric(n.Cond, sc)
		v.validateBody(n.Then, sc)
		for _, ei := range n.ElseIfs {
			v.requireNumeric(ei.Cond, sc)
			v.validateBody(ei.Body, sc)
		}
		v.validateBody(n.Else, sc)
	case *ast.ForStmt:
		v.requireNumeric(n.Start, sc)
		v.requireNumeric(n.End, sc)
		if n.Step != nil {
			v.requireNumeric(n.Step, sc)
		}
		v.resolveOrDeclare(n.Var, n.Loc, sc)
		v.validateBody(n.Body, sc.pushLoop("FOR"))
	case *ast.ForEachStmt:
		collType := v.typeOf(n.Collection, sc)
		if collType.Base != types.List && collType.Base != types.Hashmap {
			v.bag.Error(diag.TypeMismatch, n.Loc, "FOR EACH requires a LIST OF or HASHMAP OF collection")
		}
		v.validateBody(n.Body, sc.pushLoop("FOR"))
	case *ast.WhileStmt:
		v.requireNumeric(n.Cond, sc)
		v.validateBody(n.Body, sc.pushLoop("WHILE"))
	case *ast.DoLoopStmt:
		if n.PreCond != nil {
			v.requireNumeric(n.PreCond, sc)
		}
		if n.PostCond != nil {
			v.requireNumeric(n.PostCond, sc)
		}
		v.validateBody(n.Body, sc.pushLoop("DO"))
	case *ast.RepeatStmt:
		v.requireNumeric(n.Cond, sc)
		v.validateBody(n.Body, sc.pushLoop("REPEAT"))
	case *ast.ExitStmt:
		if !v.loopOpen(sc, n.What) {
			v.bag.Error(diag.ControlFlowMismatch, n.Loc, "EXIT %s outside a matching loop", n.What)
		}
	case *ast.SelectCaseStmt:
		v.typeOf(n.Discriminant, sc)
		otherwiseSeen := false
		for _, arm := range n.Arms {
			if arm.Otherwise {
				if otherwiseSeen {
					v.bag.Error(diag.ControlFlowMismatch, n.Loc, "SELECT CASE has more than one OTHERWISE arm")
				}
				otherwiseSeen = true
			}
			for _, val := range arm.Values {
				v.typeOf(val, sc)
			}
			v.validateBody(arm.Body, sc)
		}
	case *ast.MatchTypeStmt:
		valType := v.typeOf(n.Value, sc)
		if valType.Base != types.ClassInstance {
			v.bag.Error(diag.TypeMismatch, n.Loc, "MATCH TYPE requires a class-instance expression")
		}
		for _, arm := range n.Arms {
			armSc := *sc
			if arm.TypeName != "" {
				if _, ok := v.st.Classes[arm.TypeName]; !ok {
					v.bag.Error(diag.UndefinedClass, n.Loc, "unknown class %s in MATCH TYPE arm", arm.TypeName)
				}
				if arm.BindVar != "" {
					armSc.fn.Locals[arm.BindVar] = types.Class(arm.TypeName)
				}
			}
			v.validateBody(arm.Body, &armSc)
		}
	case *ast.TryStmt:
		v.validateBody(n.Body, sc.bumpTry())
		seen := map[int]bool{}
		catchAllSeen := false
		for _, c := range n.Catches {
			if catchAllSeen {
				v.bag.Error(diag.ControlFlowMismatch, n.Loc, "CATCH-all must be the last CATCH arm")
			}
			if len(c.Codes) == 0 {
				catchAllSeen = true
			}
			for _, code := range c.Codes {
				if code <= 0 {
					v.bag.Error(diag.TypeMismatch, n.Loc, "CATCH code must be a positive integer, got %d", code)
				}
				if seen[code] {
					v.bag.Error(diag.ControlFlowMismatch, n.Loc, "duplicate CATCH code %d", code)
				}
				seen[code] = true
			}
			armSc := *sc
			if c.BindVar != "" {
				armSc.fn.Locals[c.BindVar] = types.Basic(types.Integer)
			}
			v.validateBody(c.Body, &armSc)
		}
		v.validateBody(n.Finally, sc)
	case *ast.ThrowStmt:
		v.requireNumeric(n.Code, sc)
	case *ast.GotoStmt:
		v.resolveTarget(n.Target, n.IsLabel, n.LineNum, n.Loc)
	case *ast.GosubStmt:
		v.resolveTarget(n.Target, n.IsLabel, n.LineNum, n.Loc)
	case *ast.OnGotoStmt:
		v.requireNumeric(n.Selector, sc)
		for _, t := range n.Targets {
			v.resolveTargetString(t, n.Loc)
		}
	case *ast.OnGosubStmt:
		v.requireNumeric(n.Selector, sc)
		for _, t := range n.Targets {
			v.resolveTargetString(t, n.Loc)
		}
	case *ast.OnCallStmt:
		v.requireNumeric(n.Selector, sc)
		for _, t := range n.Targets {
			fn, ok := v.st.Functions[t]
			if !ok || !fn.IsSub {
				v.bag.Error(diag.UndefinedFunction, n.Loc, "ON ... CALL target %s must name a declared SUB", t)
			}
		}
	case *ast.ReturnStmt:
		isGosubReturn := sc.fn == v.st.Main || sc.fn.IsSub
		if n.Value != nil {
			if isGosubReturn {
				v.bag.Error(diag.ControlFlowMismatch, n.Loc, "RETURN with a value is only valid inside a FUNCTION")
				return
			}
			valType := v.typeOf(n.Value, sc)
			v.checkCoercion(valType, sc.fn.ReturnType, n.Loc, sc.fn.Name)
		}
	case *ast.RestoreStmt:
		v.resolveTarget(n.Target, n.IsLabel, n.LineNum, n.Loc)
	case *ast.ReadStmt:
		for _, t := range n.Targets {
			v.resolveOrDeclare(t, n.Loc, sc)
		}
	case *ast.TimerStmt:
		handler := n.Handler
		if n.InlineBody != nil {
			handler = v.st.InlineTimerHandlers[n]
		}
		fn, ok := v.st.Functions[handler]
		if !ok {
			v.bag.Error(diag.UndefinedFunction, n.Loc, "timer handler %s is not declared", handler)
			return
		}
		if len(fn.Params) != 0 {
			v.bag.Error(diag.ArgumentCountMismatch, n.Loc, "timer handler %s must take no parameters", handler)
		}
		if n.InlineBody != nil {
			v.validateBody(n.InlineBody, &scope{fn: fn, inHandler: true})
		}
	case *ast.DeleteStmt:
		t := v.typeOf(n.Target, sc)
		if t.Base != types.ClassInstance && t.Base != types.List && t.Base != types.Hashmap {
			v.bag.Error(diag.TypeMismatch, n.Loc, "DELETE target is not a class instance, LIST, or HASHMAP")
		}
	case *ast.CallStmt:
		fn, ok := v.st.Functions[n.Name]
		if !ok {
			v.bag.Error(diag.UndefinedFunction, n.Loc, "call to undeclared SUB/FUNCTION %s", n.Name)
			return
		}
		if len(n.Args) != len(fn.Params) {
			v.bag.Error(diag.ArgumentCountMismatch, n.Loc, "%s expects %d argument(s), got %d", n.Name, len(fn.Params), len(n.Args))
		}
		for _, a := range n.Args {
			v.typeOf(a, sc)
		}
	}
}

func (v *validator) validateClass(decl *ast.ClassDeclStmt) {
	info, ok := v.st.Classes[decl.Name]
	if !ok {
		return
	}
	for _, m := range decl.Methods {
		cm := info.Methods[m.Name]
		if cm == nil {
			continue
		}
		fn := newFuncInfo(cm.Name)
		fn.ReturnType, _ = v.st.typeFromName(m.ReturnType)
		for _, p := range m.Params {
			pt, ok := v.st.typeFromName(p.TypeName)
			if !ok {
				pt = types.Basic(baseTypeFromMangleSuffix(p.Name))
			}
			fn.Locals[p.Name] = pt
		}
		v.validateBody(m.Body, &scope{fn: fn, class: info})
	}
}

func (v *validator) loopOpen(sc *scope, what string) bool {
	if what == "" {
		return len(sc.loops) > 0
	}
	for _, k := range sc.loops {
		if k == what {
			return true
		}
	}
	return false
}

func (sc *scope) bumpTry() *scope {
	n := *sc
	n.inTry++
	return &n
}

func (v *validator) resolveTarget(target string, isLabel bool, lineNum int, loc token.Location) {
	if isLabel {
		if _, ok := v.st.Labels[target]; !ok {
			v.bag.Error(diag.UndefinedLabel, loc, "undefined label %s", target)
		}
		return
	}
	if _, ok := v.st.LineNumbers[lineNum]; !ok {
		v.bag.Error(diag.UndefinedLine, loc, "undefined line number %d", lineNum)
	}
}

func (v *validator) resolveTargetString(target string, loc token.Location) {
	if n, err := strconv.Atoi(target); err == nil {
		if _, ok := v.st.LineNumbers[n]; !ok {
			v.bag.Error(diag.UndefinedLine, loc, "undefined line number %d", n)
		}
		return
	}
	if _, ok := v.st.Labels[target]; !ok {
		v.bag.Error(diag.UndefinedLabel, loc, "undefined label %s", target)
	}
}

func (v *validator) checkAssign(name string, expr ast.Expr, loc token.Location, sc *scope) {
	target := v.resolveOrDeclare(name, loc, sc)
	valType := v.typeOf(expr, sc)
	v.checkCoercion(valType, target, loc, name)
}

func (v *validator) checkCoercion(from, to types.TypeDescriptor, loc token.Location, what string) {
	if from.Base == types.ClassInstance && from.ClassName == "" && to.Base == types.ClassInstance {
		return // NOTHING is assignable to any class reference.
	}
	switch types.CheckCoercion(from, to) {
	case types.Incompatible:
		v.bag.Error(diag.TypeMismatch, loc, "cannot assign %s to %s (incompatible types)", from.Base, what)
	case types.ExplicitRequired:
		v.bag.Error(diag.TypeMismatch, loc, "assigning to %s requires an explicit conversion", what)
	}
}

// resolveOrDeclare resolves a name against the active scope, the
// symbol table's globals/constants, or — outside OPTION EXPLICIT —
// implicitly declares it from its suffix, exactly as spec.md §4.3
// Pass 2 describes.
func (v *validator) resolveOrDeclare(name string, loc token.Location, sc *scope) types.TypeDescriptor {
	if v.st.ForEachVars[name] {
		return types.Basic(types.Object)
	}
	if t, ok := sc.fn.Locals[name]; ok {
		return t
	}
	if t, ok := v.st.Globals[name]; ok {
		return t
	}
	if val, ok := v.st.Constants[name]; ok {
		return constantType(val)
	}
	if v.st.Options.Explicit {
		v.bag.Error(diag.UndefinedVariable, loc, "undeclared variable %s (OPTION EXPLICIT is set)", name)
		return types.Basic(types.Double)
	}
	t := types.Basic(baseTypeFromMangleSuffix(name))
	sc.fn.Locals[name] = t
	return t
}

func constantType(v constfold.Value) types.TypeDescriptor {
	switch v.Kind {
	case constfold.KindString:
		return types.Basic(types.String)
	case constfold.KindFloat:
		return types.Basic(types.Double)
	default:
		return types.Basic(types.Integer)
	}
}

func (v *validator) requireNumeric(expr ast.Expr, sc *scope) {
	t := v.typeOf(expr, sc)
	if !t.IsNumeric() {
		v.bag.Error(diag.TypeMismatch, expr.Location(), "expected a numeric expression")
	}
}

func (v *validator) fieldType(objType types.TypeDescriptor, field string) (types.TypeDescriptor, bool) {
	switch objType.Base {
	case types.UserDefined:
		if udt, ok := v.st.Types[objType.UDTName]; ok {
			for _, f := range udt.Fields {
				if f.Name == field {
					return f.Type, true
				}
			}
		}
	case types.ClassInstance:
		if class, ok := v.st.Classes[objType.ClassName]; ok {
			for _, f := range class.Fields {
				if f.Name == field {
					return f.Type, true
				}
			}
		}
	}
	return types.TypeDescriptor{}, false
}

// typeOf type-checks an expression and returns its static type,
// reporting diagnostics for unresolved names/fields/methods along the
// way. On error it returns a permissive fallback type so a single bad
// subexpression doesn't cascade into spurious further errors.
func (v *validator) typeOf(e ast.Expr, sc *scope) types.TypeDescriptor {
	switch n := e.(type) {
	case *ast.NumberLit:
		return numberLiteralType(n.Raw)
	case *ast.StringLit:
		return types.Basic(types.String)
	case *ast.NothingLit:
		return types.TypeDescriptor{Base: types.ClassInstance, ClassName: ""}
	case *ast.Variable:
		return v.resolveOrDeclare(n.Name, n.Loc, sc)
	case *ast.Unary:
		operand := v.typeOf(n.Operand, sc)
		if n.Operator == "NOT" {
			return types.Basic(types.Integer)
		}
		return operand
	case *ast.Binary:
		left := v.typeOf(n.Left, sc)
		right := v.typeOf(n.Right, sc)
		if isComparisonOperator(n.Operator) {
			return types.Basic(types.Integer)
		}
		if n.Operator == "+" && left.IsString() && right.IsString() {
			return types.Basic(types.String)
		}
		return widerNumeric(left, right)
	case *ast.Logical:
		v.typeOf(n.Left, sc)
		v.typeOf(n.Right, sc)
		return types.Basic(types.Integer)
	case *ast.Call:
		return v.typeOfCall(n, sc)
	case *ast.Index:
		return v.typeOfIndex(n, sc)
	case *ast.FieldAccess:
		objType := v.typeOf(n.Object, sc)
		t, ok := v.fieldType(objType, n.Field)
		if !ok {
			v.bag.Error(diag.UndefinedField, n.Loc, "unknown field %s", n.Field)
			return types.Basic(types.Double)
		}
		return t
	case *ast.MethodCall:
		return v.typeOfMethodCall(n, sc)
	case *ast.NewExpr:
		if _, ok := v.st.Classes[n.ClassName]; !ok {
			v.bag.Error(diag.UndefinedClass, n.Loc, "unknown class %s", n.ClassName)
		}
		for _, a := range n.Args {
			v.typeOf(a, sc)
		}
		return types.Class(n.ClassName)
	case *ast.IsNothing:
		v.typeOf(n.Object, sc)
		return types.Basic(types.Integer)
	case *ast.IsClass:
		v.typeOf(n.Object, sc)
		if _, ok := v.st.Classes[n.ClassName]; !ok {
			v.bag.Error(diag.UndefinedClass, n.Loc, "unknown class %s", n.ClassName)
		}
		return types.Basic(types.Integer)
	case *ast.SuperCall:
		if sc.class == nil || sc.class.Parent == "" {
			v.bag.Error(diag.ClassError, n.Loc, "SUPER used outside a derived class method")
			return types.Basic(types.Double)
		}
		parent := v.st.Classes[sc.class.Parent]
		if parent == nil {
			return types.Basic(types.Double)
		}
		method, ok := parent.Methods[n.Method]
		if !ok {
			v.bag.Error(diag.UndefinedFunction, n.Loc, "SUPER.%s is not declared on %s", n.Method, sc.class.Parent)
			return types.Basic(types.Double)
		}
		for _, a := range n.Args {
			v.typeOf(a, sc)
		}
		t, _ := v.st.typeFromName(method.ReturnType)
		return t
	case *ast.ArrayLit:
		var elemType types.TypeDescriptor
		for i, el := range n.Elements {
			t := v.typeOf(el, sc)
			if i == 0 {
				elemType = t
			}
		}
		return elemType
	}
	return types.Basic(types.Double)
}

func (v *validator) typeOfIndex(n *ast.Index, sc *scope) types.TypeDescriptor {
	objType := v.typeOf(n.Object, sc)
	for _, idx := range n.Indices {
		v.requireNumeric(idx, sc)
	}
	if objType.Base == types.List || objType.Base == types.Hashmap {
		if objType.ListElement != nil {
			return *objType.ListElement
		}
		return types.Basic(types.Object)
	}
	if variable, ok := n.Object.(*ast.Variable); ok {
		if dims, ok := sc.fn.ArrayDims[variable.Name]; ok && len(n.Indices) != len(dims) {
			v.bag.Error(diag.WrongDimensionCount, n.Loc, "%s expects %d dimension(s), got %d", variable.Name, len(dims), len(n.Indices))
		}
	}
	return objType
}

func (v *validator) typeOfCall(n *ast.Call, sc *scope) types.TypeDescriptor {
	for _, a := range n.Args {
		v.typeOf(a, sc)
	}
	if fn, ok := v.st.Functions[n.Callee]; ok {
		if len(n.Args) != len(fn.Params) {
			v.bag.Error(diag.ArgumentCountMismatch, n.Loc, "%s expects %d argument(s), got %d", n.Callee, len(fn.Params), len(n.Args))
		}
		return fn.ReturnType
	}
	if t, ok := builtinReturnType(n.Callee); ok {
		return t
	}
	v.bag.Error(diag.UndefinedFunction, n.Loc, "undeclared function %s", n.Callee)
	return types.Basic(types.Double)
}

func (v *validator) typeOfMethodCall(n *ast.MethodCall, sc *scope) types.TypeDescriptor {
	objType := v.typeOf(n.Object, sc)
	for _, a := range n.Args {
		v.typeOf(a, sc)
	}
	if objType.Base != types.ClassInstance {
		v.bag.Error(diag.TypeMismatch, n.Loc, "%s is not a class instance", n.Method)
		return types.Basic(types.Double)
	}
	class, ok := v.st.Classes[objType.ClassName]
	if !ok {
		return types.Basic(types.Double)
	}
	method, ok := class.Methods[n.Method]
	if !ok {
		v.bag.Error(diag.UndefinedFunction, n.Loc, "%s has no method %s", objType.ClassName, n.Method)
		return types.Basic(types.Double)
	}
	t, _ := v.st.typeFromName(method.ReturnType)
	return t
}

func isComparisonOperator(op string) bool {
	switch op {
	case "=", "<>", "<", ">", "<=", ">=":
		return true
	default:
		return false
	}
}

func widerNumeric(a, b types.TypeDescriptor) types.TypeDescriptor {
	if a.Base == types.Double || b.Base == types.Double {
		return types.Basic(types.Double)
	}
	if a.Base == types.Single || b.Base == types.Single {
		return types.Basic(types.Single)
	}
	if a.Base == types.Long || b.Base == types.Long {
		return types.Basic(types.Long)
	}
	return types.Basic(types.Integer)
}

func numberLiteralType(raw string) types.TypeDescriptor {
	for _, r := range raw {
		if r == '.' || r == 'e' || r == 'E' {
			return types.Basic(types.Double)
		}
	}
	return types.Basic(types.Integer)
}

// builtinReturnType covers the compiler-recognized built-in functions
// that aren't user FUNCTIONs (spec.md §4.4/§6). String-valued builtins
// return STRING; everything else is numeric.
func builtinReturnType(name string) (types.TypeDescriptor, bool) {
	switch name {
	case "LEFT$", "RIGHT$", "MID$", "CHR$", "STR$":
		return types.Basic(types.String), true
	case "LEN", "SGN", "CINT", "INT", "FIX":
		return types.Basic(types.Integer), true
	case "ABS", "SIN", "COS", "TAN", "ATN", "SQR", "LOG", "EXP", "VAL", "MIN", "MAX":
		return types.Basic(types.Double), true
	default:
		return types.TypeDescriptor{}, false
	}
}
