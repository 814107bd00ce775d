package irgen

import (
	"strconv"
	"strings"

	"basiccompiler/internal/ast"
	"basiccompiler/internal/ir"
	"basiccompiler/internal/types"
)

func (fg *funcGen) emitBody(stmts []ast.Stmt) {
	for _, s := range stmts {
		fg.emitStmt(s)
	}
}

// emitStmt lowers one statement, matching the type-switch idiom
// internal/sema's validator already uses over the same AST.
func (fg *funcGen) emitStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.DimStmt:
		fg.emitInit(n.Name, n.Init)
	case *ast.RedimStmt:
		fg.emitRedim(n)
	case *ast.GlobalStmt:
		fg.emitInit(n.Name, n.Init)
	case *ast.ConstantStmt, *ast.TypeDeclStmt, *ast.ClassDeclStmt,
		*ast.SubDeclStmt, *ast.FunctionDeclStmt, *ast.OptionStmt, *ast.NopStmt, *ast.DataStmt:
		// Declarations are lowered once, up front in Generate; nothing
		// to emit at the point they appear in a statement stream.
	case *ast.LetStmt:
		fg.emitAssign(n.Name, n.Expr)
	case *ast.AssignStmt:
		fg.emitAssign(n.Name, n.Expr)
	case *ast.IndexAssignStmt:
		fg.emitIndexAssign(n)
	case *ast.FieldAssignStmt:
		fg.emitFieldAssign(n)
	case *ast.ExprStmt:
		fg.evalExpr(n.Expr)
	case *ast.PrintStmt:
		fg.emitPrint(n)
	case *ast.InputStmt:
		fg.emitInput(n)
	case *ast.IfStmt:
		fg.emitIf(n)
	case *ast.ForStmt:
		fg.emitFor(n)
	case *ast.ForEachStmt:
		fg.emitForEach(n)
	case *ast.WhileStmt:
		fg.emitWhile(n)
	case *ast.DoLoopStmt:
		fg.emitDoLoop(n)
	case *ast.RepeatStmt:
		fg.emitRepeat(n)
	case *ast.ExitStmt:
		fg.emitExit(n)
	case *ast.SelectCaseStmt:
		fg.emitSelectCase(n)
	case *ast.MatchTypeStmt:
		fg.emitMatchType(n)
	case *ast.TryStmt:
		fg.emitTry(n)
	case *ast.ThrowStmt:
		code := fg.evalExpr(n.Code)
		fg.emit(ir.Instr{Op: "call", Args: []string{"$runtime_throw", code.ref}})
	case *ast.GotoStmt:
		fg.jumpToTarget(n.Target, n.IsLabel, n.LineNum)
	case *ast.GosubStmt:
		fg.emitGosub(n)
	case *ast.OnGotoStmt:
		fg.emitOnGoto(n, false)
	case *ast.OnGosubStmt:
		fg.emitOnGosub(n)
	case *ast.OnCallStmt:
		fg.emitOnCall(n)
	case *ast.ReturnStmt:
		fg.emitReturn(n)
	case *ast.RestoreStmt:
		fg.emitRestore(n)
	case *ast.ReadStmt:
		fg.emitRead(n)
	case *ast.TimerStmt:
		fg.emitTimer(n)
	case *ast.DeleteStmt:
		obj := fg.evalExpr(n.Target)
		fg.emit(ir.Instr{Op: "call", Args: []string{"$class_release", obj.ref}})
	case *ast.CallStmt:
		fg.emitCallStmt(n)
	case *ast.LabelStmt:
		fg.emitLabel(n)
	default:
		// Unrecognized statement shapes are a generator bug, not a
		// user error; sema would already have rejected bad input.
	}
}

func (fg *funcGen) emitInit(name string, init ast.Expr) {
	if init == nil {
		return
	}
	ref, ok := fg.resolveVar(name)
	if !ok {
		return
	}
	v := fg.evalExpr(init)
	fg.storeRef(ref, fg.coerce(v, ref.typ))
}

func (fg *funcGen) emitAssign(name string, expr ast.Expr) {
	ref, ok := fg.resolveVar(name)
	if !ok {
		return
	}
	v := fg.evalExpr(expr)
	fg.storeRef(ref, fg.coerce(v, ref.typ))
}

// coerce inserts the conversion instruction the coercion lattice
// requires between v's static type and the destination's, e.g.
// widening an INTEGER into a LONG slot or truncating a DOUBLE into an
// INTEGER one (spec.md §4.3/§4.6).
func (fg *funcGen) coerce(v val, to types.TypeDescriptor) val {
	if v.typ.Equal(to) || to.Base == types.Unknown {
		return v
	}
	fromT, toT := irType(v.typ), irType(to)
	if fromT == toT {
		return val{ref: v.ref, typ: to}
	}
	op := ""
	switch {
	case v.typ.IsInteger() && to.IsFloat():
		op = "swtof"
	case v.typ.IsFloat() && to.IsInteger():
		op = "stosi"
	case v.typ.IsInteger() && to.IsInteger():
		if to.BitWidth() > v.typ.BitWidth() {
			op = "extsw"
		}
	}
	if op == "" {
		return val{ref: v.ref, typ: to}
	}
	dst := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: dst, Type: toT, Op: op, Args: []string{v.ref}})
	return val{ref: "%" + dst, typ: to}
}

func (fg *funcGen) emitRedim(n *ast.RedimStmt) {
	ref, ok := fg.resolveVar(n.Name)
	if !ok {
		return
	}
	arr := fg.loadRef(ref)
	dims := fg.evalExpr(n.Dimensions[0])
	call := "array_redim"
	if n.Preserve {
		call = "array_redim_preserve"
	}
	dst := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: dst, Type: ir.L, Op: "call", Args: []string{"$" + call, arr.ref, dims.ref}})
	fg.storeRef(ref, val{ref: "%" + dst, typ: ref.typ})
}

func (fg *funcGen) emitIndexAssign(n *ast.IndexAssignStmt) {
	obj := fg.evalExpr(n.Object)
	idx := fg.evalExpr(n.Indices[0])
	v := fg.evalExpr(n.Value)
	if fg.g.st.Options.BoundsCheck {
		fg.emit(ir.Instr{Op: "call", Args: []string{"$array_bounds_check", obj.ref, idx.ref}})
	}
	fg.emit(ir.Instr{Op: "call", Args: []string{"$array_set", obj.ref, idx.ref, v.ref}})
}

func (fg *funcGen) emitFieldAssign(n *ast.FieldAssignStmt) {
	objT := fg.exprClassType(n.Object)
	obj := fg.evalExpr(n.Object)
	v := fg.evalExpr(n.Value)
	if cls, ok := fg.g.st.Classes[objT]; ok {
		for _, f := range cls.Fields {
			if f.Name == n.Field {
				addr := fg.offsetAddr(obj.ref, f.Offset)
				fg.emit(ir.Instr{Op: storeOp(irType(f.Type)), Args: []string{fg.coerce(v, f.Type).ref, addr}})
				return
			}
		}
	}
	if udt, ok := fg.g.st.Types[objT]; ok {
		for _, f := range udt.Fields {
			if f.Name == n.Field {
				addr := fg.offsetAddr(obj.ref, f.Offset)
				fg.emit(ir.Instr{Op: storeOp(irType(f.Type)), Args: []string{fg.coerce(v, f.Type).ref, addr}})
				return
			}
		}
	}
}

func (fg *funcGen) emitPrint(n *ast.PrintStmt) {
	for _, a := range n.Args {
		v := fg.evalExpr(a)
		runtimeCall := printCallFor(v.typ)
		fg.emit(ir.Instr{Op: "call", Args: []string{"$" + runtimeCall, v.ref}})
	}
	if !n.TrailingSeparator {
		fg.emit(ir.Instr{Op: "call", Args: []string{"$print_newline"}})
	}
}

func printCallFor(t types.TypeDescriptor) string {
	switch {
	case t.IsString():
		return "print_string"
	case t.Base == types.Long || t.Base == types.ULong:
		return "print_long"
	case t.IsFloat():
		return "print_double"
	default:
		return "print_int"
	}
}

func (fg *funcGen) emitInput(n *ast.InputStmt) {
	prompt := fg.g.addStringData(n.Prompt)
	dst := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: dst, Type: ir.L, Op: "call", Args: []string{"$input_line", prompt}})
	ref, ok := fg.resolveVar(n.Target)
	if !ok {
		return
	}
	fg.storeRef(ref, fg.coerce(val{ref: "%" + dst, typ: types.Basic(types.String)}, ref.typ))
}

func (fg *funcGen) emitIf(n *ast.IfStmt) {
	merge := fg.fn.NewBlock("")

	fg.emitCondBranch(n.Cond, n.Then, n.ElseIfs, n.Else, merge)

	fg.switchTo(merge)
}

// emitCondBranch recursively lowers IF/ELSEIF chains: a test block
// per condition, each THEN/ELSEIF body jumping straight to the shared
// merge block, falling through to the final ELSE (or straight to
// merge if there is none).
func (fg *funcGen) emitCondBranch(cond ast.Expr, then []ast.Stmt, elseIfs []ast.ElseIf, els []ast.Stmt, merge *ir.Block) {
	c := fg.evalExpr(cond)
	thenBlock := fg.fn.NewBlock("")
	elseBlock := fg.fn.NewBlock("")
	fg.emit(ir.Instr{Op: "jnz", Args: []string{c.ref, "@" + thenBlock.Label, "@" + elseBlock.Label}})

	fg.switchTo(thenBlock)
	fg.emitBody(then)
	fg.jumpTo(merge)

	fg.switchTo(elseBlock)
	if len(elseIfs) > 0 {
		fg.emitCondBranch(elseIfs[0].Cond, elseIfs[0].Body, elseIfs[1:], els, merge)
		return
	}
	fg.emitBody(els)
	fg.jumpTo(merge)
}

func (fg *funcGen) jumpTo(b *ir.Block) {
	fg.emit(ir.Instr{Op: "jmp", Args: []string{"@" + b.Label}})
	fg.switchTo(b)
	// jumpTo always leaves the generator positioned at the merge
	// block so callers can keep emitting without an extra switchTo;
	// marking it not-yet-ended lets the next statement land there.
	fg.ended = false
}

// emitFor lowers FOR into the canonical header/body/step three-block
// shape of spec.md §4.6, typed per OPTION FOR.
func (fg *funcGen) emitFor(n *ast.ForStmt) {
	ref, ok := fg.resolveVar(n.Var)
	if !ok {
		return
	}
	start := fg.evalExpr(n.Start)
	fg.storeRef(ref, fg.coerce(start, ref.typ))

	header := fg.fn.NewBlock("")
	body := fg.fn.NewBlock("")
	step := fg.fn.NewBlock("")
	merge := fg.fn.NewBlock("")

	fg.jumpTo(header)
	endV := fg.evalExpr(n.End)
	cur := fg.loadRef(ref)
	test := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: test, Type: irType(ref.typ), Op: "cle", Args: []string{cur.ref, endV.ref}})
	fg.emit(ir.Instr{Op: "jnz", Args: []string{"%" + test, "@" + body.Label, "@" + merge.Label}})

	fg.switchTo(body)
	fg.loopMerge = append(fg.loopMerge, merge)
	fg.emitBody(n.Body)
	fg.loopMerge = fg.loopMerge[:len(fg.loopMerge)-1]
	fg.jumpTo(step)

	stepV := val{ref: "1", typ: ref.typ}
	if n.Step != nil {
		stepV = fg.evalExpr(n.Step)
	}
	cur2 := fg.loadRef(ref)
	next := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: next, Type: irType(ref.typ), Op: "add", Args: []string{cur2.ref, stepV.ref}})
	fg.storeRef(ref, val{ref: "%" + next, typ: ref.typ})
	if fg.g.st.Options.Cancellable {
		fg.emitCancelCheck()
	}
	fg.jumpTo(header)

	fg.switchTo(merge)
}

func (fg *funcGen) emitCancelCheck() {
	c := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: c, Type: ir.W, Op: "call", Args: []string{"$runtime_cancelled"}})
	cont := fg.fn.NewBlock("")
	stop := fg.fn.NewBlock("")
	fg.emit(ir.Instr{Op: "jnz", Args: []string{"%" + c, "@" + stop.Label, "@" + cont.Label}})
	fg.switchTo(stop)
	fg.emit(ir.Instr{Op: "ret"})
	fg.switchTo(cont)
}

// emitForEach lowers a FOR EACH over a runtime list via list_length/
// list_get, optionally binding the MATCH TYPE tag variable for the
// `FOR EACH T, E IN` form over a LIST OF ANY (spec.md §4.6).
func (fg *funcGen) emitForEach(n *ast.ForEachStmt) {
	coll := fg.evalExpr(n.Collection)
	idxSlot := "s_foreach_idx_" + strconv.Itoa(fg.tempSeq)
	fg.tempSeq++
	fg.emit(ir.Instr{Dest: idxSlot, Type: ir.L, Op: "alloc8"})
	fg.emit(ir.Instr{Op: storeOp(ir.L), Args: []string{"0", "%" + idxSlot}})

	header := fg.fn.NewBlock("")
	body := fg.fn.NewBlock("")
	merge := fg.fn.NewBlock("")
	fg.jumpTo(header)

	length := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: length, Type: ir.L, Op: "call", Args: []string{"$list_length", coll.ref}})
	idx := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: idx, Type: ir.L, Op: loadOp(ir.L), Args: []string{"%" + idxSlot}})
	test := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: test, Type: ir.L, Op: "clt", Args: []string{"%" + idx, "%" + length}})
	fg.emit(ir.Instr{Op: "jnz", Args: []string{"%" + test, "@" + body.Label, "@" + merge.Label}})

	fg.switchTo(body)
	elem := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: elem, Type: ir.L, Op: "call", Args: []string{"$list_get", coll.ref, "%" + idx}})
	if ref, ok := fg.resolveVar(n.ElementVar); ok {
		fg.storeRef(ref, val{ref: "%" + elem, typ: ref.typ})
	}
	if n.TypeVar != "" {
		tag := fg.fn.NewTemp()
		fg.emit(ir.Instr{Dest: tag, Type: ir.W, Op: "call", Args: []string{"$list_type_tag", coll.ref, "%" + idx}})
		if ref, ok := fg.resolveVar(n.TypeVar); ok {
			fg.storeRef(ref, val{ref: "%" + tag, typ: ref.typ})
		}
	}
	fg.loopMerge = append(fg.loopMerge, merge)
	fg.emitBody(n.Body)
	fg.loopMerge = fg.loopMerge[:len(fg.loopMerge)-1]
	next := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: next, Type: ir.L, Op: "add", Args: []string{"%" + idx, "1"}})
	fg.emit(ir.Instr{Op: storeOp(ir.L), Args: []string{"%" + next, "%" + idxSlot}})
	fg.jumpTo(header)

	fg.switchTo(merge)
}

func (fg *funcGen) emitWhile(n *ast.WhileStmt) {
	header := fg.fn.NewBlock("")
	body := fg.fn.NewBlock("")
	merge := fg.fn.NewBlock("")
	fg.jumpTo(header)
	c := fg.evalExpr(n.Cond)
	fg.emit(ir.Instr{Op: "jnz", Args: []string{c.ref, "@" + body.Label, "@" + merge.Label}})

	fg.switchTo(body)
	fg.loopMerge = append(fg.loopMerge, merge)
	fg.emitBody(n.Body)
	fg.loopMerge = fg.loopMerge[:len(fg.loopMerge)-1]
	fg.jumpTo(header)

	fg.switchTo(merge)
}

func (fg *funcGen) emitDoLoop(n *ast.DoLoopStmt) {
	header := fg.fn.NewBlock("")
	body := fg.fn.NewBlock("")
	merge := fg.fn.NewBlock("")
	fg.jumpTo(header)

	if n.PreCond != nil {
		c := fg.evalExpr(n.PreCond)
		if n.PreIsUntil {
			t := fg.fn.NewTemp()
			fg.emit(ir.Instr{Dest: t, Type: ir.W, Op: "ceq", Args: []string{c.ref, "0"}})
			c = val{ref: "%" + t}
		}
		fg.emit(ir.Instr{Op: "jnz", Args: []string{c.ref, "@" + body.Label, "@" + merge.Label}})
	} else {
		fg.jumpTo(body)
	}

	fg.switchTo(body)
	fg.loopMerge = append(fg.loopMerge, merge)
	fg.emitBody(n.Body)
	fg.loopMerge = fg.loopMerge[:len(fg.loopMerge)-1]

	if n.PostCond != nil {
		c := fg.evalExpr(n.PostCond)
		if n.PostIsUntil {
			t := fg.fn.NewTemp()
			fg.emit(ir.Instr{Dest: t, Type: ir.W, Op: "ceq", Args: []string{c.ref, "0"}})
			c = val{ref: "%" + t}
		}
		fg.emit(ir.Instr{Op: "jnz", Args: []string{c.ref, "@" + header.Label, "@" + merge.Label}})
	} else {
		fg.jumpTo(header)
	}

	fg.switchTo(merge)
}

func (fg *funcGen) emitRepeat(n *ast.RepeatStmt) {
	body := fg.fn.NewBlock("")
	merge := fg.fn.NewBlock("")
	fg.jumpTo(body)
	fg.loopMerge = append(fg.loopMerge, merge)
	fg.emitBody(n.Body)
	fg.loopMerge = fg.loopMerge[:len(fg.loopMerge)-1]
	c := fg.evalExpr(n.Cond)
	fg.emit(ir.Instr{Op: "jnz", Args: []string{c.ref, "@" + merge.Label, "@" + body.Label}})
	fg.switchTo(merge)
}

func (fg *funcGen) emitExit(n *ast.ExitStmt) {
	if len(fg.loopMerge) == 0 {
		return
	}
	fg.jumpTo(fg.loopMerge[len(fg.loopMerge)-1])
}

// emitSelectCase lowers SELECT CASE to the equality/range/relational
// test chain of spec.md §4.6, with per-arm state tracked in
// fg.selectArms the same way the dedicated SELECT CASE arm-emission
// state machine spec.md §4.6 describes.
func (fg *funcGen) emitSelectCase(n *ast.SelectCaseStmt) {
	disc := fg.evalExpr(n.Discriminant)
	merge := fg.fn.NewBlock("")
	fg.selectArms[n] = 0

	for _, arm := range n.Arms {
		fg.selectArms[n]++
		if arm.Otherwise {
			fg.emitBody(arm.Body)
			fg.jumpTo(merge)
			continue
		}
		matchBlock := fg.fn.NewBlock("")
		nextBlock := fg.fn.NewBlock("")
		cond := fg.selectArmTest(disc, arm)
		fg.emit(ir.Instr{Op: "jnz", Args: []string{cond, "@" + matchBlock.Label, "@" + nextBlock.Label}})

		fg.switchTo(matchBlock)
		fg.emitBody(arm.Body)
		fg.jumpTo(merge)

		fg.switchTo(nextBlock)
	}
	fg.jumpTo(merge)
	fg.switchTo(merge)
}

func (fg *funcGen) selectArmTest(disc val, arm ast.CaseArm) string {
	var acc string
	or := func(a, b string) string {
		if a == "" {
			return b
		}
		dst := fg.fn.NewTemp()
		fg.emit(ir.Instr{Dest: dst, Type: ir.W, Op: "or", Args: []string{a, b}})
		return "%" + dst
	}
	for _, v := range arm.Values {
		rv := fg.evalExpr(v)
		dst := fg.fn.NewTemp()
		fg.emit(ir.Instr{Dest: dst, Type: ir.W, Op: "ceq", Args: []string{disc.ref, rv.ref}})
		acc = or(acc, "%"+dst)
	}
	for i := range arm.RangeLow {
		lo := fg.evalExpr(arm.RangeLow[i])
		hi := fg.evalExpr(arm.RangeHigh[i])
		geLo := fg.fn.NewTemp()
		fg.emit(ir.Instr{Dest: geLo, Type: ir.W, Op: "cge", Args: []string{disc.ref, lo.ref}})
		leHi := fg.fn.NewTemp()
		fg.emit(ir.Instr{Dest: leHi, Type: ir.W, Op: "cle", Args: []string{disc.ref, hi.ref}})
		both := fg.fn.NewTemp()
		fg.emit(ir.Instr{Dest: both, Type: ir.W, Op: "and", Args: []string{"%" + geLo, "%" + leHi}})
		acc = or(acc, "%"+both)
	}
	for i, op := range arm.RelOps {
		rv := fg.evalExpr(arm.RelValues[i])
		irOp, ok := binOps[strings.ToUpper(op)]
		if !ok {
			irOp = "ceq"
		}
		dst := fg.fn.NewTemp()
		fg.emit(ir.Instr{Dest: dst, Type: ir.W, Op: irOp, Args: []string{disc.ref, rv.ref}})
		acc = or(acc, "%"+dst)
	}
	if acc == "" {
		return "0"
	}
	return acc
}

// matchTypeTag numbers spec.md's GLOSSARY LIST_TYPE_* tags in
// declaration order.
var matchTypeTags = map[string]int{
	"INTEGER": 1, "LONG": 1, "DOUBLE": 2, "SINGLE": 2,
	"STRING": 3, "LIST": 4, "OBJECT": 5,
}

// emitMatchType lowers MATCH TYPE over a LIST OF ANY value: evaluate
// the discriminant once, test its runtime type tag against each arm
// in source order, binding BindVar to the narrowed value inside the
// matching arm's body.
func (fg *funcGen) emitMatchType(n *ast.MatchTypeStmt) {
	v := fg.evalExpr(n.Value)
	tag := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: tag, Type: ir.W, Op: "call", Args: []string{"$list_type_tag", v.ref, "0"}})
	merge := fg.fn.NewBlock("")

	for _, arm := range n.Arms {
		wantTag, known := matchTypeTags[strings.ToUpper(arm.TypeName)]
		matchBlock := fg.fn.NewBlock("")
		nextBlock := fg.fn.NewBlock("")
		if known {
			cond := fg.fn.NewTemp()
			fg.emit(ir.Instr{Dest: cond, Type: ir.W, Op: "ceq", Args: []string{"%" + tag, strconv.Itoa(wantTag)}})
			fg.emit(ir.Instr{Op: "jnz", Args: []string{"%" + cond, "@" + matchBlock.Label, "@" + nextBlock.Label}})
		} else {
			cid, ok := fg.g.classIDs[arm.TypeName]
			cond := "0"
			if ok {
				c := fg.fn.NewTemp()
				fg.emit(ir.Instr{Dest: c, Type: ir.W, Op: "call", Args: []string{"$class_is_instance", v.ref, strconv.Itoa(cid)}})
				cond = "%" + c
			}
			fg.emit(ir.Instr{Op: "jnz", Args: []string{cond, "@" + matchBlock.Label, "@" + nextBlock.Label}})
		}
		fg.switchTo(matchBlock)
		if arm.BindVar != "" {
			if ref, ok := fg.resolveVar(arm.BindVar); ok {
				fg.storeRef(ref, val{ref: v.ref, typ: ref.typ})
			}
		}
		fg.emitBody(arm.Body)
		fg.jumpTo(merge)

		fg.switchTo(nextBlock)
	}
	fg.jumpTo(merge)
	fg.switchTo(merge)
}

// emitTry lowers TRY/CATCH/FINALLY to try_enter/runtime_throw/
// runtime_get_err dispatch (spec.md §4.6): the protected body runs
// under a landing pad, an exception transfers control to the handler
// chain, and FINALLY always runs on every exit path.
func (fg *funcGen) emitTry(n *ast.TryStmt) {
	landingPad := fg.fn.NewBlock("")
	finallyBlock := fg.fn.NewBlock("")
	merge := fg.fn.NewBlock("")

	fg.emit(ir.Instr{Op: "call", Args: []string{"$try_enter", "@" + landingPad.Label}})
	fg.emitBody(n.Body)
	fg.emit(ir.Instr{Op: "call", Args: []string{"$try_leave"}})
	fg.jumpTo(finallyBlock)

	fg.switchTo(landingPad)
	errCode := fg.fn.NewTemp()
	fg.emit(ir.Instr{Dest: errCode, Type: ir.W, Op: "call", Args: []string{"$runtime_get_err"}})
	for _, c := range n.Catches {
		matchBlock := fg.fn.NewBlock("")
		nextBlock := fg.fn.NewBlock("")
		if len(c.Codes) == 0 {
			fg.jumpTo(matchBlock)
		} else {
			var cond string
			for _, code := range c.Codes {
				eq := fg.fn.NewTemp()
				fg.emit(ir.Instr{Dest: eq, Type: ir.W, Op: "ceq", Args: []string{"%" + errCode, strconv.Itoa(code)}})
				if cond == "" {
					cond = "%" + eq
				} else {
					or := fg.fn.NewTemp()
					fg.emit(ir.Instr{Dest: or, Type: ir.W, Op: "or", Args: []string{cond, "%" + eq}})
					cond = "%" + or
				}
			}
			fg.emit(ir.Instr{Op: "jnz", Args: []string{cond, "@" + matchBlock.Label, "@" + nextBlock.Label}})
		}
		fg.switchTo(matchBlock)
		if c.BindVar != "" {
			if ref, ok := fg.resolveVar(c.BindVar); ok {
				fg.storeRef(ref, val{ref: "%" + errCode, typ: ref.typ})
			}
		}
		fg.emitBody(c.Body)
		fg.jumpTo(finallyBlock)

		fg.switchTo(nextBlock)
	}
	fg.jumpTo(finallyBlock)

	fg.switchTo(finallyBlock)
	fg.emitBody(n.Finally)
	fg.jumpTo(merge)

	fg.switchTo(merge)
}

func (fg *funcGen) jumpToTarget(target string, isLabel bool, lineNum int) {
	if isLabel {
		if b, ok := fg.labelBlocks[target]; ok {
			fg.jumpTo(b)
			return
		}
	}
	if b, ok := fg.lineBlocks[lineNum]; ok {
		fg.jumpTo(b)
	}
}

func (fg *funcGen) emitGosub(n *ast.GosubStmt) {
	returnSite := fg.fn.NewBlock("")
	fg.gosubRet = append(fg.gosubRet, returnSite)
	fg.jumpToTarget(n.Target, n.IsLabel, n.LineNum)
	fg.switchTo(returnSite)
}

func (fg *funcGen) emitOnGoto(n *ast.OnGotoStmt, _ bool) {
	sel := fg.evalExpr(n.Selector)
	next := fg.cur
	for i, target := range n.Targets {
		cond := fg.fn.NewTemp()
		fg.emit(ir.Instr{Dest: cond, Type: ir.W, Op: "ceq", Args: []string{sel.ref, strconv.Itoa(i + 1)}})
		goBlock := fg.fn.NewBlock("")
		afterBlock := fg.fn.NewBlock("")
		fg.emit(ir.Instr{Op: "jnz", Args: []string{"%" + cond, "@" + goBlock.Label, "@" + afterBlock.Label}})
		fg.switchTo(goBlock)
		fg.jumpToTarget(target, true, 0)
		fg.switchTo(afterBlock)
		next = afterBlock
	}
	_ = next
}

func (fg *funcGen) emitOnGosub(n *ast.OnGosubStmt) {
	sel := fg.evalExpr(n.Selector)
	for i, target := range n.Targets {
		cond := fg.fn.NewTemp()
		fg.emit(ir.Instr{Dest: cond, Type: ir.W, Op: "ceq", Args: []string{sel.ref, strconv.Itoa(i + 1)}})
		goBlock := fg.fn.NewBlock("")
		afterBlock := fg.fn.NewBlock("")
		fg.emit(ir.Instr{Op: "jnz", Args: []string{"%" + cond, "@" + goBlock.Label, "@" + afterBlock.Label}})
		fg.switchTo(goBlock)
		returnSite := fg.fn.NewBlock("")
		fg.gosubRet = append(fg.gosubRet, returnSite)
		fg.jumpToTarget(target, true, 0)
		fg.switchTo(returnSite)
		fg.jumpTo(afterBlock)
		fg.switchTo(afterBlock)
	}
}

func (fg *funcGen) emitOnCall(n *ast.OnCallStmt) {
	sel := fg.evalExpr(n.Selector)
	for i, target := range n.Targets {
		cond := fg.fn.NewTemp()
		fg.emit(ir.Instr{Dest: cond, Type: ir.W, Op: "ceq", Args: []string{sel.ref, strconv.Itoa(i + 1)}})
		callBlock := fg.fn.NewBlock("")
		afterBlock := fg.fn.NewBlock("")
		fg.emit(ir.Instr{Op: "jnz", Args: []string{"%" + cond, "@" + callBlock.Label, "@" + afterBlock.Label}})
		fg.switchTo(callBlock)
		fg.emit(ir.Instr{Op: "call", Args: []string{"$" + target}})
		fg.jumpTo(afterBlock)
		fg.switchTo(afterBlock)
	}
}

func (fg *funcGen) emitReturn(n *ast.ReturnStmt) {
	if n.Value != nil {
		v := fg.evalExpr(n.Value)
		if ref, ok := fg.resolveVar(fg.fn.Name); ok {
			fg.storeRef(ref, fg.coerce(v, ref.typ))
		}
		fg.tidyExit(ref0(fg, v))
		return
	}
	if len(fg.gosubRet) > 0 {
		target := fg.gosubRet[len(fg.gosubRet)-1]
		fg.gosubRet = fg.gosubRet[:len(fg.gosubRet)-1]
		fg.jumpTo(target)
		return
	}
	fg.emit(ir.Instr{Op: "ret"})
}

func ref0(fg *funcGen, v val) types.TypeDescriptor {
	if ref, ok := fg.resolveVar(fg.fn.Name); ok {
		return ref.typ
	}
	return v.typ
}

func (fg *funcGen) emitRestore(n *ast.RestoreStmt) {
	if n.IsLabel {
		fg.emit(ir.Instr{Op: "call", Args: []string{"$data_restore_label", fg.g.addStringData(n.Target)}})
		return
	}
	fg.emit(ir.Instr{Op: "call", Args: []string{"$data_restore_line", strconv.Itoa(n.LineNum)}})
}

func (fg *funcGen) emitRead(n *ast.ReadStmt) {
	for _, target := range n.Targets {
		ref, ok := fg.resolveVar(target)
		if !ok {
			continue
		}
		var runtimeCall string
		switch {
		case ref.typ.IsString():
			runtimeCall = "data_read_string"
		case ref.typ.IsFloat():
			runtimeCall = "data_read_double"
		default:
			runtimeCall = "data_read_int"
		}
		dst := fg.fn.NewTemp()
		fg.emit(ir.Instr{Dest: dst, Type: irType(ref.typ), Op: "call", Args: []string{"$" + runtimeCall}})
		fg.storeRef(ref, val{ref: "%" + dst, typ: ref.typ})
	}
}

func (fg *funcGen) emitTimer(n *ast.TimerStmt) {
	handler := n.Handler
	if handler == "" {
		handler = fg.g.st.InlineTimerHandlers[n]
	}
	dur := "0"
	if n.Duration != nil {
		dur = fg.evalExpr(n.Duration).ref
	}
	switch n.Kind {
	case "AFTER":
		fg.emit(ir.Instr{Op: "call", Args: []string{"$timer_after", dur, "$" + handler}})
	case "EVERY":
		fg.emit(ir.Instr{Op: "call", Args: []string{"$timer_every", dur, "$" + handler}})
	case "EVERYFRAME":
		fg.emit(ir.Instr{Op: "call", Args: []string{"$timer_every_frame", "$" + handler}})
	case "AFTERFRAMES":
		fg.emit(ir.Instr{Op: "call", Args: []string{"$timer_every_frame", "$" + handler}})
	}
}

func (fg *funcGen) emitCallStmt(n *ast.CallStmt) {
	args := []string{"$" + n.Name}
	for _, a := range n.Args {
		args = append(args, fg.evalExpr(a).ref)
	}
	fg.emit(ir.Instr{Op: "call", Args: args})
}

func (fg *funcGen) emitLabel(n *ast.LabelStmt) {
	b, ok := fg.labelBlocks[n.Name]
	if !ok {
		return
	}
	fg.jumpTo(b)
}
