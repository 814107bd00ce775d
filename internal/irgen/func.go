package irgen

import (
	"strconv"

	"basiccompiler/internal/ast"
	"basiccompiler/internal/diag"
	"basiccompiler/internal/ir"
	"basiccompiler/internal/sema"
	"basiccompiler/internal/token"
	"basiccompiler/internal/types"
)

// val is an already-materialized IR operand: either an SSA temp name
// ("%t3"), a literal ("42", "$somedata"), produced by an expression
// lowering.
type val struct {
	ref string
	typ types.TypeDescriptor
}

// slot is a named storage location a variable reference resolves to.
type slot struct {
	addr   string // operand naming the address: "%s_name" or "$name"
	typ    types.TypeDescriptor
	global bool
}

// funcGen carries the state needed while lowering one function, SUB,
// method, or synthetic timer-handler body.
type funcGen struct {
	g      *Generator
	fn     *ir.Func
	cur    *ir.Block
	ended  bool // true once cur has received a terminating instruction
	locals map[string]slot

	labelBlocks map[string]*ir.Block
	lineBlocks  map[int]*ir.Block

	loopMerge []*ir.Block // EXIT target stack, innermost last
	gosubRet  []*ir.Block // pending GOSUB return sites, innermost last

	class  *sema.ClassInfo
	method *sema.ClassMethod

	selectArms map[*ast.SelectCaseStmt]int // current arm index, for state-machine tracking
	tempSeq    int
}

func (g *Generator) genMain() *ir.Func {
	return g.genFunc("main", nil, g.st.Main.Locals, types.Basic(types.Void), g.st.Main.Body, nil)
}

func (g *Generator) genMethod(cls *sema.ClassInfo, m *sema.ClassMethod) *ir.Func {
	locals := map[string]types.TypeDescriptor{"this": types.Class(cls.Name)}
	for _, p := range m.Params {
		t, ok := g.st.TypeFromName(p.TypeName)
		if !ok {
			t = types.Basic(inferSuffixType(p.Name))
		}
		locals[p.Name] = t
	}
	ret := types.Basic(types.Void)
	if m.ReturnType != "" {
		if t, ok := g.st.TypeFromName(m.ReturnType); ok {
			ret = t
		}
		locals[m.Name] = ret
	}
	params := append([]ast.Param{{Name: "this", TypeName: cls.Name}}, m.Params...)
	return g.genFunc(m.Name, params, locals, ret, m.Body, &methodCtx{class: cls, method: m})
}

type methodCtx struct {
	class  *sema.ClassInfo
	method *sema.ClassMethod
}

func (g *Generator) genFunc(name string, params []ast.Param, locals map[string]types.TypeDescriptor, ret types.TypeDescriptor, body []ast.Stmt, mc *methodCtx) *ir.Func {
	irParams := make([]ir.Param, len(params))
	for i, p := range params {
		t, ok := locals[p.Name]
		if !ok {
			t = types.Basic(inferSuffixType(p.Name))
		}
		irParams[i] = ir.Param{Name: p.Name, Type: irType(t)}
	}

	fn := ir.NewFunc(name, retIRType(ret), irParams)
	fg := &funcGen{
		g:           g,
		fn:          fn,
		locals:      map[string]slot{},
		labelBlocks: map[string]*ir.Block{},
		lineBlocks:  map[int]*ir.Block{},
		selectArms:  map[*ast.SelectCaseStmt]int{},
	}
	if mc != nil {
		fg.class = mc.class
		fg.method = mc.method
	}

	entry := fn.NewBlock("start")
	fg.cur = entry

	// Every local gets a stack slot up front (spec.md §4.6): scalars,
	// arrays, UDTs, and class references alike are addressable memory,
	// never bare SSA values across statement boundaries.
	for _, name := range sortedKeys(locals) {
		t := locals[name]
		slotName := "s_" + name
		fg.emit(ir.Instr{Dest: slotName, Type: ir.L, Op: allocOpFor(t, g.st)})
		fg.locals[name] = slot{addr: "%" + slotName, typ: t}
	}

	for _, p := range params {
		sl := fg.locals[p.Name]
		fg.emit(ir.Instr{Op: storeOp(irType(sl.typ)), Args: []string{"%" + p.Name, sl.addr}})
	}

	fg.predeclareLabels(body)
	fg.emitBody(body)
	fg.tidyExit(ret)

	return fn
}

// predeclareLabels scans a function body for every LabelStmt/line
// number so GOTO/GOSUB forward references resolve to a real block
// before the statement stream that defines it has been walked.
func (fg *funcGen) predeclareLabels(body []ast.Stmt) {
	ast.Walk(body, func(s ast.Stmt) {
		if l, ok := s.(*ast.LabelStmt); ok {
			fg.labelBlocks[l.Name] = fg.fn.NewBlock("label_" + sanitize(l.Name))
		}
	})
}

// tidyExit emits the function's cleanup block and final return,
// releasing SAMM-managed locals before the ret (spec.md §4.6 "tidy
// exit"). Skipped when the block being emitted into has already been
// terminated.
func (fg *funcGen) tidyExit(ret types.TypeDescriptor) {
	if fg.ended {
		return
	}
	exit := fg.fn.NewBlock("tidy_exit")
	fg.switchTo(exit)
	if fg.g.st.Options.SAMM {
		for _, name := range sortedKeys(fg.locals) {
			sl := fg.locals[name]
			if sl.typ.Base == types.ClassInstance {
				v := fg.newTemp(ir.L)
				fg.emit(ir.Instr{Dest: v, Type: ir.L, Op: loadOp(ir.L), Args: []string{sl.addr}})
				fg.emit(ir.Instr{Op: "call", Args: []string{"$class_release", "%" + v}})
			}
		}
	}
	if ret.Base == types.Void {
		fg.emit(ir.Instr{Op: "ret"})
	} else {
		retSlot, ok := fg.locals[fg.fn.Name]
		if ok {
			v := fg.newTemp(irType(ret))
			fg.emit(ir.Instr{Dest: v, Type: irType(ret), Op: loadOp(irType(ret)), Args: []string{retSlot.addr}})
			fg.emit(ir.Instr{Op: "ret", Args: []string{"%" + v}})
		} else {
			fg.emit(ir.Instr{Op: "ret"})
		}
	}
	fg.ended = true
}

func retIRType(t types.TypeDescriptor) ir.Type {
	if t.Base == types.Void {
		return ""
	}
	return irType(t)
}

func (fg *funcGen) newTemp(_ ir.Type) string {
	return fg.fn.NewTemp()
}

func (fg *funcGen) switchTo(b *ir.Block) {
	fg.cur = b
	fg.ended = false
}

// emit appends an instruction to the current block, then marks the
// block closed once a terminator has been emitted; anything emitted
// afterward in the same statement stream is unreachable and dropped
// with a warning (the block-termination state machine of spec.md
// §4.6).
func (fg *funcGen) emit(in ir.Instr) {
	if fg.ended {
		fg.g.bag.Warn(diag.DeadCodeAfterTerminator, token.Location{}, "unreachable code after a block terminator in %s", fg.fn.Name)
		return
	}
	fg.cur.Emit(in)
	switch in.Op {
	case "jmp", "jnz", "ret":
		fg.ended = true
	}
}

func loadOp(t ir.Type) string  { return "load" + string(t) }
func storeOp(t ir.Type) string { return "store" + string(t) }

func sanitize(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' {
			out[i] = c
		} else {
			out[i] = '_'
		}
	}
	return string(out)
}

func inferSuffixType(name string) types.BaseType {
	switch {
	case hasSuffix(name, "_STRING"):
		return types.String
	case hasSuffix(name, "_INT"):
		return types.Integer
	case hasSuffix(name, "_LONG"):
		return types.Long
	case hasSuffix(name, "_FLOAT"):
		return types.Single
	case hasSuffix(name, "_DOUBLE"):
		return types.Double
	case hasSuffix(name, "_BYTE"):
		return types.Byte
	case hasSuffix(name, "_SHORT"):
		return types.Short
	default:
		return types.Double
	}
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

func itoa(n int) string { return strconv.Itoa(n) }
