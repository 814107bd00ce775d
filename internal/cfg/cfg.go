// Package cfg implements the basic-block graph builder (C10): for the
// implicit main program, every SUB/FUNCTION, every class method, and
// every generated inline-timer body, it converts a flat statement list
// into a directed graph of basic blocks with predecessor/successor
// edges, per spec.md §4.5.
//
// No teacher analogue exists (Sentra's compiler.go emits linear
// bytecode with raw jump-offset backpatching instead of building an
// explicit graph); the block/edge model here is grounded on the
// other_examples IR generator's label/jump bookkeeping
// (0d3c86e4_gmofishsauce-wut4__lang-ysem-ir.go.go's IRFunc.Instrs),
// generalized from a flat instruction list into an explicit graph.
package cfg

import (
	"strconv"

	"basiccompiler/internal/ast"
	"basiccompiler/internal/sema"
)

// BlockKind classifies a block's structural role. Later passes can
// also just follow Preds/Succs; the kind exists for readability and
// for codegen shortcuts (e.g. "this is a loop header, emit the
// FORCE_YIELD/CANCELLABLE check here").
type BlockKind int

const (
	Plain BlockKind = iota
	LoopHeader
	LoopBody
	LoopMerge
	SelectArm
	SelectMerge
	TryProtected
	CatchHandler
	FinallyBlock
)

func (k BlockKind) String() string {
	switch k {
	case LoopHeader:
		return "LOOP_HEADER"
	case LoopBody:
		return "LOOP_BODY"
	case LoopMerge:
		return "LOOP_MERGE"
	case SelectArm:
		return "SELECT_ARM"
	case SelectMerge:
		return "SELECT_MERGE"
	case TryProtected:
		return "TRY_PROTECTED"
	case CatchHandler:
		return "CATCH_HANDLER"
	case FinallyBlock:
		return "FINALLY"
	default:
		return "PLAIN"
	}
}

// Block is one basic block: a straight-line run of statements with a
// single entry, reached only via Preds, and a single exit via Succs.
type Block struct {
	ID    int
	Kind  BlockKind
	Stmts []ast.Stmt
	Preds []*Block
	Succs []*Block
}

func (b *Block) addSucc(to *Block) {
	if to == nil {
		return
	}
	b.Succs = append(b.Succs, to)
	to.Preds = append(to.Preds, b)
}

// Graph is the basic-block graph of one unit of execution.
type Graph struct {
	Name   string
	Entry  *Block
	Blocks []*Block
}

func (g *Graph) newBlock(kind BlockKind) *Block {
	b := &Block{ID: len(g.Blocks), Kind: kind}
	g.Blocks = append(g.Blocks, b)
	return b
}

type pendingTarget struct {
	from    *Block
	target  string
	isLabel bool
	lineNum int
	hasLine bool
}

type builder struct {
	g  *Graph
	st *sema.SymbolTable

	lineStart  map[ast.Stmt]int
	labelStart map[ast.Stmt]string

	lineBlocks  map[int]*Block
	labelBlocks map[string]*Block

	loopMerges []*Block
	pending    []pendingTarget

	gosubReturnSites []*Block
	bareReturnBlocks []*Block
}

// BuildAll constructs one Graph per unit of execution known to the
// symbol table: the implicit main program, every registered
// SUB/FUNCTION/DEF FN/synthesized timer handler, and every class
// method. The map is keyed by the mangled function name, "" for main,
// and "Class__Method" for methods (matching ClassMethod.Name).
func BuildAll(prog *ast.Program, st *sema.SymbolTable) map[string]*Graph {
	graphs := map[string]*Graph{}
	graphs[""] = BuildMain(prog, st)
	for name, fn := range st.Functions {
		graphs[name] = Build(name, fn.Body, st)
	}
	for _, class := range st.Classes {
		for _, m := range class.Methods {
			graphs[m.Name] = Build(m.Name, m.Body, st)
		}
	}
	return graphs
}

// BuildMain builds the CFG for the top-level program. Unlike a
// SUB/FUNCTION body it also splits at every source line's number/label
// header, since GOTO/GOSUB/RESTORE by line number are only meaningful
// at the top level (spec.md §3 invariant: line numbers are a top-level
// concept).
func BuildMain(prog *ast.Program, st *sema.SymbolTable) *Graph {
	b := &builder{
		g:           &Graph{Name: ""},
		st:          st,
		lineStart:   map[ast.Stmt]int{},
		labelStart:  map[ast.Stmt]string{},
		lineBlocks:  map[int]*Block{},
		labelBlocks: map[string]*Block{},
	}
	var top []ast.Stmt
	for _, line := range prog.Lines {
		if len(line.Statements) == 0 {
			if line.Label != "" {
				top = append(top, &ast.LabelStmt{Node: ast.Node{Kind: ast.KindLabelStmt}, Name: line.Label})
			}
			continue
		}
		first := line.Statements[0]
		if line.HasNumber {
			b.lineStart[first] = line.Number
		}
		if line.Label != "" {
			b.labelStart[first] = line.Label
		}
		top = append(top, line.Statements...)
	}
	entry := b.g.newBlock(Plain)
	b.g.Entry = entry
	b.build(top, entry)
	b.resolvePending()
	return b.g
}

// Build builds the CFG for a SUB, FUNCTION, class method, or generated
// inline-timer body. Its only non-control-flow split points are inline
// `name:` labels.
func Build(name string, body []ast.Stmt, st *sema.SymbolTable) *Graph {
	b := &builder{
		g:           &Graph{Name: name},
		st:          st,
		lineBlocks:  map[int]*Block{},
		labelBlocks: map[string]*Block{},
	}
	entry := b.g.newBlock(Plain)
	b.g.Entry = entry
	b.build(body, entry)
	b.resolvePending()
	return b.g
}

// build lowers stmts starting at cur, returning the block control
// falls through to afterward, or nil if every path out of stmts ends
// in an unconditional transfer (GOTO, RETURN, EXIT, THROW).
func (b *builder) build(stmts []ast.Stmt, cur *Block) *Block {
	for _, s := range stmts {
		if cur == nil {
			cur = b.g.newBlock(Plain) // unreachable code still gets a home
		}
		cur = b.splitIfLabeled(s, cur)
		cur = b.stmt(s, cur)
	}
	return cur
}

func (b *builder) splitIfLabeled(s ast.Stmt, cur *Block) *Block {
	num, hasNum := b.lineStart[s]
	lbl, hasLabelHeader := b.labelStart[s]
	labelStmt, isLabelStmt := s.(*ast.LabelStmt)
	if !hasNum && !hasLabelHeader && !isLabelStmt {
		return cur
	}
	if len(cur.Stmts) > 0 {
		next := b.g.newBlock(Plain)
		cur.addSucc(next)
		cur = next
	}
	if hasNum {
		b.lineBlocks[num] = cur
	}
	if hasLabelHeader {
		b.labelBlocks[lbl] = cur
	}
	if isLabelStmt {
		b.labelBlocks[labelStmt.Name] = cur
	}
	return cur
}

func (b *builder) stmt(s ast.Stmt, cur *Block) *Block {
	switch n := s.(type) {
	case *ast.IfStmt:
		return b.ifStmt(n, cur)
	case *ast.ForStmt:
		return b.loop(cur, n.Body)
	case *ast.ForEachStmt:
		return b.loop(cur, n.Body)
	case *ast.WhileStmt:
		return b.loop(cur, n.Body)
	case *ast.RepeatStmt:
		return b.repeatLoop(cur, n)
	case *ast.DoLoopStmt:
		return b.doLoop(cur, n)
	case *ast.SelectCaseStmt:
		return b.selectCase(cur, n)
	case *ast.TryStmt:
		return b.tryStmt(cur, n)
	case *ast.GotoStmt:
		cur.Stmts = append(cur.Stmts, s)
		b.pending = append(b.pending, pendingTarget{from: cur, target: n.Target, isLabel: n.IsLabel, lineNum: n.LineNum, hasLine: !n.IsLabel})
		return nil
	case *ast.GosubStmt:
		cur.Stmts = append(cur.Stmts, s)
		b.pending = append(b.pending, pendingTarget{from: cur, target: n.Target, isLabel: n.IsLabel, lineNum: n.LineNum, hasLine: !n.IsLabel})
		next := b.g.newBlock(Plain)
		b.gosubReturnSites = append(b.gosubReturnSites, next)
		return next
	case *ast.OnGotoStmt:
		cur.Stmts = append(cur.Stmts, s)
		for _, t := range n.Targets {
			b.pending = append(b.pending, stringTarget(cur, t))
		}
		return nil
	case *ast.OnGosubStmt:
		cur.Stmts = append(cur.Stmts, s)
		for _, t := range n.Targets {
			b.pending = append(b.pending, stringTarget(cur, t))
		}
		next := b.g.newBlock(Plain)
		b.gosubReturnSites = append(b.gosubReturnSites, next)
		return next
	case *ast.OnCallStmt:
		cur.Stmts = append(cur.Stmts, s)
		return cur
	case *ast.ReturnStmt:
		cur.Stmts = append(cur.Stmts, s)
		if n.Value == nil {
			b.bareReturnBlocks = append(b.bareReturnBlocks, cur)
		}
		return nil
	case *ast.ExitStmt:
		cur.Stmts = append(cur.Stmts, s)
		if merge := b.nearestLoopMerge(); merge != nil {
			cur.addSucc(merge)
		}
		return nil
	case *ast.ThrowStmt:
		cur.Stmts = append(cur.Stmts, s)
		return nil
	default:
		cur.Stmts = append(cur.Stmts, s)
		return cur
	}
}

func stringTarget(from *Block, target string) pendingTarget {
	if n, err := strconv.Atoi(target); err == nil {
		return pendingTarget{from: from, lineNum: n, hasLine: true}
	}
	return pendingTarget{from: from, target: target, isLabel: true}
}

func (b *builder) nearestLoopMerge() *Block {
	if len(b.loopMerges) == 0 {
		return nil
	}
	return b.loopMerges[len(b.loopMerges)-1]
}

// ifStmt lowers IF/ELSEIF*/ELSE/END IF into a chain of test blocks:
// each ELSEIF is itself a test block reached when the previous test's
// condition was false, mirroring how the parser nests them.
func (b *builder) ifStmt(n *ast.IfStmt, cur *Block) *Block {
	cur.Stmts = append(cur.Stmts, n)
	merge := b.g.newBlock(Plain)

	thenEntry := b.g.newBlock(Plain)
	cur.addSucc(thenEntry)
	if exit := b.build(n.Then, thenEntry); exit != nil {
		exit.addSucc(merge)
	}

	falseEdge := cur
	for i := range n.ElseIfs {
		testBlock := b.g.newBlock(Plain)
		falseEdge.addSucc(testBlock)
		bodyEntry := b.g.newBlock(Plain)
		testBlock.addSucc(bodyEntry)
		if exit := b.build(n.ElseIfs[i].Body, bodyEntry); exit != nil {
			exit.addSucc(merge)
		}
		falseEdge = testBlock
	}

	if n.Else != nil {
		elseEntry := b.g.newBlock(Plain)
		falseEdge.addSucc(elseEntry)
		if exit := b.build(n.Else, elseEntry); exit != nil {
			exit.addSucc(merge)
		}
	} else {
		falseEdge.addSucc(merge)
	}
	return merge
}

// loop lowers FOR/FOR EACH/WHILE's canonical header-body-merge shape
// (spec.md §4.6): the header tests the condition, the body runs and
// back-edges to the header, EXIT targets the merge block directly.
func (b *builder) loop(cur *Block, body []ast.Stmt) *Block {
	header := b.g.newBlock(LoopHeader)
	cur.addSucc(header)
	bodyEntry := b.g.newBlock(LoopBody)
	merge := b.g.newBlock(LoopMerge)
	header.addSucc(bodyEntry)
	header.addSucc(merge)

	b.loopMerges = append(b.loopMerges, merge)
	if exit := b.build(body, bodyEntry); exit != nil {
		exit.addSucc(header)
	}
	b.loopMerges = b.loopMerges[:len(b.loopMerges)-1]
	return merge
}

// doLoop handles DO with an optional pre-test (WHILE/UNTIL before the
// body) and/or post-test (WHILE/UNTIL after the body); a bare DO/LOOP
// with neither is an infinite loop broken only by EXIT DO.
func (b *builder) doLoop(cur *Block, n *ast.DoLoopStmt) *Block {
	header := b.g.newBlock(LoopHeader)
	cur.addSucc(header)
	bodyEntry := b.g.newBlock(LoopBody)
	merge := b.g.newBlock(LoopMerge)

	if n.PreCond != nil {
		header.addSucc(bodyEntry)
		header.addSucc(merge)
	} else {
		header.addSucc(bodyEntry)
	}

	b.loopMerges = append(b.loopMerges, merge)
	bodyExit := b.build(n.Body, bodyEntry)
	b.loopMerges = b.loopMerges[:len(b.loopMerges)-1]

	if bodyExit == nil {
		return merge
	}
	if n.PostCond != nil {
		postTest := b.g.newBlock(Plain)
		bodyExit.addSucc(postTest)
		postTest.addSucc(header)
		postTest.addSucc(merge)
	} else {
		bodyExit.addSucc(header)
	}
	return merge
}

// repeatLoop is REPEAT/UNTIL: always post-test, body runs at least
// once.
func (b *builder) repeatLoop(cur *Block, n *ast.RepeatStmt) *Block {
	bodyEntry := b.g.newBlock(LoopBody)
	cur.addSucc(bodyEntry)
	merge := b.g.newBlock(LoopMerge)

	b.loopMerges = append(b.loopMerges, merge)
	bodyExit := b.build(n.Body, bodyEntry)
	b.loopMerges = b.loopMerges[:len(b.loopMerges)-1]

	if bodyExit == nil {
		return merge
	}
	postTest := b.g.newBlock(Plain)
	bodyExit.addSucc(postTest)
	postTest.addSucc(bodyEntry)
	postTest.addSucc(merge)
	return merge
}

// selectCase lowers each CASE arm into its own block tested in source
// order, falling through to the next arm's test on a mismatch and to a
// shared merge block once an arm's body completes.
func (b *builder) selectCase(cur *Block, n *ast.SelectCaseStmt) *Block {
	cur.Stmts = append(cur.Stmts, n)
	merge := b.g.newBlock(SelectMerge)
	prevTest := cur
	for i := range n.Arms {
		armEntry := b.g.newBlock(SelectArm)
		prevTest.addSucc(armEntry)
		if exit := b.build(n.Arms[i].Body, armEntry); exit != nil {
			exit.addSucc(merge)
		}
		if n.Arms[i].Otherwise {
			prevTest = nil
			break
		}
		nextTest := b.g.newBlock(Plain)
		prevTest.addSucc(nextTest)
		prevTest = nextTest
	}
	if prevTest != nil {
		prevTest.addSucc(merge)
	}
	return merge
}

// tryStmt lowers TRY/CATCH/FINALLY into a protected region with one
// edge per catch entry and an edge into FINALLY from the protected
// region and from every catch (spec.md §4.5).
func (b *builder) tryStmt(cur *Block, n *ast.TryStmt) *Block {
	cur.Stmts = append(cur.Stmts, n)
	protectedEntry := b.g.newBlock(TryProtected)
	cur.addSucc(protectedEntry)

	var finallyEntry, merge *Block
	hasFinally := len(n.Finally) > 0
	merge = b.g.newBlock(Plain)
	if hasFinally {
		finallyEntry = b.g.newBlock(FinallyBlock)
	}

	joinToFinallyOrMerge := func(exit *Block) {
		if exit == nil {
			return
		}
		if hasFinally {
			exit.addSucc(finallyEntry)
		} else {
			exit.addSucc(merge)
		}
	}

	joinToFinallyOrMerge(b.build(n.Body, protectedEntry))
	for i := range n.Catches {
		catchEntry := b.g.newBlock(CatchHandler)
		protectedEntry.addSucc(catchEntry)
		joinToFinallyOrMerge(b.build(n.Catches[i].Body, catchEntry))
	}
	if hasFinally {
		if exit := b.build(n.Finally, finallyEntry); exit != nil {
			exit.addSucc(merge)
		}
	}
	return merge
}

// resolvePending wires up every GOTO/GOSUB/ON.../RESTORE target once
// the whole graph exists, and applies the GOSUB return-edge
// approximation: since GOSUB targets are plain labels rather than call
// frames, the static graph cannot know which GOSUB a given RETURN
// belongs to, so every bare RETURN block gets an edge to every GOSUB's
// return site in the same graph. This over-approximates reachability
// (conservative for analyses that only need "can flow reach X", wrong
// for analyses that need exact call/return pairing, which the IR
// generator instead gets right by emitting an actual runtime call
// stack rather than relying on this edge).
func (b *builder) resolvePending() {
	for _, p := range b.pending {
		var target *Block
		if p.hasLine {
			target = b.lineBlocks[p.lineNum]
		} else {
			target = b.labelBlocks[p.target]
		}
		p.from.addSucc(target)
	}
	for _, ret := range b.bareReturnBlocks {
		for _, site := range b.gosubReturnSites {
			ret.addSucc(site)
		}
	}
}
