package cfg

import (
	"testing"

	"basiccompiler/internal/dataprep"
	"basiccompiler/internal/diag"
	"basiccompiler/internal/lexer"
	"basiccompiler/internal/options"
	"basiccompiler/internal/parser"
	"basiccompiler/internal/sema"
)

func mainGraph(t *testing.T, src string) *Graph {
	t.Helper()
	toks := lexer.New("test.bas", src).ScanTokens()
	bag := diag.NewBag()
	prog := parser.New(toks, "test.bas", bag).Parse()
	data, err := dataprep.Extract(src)
	if err != nil {
		t.Fatalf("dataprep.Extract: %v", err)
	}
	st := sema.Pass1(prog, data, options.Default(), bag)
	sema.Pass2(prog, st, bag)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors)
	}
	return BuildMain(prog, st)
}

func TestStraightLineCodeIsOneBlock(t *testing.T) {
	g := mainGraph(t, "DIM X AS INTEGER\nX = 1\nX = 2\nPRINT X\n")
	if len(g.Entry.Succs) != 0 {
		t.Errorf("expected no branches in straight-line code, got %d successors", len(g.Entry.Succs))
	}
	if len(g.Entry.Stmts) != 4 {
		t.Errorf("expected all 4 statements in the entry block, got %d", len(g.Entry.Stmts))
	}
}

func TestIfStmtSplitsIntoThenElseMerge(t *testing.T) {
	g := mainGraph(t, "DIM X AS INTEGER\nIF X = 1 THEN\nX = 2\nELSE\nX = 3\nEND IF\nX = 4\n")
	if len(g.Entry.Succs) != 2 {
		t.Fatalf("expected the entry block to branch to both THEN and ELSE entries, got %d succs", len(g.Entry.Succs))
	}
	thenEntry, elseEntry := g.Entry.Succs[0], g.Entry.Succs[1]
	if len(thenEntry.Succs) != 1 || len(elseEntry.Succs) != 1 {
		t.Fatalf("expected THEN and ELSE to each reach a single merge block")
	}
	merge := thenEntry.Succs[0]
	if elseEntry.Succs[0] != merge {
		t.Fatalf("expected THEN and ELSE to join at the same merge block")
	}
	if len(merge.Preds) != 2 {
		t.Errorf("expected the merge block to have 2 predecessors (THEN and ELSE), got %d", len(merge.Preds))
	}
}

func TestElseIfChainsThroughTestBlocks(t *testing.T) {
	src := "DIM X AS INTEGER\nIF X = 1 THEN\nX = 1\nELSEIF X = 2 THEN\nX = 2\nELSE\nX = 3\nEND IF\n"
	g := mainGraph(t, src)
	if len(g.Blocks) < 6 {
		t.Errorf("expected at least 6 blocks for an IF/ELSEIF/ELSE chain (entry, then, test, elseif-body, else, merge), got %d", len(g.Blocks))
	}
	elseifTest := g.Entry.Succs[1]
	if len(elseifTest.Succs) != 2 {
		t.Fatalf("expected the ELSEIF test block to branch to its body and the ELSE entry, got %d succs", len(elseifTest.Succs))
	}
}

func TestForLoopHasHeaderBodyMergeAndBackEdge(t *testing.T) {
	g := mainGraph(t, "FOR I = 1 TO 10\nPRINT I\nNEXT I\nPRINT \"done\"\n")
	header := g.Entry.Succs[0]
	if header.Kind != LoopHeader {
		t.Fatalf("expected the FOR loop's first successor to be a LOOP_HEADER, got %v", header.Kind)
	}
	if len(header.Succs) != 2 {
		t.Fatalf("expected the header to branch to body and merge, got %d succs", len(header.Succs))
	}
	body, merge := header.Succs[0], header.Succs[1]
	if body.Kind != LoopBody || merge.Kind != LoopMerge {
		t.Errorf("expected body/merge kinds, got %v/%v", body.Kind, merge.Kind)
	}
	foundBackEdge := false
	for _, s := range body.Succs {
		if s == header {
			foundBackEdge = true
		}
	}
	if !foundBackEdge {
		t.Errorf("expected the loop body to back-edge to the header")
	}
}

func TestExitForTargetsLoopMergeDirectly(t *testing.T) {
	g := mainGraph(t, "FOR I = 1 TO 10\nEXIT FOR\nNEXT I\n")
	header := g.Entry.Succs[0]
	merge := header.Succs[1]
	body := header.Succs[0]
	foundDirectEdge := false
	for _, s := range body.Succs {
		if s == merge {
			foundDirectEdge = true
		}
	}
	if !foundDirectEdge {
		t.Errorf("expected EXIT FOR to add a direct edge from the body to the loop merge block")
	}
}

func TestGotoAddsEdgeToLabelBlock(t *testing.T) {
	g := mainGraph(t, "GOTO Skip\nPRINT 1\nSkip:\nPRINT 2\n")
	if len(g.Entry.Succs) != 1 {
		t.Fatalf("expected the GOTO block to have exactly one successor, got %d", len(g.Entry.Succs))
	}
	target := g.Entry.Succs[0]
	if len(target.Stmts) == 0 {
		t.Errorf("expected the GOTO target block to contain the labeled statements")
	}
}

func TestGosubFallsThroughAfterReturn(t *testing.T) {
	g := mainGraph(t, "GOSUB Helper\nPRINT \"after\"\nHelper:\nPRINT \"in helper\"\nRETURN\n")
	if len(g.Entry.Succs) != 1 {
		t.Fatalf("expected the GOSUB block to have a single call edge to Helper, got %d", len(g.Entry.Succs))
	}
	// block 1 is the return site created right after the GOSUB; its
	// only predecessor should be Helper's RETURN block, not the GOSUB
	// block itself (the call site has no direct fallthrough edge).
	returnSite := g.Blocks[1]
	if len(returnSite.Preds) != 1 {
		t.Fatalf("expected the return site to have exactly one predecessor (Helper's RETURN), got %d", len(returnSite.Preds))
	}
	for _, p := range returnSite.Preds {
		if p == g.Entry {
			t.Errorf("expected the GOSUB block not to directly edge to its own return site")
		}
	}
}

func TestTryCatchFinallyWiresProtectedAndHandlerBlocks(t *testing.T) {
	src := "TRY\nX = 1\nCATCH 5 E\nX = 2\nFINALLY\nX = 3\nEND TRY\n"
	g := mainGraph(t, src)
	protected := g.Entry.Succs[0]
	if protected.Kind != TryProtected {
		t.Fatalf("expected the entry to fall through to the protected block, got %v", protected.Kind)
	}
	if len(protected.Succs) != 2 {
		t.Fatalf("expected the protected block to reach both the catch handler and finally, got %d succs", len(protected.Succs))
	}
	foundFinally := false
	for _, s := range protected.Succs {
		if s.Kind == FinallyBlock {
			foundFinally = true
		}
	}
	if !foundFinally {
		t.Errorf("expected one of the protected block's successors to be FINALLY")
	}
}

func TestSelectCaseArmsChainAndMerge(t *testing.T) {
	src := "DIM X AS INTEGER\nSELECT CASE X\nCASE 1\nPRINT 1\nCASE 2\nPRINT 2\nCASE ELSE\nPRINT 3\nEND SELECT\n"
	g := mainGraph(t, src)
	var mergeBlocks int
	for _, b := range g.Blocks {
		if b.Kind == SelectMerge {
			mergeBlocks++
		}
	}
	if mergeBlocks != 1 {
		t.Fatalf("expected exactly one SELECT CASE merge block, got %d", mergeBlocks)
	}
}

func TestBuildAllCoversEveryFunctionAndMethod(t *testing.T) {
	src := "SUB Greet()\nPRINT \"hi\"\nEND SUB\n" +
		"CLASS Counter\nMETHOD Bump()\nPRINT 1\nEND METHOD\nEND CLASS\n" +
		"Greet\n"
	toks := lexer.New("test.bas", src).ScanTokens()
	bag := diag.NewBag()
	prog := parser.New(toks, "test.bas", bag).Parse()
	data, err := dataprep.Extract(src)
	if err != nil {
		t.Fatalf("dataprep.Extract: %v", err)
	}
	st := sema.Pass1(prog, data, options.Default(), bag)
	sema.Pass2(prog, st, bag)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors)
	}
	graphs := BuildAll(prog, st)
	if _, ok := graphs[""]; !ok {
		t.Errorf("expected a graph for the main program")
	}
	if _, ok := graphs["Greet"]; !ok {
		t.Errorf("expected a graph for SUB Greet")
	}
	if _, ok := graphs["Counter__Bump"]; !ok {
		t.Errorf("expected a graph for Counter.Bump, got keys %v", keys(graphs))
	}
}

func keys(m map[string]*Graph) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}
