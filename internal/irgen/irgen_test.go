package irgen

import (
	"strings"
	"testing"

	"basiccompiler/internal/ast"
	"basiccompiler/internal/dataprep"
	"basiccompiler/internal/diag"
	"basiccompiler/internal/lexer"
	"basiccompiler/internal/options"
	"basiccompiler/internal/parser"
	"basiccompiler/internal/sema"
)

func generate(t *testing.T, src string) string {
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
		t.Fatalf("unexpected sema errors: %v", bag.Errors)
	}
	mod := Generate(prog, st, bag)
	if bag.HasErrors() {
		t.Fatalf("unexpected irgen errors: %v", bag.Errors)
	}
	return mod.String()
}

func mustContain(t *testing.T, ir, needle string) {
	t.Helper()
	if !strings.Contains(ir, needle) {
		t.Errorf("expected IR to contain %q, got:\n%s", needle, ir)
	}
}

func TestLetStmtEmitsAllocAndStore(t *testing.T) {
	ir := generate(t, "DIM X AS INTEGER\nX = 5\n")
	mustContain(t, ir, "alloc4")
	mustContain(t, ir, "storew")
}

func TestIfStmtEmitsConditionalJump(t *testing.T) {
	ir := generate(t, "DIM X AS INTEGER\nX = 1\nIF X = 1 THEN\nX = 2\nEND IF\n")
	mustContain(t, ir, "jnz")
}

func TestForLoopEmitsLoopBlocks(t *testing.T) {
	ir := generate(t, "DIM I AS INTEGER\nFOR I = 1 TO 10\nPRINT I\nNEXT I\n")
	mustContain(t, ir, "@")
	mustContain(t, ir, "cle")
}

func TestPrintStmtCallsRuntimePrint(t *testing.T) {
	ir := generate(t, `PRINT "hello"`)
	mustContain(t, ir, "$print_string")
	mustContain(t, ir, "$print_newline")
}

func TestStringLiteralInternedAsData(t *testing.T) {
	ir := generate(t, `PRINT "hello"` + "\n" + `PRINT "hello"`)
	count := strings.Count(ir, "data $str")
	if count != 1 {
		t.Errorf("expected one deduped string literal, got %d data declarations:\n%s", count, ir)
	}
}

func TestFunctionDeclEmitsNamedFunction(t *testing.T) {
	src := "FUNCTION ADD(A AS INTEGER, B AS INTEGER) AS INTEGER\nADD = A + B\nEND FUNCTION\n" +
		"DIM R AS INTEGER\nR = ADD(1, 2)\n"
	ir := generate(t, src)
	mustContain(t, ir, "$ADD")
	mustContain(t, ir, "call $ADD")
}

func TestClassMethodCallDispatchesThroughVtable(t *testing.T) {
	src := "CLASS Counter\n" +
		"Count AS INTEGER\n" +
		"METHOD Bump()\n" +
		"Count = Count + 1\n" +
		"END METHOD\n" +
		"END CLASS\n" +
		"DIM C AS Counter\n" +
		"C = NEW Counter()\n" +
		"C.Bump()\n"
	ir := generate(t, src)
	mustContain(t, ir, "$class_new")
	mustContain(t, ir, "loadl")
}

func TestDimArrayEmitsRuntimeArrayNew(t *testing.T) {
	ir := generate(t, "DIM A(10) AS INTEGER\nA(1) = 5\n")
	mustContain(t, ir, "$array_new")
	mustContain(t, ir, "$array_set")
}

func TestEmptyProgramStillEmitsMain(t *testing.T) {
	ir := generate(t, "REM nothing here\n")
	mustContain(t, ir, "function")
	mustContain(t, ir, "$main")
}

func TestSelectCaseEmitsTestChain(t *testing.T) {
	src := "DIM X AS INTEGER\nX = 2\nSELECT CASE X\nCASE 1\nPRINT \"one\"\nCASE 2\nPRINT \"two\"\nEND SELECT\n"
	ir := generate(t, src)
	mustContain(t, ir, "ceq")
}

// sanity: Generate must not panic on a program with no statements.
func TestGenerateOnEmptyAST(t *testing.T) {
	bag := diag.NewBag()
	st := sema.Pass1(&ast.Program{}, emptyData(t), options.Default(), bag)
	sema.Pass2(&ast.Program{}, st, bag)
	mod := Generate(&ast.Program{}, st, bag)
	if mod == nil {
		t.Fatal("expected a non-nil module")
	}
}

func emptyData(t *testing.T) *dataprep.Segment {
	t.Helper()
	seg, err := dataprep.Extract("")
	if err != nil {
		t.Fatalf("dataprep.Extract: %v", err)
	}
	return seg
}
