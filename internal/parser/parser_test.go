package parser

import (
	"testing"

	"basiccompiler/internal/ast"
	"basiccompiler/internal/diag"
	"basiccompiler/internal/lexer"
)

func parseSource(t *testing.T, src string) (*ast.Program, *diag.Bag) {
	t.Helper()
	toks := lexer.New("test.bas", src).ScanTokens()
	bag := diag.NewBag()
	prog := New(toks, "test.bas", bag).Parse()
	return prog, bag
}

func firstStmt(t *testing.T, prog *ast.Program) ast.Stmt {
	t.Helper()
	for _, line := range prog.Lines {
		if len(line.Statements) > 0 {
			return line.Statements[0]
		}
	}
	t.Fatal("no statements parsed")
	return nil
}

func TestMangleNameSuffixes(t *testing.T) {
	cases := map[string]string{
		"A%":    "A_INT",
		"A#":    "A_DOUBLE",
		"A$":    "A_STRING",
		"A!":    "A_FLOAT",
		"A&":    "A_LONG",
		"A@":    "A_BYTE",
		"A^":    "A_SHORT",
		"PLAIN": "PLAIN",
	}
	for in, want := range cases {
		got, _ := MangleName(in)
		if got != want {
			t.Errorf("MangleName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDimStmtWithArrayDimensions(t *testing.T) {
	prog, bag := parseSource(t, "DIM A(10) AS INTEGER\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors)
	}
	dim, ok := firstStmt(t, prog).(*ast.DimStmt)
	if !ok {
		t.Fatalf("expected DimStmt, got %T", firstStmt(t, prog))
	}
	if dim.Name != "A" || len(dim.Dimensions) != 1 || dim.TypeName != "INTEGER" {
		t.Errorf("unexpected DimStmt: %+v", dim)
	}
}

func TestAssignmentAndExpressionPrecedence(t *testing.T) {
	prog, bag := parseSource(t, "X% = 1 + 2 * 3\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors)
	}
	assign, ok := firstStmt(t, prog).(*ast.AssignStmt)
	if !ok {
		t.Fatalf("expected AssignStmt, got %T", firstStmt(t, prog))
	}
	if assign.Name != "X_INT" {
		t.Fatalf("expected mangled name X_INT, got %s", assign.Name)
	}
	bin, ok := assign.Expr.(*ast.Binary)
	if !ok || bin.Operator != "+" {
		t.Fatalf("expected top-level '+' binary, got %#v", assign.Expr)
	}
	right, ok := bin.Right.(*ast.Binary)
	if !ok || right.Operator != "*" {
		t.Fatalf("expected '*' nested on the right of '+', got %#v", bin.Right)
	}
}

func TestLogicalPrecedenceBelowComparison(t *testing.T) {
	prog, bag := parseSource(t, "X = A < B AND C > D\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors)
	}
	assign := firstStmt(t, prog).(*ast.AssignStmt)
	logical, ok := assign.Expr.(*ast.Logical)
	if !ok || logical.Operator != "AND" {
		t.Fatalf("expected top-level AND, got %#v", assign.Expr)
	}
	if _, ok := logical.Left.(*ast.Binary); !ok {
		t.Errorf("expected comparison on AND's left, got %#v", logical.Left)
	}
}

func TestIfElseIfElseEndIf(t *testing.T) {
	src := "IF X > 0 THEN\nPRINT 1\nELSEIF X < 0 THEN\nPRINT 2\nELSE\nPRINT 3\nEND IF\n"
	prog, bag := parseSource(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors)
	}
	ifStmt, ok := firstStmt(t, prog).(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected IfStmt, got %T", firstStmt(t, prog))
	}
	if len(ifStmt.Then) != 1 || len(ifStmt.ElseIfs) != 1 || len(ifStmt.Else) != 1 {
		t.Errorf("unexpected IfStmt shape: %+v", ifStmt)
	}
}

func TestForNextLoop(t *testing.T) {
	src := "FOR I = 1 TO 10 STEP 2\nPRINT I\nNEXT I\n"
	prog, bag := parseSource(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors)
	}
	forStmt, ok := firstStmt(t, prog).(*ast.ForStmt)
	if !ok {
		t.Fatalf("expected ForStmt, got %T", firstStmt(t, prog))
	}
	if forStmt.Var != "I" || forStmt.Step == nil || len(forStmt.Body) != 1 {
		t.Errorf("unexpected ForStmt: %+v", forStmt)
	}
}

func TestForEachWithTypeBinding(t *testing.T) {
	src := "FOR EACH T, E IN Items\nPRINT E\nNEXT\n"
	prog, bag := parseSource(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors)
	}
	feStmt, ok := firstStmt(t, prog).(*ast.ForEachStmt)
	if !ok {
		t.Fatalf("expected ForEachStmt, got %T", firstStmt(t, prog))
	}
	if feStmt.TypeVar != "T" || feStmt.ElementVar != "E" {
		t.Errorf("unexpected ForEachStmt: %+v", feStmt)
	}
}

func TestSelectCaseWithRangeAndOtherwise(t *testing.T) {
	src := "SELECT CASE X\nCASE 1, 2\nPRINT 1\nCASE 3 TO 5\nPRINT 2\nCASE OTHERWISE\nPRINT 3\nEND SELECT\n"
	prog, bag := parseSource(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors)
	}
	sel, ok := firstStmt(t, prog).(*ast.SelectCaseStmt)
	if !ok {
		t.Fatalf("expected SelectCaseStmt, got %T", firstStmt(t, prog))
	}
	if len(sel.Arms) != 3 || len(sel.Arms[0].Values) != 2 || len(sel.Arms[1].RangeLow) != 1 || !sel.Arms[2].Otherwise {
		t.Errorf("unexpected SelectCaseStmt arms: %+v", sel.Arms)
	}
}

func TestTryCatchFinally(t *testing.T) {
	src := "TRY\nX = 1\nCATCH 5 E\nX = 2\nFINALLY\nX = 3\nEND TRY\n"
	prog, bag := parseSource(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors)
	}
	tryStmt, ok := firstStmt(t, prog).(*ast.TryStmt)
	if !ok {
		t.Fatalf("expected TryStmt, got %T", firstStmt(t, prog))
	}
	if len(tryStmt.Catches) != 1 || tryStmt.Catches[0].Codes[0] != 5 || tryStmt.Catches[0].BindVar != "E" || len(tryStmt.Finally) != 1 {
		t.Errorf("unexpected TryStmt: %+v", tryStmt)
	}
}

func TestClassDeclWithExtendsAndMethod(t *testing.T) {
	src := "CLASS Dog EXTENDS Animal\nName AS STRING\nMETHOD Speak()\nPRINT Name\nEND METHOD\nEND CLASS\n"
	prog, bag := parseSource(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors)
	}
	class, ok := firstStmt(t, prog).(*ast.ClassDeclStmt)
	if !ok {
		t.Fatalf("expected ClassDeclStmt, got %T", firstStmt(t, prog))
	}
	if class.Parent != "Animal" || len(class.Fields) != 1 || len(class.Methods) != 1 {
		t.Errorf("unexpected ClassDeclStmt: %+v", class)
	}
}

func TestNewAndMethodCallAndFieldAccess(t *testing.T) {
	prog, bag := parseSource(t, "X = NEW Dog().Name\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors)
	}
	assign := firstStmt(t, prog).(*ast.AssignStmt)
	field, ok := assign.Expr.(*ast.FieldAccess)
	if !ok || field.Field != "Name" {
		t.Fatalf("expected field access on NEW result, got %#v", assign.Expr)
	}
	if _, ok := field.Object.(*ast.NewExpr); !ok {
		t.Errorf("expected NewExpr as field access object, got %#v", field.Object)
	}
}

func TestGotoAndLabelAndLineNumberTargets(t *testing.T) {
	src := "GOTO Again\nAgain:\nGOTO 100\n"
	prog, bag := parseSource(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors)
	}
	first, ok := firstStmt(t, prog).(*ast.GotoStmt)
	if !ok || !first.IsLabel || first.Target != "Again" {
		t.Fatalf("unexpected first GotoStmt: %+v", first)
	}
	if prog.Lines[1].Label != "Again" {
		t.Errorf("expected label Again on second line, got %+v", prog.Lines[1])
	}
}

func TestParseErrorRecoversAtColon(t *testing.T) {
	_, bag := parseSource(t, "X = 1 +\n: Y = 2\n")
	if !bag.HasErrors() {
		t.Fatal("expected a parse error from an incomplete expression")
	}
}
