package sema

import (
	"testing"

	"basiccompiler/internal/dataprep"
	"basiccompiler/internal/diag"
	"basiccompiler/internal/lexer"
	"basiccompiler/internal/options"
	"basiccompiler/internal/parser"
)

func analyze(t *testing.T, src string) (*SymbolTable, *diag.Bag) {
	t.Helper()
	toks := lexer.New("test.bas", src).ScanTokens()
	bag := diag.NewBag()
	prog := parser.New(toks, "test.bas", bag).Parse()
	data, err := dataprep.Extract(src)
	if err != nil {
		t.Fatalf("dataprep.Extract: %v", err)
	}
	st := Pass1(prog, data, options.Default(), bag)
	Pass2(prog, st, bag)
	return st, bag
}

func TestGlobalAndDimAreCollected(t *testing.T) {
	st, bag := analyze(t, "GLOBAL COUNT AS INTEGER\nDIM SCORES(10) AS INTEGER\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors)
	}
	if _, ok := st.Globals["COUNT"]; !ok {
		t.Errorf("expected COUNT to be registered as a global")
	}
	if dims, ok := st.Main.ArrayDims["SCORES"]; !ok || len(dims) != 1 {
		t.Errorf("expected SCORES to be a 1-dimensional array, got %+v", st.Main.ArrayDims)
	}
}

func TestConstantFoldsAtDeclaration(t *testing.T) {
	st, bag := analyze(t, "CONSTANT MAX = 10 * 2\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors)
	}
	v, ok := st.Constants["MAX"]
	if !ok || v.I != 20 {
		t.Errorf("expected MAX folded to 20, got %+v", v)
	}
}

func TestNonConstantInConstantDeclarationIsAnError(t *testing.T) {
	_, bag := analyze(t, "DIM X AS INTEGER\nCONSTANT Y = X + 1\n")
	if !bag.HasErrors() {
		t.Fatal("expected a type-mismatch error for a non-constant CONSTANT initializer")
	}
}

func TestDuplicateLineNumberIsAnError(t *testing.T) {
	_, bag := analyze(t, "10 PRINT 1\n10 PRINT 2\n")
	if !bag.HasErrors() {
		t.Fatal("expected a duplicate line number error")
	}
	found := false
	for _, e := range bag.Errors {
		if e.Kind == diag.DuplicateLineNumber {
			found = true
		}
	}
	if !found {
		t.Errorf("expected DuplicateLineNumber, got %+v", bag.Errors)
	}
}

func TestDuplicateLabelIsAnError(t *testing.T) {
	_, bag := analyze(t, "Again:\nPRINT 1\nAgain:\nPRINT 2\n")
	if !bag.HasErrors() {
		t.Fatal("expected a duplicate label error")
	}
}

func TestGotoUndefinedLabelIsAnError(t *testing.T) {
	_, bag := analyze(t, "GOTO Nowhere\n")
	if !bag.HasErrors() {
		t.Fatal("expected an undefined label error")
	}
}

func TestTypeDeclLaysOutFieldsInOrder(t *testing.T) {
	st, bag := analyze(t, "TYPE Point\nX AS INTEGER\nY AS INTEGER\nEND TYPE\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors)
	}
	udt, ok := st.Types["Point"]
	if !ok || len(udt.Fields) != 2 {
		t.Fatalf("expected Point with 2 fields, got %+v", udt)
	}
	if udt.Fields[0].Offset != 0 || udt.Fields[1].Offset != 4 {
		t.Errorf("unexpected field offsets: %+v", udt.Fields)
	}
	if udt.SIMDLane != "V2S" {
		t.Errorf("expected a 2-lane 32-bit record to classify as V2S, got %q", udt.SIMDLane)
	}
}

func TestClassInheritsParentFieldsAndVtableSlots(t *testing.T) {
	src := "CLASS Animal\nName AS STRING\nMETHOD Speak()\nPRINT Name\nEND METHOD\nEND CLASS\n" +
		"CLASS Dog EXTENDS Animal\nBreed AS STRING\nMETHOD Speak()\nPRINT Breed\nEND METHOD\nEND CLASS\n"
	st, bag := analyze(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors)
	}
	dog, ok := st.Classes["Dog"]
	if !ok {
		t.Fatal("expected Dog to be registered")
	}
	if len(dog.Fields) != 2 || dog.Fields[0].Name != "Name" || dog.Fields[1].Name != "Breed" {
		t.Errorf("expected inherited field Name followed by own field Breed, got %+v", dog.Fields)
	}
	speak, ok := dog.Methods["Speak"]
	if !ok || !speak.Overrides {
		t.Fatalf("expected Dog.Speak to override Animal.Speak, got %+v", speak)
	}
	if speak.VtableSlot != st.Classes["Animal"].Methods["Speak"].VtableSlot {
		t.Errorf("expected override to reuse the parent's vtable slot")
	}
}

func TestCircularInheritanceIsAnError(t *testing.T) {
	src := "CLASS A EXTENDS B\nEND CLASS\nCLASS B EXTENDS A\nEND CLASS\n"
	_, bag := analyze(t, src)
	found := false
	for _, e := range bag.Errors {
		if e.Kind == diag.CircularInheritance {
			found = true
		}
	}
	if !found {
		t.Errorf("expected CircularInheritance, got %+v", bag.Errors)
	}
}

func TestUndefinedParentClassIsAnError(t *testing.T) {
	_, bag := analyze(t, "CLASS Dog EXTENDS Nonexistent\nEND CLASS\n")
	if !bag.HasErrors() {
		t.Fatal("expected an undefined class error")
	}
}

func TestExplicitRequiredCoercionOnAssignIsAnError(t *testing.T) {
	_, bag := analyze(t, "DIM S AS STRING\nDIM N AS INTEGER\nS = \"5\"\nN = S\n")
	if !bag.HasErrors() {
		t.Fatal("expected a type-mismatch error assigning STRING to INTEGER")
	}
}

func TestImplicitSafeWideningAssignIsNotAnError(t *testing.T) {
	_, bag := analyze(t, "DIM I AS INTEGER\nDIM L AS LONG\nI = 5\nL = I\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors widening INTEGER to LONG: %v", bag.Errors)
	}
}

func TestExitForOutsideLoopIsAnError(t *testing.T) {
	_, bag := analyze(t, "EXIT FOR\n")
	if !bag.HasErrors() {
		t.Fatal("expected a control-flow-mismatch error for EXIT FOR outside a loop")
	}
}

func TestExitForInsideForIsNotAnError(t *testing.T) {
	_, bag := analyze(t, "FOR I = 1 TO 10\nEXIT FOR\nNEXT I\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors)
	}
}

func TestCatchAllMustBeLastArm(t *testing.T) {
	src := "TRY\nX = 1\nCATCH E\nX = 2\nCATCH 5 F\nX = 3\nEND TRY\n"
	_, bag := analyze(t, src)
	if !bag.HasErrors() {
		t.Fatal("expected an error: catch-all CATCH must be the last arm")
	}
}

func TestDuplicateCatchCodeIsAnError(t *testing.T) {
	src := "TRY\nX = 1\nCATCH 5 E\nX = 2\nCATCH 5 F\nX = 3\nEND TRY\n"
	_, bag := analyze(t, src)
	if !bag.HasErrors() {
		t.Fatal("expected a duplicate CATCH code error")
	}
}

func TestInputInsideTimerHandlerIsAnError(t *testing.T) {
	src := "AFTER 1000 CALL DO\nINPUT_AT 1, 1, \"x\", X\nDONE\n"
	_, bag := analyze(t, src)
	found := false
	for _, e := range bag.Errors {
		if e.Kind == diag.ControlFlowMismatch {
			found = true
		}
	}
	if !found {
		t.Errorf("expected ControlFlowMismatch for INPUT inside a timer handler, got %+v", bag.Errors)
	}
}

func TestFunctionRedeclaredIsAnError(t *testing.T) {
	src := "FUNCTION F%()\nF% = 1\nEND FUNCTION\nFUNCTION F%()\nF% = 2\nEND FUNCTION\n"
	_, bag := analyze(t, src)
	if !bag.HasErrors() {
		t.Fatal("expected a function-redeclared error")
	}
}

func TestUndeclaredVariableUnderOptionExplicitIsAnError(t *testing.T) {
	toks := lexer.New("test.bas", "X = 1\n").ScanTokens()
	bag := diag.NewBag()
	prog := parser.New(toks, "test.bas", bag).Parse()
	data := dataprep.NewSegment()
	opts := options.Default()
	opts.Explicit = true
	st := Pass1(prog, data, opts, bag)
	Pass2(prog, st, bag)
	found := false
	for _, e := range bag.Errors {
		if e.Kind == diag.UndefinedVariable {
			found = true
		}
	}
	if !found {
		t.Errorf("expected UndefinedVariable under OPTION EXPLICIT, got %+v", bag.Errors)
	}
}
