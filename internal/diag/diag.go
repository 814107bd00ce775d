// Package diag is the compiler's single diagnostics sink: every phase
// accumulates errors and warnings here instead of using exception-based
// control flow (spec.md §9 "Error accumulation"), and the top-level
// driver decides whether to continue after each phase based on whether
// the Bag holds any errors (spec.md §7 propagation policy).
package diag

import (
	"fmt"
	"strings"

	"basiccompiler/internal/token"
)

// Kind enumerates every semantic-analyzer-visible diagnostic kind of
// spec.md §7.
type Kind string

const (
	DuplicateLineNumber Kind = "DUPLICATE_LINE_NUMBER"
	DuplicateLabel      Kind = "DUPLICATE_LABEL"
	DuplicateType       Kind = "DUPLICATE_TYPE"
	DuplicateField      Kind = "DUPLICATE_FIELD"
	DuplicateClass      Kind = "DUPLICATE_CLASS"

	UndefinedLine     Kind = "UNDEFINED_LINE"
	UndefinedLabel    Kind = "UNDEFINED_LABEL"
	UndefinedVariable Kind = "UNDEFINED_VARIABLE"
	UndefinedFunction Kind = "UNDEFINED_FUNCTION"
	UndefinedType     Kind = "UNDEFINED_TYPE"
	UndefinedClass    Kind = "UNDEFINED_CLASS"
	UndefinedField    Kind = "UNDEFINED_FIELD"

	ArrayRedeclared    Kind = "ARRAY_REDECLARED"
	ArrayNotDeclared   Kind = "ARRAY_NOT_DECLARED"
	WrongDimensionCount Kind = "WRONG_DIMENSION_COUNT"
	InvalidArrayIndex  Kind = "INVALID_ARRAY_INDEX"

	FunctionRedeclared    Kind = "FUNCTION_REDECLARED"
	ArgumentCountMismatch Kind = "ARGUMENT_COUNT_MISMATCH"

	TypeMismatch     Kind = "TYPE_MISMATCH"
	InvalidTypeField Kind = "INVALID_TYPE_FIELD"

	ControlFlowMismatch Kind = "CONTROL_FLOW_MISMATCH"
	ForWithoutNext      Kind = "FOR_WITHOUT_NEXT"
	NextWithoutFor      Kind = "NEXT_WITHOUT_FOR"
	WhileWithoutWend    Kind = "WHILE_WITHOUT_WEND"
	WendWithoutWhile    Kind = "WEND_WITHOUT_WHILE"
	RepeatWithoutUntil  Kind = "REPEAT_WITHOUT_UNTIL"
	UntilWithoutRepeat  Kind = "UNTIL_WITHOUT_REPEAT"
	LoopWithoutDo       Kind = "LOOP_WITHOUT_DO"

	CircularInheritance Kind = "CIRCULAR_INHERITANCE"
	ClassError          Kind = "CLASS_ERROR"

	ParseError    Kind = "PARSE_ERROR"
	InternalError Kind = "INTERNAL_COMPILER_ERROR"

	DeadCodeAfterTerminator Kind = "DEAD_CODE_AFTER_TERMINATOR"
)

// Diagnostic is one error or warning: file/line/column/kind/message,
// per spec.md §7's "user-visible failure" shape.
type Diagnostic struct {
	Kind    Kind
	Message string
	Loc     token.Location
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Loc, d.Kind, d.Message)
}

// Bag accumulates diagnostics for one compile run: exactly one per
// spec.md §5 ("one error/warning vector per run").
type Bag struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
}

func NewBag() *Bag { return &Bag{} }

func (b *Bag) Error(kind Kind, loc token.Location, format string, args ...any) {
	b.Errors = append(b.Errors, Diagnostic{Kind: kind, Loc: loc, Message: fmt.Sprintf(format, args...)})
}

func (b *Bag) Warn(kind Kind, loc token.Location, format string, args ...any) {
	b.Warnings = append(b.Warnings, Diagnostic{Kind: kind, Loc: loc, Message: fmt.Sprintf(format, args...)})
}

func (b *Bag) HasErrors() bool { return len(b.Errors) > 0 }

func (b *Bag) Merge(other *Bag) {
	b.Errors = append(b.Errors, other.Errors...)
	b.Warnings = append(b.Warnings, other.Warnings...)
}

// ExitCode implements spec.md §6/§7: 0 on success, 1 on any compile
// error.
func (b *Bag) ExitCode() int {
	if b.HasErrors() {
		return 1
	}
	return 0
}

// Text renders the bag the way a terminal compiler front end does,
// errors before warnings, in the order recorded.
func (b *Bag) Text() string {
	var sb strings.Builder
	for _, e := range b.Errors {
		fmt.Fprintf(&sb, "error: %s\n", e)
	}
	for _, w := range b.Warnings {
		fmt.Fprintf(&sb, "warning: %s\n", w)
	}
	return sb.String()
}
