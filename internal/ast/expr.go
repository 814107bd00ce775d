package ast

const (
	KindNumberLit   Kind = "NumberLit"
	KindStringLit   Kind = "StringLit"
	KindVariable    Kind = "Variable"
	KindUnary       Kind = "Unary"
	KindBinary      Kind = "Binary"
	KindLogical     Kind = "Logical"
	KindCall        Kind = "Call"
	KindIndex       Kind = "Index"
	KindFieldAccess Kind = "FieldAccess"
	KindMethodCall  Kind = "MethodCall"
	KindNewExpr     Kind = "NewExpr"
	KindIsNothing   Kind = "IsNothing"
	KindIsClass     Kind = "IsClass"
	KindSuperCall   Kind = "SuperCall"
	KindArrayLit    Kind = "ArrayLit"
	KindNothingLit  Kind = "NothingLit"
)

// NumberLit is a numeric literal (the lexer always produces f64; the
// parser/sema narrow it by context).
type NumberLit struct {
	Node
	Value float64
	Raw   string
}

func (e *NumberLit) AcceptExpr(v ExprVisitor) any { return v.VisitNumberLit(e) }

// StringLit is a string literal; HasNonASCII comes straight from the
// lexer's DETECTSTRING tracking.
type StringLit struct {
	Node
	Value       string
	HasNonASCII bool
}

func (e *StringLit) AcceptExpr(v ExprVisitor) any { return v.VisitStringLit(e) }

// Variable references a (possibly suffix-mangled) identifier.
type Variable struct {
	Node
	Name string // mangled form, e.g. "A_INT"
}

func (e *Variable) AcceptExpr(v ExprVisitor) any { return v.VisitVariable(e) }

// Unary is a prefix operator: NOT, unary -, unary +.
type Unary struct {
	Node
	Operator string
	Operand  Expr
}

func (e *Unary) AcceptExpr(v ExprVisitor) any { return v.VisitUnary(e) }

// Binary is an arithmetic/comparison operator.
type Binary struct {
	Node
	Left     Expr
	Operator string
	Right    Expr
}

func (e *Binary) AcceptExpr(v ExprVisitor) any { return v.VisitBinary(e) }

// Logical is AND/OR/XOR/IMP/EQV, whose bitwise-vs-short-circuit
// meaning is resolved by OPTION BITWISE|LOGICAL at codegen time.
type Logical struct {
	Node
	Left     Expr
	Operator string
	Right    Expr
}

func (e *Logical) AcceptExpr(v ExprVisitor) any { return v.VisitLogical(e) }

// Call is a function/SUB/built-in invocation by name.
type Call struct {
	Node
	Callee string
	Args   []Expr
}

func (e *Call) AcceptExpr(v ExprVisitor) any { return v.VisitCall(e) }

// Index is array/list/hashmap subscripting: Object(Indices...) or
// Object[Indices...]; the parser records which bracket form was used
// in Bracketed for diagnostics only, since BASIC treats them
// equivalently once resolved against the declared symbol kind.
type Index struct {
	Node
	Object    Expr
	Indices   []Expr
	Bracketed bool
}

func (e *Index) AcceptExpr(v ExprVisitor) any { return v.VisitIndex(e) }

// FieldAccess is Object.Field for UDT field access or class field
// access (not a method call).
type FieldAccess struct {
	Node
	Object Expr
	Field  string
}

func (e *FieldAccess) AcceptExpr(v ExprVisitor) any { return v.VisitFieldAccess(e) }

// MethodCall is Object.Method(Args...), dispatched virtually at
// codegen time through the receiver's vtable.
type MethodCall struct {
	Node
	Object Expr
	Method string
	Args   []Expr
}

func (e *MethodCall) AcceptExpr(v ExprVisitor) any { return v.VisitMethodCall(e) }

// NewExpr allocates a class instance: NEW ClassName(Args...).
type NewExpr struct {
	Node
	ClassName string
	Args      []Expr
}

func (e *NewExpr) AcceptExpr(v ExprVisitor) any { return v.VisitNewExpr(e) }

// IsNothing is `Object IS NOTHING`.
type IsNothing struct {
	Node
	Object Expr
}

func (e *IsNothing) AcceptExpr(v ExprVisitor) any { return v.VisitIsNothing(e) }

// IsClass is `Object IS ClassName`, a runtime tag check supporting
// inheritance (spec.md §4.3).
type IsClass struct {
	Node
	Object    Expr
	ClassName string
}

func (e *IsClass) AcceptExpr(v ExprVisitor) any { return v.VisitIsClass(e) }

// SuperCall is `SUPER.Method(Args...)`: dispatches statically to the
// parent class's implementation at that vtable slot, bypassing the
// vtable (spec.md §9).
type SuperCall struct {
	Node
	Method string
	Args   []Expr
}

func (e *SuperCall) AcceptExpr(v ExprVisitor) any { return v.VisitSuperCall(e) }

// ArrayLit is a bracketed array-valued expression used for whole-array
// SIMD-wide assignment (spec.md §3 invariant 3).
type ArrayLit struct {
	Node
	Elements []Expr
}

func (e *ArrayLit) AcceptExpr(v ExprVisitor) any { return v.VisitArrayLit(e) }

// NothingLit is the literal NOTHING (a null class reference).
type NothingLit struct {
	Node
}

func (e *NothingLit) AcceptExpr(v ExprVisitor) any { return v.VisitNothingLit(e) }

// ExprVisitor dispatches over every expression variant.
type ExprVisitor interface {
	VisitNumberLit(e *NumberLit) any
	VisitStringLit(e *StringLit) any
	VisitVariable(e *Variable) any
	VisitUnary(e *Unary) any
	VisitBinary(e *Binary) any
	VisitLogical(e *Logical) any
	VisitCall(e *Call) any
	VisitIndex(e *Index) any
	VisitFieldAccess(e *FieldAccess) any
	VisitMethodCall(e *MethodCall) any
	VisitNewExpr(e *NewExpr) any
	VisitIsNothing(e *IsNothing) any
	VisitIsClass(e *IsClass) any
	VisitSuperCall(e *SuperCall) any
	VisitArrayLit(e *ArrayLit) any
	VisitNothingLit(e *NothingLit) any
}
