package constfold

import (
	"errors"
	"testing"

	"basiccompiler/internal/ast"
)

func num(raw string, val float64) *ast.NumberLit {
	return &ast.NumberLit{Raw: raw, Value: val}
}

func str(s string) *ast.StringLit {
	return &ast.StringLit{Value: s}
}

func bin(left ast.Expr, op string, right ast.Expr) *ast.Binary {
	return &ast.Binary{Left: left, Operator: op, Right: right}
}

func TestIntegerArithmeticStaysInteger(t *testing.T) {
	v, err := Eval(bin(num("2", 2), "+", num("3", 3)), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != KindInt || v.I != 5 {
		t.Errorf("got %+v, want int 5", v)
	}
}

func TestDivisionPromotesToFloat(t *testing.T) {
	v, err := Eval(bin(num("7", 7), "/", num("2", 2)), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != KindFloat || v.F != 3.5 {
		t.Errorf("got %+v, want float 3.5", v)
	}
}

func TestStringConcatenation(t *testing.T) {
	v, err := Eval(bin(str("foo"), "+", str("bar")), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != KindString || v.S != "foobar" {
		t.Errorf("got %+v, want string foobar", v)
	}
}

func TestComparisonYieldsMinusOneOrZero(t *testing.T) {
	v, err := Eval(bin(num("3", 3), "<", num("5", 5)), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != KindInt || v.I != -1 {
		t.Errorf("true comparison should fold to -1, got %+v", v)
	}
	v2, _ := Eval(bin(num("5", 5), "<", num("3", 3)), nil)
	if v2.I != 0 {
		t.Errorf("false comparison should fold to 0, got %+v", v2)
	}
}

func TestVariableReferenceIsNotConstantWithoutLookup(t *testing.T) {
	_, err := Eval(&ast.Variable{Name: "X"}, nil)
	if !errors.Is(err, ErrNotConstant) {
		t.Fatalf("expected ErrNotConstant, got %v", err)
	}
}

func TestConstantLookupResolves(t *testing.T) {
	lookup := func(name string) (Value, bool) {
		if name == "PI" {
			return floatVal(3.25), true
		}
		return Value{}, false
	}
	v, err := Eval(&ast.Variable{Name: "PI"}, lookup)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != KindFloat || v.F != 3.25 {
		t.Errorf("got %+v, want float 3.25", v)
	}
}

func TestBuiltinCallsFold(t *testing.T) {
	v, err := Eval(&ast.Call{Callee: "ABS", Args: []ast.Expr{num("-4", -4)}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != KindInt || v.I != 4 {
		t.Errorf("got %+v, want int 4", v)
	}
}

func TestUnrecognizedCallIsNotConstant(t *testing.T) {
	_, err := Eval(&ast.Call{Callee: "RND", Args: nil}, nil)
	if !errors.Is(err, ErrNotConstant) {
		t.Fatalf("expected ErrNotConstant, got %v", err)
	}
}

func TestMidDollarSubstring(t *testing.T) {
	v, err := Eval(&ast.Call{Callee: "MID$", Args: []ast.Expr{str("HELLO"), num("2", 2), num("3", 3)}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.S != "ELL" {
		t.Errorf("got %q, want ELL", v.S)
	}
}
