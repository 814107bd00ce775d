// Package ast is the discriminated-union node tree produced by the
// parser (spec.md §3 "AST", C5). A node exclusively owns its children;
// the Program owns a sequence of Lines; each Line owns a sequence of
// Stmts (a line may hold multiple colon-separated statements and an
// optional leading line number).
//
// The shape — one Go type per variant, double-dispatched through a
// visitor interface — is adapted directly from the teacher's
// internal/parser/ast.go and stmt.go.
package ast

import "basiccompiler/internal/token"

// Kind tags a node for diagnostics and for switch-free dispatch where
// a visitor would be overkill (e.g. CFG block splitting).
type Kind string

// Node is embedded by every AST node.
type Node struct {
	Kind Kind
	Loc  token.Location
}

func (n Node) Location() token.Location { return n.Loc }

// Expr is implemented by every expression node.
type Expr interface {
	Location() token.Location
	AcceptExpr(v ExprVisitor) any
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Location() token.Location
	AcceptStmt(v StmtVisitor) any
}

// Line is one physical BASIC line: an optional line number or label,
// and one or more colon-separated statements.
type Line struct {
	Number     int  // 0 if unlabeled
	HasNumber  bool
	Label      string // "" if none
	Statements []Stmt
}

// Program is the root of the AST: the ordered sequence of lines, plus
// every top-level declaration-shaped statement also reachable through
// Lines (TYPE/CLASS/SUB/FUNCTION/CONSTANT/GLOBAL/DIM/DATA are ordinary
// statements in their containing Line, as BASIC allows them inline).
type Program struct {
	Lines []Line
}
