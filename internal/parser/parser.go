// Package parser implements the recursive-descent statement parser
// and Pratt expression parser (C6). It is adapted from the teacher's
// internal/parser, generalized from a brace-delimited scripting
// grammar to BASIC's line/colon/END-keyword grammar, and reports
// through internal/diag instead of a bare []error slice.
package parser

import (
	"fmt"

	"basiccompiler/internal/ast"
	"basiccompiler/internal/diag"
	"basiccompiler/internal/token"
)

// Parser consumes a flat token stream (as produced by internal/lexer)
// and produces an *ast.Program plus any diagnostics collected along
// the way.
type Parser struct {
	tokens []token.Token
	cur    int
	file   string
	bag    *diag.Bag
}

// New constructs a Parser over tokens, reporting into bag.
func New(tokens []token.Token, file string, bag *diag.Bag) *Parser {
	return &Parser{tokens: tokens, file: file, bag: bag}
}

// Parse consumes the whole token stream and returns the Program AST.
// Parse errors are recorded in the Parser's diag.Bag; parsing resyncs
// to the next end-of-line and continues so that a single run reports
// as many errors as possible (spec.md §4.2 failure model).
func (p *Parser) Parse() *ast.Program {
	prog := &ast.Program{}
	for !p.isAtEnd() {
		if p.check(token.EOL) {
			p.advance()
			continue
		}
		prog.Lines = append(prog.Lines, p.parseTopLine())
	}
	return prog
}

// parseTopLine parses one physical source line at the top level:
// optional line number, optional label, then colon-separated
// statements, up to the terminating EOL/EOF.
func (p *Parser) parseTopLine() ast.Line {
	line := ast.Line{}
	if p.check(token.LineNumber) {
		tok := p.advance()
		line.HasNumber = true
		line.Number = int(tok.NumberValue)
	}
	if p.check(token.Identifier) && p.checkNextIs(token.Colon) {
		name := p.advance().Lexeme
		p.advance()
		line.Label = name
	}
	line.Statements = p.parseColonList()
	p.consumeEOLOrEnd()
	return line
}

// parseColonList parses one or more colon-separated statements ending
// at EOL/EOF, recovering past a bad statement by skipping to the next
// colon or EOL.
func (p *Parser) parseColonList() []ast.Stmt {
	var out []ast.Stmt
	if p.check(token.EOL) || p.isAtEnd() {
		return out
	}
	for {
		out = append(out, p.statementRecovering())
		if p.match(token.Colon) {
			if p.check(token.EOL) || p.isAtEnd() {
				break
			}
			continue
		}
		break
	}
	return out
}

func (p *Parser) statementRecovering() (result ast.Stmt) {
	start := p.cur
	defer func() {
		if r := recover(); r != nil {
			if perr, ok := r.(parseError); ok {
				p.bag.Error(diag.ParseError, perr.loc, "%s", perr.msg)
			} else {
				panic(r)
			}
			if p.cur == start {
				p.advance()
			}
			p.syncToColonOrEOL()
			result = &ast.NopStmt{Node: ast.Node{Kind: ast.KindNopStmt, Loc: p.locAt(start)}}
		}
	}()
	return p.statement()
}

func (p *Parser) syncToColonOrEOL() {
	for !p.isAtEnd() && !p.check(token.Colon) && !p.check(token.EOL) {
		p.advance()
	}
}

// parseBlock parses logical lines (each possibly label-prefixed,
// possibly multiple colon-separated statements) until the next
// significant token matches one of enders, which is left unconsumed
// for the caller.
func (p *Parser) parseBlock(enders ...token.Type) []ast.Stmt {
	var out []ast.Stmt
	for {
		for p.check(token.EOL) {
			p.advance()
		}
		if p.isAtEnd() || p.checkAny(enders...) {
			return out
		}
		if p.check(token.LineNumber) {
			p.advance()
		}
		if p.check(token.Identifier) && p.checkNextIs(token.Colon) {
			name := p.advance().Lexeme
			loc := p.previous().Loc
			p.advance()
			out = append(out, &ast.LabelStmt{Node: ast.Node{Kind: ast.KindLabelStmt, Loc: loc}, Name: name})
		}
		out = append(out, p.parseColonList()...)
		p.consumeEOLOrEnd()
	}
}

func (p *Parser) consumeEOLOrEnd() {
	if p.check(token.EOL) {
		p.advance()
		return
	}
	if p.isAtEnd() {
		return
	}
}

// --- token stream primitives ---

type parseError struct {
	loc token.Location
	msg string
}

func (p *Parser) fail(format string, args ...any) {
	panic(parseError{loc: p.peek().Loc, msg: fmt.Sprintf(format, args...)})
}

func (p *Parser) isAtEnd() bool { return p.peek().Type == token.EOF }

func (p *Parser) peek() token.Token {
	if p.cur >= len(p.tokens) {
		return token.Token{Type: token.EOF}
	}
	return p.tokens[p.cur]
}

func (p *Parser) peekAt(n int) token.Token {
	idx := p.cur + n
	if idx >= len(p.tokens) {
		return token.Token{Type: token.EOF}
	}
	return p.tokens[idx]
}

func (p *Parser) previous() token.Token {
	if p.cur == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.cur-1]
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if !p.isAtEnd() {
		p.cur++
	}
	return tok
}

func (p *Parser) check(t token.Type) bool {
	return p.peek().Type == t
}

func (p *Parser) checkNextIs(t token.Type) bool {
	return p.peekAt(1).Type == t
}

func (p *Parser) checkAny(types ...token.Type) bool {
	cur := p.peek().Type
	for _, t := range types {
		if cur == t {
			return true
		}
	}
	return false
}

func (p *Parser) match(t token.Type) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) matchAny(types ...token.Type) (token.Token, bool) {
	for _, t := range types {
		if p.check(t) {
			return p.advance(), true
		}
	}
	return token.Token{}, false
}

func (p *Parser) consume(t token.Type, msg string) token.Token {
	if p.check(t) {
		return p.advance()
	}
	p.fail("%s (got %q)", msg, p.peek().Lexeme)
	return token.Token{}
}

func (p *Parser) locAt(idx int) token.Location {
	if idx >= len(p.tokens) {
		return p.peek().Loc
	}
	return p.tokens[idx].Loc
}

func (p *Parser) loc() token.Location { return p.peek().Loc }
