package parser

import (
	"basiccompiler/internal/ast"
	"basiccompiler/internal/token"
)

// expression is the Pratt entry point. Precedence, lowest to highest
// (spec.md §4.2): OR/XOR/IMP/EQV -> AND -> NOT -> comparison -> +/- ->
// * / MOD \ -> ^ -> unary -> primary.
func (p *Parser) expression() ast.Expr {
	return p.parseOrLevel()
}

func (p *Parser) parseOrLevel() ast.Expr {
	left := p.parseAndLevel()
	for {
		tok, ok := p.matchAny(token.KwOr, token.KwXor, token.KwImp, token.KwEqv)
		if !ok {
			return left
		}
		right := p.parseAndLevel()
		left = &ast.Logical{Node: ast.Node{Kind: ast.KindLogical, Loc: tok.Loc}, Left: left, Operator: string(tok.Type), Right: right}
	}
}

func (p *Parser) parseAndLevel() ast.Expr {
	left := p.parseNotLevel()
	for p.check(token.KwAnd) {
		tok := p.advance()
		right := p.parseNotLevel()
		left = &ast.Logical{Node: ast.Node{Kind: ast.KindLogical, Loc: tok.Loc}, Left: left, Operator: string(tok.Type), Right: right}
	}
	return left
}

func (p *Parser) parseNotLevel() ast.Expr {
	if p.check(token.KwNot) {
		tok := p.advance()
		operand := p.parseNotLevel()
		return &ast.Unary{Node: ast.Node{Kind: ast.KindUnary, Loc: tok.Loc}, Operator: "NOT", Operand: operand}
	}
	return p.parseComparison()
}

var comparisonOps = []token.Type{token.Equal, token.NotEqual, token.Less, token.Greater, token.LessEq, token.GreaterEq, token.KwIs}

func (p *Parser) parseComparison() ast.Expr {
	left := p.parseAddSub()
	for {
		tok, ok := p.matchAny(comparisonOps...)
		if !ok {
			return left
		}
		if tok.Type == token.KwIs {
			left = p.finishIsExpr(left, tok)
			continue
		}
		right := p.parseAddSub()
		left = &ast.Binary{Node: ast.Node{Kind: ast.KindBinary, Loc: tok.Loc}, Left: left, Operator: string(tok.Type), Right: right}
	}
}

// finishIsExpr parses the tail of `Object IS NOTHING` or
// `Object IS ClassName`.
func (p *Parser) finishIsExpr(object ast.Expr, isTok token.Token) ast.Expr {
	if p.check(token.KwNothing) {
		p.advance()
		return &ast.IsNothing{Node: ast.Node{Kind: ast.KindIsNothing, Loc: isTok.Loc}, Object: object}
	}
	name := p.consume(token.Identifier, "expect class name after IS")
	return &ast.IsClass{Node: ast.Node{Kind: ast.KindIsClass, Loc: isTok.Loc}, Object: object, ClassName: name.Lexeme}
}

func (p *Parser) parseAddSub() ast.Expr {
	left := p.parseMulDiv()
	for {
		tok, ok := p.matchAny(token.Plus, token.Minus)
		if !ok {
			return left
		}
		right := p.parseMulDiv()
		left = &ast.Binary{Node: ast.Node{Kind: ast.KindBinary, Loc: tok.Loc}, Left: left, Operator: string(tok.Type), Right: right}
	}
}

func (p *Parser) parseMulDiv() ast.Expr {
	left := p.parsePower()
	for {
		tok, ok := p.matchAny(token.Star, token.Slash, token.Backslash, token.KwMod)
		if !ok {
			return left
		}
		right := p.parsePower()
		left = &ast.Binary{Node: ast.Node{Kind: ast.KindBinary, Loc: tok.Loc}, Left: left, Operator: string(tok.Type), Right: right}
	}
}

func (p *Parser) parsePower() ast.Expr {
	left := p.parseUnary()
	if p.check(token.Caret) {
		tok := p.advance()
		right := p.parsePower() // right-associative
		return &ast.Binary{Node: ast.Node{Kind: ast.KindBinary, Loc: tok.Loc}, Left: left, Operator: "^", Right: right}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	if tok, ok := p.matchAny(token.Minus, token.Plus); ok {
		operand := p.parseUnary()
		return &ast.Unary{Node: ast.Node{Kind: ast.KindUnary, Loc: tok.Loc}, Operator: string(tok.Type), Operand: operand}
	}
	return p.parsePostfix()
}

// parsePostfix handles call/index/field-access/method-call chains
// following a primary expression.
func (p *Parser) parsePostfix() ast.Expr {
	expr := p.primary()
	for {
		switch {
		case p.check(token.Dot):
			dotTok := p.advance()
			if p.check(token.Identifier) && p.checkNextIs(token.LParen) {
				name := p.advance().Lexeme
				args := p.parseArgList()
				expr = &ast.MethodCall{Node: ast.Node{Kind: ast.KindMethodCall, Loc: dotTok.Loc}, Object: expr, Method: name, Args: args}
				continue
			}
			name := p.consume(token.Identifier, "expect field or method name after '.'")
			expr = &ast.FieldAccess{Node: ast.Node{Kind: ast.KindFieldAccess, Loc: dotTok.Loc}, Object: expr, Field: name.Lexeme}
		case p.check(token.LParen):
			loc := p.loc()
			args := p.parseArgList()
			expr = &ast.Index{Node: ast.Node{Kind: ast.KindIndex, Loc: loc}, Object: expr, Indices: args, Bracketed: false}
		case p.check(token.LBracket):
			loc := p.loc()
			p.advance()
			var idx []ast.Expr
			if !p.check(token.RBracket) {
				idx = append(idx, p.expression())
				for p.match(token.Comma) {
					idx = append(idx, p.expression())
				}
			}
			p.consume(token.RBracket, "expect ']' after index")
			expr = &ast.Index{Node: ast.Node{Kind: ast.KindIndex, Loc: loc}, Object: expr, Indices: idx, Bracketed: true}
		default:
			return expr
		}
	}
}

func (p *Parser) parseArgList() []ast.Expr {
	p.consume(token.LParen, "expect '('")
	var args []ast.Expr
	if !p.check(token.RParen) {
		args = append(args, p.expression())
		for p.match(token.Comma) {
			args = append(args, p.expression())
		}
	}
	p.consume(token.RParen, "expect ')' after argument list")
	return args
}

func (p *Parser) primary() ast.Expr {
	tok := p.peek()
	switch tok.Type {
	case token.Number:
		p.advance()
		return &ast.NumberLit{Node: ast.Node{Kind: ast.KindNumberLit, Loc: tok.Loc}, Value: tok.NumberValue, Raw: tok.Lexeme}
	case token.String:
		p.advance()
		return &ast.StringLit{Node: ast.Node{Kind: ast.KindStringLit, Loc: tok.Loc}, Value: tok.StringValue, HasNonASCII: tok.HasNonASCII}
	case token.KwNothing:
		p.advance()
		return &ast.NothingLit{Node: ast.Node{Kind: ast.KindNothingLit, Loc: tok.Loc}}
	case token.KwNew:
		return p.parseNewExpr()
	case token.KwSuper:
		return p.parseSuperCall()
	case token.LParen:
		p.advance()
		inner := p.expression()
		p.consume(token.RParen, "expect ')' after parenthesized expression")
		return inner
	case token.LBracket:
		return p.parseArrayLit()
	case token.Identifier:
		p.advance()
		mangled, _ := MangleName(tok.Lexeme)
		if p.check(token.LParen) {
			args := p.parseArgList()
			return &ast.Call{Node: ast.Node{Kind: ast.KindCall, Loc: tok.Loc}, Callee: mangled, Args: args}
		}
		return &ast.Variable{Node: ast.Node{Kind: ast.KindVariable, Loc: tok.Loc}, Name: mangled}
	default:
		p.fail("unexpected token %q in expression", tok.Lexeme)
		return nil
	}
}

func (p *Parser) parseNewExpr() ast.Expr {
	tok := p.advance()
	name := p.consume(token.Identifier, "expect class name after NEW")
	var args []ast.Expr
	if p.check(token.LParen) {
		args = p.parseArgList()
	}
	return &ast.NewExpr{Node: ast.Node{Kind: ast.KindNewExpr, Loc: tok.Loc}, ClassName: name.Lexeme, Args: args}
}

func (p *Parser) parseSuperCall() ast.Expr {
	tok := p.advance()
	p.consume(token.Dot, "expect '.' after SUPER")
	method := p.consume(token.Identifier, "expect method name after SUPER.")
	args := p.parseArgList()
	return &ast.SuperCall{Node: ast.Node{Kind: ast.KindSuperCall, Loc: tok.Loc}, Method: method.Lexeme, Args: args}
}

func (p *Parser) parseArrayLit() ast.Expr {
	tok := p.advance()
	var elems []ast.Expr
	if !p.check(token.RBracket) {
		elems = append(elems, p.expression())
		for p.match(token.Comma) {
			elems = append(elems, p.expression())
		}
	}
	p.consume(token.RBracket, "expect ']' after array literal")
	return &ast.ArrayLit{Node: ast.Node{Kind: ast.KindArrayLit, Loc: tok.Loc}, Elements: elems}
}

