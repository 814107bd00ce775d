package parser

import (
	"basiccompiler/internal/ast"
	"basiccompiler/internal/token"
)

// parseAsClause consumes an optional `AS TypeName` clause, returning
// "" when absent (the type is then inferred from the suffix by sema).
func (p *Parser) parseAsClause() string {
	if !p.match(token.KwAs) {
		return ""
	}
	return p.parseTypeName()
}

// parseTypeName consumes a single token, a base-type keyword or an
// identifier (a UDT or CLASS name), and returns its type name. The
// `OF X` element type of `LIST OF X` / `HASHMAP OF X` is parsed by
// parseDimStmt.
func (p *Parser) parseTypeName() string {
	tok := p.advance()
	return tokenTypeName(tok)
}

func tokenTypeName(tok token.Token) string {
	switch tok.Type {
	case token.KwByte, token.KwShort, token.KwInteger, token.KwLong,
		token.KwUByte, token.KwUShort, token.KwUInteger, token.KwULong,
		token.KwSingle, token.KwDouble, token.KwStringT, token.KwObject,
		token.KwAny:
		return string(tok.Type)
	case token.Identifier:
		return tok.Lexeme
	default:
		return tok.Lexeme
	}
}

// parseDimStmt parses DIM name[(dims)] [AS Type] [= init] and the
// `LIST OF X` / `HASHMAP OF X` collection forms; there is no
// `ARRAY OF X` form.
func (p *Parser) parseDimStmt() ast.Stmt {
	tok := p.advance() // DIM
	name := p.consume(token.Identifier, "expect variable name after DIM")
	mangled, _ := MangleName(name.Lexeme)
	stmt := &ast.DimStmt{Node: ast.Node{Kind: ast.KindDimStmt, Loc: tok.Loc}, Name: mangled}

	if p.check(token.LParen) {
		stmt.Dimensions = p.parseDimensionList()
	}
	if p.check(token.KwList) || p.check(token.KwHashmap) {
		p.advance()
		if p.match(token.KwOf) {
			stmt.ElementOf = p.parseTypeName()
		}
	} else {
		stmt.TypeName = p.parseAsClause()
	}
	if p.match(token.Equal) {
		stmt.Init = p.expression()
	}
	return stmt
}

// parseDimensionList parses `(expr, expr, ...)`, keeping every bound
// as an expression; sema records a bound that is not a constant as -1
// to mean runtime sizing (spec.md §4.3 item 7).
func (p *Parser) parseDimensionList() []ast.Expr {
	p.advance() // (
	var dims []ast.Expr
	if !p.check(token.RParen) {
		dims = append(dims, p.expression())
		for p.match(token.Comma) {
			dims = append(dims, p.expression())
		}
	}
	p.consume(token.RParen, "expect ')' after array dimensions")
	return dims
}

func (p *Parser) parseRedimStmt() ast.Stmt {
	tok := p.advance() // REDIM
	preserve := p.match(token.KwPreserve)
	name := p.consume(token.Identifier, "expect array name after REDIM")
	mangled, _ := MangleName(name.Lexeme)
	dims := p.parseDimensionList()
	return &ast.RedimStmt{Node: ast.Node{Kind: ast.KindRedimStmt, Loc: tok.Loc}, Name: mangled, Dimensions: dims, Preserve: preserve}
}

func (p *Parser) parseGlobalStmt() ast.Stmt {
	tok := p.advance() // GLOBAL
	name := p.consume(token.Identifier, "expect variable name after GLOBAL")
	mangled, _ := MangleName(name.Lexeme)
	stmt := &ast.GlobalStmt{Node: ast.Node{Kind: ast.KindGlobalStmt, Loc: tok.Loc}, Name: mangled}
	stmt.TypeName = p.parseAsClause()
	if p.match(token.Equal) {
		stmt.Init = p.expression()
	}
	return stmt
}

func (p *Parser) parseConstantStmt() ast.Stmt {
	tok := p.advance() // CONSTANT
	name := p.consume(token.Identifier, "expect name after CONSTANT")
	mangled, _ := MangleName(name.Lexeme)
	p.consume(token.Equal, "expect '=' after CONSTANT name")
	value := p.expression()
	return &ast.ConstantStmt{Node: ast.Node{Kind: ast.KindConstantStmt, Loc: tok.Loc}, Name: mangled, Expr: value}
}

func (p *Parser) parseField() ast.Field {
	name := p.consume(token.Identifier, "expect field name")
	typeName := p.parseAsClause()
	return ast.Field{Name: name.Lexeme, TypeName: typeName}
}

func (p *Parser) parseTypeDeclStmt() ast.Stmt {
	tok := p.advance() // TYPE
	name := p.consume(token.Identifier, "expect type name after TYPE")
	decl := &ast.TypeDeclStmt{Node: ast.Node{Kind: ast.KindTypeDeclStmt, Loc: tok.Loc}, Name: name.Lexeme}
	for {
		for p.check(token.EOL) {
			p.advance()
		}
		if p.check(token.KwEndType) || p.isAtEnd() {
			break
		}
		decl.Fields = append(decl.Fields, p.parseField())
		p.consumeEOLOrEnd()
	}
	p.consume(token.KwEndType, "expect END TYPE")
	return decl
}

func (p *Parser) parseClassDeclStmt() ast.Stmt {
	tok := p.advance() // CLASS
	name := p.consume(token.Identifier, "expect class name after CLASS")
	decl := &ast.ClassDeclStmt{Node: ast.Node{Kind: ast.KindClassDeclStmt, Loc: tok.Loc}, Name: name.Lexeme}
	if p.match(token.KwExtends) {
		parent := p.consume(token.Identifier, "expect parent class name after EXTENDS")
		decl.Parent = parent.Lexeme
	}
	for {
		for p.check(token.EOL) {
			p.advance()
		}
		if p.check(token.KwEndClass) || p.isAtEnd() {
			break
		}
		if p.check(token.KwMethod) {
			decl.Methods = append(decl.Methods, p.parseMethodDecl())
			continue
		}
		decl.Fields = append(decl.Fields, p.parseField())
		p.consumeEOLOrEnd()
	}
	p.consume(token.KwEndClass, "expect END CLASS")
	return decl
}

func (p *Parser) parseMethodDecl() ast.MethodDecl {
	tok := p.advance() // METHOD
	name := p.consume(token.Identifier, "expect method name")
	params := p.parseParamList()
	retType := ""
	if p.match(token.KwAs) {
		retType = p.parseTypeName()
	}
	p.consumeEOLOrEnd()
	body := p.parseBlock(token.KwEndMethod)
	p.consume(token.KwEndMethod, "expect END METHOD")
	return ast.MethodDecl{
		Node:       ast.Node{Kind: "MethodDecl", Loc: tok.Loc},
		Name:       name.Lexeme,
		Params:     params,
		ReturnType: retType,
		Body:       body,
		IsCtor:     name.Lexeme == "NEW" || name.Lexeme == "CONSTRUCTOR",
		IsDtor:     name.Lexeme == "DELETE" || name.Lexeme == "DESTRUCTOR",
	}
}

func (p *Parser) parseParamList() []ast.Param {
	p.consume(token.LParen, "expect '(' after name")
	var params []ast.Param
	if !p.check(token.RParen) {
		params = append(params, p.parseParam())
		for p.match(token.Comma) {
			params = append(params, p.parseParam())
		}
	}
	p.consume(token.RParen, "expect ')' after parameter list")
	return params
}

func (p *Parser) parseParam() ast.Param {
	byRef := false
	if p.match(token.KwByref) {
		byRef = true
	} else {
		p.match(token.KwByval)
	}
	name := p.consume(token.Identifier, "expect parameter name")
	mangled, _ := MangleName(name.Lexeme)
	typeName := p.parseAsClause()
	return ast.Param{Name: mangled, TypeName: typeName, ByRef: byRef}
}

func (p *Parser) parseSubDeclStmt() ast.Stmt {
	tok := p.advance() // SUB
	name := p.consume(token.Identifier, "expect SUB name")
	params := p.parseParamList()
	p.consumeEOLOrEnd()
	body := p.parseBlock(token.KwEndSub)
	p.consume(token.KwEndSub, "expect END SUB")
	return &ast.SubDeclStmt{Node: ast.Node{Kind: ast.KindSubDeclStmt, Loc: tok.Loc}, Name: name.Lexeme, Params: params, Body: body}
}

func (p *Parser) parseFunctionDeclStmt() ast.Stmt {
	tok := p.advance() // FUNCTION
	name := p.consume(token.Identifier, "expect FUNCTION name")
	mangled, _ := MangleName(name.Lexeme)
	params := p.parseParamList()
	retType := ""
	if p.match(token.KwAs) {
		retType = p.parseTypeName()
	}
	p.consumeEOLOrEnd()
	body := p.parseBlock(token.KwEndFunction)
	p.consume(token.KwEndFunction, "expect END FUNCTION")
	return &ast.FunctionDeclStmt{Node: ast.Node{Kind: ast.KindFunctionDecl, Loc: tok.Loc}, Name: mangled, Params: params, ReturnType: retType, Body: body}
}

// parseDefFnStmt parses the single-line form
// `DEF FN name(params) = expr`, desugared into a FunctionDeclStmt
// whose body is a single ReturnStmt.
func (p *Parser) parseDefFnStmt() ast.Stmt {
	tok := p.advance() // DEF_FN
	name := p.consume(token.Identifier, "expect function name after DEF FN")
	mangled, _ := MangleName(name.Lexeme)
	var params []ast.Param
	if p.check(token.LParen) {
		params = p.parseParamList()
	}
	p.consume(token.Equal, "expect '=' in DEF FN")
	value := p.expression()
	body := []ast.Stmt{&ast.ReturnStmt{Node: ast.Node{Kind: ast.KindReturnStmt, Loc: tok.Loc}, Value: value}}
	return &ast.FunctionDeclStmt{Node: ast.Node{Kind: ast.KindFunctionDecl, Loc: tok.Loc}, Name: mangled, Params: params, Body: body, IsDefFn: true}
}
