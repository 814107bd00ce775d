package parser

import (
	"basiccompiler/internal/ast"
	"basiccompiler/internal/token"
)

// statement dispatches on the next token to the matching statement
// parser (spec.md §4.2 "statement parsing dispatches on the first
// token").
func (p *Parser) statement() ast.Stmt {
	switch p.peek().Type {
	case token.KwOption:
		return p.parseOptionStmt()
	case token.KwDim:
		return p.parseDimStmt()
	case token.KwRedim:
		return p.parseRedimStmt()
	case token.KwGlobal:
		return p.parseGlobalStmt()
	case token.KwConstant:
		return p.parseConstantStmt()
	case token.KwType:
		return p.parseTypeDeclStmt()
	case token.KwClass:
		return p.parseClassDeclStmt()
	case token.KwSub:
		return p.parseSubDeclStmt()
	case token.KwFunction:
		return p.parseFunctionDeclStmt()
	case token.KwDefFn:
		return p.parseDefFnStmt()
	case token.KwIf:
		return p.parseIfStmt()
	case token.KwFor:
		if p.checkNextIs(token.KwEach) {
			return p.parseForEachStmt()
		}
		return p.parseForStmt()
	case token.KwWhile:
		return p.parseWhileStmt()
	case token.KwDo:
		return p.parseDoLoopStmt()
	case token.KwRepeat:
		return p.parseRepeatStmt()
	case token.KwExit:
		return p.parseExitStmt()
	case token.KwSelect:
		return p.parseSelectCaseStmt()
	case token.KwMatch:
		return p.parseMatchTypeStmt()
	case token.KwTry:
		return p.parseTryStmt()
	case token.KwThrow:
		return p.parseThrowStmt()
	case token.KwGoto:
		return p.parseGotoStmt()
	case token.KwGosub:
		return p.parseGosubStmt()
	case token.KwOn:
		return p.parseOnStmt()
	case token.KwReturn:
		return p.parseReturnStmt()
	case token.KwRestore:
		return p.parseRestoreStmt()
	case token.KwData:
		return p.parseDataStmt()
	case token.KwRead:
		return p.parseReadStmt()
	case token.KwAfter, token.KwEvery, token.KwAfterFrames, token.KwEveryFrame:
		return p.parseTimerStmt()
	case token.KwDelete:
		return p.parseDeleteStmt()
	case token.KwCall:
		return p.parseCallStmt()
	case token.KwPrint:
		return p.parsePrintStmt()
	case token.KwInput:
		return p.parseInputStmt(false)
	case token.KwInputAt:
		return p.parseInputStmt(true)
	case token.KwNew:
		loc := p.loc()
		expr := p.expression()
		return &ast.ExprStmt{Node: ast.Node{Kind: ast.KindExprStmt, Loc: loc}, Expr: expr}
	case token.Identifier:
		return p.parseIdentifierLedStmt()
	default:
		p.fail("unexpected token %q at start of statement", p.peek().Lexeme)
		return nil
	}
}

// parseOptionStmt records an OPTION directive inline as an AST node.
// internal/options performs the pre-scan that actually
// drives compile behaviour; this node is a diagnostic echo.
func (p *Parser) parseOptionStmt() ast.Stmt {
	tok := p.advance() // OPTION
	var raw string
	for !p.check(token.EOL) && !p.check(token.Colon) && !p.isAtEnd() {
		raw += p.advance().Lexeme + " "
	}
	return &ast.OptionStmt{Node: ast.Node{Kind: ast.KindOptionStmt, Loc: tok.Loc}, Raw: raw}
}

func (p *Parser) parseIfStmt() ast.Stmt {
	tok := p.advance() // IF
	stmt := &ast.IfStmt{Node: ast.Node{Kind: ast.KindIfStmt, Loc: tok.Loc}}
	stmt.Cond = p.expression()
	p.match(token.KwThen)
	p.consumeEOLOrEnd()
	stmt.Then = p.parseBlock(token.KwElseIf, token.KwElse, token.KwEndIf)
	for p.check(token.KwElseIf) {
		p.advance()
		cond := p.expression()
		p.match(token.KwThen)
		p.consumeEOLOrEnd()
		body := p.parseBlock(token.KwElseIf, token.KwElse, token.KwEndIf)
		stmt.ElseIfs = append(stmt.ElseIfs, ast.ElseIf{Cond: cond, Body: body})
	}
	if p.check(token.KwElse) {
		p.advance()
		p.consumeEOLOrEnd()
		stmt.Else = p.parseBlock(token.KwEndIf)
	}
	p.consume(token.KwEndIf, "expect END IF")
	return stmt
}

func (p *Parser) parseForStmt() ast.Stmt {
	tok := p.advance() // FOR
	name := p.consume(token.Identifier, "expect loop variable after FOR")
	mangled, _ := MangleName(name.Lexeme)
	p.consume(token.Equal, "expect '=' after FOR loop variable")
	start := p.expression()
	p.consume(token.KwTo, "expect TO in FOR statement")
	end := p.expression()
	var step ast.Expr
	if p.match(token.KwStep) {
		step = p.expression()
	}
	p.consumeEOLOrEnd()
	body := p.parseBlock(token.KwNext)
	p.consume(token.KwNext, "expect NEXT")
	if p.check(token.Identifier) {
		p.advance() // optional matching loop variable
	}
	return &ast.ForStmt{Node: ast.Node{Kind: ast.KindForStmt, Loc: tok.Loc}, Var: mangled, Start: start, End: end, Step: step, Body: body}
}

func (p *Parser) parseForEachStmt() ast.Stmt {
	tok := p.advance() // FOR
	p.advance()        // EACH
	first := p.consume(token.Identifier, "expect loop variable after FOR EACH")
	firstMangled, _ := MangleName(first.Lexeme)
	stmt := &ast.ForEachStmt{Node: ast.Node{Kind: ast.KindForEachStmt, Loc: tok.Loc}}
	if p.match(token.Comma) {
		second := p.consume(token.Identifier, "expect element variable after type variable")
		secondMangled, _ := MangleName(second.Lexeme)
		stmt.TypeVar = firstMangled
		stmt.ElementVar = secondMangled
	} else {
		stmt.ElementVar = firstMangled
	}
	p.consume(token.KwIn, "expect IN in FOR EACH statement")
	stmt.Collection = p.expression()
	p.consumeEOLOrEnd()
	stmt.Body = p.parseBlock(token.KwNext)
	p.consume(token.KwNext, "expect NEXT")
	if p.check(token.Identifier) {
		p.advance()
	}
	return stmt
}

func (p *Parser) parseWhileStmt() ast.Stmt {
	tok := p.advance() // WHILE
	cond := p.expression()
	p.consumeEOLOrEnd()
	body := p.parseBlock(token.KwWend)
	p.consume(token.KwWend, "expect WEND")
	return &ast.WhileStmt{Node: ast.Node{Kind: ast.KindWhileStmt, Loc: tok.Loc}, Cond: cond, Body: body}
}

func (p *Parser) parseDoLoopStmt() ast.Stmt {
	tok := p.advance() // DO
	stmt := &ast.DoLoopStmt{Node: ast.Node{Kind: ast.KindDoLoopStmt, Loc: tok.Loc}}
	if p.check(token.KwWhile) || p.check(token.KwUntil) {
		stmt.PreIsUntil = p.check(token.KwUntil)
		p.advance()
		stmt.PreCond = p.expression()
	}
	p.consumeEOLOrEnd()
	stmt.Body = p.parseBlock(token.KwLoop)
	p.consume(token.KwLoop, "expect LOOP")
	if p.check(token.KwWhile) || p.check(token.KwUntil) {
		stmt.PostIsUntil = p.check(token.KwUntil)
		p.advance()
		stmt.PostCond = p.expression()
	}
	return stmt
}

func (p *Parser) parseRepeatStmt() ast.Stmt {
	tok := p.advance() // REPEAT
	p.consumeEOLOrEnd()
	body := p.parseBlock(token.KwUntil)
	p.consume(token.KwUntil, "expect UNTIL")
	cond := p.expression()
	return &ast.RepeatStmt{Node: ast.Node{Kind: ast.KindRepeatStmt, Loc: tok.Loc}, Body: body, Cond: cond}
}

var exitTargets = []token.Type{token.KwFor, token.KwSub, token.KwFunction, token.KwDo, token.KwWhile, token.KwRepeat}

func (p *Parser) parseExitStmt() ast.Stmt {
	tok := p.advance() // EXIT
	what, ok := p.matchAny(exitTargets...)
	if !ok {
		p.fail("expect FOR, SUB, FUNCTION, DO, WHILE, or REPEAT after EXIT")
	}
	return &ast.ExitStmt{Node: ast.Node{Kind: ast.KindExitStmt, Loc: tok.Loc}, What: string(what.Type)}
}

func (p *Parser) parseSelectCaseStmt() ast.Stmt {
	tok := p.advance() // SELECT
	p.consume(token.KwCase, "expect CASE after SELECT")
	discr := p.expression()
	p.consumeEOLOrEnd()
	stmt := &ast.SelectCaseStmt{Node: ast.Node{Kind: ast.KindSelectCaseStmt, Loc: tok.Loc}, Discriminant: discr}
	for {
		for p.check(token.EOL) {
			p.advance()
		}
		if p.check(token.KwEndSelect) || p.isAtEnd() {
			break
		}
		stmt.Arms = append(stmt.Arms, p.parseCaseArm())
	}
	p.consume(token.KwEndSelect, "expect END SELECT")
	return stmt
}

func (p *Parser) parseCaseArm() ast.CaseArm {
	p.consume(token.KwCase, "expect CASE")
	arm := ast.CaseArm{}
	if p.match(token.KwOtherwise) {
		arm.Otherwise = true
	} else if p.check(token.KwCaseIs) || p.check(token.KwIs) {
		p.advance()
		for {
			op, ok := p.matchAny(token.Equal, token.NotEqual, token.Less, token.Greater, token.LessEq, token.GreaterEq)
			if !ok {
				p.fail("expect comparison operator after CASE IS")
			}
			arm.RelOps = append(arm.RelOps, string(op.Type))
			arm.RelValues = append(arm.RelValues, p.expression())
			if !p.match(token.Comma) {
				break
			}
		}
	} else {
		for {
			low := p.expression()
			if p.match(token.KwTo) {
				high := p.expression()
				arm.RangeLow = append(arm.RangeLow, low)
				arm.RangeHigh = append(arm.RangeHigh, high)
			} else {
				arm.Values = append(arm.Values, low)
			}
			if !p.match(token.Comma) {
				break
			}
		}
	}
	p.consumeEOLOrEnd()
	arm.Body = p.parseBlock(token.KwCase, token.KwEndSelect)
	return arm
}

func (p *Parser) parseMatchTypeStmt() ast.Stmt {
	tok := p.advance() // MATCH
	p.consume(token.KwType, "expect TYPE after MATCH")
	value := p.expression()
	p.consumeEOLOrEnd()
	stmt := &ast.MatchTypeStmt{Node: ast.Node{Kind: ast.KindMatchTypeStmt, Loc: tok.Loc}, Value: value}
	for {
		for p.check(token.EOL) {
			p.advance()
		}
		if p.check(token.KwEndMatch) || p.isAtEnd() {
			break
		}
		stmt.Arms = append(stmt.Arms, p.parseMatchArm())
	}
	p.consume(token.KwEndMatch, "expect END MATCH")
	return stmt
}

func (p *Parser) parseMatchArm() ast.MatchArm {
	p.consume(token.KwCase, "expect CASE in MATCH TYPE")
	typeName := p.parseTypeName()
	arm := ast.MatchArm{TypeName: typeName}
	if p.check(token.Identifier) {
		arm.BindVar = p.advance().Lexeme
	}
	p.consumeEOLOrEnd()
	arm.Body = p.parseBlock(token.KwCase, token.KwEndMatch)
	return arm
}

func (p *Parser) parseTryStmt() ast.Stmt {
	tok := p.advance() // TRY
	p.consumeEOLOrEnd()
	stmt := &ast.TryStmt{Node: ast.Node{Kind: ast.KindTryStmt, Loc: tok.Loc}}
	stmt.Body = p.parseBlock(token.KwCatch, token.KwFinally, token.KwEndTry)
	for p.check(token.KwCatch) {
		p.advance()
		arm := ast.CatchArm{}
		if p.check(token.Number) {
			arm.Codes = append(arm.Codes, int(p.advance().NumberValue))
			for p.match(token.Comma) {
				arm.Codes = append(arm.Codes, int(p.consume(token.Number, "expect error code").NumberValue))
			}
		}
		if p.check(token.Identifier) {
			arm.BindVar = p.advance().Lexeme
		}
		p.consumeEOLOrEnd()
		arm.Body = p.parseBlock(token.KwCatch, token.KwFinally, token.KwEndTry)
		stmt.Catches = append(stmt.Catches, arm)
	}
	if p.match(token.KwFinally) {
		p.consumeEOLOrEnd()
		stmt.Finally = p.parseBlock(token.KwEndTry)
	}
	p.consume(token.KwEndTry, "expect END TRY")
	return stmt
}

func (p *Parser) parseThrowStmt() ast.Stmt {
	tok := p.advance() // THROW
	code := p.expression()
	return &ast.ThrowStmt{Node: ast.Node{Kind: ast.KindThrowStmt, Loc: tok.Loc}, Code: code}
}

// parseTarget parses a GOTO/GOSUB/RESTORE/ON target: a line number or
// a bare label name.
func (p *Parser) parseTarget() (target string, isLabel bool, lineNum int) {
	if p.check(token.Number) {
		tok := p.advance()
		return tok.Lexeme, false, int(tok.NumberValue)
	}
	tok := p.consume(token.Identifier, "expect line number or label")
	return tok.Lexeme, true, 0
}

func (p *Parser) parseGotoStmt() ast.Stmt {
	tok := p.advance() // GOTO
	target, isLabel, line := p.parseTarget()
	return &ast.GotoStmt{Node: ast.Node{Kind: ast.KindGotoStmt, Loc: tok.Loc}, Target: target, IsLabel: isLabel, LineNum: line}
}

func (p *Parser) parseGosubStmt() ast.Stmt {
	tok := p.advance() // GOSUB
	target, isLabel, line := p.parseTarget()
	return &ast.GosubStmt{Node: ast.Node{Kind: ast.KindGosubStmt, Loc: tok.Loc}, Target: target, IsLabel: isLabel, LineNum: line}
}

func (p *Parser) parseTargetList() []string {
	var targets []string
	t, _, _ := p.parseTarget()
	targets = append(targets, t)
	for p.match(token.Comma) {
		t, _, _ := p.parseTarget()
		targets = append(targets, t)
	}
	return targets
}

// parseOnStmt parses `ON expr GOTO|GOSUB|CALL target, target, ...`.
// Per the Open Question decision recorded in DESIGN.md, ON...CALL
// targets must name a SUB, never a FUNCTION.
func (p *Parser) parseOnStmt() ast.Stmt {
	tok := p.advance() // ON
	selector := p.expression()
	switch {
	case p.match(token.KwGoto):
		return &ast.OnGotoStmt{Node: ast.Node{Kind: ast.KindOnGotoStmt, Loc: tok.Loc}, Selector: selector, Targets: p.parseTargetList()}
	case p.match(token.KwGosub):
		return &ast.OnGosubStmt{Node: ast.Node{Kind: ast.KindOnGosubStmt, Loc: tok.Loc}, Selector: selector, Targets: p.parseTargetList()}
	case p.match(token.KwCall):
		var targets []string
		name := p.consume(token.Identifier, "expect SUB name after ON...CALL")
		targets = append(targets, name.Lexeme)
		for p.match(token.Comma) {
			n := p.consume(token.Identifier, "expect SUB name")
			targets = append(targets, n.Lexeme)
		}
		return &ast.OnCallStmt{Node: ast.Node{Kind: ast.KindOnCallStmt, Loc: tok.Loc}, Selector: selector, Targets: targets}
	default:
		p.fail("expect GOTO, GOSUB, or CALL after ON expression")
		return nil
	}
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	tok := p.advance() // RETURN
	var value ast.Expr
	if !p.check(token.EOL) && !p.check(token.Colon) && !p.isAtEnd() {
		value = p.expression()
	}
	return &ast.ReturnStmt{Node: ast.Node{Kind: ast.KindReturnStmt, Loc: tok.Loc}, Value: value}
}

func (p *Parser) parseRestoreStmt() ast.Stmt {
	tok := p.advance() // RESTORE
	if p.check(token.EOL) || p.check(token.Colon) || p.isAtEnd() {
		return &ast.RestoreStmt{Node: ast.Node{Kind: ast.KindRestoreStmt, Loc: tok.Loc}}
	}
	target, isLabel, line := p.parseTarget()
	return &ast.RestoreStmt{Node: ast.Node{Kind: ast.KindRestoreStmt, Loc: tok.Loc}, Target: target, IsLabel: isLabel, LineNum: line}
}

// parseDataStmt consumes the rest of the line; internal/dataprep has
// already harvested the literal values out of band from raw source
// text, so the AST node is a positional marker only.
func (p *Parser) parseDataStmt() ast.Stmt {
	tok := p.advance() // DATA
	for !p.check(token.EOL) && !p.check(token.Colon) && !p.isAtEnd() {
		p.advance()
	}
	return &ast.DataStmt{Node: ast.Node{Kind: ast.KindDataStmt, Loc: tok.Loc}}
}

func (p *Parser) parseReadStmt() ast.Stmt {
	tok := p.advance() // READ
	var targets []string
	name := p.consume(token.Identifier, "expect variable name after READ")
	mangled, _ := MangleName(name.Lexeme)
	targets = append(targets, mangled)
	for p.match(token.Comma) {
		n := p.consume(token.Identifier, "expect variable name")
		nm, _ := MangleName(n.Lexeme)
		targets = append(targets, nm)
	}
	return &ast.ReadStmt{Node: ast.Node{Kind: ast.KindReadStmt, Loc: tok.Loc}, Targets: targets}
}

// parseTimerStmt covers AFTER/EVERY/AFTERFRAMES/EVERYFRAME, either
// naming an existing handler or supplying an inline DO...DONE body
// that sema synthesizes into a SUB (spec.md §4.3 item 10, §5).
func (p *Parser) parseTimerStmt() ast.Stmt {
	tok := p.advance()
	kindName := string(tok.Type)
	duration := p.expression()
	p.consume(token.KwCall, "expect CALL in timer statement")
	stmt := &ast.TimerStmt{Node: ast.Node{Kind: ast.KindTimerStmt, Loc: tok.Loc}, Kind: kindName, Duration: duration}
	if p.check(token.KwDo) {
		p.advance()
		p.consumeEOLOrEnd()
		stmt.InlineBody = p.parseBlock(token.KwDoneKw)
		p.consume(token.KwDoneKw, "expect DONE to close inline timer body")
	} else {
		name := p.consume(token.Identifier, "expect handler name in timer statement")
		stmt.Handler = name.Lexeme
	}
	return stmt
}

func (p *Parser) parseDeleteStmt() ast.Stmt {
	tok := p.advance() // DELETE
	target := p.expression()
	return &ast.DeleteStmt{Node: ast.Node{Kind: ast.KindDeleteStmt, Loc: tok.Loc}, Target: target}
}

func (p *Parser) parseCallStmt() ast.Stmt {
	tok := p.advance() // CALL
	name := p.consume(token.Identifier, "expect SUB name after CALL")
	var args []ast.Expr
	if p.check(token.LParen) {
		args = p.parseArgList()
	}
	return &ast.CallStmt{Node: ast.Node{Kind: ast.KindCallStmt, Loc: tok.Loc}, Name: name.Lexeme, Args: args}
}

func (p *Parser) parsePrintStmt() ast.Stmt {
	tok := p.advance() // PRINT
	stmt := &ast.PrintStmt{Node: ast.Node{Kind: ast.KindPrintStmt, Loc: tok.Loc}}
	if p.check(token.EOL) || p.check(token.Colon) || p.isAtEnd() {
		return stmt
	}
	stmt.Args = append(stmt.Args, p.expression())
	for {
		if p.match(token.Semicolon) {
			if p.check(token.EOL) || p.check(token.Colon) || p.isAtEnd() {
				stmt.TrailingSeparator = true
				break
			}
			stmt.Args = append(stmt.Args, p.expression())
			continue
		}
		if p.match(token.Comma) {
			stmt.Args = append(stmt.Args, p.expression())
			continue
		}
		break
	}
	return stmt
}

func (p *Parser) parseInputStmt(at bool) ast.Stmt {
	tok := p.advance() // INPUT or INPUT_AT
	stmt := &ast.InputStmt{Node: ast.Node{Kind: ast.KindInputStmt, Loc: tok.Loc}}
	if at {
		row := p.expression()
		p.consume(token.Comma, "expect ',' after row in INPUT_AT")
		col := p.expression()
		p.consume(token.Comma, "expect ',' after column in INPUT_AT")
		stmt.At = []ast.Expr{row, col}
	}
	if p.check(token.String) {
		promptTok := p.advance()
		stmt.Prompt = promptTok.StringValue
		p.consume(token.Comma, "expect ',' after INPUT prompt")
	}
	name := p.consume(token.Identifier, "expect variable name in INPUT")
	mangled, _ := MangleName(name.Lexeme)
	stmt.Target = mangled
	return stmt
}

// parseIdentifierLedStmt resolves the ambiguity between a bare SUB
// call, a scalar assignment, an indexed assignment, and a field
// assignment, all of which begin with an identifier.
func (p *Parser) parseIdentifierLedStmt() ast.Stmt {
	start := p.cur
	tok := p.advance()
	mangled, _ := MangleName(tok.Lexeme)

	if p.check(token.Equal) {
		p.advance()
		value := p.expression()
		return &ast.AssignStmt{Node: ast.Node{Kind: ast.KindAssignStmt, Loc: tok.Loc}, Name: mangled, Expr: value}
	}

	p.cur = start
	expr := p.parsePostfix()
	switch e := expr.(type) {
	case *ast.Variable:
		if p.check(token.Equal) {
			p.advance()
			value := p.expression()
			return &ast.AssignStmt{Node: ast.Node{Kind: ast.KindAssignStmt, Loc: e.Loc}, Name: e.Name, Expr: value}
		}
	case *ast.Index:
		if p.check(token.Equal) {
			p.advance()
			value := p.expression()
			return &ast.IndexAssignStmt{Node: ast.Node{Kind: ast.KindIndexAssign, Loc: e.Loc}, Object: e.Object, Indices: e.Indices, Value: value}
		}
	case *ast.FieldAccess:
		if p.check(token.Equal) {
			p.advance()
			value := p.expression()
			return &ast.FieldAssignStmt{Node: ast.Node{Kind: ast.KindFieldAssign, Loc: e.Loc}, Object: e.Object, Field: e.Field, Value: value}
		}
	}
	return &ast.ExprStmt{Node: ast.Node{Kind: ast.KindExprStmt, Loc: expr.Location()}, Expr: expr}
}
