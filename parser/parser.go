// Package parser turns a token stream into the AST schema package ast
// defines. Like the lexer, it is external-collaborator territory,
// kept intentionally compact.
package parser

import (
	"fmt"
	"strconv"

	"github.com/wudi/soc/ast"
	"github.com/wudi/soc/lexer"
)

// Parser is a recursive-descent parser with a Pratt expression core.
type Parser struct {
	l    *lexer.Lexer
	cur  lexer.Token
	peek lexer.Token
	errs []string
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.next()
	p.next()
	return p
}

func Parse(source string) (*ast.Program, error) {
	p := New(lexer.New(source))
	prog := p.ParseProgram()
	if len(p.errs) > 0 {
		return nil, fmt.Errorf("parse error: %s", p.errs[0])
	}
	return prog, nil
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) pos() ast.Position {
	return ast.Position{Line: p.cur.Line, Col: p.cur.Col}
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errs = append(p.errs, fmt.Sprintf("line %d: %s", p.cur.Line, fmt.Sprintf(format, args...)))
}

func (p *Parser) expect(t lexer.TokenType) lexer.Token {
	tok := p.cur
	if p.cur.Type != t {
		p.errorf("expected token %d, got %d (%q)", t, p.cur.Type, p.cur.Literal)
	}
	p.next()
	return tok
}

func (p *Parser) at(t lexer.TokenType) bool { return p.cur.Type == t }

func (p *Parser) accept(t lexer.TokenType) bool {
	if p.at(t) {
		p.next()
		return true
	}
	return false
}

// ParseProgram parses a whole source file into a flat statement list.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.at(lexer.TOKEN_EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		p.accept(lexer.TOKEN_SEMI)
	}
	return prog
}

func (p *Parser) parseStatement() ast.Node {
	switch p.cur.Type {
	case lexer.TOKEN_LET, lexer.TOKEN_MUT:
		return p.parseLet()
	case lexer.TOKEN_IF:
		return p.parseIf()
	case lexer.TOKEN_WHILE:
		return p.parseWhile()
	case lexer.TOKEN_FOR:
		return p.parseFor()
	case lexer.TOKEN_DO:
		return p.parseDo()
	case lexer.TOKEN_RETURN:
		return p.parseReturn()
	case lexer.TOKEN_BREAK:
		return p.parseBreak()
	case lexer.TOKEN_CONTINUE:
		pos := p.pos()
		p.next()
		return &ast.Continue{Position: pos}
	case lexer.TOKEN_TRY:
		return p.parseTry()
	case lexer.TOKEN_THROW:
		pos := p.pos()
		p.next()
		return &ast.Throw{Position: pos, Value: p.parseExpr(precLowest)}
	case lexer.TOKEN_TYPE:
		return p.parseTypeAlias()
	case lexer.TOKEN_EXPORT:
		return p.parseExport()
	default:
		return p.parseExprStatement()
	}
}

func (p *Parser) parseLet() ast.Node {
	pos := p.pos()
	mutable := p.cur.Type == lexer.TOKEN_MUT
	p.next()
	name := p.expect(lexer.TOKEN_IDENT).Literal
	typ := ""
	if p.accept(lexer.TOKEN_COLON) {
		typ = p.expect(lexer.TOKEN_IDENT).Literal
	}
	p.expect(lexer.TOKEN_ASSIGN)
	value := p.parseExpr(precLowest)
	return &ast.Let{Position: pos, Name: name, Type: typ, Mutable: mutable, Value: value}
}

func (p *Parser) parseIf() ast.Node {
	pos := p.pos()
	p.next()
	p.expect(lexer.TOKEN_LPAREN)
	cond := p.parseExpr(precLowest)
	p.expect(lexer.TOKEN_RPAREN)
	then := p.parseDo()
	var els ast.Node
	if p.accept(lexer.TOKEN_ELSE) {
		if p.at(lexer.TOKEN_IF) {
			els = p.parseIf()
		} else {
			els = p.parseDo()
		}
	}
	return &ast.If{Position: pos, Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseWhile() ast.Node {
	pos := p.pos()
	p.next()
	p.expect(lexer.TOKEN_LPAREN)
	cond := p.parseExpr(precLowest)
	p.expect(lexer.TOKEN_RPAREN)
	body := p.parseDo()
	return &ast.While{Position: pos, Cond: cond, Body: body}
}

func (p *Parser) parseFor() ast.Node {
	pos := p.pos()
	p.next()
	p.expect(lexer.TOKEN_LPAREN)
	binding := p.expect(lexer.TOKEN_IDENT).Literal
	p.expect(lexer.TOKEN_IN)
	iterable := p.parseExpr(precLowest)
	p.expect(lexer.TOKEN_RPAREN)
	body := p.parseDo()
	return &ast.For{Position: pos, Binding: binding, Iterable: iterable, Body: body}
}

func (p *Parser) parseDo() ast.Node {
	pos := p.pos()
	p.accept(lexer.TOKEN_DO)
	p.expect(lexer.TOKEN_LBRACE)
	var stmts []ast.Node
	for !p.at(lexer.TOKEN_RBRACE) && !p.at(lexer.TOKEN_EOF) {
		stmts = append(stmts, p.parseStatement())
		p.accept(lexer.TOKEN_SEMI)
	}
	p.expect(lexer.TOKEN_RBRACE)
	return &ast.Do{Position: pos, Statements: stmts}
}

func (p *Parser) parseReturn() ast.Node {
	pos := p.pos()
	p.next()
	if p.at(lexer.TOKEN_SEMI) || p.at(lexer.TOKEN_RBRACE) || p.at(lexer.TOKEN_EOF) {
		return &ast.Return{Position: pos}
	}
	return &ast.Return{Position: pos, Value: p.parseExpr(precLowest)}
}

func (p *Parser) parseBreak() ast.Node {
	pos := p.pos()
	p.next()
	if p.at(lexer.TOKEN_SEMI) || p.at(lexer.TOKEN_RBRACE) || p.at(lexer.TOKEN_EOF) {
		return &ast.Break{Position: pos}
	}
	return &ast.Break{Position: pos, Value: p.parseExpr(precLowest)}
}

func (p *Parser) parseTry() ast.Node {
	pos := p.pos()
	p.next()
	body := p.parseDo()
	p.expect(lexer.TOKEN_CATCH)
	p.expect(lexer.TOKEN_LPAREN)
	errName := p.expect(lexer.TOKEN_IDENT).Literal
	p.expect(lexer.TOKEN_RPAREN)
	handler := p.parseDo()
	return &ast.Try{Position: pos, Body: body, ErrName: errName, Handler: handler}
}

func (p *Parser) parseTypeAlias() ast.Node {
	pos := p.pos()
	p.next()
	name := p.expect(lexer.TOKEN_IDENT).Literal
	p.expect(lexer.TOKEN_ASSIGN)
	typ := p.expect(lexer.TOKEN_IDENT).Literal
	return &ast.TypeAlias{Position: pos, Name: name, Type: typ}
}

func (p *Parser) parseImport() ast.Node {
	pos := p.pos()
	p.next()
	p.expect(lexer.TOKEN_LPAREN)
	pathTok := p.expect(lexer.TOKEN_STRING)
	path := ""
	if len(pathTok.Segments) > 0 {
		path = pathTok.Segments[0].Literal
	}
	p.expect(lexer.TOKEN_RPAREN)
	return &ast.Import{Position: pos, Path: path}
}

func (p *Parser) parseExport() ast.Node {
	pos := p.pos()
	p.next()
	decl := p.parseStatement()
	return &ast.Export{Position: pos, Decl: decl}
}

func (p *Parser) parseExprStatement() ast.Node {
	pos := p.pos()
	expr := p.parseExpr(precLowest)
	if p.accept(lexer.TOKEN_ASSIGN) {
		value := p.parseExpr(precLowest)
		return &ast.Assign{Position: pos, Target: expr, Value: value}
	}
	return expr
}

// --- Pratt expression parser ---

type precedence int

const (
	precLowest precedence = iota
	precOr
	precAnd
	precEquality
	precIs
	precRelational
	precRange
	precAdditive
	precMultiplicative
	precPower
	precUnary
	precPostfix
)

var binPrec = map[lexer.TokenType]precedence{
	lexer.TOKEN_OR:      precOr,
	lexer.TOKEN_AND:     precAnd,
	lexer.TOKEN_EQ:      precEquality,
	lexer.TOKEN_NE:      precEquality,
	lexer.TOKEN_LT:      precRelational,
	lexer.TOKEN_LE:      precRelational,
	lexer.TOKEN_GT:      precRelational,
	lexer.TOKEN_GE:      precRelational,
	lexer.TOKEN_PLUS:    precAdditive,
	lexer.TOKEN_MINUS:   precAdditive,
	lexer.TOKEN_STAR:    precMultiplicative,
	lexer.TOKEN_SLASH:   precMultiplicative,
	lexer.TOKEN_PERCENT: precMultiplicative,
	lexer.TOKEN_STARSTAR: precPower,
}

var binOps = map[lexer.TokenType]ast.BinOp{
	lexer.TOKEN_PLUS: ast.OpAdd, lexer.TOKEN_MINUS: ast.OpSub,
	lexer.TOKEN_STAR: ast.OpMul, lexer.TOKEN_SLASH: ast.OpDiv,
	lexer.TOKEN_PERCENT: ast.OpMod, lexer.TOKEN_STARSTAR: ast.OpPow,
	lexer.TOKEN_EQ: ast.OpEq, lexer.TOKEN_NE: ast.OpNe,
	lexer.TOKEN_LT: ast.OpLt, lexer.TOKEN_LE: ast.OpLe,
	lexer.TOKEN_GT: ast.OpGt, lexer.TOKEN_GE: ast.OpGe,
	lexer.TOKEN_AND: ast.OpAnd, lexer.TOKEN_OR: ast.OpOr,
}

func (p *Parser) parseExpr(min precedence) ast.Node {
	left := p.parseUnary()

	for {
		if p.at(lexer.TOKEN_IS) && precIs > min {
			pos := p.pos()
			p.next()
			typ := p.expect(lexer.TOKEN_IDENT).Literal
			left = &ast.TypeCheck{Position: pos, Value: left, TypeName: typ}
			continue
		}
		if (p.at(lexer.TOKEN_DOTDOT) || p.at(lexer.TOKEN_DOTDOTEQ)) && precRange > min {
			left = p.parseRange(left)
			continue
		}
		prec, ok := binPrec[p.cur.Type]
		if !ok || prec <= min {
			break
		}
		op := binOps[p.cur.Type]
		pos := p.pos()
		opTok := p.cur.Type
		p.next()
		nextMin := prec
		if opTok == lexer.TOKEN_STARSTAR {
			// right-associative
			nextMin = prec - 1
		}
		right := p.parseExpr(nextMin)
		left = &ast.BinaryOp{Position: pos, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseRange(start ast.Node) ast.Node {
	pos := p.pos()
	inclusive := p.cur.Type == lexer.TOKEN_DOTDOTEQ
	p.next()
	end := p.parseExpr(precRange)
	var step ast.Node
	if p.accept(lexer.TOKEN_BY) {
		step = p.parseExpr(precRange)
	}
	return &ast.RangeLit{Position: pos, Start: start, End: end, Step: step, Inclusive: inclusive}
}

func (p *Parser) parseUnary() ast.Node {
	pos := p.pos()
	switch p.cur.Type {
	case lexer.TOKEN_MINUS:
		p.next()
		return &ast.UnaryOp{Position: pos, Op: ast.OpNegate, Operand: p.parseExpr(precUnary)}
	case lexer.TOKEN_BANG, lexer.TOKEN_NOT:
		p.next()
		return &ast.UnaryOp{Position: pos, Op: ast.OpNot, Operand: p.parseExpr(precUnary)}
	case lexer.TOKEN_AWAIT:
		p.next()
		return &ast.Await{Position: pos, Value: p.parseExpr(precUnary)}
	case lexer.TOKEN_SPAWN:
		p.next()
		return &ast.Spawn{Position: pos, Value: p.parseExpr(precUnary)}
	case lexer.TOKEN_YIELD:
		p.next()
		if p.at(lexer.TOKEN_SEMI) || p.at(lexer.TOKEN_RBRACE) {
			return &ast.Yield{Position: pos}
		}
		return &ast.Yield{Position: pos, Value: p.parseExpr(precLowest)}
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *Parser) parsePostfix(expr ast.Node) ast.Node {
	for {
		pos := p.pos()
		switch p.cur.Type {
		case lexer.TOKEN_LPAREN:
			p.next()
			var args []ast.Node
			for !p.at(lexer.TOKEN_RPAREN) {
				args = append(args, p.parseExpr(precLowest))
				if !p.accept(lexer.TOKEN_COMMA) {
					break
				}
			}
			p.expect(lexer.TOKEN_RPAREN)
			expr = &ast.Call{Position: pos, Callee: expr, Args: args}
		case lexer.TOKEN_LBRACKET:
			p.next()
			var idx []ast.Node
			idx = append(idx, p.parseExpr(precLowest))
			for p.accept(lexer.TOKEN_COMMA) {
				idx = append(idx, p.parseExpr(precLowest))
			}
			p.expect(lexer.TOKEN_RBRACKET)
			expr = &ast.Index{Position: pos, Object: expr, Indices: idx}
		case lexer.TOKEN_DOT:
			p.next()
			name := p.expect(lexer.TOKEN_IDENT).Literal
			optional := p.accept(lexer.TOKEN_QUESTION)
			expr = &ast.Field{Position: pos, Record: expr, Name: name, Optional: optional}
		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimary() ast.Node {
	pos := p.pos()
	switch p.cur.Type {
	case lexer.TOKEN_NUMBER:
		lit := p.cur.Literal
		p.next()
		f, _ := strconv.ParseFloat(lit, 64)
		return &ast.NumberLit{Position: pos, Value: f}
	case lexer.TOKEN_STRING:
		segs := p.cur.Segments
		p.next()
		parts := make([]ast.StringPart, 0, len(segs))
		for _, s := range segs {
			if s.Expr != "" {
				exprNode, err := Parse(s.Expr)
				var node ast.Node
				if err == nil && len(exprNode.Statements) == 1 {
					node = exprNode.Statements[0]
				}
				parts = append(parts, ast.StringPart{Expr: node})
			} else {
				parts = append(parts, ast.StringPart{Literal: s.Literal})
			}
		}
		return &ast.StringLit{Position: pos, Parts: parts}
	case lexer.TOKEN_TRUE:
		p.next()
		return &ast.BooleanLit{Position: pos, Value: true}
	case lexer.TOKEN_FALSE:
		p.next()
		return &ast.BooleanLit{Position: pos, Value: false}
	case lexer.TOKEN_NULL:
		p.next()
		return &ast.NullLit{Position: pos}
	case lexer.TOKEN_REC:
		p.next()
		return &ast.Rec{Position: pos}
	case lexer.TOKEN_IDENT:
		name := p.cur.Literal
		if name == "_" {
			p.next()
			return &ast.Wildcard{Position: pos}
		}
		p.next()
		return &ast.Identifier{Position: pos, Name: name}
	case lexer.TOKEN_LPAREN:
		if p.looksLikeLambdaParams() {
			return p.parseLambda(false)
		}
		p.next()
		e := p.parseExpr(precLowest)
		p.expect(lexer.TOKEN_RPAREN)
		return e
	case lexer.TOKEN_ASYNC:
		p.next()
		return p.parseLambda(true)
	case lexer.TOKEN_LBRACKET:
		return p.parseVectorLit()
	case lexer.TOKEN_LBRACE:
		return p.parseRecordLit()
	case lexer.TOKEN_GENERATE:
		return p.parseGenerate()
	case lexer.TOKEN_MATCH:
		return p.parseMatch()
	case lexer.TOKEN_IMPORT:
		return p.parseImport()
	case lexer.TOKEN_DO:
		return p.parseDo()
	case lexer.TOKEN_IF:
		return p.parseIf()
	case lexer.TOKEN_WHILE:
		return p.parseWhile()
	case lexer.TOKEN_FOR:
		return p.parseFor()
	}
	p.errorf("unexpected token %q", p.cur.Literal)
	p.next()
	return &ast.NullLit{Position: pos}
}

// looksLikeLambdaParams performs lookahead to tell `(x, y) => ...` from a
// parenthesized expression. It scans forward to the matching `)` and
// checks whether `=>` follows.
func (p *Parser) looksLikeLambdaParams() bool {
	savedLexer := *p.l
	savedCur, savedPeek := p.cur, p.peek
	restore := func() {
		*p.l = savedLexer
		p.cur, p.peek = savedCur, savedPeek
	}

	depth := 0
	for {
		if p.cur.Type == lexer.TOKEN_EOF {
			restore()
			return false
		}
		if p.cur.Type == lexer.TOKEN_LPAREN {
			depth++
		} else if p.cur.Type == lexer.TOKEN_RPAREN {
			depth--
			if depth == 0 {
				p.next()
				isArrow := p.cur.Type == lexer.TOKEN_ARROW
				restore()
				return isArrow
			}
		}
		p.next()
	}
}

func (p *Parser) parseLambda(isAsync bool) ast.Node {
	pos := p.pos()
	p.expect(lexer.TOKEN_LPAREN)
	var params []ast.Param
	for !p.at(lexer.TOKEN_RPAREN) {
		name := p.expect(lexer.TOKEN_IDENT).Literal
		param := ast.Param{Name: name}
		if p.accept(lexer.TOKEN_QUESTION) {
			param.Optional = true
		}
		if p.accept(lexer.TOKEN_COLON) {
			param.Type = p.expect(lexer.TOKEN_IDENT).Literal
		}
		if p.accept(lexer.TOKEN_ASSIGN) {
			param.Optional = true
			param.Default = p.parseExpr(precLowest)
		}
		params = append(params, param)
		if !p.accept(lexer.TOKEN_COMMA) {
			break
		}
	}
	p.expect(lexer.TOKEN_RPAREN)
	p.expect(lexer.TOKEN_ARROW)
	body := p.parseLambdaBody()
	return &ast.Lambda{Position: pos, Params: params, Body: body, IsAsync: isAsync}
}

func (p *Parser) parseLambdaBody() ast.Node {
	if p.at(lexer.TOKEN_LBRACE) {
		return p.parseDo()
	}
	return p.parseExpr(precLowest)
}

func (p *Parser) parseVectorLit() ast.Node {
	pos := p.pos()
	p.expect(lexer.TOKEN_LBRACKET)
	var elems []ast.Node
	for !p.at(lexer.TOKEN_RBRACKET) {
		elems = append(elems, p.parseExpr(precLowest))
		if !p.accept(lexer.TOKEN_COMMA) {
			break
		}
	}
	p.expect(lexer.TOKEN_RBRACKET)
	return &ast.VectorLit{Position: pos, Elements: elems}
}

func (p *Parser) parseRecordLit() ast.Node {
	pos := p.pos()
	p.expect(lexer.TOKEN_LBRACE)
	var fields []ast.RecordField
	for !p.at(lexer.TOKEN_RBRACE) {
		name := p.expect(lexer.TOKEN_IDENT).Literal
		p.expect(lexer.TOKEN_COLON)
		value := p.parseExpr(precLowest)
		fields = append(fields, ast.RecordField{Name: name, Value: value})
		if !p.accept(lexer.TOKEN_COMMA) {
			break
		}
	}
	p.expect(lexer.TOKEN_RBRACE)
	return &ast.RecordLit{Position: pos, Fields: fields}
}

func (p *Parser) parseGenerate() ast.Node {
	pos := p.pos()
	p.next()
	p.expect(lexer.TOKEN_LBRACE)
	var stmts []ast.Node
	for !p.at(lexer.TOKEN_RBRACE) && !p.at(lexer.TOKEN_EOF) {
		stmts = append(stmts, p.parseStatement())
		p.accept(lexer.TOKEN_SEMI)
	}
	p.expect(lexer.TOKEN_RBRACE)
	return &ast.Generate{Position: pos, Statements: stmts}
}

func (p *Parser) parseMatch() ast.Node {
	pos := p.pos()
	p.next()
	p.expect(lexer.TOKEN_LPAREN)
	scrutinee := p.parseExpr(precLowest)
	p.expect(lexer.TOKEN_RPAREN)
	p.expect(lexer.TOKEN_LBRACE)
	var arms []ast.MatchArm
	for !p.at(lexer.TOKEN_RBRACE) {
		pattern := p.parsePrimary()
		var guard ast.Node
		if p.accept(lexer.TOKEN_IF) {
			guard = p.parseExpr(precLowest)
		}
		p.expect(lexer.TOKEN_ARROW)
		body := p.parseLambdaBody()
		arms = append(arms, ast.MatchArm{Pattern: pattern, Guard: guard, Body: body})
		p.accept(lexer.TOKEN_COMMA)
	}
	p.expect(lexer.TOKEN_RBRACE)
	return &ast.Match{Position: pos, Scrutinee: scrutinee, Arms: arms}
}
