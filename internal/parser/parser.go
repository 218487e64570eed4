package parser

import (
	"fmt"
	"strconv"

	"kira/internal/ast"
	"kira/internal/lexer"
	"kira/internal/token"
)

const (
	_ int = iota
	LOWEST
	ASSIGNMENT // = (parsed right-associative, handled specially)
	LOGICAL_OR
	LOGICAL_AND
	NOT_PREC
	EQUALS     // == !=
	COMPARISON // < <= > >=
	SUM        // + -
	PRODUCT    // * / %
	POWER      // ** (right-associative)
	UNARY      // unary - +
	CALL_INDEX // f(...) a[...]
)

var precedences = map[token.TokenType]int{
	token.ASSIGN:   ASSIGNMENT,
	token.OR:       LOGICAL_OR,
	token.AND:      LOGICAL_AND,
	token.EQ:       EQUALS,
	token.NOT_EQ:   EQUALS,
	token.LT:       COMPARISON,
	token.LT_EQ:    COMPARISON,
	token.GT:       COMPARISON,
	token.GT_EQ:    COMPARISON,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.PERCENT:  PRODUCT,
	token.STARSTAR: POWER,
	token.LPAREN:   CALL_INDEX,
	token.LBRACKET: CALL_INDEX,
}

// Error is a single parse diagnostic with source position.
type Error struct {
	Message string
	LineNo  int
	ColNo   int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: ParseError: %s", e.LineNo, e.ColNo, e.Message)
}

func (e *Error) Line() int   { return e.LineNo }
func (e *Error) Column() int { return e.ColNo }

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// Parser is a Pratt expression parser wrapped around a recursive-descent
// statement grammar. It stops at the first error rather than attempting
// recovery.
type Parser struct {
	l   *lexer.Lexer
	err *Error

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.INT, p.parseIntegerLiteral)
	p.registerPrefix(token.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.TRUE, p.parseBoolean)
	p.registerPrefix(token.FALSE, p.parseBoolean)
	p.registerPrefix(token.NULL, p.parseNull)
	p.registerPrefix(token.NOT, p.parsePrefixExpression)
	p.registerPrefix(token.MINUS, p.parsePrefixExpression)
	p.registerPrefix(token.PLUS, p.parsePrefixExpression)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(token.LBRACE, p.parseDictLiteral)
	p.registerPrefix(token.IF, p.parseIfExpression)
	p.registerPrefix(token.FN, p.parseFunctionLiteral)

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	p.registerInfix(token.PLUS, p.parseInfixExpression)
	p.registerInfix(token.MINUS, p.parseInfixExpression)
	p.registerInfix(token.ASTERISK, p.parseInfixExpression)
	p.registerInfix(token.SLASH, p.parseInfixExpression)
	p.registerInfix(token.PERCENT, p.parseInfixExpression)
	p.registerInfix(token.STARSTAR, p.parsePowerExpression)
	p.registerInfix(token.EQ, p.parseInfixExpression)
	p.registerInfix(token.NOT_EQ, p.parseInfixExpression)
	p.registerInfix(token.LT, p.parseInfixExpression)
	p.registerInfix(token.LT_EQ, p.parseInfixExpression)
	p.registerInfix(token.GT, p.parseInfixExpression)
	p.registerInfix(token.GT_EQ, p.parseInfixExpression)
	p.registerInfix(token.AND, p.parseInfixExpression)
	p.registerInfix(token.OR, p.parseInfixExpression)
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.LBRACKET, p.parseIndexExpression)
	p.registerInfix(token.ASSIGN, p.parseAssignExpression)

	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) registerPrefix(t token.TokenType, fn prefixParseFn) { p.prefixParseFns[t] = fn }
func (p *Parser) registerInfix(t token.TokenType, fn infixParseFn)   { p.infixParseFns[t] = fn }

// Err returns the first parse error encountered, if any.
func (p *Parser) Err() error {
	if p.err == nil {
		return nil
	}
	return p.err
}

func (p *Parser) fail(format string, a ...interface{}) {
	if p.err == nil {
		p.err = &Error{Message: fmt.Sprintf(format, a...), LineNo: p.curToken.Line, ColNo: p.curToken.Column}
	}
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t token.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.fail("expected next token to be %s, got %s instead", t, p.peekToken.Type)
	return false
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peekToken.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.curToken.Type]; ok {
		return pr
	}
	return LOWEST
}

// skipSemicolons consumes any run of optional statement terminators.
func (p *Parser) skipSemicolons() {
	for p.curTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
}

func (p *Parser) ok() bool { return p.err == nil }

// ParseProgram parses the whole token stream into a Program, stopping at
// the first parse or lex error.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{Statements: []ast.Statement{}}

	for !p.curTokenIs(token.EOF) && p.ok() {
		p.skipSemicolons()
		if p.curTokenIs(token.EOF) {
			break
		}
		stmt := p.parseStatement()
		if !p.ok() {
			break
		}
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		p.nextToken()
	}

	if p.err == nil {
		if lexErr := p.l.Err(); lexErr != nil {
			if le, ok := lexErr.(*lexer.Error); ok {
				p.err = &Error{Message: le.Message, LineNo: le.Line(), ColNo: le.Column()}
			}
		}
	}

	return program
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.LET:
		return p.parseLetStatement()
	case token.CONST:
		return p.parseConstStatement()
	case token.FN:
		if p.peekTokenIs(token.IDENT) {
			return p.parseFnDeclStatement()
		}
		return p.parseExpressionStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseLetStatement() ast.Statement {
	stmt := &ast.LetStatement{}
	stmt.Tok = p.curToken

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Value: p.curToken.Literal}
	stmt.Name.Tok = p.curToken

	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if !p.ok() {
		return nil
	}
	p.consumeOptionalSemicolon()
	return stmt
}

func (p *Parser) parseConstStatement() ast.Statement {
	stmt := &ast.ConstStatement{}
	stmt.Tok = p.curToken

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Value: p.curToken.Literal}
	stmt.Name.Tok = p.curToken

	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if !p.ok() {
		return nil
	}
	p.consumeOptionalSemicolon()
	return stmt
}

func (p *Parser) parseFnDeclStatement() ast.Statement {
	stmt := &ast.FnDeclStatement{}
	stmt.Tok = p.curToken

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Value: p.curToken.Literal}
	stmt.Name.Tok = p.curToken

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	stmt.Parameters = p.parseFunctionParameters()
	if !p.ok() {
		return nil
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlockStatement()
	return stmt
}

func (p *Parser) parseReturnStatement() ast.Statement {
	stmt := &ast.ReturnStatement{}
	stmt.Tok = p.curToken

	if p.peekTokenIs(token.SEMICOLON) || p.peekTokenIs(token.RBRACE) || p.peekTokenIs(token.EOF) {
		p.consumeOptionalSemicolon()
		return stmt
	}

	p.nextToken()
	stmt.ReturnValue = p.parseExpression(LOWEST)
	if !p.ok() {
		return nil
	}
	p.consumeOptionalSemicolon()
	return stmt
}

func (p *Parser) parseWhileStatement() ast.Statement {
	stmt := &ast.WhileStatement{}
	stmt.Tok = p.curToken

	hasParen := p.peekTokenIs(token.LPAREN)
	if hasParen {
		p.nextToken()
	}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if !p.ok() {
		return nil
	}
	if hasParen && !p.expectPeek(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlockStatement()
	return stmt
}

func (p *Parser) parseForStatement() ast.Statement {
	stmt := &ast.ForStatement{}
	stmt.Tok = p.curToken

	hasParen := p.peekTokenIs(token.LPAREN)
	if hasParen {
		p.nextToken()
	}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Value: p.curToken.Literal}
	stmt.Name.Tok = p.curToken

	if !p.expectPeek(token.IN) {
		return nil
	}
	p.nextToken()
	stmt.Iterable = p.parseExpression(LOWEST)
	if !p.ok() {
		return nil
	}
	if hasParen && !p.expectPeek(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlockStatement()
	return stmt
}

func (p *Parser) consumeOptionalSemicolon() {
	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	stmt := &ast.ExpressionStatement{}
	stmt.Tok = p.curToken

	stmt.Expression = p.parseExpression(LOWEST)
	if !p.ok() {
		return nil
	}
	p.consumeOptionalSemicolon()
	return stmt
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.fail("no prefix parse function for %s found", p.curToken.Type)
		return nil
	}
	left := prefix()
	if !p.ok() {
		return nil
	}

	for !p.peekTokenIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
		if !p.ok() {
			return nil
		}
	}
	return left
}

func (p *Parser) parseIdentifier() ast.Expression {
	ident := &ast.Identifier{Value: p.curToken.Literal}
	ident.Tok = p.curToken
	return ident
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	lit := &ast.IntegerLiteral{}
	lit.Tok = p.curToken

	value, err := strconv.ParseInt(p.curToken.Literal, 10, 64)
	if err != nil {
		p.fail("could not parse %q as integer", p.curToken.Literal)
		return nil
	}
	lit.Value = value
	return lit
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	lit := &ast.FloatLiteral{}
	lit.Tok = p.curToken

	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.fail("could not parse %q as float", p.curToken.Literal)
		return nil
	}
	lit.Value = value
	return lit
}

func (p *Parser) parseStringLiteral() ast.Expression {
	lit := &ast.StringLiteral{Value: p.curToken.Literal}
	lit.Tok = p.curToken
	return lit
}

func (p *Parser) parseBoolean() ast.Expression {
	lit := &ast.BooleanLiteral{Value: p.curTokenIs(token.TRUE)}
	lit.Tok = p.curToken
	return lit
}

func (p *Parser) parseNull() ast.Expression {
	lit := &ast.NullLiteral{}
	lit.Tok = p.curToken
	return lit
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expr := &ast.PrefixExpression{Operator: p.curToken.Literal}
	expr.Tok = p.curToken

	precedence := UNARY
	if p.curTokenIs(token.NOT) {
		precedence = NOT_PREC
	}
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	return expr
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expr := &ast.InfixExpression{Left: left, Operator: p.curToken.Literal}
	expr.Tok = p.curToken

	precedence := p.curPrecedence()
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	return expr
}

// parsePowerExpression handles ** as right-associative by recursing at
// one less than its own precedence.
func (p *Parser) parsePowerExpression(left ast.Expression) ast.Expression {
	expr := &ast.InfixExpression{Left: left, Operator: p.curToken.Literal}
	expr.Tok = p.curToken

	p.nextToken()
	expr.Right = p.parseExpression(POWER - 1)
	return expr
}

func (p *Parser) parseAssignExpression(left ast.Expression) ast.Expression {
	switch left.(type) {
	case *ast.Identifier, *ast.IndexExpression:
	default:
		p.fail("invalid assignment target")
		return nil
	}

	expr := &ast.AssignExpression{Target: left}
	expr.Tok = p.curToken

	p.nextToken()
	expr.Value = p.parseExpression(ASSIGNMENT - 1)
	return expr
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()
	expr := p.parseExpression(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return expr
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	lit := &ast.ArrayLiteral{}
	lit.Tok = p.curToken
	lit.Elements = p.parseExpressionList(token.RBRACKET)
	return lit
}

func (p *Parser) parseExpressionList(end token.TokenType) []ast.Expression {
	list := []ast.Expression{}

	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}

	p.nextToken()
	list = append(list, p.parseExpression(LOWEST))
	if !p.ok() {
		return nil
	}

	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		list = append(list, p.parseExpression(LOWEST))
		if !p.ok() {
			return nil
		}
	}

	if !p.expectPeek(end) {
		return nil
	}
	return list
}

func (p *Parser) parseDictLiteral() ast.Expression {
	lit := &ast.DictLiteral{}
	lit.Tok = p.curToken
	lit.Keys = []ast.Expression{}
	lit.Values = []ast.Expression{}

	for !p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		key := p.parseExpression(LOWEST)
		if !p.ok() {
			return nil
		}

		if !p.expectPeek(token.COLON) {
			return nil
		}

		p.nextToken()
		value := p.parseExpression(LOWEST)
		if !p.ok() {
			return nil
		}

		lit.Keys = append(lit.Keys, key)
		lit.Values = append(lit.Values, value)

		if !p.peekTokenIs(token.RBRACE) && !p.expectPeek(token.COMMA) {
			return nil
		}
	}

	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return lit
}

func (p *Parser) parseIfExpression() ast.Expression {
	expr := &ast.IfExpression{}
	expr.Tok = p.curToken

	hasParen := p.peekTokenIs(token.LPAREN)
	if hasParen {
		p.nextToken()
	}
	p.nextToken()
	expr.Condition = p.parseExpression(LOWEST)
	if !p.ok() {
		return nil
	}
	if hasParen && !p.expectPeek(token.RPAREN) {
		return nil
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	expr.Consequence = p.parseBlockStatement()
	if !p.ok() {
		return nil
	}

	if p.peekTokenIs(token.ELSE) {
		p.nextToken()

		if p.peekTokenIs(token.IF) {
			p.nextToken()
			nested := p.parseIfExpression()
			if !p.ok() {
				return nil
			}
			expr.Alternative = &ast.BlockStatement{
				Statements: []ast.Statement{&ast.ExpressionStatement{Expression: nested}},
			}
			expr.Alternative.Tok = p.curToken
			return expr
		}

		if !p.expectPeek(token.LBRACE) {
			return nil
		}
		expr.Alternative = p.parseBlockStatement()
	}

	return expr
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	block := &ast.BlockStatement{}
	block.Tok = p.curToken
	block.Statements = []ast.Statement{}

	p.nextToken()

	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) && p.ok() {
		p.skipSemicolons()
		if p.curTokenIs(token.RBRACE) {
			break
		}
		stmt := p.parseStatement()
		if !p.ok() {
			return nil
		}
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.nextToken()
	}

	if !p.curTokenIs(token.RBRACE) {
		p.fail("unterminated block, expected %s, got %s", token.RBRACE, token.EOF)
		return nil
	}

	return block
}

func (p *Parser) parseFunctionLiteral() ast.Expression {
	lit := &ast.FunctionLiteral{}
	lit.Tok = p.curToken

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	lit.Parameters = p.parseFunctionParameters()
	if !p.ok() {
		return nil
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	lit.Body = p.parseBlockStatement()
	return lit
}

func (p *Parser) parseFunctionParameters() []*ast.Identifier {
	params := []*ast.Identifier{}

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return params
	}

	p.nextToken()
	ident := &ast.Identifier{Value: p.curToken.Literal}
	ident.Tok = p.curToken
	params = append(params, ident)

	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		ident := &ast.Identifier{Value: p.curToken.Literal}
		ident.Tok = p.curToken
		params = append(params, ident)
	}

	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return params
}

func (p *Parser) parseCallExpression(function ast.Expression) ast.Expression {
	expr := &ast.CallExpression{Function: function}
	expr.Tok = p.curToken
	expr.Arguments = p.parseExpressionList(token.RPAREN)
	return expr
}

func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	expr := &ast.IndexExpression{Left: left}
	expr.Tok = p.curToken

	p.nextToken()
	expr.Index = p.parseExpression(LOWEST)
	if !p.ok() {
		return nil
	}

	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return expr
}
