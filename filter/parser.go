package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser parses filter expressions into an AST.
//
// Precedence, lowest to highest: OR < AND < NOT < predicate. Parenthesized
// sub-expressions reset precedence. The AND inside BETWEEN is consumed as
// the range delimiter, never as a boolean combinator.
type Parser struct {
	tokens       []Token
	pos          int
	depthCounter *depthCounter
}

// NewParser creates a new parser
func NewParser(tokens []Token) *Parser {
	return &Parser{
		tokens:       tokens,
		pos:          0,
		depthCounter: newDepthCounter(),
	}
}

// current returns the current token
func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF, Value: ""}
	}
	return p.tokens[p.pos]
}

// advance moves to the next token
func (p *Parser) advance() {
	p.pos++
}

// expect checks if the current token matches the expected type and advances
func (p *Parser) expect(tokType TokenType) error {
	if p.current().Type != tokType {
		return fmt.Errorf("expected %v, got %v", tokType, p.current().Type)
	}
	p.advance()
	return nil
}

// Parse parses a filter expression and folds every lexer or parser failure
// into the result. It never panics and never returns a Go error; callers
// check Valid and Err. This is the only parse entry point intended for
// widget and preview code.
func Parse(expression string) *ParseResult {
	ast, err := parse(expression)
	if err != nil {
		return &ParseResult{Valid: false, Err: err.Error(), AST: nil, Columns: []string{}}
	}
	cols := Columns(ast)
	if cols == nil {
		cols = []string{}
	}
	return &ParseResult{Valid: true, AST: ast, Columns: cols}
}

// parse runs the lexer and parser and returns the raw outcome
func parse(expression string) (Node, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, fmt.Errorf("empty filter expression")
	}
	if err := validateExpression(expression); err != nil {
		return nil, err
	}

	tokens := Tokenize(expression)
	if last := tokens[len(tokens)-1]; last.Type == TokenError {
		if strings.HasPrefix(last.Value, "'") || strings.HasPrefix(last.Value, `"`) {
			return nil, fmt.Errorf("unterminated string literal at position %d", last.Pos)
		}
		return nil, fmt.Errorf("invalid token %q at position %d", last.Value, last.Pos)
	}
	if err := validateTokens(tokens); err != nil {
		return nil, err
	}

	parser := NewParser(tokens)
	expr, err := parser.parseOr()
	if err != nil {
		return nil, err
	}

	// The whole input must be one expression
	if parser.current().Type != TokenEOF {
		return nil, fmt.Errorf("unexpected %v at position %d", parser.current().Type, parser.current().Pos)
	}

	return expr, nil
}

// parseOr parses OR expressions (lowest precedence)
func (p *Parser) parseOr() (Node, error) {
	if err := p.depthCounter.enter(); err != nil {
		return nil, err
	}
	defer p.depthCounter.exit()

	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{
			Op:    TokenOr,
			Left:  left,
			Right: right,
		}
	}

	return left, nil
}

// parseAnd parses AND expressions (higher precedence than OR)
func (p *Parser) parseAnd() (Node, error) {
	if err := p.depthCounter.enter(); err != nil {
		return nil, err
	}
	defer p.depthCounter.exit()

	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenAnd {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{
			Op:    TokenAnd,
			Left:  left,
			Right: right,
		}
	}

	return left, nil
}

// parseNot parses prefix NOT (higher precedence than AND, lower than a
// predicate). Postfix forms like "col NOT IN (...)" are handled inside
// parsePredicate.
func (p *Parser) parseNot() (Node, error) {
	if p.current().Type == TokenNot {
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryNode{Op: TokenNot, Operand: operand}, nil
	}
	return p.parsePredicate()
}

// parsePredicate parses a single condition: comparison, IN, BETWEEN, LIKE,
// IS NULL, or a parenthesized sub-expression
func (p *Parser) parsePredicate() (Node, error) {
	if err := p.depthCounter.enter(); err != nil {
		return nil, err
	}
	defer p.depthCounter.exit()

	if p.current().Type == TokenLParen {
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRParen); err != nil {
			return nil, fmt.Errorf("missing closing parenthesis: %w", err)
		}
		return expr, nil
	}

	if p.current().Type != TokenColumn {
		return nil, fmt.Errorf("expected column name or '(', got %v", p.current().Type)
	}
	column := p.current().Value

	if err := validateColumnName(column); err != nil {
		return nil, err
	}

	p.advance()

	switch p.current().Type {
	case TokenIn:
		return p.parseInValues(column, false)
	case TokenNot:
		// "NOT IN", "NOT LIKE" or "NOT BETWEEN"
		p.advance()
		switch p.current().Type {
		case TokenIn:
			return p.parseInValues(column, true)
		case TokenLike:
			return p.parseLikePattern(column, true)
		case TokenBetween:
			between, err := p.parseBetweenBounds(column)
			if err != nil {
				return nil, err
			}
			return &UnaryNode{Op: TokenNot, Operand: between}, nil
		default:
			return nil, fmt.Errorf("expected IN, LIKE or BETWEEN after NOT, got %v", p.current().Type)
		}
	case TokenBetween:
		return p.parseBetweenBounds(column)
	case TokenLike:
		return p.parseLikePattern(column, false)
	case TokenIs:
		return p.parseIsNull(column)
	case TokenEqual, TokenNotEqual, TokenLess, TokenLessEqual, TokenGreater, TokenGreaterEqual:
		operator := p.current().Type
		p.advance()
		value, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		return &BinaryNode{
			Op:    operator,
			Left:  &ColumnNode{Name: column},
			Right: value,
		}, nil
	default:
		return nil, fmt.Errorf("expected operator after column %q, got %v", column, p.current().Type)
	}
}

// parseInValues parses: IN ( literal [, literal]* )
func (p *Parser) parseInValues(column string, negate bool) (Node, error) {
	if err := p.expect(TokenIn); err != nil {
		return nil, err
	}
	if err := p.expect(TokenLParen); err != nil {
		return nil, fmt.Errorf("expected '(' after IN: %w", err)
	}

	var values []interface{}
	for {
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, fmt.Errorf("in IN list: %w", err)
		}
		values = append(values, lit.Value)

		if p.current().Type == TokenComma {
			p.advance()
			continue
		}
		break
	}

	if err := p.expect(TokenRParen); err != nil {
		return nil, fmt.Errorf("missing ')' after IN list: %w", err)
	}

	return &InNode{Column: column, Values: values, Negate: negate}, nil
}

// parseBetweenBounds parses: BETWEEN literal AND literal. The AND here is
// the range delimiter; exactly one is consumed and general AND parsing is
// not invoked.
func (p *Parser) parseBetweenBounds(column string) (Node, error) {
	if err := p.expect(TokenBetween); err != nil {
		return nil, err
	}

	lower, err := p.parseLiteral()
	if err != nil {
		return nil, fmt.Errorf("in BETWEEN lower bound: %w", err)
	}

	if p.current().Type != TokenAnd {
		return nil, fmt.Errorf("expected AND between BETWEEN bounds, got %v", p.current().Type)
	}
	p.advance()

	upper, err := p.parseLiteral()
	if err != nil {
		return nil, fmt.Errorf("in BETWEEN upper bound: %w", err)
	}

	return &BetweenNode{Column: column, Lower: lower.Value, Upper: upper.Value}, nil
}

// parseLikePattern parses: LIKE 'pattern'
func (p *Parser) parseLikePattern(column string, negate bool) (Node, error) {
	if err := p.expect(TokenLike); err != nil {
		return nil, err
	}
	if p.current().Type != TokenString {
		return nil, fmt.Errorf("expected string pattern after LIKE, got %v", p.current().Type)
	}
	pattern := p.current().Value
	p.advance()

	return &LikeNode{Column: column, Pattern: pattern, Negate: negate}, nil
}

// parseIsNull parses: IS [NOT] NULL
func (p *Parser) parseIsNull(column string) (Node, error) {
	if err := p.expect(TokenIs); err != nil {
		return nil, err
	}

	negate := false
	if p.current().Type == TokenNot {
		negate = true
		p.advance()
	}

	if err := p.expect(TokenNull); err != nil {
		return nil, fmt.Errorf("expected NULL after IS: %w", err)
	}

	return &IsNullNode{Column: column, Negate: negate}, nil
}

// parseLiteral parses a typed literal from the current token
func (p *Parser) parseLiteral() (*LiteralNode, error) {
	switch p.current().Type {
	case TokenString:
		lit := &LiteralNode{Value: p.current().Value, Kind: KindString}
		p.advance()
		return lit, nil
	case TokenNumber:
		numStr := p.current().Value
		var value interface{}
		// Try int first, then float
		if intVal, err := strconv.ParseInt(numStr, 10, 64); err == nil {
			value = intVal
		} else if floatVal, err := strconv.ParseFloat(numStr, 64); err == nil {
			value = floatVal
		} else {
			return nil, fmt.Errorf("invalid number: %s", numStr)
		}
		p.advance()
		return &LiteralNode{Value: value, Kind: KindNumber}, nil
	case TokenBool:
		lit := &LiteralNode{Value: strings.EqualFold(p.current().Value, "true"), Kind: KindBool}
		p.advance()
		return lit, nil
	default:
		return nil, fmt.Errorf("expected literal value, got %v", p.current().Type)
	}
}
