package filter

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes filter expression strings. Positions are byte offsets;
// characters are decoded as UTF-8 runes.
type Lexer struct {
	input   string
	pos     int // byte offset of the current character
	readPos int // byte offset of the next character
	ch      rune
}

// NewLexer creates a new lexer
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// readChar decodes the next rune
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
		l.pos = len(l.input)
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += w
}

// peekChar looks at the next rune without advancing
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

// skipWhitespace skips whitespace characters
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// readString reads a quoted string. There are no escape sequences; the
// literal runs to the next occurrence of the opening quote. Returns false
// if the closing quote is missing.
func (l *Lexer) readString(quote rune) (string, bool) {
	var result strings.Builder
	l.readChar() // skip opening quote

	for l.ch != quote && l.ch != 0 {
		result.WriteRune(l.ch)
		l.readChar()
	}

	if l.ch != quote {
		return result.String(), false
	}
	l.readChar() // skip closing quote
	return result.String(), true
}

// readNumber reads an integer or decimal number
func (l *Lexer) readNumber() string {
	var result strings.Builder

	// Handle optional leading minus sign
	if l.ch == '-' {
		result.WriteRune(l.ch)
		l.readChar()
	}

	for unicode.IsDigit(l.ch) || l.ch == '.' {
		result.WriteRune(l.ch)
		l.readChar()
	}
	return result.String()
}

// readIdentifier reads a column name or keyword. Dots are allowed so
// nested dataset columns (e.g. "visit.date") keep their flattened names.
func (l *Lexer) readIdentifier() string {
	var result strings.Builder
	for unicode.IsLetter(l.ch) || unicode.IsDigit(l.ch) || l.ch == '_' || l.ch == '.' {
		result.WriteRune(l.ch)
		l.readChar()
	}
	return result.String()
}

// NextToken returns the next token
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	start := l.pos
	var tok Token

	switch l.ch {
	case 0:
		tok = Token{Type: TokenEOF, Value: "", Pos: start}
	case '=':
		tok = Token{Type: TokenEqual, Value: "=", Pos: start}
		l.readChar()
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TokenNotEqual, Value: "!=", Pos: start}
			l.readChar()
		} else {
			tok = Token{Type: TokenError, Value: "!", Pos: start}
			l.readChar()
		}
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TokenLessEqual, Value: "<=", Pos: start}
			l.readChar()
		} else {
			tok = Token{Type: TokenLess, Value: "<", Pos: start}
			l.readChar()
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TokenGreaterEqual, Value: ">=", Pos: start}
			l.readChar()
		} else {
			tok = Token{Type: TokenGreater, Value: ">", Pos: start}
			l.readChar()
		}
	case '\'', '"':
		quote := l.ch
		value, ok := l.readString(quote)
		if !ok {
			// An unterminated string runs to the end of the input; keep
			// the raw lexeme so the parser can word the error
			tok = Token{Type: TokenError, Value: l.input[start:], Pos: start}
		} else {
			tok = Token{Type: TokenString, Value: value, Pos: start}
		}
	case ',':
		tok = Token{Type: TokenComma, Value: ",", Pos: start}
		l.readChar()
	case '(':
		tok = Token{Type: TokenLParen, Value: "(", Pos: start}
		l.readChar()
	case ')':
		tok = Token{Type: TokenRParen, Value: ")", Pos: start}
		l.readChar()
	default:
		if unicode.IsDigit(l.ch) || l.ch == '-' {
			value := l.readNumber()
			// A standalone minus sign is not a number
			if value == "-" {
				tok = Token{Type: TokenError, Value: "-", Pos: start}
			} else {
				tok = Token{Type: TokenNumber, Value: value, Pos: start}
			}
		} else if unicode.IsLetter(l.ch) || l.ch == '_' {
			value := l.readIdentifier()
			tok = Token{Type: identifierType(value), Value: value, Pos: start}
		} else {
			tok = Token{Type: TokenError, Value: string(l.ch), Pos: start}
			l.readChar()
		}
	}

	return tok
}

// keywords maps the fixed keyword set, matched case-insensitively. Bare
// identifiers outside this set are column references, case preserved.
var keywords = map[string]TokenType{
	"and":     TokenAnd,
	"or":      TokenOr,
	"not":     TokenNot,
	"in":      TokenIn,
	"between": TokenBetween,
	"like":    TokenLike,
	"is":      TokenIs,
	"null":    TokenNull,
	"true":    TokenBool,
	"false":   TokenBool,
}

// identifierType determines if an identifier is a keyword
func identifierType(ident string) TokenType {
	if tokType, ok := keywords[strings.ToLower(ident)]; ok {
		return tokType
	}
	return TokenColumn
}

// Tokenize returns all tokens from the input. The stream always ends with
// either an EOF token or an Error token.
func Tokenize(input string) []Token {
	lexer := NewLexer(input)
	var tokens []Token

	for {
		tok := lexer.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			break
		}
	}

	return tokens
}
