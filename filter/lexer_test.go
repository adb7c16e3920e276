package filter

import (
	"testing"
)

func TestLexer_Operators(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenType
	}{
		{"equal", "AGE = 30", []TokenType{TokenColumn, TokenEqual, TokenNumber, TokenEOF}},
		{"not equal", "AGE != 30", []TokenType{TokenColumn, TokenNotEqual, TokenNumber, TokenEOF}},
		{"less", "AGE < 30", []TokenType{TokenColumn, TokenLess, TokenNumber, TokenEOF}},
		{"less equal", "AGE <= 30", []TokenType{TokenColumn, TokenLessEqual, TokenNumber, TokenEOF}},
		{"greater", "AGE > 30", []TokenType{TokenColumn, TokenGreater, TokenNumber, TokenEOF}},
		{"greater equal", "AGE >= 30", []TokenType{TokenColumn, TokenGreaterEqual, TokenNumber, TokenEOF}},
		{"parens and comma", "AGE IN (1, 2)", []TokenType{TokenColumn, TokenIn, TokenLParen, TokenNumber, TokenComma, TokenNumber, TokenRParen, TokenEOF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := Tokenize(tt.input)
			if len(tokens) != len(tt.want) {
				t.Fatalf("Tokenize(%q) returned %d tokens, want %d", tt.input, len(tokens), len(tt.want))
			}
			for i, want := range tt.want {
				if tokens[i].Type != want {
					t.Errorf("token %d: got %v, want %v", i, tokens[i].Type, want)
				}
			}
		})
	}
}

func TestLexer_GreedyMultiChar(t *testing.T) {
	// ">=" must lex as one token, not ">" then "="
	tokens := Tokenize("AGE >= 45")
	if tokens[1].Type != TokenGreaterEqual || tokens[1].Value != ">=" {
		t.Errorf("expected single >= token, got %v %q", tokens[1].Type, tokens[1].Value)
	}

	tokens = Tokenize("AGE <= 45")
	if tokens[1].Type != TokenLessEqual || tokens[1].Value != "<=" {
		t.Errorf("expected single <= token, got %v %q", tokens[1].Type, tokens[1].Value)
	}
}

func TestLexer_Keywords(t *testing.T) {
	tests := []struct {
		input string
		want  TokenType
	}{
		{"AND", TokenAnd},
		{"and", TokenAnd},
		{"And", TokenAnd},
		{"OR", TokenOr},
		{"or", TokenOr},
		{"NOT", TokenNot},
		{"IN", TokenIn},
		{"BETWEEN", TokenBetween},
		{"Between", TokenBetween},
		{"LIKE", TokenLike},
		{"IS", TokenIs},
		{"NULL", TokenNull},
		{"null", TokenNull},
		{"TRUE", TokenBool},
		{"false", TokenBool},
	}

	for _, tt := range tests {
		tokens := Tokenize(tt.input)
		if tokens[0].Type != tt.want {
			t.Errorf("Tokenize(%q)[0] = %v, want %v", tt.input, tokens[0].Type, tt.want)
		}
	}
}

func TestLexer_ColumnsCasePreserved(t *testing.T) {
	tokens := Tokenize("UsUbJiD = 'x'")
	if tokens[0].Type != TokenColumn {
		t.Fatalf("expected column token, got %v", tokens[0].Type)
	}
	if tokens[0].Value != "UsUbJiD" {
		t.Errorf("column case not preserved: %q", tokens[0].Value)
	}
}

func TestLexer_Strings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"single quoted", "'hello'", "hello"},
		{"double quoted", `"hello"`, "hello"},
		{"with spaces", "'hello world'", "hello world"},
		{"empty", "''", ""},
		{"wildcards preserved", "'%head%'", "%head%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := Tokenize(tt.input)
			if tokens[0].Type != TokenString {
				t.Fatalf("expected string token, got %v", tokens[0].Type)
			}
			if tokens[0].Value != tt.want {
				t.Errorf("got %q, want %q", tokens[0].Value, tt.want)
			}
		})
	}
}

func TestLexer_UnterminatedString(t *testing.T) {
	tokens := Tokenize("AESER = 'Y")
	last := tokens[len(tokens)-1]
	if last.Type != TokenError {
		t.Fatalf("expected error token for unterminated string, got %v", last.Type)
	}
	if last.Value != "'Y" {
		t.Errorf("error lexeme = %q, want %q", last.Value, "'Y")
	}
	if last.Pos != 8 {
		t.Errorf("error position = %d, want 8", last.Pos)
	}
}

func TestLexer_MultibyteStrings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"AETERM = 'œdème'", "œdème"},
		{"NAME = 'José'", "José"},
		{`SITE = "Zürich"`, "Zürich"},
	}

	for _, tt := range tests {
		tokens := Tokenize(tt.input)
		if tokens[2].Type != TokenString {
			t.Errorf("Tokenize(%q)[2] = %v, want string", tt.input, tokens[2].Type)
			continue
		}
		if tokens[2].Value != tt.want {
			t.Errorf("Tokenize(%q) literal = %q, want %q", tt.input, tokens[2].Value, tt.want)
		}
	}

	// Positions stay byte offsets: 'é' is two bytes, so AND starts at 9
	tokens := Tokenize("X = 'é' AND Y = 1")
	if tokens[3].Type != TokenAnd || tokens[3].Pos != 9 {
		t.Errorf("AND token = %v at %d, want AND at 9", tokens[3].Type, tokens[3].Pos)
	}
}

func TestLexer_Numbers(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"45", "45"},
		{"3.14", "3.14"},
		{"-12", "-12"},
		{"-0.5", "-0.5"},
	}

	for _, tt := range tests {
		tokens := Tokenize(tt.input)
		if tokens[0].Type != TokenNumber {
			t.Errorf("Tokenize(%q)[0] = %v, want number", tt.input, tokens[0].Type)
			continue
		}
		if tokens[0].Value != tt.want {
			t.Errorf("got %q, want %q", tokens[0].Value, tt.want)
		}
	}
}

func TestLexer_EmptyInput(t *testing.T) {
	tokens := Tokenize("")
	if len(tokens) != 1 || tokens[0].Type != TokenEOF {
		t.Errorf("empty input should yield a single EOF token, got %v", tokens)
	}
}

func TestLexer_Positions(t *testing.T) {
	tokens := Tokenize("AGE >= 45")
	wantPos := []int{0, 4, 7}
	for i, want := range wantPos {
		if tokens[i].Pos != want {
			t.Errorf("token %d position = %d, want %d", i, tokens[i].Pos, want)
		}
	}
}

func TestLexer_InvalidCharacter(t *testing.T) {
	tokens := Tokenize("AGE # 3")
	last := tokens[len(tokens)-1]
	if last.Type != TokenError {
		t.Errorf("expected error token for '#', got %v", last.Type)
	}
}
