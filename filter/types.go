// Package filter implements the expression language used to filter rows of
// clinical datasets.
//
// The language is a small SQL predicate subset: comparisons, AND/OR/NOT,
// IN, BETWEEN, LIKE and IS NULL. The package includes a lexer for
// tokenization, a recursive-descent parser for building ASTs, and a
// serializer for audit and cache-key purposes. Evaluation lives in the exec
// package; semantic checks against a dataset schema live in validate.
//
// Example usage:
//
//	res := filter.Parse("AGE >= 45 AND AESER = 'Y'")
//	if !res.Valid {
//	    log.Fatal(res.Err)
//	}
//	fmt.Println(res.Columns) // [AGE AESER]
package filter

// TokenType represents the type of a token
type TokenType int

const (
	// Literals and identifiers
	TokenColumn TokenType = iota
	TokenString
	TokenNumber
	TokenBool

	// Operators
	TokenEqual        // =
	TokenNotEqual     // !=
	TokenLess         // <
	TokenLessEqual    // <=
	TokenGreater      // >
	TokenGreaterEqual // >=

	// Keywords
	TokenAnd
	TokenOr
	TokenNot
	TokenIn
	TokenBetween
	TokenLike
	TokenIs
	TokenNull

	// Delimiters
	TokenLParen // (
	TokenRParen // )
	TokenComma  // ,

	// Special
	TokenEOF
	TokenError
)

// String returns a human-readable name for the token type, used in parse
// error messages.
func (t TokenType) String() string {
	switch t {
	case TokenColumn:
		return "column"
	case TokenString:
		return "string"
	case TokenNumber:
		return "number"
	case TokenBool:
		return "boolean"
	case TokenEqual:
		return "="
	case TokenNotEqual:
		return "!="
	case TokenLess:
		return "<"
	case TokenLessEqual:
		return "<="
	case TokenGreater:
		return ">"
	case TokenGreaterEqual:
		return ">="
	case TokenAnd:
		return "AND"
	case TokenOr:
		return "OR"
	case TokenNot:
		return "NOT"
	case TokenIn:
		return "IN"
	case TokenBetween:
		return "BETWEEN"
	case TokenLike:
		return "LIKE"
	case TokenIs:
		return "IS"
	case TokenNull:
		return "NULL"
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	case TokenComma:
		return ","
	case TokenEOF:
		return "end of expression"
	case TokenError:
		return "invalid token"
	default:
		return "unknown"
	}
}

// Token represents a lexical token. Pos is the byte offset of the token's
// first character in the source expression.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

// LiteralKind classifies a literal value at parse time. No implicit
// coercion happens in the parser; kinds come straight from the token type.
type LiteralKind int

const (
	KindString LiteralKind = iota
	KindNumber
	KindBool
)

// String returns the kind name used in AST serialization.
func (k LiteralKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Node is a node of a parsed filter expression. The node set is closed and
// every node is immutable once the parser returns it.
type Node interface {
	node()
}

// ColumnNode references a dataset column by name, case preserved.
type ColumnNode struct {
	Name string
}

// LiteralNode holds a literal value (string, int64, float64 or bool).
type LiteralNode struct {
	Value interface{}
	Kind  LiteralKind
}

// BinaryNode represents comparisons and the AND/OR combinators. For
// comparisons Left is a *ColumnNode and Right a *LiteralNode; for AND/OR
// both sides are boolean sub-expressions.
type BinaryNode struct {
	Op    TokenType
	Left  Node
	Right Node
}

// UnaryNode represents logical NOT over a boolean sub-expression.
type UnaryNode struct {
	Op      TokenType // TokenNot
	Operand Node
}

// InNode represents col [NOT] IN (v1, v2, ...).
type InNode struct {
	Column string
	Values []interface{}
	Negate bool
}

// BetweenNode represents col BETWEEN lower AND upper, inclusive both ends.
type BetweenNode struct {
	Column string
	Lower  interface{}
	Upper  interface{}
}

// LikeNode represents col [NOT] LIKE 'pattern' with % and _ wildcards.
type LikeNode struct {
	Column  string
	Pattern string
	Negate  bool
}

// IsNullNode represents col IS [NOT] NULL.
type IsNullNode struct {
	Column string
	Negate bool
}

func (*ColumnNode) node()  {}
func (*LiteralNode) node() {}
func (*BinaryNode) node()  {}
func (*UnaryNode) node()   {}
func (*InNode) node()      {}
func (*BetweenNode) node() {}
func (*LikeNode) node()    {}
func (*IsNullNode) node()  {}

// ParseResult is the only parse outcome surfaced to callers. Lexer and
// parser failures are folded into Err rather than propagated, so widget
// code can distinguish "invalid filter" from "filter matched nothing"
// without recovering from panics or unwrapping error chains.
type ParseResult struct {
	Valid   bool
	Err     string
	AST     Node
	Columns []string
}

// Columns returns the deduplicated list of column names referenced anywhere
// in the expression, in first-seen order.
func Columns(n Node) []string {
	seen := make(map[string]bool)
	var cols []string
	walkColumns(n, func(name string) {
		if !seen[name] {
			seen[name] = true
			cols = append(cols, name)
		}
	})
	return cols
}

func walkColumns(n Node, visit func(string)) {
	switch node := n.(type) {
	case *ColumnNode:
		visit(node.Name)
	case *BinaryNode:
		walkColumns(node.Left, visit)
		walkColumns(node.Right, visit)
	case *UnaryNode:
		walkColumns(node.Operand, visit)
	case *InNode:
		visit(node.Column)
	case *BetweenNode:
		visit(node.Column)
	case *LikeNode:
		visit(node.Column)
	case *IsNullNode:
		visit(node.Column)
	}
}
