// Package exec compiles parsed filter expressions and evaluates them
// against stored datasets.
//
// Compilation is a single AST-to-program translation shared by both
// backends; the row engine and the arrow engine differ only in how they
// surface column values to the evaluator. Backend equivalence therefore
// holds by construction rather than by parallel maintenance.
//
// Executors never return Go errors for expected failures: a missing
// dataset or an invalid expression comes back as a Result with RowCount 0
// and a descriptive Err, so widget rendering can show "no data" instead of
// crashing.
package exec

import (
	"fmt"
	"strings"

	"github.com/clindash/filterql/filter"
)

type predKind int

const (
	predCompare predKind = iota
	predAnd
	predOr
	predNot
	predIn
	predBetween
	predLike
	predIsNull
)

// likeKind classifies a LIKE pattern at compile time so the common shapes
// avoid general wildcard matching on every row.
type likeKind int

const (
	likeExact    likeKind = iota // no wildcards
	likePrefix                   // 'abc%'  starts with
	likeSuffix                   // '%abc'  ends with
	likeContains                 // '%abc%' contains
	likeGeneral                  // anything else (inner % or _ wildcards)
)

// pred is one node of a compiled predicate program.
type pred struct {
	kind   predKind
	column string

	// compare
	op    filter.TokenType
	value interface{}

	// in
	values []interface{}

	// between
	lower, upper interface{}

	// like
	like    likeKind
	needle  string
	pattern string

	negate bool

	left, right *pred // and/or
	operand     *pred // not
}

// Program is a compiled filter expression, ready for evaluation by either
// backend. It holds no dataset state and is safe for concurrent use.
type Program struct {
	root *pred
}

// Compile translates a parsed AST into a predicate program. Any node shape
// outside the supported grammar is a translation error; executors wrap it
// into the "Invalid filter expression" result.
func Compile(ast filter.Node) (*Program, error) {
	if ast == nil {
		return nil, fmt.Errorf("nil expression")
	}
	root, err := compileNode(ast)
	if err != nil {
		return nil, err
	}
	return &Program{root: root}, nil
}

func compileNode(n filter.Node) (*pred, error) {
	switch node := n.(type) {
	case *filter.BinaryNode:
		switch node.Op {
		case filter.TokenAnd, filter.TokenOr:
			left, err := compileNode(node.Left)
			if err != nil {
				return nil, err
			}
			right, err := compileNode(node.Right)
			if err != nil {
				return nil, err
			}
			kind := predAnd
			if node.Op == filter.TokenOr {
				kind = predOr
			}
			return &pred{kind: kind, left: left, right: right}, nil
		case filter.TokenEqual, filter.TokenNotEqual, filter.TokenLess,
			filter.TokenLessEqual, filter.TokenGreater, filter.TokenGreaterEqual:
			col, ok := node.Left.(*filter.ColumnNode)
			if !ok {
				return nil, fmt.Errorf("comparison left side must be a column")
			}
			lit, ok := node.Right.(*filter.LiteralNode)
			if !ok {
				return nil, fmt.Errorf("comparison right side must be a literal")
			}
			return &pred{kind: predCompare, column: col.Name, op: node.Op, value: lit.Value}, nil
		default:
			return nil, fmt.Errorf("unsupported binary operator %v", node.Op)
		}
	case *filter.UnaryNode:
		if node.Op != filter.TokenNot {
			return nil, fmt.Errorf("unsupported unary operator %v", node.Op)
		}
		operand, err := compileNode(node.Operand)
		if err != nil {
			return nil, err
		}
		return &pred{kind: predNot, operand: operand}, nil
	case *filter.InNode:
		if len(node.Values) == 0 {
			return nil, fmt.Errorf("empty IN list for column %q", node.Column)
		}
		return &pred{kind: predIn, column: node.Column, values: node.Values, negate: node.Negate}, nil
	case *filter.BetweenNode:
		return &pred{kind: predBetween, column: node.Column, lower: node.Lower, upper: node.Upper}, nil
	case *filter.LikeNode:
		p := &pred{kind: predLike, column: node.Column, pattern: node.Pattern, negate: node.Negate}
		p.like, p.needle = classifyPattern(node.Pattern)
		return p, nil
	case *filter.IsNullNode:
		return &pred{kind: predIsNull, column: node.Column, negate: node.Negate}, nil
	default:
		return nil, fmt.Errorf("unsupported expression node %T", n)
	}
}

// classifyPattern maps a SQL LIKE pattern to a match strategy. Patterns
// containing _ or interior % fall back to the general matcher.
func classifyPattern(pattern string) (likeKind, string) {
	if strings.Contains(pattern, "_") {
		return likeGeneral, ""
	}

	leading := strings.HasPrefix(pattern, "%")
	trailing := strings.HasSuffix(pattern, "%") && len(pattern) > 1

	inner := pattern
	if leading {
		inner = inner[1:]
	}
	if trailing {
		inner = inner[:len(inner)-1]
	}

	if strings.Contains(inner, "%") {
		return likeGeneral, ""
	}

	switch {
	case leading && trailing:
		return likeContains, inner
	case leading:
		return likeSuffix, inner
	case trailing:
		return likePrefix, inner
	default:
		return likeExact, inner
	}
}
