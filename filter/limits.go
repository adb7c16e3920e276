package filter

import (
	"errors"
	"fmt"
)

// Validation constants to prevent resource exhaustion from user-authored
// expressions
const (
	// MaxExpressionLength is the maximum allowed expression length
	MaxExpressionLength = 64 * 1024

	// MaxTokens is the maximum number of tokens in an expression
	MaxTokens = 500

	// MaxExpressionDepth is the maximum nesting depth for expressions
	MaxExpressionDepth = 50

	// MaxColumnNameLength is the maximum length for a column name
	MaxColumnNameLength = 256
)

var (
	// ErrExpressionTooLong is returned when an expression exceeds MaxExpressionLength
	ErrExpressionTooLong = errors.New("filter expression too long")

	// ErrTooManyTokens is returned when an expression has too many tokens
	ErrTooManyTokens = errors.New("too many tokens in filter expression")

	// ErrExpressionTooDeep is returned when expression nesting exceeds limit
	ErrExpressionTooDeep = errors.New("expression nesting too deep")

	// ErrColumnNameTooLong is returned when a column name is too long
	ErrColumnNameTooLong = errors.New("column name too long")
)

// validateExpression performs size validation on raw expression input
func validateExpression(expression string) error {
	if len(expression) > MaxExpressionLength {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrExpressionTooLong, len(expression), MaxExpressionLength)
	}
	return nil
}

// validateColumnName validates column name length
func validateColumnName(name string) error {
	if len(name) > MaxColumnNameLength {
		return fmt.Errorf("%w: %d chars (max %d)", ErrColumnNameTooLong, len(name), MaxColumnNameLength)
	}
	return nil
}

// validateTokens validates token count
func validateTokens(tokens []Token) error {
	if len(tokens) > MaxTokens {
		return fmt.Errorf("%w: %d tokens (max %d)", ErrTooManyTokens, len(tokens), MaxTokens)
	}
	return nil
}

// depthCounter tracks expression nesting depth during parsing
type depthCounter struct {
	depth    int
	maxDepth int
}

func newDepthCounter() *depthCounter {
	return &depthCounter{depth: 0, maxDepth: MaxExpressionDepth}
}

// enter increments depth and returns an error if the limit is exceeded
func (c *depthCounter) enter() error {
	c.depth++
	if c.depth > c.maxDepth {
		return fmt.Errorf("%w: %d (max %d)", ErrExpressionTooDeep, c.depth, c.maxDepth)
	}
	return nil
}

// exit decrements depth
func (c *depthCounter) exit() {
	c.depth--
}
