// Package validate checks parsed filter expressions against a dataset's
// declared schema without executing them.
//
// Validation is a pure tree walk: it confirms referenced columns exist,
// flags likely type mistakes as warnings, rejects impossible BETWEEN
// ranges, and attaches performance advisories and a complexity score. All
// problems in an expression are collected together rather than
// short-circuited, so the dashboard UI can surface every issue at once.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/clindash/filterql/filter"
)

// ColumnType is a dataset column's declared type.
type ColumnType string

const (
	TypeString  ColumnType = "string"
	TypeInteger ColumnType = "integer"
	TypeFloat   ColumnType = "float"
	TypeDate    ColumnType = "date"
	TypeBoolean ColumnType = "boolean"
)

// Column describes one column of a dataset schema.
type Column struct {
	Type     ColumnType `json:"type"`
	Nullable bool       `json:"nullable"`
}

// Schema describes a stored dataset's structure. It is produced by schema
// inspection of the Parquet file (see the dataset package) and is
// read-only input here.
type Schema struct {
	Name     string            `json:"dataset_name"`
	Columns  map[string]Column `json:"columns"`
	RowCount int64             `json:"row_count"`
}

// Hash returns a stable hash of the schema, used as a cache invalidation
// key: a schema change produces a different key, so stale validation
// results simply stop being found.
func (s *Schema) Hash() uint64 {
	data, err := json.Marshal(s)
	if err != nil {
		return 0
	}
	return xxhash.Sum64(data)
}

// ColumnInfo pairs a validated column name with its declared type.
type ColumnInfo struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Result is the outcome of one validation call. Errors make the
// expression invalid; warnings are advisory and never block execution.
type Result struct {
	Valid      bool         `json:"is_valid"`
	Errors     []string     `json:"errors"`
	Warnings   []string     `json:"warnings"`
	Columns    []ColumnInfo `json:"validated_columns"`
	Complexity int          `json:"complexity_score"`
	RowCount   int64        `json:"row_count"`
}

// columnCountWarnThreshold is the number of distinct referenced columns
// above which a performance advisory is emitted.
const columnCountWarnThreshold = 5

// Validate checks an AST against a dataset schema. It never executes the
// filter and never reads dataset rows; RowCount is echoed from the schema
// for reference.
func Validate(ast filter.Node, schema *Schema) *Result {
	v := &validator{
		schema:  schema,
		missing: make(map[string]bool),
		seen:    make(map[string]bool),
	}
	if ast != nil {
		v.walk(ast)
	}

	distinct := len(v.columns)
	if distinct > columnCountWarnThreshold {
		v.warnf("Filter references %d columns (threshold %d); evaluation may be slow on large datasets", distinct, columnCountWarnThreshold)
	}

	return &Result{
		Valid:      len(v.errors) == 0,
		Errors:     emptyIfNil(v.errors),
		Warnings:   emptyIfNil(v.warnings),
		Columns:    v.validated,
		Complexity: v.nodeCount + 2*distinct,
		RowCount:   schema.RowCount,
	}
}

type validator struct {
	schema    *Schema
	errors    []string
	warnings  []string
	missing   map[string]bool // columns already reported as missing
	seen      map[string]bool // columns already counted as referenced
	columns   []string
	validated []ColumnInfo
	nodeCount int
}

func (v *validator) errorf(format string, args ...interface{}) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *validator) warnf(format string, args ...interface{}) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

// column records a column reference and reports whether it exists in the
// schema. A missing column yields exactly one error per distinct name,
// regardless of how many times it occurs.
func (v *validator) column(name string) (Column, bool) {
	col, ok := v.schema.Columns[name]

	if !v.seen[name] {
		v.seen[name] = true
		v.columns = append(v.columns, name)
		if ok {
			v.validated = append(v.validated, ColumnInfo{Name: name, Type: col.Type})
		}
	}

	if !ok && !v.missing[name] {
		v.missing[name] = true
		v.errorf("Column '%s' not found in data", name)
	}
	return col, ok
}

func (v *validator) walk(n filter.Node) {
	v.nodeCount++

	switch node := n.(type) {
	case *filter.BinaryNode:
		switch node.Op {
		case filter.TokenAnd, filter.TokenOr:
			v.walk(node.Left)
			v.walk(node.Right)
		default:
			v.nodeCount += 2 // column and literal operands
			v.checkComparison(node)
		}
	case *filter.UnaryNode:
		v.walk(node.Operand)
	case *filter.InNode:
		col, ok := v.column(node.Column)
		if ok {
			for _, val := range node.Values {
				v.checkLiteralType(node.Column, col, val)
			}
		}
	case *filter.BetweenNode:
		col, ok := v.column(node.Column)
		if ok {
			v.checkLiteralType(node.Column, col, node.Lower)
			v.checkLiteralType(node.Column, col, node.Upper)
		}
		v.checkBounds(node)
	case *filter.LikeNode:
		col, ok := v.column(node.Column)
		if ok && col.Type != TypeString {
			v.warnf("LIKE operator used on non-string column '%s' (%s)", node.Column, col.Type)
		}
		if strings.HasPrefix(node.Pattern, "%") {
			v.warnf("LIKE pattern for column '%s' starts with a wildcard; this may be slow on large datasets", node.Column)
		}
	case *filter.IsNullNode:
		v.column(node.Column)
	case *filter.ColumnNode:
		v.column(node.Name)
	case *filter.LiteralNode:
		// counted, nothing to check
	}
}

// checkComparison validates a column-vs-literal comparison
func (v *validator) checkComparison(node *filter.BinaryNode) {
	colRef, ok := node.Left.(*filter.ColumnNode)
	if !ok {
		return
	}
	col, exists := v.column(colRef.Name)
	if !exists {
		return
	}

	lit, ok := node.Right.(*filter.LiteralNode)
	if !ok {
		return
	}
	v.checkLiteralType(colRef.Name, col, lit.Value)
}

// checkLiteralType warns on likely type mistakes. These are warnings, not
// errors: both engines coerce silently, so the expression still executes.
func (v *validator) checkLiteralType(name string, col Column, value interface{}) {
	switch value.(type) {
	case int64, float64:
		if col.Type == TypeString || col.Type == TypeDate || col.Type == TypeBoolean {
			v.warnf("Type mismatch: comparing %s column '%s' with numeric value %v", col.Type, name, value)
		}
	case string:
		if col.Type == TypeInteger || col.Type == TypeFloat {
			v.warnf("Type mismatch: comparing %s column '%s' with string value '%v'", col.Type, name, value)
		}
	case bool:
		if col.Type != TypeBoolean {
			v.warnf("Type mismatch: comparing %s column '%s' with boolean value %v", col.Type, name, value)
		}
	}
}

// checkBounds rejects a BETWEEN whose literal bounds can never match
func (v *validator) checkBounds(node *filter.BetweenNode) {
	lower, lowerNum := toFloat64(node.Lower)
	upper, upperNum := toFloat64(node.Upper)
	if lowerNum && upperNum {
		if lower > upper {
			v.errorf("BETWEEN lower bound (%v) greater than upper bound (%v) for column '%s'", node.Lower, node.Upper, node.Column)
		}
		return
	}

	// Date bounds arrive as ISO strings, which order lexically
	lowerStr, lowerIsStr := node.Lower.(string)
	upperStr, upperIsStr := node.Upper.(string)
	if lowerIsStr && upperIsStr && lowerStr > upperStr {
		v.errorf("BETWEEN lower bound ('%s') greater than upper bound ('%s') for column '%s'", lowerStr, upperStr, node.Column)
	}
}

func toFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case int64:
		return float64(val), true
	case float64:
		return val, true
	default:
		return 0, false
	}
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
