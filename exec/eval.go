package exec

import (
	"strings"
	"time"

	"github.com/clindash/filterql/filter"
)

// frame is the minimal column-value surface a backend exposes to the
// evaluator. A missing column or a null cell yields a nil value; the
// evaluator itself is total and never errors.
type frame interface {
	numRows() int
	value(column string, row int) interface{}
}

// matches evaluates the program against one row of a frame.
func (p *Program) matches(f frame, row int) bool {
	return evalPred(p.root, f, row)
}

func evalPred(p *pred, f frame, row int) bool {
	switch p.kind {
	case predAnd:
		return evalPred(p.left, f, row) && evalPred(p.right, f, row)
	case predOr:
		return evalPred(p.left, f, row) || evalPred(p.right, f, row)
	case predNot:
		return !evalPred(p.operand, f, row)
	case predCompare:
		return compare(f.value(p.column, row), p.op, p.value)
	case predIn:
		v := f.value(p.column, row)
		found := false
		if v != nil {
			for _, candidate := range p.values {
				if compare(v, filter.TokenEqual, candidate) {
					found = true
					break
				}
			}
		}
		if p.negate {
			return !found
		}
		return found
	case predBetween:
		v := f.value(p.column, row)
		if v == nil {
			return false
		}
		// Inclusive both ends; reversed bounds fall out as the natural
		// always-false conjunction
		return compare(v, filter.TokenGreaterEqual, p.lower) &&
			compare(v, filter.TokenLessEqual, p.upper)
	case predLike:
		match := false
		if s, ok := toString(f.value(p.column, row)); ok {
			match = p.matchLike(s)
		}
		if p.negate {
			return !match
		}
		return match
	case predIsNull:
		isNull := f.value(p.column, row) == nil
		if p.negate {
			return !isNull
		}
		return isNull
	default:
		return false
	}
}

func (p *pred) matchLike(s string) bool {
	switch p.like {
	case likeExact:
		return s == p.needle
	case likePrefix:
		return strings.HasPrefix(s, p.needle)
	case likeSuffix:
		return strings.HasSuffix(s, p.needle)
	case likeContains:
		return strings.Contains(s, p.needle)
	default:
		return matchLikePattern(s, p.pattern)
	}
}

// compare compares a row value with a literal using the given operator.
// Nulls follow engine-native propagation: equality is false, inequality is
// true, ordering comparisons are false. Incomparable types are false.
func compare(left interface{}, operator filter.TokenType, right interface{}) bool {
	if left == nil || right == nil {
		if operator == filter.TokenEqual {
			return left == right
		}
		if operator == filter.TokenNotEqual {
			return left != right
		}
		return false
	}

	// Try numeric comparison
	leftNum, leftIsNum := toFloat64(left)
	rightNum, rightIsNum := toFloat64(right)
	if leftIsNum && rightIsNum {
		return compareNumbers(leftNum, operator, rightNum)
	}

	// Try temporal comparison; literal date/time values arrive as strings
	leftTime, leftIsTime := toTime(left)
	rightTime, rightIsTime := toTime(right)
	if leftIsTime && rightIsTime {
		return compareNumbers(float64(leftTime.UnixNano()), operator, float64(rightTime.UnixNano()))
	}

	// Try string comparison
	leftStr, leftIsStr := toString(left)
	rightStr, rightIsStr := toString(right)
	if leftIsStr && rightIsStr {
		return compareStrings(leftStr, operator, rightStr)
	}

	// Try boolean comparison
	leftBool, leftIsBool := toBool(left)
	rightBool, rightIsBool := toBool(right)
	if leftIsBool && rightIsBool {
		return compareBools(leftBool, operator, rightBool)
	}

	return false
}

// toFloat64 converts a value to float64 if possible
func toFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

// toString converts a value to string if possible
func toString(v interface{}) (string, bool) {
	if str, ok := v.(string); ok {
		return str, true
	}
	return "", false
}

// toBool converts a value to bool if possible
func toBool(v interface{}) (bool, bool) {
	if b, ok := v.(bool); ok {
		return b, true
	}
	return false, false
}

// timeLayouts are the accepted literal layouts for date comparisons
var timeLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// toTime converts a value to time.Time if possible. Only one side of a
// comparison is ever a time.Time (row values); the literal side is parsed
// from its string form.
func toTime(v interface{}) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, val); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// compareNumbers compares two numbers
func compareNumbers(left float64, operator filter.TokenType, right float64) bool {
	switch operator {
	case filter.TokenEqual:
		return left == right
	case filter.TokenNotEqual:
		return left != right
	case filter.TokenLess:
		return left < right
	case filter.TokenGreater:
		return left > right
	case filter.TokenLessEqual:
		return left <= right
	case filter.TokenGreaterEqual:
		return left >= right
	default:
		return false
	}
}

// compareStrings compares two strings (case-sensitive, no normalization)
func compareStrings(left string, operator filter.TokenType, right string) bool {
	switch operator {
	case filter.TokenEqual:
		return left == right
	case filter.TokenNotEqual:
		return left != right
	case filter.TokenLess:
		return left < right
	case filter.TokenGreater:
		return left > right
	case filter.TokenLessEqual:
		return left <= right
	case filter.TokenGreaterEqual:
		return left >= right
	default:
		return false
	}
}

// compareBools compares two booleans
func compareBools(left bool, operator filter.TokenType, right bool) bool {
	switch operator {
	case filter.TokenEqual:
		return left == right
	case filter.TokenNotEqual:
		return left != right
	default:
		return false
	}
}

// matchLikePattern matches a string against a SQL LIKE pattern.
// % matches any sequence of characters, _ matches any single character.
func matchLikePattern(str, pattern string) bool {
	segments := strings.Split(pattern, "%")

	pos := 0
	for i, segment := range segments {
		if segment == "" {
			// % at start/end or consecutive %%
			continue
		}

		// Without a closing %, the final segment anchors at the end of
		// the string, not at its first occurrence
		if i == len(segments)-1 && !strings.HasSuffix(pattern, "%") {
			tail := len(str) - len(segment)
			if tail < pos {
				return false
			}
			if i == 0 && !strings.HasPrefix(pattern, "%") && tail != 0 {
				return false
			}
			return segmentMatchesAt(str, tail, segment)
		}

		matchPos := findSegmentMatch(str[pos:], segment)
		if matchPos == -1 {
			return false
		}

		// The first segment must match at the start unless the pattern
		// opens with %
		if i == 0 && !strings.HasPrefix(pattern, "%") && matchPos != 0 {
			return false
		}

		pos += matchPos + len(segment)
	}

	// The last segment must match at the end unless the pattern closes
	// with %
	if !strings.HasSuffix(pattern, "%") && pos != len(str) {
		return false
	}

	return true
}

// segmentMatchesAt reports whether a segment matches str at a byte offset,
// honoring _ wildcards
func segmentMatchesAt(str string, pos int, segment string) bool {
	for j := 0; j < len(segment); j++ {
		if segment[j] != '_' && str[pos+j] != segment[j] {
			return false
		}
	}
	return true
}

// findSegmentMatch finds the position where a segment matches in the
// string, honoring _ wildcards. Returns -1 if no match is found.
func findSegmentMatch(str, segment string) int {
	if len(segment) == 0 {
		return 0
	}

	if !strings.Contains(segment, "_") {
		return strings.Index(str, segment)
	}

	for i := 0; i <= len(str)-len(segment); i++ {
		match := true
		for j := 0; j < len(segment); j++ {
			if segment[j] != '_' && str[i+j] != segment[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}

	return -1
}
