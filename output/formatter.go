// Package output provides formatters for rendering filtered dataset rows.
//
// Supported formats:
//   - JSON Lines: one JSON object per line
//   - CSV: comma-separated values with a header row
//   - Table: aligned text table for terminal preview
//
// Example usage:
//
//	formatter := output.NewJSONFormatter(os.Stdout)
//	if err := formatter.Format(rows); err != nil {
//	    log.Fatal(err)
//	}
package output

import (
	"io"
	"sort"
)

// Formatter defines the interface for output formatters.
type Formatter interface {
	// Format writes rows in the formatter's specific format
	Format(rows []map[string]interface{}) error

	// SetOutput changes the output writer
	SetOutput(w io.Writer)
}

// columnOrder returns the sorted union of column names across rows, so
// every formatter emits a stable header regardless of map iteration order.
func columnOrder(rows []map[string]interface{}) []string {
	seen := make(map[string]bool)
	var columns []string

	for _, row := range rows {
		for col := range row {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
	}

	sort.Strings(columns)
	return columns
}
