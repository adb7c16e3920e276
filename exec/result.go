package exec

import (
	"fmt"
	"math"
)

// Request describes one filter execution. StudyID and WidgetID only label
// metrics; Columns optionally projects the returned rows.
type Request struct {
	StudyID     string
	WidgetID    string
	Expression  string
	DatasetPath string
	Columns     []string
}

// Result is the outcome of one execution. Err is set for expected failure
// modes (missing dataset, invalid expression) with RowCount 0; callers
// distinguish "invalid filter" from "filter matched nothing" by checking
// Err, never by inferring from an empty Data.
type Result struct {
	RowCount      int                      `json:"row_count"`
	OriginalCount int                      `json:"original_count"`
	ReductionPct  float64                  `json:"reduction_percentage"`
	Data          []map[string]interface{} `json:"data"`
	ElapsedMS     float64                  `json:"execution_time_ms"`
	Err           string                   `json:"error,omitempty"`
}

// errResult builds the zero-row failure result shared by both engines
func errResult(format string, args ...interface{}) *Result {
	return &Result{
		RowCount: 0,
		Data:     []map[string]interface{}{},
		Err:      fmt.Sprintf(format, args...),
	}
}

// reductionPct computes the percentage of rows removed by the filter,
// rounded to one decimal. An empty dataset yields 0 rather than a division
// by zero.
func reductionPct(rowCount, originalCount int) float64 {
	if originalCount == 0 {
		return 0
	}
	pct := (1 - float64(rowCount)/float64(originalCount)) * 100
	return math.Round(pct*10) / 10
}

// project copies rows keeping only the requested columns. A nil or empty
// column list keeps everything.
func project(rows []map[string]interface{}, columns []string) []map[string]interface{} {
	if len(columns) == 0 {
		return rows
	}

	projected := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		newRow := make(map[string]interface{}, len(columns))
		for _, col := range columns {
			if v, ok := row[col]; ok {
				newRow[col] = v
			}
		}
		projected = append(projected, newRow)
	}
	return projected
}
