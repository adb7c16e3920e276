package exec

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/clindash/filterql/dataset"
	"github.com/clindash/filterql/filter"
)

// RowEngine evaluates filters over datasets fully materialized as row
// maps. It is the reference backend for small and medium datasets.
type RowEngine struct {
	recorder Recorder
}

// NewRowEngine creates a row-map execution engine. The recorder may be
// nil.
func NewRowEngine(rec Recorder) *RowEngine {
	return &RowEngine{recorder: rec}
}

// rowFrame adapts row maps to the evaluator. A key missing from a row
// reads as null, matching the optional-column behavior of the Parquet row
// reader.
type rowFrame struct {
	rows []map[string]interface{}
}

func (f *rowFrame) numRows() int {
	return len(f.rows)
}

func (f *rowFrame) value(column string, row int) interface{} {
	return f.rows[row][column]
}

// Execute parses, compiles and runs a filter over the dataset file. It
// never returns a Go error; see Result.
func (e *RowEngine) Execute(ctx context.Context, req Request) *Result {
	start := time.Now()

	prog, errRes := prepare(req.Expression)
	if errRes != nil {
		return errRes
	}

	rows, err := dataset.ReadRows(req.DatasetPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errResult("%s not found", filepath.Base(req.DatasetPath))
		}
		return errResult("failed to read dataset: %v", err)
	}

	f := &rowFrame{rows: rows}
	filtered := make([]map[string]interface{}, 0)
	for i := 0; i < f.numRows(); i++ {
		if prog.matches(f, i) {
			filtered = append(filtered, rows[i])
		}
	}

	res := &Result{
		RowCount:      len(filtered),
		OriginalCount: len(rows),
		ReductionPct:  reductionPct(len(filtered), len(rows)),
		Data:          project(filtered, req.Columns),
		ElapsedMS:     float64(time.Since(start).Microseconds()) / 1000,
	}

	record(e.recorder, req, res, "rows")
	return res
}

// prepare parses and compiles an expression, folding failures into the
// executor's error-result contract
func prepare(expression string) (*Program, *Result) {
	parsed := filter.Parse(expression)
	if !parsed.Valid {
		return nil, errResult("Invalid filter expression: %s", parsed.Err)
	}

	prog, err := Compile(parsed.AST)
	if err != nil {
		return nil, errResult("Invalid filter expression: %v", err)
	}
	return prog, nil
}
