package exec

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/clindash/filterql/dataset"
)

// ArrowEngine evaluates filters over the columnar Arrow representation of
// a dataset, read straight from Parquet without materializing rows. Only
// rows selected by the filter are converted to maps. It selects exactly
// the same rows as RowEngine for every supported expression.
type ArrowEngine struct {
	recorder Recorder
}

// NewArrowEngine creates a columnar execution engine. The recorder may be
// nil.
func NewArrowEngine(rec Recorder) *ArrowEngine {
	return &ArrowEngine{recorder: rec}
}

// Execute parses, compiles and runs a filter over the dataset file. It
// never returns a Go error; see Result.
func (e *ArrowEngine) Execute(ctx context.Context, req Request) *Result {
	start := time.Now()

	prog, errRes := prepare(req.Expression)
	if errRes != nil {
		return errRes
	}

	table, err := dataset.ReadTable(ctx, req.DatasetPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errResult("%s not found", filepath.Base(req.DatasetPath))
		}
		return errResult("failed to read dataset: %v", err)
	}
	defer table.Release()

	f := newArrowFrame(table)

	var selected []int
	for i := 0; i < f.numRows(); i++ {
		if prog.matches(f, i) {
			selected = append(selected, i)
		}
	}

	res := &Result{
		RowCount:      len(selected),
		OriginalCount: f.numRows(),
		ReductionPct:  reductionPct(len(selected), f.numRows()),
		Data:          f.materialize(selected, req.Columns),
		ElapsedMS:     float64(time.Since(start).Microseconds()) / 1000,
	}

	record(e.recorder, req, res, "arrow")
	return res
}

// arrowFrame adapts an Arrow table's chunked columns to the evaluator.
// Unknown columns and null cells read as nil.
type arrowFrame struct {
	names []string
	cols  map[string]*chunkedColumn
	rows  int
}

// chunkedColumn locates a logical row inside a column's chunk list
type chunkedColumn struct {
	chunks []arrow.Array
	starts []int // logical start row of each chunk
}

func newArrowFrame(table arrow.Table) *arrowFrame {
	f := &arrowFrame{
		cols: make(map[string]*chunkedColumn, table.NumCols()),
		rows: int(table.NumRows()),
	}

	for i := 0; i < int(table.NumCols()); i++ {
		field := table.Schema().Field(i)
		chunks := table.Column(i).Data().Chunks()

		col := &chunkedColumn{chunks: chunks, starts: make([]int, len(chunks))}
		offset := 0
		for j, chunk := range chunks {
			col.starts[j] = offset
			offset += chunk.Len()
		}

		f.names = append(f.names, field.Name)
		f.cols[field.Name] = col
	}

	return f
}

func (f *arrowFrame) numRows() int {
	return f.rows
}

func (f *arrowFrame) value(column string, row int) interface{} {
	col, ok := f.cols[column]
	if !ok {
		return nil
	}
	return col.value(row)
}

// materialize converts the selected row indices to maps, optionally
// projected to a column subset
func (f *arrowFrame) materialize(selected []int, columns []string) []map[string]interface{} {
	names := f.names
	if len(columns) > 0 {
		names = make([]string, 0, len(columns))
		for _, c := range columns {
			if _, ok := f.cols[c]; ok {
				names = append(names, c)
			}
		}
	}

	rows := make([]map[string]interface{}, 0, len(selected))
	for _, idx := range selected {
		row := make(map[string]interface{}, len(names))
		for _, name := range names {
			row[name] = f.cols[name].value(idx)
		}
		rows = append(rows, row)
	}
	return rows
}

func (c *chunkedColumn) value(row int) interface{} {
	for j := len(c.chunks) - 1; j >= 0; j-- {
		if row >= c.starts[j] {
			return arrowValue(c.chunks[j], row-c.starts[j])
		}
	}
	return nil
}

// arrowValue extracts one cell from a typed Arrow array. Integer families
// widen to int64 and float32 to float64 so both engines compare values
// through the same coercions. Unsupported array types read as null.
func arrowValue(arr arrow.Array, i int) interface{} {
	if arr.IsNull(i) {
		return nil
	}

	switch a := arr.(type) {
	case *array.Boolean:
		return a.Value(i)
	case *array.Int8:
		return int64(a.Value(i))
	case *array.Int16:
		return int64(a.Value(i))
	case *array.Int32:
		return int64(a.Value(i))
	case *array.Int64:
		return a.Value(i)
	case *array.Uint8:
		return int64(a.Value(i))
	case *array.Uint16:
		return int64(a.Value(i))
	case *array.Uint32:
		return int64(a.Value(i))
	case *array.Uint64:
		return int64(a.Value(i))
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Float64:
		return a.Value(i)
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Binary:
		return string(a.Value(i))
	case *array.Date32:
		return a.Value(i).ToTime()
	case *array.Date64:
		return a.Value(i).ToTime()
	case *array.Timestamp:
		return a.Value(i).ToTime(a.DataType().(*arrow.TimestampType).Unit)
	default:
		return nil
	}
}
