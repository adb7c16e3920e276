package exec

import (
	"go.uber.org/zap"
)

// maxRecordedQueryLen bounds the expression text stored with a metric
const maxRecordedQueryLen = 512

// Metric captures the outcome of one filter execution for later
// inspection, labeled by study and widget.
type Metric struct {
	StudyID      string
	WidgetID     string
	Expression   string
	ElapsedMS    float64
	RowCount     int
	ReductionPct float64
	Engine       string
}

// Recorder receives execution metrics. Recording is best-effort: a
// returned error is ignored by the engines and must never affect the
// filter result.
type Recorder interface {
	Record(m Metric) error
}

// LogRecorder emits execution metrics as structured log entries.
type LogRecorder struct {
	logger *zap.Logger
}

// NewLogRecorder creates a recorder writing to the given logger. A nil
// logger records nothing.
func NewLogRecorder(logger *zap.Logger) *LogRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogRecorder{logger: logger}
}

// Record logs one metric
func (r *LogRecorder) Record(m Metric) error {
	r.logger.Info("filter executed",
		zap.String("study_id", m.StudyID),
		zap.String("widget_id", m.WidgetID),
		zap.String("expression", m.Expression),
		zap.String("engine", m.Engine),
		zap.Float64("elapsed_ms", m.ElapsedMS),
		zap.Int("row_count", m.RowCount),
		zap.Float64("reduction_pct", m.ReductionPct),
	)
	return nil
}

// record sends a metric to the recorder, truncating the expression text
// and swallowing any recorder failure
func record(rec Recorder, req Request, res *Result, engine string) {
	if rec == nil {
		return
	}

	expr := req.Expression
	if len(expr) > maxRecordedQueryLen {
		expr = expr[:maxRecordedQueryLen]
	}

	_ = rec.Record(Metric{
		StudyID:      req.StudyID,
		WidgetID:     req.WidgetID,
		Expression:   expr,
		ElapsedMS:    res.ElapsedMS,
		RowCount:     res.RowCount,
		ReductionPct: res.ReductionPct,
		Engine:       engine,
	})
}
