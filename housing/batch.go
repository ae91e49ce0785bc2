package housing

import (
	"context"
	"encoding/csv"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/YuminosukeSato/housepredict/core/parallel"
	"github.com/YuminosukeSato/housepredict/pkg/errors"
	"github.com/YuminosukeSato/housepredict/pkg/log"
)

// RowOutcome is the result of one batch row. Exactly one of Predictions and
// Error is set. Input echoes the row when all four fields were numeric.
type RowOutcome struct {
	Row         int               `json:"row"`
	Input       *FeatureVector    `json:"input,omitempty"`
	Predictions *PredictionResult `json:"predictions,omitempty"`
	Error       string            `json:"error,omitempty"`

	Err error `json:"-"`
}

// OK reports whether the row produced a prediction.
func (o RowOutcome) OK() bool {
	return o.Err == nil && o.Predictions != nil
}

// BatchResult is the ordered outcome of a whole submission.
type BatchResult struct {
	Results   []RowOutcome `json:"results"`
	TotalRows int          `json:"total_rows"`
}

// Failed counts rows that produced an error.
func (r *BatchResult) Failed() int {
	n := 0
	for _, o := range r.Results {
		if !o.OK() {
			n++
		}
	}
	return n
}

// Table is tabular input: a header row and string records.
type Table struct {
	Header []string
	Rows   [][]string
}

// NewTable builds a Table from an in-memory header and records.
func NewTable(header []string, rows [][]string) *Table {
	return &Table{Header: header, Rows: rows}
}

// ReadCSV parses a header row followed by records. Rows may be shorter or
// longer than the header; short rows fail individually when processed.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return NewTable(nil, nil), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading CSV header")
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "reading CSV records")
	}
	return NewTable(header, rows), nil
}

// columnIndex maps each required column to its header position. Header names
// are compared after trimming; extra columns are ignored.
func (t *Table) columnIndex() (map[string]int, error) {
	index := make(map[string]int, len(RequiredColumns))
	for i, name := range t.Header {
		name = strings.TrimSpace(name)
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewStructuralInputError(RequiredColumns, missing)
	}
	return index, nil
}

// BatchProcessor runs the pipeline over every record of a batch, isolating
// per-row failures.
type BatchProcessor struct {
	pipeline *Pipeline
	workers  int
	logger   log.Logger
}

// NewBatchProcessor creates a processor using up to workers goroutines per
// batch. workers <= 0 means runtime.NumCPU().
func NewBatchProcessor(p *Pipeline, workers int, logger log.Logger) *BatchProcessor {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = log.GetLogger()
	}
	return &BatchProcessor{pipeline: p, workers: workers, logger: logger}
}

// Process evaluates JSON-style records. A record lacking a field fails that
// row only.
func (b *BatchProcessor) Process(ctx context.Context, rows []map[string]any) (*BatchResult, error) {
	return b.fold(ctx, len(rows), func(i int) (FeatureVector, error) {
		row := rows[i]
		for _, col := range RequiredColumns {
			if _, ok := row[col]; !ok {
				return FeatureVector{}, errors.Newf("missing value for %s", col)
			}
		}
		return parseFeatures(func(field string) (any, bool) {
			v, ok := row[field]
			return v, ok
		})
	})
}

// ProcessTable evaluates tabular records. A header lacking any required column
// aborts the batch with a StructuralInputError before any row runs.
func (b *BatchProcessor) ProcessTable(ctx context.Context, t *Table) (*BatchResult, error) {
	if !b.pipeline.Ready() {
		return nil, errors.NewModelsUnavailableError(b.pipeline.Missing()...)
	}
	index, err := t.columnIndex()
	if err != nil {
		return nil, err
	}
	return b.fold(ctx, len(t.Rows), func(i int) (FeatureVector, error) {
		record := t.Rows[i]
		for _, col := range RequiredColumns {
			if index[col] >= len(record) {
				return FeatureVector{}, errors.Newf("missing value for %s", col)
			}
		}
		return parseFeatures(func(field string) (any, bool) {
			return record[index[field]], true
		})
	})
}

// fold evaluates n rows on the worker pool. Each goroutine writes only its own
// slots of the pre-sized result slice, so output order equals input order.
func (b *BatchProcessor) fold(ctx context.Context, n int, parse func(i int) (FeatureVector, error)) (*BatchResult, error) {
	if !b.pipeline.Ready() {
		return nil, errors.NewModelsUnavailableError(b.pipeline.Missing()...)
	}

	start := time.Now()
	results := make([]RowOutcome, n)
	err := parallel.ParallelizeN(ctx, n, b.workers, func(ctx context.Context, lo, hi int) error {
		for i := lo; i < hi; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = b.processRow(i+1, func() (FeatureVector, error) { return parse(i) })
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "batch cancelled")
	}

	res := &BatchResult{Results: results, TotalRows: n}
	b.logger.Info("batch processed",
		log.OperationKey, log.OperationPredictBatch,
		log.BatchRowsKey, n,
		log.BatchFailedKey, res.Failed(),
		log.PredsKey, n-res.Failed(),
		log.BatchWorkersKey, b.workers,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return res, nil
}

// processRow never fails: every error, including a panic, becomes the row's
// outcome.
func (b *BatchProcessor) processRow(row int, parse func() (FeatureVector, error)) RowOutcome {
	out := RowOutcome{Row: row}
	var v FeatureVector
	parsed := false

	err := errors.SafeExecute("housing.processRow", func() error {
		var err error
		v, err = parse()
		if err != nil {
			return errors.NewRowError(row, msgRowFailedAt+describeParseError(err), err)
		}
		parsed = true
		if !v.InRange() {
			return errors.NewRowError(row, msgRowInvalid, errors.NewValidationError("", msgOutOfRange, v))
		}
		res, err := b.pipeline.Run(v)
		if err != nil {
			return errors.NewRowError(row, msgRowFailedAt+err.Error(), err)
		}
		out.Predictions = &res
		return nil
	})

	if parsed {
		out.Input = &v
	}
	if err != nil {
		var rowErr *errors.RowError
		if !errors.As(err, &rowErr) {
			rowErr = errors.NewRowError(row, msgRowFailedAt+err.Error(), err)
		}
		out.Predictions = nil
		out.Error = rowErr.Message
		out.Err = rowErr
		b.logger.Debug("row failed",
			log.RowKey, row,
			log.ErrorCodeKey, log.ErrorRowFailed,
			log.ErrorDetailKey, rowErr,
		)
	}
	return out
}
