package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/csvclean/internal/logging"
)

// Options configures Clean.
type Options struct {
	Threshold float64    // minimum share of present cells to keep a column
	Method    FillMethod // statistic used to fill missing cells
}

// DefaultOptions returns threshold 0.5 and mean filling.
func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold, Method: FillMean}
}

// Validate checks both options without touching any table.
func (o Options) Validate() error {
	if err := validateThreshold(o.Threshold); err != nil {
		return err
	}
	return o.Method.Validate()
}

// Step names, in the order Clean runs them.
const (
	StepDropSparseColumns  = "drop_sparse_columns"
	StepDropIncompleteRows = "drop_incomplete_rows"
	StepDeduplicateRows    = "deduplicate_rows"
	StepNormalizeTypes     = "normalize_column_types"
	StepFillMissing        = "fill_missing"
	StepNormalizeNames     = "normalize_column_names"
)

// StepReport describes the effect of one pipeline step.
type StepReport struct {
	Name       string        `json:"name"`
	RowsBefore int           `json:"rows_before"`
	RowsAfter  int           `json:"rows_after"`
	ColsBefore int           `json:"cols_before"`
	ColsAfter  int           `json:"cols_after"`
	Columns    []string      `json:"columns,omitempty"` // columns dropped, converted, filled or renamed
	Duration   time.Duration `json:"duration_ns"`
}

// Report summarizes a Clean run.
type Report struct {
	RunID     string        `json:"run_id"`
	Options   Options       `json:"-"`
	Steps     []StepReport  `json:"steps"`
	RowsIn    int           `json:"rows_in"`
	RowsOut   int           `json:"rows_out"`
	ColsIn    int           `json:"cols_in"`
	ColsOut   int           `json:"cols_out"`
	MissingIn int           `json:"missing_in"`
	Missing   int           `json:"missing_out"`
	Duration  time.Duration `json:"duration_ns"`
}

// Step returns the report for the named step.
func (r *Report) Step(name string) (StepReport, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepReport{}, false
}

type step struct {
	name string
	run  func(*Table) ([]string, error)
}

// Clean runs the cleaning pipeline on t in place:
//
//  1. drop sparse columns
//  2. drop incomplete rows
//  3. deduplicate rows
//  4. normalize column types
//  5. fill missing values
//  6. normalize column names
//
// Options are validated before the first step, so an invalid method or
// threshold leaves t unchanged. ctx is checked between steps.
func Clean(ctx context.Context, t *Table, opts Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	report := &Report{
		RunID:     uuid.New().String(),
		Options:   opts,
		RowsIn:    t.NumRows(),
		ColsIn:    t.NumCols(),
		MissingIn: t.MissingCount(),
	}
	logger := logging.WithFields(ctx, "run_id", report.RunID)
	logger.Info("clean started",
		"rows", report.RowsIn,
		"cols", report.ColsIn,
		"threshold", opts.Threshold,
		"method", string(opts.Method),
	)

	steps := []step{
		{StepDropSparseColumns, func(t *Table) ([]string, error) {
			return t.DropSparseColumns(opts.Threshold)
		}},
		{StepDropIncompleteRows, func(t *Table) ([]string, error) {
			t.DropIncompleteRows()
			return nil, nil
		}},
		{StepDeduplicateRows, func(t *Table) ([]string, error) {
			t.DeduplicateRows()
			return nil, nil
		}},
		{StepNormalizeTypes, func(t *Table) ([]string, error) {
			return t.NormalizeColumnTypes(), nil
		}},
		{StepFillMissing, func(t *Table) ([]string, error) {
			return t.FillMissing(opts.Method)
		}},
		{StepNormalizeNames, func(t *Table) ([]string, error) {
			return t.NormalizeColumnNames(), nil
		}},
	}

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("clean %s: %w", s.name, err)
		}

		stepStart := time.Now()
		sr := StepReport{Name: s.name, RowsBefore: t.NumRows(), ColsBefore: t.NumCols()}
		cols, err := s.run(t)
		if err != nil {
			return report, fmt.Errorf("clean %s: %w", s.name, err)
		}
		sr.RowsAfter = t.NumRows()
		sr.ColsAfter = t.NumCols()
		sr.Columns = cols
		sr.Duration = time.Since(stepStart)
		report.Steps = append(report.Steps, sr)

		logger.Debug("clean step",
			"step", s.name,
			"rows_before", sr.RowsBefore,
			"rows_after", sr.RowsAfter,
			"cols_before", sr.ColsBefore,
			"cols_after", sr.ColsAfter,
			"columns", cols,
		)
	}

	report.RowsOut = t.NumRows()
	report.ColsOut = t.NumCols()
	report.Missing = t.MissingCount()
	report.Duration = time.Since(start)

	logger.Info("clean completed",
		"rows_in", report.RowsIn,
		"rows_out", report.RowsOut,
		"cols_in", report.ColsIn,
		"cols_out", report.ColsOut,
		"missing_out", report.Missing,
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}
