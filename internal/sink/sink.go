// Package sink forwards a cleaned table to external systems.
//
// Every sink reports what happened as a *Result. Setup and connection
// problems come back as *Error; individual rows that could not be written
// are listed in Result.Failures and never stop the remaining rows.
package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/csvclean/internal/core"
)

// Sink consumes a cleaned table.
type Sink interface {
	Name() string
	Write(ctx context.Context, t *core.Table) (*Result, error)
	Close() error
}

// RowFailure describes one row a sink could not deliver.
// Row is 1-indexed and does not count the header.
type RowFailure struct {
	Row    int    `json:"row"`
	Status int    `json:"status,omitempty"` // HTTP status, 0 when not applicable
	Body   string `json:"body,omitempty"`   // response body excerpt, HTTP only
	Err    error  `json:"-"`
}

// MarshalJSON renders Err as its message.
func (f RowFailure) MarshalJSON() ([]byte, error) {
	type plain RowFailure
	var msg string
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		plain
		Error string `json:"error,omitempty"`
	}{plain(f), msg})
}

// Result summarizes one Write call.
type Result struct {
	Sink      string        `json:"sink"`
	Attempted int           `json:"attempted"`
	Written   int           `json:"written"`
	Failures  []RowFailure  `json:"failures,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
}

// Failed returns the number of rows that were not written.
func (r *Result) Failed() int { return len(r.Failures) }

// Err returns nil when every row was written, otherwise an *Error
// summarizing the failures and wrapping the first one.
func (r *Result) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	first := r.Failures[0]
	return &Error{
		Sink: r.Sink,
		Op:   "write",
		Err:  fmt.Errorf("%d of %d rows failed: row %d: %w", len(r.Failures), r.Attempted, first.Row, first.Err),
	}
}

// Error is a sink-level failure.
type Error struct {
	Sink string // "sql" or "http"
	Op   string // connect, create table, begin, commit, post, ...
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s sink: %s: %v", e.Sink, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// WriteAll writes t to each sink in order. Every sink is attempted even
// when an earlier one fails. The returned error joins each sink's Write
// error or, failing that, its Result.Err.
func WriteAll(ctx context.Context, sinks []Sink, t *core.Table) ([]*Result, error) {
	results := make([]*Result, 0, len(sinks))
	var errs []error
	for _, s := range sinks {
		res, err := s.Write(ctx, t)
		if res == nil {
			res = &Result{Sink: s.Name()}
		}
		results = append(results, res)

		if err == nil {
			err = res.Err()
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return results, errors.Join(errs...)
}
