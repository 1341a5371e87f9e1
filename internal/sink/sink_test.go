package sink

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvclean/internal/core"
)

type fakeSink struct {
	name string
	res  *Result
	err  error
	got  *core.Table
}

func (f *fakeSink) Name() string { return f.name }
func (f *fakeSink) Close() error { return nil }

func (f *fakeSink) Write(_ context.Context, t *core.Table) (*Result, error) {
	f.got = t
	return f.res, f.err
}

func TestResult_Err(t *testing.T) {
	res := &Result{Sink: "sql", Attempted: 3, Written: 3}
	assert.NoError(t, res.Err())

	cause := errors.New("boom")
	res = &Result{Sink: "sql", Attempted: 3, Written: 2, Failures: []RowFailure{{Row: 2, Err: cause}}}
	err := res.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "sql sink: write: 1 of 3 rows failed: row 2: boom", err.Error())
}

func TestWriteAll(t *testing.T) {
	tbl := testTable(t)
	cause := errors.New("refused")

	ok := &fakeSink{name: "a", res: &Result{Sink: "a", Attempted: 2, Written: 2}}
	broken := &fakeSink{name: "b", err: &Error{Sink: "b", Op: "connect", Err: cause}}
	partial := &fakeSink{name: "c", res: &Result{Sink: "c", Attempted: 2, Written: 1, Failures: []RowFailure{{Row: 1, Err: cause}}}}

	results, err := WriteAll(context.Background(), []Sink{ok, broken, partial}, tbl)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)

	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].Sink)
	assert.Equal(t, "b", results[1].Sink)
	assert.Equal(t, 1, results[2].Failed())

	for _, s := range []*fakeSink{ok, broken, partial} {
		assert.Same(t, tbl, s.got, "sink %s", s.name)
	}
}

func TestWriteAll_NoSinks(t *testing.T) {
	results, err := WriteAll(context.Background(), nil, testTable(t))
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestRowFailure_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(RowFailure{Row: 3, Status: 400, Body: "nope", Err: errors.New("unexpected status 400")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"row":3,"status":400,"body":"nope","error":"unexpected status 400"}`, string(data))

	data, err = json.Marshal(RowFailure{Row: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"row":1}`, string(data))
}
