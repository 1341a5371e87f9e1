package core

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// employees has 10 rows and 4 columns. Bonus is 70% missing, and the
// last "ana" row duplicates the first once Bonus is gone.
const employees = ` Full Name ,AGE,City Name,Bonus
ana,31,Lima,100
ben,25,Quito,
cid,40,Bogota,
dan,35,Lima,
eva,28,Quito,200
fer,50,Cusco,
gus,45,Lima,300
hil,33,Cali,
ivo,29,Lima,
ana,31,Lima,
`

func TestClean_EndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "employees.csv")
	require.NoError(t, os.WriteFile(path, []byte(employees), 0o644))

	tbl, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 10, tbl.NumRows())
	require.Equal(t, 4, tbl.NumCols())

	method, err := ParseFillMethod("media")
	require.NoError(t, err)

	report, err := Clean(context.Background(), tbl, Options{Threshold: 0.5, Method: method})
	require.NoError(t, err)

	assert.Equal(t, 9, tbl.NumRows())
	assert.Equal(t, 3, tbl.NumCols())
	assert.Equal(t, 0, tbl.MissingCount())
	assert.Equal(t, []string{"full_name", "age", "city_name"}, tbl.ColumnNames())

	re := regexp.MustCompile(`^[a-z0-9_]+$`)
	for _, n := range tbl.ColumnNames() {
		assert.Regexp(t, re, n)
	}

	seen := map[string]bool{}
	for i := 0; i < tbl.NumRows(); i++ {
		assert.False(t, seen[tbl.rowKey(i)], "row %d is a duplicate", i)
		seen[tbl.rowKey(i)] = true
	}

	_, err = uuid.Parse(report.RunID)
	assert.NoError(t, err)
	assert.Equal(t, 10, report.RowsIn)
	assert.Equal(t, 9, report.RowsOut)
	assert.Equal(t, 7, report.MissingIn)
	assert.Equal(t, 0, report.Missing)

	names := make([]string, len(report.Steps))
	for i, s := range report.Steps {
		names[i] = s.Name
	}
	assert.Equal(t, []string{
		StepDropSparseColumns,
		StepDropIncompleteRows,
		StepDeduplicateRows,
		StepNormalizeTypes,
		StepFillMissing,
		StepNormalizeNames,
	}, names)

	sparse, ok := report.Step(StepDropSparseColumns)
	require.True(t, ok)
	assert.Equal(t, []string{"Bonus"}, sparse.Columns)
	assert.Equal(t, 4, sparse.ColsBefore)
	assert.Equal(t, 3, sparse.ColsAfter)

	dedup, _ := report.Step(StepDeduplicateRows)
	assert.Equal(t, 10, dedup.RowsBefore)
	assert.Equal(t, 9, dedup.RowsAfter)

	out := filepath.Join(t.TempDir(), "clean.csv")
	require.NoError(t, tbl.Export(out))
	again, err := Load(out)
	require.NoError(t, err)
	assert.True(t, tbl.Equal(again))
}

func TestClean_DropsBeforeFilling(t *testing.T) {
	// "sparse" has one huge value that would skew a mean fill of "v" if it
	// survived; rows with gaps are removed before filling ever runs.
	tbl := mustRead(t, "v,sparse\n1,\n2,\n3,1000000\n,\n")

	_, err := Clean(context.Background(), tbl, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"v"}, tbl.ColumnNames())
	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, 0, tbl.MissingCount())
}

func TestClean_InvalidOptionsLeaveTableUntouched(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"unknown method", Options{Threshold: 0.5, Method: "promedio"}},
		{"empty method", Options{Threshold: 0.5}},
		{"threshold above one", Options{Threshold: 1.5, Method: FillMean}},
		{"negative threshold", Options{Threshold: -1, Method: FillMean}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := mustRead(t, employees)
			before := tbl.Clone()

			report, err := Clean(context.Background(), tbl, tt.opts)

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.Nil(t, report)
			assert.True(t, tbl.Equal(before))
		})
	}

	t.Run("method error names the allowed set", func(t *testing.T) {
		_, err := Clean(context.Background(), mustRead(t, employees), Options{Threshold: 0.5, Method: "promedio"})
		assert.EqualError(t, err, `invalid method "promedio": must be one of {mean, median, mode}`)
	})
}

func TestClean_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tbl := mustRead(t, employees)
	before := tbl.Clone()

	_, err := Clean(ctx, tbl, DefaultOptions())

	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, tbl.Equal(before))
}

func TestProfile(t *testing.T) {
	tbl := mustRead(t, employees)

	p := tbl.Profile()

	assert.Equal(t, 10, p.Rows)
	assert.Equal(t, 4, p.Cols)
	assert.Equal(t, 7, p.Missing)
	require.Len(t, p.Columns, 4)
	assert.Equal(t, ColumnProfile{Name: "AGE", Kind: "number", NonMissing: 10, Missing: 0}, p.Columns[1])
	assert.Equal(t, ColumnProfile{Name: "Bonus", Kind: "number", NonMissing: 3, Missing: 7}, p.Columns[3])
}
