package core

import (
	"math"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDropSparseColumns(t *testing.T) {
	// present counts: full=4, half=2, one=1, none=0
	const input = "full,half,one,none\n1,1,1,\n2,2,,\n3,,,\n4,,,\n"

	tests := []struct {
		threshold float64
		want      []string
	}{
		{0.0, []string{"full", "half", "one", "none"}},
		{0.25, []string{"full", "half", "one"}},
		{0.5, []string{"full", "half"}},
		{0.51, []string{"full"}},
		{1.0, []string{"full"}},
	}

	for _, tt := range tests {
		tbl := mustRead(t, input)
		_, err := tbl.DropSparseColumns(tt.threshold)
		require.NoError(t, err)
		assert.Equal(t, tt.want, tbl.ColumnNames(), "threshold %v", tt.threshold)
	}
}

func TestDropSparseColumns_AllDropped(t *testing.T) {
	tbl := mustRead(t, "a,b\n1,\n,2\n3,\n")

	dropped, err := tbl.DropSparseColumns(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, dropped)
	assert.Zero(t, tbl.NumCols())
	assert.Zero(t, tbl.NumRows())
	assert.Zero(t, tbl.DeduplicateRows())
}

func TestDropSparseColumns_InvalidThreshold(t *testing.T) {
	for _, th := range []float64{-0.1, 1.01} {
		tbl := mustRead(t, "a\n1\n")
		_, err := tbl.DropSparseColumns(th)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.Equal(t, 1, tbl.NumCols())
	}
}

func TestDropSparseColumns_Extremes(t *testing.T) {
	inputs := []string{
		"a,b,c\n1,,x\n2,3,\n,4,y\n",
		"a,b\n1,2\n3,4\n",
		"a\n\n",
	}
	for _, in := range inputs {
		tbl := mustRead(t, in)

		zero := tbl.Clone()
		_, err := zero.DropSparseColumns(0)
		require.NoError(t, err)
		assert.Equal(t, tbl.NumCols(), zero.NumCols())

		one := tbl.Clone()
		_, _ = one.DropSparseColumns(1)
		for _, c := range one.Columns() {
			assert.Zero(t, c.MissingCount(), "column %s", c.Name)
		}
		for _, c := range tbl.Columns() {
			if c.MissingCount() == 0 {
				_, kept := one.Column(c.Name)
				assert.True(t, kept, "column %s", c.Name)
			}
		}
	}
}

func TestDropIncompleteRows(t *testing.T) {
	tbl := mustRead(t, "a,b\n1,x\n,y\n3,\n4,z\n")

	removed := tbl.DropIncompleteRows()

	assert.Equal(t, 2, removed)
	assert.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, []any{1.0, "x"}, tbl.Row(0))
	assert.Equal(t, []any{4.0, "z"}, tbl.Row(1))
}

func TestDeduplicateRows(t *testing.T) {
	tbl := mustRead(t, "a,b\n1,x\n2,y\n1,x\n3,\n2,y\n3,\n1,X\n")
	orig := tbl.Clone()

	removed := tbl.DeduplicateRows()

	assert.Equal(t, 3, removed)
	require.Equal(t, 4, tbl.NumRows())
	assert.Equal(t, []any{1.0, "x"}, tbl.Row(0))
	assert.Equal(t, []any{2.0, "y"}, tbl.Row(1))
	assert.Equal(t, []any{3.0, nil}, tbl.Row(2))
	assert.Equal(t, []any{1.0, "X"}, tbl.Row(3))

	// no two rows equal
	seen := map[string]bool{}
	for i := 0; i < tbl.NumRows(); i++ {
		k := tbl.rowKey(i)
		assert.False(t, seen[k])
		seen[k] = true
	}

	// survivors keep their original relative order
	j := 0
	for i := 0; i < orig.NumRows() && j < tbl.NumRows(); i++ {
		if orig.rowKey(i) == tbl.rowKey(j) {
			j++
		}
	}
	assert.Equal(t, tbl.NumRows(), j)
}

func TestDeduplicateRows_NegativeZero(t *testing.T) {
	tbl, err := NewTable(NewNumberColumn("n", 0, negZero(), 1))
	require.NoError(t, err)

	assert.Equal(t, 1, tbl.DeduplicateRows())
}

func TestNormalizeColumnTypes(t *testing.T) {
	tbl, err := NewTable(
		NewTextColumn("nums", "1", " 2.5 ", "", "-3e2"),
		NewTextColumn("mixed", "1", "2", "x", "4"),
		NewTextColumn("money", "$1", "2", "3", "4"),
		NewTextColumn("empty", "", "NA", "", ""),
	)
	require.NoError(t, err)

	converted := tbl.NormalizeColumnTypes()

	assert.Equal(t, []string{"nums"}, converted)

	nums, _ := tbl.Column("nums")
	assert.Equal(t, KindNumber, nums.Kind)
	assert.Equal(t, []any{1.0, 2.5, nil, -300.0}, []any{nums.Value(0), nums.Value(1), nums.Value(2), nums.Value(3)})

	mixed, _ := tbl.Column("mixed")
	assert.Equal(t, KindText, mixed.Kind)
	assert.Equal(t, "1", mixed.Cells[0].Text)

	money, _ := tbl.Column("money")
	assert.Equal(t, KindText, money.Kind)

	empty, _ := tbl.Column("empty")
	assert.Equal(t, KindText, empty.Kind)
}

func TestNormalizeColumnName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  First Name ", "first_name"},
		{"AGE", "age"},
		{"zip code 2", "zip_code_2"},
		{"already_ok", "already_ok"},
		{"Ünïcode Name", "ünïcode_name"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeColumnName(tt.in))
		})
	}
}

func TestNormalizeColumnNames(t *testing.T) {
	tbl := mustRead(t, " Full Name ,AGE,city\na,1,b\n")

	renamed := tbl.NormalizeColumnNames()

	assert.Equal(t, []string{" Full Name ", "AGE"}, renamed)
	names := tbl.ColumnNames()
	assert.Equal(t, []string{"full_name", "age", "city"}, names)

	re := regexp.MustCompile(`^[a-z0-9_]+$`)
	for _, n := range names {
		assert.Regexp(t, re, n)
	}
}

func negZero() float64 { return math.Copysign(0, -1) }
