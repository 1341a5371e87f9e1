package core

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultThreshold is the minimum share of present cells a column needs
// to survive DropSparseColumns.
const DefaultThreshold = 0.5

// DropSparseColumns removes every column whose count of present cells is
// below threshold × NumRows. threshold must lie in [0, 1]. It returns the
// names of the removed columns.
func (t *Table) DropSparseColumns(threshold float64) ([]string, error) {
	if err := validateThreshold(threshold); err != nil {
		return nil, err
	}
	limit := threshold * float64(t.rows)
	return t.keepColumns(func(c *Column) bool {
		return float64(c.Len()-c.MissingCount()) >= limit
	}), nil
}

func validateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return &ArgumentError{
			Name:  "threshold",
			Value: strconv.FormatFloat(threshold, 'g', -1, 64),
			Msg:   "must be between 0 and 1",
		}
	}
	return nil
}

// DropIncompleteRows removes every row that has at least one missing cell
// and returns how many rows were removed.
func (t *Table) DropIncompleteRows() int {
	keep := make([]bool, t.rows)
	for i := range keep {
		keep[i] = true
	}
	for _, c := range t.cols {
		for i, cell := range c.Cells {
			if !cell.Valid {
				keep[i] = false
			}
		}
	}
	before := t.rows
	t.keepRows(keep)
	return before - t.rows
}

// DeduplicateRows removes rows equal in every cell to an earlier row.
// The first occurrence is kept and order is preserved. Two missing cells
// compare equal. It returns how many rows were removed.
func (t *Table) DeduplicateRows() int {
	seen := make(map[string]struct{}, t.rows)
	keep := make([]bool, t.rows)
	for i := 0; i < t.rows; i++ {
		k := t.rowKey(i)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keep[i] = true
	}
	before := t.rows
	t.keepRows(keep)
	return before - t.rows
}

// NormalizeColumnTypes converts each text column to a number column when
// every present cell parses as a number. A single unparseable value keeps
// the whole column as text. It returns the names of converted columns.
func (t *Table) NormalizeColumnTypes() []string {
	var converted []string
	for _, c := range t.cols {
		if c.Kind == KindText && toNumber(c) {
			converted = append(converted, c.Name)
		}
	}
	return converted
}

// toNumber converts a text column in place if all present cells are numeric.
// A column with no present cells is left as text.
func toNumber(c *Column) bool {
	if c.Kind != KindText {
		return false
	}
	nums := make([]float64, len(c.Cells))
	present := 0
	for i, cell := range c.Cells {
		if !cell.Valid {
			continue
		}
		v, ok := ParseNumber(cell.Text)
		if !ok {
			return false
		}
		nums[i] = v
		present++
	}
	if present == 0 {
		return false
	}
	for i, cell := range c.Cells {
		if cell.Valid {
			c.Cells[i] = NumberCell(nums[i])
		}
	}
	c.Kind = KindNumber
	return true
}

var lower = cases.Lower(language.Und)

// NormalizeColumnName trims surrounding whitespace, lowercases, and
// replaces spaces with underscores.
func NormalizeColumnName(name string) string {
	name = lower.String(strings.TrimSpace(name))
	return strings.ReplaceAll(name, " ", "_")
}

// NormalizeColumnNames applies NormalizeColumnName to every column and
// returns the names that changed, as they were before renaming.
func (t *Table) NormalizeColumnNames() []string {
	var renamed []string
	for _, c := range t.cols {
		if n := NormalizeColumnName(c.Name); n != c.Name {
			renamed = append(renamed, c.Name)
			c.Name = n
		}
	}
	return renamed
}
