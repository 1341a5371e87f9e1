package core

import (
	"fmt"
	"math"
	"strconv"
)

// Kind is the column-wide type of a Column's cells.
type Kind int

const (
	KindText Kind = iota
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Cell is a single table value. A cell with Valid == false is missing,
// which is distinct from zero and from the empty string.
type Cell struct {
	Num   float64 // set when the owning column is KindNumber
	Text  string  // set when the owning column is KindText
	Valid bool
}

// NumberCell returns a present numeric cell.
func NumberCell(v float64) Cell { return Cell{Num: v, Valid: true} }

// TextCell returns a present text cell.
func TextCell(s string) Cell { return Cell{Text: s, Valid: true} }

// MissingCell returns the missing marker.
func MissingCell() Cell { return Cell{} }

// Column is a named, typed vector of cells.
type Column struct {
	Name  string
	Kind  Kind
	Cells []Cell
}

// NewTextColumn builds a text column. Values matching a missing marker
// (see IsMissingMarker) become missing cells.
func NewTextColumn(name string, values ...string) *Column {
	c := &Column{Name: name, Kind: KindText, Cells: make([]Cell, len(values))}
	for i, v := range values {
		if !IsMissingMarker(v) {
			c.Cells[i] = TextCell(v)
		}
	}
	return c
}

// NewNumberColumn builds a number column. NaN values become missing cells.
func NewNumberColumn(name string, values ...float64) *Column {
	c := &Column{Name: name, Kind: KindNumber, Cells: make([]Cell, len(values))}
	for i, v := range values {
		if !math.IsNaN(v) {
			c.Cells[i] = NumberCell(v)
		}
	}
	return c
}

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.Cells) }

// MissingCount returns how many cells are missing.
func (c *Column) MissingCount() int {
	n := 0
	for _, cell := range c.Cells {
		if !cell.Valid {
			n++
		}
	}
	return n
}

// Format renders cell i the way Export writes it. Missing cells render empty.
func (c *Column) Format(i int) string {
	cell := c.Cells[i]
	if !cell.Valid {
		return ""
	}
	if c.Kind == KindNumber {
		return FormatNumber(cell.Num)
	}
	return cell.Text
}

// Value returns cell i as a Go value: float64, string, or nil when missing.
func (c *Column) Value(i int) any {
	cell := c.Cells[i]
	if !cell.Valid {
		return nil
	}
	if c.Kind == KindNumber {
		return cell.Num
	}
	return cell.Text
}

// key returns a comparable representation of cell i, used for equality
// in deduplication and frequency counting.
func (c *Column) key(i int) string {
	cell := c.Cells[i]
	switch {
	case !cell.Valid:
		return "\x00"
	case c.Kind == KindNumber:
		v := cell.Num
		if v == 0 {
			v = 0 // fold -0 into 0
		}
		return "n" + strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return "t" + cell.Text
	}
}

func (c *Column) clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, Cells: make([]Cell, len(c.Cells))}
	copy(out.Cells, c.Cells)
	return out
}

// Table is an ordered set of equally long columns.
// A Table has a single owner; it is not safe for concurrent use.
type Table struct {
	cols []*Column
	rows int
}

// NewTable assembles a table from columns. All columns must have the same length.
func NewTable(cols ...*Column) (*Table, error) {
	t := &Table{}
	for i, c := range cols {
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("column %q has %d cells, want %d", c.Name, c.Len(), t.rows)
		}
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns the table's columns in order. The slice must not be modified.
func (t *Table) Columns() []*Column { return t.cols }

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Column returns the first column named name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.cols {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Row returns row i as Go values (float64, string or nil), in column order.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.cols))
	for j, c := range t.cols {
		row[j] = c.Value(i)
	}
	return row
}

// Record returns row i formatted as export strings.
func (t *Table) Record(i int) []string {
	rec := make([]string, len(t.cols))
	for j, c := range t.cols {
		rec[j] = c.Format(i)
	}
	return rec
}

// MissingCount returns the number of missing cells in the whole table.
func (t *Table) MissingCount() int {
	n := 0
	for _, c := range t.cols {
		n += c.MissingCount()
	}
	return n
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := &Table{rows: t.rows, cols: make([]*Column, len(t.cols))}
	for i, c := range t.cols {
		out.cols[i] = c.clone()
	}
	return out
}

// Equal reports whether both tables have the same column names, kinds and cells.
func (t *Table) Equal(o *Table) bool {
	if t.rows != o.rows || len(t.cols) != len(o.cols) {
		return false
	}
	for j, c := range t.cols {
		oc := o.cols[j]
		if c.Name != oc.Name || c.Kind != oc.Kind {
			return false
		}
		for i := 0; i < t.rows; i++ {
			if c.key(i) != oc.key(i) {
				return false
			}
		}
	}
	return true
}

// rowKey joins the cell keys of row i.
func (t *Table) rowKey(i int) string {
	var b []byte
	for j, c := range t.cols {
		if j > 0 {
			b = append(b, 0x1f)
		}
		b = append(b, c.key(i)...)
	}
	return string(b)
}

// keepRows retains rows where keep[i] is true, preserving order.
func (t *Table) keepRows(keep []bool) {
	n := 0
	for _, k := range keep {
		if k {
			n++
		}
	}
	if n == t.rows {
		return
	}
	for _, c := range t.cols {
		cells := make([]Cell, 0, n)
		for i, cell := range c.Cells {
			if keep[i] {
				cells = append(cells, cell)
			}
		}
		c.Cells = cells
	}
	t.rows = n
}

// keepColumns retains columns where keep(c) is true and returns the names removed.
// A table left without columns has no rows either.
func (t *Table) keepColumns(keep func(*Column) bool) []string {
	var dropped []string
	kept := t.cols[:0]
	for _, c := range t.cols {
		if keep(c) {
			kept = append(kept, c)
		} else {
			dropped = append(dropped, c.Name)
		}
	}
	for i := len(kept); i < len(t.cols); i++ {
		t.cols[i] = nil
	}
	t.cols = kept
	if len(kept) == 0 {
		t.rows = 0
	}
	return dropped
}
