package core

// ColumnProfile summarizes one column.
type ColumnProfile struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	NonMissing int    `json:"non_missing"`
	Missing    int    `json:"missing"`
}

// Profile summarizes a table's shape and per-column completeness.
type Profile struct {
	Rows    int             `json:"rows"`
	Cols    int             `json:"cols"`
	Missing int             `json:"missing"`
	Columns []ColumnProfile `json:"columns"`
}

// Profile reports row and column counts plus each column's kind and
// missing-cell count.
func (t *Table) Profile() Profile {
	p := Profile{Rows: t.rows, Cols: len(t.cols), Columns: make([]ColumnProfile, len(t.cols))}
	for i, c := range t.cols {
		m := c.MissingCount()
		p.Columns[i] = ColumnProfile{
			Name:       c.Name,
			Kind:       c.Kind.String(),
			NonMissing: c.Len() - m,
			Missing:    m,
		}
		p.Missing += m
	}
	return p
}
