package core

import (
	"sort"
	"strings"
)

// FillMethod selects the statistic FillMissing uses.
type FillMethod string

const (
	FillMean   FillMethod = "mean"
	FillMedian FillMethod = "median"
	FillMode   FillMethod = "mode"
)

// FillMethods lists the accepted methods in display order.
var FillMethods = []FillMethod{FillMean, FillMedian, FillMode}

// fillAliases maps alternative spellings to methods.
var fillAliases = map[string]FillMethod{
	"mean":    FillMean,
	"median":  FillMedian,
	"mode":    FillMode,
	"media":   FillMean,
	"mediana": FillMedian,
	"moda":    FillMode,
}

// ParseFillMethod resolves a method name, case-insensitively.
// "media", "mediana" and "moda" are accepted as aliases.
func ParseFillMethod(s string) (FillMethod, error) {
	if m, ok := fillAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return "", invalidMethod(s)
}

// Validate reports whether m is one of FillMethods.
func (m FillMethod) Validate() error {
	switch m {
	case FillMean, FillMedian, FillMode:
		return nil
	}
	return invalidMethod(string(m))
}

func invalidMethod(s string) error {
	allowed := make([]string, len(FillMethods))
	for i, m := range FillMethods {
		allowed[i] = string(m)
	}
	return &ArgumentError{Name: "method", Value: s, Allowed: allowed}
}

// FillMissing replaces missing cells column by column.
//
// mean and median only touch number columns. mode fills any column with its
// most frequent present value, ties going to the value seen first. Columns
// with no present value stay entirely missing. It returns the names of the
// columns that were filled. An invalid method fails before any change.
func (t *Table) FillMissing(method FillMethod) ([]string, error) {
	if err := method.Validate(); err != nil {
		return nil, err
	}

	var filled []string
	for _, c := range t.cols {
		missing := c.MissingCount()
		if missing == 0 || missing == c.Len() {
			continue
		}

		var v Cell
		switch method {
		case FillMean:
			if c.Kind != KindNumber {
				continue
			}
			v = NumberCell(mean(c.present()))
		case FillMedian:
			if c.Kind != KindNumber {
				continue
			}
			v = NumberCell(median(c.present()))
		case FillMode:
			v = c.mode()
		}

		for i := range c.Cells {
			if !c.Cells[i].Valid {
				c.Cells[i] = v
			}
		}
		filled = append(filled, c.Name)
	}
	return filled, nil
}

// present returns the numeric values of the present cells.
func (c *Column) present() []float64 {
	out := make([]float64, 0, len(c.Cells))
	for _, cell := range c.Cells {
		if cell.Valid {
			out = append(out, cell.Num)
		}
	}
	return out
}

// mean is computed incrementally so large values do not overflow.
func mean(xs []float64) float64 {
	var m float64
	for i, x := range xs {
		m += (x - m) / float64(i+1)
	}
	return m
}

func median(xs []float64) float64 {
	s := make([]float64, len(xs))
	copy(s, xs)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return s[n/2-1]/2 + s[n/2]/2
}

// mode returns the most frequent present cell, the earliest one on ties.
func (c *Column) mode() Cell {
	counts := make(map[string]int)
	first := make(map[string]int)
	var order []string
	for i, cell := range c.Cells {
		if !cell.Valid {
			continue
		}
		k := c.key(i)
		if _, ok := first[k]; !ok {
			first[k] = i
			order = append(order, k)
		}
		counts[k]++
	}

	best := order[0]
	for _, k := range order[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return c.Cells[first[best]]
}
