package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/JonMunkholm/csvclean/internal/core"
	"github.com/JonMunkholm/csvclean/internal/sink"
)

// maxFailuresShown caps the per-row failure table.
const maxFailuresShown = 20

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func rightAlign(cols ...int) []table.ColumnConfig {
	cfgs := make([]table.ColumnConfig, len(cols))
	for i, n := range cols {
		cfgs[i] = table.ColumnConfig{Number: n, Align: text.AlignRight, AlignFooter: text.AlignRight}
	}
	return cfgs
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderReport prints one line per pipeline step and a totals footer.
func renderReport(w io.Writer, r *core.Report) {
	t := newTable(w)
	t.SetTitle("run " + r.RunID)
	t.AppendHeader(table.Row{"Step", "Rows", "Cols", "Columns", "Time"})
	for _, s := range r.Steps {
		t.AppendRow(table.Row{
			s.Name,
			change(s.RowsBefore, s.RowsAfter),
			change(s.ColsBefore, s.ColsAfter),
			strings.Join(s.Columns, ", "),
			s.Duration.Round(time.Microsecond),
		})
	}
	t.AppendFooter(table.Row{
		"total",
		change(r.RowsIn, r.RowsOut),
		change(r.ColsIn, r.ColsOut),
		fmt.Sprintf("missing %s", change(r.MissingIn, r.Missing)),
		r.Duration.Round(time.Microsecond),
	})
	t.SetColumnConfigs(rightAlign(2, 3, 5))
	t.Render()
}

func change(before, after int) string {
	if before == after {
		return fmt.Sprint(after)
	}
	return fmt.Sprintf("%d -> %d", before, after)
}

// renderProfile prints the column profile with a summary footer.
func renderProfile(w io.Writer, p core.Profile) {
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Column", "Kind", "Non-missing", "Missing", "Missing %"})
	for i, c := range p.Columns {
		t.AppendRow(table.Row{i + 1, c.Name, c.Kind, c.NonMissing, c.Missing, percent(c.Missing, p.Rows)})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d rows", p.Rows), fmt.Sprintf("%d cols", p.Cols), "", p.Missing, ""})
	t.SetColumnConfigs(rightAlign(1, 4, 5, 6))
	t.Render()
}

func percent(n, total int) string {
	if total == 0 {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", 100*float64(n)/float64(total))
}

// renderSinkResults prints one row per sink, then the first failures.
func renderSinkResults(w io.Writer, results []*sink.Result) {
	if len(results) == 0 {
		return
	}

	t := newTable(w)
	t.SetTitle("sinks")
	t.AppendHeader(table.Row{"Sink", "Attempted", "Written", "Failed", "Time"})
	var failures []table.Row
	for _, r := range results {
		t.AppendRow(table.Row{r.Sink, r.Attempted, r.Written, r.Failed(), r.Duration.Round(time.Millisecond)})
		for _, f := range r.Failures {
			failures = append(failures, table.Row{r.Sink, f.Row, statusText(f.Status), errText(f)})
		}
	}
	t.SetColumnConfigs(rightAlign(2, 3, 4, 5))
	t.Render()

	if len(failures) == 0 {
		return
	}
	ft := newTable(w)
	ft.SetTitle("failed rows")
	ft.AppendHeader(table.Row{"Sink", "Row", "Status", "Error"})
	shown := failures
	if len(shown) > maxFailuresShown {
		shown = shown[:maxFailuresShown]
	}
	ft.AppendRows(shown)
	if len(failures) > len(shown) {
		ft.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d more not shown", len(failures)-len(shown))})
	}
	ft.SetColumnConfigs([]table.ColumnConfig{{Number: 4, WidthMax: 80}})
	ft.Render()
}

func statusText(status int) string {
	if status == 0 {
		return "-"
	}
	return fmt.Sprint(status)
}

func errText(f sink.RowFailure) string {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	if f.Body != "" {
		msg += ": " + strings.TrimSpace(f.Body)
	}
	return msg
}

// renderSinks lists registered sinks and whether cfg enables them.
func renderSinks(w io.Writer, defs []sink.Definition, enabled func(sink.Definition) bool) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Name", "Enabled", "Description"})
	for _, d := range defs {
		t.AppendRow(table.Row{d.Name, enabled(d), d.Description})
	}
	t.Render()
}
