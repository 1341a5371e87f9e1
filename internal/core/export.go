package core

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Export writes the table to path as comma-delimited text: a header row,
// then one line per row, no index column. Parent directories are created.
func (t *Table) Export(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export %s: %w", path, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}

	bw := bufio.NewWriter(f)
	if err := t.Write(bw); err != nil {
		f.Close()
		return fmt.Errorf("export %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("export %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	return nil
}

// Write serializes the table to w in the same format as Export.
// Missing cells are written as empty fields. A table without columns is
// written as a lone "" header.
func (t *Table) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := writeRecord(cw, w, t.ColumnNames()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < t.rows; i++ {
		if err := writeRecord(cw, w, t.Record(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeRecord writes rec through cw. A record that would render as a bare
// empty line, which readers skip, is written as "" instead.
func writeRecord(cw *csv.Writer, w io.Writer, rec []string) error {
	if len(rec) > 1 || (len(rec) == 1 && rec[0] != "") {
		return cw.Write(rec)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	_, err := io.WriteString(w, `""`+"\n")
	return err
}
