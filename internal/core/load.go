package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"unicode/utf8"
)

// MaxFileSize is the largest input Read accepts (100MB).
var MaxFileSize int64 = 100 * 1024 * 1024

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load reads a delimited file with a header row into a Table.
// A path that does not resolve yields an error matching ErrFileNotFound.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", path, ErrFileNotFound)
		}
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return t, nil
}

// Read parses comma-delimited UTF-8 text with a header row.
//
// A leading BOM is dropped and invalid UTF-8 bytes are replaced with U+FFFD.
// Every row must have exactly as many fields as the header; otherwise a
// *ParseError naming the line is returned. Blank lines are skipped.
func Read(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, fmt.Errorf("file too large: exceeds %dMB limit", MaxFileSize/(1024*1024))
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	data = sanitizeUTF8(data)

	records, err := parseCSV(data)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &ParseError{Msg: "empty file: no header row"}
	}
	// A lone "" header with no rows is how Write stores a table without columns.
	if len(records) == 1 && len(records[0]) == 1 && records[0][0] == "" {
		return &Table{}, nil
	}

	return fromRecords(records[0], records[1:]), nil
}

// parseCSV splits data into records, converting field-count mismatches
// into *ParseError.
func parseCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = 0 // every record must match the header
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				if errors.Is(perr.Err, csv.ErrFieldCount) && len(records) > 0 {
					return nil, &ParseError{Line: perr.Line, Got: len(rec), Want: len(records[0])}
				}
				return nil, &ParseError{Line: perr.Line, Msg: perr.Err.Error()}
			}
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		records = append(records, rec)
	}
}

// fromRecords builds typed columns: a column whose present values all
// parse as numbers becomes KindNumber, anything else stays KindText.
func fromRecords(header []string, rows [][]string) *Table {
	names := uniqueNames(header)
	t := &Table{rows: len(rows), cols: make([]*Column, len(names))}

	for j, name := range names {
		values := make([]string, len(rows))
		for i, row := range rows {
			values[i] = row[j]
		}
		col := NewTextColumn(name, values...)
		toNumber(col)
		t.cols[j] = col
	}
	return t
}

// uniqueNames suffixes repeated header names with ".1", ".2", ...
func uniqueNames(header []string) []string {
	used := make(map[string]bool, len(header))
	next := make(map[string]int)
	out := make([]string, len(header))
	for i, h := range header {
		name := h
		if used[name] {
			for n := max(next[h], 1); ; n++ {
				candidate := h + "." + strconv.Itoa(n)
				if !used[candidate] {
					name = candidate
					next[h] = n + 1
					break
				}
			}
		}
		used[name] = true
		out[i] = name
	}
	return out
}

// sanitizeUTF8 replaces invalid UTF-8 bytes with the replacement character.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune(utf8.RuneError)
		} else {
			buf.WriteRune(r)
		}
		data = data[size:]
	}

	return buf.Bytes()
}
