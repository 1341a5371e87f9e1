package core

// convert.go holds the text <-> value rules shared by loading, type
// normalization and export:
//   - which raw strings count as missing cells
//   - which raw strings count as numbers
//   - how numbers are written back out
//
// Export must be able to re-read what it writes, so FormatNumber only
// produces strings ParseNumber accepts.

import (
	"regexp"
	"strconv"
	"strings"
)

// numericRegex matches integers, decimals and scientific notation.
// Currency symbols, thousands separators and inf/nan spellings are rejected.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// missingMarkers are the raw values read as missing cells.
var missingMarkers = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsMissingMarker reports whether a raw field denotes a missing cell.
func IsMissingMarker(s string) bool {
	_, ok := missingMarkers[s]
	return ok
}

// ParseNumber parses a raw field as a number. Surrounding whitespace is ignored.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !numericRegex.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// out of float64 range
		return 0, false
	}
	return v, true
}

// FormatNumber writes v using the shortest decimal form that parses back to v.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
