package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned (wrapped) by the load and cleaning operations.
// Match them with errors.Is.
var (
	ErrFileNotFound    = errors.New("file not found")
	ErrParse           = errors.New("invalid csv")
	ErrInvalidArgument = errors.New("invalid argument")
)

// ParseError reports a malformed delimited file.
// Line is 1-indexed and counts the header row.
type ParseError struct {
	Line int
	Got  int // fields found on the line
	Want int // fields in the header
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Msg != "" {
		if e.Line > 0 {
			return fmt.Sprintf("invalid csv: line %d: %s", e.Line, e.Msg)
		}
		return "invalid csv: " + e.Msg
	}
	return fmt.Sprintf("invalid csv: line %d: row has %d fields, header has %d", e.Line, e.Got, e.Want)
}

// Is lets errors.Is(err, ErrParse) match any *ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// ArgumentError reports an operation argument outside its allowed domain.
type ArgumentError struct {
	Name    string   // argument name, e.g. "method"
	Value   string   // offending value as given
	Allowed []string // allowed values, when the domain is a fixed set
	Msg     string   // used instead of Allowed for range-style domains
}

func (e *ArgumentError) Error() string {
	if len(e.Allowed) > 0 {
		return fmt.Sprintf("invalid %s %q: must be one of {%s}", e.Name, e.Value, strings.Join(e.Allowed, ", "))
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Name, e.Value, e.Msg)
}

// Is lets errors.Is(err, ErrInvalidArgument) match any *ArgumentError.
func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}
