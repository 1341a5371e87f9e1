package core

// error_messages.go maps technical errors to user-facing messages with
// support codes. Users quote the code; support looks it up here.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File not found: The input file does not exist
//	          Matches: ErrFileNotFound
//	FILE002 - Invalid CSV: Rows do not match the header
//	          Matches: ErrParse, "invalid csv"
//	FILE003 - Encoding error: File contains invalid characters
//	          Patterns: "encoding error"
//	FILE004 - File too large: File exceeds maximum size limit (100MB)
//	          Patterns: "file too large"
//	FILE005 - Empty file: No CSV data was provided
//	          Patterns: "empty file", "no file provided"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid fill method
//	         Matches: *ArgumentError with Name "method"
//	VAL002 - Invalid threshold
//	         Matches: *ArgumentError with Name "threshold"
//
// # Database Sink Errors (DB001-DB099)
//
//	DB001 - Connection refused: Unable to connect to database
//	DB002 - Authentication failed: Database rejected the credentials
//	DB003 - Unknown database: The target database does not exist
//	DB004 - Permission denied: Not allowed to create or write the table
//
// # HTTP Sink Errors (HTTP001-HTTP099)
//
// Scoped to errors whose text contains "http sink".
//
//	HTTP001 - Endpoint unreachable
//	HTTP002 - Endpoint timeout
//	HTTP003 - Unexpected status: Endpoint did not answer 201 Created
//
// # Request Errors (UPL001-UPL099)
//
//	UPL001 - Request cancelled (context.Canceled)
//	UPL002 - Request timeout (context.DeadlineExceeded)
//	UPL003 - System busy: Too many cleaning requests in progress
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the logs for the technical error.
//
// Typed errors are matched first with errors.Is/errors.As. Everything else
// falls through to case-insensitive substring patterns where the first
// match wins, so specific patterns go before general ones.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

var (
	msgFileNotFound = UserMessage{
		Message: "The input file does not exist",
		Action:  "Check the path and try again",
		Code:    "FILE001",
	}
	msgInvalidCSV = UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Ensure every row has the same number of fields as the header",
		Code:    "FILE002",
	}
	msgInvalidMethod = UserMessage{
		Message: "Unknown fill method",
		Action:  "Use one of: mean, median, mode",
		Code:    "VAL001",
	}
	msgInvalidThreshold = UserMessage{
		Message: "Threshold is out of range",
		Action:  "Use a threshold between 0 and 1",
		Code:    "VAL002",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL001",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL002",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
// When scope is set, the error text must contain it too.
type errorPattern struct {
	scope   string
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// HTTP sink (HTTP001-HTTP003)
	{
		scope:   "http sink",
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the HTTP endpoint",
			Action:  "Check the endpoint URL and that the service is running",
			Code:    "HTTP001",
		},
	},
	{
		scope:   "http sink",
		pattern: "no such host",
		msg: UserMessage{
			Message: "Unable to reach the HTTP endpoint",
			Action:  "Check the endpoint URL and that the service is running",
			Code:    "HTTP001",
		},
	},
	{
		scope:   "http sink",
		pattern: "timeout",
		msg: UserMessage{
			Message: "The HTTP endpoint did not respond in time",
			Action:  "Increase http.timeout or try again later",
			Code:    "HTTP002",
		},
	},
	{
		scope:   "http sink",
		pattern: "unexpected status",
		msg: UserMessage{
			Message: "The HTTP endpoint rejected some rows",
			Action:  "Review the logged response bodies",
			Code:    "HTTP003",
		},
	},

	// Database sink (DB001-DB004)
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "password authentication failed",
		msg: UserMessage{
			Message: "Database rejected the credentials",
			Action:  "Check database.user and database.password",
			Code:    "DB002",
		},
	},
	{
		pattern: "does not exist",
		msg: UserMessage{
			Message: "The target database does not exist",
			Action:  "Create the database or fix database.name",
			Code:    "DB003",
		},
	},
	{
		pattern: "permission denied",
		msg: UserMessage{
			Message: "Not allowed to create or write the table",
			Action:  "Grant CREATE and INSERT to the database user",
			Code:    "DB004",
		},
	},

	// File (FILE002-FILE005)
	{
		pattern: "invalid csv",
		msg:     msgInvalidCSV,
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save file as UTF-8 encoding",
			Code:    "FILE003",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit (100MB)",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "No CSV data was provided",
			Action:  "Provide a CSV file with a header row",
			Code:    "FILE005",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No CSV data was provided",
			Action:  "Provide a CSV file with a header row",
			Code:    "FILE005",
		},
	},

	// Requests (UPL003)
	{
		pattern: "too many concurrent",
		msg: UserMessage{
			Message: "System is busy processing other files",
			Action:  "Please wait a moment and try again",
			Code:    "UPL003",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	_, err := core.Load("missing.csv")
//	msg := MapError(err)
//	// msg.Code == "FILE001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var argErr *ArgumentError
	switch {
	case errors.Is(err, ErrFileNotFound):
		return msgFileNotFound
	case errors.Is(err, ErrParse):
		return msgInvalidCSV
	case errors.As(err, &argErr) && argErr.Name == "method":
		return msgInvalidMethod
	case errors.As(err, &argErr) && argErr.Name == "threshold":
		return msgInvalidThreshold
	case errors.Is(err, context.Canceled):
		return msgCancelled
	case errors.Is(err, context.DeadlineExceeded):
		// http.Client wraps its own timeouts in DeadlineExceeded
		if !strings.Contains(strings.ToLower(err.Error()), "http sink") {
			return msgTimeout
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if ep.scope != "" && !strings.Contains(errStr, ep.scope) {
			continue
		}
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
