// Package core provides the business logic behind the pricing dashboard.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// # Data Errors (DATA001-DATA099)
//
// Errors raised while loading the pricing file:
//
//	DATA001 - Data file not found: The configured pricing file does not exist
//	          Action: Check DATA_PATH points at the pricing CSV
//	          Patterns: "no such file"
//
//	DATA002 - Empty file: The pricing file has no content
//	          Action: Provide a CSV with a header row and data rows
//	          Patterns: "empty file"
//
//	DATA003 - Missing columns: Required columns are missing from the header
//	          Action: Check the header against the expected column names
//	          Patterns: "missing required columns"
//
//	DATA004 - Invalid value: A price or deviation cell could not be read
//	          Action: Fix the cell named in the log and reload
//	          Patterns: "invalid value"
//
//	DATA005 - Malformed CSV: The file is not valid comma-separated text
//	          Action: Ensure quotes are balanced and the file is comma-separated
//	          Patterns: "parse error"
//
// # Request Errors (VIEW001, TBL001, EXP001-EXP002, REQ001-REQ002)
//
//	VIEW001 - Unknown view: The requested chart does not exist
//	          Patterns: "unknown view"
//
//	TBL001  - Unknown column: A selected column is not part of the table
//	          Patterns: "unknown column"
//
//	EXP001  - Unsupported export format
//	          Patterns: "unsupported export format"
//
//	EXP002  - Export busy: Every export slot stayed occupied
//	          Patterns: "too many concurrent exports"
//
//	REQ001  - Request cancelled
//	          Patterns: "context canceled"
//
//	REQ002  - Request timed out
//	          Patterns: "context deadline exceeded", "timeout"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Rate limited: Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns are listed
// before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// Order matters: the first match wins.
var errorPatterns = []errorPattern{
	// Data load errors.
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "Pricing data file not found",
			Action:  "Check DATA_PATH points at the pricing CSV",
			Code:    "DATA001",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The pricing data file is empty",
			Action:  "Provide a CSV with a header row and data rows",
			Code:    "DATA002",
		},
	},
	{
		pattern: "missing required columns",
		msg: UserMessage{
			Message: "Required columns are missing from the pricing data",
			Action:  "Check the header against the expected column names",
			Code:    "DATA003",
		},
	},
	{
		pattern: "invalid value",
		msg: UserMessage{
			Message: "A price or deviation value could not be read",
			Action:  "Fix the cell named in the server log and restart",
			Code:    "DATA004",
		},
	},
	{
		pattern: "parse error",
		msg: UserMessage{
			Message: "The pricing data is not valid CSV",
			Action:  "Ensure quotes are balanced and the file is comma-separated",
			Code:    "DATA005",
		},
	},

	// Request errors.
	{
		pattern: "unknown view",
		msg: UserMessage{
			Message: "Unknown chart",
			Action:  "Pick one of the dashboard tabs",
			Code:    "VIEW001",
		},
	},
	{
		pattern: "unknown column",
		msg: UserMessage{
			Message: "Unknown column selected",
			Action:  "Select columns from the table header",
			Code:    "TBL001",
		},
	},
	{
		pattern: "unsupported export format",
		msg: UserMessage{
			Message: "Export format not supported",
			Action:  "Export as csv or xlsx",
			Code:    "EXP001",
		},
	},
	{
		pattern: "too many concurrent exports",
		msg: UserMessage{
			Message: "The server is busy with other exports",
			Action:  "Wait a few seconds and download again",
			Code:    "EXP002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Narrow the filters or try again",
			Code:    "REQ002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Narrow the filters or try again",
			Code:    "REQ002",
		},
	},

	// Rate limiting.
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It returns the first matching pattern, or ERR000 when nothing matches.
//
// Example:
//
//	msg := MapError(fmt.Errorf("load data.csv: %w", dataset.ErrEmptyFile))
//	// msg.Code == "DATA002"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
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

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
