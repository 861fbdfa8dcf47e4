// Package core provides the personnel import engine: column mapping,
// rule compilation, row cleaning and validation, and incremental editing.
//
// # Error Codes Reference
//
// This file maps technical errors to user-facing messages with a code that
// users can quote to support.
//
// # Mapping Errors (MAP001-MAP099)
//
//	MAP001 - Unknown field: A column is mapped to a field that does not exist
//	         Action: Pick a field from the list of available fields
//	         Patterns: "unknown target field"
//
//	MAP002 - Missing rule: A mapped field has no cleaning rule
//	         Action: Contact support, the field catalog is incomplete
//	         Patterns: "missing cleaning rule"
//
//	MAP003 - Unknown hook: A cleaning rule refers to an unknown hook
//	         Action: Contact support, the hook registry is incomplete
//	         Patterns: "unknown hook"
//
//	MAP004 - No headers: The request carried no column headers
//	         Action: Make sure the first row of your file holds column names
//	         Patterns: "no headers"
//
//	MAP005 - Duplicate target: Two columns are mapped to the same field
//	         Action: Map each field from one column only
//	         Patterns: "duplicate target field"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid search: The search text is empty
//	         Action: Enter the text you want to find
//	         Patterns: "invalid search pattern"
//
//	VAL002 - Row out of range: The row does not exist
//	         Action: Refresh the table and try again
//	         Patterns: "row index out of range"
//
//	VAL003 - Request too large: The import exceeds the size limit
//	         Action: Split the file into smaller parts
//	         Patterns: "request body too large"
//
//	VAL004 - Invalid request: The request could not be read
//	         Action: Check the request format and try again
//	         Patterns: "invalid request"
//
//	VAL005 - Unsupported format: The export format is not supported
//	         Action: Choose CSV, XLSX or JSON
//	         Patterns: "unsupported export format"
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Session expired: The import session no longer exists
//	         Action: Upload the file again to start a new session
//	         Patterns: "session not found"
//
//	SES002 - Still validating: Validation has not finished yet
//	         Action: Wait for validation to complete
//	         Patterns: "validation still running"
//
//	SES003 - Nothing to undo
//	         Patterns: "nothing to undo"
//
//	SES004 - Nothing to redo
//	         Patterns: "nothing to redo"
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - System busy: Too many validations in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many concurrent validation runs"
//
//	RUN002 - Cancelled: The validation was cancelled
//	         Action: Start a new import when ready
//	         Patterns: "context canceled"
//
//	RUN003 - Timed out: The request took too long
//	         Action: Try a smaller file or try again later
//	         Patterns: "context deadline exceeded"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//	          Action: Please wait a moment and try again
//	          Patterns: "rate limit exceeded"
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the logs for the technical error.
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage is a user-facing explanation of an error.
type UserMessage struct {
	Message string // what happened
	Action  string // what to do about it
	Code    string // support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is ordered: first match wins.
var errorPatterns = []errorPattern{
	// Mapping
	{
		pattern: "unknown target field",
		msg: UserMessage{
			Message: "A column is mapped to a field that does not exist",
			Action:  "Pick a field from the list of available fields",
			Code:    "MAP001",
		},
	},
	{
		pattern: "missing cleaning rule",
		msg: UserMessage{
			Message: "A mapped field has no cleaning rule",
			Action:  "Contact support, the field catalog is incomplete",
			Code:    "MAP002",
		},
	},
	{
		pattern: "unknown hook",
		msg: UserMessage{
			Message: "A cleaning rule refers to an unknown hook",
			Action:  "Contact support, the hook registry is incomplete",
			Code:    "MAP003",
		},
	},
	{
		pattern: "no headers",
		msg: UserMessage{
			Message: "No column headers were provided",
			Action:  "Make sure the first row of your file holds column names",
			Code:    "MAP004",
		},
	},
	{
		pattern: "duplicate target field",
		msg: UserMessage{
			Message: "Two columns are mapped to the same field",
			Action:  "Map each field from one column only",
			Code:    "MAP005",
		},
	},

	// Validation
	{
		pattern: "invalid search pattern",
		msg: UserMessage{
			Message: "The search text is empty",
			Action:  "Enter the text you want to find",
			Code:    "VAL001",
		},
	},
	{
		pattern: "row index out of range",
		msg: UserMessage{
			Message: "The row does not exist",
			Action:  "Refresh the table and try again",
			Code:    "VAL002",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "The import exceeds the size limit",
			Action:  "Split the file into smaller parts",
			Code:    "VAL003",
		},
	},
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Check the request format and try again",
			Code:    "VAL004",
		},
	},
	{
		pattern: "unsupported export format",
		msg: UserMessage{
			Message: "The export format is not supported",
			Action:  "Choose CSV, XLSX or JSON",
			Code:    "VAL005",
		},
	},

	// Sessions
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "The import session no longer exists",
			Action:  "Upload the file again to start a new session",
			Code:    "SES001",
		},
	},
	{
		pattern: "validation still running",
		msg: UserMessage{
			Message: "Validation has not finished yet",
			Action:  "Wait for validation to complete",
			Code:    "SES002",
		},
	},
	{
		pattern: "nothing to undo",
		msg: UserMessage{
			Message: "There is nothing to undo",
			Action:  "Make an edit first",
			Code:    "SES003",
		},
	},
	{
		pattern: "nothing to redo",
		msg: UserMessage{
			Message: "There is nothing to redo",
			Action:  "Undo an edit first",
			Code:    "SES004",
		},
	},

	// Runs
	{
		pattern: "too many concurrent validation runs",
		msg: UserMessage{
			Message: "Too many validations in progress",
			Action:  "Please wait a moment and try again",
			Code:    "RUN001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The validation was cancelled",
			Action:  "Start a new import when ready",
			Code:    "RUN002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The request took too long",
			Action:  "Try a smaller file or try again later",
			Code:    "RUN003",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit exceeded",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment and try again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user message. nil maps to the
// zero UserMessage and unknown errors to ERR000.
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

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err, or returns nil for a nil err.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
