// Package core provides the business logic for the sensor inventory UI.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// Codes are attached to every error notification so users can quote them.
//
// # Data Service Errors (SVC001-SVC099)
//
//	SVC001 - Connection refused: Unable to reach the data service
//	         Patterns: "connection refused"
//
//	SVC002 - Connection reset: Connection to the data service was interrupted
//	         Patterns: "connection reset"
//
//	SVC003 - Sensor not found: The sensor no longer exists
//	         Patterns: "sensor not found"
//
//	SVC004 - Service unavailable: The data service reported a failure
//	         Patterns: "service unavailable", "status 503", "(status 5"
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: A record with this ID already exists
//	        Patterns: "duplicate key"
//
//	DB002 - Foreign key: Referenced base station does not exist
//	        Patterns: "violates foreign key"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid page size: Page size is not one of the offered sizes
//	         Patterns: "invalid page size"
//
//	VAL002 - Required field: A required field is empty
//	         Patterns: "required field"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - No file: No file was selected
//	          Patterns: "no file provided"
//
//	FILE002 - Empty file: The uploaded file is empty
//	          Patterns: "empty file"
//
//	FILE003 - Missing column: Required column is missing from CSV
//	          Patterns: "missing required column"
//
//	FILE004 - Invalid CSV: File is not a valid CSV
//	          Patterns: "invalid csv"
//
//	FILE005 - File too large: File exceeds the upload size limit
//	          Patterns: "file too large", "request body too large"
//
// # Operation Errors (OPS001-OPS099)
//
//	OPS001 - Operation pending: Another bulk operation is still running
//	         Patterns: "operation pending"
//
//	OPS002 - System busy: Too many imports in progress
//	         Patterns: "too many concurrent imports"
//
//	OPS003 - Request cancelled: Request was cancelled
//	         Patterns: "context canceled"
//
//	OPS004 - Request timeout: Request timed out
//	         Patterns: "context deadline exceeded", "timeout"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Rate limited: Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Check application logs for the
// original technical error.
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins, so specific patterns come before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Data Service Errors (SVC001-SVC004)
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the data service",
			Action:  "Please try again in a few moments",
			Code:    "SVC001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Connection to the data service was interrupted",
			Action:  "Please try again",
			Code:    "SVC002",
		},
	},
	{
		pattern: "sensor not found",
		msg: UserMessage{
			Message: "The sensor no longer exists",
			Action:  "Refresh the table to see current data",
			Code:    "SVC003",
		},
	},
	{
		pattern: "service unavailable",
		msg: UserMessage{
			Message: "The data service reported a failure",
			Action:  "Please try again later",
			Code:    "SVC004",
		},
	},
	{
		pattern: "status 503",
		msg: UserMessage{
			Message: "The data service reported a failure",
			Action:  "Please try again later",
			Code:    "SVC004",
		},
	},
	{
		// Any other 5xx carried by a ServiceError.
		pattern: "(status 5",
		msg: UserMessage{
			Message: "The data service reported a failure",
			Action:  "Please try again later",
			Code:    "SVC004",
		},
	},

	// =========================================================================
	// Database Errors (DB001-DB002)
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Check for duplicate entries in your CSV",
			Code:    "DB001",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "Referenced base station does not exist",
			Action:  "Generate or import base stations first",
			Code:    "DB002",
		},
	},

	// =========================================================================
	// Validation Errors (VAL001-VAL002)
	// =========================================================================
	{
		pattern: "invalid page size",
		msg: UserMessage{
			Message: "Page size is not one of the offered sizes",
			Action:  "Pick a page size from the list",
			Code:    "VAL001",
		},
	},
	{
		pattern: "required field",
		msg: UserMessage{
			Message: "A required field is empty",
			Action:  "Ensure every row has a Model value",
			Code:    "VAL002",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE005)
	// =========================================================================
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "FILE001",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a CSV file with a header and data rows",
			Code:    "FILE002",
		},
	},
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "Required column is missing from CSV",
			Action:  "The header must contain Model and Status",
			Code:    "FILE003",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure file is comma-separated with consistent quoting",
			Code:    "FILE004",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the upload size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE005",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the upload size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE005",
		},
	},

	// =========================================================================
	// Operation Errors (OPS001-OPS004)
	// =========================================================================
	{
		pattern: "operation pending",
		msg: UserMessage{
			Message: "Another operation is still running",
			Action:  "Wait for it to finish before starting another",
			Code:    "OPS001",
		},
	},
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "Too many imports in progress",
			Action:  "Please wait a moment and try again",
			Code:    "OPS002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "OPS003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "OPS004",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "OPS004",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
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
// Returns an empty UserMessage for a nil error.
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
// generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging.
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
