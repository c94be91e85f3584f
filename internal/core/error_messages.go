package core

// error_messages.go maps technical errors to user-friendly messages with
// codes for support reference.
//
// # Mapping Errors (CFG001-CFG099)
//
//	CFG001 - No columns could be mapped to the record type
//	CFG002 - Two fields claim the same column
//	CFG003 - A header matches more than one field
//	CFG004 - A field has an unsupported type
//	CFG005 - Any other mapping problem (unknown field, bad tag, empty header)
//
// # Conversion Errors (CNV001-CNV099)
//
//	CNV001 - A cell is not a valid value for its field
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File exceeds the maximum size
//	FILE002 - Malformed CSV (for example an unterminated quote)
//	FILE003 - Empty file
//
// # Import Errors (UPL001-UPL099)
//
//	UPL001 - Too many imports in progress
//	UPL002 - Imports are disabled (no database configured)
//	UPL003 - The record type has no import table
//	UPL004 - Request cancelled
//	UPL005 - Request timed out
//
// # Record Errors (REC001-REC099)
//
//	REC001 - Unknown record type
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key
//	DB002 - Connection refused
//	DB003 - Missing table or column
//
// # Default Error (ERR000)
//
// Sentinel and typed errors are checked first with errors.Is and errors.As.
// Anything else falls back to case-insensitive substring patterns, which is
// how driver errors are recognised. ERR000 means nothing matched; check the
// application logs for the technical error.

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

// errorRule matches an error by predicate or, failing that, by pattern.
type errorRule struct {
	match   func(error) bool
	pattern string
	msg     UserMessage
}

func (r errorRule) matches(err error, lower string) bool {
	if r.match != nil && r.match(err) {
		return true
	}
	return r.pattern != "" && strings.Contains(lower, r.pattern)
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

// Order matters: the first matching rule wins, so the specific mapping
// codes come before the generic CFG005.
var errorRules = []errorRule{
	{
		pattern: "no column mapping found",
		msg: UserMessage{
			Message: "No columns could be mapped to this record type",
			Action:  "Check the header mode, the column headers, or supply an explicit mapping",
			Code:    "CFG001",
		},
	},
	{
		pattern: "already mapped to field",
		msg: UserMessage{
			Message: "Two fields are mapped to the same column",
			Action:  "Give each field its own column in the mapping",
			Code:    "CFG002",
		},
	},
	{
		pattern: "already used by field",
		msg: UserMessage{
			Message: "Two fields are mapped to the same column",
			Action:  "Give each field its own column index",
			Code:    "CFG002",
		},
	},
	{
		pattern: "is ambiguous",
		msg: UserMessage{
			Message: "A column header matches more than one field",
			Action:  "Use exact header comparison or rename the fields' headers",
			Code:    "CFG003",
		},
	},
	{
		match:   is(ErrUnsupported),
		pattern: "unsupported field type",
		msg: UserMessage{
			Message: "A field has a type that cannot be read from CSV",
			Action:  "Change the field type or exclude it with csv:\"-\"",
			Code:    "CFG004",
		},
	},
	{
		match: is(ErrConfiguration),
		msg: UserMessage{
			Message: "The column mapping is invalid",
			Action:  "Review the mapping and the column headers",
			Code:    "CFG005",
		},
	},
	{
		match: func(err error) bool {
			var ce *ConversionError
			return errors.As(err, &ce)
		},
		msg: UserMessage{
			Message: "A value could not be read",
			Action:  "Fix the value in the reported row and column, or use the skip error policy",
			Code:    "CNV001",
		},
	},
	{
		match:   is(ErrFileTooLarge),
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		match: func(err error) bool {
			var se *SyntaxError
			return errors.As(err, &se)
		},
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Check quoting and the delimiter setting",
			Code:    "FILE002",
		},
	},
	{
		match:   is(ErrEmptyInput),
		pattern: "empty file",
		msg: UserMessage{
			Message: "The file is empty",
			Action:  "Please upload a CSV file with data rows",
			Code:    "FILE003",
		},
	},
	{
		match:   is(ErrTooManyImports),
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "Too many imports in progress",
			Action:  "Please wait a moment and try again",
			Code:    "UPL001",
		},
	},
	{
		match: is(ErrImportDisabled),
		msg: UserMessage{
			Message: "Imports are not available",
			Action:  "Configure DATABASE_URL to enable imports",
			Code:    "UPL002",
		},
	},
	{
		match: is(ErrImportUnsupported),
		msg: UserMessage{
			Message: "This record type cannot be imported",
			Action:  "Use parse to read the file instead",
			Code:    "UPL003",
		},
	},
	{
		match:   is(context.Canceled),
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		match:   is(context.DeadlineExceeded),
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},
	{
		match:   is(ErrUnknownRecord),
		pattern: "unknown record",
		msg: UserMessage{
			Message: "Unknown record type",
			Action:  "List the available record types and check the key",
			Code:    "REC001",
		},
	},
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Remove duplicates from the file or clear the table first",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB002",
		},
	},
	{
		pattern: "does not exist",
		msg: UserMessage{
			Message: "The import table or one of its columns does not exist",
			Action:  "Check the database schema against the record's columns",
			Code:    "DB003",
		},
	},
}

// defaultMessage is returned when no rule matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns the zero UserMessage for a nil error and ERR000 when nothing matches.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	lower := strings.ToLower(err.Error())
	for _, rule := range errorRules {
		if rule.matches(err, lower) {
			return rule.msg
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

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
