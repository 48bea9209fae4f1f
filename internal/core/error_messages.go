package core

// error_messages.go maps engine errors to user-facing messages with codes
// that can be quoted to support.
//
// # Issue Errors (DQ001-DQ099)
//
//	DQ001 - Issue not found: The issue does not exist or was re-detected under a new id
//	        Patterns: "issue not found"
//	DQ002 - Invalid request: Override or status value is not allowed
//	        Patterns: "invalid input"
//	DQ003 - System busy: Too many analyses running
//	        Patterns: "too many concurrent analysis jobs"
//
// # Table Errors (TBL001-TBL099)
//
//	TBL001 - Table not found
//	         Patterns: "table not found"
//	TBL002 - Table has no columns
//	         Patterns: "no columns"
//
// # Scoring Config Errors (CFG001-CFG099)
//
//	CFG001 - Invalid scoring config: A threshold, boost or decay value is out of range
//	         Patterns: "invalid scoring config"
//
// # Remediation Errors (REM001-REM099)
//
//	REM001 - Option not offered for this issue
//	         Patterns: "invalid remediation option"
//	REM002 - Remediation method not supported
//	         Patterns: "unsupported remediation method"
//
// # Ingestion Errors (ING001-ING099)
//
//	ING001 - Could not read the data     Patterns: "parse failure"
//	ING002 - File too large              Patterns: "file too large"
//	ING003 - Empty file                  Patterns: "empty file"
//	ING004 - No file                     Patterns: "no file provided"
//	ING005 - Encoding error              Patterns: "encoding error"
//
// # Storage Errors (STO001-STO099)
//
//	STO001 - Connection refused          Patterns: "connection refused"
//	STO002 - Database busy               Patterns: "deadlock", "database is locked"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled           Patterns: "context canceled"
//	REQ002 - Request timeout             Patterns: "context deadline exceeded"
//
// ERR000 is the fallback when nothing matches; check the logs for the
// technical error. Patterns are lowercase and matched with strings.Contains,
// first match wins.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is ordered specific before general.
var errorPatterns = []errorPattern{
	// Issues
	{
		pattern: "issue not found",
		msg: UserMessage{
			Message: "Issue not found",
			Action:  "Re-run analysis and pick the issue from the refreshed list",
			Code:    "DQ001",
		},
	},
	{
		pattern: "invalid input",
		msg: UserMessage{
			Message: "The request contains a value that is not allowed",
			Action:  "Check the severity, score and status values",
			Code:    "DQ002",
		},
	},
	{
		pattern: "too many concurrent analysis jobs",
		msg: UserMessage{
			Message: "System is busy",
			Action:  "Please wait a moment and try again",
			Code:    "DQ003",
		},
	},

	// Tables
	{
		pattern: "table not found",
		msg: UserMessage{
			Message: "Table not found",
			Action:  "Verify the table id is correct",
			Code:    "TBL001",
		},
	},
	{
		pattern: "no columns",
		msg: UserMessage{
			Message: "The table has no columns",
			Action:  "Include a header row or at least one field per record",
			Code:    "TBL002",
		},
	},

	// Scoring config
	{
		pattern: "invalid scoring config",
		msg: UserMessage{
			Message: "Scoring configuration is invalid",
			Action:  "Keep boosts and factors between 0 and 1 with medium at or below high",
			Code:    "CFG001",
		},
	},

	// Remediation
	{
		pattern: "invalid remediation option",
		msg: UserMessage{
			Message: "This option is not available for the issue",
			Action:  "Pick one of the listed remediation options",
			Code:    "REM001",
		},
	},
	{
		pattern: "unsupported remediation method",
		msg: UserMessage{
			Message: "This remediation cannot be applied automatically",
			Action:  "Choose a different option or fix the data at the source",
			Code:    "REM002",
		},
	},

	// Ingestion
	{
		pattern: "parse failure",
		msg: UserMessage{
			Message: "The data could not be read",
			Action:  "Upload a UTF-8 CSV file or a JSON array of objects",
			Code:    "ING001",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller chunks",
			Code:    "ING002",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a file with a header and data rows",
			Code:    "ING003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "ING004",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save the file as UTF-8",
			Code:    "ING005",
		},
	},

	// Storage
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to storage",
			Action:  "Please try again in a few moments",
			Code:    "STO001",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Storage was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "STO002",
		},
	},
	{
		pattern: "database is locked",
		msg: UserMessage{
			Message: "Storage was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "STO002",
		},
	},

	// Requests
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
			Action:  "Try a smaller dataset or try again later",
			Code:    "REQ002",
		},
	},
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Matching is
// case-insensitive; the first pattern found in the error text wins.
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

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
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

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
