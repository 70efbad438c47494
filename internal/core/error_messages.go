// Package core provides the extraction workflow and edit model.
//
// # Error Codes Reference
//
// This file maps technical errors to user-facing messages with codes for
// support reference. Codes are grouped by category:
//
// # Remote Errors (EXT001-EXT099)
//
//	EXT001 - Submit failed: The extraction service did not accept the file
//	         Patterns: "submit failed"
//	EXT002 - Text fetch failed: Generated text could not be retrieved
//	         Patterns: "fetch generated text failed"
//	EXT003 - Transform failed: The tidy reshape was rejected
//	         Patterns: "tidy transform failed"
//	EXT004 - Service unreachable: Could not connect to the extraction service
//	         Patterns: "connection refused", "no such host"
//	EXT005 - Table fetch failed: A table could not be retrieved
//	         Patterns: "fetch table failed"
//
// # Edit Errors (EDIT001-EDIT099)
//
//	EDIT001 - Unknown table: Patterns: "unknown table"
//	EDIT002 - Shape mismatch: Patterns: "tidy shape mismatch"
//	EDIT003 - Transform unavailable: Patterns: "tidy transform not configured"
//
// # Document Errors (DOC001-DOC099)
//
//	DOC001 - No document: Patterns: "no document"
//	DOC002 - Not ready: Patterns: "document not ready"
//	DOC003 - Superseded: Patterns: "superseded"
//	DOC004 - Already complete: Patterns: "document already complete"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: Patterns: "file too large"
//	FILE002 - Unsupported type: Patterns: "unsupported file type"
//	FILE003 - No file: Patterns: "no file provided"
//	FILE004 - Empty file: Patterns: "empty file"
//	FILE005 - Invalid body: Patterns: "invalid request body"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL001 - System busy: Patterns: "too many uploads"
//	UPL002 - Request cancelled: Patterns: "context canceled"
//	UPL003 - Request timeout: Patterns: "context deadline exceeded", "timeout"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Rate limited: Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//
// # Pattern Matching
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins. Remote errors wrap their cause, so operation patterns
// ("submit failed") come before transport patterns ("connection refused")
// and those before the generic context patterns.
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
	// Edit and document errors first: their messages are local and precise.
	{
		pattern: "tidy shape mismatch",
		msg: UserMessage{
			Message: "The reshaped table does not match the current columns",
			Action:  "Edit the table headers first or try a different transform",
			Code:    "EDIT002",
		},
	},
	{
		pattern: "tidy transform not configured",
		msg: UserMessage{
			Message: "Table transforms are not available",
			Action:  "Configure an extraction service that supports tidy transforms",
			Code:    "EDIT003",
		},
	},
	{
		pattern: "unknown table",
		msg: UserMessage{
			Message: "Table not found in this document",
			Action:  "Reload the document and pick a table from the list",
			Code:    "EDIT001",
		},
	},
	{
		pattern: "superseded",
		msg: UserMessage{
			Message: "A newer upload replaced this document",
			Action:  "Work with the most recent upload",
			Code:    "DOC003",
		},
	},
	{
		pattern: "document already complete",
		msg: UserMessage{
			Message: "This document has already finished processing",
			Action:  "Edit the current result or upload the file again",
			Code:    "DOC004",
		},
	},
	{
		pattern: "document not ready",
		msg: UserMessage{
			Message: "The document has not finished processing",
			Action:  "Wait for extraction to complete, or upload again if it failed",
			Code:    "DOC002",
		},
	},
	{
		pattern: "no document",
		msg: UserMessage{
			Message: "No document has been uploaded",
			Action:  "Upload a PDF or image to start",
			Code:    "DOC001",
		},
	},

	// Remote operation errors.
	{
		pattern: "tidy transform failed",
		msg: UserMessage{
			Message: "The table could not be transformed",
			Action:  "Check the table contents and try again",
			Code:    "EXT003",
		},
	},
	{
		pattern: "submit failed",
		msg: UserMessage{
			Message: "The extraction service did not accept the file",
			Action:  "Check the file and try again",
			Code:    "EXT001",
		},
	},
	{
		pattern: "fetch generated text failed",
		msg: UserMessage{
			Message: "Generated text could not be retrieved",
			Action:  "Please upload the file again",
			Code:    "EXT002",
		},
	},
	{
		pattern: "fetch table failed",
		msg: UserMessage{
			Message: "A table could not be retrieved",
			Action:  "Please upload the file again",
			Code:    "EXT005",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the extraction service",
			Action:  "Please try again in a few moments",
			Code:    "EXT004",
		},
	},
	{
		pattern: "no such host",
		msg: UserMessage{
			Message: "Unable to reach the extraction service",
			Action:  "Check the service address in the configuration",
			Code:    "EXT004",
		},
	},

	// File errors.
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Upload a smaller file or split the document",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "Only PDF and image files can be extracted",
			Action:  "Upload a PDF, PNG, JPEG or another image file",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a file to upload",
			Code:    "FILE003",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file with content",
			Code:    "FILE004",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request body could not be read",
			Action:  "Send a JSON body with the expected fields",
			Code:    "FILE005",
		},
	},

	// Upload control.
	{
		pattern: "too many uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "UPL003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "UPL003",
		},
	},

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

// MapError converts a technical error to a user-friendly message. The first
// matching pattern wins; unmatched errors map to ERR000.
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

// FormatUserError formats err as "Message (Code: XXX). Action".
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
