package core

// # Error Codes Reference
//
// Technical errors are mapped to user-friendly messages with a code users can
// quote to support staff. Codes are grouped by category:
//
//	FILE001  file too large             "file too large"
//	FILE002  invalid CSV or workbook    "invalid csv", "invalid xlsx"
//	FILE003  encoding error             "encoding error"
//	FILE004  no file selected           "no file provided"
//	FILE005  empty file / no columns    "empty file"
//	FILE006  unsupported file type      "unsupported file type"
//	REQ001   malformed request body     "invalid request body"
//
//	REN001   rename collision           "rename collision"
//	COL001   unknown column             "column not found"
//	COL002   wrong column kind          "column kind not eligible"
//
//	MAP001   mapping not applicable     "mapping not applicable"
//	MAP002   empty domain (notice only, see NoticeEmptyDomain)
//	MAP003   no mapping declared        "no mapping declared"
//	MAP004   invalid mapping code       "invalid mapping code"
//
//	VIS001   unknown chart kind         "unknown chart kind"
//	VIS002   unknown panel              "unknown panel"
//	VIS003   unsupported image format   "unsupported image format"
//	VIS004   nothing to chart           "panel has no points"
//
//	EXP001   unsupported export format  "unsupported export format"
//
//	SES001   session expired            "session not found"
//	SES002   session limit reached      "session limit"
//	SES003   nothing uploaded yet       "no dataset uploaded"
//
//	UPL002   system busy                "too many concurrent uploads"
//	UPL004   request cancelled          "context canceled"
//	UPL005   request timeout            "context deadline exceeded"
//	RATE001  rate limited               "rate limit"
//
//	LOAD001  loader not configured      "loader not configured"
//	LOAD002  invalid target table       "invalid table name"
//	LOAD003  invalid load mode          "invalid load mode"
//	DB004    connection refused         "connection refused"
//	DB005    connection reset           "connection reset"
//	DB006    timeout                    "timeout"
//
//	RCP001   invalid recipe             "invalid recipe"
//
//	ERR000   fallback when nothing matches; check the logs for the original error
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

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

var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors (FILE001-FILE006)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure file is comma-separated and no row has more fields than the header",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid xlsx",
		msg: UserMessage{
			Message: "File is not a readable Excel workbook",
			Action:  "Re-save the workbook as .xlsx or export it to CSV",
			Code:    "FILE002",
		},
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
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV or XLSX file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file has no columns",
			Action:  "Upload a file whose first row is a header",
			Code:    "FILE005",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "This file type is not supported",
			Action:  "Upload a .csv, .txt or .xlsx file",
			Code:    "FILE006",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Resubmit the form, or send a JSON body matching the documented fields",
			Code:    "REQ001",
		},
	},

	// =========================================================================
	// Column Errors (REN001, COL001-COL002)
	// =========================================================================
	{
		pattern: "rename collision",
		msg: UserMessage{
			Message: "Two or more columns would share the same name",
			Action:  "Choose a distinct name for every column; nothing was renamed",
			Code:    "REN001",
		},
	},
	{
		pattern: "column not found",
		msg: UserMessage{
			Message: "Column not found",
			Action:  "Refresh the page; the column may have been renamed",
			Code:    "COL001",
		},
	},
	{
		pattern: "column kind not eligible",
		msg: UserMessage{
			Message: "This column cannot be shown in this chart",
			Action:  "Pick a column from the list offered for the chart",
			Code:    "COL002",
		},
	},

	// =========================================================================
	// Mapping Errors (MAP001-MAP004)
	// =========================================================================
	{
		pattern: "mapping not applicable",
		msg: UserMessage{
			Message: "Mapping not applicable: the column is not categorical",
			Action:  "Mappings apply only to text columns that have not been mapped yet",
			Code:    "MAP001",
		},
	},
	{
		pattern: "no mapping declared",
		msg: UserMessage{
			Message: "No codes were entered for this column",
			Action:  "Enter a numeric code for each value before applying",
			Code:    "MAP003",
		},
	},
	{
		pattern: "invalid mapping code",
		msg: UserMessage{
			Message: "A mapping code is not a finite number",
			Action:  "Use plain numbers such as 1, 2.5 or -3; NaN and Inf are not allowed",
			Code:    "MAP004",
		},
	},

	// =========================================================================
	// Visualization and Export Errors (VIS001-VIS004, EXP001)
	// =========================================================================
	{
		pattern: "unknown chart kind",
		msg: UserMessage{
			Message: "Unknown chart type",
			Action:  "Choose histogram, line or bar",
			Code:    "VIS001",
		},
	},
	{
		pattern: "unknown panel",
		msg: UserMessage{
			Message: "Unknown chart panel",
			Action:  "Use the numeric or categorical panel",
			Code:    "VIS002",
		},
	},
	{
		pattern: "unsupported image format",
		msg: UserMessage{
			Message: "Unsupported chart image format",
			Action:  "Request the chart as svg or png",
			Code:    "VIS003",
		},
	},
	{
		pattern: "panel has no points",
		msg: UserMessage{
			Message: "There is nothing to chart for this column",
			Action:  "Pick another column or relax the cleaning options",
			Code:    "VIS004",
		},
	},
	{
		pattern: "unsupported export format",
		msg: UserMessage{
			Message: "Unsupported export format",
			Action:  "Export as csv or xlsx",
			Code:    "EXP001",
		},
	},

	// =========================================================================
	// Session Errors (SES001-SES003)
	// =========================================================================
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "Your session has expired",
			Action:  "Upload the file again to start a new session",
			Code:    "SES001",
		},
	},
	{
		pattern: "session limit",
		msg: UserMessage{
			Message: "The server is holding too many sessions",
			Action:  "Please try again in a few minutes",
			Code:    "SES002",
		},
	},
	{
		pattern: "no dataset uploaded",
		msg: UserMessage{
			Message: "No dataset has been uploaded yet",
			Action:  "Upload a CSV or XLSX file first",
			Code:    "SES003",
		},
	},

	// =========================================================================
	// Upload Errors (UPL002-UPL005, RATE001)
	// =========================================================================
	{
		pattern: "too many concurrent uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
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

	// =========================================================================
	// Load Errors (LOAD001-LOAD003, DB004-DB006)
	// =========================================================================
	{
		pattern: "loader not configured",
		msg: UserMessage{
			Message: "Loading into a database is not enabled on this server",
			Action:  "Ask the operator to set DATABASE_URL, or export the file instead",
			Code:    "LOAD001",
		},
	},
	{
		pattern: "invalid table name",
		msg: UserMessage{
			Message: "The target table name is not valid",
			Action:  "Use letters, digits and underscores, optionally schema-qualified",
			Code:    "LOAD002",
		},
	},
	{
		pattern: "invalid load mode",
		msg: UserMessage{
			Message: "Unknown load mode",
			Action:  "Choose append or replace",
			Code:    "LOAD003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try again later",
			Code:    "DB006",
		},
	},

	// =========================================================================
	// Recipe Errors (RCP001)
	// =========================================================================
	{
		pattern: "invalid recipe",
		msg: UserMessage{
			Message: "The recipe file could not be used",
			Action:  "Check the recipe's YAML against the documented keys",
			Code:    "RCP001",
		},
	},
}

// NoticeEmptyDomain is shown, not raised, when a mapping is applied to a
// column with no values.
var NoticeEmptyDomain = UserMessage{
	Message: "The column has no values to map",
	Action:  "Nothing was changed",
	Code:    "MAP002",
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
//
// Example:
//
//	err := fmt.Errorf("%q: %w", "age", ErrNotCategorical)
//	msg := MapError(err)
//	// msg.Code == "MAP001"
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
	return msg.String()
}

// String renders the message as "Message (Code: XXX). Action".
func (m UserMessage) String() string {
	return fmt.Sprintf("%s (Code: %s). %s", m.Message, m.Code, m.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message. Error
// returns the user message; Unwrap returns the technical error for logging.
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
