package core

// error_messages.go maps domain errors to client-safe messages.
//
// Error codes, grouped by category:
//
//	NF001   - Product not found
//	CON001  - Product name already exists
//	VAL001  - Invalid input (message carries the field detail)
//	EXP001  - No products to export
//	FILE001 - No file uploaded
//	FILE002 - File exceeds the upload size limit
//	FILE003 - File is not a readable CSV or XLSX workbook
//	IMP001  - Too many imports in progress
//	IMP002  - Operation timed out
//	IMP003  - Request cancelled
//	ERR000  - Anything else; the technical error is only logged
//
// The first matching entry wins. Matching uses errors.Is, so wrapped errors
// map to the code of the sentinel they carry.

import (
	"context"
	"errors"
	"fmt"
)

// UserMessage is what a client sees for a failed request.
type UserMessage struct {
	Message string // what happened
	Action  string // what to do about it
	Code    string // support reference
}

type errorMapping struct {
	target error
	msg    UserMessage
}

var errorMappings = []errorMapping{
	{ErrNotFound, UserMessage{
		Message: "Product not found",
		Action:  "Check the product id and try again",
		Code:    "NF001",
	}},
	{ErrConflict, UserMessage{
		Message: "Product name already exists",
		Action:  "Choose a different product name",
		Code:    "CON001",
	}},
	{ErrNothingToExport, UserMessage{
		Message: "No products to export",
		Action:  "Import products before exporting",
		Code:    "EXP001",
	}},
	{ErrNoFile, UserMessage{
		Message: "No file uploaded",
		Action:  "Attach a CSV file in the csvFile form field",
		Code:    "FILE001",
	}},
	{ErrFileTooLarge, UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE002",
	}},
	{ErrInvalidFile, UserMessage{
		Message: "File is not a valid CSV or XLSX file",
		Action:  "Save the file as comma-separated values with a header row",
		Code:    "FILE003",
	}},
	{ErrTooManyImports, UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "IMP001",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Operation timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "IMP002",
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "IMP003",
	}},
}

var defaultUserMessage = UserMessage{
	Message: "Database operation failed",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error into a UserMessage. Validation errors keep
// their field detail; unknown errors collapse to a generic message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if errors.Is(err, ErrValidation) {
		msg := UserMessage{
			Message: "Invalid input",
			Action:  "Check the request parameters",
			Code:    "VAL001",
		}
		var ve *ValidationError
		var ves ValidationErrors
		switch {
		case errors.As(err, &ves):
			msg.Message = ves.Error()
		case errors.As(err, &ve):
			msg.Message = ve.Error()
		}
		return msg
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.msg
		}
	}
	return defaultUserMessage
}

// FormatUserError renders an error for display as "Message. Action (Code)".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Code == "" {
		return ""
	}
	return fmt.Sprintf("%s. %s (%s)", msg.Message, msg.Action, msg.Code)
}
