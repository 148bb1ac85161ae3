// Package dberror defines the closed error taxonomy surfaced by the
// database worker. Every failure a SQL manager can produce is represented
// by an *Error carrying a stable numeric code, an internal diagnostic
// message (may embed raw driver text) and a user-safe message. Handlers
// never invent codes outside this set.
package dberror

import (
	"errors"
	"fmt"
)

// Code identifies one kind of failure. The numeric values are stable and
// part of the caller-facing contract; new codes are appended, never
// renumbered.
type Code int

const (
	CodeUnknown Code = iota
	CodeConnectionFailed
	CodeBeginTransactionFailed
	CodeCommitTransactionFailed
	CodeRollbackFailed
	CodeCommandNotFound
	CodeInvalidArguments
	CodeDuplicateEntryFailure
	CodeAddItemFailure
	CodeViewStockItemsFailed
	CodeViewStockCategoriesFailed
	CodeRemoveStockItemFailed
	CodeUndoFailed
	CodeSignInFailure
	CodeSignUpFailure
	CodeRemoveUserFailure
	CodeViewUsersFailed
	CodeAddTransactionFailure
	CodeViewTransactionsFailed
	CodeViewReportFailed
	CodeAddDebtorFailure
	CodeViewDebtorsFailed
	CodeRemoveDebtorFailed
)

var codeNames = map[Code]string{
	CodeUnknown:                   "UNKNOWN",
	CodeConnectionFailed:          "CONNECTION_FAILED",
	CodeBeginTransactionFailed:    "BEGIN_TRANSACTION_FAILED",
	CodeCommitTransactionFailed:   "COMMIT_TRANSACTION_FAILED",
	CodeRollbackFailed:            "ROLLBACK_FAILED",
	CodeCommandNotFound:           "COMMAND_NOT_FOUND",
	CodeInvalidArguments:          "INVALID_ARGUMENTS",
	CodeDuplicateEntryFailure:     "DUPLICATE_ENTRY_FAILURE",
	CodeAddItemFailure:            "ADD_ITEM_FAILURE",
	CodeViewStockItemsFailed:      "VIEW_STOCK_ITEMS_FAILED",
	CodeViewStockCategoriesFailed: "VIEW_STOCK_CATEGORIES_FAILED",
	CodeRemoveStockItemFailed:     "REMOVE_STOCK_ITEM_FAILED",
	CodeUndoFailed:                "UNDO_FAILED",
	CodeSignInFailure:             "SIGN_IN_FAILURE",
	CodeSignUpFailure:             "SIGN_UP_FAILURE",
	CodeRemoveUserFailure:         "REMOVE_USER_FAILURE",
	CodeViewUsersFailed:           "VIEW_USERS_FAILED",
	CodeAddTransactionFailure:     "ADD_TRANSACTION_FAILURE",
	CodeViewTransactionsFailed:    "VIEW_TRANSACTIONS_FAILED",
	CodeViewReportFailed:          "VIEW_REPORT_FAILED",
	CodeAddDebtorFailure:          "ADD_DEBTOR_FAILURE",
	CodeViewDebtorsFailed:         "VIEW_DEBTORS_FAILED",
	CodeRemoveDebtorFailed:        "REMOVE_DEBTOR_FAILED",
}

// String returns the symbolic name of the code.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CODE(%d)", int(c))
}

// Error is the single error type raised by SQL manager code. Message is an
// internal diagnostic; UserMessage is safe to display.
type Error struct {
	Code        Code
	Message     string
	UserMessage string
}

// New creates an Error with the given code, diagnostic and user message.
func New(code Code, message, userMessage string) *Error {
	return &Error{Code: code, Message: message, UserMessage: userMessage}
}

// Newf creates an Error with a formatted diagnostic message.
func Newf(code Code, userMessage, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), UserMessage: userMessage}
}

func (e *Error) Error() string {
	return fmt.Sprintf("error %d (%s): %s [%s]", int(e.Code), e.Code, e.Message, e.UserMessage)
}

// Is allows errors.Is comparisons against sentinel errors by code.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// As converts any error into a taxonomy error. Errors raised outside the
// taxonomy (driver errors that slipped through, context cancellation) are
// wrapped under CodeUnknown so that nothing raw ever reaches a caller.
func As(err error) *Error {
	var dbErr *Error
	if errors.As(err, &dbErr) {
		return dbErr
	}
	return &Error{
		Code:        CodeUnknown,
		Message:     err.Error(),
		UserMessage: "An unexpected error occurred.",
	}
}

// InvalidArguments is a shorthand for the validation failure every
// operation raises before touching storage.
func InvalidArguments(userMessage string) *Error {
	return &Error{Code: CodeInvalidArguments, UserMessage: userMessage}
}

// CommandNotFound reports an unknown command string for a domain.
func CommandNotFound(command string) *Error {
	return &Error{
		Code:        CodeCommandNotFound,
		Message:     fmt.Sprintf("command not found: %s", command),
		UserMessage: "The requested operation is not recognized.",
	}
}
