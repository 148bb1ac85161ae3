package dispatch

import (
	"github.com/stockroomhq/stockroom/internal/domain/dberror"
)

// Outcome is the variant payload of a successful result. Its concrete
// shape is part of each command's contract.
type Outcome map[string]any

// QueryResult is the single response produced for a request. Outcome and
// the error fields are mutually exclusive; exactly one side is populated.
type QueryResult struct {
	Request          QueryRequest
	Successful       bool
	Outcome          Outcome
	ErrorCode        dberror.Code
	ErrorMessage     string
	ErrorUserMessage string
}

// SuccessResult builds a successful result echoing the request.
func SuccessResult(req QueryRequest, outcome Outcome) QueryResult {
	return QueryResult{
		Request:    req,
		Successful: true,
		Outcome:    outcome,
	}
}

// FailureResult builds a failed result from a taxonomy error.
func FailureResult(req QueryRequest, err *dberror.Error) QueryResult {
	return QueryResult{
		Request:          req,
		ErrorCode:        err.Code,
		ErrorMessage:     err.Message,
		ErrorUserMessage: err.UserMessage,
	}
}

// OriginatedFrom reports whether this result answers a request issued by
// the holder of the given origin token. Subscribers call this on every
// broadcast result and discard the ones meant for other callers.
func (r QueryResult) OriginatedFrom(origin Origin) bool {
	return r.Request.Origin == origin
}
