// Package dispatch implements the asynchronous command layer between
// UI-facing callers and the single database worker. Callers build an
// immutable QueryRequest, submit it through the worker's unbounded FIFO
// queue and watch the broadcast stream for the QueryResult whose origin
// token matches their own.
package dispatch

import (
	"time"

	"github.com/google/uuid"
)

// Domain selects the SQL manager family that processes a request.
type Domain int

const (
	DomainUser Domain = iota + 1
	DomainStock
	DomainIncome
	DomainDebtor
)

func (d Domain) String() string {
	switch d {
	case DomainUser:
		return "user"
	case DomainStock:
		return "stock"
	case DomainIncome:
		return "income"
	case DomainDebtor:
		return "debtor"
	default:
		return "unknown"
	}
}

// Origin is an opaque comparable identity of a request's issuer. The worker
// routes results by echoing it back; it never dereferences it, and holding
// one never extends the issuer's lifetime.
type Origin string

// NewOrigin mints a unique origin token. Each UI-facing component obtains
// one at construction and keeps it for all of its requests.
func NewOrigin() Origin {
	return Origin(uuid.NewString())
}

// Params is the parameter mapping of a request. Values are plain Go kinds
// (string, integers, float64, bool, time.Time, []byte, nested maps/slices).
// Treat as read-only once attached to a request.
type Params map[string]any

// Has reports whether the key is present, regardless of value.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String returns the value as a string, or "" when absent or of another
// kind.
func (p Params) String(key string) string {
	if s, ok := p[key].(string); ok {
		return s
	}
	return ""
}

// Int64 returns the value as an int64, coercing the numeric kinds callers
// commonly supply. Absent or non-numeric values yield 0.
func (p Params) Int64(key string) int64 {
	switch v := p[key].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// Float64 returns the value as a float64. Absent or non-numeric values
// yield 0.
func (p Params) Float64(key string) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// Bool returns the value as a bool; absent or non-bool values yield false.
func (p Params) Bool(key string) bool {
	b, _ := p[key].(bool)
	return b
}

// Time returns the value as a time.Time; absent or non-time values yield
// the zero time.
func (p Params) Time(key string) time.Time {
	t, _ := p[key].(time.Time)
	return t
}

// Bytes returns the value as a binary blob; absent values yield nil.
func (p Params) Bytes(key string) []byte {
	b, _ := p[key].([]byte)
	return b
}

// List returns the value as a slice of nested parameter maps, the shape
// used for repeated sub-records (e.g. a debtor's debts).
func (p Params) List(key string) []Params {
	switch v := p[key].(type) {
	case []Params:
		return v
	case []map[string]any:
		out := make([]Params, len(v))
		for i, m := range v {
			out[i] = Params(m)
		}
		return out
	default:
		return nil
	}
}

// QueryRequest describes one named command bound for a domain's SQL
// manager. It is immutable once constructed and consumed exactly once by
// the worker.
type QueryRequest struct {
	Command string
	Params  Params
	Domain  Domain
	Origin  Origin
}

// NewQueryRequest builds a request. Command must be non-empty and domain
// set; params may be nil.
func NewQueryRequest(origin Origin, domain Domain, command string, params Params) QueryRequest {
	return QueryRequest{
		Command: command,
		Params:  params,
		Domain:  domain,
		Origin:  origin,
	}
}
