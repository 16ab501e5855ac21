package models

import (
	"time"

	"github.com/google/uuid"
)

// QueryPath is the resolution path chosen for a query.
type QueryPath string

const (
	// PathSingle means the query was translated into a filter expression
	// against a single entity.
	PathSingle QueryPath = "single"
	// PathMulti means the query matched a two-entity correlation pattern
	// and was answered deterministically, without a model call.
	PathMulti QueryPath = "multi"
)

// ExecutionStatus is the final status of a query execution.
type ExecutionStatus string

const (
	StatusSuccess ExecutionStatus = "success"
	StatusError   ExecutionStatus = "error"
)

// ErrorKind classifies a query failure for the audit trail.
type ErrorKind string

const (
	ErrorKindNone                   ErrorKind = ""
	ErrorKindSchemaMismatch         ErrorKind = "schema_mismatch"
	ErrorKindTranslationUnavailable ErrorKind = "translation_unavailable"
	ErrorKindRateLimited            ErrorKind = "rate_limited"
	ErrorKindUnparseableFilter      ErrorKind = "unparseable_filter"
	ErrorKindStoreExecution         ErrorKind = "store_execution"
)

// QueryExecution is the audit record for one user query. It is created
// and mutated exclusively by the orchestrator for the duration of the
// query, then handed to the execution-record sink for persistence.
type QueryExecution struct {
	ID     uuid.UUID `json:"id"`
	UserID string    `json:"user_id,omitempty"`

	// Input
	Text     string `json:"text"`
	Category string `json:"category,omitempty"`

	// Resolution
	Entity          string    `json:"entity,omitempty"`
	Path            QueryPath `json:"path,omitempty"`
	PatternID       string    `json:"pattern_id,omitempty"`
	FilterOrPattern string    `json:"filter_or_pattern,omitempty"`
	RawResponse     string    `json:"raw_response,omitempty"`

	// Notes records every repair that changed the interpretation of the
	// query (lenient parse, field alias substitution) so the audit trail
	// shows why a result set was produced.
	Notes []string `json:"notes,omitempty"`

	// Outcome
	Results     []Row           `json:"results,omitempty"`
	ResultCount int             `json:"result_count"`
	Status      ExecutionStatus `json:"status"`
	ErrorKind   ErrorKind       `json:"error_kind,omitempty"`
	ErrorDetail string          `json:"error_detail,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// AddNote appends an audit note to the execution record.
func (q *QueryExecution) AddNote(note string) {
	q.Notes = append(q.Notes, note)
}
