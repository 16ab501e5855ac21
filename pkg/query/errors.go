// Package query implements the query-intent resolution engine: pattern
// matching for two-entity correlation questions, model-backed translation
// of free text into filter expressions, repair and validation of model
// output, and the orchestrator that ties the paths together.
package query

import "errors"

var (
	// ErrSchemaMismatch means a pattern or filter references an entity,
	// field or relation not present in the live catalog. Fatal for the
	// query, never retried.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrTranslationUnavailable means the model collaborator could not be
	// reached or refused the call (auth, network, provider outage).
	ErrTranslationUnavailable = errors.New("translation unavailable")

	// ErrUnparseableFilter means the model output could not be resolved
	// into a valid filter expression after every repair stage. The raw
	// output is retained on the execution record for diagnosis.
	ErrUnparseableFilter = errors.New("unparseable filter")

	// ErrStoreExecution means the record store rejected the final filter
	// or id list.
	ErrStoreExecution = errors.New("store execution failed")
)
