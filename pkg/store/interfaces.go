// Package store defines the record-store capability interface consumed by
// the query engine, plus the in-memory implementation used for tests and
// local development. The Postgres adapter lives in the postgres subpackage.
package store

import (
	"context"

	"github.com/cercalo-ai/cercalo-engine/pkg/models"
)

// EntityStore is the boundary to the record store. Entities are addressed
// by name and described by typed descriptors; raw strings are never
// interpreted ad hoc beyond this interface.
type EntityStore interface {
	// Describe returns the live descriptor for the named entity, including
	// which fields are queryable.
	Describe(ctx context.Context, entity string) (*models.EntityDescriptor, error)

	// Search returns records matching the validated filter, in the store's
	// natural retrieval order, capped at limit (0 means no cap).
	Search(ctx context.Context, entity string, filter models.Filter, limit int) ([]models.Row, error)

	// SearchIDs returns the records with the given ids, in id order,
	// capped at limit (0 means no cap).
	SearchIDs(ctx context.Context, entity string, ids []int64, limit int) ([]models.Row, error)

	// Count returns the number of records matching the filter.
	Count(ctx context.Context, entity string, filter models.Filter) (int, error)

	// CountByLink groups the entity's records by the named relation field
	// and returns group sizes keyed by the referenced id. Records with a
	// null/unset link value are excluded from all groups.
	CountByLink(ctx context.Context, entity string, linkField string) (map[int64]int, error)

	// DistinctLinkValues returns the distinct non-null values of the named
	// relation field across all of the entity's records.
	DistinctLinkValues(ctx context.Context, entity string, linkField string) ([]int64, error)

	// AllIDs returns every record id of the entity, in the store's natural
	// retrieval order.
	AllIDs(ctx context.Context, entity string) ([]int64, error)
}
