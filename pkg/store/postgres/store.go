// Package postgres implements the EntityStore interface over a Postgres
// database. Entity → table mapping comes from the schema catalog; every
// query is parameterized and capped by the caller.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cercalo-ai/cercalo-engine/pkg/models"
	"github.com/cercalo-ai/cercalo-engine/pkg/schema"
	"github.com/cercalo-ai/cercalo-engine/pkg/store"
)

// Store is a Postgres-backed EntityStore.
type Store struct {
	pool    *pgxpool.Pool
	catalog *schema.Catalog
	logger  *zap.Logger
}

// NewStore creates a Postgres store over the given pool and catalog.
func NewStore(pool *pgxpool.Pool, catalog *schema.Catalog, logger *zap.Logger) *Store {
	return &Store{
		pool:    pool,
		catalog: catalog,
		logger:  logger.Named("store"),
	}
}

// Describe implements store.EntityStore.
func (s *Store) Describe(ctx context.Context, entity string) (*models.EntityDescriptor, error) {
	return s.catalog.Describe(entity)
}

// Search implements store.EntityStore.
func (s *Store) Search(ctx context.Context, entity string, filter models.Filter, limit int) ([]models.Row, error) {
	desc, err := s.catalog.Describe(entity)
	if err != nil {
		return nil, err
	}

	where, args, err := buildWhere(filter)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT id, name FROM %q`, desc.Table)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY id"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", entity, err)
	}
	defer rows.Close()

	var out []models.Row
	for rows.Next() {
		var row models.Row
		if err := rows.Scan(&row.ID, &row.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", entity, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", entity, err)
	}
	return out, nil
}

// SearchIDs implements store.EntityStore.
func (s *Store) SearchIDs(ctx context.Context, entity string, ids []int64, limit int) ([]models.Row, error) {
	desc, err := s.catalog.Describe(entity)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT id, name FROM %q WHERE id = ANY($1) ORDER BY id`, desc.Table)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s by ids: %w", entity, err)
	}
	defer rows.Close()

	var out []models.Row
	for rows.Next() {
		var row models.Row
		if err := rows.Scan(&row.ID, &row.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", entity, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", entity, err)
	}
	return out, nil
}

// Count implements store.EntityStore.
func (s *Store) Count(ctx context.Context, entity string, filter models.Filter) (int, error) {
	desc, err := s.catalog.Describe(entity)
	if err != nil {
		return 0, err
	}

	where, args, err := buildWhere(filter)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`SELECT COUNT(*) FROM %q`, desc.Table)
	if where != "" {
		query += " WHERE " + where
	}

	var count int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", entity, err)
	}
	return count, nil
}

// CountByLink implements store.EntityStore.
func (s *Store) CountByLink(ctx context.Context, entity string, linkField string) (map[int64]int, error) {
	desc, err := s.catalog.Describe(entity)
	if err != nil {
		return nil, err
	}
	if !identPattern.MatchString(linkField) {
		return nil, fmt.Errorf("invalid link field identifier %q", linkField)
	}

	query := fmt.Sprintf(
		`SELECT %q, COUNT(*) FROM %q WHERE %q IS NOT NULL GROUP BY %q`,
		linkField, desc.Table, linkField, linkField)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to group %s by %s: %w", entity, linkField, err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var id int64
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("failed to scan group row: %w", err)
		}
		counts[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group rows: %w", err)
	}
	return counts, nil
}

// DistinctLinkValues implements store.EntityStore.
func (s *Store) DistinctLinkValues(ctx context.Context, entity string, linkField string) ([]int64, error) {
	desc, err := s.catalog.Describe(entity)
	if err != nil {
		return nil, err
	}
	if !identPattern.MatchString(linkField) {
		return nil, fmt.Errorf("invalid link field identifier %q", linkField)
	}

	query := fmt.Sprintf(
		`SELECT DISTINCT %q FROM %q WHERE %q IS NOT NULL ORDER BY %q`,
		linkField, desc.Table, linkField, linkField)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select distinct %s.%s: %w", entity, linkField, err)
	}
	defer rows.Close()

	var values []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan link value: %w", err)
		}
		values = append(values, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating link values: %w", err)
	}
	return values, nil
}

// AllIDs implements store.EntityStore.
func (s *Store) AllIDs(ctx context.Context, entity string) ([]int64, error) {
	desc, err := s.catalog.Describe(entity)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT id FROM %q ORDER BY id`, desc.Table))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s ids: %w", entity, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ids: %w", err)
	}
	return ids, nil
}

// Ensure Store implements EntityStore at compile time.
var _ store.EntityStore = (*Store)(nil)
