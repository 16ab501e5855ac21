// Package repositories provides data access for the engine's own tables.
package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cercalo-ai/cercalo-engine/pkg/database"
	"github.com/cercalo-ai/cercalo-engine/pkg/models"
	"github.com/cercalo-ai/cercalo-engine/pkg/query"
)

// ExecutionRepository persists completed query execution records for the
// audit trail. Result rows are not stored; the record keeps the count and
// the full provenance of how the result set was produced.
type ExecutionRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewExecutionRepository creates a repository over the engine database.
func NewExecutionRepository(db *database.DB, logger *zap.Logger) *ExecutionRepository {
	return &ExecutionRepository{
		db:     db,
		logger: logger.Named("executions"),
	}
}

// Save implements query.ExecutionSink.
func (r *ExecutionRepository) Save(ctx context.Context, exec *models.QueryExecution) error {
	if exec.ID == uuid.Nil {
		exec.ID = uuid.New()
	}

	notes := exec.Notes
	if notes == nil {
		notes = []string{}
	}

	const stmt = `
		INSERT INTO query_executions (
			id, user_id, query_text, category, entity,
			path, pattern_id, filter_or_pattern, raw_response, notes,
			result_count, status, error_kind, error_detail,
			started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.db.Exec(ctx, stmt,
		exec.ID,
		exec.UserID,
		exec.Text,
		exec.Category,
		exec.Entity,
		string(exec.Path),
		exec.PatternID,
		exec.FilterOrPattern,
		exec.RawResponse,
		notes,
		exec.ResultCount,
		string(exec.Status),
		string(exec.ErrorKind),
		exec.ErrorDetail,
		exec.StartedAt,
		exec.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert execution record: %w", err)
	}
	return nil
}

var _ query.ExecutionSink = (*ExecutionRepository)(nil)
