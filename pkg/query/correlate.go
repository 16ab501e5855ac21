package query

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cercalo-ai/cercalo-engine/pkg/models"
	"github.com/cercalo-ai/cercalo-engine/pkg/store"
)

// Executor runs a matched correlation pattern against the record store
// and returns primary-entity record ids.
type Executor struct {
	store  store.EntityStore
	logger *zap.Logger
}

// NewExecutor creates a correlation executor over the given store.
func NewExecutor(entityStore store.EntityStore, logger *zap.Logger) *Executor {
	return &Executor{
		store:  entityStore,
		logger: logger.Named("correlate"),
	}
}

// Execute runs the matched pattern. count_aggregate returns primary ids
// whose secondary-entity group size satisfies the threshold comparator;
// exclusion returns primary ids never referenced by the secondary
// entity's link field.
func (e *Executor) Execute(ctx context.Context, m *Match) ([]int64, error) {
	if err := e.checkSchema(ctx, m.Pattern); err != nil {
		return nil, err
	}

	switch m.Pattern.Operation {
	case models.OpCountAggregate:
		return e.countAggregate(ctx, m)
	case models.OpExclusion:
		return e.exclusion(ctx, m.Pattern)
	default:
		return nil, fmt.Errorf("%w: pattern %s has unknown operation %q",
			ErrSchemaMismatch, m.Pattern.ID, m.Pattern.Operation)
	}
}

// checkSchema verifies the pattern still resolves against the live
// catalog: both entities exist and the link field is a relation on the
// secondary entity pointing at the primary entity.
func (e *Executor) checkSchema(ctx context.Context, p *Pattern) error {
	if _, err := e.store.Describe(ctx, p.Primary); err != nil {
		return fmt.Errorf("%w: pattern %s: primary entity %q: %v", ErrSchemaMismatch, p.ID, p.Primary, err)
	}

	secondary, err := e.store.Describe(ctx, p.Secondary)
	if err != nil {
		return fmt.Errorf("%w: pattern %s: secondary entity %q: %v", ErrSchemaMismatch, p.ID, p.Secondary, err)
	}

	link := secondary.Field(p.LinkField)
	if link == nil {
		return fmt.Errorf("%w: pattern %s: link field %q not found on %q",
			ErrSchemaMismatch, p.ID, p.LinkField, p.Secondary)
	}
	if link.Type != models.FieldTypeRelation || link.RefEntity != p.Primary {
		return fmt.Errorf("%w: pattern %s: field %q on %q does not reference %q",
			ErrSchemaMismatch, p.ID, p.LinkField, p.Secondary, p.Primary)
	}
	return nil
}

func (e *Executor) countAggregate(ctx context.Context, m *Match) ([]int64, error) {
	counts, err := e.store.CountByLink(ctx, m.Pattern.Secondary, m.Pattern.LinkField)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s by %s: %w",
			m.Pattern.Secondary, m.Pattern.LinkField, err)
	}

	var ids []int64
	for id, count := range counts {
		switch m.Comparator {
		case models.CmpGt:
			if count > m.Threshold {
				ids = append(ids, id)
			}
		default:
			if count >= m.Threshold {
				ids = append(ids, id)
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	e.logger.Debug("count aggregation complete",
		zap.String("pattern", m.Pattern.ID),
		zap.Int("threshold", m.Threshold),
		zap.String("comparator", string(m.Comparator)),
		zap.Int("groups", len(counts)),
		zap.Int("kept", len(ids)))
	return ids, nil
}

func (e *Executor) exclusion(ctx context.Context, p *Pattern) ([]int64, error) {
	linked, err := e.store.DistinctLinkValues(ctx, p.Secondary, p.LinkField)
	if err != nil {
		return nil, fmt.Errorf("failed to collect %s.%s values: %w", p.Secondary, p.LinkField, err)
	}

	referenced := make(map[int64]bool, len(linked))
	for _, id := range linked {
		referenced[id] = true
	}

	all, err := e.store.AllIDs(ctx, p.Primary)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s ids: %w", p.Primary, err)
	}

	// Natural retrieval order of the primary entity is preserved.
	var ids []int64
	for _, id := range all {
		if !referenced[id] {
			ids = append(ids, id)
		}
	}

	e.logger.Debug("exclusion complete",
		zap.String("pattern", p.ID),
		zap.Int("primary_total", len(all)),
		zap.Int("excluded", len(referenced)),
		zap.Int("kept", len(ids)))
	return ids, nil
}
