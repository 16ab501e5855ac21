package store

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/cercalo-ai/cercalo-engine/pkg/models"
	"github.com/cercalo-ai/cercalo-engine/pkg/schema"
)

// Record is a single in-memory record: an id plus field values keyed by
// field name. The display name is taken from the "name" value.
type Record struct {
	ID     int64
	Values map[string]any
}

// MemoryStore is an EntityStore backed by in-process data. It serves unit
// tests and local development; descriptors come from the schema catalog.
type MemoryStore struct {
	catalog *schema.Catalog

	mu   sync.RWMutex
	data map[string][]Record
}

// NewMemoryStore creates an empty store over the given catalog.
func NewMemoryStore(catalog *schema.Catalog) *MemoryStore {
	return &MemoryStore{
		catalog: catalog,
		data:    make(map[string][]Record),
	}
}

// Add appends records to an entity, preserving insertion order as the
// store's natural retrieval order.
func (s *MemoryStore) Add(entity string, records ...Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[entity] = append(s.data[entity], records...)
}

// Describe implements EntityStore.
func (s *MemoryStore) Describe(ctx context.Context, entity string) (*models.EntityDescriptor, error) {
	return s.catalog.Describe(entity)
}

// Search implements EntityStore.
func (s *MemoryStore) Search(ctx context.Context, entity string, filter models.Filter, limit int) ([]models.Row, error) {
	if _, err := s.catalog.Describe(entity); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []models.Row
	for _, rec := range s.data[entity] {
		ok, err := matchesFilter(rec, filter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		rows = append(rows, toRow(rec))
		if limit > 0 && len(rows) >= limit {
			break
		}
	}
	return rows, nil
}

// SearchIDs implements EntityStore.
func (s *MemoryStore) SearchIDs(ctx context.Context, entity string, ids []int64, limit int) ([]models.Row, error) {
	if _, err := s.catalog.Describe(entity); err != nil {
		return nil, err
	}

	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []models.Row
	for _, rec := range s.data[entity] {
		if !wanted[rec.ID] {
			continue
		}
		rows = append(rows, toRow(rec))
		if limit > 0 && len(rows) >= limit {
			break
		}
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

// Count implements EntityStore.
func (s *MemoryStore) Count(ctx context.Context, entity string, filter models.Filter) (int, error) {
	rows, err := s.Search(ctx, entity, filter, 0)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// CountByLink implements EntityStore.
func (s *MemoryStore) CountByLink(ctx context.Context, entity string, linkField string) (map[int64]int, error) {
	if _, err := s.catalog.Describe(entity); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[int64]int)
	for _, rec := range s.data[entity] {
		id, ok := linkValue(rec, linkField)
		if !ok {
			continue
		}
		counts[id]++
	}
	return counts, nil
}

// DistinctLinkValues implements EntityStore.
func (s *MemoryStore) DistinctLinkValues(ctx context.Context, entity string, linkField string) ([]int64, error) {
	counts, err := s.CountByLink(ctx, entity, linkField)
	if err != nil {
		return nil, err
	}

	values := make([]int64, 0, len(counts))
	for id := range counts {
		values = append(values, id)
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	return values, nil
}

// AllIDs implements EntityStore.
func (s *MemoryStore) AllIDs(ctx context.Context, entity string) ([]int64, error) {
	if _, err := s.catalog.Describe(entity); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.data[entity]))
	for _, rec := range s.data[entity] {
		ids = append(ids, rec.ID)
	}
	return ids, nil
}

func toRow(rec Record) models.Row {
	name, _ := rec.Values["name"].(string)
	return models.Row{ID: rec.ID, DisplayName: name}
}

// linkValue extracts a relation id from a record value. Nil and zero
// values count as unset.
func linkValue(rec Record, field string) (int64, bool) {
	v, ok := rec.Values[field]
	if !ok || v == nil {
		return 0, false
	}
	switch id := v.(type) {
	case int64:
		return id, id != 0
	case int:
		return int64(id), id != 0
	case float64:
		return int64(id), id != 0
	default:
		return 0, false
	}
}

func matchesFilter(rec Record, filter models.Filter) (bool, error) {
	for _, cond := range filter {
		ok, err := matchesCondition(rec, cond)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func matchesCondition(rec Record, cond models.Condition) (bool, error) {
	value := rec.Values[cond.Field]
	if id, ok := linkValue(rec, cond.Field); ok {
		// Relation fields compare on the referenced id.
		value = id
	}

	switch cond.Operator {
	case models.OpEq:
		return equalValues(value, cond.Value), nil
	case models.OpNeq:
		return !equalValues(value, cond.Value), nil
	case models.OpGt, models.OpGte, models.OpLt, models.OpLte:
		return compareValues(value, cond.Operator, cond.Value)
	case models.OpLike:
		return likeMatch(value, cond.Value, false)
	case models.OpILike:
		return likeMatch(value, cond.Value, true)
	case models.OpIn:
		return inMatch(value, cond.Value), nil
	case models.OpNotIn:
		return !inMatch(value, cond.Value), nil
	default:
		return false, fmt.Errorf("unsupported operator %q", cond.Operator)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

func equalValues(a, b any) bool {
	if fa, aok := toFloat(a); aok {
		if fb, bok := toFloat(b); bok {
			return fa == fb
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func compareValues(a any, op models.Operator, b any) (bool, error) {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if aok && bok {
		switch op {
		case models.OpGt:
			return fa > fb, nil
		case models.OpGte:
			return fa >= fb, nil
		case models.OpLt:
			return fa < fb, nil
		case models.OpLte:
			return fa <= fb, nil
		}
	}

	// ISO dates and plain strings compare lexicographically.
	sa, saok := a.(string)
	sb, sbok := b.(string)
	if saok && sbok {
		switch op {
		case models.OpGt:
			return sa > sb, nil
		case models.OpGte:
			return sa >= sb, nil
		case models.OpLt:
			return sa < sb, nil
		case models.OpLte:
			return sa <= sb, nil
		}
	}

	return false, fmt.Errorf("cannot compare %T with %T", a, b)
}

func likeMatch(value, pattern any, caseInsensitive bool) (bool, error) {
	sv, ok := value.(string)
	if !ok {
		return false, nil
	}
	sp, ok := pattern.(string)
	if !ok {
		return false, fmt.Errorf("like pattern must be a string, got %T", pattern)
	}

	// A pattern with no wildcards behaves as a substring match, matching
	// the record store this adapter stands in for.
	if !strings.ContainsAny(sp, "%_") {
		sp = "%" + sp + "%"
	}

	var b strings.Builder
	b.WriteString("^")
	for _, r := range sp {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")

	expr := b.String()
	if caseInsensitive {
		expr = "(?i)" + expr
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return false, fmt.Errorf("invalid like pattern %q: %w", sp, err)
	}
	return re.MatchString(sv), nil
}

func inMatch(value, list any) bool {
	items, ok := list.([]any)
	if !ok {
		return equalValues(value, list)
	}
	for _, item := range items {
		if equalValues(value, item) {
			return true
		}
	}
	return false
}

// Ensure MemoryStore implements EntityStore at compile time.
var _ EntityStore = (*MemoryStore)(nil)
