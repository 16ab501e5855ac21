package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cercalo-ai/cercalo-engine/pkg/models"
	"github.com/cercalo-ai/cercalo-engine/pkg/schema"
)

func seededStore() *MemoryStore {
	s := NewMemoryStore(schema.Default())
	s.Add("products",
		Record{ID: 1, Values: map[string]any{"name": "Desk Lamp", "list_price": 35.0, "active": true, "category": "lighting"}},
		Record{ID: 2, Values: map[string]any{"name": "Office Chair", "list_price": 120.0, "active": true, "category": "furniture"}},
		Record{ID: 3, Values: map[string]any{"name": "Standing Desk", "list_price": 450.0, "active": false, "category": "furniture"}},
	)
	return s
}

func TestMemoryStore_SearchOperators(t *testing.T) {
	s := seededStore()
	ctx := context.Background()

	tests := []struct {
		name    string
		filter  models.Filter
		wantIDs []int64
	}{
		{"empty filter matches all", models.Filter{}, []int64{1, 2, 3}},
		{"eq", models.Filter{{Field: "category", Operator: models.OpEq, Value: "furniture"}}, []int64{2, 3}},
		{"neq", models.Filter{{Field: "category", Operator: models.OpNeq, Value: "furniture"}}, []int64{1}},
		{"gt", models.Filter{{Field: "list_price", Operator: models.OpGt, Value: int64(100)}}, []int64{2, 3}},
		{"gte boundary", models.Filter{{Field: "list_price", Operator: models.OpGte, Value: 120.0}}, []int64{2, 3}},
		{"lt", models.Filter{{Field: "list_price", Operator: models.OpLt, Value: int64(100)}}, []int64{1}},
		{"bool eq", models.Filter{{Field: "active", Operator: models.OpEq, Value: false}}, []int64{3}},
		{"like substring", models.Filter{{Field: "name", Operator: models.OpLike, Value: "Desk"}}, []int64{1, 3}},
		{"ilike case-insensitive", models.Filter{{Field: "name", Operator: models.OpILike, Value: "desk"}}, []int64{1, 3}},
		{"like wildcard", models.Filter{{Field: "name", Operator: models.OpLike, Value: "Office%"}}, []int64{2}},
		{"in", models.Filter{{Field: "category", Operator: models.OpIn, Value: []any{"lighting", "decor"}}}, []int64{1}},
		{"not in", models.Filter{{Field: "category", Operator: models.OpNotIn, Value: []any{"furniture"}}}, []int64{1}},
		{"conjunction", models.Filter{
			{Field: "category", Operator: models.OpEq, Value: "furniture"},
			{Field: "active", Operator: models.OpEq, Value: true},
		}, []int64{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := s.Search(ctx, "products", tt.filter, 0)
			require.NoError(t, err)
			ids := make([]int64, 0, len(rows))
			for _, r := range rows {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestMemoryStore_SearchLimit(t *testing.T) {
	s := seededStore()
	rows, err := s.Search(context.Background(), "products", models.Filter{}, 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestMemoryStore_SearchUnknownEntity(t *testing.T) {
	s := seededStore()
	_, err := s.Search(context.Background(), "warehouses", models.Filter{}, 0)
	assert.ErrorIs(t, err, schema.ErrUnknownEntity)
}

func TestMemoryStore_DateComparison(t *testing.T) {
	s := NewMemoryStore(schema.Default())
	s.Add("invoices",
		Record{ID: 1, Values: map[string]any{"name": "old", "invoice_date": "2023-11-02"}},
		Record{ID: 2, Values: map[string]any{"name": "new", "invoice_date": "2024-06-15"}},
	)

	rows, err := s.Search(context.Background(), "invoices",
		models.Filter{{Field: "invoice_date", Operator: models.OpGte, Value: "2024-01-01"}}, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].ID)
}

func TestMemoryStore_SearchIDs(t *testing.T) {
	s := seededStore()
	rows, err := s.SearchIDs(context.Background(), "products", []int64{3, 1, 99}, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].ID)
	assert.Equal(t, int64(3), rows[1].ID)
}

func TestMemoryStore_CountByLink(t *testing.T) {
	s := NewMemoryStore(schema.Default())
	s.Add("orders",
		Record{ID: 1, Values: map[string]any{"name": "SO1", "partner_id": int64(7)}},
		Record{ID: 2, Values: map[string]any{"name": "SO2", "partner_id": int64(7)}},
		Record{ID: 3, Values: map[string]any{"name": "SO3", "partner_id": int64(8)}},
		Record{ID: 4, Values: map[string]any{"name": "SO4"}},
		Record{ID: 5, Values: map[string]any{"name": "SO5", "partner_id": int64(0)}},
	)

	counts, err := s.CountByLink(context.Background(), "orders", "partner_id")
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{7: 2, 8: 1}, counts, "null and zero links join no group")

	values, err := s.DistinctLinkValues(context.Background(), "orders", "partner_id")
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 8}, values)
}

func TestMemoryStore_RelationConditionMatchesID(t *testing.T) {
	s := NewMemoryStore(schema.Default())
	s.Add("invoices",
		Record{ID: 1, Values: map[string]any{"name": "INV1", "partner_id": int64(7)}},
		Record{ID: 2, Values: map[string]any{"name": "INV2", "partner_id": int64(8)}},
	)

	rows, err := s.Search(context.Background(), "invoices",
		models.Filter{{Field: "partner_id", Operator: models.OpEq, Value: int64(7)}}, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].ID)
}
