package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cercalo-ai/cercalo-engine/pkg/models"
	"github.com/cercalo-ai/cercalo-engine/pkg/schema"
)

func describe(t *testing.T, entity string) *models.EntityDescriptor {
	t.Helper()
	desc, err := schema.Default().Describe(entity)
	require.NoError(t, err)
	return desc
}

func TestResolver_FencedOutput(t *testing.T) {
	r := NewResolver(zap.NewNop())
	raw := "```python\n[('state','!=','posted')]\n```"

	result, err := r.Resolve(raw, describe(t, "invoices"))
	require.NoError(t, err)
	require.Len(t, result.Filter, 1)
	assert.Equal(t, "state", result.Filter[0].Field)
	assert.Equal(t, models.OpNeq, result.Filter[0].Operator)
	assert.Equal(t, "posted", result.Filter[0].Value)
	assert.False(t, result.Lenient)
	assert.Empty(t, result.Repairs)
}

func TestResolver_AliasRepair(t *testing.T) {
	r := NewResolver(zap.NewNop())

	result, err := r.Resolve(`[('lst_price', '<', 100)]`, describe(t, "products"))
	require.NoError(t, err)
	require.Len(t, result.Filter, 1)
	assert.Equal(t, "list_price", result.Filter[0].Field)
	require.Len(t, result.Repairs, 1)
	assert.Contains(t, result.Repairs[0], "lst_price")
	assert.Contains(t, result.Repairs[0], "list_price")
}

func TestResolver_AliasOnlyWhenTargetQueryable(t *testing.T) {
	r := NewResolver(zap.NewNop())

	// "price" aliases to list_price, which invoices do not have; the
	// whole expression is rejected, never partially accepted.
	_, err := r.Resolve(`[('price', '>', 10)]`, describe(t, "invoices"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnparseableFilter)
}

func TestResolver_ProseOutput(t *testing.T) {
	r := NewResolver(zap.NewNop())

	_, err := r.Resolve("I am sorry, I cannot produce a filter for that question.", describe(t, "invoices"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnparseableFilter)
}

func TestResolver_WholeExpressionRejection(t *testing.T) {
	r := NewResolver(zap.NewNop())

	// One invalid atom rejects everything, including the valid one.
	_, err := r.Resolve(`[('state', '=', 'posted'), ('amount_overdue', '>', 0)]`, describe(t, "invoices"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnparseableFilter)
}

func TestResolver_InvalidOperator(t *testing.T) {
	r := NewResolver(zap.NewNop())

	_, err := r.Resolve(`[('state', '=like=', 'posted')]`, describe(t, "invoices"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnparseableFilter)
}

func TestResolver_EmptyFilterIsValid(t *testing.T) {
	r := NewResolver(zap.NewNop())

	result, err := r.Resolve("[]", describe(t, "partners"))
	require.NoError(t, err)
	assert.NotNil(t, result.Filter)
	assert.Len(t, result.Filter, 0)
	assert.False(t, result.Lenient)
}

func TestResolver_JSONArrayFallback(t *testing.T) {
	r := NewResolver(zap.NewNop())

	result, err := r.Resolve(`[["state", "=", "posted"], ["amount_total", ">", 500]]`, describe(t, "invoices"))
	require.NoError(t, err)
	require.Len(t, result.Filter, 2)
	assert.Equal(t, "state", result.Filter[0].Field)
	assert.Equal(t, float64(500), result.Filter[1].Value)
	assert.False(t, result.Lenient)
}

func TestResolver_LenientFallbackIsFlagged(t *testing.T) {
	r := NewResolver(zap.NewNop())

	result, err := r.Resolve(`[(state, =, draft)]`, describe(t, "invoices"))
	require.NoError(t, err)
	require.Len(t, result.Filter, 1)
	assert.Equal(t, "state", result.Filter[0].Field)
	assert.True(t, result.Lenient)
}

func TestResolver_Deterministic(t *testing.T) {
	r := NewResolver(zap.NewNop())
	raw := "```\n[('payment_state', 'in', ['not_paid', 'partial']), ('amount_total', '>=', 250.5)]\n```"
	desc := describe(t, "invoices")

	first, err := r.Resolve(raw, desc)
	require.NoError(t, err)
	second, err := r.Resolve(raw, desc)
	require.NoError(t, err)

	assert.Equal(t, first.Filter, second.Filter)
	assert.Equal(t, first.Filter.String(), second.Filter.String())
}

func TestResolver_ThinkTags(t *testing.T) {
	r := NewResolver(zap.NewNop())
	raw := "<think>\nThe user wants active partners.\n</think>\n[('active', '=', True)]"

	result, err := r.Resolve(raw, describe(t, "partners"))
	require.NoError(t, err)
	require.Len(t, result.Filter, 1)
	assert.Equal(t, true, result.Filter[0].Value)
}
