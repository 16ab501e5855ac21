package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cercalo-ai/cercalo-engine/pkg/models"
)

func TestParseTupleList_Basic(t *testing.T) {
	filter, err := parseTupleList(`[('state', '=', 'posted')]`)
	require.NoError(t, err)
	require.Len(t, filter, 1)
	assert.Equal(t, "state", filter[0].Field)
	assert.Equal(t, models.OpEq, filter[0].Operator)
	assert.Equal(t, "posted", filter[0].Value)
}

func TestParseTupleList_ValueTypes(t *testing.T) {
	filter, err := parseTupleList(
		`[('amount_total', '>', 1000), ('list_price', '<', 99.5), ('active', '=', True), ('barcode', '!=', None), ('state', 'in', ['draft', 'posted'])]`)
	require.NoError(t, err)
	require.Len(t, filter, 5)

	assert.Equal(t, int64(1000), filter[0].Value)
	assert.Equal(t, 99.5, filter[1].Value)
	assert.Equal(t, true, filter[2].Value)
	assert.Nil(t, filter[3].Value)
	assert.Equal(t, []any{"draft", "posted"}, filter[4].Value)
}

func TestParseTupleList_Empty(t *testing.T) {
	filter, err := parseTupleList("[]")
	require.NoError(t, err)
	assert.NotNil(t, filter)
	assert.Len(t, filter, 0)
}

func TestParseTupleList_DoubleQuotesAndEscapes(t *testing.T) {
	filter, err := parseTupleList(`[("name", "ilike", "O\'Brien")]`)
	require.NoError(t, err)
	require.Len(t, filter, 1)
	assert.Equal(t, "O'Brien", filter[0].Value)
}

func TestParseTupleList_TrailingComma(t *testing.T) {
	filter, err := parseTupleList(`[('state', '=', 'posted'),]`)
	require.NoError(t, err)
	assert.Len(t, filter, 1)
}

func TestParseTupleList_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bare identifier value", `[('state', '=', posted)]`},
		{"function call", `[('state', '=', exec('x'))]`},
		{"unquoted field", `[(state, '=', 'posted')]`},
		{"two-element tuple", `[('state', '=')]`},
		{"trailing prose", `[('state', '=', 'posted')] as requested`},
		{"unterminated", `[('state', '=', 'posted'`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseTupleList(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestParseTupleList_Idempotent(t *testing.T) {
	input := `[('state', '!=', 'posted'), ('amount_total', '>=', 100), ('payment_state', 'in', ['not_paid', 'partial'])]`

	first, err := parseTupleList(input)
	require.NoError(t, err)
	second, err := parseTupleList(input)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.String(), second.String())
}

func TestLenientParse_UnquotedTokens(t *testing.T) {
	filter, err := lenientParse(`[(state, =, posted), ('amount_total', '>', 100)]`)
	require.NoError(t, err)
	require.Len(t, filter, 2)

	assert.Equal(t, "state", filter[0].Field)
	assert.Equal(t, models.OpEq, filter[0].Operator)
	assert.Equal(t, "posted", filter[0].Value)
	assert.Equal(t, int64(100), filter[1].Value)
}

func TestLenientParse_JunkBetweenTuples(t *testing.T) {
	filter, err := lenientParse(`Here is the filter: [('state', '=', 'draft') and also ('active', '=', True)]`)
	require.NoError(t, err)
	require.Len(t, filter, 2)
	assert.Equal(t, "state", filter[0].Field)
	assert.Equal(t, "active", filter[1].Field)
	assert.Equal(t, true, filter[1].Value)
}

func TestLenientParse_NoTuples(t *testing.T) {
	_, err := lenientParse("no structure here at all")
	assert.Error(t, err)
}

func TestSplitTopLevel(t *testing.T) {
	parts := splitTopLevel(`'state', 'in', ['a,b', 'c']`)
	require.Len(t, parts, 3)
	assert.Equal(t, `['a,b', 'c']`, parts[2])
}
