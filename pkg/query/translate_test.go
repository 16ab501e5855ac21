package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cercalo-ai/cercalo-engine/pkg/llm"
	"github.com/cercalo-ai/cercalo-engine/pkg/models"
)

func TestBuildPrompt_Deterministic(t *testing.T) {
	desc := describe(t, "invoices")
	first := buildPrompt("unpaid invoices", desc)
	second := buildPrompt("unpaid invoices", desc)
	assert.Equal(t, first, second)
}

func TestBuildPrompt_ListsOnlyQueryableFields(t *testing.T) {
	desc := describe(t, "products")
	prompt := buildPrompt("cheap products", desc)

	assert.Contains(t, prompt, "list_price")
	assert.Contains(t, prompt, "barcode")
	assert.NotContains(t, prompt, "qty_available", "derived fields must not be offered to the model")
}

func TestBuildPrompt_ContainsExamplesAndText(t *testing.T) {
	desc := describe(t, "invoices")
	prompt := buildPrompt("fatture non pagate", desc)

	assert.Contains(t, prompt, "fatture non pagate")
	assert.Contains(t, prompt, `[('payment_state', '=', 'not_paid'), ('state', '=', 'posted')]`)
	assert.Contains(t, prompt, "YYYY-MM-DD")
}

func TestBuildPrompt_GenericExamplesForCustomEntity(t *testing.T) {
	desc := &models.EntityDescriptor{
		Name:  "tickets",
		Label: "Support Tickets",
		Fields: []models.FieldDescriptor{
			{Name: "subject", Type: models.FieldTypeText, Label: "Subject", Queryable: true},
			{Name: "priority", Type: models.FieldTypeNumber, Label: "Priority", Queryable: true},
		},
	}
	prompt := buildPrompt("urgent tickets", desc)

	assert.Contains(t, prompt, "subject")
	assert.Contains(t, prompt, "priority")
	assert.True(t, strings.Contains(prompt, "[("), "generic examples must still show tuple shape")
}

func TestTranslator_PassesRawResponseThrough(t *testing.T) {
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64, maxTokens int) (string, error) {
		assert.InDelta(t, translateTemperature, temperature, 0.001)
		assert.Equal(t, translateMaxTokens, maxTokens)
		return "```\n[('active','=',True)]\n```", nil
	}

	tr := NewTranslator(mock, zap.NewNop())
	raw, err := tr.Translate(context.Background(), "active partners", describe(t, "partners"))
	require.NoError(t, err)

	// The translator must not interpret or clean the output.
	assert.Equal(t, "```\n[('active','=',True)]\n```", raw)
	assert.Equal(t, 1, mock.CompleteCalls)
	assert.Contains(t, mock.LastSystem, "filter expressions")
}

func TestTranslator_PropagatesClientError(t *testing.T) {
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64, maxTokens int) (string, error) {
		return "", llm.NewError(llm.ErrorTypeAuth, "authentication failed", false, errors.New("401"))
	}

	tr := NewTranslator(mock, zap.NewNop())
	_, err := tr.Translate(context.Background(), "anything", describe(t, "partners"))
	require.Error(t, err)
	assert.Equal(t, llm.ErrorTypeAuth, llm.GetErrorType(err))
}
