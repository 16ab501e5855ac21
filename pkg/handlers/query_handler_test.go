package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cercalo-ai/cercalo-engine/pkg/llm"
	"github.com/cercalo-ai/cercalo-engine/pkg/query"
	"github.com/cercalo-ai/cercalo-engine/pkg/retry"
	"github.com/cercalo-ai/cercalo-engine/pkg/schema"
	"github.com/cercalo-ai/cercalo-engine/pkg/store"
)

func newTestHandler(t *testing.T, mock *llm.MockClient, seed func(*store.MemoryStore)) *QueryHandler {
	t.Helper()

	catalog := schema.Default()
	memStore := store.NewMemoryStore(catalog)
	if seed != nil {
		seed(memStore)
	}
	logger := zap.NewNop()

	orchestrator := query.NewOrchestrator(
		catalog,
		query.NewMatcher(query.DefaultPatterns()),
		query.NewExecutor(memStore, logger),
		query.NewTranslator(mock, logger),
		query.NewResolver(logger),
		memStore,
		llm.NewRateLimiter(5, time.Minute, nil),
		llm.NewCircuitBreaker(llm.DefaultCircuitBreakerConfig()),
		&retry.Config{MaxRetries: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1, MaxSameErrorType: 5},
		nil,
		logger,
		query.Options{},
	)

	return NewQueryHandler(orchestrator, catalog, logger)
}

func TestQueryHandler_Success(t *testing.T) {
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64, maxTokens int) (string, error) {
		return `[('payment_state', '=', 'not_paid')]`, nil
	}
	h := newTestHandler(t, mock, func(s *store.MemoryStore) {
		s.Add("invoices",
			store.Record{ID: 1, Values: map[string]any{"name": "INV/001", "payment_state": "not_paid"}},
			store.Record{ID: 2, Values: map[string]any{"name": "INV/002", "payment_state": "paid"}},
		)
	})

	body := `{"text": "unpaid invoices", "category": "invoices", "user_id": "u1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Query(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, int64(1), resp.Results[0].ID)
	assert.Equal(t, "INV/001", resp.Results[0].DisplayName)
	assert.Equal(t, `[('payment_state', '=', 'not_paid')]`, resp.FilterOrPattern)
	assert.NotEmpty(t, resp.QueryRef)
	assert.Empty(t, resp.Error)
}

func TestQueryHandler_FailureIsStructured(t *testing.T) {
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temperature float64, maxTokens int) (string, error) {
		return "sorry, no idea", nil
	}
	h := newTestHandler(t, mock, nil)

	body := `{"text": "gibberish", "category": "invoices"}`
	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Query(rec, req)

	// Failures still return 200 with success=false; an exception never
	// crosses the API boundary.
	require.Equal(t, http.StatusOK, rec.Code)

	var resp QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
	assert.NotNil(t, resp.Results)
	assert.Equal(t, 0, resp.Count)
}

func TestQueryHandler_Validation(t *testing.T) {
	h := newTestHandler(t, llm.NewMockClient(), nil)

	t.Run("missing text", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"category": "invoices"}`))
		rec := httptest.NewRecorder()
		h.Query(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{`))
		rec := httptest.NewRecorder()
		h.Query(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/query", nil)
		rec := httptest.NewRecorder()
		h.Query(rec, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestQueryHandler_Entities(t *testing.T) {
	h := newTestHandler(t, llm.NewMockClient(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/entities", nil)
	rec := httptest.NewRecorder()
	h.Entities(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Entities   []map[string]string `json:"entities"`
		Categories []string            `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Entities, 4)
	assert.Contains(t, resp.Categories, "customers")
	assert.Contains(t, resp.Categories, "fatture")
}

func TestQueryHandler_Fields(t *testing.T) {
	h := newTestHandler(t, llm.NewMockClient(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/entities/fields?entity=products", nil)
	rec := httptest.NewRecorder()
	h.Fields(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Entity    string      `json:"entity"`
		Queryable []FieldInfo `json:"queryable"`
		Derived   []FieldInfo `json:"derived"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "products", resp.Entity)

	names := make([]string, 0, len(resp.Derived))
	for _, f := range resp.Derived {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"qty_available"}, names)
}

func TestQueryHandler_FieldsUnknownEntity(t *testing.T) {
	h := newTestHandler(t, llm.NewMockClient(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/entities/fields?entity=warehouses", nil)
	rec := httptest.NewRecorder()
	h.Fields(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
