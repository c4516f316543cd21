package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"github.com/quantwiki/quantwiki/internal/providers/llm"
	"github.com/quantwiki/quantwiki/internal/providers/search"
)

type healthyProvider struct{ ok bool }

func (p *healthyProvider) Complete(context.Context, []llm.Message, llm.Options) (*llm.Completion, error) {
	return &llm.Completion{}, nil
}
func (p *healthyProvider) Healthy(context.Context) bool { return p.ok }
func (p *healthyProvider) Close() error                 { return nil }

type healthySearch struct{ ok bool }

func (s *healthySearch) Search(context.Context, string, int) ([]search.Hit, error) {
	return nil, nil
}
func (s *healthySearch) Healthy(context.Context) bool { return s.ok }

type healthyStore struct{ ok bool }

func (s *healthyStore) Healthy(context.Context) bool { return s.ok }

func checkHealth(t *testing.T, llmOK, searchOK, storeOK bool) *httptest.ResponseRecorder {
	t.Helper()
	h := NewHealthHandler(&healthyProvider{ok: llmOK}, &healthySearch{ok: searchOK}, &healthyStore{ok: storeOK})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/health", http.NoBody)
	h.Check(c)
	return w
}

func TestHealthHandler_Check(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Should report healthy when every backend is up", func(t *testing.T) {
		w := checkHealth(t, true, true, true)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "healthy", gjson.Get(w.Body.String(), "status").String())
		assert.True(t, gjson.Get(w.Body.String(), "store").Bool())
	})

	t.Run("Should report degraded when the store is unreachable", func(t *testing.T) {
		w := checkHealth(t, true, true, false)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "degraded", gjson.Get(w.Body.String(), "status").String())
		assert.False(t, gjson.Get(w.Body.String(), "store").Bool())
	})

	t.Run("Should report degraded when retrieval is unreachable", func(t *testing.T) {
		w := checkHealth(t, true, false, true)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "degraded", gjson.Get(w.Body.String(), "status").String())
	})

	t.Run("Should return 503 only when the LLM is unreachable", func(t *testing.T) {
		w := checkHealth(t, false, true, true)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "degraded", gjson.Get(w.Body.String(), "status").String())
	})
}
