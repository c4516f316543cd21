package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quantwiki/quantwiki/internal/providers/llm"
	"github.com/quantwiki/quantwiki/internal/providers/search"
)

// StoreChecker reports whether the conversation store is reachable.
// Satisfied by services.ConversationService.
type StoreChecker interface {
	Healthy(ctx context.Context) bool
}

type HealthHandler struct {
	provider llm.Provider
	search   search.Service
	store    StoreChecker
}

func NewHealthHandler(provider llm.Provider, searchSvc search.Service, store StoreChecker) *HealthHandler {
	return &HealthHandler{provider: provider, search: searchSvc, store: store}
}

type HealthStatus struct {
	Status    string `json:"status"`
	LLM       bool   `json:"llm"`
	Retrieval bool   `json:"retrieval"`
	Store     bool   `json:"store"`
}

// Check reports degraded rather than failing when a collaborator is
// down; the service can still answer on the knowledge path.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()

	llmOK := h.provider.Healthy(ctx)
	retrievalOK := h.search.Healthy(ctx)
	storeOK := h.store.Healthy(ctx)

	status := "healthy"
	if !llmOK || !retrievalOK || !storeOK {
		status = "degraded"
	}

	code := http.StatusOK
	if !llmOK {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, HealthStatus{
		Status:    status,
		LLM:       llmOK,
		Retrieval: retrievalOK,
		Store:     storeOK,
	})
}
