package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quantwiki/quantwiki/internal/agents"
	"github.com/quantwiki/quantwiki/internal/utils"
)

type ChatHandler struct {
	orchestrator *agents.Orchestrator
}

func NewChatHandler(orchestrator *agents.Orchestrator) *ChatHandler {
	return &ChatHandler{orchestrator: orchestrator}
}

type ChatRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	Message        string `json:"message" binding:"required"`
	OverrideMode   string `json:"override_mode"`
}

type MessageMetadata struct {
	UsedRetrieval     bool     `json:"used_retrieval"`
	RetrievalDegraded bool     `json:"retrieval_degraded"`
	RouteMode         string   `json:"route_mode"`
	ReviewLabel       string   `json:"review_label"`
	ReviewConfidence  float64  `json:"review_confidence"`
	SourceTitles      []string `json:"source_titles"`
	TLDR              string   `json:"tldr,omitempty"`
	TraceID           string   `json:"trace_id,omitempty"`
	Persisted         bool     `json:"persisted"`
}

type AssistantMessage struct {
	Role     string          `json:"role"`
	Content  string          `json:"content"`
	Metadata MessageMetadata `json:"metadata"`
}

type ChatResponse struct {
	ConversationID string           `json:"conversation_id"`
	Message        AssistantMessage `json:"message"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChatHandler.Chat", "conversation_id and message are required", err))
		return
	}

	mode := agents.ParseMode(req.OverrideMode)
	result, err := h.orchestrator.ProcessTurn(c.Request.Context(), req.ConversationID, req.Message, mode)
	if err != nil {
		writeError(c, err)
		return
	}

	titles := result.SourceTitles
	if titles == nil {
		titles = []string{}
	}

	c.JSON(http.StatusOK, ChatResponse{
		ConversationID: req.ConversationID,
		Message: AssistantMessage{
			Role:    "assistant",
			Content: result.FinalText,
			Metadata: MessageMetadata{
				UsedRetrieval:     result.UsedRetrieval,
				RetrievalDegraded: result.Degraded,
				RouteMode:         string(result.RouteMode),
				ReviewLabel:       result.Verdict.Label,
				ReviewConfidence:  result.Verdict.Confidence,
				SourceTitles:      titles,
				TLDR:              result.Summary,
				TraceID:           result.TraceID,
				Persisted:         result.Persisted,
			},
		},
	})
}
