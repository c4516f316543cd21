package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/quantwiki/quantwiki/internal/api/handlers"
)

type Deps struct {
	Chat         *handlers.ChatHandler
	Conversation *handlers.ConversationHandler
	Health       *handlers.HealthHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/health", d.Health.Check)

	r.POST("/chat", d.Chat.Chat)
	r.GET("/conversations", d.Conversation.List)
	r.GET("/conversations/:conversation_id", d.Conversation.History)
}
