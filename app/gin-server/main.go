package main

import (
	"context"
	"math/rand"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/quantwiki/quantwiki/config"
	"github.com/quantwiki/quantwiki/internal/agents"
	"github.com/quantwiki/quantwiki/internal/api/handlers"
	"github.com/quantwiki/quantwiki/internal/api/middleware"
	"github.com/quantwiki/quantwiki/internal/api/routes"
	"github.com/quantwiki/quantwiki/internal/logger"
	"github.com/quantwiki/quantwiki/internal/providers/llm"
	"github.com/quantwiki/quantwiki/internal/providers/search"
	pgrepo "github.com/quantwiki/quantwiki/internal/repositories/postgres"
	"github.com/quantwiki/quantwiki/internal/services"
	"github.com/quantwiki/quantwiki/internal/tracing"
)

func main() {
	_ = godotenv.Load()

	settings := config.Load()
	log := logger.New("quantwiki")
	ctx := context.Background()

	shutdownTracing, err := tracing.Setup(ctx, settings.ServiceName, settings.OTLPEndpoint)
	if err != nil {
		log.WithError(err).Warn("tracing setup failed, continuing without export")
		shutdownTracing = func(context.Context) error { return nil }
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	db, err := config.OpenPostgres()
	if err != nil {
		log.WithError(err).Fatal("postgres init failed")
	}
	log.Info("postgres connected")

	rdb, err := config.OpenRedis(ctx)
	if err != nil {
		log.WithError(err).Warn("redis init failed, retrieval cache disabled")
		rdb = nil
	}

	ollama := llm.NewOllama(
		settings.OllamaHost,
		settings.OllamaModel,
		settings.EmbedModel,
		time.Duration(settings.OllamaTimeout)*time.Second,
	)

	var provider llm.Provider = ollama
	if settings.LLMProvider == "vertex" {
		vertex, err := llm.NewVertexGemini(ctx, settings.VertexProject, settings.VertexLocation, settings.VertexModel)
		if err != nil {
			log.WithError(err).Fatal("vertex init failed")
		}
		defer vertex.Close()
		provider = vertex
	}
	log.WithField("provider", settings.LLMProvider).Info("llm provider ready")

	turnRepo := pgrepo.NewTurnRepo(db)
	chunkRepo := pgrepo.NewChunkRepo(db)
	conversations := services.NewConversationService(turnRepo)

	var searchSvc search.Service = search.NewPgvectorSearch(chunkRepo, ollama)
	if rdb != nil {
		searchSvc = search.NewCachedSearch(searchSvc, rdb,
			time.Duration(settings.CacheTTLSeconds)*time.Second, log)
		log.Info("retrieval cache enabled")
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	orchestrator := agents.NewOrchestrator(
		agents.NewRouter(settings.RetrievalProb, rng),
		agents.NewRetriever(searchSvc, settings.TopK, settings.ContextCharLimit),
		agents.NewGenerator(provider),
		agents.NewReviewer(provider, log),
		agents.NewFormatter(provider, log),
		conversations,
		settings.MaxHistoryTurns,
		log,
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Deps{
		Chat:         handlers.NewChatHandler(orchestrator),
		Conversation: handlers.NewConversationHandler(conversations),
		Health:       handlers.NewHealthHandler(provider, searchSvc, conversations),
	})

	log.WithField("port", settings.Port).Info("starting server")
	if err := r.Run(":" + settings.Port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
