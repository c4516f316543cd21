package config

import (
	"os"
	"strconv"
)

// Settings holds everything the pipeline reads from the environment.
// Constructed once in main and passed down explicitly.
type Settings struct {
	// Ollama
	OllamaHost    string
	OllamaModel   string
	EmbedModel    string
	OllamaTimeout int // seconds

	// LLM provider selection: "ollama" | "vertex"
	LLMProvider    string
	VertexProject  string
	VertexLocation string
	VertexModel    string

	// Tracing
	OTLPEndpoint string
	ServiceName  string

	// RAG
	TopK             int
	ContextCharLimit int
	RetrievalProb    float64
	CacheTTLSeconds  int

	// Chat
	MaxHistoryTurns int

	// API
	Port string
}

func Load() Settings {
	return Settings{
		OllamaHost:    envStr("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:   envStr("OLLAMA_MODEL", "gpt-oss:20b"),
		EmbedModel:    envStr("EMBED_MODEL", "nomic-embed-text"),
		OllamaTimeout: envInt("OLLAMA_TIMEOUT", 120),

		LLMProvider:    envStr("LLM_PROVIDER", "ollama"),
		VertexProject:  os.Getenv("VERTEX_PROJECT_ID"),
		VertexLocation: envStr("VERTEX_LOCATION", "us-central1"),
		VertexModel:    envStr("VERTEX_MODEL", "gemini-1.5-flash"),

		OTLPEndpoint: os.Getenv("OTLP_ENDPOINT"),
		ServiceName:  envStr("OTEL_SERVICE_NAME", "quantwiki"),

		TopK:             envInt("RAG_TOP_K", 5),
		ContextCharLimit: envInt("RAG_CONTEXT_CHAR_LIMIT", 6000),
		RetrievalProb:    envFloat("RAG_SAMPLE_PROBABILITY", 0.5),
		CacheTTLSeconds:  envInt("RAG_CACHE_TTL_SECONDS", 300),

		MaxHistoryTurns: envInt("MAX_CHAT_HISTORY", 10),

		Port: envStr("PORT", "8080"),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
