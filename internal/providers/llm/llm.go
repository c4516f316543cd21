package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Options struct {
	Temperature float64
	MaxTokens   int
	// SpanName labels the trace span for this call, ex: "llm.generate_grounded".
	SpanName string
}

type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Provider is the completion backend. Implementations own their retry
// policy: Complete returns either a result or a typed failure after a
// bounded number of attempts.
type Provider interface {
	Complete(ctx context.Context, messages []Message, opts Options) (*Completion, error)
	Healthy(ctx context.Context) bool
	Close() error
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
