package agents

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quantwiki/quantwiki/internal/models"
	"github.com/quantwiki/quantwiki/internal/providers/llm"
)

const (
	groundedSystemPrompt = `You are a helpful quantum physics assistant. Answer questions based ONLY on the provided context.

Instructions:
- Use ONLY information from the provided context to answer
- If the context doesn't contain enough information, say so clearly
- Be concise but accurate
- Cite sources when possible (mention article titles)
- If you're uncertain, express that uncertainty
- Do not make up or infer information not in the context`

	knowledgeSystemPrompt = `You are a knowledgeable quantum physics assistant. Answer questions about quantum mechanics and related topics using your knowledge.

Instructions:
- Provide clear, accurate explanations
- Be honest about uncertainty or limitations
- Use examples when helpful
- Keep responses concise but informative`

	groundedTemperature  = 0.3
	knowledgeTemperature = 0.7

	// historyWindow is the number of prior turns included in the prompt,
	// most recent first when trimming.
	historyWindow = 6
)

// Generator produces the draft answer. With context present it runs in
// grounded mode at a lower temperature; without it, knowledge mode.
type Generator struct {
	provider llm.Provider
	tracer   trace.Tracer
}

func NewGenerator(provider llm.Provider) *Generator {
	return &Generator{
		provider: provider,
		tracer:   otel.Tracer("quantwiki.agents.generator"),
	}
}

func (g *Generator) Generate(ctx context.Context, turnText string, history []models.Turn, retrieved *RetrievalResult) (string, error) {
	grounded := retrieved != nil && len(retrieved.Passages) > 0

	mode := "knowledge"
	temperature := knowledgeTemperature
	if grounded {
		mode = "grounded"
		temperature = groundedTemperature
	}

	ctx, span := g.tracer.Start(ctx, "agent.generator",
		trace.WithAttributes(
			attribute.String("generator.mode", mode),
			attribute.Float64("generator.temperature", temperature),
		))
	defer span.End()

	messages := g.buildMessages(turnText, history, retrieved, grounded)

	completion, err := g.provider.Complete(ctx, messages, llm.Options{
		Temperature: temperature,
		SpanName:    "llm.generate_" + mode,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(attribute.Int("generator.draft_chars", len(completion.Text)))
	span.SetStatus(codes.Ok, "")
	return completion.Text, nil
}

func (g *Generator) buildMessages(turnText string, history []models.Turn, retrieved *RetrievalResult, grounded bool) []llm.Message {
	system := knowledgeSystemPrompt
	if grounded {
		system = groundedSystemPrompt
	}

	messages := []llm.Message{{Role: llm.RoleSystem, Content: system}}

	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}

	if grounded {
		messages = append(messages, llm.Message{
			Role: llm.RoleUser,
			Content: fmt.Sprintf("%s\nQUESTION: %s\n\nAnswer based on the context above; do not assert claims the context does not support.",
				retrieved.ContextBlock(), turnText),
		})
	} else {
		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: turnText})
	}
	return messages
}
