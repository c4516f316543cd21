package llm

import (
	"context"
	"fmt"

	vertexgenai "cloud.google.com/go/vertexai/genai"

	"github.com/quantwiki/quantwiki/internal/utils"
)

// VertexGemini is the managed alternative to the local Ollama backend.
// The Vertex SDK handles retries internally.
type VertexGemini struct {
	client    *vertexgenai.Client
	modelName string
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	return &VertexGemini{client: c, modelName: modelName}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

func (v *VertexGemini) Complete(ctx context.Context, messages []Message, opts Options) (*Completion, error) {
	const op = "VertexGemini.Complete"

	if len(messages) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "no messages", nil)
	}

	model := v.client.GenerativeModel(v.modelName)
	model.SetTemperature(float32(opts.Temperature))
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}

	last := messages[len(messages)-1]
	var history []*vertexgenai.Content
	for _, m := range messages[:len(messages)-1] {
		switch m.Role {
		case RoleSystem:
			model.SystemInstruction = &vertexgenai.Content{
				Parts: []vertexgenai.Part{vertexgenai.Text(m.Content)},
			}
		case RoleAssistant:
			history = append(history, &vertexgenai.Content{
				Role:  "model",
				Parts: []vertexgenai.Part{vertexgenai.Text(m.Content)},
			})
		default:
			history = append(history, &vertexgenai.Content{
				Role:  "user",
				Parts: []vertexgenai.Part{vertexgenai.Text(m.Content)},
			})
		}
	}

	cs := model.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, vertexgenai.Text(last.Content))
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "completion service unavailable", err)
	}

	var text string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok {
				text += string(t)
			}
		}
	}
	if text == "" {
		return nil, utils.E(utils.CodeInternal, op, "completion service returned no text", fmt.Errorf("empty candidates"))
	}

	out := &Completion{Text: text}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

func (v *VertexGemini) Healthy(ctx context.Context) bool {
	// No cheap liveness endpoint; a constructed client is assumed usable.
	return v.client != nil
}
