package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quantwiki/quantwiki/internal/utils"
)

const (
	ollamaRetryAttempts = 3
	ollamaBackoffBase   = 2 * time.Second
	ollamaBackoffMax    = 10 * time.Second
)

// Ollama talks to the Ollama HTTP API for completions and embeddings.
type Ollama struct {
	client     *resty.Client
	model      string
	embedModel string
	tracer     trace.Tracer
}

func NewOllama(host, model, embedModel string, timeout time.Duration) *Ollama {
	client := resty.New().
		SetBaseURL(host).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &Ollama{
		client:     client,
		model:      model,
		embedModel: embedModel,
		tracer:     otel.Tracer("quantwiki.llm.ollama"),
	}
}

type ollamaChatRequest struct {
	Model    string            `json:"model"`
	Messages []Message         `json:"messages"`
	Stream   bool              `json:"stream"`
	Options  ollamaChatOptions `json:"options"`
}

type ollamaChatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	PromptEvalCount int `json:"prompt_eval_count"`
	EvalCount       int `json:"eval_count"`
}

func (o *Ollama) Complete(ctx context.Context, messages []Message, opts Options) (*Completion, error) {
	const op = "Ollama.Complete"

	spanName := opts.SpanName
	if spanName == "" {
		spanName = "llm.complete"
	}
	ctx, span := o.tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.model", o.model),
			attribute.Float64("llm.temperature", opts.Temperature),
			attribute.Int("llm.input_messages", len(messages)),
		))
	defer span.End()

	payload := ollamaChatRequest{
		Model:    o.model,
		Messages: messages,
		Stream:   false,
		Options: ollamaChatOptions{
			Temperature: opts.Temperature,
			NumPredict:  opts.MaxTokens,
		},
	}

	backoff := retry.WithMaxRetries(ollamaRetryAttempts-1,
		retry.WithMaxDuration(ollamaBackoffMax, retry.NewExponential(ollamaBackoffBase)))

	var result ollamaChatResponse
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, callErr := o.client.R().
			SetContext(ctx).
			SetBody(payload).
			SetResult(&result).
			Post("/api/chat")
		if callErr != nil {
			return retry.RetryableError(callErr)
		}
		if resp.IsError() {
			callErr = fmt.Errorf("ollama chat: status %d: %s", resp.StatusCode(), resp.String())
			if resp.StatusCode() >= 500 || resp.StatusCode() == 429 {
				return retry.RetryableError(callErr)
			}
			return callErr
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, utils.E(utils.CodeUnavailable, op, "completion service unavailable", err)
	}

	span.SetAttributes(
		attribute.Int("llm.token_count.prompt", result.PromptEvalCount),
		attribute.Int("llm.token_count.completion", result.EvalCount),
		attribute.Int("llm.output_chars", len(result.Message.Content)),
	)
	span.SetStatus(codes.Ok, "")

	return &Completion{
		Text:             result.Message.Content,
		PromptTokens:     result.PromptEvalCount,
		CompletionTokens: result.EvalCount,
	}, nil
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (o *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	const op = "Ollama.Embed"

	var result ollamaEmbedResponse
	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(ollamaEmbedRequest{Model: o.embedModel, Input: text}).
		SetResult(&result).
		Post("/api/embed")
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "embedding service unavailable", err)
	}
	if resp.IsError() {
		return nil, utils.E(utils.CodeUnavailable, op, "embedding service unavailable",
			fmt.Errorf("ollama embed: status %d", resp.StatusCode()))
	}
	if len(result.Embeddings) == 0 {
		return nil, utils.E(utils.CodeInternal, op, "embedding service returned no vectors", nil)
	}
	return result.Embeddings[0], nil
}

func (o *Ollama) Healthy(ctx context.Context) bool {
	resp, err := o.client.R().SetContext(ctx).Get("/api/tags")
	return err == nil && !resp.IsError()
}

func (o *Ollama) Close() error { return nil }
