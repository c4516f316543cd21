package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quantwiki/quantwiki/internal/providers/llm"
)

const (
	reviewTemperature = 0.1

	// Reviewing checks the draft against the strongest evidence only.
	reviewContextPassages = 3

	verdictFormat = `Provide your review in this JSON format:
{
    "label": "good|needs_revision|bad",
    "rationale": "Brief explanation of your assessment",
    "suggestions": "Specific improvements (if needed)",
    "confidence": 0.0-1.0
}

REVIEW (JSON only):`
)

// Reviewer audits a draft for unsupported claims. It never fails the
// pipeline: any completion or parse failure resolves to the fallback
// verdict.
type Reviewer struct {
	provider llm.Provider
	log      *logrus.Logger
	tracer   trace.Tracer
}

func NewReviewer(provider llm.Provider, log *logrus.Logger) *Reviewer {
	return &Reviewer{
		provider: provider,
		log:      log,
		tracer:   otel.Tracer("quantwiki.agents.reviewer"),
	}
}

func (r *Reviewer) Review(ctx context.Context, question, draft string, retrieved *RetrievalResult) Verdict {
	grounded := retrieved != nil && len(retrieved.Passages) > 0

	mode := "knowledge"
	if grounded {
		mode = "grounded"
	}

	ctx, span := r.tracer.Start(ctx, "agent.reviewer",
		trace.WithAttributes(attribute.String("reviewer.mode", mode)))
	defer span.End()

	var prompt string
	if grounded {
		prompt = groundedReviewPrompt(question, draft, retrieved)
	} else {
		prompt = knowledgeReviewPrompt(question, draft)
	}

	completion, err := r.provider.Complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, llm.Options{
		Temperature: reviewTemperature,
		SpanName:    "llm.review_" + mode,
	})
	if err != nil {
		r.log.WithError(err).Warn("review completion failed, using fallback verdict")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return FallbackVerdict()
	}

	verdict, ok := ParseVerdict(completion.Text)
	if !ok {
		r.log.Warn("review output could not be parsed, using fallback verdict")
	}

	span.SetAttributes(
		attribute.String("review.label", verdict.Label),
		attribute.Float64("review.confidence", verdict.Confidence),
		attribute.Bool("review.parsed", ok),
	)
	span.SetStatus(codes.Ok, "")
	return verdict
}

func groundedReviewPrompt(question, draft string, retrieved *RetrievalResult) string {
	passages := retrieved.Passages
	if len(passages) > reviewContextPassages {
		passages = passages[:reviewContextPassages]
	}

	var context strings.Builder
	for _, p := range passages {
		fmt.Fprintf(&context, "Source: %s\n%s\n\n", p.Title, p.Snippet)
	}

	return fmt.Sprintf(`You are an accuracy reviewer for quantum physics explanations.

TASK: Review the answer below for accuracy and support from the provided context.

CONTEXT:
%s
QUESTION: %s

ANSWER TO REVIEW:
%s

INSTRUCTIONS:
1. Check if the answer is supported by the context
2. Identify any claims NOT supported by the context
3. Rate the answer as:
   - "good": Well supported, accurate
   - "needs_revision": Some unsupported claims or minor issues
   - "bad": Mostly unsupported or contains clear errors

%s`, context.String(), question, draft, verdictFormat)
}

func knowledgeReviewPrompt(question, draft string) string {
	return fmt.Sprintf(`You are an accuracy reviewer for quantum physics explanations.

TASK: Review the answer below for general correctness and common misconceptions.

QUESTION: %s

ANSWER TO REVIEW:
%s

INSTRUCTIONS:
1. Check for obvious errors or misconceptions
2. Verify that quantum physics concepts are used correctly
3. Rate the answer as:
   - "good": Appears correct, no obvious errors
   - "needs_revision": Some questionable claims
   - "bad": Contains clear errors or misconceptions

%s`, question, draft, verdictFormat)
}
