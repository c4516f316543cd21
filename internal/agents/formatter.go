package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/quantwiki/quantwiki/internal/providers/llm"
)

const (
	summaryTemperature = 0.3
	summaryMaxTokens   = 200
)

// Formatted is the assembled response plus the standalone summary, so
// callers can surface the TL;DR separately from the rendered text.
type Formatted struct {
	Text    string
	Summary string
}

// Formatter assembles the final user-visible message: draft body, a
// best-effort TL;DR, a sources section, and a caution notice when the
// review flagged the draft.
type Formatter struct {
	provider llm.Provider
	log      *logrus.Logger
	tracer   trace.Tracer
}

func NewFormatter(provider llm.Provider, log *logrus.Logger) *Formatter {
	return &Formatter{
		provider: provider,
		log:      log,
		tracer:   otel.Tracer("quantwiki.agents.formatter"),
	}
}

func (f *Formatter) Format(ctx context.Context, draft string, verdict Verdict, retrieved *RetrievalResult) Formatted {
	ctx, span := f.tracer.Start(ctx, "agent.formatter",
		trace.WithAttributes(attribute.String("format.review_label", verdict.Label)))
	defer span.End()

	var b strings.Builder
	b.WriteString(draft)

	// Summary is best-effort; a failed request just drops the section.
	summary, err := f.summarize(ctx, draft)
	if err != nil {
		f.log.WithError(err).Warn("summary generation failed, omitting section")
		summary = ""
	} else if summary != "" {
		b.WriteString("\n\n---\n**TL;DR:** ")
		b.WriteString(summary)
	}

	if titles := sourceLines(retrieved); len(titles) > 0 {
		b.WriteString("\n\n---\n### Sources\n")
		for _, line := range titles {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	if verdict.Label != LabelGood {
		b.WriteString("\n\n---\n**Note:** This response may contain inaccuracies. Review: ")
		b.WriteString(verdict.Rationale)
	}

	out := Formatted{Text: b.String(), Summary: summary}
	span.SetAttributes(attribute.Int("format.total_chars", len(out.Text)))
	return out
}

func (f *Formatter) summarize(ctx context.Context, draft string) (string, error) {
	completion, err := f.provider.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: "You are a helpful assistant that creates brief summaries."},
		{Role: llm.RoleUser, Content: fmt.Sprintf("Create a brief 1-2 sentence summary of this answer:\n\n%s\n\nSummary:", draft)},
	}, llm.Options{
		Temperature: summaryTemperature,
		MaxTokens:   summaryMaxTokens,
		SpanName:    "llm.generate_summary",
	})
	if err != nil {
		return "", err
	}

	summary := strings.TrimSpace(completion.Text)
	for _, prefix := range []string{"tl;dr:", "tldr:", "summary:"} {
		if strings.HasPrefix(strings.ToLower(summary), prefix) {
			summary = strings.TrimSpace(summary[len(prefix):])
		}
	}
	return summary, nil
}

// sourceLines dedups by title and keeps rank order. A nil or empty
// retrieval (skipped or degraded turn) yields no section.
func sourceLines(retrieved *RetrievalResult) []string {
	if retrieved == nil || len(retrieved.Passages) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(retrieved.Passages))
	lines := make([]string, 0, len(retrieved.Passages))
	for _, p := range retrieved.Passages {
		if _, ok := seen[p.Title]; ok {
			continue
		}
		seen[p.Title] = struct{}{}
		if p.URL != "" {
			lines = append(lines, fmt.Sprintf("- [%s](%s) (%s)", p.Title, p.URL, p.SourceID))
		} else {
			lines = append(lines, fmt.Sprintf("- %s (%s)", p.Title, p.SourceID))
		}
	}
	return lines
}
