package agents

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quantwiki/quantwiki/internal/models"
	"github.com/quantwiki/quantwiki/internal/utils"
)

// State names the stops of the per-turn pipeline. Transitions are
// strictly sequential; FAILED is reachable only from START (history
// load) and GENERATED (generation failure).
type State string

const (
	StateStart             State = "START"
	StateRouted            State = "ROUTED"
	StateRetrieved         State = "RETRIEVED"
	StateRetrievalSkipped  State = "RETRIEVAL_SKIPPED"
	StateRetrievalDegraded State = "RETRIEVAL_DEGRADED"
	StateGenerated         State = "GENERATED"
	StateReviewed          State = "REVIEWED"
	StateFormatted         State = "FORMATTED"
	StateDone              State = "DONE"
	StateFailed            State = "FAILED"
)

const failureText = "Sorry, something went wrong while answering. Please try again."

// ConversationStore is the durable history collaborator. Satisfied by
// services.ConversationService.
type ConversationStore interface {
	Append(ctx context.Context, conversationID, role, content string, meta *models.TurnMetadata) (*models.Turn, error)
	History(ctx context.Context, conversationID string, limit int) ([]models.Turn, error)
}

// TurnResult is the complete outcome of one pipeline run.
type TurnResult struct {
	FinalText string
	// Summary is the standalone TL;DR, empty when summary generation
	// failed or produced nothing.
	Summary       string
	UsedRetrieval bool
	// Degraded marks a turn that chose retrieval but fell back to the
	// no-context path after a retrieval failure.
	Degraded     bool
	Retrieved    *RetrievalResult
	Verdict      Verdict
	SourceTitles []string
	RouteMode    Mode
	TraceID      string
	// Persisted is false when the answer was computed but could not be
	// durably appended to history.
	Persisted bool
}

// Orchestrator sequences one turn: route, optionally retrieve, generate,
// review, format, persist. It holds no mutable state across turns.
type Orchestrator struct {
	router     *Router
	retriever  *Retriever
	generator  *Generator
	reviewer   *Reviewer
	formatter  *Formatter
	store      ConversationStore
	maxHistory int
	log        *logrus.Logger
	tracer     trace.Tracer
}

func NewOrchestrator(
	router *Router,
	retriever *Retriever,
	generator *Generator,
	reviewer *Reviewer,
	formatter *Formatter,
	store ConversationStore,
	maxHistory int,
	log *logrus.Logger,
) *Orchestrator {
	if maxHistory <= 0 {
		maxHistory = 10
	}
	return &Orchestrator{
		router:     router,
		retriever:  retriever,
		generator:  generator,
		reviewer:   reviewer,
		formatter:  formatter,
		store:      store,
		maxHistory: maxHistory,
		log:        log,
		tracer:     otel.Tracer("quantwiki.agents.orchestrator"),
	}
}

// ProcessTurn runs the full pipeline for one user message. The returned
// error is non-nil only for turn-level failures (history load or answer
// generation); every other fault is absorbed into the result's metadata.
// Failed turns are never appended to history.
func (o *Orchestrator) ProcessTurn(ctx context.Context, conversationID, userText string, mode Mode) (*TurnResult, error) {
	const op = "Orchestrator.ProcessTurn"

	if conversationID == "" || userText == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "conversation_id and message are required", nil)
	}

	ctx, span := o.tracer.Start(ctx, "chat.process_turn", trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("turn.override_mode", string(mode)),
		))
	defer span.End()

	traceID := ""
	if sc := span.SpanContext(); sc.HasTraceID() {
		traceID = sc.TraceID().String()
	}

	log := o.log.WithFields(logrus.Fields{
		"conversation_id": conversationID,
		"trace_id":        traceID,
	})

	state := StateStart

	// START -> ROUTED (history load precedes routing; a failed load
	// fails the turn before any model call).
	history, err := o.store.History(ctx, conversationID, o.maxHistory)
	if err != nil {
		state = StateFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("turn.state", string(state)))
		log.WithError(err).Error("history load failed")
		return o.failedResult(traceID, mode), utils.E(utils.CodeUnavailable, op, "conversation history unavailable", err)
	}

	decision := o.router.Decide(ctx, userText, mode)
	state = StateRouted
	log.WithFields(logrus.Fields{"state": state, "use_retrieval": decision.UseRetrieval}).Info("routed")

	// ROUTED -> RETRIEVED | RETRIEVAL_SKIPPED | RETRIEVAL_DEGRADED
	var retrieved *RetrievalResult
	degraded := false
	switch {
	case !decision.UseRetrieval:
		state = StateRetrievalSkipped
	default:
		retrieved, err = o.retriever.Retrieve(ctx, userText)
		if err != nil {
			// Recoverable: drop to the no-context path.
			state = StateRetrievalDegraded
			degraded = true
			retrieved = nil
			log.WithError(err).Warn("retrieval failed, degrading to no-context generation")
		} else {
			state = StateRetrieved
		}
	}
	usedRetrieval := decision.UseRetrieval && !degraded
	log.WithField("state", state).Info("retrieval step complete")

	// -> GENERATED; the only model step whose failure fails the turn.
	draft, err := o.generator.Generate(ctx, userText, history, retrieved)
	if err != nil {
		state = StateFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("turn.state", string(state)))
		log.WithError(err).Error("generation failed")
		res := o.failedResult(traceID, decision.Mode)
		res.UsedRetrieval = usedRetrieval
		res.Degraded = degraded
		return res, utils.E(utils.CodeUnavailable, op, "answer generation failed", err)
	}
	state = StateGenerated

	// GENERATED -> REVIEWED; cannot fail (fallback verdict inside).
	verdict := o.reviewer.Review(ctx, userText, draft, retrieved)
	state = StateReviewed
	log.WithFields(logrus.Fields{"state": state, "review_label": verdict.Label}).Info("reviewed")

	// REVIEWED -> FORMATTED; summary is best-effort inside.
	formatted := o.formatter.Format(ctx, draft, verdict, retrieved)
	state = StateFormatted

	result := &TurnResult{
		FinalText:     formatted.Text,
		Summary:       formatted.Summary,
		UsedRetrieval: usedRetrieval,
		Degraded:      degraded,
		Retrieved:     retrieved,
		Verdict:       verdict,
		SourceTitles:  retrieved.Titles(),
		RouteMode:     decision.Mode,
		TraceID:       traceID,
	}

	// FORMATTED -> DONE: persist both turns. A failed append is
	// non-fatal; the answer was computed and is still returned.
	result.Persisted = o.persist(ctx, conversationID, userText, result, log)
	state = StateDone

	span.SetAttributes(
		attribute.String("turn.state", string(state)),
		attribute.Bool("turn.used_retrieval", result.UsedRetrieval),
		attribute.Bool("turn.degraded", result.Degraded),
		attribute.String("turn.review_label", result.Verdict.Label),
		attribute.Bool("turn.persisted", result.Persisted),
	)
	span.SetStatus(codes.Ok, "")
	return result, nil
}

func (o *Orchestrator) persist(ctx context.Context, conversationID, userText string, result *TurnResult, log *logrus.Entry) bool {
	if _, err := o.store.Append(ctx, conversationID, models.RoleUser, userText, nil); err != nil {
		log.WithError(err).Warn("failed to append user turn")
		return false
	}

	meta := &models.TurnMetadata{
		UsedRetrieval:     result.UsedRetrieval,
		RetrievalDegraded: result.Degraded,
		RouteMode:         string(result.RouteMode),
		ReviewLabel:       result.Verdict.Label,
		ReviewConfidence:  result.Verdict.Confidence,
		SourceTitles:      result.SourceTitles,
		Summary:           result.Summary,
		TraceID:           result.TraceID,
	}
	if _, err := o.store.Append(ctx, conversationID, models.RoleAssistant, result.FinalText, meta); err != nil {
		log.WithError(err).Warn("failed to append assistant turn")
		return false
	}
	return true
}

func (o *Orchestrator) failedResult(traceID string, mode Mode) *TurnResult {
	return &TurnResult{
		FinalText: failureText,
		Verdict:   FallbackVerdict(),
		RouteMode: mode,
		TraceID:   traceID,
	}
}
