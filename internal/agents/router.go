package agents

import (
	"context"
	"math/rand"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Mode string

const (
	ModeAuto      Mode = "auto"
	ModeForcedOn  Mode = "forced_on"
	ModeForcedOff Mode = "forced_off"
)

// ParseMode maps a caller-supplied string onto a Mode. Anything
// unrecognized falls back to auto; routing never fails.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeForcedOn, ModeForcedOff, ModeAuto:
		return Mode(s)
	default:
		return ModeAuto
	}
}

// Decision is the per-turn routing outcome.
type Decision struct {
	UseRetrieval      bool
	Mode              Mode
	SampleProbability float64
}

// Router decides whether a turn goes through retrieval. In auto mode it
// draws one Bernoulli sample from the configured probability; forced
// modes bypass the draw. The random source is injected so tests can pin
// the outcome.
type Router struct {
	prob   float64
	mu     sync.Mutex
	rng    *rand.Rand
	tracer trace.Tracer
}

func NewRouter(prob float64, rng *rand.Rand) *Router {
	if prob < 0 {
		prob = 0
	}
	if prob > 1 {
		prob = 1
	}
	return &Router{
		prob:   prob,
		rng:    rng,
		tracer: otel.Tracer("quantwiki.agents.router"),
	}
}

func (r *Router) Decide(ctx context.Context, turnText string, mode Mode) Decision {
	_, span := r.tracer.Start(ctx, "agent.router",
		trace.WithAttributes(attribute.String("router.mode", string(mode))))
	defer span.End()

	var d Decision
	switch mode {
	case ModeForcedOn:
		d = Decision{UseRetrieval: true, Mode: ModeForcedOn, SampleProbability: 1.0}
	case ModeForcedOff:
		d = Decision{UseRetrieval: false, Mode: ModeForcedOff, SampleProbability: 0.0}
	default:
		d = Decision{UseRetrieval: r.sample(), Mode: ModeAuto, SampleProbability: r.prob}
	}

	span.SetAttributes(
		attribute.Bool("router.use_retrieval", d.UseRetrieval),
		attribute.Float64("router.sample_probability", d.SampleProbability),
	)
	span.SetStatus(codes.Ok, "")
	return d
}

func (r *Router) sample() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64() < r.prob
}
