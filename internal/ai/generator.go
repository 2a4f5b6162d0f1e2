package ai

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"storyforge/internal/model"
)

// ErrNoCandidates is reported when the selector yields no model names.
var ErrNoCandidates = errors.New("no model candidates")

// Attempt outcomes reported to a Recorder.
const (
	OutcomeOK         = "ok"
	OutcomeCallError  = "call_error"
	OutcomeParseError = "parse_error"
)

// Recorder receives one call per model attempt.
type Recorder interface {
	ModelAttempt(model, outcome string)
}

// Result is a story produced by a model.
type Result struct {
	Story model.Story
	Model string
}

// Generator walks the selector's candidates until one model returns a
// parseable story. Each candidate is tried once.
type Generator struct {
	client   Client
	selector *Selector
	timeout  time.Duration
	recorder Recorder
	log      *zap.Logger
}

// NewGenerator creates a Generator. recorder may be nil.
func NewGenerator(client Client, selector *Selector, timeout time.Duration, recorder Recorder, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{
		client:   client,
		selector: selector,
		timeout:  timeout,
		recorder: recorder,
		log:      log,
	}
}

// Available reports whether a provider client is configured.
func (g *Generator) Available() bool {
	return g != nil && g.client != nil
}

// Generate returns the first successfully parsed story. When every
// candidate fails the error is a *CandidatesError.
func (g *Generator) Generate(ctx context.Context, prompt string) (Result, error) {
	if !g.Available() {
		return Result{}, ErrAPIKeyMissing
	}

	tracer := otel.Tracer("storyforge/ai")
	candidates := g.selector.Candidates()
	lastErr := ErrNoCandidates

	for i, name := range candidates {
		if err := ctx.Err(); err != nil {
			return Result{}, &CandidatesError{Tried: candidates[:i], Last: err}
		}

		attemptCtx, span := tracer.Start(ctx, "ai.generate",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attribute.String("ai.model", name), attribute.Int("ai.attempt", i+1)),
		)

		s, outcome, err := g.try(attemptCtx, name, prompt)
		g.record(name, outcome)
		if err == nil {
			span.End()
			g.log.Info("model_attempt",
				zap.String("component", "ai"),
				zap.String("model", name),
				zap.String("outcome", outcome),
			)
			return Result{Story: s, Model: name}, nil
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		span.End()
		g.log.Warn("model_attempt",
			zap.String("component", "ai"),
			zap.String("model", name),
			zap.String("outcome", outcome),
			zap.Error(err),
		)
		lastErr = err
	}

	return Result{}, &CandidatesError{Tried: candidates, Last: lastErr}
}

func (g *Generator) try(ctx context.Context, name, prompt string) (model.Story, string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	raw, err := g.client.Generate(ctx, name, prompt)
	if err != nil {
		return model.Story{}, OutcomeCallError, err
	}
	s, err := ParseStory(raw)
	if err != nil {
		return model.Story{}, OutcomeParseError, err
	}
	return s, OutcomeOK, nil
}

func (g *Generator) record(name, outcome string) {
	if g.recorder != nil {
		g.recorder.ModelAttempt(name, outcome)
	}
}
