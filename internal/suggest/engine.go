package suggest

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"example.com/daywell/internal/clock"
	"example.com/daywell/internal/llm"
)

// DefaultTimeout bounds the upstream call.
const DefaultTimeout = 12 * time.Second

// Option customises an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for suggestion ids.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

// WithCatalog replaces the built-in fallback catalog. NewEngine keeps the built-in catalog when
// c fails Validate.
func WithCatalog(c Catalog) Option {
	return func(e *Engine) { e.catalog = c }
}

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(e *Engine) { e.model = model }
}

// Engine runs the compose, dispatch, validate and fallback pipeline.
type Engine struct {
	client  llm.Client
	clock   clock.Clock
	logger  *zap.Logger
	timeout time.Duration
	catalog Catalog
	model   string
}

// NewEngine constructs an Engine. A nil client makes every request use the fallback catalog.
func NewEngine(client llm.Client, opts ...Option) *Engine {
	e := &Engine{
		client:  client,
		clock:   clock.Real{},
		logger:  zap.NewNop(),
		timeout: DefaultTimeout,
		catalog: DefaultCatalog(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.catalog.Validate(); err != nil {
		e.logger.Warn("invalid suggestion catalog, using built-in catalog", zap.Error(err))
		e.catalog = DefaultCatalog()
	}
	return e
}

// Generate always returns exactly SuggestionCount suggestions. Upstream failures of any kind are
// logged and answered from the fallback catalog.
func (e *Engine) Generate(ctx context.Context, req Request) Result {
	suggestions, err := e.attemptExternal(ctx, req)
	if err == nil {
		result := Result{Suggestions: suggestions, Source: SourceAI}
		recordGenerated(result)
		return result
	}

	reason := fallbackReason(err)
	fields := []zap.Field{zap.String("reason", reason)}
	if reason != ReasonNoGenerator {
		fields = append(fields, zap.Error(err))
	}
	e.logger.Info("using fallback suggestions", fields...)

	result := Result{
		Suggestions:    e.catalog.Fallback(req.Mood, req.EnergyLevel, e.clock.Now()),
		Source:         SourceFallback,
		FallbackReason: reason,
	}
	recordGenerated(result)
	return result
}

// attemptExternal makes the single upstream call and validates its answer.
func (e *Engine) attemptExternal(ctx context.Context, req Request) ([]Suggestion, error) {
	if e.client == nil {
		return nil, ErrUpstreamUnavailable
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	raw, err := e.client.Generate(callCtx, llm.Request{
		Prompt:      Compose(req),
		Model:       e.model,
		Temperature: llm.DefaultTemperature,
		MaxTokens:   llm.DefaultMaxTokens,
	})
	recordDispatch(time.Since(start))
	if err != nil {
		if callCtx.Err() != nil && ctx.Err() == nil {
			return nil, errors.Join(context.DeadlineExceeded, err)
		}
		return nil, err
	}

	drafts, err := Parse(raw)
	if err != nil {
		e.logger.Warn("model response rejected", zap.Error(err), zap.Int("response_bytes", len(raw)))
		return nil, err
	}

	now := e.clock.Now()
	tag := TagForGoalCategory(req.GoalCategory)
	out := make([]Suggestion, len(drafts))
	for i, draft := range drafts {
		out[i] = Suggestion{
			ID:          suggestionID(SourceAI, now, i),
			Title:       draft.Title,
			Description: draft.Description,
			Tag:         tag,
			AIGenerated: true,
		}
	}
	return out, nil
}

func fallbackReason(err error) string {
	var contract *ContractViolation
	switch {
	case errors.Is(err, ErrUpstreamUnavailable):
		return ReasonNoGenerator
	case errors.As(err, &contract):
		return ReasonContractViolation
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	default:
		return ReasonUpstreamError
	}
}
