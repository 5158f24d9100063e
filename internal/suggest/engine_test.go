package suggest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"example.com/daywell/internal/clock"
	"example.com/daywell/internal/llm"
)

func TestMain(m *testing.M) {
	// The genai dependency starts an opencensus stats worker at init that never exits.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

type fakeClient struct {
	response string
	err      error
	block    bool
	calls    int
	last     llm.Request
}

func (f *fakeClient) Generate(ctx context.Context, req llm.Request) (string, error) {
	f.calls++
	f.last = req
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.response, f.err
}

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestEngine(t *testing.T, client llm.Client, opts ...Option) *Engine {
	t.Helper()
	base := []Option{
		WithClock(clock.Fixed{T: fixedNow}),
		WithLogger(zaptest.NewLogger(t)),
	}
	return NewEngine(client, append(base, opts...)...)
}

const validResponse = `[
  {"title": "Outline chapter one", "description": "Write the three main beats."},
  {"title": "Read for 20 minutes", "description": "Pick a book in your genre."},
  {"title": "Journal one page"}
]`

func TestGenerateUsesModelResponse(t *testing.T) {
	client := &fakeClient{response: validResponse}
	engine := newTestEngine(t, client, WithModel("gpt-test"))

	result := engine.Generate(context.Background(), Request{
		GoalTitle:    "Write a novel",
		GoalCategory: "learning",
		Mood:         "Focused",
		EnergyLevel:  4,
	})

	require.Equal(t, SourceAI, result.Source)
	require.Empty(t, result.FallbackReason)
	require.Len(t, result.Suggestions, SuggestionCount)
	require.Equal(t, 1, client.calls)
	require.Equal(t, "gpt-test", client.last.Model)
	require.Equal(t, llm.DefaultTemperature, client.last.Temperature)
	require.Equal(t, llm.DefaultMaxTokens, client.last.MaxTokens)
	require.Contains(t, client.last.Prompt, "Write a novel")

	first := result.Suggestions[0]
	require.Equal(t, "Outline chapter one", first.Title)
	require.Equal(t, TagGrowth, first.Tag)
	require.True(t, first.AIGenerated)
	require.Equal(t, "ai-1741944600000-0", first.ID)
	require.Empty(t, result.Suggestions[2].Description)
}

func TestGenerateTagsFromGoalCategory(t *testing.T) {
	engine := newTestEngine(t, &fakeClient{response: validResponse})

	result := engine.Generate(context.Background(), Request{GoalTitle: "Run a 10k", GoalCategory: "Fitness", EnergyLevel: 3})

	for _, s := range result.Suggestions {
		require.Equal(t, TagPhysical, s.Tag)
	}
}

func TestGenerateWithoutClientFallsBack(t *testing.T) {
	engine := newTestEngine(t, nil)

	result := engine.Generate(context.Background(), Request{GoalTitle: "Anything", Mood: "neutral", EnergyLevel: 3})

	require.Equal(t, SourceFallback, result.Source)
	require.Equal(t, ReasonNoGenerator, result.FallbackReason)
	require.Len(t, result.Suggestions, SuggestionCount)
	for _, s := range result.Suggestions {
		require.False(t, s.AIGenerated)
		require.True(t, strings.HasPrefix(s.ID, "fallback-"))
	}
}

func TestGenerateTimeoutFallsBack(t *testing.T) {
	client := &fakeClient{block: true}
	engine := newTestEngine(t, client, WithTimeout(20*time.Millisecond))

	result := engine.Generate(context.Background(), Request{GoalTitle: "Ship it", Mood: "sad", EnergyLevel: 5})

	require.Equal(t, SourceFallback, result.Source)
	require.Equal(t, ReasonTimeout, result.FallbackReason)
	require.Equal(t, 1, client.calls)
	require.Equal(t, DefaultCatalog().Sad[0].Title, result.Suggestions[0].Title)
}

func TestGenerateUpstreamErrorFallsBack(t *testing.T) {
	client := &fakeClient{err: &llm.UpstreamError{Provider: llm.ProviderOpenAI, StatusCode: 500, Message: "boom"}}
	engine := newTestEngine(t, client)

	result := engine.Generate(context.Background(), Request{GoalTitle: "Ship it", EnergyLevel: 1})

	require.Equal(t, SourceFallback, result.Source)
	require.Equal(t, ReasonUpstreamError, result.FallbackReason)
	require.Equal(t, 1, client.calls)
	require.Equal(t, DefaultCatalog().LowEnergy[0].Title, result.Suggestions[0].Title)
}

func TestGenerateContractViolationFallsBack(t *testing.T) {
	cases := map[string]string{
		"two items":      `[{"title":"a"},{"title":"b"}]`,
		"prose":          "Here are some ideas: walk, read, rest.",
		"empty title":    `[{"title":""},{"title":"b"},{"title":"c"}]`,
		"numeric title":  `[{"title":1},{"title":"b"},{"title":"c"}]`,
		"object":         `{"title":"a"}`,
		"trailing prose": validResponse + " hope this helps",
	}
	for name, response := range cases {
		t.Run(name, func(t *testing.T) {
			engine := newTestEngine(t, &fakeClient{response: response})

			result := engine.Generate(context.Background(), Request{GoalTitle: "x", EnergyLevel: 3})

			require.Equal(t, SourceFallback, result.Source)
			require.Equal(t, ReasonContractViolation, result.FallbackReason)
			require.Equal(t, DefaultCatalog().Default[0].Title, result.Suggestions[0].Title)
		})
	}
}

func TestFallbackReasonClassification(t *testing.T) {
	require.Equal(t, ReasonNoGenerator, fallbackReason(ErrUpstreamUnavailable))
	require.Equal(t, ReasonTimeout, fallbackReason(context.DeadlineExceeded))
	require.Equal(t, ReasonContractViolation, fallbackReason(&ContractViolation{Reason: "x"}))
	require.Equal(t, ReasonUpstreamError, fallbackReason(errors.New("connection refused")))
}

func TestGenerateUsesCustomCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	catalog.Default[0].Title = "Custom first"
	engine := newTestEngine(t, nil, WithCatalog(catalog))

	result := engine.Generate(context.Background(), Request{GoalTitle: "x", EnergyLevel: 3})

	require.Equal(t, "Custom first", result.Suggestions[0].Title)
}

func TestNewEngineRejectsInvalidCatalog(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	engine := NewEngine(nil,
		WithClock(clock.Fixed{T: fixedNow}),
		WithLogger(zap.New(core)),
		WithCatalog(Catalog{}),
	)

	result := engine.Generate(context.Background(), Request{GoalTitle: "x", EnergyLevel: 3})

	require.Len(t, result.Suggestions, SuggestionCount)
	require.Equal(t, DefaultCatalog().Default[0].Title, result.Suggestions[0].Title)
	require.Equal(t, 1, logs.FilterMessage("invalid suggestion catalog, using built-in catalog").Len())
}
