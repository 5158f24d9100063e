package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/daywell/internal/domain"
	"example.com/daywell/internal/suggest"
)

func TestRenderDistribution(t *testing.T) {
	entries := []domain.ActivityLogEntry{
		{Activity: "work", DurationMin: 90, Date: "2025-06-02", Hour: 9},
		{Activity: "rest", DurationMin: 30, Date: "2025-06-02", Hour: 13},
	}
	snapshot := domain.Aggregate("user-1", "2025-06-02", entries, time.Now())

	out := renderDistribution(snapshot, 20)

	require.Contains(t, out, "2025-06-02")
	require.Contains(t, out, "120 min")
	require.Contains(t, out, "work")
	require.Contains(t, out, "90 min (75%)")
	require.Contains(t, out, "most active: work")
	require.NotContains(t, out, "FROZEN")
}

func TestRenderDistributionEmptyAndFrozen(t *testing.T) {
	snapshot := domain.Aggregate("user-1", "2025-06-02", nil, time.Now())
	snapshot.Frozen = true

	out := renderDistribution(snapshot, 0)

	require.Contains(t, out, "FROZEN")
	require.Contains(t, out, "no activity logged")
}

func TestRenderSuggestions(t *testing.T) {
	result := suggest.Result{
		Source:         suggest.SourceFallback,
		FallbackReason: suggest.ReasonTimeout,
		Suggestions:    suggest.DefaultCatalog().Fallback("happy", 4, time.UnixMilli(0)),
	}

	out := renderSuggestions(result)

	require.Contains(t, out, "fallback (timeout)")
	require.Equal(t, 3, strings.Count(out, "["))
	require.Contains(t, out, "Productivity")
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()
	names := make([]string, 0)
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	require.Subset(t, names, []string{"log", "distribution", "freeze", "suggest"})
}
