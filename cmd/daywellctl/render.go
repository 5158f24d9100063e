package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"example.com/daywell/internal/domain"
	"example.com/daywell/internal/suggest"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F8FAFC"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
	frozenStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#38BDF8"))
	tagStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))
)

// renderDistribution draws one bar per category followed by a 24-cell hour strip.
func renderDistribution(snapshot domain.Snapshot, width int) string {
	if width <= 0 {
		width = 40
	}

	var sb strings.Builder
	header := fmt.Sprintf("%s  %d min", snapshot.Date, snapshot.TotalMinutes)
	sb.WriteString(titleStyle.Render(header))
	if snapshot.Frozen {
		sb.WriteString("  ")
		sb.WriteString(frozenStyle.Render("FROZEN"))
	}
	sb.WriteString("\n")

	if len(snapshot.Slices) == 0 {
		sb.WriteString(mutedStyle.Render("no activity logged"))
		return sb.String()
	}

	nameWidth := 0
	for _, slice := range snapshot.Slices {
		if w := lipgloss.Width(slice.Activity); w > nameWidth {
			nameWidth = w
		}
	}

	for _, slice := range snapshot.Slices {
		cells := int(slice.Share*float64(width) + 0.5)
		if cells == 0 && slice.Minutes > 0 {
			cells = 1
		}
		bar := lipgloss.NewStyle().Foreground(lipgloss.Color(slice.Color)).Render(strings.Repeat("█", cells))
		label := lipgloss.NewStyle().Width(nameWidth).Render(slice.Activity)
		fmt.Fprintf(&sb, "%s %s %s\n", label, bar, mutedStyle.Render(fmt.Sprintf("%d min (%.0f%%)", slice.Minutes, slice.Share*100)))
	}

	if snapshot.MostActive != "" {
		fmt.Fprintf(&sb, "most active: %s\n", snapshot.MostActive)
	}

	for _, slot := range snapshot.Hours {
		if slot.Activity == "" {
			sb.WriteString(mutedStyle.Render("·"))
			continue
		}
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(slot.Color)).Render("█"))
	}
	return sb.String()
}

func renderFreeze(state *domain.FreezeState) string {
	if state == nil {
		return "not frozen"
	}
	return frozenStyle.Render("frozen") + " since " + state.Since.Format(time.RFC3339) +
		fmt.Sprintf(" (%s: %d min)", state.Snapshot.Date, state.Snapshot.TotalMinutes)
}

func renderSuggestions(result suggest.Result) string {
	var sb strings.Builder
	source := string(result.Source)
	if result.FallbackReason != "" {
		source += " (" + result.FallbackReason + ")"
	}
	sb.WriteString(mutedStyle.Render("source: " + source))
	for i, s := range result.Suggestions {
		fmt.Fprintf(&sb, "\n%d. %s %s", i+1, titleStyle.Render(s.Title), tagStyle.Render("["+string(s.Tag)+"]"))
		if s.Description != "" {
			sb.WriteString("\n   " + s.Description)
		}
	}
	return sb.String()
}
