package suggest

import (
	"fmt"
	"strings"
)

const neutralMood = "neutral"

var ambitionGuidance = map[string]string{
	"energized": "The user feels energized: suggest ambitious, high-impact tasks.",
	"focused":   "The user feels focused: suggest deep-work tasks that need sustained concentration.",
	"tired":     "The user feels tired: suggest gentle, low-effort tasks.",
	"stressed":  "The user feels stressed: suggest calming tasks that reduce pressure.",
	"burnout":   "The user is close to burnout: suggest minimal-effort tasks that still count as progress.",
}

// Compose builds the prompt for req. The same request always yields the same prompt.
func Compose(req Request) string {
	mood := strings.ToLower(strings.TrimSpace(req.Mood))
	if mood == "" {
		mood = neutralMood
	}

	var b strings.Builder
	b.WriteString("You are a supportive productivity coach.\n")
	fmt.Fprintf(&b, "Goal: %s\n", strings.TrimSpace(req.GoalTitle))
	fmt.Fprintf(&b, "Goal category: %s\n", strings.TrimSpace(req.GoalCategory))
	fmt.Fprintf(&b, "Current mood: %s\n", mood)
	if guidance, ok := ambitionGuidance[mood]; ok {
		b.WriteString(guidance)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Suggest exactly %d small tasks that move the user toward the goal today.\n", SuggestionCount)
	fmt.Fprintf(&b, "Respond with a JSON array of exactly %d objects, each with a \"title\" string and a \"description\" string. ", SuggestionCount)
	b.WriteString("Return only the JSON array and nothing else.")
	return b.String()
}
