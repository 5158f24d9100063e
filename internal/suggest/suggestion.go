// Package suggest produces exactly three task suggestions for a user's goal and mood, from a
// language model when one answers correctly and from a fixed catalog otherwise.
package suggest

import (
	"fmt"
	"strings"
	"time"
)

// SuggestionCount is the number of suggestions every request yields.
const SuggestionCount = 3

// Tag classifies a suggestion.
type Tag string

const (
	TagMindfulness  Tag = "Mindfulness"
	TagWellness     Tag = "Wellness"
	TagProductivity Tag = "Productivity"
	TagGrowth       Tag = "Growth"
	TagPhysical     Tag = "Physical"
	TagConnection   Tag = "Connection"
	TagSelfCare     Tag = "Self-care"
	TagEnvironment  Tag = "Environment"
)

var validTags = map[Tag]bool{
	TagMindfulness:  true,
	TagWellness:     true,
	TagProductivity: true,
	TagGrowth:       true,
	TagPhysical:     true,
	TagConnection:   true,
	TagSelfCare:     true,
	TagEnvironment:  true,
}

// Valid reports whether t is one of the known tags.
func (t Tag) Valid() bool {
	return validTags[t]
}

// goalCategoryTags maps goal categories to the tag given to model-generated suggestions.
var goalCategoryTags = map[string]Tag{
	"health":        TagWellness,
	"wellness":      TagWellness,
	"fitness":       TagPhysical,
	"exercise":      TagPhysical,
	"career":        TagProductivity,
	"work":          TagProductivity,
	"productivity":  TagProductivity,
	"finance":       TagProductivity,
	"learning":      TagGrowth,
	"education":     TagGrowth,
	"personal":      TagGrowth,
	"mindfulness":   TagMindfulness,
	"mental-health": TagMindfulness,
	"relationships": TagConnection,
	"social":        TagConnection,
	"family":        TagConnection,
	"self-care":     TagSelfCare,
	"home":          TagEnvironment,
	"environment":   TagEnvironment,
}

// TagForGoalCategory returns the tag for a goal category, Growth when the category is unknown.
func TagForGoalCategory(category string) Tag {
	if tag, ok := goalCategoryTags[strings.ToLower(strings.TrimSpace(category))]; ok {
		return tag
	}
	return TagGrowth
}

// Source records where a result came from.
type Source string

const (
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

// Fallback reasons reported on Result and in metrics.
const (
	ReasonNone              = "none"
	ReasonNoGenerator       = "no_generator"
	ReasonTimeout           = "timeout"
	ReasonUpstreamError     = "upstream_error"
	ReasonContractViolation = "contract_violation"
)

// Suggestion is one proposed task.
type Suggestion struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Tag         Tag    `json:"tag"`
	AIGenerated bool   `json:"ai_generated"`
}

// Request carries the inputs of one generation.
type Request struct {
	GoalTitle    string `json:"goal_title"`
	GoalCategory string `json:"goal_category"`
	Mood         string `json:"mood"`
	EnergyLevel  int    `json:"energy_level"`
}

// Result is the outcome of Engine.Generate. Suggestions always holds SuggestionCount entries.
type Result struct {
	Suggestions    []Suggestion `json:"suggestions"`
	Source         Source       `json:"source"`
	FallbackReason string       `json:"fallback_reason,omitempty"`
}

func suggestionID(source Source, now time.Time, index int) string {
	return fmt.Sprintf("%s-%d-%d", source, now.UnixMilli(), index)
}
