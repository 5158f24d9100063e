package suggest

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	minEnergy     = 1
	maxEnergy     = 5
	neutralEnergy = 3
	lowEnergyMax  = 2
)

// sadMood matches mood labels, including inflected forms, that select the comforting set.
var sadMood = regexp.MustCompile(`(?i)\b(sad\w*|down\w*|depress\w*|unhapp\w*|lonel\w*|blues?\b|upset\w*|miserab\w*|griev\w*|hopeless\w*|gloom\w*|heartbr\w*)`)

// CatalogEntry is one canned suggestion.
type CatalogEntry struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Tag         Tag    `yaml:"tag"`
}

// Catalog holds the three fallback sets.
type Catalog struct {
	Sad       []CatalogEntry `yaml:"sad"`
	LowEnergy []CatalogEntry `yaml:"low_energy"`
	Default   []CatalogEntry `yaml:"default"`
}

// DefaultCatalog returns the built-in fallback sets.
func DefaultCatalog() Catalog {
	return Catalog{
		Sad: []CatalogEntry{
			{Title: "Take a 10-minute walk outside", Description: "Fresh air and light movement can lift your mood.", Tag: TagWellness},
			{Title: "Write down three things you're grateful for", Description: "A short gratitude list shifts attention to what is going well.", Tag: TagMindfulness},
			{Title: "Reach out to someone you trust", Description: "Send a message or call a friend or family member.", Tag: TagConnection},
		},
		LowEnergy: []CatalogEntry{
			{Title: "Drink a glass of water and stretch", Description: "Two minutes of gentle stretching wakes the body up.", Tag: TagPhysical},
			{Title: "Tidy one small area", Description: "Clear your desk or a single shelf. Small wins count.", Tag: TagEnvironment},
			{Title: "Do one five-minute task toward your goal", Description: "Pick the smallest next step and stop after five minutes.", Tag: TagSelfCare},
		},
		Default: []CatalogEntry{
			{Title: "Work on your goal for 25 focused minutes", Description: "Set a timer, silence notifications and do one block of deep work.", Tag: TagProductivity},
			{Title: "Learn something new for 15 minutes", Description: "Read an article or watch a tutorial related to your goal.", Tag: TagGrowth},
			{Title: "Do a 20-minute workout", Description: "A short session of cardio or strength training.", Tag: TagPhysical},
		},
	}
}

// Validate checks that every set has exactly SuggestionCount entries with titles and known tags.
func (c Catalog) Validate() error {
	sets := []struct {
		name    string
		entries []CatalogEntry
	}{
		{"sad", c.Sad},
		{"low_energy", c.LowEnergy},
		{"default", c.Default},
	}
	for _, set := range sets {
		if len(set.entries) != SuggestionCount {
			return fmt.Errorf("catalog set %s: expected %d entries, got %d", set.name, SuggestionCount, len(set.entries))
		}
		for i, entry := range set.entries {
			if entry.Title == "" {
				return fmt.Errorf("catalog set %s entry %d: title is required", set.name, i)
			}
			if !entry.Tag.Valid() {
				return fmt.Errorf("catalog set %s entry %d: unknown tag %q", set.name, i, entry.Tag)
			}
		}
	}
	return nil
}

// LoadCatalog reads and validates a YAML catalog file.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	if err := catalog.Validate(); err != nil {
		return Catalog{}, err
	}
	return catalog, nil
}

// NormalizeEnergy maps levels outside 1-5 to the neutral level 3.
func NormalizeEnergy(energy int) int {
	if energy < minEnergy || energy > maxEnergy {
		return neutralEnergy
	}
	return energy
}

// Fallback selects a set by mood, then energy, and stamps ids from now. A sad mood wins over
// low energy.
func (c Catalog) Fallback(mood string, energy int, now time.Time) []Suggestion {
	set := c.Default
	switch {
	case sadMood.MatchString(mood):
		set = c.Sad
	case NormalizeEnergy(energy) <= lowEnergyMax:
		set = c.LowEnergy
	}

	out := make([]Suggestion, len(set))
	for i, entry := range set {
		out[i] = Suggestion{
			ID:          suggestionID(SourceFallback, now, i),
			Title:       entry.Title,
			Description: entry.Description,
			Tag:         entry.Tag,
		}
	}
	return out
}
