package domain

import "time"

// categoryColors assigns display colors to the conventional categories.
var categoryColors = map[string]string{
	CategoryWork:          "#3B82F6",
	CategoryExercise:      "#10B981",
	CategoryRest:          "#8B5CF6",
	CategorySocial:        "#F59E0B",
	CategoryLearning:      "#06B6D4",
	CategoryCreativity:    "#EC4899",
	CategoryEntertainment: "#F97316",
	CategoryChores:        "#6B7280",
	CategorySelfCare:      "#14B8A6",
	CategoryOther:         "#A3A3A3",
}

// overflowPalette colors categories missing from categoryColors, cycling in the order they are
// first seen within a single aggregation.
var overflowPalette = []string{
	"#E11D48",
	"#84CC16",
	"#0EA5E9",
	"#D946EF",
	"#EAB308",
	"#64748B",
}

// Slice is one category's share of a day.
type Slice struct {
	Activity string  `json:"activity"`
	Minutes  int     `json:"minutes"`
	Color    string  `json:"color"`
	Share    float64 `json:"share"`
}

// HourSlot summarises one hour of the 24-hour chart. Activity is the hour's dominant category,
// empty when nothing was logged.
type HourSlot struct {
	Hour     int    `json:"hour"`
	Activity string `json:"activity,omitempty"`
	Minutes  int    `json:"minutes"`
	Color    string `json:"color,omitempty"`
}

// Snapshot is the read-time aggregation of one user's calendar day.
type Snapshot struct {
	UserID       string     `json:"user_id"`
	Date         string     `json:"date"`
	Slices       []Slice    `json:"slices"`
	Hours        []HourSlot `json:"hours"`
	TotalMinutes int        `json:"total_minutes"`
	MostActive   string     `json:"most_active,omitempty"`
	Frozen       bool       `json:"frozen"`
	FrozenSince  *time.Time `json:"frozen_since,omitempty"`
	ComputedAt   time.Time  `json:"computed_at"`
}

// Totals returns minutes per category.
func (s Snapshot) Totals() map[string]int {
	out := make(map[string]int, len(s.Slices))
	for _, slice := range s.Slices {
		out[slice.Activity] = slice.Minutes
	}
	return out
}

// clone deep-copies the slice fields so callers cannot alias stored snapshots.
func (s Snapshot) clone() Snapshot {
	out := s
	out.Slices = append([]Slice(nil), s.Slices...)
	out.Hours = append([]HourSlot(nil), s.Hours...)
	if s.FrozenSince != nil {
		since := *s.FrozenSince
		out.FrozenSince = &since
	}
	return out
}

// Aggregate groups the entries dated date by activity. Entries for any other date are ignored.
// Slices keep the order in which each category first appears.
func Aggregate(userID, date string, entries []ActivityLogEntry, computedAt time.Time) Snapshot {
	snapshot := Snapshot{
		UserID:     userID,
		Date:       date,
		Slices:     make([]Slice, 0),
		Hours:      make([]HourSlot, 24),
		ComputedAt: computedAt,
	}

	index := make(map[string]int)
	perHour := make([]map[string]int, 24)
	unknown := 0

	for _, entry := range entries {
		if entry.Date != date {
			continue
		}
		i, seen := index[entry.Activity]
		if !seen {
			color, known := categoryColors[entry.Activity]
			if !known {
				color = overflowPalette[unknown%len(overflowPalette)]
				unknown++
			}
			i = len(snapshot.Slices)
			index[entry.Activity] = i
			snapshot.Slices = append(snapshot.Slices, Slice{Activity: entry.Activity, Color: color})
		}
		snapshot.Slices[i].Minutes += entry.DurationMin
		snapshot.TotalMinutes += entry.DurationMin

		if entry.Hour >= 0 && entry.Hour < 24 {
			if perHour[entry.Hour] == nil {
				perHour[entry.Hour] = make(map[string]int)
			}
			perHour[entry.Hour][entry.Activity] += entry.DurationMin
		}
	}

	if snapshot.TotalMinutes > 0 {
		for i := range snapshot.Slices {
			snapshot.Slices[i].Share = float64(snapshot.Slices[i].Minutes) / float64(snapshot.TotalMinutes)
		}
	}
	snapshot.MostActive = mostActive(snapshot.Totals())

	for hour := range snapshot.Hours {
		slot := HourSlot{Hour: hour}
		if totals := perHour[hour]; len(totals) > 0 {
			slot.Activity = mostActive(totals)
			for _, minutes := range totals {
				slot.Minutes += minutes
			}
			slot.Color = snapshot.Slices[index[slot.Activity]].Color
		}
		snapshot.Hours[hour] = slot
	}

	return snapshot
}

// mostActive returns the category with the strictly greatest total. Ties resolve to the
// lexicographically smallest name so the result is stable across map iteration orders.
func mostActive(totals map[string]int) string {
	best, bestMinutes := "", 0
	for activity, minutes := range totals {
		if minutes > bestMinutes || (minutes == bestMinutes && best != "" && activity < best) {
			best, bestMinutes = activity, minutes
		}
	}
	return best
}
