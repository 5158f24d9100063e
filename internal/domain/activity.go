// Package domain implements the activity distribution engine: logging hour-stamped activity
// entries, aggregating a user's calendar day by category, and the freeze ("sick day") mode.
package domain

import (
	"strings"
	"time"

	"example.com/daywell/internal/clock"
)

// Conventional activity categories. The category space is open; these only get fixed colors.
const (
	CategoryWork          = "work"
	CategoryExercise      = "exercise"
	CategoryRest          = "rest"
	CategorySocial        = "social"
	CategoryLearning      = "learning"
	CategoryCreativity    = "creativity"
	CategoryEntertainment = "entertainment"
	CategoryChores        = "chores"
	CategorySelfCare      = "self-care"
	CategoryOther         = "other"
)

const maxActivityLength = 64

// ActivityLogEntry is one logged block of time. Entries are never mutated after creation.
type ActivityLogEntry struct {
	ID          string
	UserID      string
	Activity    string
	DurationMin int
	Date        string
	Hour        int
	CreatedAt   time.Time
}

// RecordActivityInput captures the payload for RecordActivity.
type RecordActivityInput struct {
	UserID      string
	Date        string
	Hour        int
	Activity    string
	DurationMin int
}

// NormalizeActivity trims and lower-cases a category label so grouping is case-insensitive.
func NormalizeActivity(activity string) string {
	return strings.ToLower(strings.TrimSpace(activity))
}

// Validate checks the input constraints without clamping anything.
func (in RecordActivityInput) Validate() error {
	if strings.TrimSpace(in.UserID) == "" {
		return &ValidationError{Field: "user_id", Reason: "is required"}
	}
	if err := validateDate("date", in.Date); err != nil {
		return err
	}
	if in.Hour < 0 || in.Hour > 23 {
		return &ValidationError{Field: "hour", Reason: "must be between 0 and 23"}
	}
	activity := NormalizeActivity(in.Activity)
	if activity == "" {
		return &ValidationError{Field: "activity", Reason: "is required"}
	}
	if len(activity) > maxActivityLength {
		return &ValidationError{Field: "activity", Reason: "must be at most 64 characters"}
	}
	if in.DurationMin <= 0 {
		return &ValidationError{Field: "duration", Reason: "must be > 0"}
	}
	return nil
}

func validateDate(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Reason: "is required"}
	}
	if _, err := clock.ParseDate(value); err != nil {
		return &ValidationError{Field: field, Reason: "must be a calendar date in YYYY-MM-DD form"}
	}
	return nil
}

// DailyTotal is one (date, activity) row of the multi-day history read model.
type DailyTotal struct {
	Date     string
	Activity string
	Minutes  int
}
