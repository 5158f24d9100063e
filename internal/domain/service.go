package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/daywell/internal/clock"
	"example.com/daywell/internal/observability"
)

// maxHistoryDays bounds History requests.
const maxHistoryDays = 31

// EntryRepository persists activity log entries.
type EntryRepository interface {
	Insert(ctx context.Context, entry ActivityLogEntry) error
	ListByDay(ctx context.Context, userID, date string) ([]ActivityLogEntry, error)
	// Delete removes the entry when it exists and belongs to userID, reporting whether it did.
	Delete(ctx context.Context, userID, entryID string) (bool, error)
}

// FreezeStore persists freeze records.
type FreezeStore interface {
	// GetFreeze returns nil, nil when the user is not frozen.
	GetFreeze(ctx context.Context, userID string) (*FreezeState, error)
	// SaveFreeze stores state unless a record already exists, and returns the stored record.
	SaveFreeze(ctx context.Context, state FreezeState) (FreezeState, error)
	DeleteFreeze(ctx context.Context, userID string) (bool, error)
}

// HistoryReader serves per-day category totals for a date range.
type HistoryReader interface {
	DailyTotals(ctx context.Context, userID, from, to string) ([]DailyTotal, error)
}

// Repository is the full storage collaborator of the Service.
type Repository interface {
	EntryRepository
	FreezeStore
	HistoryReader
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the clock used to resolve "today" and timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLocation sets the time zone that defines calendar days.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithIDGenerator overrides entry id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// Service orchestrates activity logging, distribution reads and freeze transitions.
type Service struct {
	repo     Repository
	clock    clock.Clock
	location *time.Location
	newID    func() string
}

// NewService constructs a Service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		clock:    clock.Real{},
		location: time.UTC,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current calendar date in the service's time zone.
func (s *Service) Today() string {
	return clock.Today(s.clock, s.location)
}

// RecordActivity validates and stores one entry. No aggregate is updated; aggregation is read-time.
func (s *Service) RecordActivity(ctx context.Context, input RecordActivityInput) (*ActivityLogEntry, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	state, err := s.repo.GetFreeze(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("load freeze state: %w", err)
	}
	if err := checkWritable(state); err != nil {
		return nil, err
	}

	entry := ActivityLogEntry{
		ID:          s.newID(),
		UserID:      input.UserID,
		Activity:    NormalizeActivity(input.Activity),
		DurationMin: input.DurationMin,
		Date:        input.Date,
		Hour:        input.Hour,
		CreatedAt:   s.clock.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		return nil, err
	}

	observability.RecordEntryLogged(entry.CreatedAt)
	return &entry, nil
}

// ListActivities returns the raw entries of one day.
func (s *Service) ListActivities(ctx context.Context, userID, date string) ([]ActivityLogEntry, error) {
	date, err := s.resolveDate(userID, date)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByDay(ctx, userID, date)
}

// GetDistribution aggregates the user's entries for date (today when empty). While frozen, the
// snapshot captured at freeze time is returned for its date and every result is flagged frozen.
func (s *Service) GetDistribution(ctx context.Context, userID, date string) (Snapshot, error) {
	date, err := s.resolveDate(userID, date)
	if err != nil {
		return Snapshot{}, err
	}

	state, err := s.repo.GetFreeze(ctx, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load freeze state: %w", err)
	}
	if state != nil && state.Snapshot.Date == date {
		observability.RecordDistributionRead(true)
		return state.frozenView(), nil
	}

	snapshot, err := s.compute(ctx, userID, date)
	if err != nil {
		return Snapshot{}, err
	}
	if state != nil {
		since := state.Since
		snapshot.Frozen = true
		snapshot.FrozenSince = &since
	}
	observability.RecordDistributionRead(snapshot.Frozen)
	return snapshot, nil
}

// DeleteActivity removes one of the user's entries.
func (s *Service) DeleteActivity(ctx context.Context, userID, entryID string) error {
	if strings.TrimSpace(userID) == "" {
		return &ValidationError{Field: "user_id", Reason: "is required"}
	}
	if strings.TrimSpace(entryID) == "" {
		return &ValidationError{Field: "id", Reason: "is required"}
	}

	state, err := s.repo.GetFreeze(ctx, userID)
	if err != nil {
		return fmt.Errorf("load freeze state: %w", err)
	}
	if err := checkWritable(state); err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, userID, entryID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrEntryNotFound
	}
	return nil
}

// EnterFreeze activates freeze mode, capturing today's snapshot. Entering while already frozen
// returns the existing record untouched.
func (s *Service) EnterFreeze(ctx context.Context, userID string) (*FreezeState, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, &ValidationError{Field: "user_id", Reason: "is required"}
	}

	existing, err := s.repo.GetFreeze(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load freeze state: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	snapshot, err := s.compute(ctx, userID, s.Today())
	if err != nil {
		return nil, err
	}
	stored, err := s.repo.SaveFreeze(ctx, FreezeState{
		UserID:   userID,
		Since:    s.clock.Now().UTC(),
		Snapshot: snapshot,
	})
	if err != nil {
		return nil, fmt.Errorf("save freeze state: %w", err)
	}

	observability.RecordFreezeTransition(true)
	return &stored, nil
}

// ExitFreeze lifts freeze mode and reports whether one was active.
func (s *Service) ExitFreeze(ctx context.Context, userID string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, &ValidationError{Field: "user_id", Reason: "is required"}
	}
	removed, err := s.repo.DeleteFreeze(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("delete freeze state: %w", err)
	}
	if removed {
		observability.RecordFreezeTransition(false)
	}
	return removed, nil
}

// FreezeStatus returns the active freeze record, or nil.
func (s *Service) FreezeStatus(ctx context.Context, userID string) (*FreezeState, error) {
	return s.repo.GetFreeze(ctx, userID)
}

// History returns per-day category totals for the inclusive range [from, to].
func (s *Service) History(ctx context.Context, userID, from, to string) ([]DailyTotal, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, &ValidationError{Field: "user_id", Reason: "is required"}
	}
	if err := validateDate("from", from); err != nil {
		return nil, err
	}
	if err := validateDate("to", to); err != nil {
		return nil, err
	}
	start, _ := clock.ParseDate(from)
	end, _ := clock.ParseDate(to)
	if end.Before(start) {
		return nil, &ValidationError{Field: "to", Reason: "must not be before from"}
	}
	if end.Sub(start) >= maxHistoryDays*24*time.Hour {
		return nil, &ValidationError{Field: "to", Reason: "range must span at most 31 days"}
	}
	return s.repo.DailyTotals(ctx, userID, from, to)
}

func (s *Service) compute(ctx context.Context, userID, date string) (Snapshot, error) {
	entries, err := s.repo.ListByDay(ctx, userID, date)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list entries: %w", err)
	}
	return Aggregate(userID, date, entries, s.clock.Now().UTC()), nil
}

func (s *Service) resolveDate(userID, date string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", &ValidationError{Field: "user_id", Reason: "is required"}
	}
	if date == "" {
		return s.Today(), nil
	}
	if err := validateDate("date", date); err != nil {
		return "", err
	}
	return date, nil
}
