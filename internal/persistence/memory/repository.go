// Package memory keeps activity entries and freeze records in process memory for local
// development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"example.com/daywell/internal/domain"
)

// Repository implements domain.Repository with mutex-guarded maps.
type Repository struct {
	mu      sync.RWMutex
	entries map[string][]domain.ActivityLogEntry
	freezes map[string]domain.FreezeState
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{
		entries: make(map[string][]domain.ActivityLogEntry),
		freezes: make(map[string]domain.FreezeState),
	}
}

// Insert implements domain.EntryRepository.
func (r *Repository) Insert(ctx context.Context, entry domain.ActivityLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, frozen := r.freezes[entry.UserID]; frozen {
		return domain.ErrFrozen
	}
	r.entries[entry.UserID] = append(r.entries[entry.UserID], entry)
	return nil
}

// ListByDay implements domain.EntryRepository, ordered by hour then insertion.
func (r *Repository) ListByDay(ctx context.Context, userID, date string) ([]domain.ActivityLogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ActivityLogEntry, 0)
	for _, entry := range r.entries[userID] {
		if entry.Date == date {
			out = append(out, entry)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out, nil
}

// Delete implements domain.EntryRepository.
func (r *Repository) Delete(ctx context.Context, userID, entryID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.entries[userID]
	for i, entry := range entries {
		if entry.ID == entryID {
			r.entries[userID] = append(entries[:i:i], entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// GetFreeze implements domain.FreezeStore.
func (r *Repository) GetFreeze(ctx context.Context, userID string) (*domain.FreezeState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.freezes[userID]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

// SaveFreeze implements domain.FreezeStore; an existing record wins.
func (r *Repository) SaveFreeze(ctx context.Context, state domain.FreezeState) (domain.FreezeState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.freezes[state.UserID]; ok {
		return existing, nil
	}
	r.freezes[state.UserID] = state
	return state, nil
}

// DeleteFreeze implements domain.FreezeStore.
func (r *Repository) DeleteFreeze(ctx context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.freezes[userID]
	delete(r.freezes, userID)
	return ok, nil
}

// DailyTotals implements domain.HistoryReader by summing entries directly.
func (r *Repository) DailyTotals(ctx context.Context, userID, from, to string) ([]domain.DailyTotal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type key struct{ date, activity string }
	sums := make(map[key]int)
	for _, entry := range r.entries[userID] {
		if entry.Date < from || entry.Date > to {
			continue
		}
		sums[key{entry.Date, entry.Activity}] += entry.DurationMin
	}

	out := make([]domain.DailyTotal, 0, len(sums))
	for k, minutes := range sums {
		out = append(out, domain.DailyTotal{Date: k.date, Activity: k.activity, Minutes: minutes})
	}
	sortTotals(out)
	return out, nil
}

func sortTotals(totals []domain.DailyTotal) {
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Date != totals[j].Date {
			return totals[i].Date < totals[j].Date
		}
		return totals[i].Activity < totals[j].Activity
	})
}

var _ domain.Repository = (*Repository)(nil)
