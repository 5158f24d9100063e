package domain

import "time"

// FreezeState is the per-user "sick day" record. Its presence suspends writes; Snapshot is the
// distribution captured when the freeze began and is served unchanged for that date.
type FreezeState struct {
	UserID   string
	Since    time.Time
	Snapshot Snapshot
}

// checkWritable rejects writes while a freeze record exists.
func checkWritable(state *FreezeState) error {
	if state != nil {
		return ErrFrozen
	}
	return nil
}

// frozenView returns the stored snapshot marked read-only.
func (f FreezeState) frozenView() Snapshot {
	view := f.Snapshot.clone()
	since := f.Since
	view.Frozen = true
	view.FrozenSince = &since
	return view
}
