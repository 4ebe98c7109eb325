package reconcile

import "time"

// Source identifies which store a value was taken from.
type Source string

const (
	SourceLocal  Source = "local"
	SourceSynced Source = "synced"
)

// Candidate summarizes one store's copy of a value.
type Candidate struct {
	Present  bool
	Modified time.Time
}

// Latest picks between the local and synced copies with last-write-wins. The synced copy
// wins only when it exists and was modified strictly later; every other case keeps local.
// The losing copy is discarded whole, concurrent edits are not merged.
func Latest(local, synced Candidate) Source {
	if !synced.Present || synced.Modified.IsZero() {
		return SourceLocal
	}
	localModified := time.Time{}
	if local.Present {
		localModified = local.Modified
	}
	if synced.Modified.After(localModified) {
		return SourceSynced
	}
	return SourceLocal
}
