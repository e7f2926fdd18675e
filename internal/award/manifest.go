package award

import "time"

// ManifestEntry records when a reference was first processed
type ManifestEntry struct {
	Reference Reference `json:"reference"`
	FirstSeen time.Time `json:"first_seen"`
	Status    string    `json:"status"` // "stored", "flagged" or "failed"
}

// Manifest is the set of references handled by earlier crawls
type Manifest struct {
	Entries   map[string]*ManifestEntry `json:"entries"` // keyed by Reference.Key()
	UpdatedAt string                    `json:"updated_at"`
}

// Manifest entry statuses
const (
	StatusStored  = "stored"
	StatusFlagged = "flagged"
	StatusFailed  = "failed"
)

// NewManifest creates an empty manifest
func NewManifest() *Manifest {
	return &Manifest{
		Entries: make(map[string]*ManifestEntry),
	}
}

// Has reports whether the reference was already processed successfully.
// Failed fetches are retried on the next crawl.
func (m *Manifest) Has(ref Reference) bool {
	entry, ok := m.Entries[ref.Key()]
	return ok && entry.Status != StatusFailed
}

// Mark records the outcome for a reference, keeping the original FirstSeen
func (m *Manifest) Mark(ref Reference, status string, at time.Time) {
	if entry, ok := m.Entries[ref.Key()]; ok {
		entry.Status = status
		return
	}
	m.Entries[ref.Key()] = &ManifestEntry{
		Reference: ref,
		FirstSeen: at,
		Status:    status,
	}
}

// Diff returns the references in current that the previous manifest has not
// processed. Input order is preserved.
func Diff(previous *Manifest, current []Reference) []Reference {
	if previous == nil {
		previous = NewManifest()
	}

	fresh := make([]Reference, 0, len(current))
	for _, ref := range current {
		if !previous.Has(ref) {
			fresh = append(fresh, ref)
		}
	}
	return fresh
}
