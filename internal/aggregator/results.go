package aggregator

import (
	"sync"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/model"
)

// ResultSet is the merged set of processed records for one analysis.
// It is safe for concurrent use.
type ResultSet struct {
	mu      sync.RWMutex
	entries []model.ProcessedLogEntry
}

// NewResultSet returns an empty ResultSet.
func NewResultSet() *ResultSet {
	return &ResultSet{}
}

// Replace drops every record labelled attackType and appends entries at the end.
// Re-running one detector therefore never duplicates its records.
func (r *ResultSet) Replace(attackType string, entries []model.ProcessedLogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.entries[:0:0]
	for _, e := range r.entries {
		if e.AttackType != attackType {
			kept = append(kept, e)
		}
	}
	r.entries = append(kept, entries...)
}

// Append adds records without removing anything.
func (r *ResultSet) Append(entries ...model.ProcessedLogEntry) {
	r.mu.Lock()
	r.entries = append(r.entries, entries...)
	r.mu.Unlock()
}

// Reset empties the set.
func (r *ResultSet) Reset() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}

// Entries returns a copy of all records in merge order.
func (r *ResultSet) Entries() []model.ProcessedLogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.ProcessedLogEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// ByType returns a copy of the records labelled attackType.
func (r *ResultSet) ByType(attackType string) []model.ProcessedLogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.ProcessedLogEntry, 0)
	for _, e := range r.entries {
		if e.AttackType == attackType {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of records.
func (r *ResultSet) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Summary computes statistics over the current records.
func (r *ResultSet) Summary(topN int) model.Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Summarize(r.entries, topN)
}
