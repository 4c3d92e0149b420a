// Package detector classifies parsed access-log entries into threat categories.
//
// Every detector, built-in or generated, satisfies the Detector interface: it receives an
// ordered, borrowed slice of entries and returns a new slice holding the flagged subset in
// input order, each with a suspicion reason. Input entries are never modified.
package detector

import (
	"context"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/model"
)

// Detector flags suspicious entries for one attack type.
type Detector interface {
	// Endpoint is the catalog key this detector serves.
	Endpoint() string
	// Detect returns the flagged subset of entries. Built-in detectors never return an error.
	Detect(ctx context.Context, entries []model.LogEntry) ([]model.SuspiciousEntry, error)
}

// classifier inspects one entry and returns the suspicion reason when it is flagged.
type classifier func(e *model.LogEntry) (string, bool)

// filter applies a classifier to every entry, preserving input order.
func filter(entries []model.LogEntry, classify classifier) []model.SuspiciousEntry {
	out := make([]model.SuspiciousEntry, 0)
	for i := range entries {
		if reason, ok := classify(&entries[i]); ok {
			out = append(out, model.SuspiciousEntry{LogEntry: entries[i], SuspicionReason: reason})
		}
	}
	return out
}

// builtin adapts a pure classifier to the Detector interface.
type builtin struct {
	endpoint string
	classify classifier
}

func (b builtin) Endpoint() string { return b.endpoint }

func (b builtin) Detect(ctx context.Context, entries []model.LogEntry) ([]model.SuspiciousEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return filter(entries, b.classify), nil
}
