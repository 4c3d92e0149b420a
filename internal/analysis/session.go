// Package analysis holds the state of one uploaded log file: its parsed entries and the
// merged results of the detectors run against it.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/aggregator"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/archive"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/detector"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/metrics"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/model"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/parser"
)

// Options configure a Session. Zero values select defaults.
type Options struct {
	Extractor    archive.Extractor
	Registry     *detector.Registry
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
	TopAttackers int
}

// Session is the analysis of one file. Loading a new file means creating a new Session.
type Session struct {
	ID        string    `json:"id"`
	FileName  string    `json:"fileName"`
	CreatedAt time.Time `json:"createdAt"`

	entries  []model.LogEntry
	stats    parser.Stats
	results  *aggregator.ResultSet
	registry *detector.Registry
	metrics  *metrics.Metrics
	logger   *slog.Logger
	topN     int
}

// Load extracts and parses data. It fails with archive.ErrExtraction for bad archives and
// parser.ErrNoEntries when no line matches the grammar.
func Load(name string, data []byte, opts Options) (*Session, error) {
	text, err := opts.Extractor.Extract(name, data)
	if err != nil {
		return nil, err
	}
	entries, stats, err := parser.ParseStrict(text)
	opts.Metrics.ObserveParse(stats.Parsed, stats.Dropped)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	s := New(name, entries, opts)
	s.stats = stats
	s.logger.Debug("log file loaded",
		"file", name,
		"lines", stats.Lines,
		"parsed", stats.Parsed,
		"dropped", stats.Dropped,
	)
	return s, nil
}

// New wraps already-parsed entries in a Session.
func New(name string, entries []model.LogEntry, opts Options) *Session {
	if opts.Registry == nil {
		opts.Registry = detector.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.TopAttackers == 0 {
		opts.TopAttackers = aggregator.DefaultTopAttackers
	}
	id := uuid.NewString()
	return &Session{
		ID:        id,
		FileName:  name,
		CreatedAt: time.Now().UTC(),
		entries:   entries,
		stats:     parser.Stats{Lines: len(entries), Parsed: len(entries)},
		results:   aggregator.NewResultSet(),
		registry:  opts.Registry,
		metrics:   opts.Metrics,
		logger:    opts.Logger.With("analysis", id),
		topN:      opts.TopAttackers,
	}
}

// Entries returns the parsed entries. Callers must not modify them.
func (s *Session) Entries() []model.LogEntry { return s.entries }

// Stats returns the parse statistics.
func (s *Session) Stats() parser.Stats { return s.stats }

// Results returns the merged result set.
func (s *Session) Results() *aggregator.ResultSet { return s.results }

// Registry returns the detectors available to this session.
func (s *Session) Registry() *detector.Registry { return s.registry }

// Summary computes statistics over the current results.
func (s *Session) Summary() model.Summary { return s.results.Summary(s.topN) }

// Scan runs one detector and replaces its previous results. The processed records of this
// run are returned.
func (s *Session) Scan(ctx context.Context, endpoint string) ([]model.ProcessedLogEntry, error) {
	processed, at, err := s.run(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	s.results.Replace(at.Name, processed)
	return processed, nil
}

// run executes a detector without touching the result set.
func (s *Session) run(ctx context.Context, endpoint string) ([]model.ProcessedLogEntry, model.AttackType, error) {
	d, at, err := s.registry.Lookup(endpoint)
	if err != nil {
		return nil, at, err
	}

	start := time.Now()
	flagged, err := d.Detect(ctx, s.entries)
	if err == nil {
		var processed []model.ProcessedLogEntry
		processed, err = aggregator.Process(flagged, at.Name)
		if err == nil {
			s.metrics.ObserveScan(endpoint, at.Name, len(processed), nil)
			s.logger.Debug("detector finished",
				"endpoint", endpoint,
				"flagged", len(processed),
				"elapsed", time.Since(start),
			)
			return processed, at, nil
		}
	}
	s.metrics.ObserveScan(endpoint, at.Name, 0, err)
	return nil, at, fmt.Errorf("scan %s: %w", endpoint, err)
}

// Outcome reports a combined scan.
type Outcome struct {
	// Counts maps attack type name to flagged records.
	Counts   map[string]int   `json:"counts"`
	Total    int              `json:"total"`
	Failures map[string]error `json:"-"`
}

// ScanAll runs every registered detector concurrently and commits their results in
// registration order, replacing anything from earlier scans. A failing detector is reported
// in Outcome.Failures without affecting the others. If ctx ends first nothing is committed.
func (s *Session) ScanAll(ctx context.Context) (Outcome, error) {
	endpoints := s.registry.Endpoints()

	type result struct {
		processed []model.ProcessedLogEntry
		at        model.AttackType
		err       error
	}
	results := make([]result, len(endpoints))

	var wg sync.WaitGroup
	for i, endpoint := range endpoints {
		wg.Add(1)
		go func(i int, endpoint string) {
			defer wg.Done()
			processed, at, err := s.run(ctx, endpoint)
			results[i] = result{processed: processed, at: at, err: err}
		}(i, endpoint)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	out := Outcome{Counts: make(map[string]int), Failures: make(map[string]error)}
	s.results.Reset()
	for i, r := range results {
		if r.err != nil {
			out.Failures[endpoints[i]] = r.err
			s.logger.Warn("detector failed", "endpoint", endpoints[i], "error", r.err)
			continue
		}
		s.results.Replace(r.at.Name, r.processed)
		out.Counts[r.at.Name] = len(r.processed)
		out.Total += len(r.processed)
	}
	return out, nil
}
