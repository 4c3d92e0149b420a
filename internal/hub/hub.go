// Package hub runs the live pipeline: raw lines in, threat alerts out to every subscriber.
package hub

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/aggregator"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/detector"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/metrics"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/model"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/parser"
)

const subscriberBuffer = 1024

// Options configure a Hub. Zero values select defaults.
type Options struct {
	Registry *detector.Registry
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Stats counts lines seen by the hub.
type Stats struct {
	Parsed  int64 `json:"parsed"`
	Skipped int64 `json:"skipped"`
	Alerts  int64 `json:"alerts"`
	Dropped int64 `json:"dropped"`
}

// Hub parses raw lines, runs every registered detector over each entry and broadcasts the
// resulting alerts.
type Hub struct {
	parser      *parser.Parser
	registry    *detector.Registry
	input       <-chan model.RawLine
	metrics     *metrics.Metrics
	logger      *slog.Logger
	mu          sync.RWMutex
	subscribers []chan model.ProcessedLogEntry

	parsed  atomic.Int64
	skipped atomic.Int64
	alerts  atomic.Int64
	dropped atomic.Int64
}

// New creates a Hub that reads from the input channel.
func New(input <-chan model.RawLine, opts Options) *Hub {
	if opts.Registry == nil {
		opts.Registry = detector.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Hub{
		parser:   parser.New(),
		registry: opts.Registry,
		input:    input,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}
}

// Subscribe returns a buffered channel that will receive alerts.
// Multiple consumers can subscribe; each gets a copy of every alert.
func (h *Hub) Subscribe() <-chan model.ProcessedLogEntry {
	ch := make(chan model.ProcessedLogEntry, subscriberBuffer)
	h.mu.Lock()
	h.subscribers = append(h.subscribers, ch)
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (h *Hub) Unsubscribe(sub <-chan model.ProcessedLogEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, ch := range h.subscribers {
		if ch == sub {
			close(ch)
			h.subscribers = append(h.subscribers[:i], h.subscribers[i+1:]...)
			return
		}
	}
}

// Dropped returns the total number of alerts dropped due to slow consumers.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Stats returns the line and alert counters.
func (h *Hub) Stats() Stats {
	return Stats{
		Parsed:  h.parsed.Load(),
		Skipped: h.skipped.Load(),
		Alerts:  h.alerts.Load(),
		Dropped: h.dropped.Load(),
	}
}

// Start begins reading from the input channel, detecting and broadcasting.
// Blocks until the context is cancelled or the input channel is closed.
func (h *Hub) Start(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-h.input:
			if !ok {
				return
			}
			for _, alert := range h.Process(ctx, raw) {
				h.broadcast(alert)
			}
		}
	}
}

// Process parses one raw line and returns its alerts, one per detector that flagged it.
// Lines outside the grammar yield nothing.
func (h *Hub) Process(ctx context.Context, raw model.RawLine) []model.ProcessedLogEntry {
	entry, ok := h.parser.ParseLine(raw.Text)
	if !ok {
		h.skipped.Add(1)
		h.metrics.ObserveParse(0, 1)
		return nil
	}
	h.parsed.Add(1)
	h.metrics.ObserveParse(1, 0)

	batch := []model.LogEntry{entry}
	var alerts []model.ProcessedLogEntry
	for _, endpoint := range h.registry.Endpoints() {
		d, at, err := h.registry.Lookup(endpoint)
		if err != nil {
			// Unregistered since Endpoints was read.
			continue
		}
		flagged, err := d.Detect(ctx, batch)
		if err == nil {
			var processed []model.ProcessedLogEntry
			processed, err = aggregator.Process(flagged, at.Name)
			if err == nil {
				h.metrics.ObserveScan(endpoint, at.Name, len(processed), nil)
				alerts = append(alerts, processed...)
				continue
			}
		}
		h.metrics.ObserveScan(endpoint, at.Name, 0, err)
		h.logger.Warn("hub: detector failed", "endpoint", endpoint, "source", raw.Source, "error", err)
	}
	h.alerts.Add(int64(len(alerts)))
	return alerts
}

// broadcast sends an alert to all subscribers.
// If a subscriber's channel is full, the alert is dropped for that subscriber.
func (h *Hub) broadcast(alert model.ProcessedLogEntry) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- alert:
		default:
			total := h.dropped.Add(1)
			h.metrics.ObserveHubDrop()
			h.logger.Debug("hub: dropped alert for slow consumer", "total_dropped", total)
		}
	}
}

// closeAll closes all subscriber channels.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subscribers {
		close(ch)
	}
	h.subscribers = nil
}
