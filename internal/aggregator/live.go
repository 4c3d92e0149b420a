package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/model"
)

// rateWindow is the span used for the alerts-per-second figure.
const rateWindow = 5 * time.Second

// LiveStats is a point-in-time snapshot of a live alert stream.
type LiveStats struct {
	Uptime          string           `json:"uptime"`
	TotalAlerts     int64            `json:"total_alerts"`
	AlertsPerSecond float64          `json:"alerts_per_second"`
	TypeCounts      map[string]int64 `json:"type_counts"`
	DroppedAlerts   int64            `json:"dropped_alerts"`
	FilesWatched    int              `json:"files_watched"`
}

// Live consumes hub alerts and keeps windowed counters alongside a ResultSet.
type Live struct {
	mu         sync.RWMutex
	startTime  time.Time
	total      int64
	typeCounts map[string]int64
	window     []time.Time
	dropped    func() int64
	fileCount  func() int
	alerts     <-chan model.ProcessedLogEntry
	results    *ResultSet
	now        func() time.Time
}

// NewLive creates a Live aggregator reading from a hub subscription.
// droppedFn and fileCountFn provide live values from the hub and watcher; either may be nil.
func NewLive(alerts <-chan model.ProcessedLogEntry, droppedFn func() int64, fileCountFn func() int) *Live {
	if droppedFn == nil {
		droppedFn = func() int64 { return 0 }
	}
	if fileCountFn == nil {
		fileCountFn = func() int { return 0 }
	}
	return &Live{
		startTime:  time.Now(),
		typeCounts: make(map[string]int64),
		dropped:    droppedFn,
		fileCount:  fileCountFn,
		alerts:     alerts,
		results:    NewResultSet(),
		now:        time.Now,
	}
}

// Results returns the alerts recorded so far.
func (l *Live) Results() *ResultSet {
	return l.results
}

// Snapshot returns the current counters.
func (l *Live) Snapshot() LiveStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	counts := make(map[string]int64, len(l.typeCounts))
	for k, v := range l.typeCounts {
		counts[k] = v
	}

	cutoff := l.now().Add(-rateWindow)
	var recent int
	for _, t := range l.window {
		if t.After(cutoff) {
			recent++
		}
	}

	return LiveStats{
		Uptime:          time.Since(l.startTime).Truncate(time.Second).String(),
		TotalAlerts:     l.total,
		AlertsPerSecond: float64(recent) / rateWindow.Seconds(),
		TypeCounts:      counts,
		DroppedAlerts:   l.dropped(),
		FilesWatched:    l.fileCount(),
	}
}

// Start consumes alerts until ctx is cancelled or the channel closes.
func (l *Live) Start(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case alert, ok := <-l.alerts:
			if !ok {
				return
			}
			l.record(alert)
		case <-ticker.C:
			l.prune()
		}
	}
}

func (l *Live) record(alert model.ProcessedLogEntry) {
	l.mu.Lock()
	l.total++
	l.typeCounts[alert.AttackType]++
	l.window = append(l.window, l.now())
	l.mu.Unlock()

	l.results.Append(alert)
}

// prune drops window timestamps older than rateWindow.
func (l *Live) prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-rateWindow)
	i := 0
	for _, t := range l.window {
		if t.After(cutoff) {
			l.window[i] = t
			i++
		}
	}
	l.window = l.window[:i]
}
