package cmd

import (
	"context"
	"fmt"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/aggregator"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/detector"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/hub"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/metrics"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/tailer"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/watcher"
)

// pipeline is the live chain: watcher -> tailer -> hub -> subscribers.
type pipeline struct {
	watcher *watcher.Watcher
	tailer  *tailer.Tailer
	hub     *hub.Hub
	live    *aggregator.Live
}

// newPipeline wires the live components. Subscribe to p.hub before calling start.
func newPipeline(patterns []string, reg *detector.Registry, m *metrics.Metrics) (*pipeline, error) {
	w, err := watcher.New(patterns, logger)
	if err != nil {
		return nil, fmt.Errorf("watching %v: %w", patterns, err)
	}

	ckpt, err := tailer.NewCheckpoint(cfg.Watch.Checkpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	t := tailer.New(w, ckpt, tailer.Options{FromStart: cfg.Watch.FromStart, Logger: logger})

	h := hub.New(t.Lines(), hub.Options{Registry: reg, Metrics: m, Logger: logger})
	live := aggregator.NewLive(h.Subscribe(), h.Dropped, w.FileCount)

	return &pipeline{watcher: w, tailer: t, hub: h, live: live}, nil
}

func (p *pipeline) start(ctx context.Context) {
	go p.watcher.Start(ctx)
	go p.tailer.Start(ctx)
	go p.live.Start(ctx)
	go p.hub.Start(ctx)
}
