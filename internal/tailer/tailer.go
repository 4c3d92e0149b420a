// Package tailer follows appended lines in watched access logs.
package tailer

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/model"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/watcher"
	"github.com/fsnotify/fsnotify"
)

const (
	lineBuffer       = 512
	saveInterval     = 5 * time.Second
	reconnectRetries = 5
)

// Options control where tailing begins and how the tailer logs.
type Options struct {
	// FromStart reads files without a checkpoint from offset zero instead of their end.
	FromStart bool
	Logger    *slog.Logger
}

// Tailer reads newly appended lines from watched files and emits RawLine values.
type Tailer struct {
	mu     sync.Mutex
	files  map[string]*trackedFile
	out    chan model.RawLine
	ckpt   *Checkpoint
	events <-chan watcher.Event
	watch  *watcher.Watcher
	opts   Options
	logger *slog.Logger
	retry  time.Duration
}

type trackedFile struct {
	file    *os.File
	reader  *bufio.Reader
	offset  int64  // offset of the first byte not yet emitted
	partial string // bytes after the last newline
}

// New creates a Tailer that reads events from the given Watcher.
func New(w *watcher.Watcher, ckpt *Checkpoint, opts Options) *Tailer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if ckpt == nil {
		ckpt = MemoryCheckpoint()
	}
	return &Tailer{
		files:  make(map[string]*trackedFile),
		out:    make(chan model.RawLine, lineBuffer),
		ckpt:   ckpt,
		events: w.Events,
		watch:  w,
		opts:   opts,
		logger: opts.Logger,
		retry:  time.Second,
	}
}

// Lines returns the channel where raw log lines are sent.
func (t *Tailer) Lines() <-chan model.RawLine {
	return t.out
}

// Start begins processing watcher events. Blocks until the context is cancelled.
func (t *Tailer) Start(ctx context.Context) {
	defer close(t.out)

	for _, p := range t.watch.Paths() {
		t.openFile(p)
		t.readNewLines(ctx, p)
	}

	saveTicker := time.NewTicker(saveInterval)
	defer saveTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.saveCheckpoint()
			t.closeAll()
			return

		case ev, ok := <-t.events:
			if !ok {
				t.saveCheckpoint()
				t.closeAll()
				return
			}
			t.handleEvent(ctx, ev)

		case <-saveTicker.C:
			t.saveCheckpoint()
		}
	}
}

func (t *Tailer) handleEvent(ctx context.Context, ev watcher.Event) {
	switch {
	case ev.Op.Has(fsnotify.Write):
		t.readNewLines(ctx, ev.Path)

	case ev.Op.Has(fsnotify.Create):
		t.openFile(ev.Path)
		t.readNewLines(ctx, ev.Path)

	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		t.closeFile(ev.Path)
		// A rotated file starts over at zero.
		t.ckpt.Set(ev.Path, 0)
		go t.reconnect(ctx, ev.Path)
	}
}

// openFile opens a file for tailing, resuming from the checkpointed offset.
func (t *Tailer) openFile(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.files[path]; exists {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		t.logger.Warn("tailer: cannot open file", "path", path, "error", err)
		return
	}

	var offset int64
	switch saved, ok := t.ckpt.Get(path); {
	case ok:
		offset = saved
	case t.opts.FromStart:
		offset = 0
	default:
		offset, _ = f.Seek(0, io.SeekEnd)
	}
	if info, err := f.Stat(); err == nil && info.Size() < offset {
		t.logger.Info("tailer: file shrank, restarting from zero", "path", path)
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		t.logger.Warn("tailer: seek failed", "path", path, "error", err)
		f.Close()
		return
	}

	t.files[path] = &trackedFile{
		file:   f,
		reader: bufio.NewReader(f),
		offset: offset,
	}
	t.logger.Debug("tailer: opened file", "path", path, "offset", offset)
}

// readNewLines reads to EOF and emits every complete line. A trailing fragment without a
// newline is held until the rest of it is written.
func (t *Tailer) readNewLines(ctx context.Context, path string) {
	t.mu.Lock()
	tf, ok := t.files[path]
	t.mu.Unlock()
	if !ok {
		return
	}

	if info, err := tf.file.Stat(); err == nil && info.Size() < tf.offset+int64(len(tf.partial)) {
		t.logger.Info("tailer: file truncated, restarting from zero", "path", path)
		if _, err := tf.file.Seek(0, io.SeekStart); err == nil {
			tf.reader.Reset(tf.file)
			tf.offset = 0
			tf.partial = ""
		}
	}

	for {
		chunk, err := tf.reader.ReadString('\n')
		if err != nil {
			tf.partial += chunk
			if !errors.Is(err, io.EOF) {
				t.logger.Warn("tailer: read error", "path", path, "error", err)
			}
			break
		}
		line := strings.TrimRight(tf.partial+chunk, "\r\n")
		tf.offset += int64(len(tf.partial) + len(chunk))
		tf.partial = ""

		select {
		case t.out <- model.RawLine{Text: line, Source: path}:
		case <-ctx.Done():
			t.ckpt.Set(path, tf.offset)
			return
		}
	}
	t.ckpt.Set(path, tf.offset)
}

func (t *Tailer) closeFile(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tf, ok := t.files[path]; ok {
		tf.file.Close()
		delete(t.files, path)
	}
}

// reconnect polls for a file to reappear after rotation.
func (t *Tailer) reconnect(ctx context.Context, path string) {
	for i := 0; i < reconnectRetries; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(t.retry):
		}
		if _, err := os.Stat(path); err == nil {
			t.logger.Info("tailer: reconnected to rotated file", "path", path)
			if err := t.watch.ReWatch(path); err != nil {
				t.logger.Warn("tailer: rewatch failed", "path", path, "error", err)
			}
			t.openFile(path)
			return
		}
	}
	t.logger.Warn("tailer: gave up reconnecting", "path", path, "retries", reconnectRetries)
}

func (t *Tailer) saveCheckpoint() {
	if err := t.ckpt.Save(); err != nil {
		t.logger.Error("tailer: checkpoint save failed", "error", err)
	}
}

func (t *Tailer) closeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for path, tf := range t.files {
		tf.file.Close()
		delete(t.files, path)
	}
}
