package tailer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/model"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/watcher"
)

const accessLine = `203.0.113.7 - - [10/Oct/2023:13:56:01 +0000] "GET /index.html HTTP/1.1" 200 512 "-" "curl/8.0" example.com 10.0.0.1`

func startTailer(t *testing.T, path string, ckpt *Checkpoint, opts Options) (*Tailer, context.CancelFunc) {
	t.Helper()
	w, err := watcher.New([]string{path}, nil)
	if err != nil {
		t.Fatal(err)
	}
	tail := New(w, ckpt, opts)

	ctx, cancel := context.WithCancel(context.Background())
	go w.Start(ctx)
	go tail.Start(ctx)

	t.Cleanup(func() {
		cancel()
		// Allow goroutines to stop before TempDir cleanup.
		time.Sleep(200 * time.Millisecond)
	})
	return tail, cancel
}

func appendTo(t *testing.T, path, text string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		t.Fatal(err)
	}
}

func nextLine(t *testing.T, tail *Tailer) model.RawLine {
	t.Helper()
	select {
	case raw := <-tail.Lines():
		return raw
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for log line")
	}
	return model.RawLine{}
}

func TestTailNewLines(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "access.log")
	if err := os.WriteFile(logPath, []byte("existing line\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ckpt, err := NewCheckpoint(filepath.Join(dir, ".cyberdetect-state.json"))
	if err != nil {
		t.Fatal(err)
	}
	tail, _ := startTailer(t, logPath, ckpt, Options{})

	// Give the tailer a moment to initialize and seek to end.
	time.Sleep(300 * time.Millisecond)
	appendTo(t, logPath, accessLine+"\n")

	raw := nextLine(t, tail)
	if raw.Text != accessLine {
		t.Errorf("expected appended line, got %q", raw.Text)
	}
	if raw.Source != logPath {
		t.Errorf("expected source %q, got %q", logPath, raw.Source)
	}
}

func TestTailFromStart(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "access.log")
	if err := os.WriteFile(logPath, []byte("first\r\nsecond\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tail, _ := startTailer(t, logPath, nil, Options{FromStart: true})

	if got := nextLine(t, tail).Text; got != "first" {
		t.Errorf("expected 'first', got %q", got)
	}
	if got := nextLine(t, tail).Text; got != "second" {
		t.Errorf("expected 'second', got %q", got)
	}
}

func TestTailHoldsPartialLine(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "access.log")
	if err := os.WriteFile(logPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	tail, _ := startTailer(t, logPath, nil, Options{})
	time.Sleep(300 * time.Millisecond)

	appendTo(t, logPath, "203.0.113.7 - - ")
	time.Sleep(200 * time.Millisecond)
	select {
	case raw := <-tail.Lines():
		t.Fatalf("unexpected line before newline: %q", raw.Text)
	default:
	}

	appendTo(t, logPath, "rest\n")
	if got := nextLine(t, tail).Text; got != "203.0.113.7 - - rest" {
		t.Errorf("expected joined line, got %q", got)
	}
}

func TestTailResumesFromCheckpoint(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "access.log")
	if err := os.WriteFile(logPath, []byte("seen\nunseen\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ckpt := MemoryCheckpoint()
	ckpt.Set(logPath, int64(len("seen\n")))

	tail, _ := startTailer(t, logPath, ckpt, Options{})
	if got := nextLine(t, tail).Text; got != "unseen" {
		t.Errorf("expected 'unseen', got %q", got)
	}
}

func TestCheckpointSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ckpt.json")

	c1, err := NewCheckpoint(path)
	if err != nil {
		t.Fatal(err)
	}
	c1.Set("/var/log/nginx/access.log", 42)
	c1.Set("/var/log/apache2/access.log", 1024)
	if err := c1.Save(); err != nil {
		t.Fatal(err)
	}

	c2, err := NewCheckpoint(path)
	if err != nil {
		t.Fatal(err)
	}

	v1, ok := c2.Get("/var/log/nginx/access.log")
	if !ok || v1 != 42 {
		t.Errorf("expected 42, got %d (found=%v)", v1, ok)
	}

	v2, ok := c2.Get("/var/log/apache2/access.log")
	if !ok || v2 != 1024 {
		t.Errorf("expected 1024, got %d (found=%v)", v2, ok)
	}

	if _, ok := c2.Get("/nonexistent"); ok {
		t.Error("expected missing key to return false")
	}
}

func TestCheckpointCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ckpt.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewCheckpoint(path); err == nil {
		t.Fatal("expected error for corrupt checkpoint")
	}
}

func TestMemoryCheckpointSaveIsNoop(t *testing.T) {
	c := MemoryCheckpoint()
	c.Set("a", 1)
	if err := c.Save(); err != nil {
		t.Fatal(err)
	}
}
