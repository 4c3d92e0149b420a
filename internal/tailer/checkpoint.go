package tailer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// checkpointData is the on-disk JSON structure for persisted offsets.
type checkpointData struct {
	Offsets map[string]int64 `json:"offsets"`
}

// Checkpoint persists file read offsets so tailing can resume after a restart.
type Checkpoint struct {
	mu   sync.RWMutex
	path string // empty keeps offsets in memory only
	data checkpointData
}

// NewCheckpoint loads the checkpoint file at path. A missing file starts empty;
// a file that is not valid checkpoint JSON is an error.
func NewCheckpoint(path string) (*Checkpoint, error) {
	c := MemoryCheckpoint()
	c.path = path

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return c, nil
	case err != nil:
		return nil, fmt.Errorf("reading checkpoint %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &c.data); err != nil {
		return nil, fmt.Errorf("decoding checkpoint %s: %w", path, err)
	}
	if c.data.Offsets == nil {
		c.data.Offsets = make(map[string]int64)
	}
	return c, nil
}

// MemoryCheckpoint returns a checkpoint that is never written to disk.
func MemoryCheckpoint() *Checkpoint {
	return &Checkpoint{data: checkpointData{Offsets: make(map[string]int64)}}
}

// Get returns the saved offset for a file path.
func (c *Checkpoint) Get(path string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data.Offsets[path]
	return v, ok
}

// Set records the current offset for a file path.
func (c *Checkpoint) Set(path string, offset int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Offsets[path] = offset
}

// Save writes the offsets to disk through a temp file and rename.
func (c *Checkpoint) Save() error {
	if c.path == "" {
		return nil
	}
	c.mu.RLock()
	raw, err := json.MarshalIndent(c.data, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return err
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}
