package custom

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/model"
)

// storeData is the on-disk JSON structure, keyed by detector id.
type storeData struct {
	Detectors map[string]model.CustomDetector `json:"detectors"`
}

// Store persists custom detector definitions in a JSON file.
type Store struct {
	mu   sync.RWMutex
	path string
	data storeData
}

// NewStore opens or creates the store at path. A missing file is an empty store.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path: path,
		data: storeData{Detectors: make(map[string]model.CustomDetector)},
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading detector store: %w", err)
	default:
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, fmt.Errorf("decoding detector store %s: %w", path, err)
		}
	}
	if s.data.Detectors == nil {
		s.data.Detectors = make(map[string]model.CustomDetector)
	}
	return s, nil
}

// List returns all definitions, oldest first.
func (s *Store) List() []model.CustomDetector {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.CustomDetector, 0, len(s.data.Detectors))
	for _, d := range s.data.Detectors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Get returns one definition or ErrNotFound.
func (s *Store) Get(id string) (model.CustomDetector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.data.Detectors[id]
	if !ok {
		return model.CustomDetector{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return d, nil
}

// Put adds or replaces a definition and saves the store.
func (s *Store) Put(d model.CustomDetector) error {
	if d.ID == "" {
		return errors.New("custom detector id must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Detectors[d.ID] = d
	return s.save()
}

// Delete removes a definition. It reports whether the id existed.
func (s *Store) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.Detectors[id]; !ok {
		return false, nil
	}
	delete(s.data.Detectors, id)
	return true, s.save()
}

// save writes the store atomically. Callers hold the write lock.
func (s *Store) save() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	// Write to a temp file first, then rename for atomicity.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
