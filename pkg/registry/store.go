package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// WriteFile writes data to path atomically: a temp file in the same
// directory is renamed over the target, so readers and failed runs never
// see a partial artifact. It returns the SHA-256 of data.
func WriteFile(path string, data []byte) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename to %s: %w", path, err)
	}
	return Hash(data), nil
}

// Hash returns the hex SHA-256 of a serialized artifact.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ReadFile loads and validates an artifact from disk.
func ReadFile(path string) (*Artifact, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read artifact: %w", err)
	}
	a, err := Unmarshal(data)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return a, Hash(data), nil
}

// Store serves lookups from the artifact on disk and can swap in a newer
// one without interrupting readers.
type Store struct {
	mu       sync.RWMutex
	path     string
	artifact *Artifact
	hash     string
}

// NewStore creates a store for the artifact at path. Call Load before use.
func NewStore(path string) *Store {
	return &Store{path: path, artifact: emptyArtifact()}
}

// Load reads the artifact. On error the previously loaded one stays.
func (s *Store) Load() error {
	a, hash, err := ReadFile(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.artifact, s.hash = a, hash
	s.mu.Unlock()
	return nil
}

// Reload re-reads the artifact from disk (hot reload).
func (s *Store) Reload() error {
	return s.Load()
}

// Path returns the artifact file path.
func (s *Store) Path() string { return s.path }

// Hash returns the SHA-256 of the loaded artifact, "" before Load.
func (s *Store) Hash() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hash
}

// Lookup answers a (state, district) query from the loaded artifact.
func (s *Store) Lookup(state, district string) Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.artifact.Lookup(state, district)
}

// Summary returns the loaded artifact's statistics.
func (s *Store) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.artifact.Summary
}

// Collisions returns the loaded artifact's collisions. The map must not be
// modified.
func (s *Store) Collisions() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.artifact.Collisions
}

func emptyArtifact() *Artifact {
	return &Artifact{
		Mappings:   map[string]MappingRecord{},
		Excluded:   map[string]ExclusionRecord{},
		Collisions: map[string][]string{},
	}
}
