// Package storage provides statement-scoped scratch artifact storage.
// Decrypted statement bytes only ever live here, and only for the duration
// of a pipeline run: every Put hands back a release func that the caller is
// responsible for invoking on every exit path.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Scratch is a directory-backed store for transient decrypted artifacts.
type Scratch struct {
	basePath string

	mu   sync.Mutex
	live map[string]string // artifact id -> file path, for leak accounting
}

// NewScratch creates the scratch directory if needed.
func NewScratch(basePath string) (*Scratch, error) {
	if err := os.MkdirAll(basePath, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return &Scratch{
		basePath: basePath,
		live:     map[string]string{},
	}, nil
}

// Put writes an artifact and returns its path plus a release func. Release
// is idempotent and always removes the file; callers defer it immediately
// after a successful Put so later pipeline failures cannot leak plaintext.
func (s *Scratch) Put(statementID uuid.UUID, suffix string, data []byte) (string, func(), error) {
	artifactID := fmt.Sprintf("%s_%s%s", statementID, uuid.NewString()[:8], suffix)
	path := filepath.Join(s.basePath, artifactID)

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", nil, fmt.Errorf("failed to write scratch artifact: %w", err)
	}

	s.mu.Lock()
	s.live[artifactID] = path
	s.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			os.Remove(path)
			s.mu.Lock()
			delete(s.live, artifactID)
			s.mu.Unlock()
		})
	}
	return path, release, nil
}

// LiveCount returns the number of artifacts not yet released.
func (s *Scratch) LiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Sweep removes any leftover files in the scratch directory. Run at startup
// to clear artifacts orphaned by a previous crash.
func (s *Scratch) Sweep() error {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return fmt.Errorf("failed to read scratch directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.basePath, entry.Name())); err != nil {
			return fmt.Errorf("failed to sweep scratch artifact %s: %w", entry.Name(), err)
		}
	}
	s.mu.Lock()
	s.live = map[string]string{}
	s.mu.Unlock()
	return nil
}
