package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/nlu/pkg/nlu/internalerr"
	"github.com/cognicore/nlu/pkg/nlu/persistor"
)

// Store is an in-memory implementation of persistor.Archive for tests.
type Store struct {
	mu     sync.RWMutex
	models map[string]map[string][]persistor.File // project → model → files
}

// New creates a new in-memory archive.
func New() *Store {
	return &Store{models: make(map[string]map[string][]persistor.File)}
}

// Close implements persistor.Archive.
func (s *Store) Close() error { return nil }

// Persist snapshots localDir, replacing any model stored under the same name.
func (s *Store) Persist(ctx context.Context, localDir, modelName, projectName string) error {
	files, err := persistor.ReadDir(localDir)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.models[projectName] == nil {
		s.models[projectName] = make(map[string][]persistor.File)
	}
	s.models[projectName][modelName] = files
	return nil
}

// Retrieve writes the stored model into targetDir.
func (s *Store) Retrieve(ctx context.Context, modelName, projectName, targetDir string) error {
	s.mu.RLock()
	files, ok := s.models[projectName][modelName]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: model %s/%s", internalerr.ErrNotFound, projectName, modelName)
	}
	return persistor.WriteDir(targetDir, files)
}

// List returns the model names of a project, sorted.
func (s *Store) List(ctx context.Context, projectName string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.models[projectName]))
	for name := range s.models[projectName] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
