// Package persistence implements the state stores that remember the last
// notified tag per tracked entry.
package persistence

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/relwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

const defaultStatePath = "relwatch_state.json"

// fileStore keeps the full state as a flat JSON object on local disk and
// writes it back after every update.
type fileStore struct {
	path string

	mu   sync.Mutex
	data map[string]string
}

func newFileStore(conf map[string]any) (interfaces.StateStore, error) {
	path := defaultStatePath
	if p, ok := conf["path"].(string); ok && p != "" {
		path = p
	}

	s := &fileStore{path: path, data: map[string]string{}}

	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// First run, start empty.
	case err != nil:
		return nil, goerr.Wrap(err, "failed to read state file", goerr.V("path", path), goerr.T(types.ErrTagPersistence))
	default:
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, goerr.Wrap(err, "corrupted state file", goerr.V("path", path), goerr.T(types.ErrTagPersistence))
		}
	}

	return s, nil
}

func (s *fileStore) GetLastTag(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tag, ok := s.data[key]
	return tag, ok, nil
}

func (s *fileStore) SetLastTag(_ context.Context, key, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = tag
	return s.flush()
}

func (s *fileStore) flush() error {
	raw, err := json.Marshal(s.data)
	if err != nil {
		return goerr.Wrap(err, "failed to encode state", goerr.T(types.ErrTagPersistence))
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return goerr.Wrap(err, "failed to write state file", goerr.V("path", s.path), goerr.T(types.ErrTagPersistence))
	}
	return nil
}

func (s *fileStore) ListKeys(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.data))
	for k, tag := range s.data {
		if prefix != "" && !strings.HasPrefix(k, prefix) {
			continue
		}
		keys = append(keys, k+":"+tag)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *fileStore) DeleteKeys(_ context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int
	for k := range s.data {
		if prefix != "" && !strings.HasPrefix(k, prefix) {
			continue
		}
		delete(s.data, k)
		deleted++
	}
	if deleted > 0 {
		if err := s.flush(); err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}

func (s *fileStore) Close() error { return nil }
