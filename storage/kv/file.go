package kv

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/noteshub/backend/core"
)

// fileStore persists keys in a single JSON object file. It is the
// local-storage analogue for single-process deployments.
type fileStore struct {
	mu   sync.Mutex
	path string
}

var _ core.KVStore = (*fileStore)(nil)

func NewFileStore(path string) core.KVStore {
	return &fileStore{path: path}
}

func (s *fileStore) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, errors.Wrap(err, "reading kv file")
	}

	data := make(map[string]string)
	if err = json.Unmarshal(raw, &data); err != nil {
		// a corrupt file behaves like an empty one; the next Set rewrites it
		return make(map[string]string), nil
	}
	return data, nil
}

func (s *fileStore) Get(_ context.Context, key, def string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return "", err
	}
	if v, ok := data[key]; ok {
		return v, nil
	}
	return def, nil
}

func (s *fileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}
	data[key] = value

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding kv file")
	}

	if err = os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "creating kv dir")
	}
	// write-then-rename so a crash mid-write cannot corrupt the store
	tmp := s.path + ".tmp"
	if err = os.WriteFile(tmp, raw, 0o644); err != nil {
		return errors.Wrap(err, "writing kv file")
	}
	return errors.Wrap(os.Rename(tmp, s.path), "replacing kv file")
}
