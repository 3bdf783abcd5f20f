package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Adda-Baaj/tomato-bot/internal/logger"
)

// jsonStore keeps posted ids in memory and rewrites a JSON array file on every Add.
type jsonStore struct {
	path string
	ids  map[string]struct{}
}

// openJSON reads the whole file up front. A missing or unreadable file yields an empty store.
func openJSON(path string) (Store, error) {
	s := &jsonStore{path: path, ids: make(map[string]struct{})}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.InfoObj("dedup file not found; starting empty", "storage_path", path)
		return s, nil
	case err != nil:
		logger.WarnObj("dedup file unreadable; starting empty", "storage_error", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
		return s, nil
	}

	ids, err := decodeIDs(raw)
	if err != nil {
		logger.WarnObj("dedup file corrupt; starting empty", "storage_error", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
		return s, nil
	}
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			s.ids[id] = struct{}{}
		}
	}
	return s, nil
}

// decodeIDs accepts either a JSON array of ids or an object keyed by id.
func decodeIDs(raw []byte) ([]string, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("decode posted ids: %w", err)
	}
	out := make([]string, 0, len(obj))
	for id := range obj {
		out = append(out, id)
	}
	return out, nil
}

func (s *jsonStore) Close() error { return nil }

func (s *jsonStore) Contains(id string) (bool, error) {
	_, ok := s.ids[strings.TrimSpace(id)]
	return ok, nil
}

// Add records id and rewrites the file through a temp file + rename.
func (s *jsonStore) Add(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("empty id")
	}
	if _, ok := s.ids[id]; ok {
		return nil
	}
	s.ids[id] = struct{}{}

	if err := s.flush(); err != nil {
		delete(s.ids, id)
		return err
	}
	return nil
}

func (s *jsonStore) flush() error {
	dir := filepath.Dir(s.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create storage directory: %w", err)
		}
	}

	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	b, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal posted ids: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write posted ids: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace posted ids: %w", err)
	}
	return nil
}
