package localfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

var namespacePattern = regexp.MustCompile(`^[a-z0-9_\-]+$`)

// TranslationStore keeps one JSON file per namespace mapping language to payload.
// Writes go through a temp file and rename so a crash never leaves a torn file.
type TranslationStore struct {
	basePath string

	mu sync.Mutex
}

func New(basePath string) (*TranslationStore, error) {
	if basePath == "" {
		basePath = "./data/cache"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &TranslationStore{basePath: basePath}, nil
}

func (s *TranslationStore) Load(_ context.Context, namespace string) (map[string]json.RawMessage, error) {
	path, err := s.path(namespace)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return readFile(path)
}

func (s *TranslationStore) Save(_ context.Context, namespace, language string, payload json.RawMessage) error {
	path, err := s.path(namespace)
	if err != nil {
		return err
	}
	if language == "" {
		return errors.New("language is required")
	}
	if !json.Valid(payload) {
		return fmt.Errorf("payload for %s/%s is not valid json", namespace, language)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := readFile(path)
	if err != nil {
		return err
	}
	entries[language] = payload

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode %s cache: %w", namespace, err)
	}
	tmp, err := os.CreateTemp(s.basePath, namespace+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}

func (s *TranslationStore) path(namespace string) (string, error) {
	if !namespacePattern.MatchString(namespace) {
		return "", fmt.Errorf("invalid cache namespace %q", namespace)
	}
	return filepath.Join(s.basePath, namespace+".json"), nil
}

func readFile(path string) (map[string]json.RawMessage, error) {
	entries := make(map[string]json.RawMessage)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode cache file %s: %w", filepath.Base(path), err)
	}
	return entries, nil
}
