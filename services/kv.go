package services

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// KeyValueStore is the AsyncStorage-shaped persistence the guest store runs
// on: string keys to JSON blobs, nothing else. GetItem returns ("", nil) for
// a missing key.
type KeyValueStore interface {
	GetItem(key string) (string, error)
	SetItem(key, value string) error
}

// FileKeyValueStore persists each key as a JSON file in a directory. Writes go
// through a temp file and rename so a crash mid-write cannot leave a torn
// collection behind.
type FileKeyValueStore struct {
	dir string
}

func NewFileKeyValueStore(dir string) (*FileKeyValueStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileKeyValueStore{dir: dir}, nil
}

func (s *FileKeyValueStore) path(key string) string {
	// Keys are fixed constants, but sanitize anyway.
	safe := strings.ReplaceAll(key, string(os.PathSeparator), "_")
	return filepath.Join(s.dir, safe+".json")
}

func (s *FileKeyValueStore) GetItem(key string) (string, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *FileKeyValueStore) SetItem(key, value string) error {
	tmp, err := os.CreateTemp(s.dir, key+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err = tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, s.path(key))
}

// MemoryKeyValueStore backs tests and the guest flow simulation.
type MemoryKeyValueStore struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemoryKeyValueStore() *MemoryKeyValueStore {
	return &MemoryKeyValueStore{items: map[string]string{}}
}

func (s *MemoryKeyValueStore) GetItem(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items[key], nil
}

func (s *MemoryKeyValueStore) SetItem(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}
