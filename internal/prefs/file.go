package prefs

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

const defaultStatePath = "~/.config/cueweb/state.toml"

// DefaultPath returns the default state file path.
func DefaultPath() string {
	return defaultStatePath
}

type fileContents struct {
	Items map[string]string `toml:"items"`
}

// FileStorage keeps items in a TOML file. The file is read once when opened
// and rewritten on every change.
type FileStorage struct {
	path string

	mu    sync.Mutex
	items map[string]string
}

var _ Storage = (*FileStorage)(nil)

// OpenFile opens the state file at path. A missing or unreadable file starts
// empty rather than failing.
func OpenFile(path string) (*FileStorage, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	fs := &FileStorage{path: resolved, items: make(map[string]string)}

	file, err := os.Open(resolved)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("prefs: open %s: %v", resolved, err)
		}
		return fs, nil
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		log.Printf("prefs: read %s: %v", resolved, err)
		return fs, nil
	}
	var contents fileContents
	if err := toml.Unmarshal(bytes, &contents); err != nil {
		log.Printf("prefs: parse %s: %v", resolved, err)
		return fs, nil
	}
	for k, v := range contents.Items {
		fs.items[k] = v
	}
	return fs, nil
}

// Path returns the resolved file path.
func (f *FileStorage) Path() string {
	return f.path
}

func (f *FileStorage) GetItem(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.items[key]
	return v, ok, nil
}

func (f *FileStorage) SetItem(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if current, ok := f.items[key]; ok && current == value {
		return nil
	}
	f.items[key] = value
	return f.writeLocked()
}

func (f *FileStorage) RemoveItem(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[key]; !ok {
		return nil
	}
	delete(f.items, key)
	return f.writeLocked()
}

func (f *FileStorage) writeLocked() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	bytes, err := toml.Marshal(fileContents{Items: f.items})
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, bytes, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultStatePath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
