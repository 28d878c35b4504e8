// Package prefs persists monitor UI state between runs.
// Values are JSON strings stored under per-field keys in a Storage backend.
package prefs

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

// Storage is a string key/value store for UI state.
type Storage interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// Load decodes the value stored under key into dest. When nothing is stored,
// or the stored value cannot be read or parsed, defaultJSON is used instead.
// Only a malformed default is an error.
func Load(storage Storage, key, defaultJSON string, dest any) error {
	if storage != nil {
		raw, ok, err := storage.GetItem(key)
		switch {
		case err != nil:
			log.Printf("prefs: read %s: %v", key, err)
		case ok:
			if err := json.Unmarshal([]byte(raw), dest); err == nil {
				return nil
			} else {
				log.Printf("prefs: parse %s: %v", key, err)
			}
		}
	}
	if err := json.Unmarshal([]byte(defaultJSON), dest); err != nil {
		return fmt.Errorf("parse default for %s: %w", key, err)
	}
	return nil
}

// Save encodes value as JSON and stores it under key.
func Save(storage Storage, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := storage.SetItem(key, string(raw)); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

// MemoryStorage keeps items in process memory.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

func (m *MemoryStorage) GetItem(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryStorage) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *MemoryStorage) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
