package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	content    []byte
	expiration time.Time
}

// Memory is a process-local Cache. Expired entries are dropped lazily on read.
type Memory struct {
	mu    sync.RWMutex
	items map[string]memoryEntry
	lists map[string][]string
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		items: make(map[string]memoryEntry),
		lists: make(map[string][]string),
		now:   time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	m.mu.RLock()
	entry, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}

	if !entry.expiration.IsZero() && !m.now().Before(entry.expiration) {
		m.mu.Lock()
		if current, ok := m.items[key]; ok && current.expiration.Equal(entry.expiration) {
			delete(m.items, key)
		}
		m.mu.Unlock()
		return false, nil
	}

	if err := json.Unmarshal(entry.content, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	content, err := json.Marshal(value)
	if err != nil {
		return err
	}

	entry := memoryEntry{content: content}
	if ttl > 0 {
		entry.expiration = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.items[key] = entry
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	delete(m.lists, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) PushCapped(_ context.Context, key string, value string, limit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := append([]string{value}, m.lists[key]...)
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	m.lists[key] = list
	return nil
}

// List returns a copy of the list stored at key, newest first.
func (m *Memory) List(key string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.lists[key]))
	copy(out, m.lists[key])
	return out
}
