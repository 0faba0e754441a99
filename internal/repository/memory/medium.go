package memory

import (
	"context"
	"sync"
)

type Medium struct {
	mu sync.RWMutex
	kv map[string]string
}

func New() *Medium { return &Medium{kv: map[string]string{}} }

func (m *Medium) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.kv[key]
	return v, ok, nil
}

func (m *Medium) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = value
	return nil
}
