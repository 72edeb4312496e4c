package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore — Store в памяти процесса (тесты, session.driver=memory).
type MemoryStore struct {
	mu      sync.Mutex
	value   string
	expires time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.value == "" || !m.now().Before(m.expires) {
		return "", ErrNoToken
	}

	return m.value, nil
}

func (m *MemoryStore) Save(_ context.Context, encoded string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.value = encoded
	m.expires = m.now().Add(ttl)

	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.value = ""
	m.expires = time.Time{}

	return nil
}
