// internal/adapters/out/tokenstore/memory.go
package tokenstore

import (
	"context"
	"sync"
	"time"

	authdom "b7pizza/internal/domain/auth"
)

// Memory keeps tokens in process. Used for tests and local development;
// tokens do not survive a restart.
type Memory struct {
	mu    sync.RWMutex
	data  map[string]record
	ttl   time.Duration
	clock Clock
}

var _ authdom.TokenStore = (*Memory)(nil)

func NewMemory(ttl time.Duration) *Memory {
	return NewMemoryWithClock(ttl, nil)
}

// NewMemoryWithClock is useful for tests.
func NewMemoryWithClock(ttl time.Duration, clock Clock) *Memory {
	if clock == nil {
		clock = systemClock{}
	}
	return &Memory{data: map[string]record{}, ttl: ttl, clock: clock}
}

func (m *Memory) Load(ctx context.Context, key string) (string, bool, error) {
	k, err := normalizeKey(key)
	if err != nil {
		return "", false, err
	}
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	now := m.clock.Now()
	m.mu.RLock()
	rec, ok := m.data[k]
	m.mu.RUnlock()

	if !ok {
		return "", false, nil
	}
	if rec.expired(now) {
		m.mu.Lock()
		// a Save may have replaced the record meanwhile
		if cur, ok := m.data[k]; ok && cur.expired(now) {
			delete(m.data, k)
		}
		m.mu.Unlock()
		return "", false, nil
	}
	return rec.Token, true, nil
}

func (m *Memory) Save(ctx context.Context, key, token string) error {
	k, err := normalizeKey(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if token == "" {
		return m.Delete(ctx, k)
	}

	m.mu.Lock()
	m.data[k] = newRecord(token, m.clock.Now(), m.ttl)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	k, err := normalizeKey(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.data, k)
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored keys. Expired keys count until a Load
// drops them.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
