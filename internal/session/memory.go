package session

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mohammed-shakir/country-catalog/internal/core/observability"
)

type MemoryStore struct {
	lru *expirable.LRU[string, Session]
}

// NewMemoryStore holds at most size sessions, each for ttl after its last
// write. The oldest session is evicted when full.
func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	if size <= 0 {
		size = 1024
	}
	return &MemoryStore{lru: expirable.NewLRU[string, Session](size, nil, ttl)}
}

func (m *MemoryStore) Put(_ context.Context, s Session) error {
	m.lru.Add(s.ID, s)
	observability.SetSessionsActive(m.lru.Len())
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Session, error) {
	s, ok := m.lru.Get(id)
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.lru.Remove(id)
	observability.SetSessionsActive(m.lru.Len())
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error {
	m.lru.Purge()
	return nil
}

func (m *MemoryStore) Len() int { return m.lru.Len() }
