// Package session keeps the per-session catalog snapshot and its load state.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/mohammed-shakir/country-catalog/internal/core/model"
)

const (
	MemoryBackend = "memory"
	RedisBackend  = "redis"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID        string          `json:"id"`
	State     model.LoadState `json:"state"`
	Catalog   model.Catalog   `json:"catalog"`
	CreatedAt time.Time       `json:"created_at"`
}

type Store interface {
	Put(ctx context.Context, s Session) error
	// Get returns ErrNotFound for unknown or expired ids.
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}
