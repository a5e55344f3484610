package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mohammed-shakir/country-catalog/internal/catalog"
	"github.com/mohammed-shakir/country-catalog/internal/core/model"
	"github.com/mohammed-shakir/country-catalog/internal/core/upstream"
	"github.com/mohammed-shakir/country-catalog/internal/events"
	"github.com/mohammed-shakir/country-catalog/internal/logger"
)

type ManagerOptions struct {
	Logger      *slog.Logger
	Events      events.Sink
	LoadTimeout time.Duration
	Now         func() time.Time
}

// Manager opens sessions. Opening one starts its single catalog load in
// the background; the session reads Loading until that load settles.
type Manager struct {
	store   Store
	fetch   upstream.Fetcher
	log     *slog.Logger
	events  events.Sink
	timeout time.Duration
	now     func() time.Time
	wg      sync.WaitGroup
}

func NewManager(store Store, fetch upstream.Fetcher, opts ManagerOptions) *Manager {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Events == nil {
		opts.Events = events.Nop{}
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		store:   store,
		fetch:   fetch,
		log:     opts.Logger,
		events:  opts.Events,
		timeout: opts.LoadTimeout,
		now:     opts.Now,
	}
}

func (m *Manager) Open(ctx context.Context) (Session, error) {
	s := Session{
		ID:        uuid.NewString(),
		State:     model.Loading(),
		CreatedAt: m.now().UTC(),
	}
	if err := m.store.Put(ctx, s); err != nil {
		return Session{}, fmt.Errorf("open session: %w", err)
	}

	m.wg.Add(1)
	go m.load(s)
	return s, nil
}

func (m *Manager) load(s Session) {
	defer m.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	ctx = logger.WithSessionID(ctx, s.ID)
	ctx = logger.WithComponent(ctx, "catalog")

	l := catalog.New(m.fetch, catalog.Options{Logger: m.log, Now: m.now})
	cat, err := l.Load(ctx)
	s.State = l.State()
	if err == nil {
		s.Catalog = cat
		m.events.Publish(events.Event{Kind: events.CatalogLoaded, SessionID: s.ID, Records: cat.Len()})
	} else {
		m.events.Publish(events.Event{Kind: events.CatalogFailed, SessionID: s.ID, Error: s.State.Reason})
	}

	// the load deadline may have passed; the write-back still needs to land
	sctx, scancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer scancel()

	if _, err := m.store.Get(sctx, s.ID); err != nil {
		m.log.DebugContext(sctx, "session gone before catalog settled; discarding", "err", err)
		return
	}
	if err := m.store.Put(sctx, s); err != nil {
		m.log.ErrorContext(sctx, "session store update failed", "err", err)
	}
}

func (m *Manager) Get(ctx context.Context, id string) (Session, error) {
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

func (m *Manager) Close(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

// Wait blocks until every background load has settled.
func (m *Manager) Wait() {
	m.wg.Wait()
}
