// Package catalog performs the one-shot bulk fetch of the country catalog.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mohammed-shakir/country-catalog/internal/core/model"
	"github.com/mohammed-shakir/country-catalog/internal/core/observability"
	"github.com/mohammed-shakir/country-catalog/internal/core/upstream"
)

const allPath = "all"

// Fields requested from the bulk endpoint.
var Fields = []string{"name", "region", "area"}

type Options struct {
	Logger *slog.Logger
	Now    func() time.Time
	NewID  func() string
}

// Loader fetches the catalog at most once. Every call to Load after the
// first returns the memoized outcome.
type Loader struct {
	fetch  upstream.Fetcher
	logger *slog.Logger
	now    func() time.Time
	newID  func() string

	once sync.Once
	mu   sync.RWMutex
	st   model.LoadState
	cat  model.Catalog
	err  error
}

func New(f upstream.Fetcher, opts Options) *Loader {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}
	return &Loader{
		fetch:  f,
		logger: opts.Logger,
		now:    opts.Now,
		newID:  opts.NewID,
		st:     model.Loading(),
	}
}

func (l *Loader) Load(ctx context.Context) (model.Catalog, error) {
	l.once.Do(func() { l.run(ctx) })

	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cat, l.err
}

func (l *Loader) run(ctx context.Context) {
	q := url.Values{}
	q.Set("fields", strings.Join(Fields, ","))

	var recs []model.CountryRecord
	err := l.fetch.GetJSON(ctx, allPath, q, &recs)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.err = fmt.Errorf("load catalog: %w", err)
		l.st = model.Failed(err.Error())
		observability.IncCatalogLoad("failed")
		l.logger.ErrorContext(ctx, "catalog load failed", "err", err)
		return
	}
	if recs == nil {
		recs = []model.CountryRecord{}
	}
	l.cat = model.Catalog{ID: l.newID(), Records: recs, LoadedAt: l.now()}
	l.st = model.Ready()
	observability.IncCatalogLoad("ready")
	l.logger.InfoContext(ctx, "catalog loaded", "catalog_id", l.cat.ID, "records", len(recs))
}

func (l *Loader) State() model.LoadState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.st
}

// UserMessage is empty unless the load failed.
func (l *Loader) UserMessage() string {
	return l.State().UserMessage()
}
