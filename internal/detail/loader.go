// Package detail fetches a single country record by name.
package detail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/mohammed-shakir/country-catalog/internal/core/model"
	"github.com/mohammed-shakir/country-catalog/internal/core/observability"
	"github.com/mohammed-shakir/country-catalog/internal/core/upstream"
)

// ErrEmptyResult is returned when the lookup matched no records.
var ErrEmptyResult = errors.New("no country matched")

var ErrEmptyName = errors.New("country name is required")

type Loader struct {
	fetch  upstream.Fetcher
	logger *slog.Logger
}

func New(f upstream.Fetcher, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{fetch: f, logger: logger}
}

// LoadByName looks the name up upstream and returns the first match.
// Nothing is cached; every call re-fetches.
func (l *Loader) LoadByName(ctx context.Context, name string) (model.CountryRecord, error) {
	if strings.TrimSpace(name) == "" {
		return model.CountryRecord{}, ErrEmptyName
	}

	var recs []model.CountryRecord
	if err := l.fetch.GetJSON(ctx, "name/"+url.PathEscape(name), nil, &recs); err != nil {
		observability.IncDetailLoad(outcome(err))
		return model.CountryRecord{}, fmt.Errorf("load %q: %w", name, err)
	}
	if len(recs) == 0 {
		observability.IncDetailLoad("empty")
		return model.CountryRecord{}, fmt.Errorf("load %q: %w", name, ErrEmptyResult)
	}
	if len(recs) > 1 {
		l.logger.Debug("detail lookup matched several records; using first",
			"name", name, "matches", len(recs))
	}
	observability.IncDetailLoad("ready")
	return recs[0], nil
}

// Fetch folds the outcome of LoadByName into a renderable view.
func (l *Loader) Fetch(ctx context.Context, name string) model.DetailView {
	rec, err := l.LoadByName(ctx, name)
	if err != nil {
		return model.DetailView{State: model.Failed(err.Error())}
	}
	return model.DetailView{State: model.Ready(), Country: &rec}
}

func outcome(err error) string {
	var httpErr *upstream.HTTPError
	var trErr *upstream.TransportError
	switch {
	case errors.As(err, &httpErr):
		return "http_error"
	case errors.As(err, &trErr):
		return "transport_error"
	default:
		return "error"
	}
}
