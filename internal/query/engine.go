package query

import (
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mohammed-shakir/country-catalog/internal/core/model"
	"github.com/mohammed-shakir/country-catalog/internal/core/observability"
)

const defaultCacheSize = 256

// Engine computes the same views as ComputeResultView but keeps the
// filtered and sorted intermediate per (catalog, term, region, sort), so
// paging through one result set filters and sorts only once.
type Engine struct {
	cache *lru.Cache[uint64, []model.CountryRecord]
}

func NewEngine(size int) (*Engine, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	c, err := lru.New[uint64, []model.CountryRecord](size)
	if err != nil {
		return nil, err
	}
	return &Engine{cache: c}, nil
}

func (e *Engine) Compute(cat model.Catalog, crit model.QueryCriteria) model.ResultView {
	start := time.Now()
	defer func() { observability.ObserveQuery(time.Since(start).Seconds()) }()

	if cat.ID == "" {
		return ComputeResultView(cat, crit)
	}

	k := intermediateKey(cat.ID, crit)
	if sorted, ok := e.cache.Get(k); ok {
		observability.IncViewCacheHit()
		return Paginate(sorted, crit.Page)
	}
	observability.IncViewCacheMiss()

	sorted := FilterSort(cat.Records, crit)
	e.cache.Add(k, sorted)
	return Paginate(sorted, crit.Page)
}

// Len reports how many intermediates are cached.
func (e *Engine) Len() int { return e.cache.Len() }

func intermediateKey(catalogID string, crit model.QueryCriteria) uint64 {
	region := crit.Region
	if region == "" {
		region = model.RegionAll
	}
	d := xxhash.New()
	_, _ = d.WriteString(catalogID)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(strings.ToLower(crit.SearchTerm))
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(string(region))
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(string(crit.Sort))
	return d.Sum64()
}
