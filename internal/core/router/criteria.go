package router

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/country-catalog/internal/core/model"
)

// ParseCriteria reads search, region, sort and page from the query string.
// Missing values take the listing defaults. Page is not bounds-checked.
func ParseCriteria(r *http.Request) (model.QueryCriteria, error) {
	q := r.URL.Query()
	crit := model.DefaultCriteria()

	crit.SearchTerm = q.Get("search")

	region, err := model.ParseRegion(q.Get("region"))
	if err != nil {
		return model.QueryCriteria{}, fmt.Errorf("invalid region: %w", err)
	}
	crit.Region = region

	sort, err := model.ParseSortKey(q.Get("sort"))
	if err != nil {
		return model.QueryCriteria{}, fmt.Errorf("invalid sort: %w", err)
	}
	crit.Sort = sort

	if raw := strings.TrimSpace(q.Get("page")); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			return model.QueryCriteria{}, fmt.Errorf("invalid page %q: must be an integer", raw)
		}
		crit.Page = p
	}
	return crit, nil
}
