// Package query turns a loaded catalog and the current criteria into the
// page of records a user sees. Nothing here performs I/O.
package query

import (
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mohammed-shakir/country-catalog/internal/core/model"
)

// collators are not safe for concurrent use
var collators = sync.Pool{
	New: func() any { return collate.New(language.English) },
}

// ComputeResultView runs filter, sort and paginate over the catalog.
// The returned items alias internal storage and must not be modified.
func ComputeResultView(cat model.Catalog, crit model.QueryCriteria) model.ResultView {
	return Paginate(FilterSort(cat.Records, crit), crit.Page)
}

// FilterSort applies the name and region filters and then sorts.
// The input slice is left untouched.
func FilterSort(recs []model.CountryRecord, crit model.QueryCriteria) []model.CountryRecord {
	out := Filter(recs, crit.SearchTerm, crit.Region)
	Sort(out, crit.Sort)
	return out
}

// Filter keeps records whose lowercased name contains the lowercased term
// and whose region equals region exactly. RegionAll and "" match any region.
func Filter(recs []model.CountryRecord, term string, region model.Region) []model.CountryRecord {
	needle := strings.ToLower(term)
	anyRegion := region == model.RegionAll || region == ""

	out := make([]model.CountryRecord, 0, len(recs))
	for _, r := range recs {
		if needle != "" && !strings.Contains(strings.ToLower(r.Name), needle) {
			continue
		}
		if !anyRegion && r.Region != string(region) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Sort orders recs in place by name. Unknown keys leave the order as is.
func Sort(recs []model.CountryRecord, key model.SortKey) {
	var desc bool
	switch key {
	case model.SortNameAsc:
	case model.SortNameDesc:
		desc = true
	default:
		return
	}

	c, _ := collators.Get().(*collate.Collator)
	defer collators.Put(c)

	slices.SortStableFunc(recs, func(a, b model.CountryRecord) int {
		if desc {
			return c.CompareString(b.Name, a.Name)
		}
		return c.CompareString(a.Name, b.Name)
	})
}

// TotalPages is ceil(n / PageSize).
func TotalPages(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + model.PageSize - 1) / model.PageSize
}

// Paginate cuts the page at index page out of sorted. When that page is
// empty the whole sorted set is returned instead and Unpaginated is set.
func Paginate(sorted []model.CountryRecord, page int) model.ResultView {
	n := len(sorted)
	total := TotalPages(n)

	if n == 0 {
		return model.ResultView{Items: []model.CountryRecord{}, TotalPages: 0}
	}
	if page < 0 || page >= total {
		return model.ResultView{Items: sorted[:n:n], TotalPages: total, Unpaginated: true}
	}

	off := page * model.PageSize
	end := min(off+model.PageSize, n)
	return model.ResultView{Items: sorted[off:end:end], TotalPages: total}
}
