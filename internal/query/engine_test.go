package query

import (
	"slices"
	"testing"

	"github.com/mohammed-shakir/country-catalog/internal/core/model"
)

func newEngine(t *testing.T, size int) *Engine {
	t.Helper()
	e, err := NewEngine(size)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestEngine_MatchesPureFunction(t *testing.T) {
	e := newEngine(t, 8)
	cat := model.Catalog{ID: "cat-1", Records: numbered(37, "Asia")}
	slices.Reverse(cat.Records)

	for page := -1; page < 6; page++ {
		for _, key := range []model.SortKey{model.SortNameAsc, model.SortNameDesc, "bogus"} {
			crit := model.QueryCriteria{SearchTerm: "1", Region: model.RegionAsia, Sort: key, Page: page}
			got := e.Compute(cat, crit)
			want := ComputeResultView(cat, crit)
			if got.TotalPages != want.TotalPages || got.Unpaginated != want.Unpaginated ||
				!slices.Equal(names(got.Items), names(want.Items)) {
				t.Fatalf("%+v: engine=%+v pure=%+v", crit, got, want)
			}
		}
	}
}

func TestEngine_PageChangesReuseIntermediate(t *testing.T) {
	e := newEngine(t, 8)
	cat := model.Catalog{ID: "cat-1", Records: numbered(25, "Europe")}

	for page := range 3 {
		e.Compute(cat, model.QueryCriteria{Region: model.RegionAll, Sort: model.SortNameAsc, Page: page})
	}
	if e.Len() != 1 {
		t.Fatalf("cached intermediates=%d want 1", e.Len())
	}

	// search is case-insensitive, so the key is too
	e.Compute(cat, model.QueryCriteria{SearchTerm: "LAND", Region: model.RegionAll, Sort: model.SortNameAsc})
	e.Compute(cat, model.QueryCriteria{SearchTerm: "land", Region: model.RegionAll, Sort: model.SortNameAsc})
	if e.Len() != 2 {
		t.Fatalf("cached intermediates=%d want 2", e.Len())
	}

	// empty region behaves like All
	e.Compute(cat, model.QueryCriteria{Region: "", Sort: model.SortNameAsc})
	if e.Len() != 2 {
		t.Fatalf("cached intermediates=%d want 2", e.Len())
	}
}

func TestEngine_KeysByCatalog(t *testing.T) {
	e := newEngine(t, 8)
	crit := model.QueryCriteria{Region: model.RegionAll, Sort: model.SortNameAsc}

	a := e.Compute(model.Catalog{ID: "a", Records: threeCountries().Records}, crit)
	b := e.Compute(model.Catalog{ID: "b", Records: numbered(3, "Asia")}, crit)
	if slices.Equal(names(a.Items), names(b.Items)) {
		t.Fatal("different catalogs must not share an intermediate")
	}
}

func TestEngine_CatalogWithoutIDBypassesCache(t *testing.T) {
	e := newEngine(t, 8)
	e.Compute(threeCountries(), model.DefaultCriteria())
	if e.Len() != 0 {
		t.Fatalf("cached intermediates=%d want 0", e.Len())
	}
}

func TestEngine_ItemsCannotGrowIntoCache(t *testing.T) {
	e := newEngine(t, 8)
	cat := model.Catalog{ID: "cat-1", Records: numbered(25, "Europe")}
	crit := model.QueryCriteria{Region: model.RegionAll, Sort: model.SortNameAsc}

	v := e.Compute(cat, crit)
	_ = append(v.Items, model.CountryRecord{Name: "Intruder"})

	crit.Page = 1
	v2 := e.Compute(cat, crit)
	if v2.Items[0].Name == "Intruder" {
		t.Fatal("append on a page leaked into the cached intermediate")
	}
}
