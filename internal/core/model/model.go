// Package model defines core domain types shared across the service.
package model

import (
	"fmt"
	"strings"
	"time"
)

// PageSize is the fixed number of records per result page.
const PageSize = 10

type CountryRecord struct {
	Name   string  `json:"name"`
	Region string  `json:"region"`
	Area   float64 `json:"area"`
}

// Catalog is an immutable snapshot of the upstream collection.
type Catalog struct {
	ID       string          `json:"id"`
	Records  []CountryRecord `json:"records"`
	LoadedAt time.Time       `json:"loaded_at"`
}

func (c Catalog) Len() int { return len(c.Records) }

type Region string

const (
	RegionAll      Region = "All"
	RegionAfrica   Region = "Africa"
	RegionAmericas Region = "Americas"
	RegionAsia     Region = "Asia"
	RegionEurope   Region = "Europe"
	RegionOceania  Region = "Oceania"
)

// Regions lists the selectable region values in display order.
var Regions = []Region{RegionAll, RegionAfrica, RegionAmericas, RegionAsia, RegionEurope, RegionOceania}

func ParseRegion(s string) (Region, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RegionAll, nil
	}
	for _, r := range Regions {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown region %q", s)
}

type SortKey string

const (
	SortNameAsc  SortKey = "name-asc"
	SortNameDesc SortKey = "name-desc"
)

func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.TrimSpace(s)); k {
	case "":
		return SortNameAsc, nil
	case SortNameAsc, SortNameDesc:
		return k, nil
	default:
		return "", fmt.Errorf("unknown sort key %q", s)
	}
}

type QueryCriteria struct {
	SearchTerm string
	Region     Region
	Sort       SortKey
	Page       int
}

// DefaultCriteria is the state of a freshly opened listing.
func DefaultCriteria() QueryCriteria {
	return QueryCriteria{Region: RegionAll, Sort: SortNameAsc}
}

type ResultView struct {
	Items      []CountryRecord `json:"items"`
	TotalPages int             `json:"total_pages"`
	// set when the requested page was empty and Items holds the whole
	// filtered and sorted set
	Unpaginated bool `json:"unpaginated"`
}

type LoadStatus int

const (
	StatusLoading LoadStatus = iota
	StatusReady
	StatusFailed
)

func (s LoadStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func (s LoadStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *LoadStatus) UnmarshalText(b []byte) error {
	switch string(b) {
	case "loading":
		*s = StatusLoading
	case "ready":
		*s = StatusReady
	case "failed":
		*s = StatusFailed
	default:
		return fmt.Errorf("unknown load status %q", string(b))
	}
	return nil
}

type LoadState struct {
	Status LoadStatus `json:"state"`
	Reason string     `json:"reason,omitempty"`
}

func Loading() LoadState { return LoadState{Status: StatusLoading} }
func Ready() LoadState { return LoadState{Status: StatusReady} }
func Failed(reason string) LoadState { return LoadState{Status: StatusFailed, Reason: reason} }

// UserMessage is the text surfaced for a failed fetch.
func (s LoadState) UserMessage() string {
	if s.Status != StatusFailed {
		return ""
	}
	return "Error: " + s.Reason
}

type DetailView struct {
	State   LoadState      `json:"state"`
	Country *CountryRecord `json:"country,omitempty"`
}
