package detail

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mohammed-shakir/country-catalog/internal/core/model"
	"github.com/mohammed-shakir/country-catalog/internal/core/upstream"
)

func newLoader(t *testing.T, h http.HandlerFunc) *Loader {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := upstream.New(nil, srv.Client(), srv.URL+"/v2")
	if err != nil {
		t.Fatalf("upstream.New: %v", err)
	}
	return New(c, nil)
}

func TestLoadByName_FirstMatchWins(t *testing.T) {
	l := newLoader(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/name/Congo" {
			t.Errorf("path=%q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[
			{"name":"Congo","region":"Africa","area":342000},
			{"name":"Congo (Democratic Republic of the)","region":"Africa","area":2344858}
		]`))
	})

	rec, err := l.LoadByName(context.Background(), "Congo")
	if err != nil {
		t.Fatalf("LoadByName: %v", err)
	}
	if rec != (model.CountryRecord{Name: "Congo", Region: "Africa", Area: 342000}) {
		t.Fatalf("rec=%+v", rec)
	}
}

func TestLoadByName_EmptyResult(t *testing.T) {
	l := newLoader(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := l.LoadByName(context.Background(), "Atlantis")
	if !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("err=%v want ErrEmptyResult", err)
	}

	v := l.Fetch(context.Background(), "Atlantis")
	if v.State.Status != model.StatusFailed || v.Country != nil {
		t.Fatalf("view=%+v want failed without country", v)
	}
	if !strings.HasPrefix(v.State.UserMessage(), "Error: ") {
		t.Fatalf("user message=%q", v.State.UserMessage())
	}
}

func TestLoadByName_HTTPError(t *testing.T) {
	l := newLoader(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := l.LoadByName(context.Background(), "Chad")
	var he *upstream.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("err=%v want *upstream.HTTPError", err)
	}
	if errors.Is(err, ErrEmptyResult) {
		t.Fatal("http error must not look like an empty result")
	}
}

func TestLoadByName_EscapesName(t *testing.T) {
	l := newLoader(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/name/Côte d'Ivoire" {
			t.Errorf("path=%q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[{"name":"Côte d'Ivoire","region":"Africa","area":322463}]`))
	})
	rec, err := l.LoadByName(context.Background(), "Côte d'Ivoire")
	if err != nil {
		t.Fatalf("LoadByName: %v", err)
	}
	if rec.Region != "Africa" {
		t.Fatalf("rec=%+v", rec)
	}
}

func TestLoadByName_NoCachingAcrossCalls(t *testing.T) {
	var hits atomic.Int32
	l := newLoader(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`[{"name":"Chad","region":"Africa","area":1284000}]`))
	})
	for range 3 {
		v := l.Fetch(context.Background(), "Chad")
		if v.State.Status != model.StatusReady || v.Country == nil || v.Country.Name != "Chad" {
			t.Fatalf("view=%+v", v)
		}
	}
	if hits.Load() != 3 {
		t.Fatalf("hits=%d want 3", hits.Load())
	}
}

func TestLoadByName_EmptyName(t *testing.T) {
	l := newLoader(t, func(http.ResponseWriter, *http.Request) {
		t.Error("upstream must not be called")
	})
	if _, err := l.LoadByName(context.Background(), "  "); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("err=%v want ErrEmptyName", err)
	}
}
