// Package router holds the JSON handlers for sessions, listings and details.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/country-catalog/internal/core/model"
	"github.com/mohammed-shakir/country-catalog/internal/detail"
	"github.com/mohammed-shakir/country-catalog/internal/events"
	"github.com/mohammed-shakir/country-catalog/internal/logger"
	"github.com/mohammed-shakir/country-catalog/internal/session"
)

type Sessions interface {
	Open(ctx context.Context) (session.Session, error)
	Get(ctx context.Context, id string) (session.Session, error)
	Close(ctx context.Context, id string) error
}

type Views interface {
	Compute(cat model.Catalog, crit model.QueryCriteria) model.ResultView
}

type Details interface {
	LoadByName(ctx context.Context, name string) (model.CountryRecord, error)
}

type API struct {
	log      *slog.Logger
	sessions Sessions
	views    Views
	details  Details
	events   events.Sink
}

func New(log *slog.Logger, s Sessions, v Views, d Details, ev events.Sink) *API {
	if log == nil {
		log = slog.Default()
	}
	if ev == nil {
		ev = events.Nop{}
	}
	return &API{log: log, sessions: s, views: v, details: d, events: ev}
}

// Mount registers the API routes on r.
func (a *API) Mount(r chi.Router) {
	r.Post("/sessions", a.OpenSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", a.GetSession)
		r.Delete("/", a.CloseSession)
		r.Get("/countries", a.ListCountries)
	})
	r.Get("/countries/{name}", a.GetCountry)
}

type sessionResponse struct {
	ID       string           `json:"id"`
	State    model.LoadStatus `json:"state"`
	Error    string           `json:"error,omitempty"`
	Records  int              `json:"records,omitempty"`
	LoadedAt *time.Time       `json:"loaded_at,omitempty"`
}

func toSessionResponse(s session.Session) sessionResponse {
	out := sessionResponse{ID: s.ID, State: s.State.Status, Error: s.State.UserMessage()}
	if s.State.Status == model.StatusReady {
		out.Records = s.Catalog.Len()
		t := s.Catalog.LoadedAt
		out.LoadedAt = &t
	}
	return out
}

func (a *API) OpenSession(w http.ResponseWriter, r *http.Request) {
	s, err := a.sessions.Open(r.Context())
	if err != nil {
		a.log.ErrorContext(r.Context(), "open session failed", "err", err)
		writeError(w, http.StatusServiceUnavailable, "could not open session")
		return
	}
	w.Header().Set("Location", "/sessions/"+s.ID)
	writeJSON(w, http.StatusCreated, toSessionResponse(s))
}

func (a *API) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := a.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s))
}

func (a *API) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.log.ErrorContext(r.Context(), "close session failed", "err", err)
		writeError(w, http.StatusInternalServerError, "could not close session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type listResponse struct {
	Items       []model.CountryRecord `json:"items"`
	TotalPages  int                   `json:"total_pages"`
	Unpaginated bool                  `json:"unpaginated"`
	Page        int                   `json:"page"`
	PageSize    int                   `json:"page_size"`
}

type stateResponse struct {
	State model.LoadStatus `json:"state"`
	Error string           `json:"error,omitempty"`
}

func (a *API) ListCountries(w http.ResponseWriter, r *http.Request) {
	crit, err := ParseCriteria(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s, ok := a.lookup(w, r)
	if !ok {
		return
	}

	switch s.State.Status {
	case model.StatusLoading:
		writeJSON(w, http.StatusAccepted, stateResponse{State: model.StatusLoading})
		return
	case model.StatusFailed:
		writeJSON(w, http.StatusBadGateway, stateResponse{State: model.StatusFailed, Error: s.State.UserMessage()})
		return
	}

	ctx := logger.WithCatalogID(r.Context(), s.Catalog.ID)
	v := a.views.Compute(s.Catalog, crit)
	a.log.DebugContext(ctx, "view computed",
		"search", crit.SearchTerm,
		"region", string(crit.Region),
		"sort", string(crit.Sort),
		"page", crit.Page,
		"items", len(v.Items),
		"total_pages", v.TotalPages,
		"unpaginated", v.Unpaginated)

	writeJSON(w, http.StatusOK, listResponse{
		Items:       v.Items,
		TotalPages:  v.TotalPages,
		Unpaginated: v.Unpaginated,
		Page:        crit.Page,
		PageSize:    model.PageSize,
	})
}

type detailResponse struct {
	State   model.LoadStatus     `json:"state"`
	Country *model.CountryRecord `json:"country,omitempty"`
	Error   string               `json:"error,omitempty"`
}

func (a *API) GetCountry(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath != "" {
		if v, err := url.PathUnescape(name); err == nil {
			name = v
		}
	}
	sid := r.Header.Get("X-Session-ID")

	rec, err := a.details.LoadByName(r.Context(), name)
	if err != nil {
		a.events.Publish(events.Event{Kind: events.DetailFailed, SessionID: sid, Country: name, Error: err.Error()})
		st := model.Failed(err.Error())
		writeJSON(w, detailStatus(err), detailResponse{State: st.Status, Error: st.UserMessage()})
		return
	}
	a.events.Publish(events.Event{Kind: events.DetailViewed, SessionID: sid, Country: rec.Name})
	writeJSON(w, http.StatusOK, detailResponse{State: model.StatusReady, Country: &rec})
}

func detailStatus(err error) int {
	switch {
	case errors.Is(err, detail.ErrEmptyResult):
		return http.StatusNotFound
	case errors.Is(err, detail.ErrEmptyName):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusBadGateway
	}
}

func (a *API) lookup(w http.ResponseWriter, r *http.Request) (session.Session, bool) {
	id := chi.URLParam(r, "id")
	s, err := a.sessions.Get(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown session")
		return session.Session{}, false
	}
	if err != nil {
		a.log.ErrorContext(r.Context(), "session lookup failed", "session_id", id, "err", err)
		writeError(w, http.StatusServiceUnavailable, "session store unavailable")
		return session.Session{}, false
	}
	return s, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
