package session

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/mohammed-shakir/country-catalog/internal/core/model"
	"github.com/mohammed-shakir/country-catalog/internal/core/upstream"
	"github.com/mohammed-shakir/country-catalog/internal/events"
)

type stubFetcher struct {
	recs []model.CountryRecord
	err  error
	gate chan struct{}
}

func (f *stubFetcher) GetJSON(ctx context.Context, _ string, _ url.Values, out any) error {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.err != nil {
		return f.err
	}
	*out.(*[]model.CountryRecord) = f.recs
	return nil
}

type recordingSink struct {
	mu  sync.Mutex
	evs []events.Event
}

func (r *recordingSink) Publish(ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evs = append(r.evs, ev)
}

func (r *recordingSink) kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Kind, len(r.evs))
	for i, ev := range r.evs {
		out[i] = ev.Kind
	}
	return out
}

func TestManager_OpenLoadsCatalog(t *testing.T) {
	f := &stubFetcher{
		recs: []model.CountryRecord{{Name: "Chad", Region: "Africa"}, {Name: "Chile", Region: "Americas"}},
		gate: make(chan struct{}),
	}
	sink := &recordingSink{}
	m := NewManager(NewMemoryStore(8, time.Minute), f, ManagerOptions{Events: sink})

	s, err := m.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.State.Status != model.StatusLoading {
		t.Fatalf("state=%v want loading", s.State.Status)
	}
	got, err := m.Get(context.Background(), s.ID)
	if err != nil || got.State.Status != model.StatusLoading {
		t.Fatalf("before load: %+v err=%v", got, err)
	}

	close(f.gate)
	m.Wait()

	got, err = m.Get(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State.Status != model.StatusReady || got.Catalog.Len() != 2 || got.Catalog.ID == "" {
		t.Fatalf("after load: %+v", got)
	}
	if k := sink.kinds(); len(k) != 1 || k[0] != events.CatalogLoaded {
		t.Fatalf("events=%v", k)
	}
}

func TestManager_FailedLoad(t *testing.T) {
	f := &stubFetcher{err: &upstream.HTTPError{StatusCode: 502}}
	sink := &recordingSink{}
	m := NewManager(NewMemoryStore(8, time.Minute), f, ManagerOptions{Events: sink})

	s, err := m.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	m.Wait()

	got, _ := m.Get(context.Background(), s.ID)
	if got.State.Status != model.StatusFailed {
		t.Fatalf("state=%+v want failed", got.State)
	}
	if got.State.UserMessage() != "Error: request failed: 502 Bad Gateway" {
		t.Fatalf("message=%q", got.State.UserMessage())
	}
	if k := sink.kinds(); len(k) != 1 || k[0] != events.CatalogFailed {
		t.Fatalf("events=%v", k)
	}
}

func TestManager_ClosedSessionIsNotResurrected(t *testing.T) {
	f := &stubFetcher{recs: []model.CountryRecord{{Name: "Peru"}}, gate: make(chan struct{})}
	m := NewManager(NewMemoryStore(8, time.Minute), f, ManagerOptions{})

	s, _ := m.Open(context.Background())
	if err := m.Close(context.Background(), s.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}
	close(f.gate)
	m.Wait()

	if _, err := m.Get(context.Background(), s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
}

func TestManager_LoadTimeout(t *testing.T) {
	f := &stubFetcher{gate: make(chan struct{})}
	m := NewManager(NewMemoryStore(8, time.Minute), f, ManagerOptions{LoadTimeout: 20 * time.Millisecond})

	s, _ := m.Open(context.Background())
	m.Wait()

	got, _ := m.Get(context.Background(), s.ID)
	if got.State.Status != model.StatusFailed {
		t.Fatalf("state=%+v want failed after timeout", got.State)
	}
}
