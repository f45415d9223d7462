package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hikari/ronbun/internal/models"
	"github.com/hikari/ronbun/internal/store"
	"go.uber.org/zap"
)

func newTestFetcher(t *testing.T, ts *httptest.Server, durable store.ObjectStore) (*Fetcher, *store.Layout) {
	t.Helper()
	layout := store.NewLayout("papers", t.TempDir())
	f := NewFetcher(layout, durable,
		ts.URL+"/pdf/%s.pdf", ts.URL+"/abs/%s",
		"test-agent", 5*time.Second, zap.NewNop())
	return f, layout
}

func TestFetchDirect(t *testing.T) {
	var hits atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/pdf/X123.pdf" {
			w.Write([]byte("%PDF-fake"))
			return
		}
		http.NotFound(w, r)
	}))
	defer ts.Close()

	durable := store.NewMemoryStore()
	f, layout := newTestFetcher(t, ts, durable)

	path, dir, err := f.Fetch(t.Context(), "X123")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if path != layout.LocalPath("X123", models.ArtifactPDF) {
		t.Errorf("path = %s", path)
	}
	if dir != layout.LocalDir("X123") {
		t.Errorf("dir = %s", dir)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "%PDF-fake" {
		t.Errorf("local artifact = %q, %v", data, err)
	}
	if ok, _ := durable.Exists(t.Context(), "papers/X123/X123.pdf"); !ok {
		t.Error("durable upload missing")
	}
}

func TestFetchIdempotent(t *testing.T) {
	var hits atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("%PDF-fake"))
	}))
	defer ts.Close()

	f, _ := newTestFetcher(t, ts, nil)
	if _, _, err := f.Fetch(t.Context(), "X123"); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	before := hits.Load()
	if _, _, err := f.Fetch(t.Context(), "X123"); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if hits.Load() != before {
		t.Errorf("second fetch performed remote work: %d -> %d hits", before, hits.Load())
	}
}

func TestFetchLandingPageFallback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pdf/X123.pdf":
			// Direct link is blocked.
			http.Error(w, "forbidden", http.StatusForbidden)
		case "/abs/X123":
			w.Write([]byte(`<html><body><a href="/download/pdf/X123">Download PDF</a></body></html>`))
		case "/download/pdf/X123":
			w.Write([]byte("%PDF-via-landing"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	f, layout := newTestFetcher(t, ts, nil)
	path, _, err := f.Fetch(t.Context(), "X123")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "%PDF-via-landing" {
		t.Errorf("content = %q", data)
	}
	_ = layout
}

func TestFetchFailureWrapped(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	f, _ := newTestFetcher(t, ts, nil)
	_, _, err := f.Fetch(t.Context(), "X123")
	if !errors.Is(err, ErrFetchFailed) {
		t.Errorf("err = %v, want ErrFetchFailed", err)
	}
}

func TestFetchUploadFailureIsBestEffort(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("%PDF-fake"))
	}))
	defer ts.Close()

	f, _ := newTestFetcher(t, ts, failingStore{})
	if _, _, err := f.Fetch(t.Context(), "X123"); err != nil {
		t.Fatalf("upload failure must not fail the fetch: %v", err)
	}
}

// failingStore rejects every write; Fetch must treat that as non-fatal.
type failingStore struct{}

func (failingStore) Exists(context.Context, string) (bool, error)     { return false, nil }
func (failingStore) Get(context.Context, string) ([]byte, error)      { return nil, errors.New("down") }
func (failingStore) Put(context.Context, string, []byte) error        { return errors.New("down") }
func (failingStore) PutFile(context.Context, string, string) error    { return errors.New("down") }
func (failingStore) Close() error                                     { return nil }
