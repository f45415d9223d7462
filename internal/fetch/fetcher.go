// Package fetch retrieves original source documents (PDFs) for paper
// identifiers, with a direct-link attempt and a landing-page fallback.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hikari/ronbun/internal/models"
	"github.com/hikari/ronbun/internal/store"
	"go.uber.org/zap"
)

// ErrFetchFailed wraps every lower-level retrieval failure; callers treat it
// as terminal for the current resolution attempt.
var ErrFetchFailed = errors.New("source document fetch failed")

// Fetcher downloads a paper's source PDF to the local artifact directory and
// best-effort-uploads it to the durable store.
type Fetcher struct {
	layout     *store.Layout
	durable    store.ObjectStore
	client     *http.Client
	directURL  string // template, %s = sanitized id
	landingURL string // template, %s = sanitized id
	userAgent  string
	logger     *zap.Logger
}

// NewFetcher creates a fetcher. durable may be nil (upload skipped).
func NewFetcher(layout *store.Layout, durable store.ObjectStore, directURL, landingURL, userAgent string, timeout time.Duration, logger *zap.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Fetcher{
		layout:     layout,
		durable:    durable,
		client:     &http.Client{Timeout: timeout},
		directURL:  directURL,
		landingURL: landingURL,
		userAgent:  userAgent,
		logger:     logger,
	}
}

// Fetch obtains the source PDF for paperID and returns its local path and
// containing directory. The fetch is an idempotent no-op when the local
// artifact already exists. Durable upload is best-effort: a failed upload
// never fails the fetch.
func (f *Fetcher) Fetch(ctx context.Context, paperID string) (string, string, error) {
	id := store.SanitizeID(paperID)
	path := f.layout.LocalPath(id, models.ArtifactPDF)
	dir := f.layout.LocalDir(id)

	if _, err := os.Stat(path); err == nil {
		f.logger.Debug("source already fetched", zap.String("paper_id", id), zap.String("path", path))
		return path, dir, nil
	}

	data, err := f.direct(ctx, id)
	if err != nil {
		f.logger.Warn("direct fetch failed, trying landing page", zap.String("paper_id", id), zap.Error(err))
		data, err = f.viaLandingPage(ctx, id)
	}
	if err != nil {
		return "", "", fmt.Errorf("%w: %s: %v", ErrFetchFailed, id, err)
	}

	if err := store.Publish(path, data); err != nil {
		return "", "", fmt.Errorf("%w: %s: %v", ErrFetchFailed, id, err)
	}
	f.logger.Info("source fetched", zap.String("paper_id", id), zap.Int("bytes", len(data)))

	f.upload(ctx, id, path)
	return path, dir, nil
}

// direct retrieves the known-shape source URL.
func (f *Fetcher) direct(ctx context.Context, id string) ([]byte, error) {
	return f.get(ctx, fmt.Sprintf(f.directURL, id))
}

// viaLandingPage loads the identifier's landing page and follows its PDF
// download affordance (the first anchor whose href contains "/pdf/").
func (f *Fetcher) viaLandingPage(ctx context.Context, id string) ([]byte, error) {
	landing := fmt.Sprintf(f.landingURL, id)
	page, err := f.get(ctx, landing)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse landing page: %w", err)
	}
	href, ok := doc.Find(`a[href*="/pdf/"]`).First().Attr("href")
	if !ok {
		return nil, fmt.Errorf("landing page has no pdf link")
	}
	target, err := resolveRef(landing, href)
	if err != nil {
		return nil, err
	}
	return f.get(ctx, target)
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}
	return io.ReadAll(resp.Body)
}

// upload mirrors the fetched file to the durable store unless it is already
// there. Failures are logged and swallowed.
func (f *Fetcher) upload(ctx context.Context, id, path string) {
	if f.durable == nil {
		return
	}
	key := f.layout.Key(id, models.ArtifactPDF)
	if ok, err := f.durable.Exists(ctx, key); err == nil && ok {
		return
	}
	if err := f.durable.PutFile(ctx, key, path); err != nil {
		f.logger.Warn("durable upload failed", zap.String("key", key), zap.Error(err))
		return
	}
	f.logger.Info("source uploaded", zap.String("key", key))
}

func resolveRef(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	h, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("bad pdf href %q: %w", href, err)
	}
	return b.ResolveReference(h).String(), nil
}
