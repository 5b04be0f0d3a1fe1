// Package httpfetch retrieves assets from the origin over HTTP.
package httpfetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.trai.ch/flipfusion/internal/core/domain"
	"go.trai.ch/flipfusion/internal/core/ports"
	"go.trai.ch/zerr"
)

// maxDrain bounds how much of an error body is read to reuse the connection.
const maxDrain = 64 << 10

// Headers that describe the connection rather than the asset.
var skipHeaders = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
	"Set-Cookie":          {},
	"Date":                {},
}

// Fetcher implements ports.Fetcher with an http.Client.
type Fetcher struct {
	client  *http.Client
	origin  *url.URL
	metrics ports.Metrics
}

// New creates a Fetcher for the given origin base URL.
// metrics may be nil.
func New(client *http.Client, origin string, metrics ports.Metrics) (*Fetcher, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrInvalidOrigin.Error()), "origin", origin)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, zerr.With(domain.ErrInvalidOrigin, "origin", origin)
	}
	if client == nil {
		client = http.DefaultClient
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return &Fetcher{client: client, origin: u, metrics: metrics}, nil
}

// URL returns the absolute origin URL of path.
func (f *Fetcher) URL(path domain.AssetPath) string {
	u := *f.origin
	u.Path += string(path)
	u.RawQuery = ""
	return u.String()
}

// Fetch makes a single GET request for path.
func (f *Fetcher) Fetch(ctx context.Context, path domain.AssetPath) (*domain.CacheEntry, error) {
	entry, err := f.fetch(ctx, path)
	if f.metrics != nil {
		f.metrics.FetchAttempt(err == nil)
	}
	return entry, err
}

func (f *Fetcher) fetch(ctx context.Context, path domain.AssetPath) (*domain.CacheEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL(path), http.NoBody)
	if err != nil {
		return nil, &domain.NetworkError{Path: path, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Path: path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.CopyN(io.Discard, resp.Body, maxDrain)
		return nil, &domain.NetworkError{Path: path, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.NetworkError{Path: path, Err: err}
	}
	return domain.NewCacheEntry(path, resp.StatusCode, cloneHeader(resp.Header), body), nil
}

func cloneHeader(h http.Header) map[string][]string {
	out := make(map[string][]string, len(h))
	for k, v := range h {
		if _, skip := skipHeaders[http.CanonicalHeaderKey(k)]; skip {
			continue
		}
		out[k] = append([]string(nil), v...)
	}
	return out
}
