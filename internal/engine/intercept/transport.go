// Package intercept serves cached assets in front of the network.
package intercept

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.trai.ch/flipfusion/internal/core/domain"
	"go.trai.ch/flipfusion/internal/core/ports"
)

const (
	lookupHit   = "hit"
	lookupMiss  = "miss"
	lookupError = "error"
)

// Transport is an http.RoundTripper that answers GET and HEAD requests from
// the asset cache and delegates everything else to Next.
// Network responses pass through untouched and are never stored.
type Transport struct {
	store    ports.CacheStore
	location domain.CacheLocation
	next     http.RoundTripper
	logger   ports.Logger
	metrics  ports.Metrics
	basePath string
}

// NewTransport creates a Transport reading the cache at loc.
// A nil next uses http.DefaultTransport.
func NewTransport(
	store ports.CacheStore,
	loc domain.CacheLocation,
	next http.RoundTripper,
	logger ports.Logger,
	metrics ports.Metrics,
) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{
		store:    store,
		location: loc,
		next:     next,
		logger:   logger,
		metrics:  metrics,
	}
}

// SetBasePath strips base from request paths before lookup, so that
// requests to an origin mounted below "/" match manifest paths.
func (t *Transport) SetBasePath(base string) {
	t.basePath = strings.TrimSuffix(base, "/")
}

// Install returns a shallow copy of client whose requests go through t.
func (t *Transport) Install(client *http.Client) *http.Client {
	if client == nil {
		client = &http.Client{}
	}
	c := *client
	c.Transport = t
	return &c
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return t.next.RoundTrip(req)
	}

	entry, err := t.lookup(req.Context(), domain.NewAssetPath(strings.TrimPrefix(req.URL.Path, t.basePath)))
	switch {
	case err != nil:
		t.metrics.CacheLookup(lookupError)
		t.logger.Warn("Cache lookup failed, falling back to network")
	case entry == nil:
		t.metrics.CacheLookup(lookupMiss)
	default:
		t.metrics.CacheLookup(lookupHit)
		return respond(req, entry), nil
	}
	return t.next.RoundTrip(req)
}

func (t *Transport) lookup(ctx context.Context, path domain.AssetPath) (*domain.CacheEntry, error) {
	handle, err := t.store.Open(ctx, t.location)
	if err != nil {
		return nil, err
	}
	entry, ok, err := handle.Match(ctx, path)
	if err != nil || !ok {
		return nil, err
	}
	return entry, nil
}

func respond(req *http.Request, entry *domain.CacheEntry) *http.Response {
	header := make(http.Header, len(entry.Header)+2)
	for k, vs := range entry.Header {
		header[k] = append([]string(nil), vs...)
	}
	header.Set(domain.CacheStatusHeader, lookupHit)
	header.Set("Content-Length", strconv.Itoa(len(entry.Body)))

	body := io.NopCloser(bytes.NewReader(entry.Body))
	if req.Method == http.MethodHead {
		body = http.NoBody
	}

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", http.StatusOK, http.StatusText(http.StatusOK)),
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          body,
		ContentLength: int64(len(entry.Body)),
		Request:       req,
	}
}
