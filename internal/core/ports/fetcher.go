package ports

import (
	"context"

	"go.trai.ch/flipfusion/internal/core/domain"
)

// Fetcher retrieves a single asset from the origin.
//
//go:generate mockgen -source=fetcher.go -destination=mocks/mock_fetcher.go -package=mocks
type Fetcher interface {
	// Fetch makes exactly one attempt to retrieve path.
	// Failures, including non-2xx responses, are returned as *domain.NetworkError.
	Fetch(ctx context.Context, path domain.AssetPath) (*domain.CacheEntry, error)
}
