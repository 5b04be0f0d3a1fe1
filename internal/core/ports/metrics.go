package ports

// Metrics records cache and loader counters.
//
//go:generate mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// CacheLookup records an interception lookup result: "hit", "miss" or "error".
	CacheLookup(result string)
	// FetchAttempt records one origin request.
	FetchAttempt(ok bool)
	// AssetCommitted records an entry written to the cache.
	AssetCommitted()
	// LoadPass records the outcome of one load pass.
	LoadPass(ok bool)
}
