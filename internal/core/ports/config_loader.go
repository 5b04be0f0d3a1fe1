package ports

import "go.trai.ch/flipfusion/internal/core/domain"

// ConfigLoader defines the interface for loading the runtime configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load resolves settings for the given working directory.
	// An explicit file overrides discovery when non-empty.
	Load(cwd, file string) (*domain.Settings, error)
}
