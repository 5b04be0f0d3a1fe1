package config

import "time"

// Flipfile represents the structure of the flipfusion.yaml configuration file.
// Pointer fields distinguish an explicit zero from an absent key.
type Flipfile struct {
	Version        string         `yaml:"version"`
	Origin         string         `yaml:"origin"`
	CacheVersion   string         `yaml:"cacheVersion"`
	CacheDir       string         `yaml:"cacheDir"`
	Backend        string         `yaml:"backend"`
	Listen         string         `yaml:"listen"`
	RequestTimeout *time.Duration `yaml:"requestTimeout"`
	Load           *LoadDTO       `yaml:"load"`
	Manifest       *ManifestDTO   `yaml:"manifest"`
}

// LoadDTO represents the batching and retry settings.
type LoadDTO struct {
	BatchSize    *int           `yaml:"batchSize"`
	MaxRetries   *int           `yaml:"maxRetries"`
	RetryDelay   *time.Duration `yaml:"retryDelay"`
	Attempts     *int           `yaml:"attempts"`
	AttemptDelay *time.Duration `yaml:"attemptDelay"`
}

// ManifestDTO represents the asset layout. A present groups list replaces
// the built-in groups entirely.
type ManifestDTO struct {
	Core        []string   `yaml:"core"`
	Groups      []GroupDTO `yaml:"groups"`
	SamplingCap *int       `yaml:"samplingCap"`
}

// GroupDTO represents one card set.
type GroupDTO struct {
	Name          string `yaml:"name"`
	Prefix        string `yaml:"prefix"`
	Count         int    `yaml:"count"`
	Extension     string `yaml:"extension"`
	BackExtension string `yaml:"backExtension"`
}

// envOverrides holds the FLIPFUSION_* variables. Zero values are ignored.
type envOverrides struct {
	Origin         string        `env:"ORIGIN"`
	CacheVersion   string        `env:"CACHE_VERSION"`
	CacheDir       string        `env:"CACHE_DIR"`
	Backend        string        `env:"BACKEND"`
	Listen         string        `env:"LISTEN"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
	BatchSize      int           `env:"BATCH_SIZE"`
}
