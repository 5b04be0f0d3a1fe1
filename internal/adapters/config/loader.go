// Package config provides the configuration loader for flipfusion.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"go.trai.ch/flipfusion/internal/core/domain"
	"go.trai.ch/flipfusion/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FLIPFUSION_"

// supportedVersion is the only config file version understood by this loader.
const supportedVersion = "1"

// Loader implements ports.ConfigLoader using a YAML file and environment overrides.
type Loader struct {
	Logger ports.Logger
	FS     FileSystem
	// Environ replaces the process environment when non-nil.
	Environ map[string]string
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, FS: NewOSFS()}
}

// Load resolves settings for cwd. Precedence is defaults, then the config
// file, then FLIPFUSION_* variables. A missing config file is not an error
// unless file names one explicitly.
func (l *Loader) Load(cwd, file string) (*domain.Settings, error) {
	configPath, err := l.findConfiguration(cwd, file)
	if err != nil {
		return nil, err
	}

	settings := domain.DefaultSettings(cwd)
	if configPath != "" {
		var flipfile Flipfile
		if err := l.readAndUnmarshalYAML(configPath, &flipfile); err != nil {
			return nil, err
		}
		if flipfile.Version != "" && flipfile.Version != supportedVersion {
			l.Logger.Warn(fmt.Sprintf("%s declares version %q, reading it as version %s",
				domain.ConfigFileName, flipfile.Version, supportedVersion))
		}
		settings.Root = filepath.Dir(configPath)
		flipfile.apply(settings)
	}

	if err := l.applyEnv(settings); err != nil {
		return nil, err
	}

	settings.CacheDir = resolvePath(settings.Root, settings.CacheDir)

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// findConfiguration walks up from cwd looking for flipfusion.yaml.
// It returns an empty path when no file exists.
func (l *Loader) findConfiguration(cwd, file string) (string, error) {
	if file != "" {
		path := resolvePath(cwd, file)
		if _, err := l.FS.Stat(path); err != nil {
			return "", zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
		}
		return path, nil
	}

	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if _, err := l.FS.Stat(candidate); err == nil {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", nil
		}
		currentDir = parentDir
	}
}

func (l *Loader) readAndUnmarshalYAML(path string, dst any) error {
	data, err := l.FS.ReadFile(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", path)
	}
	return nil
}

func (l *Loader) applyEnv(s *domain.Settings) error {
	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Prefix: EnvPrefix, Environment: l.Environ}); err != nil {
		return zerr.Wrap(err, domain.ErrEnvParseFailed.Error())
	}

	setIf(&s.Origin, o.Origin)
	setIf(&s.CacheVersion, o.CacheVersion)
	setIf(&s.CacheDir, o.CacheDir)
	setIf(&s.Listen, o.Listen)
	if o.Backend != "" {
		s.Backend = domain.Backend(o.Backend)
	}
	if o.RequestTimeout != 0 {
		s.RequestTimeout = o.RequestTimeout
	}
	if o.BatchSize != 0 {
		s.Load.BatchSize = o.BatchSize
	}
	return nil
}

func (f *Flipfile) apply(s *domain.Settings) {
	setIf(&s.Origin, f.Origin)
	setIf(&s.CacheVersion, f.CacheVersion)
	setIf(&s.CacheDir, f.CacheDir)
	setIf(&s.Listen, f.Listen)
	if f.Backend != "" {
		s.Backend = domain.Backend(f.Backend)
	}
	if f.RequestTimeout != nil {
		s.RequestTimeout = *f.RequestTimeout
	}
	if f.Load != nil {
		f.Load.apply(&s.Load)
	}
	if f.Manifest != nil {
		f.Manifest.apply(&s.Manifest)
	}
}

func (d *LoadDTO) apply(p *domain.LoadPolicy) {
	setPtr(&p.BatchSize, d.BatchSize)
	setPtr(&p.MaxRetries, d.MaxRetries)
	setPtr(&p.RetryDelay, d.RetryDelay)
	setPtr(&p.Attempts, d.Attempts)
	setPtr(&p.AttemptDelay, d.AttemptDelay)
}

func (d *ManifestDTO) apply(m *domain.ManifestSpec) {
	if d.Core != nil {
		m.Core = make([]domain.AssetPath, len(d.Core))
		for i, c := range d.Core {
			m.Core[i] = domain.NewAssetPath(c)
		}
	}
	if d.Groups != nil {
		m.Groups = make([]domain.AssetGroup, len(d.Groups))
		for i, g := range d.Groups {
			m.Groups[i] = domain.AssetGroup{
				Name:          g.Name,
				Prefix:        g.Prefix,
				Count:         g.Count,
				Extension:     g.Extension,
				BackExtension: g.BackExtension,
			}
		}
	}
	setPtr(&m.SamplingCap, d.SamplingCap)
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setPtr[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func resolvePath(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
