package domain

import (
	"fmt"
	"iter"
	"slices"
)

// DefaultSamplingCap bounds how many items of a large group are preloaded.
const DefaultSamplingCap = 32

// AssetGroup describes a set of numbered card images sharing a directory.
type AssetGroup struct {
	// Name is the set name, used in the directory and back image name.
	Name string
	// Prefix is prepended to the item number in each item file name.
	Prefix string
	// Count is the number of items available at play time.
	Count int
	// Extension is the file extension of item images.
	Extension string
	// BackExtension is the file extension of the back image.
	BackExtension string
}

// BackPath returns the path of the group's card back image.
func (g AssetGroup) BackPath() AssetPath {
	ext := g.BackExtension
	if ext == "" {
		ext = "svg"
	}
	return AssetPath(fmt.Sprintf("/assets/cards_set_%s/%s_cards_back.%s", g.Name, g.Name, ext))
}

// ItemPath returns the path of the i-th item (1-based) of the group.
// It is valid for any i in 1..Count, including items the manifest does not sample.
func (g AssetGroup) ItemPath(i int) AssetPath {
	return AssetPath(fmt.Sprintf("/assets/cards_set_%s/%s%d.%s", g.Name, g.Prefix, i, g.Extension))
}

// ManifestSpec is the declarative input of BuildManifest.
type ManifestSpec struct {
	// Core lists static assets loaded before any group.
	Core []AssetPath
	// Groups lists the card sets in manifest order.
	Groups []AssetGroup
	// SamplingCap limits the items preloaded per group.
	SamplingCap int
}

// DefaultManifestSpec returns the asset layout shipped with the game.
func DefaultManifestSpec() ManifestSpec {
	return ManifestSpec{
		Core: []AssetPath{
			"/styles.css",
			"/script.js",
			"/assets/fonts/font1.ttf",
			"/assets/fonts/font2.ttf",
		},
		Groups: []AssetGroup{
			{Name: "monsters", Prefix: "monster", Count: 25, Extension: "png", BackExtension: "svg"},
			{Name: "classic", Prefix: "classic", Count: 100, Extension: "svg", BackExtension: "svg"},
			{Name: "flags", Prefix: "flag", Count: 100, Extension: "svg", BackExtension: "svg"},
		},
		SamplingCap: DefaultSamplingCap,
	}
}

// Manifest is the ordered, duplicate-free list of assets required at startup.
// The zero value is an empty manifest.
type Manifest struct {
	paths []AssetPath
}

// NewManifest builds a manifest from paths, dropping later duplicates.
func NewManifest(paths ...AssetPath) Manifest {
	seen := make(map[AssetPath]struct{}, len(paths))
	out := make([]AssetPath, 0, len(paths))
	for _, p := range paths {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return Manifest{paths: out}
}

// BuildManifest enumerates the assets described by spec.
// Core assets come first, then for each group its back image followed by
// up to min(Count, SamplingCap) numbered items. The result only depends on spec.
func BuildManifest(spec ManifestSpec) Manifest {
	paths := slices.Clone(spec.Core)
	for _, g := range spec.Groups {
		paths = append(paths, g.BackPath())

		n := g.Count
		if spec.SamplingCap > 0 && n > spec.SamplingCap {
			n = spec.SamplingCap
		}
		for i := 1; i <= n; i++ {
			paths = append(paths, g.ItemPath(i))
		}
	}
	return NewManifest(paths...)
}

// Len returns the number of assets, the denominator of load progress.
func (m Manifest) Len() int {
	return len(m.paths)
}

// Paths returns a copy of the ordered asset paths.
func (m Manifest) Paths() []AssetPath {
	return slices.Clone(m.paths)
}

// All iterates over the asset paths in manifest order.
func (m Manifest) All() iter.Seq[AssetPath] {
	return slices.Values(m.paths)
}

// Contains reports whether p is part of the manifest.
func (m Manifest) Contains(p AssetPath) bool {
	return slices.Contains(m.paths, p)
}

// Missing returns the manifest entries absent from cached, in manifest order.
func (m Manifest) Missing(cached []AssetPath) []AssetPath {
	have := make(map[AssetPath]struct{}, len(cached))
	for _, p := range cached {
		have[p] = struct{}{}
	}

	missing := make([]AssetPath, 0, len(m.paths))
	for _, p := range m.paths {
		if _, ok := have[p]; !ok {
			missing = append(missing, p)
		}
	}
	return missing
}
