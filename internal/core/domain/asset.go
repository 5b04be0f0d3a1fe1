package domain

import (
	"path"
	"strings"
)

// AssetPath identifies a logical resource served by the origin, such as an
// image or font route. It is always a cleaned, absolute URL path.
type AssetPath string

// NewAssetPath normalizes raw into an AssetPath.
// Query strings and fragments are dropped and a leading slash is enforced.
func NewAssetPath(raw string) AssetPath {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return AssetPath(path.Clean(raw))
}

// String returns the path as a plain string.
func (p AssetPath) String() string {
	return string(p)
}

// Ext returns the file extension of the path without the leading dot.
func (p AssetPath) Ext() string {
	return strings.TrimPrefix(path.Ext(string(p)), ".")
}
