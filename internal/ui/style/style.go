// Package style holds the palette and glyphs shared by every terminal surface.
package style

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	Violet = lipgloss.Color("#7C3AED")
	Slate  = lipgloss.Color("#64748B")
	Cloud  = lipgloss.Color("#E2E8F0")
	Night  = lipgloss.Color("#0F172A")
	Mint   = lipgloss.Color("#10B981")
	Coral  = lipgloss.Color("#EF4444")
	Amber  = lipgloss.Color("#F59E0B")
)

// Glyphs.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Arrow   = "→"
	Card    = "▣"
)
