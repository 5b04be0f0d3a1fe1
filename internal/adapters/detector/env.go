// Package detector selects the progress renderer for the current environment.
package detector

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// OutputMode is the rendering mode for progress updates.
type OutputMode int

const (
	// ModeAuto picks a mode from the environment.
	ModeAuto OutputMode = iota
	// ModeTUI forces the interactive progress bar.
	ModeTUI
	// ModeLinear forces one line per update.
	ModeLinear
)

func (m OutputMode) String() string {
	switch m {
	case ModeTUI:
		return "tui"
	case ModeLinear:
		return "linear"
	default:
		return "auto"
	}
}

// Detect inspects stdout and the CI variable of the running process.
func Detect() OutputMode {
	return DetectEnvironment(term.IsTerminal(int(os.Stdout.Fd())), os.Getenv)
}

// DetectEnvironment returns ModeLinear for non-terminals and CI runs, ModeTUI otherwise.
func DetectEnvironment(isTTY bool, getenv func(string) string) OutputMode {
	ci := strings.ToLower(getenv("CI"))
	if !isTTY || ci == "true" || ci == "1" {
		return ModeLinear
	}
	return ModeTUI
}

// ResolveMode applies the user's --output-mode flag to the detected mode.
// Unknown values fall back to detection.
func ResolveMode(detected OutputMode, flag string) OutputMode {
	switch strings.ToLower(flag) {
	case "tui":
		return ModeTUI
	case "linear", "ci", "plain":
		return ModeLinear
	default:
		return detected
	}
}
