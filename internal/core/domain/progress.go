package domain

import (
	"fmt"
	"math"
)

// Progress messages shown while assets load.
const (
	MsgCheckingCache   = "Checking cache..."
	MsgAssetsReady     = "Assets ready!"
	MsgAllCached       = "All assets cached!"
	MsgLoadFailed      = "Loading failed. Retrying..."
	MsgLimitedAssets   = "Loading failed. Starting with limited assets..."
	msgLoadingN        = "Loading %d assets..."
	msgLoadingProgress = "Loading assets... %d/%d"
	msgRetrying        = "Retrying... (%d/%d)"
)

// LoadProgress is a transient progress report for a display surface.
type LoadProgress struct {
	// Percentage is in the range 0..100.
	Percentage int
	// Message is free text describing the current stage.
	Message string
}

// NewProgress returns a LoadProgress with the percentage clamped to 0..100.
func NewProgress(percentage int, message string) LoadProgress {
	return LoadProgress{Percentage: min(max(percentage, 0), 100), Message: message}
}

// String renders the progress as "[ 58%] message".
func (p LoadProgress) String() string {
	return fmt.Sprintf("[%3d%%] %s", p.Percentage, p.Message)
}

// Percent returns round(100 * done / total). An empty total counts as complete.
func Percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}

// LoadingNProgress reports the start of a load pass over n missing assets.
func LoadingNProgress(percentage, n int) LoadProgress {
	return NewProgress(percentage, fmt.Sprintf(msgLoadingN, n))
}

// LoadedProgress reports loaded out of total assets.
func LoadedProgress(loaded, total int) LoadProgress {
	return NewProgress(Percent(loaded, total), fmt.Sprintf(msgLoadingProgress, loaded, total))
}

// RetryingProgress reports that attempt of attempts failed and another follows.
func RetryingProgress(attempt, attempts int) LoadProgress {
	return NewProgress(0, fmt.Sprintf(msgRetrying, attempt, attempts))
}
