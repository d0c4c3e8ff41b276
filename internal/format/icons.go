package format

import (
	"strings"

	"github.com/spiffcs/ciwatch/internal/model"
)

// Icon strings for run statuses (renderers can apply their own styling)
const (
	QueuedIcon     = "○"
	InProgressIcon = "◐"
	SucceededIcon  = "✓"
	FailedIcon     = "✗"
)

// StatusIcon returns the icon for a run status kind.
func StatusIcon(kind model.StatusKind) string {
	switch kind {
	case model.KindInProgress:
		return InProgressIcon
	case model.KindSucceeded:
		return SucceededIcon
	case model.KindFailed:
		return FailedIcon
	default:
		return QueuedIcon
	}
}

// Bar renders ratio as a fixed-width text progress bar.
func Bar(ratio float64, width int) string {
	if width <= 0 {
		return ""
	}
	switch {
	case ratio != ratio, ratio < 0:
		ratio = 0
	case ratio > 1:
		ratio = 1
	}
	filled := int(ratio*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
