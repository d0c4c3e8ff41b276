package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spiffcs/ciwatch/internal/format"
	"github.com/spiffcs/ciwatch/internal/model"
)

// Column widths
const (
	colStatus   = 12
	colRef      = 30
	colTitle    = 44
	colProgress = 20
)

// TableFormatter formats output as a terminal table
type TableFormatter struct {
	// Hyperlinks wraps PR references in OSC 8 links to the pull request.
	Hyperlinks bool
}

// Format outputs snapshots as a table, followed by a one-line summary.
func (f *TableFormatter) Format(snaps []model.PRSnapshot, w io.Writer) error {
	if len(snaps) == 0 {
		_, err := fmt.Fprintln(w, "No pull requests watched.")
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-*s  %-*s  %-*s  %s\n",
		colStatus, "Status",
		colRef, "Pull request",
		colTitle, "Title",
		"Progress")
	b.WriteString(strings.Repeat("-", colStatus+colRef+colTitle+colProgress+6))
	b.WriteString("\n")

	for _, s := range sorted(snaps) {
		ref := format.Truncate(fmt.Sprintf("%s#%d", s.PR().FullName(), s.Number), colRef)
		if f.Hyperlinks {
			ref = format.Hyperlink(s.PRURL, ref)
		}

		fmt.Fprintf(&b, "%s  %s  %s  %s\n",
			format.PadRight(colorStatus(s.Status), colStatus),
			format.PadRight(ref, colRef),
			format.PadRight(format.Truncate(s.Title, colTitle), colTitle),
			formatProgress(s))
	}

	b.WriteString(summaryLine(snaps))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// colorStatus renders the icon and status name in the status color.
func colorStatus(status model.RunStatus) string {
	text := format.StatusIcon(status.Kind()) + " " + strings.ToLower(status.Kind().String())
	switch status.Kind() {
	case model.KindSucceeded:
		return color.GreenString(text)
	case model.KindFailed:
		return color.RedString(text)
	case model.KindInProgress:
		return color.CyanString("%s running", format.InProgressIcon)
	default:
		return color.YellowString(text)
	}
}

func formatProgress(s model.PRSnapshot) string {
	ratio, ok := s.Status.Ratio()
	if !ok {
		return ""
	}
	bar := format.Bar(ratio, 10)
	if s.TotalSteps == 0 {
		return bar
	}
	return fmt.Sprintf("%s %d/%d", bar, s.CompletedSteps, s.TotalSteps)
}

// summaryLine counts snapshots per status.
func summaryLine(snaps []model.PRSnapshot) string {
	counts := make(map[model.StatusKind]int)
	var latest time.Time
	for _, s := range snaps {
		counts[s.Status.Kind()]++
		if s.FetchedAt.After(latest) {
			latest = s.FetchedAt
		}
	}

	parts := []string{
		color.GreenString("%d succeeded", counts[model.KindSucceeded]),
		color.RedString("%d failed", counts[model.KindFailed]),
		color.CyanString("%d running", counts[model.KindInProgress]),
		color.YellowString("%d queued", counts[model.KindQueued]),
	}
	line := strings.Join(parts, ", ")
	if !latest.IsZero() {
		line += fmt.Sprintf(" (as of %s)", latest.Format(time.TimeOnly))
	}
	return line
}
