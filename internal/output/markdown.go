package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/spiffcs/ciwatch/internal/format"
	"github.com/spiffcs/ciwatch/internal/model"
)

// MarkdownFormatter formats output as a Markdown table, suitable for a
// job summary or a PR comment.
type MarkdownFormatter struct{}

// Format outputs snapshots as Markdown
func (f *MarkdownFormatter) Format(snaps []model.PRSnapshot, w io.Writer) error {
	if len(snaps) == 0 {
		_, err := fmt.Fprintln(w, "No pull requests watched.")
		return err
	}

	var b strings.Builder
	b.WriteString("| Status | Pull request | Title | Progress | Run |\n")
	b.WriteString("|---|---|---|---|---|\n")

	for _, s := range sorted(snaps) {
		pr := fmt.Sprintf("%s#%d", s.PR().FullName(), s.Number)
		if s.PRURL != "" {
			pr = fmt.Sprintf("[%s](%s)", pr, s.PRURL)
		}
		run := ""
		if s.RunURL != "" {
			run = fmt.Sprintf("[run](%s)", s.RunURL)
		}
		fmt.Fprintf(&b, "| %s %s | %s | %s | %s | %s |\n",
			format.StatusIcon(s.Status.Kind()),
			s.Status.Kind(),
			pr,
			escapeCell(s.Title),
			progressText(s),
			run)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// escapeCell keeps titles from breaking the table.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// progressText describes step progress for in-progress runs.
func progressText(s model.PRSnapshot) string {
	ratio, ok := s.Status.Ratio()
	if !ok {
		return ""
	}
	if s.TotalSteps == 0 {
		return fmt.Sprintf("%d%%", int(ratio*100))
	}
	return fmt.Sprintf("%d/%d steps (%d%%)", s.CompletedSteps, s.TotalSteps, int(ratio*100))
}
