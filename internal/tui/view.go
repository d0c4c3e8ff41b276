package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/spiffcs/ciwatch/internal/constants"
	"github.com/spiffcs/ciwatch/internal/format"
	"github.com/spiffcs/ciwatch/internal/model"
)

// Column widths
const (
	colStatus   = 2
	colRef      = 28
	colProgress = 30
	minTitle    = 10
)

// renderDashboard renders the complete dashboard view
func renderDashboard(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(renderEmptyState())
	} else {
		available := m.windowHeight - constants.HeaderLines - constants.FooterLines - 4
		start, end := calculateScrollWindow(m.cursor, len(m.rows), available)
		for i := start; i < end; i++ {
			b.WriteString(renderRow(m, m.rows[i], i == m.cursor))
			b.WriteString("\n")
		}
		b.WriteString(renderDescription(m, m.rows[m.cursor]))
	}

	if m.rateLimited {
		if d := time.Until(m.rateLimitReset).Round(time.Second); d > 0 {
			b.WriteString("\n")
			b.WriteString(warnStyle.Render(fmt.Sprintf("  Rate limited (resets in %s)", d)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.adding {
		b.WriteString("  " + m.input.View())
	} else {
		b.WriteString(renderHelp())
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		if strings.HasPrefix(m.statusMsg, "Error:") {
			b.WriteString("  " + errorStyle.Render(m.statusMsg))
		} else {
			b.WriteString("  " + messageStyle.Render(m.statusMsg))
		}
	}
	b.WriteString("\n")

	return b.String()
}

func renderHeader(m Model) string {
	count := fmt.Sprintf("%d pull request", len(m.rows))
	if len(m.rows) != 1 {
		count += "s"
	}

	var updated string
	switch age := m.now().Sub(m.updatedAt); {
	case m.updatedAt.IsZero():
		updated = "waiting for first update"
	case age < time.Second:
		updated = "updated just now"
	default:
		updated = "updated " + format.FormatAge(age) + " ago"
	}

	header := fmt.Sprintf("  %s %s %s",
		headerStyle.Render("ciwatch"),
		messageStyle.Render("· "+count+" ·"),
		dimStyle.Render(updated))
	if n := len(m.unavailable); n > 0 {
		header += " " + warnStyle.Render(fmt.Sprintf("· %d without status", n))
	}
	return header
}

func renderEmptyState() string {
	return dimStyle.Render("  No pull requests watched. Press a to add one.") + "\n"
}

func renderHelp() string {
	return footerStyle.Render("  a add · d remove · C clear · r refresh · enter open · j/k move · q quit")
}

// renderRow renders one snapshot as a single line.
func renderRow(m Model, s model.PRSnapshot, selected bool) string {
	unavailable := m.isUnavailable(s.PR())
	icon := statusIcon(s.Status.Kind(), m.spinner.View())
	if unavailable {
		icon = warnStyle.Render("?")
	}

	ref := fmt.Sprintf("%s #%d", s.PR().FullName(), s.Number)
	ref = format.PadRight(format.Truncate(ref, colRef), colRef)

	titleWidth := m.windowWidth - colStatus - colRef - colProgress - 6
	if titleWidth < minTitle {
		titleWidth = minTitle
	}
	title := format.PadRight(format.Truncate(s.Title, titleWidth), titleWidth)

	status := renderStatus(m, s)
	if unavailable {
		status = warnStyle.Render("no status")
	}

	line := fmt.Sprintf("  %s %s %s %s",
		icon,
		repoStyle.Render(ref),
		titleStyle.Render(title),
		status)

	if selected {
		return selectedStyle.Render(line)
	}
	return line
}

// renderDescription shows the first line of the selected PR's body.
func renderDescription(m Model, s model.PRSnapshot) string {
	desc := format.FirstLine(s.Description)
	if desc == "" {
		return ""
	}
	return "\n  " + dimStyle.Render(format.Truncate(desc, max(m.windowWidth-4, minTitle))) + "\n"
}

// renderStatus renders the right-hand status column.
func renderStatus(m Model, s model.PRSnapshot) string {
	switch s.Status.Kind() {
	case model.KindInProgress:
		ratio, _ := s.Status.Ratio()
		bar := m.progress.ViewAs(ratio)
		if s.TotalSteps == 0 {
			return bar
		}
		return bar + " " + messageStyle.Render(fmt.Sprintf("%d/%d", s.CompletedSteps, s.TotalSteps))
	case model.KindSucceeded:
		return dimStyle.Render("succeeded")
	case model.KindFailed:
		return errorStyle.Render("failed")
	default:
		return dimStyle.Render("queued")
	}
}

// calculateScrollWindow returns the [start, end) range of rows to show so
// that the cursor stays visible.
func calculateScrollWindow(cursor, total, available int) (start, end int) {
	if available <= 0 || total <= available {
		return 0, total
	}
	start = cursor - available/2
	if start < 0 {
		start = 0
	}
	end = start + available
	if end > total {
		end = total
		start = end - available
	}
	return start, end
}
