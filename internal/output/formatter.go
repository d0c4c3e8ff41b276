// Package output renders PR snapshots for non-interactive use.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spiffcs/ciwatch/internal/model"
	"golang.org/x/term"
)

// Format represents the output format
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Formats lists every supported format, for flag help and validation.
var Formats = []Format{FormatTable, FormatJSON, FormatMarkdown}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("invalid output format %q (valid: table, json, markdown)", s)
}

// Formatter renders the snapshots of one tick.
type Formatter interface {
	Format(snaps []model.PRSnapshot, w io.Writer) error
}

// NewFormatter creates a formatter for the specified format
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{Hyperlinks: term.IsTerminal(int(os.Stdout.Fd()))}
	}
}

// sorted returns a copy of snaps in display order.
func sorted(snaps []model.PRSnapshot) []model.PRSnapshot {
	out := make([]model.PRSnapshot, len(snaps))
	copy(out, snaps)
	model.SortSnapshots(out)
	return out
}
