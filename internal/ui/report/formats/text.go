package formats

import (
	"fmt"
	"strings"
	"time"

	"nominal/internal/core/app"
	"nominal/internal/core/diag"

	"github.com/charmbracelet/lipgloss"
)

type textStyles struct {
	title    lipgloss.Style
	file     lipgloss.Style
	critical lipgloss.Style
	normal   lipgloss.Style
	low      lipgloss.Style
	success  lipgloss.Style
	status   lipgloss.Style
}

func newTextStyles(color bool) textStyles {
	if !color {
		plain := lipgloss.NewStyle()
		return textStyles{plain, plain, plain, plain, plain, plain, plain}
	}
	return textStyles{
		title:    lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true),
		file:     lipgloss.NewStyle().Bold(true),
		critical: lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")),
		normal:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24")),
		low:      lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B")),
		success:  lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")),
		status:   lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B")).Italic(true),
	}
}

func (s textStyles) severity(sev diag.Severity) lipgloss.Style {
	switch sev {
	case diag.SeverityCritical:
		return s.critical
	case diag.SeverityNormal:
		return s.normal
	default:
		return s.low
	}
}

// GenerateText renders rep for a terminal. Findings are grouped under the
// file they were reported in, in report order. When annotate is set, the
// lines it returns are printed below each finding.
func GenerateText(rep *app.Report, color bool, annotate func(diag.Diagnostic) []string) string {
	styles := newTextStyles(color)
	var buf strings.Builder

	if len(rep.Diagnostics) == 0 {
		buf.WriteString(styles.success.Render("No issues found."))
		buf.WriteString("\n")
	} else {
		current := "\x00"
		for _, d := range rep.Diagnostics {
			if d.File != current {
				if current != "\x00" {
					buf.WriteString("\n")
				}
				current = d.File
				name := d.File
				if name == "" {
					name = "(no file)"
				}
				buf.WriteString(styles.file.Render(name))
				buf.WriteString("\n")
			}
			fmt.Fprintf(&buf, "  %5d  %s  %s\n",
				d.Line,
				styles.severity(d.Severity).Render(fmt.Sprintf("%-8s", d.Category)),
				d.Message,
			)
			if annotate != nil {
				for _, line := range annotate(d) {
					buf.WriteString(styles.status.Render("        " + line))
					buf.WriteString("\n")
				}
			}
		}
		buf.WriteString("\n")
	}

	buf.WriteString(styles.title.Render(summaryLine(rep)))
	buf.WriteString("\n")
	buf.WriteString(styles.status.Render(fmt.Sprintf("run %s in %s", rep.RunID, rep.Duration.Round(time.Millisecond))))
	buf.WriteString("\n")
	return buf.String()
}

func summaryLine(rep *app.Report) string {
	n := len(rep.Diagnostics)
	files := len(rep.Files)
	line := fmt.Sprintf("%d %s in %d %s",
		n, plural(n, "issue", "issues"),
		files, plural(files, "file", "files"),
	)
	if n == 0 {
		return line
	}
	counts := rep.CountByCategory()
	parts := make([]string, 0, len(counts))
	for _, c := range diag.Categories {
		if counts[c] > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", c, counts[c]))
		}
	}
	return line + " (" + strings.Join(parts, ", ") + ")"
}
