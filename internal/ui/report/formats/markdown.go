package formats

import (
	"fmt"
	"strings"

	"nominal/internal/core/app"
	"nominal/internal/core/diag"
)

// GenerateMarkdown renders a summary table per category followed by the
// findings table.
func GenerateMarkdown(rep *app.Report) string {
	var buf strings.Builder

	buf.WriteString("## Nominal Report\n\n")
	fmt.Fprintf(&buf, "%s.\n\n", summaryLine(rep))
	if len(rep.Diagnostics) == 0 {
		return buf.String()
	}

	counts := rep.CountByCategory()
	buf.WriteString("| Category | Severity | Count | Description |\n")
	buf.WriteString("|---|---|---:|---|\n")
	for _, c := range diag.Categories {
		if counts[c] == 0 {
			continue
		}
		fmt.Fprintf(&buf, "| `%s` | %s | %d | %s |\n", c, c.Severity(), counts[c], c.Description())
	}

	buf.WriteString("\n| File | Line | Category | Message |\n")
	buf.WriteString("|---|---:|---|---|\n")
	for _, d := range rep.Diagnostics {
		fmt.Fprintf(&buf, "| %s | %d | `%s` | %s |\n", markdownCell(d.File), d.Line, d.Category, markdownCell(d.Message))
	}
	return buf.String()
}

var markdownEscaper = strings.NewReplacer("|", `\|`, "\r", " ", "\n", " ")

func markdownCell(s string) string {
	return markdownEscaper.Replace(s)
}
