package formats

import (
	"fmt"
	"strings"

	"nominal/internal/core/app"
)

// GenerateTSV lists one finding per row.
func GenerateTSV(rep *app.Report) string {
	var buf strings.Builder

	buf.WriteString("Category\tSeverity\tFile\tLine\tMessage\n")
	for _, d := range rep.Diagnostics {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%d\t%s\n",
			d.Category,
			d.Severity,
			tsvField(d.File),
			d.Line,
			tsvField(d.Message),
		))
	}
	return buf.String()
}

// GenerateFilesTSV lists the per file counters of rep.
func GenerateFilesTSV(rep *app.Report) string {
	var buf strings.Builder

	buf.WriteString("File\tNodes\tChecks\tFailures\tParameters\tDiagnostics\n")
	for _, f := range rep.Files {
		buf.WriteString(fmt.Sprintf("%s\t%d\t%d\t%d\t%d\t%d\n",
			tsvField(f.Name),
			f.Nodes,
			f.Checks,
			f.Failures,
			f.Parameters,
			f.Diagnostics,
		))
	}
	return buf.String()
}
