// Package report renders analysis reports and run history.
package report

import (
	"fmt"
	"io"
	"strings"

	"nominal/internal/core/app"
	"nominal/internal/ui/report/formats"
)

// Formats lists the names Write accepts.
var Formats = []string{"text", "sarif", "tsv", "markdown"}

type Options struct {
	Color   bool
	Version string
	// Root and ContextLines enable source excerpts in text output.
	Root         string
	ContextLines int
}

// Render returns rep in the named format.
func Render(format string, rep *app.Report, opts Options) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		var annotate *Excerpter
		if opts.ContextLines > 0 {
			annotate = NewExcerpter(opts.Root, opts.ContextLines)
		}
		if annotate == nil {
			return []byte(formats.GenerateText(rep, opts.Color, nil)), nil
		}
		return []byte(formats.GenerateText(rep, opts.Color, annotate.Lines)), nil
	case "sarif":
		data, err := formats.GenerateSARIF(rep, opts.Version)
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "tsv":
		return []byte(formats.GenerateTSV(rep)), nil
	case "markdown", "md":
		return []byte(formats.GenerateMarkdown(rep)), nil
	}
	return nil, fmt.Errorf("unknown report format %q (want one of %s)", format, strings.Join(Formats, ", "))
}

// Write renders rep in the named format to w.
func Write(w io.Writer, format string, rep *app.Report, opts Options) error {
	data, err := Render(format, rep, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// InjectReport writes the markdown rendering of rep between the markers for
// marker in the markdown file at path.
func InjectReport(path, marker string, rep *app.Report) error {
	return InjectMarkdown(path, marker, formats.GenerateMarkdown(rep))
}
