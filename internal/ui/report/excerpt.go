package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"nominal/internal/core/diag"
)

// Excerpter returns the source lines around a finding. Source files are
// looked up under Root by the finding's file name and read at most once.
type Excerpter struct {
	Root   string
	Radius int

	files map[string][]string
}

func NewExcerpter(root string, radius int) *Excerpter {
	return &Excerpter{Root: root, Radius: radius, files: make(map[string][]string)}
}

// Lines formats the excerpt for d as "<linenum>: <source>". It returns nil
// when d carries no position or its source file is not readable.
func (e *Excerpter) Lines(d diag.Diagnostic) []string {
	if e == nil || d.File == "" || d.Line <= 0 {
		return nil
	}
	lines, ok := e.files[d.File]
	if !ok {
		path := d.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(e.Root, filepath.FromSlash(d.File))
		}
		content, err := os.ReadFile(path)
		if err == nil {
			lines = splitLines(content)
		}
		e.files[d.File] = lines
	}
	return excerpt(lines, d.Line-1, e.Radius)
}

// excerpt returns ±radius lines around the hit.
func excerpt(lines []string, hitIdx, radius int) []string {
	if hitIdx < 0 || hitIdx >= len(lines) {
		return nil
	}
	start := max(hitIdx-radius, 0)
	end := min(hitIdx+radius+1, len(lines))

	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, fmt.Sprintf("%6d: %s", i+1, lines[i]))
	}
	return out
}

// splitLines splits content on newlines, preserving empty lines.
func splitLines(content []byte) []string {
	raw := bytes.Split(content, []byte("\n"))
	lines := make([]string, len(raw))
	for i, b := range raw {
		lines[i] = string(bytes.TrimSuffix(b, []byte("\r")))
	}
	// Trim trailing empty line that Split adds for a final newline.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
