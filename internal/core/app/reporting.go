package app

import (
	"time"

	"nominal/internal/core/diag"
)

// Report is the outcome of one analysis run.
type Report struct {
	RunID       string
	Project     string
	StartedAt   time.Time
	Duration    time.Duration
	Files       []FileReport
	Diagnostics []diag.Diagnostic
	Stats       Stats
}

// FileReport summarises one analysed syntax tree.
type FileReport struct {
	Name        string
	Path        string
	Nodes       int
	Checks      int
	Failures    int
	Parameters  int
	Diagnostics int
}

// Stats counts what went into the code base and what came out of the run.
type Stats struct {
	Classes     int
	Functions   int
	Constants   int
	Harvested   int
	Imported    int
	Shadowed    int
	Nodes       int
	Checks      int
	Failures    int
	Diagnostics int
}

// HasAtLeast reports whether any finding is at or above threshold.
func (r *Report) HasAtLeast(threshold diag.Severity) bool {
	for _, d := range r.Diagnostics {
		if d.Severity >= threshold {
			return true
		}
	}
	return false
}

// CountByCategory tallies findings per category.
func (r *Report) CountByCategory() map[diag.Category]int {
	out := make(map[diag.Category]int)
	for _, d := range r.Diagnostics {
		out[d.Category]++
	}
	return out
}
