package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"nominal/internal/data/store"
)

// RunPoint is one recorded run with its change against the run before it.
type RunPoint struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	Files            int       `json:"files"`
	Nodes            int       `json:"nodes"`
	Diagnostics      int       `json:"diagnostics"`
	Failures         int       `json:"failures"`
	DurationMS       int64     `json:"duration_ms"`
	DeltaFiles       int       `json:"delta_files"`
	DeltaDiagnostics int       `json:"delta_diagnostics"`
	DeltaFailures    int       `json:"delta_failures"`
}

// RunHistory is the run history of one project, oldest first.
type RunHistory struct {
	Project string     `json:"project"`
	Count   int        `json:"count"`
	Points  []RunPoint `json:"points"`
}

// BuildRunHistory orders runs oldest first and computes the deltas. The
// first point has zero deltas.
func BuildRunHistory(project string, runs []store.Run) RunHistory {
	ordered := make([]store.Run, len(runs))
	copy(ordered, runs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	points := make([]RunPoint, 0, len(ordered))
	for i, r := range ordered {
		p := RunPoint{
			ID:          r.ID,
			Timestamp:   r.Timestamp.UTC(),
			Files:       r.Files,
			Nodes:       r.Nodes,
			Diagnostics: r.Diagnostics,
			Failures:    r.Failures,
			DurationMS:  r.Duration.Milliseconds(),
		}
		if i > 0 {
			prev := ordered[i-1]
			p.DeltaFiles = r.Files - prev.Files
			p.DeltaDiagnostics = r.Diagnostics - prev.Diagnostics
			p.DeltaFailures = r.Failures - prev.Failures
		}
		points = append(points, p)
	}
	return RunHistory{Project: project, Count: len(points), Points: points}
}

func RenderRunsTSV(h RunHistory) ([]byte, error) {
	var buf strings.Builder

	buf.WriteString("Timestamp\tRun\tFiles\tNodes\tDiagnostics\tFailures\tDurationMS\tDeltaFiles\tDeltaDiagnostics\tDeltaFailures\n")
	for _, p := range h.Points {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			p.Timestamp.Format(time.RFC3339),
			p.ID,
			p.Files,
			p.Nodes,
			p.Diagnostics,
			p.Failures,
			p.DurationMS,
			p.DeltaFiles,
			p.DeltaDiagnostics,
			p.DeltaFailures,
		))
	}
	return []byte(buf.String()), nil
}

func RenderRunsJSON(h RunHistory) ([]byte, error) {
	return json.MarshalIndent(h, "", "  ")
}
