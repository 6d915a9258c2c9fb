package diag

import (
	"log/slog"
	"slices"
	"sync"

	"nominal/internal/shared/observability"
)

// Collector keeps findings in emission order.
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Emit(category Category, message, file string, line int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, Diagnostic{
		Category: category,
		Severity: category.Severity(),
		Message:  message,
		File:     file,
		Line:     line,
	})
}

// Diagnostics returns a copy of everything collected so far.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// HasAtLeast reports whether any finding is at or above threshold.
func (c *Collector) HasAtLeast(threshold Severity) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.items {
		if d.Severity >= threshold {
			return true
		}
	}
	return false
}

// Filter forwards findings that are not suppressed and meet MinSeverity.
type Filter struct {
	Next        Emitter
	Suppress    map[Category]bool
	MinSeverity Severity
}

func (f *Filter) Emit(category Category, message, file string, line int) {
	if f.Next == nil || f.Suppress[category] || category.Severity() < f.MinSeverity {
		return
	}
	f.Next.Emit(category, message, file, line)
}

// Logged mirrors findings to slog at debug level and counts them per
// category before forwarding.
type Logged struct {
	Next   Emitter
	Logger *slog.Logger
}

func (l *Logged) Emit(category Category, message, file string, line int) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("diagnostic", "category", string(category), "file", file, "line", line, "message", message)
	observability.DiagnosticsTotal.WithLabelValues(string(category)).Inc()
	if l.Next != nil {
		l.Next.Emit(category, message, file, line)
	}
}
