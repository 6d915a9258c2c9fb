package diag

import (
	"fmt"
	"strings"
)

// Category classifies a finding.
type Category string

const (
	CategoryUndef Category = "EUNDEF"
	CategoryType  Category = "ETYPE"
	CategoryParam Category = "EPARAM"
	CategoryRedef Category = "EREDEF"
)

// Categories lists every known category in report order.
var Categories = []Category{
	CategoryUndef,
	CategoryType,
	CategoryParam,
	CategoryRedef,
}

var categoryInfo = map[Category]struct {
	severity    Severity
	description string
}{
	CategoryUndef: {SeverityCritical, "Reference to an undeclared element"},
	CategoryType:  {SeverityCritical, "Type violation"},
	CategoryParam: {SeverityNormal, "Invalid parameter list"},
	CategoryRedef: {SeverityNormal, "Element declared more than once"},
}

// ParseCategory accepts a category code such as "EUNDEF" (case-insensitive).
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := categoryInfo[c]; !ok {
		return "", fmt.Errorf("unknown diagnostic category %q", s)
	}
	return c, nil
}

// Severity is the default severity of the category.
func (c Category) Severity() Severity {
	if info, ok := categoryInfo[c]; ok {
		return info.severity
	}
	return SeverityNormal
}

func (c Category) Description() string {
	return categoryInfo[c].description
}

// Severity orders findings for filtering and exit codes.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityNormal
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityNormal:
		return "normal"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow, nil
	case "normal", "":
		return SeverityNormal, nil
	case "critical":
		return SeverityCritical, nil
	}
	return SeverityNormal, fmt.Errorf("unknown severity %q", s)
}

// Diagnostic is one reported finding.
type Diagnostic struct {
	Category Category
	Severity Severity
	Message  string
	File     string
	Line     int
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d %s %s", d.File, d.Line, d.Category, d.Message)
}

// Emitter receives findings. Implementations must not fail; the analysis
// keeps going regardless of what happens to a finding.
type Emitter interface {
	Emit(category Category, message, file string, line int)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(category Category, message, file string, line int)

func (f EmitterFunc) Emit(category Category, message, file string, line int) {
	f(category, message, file, line)
}

// Discard drops every finding.
var Discard Emitter = EmitterFunc(func(Category, string, string, int) {})
