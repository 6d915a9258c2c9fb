package formats

import (
	"encoding/json"

	"nominal/internal/core/app"
	"nominal/internal/core/diag"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"
)

type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool              sarifTool              `json:"tool"`
	AutomationDetails sarifAutomationDetails `json:"automationDetails"`
	Results           []sarifResult          `json:"results"`
}

type sarifAutomationDetails struct {
	ID string `json:"id"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine int `json:"startLine,omitempty"`
}

// GenerateSARIF builds a SARIF v2.1.0 document with one rule per finding
// category present in rep. File URIs are the project relative names the
// findings carry.
func GenerateSARIF(rep *app.Report, toolVersion string) ([]byte, error) {
	results := make([]sarifResult, 0, len(rep.Diagnostics))
	for _, d := range rep.Diagnostics {
		result := sarifResult{
			RuleID:  string(d.Category),
			Level:   sarifLevel(d.Severity),
			Message: sarifMessage{Text: d.Message},
		}
		if d.File != "" {
			loc := sarifLocation{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{
						URI:       relativeURI(d.File),
						URIBaseID: "%SRCROOT%",
					},
				},
			}
			if d.Line > 0 {
				loc.PhysicalLocation.Region = &sarifRegion{StartLine: d.Line}
			}
			result.Locations = []sarifLocation{loc}
		}
		results = append(results, result)
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    "nominal",
						Version: toolVersion,
						Rules:   buildSARIFRules(rep),
					},
				},
				AutomationDetails: sarifAutomationDetails{ID: rep.Project + "/" + rep.RunID},
				Results:           results,
			},
		},
	}
	return json.MarshalIndent(report, "", "  ")
}

// buildSARIFRules returns only the rules that are relevant for the given findings.
func buildSARIFRules(rep *app.Report) []sarifRule {
	counts := rep.CountByCategory()
	rules := make([]sarifRule, 0, len(counts))
	for _, c := range diag.Categories {
		if counts[c] == 0 {
			continue
		}
		rules = append(rules, sarifRule{
			ID:               string(c),
			Name:             ruleName(c),
			ShortDescription: sarifMessage{Text: c.Description()},
			DefaultConfig:    sarifRuleDefaultConfig{Level: sarifLevel(c.Severity())},
		})
	}
	return rules
}

func ruleName(c diag.Category) string {
	switch c {
	case diag.CategoryUndef:
		return "UndeclaredElement"
	case diag.CategoryType:
		return "TypeViolation"
	case diag.CategoryParam:
		return "InvalidParameterList"
	case diag.CategoryRedef:
		return "Redeclaration"
	}
	return string(c)
}

func sarifLevel(s diag.Severity) string {
	switch s {
	case diag.SeverityCritical:
		return "error"
	case diag.SeverityNormal:
		return "warning"
	default:
		return "note"
	}
}
