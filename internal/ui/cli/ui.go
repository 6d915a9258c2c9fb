package cli

import (
	"fmt"
	"strings"
	"time"

	coreapp "nominal/internal/core/app"
	"nominal/internal/core/diag"
	"nominal/internal/ui/report"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	criticalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	lowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

func severityStyle(sev diag.Severity) lipgloss.Style {
	switch sev {
	case diag.SeverityCritical:
		return criticalStyle
	case diag.SeverityNormal:
		return normalStyle
	default:
		return lowStyle
	}
}

type item struct {
	file        string
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title }

type panelMode int

const (
	panelFiles panelMode = iota
	panelFindings
)

// reportMsg carries the report of one watch run.
type reportMsg struct {
	rep *coreapp.Report
}

type watchErrMsg struct {
	err error
}

type sourceJumpResultMsg struct {
	target string
	err    error
}

type model struct {
	fileList list.Model
	findings viewport.Model
	mode     panelMode

	root     string
	radius   int
	excerpts *report.Excerpter

	rep        *coreapp.Report
	files      []string
	byFile     map[string][]diag.Diagnostic
	runs       int
	lastUpdate time.Time
	status     string
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return handleKeyActions(msg, m)
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		width := msg.Width - h
		height := msg.Height - v - 6
		if height < 5 {
			height = 5
		}
		m.fileList.SetSize(width, height)
		m.findings.Width = width
		m.findings.Height = height
		return m, nil
	case reportMsg:
		return m.withReport(msg.rep), nil
	case watchErrMsg:
		m.status = criticalStyle.Render(fmt.Sprintf("Watch stopped: %v", msg.err))
		return m, nil
	case sourceJumpResultMsg:
		if msg.err != nil {
			m.status = statusStyle.Render(fmt.Sprintf("Source jump failed: %v", msg.err))
		} else {
			m.status = statusStyle.Render(fmt.Sprintf("Opened source: %s", msg.target))
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.mode == panelFiles {
		m.fileList, cmd = m.fileList.Update(msg)
	} else {
		m.findings, cmd = m.findings.Update(msg)
	}
	return m, cmd
}

// withReport replaces the listed findings with those of rep. Source files
// are re-read for excerpts since they may have changed between runs.
func (m model) withReport(rep *coreapp.Report) model {
	m.rep = rep
	m.runs++
	m.lastUpdate = time.Now()
	if m.radius > 0 {
		m.excerpts = report.NewExcerpter(m.root, m.radius)
	}

	m.files = nil
	m.byFile = make(map[string][]diag.Diagnostic)
	for _, d := range rep.Diagnostics {
		if _, seen := m.byFile[d.File]; !seen {
			m.files = append(m.files, d.File)
		}
		m.byFile[d.File] = append(m.byFile[d.File], d)
	}

	items := make([]list.Item, 0, len(m.files))
	for _, file := range m.files {
		items = append(items, item{
			file:  file,
			title: displayFile(file),
			desc:  fileSummary(m.byFile[file]),
		})
	}
	m.fileList.SetItems(items)
	m.findings.SetContent(renderFindings(m))
	m.findings.GotoTop()
	return m
}

func (m model) View() string {
	files, findings := 0, 0
	if m.rep != nil {
		files, findings = len(m.rep.Files), len(m.rep.Diagnostics)
	}
	status := statusStyle.Render(fmt.Sprintf("Last update: %s | run %d | %d files | %d findings",
		m.lastUpdate.Format("15:04:05"), m.runs, files, findings))

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Nominal Watch"), status, renderSummary(m.rep))

	body := m.fileList.View()
	if m.mode == panelFindings {
		body = m.findings.View()
	}
	if m.status != "" {
		body += "\n\n" + m.status
	}
	return docStyle.Render(header + "\n" + renderHelp(m) + "\n\n" + body)
}

func initialModel(root string, contextLines int) model {
	fileList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	fileList.Title = "Files with findings"
	fileList.SetShowStatusBar(false)
	fileList.SetFilteringEnabled(true)

	return model{
		fileList:   fileList,
		findings:   viewport.New(0, 0),
		mode:       panelFiles,
		root:       root,
		radius:     contextLines,
		byFile:     make(map[string][]diag.Diagnostic),
		lastUpdate: time.Now(),
	}
}

func renderHelp(m model) string {
	keys := "Keys: tab panel | / filter | enter findings | o open source | q quit"
	if m.mode == panelFindings {
		keys = "Keys: tab panel | j/k scroll | esc back | o open source | q quit"
	}
	return statusStyle.Render(keys)
}

func renderSummary(rep *coreapp.Report) string {
	if rep == nil {
		return statusStyle.Render("Waiting for the first run")
	}
	if len(rep.Diagnostics) == 0 {
		return successStyle.Render("No issues found")
	}
	counts := make(map[diag.Severity]int)
	for _, d := range rep.Diagnostics {
		counts[d.Severity]++
	}
	return strings.Join([]string{
		criticalStyle.Render(fmt.Sprintf("%d critical", counts[diag.SeverityCritical])),
		normalStyle.Render(fmt.Sprintf("%d normal", counts[diag.SeverityNormal])),
		lowStyle.Render(fmt.Sprintf("%d low", counts[diag.SeverityLow])),
	}, " | ")
}

// renderFindings lists the findings of the selected file with their source
// excerpts.
func renderFindings(m model) string {
	file, ok := selectedFile(m)
	if !ok {
		if m.rep == nil {
			return statusStyle.Render("Waiting for the first run.")
		}
		return successStyle.Render("No issues found.")
	}

	lines := []string{displayFile(file)}
	for _, d := range m.byFile[file] {
		lines = append(lines, fmt.Sprintf("%5d  %s  %s",
			d.Line,
			severityStyle(d.Severity).Render(fmt.Sprintf("%-8s", d.Category)),
			d.Message,
		))
		for _, l := range m.excerpts.Lines(d) {
			lines = append(lines, statusStyle.Render("       "+l))
		}
	}
	return strings.Join(lines, "\n")
}

func selectedFile(m model) (string, bool) {
	it, ok := m.fileList.SelectedItem().(item)
	if !ok {
		return "", false
	}
	return it.file, true
}

func displayFile(file string) string {
	if file == "" {
		return "(no file)"
	}
	return file
}

func fileSummary(ds []diag.Diagnostic) string {
	counts := make(map[diag.Category]int)
	for _, d := range ds {
		counts[d.Category]++
	}
	parts := make([]string, 0, len(counts))
	for _, c := range diag.Categories {
		if counts[c] > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", c, counts[c]))
		}
	}
	noun := "findings"
	if len(ds) == 1 {
		noun = "finding"
	}
	return fmt.Sprintf("%d %s (%s)", len(ds), noun, strings.Join(parts, ", "))
}
