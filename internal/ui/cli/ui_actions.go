package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

func handleKeyActions(msg tea.KeyMsg, m model) (tea.Model, tea.Cmd) {
	if m.mode == panelFiles && m.fileList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.fileList, cmd = m.fileList.Update(msg)
		m.findings.SetContent(renderFindings(m))
		return m, cmd
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab":
		if m.mode == panelFiles {
			return showFindings(m), nil
		}
		m.mode = panelFiles
		return m, nil
	case "o":
		target, ok := selectedSourceTarget(m)
		if !ok {
			m.status = statusStyle.Render("No source target available.")
			return m, nil
		}
		return m, jumpToSourceCmd(target)
	}

	if m.mode == panelFiles {
		if msg.String() == "enter" {
			return showFindings(m), nil
		}
		var cmd tea.Cmd
		m.fileList, cmd = m.fileList.Update(msg)
		m.findings.SetContent(renderFindings(m))
		return m, cmd
	}

	switch msg.String() {
	case "esc", "backspace":
		m.mode = panelFiles
		return m, nil
	}
	var cmd tea.Cmd
	m.findings, cmd = m.findings.Update(msg)
	return m, cmd
}

func showFindings(m model) model {
	m.mode = panelFindings
	m.findings.SetContent(renderFindings(m))
	m.findings.GotoTop()
	return m
}

type sourceTarget struct {
	file string
	line int
}

// selectedSourceTarget points at the first finding of the selected file.
func selectedSourceTarget(m model) (sourceTarget, bool) {
	file, ok := selectedFile(m)
	if !ok || file == "" || len(m.byFile[file]) == 0 {
		return sourceTarget{}, false
	}
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.root, filepath.FromSlash(file))
	}
	line := m.byFile[file][0].Line
	if line <= 0 {
		line = 1
	}
	return sourceTarget{file: path, line: line}, true
}

func jumpToSourceCmd(target sourceTarget) tea.Cmd {
	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	args := []string{target.file}
	if strings.Contains(editor, "vim") || strings.Contains(editor, "nvim") || strings.HasSuffix(editor, "/vi") || editor == "vi" {
		args = []string{fmt.Sprintf("+%d", target.line), target.file}
	}
	cmd := exec.Command(editor, args...)
	label := fmt.Sprintf("%s:%d", target.file, target.line)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return sourceJumpResultMsg{target: label, err: err}
	})
}
