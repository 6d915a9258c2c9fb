package cli

import (
	"context"
	"errors"

	coreapp "nominal/internal/core/app"

	tea "github.com/charmbracelet/bubbletea"
)

// runUI runs the watch loop behind an interactive dashboard until the user
// quits or ctx is done.
func runUI(ctx context.Context, analysis *coreapp.App) error {
	cfg, paths := analysis.Config(), analysis.Paths()

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := initialModel(paths.ProjectRoot, cfg.Output.ContextLines)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(watchCtx))

	done := make(chan struct{})
	go func() {
		defer close(done)
		err := analysis.Watch(watchCtx, func(rep *coreapp.Report) {
			p.Send(reportMsg{rep: rep})
		})
		if err != nil {
			p.Send(watchErrMsg{err: err})
		}
	}()

	_, err := p.Run()
	cancel()
	<-done

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
