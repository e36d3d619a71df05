package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/discwatch/internal/shared"
	"github.com/desertthunder/discwatch/internal/tasks"
	"github.com/desertthunder/discwatch/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for the watchlist.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, closer, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closer.Close()
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	app, err := r.watch(ctx)
	if err != nil {
		return err
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prog := make(chan tasks.ProgressUpdate, 64)
	scheduler := r.scheduler(app, prog, false)
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer scheduler.Stop()

	model := ui.NewModel(ctx, ui.ModelOpts{
		Service:   app.svc,
		Scheduler: scheduler,
		Progress:  prog,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
