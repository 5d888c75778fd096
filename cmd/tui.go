package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/photosync/internal/shared"
	"github.com/desertthunder/photosync/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for photo transfer.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	date := time.Now()
	if s := cmd.String("date"); s != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, s, time.Local)
		if err != nil {
			return fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", shared.ErrInvalidArgument, s)
		}
		date = parsed
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	source, dest := r.sourceService(), r.destService()
	if err := r.connect(ctx, source, dest); err != nil {
		return err
	}
	defer source.Close()
	defer dest.Close()

	history, closeHistory, err := r.openHistory()
	if err != nil {
		return err
	}
	defer closeHistory()

	model := ui.NewModel(ctx, ui.ModelOpts{
		Source:       source,
		Dest:         dest,
		Engine:       r.newEngine(history, false),
		Prefetcher:   r.newPrefetcher(true, nil),
		SearchCount:  r.config.Thumbnails.SearchCount,
		Date:         date,
		PreviewWidth: r.config.Thumbnails.PreviewWidth,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
