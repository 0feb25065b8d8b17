package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mpq/internal/shared"
	"github.com/desertthunder/mpq/internal/ui"
)

// Watch launches the interactive queue watcher.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, f, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return err
	}
	defer f.Close()
	r.SetLogger(fileLogger)

	client := r.client(cmd)
	if _, err := client.Status(ctx); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
	}

	p := tea.NewProgram(ui.NewModel(ctx, client), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Watch and edit the queue in a terminal UI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "Server base URL, defaults to server.host and server.port",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Log destination while the UI owns the terminal",
				Value: "mpq-watch.log",
			},
		},
		Action: r.Watch,
	}
}
