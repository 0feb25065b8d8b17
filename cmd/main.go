package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mpq/internal/services"
	"github.com/desertthunder/mpq/internal/shared"
)

// newApp builds the root command around runner.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "mpq",
		Usage:   "Versioned playback queue server and client",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.loadConfig,
		Commands: r.register(),
	}
}

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{
		ConfigPath: "config.toml",
		Logger:     logger,
	})

	app := newApp(runner)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		var apiErr *services.APIError
		switch {
		case errors.Is(err, context.Canceled):
			os.Exit(130)
		case errors.As(err, &apiErr):
			logger.Fatal("request failed", "status", apiErr.StatusCode, "kind", apiErr.Kind, "message", apiErr.Message)
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}
