package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mpq/internal/repositories"
	"github.com/desertthunder/mpq/internal/shared"
	"github.com/desertthunder/mpq/internal/tasks"
)

// Index scans the music directory into the track index.
func (r *Runner) Index(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.String("dir")
	if dir == "" {
		dir = r.config.Library.MusicDir
	}
	if dir == "" {
		return fmt.Errorf("%w: --dir or library.music_dir is required", shared.ErrMissingArgument)
	}
	dir, err := shared.ExpandPath(dir)
	if err != nil {
		return err
	}

	workers := int(cmd.Int("workers"))
	if workers == 0 {
		workers = r.config.Library.Workers
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	quiet := cmd.Bool("quiet")
	progressCh := make(chan tasks.ProgressUpdate, 64)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for update := range progressCh {
			switch update.Phase {
			case tasks.ScanLibrary:
				r.writePlain("📂 %s\n", update.Message)
			case tasks.ReadTags:
				if !quiet {
					r.writePlain("   %s\n", update.Message)
				}
			case tasks.PruneIndex:
				r.writePlain("🧹 %s\n", update.Message)
			}
		}
	}()

	r.logger.Info("indexing library", "dir", dir, "workers", workers)
	indexer := tasks.NewIndexer(repositories.NewTrackRepository(db), workers, r.logger)
	result, err := indexer.Index(ctx, dir, progressCh)
	close(progressCh)
	<-printed

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writeHeader("Index Complete")
	r.writePlain("Found:   %d\n", result.Found)
	r.writePlain("Indexed: %d\n", result.Indexed)
	r.writePlain("Pruned:  %d\n", result.Pruned)
	if len(result.Failed) > 0 {
		r.writePlain("\nFailed to read %d files:\n", len(result.Failed))
		for _, uri := range result.Failed {
			r.writePlain("  - %s\n", uri)
		}
	}
	return nil
}

func indexCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Index the music directory so relative URIs can be added",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Music directory, defaults to library.music_dir",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Files read in parallel, defaults to library.workers",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only print the summary",
			},
		},
		Action: r.Index,
	}
}
