package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/mpq/internal/metrics"
	"github.com/desertthunder/mpq/internal/queue"
	"github.com/desertthunder/mpq/internal/repositories"
	"github.com/desertthunder/mpq/internal/server"
	"github.com/desertthunder/mpq/internal/services"
	"github.com/desertthunder/mpq/internal/shared"
	"github.com/desertthunder/mpq/internal/tasks"
)

const shutdownTimeout = 10 * time.Second

// Serve runs the queue server until interrupted.
//
// On shutdown the HTTP server drains first, then the queue state is flushed while the
// command loop is still running, and only then is the loop stopped.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	tracks := repositories.NewTrackRepository(db)
	states := repositories.NewQueueStateRepository(db)

	q := queue.New(queue.Options{
		MaxLength: cfg.Queue.MaxLength,
		ChangeLog: cfg.Queue.ChangeLog,
	})
	loop := tasks.NewLoop(q, r.logger.WithPrefix("loop"))

	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		loop.Run(loopCtx)
	}()

	keeper := tasks.NewStateKeeper(loop, metrics.InstrumentStateStore(states), r.logger.WithPrefix("state"))
	idle := server.NewBroadcaster()
	observer := metrics.NewQueueObserver(loop.View)
	if err := loop.Do(ctx, func(q *queue.Queue) error {
		q.Subscribe(keeper)
		q.Subscribe(idle)
		q.Subscribe(observer)
		return nil
	}); err != nil {
		return fmt.Errorf("failed to subscribe listeners: %w", err)
	}

	if err := keeper.RestoreOnStart(ctx); err != nil {
		return fmt.Errorf("failed to restore queue state: %w", err)
	}

	editor := tasks.NewQueueEditor(loop, services.NewTagLoader(), tracks, r.logger.WithPrefix("editor"))
	handler := server.NewQueueHandler(editor, keeper, states, idle, shared.WithLogger(r.logger, "component", "queue"))

	addr := cmd.String("addr")
	if addr == "" {
		addr = cfg.Server.Addr()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.NewRouter(cfg.Server, r.logger.WithPrefix("http"), handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.logger.Info("queue server listening", "addr", addr, "entries", loop.View().Len())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		keeper.Run(gctx, cfg.Queue.SaveEvery())
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		r.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if ferr := keeper.Flush(flushCtx); ferr != nil {
		r.logger.Error("failed to save queue state", "error", ferr)
		err = errors.Join(err, ferr)
	}

	stopLoop()
	<-loopDone
	return err
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the queue server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, overrides server.host and server.port",
			},
		},
		Action: r.Serve,
	}
}
