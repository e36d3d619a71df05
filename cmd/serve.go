package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/discwatch/internal/server"
	"github.com/desertthunder/discwatch/internal/tasks"
	"github.com/urfave/cli/v3"
)

// newRouter wires the HTTP handlers over the watch stack.
func (r *Runner) newRouter(app *watchApp, scheduler *tasks.Scheduler) *server.BasicRouter {
	router := server.NewBasicRouter()
	router.Use(server.RequestID(), server.Recover(r.logger), server.Logging(r.logger))
	router.Handler(server.NewArtistHandler(app.svc, r.logger))
	router.Handler(server.NewWatchHandler(server.WatchHandlerOpts{
		Service:   app.svc,
		Scheduler: scheduler,
		History:   app.history,
		Logger:    r.logger,
	}))
	return router
}

// Serve runs the HTTP API and the scheduler until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := r.watch(ctx)
	if err != nil {
		return err
	}
	defer r.Close()

	prog := make(chan tasks.ProgressUpdate, 64)
	go func() {
		for {
			select {
			case u := <-prog:
				r.logger.Debug(u.Message, "phase", u.Phase, "artist", u.ArtistID)
			case <-ctx.Done():
				return
			}
		}
	}()

	scheduler := r.scheduler(app, prog, !cmd.Bool("no-poll"))
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer scheduler.Stop()

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	router := r.newRouter(app, scheduler)
	r.logger.Debug("routes registered", "count", len(router.Routes()))

	srv := server.NewServer(addr, router, r.logger)
	return srv.ListenAndServe(ctx)
}
