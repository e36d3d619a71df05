package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/discwatch/internal/formatter"
	"github.com/desertthunder/discwatch/internal/models"
	"github.com/desertthunder/discwatch/internal/shared"
	"github.com/desertthunder/discwatch/internal/tasks"
	"github.com/urfave/cli/v3"
)

func artistIDArg(cmd *cli.Command) (string, error) {
	id := strings.TrimSpace(cmd.StringArg("artist-id"))
	if id == "" {
		return "", fmt.Errorf("%w: artist-id", shared.ErrMissingArgument)
	}
	return id, nil
}

// albumArgs reads "<artist-id> [album-id...]" positional arguments.
func albumArgs(cmd *cli.Command) (string, []string, error) {
	args := cmd.Args()
	artistID := strings.TrimSpace(args.First())
	if artistID == "" {
		return "", nil, fmt.Errorf("%w: artist-id", shared.ErrMissingArgument)
	}
	albumIDs := args.Tail()
	if len(albumIDs) == 0 {
		return "", nil, fmt.Errorf("%w: at least one album-id", shared.ErrMissingArgument)
	}
	return artistID, albumIDs, nil
}

// WatchAdd starts watching an artist.
func (r *Runner) WatchAdd(ctx context.Context, cmd *cli.Command) error {
	artistID, err := artistIDArg(cmd)
	if err != nil {
		return err
	}
	app, err := r.watch(ctx)
	if err != nil {
		return err
	}

	res, err := app.svc.AddArtist(ctx, artistID)
	if err != nil {
		return fmt.Errorf("failed to watch artist: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(res, cmd.Bool("pretty"))
	}

	if res.AlreadyWatched {
		return r.writePlain("Already watching %s (%s)\n", res.Artist.Name, res.Artist.ID)
	}
	r.writePlain("✓ Now watching %s (%s)\n", res.Artist.Name, res.Artist.ID)
	if res.NameGuessed {
		r.writePlain("  Name taken from the first album; the provider did not list this artist by id\n")
	}
	return nil
}

// WatchRemove stops watching an artist.
func (r *Runner) WatchRemove(ctx context.Context, cmd *cli.Command) error {
	artistID, err := artistIDArg(cmd)
	if err != nil {
		return err
	}
	app, err := r.watch(ctx)
	if err != nil {
		return err
	}

	if err := app.svc.RemoveArtist(ctx, artistID); err != nil {
		return fmt.Errorf("failed to remove artist: %w", err)
	}
	return r.writePlain("✓ Stopped watching %s\n", artistID)
}

// WatchStatus reports whether an artist is watched.
func (r *Runner) WatchStatus(ctx context.Context, cmd *cli.Command) error {
	artistID, err := artistIDArg(cmd)
	if err != nil {
		return err
	}
	app, err := r.watch(ctx)
	if err != nil {
		return err
	}

	status, err := app.svc.Status(ctx, artistID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, cmd.Bool("pretty"))
	}

	if !status.IsWatched {
		return r.writePlain("%s is not watched\n", artistID)
	}
	a := status.Artist
	r.writePlain("%s (%s) is watched\n", a.Name, a.ID)
	r.writePlain("  Known albums: %d of %d\n", status.KnownAlbums, a.TotalAlbums)
	r.writePlain("  Watched since: %s\n", a.WatchedSince.Local().Format(time.RFC1123))
	if a.LastCheckedAt != nil {
		r.writePlain("  Last checked: %s\n", a.LastCheckedAt.Local().Format(time.RFC1123))
	}
	return nil
}

// WatchList lists watched artists.
func (r *Runner) WatchList(ctx context.Context, cmd *cli.Command) error {
	app, err := r.watch(ctx)
	if err != nil {
		return err
	}

	artists, err := app.svc.List(ctx)
	if err != nil {
		return err
	}

	switch {
	case cmd.Bool("json"):
		return r.writeJSON(artists, cmd.Bool("pretty"))
	case cmd.Bool("csv"):
		data, err := formatter.WatchlistToCSV(artists)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	default:
		return r.writePlain("%s", formatter.WatchlistToText(artists))
	}
}

// WatchAlbums lists the known albums of a watched artist.
func (r *Runner) WatchAlbums(ctx context.Context, cmd *cli.Command) error {
	artistID, err := artistIDArg(cmd)
	if err != nil {
		return err
	}
	app, err := r.watch(ctx)
	if err != nil {
		return err
	}

	status, err := app.svc.Status(ctx, artistID)
	if err != nil {
		return err
	}
	if !status.IsWatched {
		return fmt.Errorf("%w: %s", shared.ErrArtistNotWatched, artistID)
	}

	albums, err := app.svc.KnownAlbums(ctx, artistID)
	if err != nil {
		return err
	}

	switch {
	case cmd.Bool("json"):
		return r.writeJSON(albums, cmd.Bool("pretty"))
	case cmd.Bool("csv"):
		data, err := formatter.AlbumsToCSV(albums)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	default:
		return r.writePlain("%s", formatter.AlbumsToText(*status.Artist, albums))
	}
}

// WatchCheck runs a check for one artist, or every watched artist, and waits for the batch to finish.
func (r *Runner) WatchCheck(ctx context.Context, cmd *cli.Command) error {
	app, err := r.watch(ctx)
	if err != nil {
		return err
	}

	if timeout := cmd.Duration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	quiet := cmd.Bool("json")
	prog := make(chan tasks.ProgressUpdate, 64)
	scheduler := r.scheduler(app, prog, false)
	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	defer scheduler.Stop()

	batch, err := scheduler.TriggerCheck(ctx, strings.TrimSpace(cmd.StringArg("artist-id")))
	if err != nil {
		return fmt.Errorf("failed to trigger check: %w", err)
	}

	if !quiet {
		r.writePlainHeader(fmt.Sprintf("Checking %d artist(s)", len(batch.ArtistIDs)))
	}

	show := func(u tasks.ProgressUpdate) {
		if !quiet && u.Phase != tasks.BatchDone {
			r.writePlain("%s\n", u.Message)
		}
	}

wait:
	for {
		select {
		case u := <-prog:
			show(u)
		case <-batch.Done():
			break wait
		case <-ctx.Done():
			return fmt.Errorf("%w: check batch %s did not finish", shared.ErrTimeout, batch.ID)
		}
	}
	for drained := false; !drained; {
		select {
		case u := <-prog:
			show(u)
		default:
			drained = true
		}
	}

	report := batch.Report()
	if quiet {
		return r.writeJSON(report, cmd.Bool("pretty"))
	}
	return r.writeBatchReport(report)
}

func (r *Runner) writeBatchReport(report *tasks.BatchReport) error {
	r.writePlainln("Batch %s: %s", report.BatchID, report.Outcome)
	r.writePlain("  Checked: %d  Skipped: %d  Failed: %d\n", len(report.Checked), len(report.Skipped), len(report.Failed))
	r.writePlain("  Queued: %d  Duplicates: %d\n", report.Queued, report.Duplicates)
	for _, id := range report.Skipped {
		r.writePlain("  - %s skipped, check already running\n", id)
	}
	for _, f := range report.Failed {
		r.writePlain("  ✗ %s: %s\n", f.ID, f.Error)
	}
	return nil
}

func (r *Runner) writeMarkResult(cmd *cli.Command, verb string, res *models.MarkResult) error {
	if cmd.Bool("json") {
		return r.writeJSON(res, cmd.Bool("pretty"))
	}
	r.writePlain("%s %d of %d album(s) for %s (%s)\n", verb, res.Processed, res.Requested, res.ArtistID, res.Outcome)
	for _, e := range res.FetchErrors {
		r.writePlain("  ✗ %s: %s\n", e.ID, e.Error)
	}
	return nil
}

// WatchKnown records albums as known without dispatching them.
func (r *Runner) WatchKnown(ctx context.Context, cmd *cli.Command) error {
	artistID, albumIDs, err := albumArgs(cmd)
	if err != nil {
		return err
	}
	app, err := r.watch(ctx)
	if err != nil {
		return err
	}

	res, err := app.svc.MarkAlbumsKnown(ctx, artistID, albumIDs)
	if err != nil {
		return fmt.Errorf("failed to mark albums known: %w", err)
	}
	return r.writeMarkResult(cmd, "Recorded", res)
}

// WatchMissing forgets known albums so the next check dispatches them again.
func (r *Runner) WatchMissing(ctx context.Context, cmd *cli.Command) error {
	artistID, albumIDs, err := albumArgs(cmd)
	if err != nil {
		return err
	}
	app, err := r.watch(ctx)
	if err != nil {
		return err
	}

	res, err := app.svc.MarkAlbumsMissing(ctx, artistID, albumIDs)
	if err != nil {
		return fmt.Errorf("failed to mark albums missing: %w", err)
	}
	return r.writeMarkResult(cmd, "Forgot", res)
}

// WatchHistory shows recorded checks, optionally for a single artist.
func (r *Runner) WatchHistory(ctx context.Context, cmd *cli.Command) error {
	app, err := r.watch(ctx)
	if err != nil {
		return err
	}

	runs, err := app.history.List(ctx, strings.TrimSpace(cmd.StringArg("artist-id")), int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, cmd.Bool("pretty"))
	}
	return r.writePlain("%s", formatter.CheckRunsToText(runs))
}

// WatchPrune deletes check history older than --older-than.
func (r *Runner) WatchPrune(ctx context.Context, cmd *cli.Command) error {
	age := cmd.Duration("older-than")
	if age <= 0 {
		return fmt.Errorf("%w: --older-than must be positive", shared.ErrInvalidFlag)
	}
	app, err := r.watch(ctx)
	if err != nil {
		return err
	}

	removed, err := app.history.Prune(ctx, time.Now().Add(-age))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Pruned %d check(s) older than %s\n", removed, age)
}

// WatchExport writes every watched artist and its known albums to disk.
func (r *Runner) WatchExport(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if !formatter.ValidFormat(format) {
		return fmt.Errorf("%w: --format must be one of json, csv, markdown, txt (got %q)", shared.ErrInvalidFlag, format)
	}
	app, err := r.watch(ctx)
	if err != nil {
		return err
	}

	prog := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range prog {
			r.writePlain("%s\n", u.Message)
		}
	}()

	res, err := tasks.ExportWatchlist(ctx, prog, app.store, tasks.ExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
	})
	close(prog)
	<-done
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	r.writePlainln("✓ Exported %d of %d artist(s) as %s to %s", res.Successful, res.TotalArtists, res.Format, res.OutputDirectory)
	if res.Failed > 0 {
		r.writePlain("  %d artist(s) failed, see %s\n", res.Failed, res.ManifestPath)
	}
	return nil
}
