package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/discwatch/internal/shared"
	"github.com/urfave/cli/v3"
)

// ArtistInfo prints an artist's remote discography.
func (r *Runner) ArtistInfo(ctx context.Context, cmd *cli.Command) error {
	artistID, err := artistIDArg(cmd)
	if err != nil {
		return err
	}
	app, err := r.watch(ctx)
	if err != nil {
		return err
	}

	r.logger.Infof("fetching discography for %s", artistID)
	info, err := app.svc.ArtistInfo(ctx, artistID)
	if err != nil {
		return fmt.Errorf("failed to fetch artist: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(info, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%s (%s)", info.Name, info.ArtistID))
	r.writePlain("Albums: %d  Watched: %v\n", info.Total, info.IsWatched)
	r.writePlain("%s\n\n", shared.ArtistURL(info.ArtistID))
	for i, a := range info.Albums {
		marker := " "
		if a.IsLocallyKnown != nil && *a.IsLocallyKnown {
			marker = "✓"
		}
		r.writePlain("%s %2d. %s [%s, %s] %s\n", marker, i+1, a.Name, a.AlbumType, a.ReleaseDate, a.ID)
	}
	return nil
}

// ArtistDownload queues an artist's discography regardless of the watch feature flag.
func (r *Runner) ArtistDownload(ctx context.Context, cmd *cli.Command) error {
	artistID, err := artistIDArg(cmd)
	if err != nil {
		return err
	}
	app, err := r.watch(ctx)
	if err != nil {
		return err
	}

	report, err := app.svc.DownloadArtist(ctx, artistID, cmd.String("album-type"))
	if err != nil {
		return fmt.Errorf("failed to queue discography: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, cmd.Bool("pretty"))
	}

	r.writePlain("✓ %d album(s) queued, %d already in the queue\n", len(report.Queued), len(report.Duplicates))
	for _, a := range report.Queued {
		r.writePlain("  + %s [%s]\n", a.Name, a.AlbumType)
	}
	for _, f := range report.Failed {
		r.writePlain("  ✗ %s: %s\n", f.ID, f.Error)
	}
	return nil
}
