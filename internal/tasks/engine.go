package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/discwatch/internal/models"
	"github.com/desertthunder/discwatch/internal/services"
	"github.com/desertthunder/discwatch/internal/shared"
)

// EngineOpts contains the collaborators of an [Engine].
type EngineOpts struct {
	Provider    services.MetadataProvider
	Dispatcher  services.Dispatcher
	Store       WatchStore
	Coordinator *Coordinator          // Defaults to a new coordinator
	Settings    *shared.WatchSettings // Defaults to the embedded watch config
	Logger      *log.Logger           // Defaults to stderr
}

// Engine reconciles watched artists against the metadata provider and dispatches new albums.
type Engine struct {
	provider   services.MetadataProvider
	dispatcher services.Dispatcher
	store      WatchStore
	coord      *Coordinator
	settings   *shared.WatchSettings
	logger     *log.Logger
}

// NewEngine creates an [Engine], filling in defaults for optional collaborators.
func NewEngine(opts EngineOpts) *Engine {
	if opts.Coordinator == nil {
		opts.Coordinator = NewCoordinator()
	}
	if opts.Settings == nil {
		opts.Settings = shared.NewWatchSettings(shared.DefaultConfig().Watch)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Engine{
		provider:   opts.Provider,
		dispatcher: opts.Dispatcher,
		store:      opts.Store,
		coord:      opts.Coordinator,
		settings:   opts.Settings,
		logger:     opts.Logger,
	}
}

// Coordinator returns the engine's dedup coordinator.
func (e *Engine) Coordinator() *Coordinator {
	return e.coord
}

// Reconcile diffs the remote discography of a watched artist against its known albums.
//
// Returns [shared.ErrArtistNotWatched] for unknown artists and [shared.ErrMetadataFetch] when the provider
// returns nothing usable. Album entries that cannot be tracked land in FetchErrors without failing the call.
func (e *Engine) Reconcile(ctx context.Context, artistID string) (*models.ReconciliationResult, error) {
	cfg := e.settings.Snapshot()

	artist, err := e.store.Get(ctx, artistID)
	if err != nil {
		return nil, notWatched(artistID, err)
	}

	res, _, err := e.reconcile(ctx, nil, artist, shared.NormalizeAlbumTypes(cfg.AlbumTypes))
	return res, err
}

func (e *Engine) reconcile(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	artist *models.WatchedArtist,
	types []string,
) (*models.ReconciliationResult, *models.Discography, error) {
	if e.provider == nil {
		return nil, nil, fmt.Errorf("%w: metadata provider not configured", shared.ErrServiceUnavailable)
	}

	sendProgress(prog, fetchingDiscographyUpdate(artist))
	disc, err := e.provider.Discography(ctx, artist.ID)
	if err != nil {
		if !errors.Is(err, shared.ErrMetadataFetch) {
			err = fmt.Errorf("%w: %w", shared.ErrMetadataFetch, err)
		}
		return nil, nil, err
	}
	if disc == nil {
		return nil, nil, fmt.Errorf("%w: no discography returned for %s", shared.ErrMetadataFetch, artist.ID)
	}

	known, err := e.store.KnownAlbumIDs(ctx, artist.ID)
	if err != nil {
		return nil, nil, err
	}

	res := classify(artist.ID, disc, known, types)
	sendProgress(prog, reconciledUpdate(artist.ID, res))
	return res, disc, nil
}

// classify partitions the discography into new and known albums.
//
// Entries outside the album type filter are ignored, repeated ids are collapsed and entries without an id
// are reported as fetch errors. Known ids missing from the listing are returned as Removed.
func classify(artistID string, disc *models.Discography, known map[string]struct{}, types []string) *models.ReconciliationResult {
	res := &models.ReconciliationResult{
		ArtistID:     artistID,
		NewAlbums:    []models.AlbumRef{},
		AlreadyKnown: []models.AlbumRef{},
		Total:        len(disc.Items),
	}

	seen := make(map[string]struct{}, len(disc.Items))
	for i, album := range disc.Items {
		if err := album.Validate(); err != nil {
			res.FetchErrors = append(res.FetchErrors, models.ItemError{
				ID:    fmt.Sprintf("#%d", i),
				Error: err.Error(),
			})
			continue
		}
		if _, dup := seen[album.ID]; dup {
			continue
		}
		seen[album.ID] = struct{}{}

		if !album.MatchesTypes(types) {
			continue
		}

		if _, ok := known[album.ID]; ok {
			res.AlreadyKnown = append(res.AlreadyKnown, album)
		} else {
			res.NewAlbums = append(res.NewAlbums, album)
		}
	}

	for id := range known {
		if _, ok := seen[id]; !ok {
			res.Removed = append(res.Removed, id)
		}
	}

	return res
}

type submitOutcome int

const (
	submitQueued submitOutcome = iota
	submitDuplicate
	submitFailed
)

func (o submitOutcome) String() string {
	switch o {
	case submitQueued:
		return "queued"
	case submitDuplicate:
		return "duplicate"
	default:
		return "failed"
	}
}

// submitAlbum reserves the album's fingerprint and hands it to the dispatcher.
//
// A fingerprint that is already reserved means another trigger is submitting the same request right now;
// the album is reported as a duplicate without contacting the dispatcher.
func (e *Engine) submitAlbum(
	ctx context.Context,
	artistID string,
	album models.AlbumRef,
	filter, source string,
) (submitOutcome, string, error) {
	if e.dispatcher == nil {
		return submitFailed, "", fmt.Errorf("%w: download dispatcher not configured", shared.ErrServiceUnavailable)
	}

	fp := NewFingerprint(artistID, album.ID, filter)
	if !e.coord.TryReserveFingerprint(fp) {
		e.logger.Debug("submission already in flight", "artist", artistID, "album", album.ID, "fingerprint", fp.Short())
		return submitDuplicate, "", nil
	}
	defer e.coord.ReleaseFingerprint(fp)

	req := models.DownloadRequest{
		URL:       albumURL(album),
		AlbumType: filter,
		Source:    source,
		ArtistID:  artistID,
		AlbumID:   album.ID,
		Params:    map[string]string{"name": album.Name, "download_type": "album"},
	}

	res, err := e.dispatcher.SubmitDownload(ctx, req)
	if err != nil {
		return submitFailed, "", err
	}
	if !res.Accepted() {
		if res != nil && len(res.Duplicates) > 0 {
			return submitDuplicate, "", nil
		}
		return submitFailed, "", fmt.Errorf("%w: dispatcher accepted nothing for album %s", shared.ErrAPIRequest, album.ID)
	}

	taskID := res.Queued[0].TaskID
	for _, item := range res.Queued {
		if item.AlbumID == album.ID {
			taskID = item.TaskID
			break
		}
	}
	return submitQueued, taskID, nil
}

// dispatch submits albums one by one. Per-album failures are recorded and do not stop the loop.
func (e *Engine) dispatch(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	artistID string,
	albums []models.AlbumRef,
	filter, source string,
) (*models.DispatchReport, []models.KnownAlbum) {
	report := &models.DispatchReport{
		ArtistID:   artistID,
		Queued:     []models.AlbumRef{},
		Duplicates: []models.AlbumRef{},
	}
	accepted := make([]models.KnownAlbum, 0, len(albums))

	for i, album := range albums {
		outcome, taskID, err := e.submitAlbum(ctx, artistID, album, filter, source)
		switch outcome {
		case submitQueued:
			report.Queued = append(report.Queued, album)
			accepted = append(accepted, models.NewKnownAlbum(artistID, album, taskID))
		case submitDuplicate:
			report.Duplicates = append(report.Duplicates, album)
		default:
			e.logger.Warn("album submission failed", "artist", artistID, "album", album.ID, "err", err)
			report.Failed = append(report.Failed, models.ItemError{ID: album.ID, Error: err.Error()})
		}
		sendProgress(prog, dispatchUpdate(artistID, i+1, len(albums), album, outcome.String()))
	}

	return report, accepted
}

// Check runs one full pass for a watched artist: reconcile, dispatch new albums, then persist the accepted
// ones as known. The caller is expected to hold the artist lock.
//
// If the artist is removed while the pass runs, nothing is persisted and the report is marked Discarded.
func (e *Engine) Check(ctx context.Context, prog chan<- ProgressUpdate, artistID string) (*models.CheckResult, error) {
	cfg := e.settings.Snapshot()
	logger := shared.WithLogger(e.logger, "artist", artistID)

	artist, err := e.store.Get(ctx, artistID)
	if err != nil {
		return nil, notWatched(artistID, err)
	}

	types := shared.NormalizeAlbumTypes(cfg.AlbumTypes)
	recon, disc, err := e.reconcile(ctx, prog, artist, types)
	if err != nil {
		return nil, err
	}
	if len(recon.FetchErrors) > 0 {
		logger.Warn("discography contained unusable entries", "count", len(recon.FetchErrors))
	}

	report, accepted := e.dispatch(ctx, prog, artistID, recon.NewAlbums, shared.JoinAlbumTypes(types), SourceArtistWatch)
	result := &models.CheckResult{Reconciliation: recon, Dispatch: report}

	if len(accepted) > 0 {
		written, err := e.store.UpsertAlbums(ctx, artistID, accepted)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			logger.Info("artist removed during check, discarding results", "queued", len(accepted))
			report.Discarded = true
			return result, nil
		case err != nil:
			return result, fmt.Errorf("failed to record known albums: %w", err)
		}
		report.Persisted = written
		sendProgress(prog, persistUpdate(artistID, written))
	}

	total := disc.Total
	if total < len(disc.Items) {
		total = len(disc.Items)
	}
	if err := e.store.Touch(ctx, artistID, time.Now().UTC(), total); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			logger.Info("artist removed during check, discarding results")
			report.Discarded = true
			return result, nil
		}
		return result, err
	}

	logger.Info("check complete",
		"new", len(recon.NewAlbums),
		"known", len(recon.AlreadyKnown),
		"queued", len(report.Queued),
		"duplicates", len(report.Duplicates),
		"failed", len(report.Failed),
	)
	return result, nil
}

// DownloadDiscography submits every album of the artist that passes albumTypes, without recording anything.
// The artist does not need to be watched.
func (e *Engine) DownloadDiscography(ctx context.Context, prog chan<- ProgressUpdate, artistID, albumTypes string) (*models.DispatchReport, error) {
	if e.provider == nil {
		return nil, fmt.Errorf("%w: metadata provider not configured", shared.ErrServiceUnavailable)
	}

	disc, err := e.provider.Discography(ctx, artistID)
	if err != nil {
		if !errors.Is(err, shared.ErrMetadataFetch) {
			err = fmt.Errorf("%w: %w", shared.ErrMetadataFetch, err)
		}
		return nil, err
	}
	if disc == nil {
		return nil, fmt.Errorf("%w: no discography returned for %s", shared.ErrMetadataFetch, artistID)
	}

	types := shared.NormalizeAlbumTypes(albumTypes)
	res := classify(artistID, disc, nil, types)

	report, _ := e.dispatch(ctx, prog, artistID, res.NewAlbums, shared.JoinAlbumTypes(types), SourceArtistDownload)
	return report, nil
}
