package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/discwatch/internal/models"
	"github.com/desertthunder/discwatch/internal/services"
	"github.com/desertthunder/discwatch/internal/shared"
	"golang.org/x/sync/errgroup"
)

// WatchServiceOpts contains the collaborators of a [WatchService].
type WatchServiceOpts struct {
	Engine            *Engine
	DownloadAlbumType string // Default filter for DownloadArtist, e.g. "album,single,compilation"
}

// WatchService implements the watch membership operations on top of an [Engine].
//
// Mutating operations read the settings snapshot first and fail with [shared.ErrFeatureDisabled] while the
// feature is off. Read-only queries are always available.
type WatchService struct {
	engine       *Engine
	store        WatchStore
	provider     services.MetadataProvider
	settings     *shared.WatchSettings
	logger       *log.Logger
	downloadType string
}

// NewWatchService creates a [WatchService].
func NewWatchService(opts WatchServiceOpts) *WatchService {
	return &WatchService{
		engine:       opts.Engine,
		store:        opts.Engine.store,
		provider:     opts.Engine.provider,
		settings:     opts.Engine.settings,
		logger:       opts.Engine.logger,
		downloadType: opts.DownloadAlbumType,
	}
}

// Settings exposes the live watch settings.
func (w *WatchService) Settings() *shared.WatchSettings {
	return w.settings
}

func (w *WatchService) gate() (shared.WatchConfig, error) {
	cfg := w.settings.Snapshot()
	if !cfg.Enabled {
		return cfg, shared.ErrFeatureDisabled
	}
	return cfg, nil
}

// AddResult reports the outcome of [WatchService.AddArtist].
type AddResult struct {
	Artist         *models.WatchedArtist `json:"artist"`
	AlreadyWatched bool                  `json:"already_watched"`
	NameGuessed    bool                  `json:"name_guessed,omitempty"`
}

// AddArtist starts watching artistID.
//
// Watching an artist twice is not an error: the existing record is returned with AlreadyWatched set and the
// provider is not contacted. The artist's name is resolved from its discography with
// [models.Discography.ArtistName].
func (w *WatchService) AddArtist(ctx context.Context, artistID string) (*AddResult, error) {
	if _, err := w.gate(); err != nil {
		return nil, err
	}
	if artistID = strings.TrimSpace(artistID); artistID == "" {
		return nil, fmt.Errorf("%w: artist id", shared.ErrMissingArgument)
	}

	existing, err := w.store.Get(ctx, artistID)
	switch {
	case err == nil:
		return &AddResult{Artist: existing, AlreadyWatched: true}, nil
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	if w.provider == nil {
		return nil, fmt.Errorf("%w: metadata provider not configured", shared.ErrServiceUnavailable)
	}

	disc, err := w.provider.Discography(ctx, artistID)
	if err != nil {
		if !errors.Is(err, shared.ErrMetadataFetch) {
			err = fmt.Errorf("%w: %w", shared.ErrMetadataFetch, err)
		}
		return nil, err
	}
	if disc == nil {
		return nil, fmt.Errorf("%w: could not retrieve discography for %s", shared.ErrMetadataFetch, artistID)
	}

	name, guessed := disc.ArtistName(artistID)
	if guessed {
		w.logger.Warn("artist not credited on first album, using first listed artist", "artist", artistID, "name", name)
	}

	total := max(disc.Total, len(disc.Items))
	artist := &models.WatchedArtist{
		ID:           artistID,
		Name:         name,
		TotalAlbums:  total,
		WatchedSince: time.Now().UTC(),
	}

	if err := w.store.Insert(ctx, artist); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			existing, getErr := w.store.Get(ctx, artistID)
			if getErr != nil {
				return nil, getErr
			}
			return &AddResult{Artist: existing, AlreadyWatched: true}, nil
		}
		return nil, err
	}

	w.logger.Info("artist added to watchlist", "artist", artistID, "name", name, "albums", total)
	return &AddResult{Artist: artist, NameGuessed: guessed}, nil
}

// RemoveArtist stops watching artistID and forgets its known albums.
func (w *WatchService) RemoveArtist(ctx context.Context, artistID string) error {
	if _, err := w.gate(); err != nil {
		return err
	}

	if err := w.store.Delete(ctx, artistID); err != nil {
		return notWatched(artistID, err)
	}

	w.logger.Info("artist removed from watchlist", "artist", artistID)
	return nil
}

// WatchStatus is the watch state of one artist.
type WatchStatus struct {
	ArtistID    string                `json:"artist_id"`
	IsWatched   bool                  `json:"is_watched"`
	Artist      *models.WatchedArtist `json:"artist_data,omitempty"`
	Checking    bool                  `json:"checking"`
	KnownAlbums int                   `json:"known_albums"`
}

// Status reports whether artistID is watched. An unwatched artist is a normal answer, not an error.
func (w *WatchService) Status(ctx context.Context, artistID string) (*WatchStatus, error) {
	status := &WatchStatus{ArtistID: artistID, Checking: w.engine.coord.IsChecking(artistID)}

	artist, err := w.store.Get(ctx, artistID)
	if errors.Is(err, shared.ErrNotFound) {
		return status, nil
	}
	if err != nil {
		return nil, err
	}

	known, err := w.store.KnownAlbumIDs(ctx, artistID)
	if err != nil {
		return nil, err
	}

	status.IsWatched = true
	status.Artist = artist
	status.KnownAlbums = len(known)
	return status, nil
}

// List returns every watched artist.
func (w *WatchService) List(ctx context.Context) ([]models.WatchedArtist, error) {
	return w.store.List(ctx)
}

// KnownAlbums returns the albums recorded for a watched artist.
func (w *WatchService) KnownAlbums(ctx context.Context, artistID string) ([]models.KnownAlbum, error) {
	if _, err := w.store.Get(ctx, artistID); err != nil {
		return nil, notWatched(artistID, err)
	}
	return w.store.ListAlbums(ctx, artistID)
}

// AlbumKnown is the answer to a single membership question.
type AlbumKnown struct {
	ArtistID string `json:"artist_id"`
	AlbumID  string `json:"album_id"`
	IsKnown  bool   `json:"is_known"`
}

// IsAlbumKnown reports whether albumID is recorded for a watched artist.
func (w *WatchService) IsAlbumKnown(ctx context.Context, artistID, albumID string) (*AlbumKnown, error) {
	albumID = strings.TrimSpace(albumID)
	if albumID == "" {
		return nil, fmt.Errorf("%w: album id", shared.ErrMissingArgument)
	}
	if _, err := w.store.Get(ctx, artistID); err != nil {
		return nil, notWatched(artistID, err)
	}

	known, err := w.store.IsAlbumKnown(ctx, artistID, albumID)
	if err != nil {
		return nil, err
	}
	return &AlbumKnown{ArtistID: artistID, AlbumID: albumID, IsKnown: known}, nil
}

// validateAlbumIDs trims ids, rejects blanks and drops repeats while keeping order.
func validateAlbumIDs(albumIDs []string) ([]string, error) {
	ids := make([]string, 0, len(albumIDs))
	for i, id := range albumIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("%w: album id at index %d is empty", shared.ErrInvalidArgument, i)
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// MarkAlbumsKnown records albums as present for a watched artist so later passes skip them.
//
// Album details are fetched concurrently. A failed fetch is reported in FetchErrors and that album is
// skipped; the others are still recorded. Processed counts the albums written.
func (w *WatchService) MarkAlbumsKnown(ctx context.Context, artistID string, albumIDs []string) (*models.MarkResult, error) {
	cfg, err := w.gate()
	if err != nil {
		return nil, err
	}

	ids, err := validateAlbumIDs(albumIDs)
	if err != nil {
		return nil, err
	}

	if _, err := w.store.Get(ctx, artistID); err != nil {
		return nil, notWatched(artistID, err)
	}

	result := &models.MarkResult{ArtistID: artistID, Requested: len(ids)}
	if len(ids) == 0 {
		result.Outcome = models.OutcomeComplete
		return result, nil
	}
	if w.provider == nil {
		return nil, fmt.Errorf("%w: metadata provider not configured", shared.ErrServiceUnavailable)
	}

	details := make([]*models.AlbumDetail, len(ids))
	fetchErrs := make([]error, len(ids))

	var g errgroup.Group
	g.SetLimit(cfg.WorkerCount())
	for i, id := range ids {
		g.Go(func() error {
			detail, err := w.provider.Album(ctx, id)
			switch {
			case err != nil:
			case detail == nil:
				err = fmt.Errorf("%w: no album returned", shared.ErrMetadataFetch)
			case detail.ID != id:
				err = fmt.Errorf("%w: provider returned album %q for %q", shared.ErrMetadataFetch, detail.ID, id)
			}
			details[i], fetchErrs[i] = detail, err
			return nil
		})
	}
	g.Wait()

	albums := make([]models.KnownAlbum, 0, len(ids))
	for i, id := range ids {
		if fetchErrs[i] != nil {
			w.logger.Warn("could not fetch album details", "artist", artistID, "album", id, "err", fetchErrs[i])
			result.FetchErrors = append(result.FetchErrors, models.ItemError{ID: id, Error: fetchErrs[i].Error()})
			continue
		}
		albums = append(albums, models.KnownAlbumFromDetail(artistID, *details[i]))
	}

	if len(albums) > 0 {
		written, err := w.store.UpsertAlbums(ctx, artistID, albums)
		if err != nil {
			return nil, notWatched(artistID, err)
		}
		result.Processed = written
	}

	result.Outcome = models.OutcomeOf(result.Processed, result.Requested)
	w.logger.Info("albums marked as known", "artist", artistID, "processed", result.Processed, "requested", result.Requested)
	return result, nil
}

// MarkAlbumsMissing forgets albums for a watched artist so the next pass treats them as new.
// Ids that were not recorded are ignored; Processed counts the rows removed.
func (w *WatchService) MarkAlbumsMissing(ctx context.Context, artistID string, albumIDs []string) (*models.MarkResult, error) {
	if _, err := w.gate(); err != nil {
		return nil, err
	}

	ids, err := validateAlbumIDs(albumIDs)
	if err != nil {
		return nil, err
	}

	if _, err := w.store.Get(ctx, artistID); err != nil {
		return nil, notWatched(artistID, err)
	}

	deleted, err := w.store.DeleteAlbums(ctx, artistID, ids)
	if err != nil {
		return nil, err
	}

	w.logger.Info("albums marked as missing", "artist", artistID, "deleted", deleted, "requested", len(ids))
	return &models.MarkResult{
		ArtistID:  artistID,
		Requested: len(ids),
		Processed: deleted,
		Outcome:   models.OutcomeOf(deleted, len(ids)),
	}, nil
}

// AlbumInfo is a discography entry annotated with local knowledge.
type AlbumInfo struct {
	models.AlbumRef
	IsLocallyKnown *bool `json:"is_locally_known,omitempty"`
}

// ArtistInfo is an artist's remote discography as seen by the watchlist.
type ArtistInfo struct {
	ArtistID  string      `json:"artist_id"`
	Name      string      `json:"name"`
	IsWatched bool        `json:"is_watched"`
	Total     int         `json:"total"`
	Albums    []AlbumInfo `json:"items"`
}

// ArtistInfo fetches the artist's discography. For watched artists each album carries IsLocallyKnown.
func (w *WatchService) ArtistInfo(ctx context.Context, artistID string) (*ArtistInfo, error) {
	if strings.TrimSpace(artistID) == "" {
		return nil, fmt.Errorf("%w: artist id", shared.ErrMissingArgument)
	}
	if w.provider == nil {
		return nil, fmt.Errorf("%w: metadata provider not configured", shared.ErrServiceUnavailable)
	}

	disc, err := w.provider.Discography(ctx, artistID)
	if err != nil {
		return nil, err
	}
	if disc == nil {
		return nil, fmt.Errorf("%w: no discography returned for %s", shared.ErrMetadataFetch, artistID)
	}

	name, _ := disc.ArtistName(artistID)
	info := &ArtistInfo{
		ArtistID: artistID,
		Name:     name,
		Total:    max(disc.Total, len(disc.Items)),
		Albums:   make([]AlbumInfo, 0, len(disc.Items)),
	}

	var known map[string]struct{}
	artist, err := w.store.Get(ctx, artistID)
	switch {
	case err == nil:
		info.IsWatched = true
		info.Name = artist.Name
		if known, err = w.store.KnownAlbumIDs(ctx, artistID); err != nil {
			return nil, err
		}
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	for _, album := range disc.Items {
		entry := AlbumInfo{AlbumRef: album}
		if info.IsWatched {
			_, ok := known[album.ID]
			entry.IsLocallyKnown = &ok
		}
		info.Albums = append(info.Albums, entry)
	}
	return info, nil
}

// DownloadArtist queues the artist's discography filtered by albumTypes, or by the configured default
// when albumTypes is empty. It works for any artist and does not depend on the watch feature flag.
func (w *WatchService) DownloadArtist(ctx context.Context, artistID, albumTypes string) (*models.DispatchReport, error) {
	if strings.TrimSpace(artistID) == "" {
		return nil, fmt.Errorf("%w: artist id", shared.ErrMissingArgument)
	}
	if strings.TrimSpace(albumTypes) == "" {
		albumTypes = w.downloadType
	}

	report, err := w.engine.DownloadDiscography(ctx, nil, artistID, albumTypes)
	if err != nil {
		return nil, err
	}

	w.logger.Info("artist discography queued", "artist", artistID, "queued", len(report.Queued), "duplicates", len(report.Duplicates), "failed", len(report.Failed))
	return report, nil
}
