package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/discwatch/internal/models"
	"github.com/desertthunder/discwatch/internal/shared"
)

// Source tags sent with download submissions.
const (
	SourceArtistWatch    = "artist_watch"
	SourceArtistDownload = "artist_download"
)

// WatchStore is the durable watch state. [repositories.WatchRepository] implements it.
//
// Get, Delete, Touch and UpsertAlbums report a missing artist with [shared.ErrNotFound].
type WatchStore interface {
	Get(ctx context.Context, artistID string) (*models.WatchedArtist, error)
	List(ctx context.Context) ([]models.WatchedArtist, error)
	Insert(ctx context.Context, artist *models.WatchedArtist) error
	Delete(ctx context.Context, artistID string) error
	Touch(ctx context.Context, artistID string, checkedAt time.Time, totalAlbums int) error
	IsAlbumKnown(ctx context.Context, artistID, albumID string) (bool, error)
	KnownAlbumIDs(ctx context.Context, artistID string) (map[string]struct{}, error)
	ListAlbums(ctx context.Context, artistID string) ([]models.KnownAlbum, error)
	UpsertAlbums(ctx context.Context, artistID string, albums []models.KnownAlbum) (int, error)
	DeleteAlbums(ctx context.Context, artistID string, albumIDs []string) (int, error)
}

// CheckHistory records finished passes. [repositories.CheckRunRepository] implements it.
type CheckHistory interface {
	Create(ctx context.Context, run *models.CheckRun) error
	List(ctx context.Context, artistID string, limit int) ([]models.CheckRun, error)
}

// notWatched converts a store miss into [shared.ErrArtistNotWatched] and passes other errors through.
func notWatched(artistID string, err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("%w: %s", shared.ErrArtistNotWatched, artistID)
	}
	return err
}

// albumURL returns the album's provider URL, building a Spotify link when the listing omitted it.
func albumURL(album models.AlbumRef) string {
	if album.URL != "" {
		return album.URL
	}
	return shared.AlbumURL(album.ID)
}
