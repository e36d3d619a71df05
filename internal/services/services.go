// package services defines the collaborators the watch engine talks to over HTTP
//
// Spotify (metadata), download queue (dispatch)
package services

import (
	"context"

	"github.com/desertthunder/discwatch/internal/models"
)

// MetadataProvider is the authoritative source of artist discographies and album details.
type MetadataProvider interface {
	// Discography returns every album entry for artistID.
	// An artist with no releases yields an empty, non-nil discography.
	Discography(ctx context.Context, artistID string) (*models.Discography, error)

	// Album returns the full record for one album.
	Album(ctx context.Context, albumID string) (*models.AlbumDetail, error)
}

// Dispatcher hands albums to the download subsystem.
//
// Items the queue already holds come back in [models.SubmitResult.Duplicates]; that is not an error.
type Dispatcher interface {
	SubmitDownload(ctx context.Context, req models.DownloadRequest) (*models.SubmitResult, error)
}
