package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/discwatch/internal/models"
	"github.com/desertthunder/discwatch/internal/shared"
)

// WatchRepository persists watched artists and the albums known for each of them.
type WatchRepository struct {
	db *sql.DB
}

// NewWatchRepository creates a new [WatchRepository] with the given database connection
func NewWatchRepository(db *sql.DB) *WatchRepository {
	return &WatchRepository{db: db}
}

const artistColumns = `id, sequence, name, total_albums, watched_since, last_checked_at`

func scanArtist(s scanner) (*models.WatchedArtist, error) {
	var (
		artist      models.WatchedArtist
		lastChecked sql.NullTime
	)
	if err := s.Scan(&artist.ID, &artist.Sequence, &artist.Name, &artist.TotalAlbums, &artist.WatchedSince, &lastChecked); err != nil {
		return nil, err
	}
	if lastChecked.Valid {
		t := lastChecked.Time
		artist.LastCheckedAt = &t
	}
	return &artist, nil
}

// Get retrieves a watched artist by id.
func (r *WatchRepository) Get(ctx context.Context, artistID string) (*models.WatchedArtist, error) {
	query := `SELECT ` + artistColumns + ` FROM watched_artists WHERE id = ?`

	artist, err := scanArtist(r.db.QueryRowContext(ctx, query, artistID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: watched artist %s", shared.ErrNotFound, artistID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query watched artist: %w", err)
	}
	return artist, nil
}

// List returns every watched artist in the order they were added.
func (r *WatchRepository) List(ctx context.Context) ([]models.WatchedArtist, error) {
	query := `SELECT ` + artistColumns + ` FROM watched_artists ORDER BY sequence ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query watched artists: %w", err)
	}
	defer rows.Close()

	artists := []models.WatchedArtist{}
	for rows.Next() {
		artist, err := scanArtist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watched artist: %w", err)
		}
		artists = append(artists, *artist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return artists, nil
}

// Insert adds a watched artist. Returns [shared.ErrAlreadyExists] when the id is already watched.
func (r *WatchRepository) Insert(ctx context.Context, artist *models.WatchedArtist) error {
	if err := artist.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	if artist.WatchedSince.IsZero() {
		artist.WatchedSince = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := nextSequence(ctx, tx, "watched_artists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	query := `
		INSERT INTO watched_artists (id, sequence, name, total_albums, watched_since, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query, artist.ID, sequence, artist.Name, artist.TotalAlbums, artist.WatchedSince, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert watched artist: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: artist %s is already watched", shared.ErrAlreadyExists, artist.ID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit watched artist: %w", err)
	}

	artist.Sequence = sequence
	return nil
}

// Delete removes a watched artist and all of its known albums.
func (r *WatchRepository) Delete(ctx context.Context, artistID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM known_albums WHERE artist_id = ?", artistID); err != nil {
		return fmt.Errorf("failed to delete known albums: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM watched_artists WHERE id = ?", artistID)
	if err != nil {
		return fmt.Errorf("failed to delete watched artist: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: watched artist %s", shared.ErrNotFound, artistID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit artist removal: %w", err)
	}
	return nil
}

// Touch records a completed pass: the check time and the remote album total.
func (r *WatchRepository) Touch(ctx context.Context, artistID string, checkedAt time.Time, totalAlbums int) error {
	query := `
		UPDATE watched_artists
		SET last_checked_at = ?, total_albums = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query, checkedAt, totalAlbums, time.Now().UTC(), artistID)
	if err != nil {
		return fmt.Errorf("failed to update watched artist: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: watched artist %s", shared.ErrNotFound, artistID)
	}
	return nil
}

// IsAlbumKnown reports whether albumID is recorded for artistID.
func (r *WatchRepository) IsAlbumKnown(ctx context.Context, artistID, albumID string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM known_albums WHERE artist_id = ? AND album_id = ?)"
	if err := r.db.QueryRowContext(ctx, query, artistID, albumID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check known album: %w", err)
	}
	return exists, nil
}

// KnownAlbumIDs returns the set of album ids recorded for artistID.
func (r *WatchRepository) KnownAlbumIDs(ctx context.Context, artistID string) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT album_id FROM known_albums WHERE artist_id = ?", artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query known albums: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan known album: %w", err)
		}
		ids[id] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return ids, nil
}

// ListAlbums returns the known albums for artistID, newest release first.
func (r *WatchRepository) ListAlbums(ctx context.Context, artistID string) ([]models.KnownAlbum, error) {
	query := `
		SELECT artist_id, album_id, title, album_type, release_date, total_tracks, metadata, task_id, added_at
		FROM known_albums
		WHERE artist_id = ?
		ORDER BY release_date DESC, title ASC
	`

	rows, err := r.db.QueryContext(ctx, query, artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query known albums: %w", err)
	}
	defer rows.Close()

	albums := []models.KnownAlbum{}
	for rows.Next() {
		var (
			album    models.KnownAlbum
			metadata string
		)
		err := rows.Scan(&album.ArtistID, &album.AlbumID, &album.Title, &album.AlbumType,
			&album.ReleaseDate, &album.TotalTracks, &metadata, &album.TaskID, &album.AddedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan known album: %w", err)
		}
		album.Metadata = []byte(metadata)
		albums = append(albums, album)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return albums, nil
}

// UpsertAlbums inserts or refreshes known albums for artistID and returns how many rows were written.
//
// The artist is re-checked inside the transaction: if it was removed concurrently nothing is written
// and [shared.ErrNotFound] is returned.
func (r *WatchRepository) UpsertAlbums(ctx context.Context, artistID string, albums []models.KnownAlbum) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM watched_artists WHERE id = ?)", artistID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("failed to check watched artist: %w", err)
	}
	if !exists {
		return 0, fmt.Errorf("%w: watched artist %s", shared.ErrNotFound, artistID)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO known_albums (artist_id, album_id, title, album_type, release_date, total_tracks, metadata, task_id, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(artist_id, album_id) DO UPDATE SET
			title = excluded.title,
			album_type = excluded.album_type,
			release_date = excluded.release_date,
			total_tracks = excluded.total_tracks,
			metadata = excluded.metadata,
			task_id = CASE WHEN excluded.task_id = '' THEN known_albums.task_id ELSE excluded.task_id END
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare album upsert: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, album := range albums {
		album.ArtistID = artistID
		if err := album.Validate(); err != nil {
			return 0, fmt.Errorf("%w: %v", shared.ErrValidation, err)
		}
		if album.AddedAt.IsZero() {
			album.AddedAt = time.Now().UTC()
		}
		metadata := string(album.Metadata)
		if metadata == "" {
			metadata = "{}"
		}

		_, err := stmt.ExecContext(ctx, album.ArtistID, album.AlbumID, album.Title, album.AlbumType,
			album.ReleaseDate, album.TotalTracks, metadata, album.TaskID, album.AddedAt)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert album %s: %w", album.AlbumID, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit known albums: %w", err)
	}
	return written, nil
}

// DeleteAlbums removes known albums by id and returns how many rows were deleted.
// Ids that are not recorded are ignored.
func (r *WatchRepository) DeleteAlbums(ctx context.Context, artistID string, albumIDs []string) (int, error) {
	if len(albumIDs) == 0 {
		return 0, nil
	}

	args := make([]any, 0, len(albumIDs)+1)
	args = append(args, artistID)
	for _, id := range albumIDs {
		args = append(args, id)
	}

	query := fmt.Sprintf("DELETE FROM known_albums WHERE artist_id = ? AND album_id IN (%s)", placeholders(len(albumIDs)))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete known albums: %w", err)
	}
	return rowsAffected(result)
}

// CountAlbums returns the number of known albums for artistID.
func (r *WatchRepository) CountAlbums(ctx context.Context, artistID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM known_albums WHERE artist_id = ?", artistID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count known albums: %w", err)
	}
	return n, nil
}
