package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/discwatch/internal/models"
	"github.com/desertthunder/discwatch/internal/shared"
)

// CheckRunRepository stores the outcome of completed watch passes.
type CheckRunRepository struct {
	db *sql.DB
}

// NewCheckRunRepository creates a new [CheckRunRepository] with the given database connection
func NewCheckRunRepository(db *sql.DB) *CheckRunRepository {
	return &CheckRunRepository{db: db}
}

// Create inserts a check run, generating its id when empty.
func (r *CheckRunRepository) Create(ctx context.Context, run *models.CheckRun) error {
	if run.ArtistID == "" {
		return fmt.Errorf("%w: check run requires an artist id", shared.ErrValidation)
	}
	if run.ID == "" {
		run.ID = shared.GenerateID()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.FinishedAt
	}

	query := `
		INSERT INTO check_runs (
			id, artist_id, batch_id, status, new_albums, queued,
			duplicates, failed, error, started_at, finished_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		run.ArtistID,
		run.BatchID,
		string(run.Status),
		run.NewAlbums,
		run.Queued,
		run.Duplicates,
		run.Failed,
		run.Error,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert check run: %w", err)
	}
	return nil
}

// List returns the most recent check runs, optionally filtered by artist. A limit of zero returns 50.
func (r *CheckRunRepository) List(ctx context.Context, artistID string, limit int) ([]models.CheckRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, artist_id, batch_id, status, new_albums, queued, duplicates, failed, error, started_at, finished_at
		FROM check_runs
	`
	args := []any{}
	if artistID != "" {
		query += " WHERE artist_id = ?"
		args = append(args, artistID)
	}
	query += " ORDER BY finished_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query check runs: %w", err)
	}
	defer rows.Close()

	runs := []models.CheckRun{}
	for rows.Next() {
		var (
			run    models.CheckRun
			status string
		)
		err := rows.Scan(&run.ID, &run.ArtistID, &run.BatchID, &status, &run.NewAlbums, &run.Queued,
			&run.Duplicates, &run.Failed, &run.Error, &run.StartedAt, &run.FinishedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan check run: %w", err)
		}
		run.Status = models.CheckStatus(status)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

// Prune deletes check runs finished before cutoff and returns how many were removed.
func (r *CheckRunRepository) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM check_runs WHERE finished_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune check runs: %w", err)
	}
	return rowsAffected(result)
}
