package repositories

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/desertthunder/discwatch/internal/models"
	"github.com/desertthunder/discwatch/internal/shared"
)

func newMockRepo(t *testing.T) (*WatchRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewWatchRepository(db), mock
}

func TestWatchRepositoryErrors(t *testing.T) {
	ctx := context.Background()
	errDB := fmt.Errorf("disk I/O error")

	t.Run("Get", func(t *testing.T) {
		t.Run("QueryError", func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectQuery("SELECT .* FROM watched_artists WHERE id = ?").
				WithArgs("a1").
				WillReturnError(errDB)

			_, err := repo.Get(ctx, "a1")
			if err == nil || errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("expected a non-NotFound error, got %v", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	})

	t.Run("List", func(t *testing.T) {
		t.Run("ScanError", func(t *testing.T) {
			repo, mock := newMockRepo(t)
			rows := sqlmock.NewRows([]string{"id", "sequence"}).AddRow("a1", 1)
			mock.ExpectQuery("SELECT .* FROM watched_artists ORDER BY sequence").WillReturnRows(rows)

			if _, err := repo.List(ctx); err == nil {
				t.Fatal("expected scan error for mismatched columns")
			}
		})

		t.Run("RowError", func(t *testing.T) {
			repo, mock := newMockRepo(t)
			now := time.Now()
			rows := sqlmock.NewRows([]string{"id", "sequence", "name", "total_albums", "watched_since", "last_checked_at"}).
				AddRow("a1", 1, "One", 2, now, nil).
				RowError(0, errDB)
			mock.ExpectQuery("SELECT .* FROM watched_artists ORDER BY sequence").WillReturnRows(rows)

			if _, err := repo.List(ctx); err == nil {
				t.Fatal("expected row iteration error")
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("RollsBackOnFailure", func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectBegin()
			mock.ExpectExec("DELETE FROM known_albums WHERE artist_id = ?").
				WithArgs("a1").
				WillReturnResult(sqlmock.NewResult(0, 2))
			mock.ExpectExec("DELETE FROM watched_artists WHERE id = ?").
				WithArgs("a1").
				WillReturnError(errDB)
			mock.ExpectRollback()

			if err := repo.Delete(ctx, "a1"); err == nil {
				t.Fatal("expected delete error")
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})

		t.Run("NotFoundRollsBack", func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectBegin()
			mock.ExpectExec("DELETE FROM known_albums").WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec("DELETE FROM watched_artists").WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectRollback()

			if err := repo.Delete(ctx, "a1"); !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	})

	t.Run("UpsertAlbums", func(t *testing.T) {
		t.Run("CommitError", func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectBegin()
			mock.ExpectQuery("SELECT EXISTS").
				WithArgs("a1").
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
			prep := mock.ExpectPrepare("INSERT INTO known_albums")
			prep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
			mock.ExpectCommit().WillReturnError(errDB)

			n, err := repo.UpsertAlbums(ctx, "a1", []models.KnownAlbum{album("x", "X")})
			if err == nil || n != 0 {
				t.Fatalf("UpsertAlbums() = %d, %v; want 0 and an error", n, err)
			}
		})

		t.Run("ExecError", func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectBegin()
			mock.ExpectQuery("SELECT EXISTS").
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
			prep := mock.ExpectPrepare("INSERT INTO known_albums")
			prep.ExpectExec().WillReturnError(errDB)
			mock.ExpectRollback()

			if _, err := repo.UpsertAlbums(ctx, "a1", []models.KnownAlbum{album("x", "X")}); err == nil {
				t.Fatal("expected exec error")
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	})

	t.Run("DeleteAlbums", func(t *testing.T) {
		t.Run("ExecError", func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectExec("DELETE FROM known_albums WHERE artist_id = \\? AND album_id IN \\(\\?, \\?\\)").
				WithArgs("a1", "x", "y").
				WillReturnError(errDB)

			if _, err := repo.DeleteAlbums(ctx, "a1", []string{"x", "y"}); err == nil {
				t.Fatal("expected exec error")
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	})

	t.Run("Insert", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			repo, mock := newMockRepo(t)

			err := repo.Insert(ctx, &models.WatchedArtist{ID: "a1"})
			if !errors.Is(err, shared.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("no statements should run for invalid input: %v", err)
			}
		})

		t.Run("SequenceError", func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectBegin()
			mock.ExpectExec("UPDATE watched_artists_sequence").WillReturnError(errDB)
			mock.ExpectRollback()

			if err := repo.Insert(ctx, &models.WatchedArtist{ID: "a1", Name: "One"}); err == nil {
				t.Fatal("expected sequence error")
			}
		})
	})
}
