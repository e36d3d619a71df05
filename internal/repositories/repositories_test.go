package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/discwatch/internal/models"
	"github.com/desertthunder/discwatch/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func watchArtist(t *testing.T, repo *WatchRepository, id, name string) *models.WatchedArtist {
	t.Helper()

	artist := &models.WatchedArtist{ID: id, Name: name, TotalAlbums: 3}
	if err := repo.Insert(context.Background(), artist); err != nil {
		t.Fatalf("failed to insert artist %s: %v", id, err)
	}
	return artist
}

func album(id, name string) models.KnownAlbum {
	return models.NewKnownAlbum("", models.AlbumRef{ID: id, Name: name, AlbumType: "album", ReleaseDate: "2024-01-01"}, "")
}

func TestWatchRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Insert and Get", func(t *testing.T) {
		repo := NewWatchRepository(setupTestDB(t))
		artist := watchArtist(t, repo, "a1", "Artist One")

		if artist.Sequence != 1 {
			t.Errorf("expected sequence 1, got %d", artist.Sequence)
		}
		if artist.WatchedSince.IsZero() {
			t.Error("watched_since should be set on insert")
		}

		got, err := repo.Get(ctx, "a1")
		if err != nil {
			t.Fatalf("failed to get artist: %v", err)
		}
		if got.Name != "Artist One" || got.TotalAlbums != 3 {
			t.Errorf("unexpected artist: %+v", got)
		}
		if got.LastCheckedAt != nil {
			t.Error("last_checked_at should be empty before the first check")
		}
	})

	t.Run("Insert duplicate", func(t *testing.T) {
		repo := NewWatchRepository(setupTestDB(t))
		watchArtist(t, repo, "a1", "Artist One")

		err := repo.Insert(ctx, &models.WatchedArtist{ID: "a1", Name: "Again"})
		if !errors.Is(err, shared.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}

		got, _ := repo.Get(ctx, "a1")
		if got.Name != "Artist One" {
			t.Errorf("duplicate insert should not overwrite, got name %q", got.Name)
		}
	})

	t.Run("Insert concurrently", func(t *testing.T) {
		repo := NewWatchRepository(setupTestDB(t))

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			created int
		)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := repo.Insert(ctx, &models.WatchedArtist{ID: "a1", Name: "Artist"})
				if err == nil {
					mu.Lock()
					created++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if created != 1 {
			t.Errorf("expected exactly one insert to succeed, got %d", created)
		}
	})

	t.Run("List preserves insertion order", func(t *testing.T) {
		repo := NewWatchRepository(setupTestDB(t))
		watchArtist(t, repo, "b", "Second Alphabetically")
		watchArtist(t, repo, "a", "First Alphabetically")

		artists, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(artists) != 2 || artists[0].ID != "b" || artists[1].ID != "a" {
			t.Errorf("unexpected order: %+v", artists)
		}
	})

	t.Run("List empty", func(t *testing.T) {
		repo := NewWatchRepository(setupTestDB(t))
		artists, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if artists == nil || len(artists) != 0 {
			t.Errorf("expected empty non-nil list, got %v", artists)
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		repo := NewWatchRepository(setupTestDB(t))
		if _, err := repo.Get(ctx, "nope"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Delete cascades to known albums", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewWatchRepository(db)
		watchArtist(t, repo, "a1", "Artist One")

		if _, err := repo.UpsertAlbums(ctx, "a1", []models.KnownAlbum{album("x", "X"), album("y", "Y")}); err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}

		if err := repo.Delete(ctx, "a1"); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM known_albums WHERE artist_id = 'a1'").Scan(&count); err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if count != 0 {
			t.Errorf("expected known albums to be removed, found %d", count)
		}

		// Re-watching starts with an empty known set.
		watchArtist(t, repo, "a1", "Artist One")
		known, err := repo.IsAlbumKnown(ctx, "a1", "x")
		if err != nil || known {
			t.Errorf("IsAlbumKnown after re-add = %v, %v; want false", known, err)
		}
	})

	t.Run("Delete missing", func(t *testing.T) {
		repo := NewWatchRepository(setupTestDB(t))
		if err := repo.Delete(ctx, "nope"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Touch", func(t *testing.T) {
		repo := NewWatchRepository(setupTestDB(t))
		watchArtist(t, repo, "a1", "Artist One")

		checked := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		if err := repo.Touch(ctx, "a1", checked, 12); err != nil {
			t.Fatalf("failed to touch: %v", err)
		}

		got, _ := repo.Get(ctx, "a1")
		if got.LastCheckedAt == nil || !got.LastCheckedAt.Equal(checked) {
			t.Errorf("expected last_checked_at %v, got %v", checked, got.LastCheckedAt)
		}
		if got.TotalAlbums != 12 {
			t.Errorf("expected total albums 12, got %d", got.TotalAlbums)
		}

		if err := repo.Touch(ctx, "nope", checked, 1); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestWatchRepositoryAlbums(t *testing.T) {
	ctx := context.Background()

	t.Run("UpsertAlbums", func(t *testing.T) {
		repo := NewWatchRepository(setupTestDB(t))
		watchArtist(t, repo, "a1", "Artist One")

		n, err := repo.UpsertAlbums(ctx, "a1", []models.KnownAlbum{album("x", "X"), album("y", "Y")})
		if err != nil || n != 2 {
			t.Fatalf("UpsertAlbums() = %d, %v; want 2, nil", n, err)
		}

		updated := album("x", "X (Deluxe)")
		updated.TaskID = "task-9"
		if _, err := repo.UpsertAlbums(ctx, "a1", []models.KnownAlbum{updated}); err != nil {
			t.Fatalf("second upsert failed: %v", err)
		}

		albums, err := repo.ListAlbums(ctx, "a1")
		if err != nil {
			t.Fatalf("failed to list albums: %v", err)
		}
		if len(albums) != 2 {
			t.Fatalf("expected 2 albums after upsert, got %d", len(albums))
		}

		byID := map[string]models.KnownAlbum{}
		for _, a := range albums {
			byID[a.AlbumID] = a
		}
		if byID["x"].Title != "X (Deluxe)" || byID["x"].TaskID != "task-9" {
			t.Errorf("upsert should refresh existing row, got %+v", byID["x"])
		}
		if len(byID["y"].Metadata) == 0 {
			t.Error("metadata snapshot should round trip")
		}

		count, _ := repo.CountAlbums(ctx, "a1")
		if count != 2 {
			t.Errorf("CountAlbums() = %d, want 2", count)
		}
	})

	t.Run("UpsertAlbums keeps task id when refreshed without one", func(t *testing.T) {
		repo := NewWatchRepository(setupTestDB(t))
		watchArtist(t, repo, "a1", "Artist One")

		first := album("x", "X")
		first.TaskID = "task-1"
		repo.UpsertAlbums(ctx, "a1", []models.KnownAlbum{first})
		repo.UpsertAlbums(ctx, "a1", []models.KnownAlbum{album("x", "X")})

		albums, _ := repo.ListAlbums(ctx, "a1")
		if len(albums) != 1 || albums[0].TaskID != "task-1" {
			t.Errorf("expected task id to be kept, got %+v", albums)
		}
	})

	t.Run("UpsertAlbums for removed artist", func(t *testing.T) {
		repo := NewWatchRepository(setupTestDB(t))

		n, err := repo.UpsertAlbums(ctx, "gone", []models.KnownAlbum{album("x", "X")})
		if !errors.Is(err, shared.ErrNotFound) || n != 0 {
			t.Errorf("UpsertAlbums() = %d, %v; want 0, ErrNotFound", n, err)
		}
	})

	t.Run("UpsertAlbums rejects empty album id", func(t *testing.T) {
		repo := NewWatchRepository(setupTestDB(t))
		watchArtist(t, repo, "a1", "Artist One")

		_, err := repo.UpsertAlbums(ctx, "a1", []models.KnownAlbum{album("ok", "Ok"), album("", "Bad")})
		if !errors.Is(err, shared.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}

		count, _ := repo.CountAlbums(ctx, "a1")
		if count != 0 {
			t.Errorf("failed upsert should write nothing, found %d rows", count)
		}
	})

	t.Run("KnownAlbumIDs and IsAlbumKnown", func(t *testing.T) {
		repo := NewWatchRepository(setupTestDB(t))
		watchArtist(t, repo, "a1", "Artist One")
		watchArtist(t, repo, "a2", "Artist Two")
		repo.UpsertAlbums(ctx, "a1", []models.KnownAlbum{album("x", "X")})
		repo.UpsertAlbums(ctx, "a2", []models.KnownAlbum{album("z", "Z")})

		ids, err := repo.KnownAlbumIDs(ctx, "a1")
		if err != nil {
			t.Fatalf("KnownAlbumIDs() error = %v", err)
		}
		if _, ok := ids["x"]; !ok || len(ids) != 1 {
			t.Errorf("unexpected known ids: %v", ids)
		}

		known, _ := repo.IsAlbumKnown(ctx, "a1", "z")
		if known {
			t.Error("albums are scoped per artist")
		}
	})

	t.Run("DeleteAlbums", func(t *testing.T) {
		repo := NewWatchRepository(setupTestDB(t))
		watchArtist(t, repo, "a1", "Artist One")
		repo.UpsertAlbums(ctx, "a1", []models.KnownAlbum{album("x", "X"), album("y", "Y")})

		n, err := repo.DeleteAlbums(ctx, "a1", []string{"x", "not-there"})
		if err != nil || n != 1 {
			t.Fatalf("DeleteAlbums() = %d, %v; want 1, nil", n, err)
		}

		n, err = repo.DeleteAlbums(ctx, "a1", nil)
		if err != nil || n != 0 {
			t.Errorf("DeleteAlbums(nil) = %d, %v; want 0, nil", n, err)
		}

		known, _ := repo.IsAlbumKnown(ctx, "a1", "y")
		if !known {
			t.Error("y should remain known")
		}
	})
}

func TestCheckRunRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create and List", func(t *testing.T) {
		repo := NewCheckRunRepository(setupTestDB(t))
		base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

		for i, artist := range []string{"a1", "a2", "a1"} {
			run := &models.CheckRun{
				ArtistID:   artist,
				Status:     models.CheckCompleted,
				Queued:     i,
				StartedAt:  base.Add(time.Duration(i) * time.Hour),
				FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Minute),
			}
			if err := repo.Create(ctx, run); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
			if run.ID == "" {
				t.Error("run id should be generated")
			}
		}

		runs, err := repo.List(ctx, "a1", 0)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 2 || runs[0].Queued != 2 {
			t.Errorf("expected newest a1 run first, got %+v", runs)
		}
		if runs[0].Duration() != time.Minute {
			t.Errorf("unexpected duration %v", runs[0].Duration())
		}

		all, _ := repo.List(ctx, "", 1)
		if len(all) != 1 {
			t.Errorf("limit should apply, got %d runs", len(all))
		}
	})

	t.Run("Create requires artist", func(t *testing.T) {
		repo := NewCheckRunRepository(setupTestDB(t))
		if err := repo.Create(ctx, &models.CheckRun{}); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("Prune", func(t *testing.T) {
		repo := NewCheckRunRepository(setupTestDB(t))
		old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		recent := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

		repo.Create(ctx, &models.CheckRun{ArtistID: "a1", Status: models.CheckCompleted, FinishedAt: old})
		repo.Create(ctx, &models.CheckRun{ArtistID: "a1", Status: models.CheckCompleted, FinishedAt: recent})

		n, err := repo.Prune(ctx, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
		if err != nil || n != 1 {
			t.Errorf("Prune() = %d, %v; want 1, nil", n, err)
		}
	})
}
