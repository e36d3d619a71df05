package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// WatchedArtist is an artist whose discography is monitored for new releases.
type WatchedArtist struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	TotalAlbums   int        `json:"total_albums"`
	WatchedSince  time.Time  `json:"watched_since"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty"`
	Sequence      int        `json:"-"`
}

func (a *WatchedArtist) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("artist id is required")
	}
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("artist name is required")
	}
	if a.TotalAlbums < 0 {
		return fmt.Errorf("total albums must not be negative")
	}
	return nil
}

// KnownAlbum records that an album is already present (or queued) locally for a watched artist.
type KnownAlbum struct {
	ArtistID    string          `json:"artist_id"`
	AlbumID     string          `json:"album_id"`
	Title       string          `json:"title"`
	AlbumType   string          `json:"album_type"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	TaskID      string          `json:"task_id,omitempty"`
	AddedAt     time.Time       `json:"added_at"`
}

func (k *KnownAlbum) Validate() error {
	if strings.TrimSpace(k.ArtistID) == "" || strings.TrimSpace(k.AlbumID) == "" {
		return fmt.Errorf("known album requires artist and album ids")
	}
	return nil
}

// NewKnownAlbum builds a [KnownAlbum] from a discography entry, keeping the entry as the metadata snapshot.
func NewKnownAlbum(artistID string, album AlbumRef, taskID string) KnownAlbum {
	snapshot, _ := json.Marshal(album)
	return KnownAlbum{
		ArtistID:    artistID,
		AlbumID:     album.ID,
		Title:       album.Name,
		AlbumType:   album.AlbumType,
		ReleaseDate: album.ReleaseDate,
		TotalTracks: album.TotalTracks,
		Metadata:    snapshot,
		TaskID:      taskID,
		AddedAt:     time.Now().UTC(),
	}
}

// KnownAlbumFromDetail builds a [KnownAlbum] from a full album record.
func KnownAlbumFromDetail(artistID string, detail AlbumDetail) KnownAlbum {
	k := NewKnownAlbum(artistID, detail.AlbumRef, "")
	if snapshot, err := json.Marshal(detail); err == nil {
		k.Metadata = snapshot
	}
	return k
}

// CheckStatus is the final state of a watch pass.
type CheckStatus string

const (
	CheckCompleted CheckStatus = "completed"
	CheckFailed    CheckStatus = "failed"
	CheckDiscarded CheckStatus = "discarded"
	CheckSkipped   CheckStatus = "skipped"
)

// CheckRun is the persisted summary of one watch pass.
type CheckRun struct {
	ID         string      `json:"id"`
	ArtistID   string      `json:"artist_id"`
	BatchID    string      `json:"batch_id"`
	Status     CheckStatus `json:"status"`
	NewAlbums  int         `json:"new_albums"`
	Queued     int         `json:"queued"`
	Duplicates int         `json:"duplicates"`
	Failed     int         `json:"failed"`
	Error      string      `json:"error,omitempty"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
}

// Duration is how long the pass ran.
func (c CheckRun) Duration() time.Duration {
	return c.FinishedAt.Sub(c.StartedAt)
}
