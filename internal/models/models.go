// package models defines the data model for the artist watch service
package models

import (
	"fmt"
	"slices"
	"strings"
)

const UnknownArtistName = "Unknown Artist"

// ArtistRef is an artist credit on an album.
type ArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AlbumRef is one entry of an artist's discography.
type AlbumRef struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	AlbumType   string      `json:"album_type"`
	AlbumGroup  string      `json:"album_group,omitempty"`
	ReleaseDate string      `json:"release_date"`
	TotalTracks int         `json:"total_tracks"`
	URL         string      `json:"url,omitempty"`
	Artists     []ArtistRef `json:"artists"`
}

// Validate checks that the entry can be tracked.
func (a AlbumRef) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("album entry %q has no id", a.Name)
	}
	return nil
}

// Group returns the grouping used for album type filters: the album group relative to the
// artist when the provider reports one, otherwise the album type.
func (a AlbumRef) Group() string {
	if a.AlbumGroup != "" {
		return strings.ToLower(a.AlbumGroup)
	}
	return strings.ToLower(a.AlbumType)
}

// MatchesTypes reports whether the album passes a normalized album type filter.
// An empty filter matches everything.
func (a AlbumRef) MatchesTypes(types []string) bool {
	return len(types) == 0 || slices.Contains(types, a.Group())
}

// AlbumDetail is the full album record.
type AlbumDetail struct {
	AlbumRef
	Label      string   `json:"label,omitempty"`
	Popularity int      `json:"popularity,omitempty"`
	Tracks     []string `json:"tracks,omitempty"`
}

// Discography lists the albums of one artist.
type Discography struct {
	ArtistID string     `json:"artist_id"`
	Total    int        `json:"total"`
	Items    []AlbumRef `json:"items"`
}

// Empty reports whether the discography has no album entries.
func (d *Discography) Empty() bool {
	return d == nil || len(d.Items) == 0
}

// ArtistName resolves the display name for artistID from the discography:
//
//  1. the first album's credit whose id matches artistID
//  2. the first album's first credited artist, with warn set
//  3. [UnknownArtistName]
//
// Collaborations and compilations can put another artist first, so case 2 is a best-effort guess.
func (d *Discography) ArtistName(artistID string) (name string, warn bool) {
	if d.Empty() || len(d.Items[0].Artists) == 0 {
		return UnknownArtistName, false
	}

	credits := d.Items[0].Artists
	for _, a := range credits {
		if a.ID == artistID && a.Name != "" {
			return a.Name, false
		}
	}

	if credits[0].Name != "" {
		return credits[0].Name, true
	}
	return UnknownArtistName, false
}
