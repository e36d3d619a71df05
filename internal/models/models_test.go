package models

import (
	"encoding/json"
	"testing"
)

func TestDiscographyArtistName(t *testing.T) {
	tc := []struct {
		name     string
		disc     *Discography
		want     string
		wantWarn bool
	}{
		{
			name: "matching credit",
			disc: &Discography{Items: []AlbumRef{{ID: "al1", Artists: []ArtistRef{{ID: "x", Name: "Guest"}, {ID: "a1", Name: "Main Act"}}}}},
			want: "Main Act",
		},
		{
			name:     "no matching credit falls back to first artist",
			disc:     &Discography{Items: []AlbumRef{{ID: "al1", Artists: []ArtistRef{{ID: "x", Name: "Various Artists"}}}}},
			want:     "Various Artists",
			wantWarn: true,
		},
		{
			name: "no albums",
			disc: &Discography{},
			want: UnknownArtistName,
		},
		{
			name: "nil discography",
			disc: nil,
			want: UnknownArtistName,
		},
		{
			name: "album without credits",
			disc: &Discography{Items: []AlbumRef{{ID: "al1"}}},
			want: UnknownArtistName,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, warn := tt.disc.ArtistName("a1")
			if got != tt.want || warn != tt.wantWarn {
				t.Errorf("ArtistName() = %q, %v; want %q, %v", got, warn, tt.want, tt.wantWarn)
			}
		})
	}
}

func TestAlbumRef(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		if err := (AlbumRef{Name: "No ID"}).Validate(); err == nil {
			t.Error("expected error for missing id")
		}
		if err := (AlbumRef{ID: "x"}).Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("MatchesTypes prefers album group", func(t *testing.T) {
		a := AlbumRef{ID: "x", AlbumType: "album", AlbumGroup: "appears_on"}
		if a.MatchesTypes([]string{"album"}) {
			t.Error("appears_on album should not match album filter")
		}
		if !a.MatchesTypes(nil) {
			t.Error("empty filter should match")
		}
		if !(AlbumRef{ID: "y", AlbumType: "Single"}).MatchesTypes([]string{"single"}) {
			t.Error("album type should be compared case-insensitively")
		}
	})
}

func TestOutcomeOf(t *testing.T) {
	tc := []struct {
		done, requested int
		want            Outcome
	}{
		{0, 0, OutcomeComplete},
		{0, 3, OutcomeNone},
		{2, 3, OutcomePartial},
		{3, 3, OutcomeComplete},
	}
	for _, tt := range tc {
		if got := OutcomeOf(tt.done, tt.requested); got != tt.want {
			t.Errorf("OutcomeOf(%d, %d) = %s, want %s", tt.done, tt.requested, got, tt.want)
		}
	}
}

func TestNewKnownAlbum(t *testing.T) {
	ref := AlbumRef{ID: "al1", Name: "First", AlbumType: "album", ReleaseDate: "2020-01-01", TotalTracks: 9}
	k := NewKnownAlbum("a1", ref, "task-1")

	if k.AlbumID != "al1" || k.Title != "First" || k.TaskID != "task-1" || k.TotalTracks != 9 {
		t.Errorf("unexpected known album: %+v", k)
	}

	var decoded AlbumRef
	if err := json.Unmarshal(k.Metadata, &decoded); err != nil || decoded.ID != "al1" {
		t.Errorf("metadata snapshot should decode to the album ref, got %s (%v)", k.Metadata, err)
	}

	if err := k.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}
