package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/discwatch/internal/models"
)

var (
	_ list.Item = artistItem{}
	_ list.Item = albumItem{}
)

// artistItem wraps [models.WatchedArtist] to implement [list.Item].
type artistItem struct {
	artist   models.WatchedArtist
	checking bool
}

func (i artistItem) FilterValue() string { return i.artist.Name }
func (i artistItem) Title() string {
	if i.checking {
		return i.artist.Name + theme.checking.Render(" ⟳")
	}
	return i.artist.Name
}
func (i artistItem) Description() string {
	checked := "never checked"
	if i.artist.LastCheckedAt != nil {
		checked = "checked " + i.artist.LastCheckedAt.Local().Format("2006-01-02 15:04")
	}
	return fmt.Sprintf("%d albums • %s", i.artist.TotalAlbums, checked)
}

// albumItem wraps [models.KnownAlbum] to implement [list.Item].
type albumItem struct {
	album models.KnownAlbum
}

func (i albumItem) FilterValue() string { return i.album.Title }
func (i albumItem) Title() string       { return i.album.Title }
func (i albumItem) Description() string {
	desc := i.album.AlbumType
	if i.album.ReleaseDate != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.album.ReleaseDate)
	}
	if i.album.TotalTracks > 0 {
		desc = fmt.Sprintf("%s • %d tracks", desc, i.album.TotalTracks)
	}
	return desc
}
