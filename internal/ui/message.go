package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/discwatch/internal/models"
	"github.com/desertthunder/discwatch/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgArtistsFetched MsgKind = iota
	MsgAlbumsFetched
	MsgCheckTriggered
	MsgArtistRemoved
	MsgProgressUpdate
	MsgProgressClosed
	MsgError
)

type artistsData struct {
	artists  []models.WatchedArtist
	checking []string
	err      error
}

type albumsData struct {
	artist models.WatchedArtist
	albums []models.KnownAlbum
	err    error
}

type triggerData struct {
	batch *tasks.Batch
	err   error
}

type removedData struct {
	artistID string
	err      error
}

// artistsFetchedMsg is the constructor for [MsgArtistsFetched]
func artistsFetchedMsg(artists []models.WatchedArtist, checking []string, err error) Msg {
	return Msg{kind: MsgArtistsFetched, data: artistsData{artists, checking, err}}
}

// albumsFetchedMsg is the constructor for [MsgAlbumsFetched]
func albumsFetchedMsg(artist models.WatchedArtist, albums []models.KnownAlbum, err error) Msg {
	return Msg{kind: MsgAlbumsFetched, data: albumsData{artist, albums, err}}
}

// checkTriggeredMsg is the constructor for [MsgCheckTriggered]
func checkTriggeredMsg(batch *tasks.Batch, err error) Msg {
	return Msg{kind: MsgCheckTriggered, data: triggerData{batch, err}}
}

// artistRemovedMsg is the constructor for [MsgArtistRemoved]
func artistRemovedMsg(artistID string, err error) Msg {
	return Msg{kind: MsgArtistRemoved, data: removedData{artistID, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

func progressClosedMsg() Msg {
	return Msg{kind: MsgProgressClosed}
}

func errorMsg(err error) Msg {
	return Msg{kind: MsgError, data: err}
}
