package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/discwatch/internal/models"
	"github.com/desertthunder/discwatch/internal/shared"
	"github.com/desertthunder/discwatch/internal/tasks"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, opened *[]string) *Model {
	t.Helper()
	m := NewModel(context.Background(), ModelOpts{
		OpenURL: func(u string) error {
			if opened != nil {
				*opened = append(*opened, u)
			}
			return nil
		},
	})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func testArtists() []models.WatchedArtist {
	checked := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	return []models.WatchedArtist{
		{ID: "a1", Name: "First Artist", TotalAlbums: 4, LastCheckedAt: &checked},
		{ID: "a2", Name: "Second Artist"},
	}
}

func TestItems(t *testing.T) {
	t.Run("artist item", func(t *testing.T) {
		item := artistItem{artist: testArtists()[1]}
		if item.Title() != "Second Artist" {
			t.Errorf("unexpected title %q", item.Title())
		}
		if !strings.Contains(item.Description(), "never checked") {
			t.Errorf("expected never checked, got %q", item.Description())
		}

		item.checking = true
		if !strings.HasSuffix(item.Title(), "⟳") {
			t.Errorf("expected checking marker, got %q", item.Title())
		}
	})

	t.Run("album item", func(t *testing.T) {
		item := albumItem{album: models.KnownAlbum{Title: "LP", AlbumType: "album", ReleaseDate: "2024-01-01", TotalTracks: 9}}
		if got := item.Description(); got != "album • 2024-01-01 • 9 tracks" {
			t.Errorf("unexpected description %q", got)
		}

		bare := albumItem{album: models.KnownAlbum{Title: "EP", AlbumType: "single"}}
		if got := bare.Description(); got != "single" {
			t.Errorf("unexpected description %q", got)
		}
	})
}

func TestWatchTheme(t *testing.T) {
	tc := []struct {
		outcome models.Outcome
		want    lipgloss.TerminalColor
	}{
		{models.OutcomeComplete, colorQueued},
		{models.OutcomePartial, colorPartial},
		{models.OutcomeNone, colorFailed},
	}
	for _, c := range tc {
		if got := theme.outcome(c.outcome).GetForeground(); got != c.want {
			t.Errorf("outcome(%s) foreground = %v, want %v", c.outcome, got, c.want)
		}
	}
}

func TestModelUpdate(t *testing.T) {
	t.Run("artists fetched", func(t *testing.T) {
		m := newTestModel(t, nil)
		m.Update(artistsFetchedMsg(testArtists(), []string{"a2"}, nil))

		items := m.artistList.Items()
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}
		if items[0].(artistItem).checking {
			t.Error("a1 should not be marked as checking")
		}
		if !items[1].(artistItem).checking {
			t.Error("a2 should be marked as checking")
		}
		if !strings.Contains(m.View(), "First Artist") {
			t.Error("view should list the artists")
		}
	})

	t.Run("fetch error", func(t *testing.T) {
		m := newTestModel(t, nil)
		m.Update(artistsFetchedMsg(nil, nil, errors.New("database is locked")))
		if !strings.Contains(m.View(), "database is locked") {
			t.Errorf("expected error view, got %q", m.View())
		}
	})

	t.Run("empty watchlist", func(t *testing.T) {
		m := newTestModel(t, nil)
		m.Update(artistsFetchedMsg(nil, nil, nil))
		if !strings.Contains(m.View(), "No artists are being watched") {
			t.Errorf("expected empty state, got %q", m.View())
		}
	})

	t.Run("albums fetched switches view", func(t *testing.T) {
		m := newTestModel(t, nil)
		albums := []models.KnownAlbum{{AlbumID: "alb1", Title: "LP", AlbumType: "album"}}
		m.Update(albumsFetchedMsg(testArtists()[0], albums, nil))

		if m.view != AlbumListView {
			t.Fatalf("expected album view, got %d", m.view)
		}
		if len(m.albumList.Items()) != 1 {
			t.Errorf("expected 1 album, got %d", len(m.albumList.Items()))
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.view != ArtistListView {
			t.Errorf("esc should return to the artist list, got %d", m.view)
		}
	})

	t.Run("remove confirmation", func(t *testing.T) {
		m := newTestModel(t, nil)
		m.Update(artistsFetchedMsg(testArtists(), nil, nil))

		m.Update(runes("x"))
		if m.view != ConfirmView {
			t.Fatalf("expected confirm view, got %d", m.view)
		}
		if m.selected == nil || m.selected.ID != "a1" {
			t.Fatalf("expected a1 selected, got %+v", m.selected)
		}
		if !strings.Contains(m.View(), "Stop watching First Artist?") {
			t.Errorf("unexpected confirm view %q", m.View())
		}

		m.Update(runes("n"))
		if m.view != ArtistListView {
			t.Errorf("n should cancel, got %d", m.view)
		}

		m.Update(runes("x"))
		_, cmd := m.Update(runes("y"))
		if cmd == nil {
			t.Error("y should return a remove command")
		}
	})

	t.Run("artist removed", func(t *testing.T) {
		m := newTestModel(t, nil)
		m.view = ConfirmView
		m.Update(artistRemovedMsg("a1", shared.ErrArtistNotWatched))
		if m.view != ArtistListView {
			t.Errorf("expected artist list, got %d", m.view)
		}
		if !strings.Contains(m.status, "not watched") {
			t.Errorf("expected error status, got %q", m.status)
		}
	})

	t.Run("open artist and album", func(t *testing.T) {
		var opened []string
		m := newTestModel(t, &opened)
		m.Update(artistsFetchedMsg(testArtists(), nil, nil))

		_, cmd := m.Update(runes("o"))
		if cmd == nil {
			t.Fatal("expected open command")
		}
		if msg := cmd(); msg != nil {
			t.Errorf("expected no message, got %v", msg)
		}

		m.Update(albumsFetchedMsg(testArtists()[0], []models.KnownAlbum{{AlbumID: "alb1", Title: "LP"}}, nil))
		_, cmd = m.Update(runes("o"))
		cmd()

		want := []string{shared.ArtistURL("a1"), shared.AlbumURL("alb1")}
		if fmt.Sprint(opened) != fmt.Sprint(want) {
			t.Errorf("opened %v, want %v", opened, want)
		}
	})

	t.Run("open failure reported", func(t *testing.T) {
		m := NewModel(context.Background(), ModelOpts{OpenURL: func(string) error { return errors.New("no browser") }})
		m.Update(artistsFetchedMsg(testArtists(), nil, nil))

		_, cmd := m.Update(runes("o"))
		m.Update(cmd())
		if !strings.Contains(m.status, "no browser") {
			t.Errorf("expected status to carry error, got %q", m.status)
		}
	})

	t.Run("check without scheduler", func(t *testing.T) {
		m := newTestModel(t, nil)
		m.Update(artistsFetchedMsg(testArtists(), nil, nil))

		_, cmd := m.Update(runes("c"))
		if cmd != nil {
			t.Error("expected no command without a scheduler")
		}
		if !strings.Contains(m.status, "scheduler not running") {
			t.Errorf("unexpected status %q", m.status)
		}
	})

	t.Run("check triggered", func(t *testing.T) {
		m := newTestModel(t, nil)
		m.Update(checkTriggeredMsg(nil, shared.ErrQueueFull))
		if !strings.Contains(m.status, "check queue is full") {
			t.Errorf("expected queue full status, got %q", m.status)
		}
		if m.view != ArtistListView {
			t.Errorf("failed trigger should not switch views")
		}
	})

	t.Run("progress updates", func(t *testing.T) {
		ch := make(chan tasks.ProgressUpdate, 1)
		m := NewModel(context.Background(), ModelOpts{Progress: ch})

		for i := range maxLogLines + 3 {
			m.Update(progressUpdateMsg(tasks.ProgressUpdate{Phase: tasks.Queued, ArtistID: "a1", Message: fmt.Sprintf("line %d", i)}))
		}
		if len(m.log) != maxLogLines {
			t.Fatalf("expected log capped at %d, got %d", maxLogLines, len(m.log))
		}
		if m.log[0] != "a1: line 3" {
			t.Errorf("expected oldest lines dropped, got %q", m.log[0])
		}

		report := &tasks.BatchReport{
			BatchID: "batch-123456789",
			Checked: []tasks.ArtistCheck{{}},
			Failed:  []models.ItemError{{ID: "a2", Error: "metadata fetch failed"}},
			Outcome: models.OutcomePartial,
		}
		_, cmd := m.Update(progressUpdateMsg(tasks.ProgressUpdate{Phase: tasks.BatchDone, Message: "done", Data: report}))
		if cmd == nil {
			t.Error("expected follow-up commands after a progress update")
		}
		if m.lastReport != report {
			t.Fatal("expected last report to be recorded")
		}

		m.view = CheckView
		view := m.View()
		if !strings.Contains(view, "Last batch batch-12") {
			t.Errorf("missing batch summary: %q", view)
		}
		if !strings.Contains(view, "a2: metadata fetch failed") {
			t.Errorf("missing failure line: %q", view)
		}
	})

	t.Run("wait for progress", func(t *testing.T) {
		ch := make(chan tasks.ProgressUpdate, 1)
		m := NewModel(context.Background(), ModelOpts{Progress: ch})

		ch <- tasks.ProgressUpdate{Phase: tasks.Completed, Message: "ok"}
		msg := m.waitForProgress()().(Msg)
		if msg.kind != MsgProgressUpdate {
			t.Errorf("expected progress update, got %d", msg.kind)
		}

		close(ch)
		msg = m.waitForProgress()().(Msg)
		if msg.kind != MsgProgressClosed {
			t.Errorf("expected closed message, got %d", msg.kind)
		}

		m.Update(msg)
		if m.waitForProgress() != nil {
			t.Error("expected no command once the channel is closed")
		}
	})

	t.Run("check view toggles", func(t *testing.T) {
		m := newTestModel(t, nil)
		m.Update(runes("p"))
		if m.view != CheckView {
			t.Fatalf("expected check view, got %d", m.view)
		}
		if !strings.Contains(m.View(), "Waiting for progress") {
			t.Errorf("unexpected check view %q", m.View())
		}
		m.Update(runes("p"))
		if m.view != ArtistListView {
			t.Errorf("expected artist list, got %d", m.view)
		}
	})

	t.Run("quit", func(t *testing.T) {
		m := newTestModel(t, nil)
		_, cmd := m.Update(runes("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}
