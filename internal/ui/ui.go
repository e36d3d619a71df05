package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/discwatch/internal/models"
	"github.com/desertthunder/discwatch/internal/shared"
	"github.com/desertthunder/discwatch/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ArtistListView ViewState = iota
	AlbumListView
	ConfirmView
	CheckView
)

const maxLogLines = 12

// ModelOpts contains the dependencies of the TUI.
type ModelOpts struct {
	Service   *tasks.WatchService
	Scheduler *tasks.Scheduler            // Optional; check keys are disabled without it
	Progress  <-chan tasks.ProgressUpdate // The scheduler's progress channel
	OpenURL   func(string) error          // Defaults to [shared.OpenBrowser]
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	svc        *tasks.WatchService
	scheduler  *tasks.Scheduler
	progress   <-chan tasks.ProgressUpdate
	openURL    func(string) error
	width      int
	height     int
	artistList list.Model
	albumList  list.Model
	selected   *models.WatchedArtist
	log        []string
	lastReport *tasks.BatchReport
	status     string
	err        error
	help       help.Model
	keys       keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	artists := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	artists.Title = "Watched Artists"
	albums := list.New(nil, list.NewDefaultDelegate(), 0, 0)

	return &Model{
		ctx:        ctx,
		view:       ArtistListView,
		svc:        opts.Service,
		scheduler:  opts.Scheduler,
		progress:   opts.Progress,
		openURL:    opts.OpenURL,
		artistList: artists,
		albumList:  albums,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init loads the watchlist and starts listening for progress updates.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchArtists(), m.waitForProgress())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.artistList.SetSize(msg.Width-4, msg.Height-8)
		m.albumList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ArtistListView:
			return m.handleArtistListKeys(msg)
		case AlbumListView:
			return m.handleAlbumListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case CheckView:
			return m.handleCheckKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgArtistsFetched:
		data := msg.data.(artistsData)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		m.setArtists(data.artists, data.checking)
		return m, nil

	case MsgAlbumsFetched:
		data := msg.data.(albumsData)
		if data.err != nil {
			m.status = theme.failure.Render(data.err.Error())
			return m, nil
		}
		items := make([]list.Item, len(data.albums))
		for i, a := range data.albums {
			items[i] = albumItem{album: a}
		}
		m.albumList.SetItems(items)
		m.albumList.Title = fmt.Sprintf("Known albums of %s (%d)", data.artist.Name, len(data.albums))
		m.view = AlbumListView
		return m, nil

	case MsgCheckTriggered:
		data := msg.data.(triggerData)
		if data.err != nil {
			m.status = theme.failure.Render(fmt.Sprintf("Check not started: %v", data.err))
			return m, nil
		}
		m.status = fmt.Sprintf("Batch %s queued for %d artist(s)", shortID(data.batch.ID), len(data.batch.ArtistIDs))
		m.view = CheckView
		return m, m.fetchArtists()

	case MsgArtistRemoved:
		data := msg.data.(removedData)
		m.view = ArtistListView
		if data.err != nil {
			m.status = theme.failure.Render(data.err.Error())
			return m, nil
		}
		m.status = fmt.Sprintf("Stopped watching %s", data.artistID)
		return m, m.fetchArtists()

	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		m.appendLog(update)
		cmds := []tea.Cmd{m.waitForProgress()}
		if report, ok := update.Data.(*tasks.BatchReport); ok && update.Phase == tasks.BatchDone {
			m.lastReport = report
			cmds = append(cmds, m.fetchArtists())
		}
		return m, tea.Batch(cmds...)

	case MsgProgressClosed:
		m.progress = nil
		return m, nil

	case MsgError:
		m.status = theme.failure.Render(msg.data.(error).Error())
		return m, nil
	}
	return m, nil
}

func (m *Model) setArtists(artists []models.WatchedArtist, checking []string) {
	busy := make(map[string]bool, len(checking))
	for _, id := range checking {
		busy[id] = true
	}

	items := make([]list.Item, len(artists))
	for i, a := range artists {
		items[i] = artistItem{artist: a, checking: busy[a.ID]}
	}
	m.artistList.SetItems(items)
	m.artistList.Title = fmt.Sprintf("Watched Artists (%d)", len(artists))
}

func (m *Model) appendLog(u tasks.ProgressUpdate) {
	line := u.Message
	if u.ArtistID != "" && !strings.Contains(line, u.ArtistID) {
		line = fmt.Sprintf("%s: %s", u.ArtistID, line)
	}
	m.log = append(m.log, line)
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
}

func (m *Model) selectedArtist() *models.WatchedArtist {
	if item, ok := m.artistList.SelectedItem().(artistItem); ok {
		artist := item.artist
		return &artist
	}
	return nil
}

func (m *Model) handleArtistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.artistList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		m.status = ""
		return m, m.fetchArtists()
	case key.Matches(msg, m.keys.checkAll):
		return m, m.triggerCheck("")
	case key.Matches(msg, m.keys.progress):
		m.view = CheckView
		return m, nil
	}

	artist := m.selectedArtist()
	if artist == nil {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.enter):
		m.selected = artist
		return m, m.fetchAlbums(*artist)
	case key.Matches(msg, m.keys.check):
		return m, m.triggerCheck(artist.ID)
	case key.Matches(msg, m.keys.open):
		return m, m.open(shared.ArtistURL(artist.ID))
	case key.Matches(msg, m.keys.remove):
		m.selected = artist
		m.view = ConfirmView
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleAlbumListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.albumList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ArtistListView
		return m, nil
	case key.Matches(msg, m.keys.open):
		if item, ok := m.albumList.SelectedItem().(albumItem); ok {
			return m, m.open(shared.AlbumURL(item.album.AlbumID))
		}
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		if m.selected == nil {
			m.view = ArtistListView
			return m, nil
		}
		return m, m.removeArtist(m.selected.ID)
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.view = ArtistListView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleCheckKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.progress):
		m.view = ArtistListView
		return m, nil
	case key.Matches(msg, m.keys.checkAll):
		return m, m.triggerCheck("")
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ArtistListView:
		m.artistList, cmd = m.artistList.Update(msg)
	case AlbumListView:
		m.albumList, cmd = m.albumList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchArtists() tea.Cmd {
	return func() tea.Msg {
		artists, err := m.svc.List(m.ctx)
		var checking []string
		if m.scheduler != nil {
			checking = m.scheduler.Status().Checking
		}
		return artistsFetchedMsg(artists, checking, err)
	}
}

func (m *Model) fetchAlbums(artist models.WatchedArtist) tea.Cmd {
	return func() tea.Msg {
		albums, err := m.svc.KnownAlbums(m.ctx, artist.ID)
		return albumsFetchedMsg(artist, albums, err)
	}
}

func (m *Model) triggerCheck(artistID string) tea.Cmd {
	if m.scheduler == nil {
		m.status = theme.partial.Render("Checks are unavailable: scheduler not running")
		return nil
	}
	return func() tea.Msg {
		batch, err := m.scheduler.TriggerCheck(m.ctx, artistID)
		return checkTriggeredMsg(batch, err)
	}
}

func (m *Model) removeArtist(artistID string) tea.Cmd {
	return func() tea.Msg {
		return artistRemovedMsg(artistID, m.svc.RemoveArtist(m.ctx, artistID))
	}
}

func (m *Model) open(url string) tea.Cmd {
	return func() tea.Msg {
		if err := m.openURL(url); err != nil {
			return errorMsg(err)
		}
		return nil
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	if m.progress == nil {
		return nil
	}
	ch := m.progress
	return func() tea.Msg {
		select {
		case update, ok := <-ch:
			if !ok {
				return progressClosedMsg()
			}
			return progressUpdateMsg(update)
		case <-m.ctx.Done():
			return progressClosedMsg()
		}
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return theme.failure.Render(fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit", m.err))
	}

	switch m.view {
	case ArtistListView:
		return m.renderArtistList()
	case AlbumListView:
		return m.renderAlbumList()
	case ConfirmView:
		return m.renderConfirm()
	case CheckView:
		return m.renderCheck()
	default:
		return ""
	}
}

func (m *Model) footer(bindings ...key.Binding) string {
	out := m.help.ShortHelpView(bindings)
	if m.status != "" {
		out = m.status + "\n" + out
	}
	return out
}

func (m *Model) renderArtistList() string {
	if len(m.artistList.Items()) == 0 {
		empty := theme.hint.Render("No artists are being watched. Add one with `discwatch watch add <id>`.")
		return fmt.Sprintf("%s\n\n%s\n\n%s", theme.heading.Render("Watched Artists"), empty,
			m.footer(m.keys.refresh, m.keys.progress, m.keys.quit))
	}
	return fmt.Sprintf("%s\n\n%s", m.artistList.View(),
		m.footer(m.keys.enter, m.keys.check, m.keys.checkAll, m.keys.open, m.keys.remove, m.keys.progress, m.keys.quit))
}

func (m *Model) renderAlbumList() string {
	if len(m.albumList.Items()) == 0 {
		return fmt.Sprintf("%s\n\n%s\n\n%s", theme.heading.Render(m.albumList.Title),
			theme.hint.Render("No albums recorded yet. Run a check to populate."), m.footer(m.keys.back, m.keys.quit))
	}
	return fmt.Sprintf("%s\n\n%s", m.albumList.View(), m.footer(m.keys.open, m.keys.back, m.keys.quit))
}

func (m *Model) renderConfirm() string {
	name := "this artist"
	if m.selected != nil {
		name = m.selected.Name
	}
	title := theme.heading.Render(fmt.Sprintf("Stop watching %s?", name))
	info := theme.partial.Render("Known albums for this artist will be forgotten.")
	return fmt.Sprintf("%s\n%s\n\n%s", title, info, m.footer(m.keys.yes, m.keys.no))
}

func (m *Model) renderCheck() string {
	var b strings.Builder
	b.WriteString(theme.heading.Render("Checks"))
	b.WriteString("\n")

	if len(m.log) == 0 {
		b.WriteString(theme.hint.Render("Waiting for progress..."))
		b.WriteString("\n")
	}
	for _, line := range m.log {
		b.WriteString(line)
		b.WriteString("\n")
	}

	if r := m.lastReport; r != nil {
		b.WriteString("\n")
		summary := fmt.Sprintf("Last batch %s: %d checked, %d skipped, %d failed, %d queued, %d duplicate (%s)",
			shortID(r.BatchID), len(r.Checked), len(r.Skipped), len(r.Failed), r.Queued, r.Duplicates, r.Outcome)
		if r.Outcome == models.OutcomeComplete {
			summary = "✓ " + summary
		}
		b.WriteString(theme.outcome(r.Outcome).Render(summary))
		b.WriteString("\n")
		for _, f := range r.Failed {
			b.WriteString(theme.failure.Render(fmt.Sprintf("  • %s: %s", f.ID, f.Error)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.footer(m.keys.checkAll, m.keys.back, m.keys.quit))
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
