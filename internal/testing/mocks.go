package testing

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/discwatch/internal/models"
	"github.com/desertthunder/discwatch/internal/shared"
)

// Album builds a discography entry credited to artistID.
func Album(artistID, id, name, albumType string) models.AlbumRef {
	return models.AlbumRef{
		ID:          id,
		Name:        name,
		AlbumType:   albumType,
		ReleaseDate: "2024-01-01",
		TotalTracks: 10,
		Artists:     []models.ArtistRef{{ID: artistID, Name: "Artist " + artistID}},
	}
}

// MockProvider is a test double for [services.MetadataProvider]. Safe for concurrent use.
type MockProvider struct {
	mu            sync.Mutex
	discographies map[string]*models.Discography
	albums        map[string]*models.AlbumDetail
	discErrs      map[string]error
	albumErrs     map[string]error
	discCalls     map[string]int
	albumCalls    map[string]int

	// OnDiscography, when set, runs before a discography is returned. Useful to block or to mutate state mid-pass.
	OnDiscography func(ctx context.Context, artistID string)
	// PanicFor makes Discography panic for the given artist.
	PanicFor string
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		discographies: make(map[string]*models.Discography),
		albums:        make(map[string]*models.AlbumDetail),
		discErrs:      make(map[string]error),
		albumErrs:     make(map[string]error),
		discCalls:     make(map[string]int),
		albumCalls:    make(map[string]int),
	}
}

// SetDiscography registers albums for artistID. Each album is also served by Album.
func (m *MockProvider) SetDiscography(artistID string, albums ...models.AlbumRef) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := append([]models.AlbumRef{}, albums...)
	m.discographies[artistID] = &models.Discography{ArtistID: artistID, Total: len(items), Items: items}
	for _, a := range albums {
		if a.ID != "" {
			m.albums[a.ID] = &models.AlbumDetail{AlbumRef: a, Label: "Mock Records"}
		}
	}
}

// SetAlbum makes Album answer albumID with detail, whatever id detail carries.
func (m *MockProvider) SetAlbum(albumID string, detail models.AlbumDetail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.albums[albumID] = &detail
}

// FailDiscography makes Discography return err for artistID.
func (m *MockProvider) FailDiscography(artistID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discErrs[artistID] = err
}

// FailAlbum makes Album return err for albumID.
func (m *MockProvider) FailAlbum(albumID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.albumErrs[albumID] = err
}

func (m *MockProvider) Discography(ctx context.Context, artistID string) (*models.Discography, error) {
	m.mu.Lock()
	m.discCalls[artistID]++
	hook, panicFor := m.OnDiscography, m.PanicFor
	m.mu.Unlock()

	if panicFor != "" && panicFor == artistID {
		panic("mock provider exploded")
	}
	if hook != nil {
		hook(ctx, artistID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.discErrs[artistID]; err != nil {
		return nil, err
	}
	disc, ok := m.discographies[artistID]
	if !ok {
		return nil, fmt.Errorf("%w: %w: artist %s", shared.ErrMetadataFetch, shared.ErrNotFound, artistID)
	}
	copied := *disc
	copied.Items = append([]models.AlbumRef{}, disc.Items...)
	return &copied, nil
}

func (m *MockProvider) Album(ctx context.Context, albumID string) (*models.AlbumDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.albumCalls[albumID]++
	if err := m.albumErrs[albumID]; err != nil {
		return nil, err
	}
	detail, ok := m.albums[albumID]
	if !ok {
		return nil, fmt.Errorf("%w: %w: album %s", shared.ErrMetadataFetch, shared.ErrNotFound, albumID)
	}
	copied := *detail
	return &copied, nil
}

// DiscographyCalls returns how many times Discography was called for artistID.
func (m *MockProvider) DiscographyCalls(artistID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.discCalls[artistID]
}

// AlbumCalls returns how many times Album was called for albumID.
func (m *MockProvider) AlbumCalls(albumID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.albumCalls[albumID]
}

// MockDispatcher is a test double for [services.Dispatcher]. Safe for concurrent use.
//
// By default it accepts every request once and reports repeats of the same album as duplicates.
type MockDispatcher struct {
	mu        sync.Mutex
	requests  []models.DownloadRequest
	queued    map[string]bool
	errs      map[string]error
	nothing   map[string]bool
	remember  bool
	taskCount int

	// Gate, when set, is waited on before answering. Close it to release blocked submissions.
	Gate chan struct{}
	// Entered receives one value per submission that reached the dispatcher, before Gate is waited on.
	Entered chan string
}

func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{
		queued:   make(map[string]bool),
		errs:     make(map[string]error),
		nothing:  make(map[string]bool),
		remember: true,
	}
}

// Forgetful makes the dispatcher accept repeats instead of reporting them as duplicates.
func (m *MockDispatcher) Forgetful() *MockDispatcher {
	m.remember = false
	return m
}

// FailAlbum makes submissions for albumID fail with err.
func (m *MockDispatcher) FailAlbum(albumID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[albumID] = err
}

// MarkQueued makes the dispatcher treat albumID as already queued.
func (m *MockDispatcher) MarkQueued(albumID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued[albumID] = true
}

// AcceptNothing makes the dispatcher answer albumID with an empty result: nothing queued and no duplicates.
func (m *MockDispatcher) AcceptNothing(albumID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nothing[albumID] = true
}

func (m *MockDispatcher) SubmitDownload(ctx context.Context, req models.DownloadRequest) (*models.SubmitResult, error) {
	if m.Entered != nil {
		m.Entered <- req.AlbumID
	}
	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if err := m.errs[req.AlbumID]; err != nil {
		return nil, err
	}

	if m.nothing[req.AlbumID] {
		return &models.SubmitResult{}, nil
	}

	item := models.QueuedItem{AlbumID: req.AlbumID, Name: req.Params["name"]}
	if m.queued[req.AlbumID] {
		return &models.SubmitResult{Duplicates: []models.QueuedItem{item}}, nil
	}
	if m.remember {
		m.queued[req.AlbumID] = true
	}

	m.taskCount++
	item.TaskID = fmt.Sprintf("task-%d", m.taskCount)
	return &models.SubmitResult{Queued: []models.QueuedItem{item}}, nil
}

// Requests returns a copy of every request received.
func (m *MockDispatcher) Requests() []models.DownloadRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.DownloadRequest{}, m.requests...)
}

// Accepted returns how many submissions were queued.
func (m *MockDispatcher) Accepted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.taskCount
}
