// Spotify API implementation of [MetadataProvider]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/discwatch/internal/models"
	"github.com/desertthunder/discwatch/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// include_groups used for discographies
	spotifyAlbumGroups = "album,single,compilation,appears_on"
	spotifyPageSize    = 50
	// Guard against a misbehaving next link.
	spotifyMaxPages = 40
)

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyAlbum represents a simplified Spotify album as returned by the artist albums endpoint.
type SpotifyAlbum struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	AlbumType    string          `json:"album_type"`
	AlbumGroup   string          `json:"album_group"`
	Artists      []SpotifyArtist `json:"artists"`
	ReleaseDate  string          `json:"release_date"`
	TotalTracks  int             `json:"total_tracks"`
	Images       []SpotifyImage  `json:"images"`
	ExternalURLs externalURLs    `json:"external_urls"`
	URI          string          `json:"uri"`
}

// SpotifyFullAlbum represents the album endpoint response.
type SpotifyFullAlbum struct {
	SpotifyAlbum
	Label      string `json:"label"`
	Popularity int    `json:"popularity"`
	Tracks     struct {
		Items []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"items"`
	} `json:"tracks"`
}

// SpotifyPaginatedAlbums represents a page of an artist's albums.
type SpotifyPaginatedAlbums struct {
	Items    []SpotifyAlbum `json:"items"`
	Total    int            `json:"total"`
	Limit    int            `json:"limit"`
	Offset   int            `json:"offset"`
	Next     *string        `json:"next"`
	Previous *string        `json:"previous"`
}

func (a SpotifyAlbum) toRef() models.AlbumRef {
	artists := make([]models.ArtistRef, 0, len(a.Artists))
	for _, artist := range a.Artists {
		artists = append(artists, models.ArtistRef{ID: artist.ID, Name: artist.Name})
	}
	return models.AlbumRef{
		ID:          a.ID,
		Name:        a.Name,
		AlbumType:   a.AlbumType,
		AlbumGroup:  a.AlbumGroup,
		ReleaseDate: a.ReleaseDate,
		TotalTracks: a.TotalTracks,
		URL:         a.ExternalURLs.Spotify,
		Artists:     artists,
	}
}

// SpotifyService implements [MetadataProvider] for the Spotify Web API.
type SpotifyService struct {
	baseURL    string
	market     string
	httpClient *http.Client
}

// NewSpotifyService creates a Spotify client authenticated with the client credentials grant.
//
// base is used for both token and API requests and defaults to [http.DefaultClient].
func NewSpotifyService(cfg shared.SpotifyConfig, base *http.Client) (*SpotifyService, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: spotify client_id", shared.ErrMissingCredentials)
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_secret", shared.ErrMissingCredentials)
	}
	if base == nil {
		base = http.DefaultClient
	}

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyTokenURL
	}
	baseURL := strings.TrimRight(cfg.APIURL, "/")
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	return &SpotifyService{
		baseURL:    baseURL,
		market:     cfg.Market,
		httpClient: cc.Client(ctx),
	}, nil
}

// Name returns the name of the service
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated GET request to the Spotify API and decodes the JSON body.
//
// endpoint is either a path relative to the API base or an absolute "next" link.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	apiURL := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		apiURL = s.baseURL + endpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: spotify returned 404 for %s", shared.ErrNotFound, req.URL.Path)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: spotify status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: spotify status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// ArtistAlbums retrieves one page of an artist's albums.
func (s *SpotifyService) ArtistAlbums(ctx context.Context, artistID string, limit, offset int) (*SpotifyPaginatedAlbums, error) {
	params := url.Values{}
	params.Set("include_groups", spotifyAlbumGroups)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	if s.market != "" {
		params.Set("market", s.market)
	}

	endpoint := fmt.Sprintf("/artists/%s/albums?%s", url.PathEscape(artistID), params.Encode())

	var page SpotifyPaginatedAlbums
	if err := s.doRequest(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Discography collects every page of the artist's albums.
func (s *SpotifyService) Discography(ctx context.Context, artistID string) (*models.Discography, error) {
	if strings.TrimSpace(artistID) == "" {
		return nil, fmt.Errorf("%w: artist id is required", shared.ErrValidation)
	}

	disc := &models.Discography{ArtistID: artistID, Items: []models.AlbumRef{}}
	offset := 0
	for range spotifyMaxPages {
		page, err := s.ArtistAlbums(ctx, artistID, spotifyPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("%w: discography for %s: %w", shared.ErrMetadataFetch, artistID, err)
		}

		for _, album := range page.Items {
			disc.Items = append(disc.Items, album.toRef())
		}
		disc.Total = page.Total

		offset += len(page.Items)
		if page.Next == nil || len(page.Items) == 0 || offset >= page.Total {
			break
		}
	}

	return disc, nil
}

// Album retrieves the full record for albumID.
func (s *SpotifyService) Album(ctx context.Context, albumID string) (*models.AlbumDetail, error) {
	if strings.TrimSpace(albumID) == "" {
		return nil, fmt.Errorf("%w: album id is required", shared.ErrValidation)
	}

	endpoint := "/albums/" + url.PathEscape(albumID)
	if s.market != "" {
		endpoint += "?market=" + url.QueryEscape(s.market)
	}

	var album SpotifyFullAlbum
	if err := s.doRequest(ctx, endpoint, &album); err != nil {
		return nil, fmt.Errorf("%w: album %s: %w", shared.ErrMetadataFetch, albumID, err)
	}

	detail := &models.AlbumDetail{
		AlbumRef:   album.toRef(),
		Label:      album.Label,
		Popularity: album.Popularity,
	}
	for _, track := range album.Tracks.Items {
		detail.Tracks = append(detail.Tracks, track.Name)
	}

	if err := detail.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMetadataFetch, err)
	}
	return detail, nil
}
